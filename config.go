package halfu

import (
	"github.com/sirupsen/logrus"

	"github.com/ccbrown/hal-fu/curie"
	"github.com/ccbrown/hal-fu/hal"
)

// Config defines the CURIEs, polymorphic types, and other parameters for a Mapper.
type Config struct {
	Logger logrus.FieldLogger

	// Curies are available to every resource type. Declarations made by resource types take
	// precedence over these.
	Curies []curie.Mapping

	// If given, CURIE declarations are also loaded from this YAML file. See curie.LoadFile for the
	// format. File declarations take precedence over Curies.
	CuriesFile string

	// If given, CurieProvider supplies mappings for prefixes that aren't declared anywhere. For
	// example, curie.SimpleProvider{RelsBaseURI: "https://example.com/rels"}.
	CurieProvider curie.Provider

	// Interface types whose values are written with a discriminator so they can be read back.
	PolymorphicTypes []hal.Polymorphic

	// The initial view. If empty, every property is active. See Mapper.WithView.
	View string

	// By default, properties that aren't restricted to any views are active in every view. If
	// true, they're only active when no view is selected.
	ExcludeUnviewedProperties bool
}

func (cfg *Config) curieTable() (*curie.Table, error) {
	table, err := curie.NewValidatedTable(cfg.Curies...)
	if err != nil {
		return nil, err
	}
	if cfg.CuriesFile != "" {
		file, err := curie.LoadFile(cfg.CuriesFile)
		if err != nil {
			return nil, err
		}
		table = table.With(file)
	}
	return table, nil
}
