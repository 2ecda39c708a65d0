package curie

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the YAML representation of a set of CURIE declarations:
//
//	curies:
//	  - prefix: acme
//	    href: https://docs.acme.com/rels/{rel}
type File struct {
	Curies []Mapping `yaml:"curies"`
}

// LoadFile loads and parses a YAML declaration file from the given path.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curie file %s: %w", path, err)
	}

	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse parses YAML declarations into a validated table.
func Parse(data []byte) (*Table, error) {
	var f File

	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse curie YAML: %w", err)
	}

	t, err := NewValidatedTable(f.Curies...)
	if err != nil {
		return nil, fmt.Errorf("invalid curie declarations: %w", err)
	}
	return t, nil
}

// Marshal serializes a table to YAML, with prefixes in sorted order.
func Marshal(t *Table) ([]byte, error) {
	return yaml.Marshal(&File{
		Curies: t.Mappings(),
	})
}
