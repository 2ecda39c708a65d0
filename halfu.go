package halfu

import (
	"io"
	"io/ioutil"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ccbrown/hal-fu/curie"
	"github.com/ccbrown/hal-fu/hal"
	"github.com/ccbrown/hal-fu/schema"
)

// Mapper converts resources to and from HAL documents. Mappers are immutable and safe for
// concurrent use.
type Mapper struct {
	config *Config
	logger logrus.FieldLogger
	curies *curie.Table
	types  *hal.TypeRegistry
	view   string
}

func NewMapper(cfg *Config) (*Mapper, error) {
	curies, err := cfg.curieTable()
	if err != nil {
		return nil, errors.Wrap(err, "error building curie table")
	}
	types, err := hal.NewTypeRegistry(cfg.PolymorphicTypes...)
	if err != nil {
		return nil, errors.Wrap(err, "error registering polymorphic types")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	config := *cfg
	return &Mapper{
		config: &config,
		logger: logger,
		curies: curies,
		types:  types,
		view:   cfg.View,
	}, nil
}

var defaultMapper = &Mapper{
	config: &Config{},
	logger: logrus.StandardLogger(),
}

// WithView returns a copy of the mapper that only reads and writes properties that are part of
// the given view. Properties that don't declare any views are included unless the mapper was
// configured with ExcludeUnviewedProperties. An empty view disables filtering.
func (m *Mapper) WithView(view string) *Mapper {
	ret := *m
	ret.view = view
	return &ret
}

// View returns the mapper's current view.
func (m *Mapper) View() string {
	return m.view
}

func (m *Mapper) isActive(p schema.Property) bool {
	if m.view == "" {
		return true
	}
	views := p.Views()
	if len(views) == 0 {
		return !m.config.ExcludeUnviewedProperties
	}
	for _, view := range views {
		if view == m.view {
			return true
		}
	}
	return false
}

func (m *Mapper) encoder() *hal.Encoder {
	return &hal.Encoder{
		Logger:        m.logger,
		Curies:        m.curies,
		CurieProvider: m.config.CurieProvider,
		Types:         m.types,
		Active:        m.isActive,
	}
}

func (m *Mapper) decoder() *hal.Decoder {
	return &hal.Decoder{
		Logger: m.logger,
		Curies: m.curies,
		Types:  m.types,
		Active: m.isActive,
	}
}

// Marshal returns the HAL document for v, which must be a struct or a pointer to one.
func (m *Mapper) Marshal(v interface{}) ([]byte, error) {
	return m.encoder().Marshal(v)
}

// Unmarshal reads a HAL document into v, which must be a non-nil pointer.
func (m *Mapper) Unmarshal(data []byte, v interface{}) error {
	return m.decoder().Unmarshal(data, v)
}

// Encode writes the HAL document for v to w. Nothing is written if v can't be encoded.
func (m *Mapper) Encode(w io.Writer, v interface{}) error {
	buf, err := m.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// Decode reads a HAL document from r into v.
func (m *Mapper) Decode(r io.Reader, v interface{}) error {
	buf, err := ioutil.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "unable to read document")
	}
	return m.Unmarshal(buf, v)
}

// Marshal returns the HAL document for v using the default configuration.
func Marshal(v interface{}) ([]byte, error) {
	return defaultMapper.Marshal(v)
}

// Unmarshal reads a HAL document into v using the default configuration.
func Unmarshal(data []byte, v interface{}) error {
	return defaultMapper.Unmarshal(data, v)
}
