package hal

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ccbrown/hal-fu/curie"
	"github.com/ccbrown/hal-fu/schema"
)

// Section identifies one of the reserved sections of a HAL document.
type Section int

const (
	Links Section = iota
	Embedded
)

// Name returns the member name of the section, "_links" or "_embedded".
func (s Section) Name() string {
	if s == Embedded {
		return "_embedded"
	}
	return "_links"
}

func (s Section) String() string {
	return s.Name()
}

// Salts holds the per-section salts used to flatten reserved sections into a single namespace.
// Each read operation generates its own salts, so flattened names never outlive the operation and
// can't be forged by documents.
type Salts struct {
	links    string
	embedded string
}

// NewSalts generates a fresh pair of random salts.
func NewSalts() (Salts, error) {
	links, err := uuid.NewRandom()
	if err != nil {
		return Salts{}, errors.Wrap(err, "unable to generate links salt")
	}
	embedded, err := uuid.NewRandom()
	if err != nil {
		return Salts{}, errors.Wrap(err, "unable to generate embedded salt")
	}
	return Salts{
		links:    links.String(),
		embedded: embedded.String(),
	}, nil
}

func (s Salts) salt(section Section) string {
	if section == Embedded {
		return s.embedded
	}
	return s.links
}

// FlattenedName returns the name a member of the given section is moved to. Names of different
// sections never collide with each other, and never collide with state because they start with a
// salt.
func (s Salts) FlattenedName(section Section, rel string) string {
	return s.salt(section) + ":" + rel
}

// Unflatten is the inverse of FlattenedName. It returns false for names that weren't produced by
// these salts.
func (s Salts) Unflatten(name string) (section Section, rel string, ok bool) {
	for _, candidate := range []Section{Links, Embedded} {
		salt := s.salt(candidate)
		if salt != "" && strings.HasPrefix(name, salt+":") {
			return candidate, name[len(salt)+1:], true
		}
	}
	return Links, "", false
}

// EffectiveRelation resolves a "prefix:reference" relation through the table. Relations that
// aren't CURIEs or whose prefix isn't in the table are returned verbatim.
func EffectiveRelation(key string, table *curie.Table) string {
	if uri, ok := table.Resolve(key); ok {
		return uri
	}
	return key
}

// Flatten moves the members of a reserved section into root under their flattened names. The
// "curies" member of the links section is skipped. For links, relations are resolved through the
// table first. Existence of matching properties is not checked here.
func Flatten(section Section, body *OrderedMap, table *curie.Table, salts Salts, root *OrderedMap) {
	for _, item := range body.Items() {
		rel := item.Key
		if section == Links {
			if rel == schema.CuriesRelation {
				continue
			}
			rel = EffectiveRelation(rel, table)
		}
		root.Put(salts.FlattenedName(section, rel), item.Value)
	}
}
