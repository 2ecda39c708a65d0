// Package curie implements compact URIs as used by HAL: a "prefix:reference" relation name is
// expanded by substituting the reference into the "{rel}" placeholder of the template declared
// for the prefix.
package curie

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Placeholder is substituted with the reference part of a CURIE.
const Placeholder = "{rel}"

// Mapping declares the template for a CURIE prefix.
type Mapping struct {
	Prefix string `yaml:"prefix"`

	// A URI template containing exactly one "{rel}" placeholder, e.g. "http://docs.my.site/{rel}".
	Template string `yaml:"href"`
}

func isGloballyAllowedCharacter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func isInternallyAllowedCharacter(r rune) bool {
	return isGloballyAllowedCharacter(r) || r == '-' || r == '_' || r == '.'
}

// ValidatePrefix checks that a prefix can appear before the colon of a CURIE.
func ValidatePrefix(prefix string) error {
	if len(prefix) < 1 {
		return fmt.Errorf("prefixes must have at least one character")
	} else if strings.IndexFunc(prefix, func(r rune) bool {
		return !isInternallyAllowedCharacter(r)
	}) >= 0 {
		return fmt.Errorf("prefixes may only contain numbers, letters, periods, hyphens, and underscores")
	} else if !isGloballyAllowedCharacter(rune(prefix[0])) {
		return fmt.Errorf("prefixes must begin with a number or letter")
	}
	return nil
}

// Validate checks the prefix and that the template contains exactly one placeholder.
func (m Mapping) Validate() error {
	if err := ValidatePrefix(m.Prefix); err != nil {
		return errors.Wrapf(err, "invalid curie prefix %q", m.Prefix)
	}
	if n := strings.Count(m.Template, Placeholder); n != 1 {
		return errors.Errorf("curie template for %q must contain exactly one %v placeholder, found %v", m.Prefix, Placeholder, n)
	}
	return nil
}

// Table resolves CURIEs using a set of mappings keyed by prefix. Tables are immutable. A nil
// *Table is a valid, empty table.
type Table struct {
	templates map[string]string
}

// NewTable creates a table from the given mappings. If a prefix is given more than once, the last
// mapping wins. Mappings are not validated; use Validate or NewValidatedTable for declarations.
func NewTable(mappings ...Mapping) *Table {
	ret := &Table{
		templates: make(map[string]string, len(mappings)),
	}
	for _, m := range mappings {
		ret.templates[m.Prefix] = m.Template
	}
	return ret
}

// NewValidatedTable is like NewTable, but returns an error if any mapping is invalid or a prefix
// is declared twice.
func NewValidatedTable(mappings ...Mapping) (*Table, error) {
	seen := make(map[string]struct{}, len(mappings))
	for _, m := range mappings {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if _, ok := seen[m.Prefix]; ok {
			return nil, errors.Errorf("curie prefix %q is declared more than once", m.Prefix)
		}
		seen[m.Prefix] = struct{}{}
	}
	return NewTable(mappings...), nil
}

// Len returns the number of prefixes in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.templates)
}

// Lookup returns the template declared for the prefix.
func (t *Table) Lookup(prefix string) (string, bool) {
	if t == nil {
		return "", false
	}
	template, ok := t.templates[prefix]
	return template, ok
}

// Prefixes returns the table's prefixes in sorted order.
func (t *Table) Prefixes() []string {
	if t == nil {
		return nil
	}
	ret := make([]string, 0, len(t.templates))
	for prefix := range t.templates {
		ret = append(ret, prefix)
	}
	sort.Strings(ret)
	return ret
}

// Mappings returns the table's mappings, sorted by prefix.
func (t *Table) Mappings() []Mapping {
	prefixes := t.Prefixes()
	ret := make([]Mapping, 0, len(prefixes))
	for _, prefix := range prefixes {
		ret = append(ret, Mapping{
			Prefix:   prefix,
			Template: t.templates[prefix],
		})
	}
	return ret
}

// With returns a new table containing the mappings of both tables. Mappings in other take
// precedence.
func (t *Table) With(other *Table) *Table {
	if other.Len() == 0 {
		return t
	} else if t.Len() == 0 {
		return other
	}
	ret := &Table{
		templates: make(map[string]string, len(t.templates)+len(other.templates)),
	}
	for prefix, template := range t.templates {
		ret.templates[prefix] = template
	}
	for prefix, template := range other.templates {
		ret.templates[prefix] = template
	}
	return ret
}

// Split splits a CURIE into its prefix and reference. It returns false unless the CURIE consists of
// exactly two non-empty parts separated by a colon.
func Split(curie string) (prefix, reference string, ok bool) {
	parts := strings.Split(curie, ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// Join builds a CURIE from a prefix and reference.
func Join(prefix, reference string) string {
	return prefix + ":" + reference
}

// IsAbsolute reports whether a relation name is an absolute URI such as
// "http://docs.my.site/widget" rather than a CURIE.
func IsAbsolute(rel string) bool {
	i := strings.Index(rel, ":")
	return i >= 0 && strings.HasPrefix(rel[i+1:], "//")
}

// Resolve expands the CURIE using the table. It returns false if the value isn't a CURIE or its
// prefix isn't in the table.
func (t *Table) Resolve(curie string) (string, bool) {
	prefix, reference, ok := Split(curie)
	if !ok {
		return "", false
	}
	template, ok := t.Lookup(prefix)
	if !ok {
		return "", false
	}
	return strings.Replace(template, Placeholder, reference, 1), true
}

// Contract is the inverse of Resolve. It finds a mapping whose template matches the URI and
// returns the corresponding CURIE. If several templates match, the one with the longest fixed
// text wins, with ties broken by prefix order.
func (t *Table) Contract(uri string) (string, bool) {
	best, bestLen := "", -1
	for _, prefix := range t.Prefixes() {
		template := t.templates[prefix]
		i := strings.Index(template, Placeholder)
		if i < 0 {
			continue
		}
		before, after := template[:i], template[i+len(Placeholder):]
		if len(uri) <= len(before)+len(after) || !strings.HasPrefix(uri, before) || !strings.HasSuffix(uri, after) {
			continue
		}
		reference := uri[len(before) : len(uri)-len(after)]
		if strings.Contains(reference, ":") {
			continue
		}
		if n := len(before) + len(after); n > bestLen {
			best, bestLen = Join(prefix, reference), n
		}
	}
	return best, bestLen >= 0
}
