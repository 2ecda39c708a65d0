package types

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// A “link object” is an object that represents a hyperlink from the containing resource to a URI.
type Link struct {
	// Either a URI [RFC3986] or a URI Template [RFC6570]. If the value is a URI Template then the
	// link object SHOULD have a "templated" attribute whose value is true.
	HREF string `json:"href"`

	// Should be true when the link object's href property is a URI Template.
	Templated bool `json:"templated,omitempty"`

	// A hint to indicate the media type expected when dereferencing the target resource.
	Type string `json:"type,omitempty"`

	// A URL that provides further information about the deprecation of the link's target.
	Deprecation string `json:"deprecation,omitempty"`

	// May be used as a secondary key for selecting link objects which share the same relation type.
	Name string `json:"name,omitempty"`

	// A URI that hints about the profile of the target resource.
	Profile string `json:"profile,omitempty"`

	// A human-readable label for the link.
	Title string `json:"title,omitempty"`

	// Indicates the language of the target resource.
	HREFLang string `json:"hreflang,omitempty"`

	// An ISO-8601 instant recording when the target was last fetched. This is not part of the HAL
	// draft, but is useful for cache validation built on top of it.
	Seen string `json:"seen,omitempty"`
}

// NewLink creates a link to the given href. The link is marked as templated if the href contains
// a template expression.
func NewLink(href string) Link {
	return Link{
		HREF:      href,
		Templated: IsTemplate(href),
	}
}

// IsTemplate reports whether href looks like a URI Template. Only the presence of an opening
// brace is checked; templates are never expanded.
func IsTemplate(href string) bool {
	return strings.Contains(href, "{")
}

// WithSeen returns a copy of the link with its seen timestamp set to t.
func (l Link) WithSeen(t time.Time) Link {
	l.Seen = t.UTC().Format(time.RFC3339Nano)
	return l
}

// SeenTime parses the seen timestamp. The zero time is returned if the link has none.
func (l Link) SeenTime() (time.Time, error) {
	if l.Seen == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, l.Seen)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid seen timestamp %q", l.Seen)
	}
	return t, nil
}

// Key returns the comparable identity of the link. The seen timestamp is metadata about a fetch,
// not about the link, so it is not part of the identity.
func (l Link) Key() Link {
	l.Seen = ""
	return l
}

// Equal reports whether two links have the same identity. See Key.
func (l Link) Equal(other Link) bool {
	return l.Key() == other.Key()
}

// DedupeLinks removes links with duplicate identities, keeping the first occurrence.
func DedupeLinks(links []Link) []Link {
	if links == nil {
		return nil
	}
	seen := make(map[Link]struct{}, len(links))
	ret := make([]Link, 0, len(links))
	for _, l := range links {
		k := l.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		ret = append(ret, l)
	}
	return ret
}
