package curie

import "strings"

// Provider supplies CURIE mappings for prefixes that have no declaration. This allows CURIEs to be
// added to documents automatically instead of declaring them on every resource type.
type Provider interface {
	// ProvideCURIE is invoked with a relation name of the form "prefix:reference" and returns the
	// mapping to advertise for its prefix, or false if none should be provided.
	ProvideCURIE(rel string) (Mapping, bool)
}

// SimpleProvider provides a CURIE for every relation of the form "a:b" that isn't an absolute
// http(s) URI. The template is RelsBaseURI + "/" + a + "-{rel}".
//
// For example, with RelsBaseURI "https://example.com/rels", the relation "acme:widget" gets the
// CURIE template "https://example.com/rels/acme-{rel}".
type SimpleProvider struct {
	RelsBaseURI string
}

func (p SimpleProvider) ProvideCURIE(rel string) (Mapping, bool) {
	if strings.HasPrefix(rel, "http") || !strings.Contains(rel, ":") {
		return Mapping{}, false
	}
	prefix := rel[:strings.Index(rel, ":")]
	if prefix == "" {
		return Mapping{}, false
	}
	return Mapping{
		Prefix:   prefix,
		Template: strings.TrimSuffix(p.RelsBaseURI, "/") + "/" + prefix + "-" + Placeholder,
	}, true
}
