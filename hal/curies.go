package hal

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/ccbrown/hal-fu/curie"
	"github.com/ccbrown/hal-fu/types"
)

// UsedPrefixes returns the sorted, distinct CURIE prefixes of the given relations. Absolute URIs
// such as "http://example.com/rel" are not CURIEs and are ignored.
func UsedPrefixes(relations []string) []string {
	seen := map[string]struct{}{}
	var ret []string
	for _, rel := range relations {
		if curie.IsAbsolute(rel) {
			continue
		}
		prefix, _, ok := curie.Split(rel)
		if !ok {
			continue
		}
		if _, ok := seen[prefix]; ok {
			continue
		}
		seen[prefix] = struct{}{}
		ret = append(ret, prefix)
	}
	sort.Strings(ret)
	return ret
}

// GenerateCuries builds the "curies" relation for a document whose links section has the given
// relations. Only prefixes that are actually used get an entry. Each used prefix is looked up in
// declared, then offered to provider if it's non-nil. Prefixes that can't be resolved either way
// are left alone. If a prefix came from an explicit `curie` option (explicit[prefix] is true), a
// warning is logged for it.
//
// The result is sorted by prefix. It is empty if no prefix could be resolved, in which case no
// "curies" relation should be written at all.
func GenerateCuries(relations []string, explicit map[string]bool, declared *curie.Table, provider curie.Provider, logger logrus.FieldLogger) []types.Link {
	var ret []types.Link
	for _, prefix := range UsedPrefixes(relations) {
		template, ok := declared.Lookup(prefix)
		if !ok && provider != nil {
			for _, rel := range relations {
				if p, _, isCurie := curie.Split(rel); isCurie && p == prefix {
					if m, provided := provider.ProvideCURIE(rel); provided && m.Prefix == prefix {
						template, ok = m.Template, true
					}
					break
				}
			}
		}
		if !ok {
			if explicit[prefix] && logger != nil {
				logger.WithField("prefix", prefix).Warn("no curie is declared for prefix")
			}
			continue
		}
		ret = append(ret, types.Link{
			HREF:      template,
			Name:      prefix,
			Templated: true,
		})
	}
	return ret
}
