package hal

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/ccbrown/hal-fu/curie"
	"github.com/ccbrown/hal-fu/schema"
)

// ExpandCuries rewrites a document so that every link relation whose prefix can be resolved is
// replaced by the URI it stands for. Mappings are taken from table and from the "curies" relations
// of the document itself, and for prefixes that neither declares, from provider if it's non-nil. A
// document's mappings also apply to the documents embedded in it. Since no resolvable CURIEs
// remain, "curies" relations are removed.
func ExpandCuries(data []byte, table *curie.Table, provider curie.Provider) ([]byte, error) {
	doc, err := rewriteLinkRelations(data, table, func(links *OrderedMap, table *curie.Table) *OrderedMap {
		return expandRelations(links, table, provider)
	})
	if err != nil {
		return nil, err
	}
	return jsoniter.Marshal(doc)
}

// CompactCuries is the inverse of ExpandCuries. Link relations that are absolute URIs matching a
// known template are replaced by CURIEs, and each document gets a "curies" relation for the
// prefixes it uses. As with Encoder, provider may supply mappings for prefixes that aren't
// declared.
func CompactCuries(data []byte, table *curie.Table, provider curie.Provider) ([]byte, error) {
	doc, err := rewriteLinkRelations(data, table, func(links *OrderedMap, table *curie.Table) *OrderedMap {
		return compactRelations(links, table, provider)
	})
	if err != nil {
		return nil, err
	}
	return jsoniter.Marshal(doc)
}

func expandRelations(links *OrderedMap, table *curie.Table, provider curie.Provider) *OrderedMap {
	ret := NewOrderedMapWithCapacity(links.Len())
	for _, item := range links.Items() {
		if item.Key == schema.CuriesRelation {
			continue
		}
		key := EffectiveRelation(item.Key, table)
		if key == item.Key && provider != nil && !curie.IsAbsolute(key) {
			if m, ok := provider.ProvideCURIE(key); ok {
				key = EffectiveRelation(key, curie.NewTable(m))
			}
		}
		ret.Put(key, item.Value)
	}
	return ret
}

func compactRelations(links *OrderedMap, table *curie.Table, provider curie.Provider) *OrderedMap {
	ret := NewOrderedMapWithCapacity(links.Len() + 1)
	for _, item := range links.Items() {
		if item.Key == schema.CuriesRelation {
			continue
		}
		key := item.Key
		if curie.IsAbsolute(key) {
			if compact, ok := table.Contract(key); ok {
				key = compact
			}
		}
		ret.Put(key, item.Value)
	}
	if curies := GenerateCuries(ret.Keys(), nil, table, provider, nil); len(curies) > 0 {
		ret.Prepend(schema.CuriesRelation, curies)
	}
	return ret
}

func rewriteLinkRelations(data []byte, inherited *curie.Table, f func(links *OrderedMap, table *curie.Table) *OrderedMap) (*OrderedMap, error) {
	root, err := parseObject(data)
	if err != nil {
		return nil, err
	}

	table := inherited
	if raw, ok := root.Get(Links.Name()); ok && valueType(raw.(jsoniter.RawMessage)) == jsoniter.ObjectValue {
		links, err := parseObject(raw.(jsoniter.RawMessage))
		if err != nil {
			return nil, errors.Wrap(err, "invalid _links section")
		}
		if raw, ok := links.Get(schema.CuriesRelation); ok {
			mappings, err := parseCuries(raw.(jsoniter.RawMessage))
			if err != nil {
				return nil, err
			}
			table = table.With(curie.NewTable(mappings...))
		}
		if rewritten := f(links, table); rewritten.Len() > 0 {
			root.Put(Links.Name(), rewritten)
		} else {
			root.Delete(Links.Name())
		}
	}

	if raw, ok := root.Get(Embedded.Name()); ok && valueType(raw.(jsoniter.RawMessage)) == jsoniter.ObjectValue {
		embedded, err := parseObject(raw.(jsoniter.RawMessage))
		if err != nil {
			return nil, errors.Wrap(err, "invalid _embedded section")
		}
		for _, item := range embedded.Items() {
			value, err := rewriteEmbedded(item.Value.(jsoniter.RawMessage), table, f)
			if err != nil {
				return nil, errors.Wrapf(err, "embedded %q", item.Key)
			}
			embedded.Put(item.Key, value)
		}
		root.Put(Embedded.Name(), embedded)
	}

	return root, nil
}

func rewriteEmbedded(raw jsoniter.RawMessage, table *curie.Table, f func(links *OrderedMap, table *curie.Table) *OrderedMap) (interface{}, error) {
	switch valueType(raw) {
	case jsoniter.ObjectValue:
		return rewriteLinkRelations(raw, table, f)
	case jsoniter.ArrayValue:
		items, err := parseArray(raw)
		if err != nil {
			return nil, err
		}
		ret := make([]interface{}, len(items))
		for i, item := range items {
			if valueType(item) != jsoniter.ObjectValue {
				ret[i] = item
				continue
			}
			doc, err := rewriteLinkRelations(item, table, f)
			if err != nil {
				return nil, errors.Wrapf(err, "item %v", i)
			}
			ret[i] = doc
		}
		return ret, nil
	}
	return raw, nil
}
