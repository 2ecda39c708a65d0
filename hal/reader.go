package hal

import (
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/ccbrown/hal-fu/curie"
	"github.com/ccbrown/hal-fu/schema"
	"github.com/ccbrown/hal-fu/types"
)

// Rewritten is a document with its reserved sections flattened into the root.
type Rewritten struct {
	// The root's state members followed by the flattened members of "_links" and "_embedded". The
	// values are jsoniter.RawMessage.
	Members *OrderedMap

	// The table that was used to resolve link relations: the static table overlaid with the
	// document's own "curies".
	Curies *curie.Table
}

// Rewrite flattens the reserved sections of a document's root object. Nested documents are left
// untouched. They're rewritten when they are bound.
//
// The document's "curies" relation, if any, takes precedence over static for resolving link
// relations. Null sections are treated as absent.
func Rewrite(data []byte, static *curie.Table, salts Salts) (*Rewritten, error) {
	root, err := parseObject(data)
	if err != nil {
		return nil, err
	}

	ret := &Rewritten{
		Members: NewOrderedMapWithCapacity(root.Len()),
		Curies:  static,
	}

	var links, embedded *OrderedMap
	for _, item := range root.Items() {
		raw := item.Value.(jsoniter.RawMessage)
		switch item.Key {
		case Links.Name(), Embedded.Name():
			if valueType(raw) == jsoniter.NilValue {
				continue
			}
			body, err := parseObject(raw)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid %v section", item.Key)
			}
			if item.Key == Links.Name() {
				links = body
			} else {
				embedded = body
			}
		default:
			ret.Members.Append(item.Key, raw)
		}
	}

	if links != nil {
		if raw, ok := links.Get(schema.CuriesRelation); ok {
			mappings, err := parseCuries(raw.(jsoniter.RawMessage))
			if err != nil {
				return nil, err
			}
			ret.Curies = static.With(curie.NewTable(mappings...))
		}
		Flatten(Links, links, ret.Curies, salts, ret.Members)
	}

	if embedded != nil {
		Flatten(Embedded, embedded, nil, salts, ret.Members)
	}

	return ret, nil
}

// parseCuries reads the mappings of a "curies" relation. Entries without a name can't be
// referenced and are ignored.
func parseCuries(raw jsoniter.RawMessage) ([]curie.Mapping, error) {
	var links []types.Link
	switch valueType(raw) {
	case jsoniter.ArrayValue:
		if err := jsoniter.Unmarshal(raw, &links); err != nil {
			return nil, errors.Wrap(err, "invalid curies")
		}
	case jsoniter.ObjectValue:
		var link types.Link
		if err := jsoniter.Unmarshal(raw, &link); err != nil {
			return nil, errors.Wrap(err, "invalid curies")
		}
		links = append(links, link)
	case jsoniter.NilValue:
		return nil, nil
	default:
		return nil, errors.New("invalid curies: expected an array of link objects")
	}

	var ret []curie.Mapping
	for _, link := range links {
		if link.Name == "" {
			continue
		}
		ret = append(ret, curie.Mapping{
			Prefix:   link.Name,
			Template: link.HREF,
		})
	}
	return ret, nil
}

func valueType(raw []byte) jsoniter.ValueType {
	return jsoniter.ParseBytes(jsoniter.ConfigDefault, raw).WhatIsNext()
}

// parseObject parses a JSON object into an OrderedMap of jsoniter.RawMessage values, preserving
// member order. If a key occurs more than once, the last value wins.
func parseObject(data []byte) (*OrderedMap, error) {
	iter := jsoniter.ParseBytes(jsoniter.ConfigDefault, data)
	if iter.WhatIsNext() != jsoniter.ObjectValue {
		return nil, errors.New("expected a JSON object")
	}
	ret := NewOrderedMap()
	complete := iter.ReadObjectCB(func(iter *jsoniter.Iterator, key string) bool {
		ret.Put(key, jsoniter.RawMessage(iter.SkipAndReturnBytes()))
		return iter.Error == nil
	})
	if err := checkEnd(iter, complete); err != nil {
		return nil, errors.Wrap(err, "malformed JSON object")
	}
	return ret, nil
}

// parseArray splits a JSON array into its raw elements.
func parseArray(data []byte) ([]jsoniter.RawMessage, error) {
	iter := jsoniter.ParseBytes(jsoniter.ConfigDefault, data)
	if iter.WhatIsNext() != jsoniter.ArrayValue {
		return nil, errors.New("expected a JSON array")
	}
	ret := []jsoniter.RawMessage{}
	complete := iter.ReadArrayCB(func(iter *jsoniter.Iterator) bool {
		ret = append(ret, jsoniter.RawMessage(iter.SkipAndReturnBytes()))
		return iter.Error == nil
	})
	if err := checkEnd(iter, complete); err != nil {
		return nil, errors.Wrap(err, "malformed JSON array")
	}
	return ret, nil
}

// checkEnd verifies that a value was read up to its closing delimiter and that only whitespace
// follows it. The iterator reports io.EOF both for truncated input and for the normal end of the
// data, so completion has to be tracked by the caller.
func checkEnd(iter *jsoniter.Iterator, complete bool) error {
	if !complete {
		if iter.Error == nil || iter.Error == io.EOF {
			return errors.New("unexpected end of input")
		}
		return iter.Error
	} else if iter.Error != nil && iter.Error != io.EOF {
		return iter.Error
	}
	if iter.WhatIsNext() != jsoniter.InvalidValue || iter.Error != io.EOF {
		return errors.New("unexpected content after the closing delimiter")
	}
	return nil
}
