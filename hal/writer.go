package hal

import (
	"reflect"
	"sort"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ccbrown/hal-fu/curie"
	"github.com/ccbrown/hal-fu/schema"
	"github.com/ccbrown/hal-fu/types"
)

// Encoder writes resources as HAL documents.
//
// Documents are assembled in memory and only marshaled once complete, so a failure never results
// in a partial document.
type Encoder struct {
	// Logger receives configuration warnings. If nil, nothing is logged.
	Logger logrus.FieldLogger

	// Curies are available to every resource in addition to those it declares itself. The
	// resource's own declarations take precedence.
	Curies *curie.Table

	// If given, CurieProvider supplies mappings for prefixes that aren't declared.
	CurieProvider curie.Provider

	// Types declares the polymorphic interface types that may be written.
	Types *TypeRegistry

	// If given, only properties for which Active returns true are written.
	Active func(schema.Property) bool
}

// Marshal encodes v and marshals the result.
func (e *Encoder) Marshal(v interface{}) ([]byte, error) {
	doc, err := e.Encode(v)
	if err != nil {
		return nil, err
	}
	return jsoniter.Marshal(doc)
}

// Encode builds the HAL document for a resource. v must be a struct or a non-nil pointer to one.
func (e *Encoder) Encode(v interface{}) (*OrderedMap, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, errors.New("cannot encode a nil resource")
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, errors.Errorf("cannot encode %v as a resource", rv.Type())
	}
	return e.encodeResource(rv, nil)
}

func (e *Encoder) isActive(p schema.Property) bool {
	return e.Active == nil || e.Active(p)
}

func (e *Encoder) encodeResource(rv reflect.Value, lead *OrderedMapItem) (*OrderedMap, error) {
	for rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}

	desc, err := schema.Describe(rv.Type())
	if err != nil {
		return nil, err
	}

	var properties []schema.Property
	for _, p := range desc.Properties {
		if e.isActive(p) {
			properties = append(properties, p)
		}
	}

	var logger logrus.FieldLogger
	if e.Logger != nil {
		logger = e.Logger.WithField("type", desc.Type.String())
	}
	classification := Classify(properties, logger)

	ret := NewOrderedMapWithCapacity(len(classification.State) + 3)
	if lead != nil {
		ret.Append(lead.Key, lead.Value)
	}

	links, err := e.encodeLinks(rv, desc, classification.Links, logger)
	if err != nil {
		return nil, err
	} else if links.Len() > 0 {
		ret.Append(Links.Name(), links)
	}

	embedded := NewOrderedMap()
	for _, cp := range classification.Embedded {
		value, err := e.embeddedValue(rv, cp)
		if err != nil {
			return nil, newPropertyError(desc.Type, cp, err)
		} else if value != nil {
			embedded.Put(cp.Relation, value)
		}
	}
	if embedded.Len() > 0 {
		embedded.SortKeys()
		ret.Append(Embedded.Name(), embedded)
	}

	for _, p := range classification.State {
		v, err := p.Get(rv)
		if err != nil {
			return nil, newPropertyError(desc.Type, ClassifiedProperty{Property: p}, err)
		}
		if isNil(v) || (p.OmitEmpty() && isEmptyValue(v)) {
			continue
		}
		value, err := e.encodeValue(v, p.Type())
		if err != nil {
			return nil, newPropertyError(desc.Type, ClassifiedProperty{Property: p}, err)
		} else if value != nil {
			ret.Put(p.Name(), value)
		}
	}

	return ret, nil
}

func (e *Encoder) encodeLinks(rv reflect.Value, desc *schema.Descriptor, properties []ClassifiedProperty, logger logrus.FieldLogger) (*OrderedMap, error) {
	ret := NewOrderedMap()
	explicit := map[string]bool{}
	for _, cp := range properties {
		v, err := cp.Property.Get(rv)
		if err != nil {
			return nil, newPropertyError(desc.Type, cp, err)
		}
		value, err := linkValue(v)
		if err != nil {
			return nil, newPropertyError(desc.Type, cp, err)
		} else if value == nil {
			continue
		}
		ret.Put(cp.Key(), value)
		if cp.Curie != "" {
			explicit[cp.Curie] = true
		}
	}

	if curies := GenerateCuries(ret.Keys(), explicit, e.Curies.With(desc.Curies), e.CurieProvider, logger); len(curies) > 0 {
		ret.Put(schema.CuriesRelation, curies)
	}
	ret.SortKeys()
	return ret, nil
}

// linkValue converts a link property's value to a types.Link or []types.Link. It returns nil if
// the link should be omitted.
func linkValue(v reflect.Value) (interface{}, error) {
	for v.IsValid() && v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil, nil
	}
	switch schema.LinkShapeOf(v.Type()) {
	case schema.SingleLink:
		if link := v.Interface().(types.Link); link.HREF != "" {
			return link, nil
		}
		return nil, nil
	case schema.SingleLinkPointer:
		if v.IsNil() {
			return nil, nil
		}
		return *v.Interface().(*types.Link), nil
	case schema.LinkCollection:
		if v.IsNil() {
			return nil, nil
		}
		return append([]types.Link{}, v.Interface().([]types.Link)...), nil
	case schema.LinkPointerCollection:
		if v.IsNil() {
			return nil, nil
		}
		ret := []types.Link{}
		for _, link := range v.Interface().([]*types.Link) {
			if link != nil {
				ret = append(ret, *link)
			}
		}
		return ret, nil
	}
	return nil, errors.Errorf("%v is not a link type", v.Type())
}

// embeddedValue returns a document or list of documents for an embedded property, or nil if it
// should be omitted.
func (e *Encoder) embeddedValue(rv reflect.Value, cp ClassifiedProperty) (interface{}, error) {
	v, err := cp.Property.Get(rv)
	if err != nil {
		return nil, err
	}
	static := cp.Property.Type()
	if isNil(v) {
		return nil, nil
	}
	if static == nil || static.Kind() == reflect.Interface && e.Types.Lookup(static) == nil {
		v = indirectInterface(v)
		static = v.Type()
	}

	if static.Kind() == reflect.Slice || static.Kind() == reflect.Array {
		v = indirectInterface(v)
		ret := make([]interface{}, v.Len())
		for i := range ret {
			doc, err := e.encodeEmbedded(v.Index(i), static.Elem())
			if err != nil {
				return nil, errors.Wrapf(err, "item %v", i)
			}
			ret[i] = doc
		}
		return ret, nil
	}

	return documentValue(e.encodeEmbedded(v, static))
}

// encodeEmbedded encodes a single nested resource. It returns nil for nil values.
func (e *Encoder) encodeEmbedded(v reflect.Value, static reflect.Type) (*OrderedMap, error) {
	v = indirectInterface(v)
	if isNil(v) {
		return nil, nil
	}

	var lead *OrderedMapItem
	if poly := e.Types.Lookup(static); poly != nil {
		name, ok := poly.NameOf(v.Type())
		if !ok {
			return nil, errors.Errorf("%v is not a registered implementation of %v", v.Type(), static)
		}
		lead = &OrderedMapItem{
			Key:   poly.discriminator(),
			Value: name,
		}
	}

	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, errors.Errorf("embedded resources must be structs, not %v", v.Type())
	}
	return e.encodeResource(v, lead)
}

func documentValue(doc *OrderedMap, err error) (interface{}, error) {
	if err != nil || doc == nil {
		return nil, err
	}
	return doc, nil
}

// encodeValue prepares a state value for marshaling. Nested resources, including those in slices
// and string-keyed maps, are encoded as HAL documents. Everything else is left for jsoniter.
func (e *Encoder) encodeValue(v reflect.Value, static reflect.Type) (interface{}, error) {
	if isNil(v) {
		return nil, nil
	}
	if static == nil {
		static = v.Type()
	}

	if static.Kind() == reflect.Interface {
		if e.Types.Lookup(static) != nil {
			return documentValue(e.encodeEmbedded(v, static))
		}
		v = indirectInterface(v)
		static = v.Type()
	}

	switch v.Kind() {
	case reflect.Ptr, reflect.Struct:
		if schema.IsResource(v.Type()) {
			return documentValue(e.encodeEmbedded(v, static))
		}
	case reflect.Slice, reflect.Array:
		if mayHoldResources(static.Elem()) {
			ret := make([]interface{}, v.Len())
			for i := range ret {
				item, err := e.encodeValue(v.Index(i), static.Elem())
				if err != nil {
					return nil, errors.Wrapf(err, "item %v", i)
				}
				ret[i] = item
			}
			return ret, nil
		}
	case reflect.Map:
		if static.Key().Kind() == reflect.String && mayHoldResources(static.Elem()) {
			keys := make([]string, 0, v.Len())
			values := map[string]reflect.Value{}
			for _, k := range v.MapKeys() {
				keys = append(keys, k.String())
				values[k.String()] = v.MapIndex(k)
			}
			sort.Strings(keys)
			ret := NewOrderedMapWithCapacity(len(keys))
			for _, k := range keys {
				item, err := e.encodeValue(values[k], static.Elem())
				if err != nil {
					return nil, errors.Wrapf(err, "key %q", k)
				}
				ret.Append(k, item)
			}
			return ret, nil
		}
	}

	return v.Interface(), nil
}

func mayHoldResources(t reflect.Type) bool {
	return t.Kind() == reflect.Interface || schema.IsResource(t)
}

func indirectInterface(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	return v
}

func isNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// isEmptyValue mirrors the omitempty rules of encoding/json.
func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Ptr:
		return v.IsNil()
	}
	return false
}
