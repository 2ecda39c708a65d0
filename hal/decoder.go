package hal

import (
	"reflect"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ccbrown/hal-fu/curie"
	"github.com/ccbrown/hal-fu/schema"
	"github.com/ccbrown/hal-fu/types"
)

// Decoder reads HAL documents into resources.
//
// Each document level is rewritten with Rewrite and its flattened members are bound to the
// properties of the target type. Members that don't correspond to any property are an error.
type Decoder struct {
	// Logger receives configuration warnings. If nil, nothing is logged.
	Logger logrus.FieldLogger

	// Curies are used to resolve link relations in addition to those declared by the resource
	// types. Resource declarations take precedence, and documents' own "curies" take precedence
	// over both.
	Curies *curie.Table

	// Types declares the polymorphic interface types that may be read.
	Types *TypeRegistry

	// If given, only properties for which Active returns true are bound. Members for inactive
	// properties are ignored.
	Active func(schema.Property) bool
}

// Unmarshal reads a document into v, which must be a non-nil pointer to a struct or to an interface
// type declared in Types.
func (d *Decoder) Unmarshal(data []byte, v interface{}) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.Errorf("cannot unmarshal into %T, a non-nil pointer is required", v)
	}

	salts, err := NewSalts()
	if err != nil {
		return err
	}

	state := &decodeState{
		Decoder: d,
		salts:   salts,
	}
	return state.decodeEmbedded(data, rv.Elem())
}

type decodeState struct {
	*Decoder
	salts Salts
}

func (d *decodeState) isActive(p schema.Property) bool {
	return d.Active == nil || d.Active(p)
}

func (d *decodeState) decodeResource(data []byte, target reflect.Value) error {
	desc, err := schema.Describe(target.Type())
	if err != nil {
		return err
	}

	doc, err := Rewrite(data, d.Curies.With(desc.Curies), d.salts)
	if err != nil {
		return errors.Wrapf(err, "unable to read %v", desc.Type)
	}

	var logger logrus.FieldLogger
	if d.Logger != nil {
		logger = d.Logger.WithField("type", desc.Type.String())
	}

	var properties []schema.Property
	inactive := map[string]struct{}{}
	for _, p := range desc.Properties {
		if d.isActive(p) {
			properties = append(properties, p)
		} else {
			inactive[d.memberName(p, doc.Curies)] = struct{}{}
		}
	}

	classification := Classify(properties, logger)
	expected := make(map[string]ClassifiedProperty, len(properties))
	for _, p := range classification.State {
		expected[p.Name()] = ClassifiedProperty{Property: p, Category: schema.State}
	}
	for _, cp := range classification.Links {
		expected[d.memberName(cp.Property, doc.Curies)] = cp
	}
	for _, cp := range classification.Embedded {
		expected[d.memberName(cp.Property, doc.Curies)] = cp
	}

	for _, item := range doc.Members.Items() {
		raw := item.Value.(jsoniter.RawMessage)
		cp, ok := expected[item.Key]
		if !ok {
			if _, ok := inactive[item.Key]; ok {
				continue
			}
			return d.unrecognized(desc.Type, item.Key)
		}
		if schema.ReadOnly(cp.Property) {
			continue
		}
		if err := d.bind(desc.Type, target, cp, raw); err != nil {
			return err
		}
	}

	return nil
}

// memberName returns the name a property's member has after the document is rewritten.
func (d *decodeState) memberName(p schema.Property, table *curie.Table) string {
	switch p.Category() {
	case schema.Link:
		key := schema.RelationOf(p)
		if prefix := p.Curie(); prefix != "" {
			key = curie.Join(prefix, key)
		}
		return d.salts.FlattenedName(Links, EffectiveRelation(key, table))
	case schema.Embedded:
		return d.salts.FlattenedName(Embedded, schema.RelationOf(p))
	}
	return p.Name()
}

func (d *decodeState) unrecognized(t reflect.Type, name string) error {
	if section, rel, ok := d.salts.Unflatten(name); ok {
		return &UnrecognizedPropertyError{
			Type:    t,
			Section: section.Name(),
			Name:    rel,
		}
	}
	return &UnrecognizedPropertyError{
		Type: t,
		Name: name,
	}
}

func (d *decodeState) bind(t reflect.Type, target reflect.Value, cp ClassifiedProperty, raw jsoniter.RawMessage) error {
	p := cp.Property
	if p.Type() == nil {
		return newPropertyError(t, cp, errors.New("property has no value type"))
	}

	var value reflect.Value
	var err error
	switch cp.Category {
	case schema.Link:
		value, err = d.linkValue(t, p, raw)
	case schema.Embedded:
		value = reflect.New(p.Type()).Elem()
		err = d.decodeEmbeddedProperty(t, p, raw, value)
	default:
		value = reflect.New(p.Type()).Elem()
		err = d.decodeValue(raw, value)
	}
	if err != nil {
		if _, ok := err.(*MalformedValueError); ok {
			return err
		}
		return newPropertyError(t, cp, err)
	}

	if err := p.Set(target, value); err != nil {
		return newPropertyError(t, cp, err)
	}
	return nil
}

// linkValue decodes a link member for a property. A single link object is accepted for a
// collection, but an array is never accepted for a single link.
func (d *decodeState) linkValue(t reflect.Type, p schema.Property, raw jsoniter.RawMessage) (reflect.Value, error) {
	shape := schema.LinkShapeOf(p.Type())
	next := valueType(raw)

	if next == jsoniter.NilValue {
		return reflect.Zero(p.Type()), nil
	} else if next != jsoniter.ObjectValue && next != jsoniter.ArrayValue {
		return reflect.Value{}, newMalformedValueError(t, p.Name(), "links must be objects or arrays of objects")
	}

	var links []types.Link
	if next == jsoniter.ArrayValue {
		if !shape.IsCollection() {
			return reflect.Value{}, newMalformedValueError(t, p.Name(), "expected a single link, got an array")
		}
		if err := jsoniter.Unmarshal(raw, &links); err != nil {
			return reflect.Value{}, newMalformedValueError(t, p.Name(), "%v", err)
		}
	} else {
		var link types.Link
		if err := jsoniter.Unmarshal(raw, &link); err != nil {
			return reflect.Value{}, newMalformedValueError(t, p.Name(), "%v", err)
		}
		links = []types.Link{link}
	}
	for _, link := range links {
		if link.HREF == "" {
			return reflect.Value{}, newMalformedValueError(t, p.Name(), "links must have an href")
		}
	}

	switch shape {
	case schema.SingleLink:
		return reflect.ValueOf(links[0]), nil
	case schema.SingleLinkPointer:
		return reflect.ValueOf(&links[0]), nil
	case schema.LinkCollection:
		return reflect.ValueOf(links), nil
	case schema.LinkPointerCollection:
		ret := make([]*types.Link, len(links))
		for i := range links {
			ret[i] = &links[i]
		}
		return reflect.ValueOf(ret), nil
	}
	return reflect.Value{}, newMalformedValueError(t, p.Name(), "%v is not a link type", p.Type())
}

func (d *decodeState) decodeEmbeddedProperty(t reflect.Type, p schema.Property, raw jsoniter.RawMessage, target reflect.Value) error {
	next := valueType(raw)
	if next == jsoniter.NilValue {
		return nil
	}

	if target.Kind() != reflect.Slice && target.Kind() != reflect.Array {
		if next != jsoniter.ObjectValue {
			return newMalformedValueError(t, p.Name(), "expected a single embedded resource")
		}
		return d.decodeEmbedded(raw, target)
	}

	items := []jsoniter.RawMessage{raw}
	switch next {
	case jsoniter.ArrayValue:
		var err error
		if items, err = parseArray(raw); err != nil {
			return err
		}
	case jsoniter.ObjectValue:
	default:
		return newMalformedValueError(t, p.Name(), "embedded resources must be objects or arrays of objects")
	}

	list, err := listFor(target, len(items))
	if err != nil {
		return newMalformedValueError(t, p.Name(), "%v", err)
	}
	for i, item := range items {
		if err := d.decodeEmbedded(item, list.Index(i)); err != nil {
			return errors.Wrapf(err, "item %v", i)
		}
	}
	target.Set(list)
	return nil
}

// listFor returns a settable slice or array of the target's type with room for n items. Arrays
// must have exactly n elements.
func listFor(target reflect.Value, n int) (reflect.Value, error) {
	if target.Kind() == reflect.Array {
		if target.Len() != n {
			return reflect.Value{}, errors.Errorf("expected %v items, got %v", target.Len(), n)
		}
		return reflect.New(target.Type()).Elem(), nil
	}
	return reflect.MakeSlice(target.Type(), n, n), nil
}

// decodeEmbedded decodes a nested document into target, which must be settable.
func (d *decodeState) decodeEmbedded(raw []byte, target reflect.Value) error {
	if valueType(raw) == jsoniter.NilValue {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}

	switch target.Kind() {
	case reflect.Ptr:
		if target.IsNil() {
			target.Set(reflect.New(target.Type().Elem()))
		}
		return d.decodeEmbedded(raw, target.Elem())
	case reflect.Interface:
		if poly := d.Types.Lookup(target.Type()); poly != nil {
			return d.decodePolymorphic(raw, poly, target)
		}
		return errors.Errorf("cannot decode a resource into %v without declared polymorphic types", target.Type())
	case reflect.Struct:
		return d.decodeResource(raw, target)
	}
	return errors.Errorf("cannot decode a resource into %v", target.Type())
}

func (d *decodeState) decodePolymorphic(raw []byte, poly *Polymorphic, target reflect.Value) error {
	members, err := parseObject(raw)
	if err != nil {
		return err
	}

	discriminator, ok := members.Get(poly.discriminator())
	if !ok {
		return errors.Errorf("missing %q member for %v", poly.discriminator(), target.Type())
	}
	var name string
	if err := jsoniter.Unmarshal(discriminator.(jsoniter.RawMessage), &name); err != nil {
		return errors.Wrapf(err, "invalid %q member", poly.discriminator())
	}
	t, ok := poly.Types[name]
	if !ok {
		return errors.Errorf("unknown %v type %q", target.Type(), name)
	}

	members.Delete(poly.discriminator())
	rest, err := jsoniter.Marshal(members)
	if err != nil {
		return err
	}

	value := reflect.New(t).Elem()
	if err := d.decodeEmbedded(rest, value); err != nil {
		return err
	}
	target.Set(value)
	return nil
}

// decodeValue decodes a state member. Nested resources are decoded as documents, and everything
// else is left to jsoniter.
func (d *decodeState) decodeValue(raw []byte, target reflect.Value) error {
	next := valueType(raw)
	if next == jsoniter.NilValue {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}

	t := target.Type()
	switch t.Kind() {
	case reflect.Interface:
		if poly := d.Types.Lookup(t); poly != nil {
			return d.decodePolymorphic(raw, poly, target)
		}
	case reflect.Ptr, reflect.Struct:
		if schema.IsResource(t) {
			return d.decodeEmbedded(raw, target)
		}
	case reflect.Slice, reflect.Array:
		if mayHoldResources(t.Elem()) && next == jsoniter.ArrayValue {
			items, err := parseArray(raw)
			if err != nil {
				return err
			}
			list, err := listFor(target, len(items))
			if err != nil {
				return err
			}
			for i, item := range items {
				if err := d.decodeValue(item, list.Index(i)); err != nil {
					return errors.Wrapf(err, "item %v", i)
				}
			}
			target.Set(list)
			return nil
		}
	case reflect.Map:
		if t.Key().Kind() == reflect.String && mayHoldResources(t.Elem()) && next == jsoniter.ObjectValue {
			members, err := parseObject(raw)
			if err != nil {
				return err
			}
			m := reflect.MakeMapWithSize(t, members.Len())
			for _, item := range members.Items() {
				value := reflect.New(t.Elem()).Elem()
				if err := d.decodeValue(item.Value.(jsoniter.RawMessage), value); err != nil {
					return errors.Wrapf(err, "key %q", item.Key)
				}
				m.SetMapIndex(reflect.ValueOf(item.Key).Convert(t.Key()), value)
			}
			target.Set(m)
			return nil
		}
	}

	return jsoniter.Unmarshal(raw, target.Addr().Interface())
}
