// Package schema describes resource types as ordered lists of properties, each tagged as a link,
// an embedded resource, or state.
//
// Properties are usually declared with struct tags:
//
//	type Order struct {
//	    Self     types.Link    `json:"self" hal:"link"`
//	    Items    []Item        `json:"items" hal:"embedded"`
//	    Invoices []types.Link  `json:"invoices" hal:"link,rel=invoice,curie=acme"`
//	    Total    int           `json:"total"`
//	}
//
// Types may additionally implement Describer to add computed properties and CurieDeclarer to
// declare the CURIE prefixes their links use.
package schema

import (
	"reflect"

	"github.com/pkg/errors"

	"github.com/ccbrown/hal-fu/curie"
	"github.com/ccbrown/hal-fu/types"
)

// Resource can be embedded in a struct to mark it as a HAL resource even if none of its fields
// are links or embedded resources.
type Resource struct{}

// CurieDeclarer is implemented by resource types that declare CURIE prefixes. It is invoked on a
// pointer to the zero value of the type, so declarations must not depend on the resource's
// contents.
type CurieDeclarer interface {
	HALCuries() []curie.Mapping
}

// Describer is implemented by resource types that have computed properties. It is invoked on a
// pointer to the zero value of the type. The returned properties are appended after the struct's
// fields.
type Describer interface {
	HALProperties() []Property
}

// Descriptor is the ordered property list of a resource type.
type Descriptor struct {
	Type       reflect.Type
	Properties []Property

	// The CURIEs declared by the type, if any.
	Curies *curie.Table
}

var (
	linkType           = reflect.TypeOf(types.Link{})
	resourceMarkerType = reflect.TypeOf(Resource{})
	curieDeclarerType  = reflect.TypeOf((*CurieDeclarer)(nil)).Elem()
	describerType      = reflect.TypeOf((*Describer)(nil)).Elem()
)

// Indirect strips any number of pointers from t.
func Indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// IsResource reports whether values of type t (or pointers to them) are HAL resources: structs
// that embed Resource, have at least one field with a `hal` tag, or implement Describer or
// CurieDeclarer.
func IsResource(t reflect.Type) bool {
	t = Indirect(t)
	if t.Kind() != reflect.Struct || t == linkType {
		return false
	}
	ptr := reflect.PtrTo(t)
	if ptr.Implements(describerType) || ptr.Implements(curieDeclarerType) {
		return true
	}
	return hasHALFields(t)
}

func hasHALFields(t reflect.Type) bool {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type == resourceMarkerType {
			return true
		} else if _, ok := f.Tag.Lookup("hal"); ok {
			return true
		} else if f.Anonymous && f.Type.Kind() == reflect.Struct && hasHALFields(f.Type) {
			return true
		}
	}
	return false
}

// RelationOf returns the relation name of a link or embedded property.
func RelationOf(p Property) string {
	if rel := p.Relation(); rel != "" {
		return rel
	}
	return p.Name()
}

// Describe builds the descriptor for a resource type. Pointer types are dereferenced.
func Describe(t reflect.Type) (*Descriptor, error) {
	t = Indirect(t)
	if t.Kind() != reflect.Struct {
		return nil, errors.Errorf("%v is not a struct type", t)
	}

	ret := &Descriptor{
		Type: t,
	}

	if err := ret.addFields(t, nil); err != nil {
		return nil, errors.Wrapf(err, "invalid resource type %v", t)
	}

	ptr := reflect.PtrTo(t)
	if ptr.Implements(describerType) {
		for _, p := range reflect.New(t).Interface().(Describer).HALProperties() {
			if err := validateProperty(p); err != nil {
				return nil, errors.Wrapf(err, "invalid resource type %v: property %v", t, p.Name())
			}
			ret.Properties = append(ret.Properties, p)
		}
	}

	if ptr.Implements(curieDeclarerType) {
		table, err := curie.NewValidatedTable(reflect.New(t).Interface().(CurieDeclarer).HALCuries()...)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid resource type %v", t)
		}
		ret.Curies = table
	}

	names := make(map[string]struct{}, len(ret.Properties))
	for _, p := range ret.Properties {
		if p.Category() != State {
			continue
		}
		if _, ok := names[p.Name()]; ok {
			return nil, errors.Errorf("invalid resource type %v: duplicate property name %q", t, p.Name())
		}
		names[p.Name()] = struct{}{}
	}

	return ret, nil
}

func (d *Descriptor) addFields(t reflect.Type, index []int) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		fieldIndex := append(append([]int(nil), index...), i)

		jsonName, omitEmpty := parseJSONTag(f.Tag.Get("json"))
		if jsonName == "-" {
			continue
		}

		if f.Anonymous {
			if f.Type == resourceMarkerType {
				continue
			}
			_, hasHALTag := f.Tag.Lookup("hal")
			if jsonName == "" && !hasHALTag && f.Type.Kind() == reflect.Struct {
				if f.PkgPath != "" {
					continue
				}
				if err := d.addFields(f.Type, fieldIndex); err != nil {
					return err
				}
				continue
			}
		}

		if f.PkgPath != "" {
			continue
		}

		if jsonName == "" {
			jsonName = f.Name
		}

		opts, err := parseTag(f.Tag.Get("hal"))
		if err != nil {
			return errors.Wrapf(err, "field %v", f.Name)
		}

		p := &fieldProperty{
			name:      jsonName,
			category:  opts.category,
			relation:  opts.relation,
			curie:     opts.curie,
			views:     opts.views,
			omitEmpty: omitEmpty,
			field:     f,
			index:     fieldIndex,
		}
		if err := validateProperty(p); err != nil {
			return errors.Wrapf(err, "field %v", f.Name)
		}
		d.Properties = append(d.Properties, p)
	}
	return nil
}

func validateProperty(p Property) error {
	if f, ok := p.(*Func); ok && f.Setter != nil && f.ValueType == nil {
		return errors.New("writable computed properties must have a value type")
	}

	switch p.Category() {
	case State:
		return validateStateName(p.Name())
	case Link:
		if err := validateRelation(RelationOf(p), Link); err != nil {
			return err
		}
		if prefix := p.Curie(); prefix != "" {
			if err := curie.ValidatePrefix(prefix); err != nil {
				return errors.Wrapf(err, "invalid curie prefix %q", prefix)
			}
		}
		if t := p.Type(); t != nil && LinkShapeOf(t) == NotALink {
			return errors.Errorf("link properties must be of type types.Link, *types.Link, []types.Link, or []*types.Link, not %v", t)
		}
	case Embedded:
		return validateRelation(RelationOf(p), Embedded)
	default:
		return errors.Errorf("unknown category %v", p.Category())
	}
	return nil
}

// LinkShape classifies the Go types that can hold link values.
type LinkShape int

const (
	NotALink LinkShape = iota
	SingleLink
	SingleLinkPointer
	LinkCollection
	LinkPointerCollection
)

// IsCollection reports whether the shape holds a list of links.
func (s LinkShape) IsCollection() bool {
	return s == LinkCollection || s == LinkPointerCollection
}

// LinkShapeOf returns the shape of a link type.
func LinkShapeOf(t reflect.Type) LinkShape {
	switch {
	case t == linkType:
		return SingleLink
	case t.Kind() == reflect.Ptr && t.Elem() == linkType:
		return SingleLinkPointer
	case t.Kind() == reflect.Slice && t.Elem() == linkType:
		return LinkCollection
	case t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Ptr && t.Elem().Elem() == linkType:
		return LinkPointerCollection
	}
	return NotALink
}
