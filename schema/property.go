package schema

import (
	"reflect"

	"github.com/pkg/errors"
)

// Property is a named, readable and writable part of a resource, tagged with the HAL section it
// belongs to.
type Property interface {
	// The name of the property as it appears in JSON.
	Name() string

	Category() Category

	// An explicit relation name for links and embedded resources. If empty, Name is used.
	Relation() string

	// An optional CURIE prefix for links.
	Curie() string

	// The views the property is part of. An empty list means the property has no view
	// restrictions.
	Views() []string

	// The type of the property's value.
	Type() reflect.Type

	// Whether zero values should be omitted when writing state.
	OmitEmpty() bool

	// Get reads the property from a resource. The resource is a struct value of the descriptor's
	// type. An invalid reflect.Value is returned for absent values.
	Get(resource reflect.Value) (reflect.Value, error)

	// Set writes the property to a resource. The resource is an addressable struct value of the
	// descriptor's type.
	Set(resource reflect.Value, value reflect.Value) error
}

type fieldProperty struct {
	name      string
	category  Category
	relation  string
	curie     string
	views     []string
	omitEmpty bool
	field     reflect.StructField
	index     []int
}

func (p *fieldProperty) Name() string       { return p.name }
func (p *fieldProperty) Category() Category { return p.category }
func (p *fieldProperty) Relation() string   { return p.relation }
func (p *fieldProperty) Curie() string      { return p.curie }
func (p *fieldProperty) Views() []string    { return p.views }
func (p *fieldProperty) Type() reflect.Type { return p.field.Type }
func (p *fieldProperty) OmitEmpty() bool    { return p.omitEmpty }
func (p *fieldProperty) String() string     { return p.field.Name }

func (p *fieldProperty) Get(resource reflect.Value) (reflect.Value, error) {
	return resource.FieldByIndex(p.index), nil
}

func (p *fieldProperty) Set(resource reflect.Value, value reflect.Value) error {
	f := resource.FieldByIndex(p.index)
	if !f.CanSet() {
		return errors.Errorf("field %v cannot be set", p.field.Name)
	}
	if !value.IsValid() {
		f.Set(reflect.Zero(f.Type()))
		return nil
	}
	if !value.Type().AssignableTo(f.Type()) {
		return errors.Errorf("cannot assign %v to field %v of type %v", value.Type(), p.field.Name, f.Type())
	}
	f.Set(value)
	return nil
}

// Func is a computed property. It plays the role that annotated accessor methods play in other
// languages: the value is produced by a function rather than read from a field.
type Func struct {
	PropertyName string
	Role         Category

	// Optional relation name and CURIE prefix for links and embedded resources.
	Rel         string
	CuriePrefix string

	PropertyViews []string

	// The type of the value returned by Getter and accepted by Setter.
	ValueType reflect.Type

	// Getter is invoked with a pointer to the resource.
	Getter func(resource interface{}) (interface{}, error)

	// Setter is invoked with a pointer to the resource. If nil, the property is read-only and
	// values for it are ignored when reading documents.
	Setter func(resource interface{}, value interface{}) error
}

var _ Property = (*Func)(nil)

func (p *Func) Name() string       { return p.PropertyName }
func (p *Func) Category() Category { return p.Role }
func (p *Func) Relation() string   { return p.Rel }
func (p *Func) Curie() string      { return p.CuriePrefix }
func (p *Func) Views() []string    { return p.PropertyViews }
func (p *Func) Type() reflect.Type { return p.ValueType }
func (p *Func) OmitEmpty() bool    { return false }

func resourcePointer(resource reflect.Value) interface{} {
	if resource.CanAddr() {
		return resource.Addr().Interface()
	}
	ptr := reflect.New(resource.Type())
	ptr.Elem().Set(resource)
	return ptr.Interface()
}

func (p *Func) Get(resource reflect.Value) (reflect.Value, error) {
	if p.Getter == nil {
		return reflect.Value{}, nil
	}
	v, err := p.Getter(resourcePointer(resource))
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(v), nil
}

func (p *Func) Set(resource reflect.Value, value reflect.Value) error {
	if p.Setter == nil {
		return nil
	}
	var v interface{}
	if value.IsValid() {
		v = value.Interface()
	}
	return p.Setter(resourcePointer(resource), v)
}

// ReadOnly reports whether values for the property should be discarded when reading.
func ReadOnly(p Property) bool {
	if f, ok := p.(*Func); ok {
		return f.Setter == nil
	}
	return false
}
