package hal

import (
	"reflect"

	"github.com/pkg/errors"

	"github.com/ccbrown/hal-fu/schema"
)

// DefaultDiscriminator is the member that identifies the concrete type of a polymorphic resource.
const DefaultDiscriminator = "@type"

// Polymorphic describes an interface type whose values are resources of several concrete types.
// When such a value is written, a discriminator member naming its type is written before
// everything else. When it's read, the discriminator selects the type to allocate.
type Polymorphic struct {
	// The interface type, e.g. reflect.TypeOf((*Animal)(nil)).Elem().
	Interface reflect.Type

	// The discriminator member. If empty, DefaultDiscriminator is used.
	Property string

	// The concrete types by discriminator value. Types may be structs or pointers to structs and
	// must implement Interface.
	Types map[string]reflect.Type
}

func (p *Polymorphic) discriminator() string {
	if p.Property != "" {
		return p.Property
	}
	return DefaultDiscriminator
}

// NameOf returns the discriminator value for a concrete type.
func (p *Polymorphic) NameOf(t reflect.Type) (string, bool) {
	for name, candidate := range p.Types {
		if candidate == t {
			return name, true
		}
	}
	return "", false
}

// TypeRegistry holds the polymorphic types known to an encoder or decoder. A nil *TypeRegistry
// is a valid, empty registry.
type TypeRegistry struct {
	byInterface map[reflect.Type]*Polymorphic
}

// NewTypeRegistry validates the given polymorphic types and builds a registry.
func NewTypeRegistry(types ...Polymorphic) (*TypeRegistry, error) {
	ret := &TypeRegistry{
		byInterface: make(map[reflect.Type]*Polymorphic, len(types)),
	}
	for i := range types {
		p := types[i]
		if p.Interface == nil || p.Interface.Kind() != reflect.Interface {
			return nil, errors.Errorf("polymorphic types must be declared for an interface type, not %v", p.Interface)
		}
		if _, ok := ret.byInterface[p.Interface]; ok {
			return nil, errors.Errorf("polymorphic types for %v are declared more than once", p.Interface)
		}
		if p.discriminator() == "_links" || p.discriminator() == "_embedded" {
			return nil, errors.Errorf("%q can't be used as a discriminator", p.discriminator())
		}
		for name, t := range p.Types {
			if name == "" {
				return nil, errors.Errorf("polymorphic types for %v must have non-empty names", p.Interface)
			}
			if schema.Indirect(t).Kind() != reflect.Struct {
				return nil, errors.Errorf("polymorphic type %q for %v must be a struct", name, p.Interface)
			}
			if !t.Implements(p.Interface) {
				return nil, errors.Errorf("polymorphic type %q (%v) does not implement %v", name, t, p.Interface)
			}
		}
		ret.byInterface[p.Interface] = &p
	}
	return ret, nil
}

// Lookup returns the polymorphic declaration for an interface type, or nil if there is none.
func (r *TypeRegistry) Lookup(t reflect.Type) *Polymorphic {
	if r == nil || t == nil {
		return nil
	}
	return r.byInterface[t]
}
