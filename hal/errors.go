package hal

import (
	"fmt"
	"reflect"

	"github.com/ccbrown/hal-fu/schema"
)

// PropertyError is returned when reading or writing a property of a resource fails. It carries
// enough context to locate the offending property without digging through the mapping internals.
type PropertyError struct {
	// The resource type that owns the property.
	Type reflect.Type

	// The property's name.
	Property string

	// The section the property belongs to: "_links", "_embedded", or empty for state.
	Section string

	// The relation the property is written to, if it's a link or embedded resource.
	Relation string

	originalError error
}

func (err *PropertyError) Error() string {
	if err.Section != "" {
		return fmt.Sprintf("%v.%v (%v %q): %v", err.Type, err.Property, err.Section, err.Relation, err.originalError)
	}
	return fmt.Sprintf("%v.%v: %v", err.Type, err.Property, err.originalError)
}

// Unwrap returns the error raised by the property.
func (err *PropertyError) Unwrap() error {
	return err.originalError
}

// Cause returns the error raised by the property. It allows errors.Cause to see through property
// errors.
func (err *PropertyError) Cause() error {
	return err.originalError
}

func newPropertyError(t reflect.Type, cp ClassifiedProperty, err error) *PropertyError {
	ret := &PropertyError{
		Type:          t,
		Property:      cp.Property.Name(),
		originalError: err,
	}
	switch cp.Category {
	case schema.Link:
		ret.Section = Links.Name()
		ret.Relation = cp.Key()
	case schema.Embedded:
		ret.Section = Embedded.Name()
		ret.Relation = cp.Relation
	}
	return ret
}

// MalformedValueError is returned when a link or embedded property holds, or is given, a value of
// the wrong shape. For example, an array of links for a property that holds a single link.
type MalformedValueError struct {
	Type     reflect.Type
	Property string
	Message  string
}

func (err *MalformedValueError) Error() string {
	return fmt.Sprintf("malformed value for %v.%v: %v", err.Type, err.Property, err.Message)
}

func newMalformedValueError(t reflect.Type, property string, message string, args ...interface{}) *MalformedValueError {
	return &MalformedValueError{
		Type:     t,
		Property: property,
		Message:  fmt.Sprintf(message, args...),
	}
}

// UnrecognizedPropertyError is returned when a document contains a member that doesn't correspond
// to any property of the target type.
type UnrecognizedPropertyError struct {
	Type reflect.Type

	// The section the member was found in: "_links", "_embedded", or empty for state.
	Section string

	// The member's key within its section. For links, this is the relation after CURIE
	// resolution.
	Name string
}

func (err *UnrecognizedPropertyError) Error() string {
	if err.Section != "" {
		return fmt.Sprintf("unrecognized relation %q in %v for %v", err.Name, err.Section, err.Type)
	}
	return fmt.Sprintf("unrecognized property %q for %v", err.Name, err.Type)
}
