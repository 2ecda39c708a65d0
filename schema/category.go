package schema

import "fmt"

// Category determines which section of a HAL document a property belongs to.
type Category int

const (
	// State properties are written as ordinary members of the resource object.
	State Category = iota

	// Link properties are written to the "_links" object.
	Link

	// Embedded properties are written to the "_embedded" object.
	Embedded
)

func (c Category) String() string {
	switch c {
	case State:
		return "state"
	case Link:
		return "link"
	case Embedded:
		return "embedded"
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

func parseCategory(s string) (Category, error) {
	switch s {
	case "", "state":
		return State, nil
	case "link":
		return Link, nil
	case "embedded":
		return Embedded, nil
	}
	return State, fmt.Errorf("unknown property category %q", s)
}
