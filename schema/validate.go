package schema

import (
	"fmt"
	"strings"
	"unicode"
)

// CuriesRelation is the link relation that carries CURIE declarations. Link properties can't use
// it.
const CuriesRelation = "curies"

func validateRelation(rel string, category Category) error {
	if len(rel) < 1 {
		return fmt.Errorf("relation names must have at least one character")
	} else if strings.IndexFunc(rel, unicode.IsSpace) >= 0 {
		return fmt.Errorf("relation names may not contain whitespace")
	} else if category == Link && rel == CuriesRelation {
		return fmt.Errorf("the %q relation is reserved", CuriesRelation)
	}
	return nil
}

func validateStateName(name string) error {
	if len(name) < 1 {
		return fmt.Errorf("property names must have at least one character")
	} else if name == "_links" || name == "_embedded" {
		return fmt.Errorf("%q is a reserved property name", name)
	}
	return nil
}
