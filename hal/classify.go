package hal

import (
	"github.com/sirupsen/logrus"

	"github.com/ccbrown/hal-fu/curie"
	"github.com/ccbrown/hal-fu/schema"
)

// ClassifiedProperty is a link or embedded property with its relation resolved.
type ClassifiedProperty struct {
	Property schema.Property
	Category schema.Category

	// The explicit relation override, or the property's name.
	Relation string

	// The CURIE prefix override for links. Empty if there is none.
	Curie string
}

// Key returns the member name of the property within its section.
func (p ClassifiedProperty) Key() string {
	if p.Curie != "" {
		return curie.Join(p.Curie, p.Relation)
	}
	return p.Relation
}

// Classification partitions a resource's properties by section. Each bucket keeps declaration
// order.
type Classification struct {
	Links    []ClassifiedProperty
	Embedded []ClassifiedProperty
	State    []schema.Property
}

// Classify partitions properties into links, embedded resources, and state. If two properties of
// the same section resolve to the same relation, a warning is logged. Both are kept and the later
// one wins when the document is assembled. If logger is nil, conflicts aren't reported.
func Classify(properties []schema.Property, logger logrus.FieldLogger) *Classification {
	ret := &Classification{}
	links := map[string]struct{}{}
	embedded := map[string]struct{}{}

	for _, p := range properties {
		switch p.Category() {
		case schema.Embedded:
			cp := ClassifiedProperty{
				Property: p,
				Category: schema.Embedded,
				Relation: schema.RelationOf(p),
			}
			warnOnConflict(logger, embedded, Embedded, cp)
			ret.Embedded = append(ret.Embedded, cp)
		case schema.Link:
			cp := ClassifiedProperty{
				Property: p,
				Category: schema.Link,
				Relation: schema.RelationOf(p),
				Curie:    p.Curie(),
			}
			warnOnConflict(logger, links, Links, cp)
			ret.Links = append(ret.Links, cp)
		default:
			ret.State = append(ret.State, p)
		}
	}

	return ret
}

func warnOnConflict(logger logrus.FieldLogger, seen map[string]struct{}, section Section, cp ClassifiedProperty) {
	key := cp.Key()
	if _, ok := seen[key]; ok && logger != nil {
		logger.WithFields(logrus.Fields{
			"section":  section.Name(),
			"rel":      key,
			"property": cp.Property.Name(),
		}).Warn("multiple properties map to the same relation, the last one wins")
	}
	seen[key] = struct{}{}
}
