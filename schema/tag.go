package schema

import (
	"fmt"
	"strings"
)

type tagOptions struct {
	category Category
	relation string
	curie    string
	views    []string
}

// parseTag parses a `hal` struct tag. The first element is the category ("link", "embedded",
// "state", or empty for state). The remaining elements are key=value options:
//
//	hal:"link,rel=child,curie=acme,views=public|internal"
func parseTag(tag string) (tagOptions, error) {
	var ret tagOptions

	parts := strings.Split(tag, ",")
	category, err := parseCategory(strings.TrimSpace(parts[0]))
	if err != nil {
		return ret, err
	}
	ret.category = category

	for _, part := range parts[1:] {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return ret, fmt.Errorf("malformed tag option %q", part)
		}
		key, value := strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])
		switch key {
		case "rel":
			ret.relation = value
		case "curie":
			ret.curie = value
		case "views":
			for _, view := range strings.Split(value, "|") {
				if view = strings.TrimSpace(view); view != "" {
					ret.views = append(ret.views, view)
				}
			}
		default:
			return ret, fmt.Errorf("unknown tag option %q", key)
		}
	}

	if ret.category == State && (ret.relation != "" || ret.curie != "") {
		return ret, fmt.Errorf("rel and curie options are only valid for links and embedded resources")
	} else if ret.category == Embedded && ret.curie != "" {
		return ret, fmt.Errorf("curie option is only valid for links")
	}

	return ret, nil
}

// parseJSONTag returns the name and omitempty flag of a `json` struct tag. A name of "-" means the
// field is ignored.
func parseJSONTag(tag string) (name string, omitEmpty bool) {
	parts := strings.Split(tag, ",")
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return parts[0], omitEmpty
}
