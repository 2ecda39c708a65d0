package hal

import (
	"reflect"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccbrown/hal-fu/curie"
	"github.com/ccbrown/hal-fu/schema"
	"github.com/ccbrown/hal-fu/types"
)

func TestSalts(t *testing.T) {
	a, err := NewSalts()
	require.NoError(t, err)
	b, err := NewSalts()
	require.NoError(t, err)

	assert.NotEqual(t, a.FlattenedName(Links, "self"), a.FlattenedName(Embedded, "self"))
	assert.NotEqual(t, a.FlattenedName(Links, "self"), b.FlattenedName(Links, "self"))
	assert.NotEqual(t, "self", a.FlattenedName(Links, "self"))

	section, rel, ok := a.Unflatten(a.FlattenedName(Embedded, "acme:thing"))
	assert.True(t, ok)
	assert.Equal(t, Embedded, section)
	assert.Equal(t, "acme:thing", rel)

	_, _, ok = a.Unflatten(b.FlattenedName(Links, "self"))
	assert.False(t, ok)
	_, _, ok = a.Unflatten("self")
	assert.False(t, ok)

	assert.Equal(t, "_links", Links.String())
	assert.Equal(t, "_embedded", Embedded.String())
}

func TestEffectiveRelation(t *testing.T) {
	table := curie.NewTable(curie.Mapping{Prefix: "cur1", Template: "http://docs/{rel}"})
	for name, tc := range map[string]struct {
		Key      string
		Expected string
	}{
		"Resolved":   {Key: "cur1:widget", Expected: "http://docs/widget"},
		"Unresolved": {Key: "cur2:widget", Expected: "cur2:widget"},
		"Plain":      {Key: "self", Expected: "self"},
		"Absolute":   {Key: "http://docs/widget", Expected: "http://docs/widget"},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.Expected, EffectiveRelation(tc.Key, table))
		})
	}
	assert.Equal(t, "cur1:widget", EffectiveRelation("cur1:widget", nil))
}

func TestRewrite(t *testing.T) {
	salts, err := NewSalts()
	require.NoError(t, err)

	doc, err := Rewrite([]byte(`{
		"id": "1",
		"_links": {
			"curies": [{"name": "cur1", "href": "http://docs/{rel}", "templated": true}],
			"self": {"href": "/items/1"},
			"cur1:widget": [{"href": "/w"}],
			"cur2:gadget": {"href": "/g"}
		},
		"_embedded": {
			"self": {"id": "2"},
			"cur1:thing": []
		},
		"name": "x"
	}`), nil, salts)
	require.NoError(t, err)

	keys := doc.Members.Keys()
	assert.Equal(t, []string{
		"id",
		"name",
		salts.FlattenedName(Links, "self"),
		salts.FlattenedName(Links, "http://docs/widget"),
		salts.FlattenedName(Links, "cur2:gadget"),
		salts.FlattenedName(Embedded, "self"),
		salts.FlattenedName(Embedded, "cur1:thing"),
	}, keys)

	v, ok := doc.Members.Get(salts.FlattenedName(Embedded, "self"))
	require.True(t, ok)
	assert.JSONEq(t, `{"id":"2"}`, string(v.(jsoniter.RawMessage)))

	uri, ok := doc.Curies.Resolve("cur1:x")
	assert.True(t, ok)
	assert.Equal(t, "http://docs/x", uri)
}

func TestRewrite_DocumentCuriesTakePrecedence(t *testing.T) {
	salts, err := NewSalts()
	require.NoError(t, err)

	static := curie.NewTable(
		curie.Mapping{Prefix: "cur1", Template: "http://static/{rel}"},
		curie.Mapping{Prefix: "cur2", Template: "http://static2/{rel}"},
	)
	doc, err := Rewrite([]byte(`{"_links":{"curies":{"name":"cur1","href":"http://doc/{rel}"},"cur1:a":{"href":"/a"},"cur2:b":{"href":"/b"}}}`), static, salts)
	require.NoError(t, err)
	assert.Equal(t, []string{
		salts.FlattenedName(Links, "http://doc/a"),
		salts.FlattenedName(Links, "http://static2/b"),
	}, doc.Members.Keys())
}

func TestRewrite_Errors(t *testing.T) {
	salts, err := NewSalts()
	require.NoError(t, err)

	for name, doc := range map[string]string{
		"NotAnObject":        `"x"`,
		"LinksNotAnObject":   `{"_links":1}`,
		"EmbeddedNotObject":  `{"_embedded":[]}`,
		"CuriesNotLinks":     `{"_links":{"curies":"x"}}`,
		"Truncated":          `{"_links":{`,
		"Empty":              ``,
		"CuriesMalformedObj": `{"_links":{"curies":[1]}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Rewrite([]byte(doc), nil, salts)
			assert.Error(t, err)
		})
	}
}

func TestClassify(t *testing.T) {
	type Mixed struct {
		Id       string     `json:"id"`
		Self     types.Link `json:"self" hal:"link"`
		Child    *Item      `json:"child" hal:"embedded,rel=kid"`
		Widget   types.Link `json:"widget" hal:"link,rel=gadget,curie=acme"`
		Name     string     `json:"name"`
		Other    *Item      `json:"other" hal:"embedded,rel=kid"`
		SameSelf types.Link `json:"sameSelf" hal:"link,rel=self"`
	}

	desc, err := schema.Describe(reflect.TypeOf(Mixed{}))
	require.NoError(t, err)

	logger, hook := test.NewNullLogger()
	c := Classify(desc.Properties, logger)

	var links, embedded, state []string
	for _, cp := range c.Links {
		links = append(links, cp.Key())
	}
	for _, cp := range c.Embedded {
		embedded = append(embedded, cp.Key())
	}
	for _, p := range c.State {
		state = append(state, p.Name())
	}
	assert.Equal(t, []string{"self", "acme:gadget", "self"}, links)
	assert.Equal(t, []string{"kid", "kid"}, embedded)
	assert.Equal(t, []string{"id", "name"}, state)
	assert.Equal(t, "acme", c.Links[1].Curie)
	assert.Equal(t, "gadget", c.Links[1].Relation)

	require.Len(t, hook.Entries, 2)
	assert.Equal(t, "_embedded", hook.Entries[0].Data["section"])
	assert.Equal(t, "_links", hook.Entries[1].Data["section"])

	assert.NotPanics(t, func() {
		Classify(desc.Properties, nil)
	})
}

func TestGenerateCuries(t *testing.T) {
	declared := curie.NewTable(
		curie.Mapping{Prefix: "b", Template: "http://b/{rel}"},
		curie.Mapping{Prefix: "a", Template: "http://a/{rel}"},
		curie.Mapping{Prefix: "unused", Template: "http://unused/{rel}"},
	)
	links := GenerateCuries([]string{"self", "b:x", "a:y", "b:z", "c:w", "http://a/abs"}, nil, declared, nil, nil)
	buf, err := jsoniter.Marshal(links)
	require.NoError(t, err)
	assert.Equal(t, `[{"href":"http://a/{rel}","templated":true,"name":"a"},{"href":"http://b/{rel}","templated":true,"name":"b"}]`, string(buf))

	assert.Empty(t, GenerateCuries([]string{"self"}, nil, declared, nil, nil))
	assert.Empty(t, GenerateCuries(nil, nil, nil, nil, nil))

	assert.Equal(t, []string{"a", "b", "c"}, UsedPrefixes([]string{"c:1", "a:2", "b:3", "a:4", "http://x", "plain"}))
}
