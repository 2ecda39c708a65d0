package curie

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	table := NewTable(
		Mapping{Prefix: "prefix", Template: "https://www.example.com/doc/{rel}"},
		Mapping{Prefix: "cur1", Template: "http://docs/{rel}"},
	)

	for name, tc := range map[string]struct {
		In       string
		Expected string
		Okay     bool
	}{
		"Basic":          {In: "prefix:reference", Expected: "https://www.example.com/doc/reference", Okay: true},
		"Other":          {In: "cur1:widget", Expected: "http://docs/widget", Okay: true},
		"UnknownPrefix":  {In: "cur2:widget"},
		"NoColon":        {In: "widget"},
		"TooManyColons":  {In: "cur1:a:b"},
		"EmptyPrefix":    {In: ":widget"},
		"EmptyReference": {In: "cur1:"},
	} {
		t.Run(name, func(t *testing.T) {
			uri, ok := table.Resolve(tc.In)
			assert.Equal(t, tc.Okay, ok)
			assert.Equal(t, tc.Expected, uri)
		})
	}
}

func TestNilTable(t *testing.T) {
	var table *Table
	assert.Equal(t, 0, table.Len())
	_, ok := table.Resolve("a:b")
	assert.False(t, ok)
	_, ok = table.Contract("http://docs/b")
	assert.False(t, ok)
	assert.Empty(t, table.Prefixes())
}

func TestContract(t *testing.T) {
	table := NewTable(
		Mapping{Prefix: "docs", Template: "http://docs/{rel}"},
		Mapping{Prefix: "widgets", Template: "http://docs/widgets/{rel}"},
		Mapping{Prefix: "suffixed", Template: "http://other/{rel}.html"},
	)

	for name, tc := range map[string]struct {
		In       string
		Expected string
		Okay     bool
	}{
		"Simple":       {In: "http://docs/thing", Expected: "docs:thing", Okay: true},
		"MostSpecific": {In: "http://docs/widgets/gear", Expected: "widgets:gear", Okay: true},
		"Suffix":       {In: "http://other/thing.html", Expected: "suffixed:thing", Okay: true},
		"NoMatch":      {In: "http://elsewhere/thing"},
		"EmptyRef":     {In: "http://docs/"},
	} {
		t.Run(name, func(t *testing.T) {
			c, ok := table.Contract(tc.In)
			assert.Equal(t, tc.Okay, ok)
			assert.Equal(t, tc.Expected, c)
			if ok {
				uri, ok := table.Resolve(c)
				assert.True(t, ok)
				assert.Equal(t, tc.In, uri)
			}
		})
	}
}

func TestWith(t *testing.T) {
	a := NewTable(Mapping{Prefix: "a", Template: "http://a/{rel}"}, Mapping{Prefix: "b", Template: "http://b/{rel}"})
	b := NewTable(Mapping{Prefix: "b", Template: "http://override/{rel}"})

	merged := a.With(b)
	assert.Equal(t, []string{"a", "b"}, merged.Prefixes())
	uri, _ := merged.Resolve("b:x")
	assert.Equal(t, "http://override/x", uri)

	uri, _ = a.Resolve("b:x")
	assert.Equal(t, "http://b/x", uri, "inputs must not be modified")

	assert.Equal(t, a, a.With(nil))
	assert.Equal(t, b, (*Table)(nil).With(b))
}

func TestValidate(t *testing.T) {
	for name, tc := range map[string]struct {
		In   Mapping
		Okay bool
	}{
		"Valid":          {In: Mapping{Prefix: "acme", Template: "http://docs/{rel}"}, Okay: true},
		"Dotted":         {In: Mapping{Prefix: "acme.v2", Template: "http://docs/{rel}"}, Okay: true},
		"EmptyPrefix":    {In: Mapping{Template: "http://docs/{rel}"}},
		"Colon":          {In: Mapping{Prefix: "a:b", Template: "http://docs/{rel}"}},
		"LeadingHyphen":  {In: Mapping{Prefix: "-a", Template: "http://docs/{rel}"}},
		"NoPlaceholder":  {In: Mapping{Prefix: "acme", Template: "http://docs/"}},
		"TwoPlaceholder": {In: Mapping{Prefix: "acme", Template: "http://docs/{rel}/{rel}"}},
	} {
		t.Run(name, func(t *testing.T) {
			err := tc.In.Validate()
			if tc.Okay {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}

	_, err := NewValidatedTable(
		Mapping{Prefix: "a", Template: "http://a/{rel}"},
		Mapping{Prefix: "a", Template: "http://b/{rel}"},
	)
	assert.Error(t, err)
}

func TestSimpleProvider(t *testing.T) {
	p := SimpleProvider{RelsBaseURI: "https://example.com/rels/"}

	m, ok := p.ProvideCURIE("acme:widget")
	require.True(t, ok)
	assert.Equal(t, Mapping{Prefix: "acme", Template: "https://example.com/rels/acme-{rel}"}, m)

	_, ok = p.ProvideCURIE("http://example.com/rels/widget")
	assert.False(t, ok)

	_, ok = p.ProvideCURIE("widget")
	assert.False(t, ok)
}

func TestParse(t *testing.T) {
	table, err := Parse([]byte(`
curies:
  - prefix: acme
    href: https://docs.acme.com/rels/{rel}
  - prefix: ex
    href: http://example.com/{rel}
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"acme", "ex"}, table.Prefixes())

	buf, err := Marshal(table)
	require.NoError(t, err)
	again, err := Parse(buf)
	require.NoError(t, err)
	assert.Equal(t, table.Mappings(), again.Mappings())

	_, err = Parse([]byte("curies:\n  - prefix: acme\n    href: https://docs.acme.com/rels/\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("curies: ["))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curies.yaml")
	require.NoError(t, os.WriteFile(path, []byte("curies:\n  - prefix: acme\n    href: https://docs.acme.com/{rel}\n"), 0644))

	table, err := LoadFile(path)
	require.NoError(t, err)
	uri, ok := table.Resolve("acme:widget")
	assert.True(t, ok)
	assert.Equal(t, "https://docs.acme.com/widget", uri)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
