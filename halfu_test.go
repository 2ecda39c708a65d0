package halfu

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccbrown/hal-fu/curie"
	"github.com/ccbrown/hal-fu/hal"
	"github.com/ccbrown/hal-fu/types"
)

type Author struct {
	Self types.Link `json:"self" hal:"link"`
	Name string     `json:"name"`
}

type Article struct {
	Self     types.Link   `json:"self" hal:"link"`
	Edit     *types.Link  `json:"edit" hal:"link,views=admin"`
	Comments []types.Link `json:"comments" hal:"link,curie=blog,views=public|admin"`
	Author   *Author      `json:"author" hal:"embedded"`
	Title    string       `json:"title"`
	Secret   string       `json:"secret,omitempty" hal:"state,views=admin"`
}

func testArticle() *Article {
	return &Article{
		Self:     types.NewLink("/articles/1"),
		Edit:     &types.Link{HREF: "/articles/1/edit"},
		Comments: []types.Link{types.NewLink("/comments/1")},
		Author:   &Author{Self: types.NewLink("/authors/1"), Name: "Ann"},
		Title:    "Hello",
		Secret:   "shh",
	}
}

func TestMarshal(t *testing.T) {
	buf, err := Marshal(&Author{Self: types.NewLink("/authors/1"), Name: "Ann"})
	require.NoError(t, err)
	assert.Equal(t, `{"_links":{"self":{"href":"/authors/1"}},"name":"Ann"}`, string(buf))

	var author Author
	require.NoError(t, Unmarshal(buf, &author))
	assert.Equal(t, "Ann", author.Name)
}

func TestMapper_Views(t *testing.T) {
	logger, _ := test.NewNullLogger()
	m, err := NewMapper(&Config{
		Logger: logger,
		Curies: []curie.Mapping{{Prefix: "blog", Template: "http://blog.example.com/rels/{rel}"}},
	})
	require.NoError(t, err)

	for name, tc := range map[string]struct {
		Mapper   *Mapper
		Expected string
	}{
		"NoView": {
			Mapper:   m,
			Expected: `{"_links":{"blog:comments":[{"href":"/comments/1"}],"curies":[{"href":"http://blog.example.com/rels/{rel}","templated":true,"name":"blog"}],"edit":{"href":"/articles/1/edit"},"self":{"href":"/articles/1"}},"_embedded":{"author":{"_links":{"self":{"href":"/authors/1"}},"name":"Ann"}},"title":"Hello","secret":"shh"}`,
		},
		"Public": {
			Mapper:   m.WithView("public"),
			Expected: `{"_links":{"blog:comments":[{"href":"/comments/1"}],"curies":[{"href":"http://blog.example.com/rels/{rel}","templated":true,"name":"blog"}],"self":{"href":"/articles/1"}},"_embedded":{"author":{"_links":{"self":{"href":"/authors/1"}},"name":"Ann"}},"title":"Hello"}`,
		},
		"Other": {
			Mapper:   m.WithView("other"),
			Expected: `{"_links":{"self":{"href":"/articles/1"}},"_embedded":{"author":{"_links":{"self":{"href":"/authors/1"}},"name":"Ann"}},"title":"Hello"}`,
		},
	} {
		t.Run(name, func(t *testing.T) {
			buf, err := tc.Mapper.Marshal(testArticle())
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, string(buf))
		})
	}

	assert.Equal(t, "", m.View())
	assert.Equal(t, "public", m.WithView("public").View())
}

func TestMapper_ExcludeUnviewedProperties(t *testing.T) {
	m, err := NewMapper(&Config{
		View:                      "admin",
		ExcludeUnviewedProperties: true,
	})
	require.NoError(t, err)

	buf, err := m.Marshal(testArticle())
	require.NoError(t, err)
	assert.Equal(t, `{"_links":{"blog:comments":[{"href":"/comments/1"}],"edit":{"href":"/articles/1/edit"}},"secret":"shh"}`, string(buf))
}

func TestNewMapper_ConfigIsCopied(t *testing.T) {
	cfg := &Config{
		View:                      "admin",
		ExcludeUnviewedProperties: true,
	}
	m, err := NewMapper(cfg)
	require.NoError(t, err)

	cfg.ExcludeUnviewedProperties = false
	cfg.CurieProvider = curie.SimpleProvider{RelsBaseURI: "https://example.com/rels"}

	buf, err := m.Marshal(testArticle())
	require.NoError(t, err)
	assert.Equal(t, `{"_links":{"blog:comments":[{"href":"/comments/1"}],"edit":{"href":"/articles/1/edit"}},"secret":"shh"}`, string(buf))
}

func TestMapper_ReadWithView(t *testing.T) {
	m, err := NewMapper(&Config{})
	require.NoError(t, err)

	buf, err := m.Marshal(testArticle())
	require.NoError(t, err)

	var article Article
	require.NoError(t, m.WithView("public").Unmarshal(buf, &article))
	assert.Nil(t, article.Edit)
	assert.Equal(t, "", article.Secret)
	assert.Equal(t, "Hello", article.Title)
	assert.Equal(t, []types.Link{{HREF: "/comments/1"}}, article.Comments)

	article = Article{}
	require.NoError(t, m.Unmarshal(buf, &article))
	assert.Equal(t, testArticle(), &article)
}

func TestMapper_EncodeDecode(t *testing.T) {
	m, err := NewMapper(&Config{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, m.Encode(&buf, testArticle()))

	var article Article
	require.NoError(t, m.Decode(&buf, &article))
	assert.Equal(t, testArticle(), &article)

	buf.Reset()
	assert.Error(t, m.Encode(&buf, "not a resource"))
	assert.Equal(t, 0, buf.Len())

	assert.Error(t, m.Decode(strings.NewReader(`{"nope":1}`), &article))
}

func TestMapper_CuriesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curies.yaml")
	require.NoError(t, os.WriteFile(path, []byte("curies:\n  - prefix: blog\n    href: http://file.example.com/{rel}\n"), 0o600))

	m, err := NewMapper(&Config{
		Curies:     []curie.Mapping{{Prefix: "blog", Template: "http://config.example.com/{rel}"}},
		CuriesFile: path,
	})
	require.NoError(t, err)

	buf, err := m.WithView("public").Marshal(&Article{Comments: []types.Link{}})
	require.NoError(t, err)
	assert.Equal(t, `{"_links":{"blog:comments":[],"curies":[{"href":"http://file.example.com/{rel}","templated":true,"name":"blog"}]},"title":""}`, string(buf))
}

type Shape interface {
	Area() float64
}

type Square struct {
	Side float64 `json:"side"`
}

func (s Square) Area() float64 { return s.Side * s.Side }

type Drawing struct {
	Self   types.Link `json:"self" hal:"link"`
	Shapes []Shape    `json:"shapes" hal:"embedded"`
}

func TestMapper_PolymorphicTypes(t *testing.T) {
	m, err := NewMapper(&Config{
		PolymorphicTypes: []hal.Polymorphic{{
			Interface: reflect.TypeOf((*Shape)(nil)).Elem(),
			Property:  "kind",
			Types: map[string]reflect.Type{
				"square": reflect.TypeOf(Square{}),
			},
		}},
	})
	require.NoError(t, err)

	drawing := &Drawing{Self: types.NewLink("/drawings/1"), Shapes: []Shape{Square{Side: 2}}}
	buf, err := m.Marshal(drawing)
	require.NoError(t, err)
	assert.Equal(t, `{"_links":{"self":{"href":"/drawings/1"}},"_embedded":{"shapes":[{"kind":"square","side":2}]}}`, string(buf))

	var decoded Drawing
	require.NoError(t, m.Unmarshal(buf, &decoded))
	assert.Equal(t, drawing, &decoded)
}

func TestNewMapper_Errors(t *testing.T) {
	for name, cfg := range map[string]*Config{
		"InvalidCurie":     {Curies: []curie.Mapping{{Prefix: "x", Template: "no placeholder"}}},
		"DuplicateCurie":   {Curies: []curie.Mapping{{Prefix: "x", Template: "{rel}"}, {Prefix: "x", Template: "/{rel}"}}},
		"MissingFile":      {CuriesFile: filepath.Join(t.TempDir(), "missing.yaml")},
		"InvalidPolymorph": {PolymorphicTypes: []hal.Polymorphic{{Interface: reflect.TypeOf(Square{})}}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewMapper(cfg)
			assert.Error(t, err)
		})
	}
}
