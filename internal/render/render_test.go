package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/typepaste/pkg/typegraph"
	"github.com/usestring/typepaste/pkg/types"
)

// fixture builds the graph most renderer tests share:
//
//	Root {id: integer, name?: string, tags: string[], address: Address {city: string}}
func fixture() *typegraph.Graph {
	g := typegraph.New()
	str := g.Primitive(typegraph.PrimString)
	address := g.Add(typegraph.Node{Kind: typegraph.KindObject, Name: "address", Fields: []typegraph.Field{
		{Name: "city", Type: str},
	}})
	root := g.Add(typegraph.Node{Kind: typegraph.KindObject, Name: "Root", Fields: []typegraph.Field{
		{Name: "id", Type: g.Primitive(typegraph.PrimInteger)},
		{Name: "name", Type: str, Optional: true},
		{Name: "tags", Type: g.Add(typegraph.Node{Kind: typegraph.KindArray, Name: "tags", Elem: str})},
		{Name: "address", Type: address},
	}})
	g.AddRoot("Root", root)
	return g
}

// objectGraph registers a single root object with the given fields.
func objectGraph(build func(g *typegraph.Graph) []typegraph.Field) *typegraph.Graph {
	g := typegraph.New()
	fields := build(g)
	g.AddRoot("Root", g.Add(typegraph.Node{Kind: typegraph.KindObject, Name: "Root", Fields: fields}))
	return g
}

func union(g *typegraph.Graph, name string, members ...typegraph.NodeRef) typegraph.NodeRef {
	return g.Add(typegraph.Node{Kind: typegraph.KindUnion, Name: name, Members: members})
}

func text(s string) []string {
	return strings.Split(strings.Trim(s, "\n"), "\n")
}

func assertLines(t *testing.T, want string, got []string) {
	t.Helper()
	if diff := cmp.Diff(text(want), got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func mustRender(t *testing.T, g *typegraph.Graph, opts types.RenderOptions) []string {
	t.Helper()
	lines, err := Render(g, "Root", opts)
	require.NoError(t, err)
	return lines
}

func TestRender_UnknownLanguage(t *testing.T) {
	_, err := Render(fixture(), "Root", types.RenderOptions{Language: "cobol"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrUnsupportedLanguage))
}

func TestRender_UnknownRoot(t *testing.T) {
	_, err := Render(fixture(), "Nope", types.RenderOptions{Language: types.LangGo})
	assert.True(t, errors.Is(err, types.ErrInvalidInput))
}

func TestCheckOptions(t *testing.T) {
	tests := []struct {
		name string
		opts types.RenderOptions
		want error
	}{
		{"ok", types.RenderOptions{Language: types.LangPython, TypesOnly: true}, nil},
		{"zod types only", types.RenderOptions{Language: types.LangZod, TypesOnly: true}, types.ErrUnsupportedFeature},
		{"schema ignores serialization", types.RenderOptions{Language: types.LangJSONSchema}, nil},
		{"bad indent", types.RenderOptions{Language: types.LangGo, Indent: "--"}, types.ErrInvalidInput},
		{"bad package", types.RenderOptions{Language: types.LangGo, Package: "my-pkg"}, types.ErrInvalidInput},
		{"package ignored elsewhere", types.RenderOptions{Language: types.LangTypeScript, Package: "my-pkg"}, nil},
		{"empty language", types.RenderOptions{}, types.ErrUnsupportedLanguage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckOptions(tt.opts)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestRender_PlaceholdersNeedAllowUntyped(t *testing.T) {
	g := objectGraph(func(g *typegraph.Graph) []typegraph.Field {
		return []typegraph.Field{{Name: "tags", Type: g.Add(typegraph.Node{Kind: typegraph.KindArray, Elem: g.Primitive(typegraph.PrimAny)})}}
	})

	for _, lang := range types.Languages {
		t.Run(string(lang), func(t *testing.T) {
			_, err := Render(g, "Root", types.RenderOptions{Language: lang})
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrUnsupportedFeature))
			var te *types.Error
			require.True(t, errors.As(err, &te))
			assert.Equal(t, "Root.tags[]", te.Path)

			_, err = Render(g, "Root", types.RenderOptions{Language: lang, AllowUntyped: true})
			assert.NoError(t, err)
		})
	}
}

func TestRender_Deterministic(t *testing.T) {
	for _, lang := range types.Languages {
		t.Run(string(lang), func(t *testing.T) {
			opts := types.RenderOptions{Language: lang, LeadingComments: []string{"generated"}}
			first := mustRender(t, fixture(), opts)
			second := mustRender(t, fixture(), opts)
			assert.Empty(t, cmp.Diff(first, second))
		})
	}
}

func TestRender_IndentIsRepeated(t *testing.T) {
	lines := mustRender(t, fixture(), types.RenderOptions{Language: types.LangTypeScript, Indent: "\t\t", TypesOnly: true})
	assert.Contains(t, lines, "\t\tid: number;")
}

func TestRender_DefaultIndent(t *testing.T) {
	lines := mustRender(t, fixture(), types.RenderOptions{Language: types.LangTypeScript, TypesOnly: true})
	assert.Contains(t, lines, "    id: number;")
}

func TestRender_LeadingComments(t *testing.T) {
	opts := types.RenderOptions{LeadingComments: []string{"Generated", "two\nlines"}, TypesOnly: true}

	opts.Language = types.LangGo
	assert.Equal(t, []string{"// Generated", "// two", "// lines", ""}, mustRender(t, fixture(), opts)[:4])

	opts.Language = types.LangPython
	assert.Equal(t, []string{"# Generated", "# two", "# lines", ""}, mustRender(t, fixture(), opts)[:4])
}

func TestLanguages(t *testing.T) {
	caps := Languages()
	require.Len(t, caps, len(types.Languages))
	assert.Equal(t, types.LangGo, caps[0].Language)
	for _, c := range caps {
		if c.Language == types.LangZod {
			assert.False(t, c.TypesOnly)
		}
		if c.Language == types.LangJSONSchema {
			assert.False(t, c.Serialization)
		}
	}
}
