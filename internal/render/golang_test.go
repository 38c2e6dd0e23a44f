package render

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/typepaste/pkg/typegraph"
	"github.com/usestring/typepaste/pkg/types"
)

func TestRenderGo_Structs(t *testing.T) {
	lines := mustRender(t, fixture(), types.RenderOptions{Language: types.LangGo, TypesOnly: true, Indent: "\t"})
	assertLines(t, `
type Root struct {
	ID      int64    `+"`json:\"id\"`"+`
	Name    *string  `+"`json:\"name,omitempty\"`"+`
	Tags    []string `+"`json:\"tags\"`"+`
	Address Address  `+"`json:\"address\"`"+`
}

type Address struct {
	City string `+"`json:\"city\"`"+`
}
`, lines)
}

func TestRenderGo_Enum(t *testing.T) {
	g := objectGraph(func(g *typegraph.Graph) []typegraph.Field {
		return []typegraph.Field{{Name: "status", Type: g.Add(typegraph.Node{
			Kind: typegraph.KindEnum, Name: "status", Values: []string{"active", "on-hold"},
		})}}
	})
	lines := mustRender(t, g, types.RenderOptions{Language: types.LangGo, TypesOnly: true, Indent: "\t"})
	assertLines(t, `
type Root struct {
	Status Status `+"`json:\"status\"`"+`
}

type Status string

const (
	StatusActive Status = "active"
	StatusOnHold Status = "on-hold"
)
`, lines)
}

func TestRenderGo_UnionWithCodec(t *testing.T) {
	g := objectGraph(func(g *typegraph.Graph) []typegraph.Field {
		id := union(g, "id", g.Primitive(typegraph.PrimInteger), g.Primitive(typegraph.PrimString))
		return []typegraph.Field{{Name: "id", Type: id}}
	})
	lines := mustRender(t, g, types.RenderOptions{Language: types.LangGo, Package: "model", Indent: "\t"})
	assertLines(t, `
package model

import (
	"bytes"
	"encoding/json"
	"errors"
)

func UnmarshalRoot(data []byte) (Root, error) {
	var r Root
	err := json.Unmarshal(data, &r)
	return r, err
}

func MarshalRoot(r Root) ([]byte, error) {
	return json.Marshal(r)
}

type Root struct {
	ID ID `+"`json:\"id\"`"+`
}

type ID struct {
	Integer *int64
	String  *string
}

func (x *ID) UnmarshalJSON(data []byte) error {
	*x = ID{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var v0 int64
	if err := json.Unmarshal(data, &v0); err == nil {
		x.Integer = &v0
		return nil
	}
	var v1 string
	if err := json.Unmarshal(data, &v1); err == nil {
		x.String = &v1
		return nil
	}
	return errors.New("cannot unmarshal ID")
}

func (x ID) MarshalJSON() ([]byte, error) {
	if x.Integer != nil {
		return json.Marshal(*x.Integer)
	}
	if x.String != nil {
		return json.Marshal(*x.String)
	}
	return []byte("null"), nil
}
`, lines)
}

func TestRenderGo_NullableAndOptional(t *testing.T) {
	g := objectGraph(func(g *typegraph.Graph) []typegraph.Field {
		null := g.Primitive(typegraph.PrimNull)
		return []typegraph.Field{
			{Name: "email", Type: union(g, "email", g.Primitive(typegraph.PrimString), null)},
			{Name: "tags", Type: g.Add(typegraph.Node{Kind: typegraph.KindArray, Elem: g.Primitive(typegraph.PrimString)}), Optional: true},
			{Name: "meta", Type: g.Add(typegraph.Node{Kind: typegraph.KindMap, Elem: g.Primitive(typegraph.PrimNumber)})},
			{Name: "gone", Type: null},
		}
	})
	lines := mustRender(t, g, types.RenderOptions{Language: types.LangGo, TypesOnly: true, Indent: "\t", AllowUntyped: true})
	assertLines(t, `
type Root struct {
	Email *string            `+"`json:\"email\"`"+`
	Tags  []string           `+"`json:\"tags,omitempty\"`"+`
	Meta  map[string]float64 `+"`json:\"meta\"`"+`
	Gone  any                `+"`json:\"gone\"`"+`
}
`, lines)
}

func TestRenderGo_FieldNamesStayUnique(t *testing.T) {
	g := objectGraph(func(g *typegraph.Graph) []typegraph.Field {
		str := g.Primitive(typegraph.PrimString)
		return []typegraph.Field{{Name: "user_id", Type: str}, {Name: "userID", Type: str}, {Name: "9lives", Type: str}, {Name: "", Type: str}}
	})
	lines := mustRender(t, g, types.RenderOptions{Language: types.LangGo, TypesOnly: true, Indent: "\t"})
	assert.Equal(t, "\tUserID  string `json:\"user_id\"`", lines[1])
	assert.Equal(t, "\tUserID2 string `json:\"userID\"`", lines[2])
	assert.Equal(t, "\tX9lives string `json:\"9lives\"`", lines[3])
	assert.Equal(t, "\tEmpty   string `json:\"\"`", lines[4])
}

func TestRenderGo_RecursiveType(t *testing.T) {
	g := typegraph.New()
	node := g.Reserve(typegraph.KindObject, "Node")
	g.Set(node, typegraph.Node{Kind: typegraph.KindObject, Name: "Node", Fields: []typegraph.Field{
		{Name: "children", Type: g.Add(typegraph.Node{Kind: typegraph.KindArray, Elem: node})},
		{Name: "parent", Type: node, Optional: true},
	}})
	g.AddRoot("Node", node)

	lines, err := Render(g, "Node", types.RenderOptions{Language: types.LangGo, TypesOnly: true, Indent: "\t"})
	require.NoError(t, err)
	assertLines(t, `
type Node struct {
	Children []Node `+"`json:\"children\"`"+`
	Parent   *Node  `+"`json:\"parent,omitempty\"`"+`
}
`, lines)
}

func TestRenderGo_PackageClause(t *testing.T) {
	full := mustRender(t, fixture(), types.RenderOptions{Language: types.LangGo, Indent: "\t"})
	assert.Equal(t, []string{"package main", "", `import "encoding/json"`}, full[:3])

	named := mustRender(t, fixture(), types.RenderOptions{Language: types.LangGo, Indent: "\t", Package: "model"})
	assert.Equal(t, "package model", named[0])

	fragment := mustRender(t, fixture(), types.RenderOptions{Language: types.LangGo, Indent: "\t", TypesOnly: true})
	assert.Equal(t, "type Root struct {", fragment[0])
}

func TestRenderGo_BadPackage(t *testing.T) {
	_, err := Render(fixture(), "Root", types.RenderOptions{Language: types.LangGo, Package: "1bad"})
	assert.True(t, errors.Is(err, types.ErrInvalidInput))
}
