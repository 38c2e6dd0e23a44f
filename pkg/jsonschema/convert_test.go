package jsonschema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/typepaste/pkg/typegraph"
)

func TestFromGraph_Object(t *testing.T) {
	g := typegraph.New()
	str := g.Primitive(typegraph.PrimString)
	address := g.Add(typegraph.Node{Kind: typegraph.KindObject, Name: "Address", Fields: []typegraph.Field{
		{Name: "city", Type: str},
	}})
	status := g.Add(typegraph.Node{Kind: typegraph.KindEnum, Name: "Status", Values: []string{"a", "b"}})
	root := g.Add(typegraph.Node{Kind: typegraph.KindObject, Name: "Root", Fields: []typegraph.Field{
		{Name: "id", Type: g.Primitive(typegraph.PrimInteger)},
		{Name: "tags", Type: g.Add(typegraph.Node{Kind: typegraph.KindArray, Elem: str})},
		{Name: "address", Type: address, Optional: true},
		{Name: "meta", Type: g.Add(typegraph.Node{Kind: typegraph.KindMap, Elem: g.Primitive(typegraph.PrimAny)})},
		{Name: "status", Type: status},
		{Name: "v", Type: g.Add(typegraph.Node{Kind: typegraph.KindUnion, Members: []typegraph.NodeRef{
			g.Primitive(typegraph.PrimInteger), g.Primitive(typegraph.PrimNull),
		}})},
	}})

	doc := FromGraph(g, root, Options{Title: "Root"})
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"$defs": {
			"Address": {"type": "object", "properties": {"city": {"type": "string"}}, "required": ["city"]},
			"Status": {"type": "string", "enum": ["a", "b"]}
		},
		"title": "Root",
		"type": "object",
		"properties": {
			"id": {"type": "integer"},
			"tags": {"type": "array", "items": {"type": "string"}},
			"address": {"$ref": "#/$defs/Address"},
			"meta": {"type": "object", "additionalProperties": true},
			"status": {"$ref": "#/$defs/Status"},
			"v": {"anyOf": [{"type": "integer"}, {"type": "null"}]}
		},
		"required": ["id", "tags", "meta", "status", "v"]
	}`, string(data))
}

func TestFromGraph_RecursiveRootUsesHash(t *testing.T) {
	g := typegraph.New()
	node := g.Reserve(typegraph.KindObject, "Node")
	children := g.Add(typegraph.Node{Kind: typegraph.KindArray, Elem: node})
	g.Set(node, typegraph.Node{Kind: typegraph.KindObject, Name: "Node", Fields: []typegraph.Field{
		{Name: "children", Type: children},
	}})

	data, err := json.Marshal(FromGraph(g, node, Options{}))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object",
		"properties": {"children": {"type": "array", "items": {"$ref": "#"}}},
		"required": ["children"]
	}`, string(data))
}

func TestFromGraph_CustomNamesAndComment(t *testing.T) {
	g := typegraph.New()
	inner := g.Add(typegraph.Node{Kind: typegraph.KindObject, Name: "inner", Fields: []typegraph.Field{
		{Name: "x", Type: g.Primitive(typegraph.PrimNumber)},
	}})
	root := g.Add(typegraph.Node{Kind: typegraph.KindArray, Name: "Root", Elem: inner})

	names := map[typegraph.NodeRef]string{inner: "Point"}
	doc := FromGraph(g, root, Options{
		Name: func(ref typegraph.NodeRef) (string, bool) {
			name, ok := names[ref]
			return name, ok
		},
		Comment: "generated",
	})

	assert.Equal(t, "array", doc.Type)
	assert.Equal(t, "#/$defs/Point", doc.Items.Ref)
	assert.Equal(t, "generated", doc.Comments)
	require.Contains(t, doc.Definitions, "Point")
	assert.Equal(t, []string{"x"}, doc.Definitions["Point"].Required)
}

func TestHintNamer_NumbersRepeats(t *testing.T) {
	g := typegraph.New()
	a := g.Add(typegraph.Node{Kind: typegraph.KindObject, Name: "item"})
	b := g.Add(typegraph.Node{Kind: typegraph.KindObject, Name: "item"})
	arr := g.Add(typegraph.Node{Kind: typegraph.KindArray, Elem: a})

	name := hintNamer(g)
	n1, ok := name(a)
	assert.True(t, ok)
	n2, _ := name(b)
	n1again, _ := name(a)
	_, ok = name(arr)

	assert.Equal(t, "item", n1)
	assert.Equal(t, "item_2", n2)
	assert.Equal(t, n1, n1again)
	assert.False(t, ok)
}

func TestEscapePointer(t *testing.T) {
	assert.Equal(t, "a~1b~0c", escapePointer("a/b~c"))
}
