package jsonschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/typepaste/pkg/typegraph"
)

func statsByPath(stats []FieldStat) map[string]FieldStat {
	byPath := make(map[string]FieldStat)
	for _, s := range stats {
		byPath[s.Path] = s
	}
	return byPath
}

func TestComputeFieldStats_BasicFields(t *testing.T) {
	g := typegraph.New()
	root := g.Add(typegraph.Node{Kind: typegraph.KindObject, Name: "Root", Fields: []typegraph.Field{
		{Name: "id", Type: g.Primitive(typegraph.PrimInteger)},
		{Name: "name", Type: g.Primitive(typegraph.PrimString), Optional: true},
		{Name: "active", Type: g.Primitive(typegraph.PrimBool)},
	}})

	byPath := statsByPath(ComputeFieldStats(g, root))
	require.Len(t, byPath, 3)

	assert.Equal(t, "integer", byPath["id"].Type)
	assert.True(t, byPath["id"].Required)
	assert.False(t, byPath["name"].Required)
	assert.Equal(t, "boolean", byPath["active"].Type)
}

func TestComputeFieldStats_NullableAndUnion(t *testing.T) {
	g := typegraph.New()
	str := g.Primitive(typegraph.PrimString)
	null := g.Primitive(typegraph.PrimNull)
	num := g.Primitive(typegraph.PrimInteger)
	root := g.Add(typegraph.Node{Kind: typegraph.KindObject, Fields: []typegraph.Field{
		{Name: "email", Type: g.Add(typegraph.Node{Kind: typegraph.KindUnion, Members: []typegraph.NodeRef{str, null}})},
		{Name: "id", Type: g.Add(typegraph.Node{Kind: typegraph.KindUnion, Members: []typegraph.NodeRef{num, str}})},
		{Name: "gone", Type: null},
	}})

	byPath := statsByPath(ComputeFieldStats(g, root))
	assert.True(t, byPath["email"].Nullable)
	assert.Equal(t, "string", byPath["email"].Type)
	assert.Equal(t, "integer | string", byPath["id"].Type)
	assert.Equal(t, "null", byPath["gone"].Type)
}

func TestComputeFieldStats_NestedObjectsAndArrays(t *testing.T) {
	g := typegraph.New()
	str := g.Primitive(typegraph.PrimString)
	status := g.Add(typegraph.Node{Kind: typegraph.KindEnum, Values: []string{"open", "closed"}})
	item := g.Add(typegraph.Node{Kind: typegraph.KindObject, Fields: []typegraph.Field{
		{Name: "sku", Type: str},
		{Name: "status", Type: status},
	}})
	items := g.Add(typegraph.Node{Kind: typegraph.KindArray, Elem: item})
	address := g.Add(typegraph.Node{Kind: typegraph.KindObject, Fields: []typegraph.Field{{Name: "city", Type: str}}})
	root := g.Add(typegraph.Node{Kind: typegraph.KindObject, Fields: []typegraph.Field{
		{Name: "address", Type: address},
		{Name: "items", Type: items},
	}})

	byPath := statsByPath(ComputeFieldStats(g, root))
	assert.Equal(t, "object", byPath["address"].Type)
	assert.Contains(t, byPath, "address.city")
	assert.Equal(t, "array", byPath["items"].Type)
	assert.Contains(t, byPath, "items[].sku")
	assert.Equal(t, []string{"closed", "open"}, byPath["items[].status"].EnumValues)
}

func TestComputeFieldStats_RecursionStops(t *testing.T) {
	g := typegraph.New()
	node := g.Reserve(typegraph.KindObject, "Node")
	children := g.Add(typegraph.Node{Kind: typegraph.KindArray, Elem: node})
	g.Set(node, typegraph.Node{Kind: typegraph.KindObject, Name: "Node", Fields: []typegraph.Field{
		{Name: "children", Type: children},
	}})

	stats := ComputeFieldStats(g, node)
	require.Len(t, stats, 1)
	assert.Equal(t, "children", stats[0].Path)
}

func TestComputeFieldStats_RecursionThroughArraysAndMaps(t *testing.T) {
	// Tree = string | Tree[]
	g := typegraph.New()
	tree := g.Reserve(typegraph.KindUnion, "Tree")
	arr := g.Add(typegraph.Node{Kind: typegraph.KindArray, Elem: tree})
	g.Set(tree, typegraph.Node{Kind: typegraph.KindUnion, Name: "Tree", Members: []typegraph.NodeRef{g.Primitive(typegraph.PrimString), arr}})
	assert.Empty(t, ComputeFieldStats(g, tree))

	// Dict = {[key: string]: Dict}
	dict := g.Reserve(typegraph.KindMap, "Dict")
	g.Set(dict, typegraph.Node{Kind: typegraph.KindMap, Name: "Dict", Elem: dict})
	assert.Empty(t, ComputeFieldStats(g, dict))

	// Holder{items: Item[]}, Item = int | Item[] reached through a field.
	item := g.Reserve(typegraph.KindUnion, "Item")
	items := g.Add(typegraph.Node{Kind: typegraph.KindArray, Elem: item})
	g.Set(item, typegraph.Node{Kind: typegraph.KindUnion, Name: "Item", Members: []typegraph.NodeRef{g.Primitive(typegraph.PrimInteger), items}})
	holder := g.Add(typegraph.Node{Kind: typegraph.KindObject, Name: "Holder", Fields: []typegraph.Field{{Name: "items", Type: items}}})
	stats := ComputeFieldStats(g, holder)
	require.Len(t, stats, 1)
	assert.Equal(t, "items", stats[0].Path)
	assert.Equal(t, "array", stats[0].Type)
}

func TestComputeFieldStats_DepthLimit(t *testing.T) {
	g := typegraph.New()
	ref := g.Add(typegraph.Node{Kind: typegraph.KindObject, Fields: []typegraph.Field{
		{Name: "value", Type: g.Primitive(typegraph.PrimString)},
	}})
	names := []string{"l6", "l5", "l4", "l3", "l2", "l1"}
	for _, name := range names {
		ref = g.Add(typegraph.Node{Kind: typegraph.KindObject, Fields: []typegraph.Field{{Name: name, Type: ref}}})
	}

	paths := make(map[string]bool)
	for _, s := range ComputeFieldStats(g, ref) {
		paths[s.Path] = true
	}

	assert.True(t, paths["l1"])
	assert.True(t, paths["l1.l2.l3.l4.l5"])
	assert.True(t, paths["l1.l2.l3.l4.l5.l6"])
	assert.False(t, paths["l1.l2.l3.l4.l5.l6.value"])
	assert.True(t, paths["l1.l2.l3.l4.l5.l6 (truncated at depth limit)"])
}

func TestComputeFieldStats_NilGraph(t *testing.T) {
	assert.Nil(t, ComputeFieldStats(nil, 0))
	assert.Nil(t, ComputeFieldStats(typegraph.New(), 3))
}
