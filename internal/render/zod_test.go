package render

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/typepaste/pkg/typegraph"
	"github.com/usestring/typepaste/pkg/types"
)

func TestRenderZod_DependenciesFirst(t *testing.T) {
	lines := mustRender(t, fixture(), types.RenderOptions{Language: types.LangZod})
	assertLines(t, `
import { z } from "zod";

export const AddressSchema = z.object({
    city: z.string(),
});
export type Address = z.infer<typeof AddressSchema>;

export const RootSchema = z.object({
    id: z.number().int(),
    name: z.string().optional(),
    tags: z.array(z.string()),
    address: AddressSchema,
});
export type Root = z.infer<typeof RootSchema>;

export function parseRoot(json: string): Root {
    return RootSchema.parse(JSON.parse(json));
}

export function serializeRoot(value: Root): string {
    return JSON.stringify(RootSchema.parse(value));
}
`, lines)
}

func TestRenderZod_Recursive(t *testing.T) {
	g := typegraph.New()
	node := g.Reserve(typegraph.KindObject, "Node")
	g.Set(node, typegraph.Node{Kind: typegraph.KindObject, Name: "Node", Fields: []typegraph.Field{
		{Name: "value", Type: g.Primitive(typegraph.PrimInteger)},
		{Name: "children", Type: g.Add(typegraph.Node{Kind: typegraph.KindArray, Elem: node})},
	}})
	g.AddRoot("Node", node)

	lines, err := Render(g, "Node", types.RenderOptions{Language: types.LangZod})
	require.NoError(t, err)
	assertLines(t, `
import { z } from "zod";

export interface Node {
    value: number;
    children: Node[];
}
export const NodeSchema: z.ZodType<Node> = z.object({
    value: z.number().int(),
    children: z.array(z.lazy(() => NodeSchema)),
});

export function parseNode(json: string): Node {
    return NodeSchema.parse(JSON.parse(json));
}

export function serializeNode(value: Node): string {
    return JSON.stringify(NodeSchema.parse(value));
}
`, lines)
}

func TestRenderZod_Unions(t *testing.T) {
	g := objectGraph(func(g *typegraph.Graph) []typegraph.Field {
		str := g.Primitive(typegraph.PrimString)
		null := g.Primitive(typegraph.PrimNull)
		return []typegraph.Field{
			{Name: "id", Type: union(g, "id", g.Primitive(typegraph.PrimInteger), str, null)},
			{Name: "email", Type: union(g, "email", str, null)},
			{Name: "kind", Type: g.Add(typegraph.Node{Kind: typegraph.KindEnum, Name: "kind", Values: []string{"x", "y"}})},
			{Name: "meta", Type: g.Add(typegraph.Node{Kind: typegraph.KindMap, Elem: g.Primitive(typegraph.PrimBool)})},
			{Name: "2fa", Type: g.Primitive(typegraph.PrimBool)},
		}
	})
	lines := mustRender(t, g, types.RenderOptions{Language: types.LangZod})

	assert.Contains(t, lines, "export const KindSchema = z.enum([\"x\", \"y\"]);")
	assert.Contains(t, lines, "    id: z.union([z.number().int(), z.string()]).nullable(),")
	assert.Contains(t, lines, "    email: z.string().nullable(),")
	assert.Contains(t, lines, "    kind: KindSchema,")
	assert.Contains(t, lines, "    meta: z.record(z.string(), z.boolean()),")
	assert.Contains(t, lines, "    \"2fa\": z.boolean(),")
}

func TestRenderZod_RequiresCodec(t *testing.T) {
	_, err := Render(fixture(), "Root", types.RenderOptions{Language: types.LangZod, TypesOnly: true})
	assert.True(t, errors.Is(err, types.ErrUnsupportedFeature))
}
