// Package typegraph is the merged type model produced by unification and
// consumed by renderers. Nodes live in an arena and refer to each other by
// NodeRef, so shared and recursive types are back-references rather than
// copies.
package typegraph

import (
	"fmt"
	"sort"
	"strings"
)

// NodeRef addresses a node in a Graph.
type NodeRef int

// NoRef is the zero reference; no node has it.
const NoRef NodeRef = -1

// Kind is the variant of a Node.
type Kind int

// Node kinds.
const (
	KindPrimitive Kind = iota
	KindObject
	KindArray
	KindMap
	KindUnion
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindUnion:
		return "union"
	case KindEnum:
		return "enum"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Primitive is the scalar kind of a KindPrimitive node.
type Primitive int

// Primitive kinds. PrimAny is the placeholder for values whose type could not
// be resolved (empty arrays, untyped declarations).
const (
	PrimAny Primitive = iota
	PrimNull
	PrimBool
	PrimInteger
	PrimNumber
	PrimString
)

func (p Primitive) String() string {
	switch p {
	case PrimAny:
		return "any"
	case PrimNull:
		return "null"
	case PrimBool:
		return "boolean"
	case PrimInteger:
		return "integer"
	case PrimNumber:
		return "number"
	case PrimString:
		return "string"
	}
	return fmt.Sprintf("primitive(%d)", int(p))
}

// Field is one member of an object node.
type Field struct {
	Name     string
	Type     NodeRef
	Optional bool
}

// Node is a merged type.
type Node struct {
	ID   NodeRef
	Kind Kind
	Name string // naming hint; renderers derive identifiers from it

	Primitive Primitive // KindPrimitive
	Fields    []Field   // KindObject, ordered
	Elem      NodeRef   // KindArray, KindMap (value type)
	Members   []NodeRef // KindUnion
	Values    []string  // KindEnum, string literals
}

// Root is a named entry point into the graph.
type Root struct {
	Name string
	Ref  NodeRef
}

// Graph is an arena of nodes plus named roots.
type Graph struct {
	nodes      []*Node
	roots      []Root
	primitives map[Primitive]NodeRef
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{primitives: make(map[Primitive]NodeRef)}
}

// Add appends n to the arena and returns its reference. n.ID is overwritten.
func (g *Graph) Add(n Node) NodeRef {
	ref := NodeRef(len(g.nodes))
	n.ID = ref
	g.nodes = append(g.nodes, &n)
	return ref
}

// Reserve allocates a node slot before its contents are known, so recursive
// definitions can refer to it. Fill it with Set.
func (g *Graph) Reserve(kind Kind, name string) NodeRef {
	return g.Add(Node{Kind: kind, Name: name, Elem: NoRef})
}

// Set replaces the contents of a reserved node, keeping its ID.
func (g *Graph) Set(ref NodeRef, n Node) {
	n.ID = ref
	*g.nodes[ref] = n
}

// Primitive returns the interned node for p.
func (g *Graph) Primitive(p Primitive) NodeRef {
	if ref, ok := g.primitives[p]; ok {
		return ref
	}
	ref := g.Add(Node{Kind: KindPrimitive, Primitive: p, Name: p.String(), Elem: NoRef})
	g.primitives[p] = ref
	return ref
}

// Node returns the node for ref, or nil when ref is out of range.
func (g *Graph) Node(ref NodeRef) *Node {
	if ref < 0 || int(ref) >= len(g.nodes) {
		return nil
	}
	return g.nodes[ref]
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// AddRoot registers a named entry point.
func (g *Graph) AddRoot(name string, ref NodeRef) {
	g.roots = append(g.roots, Root{Name: name, Ref: ref})
}

// Root looks up a root by name.
func (g *Graph) Root(name string) (NodeRef, bool) {
	for _, r := range g.roots {
		if r.Name == name {
			return r.Ref, true
		}
	}
	return NoRef, false
}

// Roots returns the roots in registration order.
func (g *Graph) Roots() []Root {
	out := make([]Root, len(g.roots))
	copy(out, g.roots)
	return out
}

// Children returns the refs n points at, in declaration order.
func (n *Node) Children() []NodeRef {
	switch n.Kind {
	case KindObject:
		out := make([]NodeRef, len(n.Fields))
		for i, f := range n.Fields {
			out[i] = f.Type
		}
		return out
	case KindArray, KindMap:
		return []NodeRef{n.Elem}
	case KindUnion:
		return n.Members
	}
	return nil
}

// IsPrimitive reports whether n is a primitive of kind p.
func (n *Node) IsPrimitive(p Primitive) bool {
	return n.Kind == KindPrimitive && n.Primitive == p
}

// Walk visits every node reachable from start exactly once, depth first in
// declaration order. Returning false from fn stops descent below that node.
func (g *Graph) Walk(start NodeRef, fn func(*Node) bool) {
	visited := make(map[NodeRef]bool)
	var visit func(NodeRef)
	visit = func(ref NodeRef) {
		if visited[ref] {
			return
		}
		visited[ref] = true
		n := g.Node(ref)
		if n == nil {
			return
		}
		if !fn(n) {
			return
		}
		for _, c := range n.Children() {
			visit(c)
		}
	}
	visit(start)
}

// NonNull splits a union into its non-null members and whether null was
// present. Non-union nodes return themselves.
func (g *Graph) NonNull(ref NodeRef) ([]NodeRef, bool) {
	n := g.Node(ref)
	if n == nil {
		return nil, false
	}
	if n.IsPrimitive(PrimNull) {
		return nil, true
	}
	if n.Kind != KindUnion {
		return []NodeRef{ref}, false
	}
	var out []NodeRef
	nullable := false
	for _, m := range n.Members {
		if mn := g.Node(m); mn != nil && mn.IsPrimitive(PrimNull) {
			nullable = true
			continue
		}
		out = append(out, m)
	}
	return out, nullable
}

// Describe renders the subgraph under ref as a compact TypeScript-like string.
// Nodes already on the path print as their name hint, so recursive types
// terminate.
func (g *Graph) Describe(ref NodeRef) string {
	var b strings.Builder
	g.describe(&b, ref, map[NodeRef]bool{})
	return b.String()
}

func (g *Graph) describe(b *strings.Builder, ref NodeRef, path map[NodeRef]bool) {
	n := g.Node(ref)
	if n == nil {
		fmt.Fprintf(b, "<dangling %d>", ref)
		return
	}
	if path[ref] {
		if n.Name == "" {
			b.WriteString("...")
			return
		}
		b.WriteString(n.Name)
		return
	}
	if n.Kind != KindPrimitive {
		path[ref] = true
		defer delete(path, ref)
	}
	switch n.Kind {
	case KindPrimitive:
		b.WriteString(n.Primitive.String())
	case KindObject:
		b.WriteString("{")
		for i, f := range n.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			if f.Optional {
				b.WriteString("?")
			}
			b.WriteString(": ")
			g.describe(b, f.Type, path)
		}
		b.WriteString("}")
	case KindArray:
		g.describe(b, n.Elem, path)
		b.WriteString("[]")
	case KindMap:
		b.WriteString("map<")
		g.describe(b, n.Elem, path)
		b.WriteString(">")
	case KindUnion:
		parts := make([]string, 0, len(n.Members))
		for _, m := range n.Members {
			var mb strings.Builder
			g.describe(&mb, m, path)
			parts = append(parts, mb.String())
		}
		b.WriteString("(" + strings.Join(parts, " | ") + ")")
	case KindEnum:
		vals := append([]string(nil), n.Values...)
		sort.Strings(vals)
		b.WriteString("enum(" + strings.Join(vals, ",") + ")")
	}
}
