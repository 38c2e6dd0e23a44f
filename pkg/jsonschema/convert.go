// Package jsonschema converts Type Graphs into JSON Schema documents
// following Draft 2020-12.
package jsonschema

import (
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/usestring/typepaste/pkg/typegraph"
)

// Options controls schema generation.
type Options struct {
	// Name returns the definition name for nodes that get an entry in $defs
	// and false for nodes rendered inline. Nil declares every object and enum
	// under its naming hint.
	Name func(ref typegraph.NodeRef) (string, bool)

	Title   string
	Comment string
}

// FromGraph builds a schema document for the node at root. The root itself
// is described at the top level; references back to it use "#".
func FromGraph(g *typegraph.Graph, root typegraph.NodeRef, opts Options) *jsonschema.Schema {
	c := &converter{
		g:    g,
		name: opts.Name,
		defs: make(jsonschema.Definitions),
		done: make(map[string]bool),
	}
	if c.name == nil {
		c.name = hintNamer(g)
	}
	if name, ok := c.name(root); ok {
		c.rootName = name
		c.done[name] = true
	}

	doc := c.body(root)
	doc.Version = jsonschema.Version
	doc.Title = opts.Title
	doc.Comments = opts.Comment
	if len(c.defs) > 0 {
		doc.Definitions = c.defs
	}
	return doc
}

type converter struct {
	g        *typegraph.Graph
	name     func(typegraph.NodeRef) (string, bool)
	rootName string
	defs     jsonschema.Definitions
	done     map[string]bool
}

// ref returns a schema for a use of ref: a $ref for named nodes, the inline
// body otherwise.
func (c *converter) ref(ref typegraph.NodeRef) *jsonschema.Schema {
	name, ok := c.name(ref)
	if !ok {
		return c.body(ref)
	}
	if name == c.rootName {
		return &jsonschema.Schema{Ref: "#"}
	}
	if !c.done[name] {
		c.done[name] = true
		c.defs[name] = c.body(ref)
	}
	return &jsonschema.Schema{Ref: "#/$defs/" + escapePointer(name)}
}

func (c *converter) body(ref typegraph.NodeRef) *jsonschema.Schema {
	n := c.g.Node(ref)
	switch n.Kind {
	case typegraph.KindPrimitive:
		if n.Primitive == typegraph.PrimAny {
			return &jsonschema.Schema{}
		}
		return &jsonschema.Schema{Type: n.Primitive.String()}
	case typegraph.KindObject:
		s := &jsonschema.Schema{Type: "object", Properties: jsonschema.NewProperties()}
		for _, f := range n.Fields {
			s.Properties.Set(f.Name, c.ref(f.Type))
			if !f.Optional {
				s.Required = append(s.Required, f.Name)
			}
		}
		return s
	case typegraph.KindArray:
		return &jsonschema.Schema{Type: "array", Items: c.ref(n.Elem)}
	case typegraph.KindMap:
		return &jsonschema.Schema{Type: "object", AdditionalProperties: c.ref(n.Elem)}
	case typegraph.KindEnum:
		values := make([]any, len(n.Values))
		for i, v := range n.Values {
			values[i] = v
		}
		return &jsonschema.Schema{Type: "string", Enum: values}
	case typegraph.KindUnion:
		anyOf := make([]*jsonschema.Schema, len(n.Members))
		for i, m := range n.Members {
			anyOf[i] = c.ref(m)
		}
		return &jsonschema.Schema{AnyOf: anyOf}
	}
	return &jsonschema.Schema{}
}

// hintNamer names objects and enums after their hints, numbering repeats.
func hintNamer(g *typegraph.Graph) func(typegraph.NodeRef) (string, bool) {
	names := make(map[typegraph.NodeRef]string)
	used := make(map[string]int)
	return func(ref typegraph.NodeRef) (string, bool) {
		n := g.Node(ref)
		if n == nil || (n.Kind != typegraph.KindObject && n.Kind != typegraph.KindEnum) {
			return "", false
		}
		if name, ok := names[ref]; ok {
			return name, true
		}
		name := n.Name
		if name == "" {
			name = n.Kind.String()
		}
		used[name]++
		if k := used[name]; k > 1 {
			name += "_" + strconv.Itoa(k)
		}
		names[ref] = name
		return name, true
	}
}

func escapePointer(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1")
}
