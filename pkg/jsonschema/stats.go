package jsonschema

import (
	"sort"
	"strings"

	"github.com/usestring/typepaste/pkg/typegraph"
)

// FieldStat describes one field position of an inferred type.
type FieldStat struct {
	Path       string   `json:"path"`                  // e.g. "user.name", "items[].id"
	Type       string   `json:"type"`                  // JSON Schema type, "a | b" for unions
	Required   bool     `json:"required"`              // present in every observed object
	Nullable   bool     `json:"nullable"`              // null was observed
	EnumValues []string `json:"enum_values,omitempty"` // sorted literals for enum fields
}

const defaultMaxDepth = 5

// ComputeFieldStats flattens the fields under root into a table, descending
// into nested objects, array elements and map values. Recursive types stop
// at their first repetition; nesting beyond the depth limit is reported as
// truncated.
func ComputeFieldStats(g *typegraph.Graph, root typegraph.NodeRef) []FieldStat {
	if g == nil || g.Node(root) == nil {
		return nil
	}
	var stats []FieldStat
	walkFields(g, root, "", 0, defaultMaxDepth, map[typegraph.NodeRef]bool{}, &stats)
	return stats
}

func walkFields(g *typegraph.Graph, ref typegraph.NodeRef, path string, depth, maxDepth int, onPath map[typegraph.NodeRef]bool, stats *[]FieldStat) {
	members, _ := g.NonNull(ref)
	if depth > maxDepth {
		if path != "" && hasComposite(g, members) {
			*stats = append(*stats, FieldStat{
				Path: path + " (truncated at depth limit)",
				Type: "...",
			})
		}
		return
	}

	for _, m := range members {
		// Every cycle passes through a composite node.
		if !hasComposite(g, []typegraph.NodeRef{m}) || onPath[m] {
			continue
		}
		n := g.Node(m)
		onPath[m] = true
		switch n.Kind {
		case typegraph.KindObject:
			for _, f := range n.Fields {
				fieldPath := f.Name
				if path != "" {
					fieldPath = path + "." + f.Name
				}
				*stats = append(*stats, fieldStat(g, fieldPath, f))
				walkFields(g, f.Type, fieldPath, depth+1, maxDepth, onPath, stats)
			}
		case typegraph.KindArray:
			walkFields(g, n.Elem, path+"[]", depth, maxDepth, onPath, stats)
		case typegraph.KindMap:
			walkFields(g, n.Elem, path+"{}", depth, maxDepth, onPath, stats)
		}
		delete(onPath, m)
	}
}

func fieldStat(g *typegraph.Graph, path string, f typegraph.Field) FieldStat {
	members, nullable := g.NonNull(f.Type)
	stat := FieldStat{
		Path:     path,
		Required: !f.Optional,
		Nullable: nullable,
	}
	kinds := make([]string, 0, len(members))
	for _, m := range members {
		kinds = append(kinds, resolveType(g.Node(m)))
		if n := g.Node(m); n.Kind == typegraph.KindEnum {
			stat.EnumValues = append(stat.EnumValues, n.Values...)
		}
	}
	if len(kinds) == 0 {
		kinds = append(kinds, "null")
	}
	stat.Type = strings.Join(kinds, " | ")
	sort.Strings(stat.EnumValues)
	return stat
}

func hasComposite(g *typegraph.Graph, refs []typegraph.NodeRef) bool {
	for _, r := range refs {
		switch g.Node(r).Kind {
		case typegraph.KindObject, typegraph.KindArray, typegraph.KindMap:
			return true
		}
	}
	return false
}

// resolveType names a node by its JSON Schema type.
func resolveType(n *typegraph.Node) string {
	switch n.Kind {
	case typegraph.KindPrimitive:
		if n.Primitive == typegraph.PrimAny {
			return "any"
		}
		return n.Primitive.String()
	case typegraph.KindObject, typegraph.KindMap:
		return "object"
	case typegraph.KindArray:
		return "array"
	case typegraph.KindEnum:
		return "string"
	}
	return n.Kind.String()
}
