package typegraph

import (
	"fmt"

	"github.com/usestring/typepaste/pkg/types"
)

// Validate checks structural invariants. Any failure is a bug in whatever
// built the graph and is reported as an internal invariant violation.
func (g *Graph) Validate() error {
	if len(g.roots) == 0 {
		return invariant("graph has no roots")
	}
	seenRoot := make(map[string]bool, len(g.roots))
	for _, r := range g.roots {
		if seenRoot[r.Name] {
			return invariant("duplicate root %q", r.Name)
		}
		seenRoot[r.Name] = true
		if g.Node(r.Ref) == nil {
			return invariant("root %q points at missing node %d", r.Name, r.Ref)
		}
	}

	for _, n := range g.nodes {
		if err := g.validateNode(n); err != nil {
			return err
		}
	}
	return nil
}

func (g *Graph) validateNode(n *Node) error {
	check := func(ref NodeRef, what string) error {
		if g.Node(ref) == nil {
			return invariant("node %d (%s %q): %s points at missing node %d", n.ID, n.Kind, n.Name, what, ref)
		}
		return nil
	}

	switch n.Kind {
	case KindPrimitive:
		if n.Primitive < PrimAny || n.Primitive > PrimString {
			return invariant("node %d: unknown primitive %d", n.ID, int(n.Primitive))
		}
	case KindObject:
		names := make(map[string]bool, len(n.Fields))
		for _, f := range n.Fields {
			if names[f.Name] {
				return invariant("node %d (object %q): duplicate field %q", n.ID, n.Name, f.Name)
			}
			names[f.Name] = true
			if err := check(f.Type, fmt.Sprintf("field %q", f.Name)); err != nil {
				return err
			}
		}
	case KindArray, KindMap:
		if err := check(n.Elem, "element"); err != nil {
			return err
		}
	case KindUnion:
		if len(n.Members) < 2 {
			return invariant("node %d (union %q): %d members, need at least 2", n.ID, n.Name, len(n.Members))
		}
		seen := make(map[NodeRef]bool, len(n.Members))
		for _, m := range n.Members {
			if seen[m] {
				return invariant("node %d (union %q): member %d repeated", n.ID, n.Name, m)
			}
			seen[m] = true
			if err := check(m, "member"); err != nil {
				return err
			}
			if mn := g.Node(m); mn.Kind == KindUnion {
				return invariant("node %d (union %q): nested union %d", n.ID, n.Name, m)
			}
		}
	case KindEnum:
		if len(n.Values) == 0 {
			return invariant("node %d (enum %q): no values", n.ID, n.Name)
		}
	default:
		return invariant("node %d: unknown kind %d", n.ID, int(n.Kind))
	}
	return nil
}

func invariant(format string, args ...any) error {
	return types.Errorf(types.CodeInternalInvariant, format, args...)
}
