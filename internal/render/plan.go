package render

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/usestring/typepaste/pkg/typegraph"
)

// dialect is what the planner needs to know about a target language.
type dialect struct {
	// declares reports whether a node gets its own named declaration.
	declares func(g *typegraph.Graph, n *typegraph.Node) bool
	// typeName turns a naming hint into a type identifier.
	typeName func(hint string) string
	reserved map[string]bool
}

func declaresObjectsAndEnums(_ *typegraph.Graph, n *typegraph.Node) bool {
	return n.Kind == typegraph.KindObject || n.Kind == typegraph.KindEnum
}

// plan fixes which nodes a renderer declares, in which order, and under which
// names. Structurally identical nodes are collapsed onto one canonical node
// before anything is named.
type plan struct {
	g        *typegraph.Graph
	root     typegraph.NodeRef
	rootName string

	canon    map[typegraph.NodeRef]typegraph.NodeRef
	declared map[typegraph.NodeRef]bool
	decls    []typegraph.NodeRef // preorder, root first
	names    map[typegraph.NodeRef]string
}

func newPlan(g *typegraph.Graph, root typegraph.NodeRef, rootName string, d dialect) *plan {
	p := &plan{
		g:        g,
		rootName: rootName,
		canon:    canonicalize(g, root),
		declared: make(map[typegraph.NodeRef]bool),
		names:    make(map[typegraph.NodeRef]string),
	}
	p.root = p.canon[root]

	// Every cycle must pass through a declaration or inline rendering would
	// never terminate, so back-edge targets are declared too.
	const (
		onStack = 1
		done    = 2
	)
	state := make(map[typegraph.NodeRef]int)
	var mark func(typegraph.NodeRef)
	mark = func(ref typegraph.NodeRef) {
		ref = p.canon[ref]
		switch state[ref] {
		case onStack:
			p.declared[ref] = true
			return
		case done:
			return
		}
		state[ref] = onStack
		n := g.Node(ref)
		if d.declares(g, n) {
			p.declared[ref] = true
		}
		for _, c := range n.Children() {
			mark(c)
		}
		state[ref] = done
	}
	mark(p.root)
	p.declared[p.root] = true

	seen := make(map[typegraph.NodeRef]bool)
	var order func(typegraph.NodeRef)
	order = func(ref typegraph.NodeRef) {
		ref = p.canon[ref]
		if seen[ref] {
			return
		}
		seen[ref] = true
		if p.declared[ref] {
			p.decls = append(p.decls, ref)
		}
		for _, c := range g.Node(ref).Children() {
			order(c)
		}
	}
	order(p.root)

	names := newNamer(d.reserved)
	for _, ref := range p.decls {
		hint := g.Node(ref).Name
		if ref == p.root {
			hint = rootName
		}
		p.names[ref] = names.unique(d.typeName(hint))
	}
	return p
}

// node returns the canonical node for ref.
func (p *plan) node(ref typegraph.NodeRef) *typegraph.Node {
	return p.g.Node(p.resolve(ref))
}

func (p *plan) resolve(ref typegraph.NodeRef) typegraph.NodeRef {
	if c, ok := p.canon[ref]; ok {
		return c
	}
	return ref
}

// named returns the declaration name for ref when it has one.
func (p *plan) named(ref typegraph.NodeRef) (string, bool) {
	name, ok := p.names[p.resolve(ref)]
	return name, ok
}

// nonNull is Graph.NonNull over canonical refs.
func (p *plan) nonNull(ref typegraph.NodeRef) ([]typegraph.NodeRef, bool) {
	members, nullable := p.g.NonNull(p.resolve(ref))
	out := make([]typegraph.NodeRef, len(members))
	for i, m := range members {
		out[i] = p.resolve(m)
	}
	return out, nullable
}

// dependencies lists the declarations that ref's body refers to directly,
// looking through inline nodes.
func (p *plan) dependencies(ref typegraph.NodeRef) []typegraph.NodeRef {
	var out []typegraph.NodeRef
	seen := make(map[typegraph.NodeRef]bool)
	var visit func(typegraph.NodeRef)
	visit = func(r typegraph.NodeRef) {
		r = p.resolve(r)
		if seen[r] {
			return
		}
		seen[r] = true
		if p.declared[r] {
			out = append(out, r)
			return
		}
		for _, c := range p.g.Node(r).Children() {
			visit(c)
		}
	}
	for _, c := range p.node(ref).Children() {
		visit(c)
	}
	return out
}

// postorder lists declarations so that dependencies come first wherever the
// graph is acyclic. The second result marks declarations that can reach
// themselves; their forward references need deferred evaluation.
func (p *plan) postorder() ([]typegraph.NodeRef, map[typegraph.NodeRef]bool) {
	deps := make(map[typegraph.NodeRef][]typegraph.NodeRef, len(p.decls))
	for _, d := range p.decls {
		deps[d] = p.dependencies(d)
	}

	var out []typegraph.NodeRef
	seen := make(map[typegraph.NodeRef]bool)
	var visit func(typegraph.NodeRef)
	visit = func(d typegraph.NodeRef) {
		if seen[d] {
			return
		}
		seen[d] = true
		for _, dep := range deps[d] {
			visit(dep)
		}
		out = append(out, d)
	}
	for _, d := range p.decls {
		visit(d)
	}

	cyclic := make(map[typegraph.NodeRef]bool)
	for _, d := range p.decls {
		if reaches(deps, d, d) {
			cyclic[d] = true
		}
	}
	return out, cyclic
}

func reaches(deps map[typegraph.NodeRef][]typegraph.NodeRef, from, to typegraph.NodeRef) bool {
	seen := make(map[typegraph.NodeRef]bool)
	stack := append([]typegraph.NodeRef(nil), deps[from]...)
	for len(stack) > 0 {
		d := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if d == to {
			return true
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		stack = append(stack, deps[d]...)
	}
	return false
}

// canonicalize maps every node reachable from root onto the first node, in
// depth-first order, of its structural equivalence class. Classes are found
// by partition refinement, so recursive types compare correctly.
func canonicalize(g *typegraph.Graph, root typegraph.NodeRef) map[typegraph.NodeRef]typegraph.NodeRef {
	var nodes []*typegraph.Node
	g.Walk(root, func(n *typegraph.Node) bool {
		nodes = append(nodes, n)
		return true
	})

	class := make(map[typegraph.NodeRef]int, len(nodes))
	count := partition(nodes, class, shallowSignature)
	for {
		next := make(map[typegraph.NodeRef]int, len(nodes))
		c := partition(nodes, next, func(n *typegraph.Node) string {
			var b strings.Builder
			b.WriteString(strconv.Itoa(class[n.ID]))
			for _, child := range n.Children() {
				b.WriteByte(',')
				b.WriteString(strconv.Itoa(class[child]))
			}
			return b.String()
		})
		class = next
		if c == count {
			break
		}
		count = c
	}

	first := make(map[int]typegraph.NodeRef)
	canon := make(map[typegraph.NodeRef]typegraph.NodeRef, len(nodes))
	for _, n := range nodes {
		rep, ok := first[class[n.ID]]
		if !ok {
			rep = n.ID
			first[class[n.ID]] = rep
		}
		canon[n.ID] = rep
	}
	return canon
}

func partition(nodes []*typegraph.Node, out map[typegraph.NodeRef]int, signature func(*typegraph.Node) string) int {
	ids := make(map[string]int)
	for _, n := range nodes {
		sig := signature(n)
		id, ok := ids[sig]
		if !ok {
			id = len(ids)
			ids[sig] = id
		}
		out[n.ID] = id
	}
	return len(ids)
}

// shallowSignature describes a node without looking at its children.
func shallowSignature(n *typegraph.Node) string {
	switch n.Kind {
	case typegraph.KindPrimitive:
		return "p:" + n.Primitive.String()
	case typegraph.KindObject:
		var b strings.Builder
		b.WriteString("o:")
		for _, f := range n.Fields {
			b.WriteString(strconv.Quote(f.Name))
			if f.Optional {
				b.WriteByte('?')
			}
		}
		return b.String()
	case typegraph.KindEnum:
		vals := append([]string(nil), n.Values...)
		sort.Strings(vals)
		quoted := make([]string, len(vals))
		for i, v := range vals {
			quoted[i] = strconv.Quote(v)
		}
		return "e:" + strings.Join(quoted, ",")
	case typegraph.KindUnion:
		return fmt.Sprintf("u:%d", len(n.Members))
	}
	return n.Kind.String()
}
