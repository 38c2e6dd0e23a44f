// Package unify merges per-sample shapes into a Type Graph.
package unify

import (
	"log/slog"
	"strings"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/go-openapi/inflect"

	"github.com/usestring/typepaste/pkg/shape"
	"github.com/usestring/typepaste/pkg/typegraph"
	"github.com/usestring/typepaste/pkg/types"
)

// Options controls unification.
type Options struct {
	// Strict rejects unions of non-null members instead of building them.
	Strict bool

	Logger *slog.Logger
}

// Unify builds a graph with one root per logical name in shapes.
//
// Objects merge field by field in first-appearance order; a field is optional
// when some observed object lacks it. Mismatched kinds become a union that
// keeps every kind, except that integer widens to number and an enum next to
// a plain string collapses to string. Placeholders only survive when nothing
// concrete was observed.
func Unify(shapes *shape.Shapes, opts Options) (*typegraph.Graph, error) {
	start := time.Now()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	u := &unifier{
		g:         typegraph.New(),
		set:       shapes,
		strict:    opts.Strict,
		defs:      make(map[string]typegraph.NodeRef),
		expanding: make(map[string]bool),
	}
	for _, name := range shapes.Names() {
		ref, err := u.unify(shapes.Get(name), name, name, typegraph.NoRef)
		if err != nil {
			return nil, err
		}
		u.g.AddRoot(name, ref)
	}
	u.spliceUnions()

	logger.Debug("unified shapes",
		slog.Int("roots", shapes.Len()),
		slog.Int("definitions", len(u.defs)),
		slog.Int("nodes", u.g.Len()),
		slog.Duration("elapsed", time.Since(start)),
	)
	return u.g, nil
}

type unifier struct {
	g      *typegraph.Graph
	set    *shape.Shapes
	strict bool

	// defs maps definition keys to their graph nodes. Entries are added
	// before the definition is unified so recursion finds them.
	defs map[string]typegraph.NodeRef

	// expanding holds alias definitions currently being inlined.
	expanding map[string]bool
}

// bucket groups the flattened observations at one position.
type bucket struct {
	order []string // member kinds in first-seen order

	null, boolean, integer, number, str, placeholder bool

	literals []string
	objects  []*shape.Shape
	arrays   []*shape.Shape
	maps     []*shape.Shape
}

func (b *bucket) see(kind string) {
	for _, k := range b.order {
		if k == kind {
			return
		}
	}
	b.order = append(b.order, kind)
}

// unify merges the observations at one position. into, when set, is a
// reserved definition slot that receives the resulting node.
func (u *unifier) unify(obs []*shape.Shape, hint, path string, into typegraph.NodeRef) (typegraph.NodeRef, error) {
	b := &bucket{}
	var inlined []string
	for _, s := range obs {
		u.flatten(s, b, &inlined)
	}
	defer func() {
		for _, k := range inlined {
			delete(u.expanding, k)
		}
	}()

	// integer widens to number; an enum beside a plain string is a string.
	if b.integer && b.number {
		b.integer = false
	}
	if b.str && len(b.literals) > 0 {
		b.literals = nil
	}

	var active []string
	for _, kind := range b.order {
		if b.has(kind) {
			active = append(active, kind)
		}
	}

	var nonNull []string
	for _, kind := range active {
		if kind != "null" {
			nonNull = append(nonNull, strings.TrimPrefix(kind, "ref:"))
		}
	}
	if len(nonNull) == 0 && b.placeholder {
		// Placeholders absorb null: an unresolved type may already be null.
		return u.g.Primitive(typegraph.PrimAny), nil
	}
	if len(active) == 0 {
		return u.g.Primitive(typegraph.PrimAny), nil
	}
	if u.strict && len(nonNull) > 1 {
		return typegraph.NoRef, types.Errorf(types.CodeConflict,
			"conflicting types %s", strings.Join(nonNull, ", ")).WithPath(path)
	}

	memberInto := typegraph.NoRef
	if len(active) == 1 {
		memberInto = into
	}
	members := make([]typegraph.NodeRef, 0, len(active))
	for _, kind := range active {
		ref, err := u.member(kind, b, hint, path, memberInto)
		if err != nil {
			return typegraph.NoRef, err
		}
		members = append(members, ref)
	}
	if len(members) == 1 {
		return members[0], nil
	}
	return u.build(typegraph.Node{Kind: typegraph.KindUnion, Name: hint, Members: members, Elem: typegraph.NoRef}, into), nil
}

// has reports whether kind still contributes a member after widening.
func (b *bucket) has(kind string) bool {
	switch kind {
	case "null":
		return b.null
	case "boolean":
		return b.boolean
	case "integer":
		return b.integer
	case "number":
		return b.number
	case "string":
		return b.str
	case "enum":
		return len(b.literals) > 0
	case "object", "array", "map":
		return true
	}
	return strings.HasPrefix(kind, "ref:")
}

func (u *unifier) member(kind string, b *bucket, hint, path string, into typegraph.NodeRef) (typegraph.NodeRef, error) {
	switch kind {
	case "null":
		return u.g.Primitive(typegraph.PrimNull), nil
	case "boolean":
		return u.g.Primitive(typegraph.PrimBool), nil
	case "integer":
		return u.g.Primitive(typegraph.PrimInteger), nil
	case "number":
		return u.g.Primitive(typegraph.PrimNumber), nil
	case "string":
		return u.g.Primitive(typegraph.PrimString), nil
	case "enum":
		return u.build(typegraph.Node{Kind: typegraph.KindEnum, Name: hint, Values: dedupe(b.literals), Elem: typegraph.NoRef}, into), nil
	case "object":
		return u.mergeObjects(b.objects, hint, path, into)
	case "array":
		return u.mergeArrays(b.arrays, hint, path, into)
	case "map":
		return u.mergeMaps(b.maps, hint, path, into)
	}
	return u.defNode(strings.TrimPrefix(kind, "ref:"))
}

// flatten sorts s into b, expanding unions and inlining aliases.
func (u *unifier) flatten(s *shape.Shape, b *bucket, inlined *[]string) {
	if s == nil {
		return
	}
	switch s.Kind {
	case shape.Any:
		b.placeholder = true
	case shape.Null:
		b.null = true
		b.see("null")
	case shape.Bool:
		b.boolean = true
		b.see("boolean")
	case shape.Integer:
		b.integer = true
		// integer and number share one slot so the widened type keeps its
		// first-seen position
		b.see("number")
		b.see("integer")
	case shape.Number:
		b.number = true
		b.see("number")
	case shape.String:
		b.str = true
		b.see("string")
	case shape.Enum:
		b.literals = append(b.literals, s.Literals...)
		b.see("enum")
		b.see("string")
	case shape.Object:
		b.objects = append(b.objects, s)
		b.see("object")
	case shape.Array:
		b.arrays = append(b.arrays, s)
		b.see("array")
	case shape.Map:
		b.maps = append(b.maps, s)
		b.see("map")
	case shape.Union:
		for _, v := range s.Variants {
			u.flatten(v, b, inlined)
		}
	case shape.Ref:
		d := u.set.Defs[s.RefKey]
		if d == nil || d.Shape == nil {
			b.placeholder = true
			return
		}
		for _, k := range *inlined {
			if k == s.RefKey {
				return
			}
		}
		if u.inlinable(d) {
			u.expanding[s.RefKey] = true
			*inlined = append(*inlined, s.RefKey)
			u.flatten(d.Shape, b, inlined)
			return
		}
		b.see("ref:" + s.RefKey)
	}
}

// inlinable reports whether a definition is an alias that should be merged
// into its use site instead of getting its own node: anything that is not an
// object or enum, unless it is already being inlined (recursion).
func (u *unifier) inlinable(d *shape.Def) bool {
	if u.expanding[d.Key] {
		return false
	}
	switch d.Shape.Kind {
	case shape.Object, shape.Enum:
		return false
	}
	return true
}

// defNode returns the node for a named definition, unifying it on first use.
func (u *unifier) defNode(key string) (typegraph.NodeRef, error) {
	if ref, ok := u.defs[key]; ok {
		return ref, nil
	}
	d := u.set.Defs[key]
	reserved := u.g.Reserve(typegraph.KindObject, d.Name)
	u.defs[key] = reserved

	ref, err := u.unify([]*shape.Shape{d.Shape}, d.Name, d.Name, reserved)
	if err != nil {
		return typegraph.NoRef, err
	}
	if ref != reserved {
		n := *u.g.Node(ref)
		if n.Kind != typegraph.KindPrimitive {
			n.Name = d.Name
		}
		u.g.Set(reserved, n)
	}
	return reserved, nil
}

// spliceUnions replaces union members that are themselves unions with
// their members. Recursive union aliases only get their own node once the
// alias is referenced again, so a union may hold another union (or itself)
// until every definition is filled in. A union left with one member takes
// that member's place.
func (u *unifier) spliceUnions() {
	for i := 0; i < u.g.Len(); i++ {
		ref := typegraph.NodeRef(i)
		n := u.g.Node(ref)
		if n.Kind != typegraph.KindUnion {
			continue
		}
		nested := false
		for _, m := range n.Members {
			if u.g.Node(m).Kind == typegraph.KindUnion {
				nested = true
				break
			}
		}
		if !nested {
			continue
		}

		var members []typegraph.NodeRef
		seen := map[typegraph.NodeRef]bool{ref: true}
		u.collectMembers(n.Members, seen, &members)
		switch len(members) {
		case 0:
			u.g.Set(ref, *u.g.Node(u.g.Primitive(typegraph.PrimAny)))
		case 1:
			only := *u.g.Node(members[0])
			if only.Kind != typegraph.KindPrimitive {
				only.Name = n.Name
			}
			u.g.Set(ref, only)
		default:
			u.g.Set(ref, typegraph.Node{Kind: typegraph.KindUnion, Name: n.Name, Members: members, Elem: typegraph.NoRef})
		}
	}
}

func (u *unifier) collectMembers(refs []typegraph.NodeRef, seen map[typegraph.NodeRef]bool, out *[]typegraph.NodeRef) {
	for _, m := range refs {
		if seen[m] {
			continue
		}
		seen[m] = true
		if n := u.g.Node(m); n.Kind == typegraph.KindUnion {
			u.collectMembers(n.Members, seen, out)
			continue
		}
		*out = append(*out, m)
	}
}

func (u *unifier) build(n typegraph.Node, into typegraph.NodeRef) typegraph.NodeRef {
	if into != typegraph.NoRef {
		u.g.Set(into, n)
		return into
	}
	return u.g.Add(n)
}

func (u *unifier) mergeObjects(objs []*shape.Shape, hint, path string, into typegraph.NodeRef) (typegraph.NodeRef, error) {
	var order []string
	observed := make(map[string][]*shape.Shape)
	present := make(map[string]*roaring.Bitmap)
	declaredOptional := make(map[string]bool)

	for i, obj := range objs {
		for _, f := range obj.Fields {
			bm, ok := present[f.Name]
			if !ok {
				bm = roaring.New()
				present[f.Name] = bm
				order = append(order, f.Name)
			}
			bm.Add(uint32(i))
			observed[f.Name] = append(observed[f.Name], f.Shape)
			if f.Optional {
				declaredOptional[f.Name] = true
			}
		}
	}

	total := uint64(len(objs))
	fields := make([]typegraph.Field, 0, len(order))
	for _, name := range order {
		ref, err := u.unify(observed[name], name, path+"."+name, typegraph.NoRef)
		if err != nil {
			return typegraph.NoRef, err
		}
		fields = append(fields, typegraph.Field{
			Name:     name,
			Type:     ref,
			Optional: declaredOptional[name] || present[name].GetCardinality() < total,
		})
	}
	return u.build(typegraph.Node{Kind: typegraph.KindObject, Name: hint, Fields: fields, Elem: typegraph.NoRef}, into), nil
}

func (u *unifier) mergeArrays(arrs []*shape.Shape, hint, path string, into typegraph.NodeRef) (typegraph.NodeRef, error) {
	var elems []*shape.Shape
	for _, a := range arrs {
		elems = append(elems, a.Elems...)
	}
	elem := typegraph.NoRef
	if len(elems) == 0 {
		elem = u.g.Primitive(typegraph.PrimAny)
	} else {
		var err error
		elem, err = u.unify(elems, elementHint(hint), path+"[]", typegraph.NoRef)
		if err != nil {
			return typegraph.NoRef, err
		}
	}
	return u.build(typegraph.Node{Kind: typegraph.KindArray, Name: hint, Elem: elem}, into), nil
}

func (u *unifier) mergeMaps(maps []*shape.Shape, hint, path string, into typegraph.NodeRef) (typegraph.NodeRef, error) {
	values := make([]*shape.Shape, 0, len(maps))
	for _, m := range maps {
		values = append(values, m.Value)
	}
	value, err := u.unify(values, hint+"Value", path+"{}", typegraph.NoRef)
	if err != nil {
		return typegraph.NoRef, err
	}
	return u.build(typegraph.Node{Kind: typegraph.KindMap, Name: hint, Elem: value}, into), nil
}

// elementHint names array elements after the singular of the array's name.
func elementHint(hint string) string {
	singular := inflect.Singularize(hint)
	if singular == "" || singular == hint {
		return hint + "Element"
	}
	return singular
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
