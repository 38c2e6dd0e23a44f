package render

import (
	"strings"

	"github.com/usestring/typepaste/pkg/typegraph"
	"github.com/usestring/typepaste/pkg/types"
)

var zodDialect = dialect{
	declares: declaresObjectsAndEnums,
	typeName: func(hint string) string { return pascal(hint, titleWord, "T", "Type") },
	reserved: typescriptReserved,
}

// zodRenderer emits one schema constant per declaration, dependencies first.
// Declarations on a cycle get an explicit type and are referenced lazily
// until they have been emitted.
type zodRenderer struct {
	p       *plan
	ts      tsTypes
	cyclic  map[typegraph.NodeRef]bool
	emitted map[typegraph.NodeRef]bool
}

func renderZod(g *typegraph.Graph, root typegraph.NodeRef, rootName string, opts types.RenderOptions) ([]string, error) {
	p := newPlan(g, root, rootName, zodDialect)
	order, cyclic := p.postorder()
	r := &zodRenderer{p: p, ts: tsTypes{p: p}, cyclic: cyclic, emitted: make(map[typegraph.NodeRef]bool)}

	w := newWriter(opts.Indent)
	w.line(`import { z } from "zod";`)
	w.blank()
	for _, ref := range order {
		r.declare(w, ref)
		r.emitted[ref] = true
		w.blank()
	}

	rootType := p.names[p.root]
	w.openf("export function parse%s(json: string): %s {", rootType, rootType)
	w.linef("return %sSchema.parse(JSON.parse(json));", rootType)
	w.close("}")
	w.blank()
	w.openf("export function serialize%s(value: %s): string {", rootType, rootType)
	w.linef("return JSON.stringify(%sSchema.parse(value));", rootType)
	w.close("}")
	return withComments("//", opts.LeadingComments, w.finish()), nil
}

func (r *zodRenderer) declare(w *writer, ref typegraph.NodeRef) {
	n := r.p.node(ref)
	name := r.p.names[ref]
	annotation := ""
	if r.cyclic[ref] {
		r.ts.declare(w, ref)
		annotation = ": z.ZodType<" + name + ">"
	}

	if n.Kind == typegraph.KindObject && len(n.Fields) > 0 {
		w.openf("export const %sSchema%s = z.object({", name, annotation)
		for _, f := range n.Fields {
			w.linef("%s: %s,", zodKey(f.Name), r.field(f))
		}
		w.close("});")
	} else {
		w.linef("export const %sSchema%s = %s;", name, annotation, r.body(n))
	}
	if !r.cyclic[ref] {
		w.linef("export type %s = z.infer<typeof %sSchema>;", name, name)
	}
}

func (r *zodRenderer) field(f typegraph.Field) string {
	s := r.expr(f.Type)
	if f.Optional {
		s += ".optional()"
	}
	return s
}

func (r *zodRenderer) expr(ref typegraph.NodeRef) string {
	if name, ok := r.p.named(ref); ok {
		if r.emitted[r.p.resolve(ref)] {
			return name + "Schema"
		}
		return "z.lazy(() => " + name + "Schema)"
	}
	return r.body(r.p.node(ref))
}

func (r *zodRenderer) body(n *typegraph.Node) string {
	switch n.Kind {
	case typegraph.KindPrimitive:
		return zodPrimitive(n.Primitive)
	case typegraph.KindArray:
		return "z.array(" + r.expr(n.Elem) + ")"
	case typegraph.KindMap:
		return "z.record(z.string(), " + r.expr(n.Elem) + ")"
	case typegraph.KindEnum:
		vals := make([]string, len(n.Values))
		for i, v := range n.Values {
			vals[i] = jsString(v)
		}
		return "z.enum([" + strings.Join(vals, ", ") + "])"
	case typegraph.KindUnion:
		members, nullable := r.p.nonNull(n.ID)
		var s string
		switch len(members) {
		case 0:
			return "z.null()"
		case 1:
			s = r.expr(members[0])
		default:
			parts := make([]string, len(members))
			for i, m := range members {
				parts[i] = r.expr(m)
			}
			s = "z.union([" + strings.Join(parts, ", ") + "])"
		}
		if nullable {
			s += ".nullable()"
		}
		return s
	case typegraph.KindObject:
		parts := make([]string, len(n.Fields))
		for i, f := range n.Fields {
			parts[i] = zodKey(f.Name) + ": " + r.field(f)
		}
		return "z.object({" + strings.Join(parts, ", ") + "})"
	}
	return "z.any()"
}

func zodPrimitive(p typegraph.Primitive) string {
	switch p {
	case typegraph.PrimNull:
		return "z.null()"
	case typegraph.PrimBool:
		return "z.boolean()"
	case typegraph.PrimInteger:
		return "z.number().int()"
	case typegraph.PrimNumber:
		return "z.number()"
	case typegraph.PrimString:
		return "z.string()"
	}
	return "z.any()"
}

func zodKey(name string) string {
	if isJSIdentifier(name) {
		return name
	}
	return jsString(name)
}
