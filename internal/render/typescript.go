package render

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/usestring/typepaste/pkg/typegraph"
	"github.com/usestring/typepaste/pkg/types"
)

var typescriptDialect = dialect{
	declares: declaresObjectsAndEnums,
	typeName: func(hint string) string { return pascal(hint, titleWord, "T", "Type") },
	reserved: typescriptReserved,
}

// tsTypes writes TypeScript type expressions. Declared nodes are referred
// to by name.
type tsTypes struct {
	p *plan
}

func (t tsTypes) expr(ref typegraph.NodeRef) string {
	if name, ok := t.p.named(ref); ok {
		return name
	}
	return t.body(t.p.node(ref))
}

func (t tsTypes) body(n *typegraph.Node) string {
	switch n.Kind {
	case typegraph.KindPrimitive:
		return tsPrimitive(n.Primitive)
	case typegraph.KindArray:
		elem := t.expr(n.Elem)
		if strings.Contains(elem, " | ") {
			elem = "(" + elem + ")"
		}
		return elem + "[]"
	case typegraph.KindMap:
		return "{ [key: string]: " + t.expr(n.Elem) + " }"
	case typegraph.KindUnion:
		parts := make([]string, len(n.Members))
		for i, m := range n.Members {
			parts[i] = t.expr(m)
		}
		return strings.Join(parts, " | ")
	case typegraph.KindEnum:
		parts := make([]string, len(n.Values))
		for i, v := range n.Values {
			parts[i] = jsString(v)
		}
		return strings.Join(parts, " | ")
	case typegraph.KindObject:
		// objects are always declared; reached only for their own body
		var b strings.Builder
		b.WriteString("{ ")
		for _, f := range n.Fields {
			b.WriteString(tsProperty(f) + ": " + t.expr(f.Type) + "; ")
		}
		b.WriteString("}")
		return b.String()
	}
	return "any"
}

// declare writes an interface for objects and a type alias for anything
// else.
func (t tsTypes) declare(w *writer, ref typegraph.NodeRef) {
	n := t.p.node(ref)
	name := t.p.names[ref]
	if n.Kind != typegraph.KindObject {
		w.linef("export type %s = %s;", name, t.body(n))
		return
	}
	if len(n.Fields) == 0 {
		w.linef("export interface %s {}", name)
		return
	}
	w.openf("export interface %s {", name)
	for _, f := range n.Fields {
		w.linef("%s: %s;", tsProperty(f), t.expr(f.Type))
	}
	w.close("}")
}

func tsProperty(f typegraph.Field) string {
	name := f.Name
	if !isJSIdentifier(name) {
		name = jsString(name)
	}
	if f.Optional {
		name += "?"
	}
	return name
}

func tsPrimitive(p typegraph.Primitive) string {
	switch p {
	case typegraph.PrimNull:
		return "null"
	case typegraph.PrimBool:
		return "boolean"
	case typegraph.PrimInteger, typegraph.PrimNumber:
		return "number"
	case typegraph.PrimString:
		return "string"
	}
	return "any"
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

func renderTypeScript(g *typegraph.Graph, root typegraph.NodeRef, rootName string, opts types.RenderOptions) ([]string, error) {
	p := newPlan(g, root, rootName, typescriptDialect)
	t := tsTypes{p: p}
	w := newWriter(opts.Indent)
	for _, ref := range p.decls {
		t.declare(w, ref)
		w.blank()
	}
	if !opts.TypesOnly {
		t.converter(w)
	}
	return withComments("//", opts.LeadingComments, w.finish()), nil
}

// converter writes the Convert class and the runtime type map it checks
// values against.
func (t tsTypes) converter(w *writer) {
	rootType := t.p.names[t.p.root]
	lower := strings.ToLower(rootType[:1]) + rootType[1:]

	w.line("// Converts JSON strings to and from the types above, checking each value")
	w.line("// against the declared shape.")
	w.open("export class Convert {")
	w.openf("public static to%s(json: string): %s {", rootType, rootType)
	w.linef("return check(JSON.parse(json), r(%s));", jsString(rootType))
	w.close("}")
	w.blank()
	w.openf("public static %sToJson(value: %s): string {", lower, rootType)
	w.linef("return JSON.stringify(check(value, r(%s)));", jsString(rootType))
	w.close("}")
	w.close("}")
	w.blank()
	w.text(tsRuntime)
	w.blank()
	w.open("const typeMap: any = {")
	for _, ref := range t.p.decls {
		w.linef("%s: %s,", jsString(t.p.names[ref]), t.descriptorBody(t.p.node(ref)))
	}
	w.close("};")
}

func (t tsTypes) descriptor(ref typegraph.NodeRef) string {
	if name, ok := t.p.named(ref); ok {
		return "r(" + jsString(name) + ")"
	}
	return t.descriptorBody(t.p.node(ref))
}

func (t tsTypes) descriptorBody(n *typegraph.Node) string {
	switch n.Kind {
	case typegraph.KindPrimitive:
		switch n.Primitive {
		case typegraph.PrimNull:
			return "null"
		case typegraph.PrimInteger:
			return `"integer"`
		case typegraph.PrimAny:
			return `"any"`
		}
		return jsString(tsPrimitive(n.Primitive))
	case typegraph.KindArray:
		return "a(" + t.descriptor(n.Elem) + ")"
	case typegraph.KindMap:
		return "m(" + t.descriptor(n.Elem) + ")"
	case typegraph.KindUnion:
		parts := make([]string, len(n.Members))
		for i, m := range n.Members {
			parts[i] = t.descriptor(m)
		}
		return "u(" + strings.Join(parts, ", ") + ")"
	case typegraph.KindEnum:
		parts := make([]string, len(n.Values))
		for i, v := range n.Values {
			parts[i] = jsString(v)
		}
		return "e(" + strings.Join(parts, ", ") + ")"
	}
	props := make([]string, len(n.Fields))
	for i, f := range n.Fields {
		typ := t.descriptor(f.Type)
		if f.Optional {
			typ = "u(undefined, " + typ + ")"
		}
		props[i] = "{ json: " + jsString(f.Name) + ", typ: " + typ + " }"
	}
	return "o([" + strings.Join(props, ", ") + "])"
}

const tsRuntime = `
function invalidValue(typ: any, val: any, key: string): never {
	const where = key ? ` + "` at ${key}`" + ` : "";
	throw Error(` + "`Invalid value${where}: ${JSON.stringify(val)} is not ${JSON.stringify(typ)}`" + `);
}

function isObject(val: any): boolean {
	return val !== null && typeof val === "object" && !Array.isArray(val);
}

function check(val: any, typ: any, key: string = ""): any {
	if (typ === "any") return val;
	if (typ === null || typ === undefined) {
		if (val === typ) return val;
		return invalidValue(typ, val, key);
	}
	if (typ === "integer") {
		if (Number.isInteger(val)) return val;
		return invalidValue(typ, val, key);
	}
	if (typeof typ === "string") {
		if (typeof val === typ) return val;
		return invalidValue(typ, val, key);
	}
	if (typ.ref !== undefined) return check(val, typeMap[typ.ref], key);
	if (typ.enum !== undefined) {
		if (typ.enum.indexOf(val) !== -1) return val;
		return invalidValue(typ, val, key);
	}
	if (typ.union !== undefined) {
		for (const t of typ.union) {
			try {
				return check(val, t, key);
			} catch (_) {
				// try the next member
			}
		}
		return invalidValue(typ, val, key);
	}
	if (typ.array !== undefined) {
		if (!Array.isArray(val)) return invalidValue(typ, val, key);
		return val.map((el: any, i: number) => check(el, typ.array, ` + "`${key}[${i}]`" + `));
	}
	if (!isObject(val)) return invalidValue(typ, val, key);
	const result: any = {};
	if (typ.map !== undefined) {
		Object.keys(val).forEach((k) => {
			result[k] = check(val[k], typ.map, ` + "`${key}.${k}`" + `);
		});
		return result;
	}
	typ.props.forEach((p: any) => {
		const v = check(val[p.json], p.typ, key ? ` + "`${key}.${p.json}`" + ` : p.json);
		if (v !== undefined) result[p.json] = v;
	});
	return result;
}

function a(typ: any) {
	return { array: typ };
}

function m(typ: any) {
	return { map: typ };
}

function u(...typs: any[]) {
	return { union: typs };
}

function e(...values: string[]) {
	return { enum: values };
}

function o(props: any[]) {
	return { props };
}

function r(name: string) {
	return { ref: name };
}
`
