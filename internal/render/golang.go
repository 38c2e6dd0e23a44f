package render

import (
	"sort"
	"strconv"
	"strings"

	"github.com/usestring/typepaste/pkg/typegraph"
	"github.com/usestring/typepaste/pkg/types"
)

// goDialect declares objects, enums and unions with more than one non-null
// member. Such unions become structs with one pointer per member.
var goDialect = dialect{
	declares: func(g *typegraph.Graph, n *typegraph.Node) bool {
		if n.Kind == typegraph.KindUnion {
			members, _ := g.NonNull(n.ID)
			return len(members) > 1
		}
		return declaresObjectsAndEnums(g, n)
	},
	typeName: func(hint string) string { return pascal(hint, goWord, "T", "Type") },
}

const defaultGoPackage = "main"

type goRenderer struct {
	p       *plan
	opts    types.RenderOptions
	w       *writer
	idents  *namer // package scope
	imports map[string]bool
}

func renderGo(g *typegraph.Graph, root typegraph.NodeRef, rootName string, opts types.RenderOptions) ([]string, error) {
	p := newPlan(g, root, rootName, goDialect)
	r := &goRenderer{
		p:       p,
		opts:    opts,
		w:       newWriter(opts.Indent),
		idents:  newNamer(),
		imports: make(map[string]bool),
	}
	for _, ref := range p.decls {
		r.idents.reserve(p.names[ref])
	}

	rootType := p.names[p.root]
	if !opts.TypesOnly {
		r.imports["encoding/json"] = true
		fn := r.idents.unique("Unmarshal" + rootType)
		r.w.openf("func %s(data []byte) (%s, error) {", fn, rootType)
		r.w.linef("var r %s", rootType)
		r.w.line("err := json.Unmarshal(data, &r)")
		r.w.line("return r, err")
		r.w.close("}")
		r.w.blank()
		fn = r.idents.unique("Marshal" + rootType)
		r.w.openf("func %s(r %s) ([]byte, error) {", fn, rootType)
		r.w.line("return json.Marshal(r)")
		r.w.close("}")
		r.w.blank()
	}

	for _, ref := range p.decls {
		r.declare(ref)
		r.w.blank()
	}

	// Conversion code makes a complete file; types-only output is a list of
	// declarations to paste into an existing one.
	pkg := opts.Package
	if pkg == "" && !opts.TypesOnly {
		pkg = defaultGoPackage
	}
	var head []string
	if pkg != "" {
		head = append(head, "package "+pkg, "")
	}
	if len(r.imports) > 0 {
		paths := make([]string, 0, len(r.imports))
		for path := range r.imports {
			paths = append(paths, strconv.Quote(path))
		}
		sort.Strings(paths)
		if len(paths) == 1 {
			head = append(head, "import "+paths[0])
		} else {
			head = append(head, "import (")
			for _, path := range paths {
				head = append(head, opts.Indent+path)
			}
			head = append(head, ")")
		}
		head = append(head, "")
	}
	return withComments("//", opts.LeadingComments, append(head, r.w.finish()...)), nil
}

func (r *goRenderer) declare(ref typegraph.NodeRef) {
	n := r.p.node(ref)
	name := r.p.names[ref]
	switch n.Kind {
	case typegraph.KindObject:
		r.declareStruct(name, n)
	case typegraph.KindEnum:
		r.declareEnum(name, n)
	case typegraph.KindUnion:
		members, _ := r.p.nonNull(ref)
		if len(members) > 1 {
			r.declareUnion(name, members)
			return
		}
		r.w.linef("type %s %s", name, r.body(n))
	default:
		r.w.linef("type %s %s", name, r.body(n))
	}
}

func (r *goRenderer) declareStruct(name string, n *typegraph.Node) {
	if len(n.Fields) == 0 {
		r.w.linef("type %s struct{}", name)
		return
	}
	fields := newNamer()
	rows := make([][]string, 0, len(n.Fields))
	for _, f := range n.Fields {
		typ := r.expr(f.Type)
		tag := f.Name
		if f.Optional {
			tag += ",omitempty"
			if !goNilable(typ) {
				typ = "*" + typ
			}
		}
		rows = append(rows, []string{fields.unique(goFieldName(f.Name)), typ, goTag(tag)})
	}
	r.w.openf("type %s struct {", name)
	r.w.align(rows)
	r.w.close("}")
}

func (r *goRenderer) declareEnum(name string, n *typegraph.Node) {
	r.w.linef("type %s string", name)
	r.w.blank()
	r.w.open("const (")
	rows := make([][]string, 0, len(n.Values))
	for _, v := range n.Values {
		c := r.idents.unique(name + pascal(v, goWord, "V", "Empty"))
		rows = append(rows, []string{c, name, "= " + strconv.Quote(v)})
	}
	r.w.align(rows)
	r.w.close(")")
}

// unionMember is one slot of a union struct.
type unionMember struct {
	field string
	typ   string
	ref   typegraph.NodeRef
	// pointer is false for slices and maps, whose nil value already means
	// absent.
	pointer bool
}

func (r *goRenderer) unionMembers(members []typegraph.NodeRef) []unionMember {
	fields := newNamer(set("MarshalJSON", "UnmarshalJSON"))
	out := make([]unionMember, 0, len(members))
	for _, m := range members {
		n := r.p.node(m)
		var field string
		switch {
		case n.Kind == typegraph.KindPrimitive:
			field = map[typegraph.Primitive]string{
				typegraph.PrimAny:     "Any",
				typegraph.PrimBool:    "Bool",
				typegraph.PrimInteger: "Integer",
				typegraph.PrimNumber:  "Double",
				typegraph.PrimString:  "String",
			}[n.Primitive]
		case n.Kind == typegraph.KindArray:
			field = "Array"
		case n.Kind == typegraph.KindMap:
			field = "Map"
		default:
			field, _ = r.p.named(m)
		}
		typ := r.expr(m)
		ptr := !goNilable(typ)
		if ptr {
			typ = "*" + typ
		}
		out = append(out, unionMember{field: fields.unique(field), typ: typ, ref: m, pointer: ptr})
	}
	return out
}

func (r *goRenderer) declareUnion(name string, members []typegraph.NodeRef) {
	slots := r.unionMembers(members)
	rows := make([][]string, len(slots))
	for i, s := range slots {
		rows[i] = []string{s.field, s.typ}
	}
	r.w.openf("type %s struct {", name)
	r.w.align(rows)
	r.w.close("}")
	if r.opts.TypesOnly {
		return
	}
	r.imports["bytes"] = true
	r.imports["encoding/json"] = true
	r.imports["errors"] = true

	r.w.blank()
	r.w.openf("func (x *%s) UnmarshalJSON(data []byte) error {", name)
	r.w.linef("*x = %s{}", name)
	r.w.open(`if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {`)
	r.w.line("return nil")
	r.w.close("}")
	for i, s := range r.decodeOrder(slots) {
		v := "v" + strconv.Itoa(i)
		r.w.linef("var %s %s", v, strings.TrimPrefix(s.typ, "*"))
		r.w.openf("if err := json.Unmarshal(data, &%s); err == nil {", v)
		if s.pointer {
			r.w.linef("x.%s = &%s", s.field, v)
		} else {
			r.w.linef("x.%s = %s", s.field, v)
		}
		r.w.line("return nil")
		r.w.close("}")
	}
	r.w.linef("return errors.New(%s)", strconv.Quote("cannot unmarshal "+name))
	r.w.close("}")

	r.w.blank()
	r.w.openf("func (x %s) MarshalJSON() ([]byte, error) {", name)
	for _, s := range slots {
		r.w.openf("if x.%s != nil {", s.field)
		if s.pointer {
			r.w.linef("return json.Marshal(*x.%s)", s.field)
		} else {
			r.w.linef("return json.Marshal(x.%s)", s.field)
		}
		r.w.close("}")
	}
	r.w.line(`return []byte("null"), nil`)
	r.w.close("}")
}

// decodeOrder tries the strictest Go types first: integers before floats,
// structs before maps.
func (r *goRenderer) decodeOrder(slots []unionMember) []unionMember {
	rank := func(s unionMember) int {
		n := r.p.node(s.ref)
		switch n.Kind {
		case typegraph.KindPrimitive:
			switch n.Primitive {
			case typegraph.PrimBool:
				return 0
			case typegraph.PrimInteger:
				return 1
			case typegraph.PrimNumber:
				return 2
			case typegraph.PrimString:
				return 3
			}
			return 8
		case typegraph.KindEnum:
			return 3
		case typegraph.KindObject:
			return 4
		case typegraph.KindMap:
			return 5
		case typegraph.KindArray:
			return 6
		}
		return 7
	}
	out := append([]unionMember(nil), slots...)
	sort.SliceStable(out, func(i, j int) bool { return rank(out[i]) < rank(out[j]) })
	return out
}

// expr is the Go type for ref at a use site.
func (r *goRenderer) expr(ref typegraph.NodeRef) string {
	if name, ok := r.p.named(ref); ok {
		return name
	}
	return r.body(r.p.node(ref))
}

// body is the Go type for n itself, ignoring its own declaration.
func (r *goRenderer) body(n *typegraph.Node) string {
	switch n.Kind {
	case typegraph.KindPrimitive:
		return goPrimitive(n.Primitive)
	case typegraph.KindArray:
		return "[]" + r.expr(n.Elem)
	case typegraph.KindMap:
		return "map[string]" + r.expr(n.Elem)
	case typegraph.KindUnion:
		members, nullable := r.p.nonNull(n.ID)
		if len(members) != 1 {
			return "any"
		}
		typ := r.expr(members[0])
		if nullable && !goNilable(typ) {
			return "*" + typ
		}
		return typ
	}
	name, _ := r.p.named(n.ID)
	return name
}

func goPrimitive(p typegraph.Primitive) string {
	switch p {
	case typegraph.PrimBool:
		return "bool"
	case typegraph.PrimInteger:
		return "int64"
	case typegraph.PrimNumber:
		return "float64"
	case typegraph.PrimString:
		return "string"
	}
	return "any"
}

// goNilable reports whether a type's zero value is nil, so optional values
// need no extra pointer.
func goNilable(typ string) bool {
	return strings.HasPrefix(typ, "*") || strings.HasPrefix(typ, "[]") ||
		strings.HasPrefix(typ, "map[") || typ == "any"
}

func goFieldName(jsonName string) string {
	return pascal(jsonName, goWord, "X", "Empty")
}

func goTag(value string) string {
	tag := "json:" + strconv.Quote(value)
	if strings.Contains(tag, "`") {
		return strconv.Quote(tag)
	}
	return "`" + tag + "`"
}
