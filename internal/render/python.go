package render

import (
	"sort"
	"strings"
	"unicode"

	"github.com/usestring/typepaste/pkg/typegraph"
	"github.com/usestring/typepaste/pkg/types"
)

var pythonDialect = dialect{
	declares: declaresObjectsAndEnums,
	typeName: func(hint string) string { return pascal(hint, titleWord, "T", "Type") },
	reserved: pythonReserved,
}

// pyHelper is a module-level conversion function. Helpers are emitted only
// when generated code calls them.
type pyHelper struct {
	name    string
	code    string
	typing  []string
	needs   []string
	enumImp bool
}

var pyHelpers = []pyHelper{
	{name: "T", code: `T = TypeVar("T")`, typing: []string{"TypeVar"}},
	{name: "expect", typing: []string{"Any"}, code: `
def expect(ok: bool, want: str, x: Any) -> None:
	if not ok:
		raise TypeError(f"expected {want}, got {type(x).__name__}")`},
	{name: "from_str", typing: []string{"Any"}, needs: []string{"expect"}, code: `
def from_str(x: Any) -> str:
	expect(isinstance(x, str), "str", x)
	return x`},
	{name: "from_int", typing: []string{"Any"}, needs: []string{"expect"}, code: `
def from_int(x: Any) -> int:
	expect(isinstance(x, int) and not isinstance(x, bool), "int", x)
	return x`},
	{name: "from_float", typing: []string{"Any"}, needs: []string{"expect"}, code: `
def from_float(x: Any) -> float:
	expect(isinstance(x, (float, int)) and not isinstance(x, bool), "float", x)
	return float(x)`},
	{name: "from_bool", typing: []string{"Any"}, needs: []string{"expect"}, code: `
def from_bool(x: Any) -> bool:
	expect(isinstance(x, bool), "bool", x)
	return x`},
	{name: "from_none", typing: []string{"Any"}, needs: []string{"expect"}, code: `
def from_none(x: Any) -> Any:
	expect(x is None, "None", x)
	return x`},
	{name: "from_list", typing: []string{"Any", "Callable", "List"}, needs: []string{"T", "expect"}, code: `
def from_list(f: Callable[[Any], T], x: Any) -> List[T]:
	expect(isinstance(x, list), "list", x)
	return [f(y) for y in x]`},
	{name: "from_dict", typing: []string{"Any", "Callable", "Dict"}, needs: []string{"T", "expect"}, code: `
def from_dict(f: Callable[[Any], T], x: Any) -> Dict[str, T]:
	expect(isinstance(x, dict), "dict", x)
	return {k: f(v) for (k, v) in x.items()}`},
	{name: "from_union", typing: []string{"Any", "Callable", "List"}, code: `
def from_union(fs: List[Callable[[Any], Any]], x: Any) -> Any:
	for f in fs:
		try:
			return f(x)
		except (TypeError, ValueError):
			pass
	raise TypeError(f"no union member accepts {type(x).__name__}")`},
	{name: "to_class", typing: []string{"Any", "Type", "cast"}, needs: []string{"T", "expect"}, code: `
def to_class(c: Type[T], x: Any) -> dict:
	expect(isinstance(x, c), c.__name__, x)
	return cast(Any, x).to_dict()`},
	{name: "to_enum", typing: []string{"Any", "Type"}, needs: []string{"expect"}, enumImp: true, code: `
def to_enum(c: Type[Enum], x: Any) -> Any:
	expect(isinstance(x, c), c.__name__, x)
	return x.value`},
}

type pyRenderer struct {
	p       *plan
	opts    types.RenderOptions
	typing  map[string]bool
	helpers map[string]bool
	emitted map[typegraph.NodeRef]bool
	funcs   map[typegraph.NodeRef][2]string // alias -> from, to function names
	err     error

	dataclass, enum bool
}

func renderPython(g *typegraph.Graph, root typegraph.NodeRef, rootName string, opts types.RenderOptions) ([]string, error) {
	p := newPlan(g, root, rootName, pythonDialect)
	order, _ := p.postorder()
	r := &pyRenderer{
		p:       p,
		opts:    opts,
		typing:  make(map[string]bool),
		helpers: make(map[string]bool),
		emitted: make(map[typegraph.NodeRef]bool),
		funcs:   make(map[typegraph.NodeRef][2]string),
	}

	module := newNamer(pythonTaken)
	for _, ref := range p.decls {
		module.reserve(p.names[ref])
	}
	if !opts.TypesOnly {
		for _, ref := range p.decls {
			if r.isClass(ref) && ref != p.root {
				continue
			}
			base := snake(p.names[ref])
			r.funcs[ref] = [2]string{module.unique(base + "_from_dict"), module.unique(base + "_to_dict")}
		}
	}

	body := newWriter(opts.Indent)
	for _, ref := range order {
		r.declare(body, ref)
		r.emitted[ref] = true
		body.blanks(2)
	}
	if !opts.TypesOnly {
		for _, ref := range p.decls {
			if _, ok := r.funcs[ref]; ok {
				r.aliasFuncs(body, ref)
				body.blanks(2)
			}
		}
	}
	if r.err != nil {
		return nil, r.err
	}

	w := newWriter(opts.Indent)
	r.imports(w)
	w.blanks(2)
	for _, h := range pyHelpers {
		if r.helpers[h.name] {
			w.text(h.code)
			w.blanks(2)
		}
	}
	w.lines = append(w.lines, body.finish()...)
	return withComments("#", opts.LeadingComments, w.finish()), nil
}

func (r *pyRenderer) imports(w *writer) {
	for _, h := range pyHelpers {
		if !r.helpers[h.name] {
			continue
		}
		for _, t := range h.typing {
			r.typing[t] = true
		}
		if h.enumImp {
			r.enum = true
		}
	}
	if r.dataclass {
		w.line("from dataclasses import dataclass")
	}
	if r.enum {
		w.line("from enum import Enum")
	}
	if len(r.typing) > 0 {
		names := make([]string, 0, len(r.typing))
		for name := range r.typing {
			names = append(names, name)
		}
		sort.Strings(names)
		w.line("from typing import " + strings.Join(names, ", "))
	}
}

func (r *pyRenderer) use(helper string) {
	if r.helpers[helper] {
		return
	}
	r.helpers[helper] = true
	for _, h := range pyHelpers {
		if h.name == helper {
			for _, dep := range h.needs {
				r.use(dep)
			}
		}
	}
}

func (r *pyRenderer) isClass(ref typegraph.NodeRef) bool {
	if _, ok := r.p.named(ref); !ok {
		return false
	}
	k := r.p.node(ref).Kind
	return k == typegraph.KindObject || k == typegraph.KindEnum
}

func (r *pyRenderer) declare(w *writer, ref typegraph.NodeRef) {
	n := r.p.node(ref)
	name := r.p.names[ref]
	switch n.Kind {
	case typegraph.KindEnum:
		r.enum = true
		w.openf("class %s(Enum):", name)
		members := newNamer(pythonTaken)
		for _, v := range n.Values {
			w.linef("%s = %s", members.unique(pyEnumMember(v)), pyString(v))
		}
		w.depth--
	case typegraph.KindObject:
		r.declareClass(w, name, n)
	default:
		w.linef("%s = %s", name, r.hint(n.ID, true))
	}
}

// pyField is one dataclass attribute.
type pyField struct {
	attr string
	f    typegraph.Field
}

func (r *pyRenderer) declareClass(w *writer, name string, n *typegraph.Node) {
	r.dataclass = true
	attrs := newNamer(pythonTaken)
	var required, optional []pyField
	for _, f := range n.Fields {
		pf := pyField{attr: attrs.unique(pyAttr(f.Name)), f: f}
		if f.Optional {
			optional = append(optional, pf)
		} else {
			required = append(required, pf)
		}
	}

	w.line("@dataclass")
	w.openf("class %s:", name)
	if len(n.Fields) == 0 && r.opts.TypesOnly {
		w.line("pass")
	}
	for _, pf := range required {
		w.linef("%s: %s", pf.attr, r.hint(pf.f.Type, false))
	}
	for _, pf := range optional {
		w.linef("%s: %s = None", pf.attr, r.optional(r.hint(pf.f.Type, false)))
	}
	if !r.opts.TypesOnly {
		fields := append(append([]pyField(nil), required...), optional...)
		r.classMethods(w, name, fields)
	}
	w.depth--
}

func (r *pyRenderer) classMethods(w *writer, name string, fields []pyField) {
	r.typing["Any"] = true
	if len(fields) > 0 {
		w.blank()
	}
	w.line("@staticmethod")
	w.openf("def from_dict(obj: Any) -> %s:", pyString(name))
	r.use("expect")
	w.line(`expect(isinstance(obj, dict), "dict", obj)`)
	args := make([]string, 0, len(fields))
	for _, pf := range fields {
		get := "obj.get(" + pyString(pf.f.Name) + ")"
		w.linef("%s = %s", pf.attr, r.fromField(pf.f, get))
		args = append(args, pf.attr+"="+pf.attr)
	}
	w.linef("return %s(%s)", name, strings.Join(args, ", "))
	w.depth--
	w.blank()
	w.open("def to_dict(self) -> dict:")
	w.line("result: dict = {}")
	for _, pf := range fields {
		self := "self." + pf.attr
		key := "result[" + pyString(pf.f.Name) + "]"
		if pf.f.Optional {
			w.openf("if %s is not None:", self)
			w.linef("%s = %s", key, r.to(pf.f.Type, self))
			w.depth--
			continue
		}
		w.linef("%s = %s", key, r.to(pf.f.Type, self))
	}
	w.line("return result")
	w.depth--
}

func (r *pyRenderer) fromField(f typegraph.Field, arg string) string {
	if !f.Optional {
		return r.from(f.Type, arg)
	}
	if _, nullable := r.p.nonNull(f.Type); nullable || r.p.node(f.Type).IsPrimitive(typegraph.PrimAny) {
		return r.from(f.Type, arg)
	}
	r.use("from_union")
	r.use("from_none")
	return "from_union([from_none, " + r.fromFn(f.Type) + "], " + arg + ")"
}

func (r *pyRenderer) aliasFuncs(w *writer, ref typegraph.NodeRef) {
	r.typing["Any"] = true
	name := r.p.names[ref]
	fns := r.funcs[ref]
	n := r.p.node(ref)

	w.openf("def %s(s: Any) -> %s:", fns[0], name)
	if r.isClass(ref) {
		w.linef("return %s", r.from(ref, "s"))
	} else {
		w.linef("return %s", r.fromBody(n, "s"))
	}
	w.depth--
	w.blanks(2)
	w.openf("def %s(x: %s) -> Any:", fns[1], name)
	if r.isClass(ref) {
		w.linef("return %s", r.to(ref, "x"))
	} else {
		w.linef("return %s", r.toBody(n, "x"))
	}
	w.depth--
}

// hint is the annotation for ref. Declarations that are not emitted yet are
// quoted forward references; self skips the name lookup for ref itself.
func (r *pyRenderer) hint(ref typegraph.NodeRef, self bool) string {
	if !self {
		if name, ok := r.p.named(ref); ok {
			if r.emitted[r.p.resolve(ref)] {
				return name
			}
			return pyString(name)
		}
	}
	n := r.p.node(ref)
	switch n.Kind {
	case typegraph.KindPrimitive:
		return r.primitiveHint(n.Primitive)
	case typegraph.KindArray:
		r.typing["List"] = true
		return "List[" + r.hint(n.Elem, false) + "]"
	case typegraph.KindMap:
		r.typing["Dict"] = true
		return "Dict[str, " + r.hint(n.Elem, false) + "]"
	case typegraph.KindUnion:
		members, nullable := r.p.nonNull(ref)
		var s string
		switch len(members) {
		case 0:
			return "None"
		case 1:
			s = r.hint(members[0], false)
		default:
			parts := make([]string, len(members))
			for i, m := range members {
				parts[i] = r.hint(m, false)
			}
			r.typing["Union"] = true
			s = "Union[" + strings.Join(parts, ", ") + "]"
		}
		if nullable {
			return r.optional(s)
		}
		return s
	}
	r.typing["Any"] = true
	return "Any"
}

func (r *pyRenderer) optional(hint string) string {
	if hint == "Any" || hint == "None" || strings.HasPrefix(hint, "Optional[") {
		return hint
	}
	r.typing["Optional"] = true
	return "Optional[" + hint + "]"
}

func (r *pyRenderer) primitiveHint(p typegraph.Primitive) string {
	switch p {
	case typegraph.PrimNull:
		return "None"
	case typegraph.PrimBool:
		return "bool"
	case typegraph.PrimInteger:
		return "int"
	case typegraph.PrimNumber:
		return "float"
	case typegraph.PrimString:
		return "str"
	}
	r.typing["Any"] = true
	return "Any"
}

// from converts the JSON value in arg to ref's Python type.
func (r *pyRenderer) from(ref typegraph.NodeRef, arg string) string {
	if _, ok := r.p.named(ref); ok {
		name := r.p.names[r.p.resolve(ref)]
		switch r.p.node(ref).Kind {
		case typegraph.KindObject:
			return name + ".from_dict(" + arg + ")"
		case typegraph.KindEnum:
			return name + "(" + arg + ")"
		}
		return r.funcs[r.p.resolve(ref)][0] + "(" + arg + ")"
	}
	return r.fromBody(r.p.node(ref), arg)
}

func (r *pyRenderer) fromBody(n *typegraph.Node, arg string) string {
	switch n.Kind {
	case typegraph.KindPrimitive:
		if h := pyPrimitiveHelper(n.Primitive); h != "" {
			r.use(h)
			return h + "(" + arg + ")"
		}
		return arg
	case typegraph.KindArray:
		r.use("from_list")
		return "from_list(" + r.fromFn(n.Elem) + ", " + arg + ")"
	case typegraph.KindMap:
		r.use("from_dict")
		return "from_dict(" + r.fromFn(n.Elem) + ", " + arg + ")"
	case typegraph.KindUnion:
		r.checkUnion(n)
		r.use("from_union")
		parts := make([]string, len(n.Members))
		for i, m := range pyUnionOrder(r.p, n) {
			parts[i] = r.fromFn(m)
		}
		return "from_union([" + strings.Join(parts, ", ") + "], " + arg + ")"
	}
	return arg
}

func (r *pyRenderer) fromFn(ref typegraph.NodeRef) string {
	if _, ok := r.p.named(ref); ok {
		name := r.p.names[r.p.resolve(ref)]
		switch r.p.node(ref).Kind {
		case typegraph.KindObject:
			return name + ".from_dict"
		case typegraph.KindEnum:
			return name
		}
		return r.funcs[r.p.resolve(ref)][0]
	}
	if n := r.p.node(ref); n.Kind == typegraph.KindPrimitive {
		if h := pyPrimitiveHelper(n.Primitive); h != "" {
			r.use(h)
			return h
		}
	}
	return "lambda x: " + r.from(ref, "x")
}

// to converts the Python value in arg back to its JSON form.
func (r *pyRenderer) to(ref typegraph.NodeRef, arg string) string {
	if _, ok := r.p.named(ref); ok {
		name := r.p.names[r.p.resolve(ref)]
		switch r.p.node(ref).Kind {
		case typegraph.KindObject:
			r.use("to_class")
			return "to_class(" + name + ", " + arg + ")"
		case typegraph.KindEnum:
			r.use("to_enum")
			return "to_enum(" + name + ", " + arg + ")"
		}
		return r.funcs[r.p.resolve(ref)][1] + "(" + arg + ")"
	}
	return r.toBody(r.p.node(ref), arg)
}

func (r *pyRenderer) toBody(n *typegraph.Node, arg string) string {
	switch n.Kind {
	case typegraph.KindArray:
		r.use("from_list")
		return "from_list(" + r.toFn(n.Elem) + ", " + arg + ")"
	case typegraph.KindMap:
		r.use("from_dict")
		return "from_dict(" + r.toFn(n.Elem) + ", " + arg + ")"
	case typegraph.KindUnion:
		r.checkUnion(n)
		r.use("from_union")
		parts := make([]string, len(n.Members))
		for i, m := range pyUnionOrder(r.p, n) {
			parts[i] = r.toFn(m)
		}
		return "from_union([" + strings.Join(parts, ", ") + "], " + arg + ")"
	}
	return r.fromBody(n, arg)
}

func (r *pyRenderer) toFn(ref typegraph.NodeRef) string {
	n := r.p.node(ref)
	if _, ok := r.p.named(ref); !ok && n.Kind == typegraph.KindPrimitive {
		return r.fromFn(ref)
	}
	return "lambda x: " + r.to(ref, "x")
}

// checkUnion rejects unions with more than one dict-shaped member: a JSON
// object could decode as either, so conversion would be ambiguous.
func (r *pyRenderer) checkUnion(n *typegraph.Node) {
	dicts := 0
	for _, m := range n.Members {
		switch r.p.node(m).Kind {
		case typegraph.KindObject, typegraph.KindMap:
			dicts++
		}
	}
	if dicts > 1 && r.err == nil {
		r.err = types.Errorf(types.CodeUnsupportedFeat,
			"python conversion cannot tell apart the object members of union %q; use types-only output", n.Name)
	}
}

// pyUnionOrder puts None first so optional values short-circuit.
func pyUnionOrder(p *plan, n *typegraph.Node) []typegraph.NodeRef {
	out := make([]typegraph.NodeRef, 0, len(n.Members))
	for _, m := range n.Members {
		if p.node(m).IsPrimitive(typegraph.PrimNull) {
			out = append(out, m)
		}
	}
	for _, m := range n.Members {
		if !p.node(m).IsPrimitive(typegraph.PrimNull) {
			out = append(out, m)
		}
	}
	return out
}

func pyPrimitiveHelper(p typegraph.Primitive) string {
	switch p {
	case typegraph.PrimNull:
		return "from_none"
	case typegraph.PrimBool:
		return "from_bool"
	case typegraph.PrimInteger:
		return "from_int"
	case typegraph.PrimNumber:
		return "from_float"
	case typegraph.PrimString:
		return "from_str"
	}
	return ""
}

func pyAttr(jsonName string) string {
	s := snake(jsonName)
	if s == "" {
		return "field"
	}
	if unicode.IsDigit([]rune(s)[0]) {
		s = "f_" + s
	}
	if pythonTaken[s] {
		s += "_"
	}
	return s
}

func pyEnumMember(value string) string {
	s := strings.ToUpper(snake(value))
	if s == "" {
		return "EMPTY"
	}
	if unicode.IsDigit([]rune(s)[0]) {
		s = "VALUE_" + s
	}
	return s
}

// pyString quotes s as a Python string literal. JSON escapes are valid
// Python escapes.
func pyString(s string) string {
	return jsString(s)
}
