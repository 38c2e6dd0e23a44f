package ingest

import (
	"context"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/usestring/typepaste/pkg/shape"
)

// parseTypeScript reads interfaces, type aliases and enums with the
// tree-sitter TypeScript grammar.
func parseTypeScript(src string, unit *sourceUnit) error {
	parser := sitter.NewParser()
	parser.SetLanguage(typescript.GetLanguage())

	content := []byte(src)
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return sourceError(0, 0, "parsing typescript: %v", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		bad := firstError(root)
		if bad == nil {
			bad = root
		}
		pt := bad.StartPoint()
		what := "syntax error"
		if bad.IsMissing() {
			what = "missing " + bad.Type()
		} else if text := strings.TrimSpace(bad.Content(content)); text != "" {
			what = "unexpected " + strconv.Quote(truncate(text, 32))
		}
		return sourceError(int(pt.Row)+1, int(pt.Column)+1, "%s", what)
	}

	p := &tsParser{unit: unit, src: content}

	var decls []*sitter.Node
	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		if n.Type() == "export_statement" {
			if d := n.ChildByFieldName("declaration"); d != nil {
				n = d
			}
		}
		switch n.Type() {
		case "interface_declaration", "type_alias_declaration", "enum_declaration":
			if name := n.ChildByFieldName("name"); name != nil {
				unit.declare(p.text(name))
				decls = append(decls, n)
			}
		}
	}

	for _, n := range decls {
		name := p.text(n.ChildByFieldName("name"))
		switch n.Type() {
		case "interface_declaration":
			unit.define(name, p.interfaceShape(n))
		case "type_alias_declaration":
			value := n.ChildByFieldName("value")
			if value == nil {
				unit.define(name, shape.NewAny())
				continue
			}
			unit.define(name, p.typeShape(value))
		case "enum_declaration":
			unit.define(name, p.enumShape(n))
		}
	}
	return nil
}

// firstError returns the first ERROR or MISSING node in document order.
func firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.HasError() || c.IsMissing() || c.IsError() {
			if bad := firstError(c); bad != nil {
				return bad
			}
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

type tsParser struct {
	unit *sourceUnit
	src  []byte
}

func (p *tsParser) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(p.src)
}

func (p *tsParser) interfaceShape(n *sitter.Node) *shape.Shape {
	body := n.ChildByFieldName("body")
	obj := shape.NewObject()
	if body != nil {
		obj = p.objectShape(body)
	}

	// interface X extends A, B
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() != "extends_type_clause" && c.Type() != "extends_clause" {
			continue
		}
		for j := 0; j < int(c.NamedChildCount()); j++ {
			base := c.NamedChild(j)
			if base.Type() == "generic_type" {
				base = base.ChildByFieldName("name")
			}
			if base != nil && p.unit.known[p.text(base)] {
				p.unit.inherit(obj, p.text(base))
			}
		}
	}
	return obj
}

// objectShape reads an object_type or interface body. A body holding only an
// index signature is a map.
func (p *tsParser) objectShape(body *sitter.Node) *shape.Shape {
	obj := shape.NewObject()
	var index *shape.Shape
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "property_signature":
			name := p.propertyName(member.ChildByFieldName("name"))
			if name == "" {
				continue
			}
			obj.Fields = append(obj.Fields, shape.Field{
				Name:     name,
				Shape:    p.annotation(member),
				Optional: hasToken(member, "?"),
			})
		case "index_signature":
			index = p.annotation(member)
		}
	}
	if index != nil && len(obj.Fields) == 0 {
		return shape.NewMap(index)
	}
	return obj
}

// annotation returns the shape of a member's type annotation.
func (p *tsParser) annotation(member *sitter.Node) *shape.Shape {
	ann := member.ChildByFieldName("type")
	if ann == nil {
		for i := int(member.NamedChildCount()) - 1; i >= 0; i-- {
			if c := member.NamedChild(i); c.Type() == "type_annotation" {
				ann = c
				break
			}
		}
	}
	if ann == nil {
		return shape.NewAny()
	}
	if ann.Type() == "type_annotation" {
		if ann.NamedChildCount() == 0 {
			return shape.NewAny()
		}
		ann = ann.NamedChild(0)
	}
	return p.typeShape(ann)
}

func (p *tsParser) propertyName(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	switch n.Type() {
	case "string":
		return unquoteTS(p.text(n))
	case "computed_property_name":
		return ""
	}
	return p.text(n)
}

func hasToken(n *sitter.Node, tok string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if !c.IsNamed() && c.Type() == tok {
			return true
		}
	}
	return false
}

func (p *tsParser) typeShape(n *sitter.Node) *shape.Shape {
	switch n.Type() {
	case "predefined_type":
		switch p.text(n) {
		case "string":
			return shape.NewString()
		case "number":
			return shape.NewNumber()
		case "boolean":
			return shape.NewBool()
		case "null", "undefined", "void":
			return shape.NewNull()
		case "object":
			return shape.NewMap(shape.NewAny())
		}
		return shape.NewAny()

	case "type_identifier":
		return p.namedType(p.text(n), nil)

	case "nested_type_identifier":
		return shape.NewAny()

	case "generic_type":
		name := p.text(n.ChildByFieldName("name"))
		var args []*sitter.Node
		if ta := n.ChildByFieldName("type_arguments"); ta != nil {
			for i := 0; i < int(ta.NamedChildCount()); i++ {
				args = append(args, ta.NamedChild(i))
			}
		}
		return p.namedType(name, args)

	case "array_type":
		if n.NamedChildCount() == 0 {
			return shape.NewArray(shape.NewAny())
		}
		return shape.NewArray(p.typeShape(n.NamedChild(0)))

	case "readonly_type", "parenthesized_type":
		if n.NamedChildCount() == 0 {
			return shape.NewAny()
		}
		return p.typeShape(n.NamedChild(0))

	case "tuple_type":
		var elems []*shape.Shape
		for i := 0; i < int(n.NamedChildCount()); i++ {
			elems = append(elems, p.typeShape(n.NamedChild(i)))
		}
		return shape.NewArray(elems...)

	case "object_type":
		return p.objectShape(n)

	case "union_type":
		var variants []*shape.Shape
		p.flattenUnion(n, &variants)
		return unionOfLiterals(variants)

	case "intersection_type":
		return p.intersection(n)

	case "literal_type":
		return p.literalShape(n)
	}
	return shape.NewAny()
}

func (p *tsParser) flattenUnion(n *sitter.Node, out *[]*shape.Shape) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() == "union_type" {
			p.flattenUnion(c, out)
			continue
		}
		*out = append(*out, p.typeShape(c))
	}
}

// unionOfLiterals folds string literal members of a union into one enum.
func unionOfLiterals(variants []*shape.Shape) *shape.Shape {
	var literals []string
	var rest []*shape.Shape
	enumAt := -1
	for _, v := range variants {
		if v.Kind == shape.Enum {
			if enumAt < 0 {
				enumAt = len(rest)
				rest = append(rest, nil)
			}
			literals = append(literals, v.Literals...)
			continue
		}
		rest = append(rest, v)
	}
	if enumAt >= 0 {
		rest[enumAt] = shape.NewEnum(dedupe(literals)...)
	}
	return shape.NewUnion(rest...)
}

// intersection merges object members. Named members are inherited from
// their declarations.
func (p *tsParser) intersection(n *sitter.Node) *shape.Shape {
	obj := shape.NewObject()
	var walk func(*sitter.Node) bool
	walk = func(n *sitter.Node) bool {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			switch c.Type() {
			case "intersection_type":
				if !walk(c) {
					return false
				}
			case "object_type":
				obj.Fields = append(obj.Fields, p.objectShape(c).Fields...)
			case "type_identifier":
				name := p.text(c)
				if !p.unit.known[name] {
					return false
				}
				p.unit.inherit(obj, name)
			default:
				return false
			}
		}
		return true
	}
	if !walk(n) {
		return shape.NewAny()
	}
	return obj
}

func (p *tsParser) namedType(name string, args []*sitter.Node) *shape.Shape {
	arg := func(i int) *shape.Shape {
		if i < len(args) {
			return p.typeShape(args[i])
		}
		return shape.NewAny()
	}
	switch name {
	case "Array", "ReadonlyArray", "Set":
		return shape.NewArray(arg(0))
	case "Record", "Map":
		return shape.NewMap(arg(1))
	case "Date":
		return shape.NewString()
	case "String":
		return shape.NewString()
	case "Number":
		return shape.NewNumber()
	case "Boolean":
		return shape.NewBool()
	case "Readonly", "NonNullable":
		return arg(0)
	}
	return p.unit.lookup(name)
}

func (p *tsParser) literalShape(n *sitter.Node) *shape.Shape {
	if n.NamedChildCount() == 0 {
		return p.literalText(p.text(n))
	}
	c := n.NamedChild(0)
	switch c.Type() {
	case "string":
		return shape.NewEnum(unquoteTS(p.text(c)))
	case "number", "unary_expression":
		return numberLiteral(p.text(c))
	case "true", "false":
		return shape.NewBool()
	case "null", "undefined":
		return shape.NewNull()
	}
	return p.literalText(p.text(c))
}

func (p *tsParser) literalText(s string) *shape.Shape {
	switch s {
	case "true", "false":
		return shape.NewBool()
	case "null", "undefined":
		return shape.NewNull()
	}
	return shape.NewAny()
}

func numberLiteral(text string) *shape.Shape {
	text = strings.ReplaceAll(strings.TrimSpace(text), "_", "")
	if _, err := strconv.ParseInt(text, 0, 64); err == nil {
		return shape.NewInteger()
	}
	return shape.NewNumber()
}

// enumShape reads `enum X { A = "a", B = "b" }`. Members without string
// initializers use their names.
func (p *tsParser) enumShape(n *sitter.Node) *shape.Shape {
	body := n.ChildByFieldName("body")
	if body == nil {
		return shape.NewAny()
	}
	var literals []string
	numeric := false
	for i := 0; i < int(body.NamedChildCount()); i++ {
		m := body.NamedChild(i)
		switch m.Type() {
		case "enum_assignment":
			value := m.ChildByFieldName("value")
			if value != nil && value.Type() == "string" {
				literals = append(literals, unquoteTS(p.text(value)))
			} else {
				numeric = true
			}
		case "property_identifier", "string":
			// bare members are numbered from zero
			numeric = true
		}
	}
	if numeric {
		if len(literals) > 0 {
			return shape.NewUnion(shape.NewEnum(literals...), shape.NewInteger())
		}
		return shape.NewInteger()
	}
	if len(literals) == 0 {
		return shape.NewAny()
	}
	return shape.NewEnum(dedupe(literals)...)
}

// unquoteTS strips quotes from a single-, double- or backtick-quoted string.
func unquoteTS(s string) string {
	if len(s) < 2 {
		return s
	}
	q := s[0]
	if (q != '"' && q != '\'' && q != '`') || s[len(s)-1] != q {
		return s
	}
	if q == '"' {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
	}
	inner := s[1 : len(s)-1]
	inner = strings.ReplaceAll(inner, `\`+string(q), string(q))
	if u, err := strconv.Unquote(`"` + strings.ReplaceAll(inner, `"`, `\"`) + `"`); err == nil {
		return u
	}
	return inner
}
