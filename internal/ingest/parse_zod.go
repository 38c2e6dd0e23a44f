package ingest

import (
	"regexp"
	"strings"

	"github.com/usestring/typepaste/pkg/shape"
)

// parseZod reads Zod schemas. The input is either a bare expression or a
// series of `const Name = z...` declarations; other statements (imports,
// `type X = z.infer<...>`) are skipped.
//
// Supported constructors:
//   - z.string(), z.number(), z.bigint(), z.boolean(), z.date(), z.null(),
//     z.undefined(), z.any(), z.unknown()
//   - z.array(s), z.object({...}), z.record(s) / z.record(k, s), z.tuple([...])
//   - z.enum([...]), z.nativeEnum(X), z.literal(v)
//   - z.union([...]), z.discriminatedUnion(k, [...]), z.intersection(a, b)
//   - z.optional(s), z.nullable(s), z.lazy(() => s)
//
// Supported modifiers: .optional(), .nullable(), .nullish(), .default(...),
// .int(), .array(), .or(s), .and(s), .extend({...}), .merge(s), .partial().
// Refinements such as .min() or .email() are skipped.
func parseZod(src string, unit *sourceUnit) error {
	decls := zodDeclRegex.FindAllStringSubmatchIndex(src, -1)
	if len(decls) == 0 {
		p := &zodParser{input: src, unit: unit}
		p.skipWhitespace()
		t, err := p.parseExpr()
		if err != nil {
			return err
		}
		p.skipWhitespace()
		p.match(";")
		p.skipWhitespace()
		if p.pos < len(p.input) {
			return p.errorf("unexpected %q after schema", truncate(p.input[p.pos:], 16))
		}
		unit.define(unit.sample, t.shape)
		return nil
	}

	for _, m := range decls {
		unit.declare(src[m[2]:m[3]])
	}
	for _, m := range decls {
		name := src[m[2]:m[3]]
		p := &zodParser{input: src, pos: m[1], unit: unit}
		p.skipWhitespace()
		t, err := p.parseExpr()
		if err != nil {
			return err
		}
		unit.define(name, t.shape)
	}
	return nil
}

var zodDeclRegex = regexp.MustCompile(`(?m)^[ \t]*(?:export[ \t]+)?(?:const|let|var)[ \t]+([A-Za-z_$][\w$]*)[ \t]*(?::[^=\n]+)?=[ \t]*`)

type zodParser struct {
	input string
	pos   int
	unit  *sourceUnit
}

// zodType is a parsed schema plus whether it was marked optional.
type zodType struct {
	shape    *shape.Shape
	optional bool
}

func (p *zodParser) errorf(format string, args ...any) error {
	line, col := position(p.input, int64(p.pos))
	return sourceError(line, col, format, args...)
}

func (p *zodParser) parseExpr() (zodType, error) {
	p.skipWhitespace()

	if !p.match("z.") {
		// A reference to another declared schema.
		name := p.readIdentifier()
		if name == "" {
			return zodType{}, p.errorf("expected 'z.' or a schema name")
		}
		if !p.unit.known[name] {
			return zodType{}, p.errorf("unknown schema %q", name)
		}
		return p.parseModifiers(zodType{shape: p.unit.lookup(name)})
	}

	typeName := p.readIdentifier()
	if typeName == "" {
		return zodType{}, p.errorf("expected type name after 'z.'")
	}

	var t zodType
	var err error
	switch typeName {
	case "string", "date":
		t.shape, err = p.empty(typeName, shape.NewString())
	case "number":
		t.shape, err = p.empty(typeName, shape.NewNumber())
	case "bigint":
		t.shape, err = p.empty(typeName, shape.NewInteger())
	case "boolean":
		t.shape, err = p.empty(typeName, shape.NewBool())
	case "null", "undefined", "void":
		t.shape, err = p.empty(typeName, shape.NewNull())
	case "any", "unknown":
		t.shape, err = p.empty(typeName, shape.NewAny())
	case "array":
		t.shape, err = p.parseArray()
	case "object", "strictObject", "looseObject":
		t.shape, err = p.parseObject()
	case "record":
		t.shape, err = p.parseRecord()
	case "tuple":
		t.shape, err = p.parseTuple()
	case "enum":
		t.shape, err = p.parseEnum()
	case "nativeEnum":
		t.shape, err = p.parseNativeEnum()
	case "literal":
		t.shape, err = p.parseLiteral()
	case "union":
		t.shape, err = p.parseUnion()
	case "discriminatedUnion":
		t.shape, err = p.parseDiscriminatedUnion()
	case "intersection":
		t.shape, err = p.parseIntersection()
	case "optional", "nullable", "nullish":
		t, err = p.parseWrapper(typeName)
	case "lazy":
		t, err = p.parseLazy()
	default:
		return zodType{}, p.errorf("unknown zod type z.%s", typeName)
	}
	if err != nil {
		return zodType{}, err
	}
	return p.parseModifiers(t)
}

func (p *zodParser) empty(name string, s *shape.Shape) (*shape.Shape, error) {
	if !p.match("(") {
		return nil, p.errorf("expected '(' after z.%s", name)
	}
	p.skipBalanced('(', ')')
	return s, nil
}

func (p *zodParser) open(what string) error {
	p.skipWhitespace()
	if !p.match("(") {
		return p.errorf("expected '(' after %s", what)
	}
	p.skipWhitespace()
	return nil
}

func (p *zodParser) close(what string) error {
	p.skipWhitespace()
	if p.peek() == ',' {
		// trailing arguments such as error maps
		p.pos++
		p.skipBalanced('(', ')')
		return nil
	}
	if !p.match(")") {
		return p.errorf("expected ')' to close %s", what)
	}
	return nil
}

func (p *zodParser) parseArray() (*shape.Shape, error) {
	if err := p.open("z.array"); err != nil {
		return nil, err
	}
	item, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.close("z.array"); err != nil {
		return nil, err
	}
	return shape.NewArray(item.shape), nil
}

func (p *zodParser) parseObject() (*shape.Shape, error) {
	if err := p.open("z.object"); err != nil {
		return nil, err
	}
	obj, err := p.parseFields()
	if err != nil {
		return nil, err
	}
	if err := p.close("z.object"); err != nil {
		return nil, err
	}
	return obj, nil
}

// parseFields reads `{ name: schema, ... }`.
func (p *zodParser) parseFields() (*shape.Shape, error) {
	if !p.match("{") {
		return nil, p.errorf("expected '{'")
	}
	obj := shape.NewObject()
	for {
		p.skipWhitespace()
		if p.match("}") {
			return obj, nil
		}
		if p.match(",") {
			continue
		}
		if p.pos >= len(p.input) {
			return nil, p.errorf("unterminated object")
		}

		name := p.readPropertyName()
		if name == "" {
			return nil, p.errorf("expected property name")
		}
		p.skipWhitespace()
		if !p.match(":") {
			return nil, p.errorf("expected ':' after property %q", name)
		}
		t, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		obj.Fields = append(obj.Fields, shape.Field{Name: name, Shape: t.shape, Optional: t.optional})
	}
}

func (p *zodParser) parseRecord() (*shape.Shape, error) {
	if err := p.open("z.record"); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	if p.match(",") {
		// z.record(keySchema, valueSchema)
		value, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if err := p.close("z.record"); err != nil {
		return nil, err
	}
	return shape.NewMap(value.shape), nil
}

func (p *zodParser) parseList(what string) ([]zodType, error) {
	p.skipWhitespace()
	if !p.match("[") {
		return nil, p.errorf("expected '[' in %s", what)
	}
	var out []zodType
	for {
		p.skipWhitespace()
		if p.match("]") {
			return out, nil
		}
		if p.match(",") {
			continue
		}
		if p.pos >= len(p.input) {
			return nil, p.errorf("unterminated list in %s", what)
		}
		t, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
}

func (p *zodParser) parseTuple() (*shape.Shape, error) {
	if err := p.open("z.tuple"); err != nil {
		return nil, err
	}
	items, err := p.parseList("z.tuple")
	if err != nil {
		return nil, err
	}
	if err := p.close("z.tuple"); err != nil {
		return nil, err
	}
	elems := make([]*shape.Shape, 0, len(items))
	for _, t := range items {
		elems = append(elems, t.shape)
	}
	return shape.NewArray(elems...), nil
}

func (p *zodParser) parseEnum() (*shape.Shape, error) {
	if err := p.open("z.enum"); err != nil {
		return nil, err
	}
	if !p.match("[") {
		return nil, p.errorf("expected '[' after z.enum(")
	}
	var literals []string
	for {
		p.skipWhitespace()
		if p.match("]") {
			break
		}
		if p.match(",") {
			continue
		}
		s, ok := p.readString()
		if !ok {
			return nil, p.errorf("z.enum values must be string literals")
		}
		literals = append(literals, s)
	}
	if err := p.close("z.enum"); err != nil {
		return nil, err
	}
	if len(literals) == 0 {
		return nil, p.errorf("z.enum needs at least one value")
	}
	return shape.NewEnum(dedupe(literals)...), nil
}

func (p *zodParser) parseNativeEnum() (*shape.Shape, error) {
	if err := p.open("z.nativeEnum"); err != nil {
		return nil, err
	}
	name := p.readIdentifier()
	if err := p.close("z.nativeEnum"); err != nil {
		return nil, err
	}
	return p.unit.lookup(name), nil
}

func (p *zodParser) parseLiteral() (*shape.Shape, error) {
	if err := p.open("z.literal"); err != nil {
		return nil, err
	}
	var s *shape.Shape
	if str, ok := p.readString(); ok {
		s = shape.NewEnum(str)
	} else {
		switch {
		case p.matchWord("true"), p.matchWord("false"):
			s = shape.NewBool()
		case p.matchWord("null"), p.matchWord("undefined"):
			s = shape.NewNull()
		default:
			start := p.pos
			for p.pos < len(p.input) && strings.IndexByte("+-.0123456789eExXabcdefABCDEF_n", p.input[p.pos]) >= 0 {
				p.pos++
			}
			if start == p.pos {
				return nil, p.errorf("unsupported literal")
			}
			s = numberLiteral(strings.TrimSuffix(p.input[start:p.pos], "n"))
		}
	}
	if err := p.close("z.literal"); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *zodParser) parseUnion() (*shape.Shape, error) {
	if err := p.open("z.union"); err != nil {
		return nil, err
	}
	members, err := p.parseList("z.union")
	if err != nil {
		return nil, err
	}
	if err := p.close("z.union"); err != nil {
		return nil, err
	}
	return unionOf(members), nil
}

func (p *zodParser) parseDiscriminatedUnion() (*shape.Shape, error) {
	if err := p.open("z.discriminatedUnion"); err != nil {
		return nil, err
	}
	if _, ok := p.readString(); !ok {
		return nil, p.errorf("expected discriminator key")
	}
	p.skipWhitespace()
	if !p.match(",") {
		return nil, p.errorf("expected ',' after discriminator key")
	}
	members, err := p.parseList("z.discriminatedUnion")
	if err != nil {
		return nil, err
	}
	if err := p.close("z.discriminatedUnion"); err != nil {
		return nil, err
	}
	return unionOf(members), nil
}

func unionOf(members []zodType) *shape.Shape {
	variants := make([]*shape.Shape, 0, len(members))
	for _, m := range members {
		variants = append(variants, m.shape)
	}
	return unionOfLiterals(variants)
}

func (p *zodParser) parseIntersection() (*shape.Shape, error) {
	if err := p.open("z.intersection"); err != nil {
		return nil, err
	}
	left, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	if !p.match(",") {
		return nil, p.errorf("expected ',' in z.intersection")
	}
	right, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.close("z.intersection"); err != nil {
		return nil, err
	}
	return p.merge(left.shape, right.shape), nil
}

// merge combines two object schemas. Named schemas are inherited so their
// fields are copied once every declaration is known.
func (p *zodParser) merge(left, right *shape.Shape) *shape.Shape {
	obj := shape.NewObject()
	for _, s := range []*shape.Shape{left, right} {
		switch s.Kind {
		case shape.Object:
			obj.Fields = append(obj.Fields, s.Fields...)
		case shape.Ref:
			p.unit.inherit(obj, strings.TrimPrefix(s.RefKey, p.unit.sample+"::"))
		default:
			return shape.NewAny()
		}
	}
	return obj
}

func (p *zodParser) parseWrapper(kind string) (zodType, error) {
	if err := p.open("z." + kind); err != nil {
		return zodType{}, err
	}
	inner, err := p.parseExpr()
	if err != nil {
		return zodType{}, err
	}
	if err := p.close("z." + kind); err != nil {
		return zodType{}, err
	}
	switch kind {
	case "optional":
		inner.optional = true
	case "nullable":
		inner.shape = shape.Nullable(inner.shape)
	case "nullish":
		inner.optional = true
		inner.shape = shape.Nullable(inner.shape)
	}
	return inner, nil
}

// parseLazy reads `z.lazy(() => schema)`, with or without a block body.
func (p *zodParser) parseLazy() (zodType, error) {
	if err := p.open("z.lazy"); err != nil {
		return zodType{}, err
	}
	if !p.match("(") || !p.match(")") {
		return zodType{}, p.errorf("expected '() =>' in z.lazy")
	}
	p.skipWhitespace()
	if !p.match("=>") {
		return zodType{}, p.errorf("expected '=>' in z.lazy")
	}
	p.skipWhitespace()
	block := p.match("{")
	if block {
		p.skipWhitespace()
		if !p.matchWord("return") {
			return zodType{}, p.errorf("expected 'return' in z.lazy body")
		}
	}
	t, err := p.parseExpr()
	if err != nil {
		return zodType{}, err
	}
	if block {
		p.skipWhitespace()
		p.match(";")
		p.skipWhitespace()
		if !p.match("}") {
			return zodType{}, p.errorf("expected '}' to close z.lazy body")
		}
	}
	if err := p.close("z.lazy"); err != nil {
		return zodType{}, err
	}
	return t, nil
}

func (p *zodParser) parseModifiers(t zodType) (zodType, error) {
	for {
		save := p.pos
		p.skipWhitespace()
		if !p.match(".") {
			p.pos = save
			return t, nil
		}

		modifier := p.readIdentifier()
		switch modifier {
		case "optional":
			if !p.match("()") {
				return t, p.errorf("expected '()' after .optional")
			}
			t.optional = true

		case "nullable":
			if !p.match("()") {
				return t, p.errorf("expected '()' after .nullable")
			}
			t.shape = shape.Nullable(t.shape)

		case "nullish":
			if !p.match("()") {
				return t, p.errorf("expected '()' after .nullish")
			}
			t.shape = shape.Nullable(t.shape)
			t.optional = true

		case "default", "catch":
			// A default makes the input field optional.
			if !p.match("(") {
				return t, p.errorf("expected '(' after .%s", modifier)
			}
			p.skipBalanced('(', ')')
			t.optional = true

		case "int":
			if !p.match("(") {
				return t, p.errorf("expected '(' after .int")
			}
			p.skipBalanced('(', ')')
			if t.shape.Kind == shape.Number {
				t.shape = shape.NewInteger()
			}

		case "array":
			if !p.match("()") {
				return t, p.errorf("expected '()' after .array")
			}
			t = zodType{shape: shape.NewArray(t.shape)}

		case "or":
			other, err := p.modifierArg("or")
			if err != nil {
				return t, err
			}
			t.shape = unionOfLiterals([]*shape.Shape{t.shape, other.shape})

		case "and", "merge":
			other, err := p.modifierArg(modifier)
			if err != nil {
				return t, err
			}
			t.shape = p.merge(t.shape, other.shape)

		case "extend":
			if err := p.open(".extend"); err != nil {
				return t, err
			}
			ext, err := p.parseFields()
			if err != nil {
				return t, err
			}
			if err := p.close(".extend"); err != nil {
				return t, err
			}
			t.shape = p.merge(t.shape, ext)

		case "partial":
			if !p.match("(") {
				return t, p.errorf("expected '(' after .partial")
			}
			p.skipBalanced('(', ')')
			if t.shape.Kind == shape.Object {
				fields := make([]shape.Field, len(t.shape.Fields))
				for i, f := range t.shape.Fields {
					f.Optional = true
					fields[i] = f
				}
				t.shape = shape.NewObject(fields...)
			}

		case "":
			return t, p.errorf("expected modifier name after '.'")

		default:
			// Refinements and metadata don't change the type.
			if p.match("(") {
				p.skipBalanced('(', ')')
			}
		}
	}
}

func (p *zodParser) modifierArg(name string) (zodType, error) {
	if err := p.open("." + name); err != nil {
		return zodType{}, err
	}
	t, err := p.parseExpr()
	if err != nil {
		return zodType{}, err
	}
	if err := p.close("." + name); err != nil {
		return zodType{}, err
	}
	return t, nil
}

// Helper functions

func (p *zodParser) skipWhitespace() {
	for p.pos < len(p.input) {
		switch {
		case strings.HasPrefix(p.input[p.pos:], "//"):
			if i := strings.IndexByte(p.input[p.pos:], '\n'); i >= 0 {
				p.pos += i + 1
			} else {
				p.pos = len(p.input)
			}
		case strings.HasPrefix(p.input[p.pos:], "/*"):
			if i := strings.Index(p.input[p.pos+2:], "*/"); i >= 0 {
				p.pos += i + 4
			} else {
				p.pos = len(p.input)
			}
		case strings.IndexByte(" \t\n\r", p.input[p.pos]) >= 0:
			p.pos++
		default:
			return
		}
	}
}

func (p *zodParser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *zodParser) match(s string) bool {
	if strings.HasPrefix(p.input[p.pos:], s) {
		p.pos += len(s)
		return true
	}
	return false
}

func (p *zodParser) matchWord(s string) bool {
	if !strings.HasPrefix(p.input[p.pos:], s) {
		return false
	}
	end := p.pos + len(s)
	if end < len(p.input) && isIdentByte(p.input[end]) {
		return false
	}
	p.pos = end
	return true
}

func isIdentByte(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '_' || ch == '$'
}

func (p *zodParser) readIdentifier() string {
	start := p.pos
	for p.pos < len(p.input) && isIdentByte(p.input[p.pos]) {
		p.pos++
	}
	return p.input[start:p.pos]
}

// readString reads a quoted string literal.
func (p *zodParser) readString() (string, bool) {
	p.skipWhitespace()
	q := p.peek()
	if q != '"' && q != '\'' && q != '`' {
		return "", false
	}
	for i := p.pos + 1; i < len(p.input); i++ {
		switch p.input[i] {
		case '\\':
			i++
		case q:
			s := unquoteTS(p.input[p.pos : i+1])
			p.pos = i + 1
			return s, true
		}
	}
	return "", false
}

func (p *zodParser) readPropertyName() string {
	if s, ok := p.readString(); ok {
		return s
	}
	return p.readIdentifier()
}

// skipBalanced advances past the close that matches an already consumed open,
// ignoring brackets inside string literals.
func (p *zodParser) skipBalanced(open, close byte) {
	depth := 1
	for p.pos < len(p.input) && depth > 0 {
		ch := p.input[p.pos]
		switch ch {
		case '"', '\'', '`':
			if _, ok := p.readString(); ok {
				continue
			}
		case open:
			depth++
		case close:
			depth--
		}
		p.pos++
	}
}
