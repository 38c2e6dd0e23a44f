// Package shape holds the per-sample, unmerged type guesses produced by ingest
// and consumed by the unifier.
package shape

import "strings"

// Kind is the structural kind of a Shape.
type Kind int

// Shape kinds.
const (
	Any Kind = iota // placeholder: no resolvable type
	Null
	Bool
	Integer
	Number
	String
	Object
	Array
	Map
	Union
	Enum
	Ref
)

var kindNames = [...]string{
	Any:     "any",
	Null:    "null",
	Bool:    "boolean",
	Integer: "integer",
	Number:  "number",
	String:  "string",
	Object:  "object",
	Array:   "array",
	Map:     "map",
	Union:   "union",
	Enum:    "enum",
	Ref:     "ref",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsPrimitive reports whether k is a scalar kind (including null).
func (k Kind) IsPrimitive() bool {
	return k >= Null && k <= String
}

// Field is one named member of an object shape.
type Field struct {
	Name     string
	Shape    *Shape
	Optional bool // declared optional by the source (omitempty, ?:, .optional())
}

// Shape is an unmerged type guess for one observed value or declaration.
type Shape struct {
	Kind Kind

	Fields   []Field  // Object, in source order
	Elems    []*Shape // Array: every observed element (JSON) or the declared item type
	Value    *Shape   // Map: value type
	Variants []*Shape // Union
	Literals []string // Enum: string literals in declaration order
	RefKey   string   // Ref: key into Shapes.Defs
}

// Constructors for the scalar kinds. Each call returns a fresh value since
// shapes may be annotated by later passes.

func NewAny() *Shape     { return &Shape{Kind: Any} }
func NewNull() *Shape    { return &Shape{Kind: Null} }
func NewBool() *Shape    { return &Shape{Kind: Bool} }
func NewInteger() *Shape { return &Shape{Kind: Integer} }
func NewNumber() *Shape  { return &Shape{Kind: Number} }
func NewString() *Shape  { return &Shape{Kind: String} }

// NewObject returns an object shape with the given fields.
func NewObject(fields ...Field) *Shape {
	return &Shape{Kind: Object, Fields: fields}
}

// NewArray returns an array shape over the given element observations.
func NewArray(elems ...*Shape) *Shape {
	return &Shape{Kind: Array, Elems: elems}
}

// NewMap returns a string-keyed map shape.
func NewMap(value *Shape) *Shape {
	return &Shape{Kind: Map, Value: value}
}

// NewUnion returns a union shape. A single variant is returned unwrapped.
func NewUnion(variants ...*Shape) *Shape {
	if len(variants) == 1 {
		return variants[0]
	}
	return &Shape{Kind: Union, Variants: variants}
}

// NewEnum returns an enum over string literals.
func NewEnum(literals ...string) *Shape {
	return &Shape{Kind: Enum, Literals: literals}
}

// NewRef returns a reference to a named definition.
func NewRef(key string) *Shape {
	return &Shape{Kind: Ref, RefKey: key}
}

// Nullable wraps s in a union with null.
func Nullable(s *Shape) *Shape {
	if s.Kind == Null {
		return s
	}
	return &Shape{Kind: Union, Variants: []*Shape{s, NewNull()}}
}

// Field looks up a field by name.
func (s *Shape) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// String renders a compact, TypeScript-like description used in tests and
// debug logs.
func (s *Shape) String() string {
	var b strings.Builder
	s.write(&b)
	return b.String()
}

func (s *Shape) write(b *strings.Builder) {
	if s == nil {
		b.WriteString("<nil>")
		return
	}
	switch s.Kind {
	case Object:
		b.WriteString("{")
		for i, f := range s.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			if f.Optional {
				b.WriteString("?")
			}
			b.WriteString(": ")
			f.Shape.write(b)
		}
		b.WriteString("}")
	case Array:
		b.WriteString("[")
		for i, e := range s.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			e.write(b)
		}
		b.WriteString("]")
	case Map:
		b.WriteString("map<")
		s.Value.write(b)
		b.WriteString(">")
	case Union:
		for i, v := range s.Variants {
			if i > 0 {
				b.WriteString(" | ")
			}
			v.write(b)
		}
	case Enum:
		b.WriteString("enum(")
		b.WriteString(strings.Join(s.Literals, ","))
		b.WriteString(")")
	case Ref:
		b.WriteString("#")
		b.WriteString(s.RefKey)
	default:
		b.WriteString(s.Kind.String())
	}
}
