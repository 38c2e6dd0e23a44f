package ingest

import (
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"reflect"
	"strconv"
	"strings"

	"github.com/usestring/typepaste/pkg/shape"
)

// parseGo reads Go type declarations. Struct fields follow encoding/json
// rules: the json tag names the field, "-" skips it, unexported fields are
// ignored and embedded structs are flattened. Pointers and omitempty make a
// field optional; a pointer without omitempty may also be null.
//
// Example input:
//
//	type Response struct {
//	    Status string `json:"status"`
//	    Data   []Item `json:"data"`
//	}
//	type Item struct {
//	    ID   int    `json:"id"`
//	    Name string `json:"name,omitempty"`
//	}
func parseGo(src string, unit *sourceUnit) error {
	text, lineOffset := src, 0
	if !hasPackageClause(src) {
		text, lineOffset = "package p\n"+src, 1
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "source.go", text, parser.SkipObjectResolution)
	if err != nil {
		if list, ok := err.(scanner.ErrorList); ok && len(list) > 0 {
			first := list[0]
			return sourceError(first.Pos.Line-lineOffset, first.Pos.Column, "%s", first.Msg)
		}
		return sourceError(0, 0, "%v", err)
	}

	p := &goParser{unit: unit, enums: make(map[string][]string)}

	var specs []*ast.TypeSpec
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok {
			continue
		}
		switch gen.Tok {
		case token.TYPE:
			for _, spec := range gen.Specs {
				ts := spec.(*ast.TypeSpec)
				if ts.TypeParams != nil {
					continue
				}
				unit.declare(ts.Name.Name)
				specs = append(specs, ts)
			}
		case token.CONST:
			p.collectConsts(gen)
		}
	}

	for _, ts := range specs {
		s := p.typeShape(ts.Type)
		if literals := p.enums[ts.Name.Name]; len(literals) > 0 && s.Kind == shape.String {
			s = shape.NewEnum(literals...)
		}
		unit.define(ts.Name.Name, s)
	}
	return nil
}

// hasPackageClause reports whether the first non-comment line is a package
// clause.
func hasPackageClause(src string) bool {
	inBlock := false
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if inBlock {
			if i := strings.Index(line, "*/"); i >= 0 {
				line = strings.TrimSpace(line[i+2:])
				inBlock = false
			} else {
				continue
			}
		}
		if strings.HasPrefix(line, "/*") {
			if i := strings.Index(line, "*/"); i >= 0 {
				line = strings.TrimSpace(line[i+2:])
			} else {
				inBlock = true
				continue
			}
		}
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		return strings.HasPrefix(line, "package ")
	}
	return false
}

type goParser struct {
	unit  *sourceUnit
	enums map[string][]string // typed string constants per type name
}

// collectConsts records `const X T = "literal"` values so string types with
// constants become enums.
func (p *goParser) collectConsts(gen *ast.GenDecl) {
	var typeName string
	for _, spec := range gen.Specs {
		vs := spec.(*ast.ValueSpec)
		if vs.Type != nil {
			typeName = ""
			if id, ok := vs.Type.(*ast.Ident); ok {
				typeName = id.Name
			}
		}
		if typeName == "" {
			continue
		}
		for _, v := range vs.Values {
			lit, ok := v.(*ast.BasicLit)
			if !ok || lit.Kind != token.STRING {
				continue
			}
			s, err := strconv.Unquote(lit.Value)
			if err != nil {
				continue
			}
			p.enums[typeName] = append(p.enums[typeName], s)
		}
	}
}

func (p *goParser) typeShape(expr ast.Expr) *shape.Shape {
	switch t := expr.(type) {
	case *ast.Ident:
		return p.identShape(t.Name)
	case *ast.ParenExpr:
		return p.typeShape(t.X)
	case *ast.StarExpr:
		return p.typeShape(t.X)
	case *ast.ArrayType:
		if id, ok := t.Elt.(*ast.Ident); ok && (id.Name == "byte" || id.Name == "uint8") {
			// encoding/json writes []byte as base64 text
			return shape.NewString()
		}
		return shape.NewArray(p.typeShape(t.Elt))
	case *ast.MapType:
		return shape.NewMap(p.typeShape(t.Value))
	case *ast.StructType:
		return p.structShape(t)
	case *ast.InterfaceType:
		return shape.NewAny()
	case *ast.SelectorExpr:
		return selectorShape(t)
	}
	return shape.NewAny()
}

func (p *goParser) identShape(name string) *shape.Shape {
	switch name {
	case "string":
		return shape.NewString()
	case "bool":
		return shape.NewBool()
	case "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64", "uintptr", "byte", "rune":
		return shape.NewInteger()
	case "float32", "float64":
		return shape.NewNumber()
	case "any":
		return shape.NewAny()
	}
	return p.unit.lookup(name)
}

// selectorShape maps well-known standard library types.
func selectorShape(sel *ast.SelectorExpr) *shape.Shape {
	pkg, ok := sel.X.(*ast.Ident)
	if !ok {
		return shape.NewAny()
	}
	switch pkg.Name + "." + sel.Sel.Name {
	case "time.Time":
		return shape.NewString()
	case "time.Duration":
		return shape.NewInteger()
	case "json.Number":
		return shape.NewNumber()
	case "uuid.UUID", "url.URL":
		return shape.NewString()
	}
	return shape.NewAny()
}

func (p *goParser) structShape(st *ast.StructType) *shape.Shape {
	obj := shape.NewObject()
	if st.Fields == nil {
		return obj
	}
	for _, field := range st.Fields.List {
		name, omitempty, skip := jsonTag(field)
		if skip {
			continue
		}
		_, isPointer := field.Type.(*ast.StarExpr)

		if len(field.Names) == 0 {
			// Embedded struct: flattened unless a tag renames it.
			if name == "" {
				if base := embeddedName(field.Type); base != "" && p.unit.known[base] {
					p.unit.inherit(obj, base)
					continue
				}
			}
			fieldName := name
			if fieldName == "" {
				fieldName = embeddedName(field.Type)
			}
			if fieldName == "" || !ast.IsExported(fieldName) && name == "" {
				continue
			}
			obj.Fields = append(obj.Fields, p.field(fieldName, field.Type, isPointer, omitempty))
			continue
		}

		for _, ident := range field.Names {
			if !ident.IsExported() {
				continue
			}
			fieldName := name
			if fieldName == "" {
				fieldName = ident.Name
			}
			obj.Fields = append(obj.Fields, p.field(fieldName, field.Type, isPointer, omitempty))
		}
	}
	return obj
}

func (p *goParser) field(name string, typ ast.Expr, isPointer, omitempty bool) shape.Field {
	s := p.typeShape(typ)
	if isPointer && !omitempty {
		s = shape.Nullable(s)
	}
	return shape.Field{Name: name, Shape: s, Optional: isPointer || omitempty}
}

// jsonTag parses the json struct tag. skip is true for `json:"-"`.
func jsonTag(field *ast.Field) (name string, omitempty, skip bool) {
	if field.Tag == nil {
		return "", false, false
	}
	raw, err := strconv.Unquote(field.Tag.Value)
	if err != nil {
		return "", false, false
	}
	tag, ok := reflect.StructTag(raw).Lookup("json")
	if !ok {
		return "", false, false
	}
	if tag == "-" {
		return "", false, true
	}
	parts := strings.Split(tag, ",")
	for _, opt := range parts[1:] {
		if opt == "omitempty" || opt == "omitzero" {
			omitempty = true
		}
	}
	return parts[0], omitempty, false
}

func embeddedName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return embeddedName(t.X)
	case *ast.SelectorExpr:
		return t.Sel.Name
	}
	return ""
}
