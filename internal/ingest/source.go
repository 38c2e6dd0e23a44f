package ingest

import (
	"strings"

	"github.com/usestring/typepaste/pkg/shape"
	"github.com/usestring/typepaste/pkg/types"
)

// sourceParser fills unit with the declarations found in src.
type sourceParser func(src string, unit *sourceUnit) error

var sourceParsers = map[types.SourceLanguage]sourceParser{
	types.SourceTypeScript: parseTypeScript,
	types.SourceGo:         parseGo,
	types.SourceZod:        parseZod,
}

// ingestSource parses type declarations and registers each as a Def. The
// sample's observation is a reference to its root declaration.
func ingestSource(set *shape.Shapes, s types.Sample) error {
	parse, ok := sourceParsers[s.Language]
	if !ok {
		return types.Errorf(types.CodeInvalidInput, "unsupported source language %q", s.Language)
	}

	unit := newSourceUnit(s.Name)
	if err := parse(s.Content, unit); err != nil {
		return err
	}
	if len(unit.order) == 0 {
		return types.Errorf(types.CodeSourceParse, "no type declarations found")
	}
	unit.resolveEmbeds()

	for _, name := range unit.order {
		d := set.Define(unit.key(name), name)
		d.Shape = unit.decls[name]
		if d.Shape == nil {
			d.Shape = shape.NewAny()
		}
	}
	set.Add(s.Name, string(types.KindTypedSource), shape.NewRef(unit.key(unit.root())))
	return nil
}

// sourceUnit collects the declarations of one typed-source sample.
type sourceUnit struct {
	sample string
	order  []string
	decls  map[string]*shape.Shape
	known  map[string]bool

	// embeds lists, per object shape, declarations whose fields are inherited
	// (Go embedded structs, TypeScript extends and intersections).
	embeds   map[*shape.Shape][]string
	embedded []*shape.Shape
}

func newSourceUnit(sample string) *sourceUnit {
	return &sourceUnit{
		sample: sample,
		decls:  make(map[string]*shape.Shape),
		known:  make(map[string]bool),
		embeds: make(map[*shape.Shape][]string),
	}
}

func (u *sourceUnit) key(name string) string {
	return u.sample + "::" + name
}

// declare registers a declaration name so references to it resolve before its
// body is parsed.
func (u *sourceUnit) declare(name string) {
	if u.known[name] {
		return
	}
	u.known[name] = true
	u.order = append(u.order, name)
}

func (u *sourceUnit) define(name string, s *shape.Shape) {
	u.declare(name)
	u.decls[name] = s
}

// lookup returns a reference to a declared name, or a placeholder when the
// name is not declared in this sample.
func (u *sourceUnit) lookup(name string) *shape.Shape {
	if u.known[name] {
		return shape.NewRef(u.key(name))
	}
	return shape.NewAny()
}

func (u *sourceUnit) inherit(into *shape.Shape, base string) {
	if _, ok := u.embeds[into]; !ok {
		u.embedded = append(u.embedded, into)
	}
	u.embeds[into] = append(u.embeds[into], base)
}

// resolveEmbeds copies inherited fields into their objects. Bases are
// resolved first so chains flatten fully; fields declared locally win.
func (u *sourceUnit) resolveEmbeds() {
	done := make(map[*shape.Shape]bool)
	var resolve func(obj *shape.Shape)
	resolve = func(obj *shape.Shape) {
		if done[obj] {
			return
		}
		done[obj] = true

		var inherited []shape.Field
		for _, base := range u.embeds[obj] {
			b := u.objectDecl(base)
			if b == nil {
				continue
			}
			resolve(b)
			inherited = append(inherited, b.Fields...)
		}

		var merged []shape.Field
		own := make(map[string]bool, len(obj.Fields))
		for _, f := range obj.Fields {
			own[f.Name] = true
		}
		seen := make(map[string]bool)
		for _, f := range inherited {
			if own[f.Name] || seen[f.Name] {
				continue
			}
			seen[f.Name] = true
			merged = append(merged, f)
		}
		obj.Fields = append(merged, obj.Fields...)
	}
	for _, obj := range u.embedded {
		resolve(obj)
	}
}

// objectDecl returns the object shape of a declaration, following aliases.
func (u *sourceUnit) objectDecl(name string) *shape.Shape {
	for i := 0; i < len(u.order)+1; i++ {
		s := u.decls[name]
		if s == nil {
			return nil
		}
		switch s.Kind {
		case shape.Object:
			return s
		case shape.Ref:
			name = strings.TrimPrefix(s.RefKey, u.sample+"::")
		default:
			return nil
		}
	}
	return nil
}

// root picks the declaration named like the sample, else the first one.
func (u *sourceUnit) root() string {
	for _, name := range u.order {
		if strings.EqualFold(name, u.sample) {
			return name
		}
	}
	return u.order[0]
}

func sourceError(line, col int, format string, args ...any) *types.Error {
	return types.Errorf(types.CodeSourceParse, format, args...).WithPosition(line, col)
}
