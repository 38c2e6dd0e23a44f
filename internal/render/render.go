// Package render turns a Type Graph into source text for a target language.
package render

import (
	"go/token"
	"log/slog"
	"strings"
	"time"

	"github.com/usestring/typepaste/pkg/typegraph"
	"github.com/usestring/typepaste/pkg/types"
)

// Capability describes what a target language can emit.
type Capability struct {
	Language types.Language `json:"language" jsonschema:"Language identifier"`
	// TypesOnly is false for languages whose types only exist as a side
	// effect of runtime schema code.
	TypesOnly bool `json:"types_only" jsonschema:"Whether declarations can be emitted without codec code"`
	// Serialization is true when the renderer can emit JSON conversion code.
	Serialization bool   `json:"serialization" jsonschema:"Whether JSON conversion code can be emitted"`
	Comment       string `json:"comment" jsonschema:"Comment syntax used for leading comments"`
}

var capabilities = map[types.Language]Capability{
	types.LangGo:         {Language: types.LangGo, TypesOnly: true, Serialization: true, Comment: "//"},
	types.LangTypeScript: {Language: types.LangTypeScript, TypesOnly: true, Serialization: true, Comment: "//"},
	types.LangZod:        {Language: types.LangZod, TypesOnly: false, Serialization: true, Comment: "//"},
	types.LangPython:     {Language: types.LangPython, TypesOnly: true, Serialization: true, Comment: "#"},
	types.LangJSONSchema: {Language: types.LangJSONSchema, TypesOnly: true, Serialization: false, Comment: "$comment"},
}

// Languages lists every render target in display order.
func Languages() []Capability {
	out := make([]Capability, 0, len(types.Languages))
	for _, lang := range types.Languages {
		out = append(out, capabilities[lang])
	}
	return out
}

// CheckOptions validates render options without rendering anything, so
// callers can fail before doing inference work.
func CheckOptions(opts types.RenderOptions) error {
	c, ok := capabilities[opts.Language]
	if !ok {
		return types.Errorf(types.CodeUnsupportedLang, "unsupported language %q", opts.Language)
	}
	if opts.TypesOnly && !c.TypesOnly {
		return types.Errorf(types.CodeUnsupportedFeat,
			"%s cannot emit types without schema code; turn off types-only", opts.Language)
	}
	if strings.Trim(opts.Indent, " \t") != "" {
		return types.Errorf(types.CodeInvalidInput, "indent must be spaces or tabs, got %q", opts.Indent)
	}
	if opts.Package != "" && opts.Language == types.LangGo && !token.IsIdentifier(opts.Package) {
		return types.Errorf(types.CodeInvalidInput, "invalid Go package name %q", opts.Package)
	}
	return nil
}

type renderFunc func(g *typegraph.Graph, root typegraph.NodeRef, rootName string, opts types.RenderOptions) ([]string, error)

var renderers = map[types.Language]renderFunc{
	types.LangGo:         renderGo,
	types.LangTypeScript: renderTypeScript,
	types.LangZod:        renderZod,
	types.LangPython:     renderPython,
	types.LangJSONSchema: renderJSONSchema,
}

// Render emits declarations for root and everything it reaches, plus
// conversion code unless opts.TypesOnly is set. Leading comments come first
// in the language's comment syntax. Output is deterministic for a given
// graph and options.
func Render(g *typegraph.Graph, root string, opts types.RenderOptions) ([]string, error) {
	if err := CheckOptions(opts); err != nil {
		return nil, err
	}
	ref, ok := g.Root(root)
	if !ok {
		return nil, types.Errorf(types.CodeInvalidInput, "no type named %q", root)
	}
	if !opts.AllowUntyped {
		if path, found := findPlaceholder(g, ref, root); found {
			return nil, types.Errorf(types.CodeUnsupportedFeat,
				"no type could be inferred at %s; supply a non-empty sample or allow untyped output", path).WithPath(path)
		}
	}
	if opts.Indent == "" {
		opts.Indent = types.DefaultIndent
	}

	start := time.Now()
	lines, err := renderers[opts.Language](g, ref, root, opts)
	if err != nil {
		return nil, err
	}
	slog.Debug("rendered",
		slog.String("language", string(opts.Language)),
		slog.String("root", root),
		slog.Int("lines", len(lines)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return lines, nil
}

// findPlaceholder returns the path of the first untyped node under ref.
func findPlaceholder(g *typegraph.Graph, ref typegraph.NodeRef, path string) (string, bool) {
	visited := make(map[typegraph.NodeRef]bool)
	var visit func(ref typegraph.NodeRef, path string) (string, bool)
	visit = func(ref typegraph.NodeRef, path string) (string, bool) {
		if visited[ref] {
			return "", false
		}
		visited[ref] = true
		n := g.Node(ref)
		switch n.Kind {
		case typegraph.KindPrimitive:
			return path, n.Primitive == typegraph.PrimAny
		case typegraph.KindObject:
			for _, f := range n.Fields {
				if p, ok := visit(f.Type, path+"."+f.Name); ok {
					return p, true
				}
			}
		case typegraph.KindArray:
			return visit(n.Elem, path+"[]")
		case typegraph.KindMap:
			return visit(n.Elem, path+"{}")
		case typegraph.KindUnion:
			for _, m := range n.Members {
				if p, ok := visit(m, path); ok {
					return p, true
				}
			}
		}
		return "", false
	}
	return visit(ref, path)
}

// withComments prepends leading comments to body.
func withComments(prefix string, comments []string, body []string) []string {
	head := commentLines(prefix, comments)
	if len(head) == 0 {
		return body
	}
	return append(append(head, ""), body...)
}
