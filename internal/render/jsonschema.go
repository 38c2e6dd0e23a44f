package render

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/usestring/typepaste/pkg/jsonschema"
	"github.com/usestring/typepaste/pkg/typegraph"
	"github.com/usestring/typepaste/pkg/types"
)

var jsonSchemaDialect = dialect{
	declares: declaresObjectsAndEnums,
	typeName: func(hint string) string { return pascal(hint, titleWord, "T", "Type") },
}

// renderJSONSchema emits a JSON Schema document. There is no conversion code
// to emit, so TypesOnly has no effect; leading comments go in $comment.
func renderJSONSchema(g *typegraph.Graph, root typegraph.NodeRef, rootName string, opts types.RenderOptions) ([]string, error) {
	p := newPlan(g, root, rootName, jsonSchemaDialect)
	doc := jsonschema.FromGraph(g, root, jsonschema.Options{
		Name:    p.named,
		Title:   p.names[p.root],
		Comment: strings.Join(opts.LeadingComments, "\n"),
	})

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", opts.Indent)
	if err := enc.Encode(doc); err != nil {
		return nil, types.Errorf(types.CodeInternalInvariant, "encode schema: %v", err).WithCause(err)
	}
	return strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n"), nil
}
