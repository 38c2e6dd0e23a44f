package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/typepaste/internal/mcp/tools"
	"github.com/usestring/typepaste/pkg/codegen"
	"github.com/usestring/typepaste/pkg/types"
)

// Resource URI scheme: typepaste://
// Supported URIs:
//   typepaste://languages
//   typepaste://languages/{language}

const uriScheme = "typepaste://"

// exampleSample is rendered by the per-language resource so clients can see
// what each target produces before calling the generate tool.
const exampleSample = `{"id": 42, "name": "Ada", "email": "ada@example.com", "roles": ["admin"], "address": {"city": "London", "zip": "N1"}}`

// languageResource is the payload of typepaste://languages/{language}.
type languageResource struct {
	Capability codegen.Capability `json:"capability"`
	Sample     string             `json:"sample"`
	Example    string             `json:"example"`
}

// registerResources registers resource templates and handlers.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(&sdkmcp.Resource{
		URI:         uriScheme + "languages",
		Name:        "Render Targets",
		Description: "Every language typepaste_generate can emit, with its capabilities. Same data as the typepaste_languages tool.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.5,
		},
	}, s.handleResourceLanguages)

	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: uriScheme + "languages/{language}",
		Name:        "Render Target Example",
		Description: "One render target's capabilities plus the code it generates for a small example sample. Useful for choosing a target or showing the output style.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant", "user"},
			Priority: 0.3,
		},
	}, s.handleResourceLanguage)
}

func (s *Server) handleResourceLanguages(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	return toResourceResult(req.Params.URI, codegen.Languages())
}

func (s *Server) handleResourceLanguage(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	params, err := parseResourceURI(req.Params.URI)
	if err != nil {
		return nil, err
	}

	lang, ok := types.ParseLanguage(params["language"])
	if !ok {
		return nil, tools.ErrNotFound("language", params["language"])
	}
	var capability codegen.Capability
	for _, c := range codegen.Languages() {
		if c.Language == lang {
			capability = c
		}
	}

	opts := s.deps.Config.RenderDefaults()
	opts.Language = lang
	opts.TypesOnly = opts.TypesOnly && capability.TypesOnly
	opts.LeadingComments = nil
	res, err := s.deps.Generator.Generate(ctx, codegen.Request{
		Samples: []types.Sample{{Kind: types.KindJSON, Name: "User", Content: exampleSample}},
		Options: opts,
	})
	if err != nil {
		return nil, tools.WrapPipelineError(err)
	}

	return toResourceResult(req.Params.URI, languageResource{
		Capability: capability,
		Sample:     exampleSample,
		Example:    strings.Join(res.Lines, "\n"),
	})
}

// parseResourceURI extracts parameters from a resource URI.
func parseResourceURI(uri string) (map[string]string, error) {
	if !strings.HasPrefix(uri, uriScheme) {
		return nil, tools.ErrInvalidInput("invalid URI scheme: expected " + uriScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, uriScheme), "/")
	params := make(map[string]string)

	switch parts[0] {
	case "languages":
		if len(parts) > 2 {
			return nil, tools.ErrInvalidInput("languages URI takes at most one language")
		}
		if len(parts) == 2 {
			if parts[1] == "" {
				return nil, tools.ErrInvalidInput("empty language in URI")
			}
			params["language"] = parts[1]
		}
	default:
		return nil, tools.ErrInvalidInput(fmt.Sprintf("unknown resource type: %s", parts[0]))
	}

	return params, nil
}

// toResourceResult serializes content as an indented JSON resource.
func toResourceResult(uri string, content any) (*sdkmcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing resource: %w", err)
	}

	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: tools.MimeJSON,
				Text:     string(data),
			},
		},
	}, nil
}
