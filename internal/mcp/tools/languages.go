package tools

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/typepaste/pkg/codegen"
)

// LanguagesInput is the input for typepaste_languages.
type LanguagesInput struct{}

// LanguagesOutput is the output of typepaste_languages.
type LanguagesOutput struct {
	Languages []codegen.Capability `json:"languages,omitzero"`
	Default   string               `json:"default"`
}

// ToolLanguages lists the render targets and what each can emit.
func ToolLanguages(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input LanguagesInput) (*sdkmcp.CallToolResult, LanguagesOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input LanguagesInput) (*sdkmcp.CallToolResult, LanguagesOutput, error) {
		return nil, LanguagesOutput{
			Languages: codegen.Languages(),
			Default:   string(d.Config.RenderDefaults().Language),
		}, nil
	}
}
