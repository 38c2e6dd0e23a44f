package prompts

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all prompts with the MCP server.
func Register(srv *sdkmcp.Server, cfg *Config) {
	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "typepaste_guide",
		Description: "How typepaste_generate reads samples, merges them, and what each option changes. Read this before the first generate call.",
	}, HandleGuide(cfg))

	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "convert_samples",
		Description: "RECOMMENDED: Turn example payloads or existing type declarations into typed models for a target language. Walks through collecting samples, generating, and reviewing the result.",
		Arguments: []*sdkmcp.PromptArgument{
			{
				Name:        "language",
				Description: "Target language: go, typescript, zod, python, or json-schema",
				Required:    false,
			},
			{
				Name:        "root_name",
				Description: "Name for the top-level type (e.g. 'Order', 'UserProfile')",
				Required:    false,
			},
			{
				Name:        "source",
				Description: "Where the samples come from (e.g. 'API responses in ./fixtures', 'the TypeScript interfaces in models.ts')",
				Required:    false,
			},
		},
	}, HandleConvertSamples(cfg))
}
