package prompts

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/typepaste/pkg/types"
)

// HandleConvertSamples implements the sample-to-model workflow.
func HandleConvertSamples(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		var language, rootName, source string
		if args := req.Params.Arguments; args != nil {
			language = args["language"]
			rootName = args["root_name"]
			source = args["source"]
		}
		if language == "" {
			language = cfg.DefaultLanguage
		}
		if lang, ok := types.ParseLanguage(language); ok {
			language = string(lang)
		}
		if rootName == "" {
			rootName = cfg.DefaultRootName
		}

		var sb strings.Builder

		sb.WriteString("# Generate Typed Models from Samples\n\n")
		sb.WriteString("You are turning example data into typed models. The models must accept every sample given and nothing the samples contradict.\n\n")

		sb.WriteString("## Task Overview\n\n")
		fmt.Fprintf(&sb, "- Target language: `%s`\n", language)
		fmt.Fprintf(&sb, "- Top-level type: `%s`\n", rootName)
		if source != "" {
			fmt.Fprintf(&sb, "- Samples: %s\n", source)
		}
		sb.WriteString("\n")

		sb.WriteString("## Workflow Steps\n\n")
		sb.WriteString("1. **Collect samples** - Gather several real payloads, not one\n")
		sb.WriteString("   - Include responses where optional fields are absent and where values are null\n")
		sb.WriteString("   - For a list payload, pass it once with `select: \".items[]\"` (or the matching path) so each element is an observation\n")
		sb.WriteString("   - Existing declarations can be passed as `typed-source` samples instead\n\n")
		sb.WriteString("2. **Generate** - Call the tool once with all samples\n\n")
		sb.WriteString("```\n")
		fmt.Fprintf(&sb, "typepaste_generate(samples=[{name: %q, content: ...}, ...], language=%q)\n", rootName, language)
		sb.WriteString("```\n\n")
		sb.WriteString("3. **Review** - Read the `fields` table in the result\n")
		sb.WriteString("   - `required: false` marks fields some samples lacked. Confirm they really are optional\n")
		sb.WriteString("   - A type like `integer | string` often means one sample is wrong or the API is inconsistent; ask before keeping it\n")
		sb.WriteString("   - Re-run with `strict: true` if conflicts should be treated as errors\n\n")
		sb.WriteString("4. **Deliver** - Write the generated code to the project unchanged, then adjust names if asked\n\n")

		sb.WriteString("## Error Handling\n\n")
		sb.WriteString("- `PARSE_ERROR` / `SCHEMA_ERROR` / `SOURCE_PARSE_ERROR`: fix the sample named in the message\n")
		sb.WriteString("- `UNSUPPORTED_FEATURE`: the message names the path (often an empty array); add data there or set `allow_untyped: true`\n")
		sb.WriteString("- `UNIFICATION_CONFLICT`: only in strict mode; the path shows where samples disagree\n")

		return &sdkmcp.GetPromptResult{
			Description: fmt.Sprintf("Generate %s models for %s", language, rootName),
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}
