package prompts

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/typepaste/pkg/codegen"
)

// HandleGuide serves the tool usage guide.
func HandleGuide(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		var sb strings.Builder

		sb.WriteString("# typepaste Usage Guide\n\n")

		sb.WriteString("## Sample Kinds\n\n")
		sb.WriteString("| Kind | Content | Notes |\n")
		sb.WriteString("|------|---------|-------|\n")
		sb.WriteString("| `json` (default) | A JSON value | Several samples with the same `name` are merged |\n")
		sb.WriteString("| `schema` | A JSON Schema document (JSON or YAML) | `$ref` into `$defs`/`definitions` is followed, recursion allowed |\n")
		sb.WriteString("| `typed-source` | TypeScript interfaces/aliases, Go structs, or Zod schemas | Set `language` to typescript, go, or zod |\n")

		sb.WriteString("\n## How Samples Merge\n")
		sb.WriteString("- A field missing from some objects becomes optional\n")
		sb.WriteString("- A field seen with different types becomes a union (`number | string`)\n")
		sb.WriteString("- `null` makes a field nullable; it does not hide the other types\n")
		sb.WriteString("- Integers and decimals merge to a number type\n")
		sb.WriteString("- Array elements are merged across every array observed at the same path\n")
		sb.WriteString("- Use `select` (a jq expression such as `.items[]`) to merge the values inside one payload\n")

		sb.WriteString("\n## Options\n")
		fmt.Fprintf(&sb, "- `language`: defaults to `%s`\n", cfg.DefaultLanguage)
		fmt.Fprintf(&sb, "- Unnamed samples are named `%s`; `root` picks which name to render when several are given\n", cfg.DefaultRootName)
		sb.WriteString("- `types_only`: declarations without JSON conversion code\n")
		sb.WriteString("- `strict`: fail on conflicting observations instead of building unions\n")
		sb.WriteString("- `allow_untyped`: render empty arrays and unknown values as the target's dynamic type instead of failing\n")
		sb.WriteString("- `comments`: lines placed at the top of the output as a comment block\n")
		sb.WriteString("- `verify`: check every json sample against the merged type before rendering\n")

		sb.WriteString("\n## Checking Values\n")
		sb.WriteString("`typepaste_check` builds the type from `type` samples the same way and reports, per value, whether it conforms and why not. ")
		sb.WriteString("Use it to test a hand-written schema or declaration against real payloads.\n")

		sb.WriteString("\n## Targets\n")
		for _, c := range codegen.Languages() {
			var notes []string
			if !c.TypesOnly {
				notes = append(notes, "always emits schema code")
			}
			if !c.Serialization {
				notes = append(notes, "declarations only")
			}
			if len(notes) == 0 {
				notes = append(notes, "types or types plus conversion code")
			}
			fmt.Fprintf(&sb, "- `%s`: %s\n", c.Language, strings.Join(notes, ", "))
		}

		sb.WriteString("\n## Tips\n")
		sb.WriteString("- Send every sample you have in one call; merging is what finds optional fields\n")
		sb.WriteString("- Check `fields` in the result for `required: false` and `nullable: true` before trusting the output\n")
		sb.WriteString("- An error with code `UNSUPPORTED_FEATURE` and a path usually means an empty array; add a sample with elements or set `allow_untyped`\n")

		return &sdkmcp.GetPromptResult{
			Description: "Guide to typepaste_generate inputs and options",
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}
