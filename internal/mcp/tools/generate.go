package tools

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/typepaste/internal/config"
	"github.com/usestring/typepaste/pkg/codegen"
	"github.com/usestring/typepaste/pkg/jsonschema"
	"github.com/usestring/typepaste/pkg/types"
)

// SampleInput is one sample passed to typepaste_generate.
type SampleInput struct {
	Kind     string `json:"kind,omitempty" jsonschema:"How to read content: json (default), schema, or typed-source. typescript, go and zod are accepted as typed-source shorthands."`
	Name     string `json:"name,omitempty" jsonschema:"Logical type name (default: the configured root name). JSON samples sharing a name are merged."`
	Content  string `json:"content" jsonschema:"Raw sample text"`
	Language string `json:"language,omitempty" jsonschema:"Grammar for typed-source samples: typescript, go, or zod"`
	Select   string `json:"select,omitempty" jsonschema:"jq expression applied to a json sample; each yielded value is merged as one observation (e.g. .items[])"`
}

// GenerateInput is the input for typepaste_generate.
type GenerateInput struct {
	Samples      []SampleInput `json:"samples" jsonschema:"Samples to infer types from. At least one is required."`
	Language     string        `json:"language,omitempty" jsonschema:"Target: go, typescript, zod, python, or json-schema (default from server config)"`
	Indent       string        `json:"indent,omitempty" jsonschema:"Indent unit: a number of spaces, tab, or a literal string"`
	TypesOnly    *bool         `json:"types_only,omitempty" jsonschema:"Emit declarations only, without JSON conversion code"`
	Comments     []string      `json:"comments,omitempty" jsonschema:"Lines emitted as a leading comment block"`
	Package      string        `json:"package,omitempty" jsonschema:"Go package name for the package clause"`
	AllowUntyped *bool         `json:"allow_untyped,omitempty" jsonschema:"Render unknown types (empty arrays, any) as the target's dynamic type instead of failing"`
	Strict       bool          `json:"strict,omitempty" jsonschema:"Fail on conflicting observations instead of building unions"`
	Root         string        `json:"root,omitempty" jsonschema:"Logical name of the type to render (default: the first sample's name)"`
	Verify       bool          `json:"verify,omitempty" jsonschema:"Check every json sample against the merged type before rendering"`
}

// GenerateOutput is the output of typepaste_generate.
type GenerateOutput struct {
	Code        string                 `json:"code"`
	Language    string                 `json:"language"`
	Root        string                 `json:"root"`
	SampleCount int                    `json:"sample_count"`
	LineCount   int                    `json:"line_count"`
	Fields      []jsonschema.FieldStat `json:"fields,omitzero"`
}

// ToolGenerate infers a type from samples and renders it in the target
// language. Unset options fall back to the server's configured defaults.
func ToolGenerate(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input GenerateInput) (*sdkmcp.CallToolResult, GenerateOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input GenerateInput) (*sdkmcp.CallToolResult, GenerateOutput, error) {
		if len(input.Samples) == 0 {
			return nil, GenerateOutput{}, ErrInvalidInput("samples is required")
		}

		samples, err := toSamples(input.Samples, d.Config.DefaultRootName)
		if err != nil {
			return nil, GenerateOutput{}, err
		}

		opts := renderOptions(d.Config, input)
		res, err := d.Generator.Generate(ctx, codegen.Request{
			Samples: samples,
			Root:    input.Root,
			Options: opts,
			Strict:  input.Strict,
			Verify:  input.Verify,
		})
		if err != nil {
			return nil, GenerateOutput{}, WrapPipelineError(err)
		}

		output := GenerateOutput{
			Code:        strings.Join(res.Lines, "\n"),
			Language:    string(opts.Language),
			Root:        res.Root,
			SampleCount: res.SampleCount,
			LineCount:   len(res.Lines),
			Fields:      res.Fields,
		}
		return nil, output, nil
	}
}

func renderOptions(cfg *config.Config, input GenerateInput) types.RenderOptions {
	opts := cfg.RenderDefaults()
	if input.Language != "" {
		lang, ok := types.ParseLanguage(input.Language)
		if !ok {
			lang = types.Language(input.Language)
		}
		opts.Language = lang
	}
	if input.Indent != "" {
		opts.Indent = config.ParseIndent(input.Indent)
	}
	if input.TypesOnly != nil {
		opts.TypesOnly = *input.TypesOnly
	}
	if input.AllowUntyped != nil {
		opts.AllowUntyped = *input.AllowUntyped
	}
	opts.LeadingComments = input.Comments
	opts.Package = input.Package
	return opts
}

func toSamples(in []SampleInput, defaultName string) ([]types.Sample, error) {
	out := make([]types.Sample, len(in))
	for i, s := range in {
		sample := types.Sample{
			Kind:    types.KindJSON,
			Name:    s.Name,
			Content: s.Content,
			Select:  s.Select,
		}
		if sample.Name == "" {
			sample.Name = defaultName
		}
		if s.Kind != "" {
			kind, ok := types.ParseSampleKind(s.Kind)
			if !ok {
				return nil, ErrInvalidInput(fmt.Sprintf("samples[%d]: unknown kind %q", i, s.Kind))
			}
			sample.Kind = kind
		}
		lang := s.Language
		if lang == "" && sample.Kind == types.KindTypedSource && s.Kind != "typed-source" && s.Kind != "source" {
			lang = s.Kind
		}
		if lang != "" {
			parsed, ok := types.ParseSourceLanguage(lang)
			if !ok {
				return nil, ErrInvalidInput(fmt.Sprintf("samples[%d]: unknown source language %q", i, lang))
			}
			sample.Language = parsed
		}
		out[i] = sample
	}
	return out, nil
}
