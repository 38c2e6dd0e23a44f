package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/typepaste/pkg/codegen"
	"github.com/usestring/typepaste/pkg/types"
)

// maxCommonErrors bounds CheckOutput.CommonErrors.
const maxCommonErrors = 10

// CheckInput is the input for typepaste_check.
type CheckInput struct {
	Type   []SampleInput `json:"type" jsonschema:"Samples that define the type, read exactly as typepaste_generate reads them"`
	Root   string        `json:"root,omitempty" jsonschema:"Logical name of the type to check against (default: the first type sample's name)"`
	Strict bool          `json:"strict,omitempty" jsonschema:"Fail on conflicting observations while building the type"`
	Values []CheckValue  `json:"values" jsonschema:"JSON values to check"`
}

// CheckValue is one JSON document to check.
type CheckValue struct {
	Name    string `json:"name,omitempty" jsonschema:"Label used in results (default: values[i])"`
	Content string `json:"content" jsonschema:"JSON text"`
	Select  string `json:"select,omitempty" jsonschema:"jq expression; every yielded value is checked separately"`
}

// CheckOutput is the output of typepaste_check.
type CheckOutput struct {
	Summary      CheckSummary     `json:"summary"`
	Results      []codegen.Report `json:"results,omitzero"`
	CommonErrors []CommonError    `json:"common_errors,omitempty"`
}

// CheckSummary counts the checked observations.
type CheckSummary struct {
	Root          string `json:"root"`
	TotalValues   int    `json:"total_values"`
	MatchingCount int    `json:"matching_count"`
	FailedCount   int    `json:"failed_count"`
	AllMatch      bool   `json:"all_match"`
}

// CommonError is a violation message with the number of values it occurs in.
type CommonError struct {
	Error     string `json:"error"`
	Frequency int    `json:"frequency"`
}

// ToolCheck validates JSON values against a type inferred from samples.
func ToolCheck(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input CheckInput) (*sdkmcp.CallToolResult, CheckOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input CheckInput) (*sdkmcp.CallToolResult, CheckOutput, error) {
		if len(input.Type) == 0 {
			return nil, CheckOutput{}, ErrInvalidInput("type is required")
		}
		if len(input.Values) == 0 {
			return nil, CheckOutput{}, ErrInvalidInput("values is required")
		}

		typeSamples, err := toSamples(input.Type, d.Config.DefaultRootName)
		if err != nil {
			return nil, CheckOutput{}, err
		}
		values := make([]types.Sample, len(input.Values))
		for i, v := range input.Values {
			name := v.Name
			if name == "" {
				name = fmt.Sprintf("values[%d]", i)
			}
			values[i] = types.Sample{Kind: types.KindJSON, Name: name, Content: v.Content, Select: v.Select}
		}

		res, err := d.Generator.Check(ctx, codegen.CheckRequest{
			Type:   typeSamples,
			Root:   input.Root,
			Strict: input.Strict,
			Values: values,
		})
		if err != nil {
			return nil, CheckOutput{}, WrapPipelineError(err)
		}

		failed := len(res.Invalid())
		return nil, CheckOutput{
			Summary: CheckSummary{
				Root:          res.Root,
				TotalValues:   len(res.Reports),
				MatchingCount: len(res.Reports) - failed,
				FailedCount:   failed,
				AllMatch:      res.Valid,
			},
			Results:      res.Reports,
			CommonErrors: commonErrors(res.Reports),
		}, nil
	}
}

// commonErrors counts violation messages across reports, ignoring the
// instance path prefix so the same problem in different array slots is
// counted once per value.
func commonErrors(reports []codegen.Report) []CommonError {
	counts := make(map[string]int)
	for _, rep := range reports {
		seen := make(map[string]bool)
		for _, msg := range rep.Errors {
			key := msg
			if _, after, ok := strings.Cut(msg, ": "); ok && strings.HasPrefix(msg, "/") {
				key = after
			}
			if !seen[key] {
				seen[key] = true
				counts[key]++
			}
		}
	}

	out := make([]CommonError, 0, len(counts))
	for msg, n := range counts {
		out = append(out, CommonError{Error: msg, Frequency: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Error < out[j].Error
	})
	if len(out) > maxCommonErrors {
		out = out[:maxCommonErrors]
	}
	return out
}
