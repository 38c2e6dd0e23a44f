package codegen

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/usestring/typepaste/internal/ingest"
	"github.com/usestring/typepaste/internal/schema"
	"github.com/usestring/typepaste/pkg/jsoncompact"
	"github.com/usestring/typepaste/pkg/types"
)

// CheckRequest asks whether JSON values conform to a type built from
// samples.
type CheckRequest struct {
	// Type holds the samples the type is built from, as for Generate.
	Type []types.Sample
	// Root names the type to check against. Empty means the first Type
	// sample's name.
	Root   string
	Strict bool
	// Values are json samples; each of their observations is checked.
	Values []types.Sample
}

// Report is the outcome for one observation.
type Report struct {
	Sample  string   `json:"sample"`
	Index   int      `json:"index"`
	Valid   bool     `json:"valid"`
	Errors  []string `json:"errors,omitempty"`
	Excerpt string   `json:"excerpt"`
}

// CheckResult lists one report per observation, in sample order.
type CheckResult struct {
	Root    string   `json:"root"`
	Valid   bool     `json:"valid"`
	Reports []Report `json:"reports"`
}

// Invalid returns the reports of rejected observations.
func (r *CheckResult) Invalid() []Report {
	var out []Report
	for _, rep := range r.Reports {
		if !rep.Valid {
			out = append(out, rep)
		}
	}
	return out
}

// Check builds the type from req.Type and validates every observation of
// req.Values against it. Values that do not conform are reported, not
// returned as errors; errors mean the request itself could not be served.
func (g *Generator) Check(ctx context.Context, req CheckRequest) (*CheckResult, error) {
	start := time.Now()
	if len(req.Values) == 0 {
		return nil, types.Errorf(types.CodeInvalidInput, "no values to check")
	}
	if g.maxSamples > 0 && len(req.Values) > g.maxSamples {
		return nil, types.Errorf(types.CodeInvalidInput, "%d values given, limit is %d", len(req.Values), g.maxSamples)
	}
	for _, s := range req.Values {
		if s.Kind != types.KindJSON {
			return nil, types.Errorf(types.CodeInvalidInput, "values must be json samples, got %s", s.Kind).WithSample(s.Name)
		}
		if g.maxSampleBytes > 0 && len(s.Content) > g.maxSampleBytes {
			return nil, types.Errorf(types.CodeInvalidInput, "sample is %d bytes, limit is %d",
				len(s.Content), g.maxSampleBytes).WithSample(s.Name)
		}
	}

	graph, root, err := g.build(ctx, req.Type, req.Root, req.Strict)
	if err != nil {
		return nil, err
	}
	ref, _ := graph.Root(root)
	v, err := schema.ForGraph(graph, ref)
	if err != nil {
		return nil, types.Errorf(types.CodeInternalInvariant, "schema for %q does not compile: %s",
			root, strings.Join(schema.Messages(err), "; "))
	}

	res := &CheckResult{Root: root, Valid: true}
	for _, s := range req.Values {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		observations, err := ingest.Observations(s, g.queries)
		if err != nil {
			return nil, err
		}
		for i, text := range observations {
			msgs, err := v.ValidateJSON(text)
			if err != nil {
				return nil, types.Errorf(types.CodeInternalInvariant, "re-reading observation %d", i).WithSample(s.Name).WithCause(err)
			}
			res.Reports = append(res.Reports, Report{
				Sample:  s.Name,
				Index:   i,
				Valid:   len(msgs) == 0,
				Errors:  msgs,
				Excerpt: jsoncompact.Excerpt(text, nil),
			})
			if len(msgs) > 0 {
				res.Valid = false
			}
		}
	}

	g.logger.Debug("checked",
		slog.String("root", root),
		slog.Int("observations", len(res.Reports)),
		slog.Int("invalid", len(res.Invalid())),
		slog.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}
