// Package codegen runs the whole pipeline: samples go in, rendered source
// lines come out.
//
// # Basic Usage
//
//	res, err := codegen.Generate(codegen.Request{
//	    Samples: []types.Sample{{Kind: types.KindJSON, Name: "User", Content: `{"id": 1}`}},
//	    Options: types.RenderOptions{Language: types.LangGo},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(strings.Join(res.Lines, "\n"))
//
// Hosts that serve many requests build one Generator with [New] so compiled
// jq programs are shared between calls.
package codegen

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/usestring/typepaste/internal/cache"
	"github.com/usestring/typepaste/internal/ingest"
	"github.com/usestring/typepaste/internal/render"
	"github.com/usestring/typepaste/internal/schema"
	"github.com/usestring/typepaste/internal/unify"
	"github.com/usestring/typepaste/pkg/jsoncompact"
	"github.com/usestring/typepaste/pkg/jsonschema"
	"github.com/usestring/typepaste/pkg/typegraph"
	"github.com/usestring/typepaste/pkg/types"
)

// Request is one generation run.
type Request struct {
	Samples []types.Sample
	// Root is the logical name to render. Empty means the first sample's
	// name.
	Root    string
	Options types.RenderOptions
	// Strict fails on conflicting observations instead of building unions.
	Strict bool
	// Verify checks every json observation against the JSON Schema form of
	// the merged type before rendering. A rejected observation is an
	// internal invariant violation.
	Verify bool
}

// Result is the output of a successful run. Failed runs return no Result.
type Result struct {
	Lines       []string               `json:"lines"`
	Root        string                 `json:"root"`
	SampleCount int                    `json:"sample_count"`
	Fields      []jsonschema.FieldStat `json:"fields"`
}

// Capability describes what a target language can emit.
type Capability = render.Capability

// Languages lists every supported target with its capabilities.
func Languages() []Capability {
	return render.Languages()
}

// Generator runs requests. The zero value is not usable; call New.
type Generator struct {
	queries        *cache.QueryCache
	maxSampleBytes int
	maxSamples     int
	logger         *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithQueryCache shares compiled jq programs across runs.
func WithQueryCache(c *cache.QueryCache) Option {
	return func(g *Generator) {
		g.queries = c
	}
}

// WithLimits rejects requests with more than maxSamples samples or any sample
// larger than maxSampleBytes. Zero disables a limit.
func WithLimits(maxSampleBytes, maxSamples int) Option {
	return func(g *Generator) {
		g.maxSampleBytes = maxSampleBytes
		g.maxSamples = maxSamples
	}
}

// WithLogger sets the logger used for stage timings and invariant
// violations. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = l
	}
}

// New creates a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

// Generate runs req with a Generator that shares nothing with other calls.
func Generate(req Request) (*Result, error) {
	return New().Generate(context.Background(), req)
}

// Generate ingests, unifies and renders req. Render options are checked
// before any sample is parsed. Every error is a *types.Error, except a
// cancelled ctx which is returned as is.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	if err := render.CheckOptions(req.Options); err != nil {
		return nil, err
	}
	graph, root, err := g.build(ctx, req.Samples, req.Root, req.Strict)
	if err != nil {
		return nil, err
	}
	if req.Verify {
		if err := g.verify(graph, req.Samples); err != nil {
			return nil, err
		}
	}

	lines, err := render.Render(graph, root, req.Options)
	if err != nil {
		return nil, err
	}
	ref, _ := graph.Root(root)

	g.logger.Debug("generated",
		slog.String("root", root),
		slog.String("language", string(req.Options.Language)),
		slog.Int("samples", len(req.Samples)),
		slog.Int("lines", len(lines)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return &Result{
		Lines:       lines,
		Root:        root,
		SampleCount: len(req.Samples),
		Fields:      jsonschema.ComputeFieldStats(graph, ref),
	}, nil
}

// build ingests and unifies samples and returns the validated graph with the
// resolved root name.
func (g *Generator) build(ctx context.Context, samples []types.Sample, root string, strict bool) (*typegraph.Graph, string, error) {
	if len(samples) == 0 {
		return nil, "", types.Errorf(types.CodeInvalidInput, "no samples given")
	}
	if g.maxSamples > 0 && len(samples) > g.maxSamples {
		return nil, "", types.Errorf(types.CodeInvalidInput, "%d samples given, limit is %d", len(samples), g.maxSamples)
	}
	if root == "" {
		root = samples[0].Name
	}

	shapes, err := ingest.Ingest(samples, ingest.Options{
		Queries:        g.queries,
		MaxSampleBytes: g.maxSampleBytes,
		Logger:         g.logger,
	})
	if err != nil {
		return nil, "", err
	}
	if !shapes.Has(root) {
		return nil, "", types.Errorf(types.CodeInvalidInput, "no sample is named %q", root)
	}
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	graph, err := unify.Unify(shapes, unify.Options{Strict: strict, Logger: g.logger})
	if err != nil {
		return nil, "", err
	}
	if err := graph.Validate(); err != nil {
		if errors.Is(err, types.ErrInternalInvariant) {
			attrs := []any{
				slog.String("error", err.Error()),
				slog.String("root", root),
				slog.Int("samples", len(samples)),
				slog.Int("nodes", graph.Len()),
			}
			if ref, ok := graph.Root(root); ok {
				attrs = append(attrs, slog.String("graph", graph.Describe(ref)))
			}
			g.logger.Error("type graph invariant violated", attrs...)
		}
		return nil, "", err
	}
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	return graph, root, nil
}

// verify validates every json observation against the type it was merged
// into. Merging only widens, so a rejection means the graph is wrong.
func (g *Generator) verify(graph *typegraph.Graph, samples []types.Sample) error {
	validators := make(map[string]*schema.Validator)
	for _, s := range samples {
		if s.Kind != types.KindJSON {
			continue
		}
		v, ok := validators[s.Name]
		if !ok {
			ref, found := graph.Root(s.Name)
			if !found {
				return types.Errorf(types.CodeInternalInvariant, "no type was built for the sample").WithSample(s.Name)
			}
			var err error
			v, err = schema.ForGraph(graph, ref)
			if err != nil {
				return types.Errorf(types.CodeInternalInvariant, "schema for the merged type does not compile: %s",
					strings.Join(schema.Messages(err), "; ")).WithSample(s.Name)
			}
			validators[s.Name] = v
		}

		observations, err := ingest.Observations(s, g.queries)
		if err != nil {
			return err
		}
		for i, text := range observations {
			msgs, err := v.ValidateJSON(text)
			if err != nil {
				return types.Errorf(types.CodeInternalInvariant, "re-reading observation %d", i).WithSample(s.Name).WithCause(err)
			}
			if len(msgs) > 0 {
				g.logger.Error("merged type rejects its own sample",
					slog.String("sample", s.Name),
					slog.Int("observation", i),
					slog.Any("errors", msgs),
					slog.String("excerpt", jsoncompact.Excerpt(text, nil)),
				)
				return types.Errorf(types.CodeInternalInvariant, "merged type rejects observation %d: %s",
					i, strings.Join(msgs, "; ")).WithSample(s.Name)
			}
		}
	}
	return nil
}
