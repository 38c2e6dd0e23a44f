// Package ingest turns raw samples into per-sample shapes: JSON values,
// JSON Schema documents and typed-source declarations.
package ingest

import (
	"errors"
	"log/slog"

	"github.com/usestring/typepaste/internal/cache"
	"github.com/usestring/typepaste/pkg/shape"
	"github.com/usestring/typepaste/pkg/types"
)

// Options configures Ingest.
type Options struct {
	// Queries caches compiled Select expressions. Nil compiles every time.
	Queries *cache.QueryCache

	// MaxSampleBytes rejects larger samples. Zero means no limit.
	MaxSampleBytes int

	Logger *slog.Logger
}

// Ingest parses every sample and returns the shapes grouped by logical name.
// Only json samples may share a name; their observations merge later.
// Errors are *types.Error annotated with the sample name.
func Ingest(samples []types.Sample, opts Options) (*shape.Shapes, error) {
	if len(samples) == 0 {
		return nil, types.Errorf(types.CodeInvalidInput, "no samples given")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	set := shape.NewShapes()
	for _, s := range samples {
		if err := ingestOne(set, s, opts); err != nil {
			return nil, annotate(err, s.Name)
		}
		logger.Debug("sample ingested",
			slog.String("name", s.Name),
			slog.String("kind", string(s.Kind)),
			slog.Int("bytes", len(s.Content)),
			slog.Int("observations", len(set.Get(s.Name))),
		)
	}
	return set, nil
}

func ingestOne(set *shape.Shapes, s types.Sample, opts Options) error {
	if s.Name == "" {
		return types.Errorf(types.CodeInvalidInput, "sample name is empty")
	}
	if opts.MaxSampleBytes > 0 && len(s.Content) > opts.MaxSampleBytes {
		return types.Errorf(types.CodeInvalidInput, "sample is %d bytes, limit is %d", len(s.Content), opts.MaxSampleBytes)
	}
	if set.Has(s.Name) {
		prev := set.KindOf(s.Name)
		if prev != string(types.KindJSON) || s.Kind != types.KindJSON {
			return types.Errorf(types.CodeInvalidInput,
				"name is already used by a %s sample; only json samples can share a name", prev)
		}
	}
	if s.Select != "" && s.Kind != types.KindJSON {
		return types.Errorf(types.CodeInvalidInput, "select applies to json samples only")
	}

	switch s.Kind {
	case types.KindJSON:
		return ingestJSON(set, s, opts.Queries)
	case types.KindSchema:
		return ingestSchema(set, s)
	case types.KindTypedSource:
		return ingestSource(set, s)
	}
	return types.Errorf(types.CodeInvalidInput, "unknown sample kind %q", s.Kind)
}

func annotate(err error, sample string) error {
	var te *types.Error
	if errors.As(err, &te) {
		if te.Sample == "" {
			return te.WithSample(sample)
		}
		return te
	}
	return types.Errorf(types.CodeInternalInvariant, "ingesting sample").WithSample(sample).WithCause(err)
}
