// Package inputs reads sample files for hosts. The pipeline itself never
// touches the filesystem.
package inputs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/usestring/typepaste/pkg/contenttype"
	"github.com/usestring/typepaste/pkg/types"
)

// File is one loaded input.
type File struct {
	Path    string
	Content string
}

// Options configures Load.
type Options struct {
	// Workers bounds concurrent reads. Zero or less means one per file.
	Workers int
	// MaxBytes rejects larger files. Zero means no limit.
	MaxBytes int
}

// Load reads every path concurrently and returns the files in argument
// order. The first failure cancels the remaining reads.
func Load(ctx context.Context, paths []string, opts Options) ([]File, error) {
	start := time.Now()
	files := make([]File, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			content, err := readFile(path, opts.MaxBytes)
			if err != nil {
				return err
			}
			files[i] = File{Path: path, Content: content}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Debug("inputs loaded",
		slog.Int("files", len(files)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return files, nil
}

func readFile(path string, maxBytes int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", types.Errorf(types.CodeInvalidInput, "cannot read %s", path).WithCause(err)
	}
	defer f.Close()
	content, err := ReadAll(f, maxBytes)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return content, nil
}

// ReadAll reads r to the end, failing once more than maxBytes have been
// read. Zero means no limit.
func ReadAll(r io.Reader, maxBytes int) (string, error) {
	if maxBytes > 0 {
		r = io.LimitReader(r, int64(maxBytes)+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", types.Errorf(types.CodeInvalidInput, "read failed").WithCause(err)
	}
	if maxBytes > 0 && len(data) > maxBytes {
		return "", types.Errorf(types.CodeInvalidInput, "input is larger than %d bytes", maxBytes)
	}
	if contenttype.IsBinary(data) {
		return "", types.Errorf(types.CodeInvalidInput, "input is binary, not text")
	}
	return string(data), nil
}

// Detect guesses the sample kind and source language from a file name,
// falling back to the content when the extension says nothing. A .json file
// declaring "$schema" is a schema. Anything unrecognized is JSON.
func Detect(path, content string) (types.SampleKind, types.SourceLanguage) {
	base := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(base, ".schema.json"), strings.HasSuffix(base, ".yaml"), strings.HasSuffix(base, ".yml"):
		return types.KindSchema, ""
	case strings.HasSuffix(base, ".zod.ts"):
		return types.KindTypedSource, types.SourceZod
	case strings.HasSuffix(base, ".ts"), strings.HasSuffix(base, ".tsx"):
		return types.KindTypedSource, types.SourceTypeScript
	case strings.HasSuffix(base, ".go"):
		return types.KindTypedSource, types.SourceGo
	case strings.HasSuffix(base, ".json"):
		if contenttype.Sniff([]byte(content)) == contenttype.JSONSchema {
			return types.KindSchema, ""
		}
		return types.KindJSON, ""
	}
	return DetectContent(content)
}

// DetectContent guesses the sample kind and source language from content
// alone, as for stdin.
func DetectContent(content string) (types.SampleKind, types.SourceLanguage) {
	switch contenttype.Sniff([]byte(content)) {
	case contenttype.JSONSchema, contenttype.YAML:
		return types.KindSchema, ""
	case contenttype.Zod:
		return types.KindTypedSource, types.SourceZod
	case contenttype.TypeScript:
		return types.KindTypedSource, types.SourceTypeScript
	case contenttype.Go:
		return types.KindTypedSource, types.SourceGo
	}
	return types.KindJSON, ""
}

// NameFromPath derives a logical name from a file name by dropping the
// directory and every extension: "api/user.schema.json" -> "user".
func NameFromPath(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}

// Samples turns loaded files into samples. A non-empty name or kind applies
// to every file; otherwise both are derived from each path.
func Samples(files []File, name string, kind types.SampleKind, lang types.SourceLanguage) []types.Sample {
	out := make([]types.Sample, len(files))
	for i, f := range files {
		s := types.Sample{Name: name, Kind: kind, Language: lang, Content: f.Content}
		detectedKind, detectedLang := Detect(f.Path, f.Content)
		if s.Name == "" {
			s.Name = NameFromPath(f.Path)
		}
		if s.Kind == "" {
			s.Kind = detectedKind
		}
		if s.Kind == types.KindTypedSource && s.Language == "" {
			s.Language = detectedLang
		}
		out[i] = s
	}
	return out
}
