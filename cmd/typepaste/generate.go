package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/usestring/typepaste/internal/cache"
	"github.com/usestring/typepaste/internal/config"
	"github.com/usestring/typepaste/internal/inputs"
	"github.com/usestring/typepaste/pkg/codegen"
	"github.com/usestring/typepaste/pkg/types"
)

type generateFlags struct {
	kind         string
	language     string
	name         string
	sourceLang   string
	selectExpr   string
	indent       string
	typesOnly    bool
	comments     []string
	pkg          string
	allowUntyped bool
	strict       bool
	root         string
	output       string
	verify       bool
	watch        bool
}

func newGenerateCmd(cfg *config.Config) *cobra.Command {
	f := &generateFlags{
		language:     cfg.DefaultLanguage,
		indent:       cfg.DefaultIndent,
		typesOnly:    cfg.DefaultTypesOnly,
		allowUntyped: cfg.DefaultAllowUntyped,
	}

	cmd := &cobra.Command{
		Use:   "generate [files...]",
		Short: "Infer a type from samples and print it in the target language",
		Long: `Reads samples from the given files, or from stdin when none are given,
and prints the generated code.

Sample kinds are guessed from file names (.json, .schema.json, .yaml, .ts,
.zod.ts, .go), then from content, unless --kind is set. Files with the same
logical name are merged: fields missing from some samples become optional
and conflicting values become unions. The logical name is the file name
without extensions unless --name is set.

With --watch the output is regenerated each time one of the files is saved.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, cfg, f, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.kind, "kind", "", "sample kind: json, schema, typed-source (default: from file name)")
	flags.StringVarP(&f.language, "language", "l", f.language, "target: go, typescript, zod, python, json-schema")
	flags.StringVar(&f.name, "name", "", "logical name for every sample (default: file name, or the root name for stdin)")
	flags.StringVar(&f.sourceLang, "source-lang", "", "grammar for typed-source samples: typescript, go, zod")
	flags.StringVar(&f.selectExpr, "select", "", "jq expression applied to json samples; each result is one observation")
	flags.StringVar(&f.indent, "indent", f.indent, "indent unit: number of spaces, tab, or a literal string")
	flags.BoolVar(&f.typesOnly, "types-only", f.typesOnly, "emit declarations without JSON conversion code")
	flags.StringArrayVar(&f.comments, "comment", nil, "leading comment line (repeatable)")
	flags.StringVar(&f.pkg, "package", "", "Go package name (default main; --types-only output has no package clause unless set)")
	flags.BoolVar(&f.allowUntyped, "allow-untyped", f.allowUntyped, "render unknown types as the target's dynamic type instead of failing")
	flags.BoolVar(&f.strict, "strict", false, "fail on conflicting observations instead of building unions")
	flags.StringVar(&f.root, "root", "", "logical name of the type to render (default: first sample's name)")
	flags.StringVarP(&f.output, "output", "o", "", "write to this file instead of stdout")
	flags.BoolVar(&f.verify, "verify", false, "check every json sample against the merged type before rendering")
	flags.BoolVarP(&f.watch, "watch", "w", false, "regenerate whenever one of the files changes, until interrupted")
	return cmd
}

func runGenerate(cmd *cobra.Command, cfg *config.Config, f *generateFlags, args []string) error {
	kind, lang, err := parseKind(f.kind, f.sourceLang)
	if err != nil {
		return err
	}
	if f.watch && len(args) == 0 {
		return usagef("--watch needs at least one file")
	}

	gen, err := newGenerator(cfg)
	if err != nil {
		return err
	}
	once := func() error {
		return generateOnce(cmd, cfg, gen, f, args, kind, lang)
	}
	if !f.watch {
		return once()
	}
	return watchFiles(cmd.Context(), args, func() {
		if err := once(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "typepaste: %v\n", err)
			return
		}
		slog.Info("regenerated", slog.String("output", f.output))
	})
}

func generateOnce(cmd *cobra.Command, cfg *config.Config, gen *codegen.Generator, f *generateFlags, args []string, kind types.SampleKind, lang types.SourceLanguage) error {
	samples, err := loadSamples(cmd, cfg, args, f.name, kind, lang)
	if err != nil {
		return err
	}
	if f.selectExpr != "" {
		for i := range samples {
			if samples[i].Kind == types.KindJSON {
				samples[i].Select = f.selectExpr
			}
		}
	}

	res, err := gen.Generate(cmd.Context(), codegen.Request{
		Samples: samples,
		Root:    f.root,
		Options: f.renderOptions(),
		Strict:  f.strict,
		Verify:  f.verify,
	})
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(cmd, f.output)
	if err != nil {
		return err
	}
	if err := writeLines(out, res.Lines); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

// loadSamples reads the named files, or stdin when there are none. Stdin
// content is named after the configured root unless name is set, and its
// kind is sniffed unless given.
func loadSamples(cmd *cobra.Command, cfg *config.Config, args []string, name string, kind types.SampleKind, lang types.SourceLanguage) ([]types.Sample, error) {
	if len(args) == 0 {
		content, err := inputs.ReadAll(cmd.InOrStdin(), cfg.MaxSampleBytes)
		if err != nil {
			return nil, err
		}
		if name == "" {
			name = cfg.DefaultRootName
		}
		if kind == "" {
			detected, detectedLang := inputs.DetectContent(content)
			kind = detected
			if lang == "" {
				lang = detectedLang
			}
		}
		return []types.Sample{{Kind: kind, Name: name, Content: content, Language: lang}}, nil
	}

	files, err := inputs.Load(cmd.Context(), args, inputs.Options{
		Workers:  cfg.LoadWorkers,
		MaxBytes: cfg.MaxSampleBytes,
	})
	if err != nil {
		return nil, err
	}
	return inputs.Samples(files, name, kind, lang), nil
}

func newGenerator(cfg *config.Config) (*codegen.Generator, error) {
	queries, err := cache.NewQueryCache(cfg.QueryCacheMaxItems)
	if err != nil {
		return nil, err
	}
	return codegen.New(
		codegen.WithQueryCache(queries),
		codegen.WithLimits(cfg.MaxSampleBytes, cfg.MaxSamples),
		codegen.WithLogger(slog.Default()),
	), nil
}

// openOutput returns stdout, or the named file and a closer for it.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return file, file.Close, nil
}

func (f *generateFlags) renderOptions() types.RenderOptions {
	lang, ok := types.ParseLanguage(f.language)
	if !ok {
		lang = types.Language(f.language)
	}
	return types.RenderOptions{
		Language:        lang,
		Indent:          config.ParseIndent(f.indent),
		TypesOnly:       f.typesOnly,
		LeadingComments: f.comments,
		Package:         f.pkg,
		AllowUntyped:    f.allowUntyped,
	}
}

// parseKind resolves --kind and --source-lang. A language shorthand given
// as the kind ("--kind ts") selects typed-source with that grammar.
func parseKind(kindFlag, langFlag string) (types.SampleKind, types.SourceLanguage, error) {
	var kind types.SampleKind
	if kindFlag != "" {
		k, ok := types.ParseSampleKind(kindFlag)
		if !ok {
			return "", "", usagef("unknown --kind %q", kindFlag)
		}
		kind = k
		if k == types.KindTypedSource && langFlag == "" {
			if l, ok := types.ParseSourceLanguage(kindFlag); ok {
				langFlag = string(l)
			}
		}
	}
	var lang types.SourceLanguage
	if langFlag != "" {
		l, ok := types.ParseSourceLanguage(langFlag)
		if !ok {
			return "", "", usagef("unknown --source-lang %q", langFlag)
		}
		lang = l
	}
	return kind, lang, nil
}

func writeLines(w io.Writer, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}
