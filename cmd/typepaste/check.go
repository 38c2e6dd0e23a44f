package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/usestring/typepaste/internal/config"
	"github.com/usestring/typepaste/internal/inputs"
	"github.com/usestring/typepaste/pkg/codegen"
	"github.com/usestring/typepaste/pkg/types"
)

// stdinName labels values read from stdin in reports.
const stdinName = "stdin"

type checkFlags struct {
	types      []string
	kind       string
	sourceLang string
	root       string
	strict     bool
	selectExpr string
	asJSON     bool
}

// nonConformingError reports values that failed the check. It is not a
// *types.Error: the request itself succeeded.
type nonConformingError struct {
	invalid, total int
	root           string
}

func (e *nonConformingError) Error() string {
	return fmt.Sprintf("%d of %d values do not conform to %s", e.invalid, e.total, e.root)
}

func newCheckCmd(cfg *config.Config) *cobra.Command {
	f := &checkFlags{}

	cmd := &cobra.Command{
		Use:   "check --type FILE [values...]",
		Short: "Check JSON values against a type built from samples",
		Long: `Builds a type from the --type files, exactly as generate would, and checks
every JSON value given as an argument (or on stdin) against it.

Each value, or each result of --select, gets one report line. The command
fails when any value does not conform.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, cfg, f, args)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVar(&f.types, "type", nil, "file defining the type: json samples, JSON Schema or declarations (repeatable)")
	flags.StringVar(&f.kind, "kind", "", "kind of the --type files (default: from file name)")
	flags.StringVar(&f.sourceLang, "source-lang", "", "grammar for typed-source --type files")
	flags.StringVar(&f.root, "root", "", "logical name of the type to check against (default: first --type file's name)")
	flags.BoolVar(&f.strict, "strict", false, "fail on conflicting observations while building the type")
	flags.StringVar(&f.selectExpr, "select", "", "jq expression applied to each value; every result is checked")
	flags.BoolVar(&f.asJSON, "json", false, "print reports as JSON")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func runCheck(cmd *cobra.Command, cfg *config.Config, f *checkFlags, args []string) error {
	kind, lang, err := parseKind(f.kind, f.sourceLang)
	if err != nil {
		return err
	}

	typeFiles, err := inputs.Load(cmd.Context(), f.types, inputs.Options{
		Workers:  cfg.LoadWorkers,
		MaxBytes: cfg.MaxSampleBytes,
	})
	if err != nil {
		return err
	}
	typeSamples := inputs.Samples(typeFiles, "", kind, lang)

	values, err := loadSamples(cmd, cfg, args, "", types.KindJSON, "")
	if err != nil {
		return err
	}
	if len(args) == 0 {
		values[0].Name = stdinName
	}
	for i := range values {
		values[i].Select = f.selectExpr
	}

	gen, err := newGenerator(cfg)
	if err != nil {
		return err
	}
	res, err := gen.Check(cmd.Context(), codegen.CheckRequest{
		Type:   typeSamples,
		Root:   f.root,
		Strict: f.strict,
		Values: values,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if f.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		for _, rep := range res.Reports {
			if rep.Valid {
				fmt.Fprintf(out, "ok       %s[%d]\n", rep.Sample, rep.Index)
				continue
			}
			fmt.Fprintf(out, "invalid  %s[%d]  %s\n", rep.Sample, rep.Index, rep.Excerpt)
			for _, msg := range rep.Errors {
				fmt.Fprintf(out, "         %s\n", msg)
			}
		}
	}

	if invalid := len(res.Invalid()); invalid > 0 {
		return &nonConformingError{invalid: invalid, total: len(res.Reports), root: res.Root}
	}
	return nil
}
