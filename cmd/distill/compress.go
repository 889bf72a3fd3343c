package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/entrhq/distill/pkg/config"
	"github.com/entrhq/distill/pkg/pipeline"
	"github.com/entrhq/distill/pkg/report"
	"github.com/entrhq/distill/pkg/store"
	"github.com/entrhq/distill/pkg/summarize"
	"github.com/entrhq/distill/pkg/types"
)

type compressFlags struct {
	input     string
	modes     []string
	outputDir string
	show      bool
	pretty    bool
	copy      bool
	formatter string
}

func newCompressCmd(g *globalFlags) *cobra.Command {
	f := &compressFlags{}
	cmd := &cobra.Command{
		Use:   "compress",
		Short: "Compress a conversation into memory, summary and recent turns",
		Long: `Compress reads a conversation and writes one compressed context per mode to
<output-dir>/compressed_context_<mode>.json.

Modes:
  rule  deterministic template summary
  llm   generated summary; fails when the LLM service is unavailable
  auto  generated summary, falling back to the template when unavailable

Repeat --mode (or separate values with commas) to write several variants
from one run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompress(cmd, g, f)
		},
	}

	cmd.Flags().StringVarP(&f.input, "input", "i", "data/conversation.json", "conversation JSON file")
	cmd.Flags().StringSliceVarP(&f.modes, "mode", "m", nil, "summarization mode: rule, llm or auto (repeatable; default from config)")
	cmd.Flags().StringVarP(&f.outputDir, "output-dir", "o", "", "output directory (default from config)")
	cmd.Flags().BoolVar(&f.show, "show", false, "print the compressed layers as tables")
	cmd.Flags().BoolVar(&f.pretty, "pretty", false, "print the compressed JSON with syntax highlighting")
	cmd.Flags().BoolVar(&f.copy, "copy", false, "copy the last compressed JSON to the clipboard")
	cmd.Flags().StringVar(&f.formatter, "formatter", "terminal256", "highlight formatter for --pretty (terminal256, terminal16m, noop)")
	return cmd
}

func runCompress(cmd *cobra.Command, g *globalFlags, f *compressFlags) error {
	cfg, err := g.loadConfig(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	// Modes are checked before any file is read or any stage runs.
	modes, err := parseModes(f.modes, cfg.Mode)
	if err != nil {
		return err
	}

	conv, err := store.LoadConversation(f.input)
	if err != nil {
		return err
	}

	resolved, err := cfg.ResolveLLM(g.overrides())
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrInvalidArgument, err)
	}
	gen, err := config.BuildGenerator(cmd.Context(), resolved)
	if err != nil {
		return err
	}

	outputDir := f.outputDir
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}
	fs, err := store.NewFileStore(outputDir)
	if err != nil {
		return err
	}

	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	opts := []pipeline.Option{pipeline.WithTimeout(resolved.Timeout)}
	if cfg.Logging.Verbosity != "quiet" {
		opts = append(opts, pipeline.WithObserver(progressPrinter(stderr)))
	}
	compressor := pipeline.New(gen, opts...)

	contexts, err := compressor.CompressAll(cmd.Context(), conv, modes...)
	if err != nil {
		return err
	}

	var last []byte
	for _, cc := range contexts {
		path, err := fs.Save(cc)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Wrote %s (%d facts, summary: %s, %d recent turns)\n",
			path, len(cc.Memory), cc.Summary.StrategyUsed, len(cc.RecentTurns))

		if f.show {
			fmt.Fprintln(stdout, report.ContextTable(cc))
		}
		if f.pretty || f.copy {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read back %s: %w", path, err)
			}
			last = data
			if f.pretty {
				if err := report.HighlightJSON(stdout, data, f.formatter); err != nil {
					return err
				}
				fmt.Fprintln(stdout)
			}
		}
	}

	if f.copy && last != nil {
		if err := clipboard.WriteAll(string(last)); err != nil {
			fmt.Fprintf(stderr, "Warning: could not copy to clipboard: %v\n", err)
		} else {
			fmt.Fprintln(stderr, "Copied compressed context to clipboard")
		}
	}
	return nil
}

// parseModes validates the --mode values. Each must be rule, llm or auto;
// an empty list selects fallback. Duplicates are dropped.
func parseModes(values []string, fallback string) ([]summarize.Mode, error) {
	if len(values) == 0 {
		values = []string{fallback}
	}
	var modes []summarize.Mode
	seen := make(map[summarize.Mode]bool)
	add := func(m summarize.Mode) {
		if !seen[m] {
			seen[m] = true
			modes = append(modes, m)
		}
	}
	for _, v := range values {
		m, err := summarize.ParseMode(v)
		if err != nil {
			return nil, err
		}
		add(m)
	}
	return modes, nil
}

// progressPrinter renders pipeline events as progress lines.
func progressPrinter(w io.Writer) pipeline.Observer {
	return func(e *types.Event) {
		switch e.Type {
		case types.EventTypeStageStart:
			fmt.Fprintf(w, "→ %s\n", e.Stage)
		case types.EventTypeStageComplete:
			fmt.Fprintf(w, "✓ %s (%s): %s\n", e.Stage, e.Duration.Round(time.Microsecond), e.Detail)
		case types.EventTypeStageError:
			fmt.Fprintf(w, "✗ %s: %v\n", e.Stage, e.Error)
		case types.EventTypeSummaryFallback:
			fmt.Fprintf(w, "! LLM unavailable, using rule summary: %v\n", e.Error)
		}
	}
}
