package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/entrhq/distill/pkg/evaluate"
	"github.com/entrhq/distill/pkg/report"
	"github.com/entrhq/distill/pkg/store"
	"github.com/entrhq/distill/pkg/types"
)

type evaluateFlags struct {
	input       string
	groundTruth string
	outputDir   string
	reportDir   string
	noReport    bool
	asJSON      bool
}

func newEvaluateCmd(g *globalFlags) *cobra.Command {
	f := &evaluateFlags{}
	cmd := &cobra.Command{
		Use:   "evaluate [compressed_context.json ...]",
		Short: "Score compressed contexts against a ground-truth list",
		Long: `Evaluate scores each compressed context for weighted retention of the
ground-truth items and for token reduction against the original conversation.

Without arguments every compressed_context_<mode>.json in the output
directory is evaluated. Results are printed and written to report.json and
report.md.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd, g, f, args)
		},
	}

	cmd.Flags().StringVarP(&f.input, "input", "i", "data/conversation.json", "original conversation JSON file")
	cmd.Flags().StringVarP(&f.groundTruth, "ground-truth", "g", "data/ground_truth.yaml", "ground truth YAML or JSON file")
	cmd.Flags().StringVarP(&f.outputDir, "output-dir", "o", "", "directory holding compressed contexts (default from config)")
	cmd.Flags().StringVar(&f.reportDir, "report-dir", "", "directory for report.json and report.md (default: output dir)")
	cmd.Flags().BoolVar(&f.noReport, "no-report", false, "do not write report files")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print the report as JSON instead of tables")
	return cmd
}

func runEvaluate(cmd *cobra.Command, g *globalFlags, f *evaluateFlags, paths []string) error {
	cfg, err := g.loadConfig(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	gt, err := store.LoadGroundTruth(f.groundTruth)
	if err != nil {
		return err
	}
	conv, err := store.LoadConversation(f.input)
	if err != nil {
		return err
	}
	original, err := types.MarshalCompact(conv)
	if err != nil {
		return fmt.Errorf("failed to serialize conversation: %w", err)
	}

	outputDir := f.outputDir
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}
	contexts, err := loadContexts(outputDir, paths)
	if err != nil {
		return err
	}

	cmp := &report.Comparison{
		RunID:        uuid.NewString(),
		Conversation: f.input,
		GroundTruth:  f.groundTruth,
		GeneratedAt:  time.Now().UTC(),
	}
	for _, cc := range contexts {
		r, err := evaluate.Score(cc, gt, string(original))
		if err != nil {
			return fmt.Errorf("failed to score %s context: %w", cc.SourceMode, err)
		}
		cmp.Reports = append(cmp.Reports, r)
	}

	stdout := cmd.OutOrStdout()
	if f.asJSON {
		data, err := report.MarshalIndent(cmp)
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		fmt.Fprintln(stdout, string(data))
	} else {
		fmt.Fprintln(stdout, report.VariantTable(cmp.Reports))
		for _, r := range cmp.Reports {
			fmt.Fprintln(stdout, report.ItemTable(r))
		}
		if best := cmp.Best(); best != nil {
			fmt.Fprintf(stdout, "\nBest retention: %s (%.3f)\n", best.SourceMode, best.WeightedScore)
		}
	}

	if f.noReport {
		return nil
	}
	reportDir := f.reportDir
	if reportDir == "" {
		reportDir = outputDir
	}
	written, err := report.NewArtifactWriter(reportDir).WriteAll(cmp)
	if err != nil {
		return err
	}
	for _, p := range written {
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", p)
	}
	return nil
}

// loadContexts reads the given files, or every saved context in dir when
// none are given.
func loadContexts(dir string, paths []string) ([]*types.CompressedContext, error) {
	if len(paths) > 0 {
		out := make([]*types.CompressedContext, 0, len(paths))
		for _, p := range paths {
			cc, err := store.LoadContext(p)
			if err != nil {
				return nil, err
			}
			if cc.SourceMode == "" {
				cc.SourceMode = filepath.Base(p)
			}
			out = append(out, cc)
		}
		return out, nil
	}

	fs, err := store.NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	modes, err := fs.Modes()
	if err != nil {
		return nil, err
	}
	if len(modes) == 0 {
		return nil, fmt.Errorf("%w: no compressed contexts found in %s (run distill compress first)", types.ErrInvalidArgument, dir)
	}
	out := make([]*types.CompressedContext, 0, len(modes))
	for _, m := range modes {
		cc, err := fs.Load(m)
		if err != nil {
			return nil, err
		}
		out = append(out, cc)
	}
	return out, nil
}
