// Package report renders retention reports for terminals and writes them
// as JSON and Markdown artifacts.
package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/entrhq/distill/pkg/store"
	"github.com/entrhq/distill/pkg/types"
)

// Comparison collects the reports for several compressed variants of the
// same conversation.
type Comparison struct {
	RunID        string                   `json:"run_id,omitempty"`
	Conversation string                   `json:"conversation"`
	GroundTruth  string                   `json:"ground_truth"`
	GeneratedAt  time.Time                `json:"generated_at"`
	Reports      []*types.RetentionReport `json:"reports"`
}

// Best returns the report with the highest weighted score, preferring the
// smaller context on ties. It returns nil for an empty comparison.
func (c *Comparison) Best() *types.RetentionReport {
	var best *types.RetentionReport
	for _, r := range c.Reports {
		if best == nil || r.WeightedScore > best.WeightedScore ||
			(r.WeightedScore == best.WeightedScore && r.EstimatedTokens < best.EstimatedTokens) {
			best = r
		}
	}
	return best
}

// ArtifactWriter writes comparison artifacts into one directory.
type ArtifactWriter struct {
	outputDir string
}

// NewArtifactWriter creates a new artifact writer
func NewArtifactWriter(outputDir string) *ArtifactWriter {
	return &ArtifactWriter{outputDir: outputDir}
}

// WriteAll writes report.json and report.md and returns their paths.
func (w *ArtifactWriter) WriteAll(c *Comparison) ([]string, error) {
	jsonPath, err := w.WriteJSON(c)
	if err != nil {
		return nil, fmt.Errorf("failed to write report JSON: %w", err)
	}
	mdPath, err := w.WriteMarkdown(c)
	if err != nil {
		return nil, fmt.Errorf("failed to write report markdown: %w", err)
	}
	return []string{jsonPath, mdPath}, nil
}

// WriteJSON writes the full comparison as JSON
func (w *ArtifactWriter) WriteJSON(c *Comparison) (string, error) {
	path := filepath.Join(w.outputDir, "report.json")
	if err := store.WriteJSON(path, c); err != nil {
		return "", err
	}
	return path, nil
}

// WriteMarkdown writes a human-readable markdown summary
func (w *ArtifactWriter) WriteMarkdown(c *Comparison) (string, error) {
	path := filepath.Join(w.outputDir, "report.md")
	if err := store.WriteFile(path, []byte(Markdown(c))); err != nil {
		return "", err
	}
	return path, nil
}

// Markdown renders the comparison as a Markdown document.
func Markdown(c *Comparison) string {
	var md strings.Builder

	md.WriteString("# Context Compression Report\n\n")
	if c.RunID != "" {
		md.WriteString(fmt.Sprintf("**Run:** `%s`\n\n", c.RunID))
	}
	if c.Conversation != "" {
		md.WriteString(fmt.Sprintf("**Conversation:** `%s`\n\n", c.Conversation))
	}
	if c.GroundTruth != "" {
		md.WriteString(fmt.Sprintf("**Ground truth:** `%s`\n\n", c.GroundTruth))
	}
	md.WriteString(fmt.Sprintf("**Generated:** %s\n\n", c.GeneratedAt.UTC().Format(time.RFC3339)))

	md.WriteString("## Variants\n\n")
	md.WriteString("| Mode | Weighted score | Est. tokens | Original tokens | Reduction |\n")
	md.WriteString("|---|---|---|---|---|\n")
	for _, r := range c.Reports {
		md.WriteString(fmt.Sprintf("| %s | %.3f | %d | %d | %.1f%% |\n",
			modeLabel(r), r.WeightedScore, r.EstimatedTokens, r.OriginalTokens, r.ReductionRatio*100))
	}
	md.WriteString("\n")

	if best := c.Best(); best != nil {
		md.WriteString(fmt.Sprintf("Best retention: **%s** (%.3f)\n\n", modeLabel(best), best.WeightedScore))
	}

	for _, r := range c.Reports {
		md.WriteString(fmt.Sprintf("## %s\n\n", modeLabel(r)))
		for _, it := range r.Items {
			md.WriteString(fmt.Sprintf("- %s **%s** (tier %d): %s", statusIcon(it.Status), it.Status, it.Item.Tier, it.Item.Description))
			if len(it.MissingKeywords) > 0 {
				md.WriteString(fmt.Sprintf(" (missing: %s)", strings.Join(it.MissingKeywords, ", ")))
			}
			md.WriteString("\n")
		}
		md.WriteString("\n")
	}

	return md.String()
}

// MarshalIndent is the JSON form used for report.json, exposed for
// printing to stdout.
func MarshalIndent(c *Comparison) ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

func modeLabel(r *types.RetentionReport) string {
	if r.SourceMode == "" {
		return "unknown"
	}
	return r.SourceMode
}

func statusIcon(s types.RetentionStatus) string {
	switch s {
	case types.StatusPreserved:
		return "✅"
	case types.StatusPartial:
		return "⚠️"
	default:
		return "❌"
	}
}
