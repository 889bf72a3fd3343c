package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/entrhq/distill/pkg/types"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#a78bfa")).Padding(0, 1)
	cellStyle      = lipgloss.NewStyle().Padding(0, 1)
	borderStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	preservedStyle = cellStyle.Foreground(lipgloss.Color("#22c55e"))
	partialStyle   = cellStyle.Foreground(lipgloss.Color("#eab308"))
	missingStyle   = cellStyle.Foreground(lipgloss.Color("#ef4444"))
	titleStyle     = lipgloss.NewStyle().Bold(true).MarginTop(1)
)

// VariantTable renders one row per report.
func VariantTable(reports []*types.RetentionReport) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("MODE", "SCORE", "EST. TOKENS", "ORIGINAL", "REDUCTION").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, r := range reports {
		t.Row(
			modeLabel(r),
			fmt.Sprintf("%.3f", r.WeightedScore),
			fmt.Sprintf("%d", r.EstimatedTokens),
			fmt.Sprintf("%d", r.OriginalTokens),
			fmt.Sprintf("%.1f%%", r.ReductionRatio*100),
		)
	}
	return t.String()
}

// ItemTable renders the per-item outcome of one report.
func ItemTable(r *types.RetentionReport) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("TIER", "STATUS", "ITEM", "MISSING").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 1 && row >= 0 && row < len(r.Items) {
				return statusStyle(r.Items[row].Status)
			}
			return cellStyle
		})

	for _, it := range r.Items {
		t.Row(
			fmt.Sprintf("%d", it.Item.Tier),
			string(it.Status),
			it.Item.Description,
			strings.Join(it.MissingKeywords, ", "),
		)
	}
	return titleStyle.Render(modeLabel(r)) + "\n" + t.String()
}

// ContextTable summarizes a compressed context's layers.
func ContextTable(cc *types.CompressedContext) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("CATEGORY", "FACT", "TURN").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, f := range cc.Memory {
		t.Row(string(f.Category), f.Text, fmt.Sprintf("%d", f.SourceTurnIndex))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Memory (%d facts)", len(cc.Memory))))
	b.WriteString("\n")
	b.WriteString(t.String())
	b.WriteString("\n")
	b.WriteString(titleStyle.Render(fmt.Sprintf("Summary (%s)", cc.Summary.StrategyUsed)))
	b.WriteString("\n")
	b.WriteString(cc.Summary.Text)
	b.WriteString("\n")
	b.WriteString(titleStyle.Render(fmt.Sprintf("Recent turns (%d)", len(cc.RecentTurns))))
	b.WriteString("\n")
	for _, turn := range cc.RecentTurns {
		b.WriteString(fmt.Sprintf("[%d] %s: %s\n", turn.Index, turn.Speaker, turn.Text))
	}
	return b.String()
}

func statusStyle(s types.RetentionStatus) lipgloss.Style {
	switch s {
	case types.StatusPreserved:
		return preservedStyle
	case types.StatusPartial:
		return partialStyle
	default:
		return missingStyle
	}
}

// HighlightJSON writes data to w with syntax highlighting. formatter is a
// chroma formatter name such as "terminal256" or "noop".
func HighlightJSON(w io.Writer, data []byte, formatter string) error {
	if formatter == "" {
		formatter = "terminal256"
	}
	if err := quick.Highlight(w, string(data), "json", formatter, "monokai"); err != nil {
		return fmt.Errorf("failed to highlight JSON: %w", err)
	}
	return nil
}
