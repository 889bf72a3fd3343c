package summarize

import (
	"strings"

	"github.com/entrhq/distill/pkg/types"
)

// emptySummary is produced when no user turn matches any section.
const emptySummary = "No decision-relevant content was identified in the conversation."

const maxEntryRunes = 200

type section struct {
	title    string
	keywords []string
	limit    int
}

// A user turn is added to every section whose keywords it contains, so one
// turn can appear under several headings. Rendering order is fixed, see
// renderOrder.
var (
	futureSection = section{
		title:    "Future considerations",
		keywords: []string{"以后", "将来", "未来", "后期", "later", "future", "eventually", "next year", "down the road"},
		limit:    2,
	}
	constraintSection = section{
		title:    "Constraints",
		keywords: []string{"必须", "不能", "不可以", "一定要", "要求", "务必", "must", "mandatory", "non-negotiable", "compliance"},
		limit:    3,
	}
	painSection = section{
		title:    "Pain points",
		keywords: []string{"问题", "麻烦", "困扰", "撞单", "丢单", "低效", "效率低", "分散", "混乱", "problem", "issue", "pain", "struggl", "frustrat", "inefficien", "messy", "duplicate", "lose track", "losing"},
		limit:    3,
	}
	requirementSection = section{
		title:    "Requirements",
		keywords: []string{"需要", "支持", "集成", "功能", "need", "require", "support", "integrat", "feature", "looking for"},
		limit:    5,
	}

	sections    = []*section{&painSection, &requirementSection, &constraintSection, &futureSection}
	renderOrder = []*section{&painSection, &requirementSection, &constraintSection}

	timelineKeywords = []string{"春节", "过年", "上线", "月底", "年底", "个月", "deadline", "launch", "go live", "go-live", "by q", "within", "weeks", "months"}
)

// Rule builds a summary from the user's turns with a fixed template. The
// result depends only on the conversation.
func Rule(conv types.Conversation) *types.Summary {
	entries := make(map[*section][]string)
	var timeline string

	for _, turn := range conv {
		if turn.Speaker != types.SpeakerUser || !turn.Usable() {
			continue
		}
		lower := strings.ToLower(turn.Text)
		entry := entryText(turn.Text)

		if containsAny(lower, timelineKeywords) {
			timeline = entry
		}
		for _, s := range sections {
			if containsAny(lower, s.keywords) && len(entries[s]) < s.limit {
				entries[s] = append(entries[s], entry)
			}
		}
	}

	var b strings.Builder
	for _, s := range renderOrder {
		writeSection(&b, s.title, entries[s])
	}
	if timeline != "" {
		b.WriteString("Timeline: ")
		b.WriteString(timeline)
		b.WriteString("\n")
	}
	writeSection(&b, futureSection.title, entries[&futureSection])

	text := strings.TrimSpace(b.String())
	if text == "" {
		text = emptySummary
	}
	return &types.Summary{Text: text, StrategyUsed: types.StrategyRule}
}

func writeSection(b *strings.Builder, title string, entries []string) {
	if len(entries) == 0 {
		return
	}
	b.WriteString(title)
	b.WriteString(":\n")
	for _, e := range entries {
		b.WriteString("- ")
		b.WriteString(e)
		b.WriteString("\n")
	}
}

func entryText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) > maxEntryRunes {
		return string(r[:maxEntryRunes]) + "…"
	}
	return s
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
