package types

import (
	"fmt"
	"strings"
)

// Category classifies the kind of durable information a fact encodes.
type Category string

const (
	CategoryCompanyProfile Category = "company_profile"
	CategoryHardConstraint Category = "hard_constraint"
	CategoryBudget         Category = "budget"
	CategoryTimeline       Category = "timeline"
	CategoryOther          Category = "other"
)

var categoryRank = map[Category]int{
	CategoryCompanyProfile: 0,
	CategoryHardConstraint: 1,
	CategoryBudget:         2,
	CategoryTimeline:       3,
	CategoryOther:          4,
}

// Rank returns the category's position in the canonical fact ordering.
// Unknown categories sort last.
func (c Category) Rank() int {
	if r, ok := categoryRank[c]; ok {
		return r
	}
	return len(categoryRank)
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := categoryRank[c]
	return ok
}

// Fact is a durable, categorized statement extracted from a conversation.
type Fact struct {
	Category        Category `json:"category"`
	Text            string   `json:"text"`
	SourceTurnIndex int      `json:"source_turn_index"`
}

// Key identifies the fact for deduplication: category plus normalized text.
func (f Fact) Key() string {
	return string(f.Category) + "\x00" + NormalizeText(f.Text)
}

func (f Fact) String() string {
	return fmt.Sprintf("[%s] %s", f.Category, f.Text)
}

// NormalizeText lower-cases s and collapses all runs of whitespace.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
