package types

import "fmt"

// Tier ranks how important a ground-truth item is to retain. Tier 1 is the
// most important.
type Tier int

// Weight returns the scoring weight of the tier: 3, 2 or 1.
func (t Tier) Weight() (int, error) {
	switch t {
	case 1:
		return 3, nil
	case 2:
		return 2, nil
	case 3:
		return 1, nil
	default:
		return 0, fmt.Errorf("%w: tier must be 1, 2 or 3, got %d", ErrInvalidArgument, int(t))
	}
}

// GroundTruthItem is one fact or requirement an evaluator expects the
// compressed context to retain. Keywords is optional; when empty, keywords
// are derived from Description. A keyword of the form "a|b" matches if any
// alternative matches.
type GroundTruthItem struct {
	Description string   `json:"description" yaml:"description"`
	Tier        Tier     `json:"tier" yaml:"tier"`
	Keywords    []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// GroundTruth is the reference list a context is scored against.
type GroundTruth []GroundTruthItem

// Validate checks every item's tier and description.
func (g GroundTruth) Validate() error {
	for i, item := range g {
		if _, err := item.Tier.Weight(); err != nil {
			return fmt.Errorf("ground truth item %d (%q): %w", i, item.Description, err)
		}
		if item.Description == "" && len(item.Keywords) == 0 {
			return fmt.Errorf("%w: ground truth item %d has neither description nor keywords", ErrInvalidArgument, i)
		}
	}
	return nil
}

// RetentionStatus is how completely an item survives compression.
type RetentionStatus string

const (
	StatusPreserved RetentionStatus = "preserved"
	StatusPartial   RetentionStatus = "partial"
	StatusMissing   RetentionStatus = "missing"
)

// Score maps the status onto 1.0, 0.5 or 0.0.
func (s RetentionStatus) Score() float64 {
	switch s {
	case StatusPreserved:
		return 1.0
	case StatusPartial:
		return 0.5
	default:
		return 0.0
	}
}

// ItemResult is the outcome for a single ground-truth item.
type ItemResult struct {
	Item            GroundTruthItem `json:"item"`
	Weight          int             `json:"weight"`
	Status          RetentionStatus `json:"status"`
	Coverage        float64         `json:"coverage"`
	MatchedKeywords []string        `json:"matched_keywords"`
	MissingKeywords []string        `json:"missing_keywords"`
}

// RetentionReport scores one compressed context against a ground truth.
// Token counts are estimates (runes / 2), not tokenizer output.
type RetentionReport struct {
	SourceMode      string       `json:"source_mode,omitempty"`
	Items           []ItemResult `json:"items"`
	WeightedScore   float64      `json:"weighted_score"`
	CharCount       int          `json:"char_count"`
	EstimatedTokens int          `json:"estimated_tokens"`
	OriginalTokens  int          `json:"original_tokens"`
	ReductionRatio  float64      `json:"reduction_ratio"`
}
