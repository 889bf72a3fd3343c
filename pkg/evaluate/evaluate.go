// Package evaluate scores how much decision-relevant information a
// compressed context retains, and how much it shrank.
//
// Matching is keyword coverage over the context's combined text: an item
// whose keywords are at least 75% present is preserved, any presence is
// partial, none is missing. Adding text to a context can only raise
// coverage, so the score is monotonic in completeness.
package evaluate

import (
	"fmt"
	"unicode/utf8"

	"github.com/entrhq/distill/pkg/types"
)

// PreservedThreshold is the keyword coverage at which an item counts as
// preserved.
const PreservedThreshold = 0.75

// Score evaluates cc against gt. originalText is the uncompressed
// conversation text used for the reduction ratio. Neither input is
// modified.
//
// An invalid tier fails with types.ErrInvalidArgument; an empty ground
// truth fails with types.ErrDegenerateInput.
func Score(cc *types.CompressedContext, gt types.GroundTruth, originalText string) (*types.RetentionReport, error) {
	if cc == nil {
		return nil, fmt.Errorf("%w: compressed context is nil", types.ErrMissingLayer)
	}
	if err := gt.Validate(); err != nil {
		return nil, err
	}

	h := newHaystack(cc.CombinedText())
	items := make([]types.ItemResult, 0, len(gt))
	for _, item := range gt {
		items = append(items, scoreItem(h, item))
	}

	weighted, err := WeightedScore(items)
	if err != nil {
		return nil, err
	}

	serialized, err := types.MarshalCompact(cc)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize compressed context: %w", err)
	}
	chars := utf8.RuneCount(serialized)
	estimated := chars / 2
	original := EstimateTokens(originalText)

	return &types.RetentionReport{
		SourceMode:      cc.SourceMode,
		Items:           items,
		WeightedScore:   weighted,
		CharCount:       chars,
		EstimatedTokens: estimated,
		OriginalTokens:  original,
		ReductionRatio:  ReductionRatio(original, estimated),
	}, nil
}

func scoreItem(h *haystack, item types.GroundTruthItem) types.ItemResult {
	weight, _ := item.Tier.Weight()

	keywords := item.Keywords
	if len(keywords) == 0 {
		keywords = deriveKeywords(item.Description)
	}

	res := types.ItemResult{
		Item:            item,
		Weight:          weight,
		MatchedKeywords: []string{},
		MissingKeywords: []string{},
	}
	for _, k := range keywords {
		if h.matches(k) {
			res.MatchedKeywords = append(res.MatchedKeywords, k)
		} else {
			res.MissingKeywords = append(res.MissingKeywords, k)
		}
	}

	if len(keywords) > 0 {
		res.Coverage = float64(len(res.MatchedKeywords)) / float64(len(keywords))
	}
	res.Status = statusFor(res.Coverage)
	return res
}

func statusFor(coverage float64) types.RetentionStatus {
	switch {
	case coverage >= PreservedThreshold:
		return types.StatusPreserved
	case coverage > 0:
		return types.StatusPartial
	default:
		return types.StatusMissing
	}
}

// WeightedScore computes Σ(status × weight) / Σ(weight). A zero total
// weight fails with types.ErrDegenerateInput.
func WeightedScore(items []types.ItemResult) (float64, error) {
	var num float64
	var total int
	for _, it := range items {
		num += it.Status.Score() * float64(it.Weight)
		total += it.Weight
	}
	if total == 0 {
		return 0, fmt.Errorf("%w: ground truth has zero total weight", types.ErrDegenerateInput)
	}
	return num / float64(total), nil
}

// EstimateTokens approximates a token count as runes / 2. This is a size
// heuristic for comparing variants, not a tokenizer.
func EstimateTokens(text string) int {
	return utf8.RuneCountInString(text) / 2
}

// ReductionRatio returns 1 - estimated/original, or 0 when original is 0.
func ReductionRatio(original, estimated int) float64 {
	if original == 0 {
		return 0
	}
	return 1 - float64(estimated)/float64(original)
}
