package types

// Strategy names the summarization strategy that produced a summary.
type Strategy string

const (
	StrategyRule Strategy = "rule"
	StrategyLLM  Strategy = "llm"
)

// Summary is the abstractive layer of a compressed context. StrategyUsed
// records the strategy that actually executed, which can differ from the
// requested mode when auto falls back.
type Summary struct {
	Text         string   `json:"text"`
	StrategyUsed Strategy `json:"strategy_used"`
}
