// Package extract pulls durable, categorized facts out of a conversation
// with a fixed table of deterministic pattern rules. It never calls an
// external service, so its output is reproducible and free of invented
// content.
package extract

import (
	"sort"
	"strings"

	"github.com/entrhq/distill/pkg/logging"
	"github.com/entrhq/distill/pkg/types"
)

var debugLog *logging.Logger

func init() {
	var err error
	debugLog, err = logging.NewLogger("extract")
	if err != nil {
		debugLog.Warnf("Failed to initialize extract logger, using stderr fallback: %v", err)
	}
}

// Extract applies every rule to every usable turn and returns the
// deduplicated facts, ordered by source turn, then category, then rule
// order. Turns with no text or an unknown speaker are skipped. An empty
// conversation yields an empty, non-nil slice.
func Extract(conv types.Conversation) []types.Fact {
	facts := make([]types.Fact, 0)
	seen := make(map[string]bool)

	for _, turn := range conv {
		if !turn.Usable() {
			debugLog.Debugf("skipping turn %d: missing text or unknown speaker %q", turn.Index, turn.Speaker)
			continue
		}

		lower := strings.ToLower(turn.Text)
		var turnFacts []types.Fact
		for _, r := range rules {
			if r.userOnly && turn.Speaker != types.SpeakerUser {
				continue
			}
			for _, text := range r.match(turn.Text, lower) {
				f := types.Fact{Category: r.category, Text: text, SourceTurnIndex: turn.Index}
				key := f.Key()
				if seen[key] {
					continue
				}
				seen[key] = true
				debugLog.Debugf("rule %s matched turn %d: %s", r.name, turn.Index, text)
				turnFacts = append(turnFacts, f)
			}
		}
		facts = append(facts, turnFacts...)
	}

	sort.SliceStable(facts, func(i, j int) bool {
		if facts[i].SourceTurnIndex != facts[j].SourceTurnIndex {
			return facts[i].SourceTurnIndex < facts[j].SourceTurnIndex
		}
		return facts[i].Category.Rank() < facts[j].Category.Rank()
	})
	return facts
}

// RuleNames lists the rule table in evaluation order.
func RuleNames() []string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.name
	}
	return names
}
