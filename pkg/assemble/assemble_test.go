package assemble

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/distill/pkg/types"
)

var fixed = time.Date(2025, 1, 15, 9, 30, 0, 0, time.FixedZone("CST", 8*3600))

func conversationOf(n int) types.Conversation {
	conv := make(types.Conversation, n)
	for i := range conv {
		speaker := types.SpeakerUser
		if i%2 == 1 {
			speaker = types.SpeakerAssistant
		}
		conv[i] = types.Turn{Speaker: speaker, Text: fmt.Sprintf("turn %d", i+1), Index: i}
	}
	return conv
}

func TestAssemble_SixTurnsKeepsLastFour(t *testing.T) {
	conv := conversationOf(6)
	facts := []types.Fact{{Category: types.CategoryBudget, Text: "budget: 20万", SourceTurnIndex: 0}}
	summary := &types.Summary{Text: "s", StrategyUsed: types.StrategyRule}

	cc, err := Assemble(facts, summary, conv, WithClock(func() time.Time { return fixed }), WithSourceMode("auto"))
	require.NoError(t, err)

	if diff := cmp.Diff([]types.Turn(conv[2:]), cc.RecentTurns); diff != "" {
		t.Errorf("recent turns mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "turn 3", cc.RecentTurns[0].Text)
	assert.Equal(t, "turn 6", cc.RecentTurns[3].Text)
	assert.Equal(t, facts, cc.Memory)
	assert.Equal(t, *summary, cc.Summary)
	assert.Equal(t, "auto", cc.SourceMode)
	assert.Equal(t, fixed.UTC(), cc.GeneratedAt)
	assert.Equal(t, time.UTC, cc.GeneratedAt.Location())
}

func TestAssemble_WindowIsSuffix(t *testing.T) {
	for n := 0; n <= 9; n++ {
		t.Run(fmt.Sprintf("%d turns", n), func(t *testing.T) {
			conv := conversationOf(n)
			cc, err := Assemble([]types.Fact{}, &types.Summary{}, conv)
			require.NoError(t, err)

			want := n
			if want > types.WindowSize {
				want = types.WindowSize
			}
			require.Len(t, cc.RecentTurns, want)
			for i, turn := range cc.RecentTurns {
				assert.Equal(t, conv[n-want+i], turn)
			}
		})
	}
}

func TestAssemble_MissingSummary(t *testing.T) {
	cc, err := Assemble([]types.Fact{}, nil, conversationOf(3))
	require.ErrorIs(t, err, types.ErrMissingLayer)
	assert.Nil(t, cc)
}

func TestAssemble_MissingFacts(t *testing.T) {
	cc, err := Assemble(nil, &types.Summary{Text: "s"}, conversationOf(3))
	require.ErrorIs(t, err, types.ErrMissingLayer)
	assert.Nil(t, cc)
}

func TestAssemble_EmptyFactsIsValid(t *testing.T) {
	cc, err := Assemble([]types.Fact{}, &types.Summary{Text: "s", StrategyUsed: types.StrategyLLM}, nil)
	require.NoError(t, err)
	assert.NotNil(t, cc.Memory)
	assert.Empty(t, cc.Memory)
	assert.Empty(t, cc.RecentTurns)
	assert.Equal(t, "llm", cc.SourceMode)
}

func TestAssemble_DoesNotAliasInputs(t *testing.T) {
	conv := conversationOf(5)
	facts := []types.Fact{{Category: types.CategoryOther, Text: "current tooling: Excel"}}
	summary := &types.Summary{Text: "original"}

	cc, err := Assemble(facts, summary, conv)
	require.NoError(t, err)

	facts[0].Text = "mutated"
	conv[4].Text = "mutated"
	summary.Text = "mutated"

	assert.Equal(t, "current tooling: Excel", cc.Memory[0].Text)
	assert.Equal(t, "turn 5", cc.RecentTurns[3].Text)
	assert.Equal(t, "original", cc.Summary.Text)
}
