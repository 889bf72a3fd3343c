package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/distill/pkg/types"
)

func sampleContext() *types.CompressedContext {
	return &types.CompressedContext{
		Memory: []types.Fact{
			{Category: types.CategoryCompanyProfile, Text: "business model: B2B", SourceTurnIndex: 0},
			{Category: types.CategoryHardConstraint, Text: "数据必须存储在国内", SourceTurnIndex: 4},
		},
		Summary: types.Summary{Text: "Requirements:\n- <SSO> & audit", StrategyUsed: types.StrategyRule},
		RecentTurns: []types.Turn{
			{Speaker: types.SpeakerAssistant, Text: "好的，预算方面大概是多少？", Index: 5},
			{Speaker: types.SpeakerUser, Text: "预算一年20万左右", Index: 6},
		},
		GeneratedAt: time.Date(2025, 1, 15, 1, 30, 0, 123000000, time.UTC),
		SourceMode:  "auto",
	}
}

func TestParseConversation_Wrapper(t *testing.T) {
	conv, err := ParseConversation([]byte(`{"messages":[
		{"role":"user","content":"我们需要CRM"},
		{"role":"assistant","content":"好的"}
	]}`))
	require.NoError(t, err)

	want := types.Conversation{
		{Speaker: types.SpeakerUser, Text: "我们需要CRM", Index: 0},
		{Speaker: types.SpeakerAssistant, Text: "好的", Index: 1},
	}
	assert.Equal(t, want, conv)
}

func TestParseConversation_BareArray(t *testing.T) {
	conv, err := ParseConversation([]byte(` [{"speaker":"User","text":"hi"},{"speaker":"assistant"}]`))
	require.NoError(t, err)
	require.Len(t, conv, 2)
	assert.Equal(t, types.SpeakerUser, conv[0].Speaker)
	assert.Equal(t, "", conv[1].Text)
	assert.Equal(t, 1, conv[1].Index)
}

func TestParseConversation_Errors(t *testing.T) {
	_, err := ParseConversation([]byte(`[{"speaker":"system","text":"x"}]`))
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = ParseConversation([]byte(`{"messages": 3}`))
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = ParseConversation([]byte(`not json`))
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestParseConversation_Empty(t *testing.T) {
	conv, err := ParseConversation([]byte(`{"messages":[]}`))
	require.NoError(t, err)
	assert.Empty(t, conv)
}

func TestLoadConversation_Missing(t *testing.T) {
	_, err := LoadConversation(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestContextRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ctx.json")
	cc := sampleContext()

	require.NoError(t, SaveContext(path, cc))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "数据必须存储在国内")
	assert.Contains(t, string(raw), "<SSO> & audit")
	assert.Contains(t, string(raw), "\n  \"memory\"")

	_, err = os.Stat(path + ".tmp")
	assert.ErrorIs(t, err, os.ErrNotExist)

	got, err := LoadContext(path)
	require.NoError(t, err)
	if diff := cmp.Diff(cc, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveContext_Nil(t *testing.T) {
	err := SaveContext(filepath.Join(t.TempDir(), "x.json"), nil)
	assert.ErrorIs(t, err, types.ErrMissingLayer)
}

func TestLoadContext_NotFound(t *testing.T) {
	_, err := LoadContext(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")
	fs, err := NewFileStore(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, fs.Dir())

	cc := sampleContext()
	path, err := fs.Save(cc)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "compressed_context_auto.json"), path)

	rule := sampleContext()
	rule.SourceMode = "rule"
	_, err = fs.Save(rule)
	require.NoError(t, err)

	modes, err := fs.Modes()
	require.NoError(t, err)
	assert.Equal(t, []string{"auto", "rule"}, modes)

	got, err := fs.Load("auto")
	require.NoError(t, err)
	if diff := cmp.Diff(cc, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	_, err = fs.PathFor("../etc")
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestParseGroundTruth(t *testing.T) {
	yamlList := []byte(`
- description: B2B company
  tier: 1
  keywords: [b2b]
- description: WeChat integration
  tier: 3
`)
	gt, err := ParseGroundTruth(yamlList, false)
	require.NoError(t, err)
	want := types.GroundTruth{
		{Description: "B2B company", Tier: 1, Keywords: []string{"b2b"}},
		{Description: "WeChat integration", Tier: 3},
	}
	assert.Equal(t, want, gt)

	yamlWrapped := []byte("# reference\nitems:\n  - description: B2B company\n    tier: 1\n    keywords: [b2b]\n  - description: WeChat integration\n    tier: 3\n")
	gt, err = ParseGroundTruth(yamlWrapped, false)
	require.NoError(t, err)
	assert.Equal(t, want, gt)

	jsonWrapped := []byte(`{"items":[{"description":"B2B company","tier":1,"keywords":["b2b"]},{"description":"WeChat integration","tier":3}]}`)
	gt, err = ParseGroundTruth(jsonWrapped, true)
	require.NoError(t, err)
	assert.Equal(t, want, gt)
}

func TestParseGroundTruth_InvalidTier(t *testing.T) {
	_, err := ParseGroundTruth([]byte(`[{"description":"x","tier":5}]`), true)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestLoadGroundTruth_ByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gt.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"description":"budget","tier":2}]`), 0o600))

	gt, err := LoadGroundTruth(path)
	require.NoError(t, err)
	require.Len(t, gt, 1)
	assert.Equal(t, types.Tier(2), gt[0].Tier)
}
