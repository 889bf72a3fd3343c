package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/distill/pkg/llm"
)

func collect(f *ReasoningFilter, chunks ...string) (reasoning, message string) {
	var r, m strings.Builder
	add := func(rc, mc *llm.StreamChunk) {
		if rc != nil {
			r.WriteString(rc.Content)
		}
		if mc != nil {
			m.WriteString(mc.Content)
		}
	}
	for _, c := range chunks {
		add(f.Parse(c))
	}
	add(f.Flush())
	return r.String(), m.String()
}

func TestReasoningFilter_PlainText(t *testing.T) {
	f := NewReasoningFilter()
	r, m := collect(f, "Pain points: duplicate deals")
	assert.Empty(t, r)
	assert.Equal(t, "Pain points: duplicate deals", m)
}

func TestReasoningFilter_ThinkingBlock(t *testing.T) {
	f := NewReasoningFilter()
	r, m := collect(f, "<thinking>the user wants a CRM</thinking>Summary text")
	assert.Equal(t, "the user wants a CRM", r)
	assert.Equal(t, "Summary text", m)
}

func TestReasoningFilter_ThinkBlock(t *testing.T) {
	f := NewReasoningFilter()
	r, m := collect(f, "<think>draft</think>Final")
	assert.Equal(t, "draft", r)
	assert.Equal(t, "Final", m)
}

func TestReasoningFilter_TagSplitAcrossChunks(t *testing.T) {
	f := NewReasoningFilter()
	r, m := collect(f, "<thin", "king>hidden</thi", "nking>visible")
	assert.Equal(t, "hidden", r)
	assert.Equal(t, "visible", m)
}

func TestReasoningFilter_OtherTagsPassThrough(t *testing.T) {
	f := NewReasoningFilter()
	r, m := collect(f, "Use <b>bold</b> and a < b")
	assert.Empty(t, r)
	assert.Equal(t, "Use <b>bold</b> and a < b", m)
}

func TestReasoningFilter_MismatchedCloseStaysInside(t *testing.T) {
	f := NewReasoningFilter()
	r, m := collect(f, "<think>a</thinking>b</think>c")
	assert.Equal(t, "a</thinking>b", r)
	assert.Equal(t, "c", m)
}

func TestReasoningFilter_DanglingTagFlushed(t *testing.T) {
	f := NewReasoningFilter()
	r, m := collect(f, "answer <thin")
	assert.Empty(t, r)
	assert.Equal(t, "answer <thin", m)
}

func TestReasoningFilter_Reset(t *testing.T) {
	f := NewReasoningFilter()
	f.Parse("<thinking>open")
	require.True(t, f.InReasoning())

	f.Reset()
	assert.False(t, f.InReasoning())
	_, m := collect(f, "fresh")
	assert.Equal(t, "fresh", m)
}

func TestStripReasoning(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"only reasoning", "<think>x</think>", ""},
		{"leading reasoning", "<thinking>plan</thinking>\n\nRequirements:\n- CRM", "Requirements:\n- CRM"},
		{"uppercase tags", "<THINK>plan</THINK>done", "done"},
		{"unclosed reasoning", "<think>never closes", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripReasoning(tt.in))
		})
	}
}
