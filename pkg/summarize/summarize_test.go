package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/distill/pkg/llm"
	"github.com/entrhq/distill/pkg/types"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) GenerateSummary(ctx context.Context, conversationText, instruction string) (string, error) {
	args := m.Called(ctx, conversationText, instruction)
	return args.String(0), args.Error(1)
}

func (m *mockGenerator) HasCredential() bool {
	return m.Called().Bool(0)
}

func (m *mockGenerator) Name() string {
	return "mock:test"
}

func newConversation(t *testing.T, pairs ...[2]string) types.Conversation {
	t.Helper()
	conv, err := types.NewConversation(pairs...)
	require.NoError(t, err)
	return conv
}

func sampleConversation(t *testing.T) types.Conversation {
	return newConversation(t,
		[2]string{"user", "We keep losing track of deals in spreadsheets."},
		[2]string{"assistant", "What do you need from a CRM?"},
		[2]string{"user", "We need Slack integration."},
	)
}

func TestParseMode(t *testing.T) {
	for _, in := range []string{"rule", "llm", "auto", " AUTO "} {
		m, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.True(t, m.Valid())
	}

	_, err := ParseMode("fast")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
	assert.Contains(t, err.Error(), `"fast"`)
}

func TestSummarize_UnknownModeDoesNoWork(t *testing.T) {
	gen := new(mockGenerator)
	s := New(gen)

	summary, err := s.Summarize(context.Background(), sampleConversation(t), Mode("fast"))
	require.ErrorIs(t, err, types.ErrInvalidArgument)
	assert.Nil(t, summary)
	gen.AssertNotCalled(t, "HasCredential")
	gen.AssertNotCalled(t, "GenerateSummary", mock.Anything, mock.Anything, mock.Anything)
}

func TestSummarize_RuleNeverCallsGenerator(t *testing.T) {
	gen := new(mockGenerator)
	s := New(gen)

	summary, err := s.Summarize(context.Background(), sampleConversation(t), ModeRule)
	require.NoError(t, err)
	assert.Equal(t, types.StrategyRule, summary.StrategyUsed)
	gen.AssertNotCalled(t, "GenerateSummary", mock.Anything, mock.Anything, mock.Anything)
}

func TestSummarize_LLM(t *testing.T) {
	conv := sampleConversation(t)
	gen := new(mockGenerator)
	gen.On("HasCredential").Return(true)
	gen.On("GenerateSummary", mock.Anything, conv.Text(), Instruction()).
		Return("<think>reasoning</think>\nRequirements:\n- Slack integration", nil).Once()

	summary, err := New(gen).Summarize(context.Background(), conv, ModeLLM)
	require.NoError(t, err)
	assert.Equal(t, "Requirements:\n- Slack integration", summary.Text)
	assert.Equal(t, types.StrategyLLM, summary.StrategyUsed)
	gen.AssertExpectations(t)
}

func TestSummarize_LLMWithoutCredential(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("HasCredential").Return(false)

	summary, err := New(gen).Summarize(context.Background(), sampleConversation(t), ModeLLM)
	require.ErrorIs(t, err, types.ErrServiceUnavailable)
	assert.Nil(t, summary)
	gen.AssertNotCalled(t, "GenerateSummary", mock.Anything, mock.Anything, mock.Anything)
}

func TestSummarize_LLMNilGenerator(t *testing.T) {
	_, err := New(nil).Summarize(context.Background(), sampleConversation(t), ModeLLM)
	assert.ErrorIs(t, err, types.ErrServiceUnavailable)
}

func TestSummarize_AutoWithoutCredentialFallsBack(t *testing.T) {
	conv := sampleConversation(t)
	gen := new(mockGenerator)
	gen.On("HasCredential").Return(false)

	var cause error
	s := New(gen, WithFallbackHook(func(err error) { cause = err }))

	summary, err := s.Summarize(context.Background(), conv, ModeAuto)
	require.NoError(t, err)
	assert.Equal(t, types.StrategyRule, summary.StrategyUsed)
	assert.Equal(t, Rule(conv), summary)
	assert.ErrorIs(t, cause, types.ErrServiceUnavailable)
	gen.AssertNotCalled(t, "GenerateSummary", mock.Anything, mock.Anything, mock.Anything)
}

func TestSummarize_AutoFallsBackOnUnavailable(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("HasCredential").Return(true)
	gen.On("GenerateSummary", mock.Anything, mock.Anything, mock.Anything).
		Return("", llm.Unavailable(errors.New("503 overloaded"))).Once()

	summary, err := New(gen).Summarize(context.Background(), sampleConversation(t), ModeAuto)
	require.NoError(t, err)
	assert.Equal(t, types.StrategyRule, summary.StrategyUsed)
	gen.AssertExpectations(t)
}

func TestSummarize_AutoPropagatesOtherFailures(t *testing.T) {
	badRequest := errors.New("API request failed with status 400: invalid model")
	gen := new(mockGenerator)
	gen.On("HasCredential").Return(true)
	gen.On("GenerateSummary", mock.Anything, mock.Anything, mock.Anything).Return("", badRequest).Once()

	fellBack := false
	s := New(gen, WithFallbackHook(func(error) { fellBack = true }))

	summary, err := s.Summarize(context.Background(), sampleConversation(t), ModeAuto)
	require.ErrorIs(t, err, badRequest)
	assert.NotErrorIs(t, err, types.ErrServiceUnavailable)
	assert.Nil(t, summary)
	assert.False(t, fellBack)
}

func TestSummarize_AutoPropagatesEmptyResponse(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("HasCredential").Return(true)
	gen.On("GenerateSummary", mock.Anything, mock.Anything, mock.Anything).Return("<thinking>x</thinking>  ", nil).Once()

	_, err := New(gen).Summarize(context.Background(), sampleConversation(t), ModeAuto)
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
}

func TestSummarize_TimeoutIsUnavailable(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("HasCredential").Return(true)
	gen.On("GenerateSummary", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return("", context.DeadlineExceeded).Once()

	s := New(gen, WithTimeout(20*time.Millisecond))

	_, err := s.Summarize(context.Background(), sampleConversation(t), ModeLLM)
	require.ErrorIs(t, err, types.ErrServiceUnavailable)

	summary, err := s.Summarize(context.Background(), sampleConversation(t), ModeRule)
	require.NoError(t, err)
	assert.Equal(t, types.StrategyRule, summary.StrategyUsed)
}

func TestSummarize_TimeoutBoundsCall(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("HasCredential").Return(true)

	var deadline time.Time
	gen.On("GenerateSummary", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			deadline, _ = args.Get(0).(context.Context).Deadline()
		}).
		Return("ok", nil).Once()

	before := time.Now()
	_, err := New(gen, WithTimeout(5*time.Second)).Summarize(context.Background(), sampleConversation(t), ModeLLM)
	require.NoError(t, err)
	assert.WithinDuration(t, before.Add(5*time.Second), deadline, time.Second)
}

func TestSummarize_CallerCancellationPropagates(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("HasCredential").Return(true)
	gen.On("GenerateSummary", mock.Anything, mock.Anything, mock.Anything).Return("", context.Canceled).Once()

	_, err := New(gen).Summarize(context.Background(), sampleConversation(t), ModeAuto)
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, types.ErrServiceUnavailable)
}

func TestInstructionMentionsSections(t *testing.T) {
	lower := strings.ToLower(Instruction())
	for _, want := range []string{"pain points", "requirements", "constraints", "timeline"} {
		assert.Contains(t, lower, want)
	}
}
