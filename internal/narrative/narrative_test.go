package narrative

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/surveydeck-cli/internal/ai"
	"github.com/KaramelBytes/surveydeck-cli/internal/evaluation"
)

type fakeRuntime struct {
	text   string
	chunks []string
	err    error
	got    ai.GenerateRequest
	calls  int
}

func (f *fakeRuntime) Generate(_ context.Context, req ai.GenerateRequest) (*ai.GenerateResponse, error) {
	f.calls++
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &ai.GenerateResponse{Choices: []ai.Choice{{Message: ai.Message{Content: f.text}}}}, nil
}

type fakeStreamRuntime struct{ fakeRuntime }

func (f *fakeStreamRuntime) GenerateStream(_ context.Context, req ai.GenerateRequest, onDelta func(string)) error {
	f.calls++
	f.got = req
	for _, c := range f.chunks {
		onDelta(c)
	}
	return f.err
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(
		[]string{"work_interfere", "family_history", "Age"},
		evaluation.Balance{Positive: 50.8, Negative: 49.2},
		0.8791,
	)
	assert.Contains(t, p, "work_interfere, family_history, Age.")
	assert.Contains(t, p, "about 51% of respondents")
	assert.Contains(t, p, "49% did not")
	assert.Contains(t, p, "0.88.")
}

func TestOfflineSummaryWithoutRuntime(t *testing.T) {
	s := NewSummarizer(nil, Options{}, nil)
	assert.True(t, s.Offline())
	sum := s.Summarize(context.Background(), "prompt")
	assert.Equal(t, OfflineSummary, sum.Text)
	assert.Equal(t, SourceOffline, sum.Source)
	assert.NoError(t, sum.Err)
}

func TestRemoteSummaryIsTrimmed(t *testing.T) {
	rt := &fakeRuntime{text: "\n  HR should act now.  \n"}
	s := NewSummarizer(rt, Options{MaxTokens: 250, Temperature: 0.7}, nil)
	sum := s.Summarize(context.Background(), "prompt")

	assert.Equal(t, "HR should act now.", sum.Text)
	assert.Equal(t, SourceRemote, sum.Source)
	assert.Equal(t, ai.DefaultSummaryModel, rt.got.Model)
	assert.Equal(t, 250, rt.got.MaxTokens)
	assert.Equal(t, 0.7, rt.got.Temperature)
	require.Len(t, rt.got.Messages, 1)
	assert.Equal(t, "prompt", rt.got.Messages[0].Content)
}

func TestRemoteFailureUsesFallback(t *testing.T) {
	boom := &ai.AuthError{APIError: &ai.APIError{StatusCode: 401}}
	s := NewSummarizer(&fakeRuntime{err: boom}, Options{}, nil)
	sum := s.Summarize(context.Background(), "prompt")

	assert.Equal(t, FailureSummary, sum.Text)
	assert.Equal(t, SourceFailed, sum.Source)
	var ae *ai.AuthError
	assert.True(t, errors.As(sum.Err, &ae))
}

func TestEmptyCompletionIsFailure(t *testing.T) {
	sum := NewSummarizer(&fakeRuntime{text: "   "}, Options{}, nil).Summarize(context.Background(), "p")
	assert.Equal(t, SourceFailed, sum.Source)
	assert.ErrorIs(t, sum.Err, ErrEmptyCompletion)
}

func TestStreamingConcatenatesChunks(t *testing.T) {
	rt := &fakeStreamRuntime{fakeRuntime{chunks: []string{"Work ", "interference ", "leads."}}}
	s := NewSummarizer(rt, Options{Stream: true}, nil)
	var seen []string
	s.OnDelta = func(d string) { seen = append(seen, d) }

	sum := s.Summarize(context.Background(), "p")
	assert.Equal(t, "Work interference leads.", sum.Text)
	assert.Equal(t, 3, len(seen))
	assert.Equal(t, 1, rt.calls)
}

func TestStreamingDisabledUsesGenerate(t *testing.T) {
	rt := &fakeStreamRuntime{fakeRuntime{text: "whole", chunks: []string{"part"}}}
	sum := NewSummarizer(rt, Options{}, nil).Summarize(context.Background(), "p")
	assert.Equal(t, "whole", sum.Text)
}

func TestFallbackTextsAreFixed(t *testing.T) {
	assert.True(t, strings.HasPrefix(OfflineSummary, "**Mental Health in Tech"))
	assert.NotEmpty(t, FailureSummary)
}
