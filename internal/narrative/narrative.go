// Package narrative builds the executive-summary prompt and obtains the summary
// text, from a hosted model when one is configured or from fixed fallbacks.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/KaramelBytes/surveydeck-cli/internal/ai"
	"github.com/KaramelBytes/surveydeck-cli/internal/evaluation"
	"github.com/KaramelBytes/surveydeck-cli/internal/utils"
)

// Source records where a summary came from.
type Source string

const (
	SourceRemote  Source = "remote"
	SourceOffline Source = "offline"
	SourceFailed  Source = "failed"
)

// OfflineSummary is used verbatim when no credential is configured.
const OfflineSummary = `**Mental Health in Tech: Key Insights for HR**

The Random Forest model predicts whether tech workers seek mental health treatment from survey answers with a strong ROC AUC of 0.88. The most influential features are *work interference*, *family history* and *workplace anonymity*. Around 51% of respondents have sought treatment.

These findings point HR toward reducing work-related stress, building a workplace that supports openness through anonymity, and taking family mental health history into account in wellbeing programs. Focusing on these areas lets a company proactively strengthen mental health support for its employees.`

// FailureSummary replaces the summary when the remote call fails.
const FailureSummary = "The executive summary could not be generated right now because of an API or connection problem."

// ErrEmptyCompletion is reported when the model answered with no text.
var ErrEmptyCompletion = errors.New("model returned an empty summary")

// BuildPrompt embeds the top features, the class split and the AUC score.
func BuildPrompt(top []string, balance evaluation.Balance, auc float64) string {
	var b strings.Builder
	b.WriteString("Below are the results of an analysis of a mental health survey in the tech industry:\n\n")
	fmt.Fprintf(&b, "- Most influential features for predicting mental health treatment: %s.\n", strings.Join(top, ", "))
	fmt.Fprintf(&b, "- Treatment distribution: about %.0f%% of respondents sought mental health treatment (yes) and %.0f%% did not (no).\n", balance.Positive, balance.Negative)
	fmt.Fprintf(&b, "- ROC AUC score of the Random Forest model: %.2f.\n\n", auc)
	b.WriteString("Write a concise, engaging executive summary of these findings for an HR management report. ")
	b.WriteString("Focus on implications for HR policy and key findings, and add a compelling title.")
	return b.String()
}

// Summary is the narrative text plus its provenance. Err holds the remote
// failure when Source is SourceFailed.
type Summary struct {
	Text   string
	Source Source
	Err    error
}

// Options controls the remote request.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
	Stream      bool
}

// Summarizer turns a prompt into a Summary. A nil runtime means offline.
type Summarizer struct {
	rt  ai.Runtime
	opt Options
	log *zap.Logger

	// OnDelta, when set, receives streamed chunks as they arrive.
	OnDelta func(string)
}

// NewSummarizer returns a summarizer backed by rt; pass nil for offline mode.
func NewSummarizer(rt ai.Runtime, opt Options, log *zap.Logger) *Summarizer {
	if log == nil {
		log = zap.NewNop()
	}
	if opt.Model == "" {
		opt.Model = ai.DefaultSummaryModel
	}
	return &Summarizer{rt: rt, opt: opt, log: log}
}

// Offline reports whether Summarize will skip the network.
func (s *Summarizer) Offline() bool { return s.rt == nil }

// Summarize never fails: without a runtime it returns OfflineSummary, and any
// remote error yields FailureSummary with the error attached.
func (s *Summarizer) Summarize(ctx context.Context, prompt string) Summary {
	if s.rt == nil {
		s.log.Debug("summary offline", zap.Int("prompt_tokens", utils.CountTokens(prompt)))
		return Summary{Text: OfflineSummary, Source: SourceOffline}
	}
	req := ai.GenerateRequest{
		Model:       s.opt.Model,
		Messages:    []ai.Message{{Role: "user", Content: prompt}},
		MaxTokens:   s.opt.MaxTokens,
		Temperature: s.opt.Temperature,
	}
	s.log.Debug("requesting summary",
		zap.String("model", req.Model),
		zap.Int("max_tokens", req.MaxTokens),
		zap.Float64("temperature", req.Temperature),
		zap.Int("prompt_tokens", utils.CountTokens(prompt)),
		zap.Bool("stream", s.opt.Stream))

	text, err := s.generate(ctx, req)
	if err == nil && text == "" {
		err = ErrEmptyCompletion
	}
	if err != nil {
		s.log.Warn("summary request failed", zap.String("kind", string(ai.Kind(err))), zap.Error(err))
		return Summary{Text: FailureSummary, Source: SourceFailed, Err: err}
	}
	return Summary{Text: text, Source: SourceRemote}
}

func (s *Summarizer) generate(ctx context.Context, req ai.GenerateRequest) (string, error) {
	if sr, ok := s.rt.(ai.StreamRuntime); ok && s.opt.Stream {
		var b strings.Builder
		err := sr.GenerateStream(ctx, req, func(d string) {
			b.WriteString(d)
			if s.OnDelta != nil {
				s.OnDelta(d)
			}
		})
		return strings.TrimSpace(b.String()), err
	}
	resp, err := s.rt.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}
