package pipeline

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/surveydeck-cli/internal/presentation"
	"github.com/KaramelBytes/surveydeck-cli/internal/telemetry"
)

// DeckOptions configures BuildDeck.
type DeckOptions struct {
	Output           string
	FooterLabel      string
	MaxSummaryTokens int
	// MetricsPath, when set with Metrics, receives the Prometheus textfile.
	MetricsPath string
	Metrics     *telemetry.Recorder
	Log         *zap.Logger
}

// BuildDeck assembles the eight-slide deck from an analyzed run and saves it
// to opt.Output. Missing charts degrade to warning boxes and are returned.
func BuildDeck(res *Results, opt DeckOptions) ([]string, error) {
	if res == nil || res.Metrics == nil {
		return nil, fmt.Errorf("build deck: no analysis results")
	}
	if opt.Output == "" {
		return nil, fmt.Errorf("build deck: output path is empty")
	}
	t0 := time.Now()
	out, err := presentation.Build(presentation.Input{
		DistributionChart: res.Artifacts.DistributionChart,
		ConfusionChart:    res.Artifacts.ConfusionChart,
		ImportanceChart:   res.Artifacts.ImportanceChart,
		ROCAUC:            res.Metrics.ROCAUC,
		TopFeatures:       res.Metrics.TopFeatures,
		Balance:           res.Metrics.Balance,
		FeatureCount:      res.Features,
		Summary:           res.Summary.Text,
		FooterLabel:       opt.FooterLabel,
		MaxSummaryTokens:  opt.MaxSummaryTokens,
	}, opt.Log)
	if err != nil {
		return nil, fmt.Errorf("build deck: %w", err)
	}
	if err := out.Deck.Save(opt.Output); err != nil {
		return nil, fmt.Errorf("save deck: %w", err)
	}
	res.Artifacts.Deck = opt.Output
	opt.Metrics.ObserveStage(telemetry.StageDeck, time.Since(t0))
	opt.Metrics.SetMissingAssets(len(out.MissingAssets))
	opt.Metrics.Finish(time.Now())
	if err := opt.Metrics.WriteTextfile(opt.MetricsPath); err != nil {
		return out.MissingAssets, err
	}
	return out.MissingAssets, nil
}
