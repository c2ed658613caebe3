package pipeline

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/surveydeck-cli/internal/ai"
	"github.com/KaramelBytes/surveydeck-cli/internal/config"
	"github.com/KaramelBytes/surveydeck-cli/internal/dataset"
	"github.com/KaramelBytes/surveydeck-cli/internal/evaluation"
	"github.com/KaramelBytes/surveydeck-cli/internal/narrative"
)

// OptionsFromConfig maps the global configuration onto Analyze options.
// The runtime is left nil; see NewRuntime.
func OptionsFromConfig(cfg *config.Global, log *zap.Logger) Options {
	train := evaluation.DefaultOptions()
	train.Target = cfg.TargetColumn
	train.DropColumns = cfg.DropColumns
	train.TestSize = cfg.TestSize
	train.Seed = cfg.RandomSeed
	train.NEstimators = cfg.NEstimators
	train.MaxDepth = cfg.MaxDepth
	train.MaxFeatures = cfg.MaxFeatures

	clean := dataset.DefaultCleanOptions()
	clean.FillColumns = cfg.FillColumns
	clean.FillValue = cfg.FillValue

	return Options{
		InputPath:    cfg.InputPath,
		PlotsDir:     cfg.PlotsDir,
		ResultsPath:  cfg.ResultsPath,
		WorkbookPath: cfg.WorkbookPath,
		MetricsPath:  cfg.MetricsPath,
		ChartDPI:     cfg.ChartDPI,
		Load:         dataset.LoadOptions{TextColumns: cfg.TextColumns},
		Clean:        clean,
		Train:        train,
		Summary: narrative.Options{
			Model:       cfg.SummaryModel,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Stream:      cfg.SummaryStream,
		},
		Log: log,
	}
}

// NewRuntime returns the configured summarizer runtime, or nil when the run
// should stay offline: offline was requested, or a hosted provider has no
// credential. Ollama needs no credential.
func NewRuntime(cfg *config.Global, offline bool) (ai.Runtime, error) {
	if offline {
		return nil, nil
	}
	provider := cfg.SummaryProvider
	if provider == "" {
		provider = ai.ProviderReplicate
	}
	if provider != ai.ProviderOllama && cfg.APIToken == "" {
		return nil, nil
	}
	rt, ok := ai.GetRuntime(provider, ai.RuntimeConfig{
		HTTPTimeout: time.Duration(cfg.HTTPTimeoutSec) * time.Second,
		RetryMax:    cfg.RetryMaxAttempts,
		BaseDelay:   time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(cfg.RetryMaxDelayMs) * time.Millisecond,
		APIKey:      cfg.APIToken,
		Host:        cfg.OllamaHost,
	})
	if !ok {
		return nil, fmt.Errorf("unknown summary provider %q (available: %v)", provider, ai.Providers())
	}
	return rt, nil
}
