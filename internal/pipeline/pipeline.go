// Package pipeline runs the survey report stages in order: ingest and clean,
// train and evaluate, render charts and summary, then assemble the deck.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KaramelBytes/surveydeck-cli/internal/ai"
	"github.com/KaramelBytes/surveydeck-cli/internal/charts"
	"github.com/KaramelBytes/surveydeck-cli/internal/dataset"
	"github.com/KaramelBytes/surveydeck-cli/internal/evaluation"
	"github.com/KaramelBytes/surveydeck-cli/internal/narrative"
	"github.com/KaramelBytes/surveydeck-cli/internal/telemetry"
)

// Options configures Analyze.
type Options struct {
	InputPath    string
	PlotsDir     string
	ResultsPath  string // empty skips the manifest
	WorkbookPath string // empty skips the workbook
	MetricsPath  string // empty skips the Prometheus textfile
	ChartDPI     int

	Load  dataset.LoadOptions
	Clean dataset.CleanOptions
	Train evaluation.Options

	// Runtime is the hosted summarizer; nil runs offline.
	Runtime ai.Runtime
	Summary narrative.Options
	// OnDelta receives streamed summary chunks.
	OnDelta func(string)
	// Step receives one human-readable line per finished stage.
	Step func(string)

	// Metrics may be nil.
	Metrics *telemetry.Recorder
	Log     *zap.Logger
}

func (o *Options) step(format string, args ...any) {
	if o.Step != nil {
		o.Step(fmt.Sprintf(format, args...))
	}
}

// Analyze runs ingestion, training, chart rendering and summarization.
// A missing input file or target column fails before any file is written.
func Analyze(ctx context.Context, opt Options) (*Results, error) {
	log := opt.Log
	if log == nil {
		log = zap.NewNop()
	}
	if opt.Train.Target == "" {
		opt.Train.Target = evaluation.DefaultOptions().Target
	}
	res := &Results{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		InputPath: opt.InputPath,
		Target:    opt.Train.Target,
	}
	log = log.With(zap.String("run_id", res.RunID))

	// Stage 1: ingestion and cleaning.
	t0 := time.Now()
	ds, err := dataset.Load(opt.InputPath, opt.Load)
	if err != nil {
		return nil, err
	}
	if !ds.Has(opt.Train.Target) {
		return nil, fmt.Errorf("%w: %q", dataset.ErrMissingTargetColumn, opt.Train.Target)
	}
	res.Rows = ds.Rows()
	stats := ds.Clean(opt.Clean)
	counts, err := ds.ValueCounts(opt.Train.Target)
	if err != nil {
		return nil, err
	}
	books, err := ds.Encode(opt.Train.Target)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	if cb, ok := books[opt.Train.Target]; ok {
		res.ClassLabels = cb.Labels
		opt.Train.ClassLabels = cb.Labels
	}
	log.Debug("dataset ready",
		zap.Int("rows", ds.Rows()),
		zap.Int("columns", ds.NumColumns()),
		zap.Any("gender", stats.GenderCounts),
		zap.Any("filled", stats.Filled),
		zap.Duration("took", time.Since(t0)))
	opt.Metrics.ObserveStage(telemetry.StageIngest, time.Since(t0))
	opt.step("Loaded %d rows, %d columns from %s", ds.Rows(), ds.NumColumns(), opt.InputPath)

	// Stage 2: training and evaluation.
	t0 = time.Now()
	rf, bundle, err := evaluation.Train(ctx, ds, opt.Train)
	if err != nil {
		return nil, err
	}
	res.Metrics = bundle
	res.Features = len(bundle.Importances)
	log.Debug("model evaluated",
		zap.Int("trees", rf.Trees()),
		zap.Int("train_rows", bundle.TrainRows),
		zap.Int("test_rows", bundle.TestRows),
		zap.Float64("roc_auc", bundle.ROCAUC),
		zap.Duration("took", time.Since(t0)))
	opt.Metrics.ObserveStage(telemetry.StageTrain, time.Since(t0))
	opt.Metrics.SetDataset(res.Rows, res.Features)
	opt.Metrics.SetModel(bundle.ROCAUC, bundle.Report.Accuracy)
	for _, w := range bundle.Warnings {
		log.Warn("evaluation", zap.String("warning", w))
	}
	opt.step("Trained random forest (%d trees): accuracy %.2f, ROC AUC %.2f", rf.Trees(), bundle.Report.Accuracy, bundle.ROCAUC)

	// Stage 3: report rendering.
	t0 = time.Now()
	r := charts.NewRenderer(opt.PlotsDir, opt.ChartDPI)
	if res.Artifacts.DistributionChart, err = r.TreatmentDistribution(counts); err != nil {
		return nil, err
	}
	if res.Artifacts.ConfusionChart, err = r.ConfusionMatrix(bundle.Confusion); err != nil {
		return nil, err
	}
	if res.Artifacts.ImportanceChart, err = r.FeatureImportance(bundle.Importances); err != nil {
		return nil, err
	}
	log.Debug("charts rendered", zap.String("dir", opt.PlotsDir), zap.Int("dpi", r.DPI), zap.Duration("took", time.Since(t0)))
	opt.Metrics.ObserveStage(telemetry.StageRender, time.Since(t0))
	opt.step("Saved charts to %s", opt.PlotsDir)

	if opt.WorkbookPath != "" {
		if err := evaluation.WriteWorkbook(bundle, opt.WorkbookPath); err != nil {
			return nil, err
		}
		res.Artifacts.Workbook = opt.WorkbookPath
		opt.step("Saved metrics workbook to %s", opt.WorkbookPath)
	}

	t0 = time.Now()
	res.Prompt = narrative.BuildPrompt(bundle.TopFeatures, bundle.Balance, bundle.ROCAUC)
	sum := narrative.NewSummarizer(opt.Runtime, opt.Summary, log)
	sum.OnDelta = opt.OnDelta
	s := sum.Summarize(ctx, res.Prompt)
	res.Summary = SummaryRecord{Source: s.Source, Text: s.Text}
	if s.Source != narrative.SourceOffline {
		res.Summary.Model = opt.Summary.Model
		if res.Summary.Model == "" {
			res.Summary.Model = ai.DefaultSummaryModel
		}
	}
	if s.Err != nil {
		res.Summary.Error = s.Err.Error()
		res.Summary.ErrorKind = ai.Kind(s.Err)
	}
	opt.Metrics.ObserveStage(telemetry.StageSummary, time.Since(t0))
	opt.Metrics.ObserveSummary(string(s.Source))

	res.FinishedAt = time.Now().UTC()
	opt.Metrics.Finish(res.FinishedAt)
	if err := opt.Metrics.WriteTextfile(opt.MetricsPath); err != nil {
		return nil, err
	}
	if opt.ResultsPath != "" {
		if err := res.Save(opt.ResultsPath); err != nil {
			return nil, err
		}
	}
	return res, nil
}
