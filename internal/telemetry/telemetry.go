// Package telemetry records per-run pipeline metrics in a Prometheus registry
// and writes them in the text exposition format, suitable for the node
// exporter textfile collector.
package telemetry

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/KaramelBytes/surveydeck-cli/internal/utils"
)

const namespace = "surveydeck"

// Stage names used as the "stage" label.
const (
	StageIngest  = "ingest"
	StageTrain   = "train"
	StageRender  = "render"
	StageSummary = "summary"
	StageDeck    = "deck"
)

// Recorder holds the collectors for one run. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	reg *prometheus.Registry

	stageSeconds  *prometheus.GaugeVec
	rows          prometheus.Gauge
	features      prometheus.Gauge
	rocAUC        prometheus.Gauge
	accuracy      prometheus.Gauge
	summaries     *prometheus.CounterVec
	missingAssets prometheus.Gauge
	lastRun       prometheus.Gauge
}

// NewRecorder returns a Recorder backed by a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		stageSeconds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_seconds",
			Help:      "Wall time of the last run's pipeline stages.",
		}, []string{"stage"}),
		rows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Survey rows loaded.",
		}),
		features: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_features",
			Help:      "Feature columns the classifier was trained on.",
		}),
		rocAUC: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_roc_auc",
			Help:      "ROC AUC on the test partition.",
		}),
		accuracy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_accuracy",
			Help:      "Accuracy on the test partition.",
		}),
		summaries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_total",
			Help:      "Executive summaries produced, partitioned by source.",
		}, []string{"source"}),
		missingAssets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "deck_missing_assets",
			Help:      "Charts replaced by a warning placeholder in the last deck.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
	}
	r.reg.MustRegister(r.stageSeconds, r.rows, r.features, r.rocAUC, r.accuracy, r.summaries, r.missingAssets, r.lastRun)
	return r
}

// Gatherer exposes the underlying registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.reg
}

// ObserveStage records how long stage took.
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	if r == nil {
		return
	}
	if d < 0 {
		d = 0
	}
	r.stageSeconds.WithLabelValues(stage).Set(d.Seconds())
}

// SetDataset records the loaded table size.
func (r *Recorder) SetDataset(rows, features int) {
	if r == nil {
		return
	}
	r.rows.Set(float64(rows))
	r.features.Set(float64(features))
}

// SetModel records headline evaluation metrics.
func (r *Recorder) SetModel(rocAUC, accuracy float64) {
	if r == nil {
		return
	}
	r.rocAUC.Set(rocAUC)
	r.accuracy.Set(accuracy)
}

// ObserveSummary counts one summary from source.
func (r *Recorder) ObserveSummary(source string) {
	if r == nil {
		return
	}
	r.summaries.WithLabelValues(source).Inc()
}

// SetMissingAssets records how many charts the deck could not embed.
func (r *Recorder) SetMissingAssets(n int) {
	if r == nil {
		return
	}
	r.missingAssets.Set(float64(n))
}

// Finish stamps the completion time.
func (r *Recorder) Finish(t time.Time) {
	if r == nil {
		return
	}
	r.lastRun.Set(float64(t.Unix()))
}

// WriteTextfile writes the registry to path in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
