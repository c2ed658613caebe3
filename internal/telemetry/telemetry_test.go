package telemetry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCollects(t *testing.T) {
	r := NewRecorder()
	r.ObserveStage(StageTrain, 1500*time.Millisecond)
	r.ObserveStage(StageIngest, -time.Second)
	r.SetDataset(1259, 24)
	r.SetModel(0.88, 0.81)
	r.ObserveSummary("offline")
	r.ObserveSummary("offline")
	r.SetMissingAssets(1)

	assert.InDelta(t, 1.5, testutil.ToFloat64(r.stageSeconds.WithLabelValues(StageTrain)), 1e-9)
	assert.Equal(t, 0.0, testutil.ToFloat64(r.stageSeconds.WithLabelValues(StageIngest)))
	assert.Equal(t, 1259.0, testutil.ToFloat64(r.rows))
	assert.Equal(t, 24.0, testutil.ToFloat64(r.features))
	assert.Equal(t, 0.88, testutil.ToFloat64(r.rocAUC))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.summaries.WithLabelValues("offline")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.missingAssets))
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.SetModel(0.75, 0.7)
	r.Finish(time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "nested", "surveydeck.prom")
	require.NoError(t, r.WriteTextfile(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "surveydeck_model_roc_auc 0.75")
	assert.Contains(t, string(b), "# HELP surveydeck_last_run_timestamp_seconds")
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	r.ObserveStage(StageDeck, time.Second)
	r.SetDataset(1, 1)
	r.SetModel(1, 1)
	r.ObserveSummary("remote")
	r.SetMissingAssets(3)
	r.Finish(time.Now())
	assert.NoError(t, r.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
	mfs, err := r.Gatherer().Gather()
	require.NoError(t, err)
	assert.Empty(t, mfs)
}
