package pipeline

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/surveydeck-cli/internal/ai"
	"github.com/KaramelBytes/surveydeck-cli/internal/config"
	"github.com/KaramelBytes/surveydeck-cli/internal/dataset"
	"github.com/KaramelBytes/surveydeck-cli/internal/narrative"
	"github.com/KaramelBytes/surveydeck-cli/internal/pptx"
	"github.com/KaramelBytes/surveydeck-cli/internal/presentation"
	"github.com/KaramelBytes/surveydeck-cli/internal/telemetry"
)

// writeSurvey writes a ten-row survey with a balanced treatment column.
func writeSurvey(t *testing.T, dir string) string {
	t.Helper()
	rows := [][]string{
		{"Timestamp", "Age", " Gender ", "self_employed", "family_history", "work_interfere", "anonymity", "treatment", "comments"},
		{"2014-08-27 11:29:31", "37", "Female", "", "No", "Often", "Yes", "Yes", ""},
		{"2014-08-27 11:29:37", "44", "M", "No", "No", "Rarely", "Don't know", "No", ""},
		{"2014-08-27 11:29:44", "32", "Male", "No", "No", "Rarely", "Don't know", "No", ""},
		{"2014-08-27 11:29:46", "31", "male", "No", "Yes", "Often", "No", "Yes", "stress"},
		{"2014-08-27 11:30:22", "31", "Male", "No", "No", "Never", "Don't know", "No", ""},
		{"2014-08-27 11:31:22", "33", "female", "No", "Yes", "Sometimes", "Yes", "Yes", ""},
		{"2014-08-27 11:31:50", "35", "Male", "", "Yes", "Sometimes", "No", "Yes", ""},
		{"2014-08-27 11:32:05", "39", "M", "No", "No", "NA", "Yes", "No", ""},
		{"2014-08-27 11:32:39", "42", "Female", "No", "Yes", "Sometimes", "No", "Yes", ""},
		{"2014-08-27 11:32:43", "23", "Male", "No", "No", "Never", "Don't know", "No", ""},
	}
	p := filepath.Join(dir, "survey.csv")
	f, err := os.Create(p)
	require.NoError(t, err)
	w := csv.NewWriter(f)
	require.NoError(t, w.WriteAll(rows))
	require.NoError(t, f.Close())
	return p
}

func testOptions(t *testing.T) (Options, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.InputPath = writeSurvey(t, dir)
	cfg.PlotsDir = filepath.Join(dir, "plots_output")
	cfg.ResultsPath = filepath.Join(cfg.PlotsDir, "results.yaml")
	cfg.WorkbookPath = filepath.Join(cfg.PlotsDir, "metrics.xlsx")
	cfg.ChartDPI = 30
	cfg.NEstimators = 15
	return OptionsFromConfig(cfg, nil), dir
}

func TestAnalyzeOfflineEndToEnd(t *testing.T) {
	t.Setenv("REPLICATE_API_TOKEN", "")
	opt, _ := testOptions(t)
	var steps []string
	opt.Step = func(s string) { steps = append(steps, s) }

	res, err := Analyze(context.Background(), opt)
	require.NoError(t, err)

	for _, p := range []string{res.Artifacts.DistributionChart, res.Artifacts.ConfusionChart, res.Artifacts.ImportanceChart, res.Artifacts.Workbook} {
		info, err := os.Stat(p)
		require.NoError(t, err, p)
		assert.Greater(t, info.Size(), int64(0), p)
	}
	assert.Equal(t, 10, res.Rows)
	assert.Equal(t, []string{"No", "Yes"}, res.ClassLabels)
	assert.GreaterOrEqual(t, res.Metrics.ROCAUC, 0.0)
	assert.LessOrEqual(t, res.Metrics.ROCAUC, 1.0)
	assert.Equal(t, 8, res.Metrics.TrainRows)
	assert.Equal(t, 2, res.Metrics.TestRows)
	assert.InDelta(t, 100, res.Metrics.Balance.Positive+res.Metrics.Balance.Negative, 1e-9)
	assert.Equal(t, []string{"Timestamp", "comments"}, res.Metrics.Dropped)
	assert.Equal(t, 6, res.Features)

	require.Len(t, res.Metrics.TopFeatures, 3)
	line := "most influential features for predicting mental health treatment: " + strings.Join(res.Metrics.TopFeatures, ", ") + "."
	assert.Contains(t, strings.ToLower(res.Prompt), strings.ToLower(line))

	assert.Equal(t, narrative.OfflineSummary, res.Summary.Text)
	assert.Equal(t, narrative.SourceOffline, res.Summary.Source)
	assert.Empty(t, res.Summary.Model)
	assert.Len(t, steps, 4)

	loaded, err := LoadResults(opt.ResultsPath)
	require.NoError(t, err)
	assert.Equal(t, res.RunID, loaded.RunID)
	assert.Equal(t, res.Metrics.Confusion, loaded.Metrics.Confusion)
	assert.Equal(t, res.Metrics.TopFeatures, loaded.Metrics.TopFeatures)
	assert.Equal(t, res.Summary.Text, loaded.Summary.Text)
}

func TestAnalyzeWritesMetrics(t *testing.T) {
	opt, dir := testOptions(t)
	opt.Metrics = telemetry.NewRecorder()
	opt.MetricsPath = filepath.Join(dir, "run.prom")

	res, err := Analyze(context.Background(), opt)
	require.NoError(t, err)
	b, err := os.ReadFile(opt.MetricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), "surveydeck_dataset_rows 10")
	assert.Contains(t, string(b), `surveydeck_stage_seconds{stage="train"}`)

	_, err = BuildDeck(res, DeckOptions{Output: filepath.Join(dir, "deck.pptx"), Metrics: opt.Metrics, MetricsPath: opt.MetricsPath})
	require.NoError(t, err)
	b, err = os.ReadFile(opt.MetricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), `surveydeck_stage_seconds{stage="deck"}`)
}

func TestAnalyzeIsReproducible(t *testing.T) {
	opt, _ := testOptions(t)
	a, err := Analyze(context.Background(), opt)
	require.NoError(t, err)
	b, err := Analyze(context.Background(), opt)
	require.NoError(t, err)
	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, a.Metrics.Importances, b.Metrics.Importances)
	assert.Equal(t, a.Metrics.ROCAUC, b.Metrics.ROCAUC)
}

func TestMissingInputWritesNothing(t *testing.T) {
	opt, dir := testOptions(t)
	opt.InputPath = filepath.Join(dir, "nope.csv")

	_, err := Analyze(context.Background(), opt)
	require.ErrorIs(t, err, dataset.ErrMissingInputFile)
	_, statErr := os.Stat(opt.PlotsDir)
	assert.True(t, os.IsNotExist(statErr), "plots dir must not be created")
}

func TestMissingTargetWritesNothing(t *testing.T) {
	opt, _ := testOptions(t)
	opt.Train.Target = "diagnosis"

	_, err := Analyze(context.Background(), opt)
	require.ErrorIs(t, err, dataset.ErrMissingTargetColumn)
	_, statErr := os.Stat(opt.PlotsDir)
	assert.True(t, os.IsNotExist(statErr))
}

type failingRuntime struct{}

func (failingRuntime) Generate(context.Context, ai.GenerateRequest) (*ai.GenerateResponse, error) {
	return nil, &ai.QuotaExceededError{APIError: &ai.APIError{StatusCode: 402, Message: "billing required"}}
}

func TestRemoteFailureFallsBack(t *testing.T) {
	opt, _ := testOptions(t)
	opt.Runtime = failingRuntime{}

	res, err := Analyze(context.Background(), opt)
	require.NoError(t, err)
	assert.Equal(t, narrative.FailureSummary, res.Summary.Text)
	assert.Equal(t, narrative.SourceFailed, res.Summary.Source)
	assert.Equal(t, ai.DefaultSummaryModel, res.Summary.Model)
	assert.Contains(t, res.Summary.Error, "billing required")
	assert.Equal(t, ai.KindQuota, res.Summary.ErrorKind)
}

func TestBuildDeckFromResults(t *testing.T) {
	opt, dir := testOptions(t)
	res, err := Analyze(context.Background(), opt)
	require.NoError(t, err)

	out := filepath.Join(dir, "deck.pptx")
	missing, err := BuildDeck(res, DeckOptions{Output: out})
	require.NoError(t, err)
	assert.Empty(t, missing)
	assert.Equal(t, out, res.Artifacts.Deck)

	slides, err := pptx.Inspect(out)
	require.NoError(t, err)
	require.Len(t, slides, presentation.SlideCount)
	assert.Equal(t, 1, slides[2].Pictures)
	assert.Contains(t, slides[5].Paragraphs, "Mental Health in Tech: Key Insights for HR")
}

func TestBuildDeckWithMissingChart(t *testing.T) {
	opt, dir := testOptions(t)
	res, err := Analyze(context.Background(), opt)
	require.NoError(t, err)
	require.NoError(t, os.Remove(res.Artifacts.ImportanceChart))

	missing, err := BuildDeck(res, DeckOptions{Output: filepath.Join(dir, "deck.pptx")})
	require.NoError(t, err)
	assert.Equal(t, []string{res.Artifacts.ImportanceChart}, missing)

	slides, err := pptx.Inspect(res.Artifacts.Deck)
	require.NoError(t, err)
	require.Len(t, slides, presentation.SlideCount)
	assert.Equal(t, 0, slides[4].Pictures)
	assert.True(t, slides[4].HasColor(presentation.WarningColor))
}

func TestBuildDeckRequiresResults(t *testing.T) {
	_, err := BuildDeck(&Results{}, DeckOptions{Output: "x.pptx"})
	assert.Error(t, err)
}

func TestLoadResultsRejectsEmptyManifest(t *testing.T) {
	p := filepath.Join(t.TempDir(), "results.yaml")
	require.NoError(t, os.WriteFile(p, []byte("run_id: abc\n"), 0o644))
	_, err := LoadResults(p)
	assert.Error(t, err)
}

func TestNewRuntime(t *testing.T) {
	cfg := config.Default()

	rt, err := NewRuntime(cfg, false)
	require.NoError(t, err)
	assert.Nil(t, rt, "no credential means offline")

	cfg.APIToken = "r8_test"
	rt, err = NewRuntime(cfg, false)
	require.NoError(t, err)
	_, ok := rt.(*ai.ReplicateClient)
	assert.True(t, ok)

	rt, err = NewRuntime(cfg, true)
	require.NoError(t, err)
	assert.Nil(t, rt)

	cfg.APIToken = ""
	cfg.SummaryProvider = ai.ProviderOllama
	rt, err = NewRuntime(cfg, false)
	require.NoError(t, err)
	assert.NotNil(t, rt)
	rt, err = NewRuntime(cfg, true)
	require.NoError(t, err)
	assert.Nil(t, rt, "offline also keeps a local provider off the network")

	cfg.APIToken = "k"
	cfg.SummaryProvider = "bogus"
	_, err = NewRuntime(cfg, false)
	assert.Error(t, err)
}
