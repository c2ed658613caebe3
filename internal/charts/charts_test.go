package charts

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/surveydeck-cli/internal/dataset"
	"github.com/KaramelBytes/surveydeck-cli/internal/evaluation"
)

func requirePNG(t *testing.T, path string) {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, b)
	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 0)
}

func TestRendererWritesAllCharts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plots_output")
	r := NewRenderer(dir, 30)

	dist, err := r.TreatmentDistribution([]dataset.LabelCount{{Label: "No", Count: 622}, {Label: "Yes", Count: 637}})
	require.NoError(t, err)
	conf, err := r.ConfusionMatrix([2][2]int{{90, 39}, {30, 93}})
	require.NoError(t, err)
	imp, err := r.FeatureImportance([]evaluation.FeatureScore{
		{Name: "work_interfere", Score: 0.3}, {Name: "Age", Score: 0.2}, {Name: "family_history", Score: 0.1},
	})
	require.NoError(t, err)

	wd, wc, wi := r.Paths()
	assert.Equal(t, wd, dist)
	assert.Equal(t, wc, conf)
	assert.Equal(t, wi, imp)
	for _, p := range []string{dist, conf, imp} {
		requirePNG(t, p)
	}
}

func TestDPIScalesImage(t *testing.T) {
	dir := t.TempDir()
	counts := []dataset.LabelCount{{Label: "No", Count: 5}, {Label: "Yes", Count: 5}}

	lo, err := NewRenderer(filepath.Join(dir, "lo"), 20).TreatmentDistribution(counts)
	require.NoError(t, err)
	hi, err := NewRenderer(filepath.Join(dir, "hi"), 40).TreatmentDistribution(counts)
	require.NoError(t, err)

	decode := func(p string) int {
		f, err := os.Open(p)
		require.NoError(t, err)
		defer f.Close()
		cfg, err := png.DecodeConfig(f)
		require.NoError(t, err)
		return cfg.Width
	}
	assert.Equal(t, 200, decode(lo))
	assert.Equal(t, 400, decode(hi))
}

func TestUniformConfusionMatrix(t *testing.T) {
	r := NewRenderer(t.TempDir(), 20)
	p, err := r.ConfusionMatrix([2][2]int{})
	require.NoError(t, err)
	requirePNG(t, p)
}

func TestEmptyInputsAreErrors(t *testing.T) {
	r := NewRenderer(t.TempDir(), 20)
	_, err := r.TreatmentDistribution(nil)
	assert.Error(t, err)
	_, err = r.FeatureImportance(nil)
	assert.Error(t, err)
}

func TestNewRendererDefaultsDPI(t *testing.T) {
	assert.Equal(t, DefaultDPI, NewRenderer("x", 0).DPI)
}

func TestBluesRamp(t *testing.T) {
	cs := blues(4).Colors()
	require.Len(t, cs, 4)
	r0, _, _, _ := cs[0].RGBA()
	r3, _, _, _ := cs[3].RGBA()
	assert.Greater(t, r0, r3)
}
