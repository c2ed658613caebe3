package presentation

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/surveydeck-cli/internal/evaluation"
	"github.com/KaramelBytes/surveydeck-cli/internal/narrative"
	"github.com/KaramelBytes/surveydeck-cli/internal/pptx"
)

func chartFiles(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 3, 3))))
	var paths []string
	for _, n := range names {
		p := filepath.Join(dir, n)
		require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o644))
		paths = append(paths, p)
	}
	return paths
}

func sampleInput(t *testing.T) Input {
	t.Helper()
	paths := chartFiles(t, t.TempDir(), "dist.png", "cm.png", "fi.png")
	return Input{
		DistributionChart: paths[0],
		ConfusionChart:    paths[1],
		ImportanceChart:   paths[2],
		ROCAUC:            0.8791,
		TopFeatures:       []string{"work_interfere", "family_history", "Age"},
		Balance:           evaluation.Balance{Positive: 50.6, Negative: 49.4},
		FeatureCount:      23,
		Summary:           "HR should act.\nSupport openness.",
	}
}

func inspect(t *testing.T, res *Result) []pptx.SlideSummary {
	t.Helper()
	b, err := res.Deck.Bytes()
	require.NoError(t, err)
	slides, err := pptx.InspectBytes(b)
	require.NoError(t, err)
	return slides
}

func TestBuildProducesEightSlides(t *testing.T) {
	res, err := Build(sampleInput(t), nil)
	require.NoError(t, err)
	assert.Empty(t, res.MissingAssets)

	slides := inspect(t, res)
	require.Len(t, slides, SlideCount)

	assert.Equal(t, []string{
		"🧠 Mental Health in Tech",
		"Prediction & Summarization",
		"Capstone Project – IBM Granite via Replicate",
	}, slides[0].Paragraphs)

	titles := []string{
		"1. Dataset Overview",
		"2. Exploratory Data Analysis",
		"3. Modeling & Evaluation",
		"4. Feature Importance",
		"5. Executive Summary by IBM Granite",
		"6. Deployment & Use Case",
	}
	for i, want := range titles {
		assert.Equal(t, want, slides[i+1].Paragraphs[0])
	}
	assert.Contains(t, slides[7].Paragraphs, "Thank You!")

	for i, s := range slides[1:] {
		assert.Contains(t, s.Paragraphs, DefaultFooterLabel)
		assert.Contains(t, s.Paragraphs, fmt.Sprintf("Slide %d", i+2))
		assert.True(t, s.HasColor(FooterColor))
	}
	for _, i := range []int{2, 3, 4} {
		assert.Equal(t, 1, slides[i].Pictures, "slide %d", i+1)
		assert.False(t, slides[i].HasColor(WarningColor))
	}
	assert.True(t, slides[0].HasColor(BackgroundColor))
	assert.True(t, slides[7].HasColor(AccentColor))
}

func TestSlideContentReflectsMetrics(t *testing.T) {
	slides := inspect(t, mustBuild(t, sampleInput(t)))

	assert.Contains(t, slides[1].Paragraphs, "Number of features: 23")
	assert.Contains(t, slides[2].Paragraphs, "Shows a fairly balanced split (about 51% vs 49%).")
	assert.Contains(t, slides[3].Paragraphs, "ROC AUC score: 0.88 → the model performs very well")

	imp := slides[4].Paragraphs
	assert.Contains(t, imp, "work_interfere (work interference)")
	assert.Contains(t, imp, "family_history (family history)")
	assert.Contains(t, imp, "Age")
	assert.Contains(t, imp, "Highlights 'work_interfere' as the most influential feature.")

	assert.Contains(t, slides[5].Paragraphs, "HR should act.")
	assert.Contains(t, slides[5].Paragraphs, "Support openness.")
}

func mustBuild(t *testing.T, in Input) *Result {
	t.Helper()
	res, err := Build(in, nil)
	require.NoError(t, err)
	return res
}

func TestMissingChartBecomesWarningBox(t *testing.T) {
	in := sampleInput(t)
	require.NoError(t, os.Remove(in.ConfusionChart))

	res := mustBuild(t, in)
	assert.Equal(t, []string{in.ConfusionChart}, res.MissingAssets)

	slides := inspect(t, res)
	require.Len(t, slides, SlideCount)
	modeling := slides[3]
	assert.Equal(t, 0, modeling.Pictures)
	assert.True(t, modeling.HasColor(WarningColor))
	assert.Contains(t, modeling.Paragraphs, "Confusion matrix plot could not be loaded.")

	assert.Equal(t, 1, slides[2].Pictures)
	assert.Equal(t, 1, slides[4].Pictures)
}

func TestAllChartsMissing(t *testing.T) {
	res := mustBuild(t, Input{Summary: narrative.OfflineSummary})
	assert.Len(t, res.MissingAssets, 3)
	slides := inspect(t, res)
	require.Len(t, slides, SlideCount)
	for _, i := range []int{2, 3, 4} {
		assert.Equal(t, 0, slides[i].Pictures)
		assert.True(t, slides[i].HasColor(WarningColor))
	}
}

func TestOfflineSummaryRendersWithoutMarkdown(t *testing.T) {
	in := sampleInput(t)
	in.Summary = narrative.OfflineSummary
	slides := inspect(t, mustBuild(t, in))

	summary := slides[5].Paragraphs
	assert.Contains(t, summary, "Mental Health in Tech: Key Insights for HR")
	for _, p := range summary {
		assert.NotContains(t, p, "*")
	}
}

func TestSummaryKeepsLiteralAsterisks(t *testing.T) {
	in := sampleInput(t)
	in.Summary = "# Key Findings\nScore = 2*3 for *most* teams; C*-suite buy-in needed."
	slides := inspect(t, mustBuild(t, in))

	summary := slides[5].Paragraphs
	assert.Contains(t, summary, "Key Findings")
	assert.Contains(t, summary, "Score = 2*3 for most teams; C*-suite buy-in needed.")
}

func TestSummaryTokenCap(t *testing.T) {
	in := sampleInput(t)
	in.Summary = strings.Repeat("word ", 200)
	in.MaxSummaryTokens = 10
	b := &builder{in: in}
	got := b.summaryText()
	assert.True(t, strings.HasSuffix(got, " …"))
	assert.Less(t, len(got), 60)
}

func TestSaveWritesDeck(t *testing.T) {
	res := mustBuild(t, sampleInput(t))
	out := filepath.Join(t.TempDir(), "deck.pptx")
	require.NoError(t, res.Deck.Save(out))
	slides, err := pptx.Inspect(out)
	require.NoError(t, err)
	assert.Len(t, slides, SlideCount)
}

func TestMarkdownLine(t *testing.T) {
	type line struct {
		Text   string
		Bullet bool
		Bold   bool
	}
	tests := []struct {
		in   string
		want line
	}{
		{"**Title**", line{Text: "Title", Bold: true}},
		{"## Heading", line{Text: "Heading", Bold: true}},
		{"- point", line{Text: "point", Bullet: true}},
		{"* point", line{Text: "point", Bullet: true}},
		{"uses *emphasis* and **strong** words", line{Text: "uses emphasis and strong words"}},
		{"  plain  ", line{Text: "plain"}},
		{"Score = 2*3 for *most* teams; C*-suite buy-in needed.", line{Text: "Score = 2*3 for most teams; C*-suite buy-in needed."}},
		{"*a* *b* (*c*)", line{Text: "a b (c)"}},
		{"**Bold with *inner* words**", line{Text: "Bold with inner words", Bold: true}},
		{"2 * 3 * 4", line{Text: "2 * 3 * 4"}},
		{"", line{}},
	}
	for _, tt := range tests {
		var got line
		got.Text, got.Bullet, got.Bold = markdownLine(tt.in)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("markdownLine(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestFeatureLabelAndVerdicts(t *testing.T) {
	bold, rest := FeatureLabel("anonymity")
	assert.Equal(t, "anonymity", bold)
	assert.Equal(t, "(workplace anonymity)", rest)
	_, rest = FeatureLabel("Age")
	assert.Empty(t, rest)

	assert.Equal(t, "the model performs well", aucVerdict(0.8))
	assert.Equal(t, "the model has limited predictive power", aucVerdict(0.5))
	assert.Contains(t, balanceSentence(80, 20), "imbalanced")
	assert.Equal(t, float64(24), summaryFontSize("short"))
	assert.Equal(t, float64(14), summaryFontSize(strings.Repeat("x", 800)))
}
