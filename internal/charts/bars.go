package charts

import (
	"errors"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/KaramelBytes/surveydeck-cli/internal/dataset"
	"github.com/KaramelBytes/surveydeck-cli/internal/evaluation"
)

var distributionColors = []color.Color{
	color.RGBA{R: 0x4c, G: 0x72, B: 0xb0, A: 0xff},
	color.RGBA{R: 0xdd, G: 0x84, B: 0x52, A: 0xff},
	color.RGBA{R: 0x55, G: 0xa8, B: 0x68, A: 0xff},
}

// TreatmentDistribution renders a count bar per raw target label.
func (r *Renderer) TreatmentDistribution(counts []dataset.LabelCount) (string, error) {
	if len(counts) == 0 {
		return "", errors.New("treatment distribution: no values")
	}
	p := plot.New()
	p.Title.Text = "Treatment Distribution"
	p.X.Label.Text = "Seeking Mental Health Treatment"
	p.Y.Label.Text = "Respondents"
	p.Y.Min = 0

	names := make([]string, len(counts))
	w := vg.Points(40)
	for i, lc := range counts {
		names[i] = lc.Label
		vals := make(plotter.Values, len(counts))
		vals[i] = float64(lc.Count)
		bar, err := plotter.NewBarChart(vals, w)
		if err != nil {
			return "", err
		}
		bar.LineStyle.Width = 0
		bar.Color = distributionColors[i%len(distributionColors)]
		p.Add(bar)
	}
	p.Add(plotter.NewGrid())
	p.NominalX(names...)
	return r.save(p, 10*vg.Inch, 5*vg.Inch, TreatmentDistributionFile)
}

// FeatureImportance renders every ranked feature as a vertical bar.
func (r *Renderer) FeatureImportance(ranked []evaluation.FeatureScore) (string, error) {
	if len(ranked) == 0 {
		return "", errors.New("feature importance: no features")
	}
	p := plot.New()
	p.Title.Text = "Feature Importance"
	p.X.Label.Text = "Feature"
	p.Y.Label.Text = "Importance"
	p.Y.Min = 0

	vals := make(plotter.Values, len(ranked))
	names := make([]string, len(ranked))
	for i, fs := range ranked {
		vals[i] = fs.Score
		names[i] = fs.Name
	}
	bar, err := plotter.NewBarChart(vals, vg.Points(14))
	if err != nil {
		return "", err
	}
	bar.LineStyle.Width = 0
	bar.Color = accent
	p.Add(bar)
	p.NominalX(names...)
	rotateXTicks(p)
	return r.save(p, 12*vg.Inch, 6*vg.Inch, FeatureImportanceFile)
}
