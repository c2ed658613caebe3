package charts

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
)

// Axis labels of the confusion heat map. Row 0 of the matrix is drawn on top.
var (
	PredictedLabels = []string{"Predicted No Treatment", "Predicted Treatment"}
	ActualLabels    = []string{"Actual No Treatment", "Actual Treatment"}
)

// blues is a light-to-dark blue ramp.
type blues int

var _ palette.Palette = blues(0)

func (b blues) Colors() []color.Color {
	n := int(b)
	out := make([]color.Color, n)
	from := [3]float64{0xf7, 0xfb, 0xff}
	to := [3]float64{0x08, 0x30, 0x6b}
	for i := range out {
		t := float64(i) / float64(max(1, n-1))
		out[i] = color.RGBA{
			R: uint8(from[0] + t*(to[0]-from[0])),
			G: uint8(from[1] + t*(to[1]-from[1])),
			B: uint8(from[2] + t*(to[2]-from[2])),
			A: 0xff,
		}
	}
	return out
}

// confusionGrid adapts a 2x2 matrix to plotter.GridXYZ with actual classes
// flipped so row 0 sits at the top.
type confusionGrid [2][2]int

func (g confusionGrid) Dims() (c, r int)   { return 2, 2 }
func (g confusionGrid) X(c int) float64    { return float64(c) }
func (g confusionGrid) Y(r int) float64    { return float64(r) }
func (g confusionGrid) Z(c, r int) float64 { return float64(g[1-r][c]) }

// ConfusionMatrix renders an annotated heat map; rows are actual classes,
// columns predicted.
func (r *Renderer) ConfusionMatrix(m [2][2]int) (string, error) {
	p := plot.New()
	p.Title.Text = "Confusion Matrix"
	p.X.Label.Text = "Predicted"
	p.Y.Label.Text = "Actual"

	grid := confusionGrid(m)
	hm := plotter.NewHeatMap(grid, blues(64))
	if hm.Min == hm.Max {
		hm.Max = hm.Min + 1
	}
	p.Add(hm)

	mid := (hm.Min + hm.Max) / 2
	xys := make(plotter.XYs, 0, 4)
	labels := make([]string, 0, 4)
	styles := make([]text.Style, 0, 4)
	for row := 0; row < 2; row++ {
		for col := 0; col < 2; col++ {
			z := grid.Z(col, row)
			xys = append(xys, plotter.XY{X: float64(col), Y: float64(row)})
			labels = append(labels, fmt.Sprintf("%d", int(z)))
			st := text.Style{
				Color:   color.Black,
				Font:    plot.DefaultFont,
				XAlign:  text.XCenter,
				YAlign:  text.YCenter,
				Handler: plot.DefaultTextHandler,
			}
			st.Font.Size = vg.Points(18)
			if z > mid {
				st.Color = color.White
			}
			styles = append(styles, st)
		}
	}
	annot, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return "", err
	}
	annot.TextStyle = styles
	p.Add(annot)

	p.NominalX(PredictedLabels...)
	p.NominalY(ActualLabels[1], ActualLabels[0])
	p.X.Min, p.X.Max = -0.5, 1.5
	p.Y.Min, p.Y.Max = -0.5, 1.5
	return r.save(p, 8*vg.Inch, 6*vg.Inch, ConfusionMatrixFile)
}
