// Package charts renders the three report images with gonum/plot.
package charts

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/KaramelBytes/surveydeck-cli/internal/utils"
)

// Output file names under the plots directory.
const (
	TreatmentDistributionFile = "treatment_distribution.png"
	ConfusionMatrixFile       = "confusion_matrix.png"
	FeatureImportanceFile     = "feature_importance.png"
)

// DefaultDPI matches the print resolution used for the deck images.
const DefaultDPI = 300

var accent = color.RGBA{R: 0x00, G: 0x66, B: 0xcc, A: 0xff}

// Renderer writes charts into Dir at DPI.
type Renderer struct {
	Dir string
	DPI int
}

// NewRenderer returns a renderer for dir; dpi <= 0 uses DefaultDPI.
func NewRenderer(dir string, dpi int) *Renderer {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Renderer{Dir: dir, DPI: dpi}
}

// Paths returns the three chart paths in deck order.
func (r *Renderer) Paths() (distribution, confusion, importance string) {
	return filepath.Join(r.Dir, TreatmentDistributionFile),
		filepath.Join(r.Dir, ConfusionMatrixFile),
		filepath.Join(r.Dir, FeatureImportanceFile)
}

// save draws p on a fresh raster canvas, encodes it as PNG and writes it
// atomically. The canvas is dropped when save returns.
func (r *Renderer) save(p *plot.Plot, w, h vg.Length, name string) (string, error) {
	if err := utils.EnsureDir(r.Dir); err != nil {
		return "", fmt.Errorf("create plots dir: %w", err)
	}
	c := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(r.DPI))
	p.Draw(draw.New(c))

	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(&buf); err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}
	path := filepath.Join(r.Dir, name)
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}

func rotateXTicks(p *plot.Plot) {
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = text.XRight
	p.X.Tick.Label.YAlign = text.YCenter
}
