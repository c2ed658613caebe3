// Package pptx writes PowerPoint (PresentationML) packages. It supports the
// small shape vocabulary the report deck needs: filled rectangles, text boxes
// and embedded pictures on blank 4:3 slides.
package pptx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/KaramelBytes/surveydeck-cli/internal/utils"
)

// EMU is the OOXML length unit.
type EMU int64

// EMUPerInch converts inches to EMU.
const EMUPerInch = 914400

// Inches converts a length in inches to EMU.
func Inches(v float64) EMU { return EMU(v * EMUPerInch) }

// Default slide size (10in x 7.5in).
var (
	DefaultWidth  = Inches(10)
	DefaultHeight = Inches(7.5)
)

// Frame is a shape's position and extent.
type Frame struct {
	Left, Top, Width, Height EMU
}

// Color is an sRGB value written as six hex digits.
type Color string

// RGB builds a Color from components.
func RGB(r, g, b uint8) Color { return Color(fmt.Sprintf("%02X%02X%02X", r, g, b)) }

// Theme carries the font pair written into the package theme.
type Theme struct {
	MajorFont string
	MinorFont string
}

// Deck is an in-memory presentation. Slides are append-only.
type Deck struct {
	Width, Height EMU
	Theme         Theme
	Title         string
	Author        string

	slides []*Slide
	media  []media
	now    func() time.Time
}

type media struct {
	name string
	data []byte
}

// New returns an empty 10in x 7.5in deck.
func New(theme Theme) *Deck {
	if theme.MajorFont == "" {
		theme.MajorFont = "Calibri Light"
	}
	if theme.MinorFont == "" {
		theme.MinorFont = "Calibri"
	}
	return &Deck{Width: DefaultWidth, Height: DefaultHeight, Theme: theme, now: time.Now}
}

// AddSlide appends a blank slide and returns its handle.
func (d *Deck) AddSlide() *Slide {
	s := &Slide{deck: d, number: len(d.slides) + 1, nextID: 2}
	d.slides = append(d.slides, s)
	return s
}

func (d *Deck) addMedia(ext string, data []byte) string {
	name := fmt.Sprintf("image%d%s", len(d.media)+1, ext)
	d.media = append(d.media, media{name: name, data: data})
	return name
}

// WriteTo serializes the package to w.
func (d *Deck) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range d.parts() {
		f, err := zw.Create(p.name)
		if err != nil {
			return 0, fmt.Errorf("create %s: %w", p.name, err)
		}
		if _, err := f.Write(p.data); err != nil {
			return 0, fmt.Errorf("write %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("close package: %w", err)
	}
	return buf.WriteTo(w)
}

// Bytes returns the serialized package.
func (d *Deck) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the package atomically to path.
func (d *Deck) Save(path string) error {
	if len(d.slides) == 0 {
		return fmt.Errorf("deck has no slides")
	}
	b, err := d.Bytes()
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(path, b)
}
