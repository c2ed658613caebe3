package pptx

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// MissingAssetError reports a picture whose source file does not exist.
type MissingAssetError struct {
	Path string
}

func (e *MissingAssetError) Error() string {
	return fmt.Sprintf("picture asset not found: %s", e.Path)
}

// Align is horizontal paragraph alignment.
type Align string

const (
	AlignLeft   Align = "l"
	AlignCenter Align = "ctr"
	AlignRight  Align = "r"
)

// Anchor is vertical text anchoring inside a text box.
type Anchor string

const (
	AnchorTop    Anchor = "t"
	AnchorMiddle Anchor = "ctr"
	AnchorBottom Anchor = "b"
)

// Font styles a run. Size is in points; zero keeps the theme default.
type Font struct {
	Size     float64
	Bold     bool
	Color    Color
	Typeface string
}

// Run is a span of uniformly styled text. Newlines become line breaks.
type Run struct {
	Text string
	Font Font
}

// Paragraph is one a:p element.
type Paragraph struct {
	Align       Align
	Bullet      bool
	SpaceBefore float64
	SpaceAfter  float64
	Runs        []Run
}

// AddRun appends a run and returns the paragraph for chaining.
func (p *Paragraph) AddRun(text string, f Font) *Paragraph {
	p.Runs = append(p.Runs, Run{Text: text, Font: f})
	return p
}

// Text joins the paragraph's runs.
func (p *Paragraph) Text() string {
	var b strings.Builder
	for _, r := range p.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

type shape interface {
	writeXML(b *strings.Builder)
}

// Slide is a handle returned by Deck.AddSlide.
type Slide struct {
	deck   *Deck
	number int
	nextID int
	shapes []shape
	images []string
}

// Number is the 1-based slide position.
func (s *Slide) Number() int { return s.number }

func (s *Slide) id() int {
	id := s.nextID
	s.nextID++
	return id
}

type rect struct {
	id    int
	frame Frame
	fill  Color
}

// AddRect adds a filled rectangle with no outline.
func (s *Slide) AddRect(f Frame, fill Color) {
	s.shapes = append(s.shapes, &rect{id: s.id(), frame: f, fill: fill})
}

// TextBox is a text shape. Paragraphs are rendered in order.
type TextBox struct {
	id         int
	frame      Frame
	Anchor     Anchor
	Wrap       bool
	Paragraphs []*Paragraph
}

// AddTextBox adds an empty, word-wrapped, top-anchored text box.
func (s *Slide) AddTextBox(f Frame) *TextBox {
	tb := &TextBox{id: s.id(), frame: f, Anchor: AnchorTop, Wrap: true}
	s.shapes = append(s.shapes, tb)
	return tb
}

// AddParagraph appends a paragraph with the given alignment.
func (t *TextBox) AddParagraph(align Align) *Paragraph {
	p := &Paragraph{Align: align}
	t.Paragraphs = append(t.Paragraphs, p)
	return p
}

// Text returns the box text with paragraphs separated by newlines.
func (t *TextBox) Text() string {
	lines := make([]string, len(t.Paragraphs))
	for i, p := range t.Paragraphs {
		lines[i] = p.Text()
	}
	return strings.Join(lines, "\n")
}

type picture struct {
	id    int
	frame Frame
	rid   string
	descr string
}

// AddPicture embeds the PNG or JPEG at path. A missing file yields
// *MissingAssetError and leaves the slide unchanged.
func (s *Slide) AddPicture(path string, f Frame) error {
	if path == "" {
		return &MissingAssetError{}
	}
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".png":
	case ".jpg", ".jpeg":
		ext = ".jpeg"
	default:
		return fmt.Errorf("unsupported picture format %q", filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &MissingAssetError{Path: path}
	}
	if err != nil {
		return fmt.Errorf("read picture: %w", err)
	}
	name := s.deck.addMedia(ext, data)
	s.images = append(s.images, name)
	// rId1 is the layout relationship.
	rid := fmt.Sprintf("rId%d", len(s.images)+1)
	s.shapes = append(s.shapes, &picture{id: s.id(), frame: f, rid: rid, descr: filepath.Base(path)})
	return nil
}

// TextBoxes returns the slide's text boxes in insertion order.
func (s *Slide) TextBoxes() []*TextBox {
	var out []*TextBox
	for _, sh := range s.shapes {
		if tb, ok := sh.(*TextBox); ok {
			out = append(out, tb)
		}
	}
	return out
}

// Pictures counts embedded pictures.
func (s *Slide) Pictures() int { return len(s.images) }
