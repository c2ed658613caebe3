// Package presentation assembles the fixed eight-slide report deck.
package presentation

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/KaramelBytes/surveydeck-cli/internal/evaluation"
	"github.com/KaramelBytes/surveydeck-cli/internal/pptx"
	"github.com/KaramelBytes/surveydeck-cli/internal/utils"
)

// Palette and fonts.
const (
	TextColor       pptx.Color = "3C3C3C"
	AccentColor     pptx.Color = "0066CC"
	BackgroundColor pptx.Color = "F0F8FF"
	FooterColor     pptx.Color = "787878"
	WarningColor    pptx.Color = "FF0000"
	White           pptx.Color = "FFFFFF"

	BodyFont  = "Segoe UI"
	TitleFont = "Segoe UI Light"
)

// DefaultFooterLabel is used when Input.FooterLabel is empty.
const DefaultFooterLabel = "IBM Granite - Mental Health in Tech"

// SlideCount is the number of slides Build produces.
const SlideCount = 8

// Input carries everything the deck shows. Chart paths are read at build time.
type Input struct {
	DistributionChart string
	ConfusionChart    string
	ImportanceChart   string

	ROCAUC       float64
	TopFeatures  []string
	Balance      evaluation.Balance
	FeatureCount int
	Summary      string

	FooterLabel string
	// MaxSummaryTokens caps the summary slide text; zero means no cap.
	MaxSummaryTokens int
}

// Result is the built deck plus the chart files that could not be embedded.
type Result struct {
	Deck          *pptx.Deck
	MissingAssets []string
}

// Build lays out all eight slides. Missing chart files are replaced by red
// warning boxes and reported in Result.MissingAssets.
func Build(in Input, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if in.FooterLabel == "" {
		in.FooterLabel = DefaultFooterLabel
	}
	b := &builder{
		deck: pptx.New(pptx.Theme{MajorFont: TitleFont, MinorFont: BodyFont}),
		in:   in,
		log:  log,
	}
	b.deck.Title = "Mental Health in Tech"
	b.deck.Author = "surveydeck"
	for _, add := range []func() error{
		b.titleSlide,
		b.overviewSlide,
		b.edaSlide,
		b.modelingSlide,
		b.importanceSlide,
		b.summarySlide,
		b.deploymentSlide,
		b.thankYouSlide,
	} {
		if err := add(); err != nil {
			return nil, err
		}
	}
	return &Result{Deck: b.deck, MissingAssets: b.missing}, nil
}

// builder is threaded through the slide functions.
type builder struct {
	deck    *pptx.Deck
	in      Input
	log     *zap.Logger
	missing []string
}

type style struct {
	size   float64
	bold   bool
	color  pptx.Color
	font   string
	center bool
	bullet bool
}

func body(size float64) style {
	return style{size: size, color: TextColor, font: BodyFont}
}

func inch(v float64) pptx.EMU { return pptx.Inches(v) }

func frame(left, top, width, height float64) pptx.Frame {
	return pptx.Frame{Left: inch(left), Top: inch(top), Width: inch(width), Height: inch(height)}
}

// slide appends a slide covered by a full-size background rectangle.
func (b *builder) slide(bg pptx.Color) *pptx.Slide {
	s := b.deck.AddSlide()
	s.AddRect(pptx.Frame{Width: b.deck.Width, Height: b.deck.Height}, bg)
	return s
}

// text fills a new text box with one paragraph per line. Lines are trimmed;
// in bullet mode a leading "- " becomes a bullet.
func (b *builder) text(s *pptx.Slide, f pptx.Frame, content string, st style) *pptx.TextBox {
	tb := s.AddTextBox(f)
	align := pptx.AlignLeft
	if st.center {
		align = pptx.AlignCenter
	}
	font := pptx.Font{Size: st.size, Bold: st.bold, Color: st.color, Typeface: st.font}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		p := tb.AddParagraph(align)
		if st.bullet && strings.HasPrefix(line, "- ") {
			p.Bullet = true
			line = line[2:]
		}
		p.AddRun(line, font)
	}
	return tb
}

func (b *builder) title(s *pptx.Slide, text string) {
	b.text(s, frame(0.5, 0.5, 9, 1.25), text, style{size: 36, bold: true, color: AccentColor, font: TitleFont})
}

// footer writes the label on the left and "Slide N" on the right of the
// bottom margin.
func (b *builder) footer(s *pptx.Slide) {
	w := b.deck.Width - inch(1)
	top := b.deck.Height - inch(0.5)
	font := pptx.Font{Size: 10, Color: FooterColor, Typeface: BodyFont}

	left := s.AddTextBox(pptx.Frame{Left: inch(0.5), Top: top, Width: w, Height: inch(0.3)})
	left.AddParagraph(pptx.AlignLeft).AddRun(b.in.FooterLabel, font)

	right := s.AddTextBox(pptx.Frame{Left: inch(0.5), Top: top, Width: w, Height: inch(0.3)})
	right.AddParagraph(pptx.AlignRight).AddRun(fmt.Sprintf("Slide %d", s.Number()), font)
}

// picture embeds path in f. A missing file becomes a red warning box at
// warn and is recorded; other errors abort the build.
func (b *builder) picture(s *pptx.Slide, path string, f, warn pptx.Frame, warning string) error {
	err := s.AddPicture(path, f)
	var missing *pptx.MissingAssetError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &missing):
		b.log.Warn("chart missing, using placeholder", zap.String("path", path), zap.Int("slide", s.Number()))
		b.missing = append(b.missing, path)
		b.text(s, warn, warning, style{size: 18, color: WarningColor, font: BodyFont, center: true})
		return nil
	default:
		return fmt.Errorf("slide %d: %w", s.Number(), err)
	}
}

func (b *builder) caption(s *pptx.Slide, f pptx.Frame, text string) {
	b.text(s, f, text, style{size: 14, color: FooterColor, font: BodyFont, center: true})
}

// summaryText applies the token cap.
func (b *builder) summaryText() string {
	text := strings.TrimSpace(b.in.Summary)
	if b.in.MaxSummaryTokens > 0 && utils.CountTokens(text) > b.in.MaxSummaryTokens {
		text = utils.TruncateToTokenLimit(text, b.in.MaxSummaryTokens) + " …"
	}
	return text
}
