package presentation

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/KaramelBytes/surveydeck-cli/internal/pptx"
)

// featureSuffixes gives readable explanations for the usual top features.
var featureSuffixes = map[string]string{
	"work_interfere": "(work interference)",
	"family_history": "(family history)",
	"anonymity":      "(workplace anonymity)",
}

// FeatureLabel returns the bold name and the optional readable suffix.
func FeatureLabel(name string) (bold, rest string) {
	return name, featureSuffixes[name]
}

func (b *builder) titleSlide() error {
	s := b.slide(BackgroundColor)
	b.text(s, frame(1, 2, 8, 2), "🧠 Mental Health in Tech",
		style{size: 54, bold: true, color: AccentColor, font: TitleFont, center: true})
	b.text(s, frame(1, 4.5, 8, 1.5), "Prediction & Summarization\nCapstone Project – IBM Granite via Replicate",
		style{size: 30, color: TextColor, font: BodyFont, center: true})
	return nil
}

func (b *builder) overviewSlide() error {
	s := b.slide(BackgroundColor)
	b.title(s, "1. Dataset Overview")
	features := "~25"
	if b.in.FeatureCount > 0 {
		features = fmt.Sprint(b.in.FeatureCount)
	}
	content := "- Dataset: Mental Health in Tech Survey (OSMI)\n" +
		"- Number of features: " + features + "\n" +
		"- Classification target: whether a person has received mental health treatment\n" +
		"- Data cleaned & categorically encoded"
	st := body(24)
	st.bullet = true
	b.text(s, frame(1, 2, 8.5, 5), content, st)
	b.footer(s)
	return nil
}

func (b *builder) edaSlide() error {
	s := b.slide(BackgroundColor)
	b.title(s, "2. Exploratory Data Analysis")
	left, top, width, height := 1.5, 2.5, 7.0, 3.5
	if err := b.picture(s, b.in.DistributionChart,
		frame(left, top, width, height),
		frame(left, top+1, width, 1),
		"Treatment distribution plot could not be loaded."); err != nil {
		return err
	}
	b.caption(s, frame(left, top+height+0.2, width, 1),
		"Figure 1: Respondents by mental health treatment status.\n"+balanceSentence(b.in.Balance.Positive, b.in.Balance.Negative))
	b.footer(s)
	return nil
}

func balanceSentence(pos, neg float64) string {
	shape := "a fairly balanced"
	if math.Abs(pos-neg) > 20 {
		shape = "an imbalanced"
	}
	return fmt.Sprintf("Shows %s split (about %.0f%% vs %.0f%%).", shape, pos, neg)
}

func (b *builder) modelingSlide() error {
	s := b.slide(BackgroundColor)
	b.title(s, "3. Modeling & Evaluation")
	content := "- Model: Random Forest Classifier\n" +
		fmt.Sprintf("- ROC AUC score: %.2f → %s\n", b.in.ROCAUC, aucVerdict(b.in.ROCAUC)) +
		"- The classification report shows balanced precision & recall"
	st := body(20)
	st.bullet = true
	b.text(s, frame(0.5, 1.8, 9, 1.5), content, st)

	left, top, width, height := 3.0, 3.5, 4.0, 3.5
	if err := b.picture(s, b.in.ConfusionChart,
		frame(left, top, width, height),
		frame(left, top+1, width, height),
		"Confusion matrix plot could not be loaded."); err != nil {
		return err
	}
	b.caption(s, frame(left, top+height+0.2, width, 1),
		"Figure 2: Confusion matrix of the Random Forest model.\nShows prediction accuracy for the positive and negative classes.")
	b.footer(s)
	return nil
}

func aucVerdict(auc float64) string {
	switch {
	case auc >= 0.85:
		return "the model performs very well"
	case auc >= 0.75:
		return "the model performs well"
	case auc >= 0.65:
		return "the model performs fairly"
	default:
		return "the model has limited predictive power"
	}
}

func (b *builder) importanceSlide() error {
	s := b.slide(BackgroundColor)
	b.title(s, "4. Feature Importance")

	font := pptx.Font{Size: 22, Color: TextColor, Typeface: BodyFont}
	bold := font
	bold.Bold = true

	tb := s.AddTextBox(frame(0.5, 1.8, 4.5, 5))
	head := tb.AddParagraph(pptx.AlignLeft).AddRun("Most influential features:", font)
	head.SpaceAfter = 6
	for _, name := range b.in.TopFeatures {
		p := tb.AddParagraph(pptx.AlignLeft)
		p.Bullet = true
		p.SpaceAfter = 4
		strong, rest := FeatureLabel(name)
		p.AddRun(strong, bold)
		if rest != "" {
			p.AddRun(" "+rest, font)
		}
	}
	desc := tb.AddParagraph(pptx.AlignLeft).
		AddRun("\nThe model finds that work stress and organizational support\nplay a large role in workers' mental health.", font)
	desc.SpaceBefore = 12

	left, top, width, height := 5.0, 1.8, 4.5, 4.5
	if err := b.picture(s, b.in.ImportanceChart,
		frame(left, top, width, height),
		frame(left, top+1, width, height),
		"Feature importance plot could not be loaded."); err != nil {
		return err
	}
	caption := "Figure 3: Feature importance bar plot."
	if len(b.in.TopFeatures) > 0 {
		caption += fmt.Sprintf("\nHighlights '%s' as the most influential feature.", b.in.TopFeatures[0])
	}
	b.caption(s, frame(left, top+height+0.2, width, 1), caption)
	b.footer(s)
	return nil
}

func (b *builder) summarySlide() error {
	s := b.slide(BackgroundColor)
	b.title(s, "5. Executive Summary by IBM Granite")
	text := b.summaryText()
	size := summaryFontSize(text)
	tb := s.AddTextBox(frame(1, 1.8, 8, 5.5))
	for _, line := range strings.Split(text, "\n") {
		p := tb.AddParagraph(pptx.AlignLeft)
		plain, bullet, strong := markdownLine(line)
		p.Bullet = bullet
		if plain != "" {
			p.AddRun(plain, pptx.Font{Size: size, Bold: strong, Color: TextColor, Typeface: BodyFont})
		}
	}
	b.footer(s)
	return nil
}

// summaryFontSize shrinks long summaries so they stay on the slide.
func summaryFontSize(text string) float64 {
	switch n := len([]rune(text)); {
	case n > 700:
		return 14
	case n > 450:
		return 16
	case n > 250:
		return 20
	default:
		return 24
	}
}

// Emphasis delimiters only count when they wrap a run that starts and ends
// on a non-space character and sit at word boundaries, so "2*3" and
// "C*-suite" keep their asterisks.
var (
	strongRun   = regexp.MustCompile(`(^|[\s(\[])\*\*([^\s*](?:[^*]*[^\s*])?)\*\*($|[\s.,;:!?)\]])`)
	emphasisRun = regexp.MustCompile(`(^|[\s(\[])\*([^\s*](?:[^*]*[^\s*])?)\*($|[\s.,;:!?)\]])`)
)

// markdownLine strips the light markdown a model tends to emit: list
// markers, headings and balanced emphasis. Headings and fully bold lines are
// bold. Any other asterisk is kept.
func markdownLine(line string) (text string, bullet, bold bool) {
	line = strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
		bullet = true
		line = strings.TrimSpace(line[2:])
	case strings.HasPrefix(line, "#"):
		bold = true
		line = strings.TrimSpace(strings.TrimLeft(line, "#"))
	}
	if len(line) > 4 && strings.HasPrefix(line, "**") && strings.HasSuffix(line, "**") && !strings.Contains(line[2:len(line)-2], "**") {
		bold = true
	}
	return stripRuns(line), bullet, bold
}

// stripRuns drops the delimiters of every strong and emphasis run. Adjacent
// or nested runs share a boundary character, so it repeats until nothing
// changes.
func stripRuns(line string) string {
	for {
		next := strongRun.ReplaceAllString(line, "${1}${2}${3}")
		next = emphasisRun.ReplaceAllString(next, "${1}${2}${3}")
		if next == line {
			return line
		}
		line = next
	}
}

func (b *builder) deploymentSlide() error {
	s := b.slide(BackgroundColor)
	b.title(s, "6. Deployment & Use Case")
	content := "- The model can be integrated into HR systems for early assessment\n" +
		"- It can be extended into a company psychology chatbot\n" +
		"- Visualizations and reports can be presented to management\n" +
		"- The whole pipeline is open-source and cloud-ready"
	st := body(24)
	st.bullet = true
	b.text(s, frame(1, 1.8, 8.5, 5), content, st)
	b.footer(s)
	return nil
}

func (b *builder) thankYouSlide() error {
	s := b.slide(AccentColor)
	full := pptx.Frame{Width: b.deck.Width, Height: b.deck.Height}
	tb := b.text(s, full, "Thank You!", style{size: 60, bold: true, color: White, font: TitleFont, center: true})
	tb.Anchor = pptx.AnchorMiddle

	contact := b.text(s, pptx.Frame{Top: inch(5), Width: b.deck.Width, Height: inch(1)},
		"For further questions, please contact our team.",
		style{size: 18, color: White, font: BodyFont, center: true})
	contact.Anchor = pptx.AnchorMiddle
	b.footer(s)
	return nil
}
