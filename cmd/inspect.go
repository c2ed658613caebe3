package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/surveydeck-cli/internal/pptx"
	"github.com/KaramelBytes/surveydeck-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	inspectFull bool
	inspectJSON bool
)

// slideOutline is the --json shape of one slide.
type slideOutline struct {
	Number     int      `json:"number"`
	Paragraphs []string `json:"paragraphs"`
	Pictures   int      `json:"pictures"`
	Colors     []string `json:"colors,omitempty"`
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <deck.pptx>",
	Short: "Print the text outline of a generated deck",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		slides, err := pptx.Inspect(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if inspectJSON {
			outline := make([]slideOutline, 0, len(slides))
			for _, s := range slides {
				outline = append(outline, slideOutline{Number: s.Number, Paragraphs: s.Paragraphs, Pictures: s.Pictures, Colors: s.Colors})
			}
			b, err := utils.PrettyJSON(outline)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		for _, s := range slides {
			title := "(no text)"
			if len(s.Paragraphs) > 0 {
				title = s.Paragraphs[0]
			}
			fmt.Fprintf(out, "Slide %d: %s", s.Number, title)
			if s.Pictures > 0 {
				fmt.Fprintf(out, " [%d image(s)]", s.Pictures)
			}
			fmt.Fprintln(out)
			if !inspectFull {
				continue
			}
			for _, p := range s.Paragraphs[min(1, len(s.Paragraphs)):] {
				fmt.Fprintf(out, "    %s\n", strings.ReplaceAll(p, "\n", " / "))
			}
		}
		return nil
	},
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectFull, "full", false, "print every paragraph, not just slide titles")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "print the outline as JSON")
	rootCmd.AddCommand(inspectCmd)
}
