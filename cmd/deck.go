package cmd

import (
	"fmt"
	"io"

	cfgpkg "github.com/KaramelBytes/surveydeck-cli/internal/config"
	"github.com/KaramelBytes/surveydeck-cli/internal/pipeline"
	"github.com/spf13/cobra"
)

// deckFlags are shared by deck and run.
type deckFlags struct {
	output    string
	footer    string
	maxTokens int
}

func (d *deckFlags) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&d.output, "output", "o", "", "deck output path (overrides config deck_path)")
	f.StringVar(&d.footer, "footer", "", "footer label on content slides")
	f.IntVar(&d.maxTokens, "summary-max-tokens", 0, "truncate the summary slide to this many tokens (0 = no cap)")
}

// options folds changed flags into c and returns the deck options.
func (d *deckFlags) options(cmd *cobra.Command, c *cfgpkg.Global) pipeline.DeckOptions {
	f := cmd.Flags()
	if f.Changed("output") && d.output != "" {
		c.DeckPath = d.output
	}
	if f.Changed("footer") {
		c.FooterLabel = d.footer
	}
	opt := pipeline.DeckOptions{
		Output:      c.DeckPath,
		FooterLabel: c.FooterLabel,
		MetricsPath: c.MetricsPath,
		Log:         zlog(),
	}
	if f.Changed("summary-max-tokens") && d.maxTokens > 0 {
		opt.MaxSummaryTokens = d.maxTokens
	}
	return opt
}

var (
	dkFlags     deckFlags
	deckResults string
)

var deckCmd = &cobra.Command{
	Use:   "deck",
	Short: "Assemble the eight-slide deck from a saved results manifest",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := *cfg
		path := c.ResultsPath
		if cmd.Flags().Changed("results") {
			path = deckResults
		}
		res, err := pipeline.LoadResults(path)
		if err != nil {
			return err
		}
		opt := dkFlags.options(cmd, &c)
		opt.Metrics = newRecorder(&c)
		if err := writeDeck(cmd.OutOrStdout(), cmd.ErrOrStderr(), res, opt); err != nil {
			return err
		}
		// Record the deck path in the manifest.
		return res.Save(path)
	},
}

func init() {
	dkFlags.bind(deckCmd)
	deckCmd.Flags().StringVar(&deckResults, "results", "", "results manifest written by analyze (overrides config results_path)")
	rootCmd.AddCommand(deckCmd)
}

func writeDeck(out, errOut io.Writer, res *pipeline.Results, opt pipeline.DeckOptions) error {
	missing, err := pipeline.BuildDeck(res, opt)
	if err != nil {
		return err
	}
	for _, m := range missing {
		fmt.Fprintf(errOut, "⚠ Warning: chart not found, slide shows a placeholder: %s\n", m)
	}
	fmt.Fprintf(out, "✓ Presentation saved as %s\n", opt.Output)
	return nil
}
