package cmd

import (
	"github.com/spf13/cobra"
)

var (
	runAnaFlags  analyzeFlags
	runDeckFlags deckFlags
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Analyze the survey and build the deck in one pass",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := *cfg
		runAnaFlags.apply(cmd, &c)
		rec := newRecorder(&c)
		res, err := runAnalyze(cmd, &c, runAnaFlags.offline, rec)
		if err != nil {
			return err
		}
		opt := runDeckFlags.options(cmd, &c)
		opt.Metrics = rec
		if err := writeDeck(cmd.OutOrStdout(), cmd.ErrOrStderr(), res, opt); err != nil {
			return err
		}
		return res.Save(c.ResultsPath)
	},
}

func init() {
	runAnaFlags.bind(runCmd)
	runDeckFlags.bind(runCmd)
	rootCmd.AddCommand(runCmd)
}
