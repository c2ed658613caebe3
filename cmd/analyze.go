package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/KaramelBytes/surveydeck-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/surveydeck-cli/internal/config"
	"github.com/KaramelBytes/surveydeck-cli/internal/narrative"
	"github.com/KaramelBytes/surveydeck-cli/internal/pipeline"
	"github.com/KaramelBytes/surveydeck-cli/internal/telemetry"
	"github.com/spf13/cobra"
)

// analyzeFlags are shared by analyze and run; each command binds its own copy.
type analyzeFlags struct {
	input    string
	plotsDir string
	target   string
	seed     int64
	trees    int
	dpi      int
	offline  bool
	stream   bool
	provider string
	model    string
}

func (a *analyzeFlags) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&a.input, "input", "i", "", "survey CSV (overrides config input_path)")
	f.StringVar(&a.plotsDir, "plots-dir", "", "directory for charts, workbook and results manifest")
	f.StringVar(&a.target, "target", "", "target column to predict")
	f.Int64Var(&a.seed, "seed", 0, "random seed for the split and forest")
	f.IntVar(&a.trees, "trees", 0, "number of trees in the forest")
	f.IntVar(&a.dpi, "dpi", 0, "chart resolution in dots per inch")
	f.BoolVar(&a.offline, "offline", false, "skip the hosted summarizer and use the built-in summary")
	f.BoolVar(&a.stream, "stream", false, "stream the summary to stdout as it is generated")
	f.StringVar(&a.provider, "provider", "", "summary provider: replicate|openrouter|ollama")
	f.StringVar(&a.model, "model", "", "summary model identifier")
}

// apply folds changed flags into c. Moving the plots directory also moves
// the default manifest and workbook paths with it.
func (a *analyzeFlags) apply(cmd *cobra.Command, c *cfgpkg.Global) {
	f := cmd.Flags()
	if f.Changed("input") {
		c.InputPath = a.input
	}
	if f.Changed("plots-dir") {
		c.ResultsPath = filepath.Join(a.plotsDir, filepath.Base(c.ResultsPath))
		c.WorkbookPath = filepath.Join(a.plotsDir, filepath.Base(c.WorkbookPath))
		c.PlotsDir = a.plotsDir
	}
	if f.Changed("target") {
		c.TargetColumn = a.target
	}
	if f.Changed("seed") {
		c.RandomSeed = a.seed
	}
	if f.Changed("trees") && a.trees > 0 {
		c.NEstimators = a.trees
	}
	if f.Changed("dpi") && a.dpi > 0 {
		c.ChartDPI = a.dpi
	}
	if f.Changed("stream") {
		c.SummaryStream = a.stream
	}
	if f.Changed("provider") {
		c.SummaryProvider = a.provider
	}
	if f.Changed("model") {
		c.SummaryModel = a.model
	}
}

var anaFlags analyzeFlags

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Train the model, render charts and write the summary manifest",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := *cfg
		anaFlags.apply(cmd, &c)
		_, err := runAnalyze(cmd, &c, anaFlags.offline, newRecorder(&c))
		return err
	},
}

func init() {
	anaFlags.bind(analyzeCmd)
	rootCmd.AddCommand(analyzeCmd)
}

// runAnalyze executes the analysis stage and reports progress on stdout.
func runAnalyze(cmd *cobra.Command, c *cfgpkg.Global, offline bool, rec *telemetry.Recorder) (*pipeline.Results, error) {
	out := cmd.OutOrStdout()
	rt, err := pipeline.NewRuntime(c, offline)
	if err != nil {
		return nil, err
	}
	if rt == nil && !offline && c.SummaryProvider != ai.ProviderOllama {
		fmt.Fprintln(out, "ℹ No API token configured; using the built-in summary.")
	}

	opt := pipeline.OptionsFromConfig(c, zlog())
	opt.Runtime = rt
	opt.Metrics = rec
	opt.Step = func(s string) { fmt.Fprintf(out, "✓ %s\n", s) }
	streamed := false
	if c.SummaryStream && rt != nil {
		fmt.Fprintln(out, "── Executive summary ──")
		opt.OnDelta = func(chunk string) {
			streamed = true
			fmt.Fprint(out, chunk)
		}
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()
	res, err := pipeline.Analyze(ctx, opt)
	if err != nil {
		return nil, err
	}
	if streamed {
		fmt.Fprintln(out)
	}
	reportSummary(out, cmd.ErrOrStderr(), res)
	fmt.Fprintf(out, "✓ Saved results to %s\n", c.ResultsPath)
	return res, nil
}

func reportSummary(out, errOut io.Writer, res *pipeline.Results) {
	switch res.Summary.Source {
	case narrative.SourceRemote:
		fmt.Fprintf(out, "✓ Summary generated by %s\n", res.Summary.Model)
	case narrative.SourceOffline:
		fmt.Fprintln(out, "✓ Using built-in summary")
	case narrative.SourceFailed:
		fmt.Fprintf(errOut, "⚠ Warning: summary generation failed (%s): %s\n", res.Summary.ErrorKind, res.Summary.Error)
	}
	for _, w := range res.Metrics.Warnings {
		fmt.Fprintf(errOut, "⚠ Warning: %s\n", w)
	}
}

// commandContext returns cmd's context, or Background when the command was
// not started through ExecuteContext.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
