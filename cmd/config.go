package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/surveydeck-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/surveydeck-cli/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set SurveyDeck configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "input_path: %s\n", cfg.InputPath)
		fmt.Fprintf(out, "plots_dir: %s\n", cfg.PlotsDir)
		fmt.Fprintf(out, "results_path: %s\n", cfg.ResultsPath)
		fmt.Fprintf(out, "workbook_path: %s\n", cfg.WorkbookPath)
		fmt.Fprintf(out, "deck_path: %s\n", cfg.DeckPath)
		if cfg.MetricsPath != "" {
			fmt.Fprintf(out, "metrics_path: %s\n", cfg.MetricsPath)
		}
		fmt.Fprintf(out, "target_column: %s\n", cfg.TargetColumn)
		fmt.Fprintf(out, "drop_columns: %s\n", strings.Join(cfg.DropColumns, ","))
		fmt.Fprintf(out, "fill_columns: %s\n", strings.Join(cfg.FillColumns, ","))
		fmt.Fprintf(out, "fill_value: %s\n", cfg.FillValue)
		fmt.Fprintf(out, "test_size: %.2f\n", cfg.TestSize)
		fmt.Fprintf(out, "random_seed: %d\n", cfg.RandomSeed)
		fmt.Fprintf(out, "n_estimators: %d\n", cfg.NEstimators)
		fmt.Fprintf(out, "max_depth: %d\n", cfg.MaxDepth)
		fmt.Fprintf(out, "max_features: %d\n", cfg.MaxFeatures)
		fmt.Fprintf(out, "chart_dpi: %d\n", cfg.ChartDPI)
		fmt.Fprintf(out, "api_token: %s\n", mask(cfg.APIToken))
		fmt.Fprintf(out, "summary_provider: %s\n", cfg.SummaryProvider)
		fmt.Fprintf(out, "summary_model: %s\n", cfg.SummaryModel)
		fmt.Fprintf(out, "summary_stream: %t\n", cfg.SummaryStream)
		fmt.Fprintf(out, "max_tokens: %d\n", cfg.MaxTokens)
		fmt.Fprintf(out, "temperature: %.3f\n", cfg.Temperature)
		if cfg.SummaryProvider == ai.ProviderOllama {
			fmt.Fprintf(out, "ollama_host: %s\n", cfg.OllamaHost)
		}
		fmt.Fprintf(out, "footer_label: %s\n", cfg.FooterLabel)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		if err := setConfigValue(cfg, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func setConfigValue(c *cfgpkg.Global, key, val string) error {
	switch key {
	case "input_path":
		c.InputPath = val
	case "plots_dir":
		c.PlotsDir = val
	case "results_path":
		c.ResultsPath = val
	case "workbook_path":
		c.WorkbookPath = val
	case "deck_path":
		c.DeckPath = val
	case "metrics_path":
		c.MetricsPath = val
	case "target_column":
		c.TargetColumn = val
	case "drop_columns":
		c.DropColumns = splitList(val)
	case "fill_columns":
		c.FillColumns = splitList(val)
	case "fill_value":
		c.FillValue = val
	case "test_size":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f <= 0 || f >= 1 {
			return fmt.Errorf("invalid test_size: %s (use a fraction between 0 and 1)", val)
		}
		c.TestSize = f
	case "random_seed":
		i, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid int for random_seed: %w", err)
		}
		c.RandomSeed = i
	case "n_estimators":
		i, err := strconv.Atoi(val)
		if err != nil || i < 1 {
			return fmt.Errorf("invalid n_estimators: %s", val)
		}
		c.NEstimators = i
	case "max_depth", "max_features":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid %s: %s (0 means unlimited)", key, val)
		}
		if key == "max_depth" {
			c.MaxDepth = i
		} else {
			c.MaxFeatures = i
		}
	case "chart_dpi":
		i, err := strconv.Atoi(val)
		if err != nil || i < 1 {
			return fmt.Errorf("invalid chart_dpi: %s", val)
		}
		c.ChartDPI = i
	case "api_token":
		c.APIToken = val
	case "summary_provider":
		switch strings.ToLower(val) {
		case ai.ProviderReplicate, ai.ProviderOpenRouter, ai.ProviderOllama:
			c.SummaryProvider = strings.ToLower(val)
		case "local":
			c.SummaryProvider = ai.ProviderOllama
		default:
			return fmt.Errorf("invalid summary_provider: %s (use replicate, openrouter or ollama)", val)
		}
	case "summary_model":
		c.SummaryModel = val
	case "summary_stream":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for summary_stream: %w", err)
		}
		c.SummaryStream = b
	case "max_tokens":
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for max_tokens: %w", err)
		}
		c.MaxTokens = i
	case "temperature":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for temperature: %w", err)
		}
		c.Temperature = f
	case "ollama_host":
		c.OllamaHost = val
	case "footer_label":
		c.FooterLabel = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
