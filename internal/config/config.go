package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/surveydeck-cli/internal/utils"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Inputs and outputs
	InputPath    string `mapstructure:"input_path" yaml:"input_path"`
	PlotsDir     string `mapstructure:"plots_dir" yaml:"plots_dir"`
	DeckPath     string `mapstructure:"deck_path" yaml:"deck_path"`
	ResultsPath  string `mapstructure:"results_path" yaml:"results_path"`
	WorkbookPath string `mapstructure:"workbook_path" yaml:"workbook_path"`
	MetricsPath  string `mapstructure:"metrics_path" yaml:"metrics_path"`

	// Cleaning and modeling
	TargetColumn string   `mapstructure:"target_column" yaml:"target_column"`
	DropColumns  []string `mapstructure:"drop_columns" yaml:"drop_columns"`
	FillColumns  []string `mapstructure:"fill_columns" yaml:"fill_columns"`
	FillValue    string   `mapstructure:"fill_value" yaml:"fill_value"`
	TextColumns  []string `mapstructure:"text_columns" yaml:"text_columns"`
	TestSize     float64  `mapstructure:"test_size" yaml:"test_size"`
	RandomSeed   int64    `mapstructure:"random_seed" yaml:"random_seed"`
	NEstimators  int      `mapstructure:"n_estimators" yaml:"n_estimators"`
	MaxDepth     int      `mapstructure:"max_depth" yaml:"max_depth"`
	MaxFeatures  int      `mapstructure:"max_features" yaml:"max_features"`
	ChartDPI     int      `mapstructure:"chart_dpi" yaml:"chart_dpi"`

	// Summarization
	APIToken        string  `mapstructure:"api_token" yaml:"api_token"`
	SummaryProvider string  `mapstructure:"summary_provider" yaml:"summary_provider"`
	SummaryModel    string  `mapstructure:"summary_model" yaml:"summary_model"`
	SummaryStream   bool    `mapstructure:"summary_stream" yaml:"summary_stream"`
	MaxTokens       int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature     float64 `mapstructure:"temperature" yaml:"temperature"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Local runtimes (Ollama)
	OllamaHost string `mapstructure:"ollama_host" yaml:"ollama_host"`

	// Deck
	FooterLabel string `mapstructure:"footer_label" yaml:"footer_label"`
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.surveydeck/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := configDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Command flags are applied by callers.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("SURVEYDECK")
	v.AutomaticEnv()
	// The hosted summarizer reads the same variable the Replicate tooling uses.
	_ = v.BindEnv("api_token", "REPLICATE_API_TOKEN", "SURVEYDECK_API_TOKEN")

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	if err := v.ReadInConfig(); err != nil && cfgFile != "" {
		return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.ResultsPath == "" {
		c.ResultsPath = filepath.Join(c.PlotsDir, "results.yaml")
	}
	if c.WorkbookPath == "" {
		c.WorkbookPath = filepath.Join(c.PlotsDir, "metrics.xlsx")
	}
	return &c, nil
}

// Default returns the built-in configuration without consulting env or files.
func Default() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	c.ResultsPath = filepath.Join(c.PlotsDir, "results.yaml")
	c.WorkbookPath = filepath.Join(c.PlotsDir, "metrics.xlsx")
	return &c
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("input_path", "survey.csv")
	v.SetDefault("plots_dir", "plots_output")
	v.SetDefault("deck_path", "Mental_Health_Capstone_Presentation_Final.pptx")
	v.SetDefault("results_path", "")
	v.SetDefault("workbook_path", "")
	v.SetDefault("metrics_path", "")

	v.SetDefault("target_column", "treatment")
	v.SetDefault("drop_columns", []string{"Timestamp", "state", "comments"})
	v.SetDefault("fill_columns", []string{"work_interfere", "self_employed"})
	v.SetDefault("fill_value", "Don't know")
	v.SetDefault("text_columns", []string{"Timestamp", "state", "comments"})
	v.SetDefault("test_size", 0.2)
	v.SetDefault("random_seed", 42)
	v.SetDefault("n_estimators", 100)
	v.SetDefault("max_depth", 0)
	v.SetDefault("max_features", 0)
	v.SetDefault("chart_dpi", 300)

	v.SetDefault("api_token", "")
	v.SetDefault("summary_provider", "replicate")
	v.SetDefault("summary_model", "ibm-granite/granite-3.2-8b-instruct")
	v.SetDefault("summary_stream", false)
	v.SetDefault("max_tokens", 250)
	v.SetDefault("temperature", 0.7)

	// HTTP/retry defaults: one attempt, the summary falls back on first failure
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 1)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")

	v.SetDefault("footer_label", "IBM Granite - Mental Health in Tech")
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".surveydeck"), nil
}
