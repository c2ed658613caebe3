package pipeline

import (
	"fmt"
	"time"

	"github.com/KaramelBytes/surveydeck-cli/internal/ai"
	"github.com/KaramelBytes/surveydeck-cli/internal/evaluation"
	"github.com/KaramelBytes/surveydeck-cli/internal/narrative"
	"github.com/KaramelBytes/surveydeck-cli/internal/utils"
)

// Results is the run manifest shared by the analyze and deck stages.
type Results struct {
	RunID      string    `yaml:"run_id"`
	StartedAt  time.Time `yaml:"started_at"`
	FinishedAt time.Time `yaml:"finished_at"`

	InputPath   string   `yaml:"input_path"`
	Rows        int      `yaml:"rows"`
	Features    int      `yaml:"features"`
	Target      string   `yaml:"target"`
	ClassLabels []string `yaml:"class_labels"`

	Metrics *evaluation.Bundle `yaml:"metrics"`
	Prompt  string             `yaml:"prompt"`
	Summary SummaryRecord      `yaml:"summary"`

	Artifacts Artifacts `yaml:"artifacts"`
}

// SummaryRecord is the narrative and where it came from.
type SummaryRecord struct {
	Source narrative.Source `yaml:"source"`
	Model  string           `yaml:"model,omitempty"`
	Text   string           `yaml:"text"`
	Error  string           `yaml:"error,omitempty"`
	// ErrorKind classifies Error, e.g. auth, quota or unreachable.
	ErrorKind ai.FailureKind `yaml:"error_kind,omitempty"`
}

// Artifacts lists the files a run wrote.
type Artifacts struct {
	DistributionChart string `yaml:"distribution_chart"`
	ConfusionChart    string `yaml:"confusion_chart"`
	ImportanceChart   string `yaml:"importance_chart"`
	Workbook          string `yaml:"workbook,omitempty"`
	Deck              string `yaml:"deck,omitempty"`
}

// Save writes the manifest atomically as YAML.
func (r *Results) Save(path string) error {
	if err := utils.WriteYAML(path, r); err != nil {
		return fmt.Errorf("save results: %w", err)
	}
	return nil
}

// LoadResults reads a manifest written by Save.
func LoadResults(path string) (*Results, error) {
	var r Results
	if err := utils.ReadYAML(path, &r); err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}
	if r.Metrics == nil {
		return nil, fmt.Errorf("load results: %s has no metrics; run analyze first", path)
	}
	return &r, nil
}
