package evaluation

import (
	"context"
	"errors"
	"fmt"

	"github.com/KaramelBytes/surveydeck-cli/internal/dataset"
	"github.com/KaramelBytes/surveydeck-cli/internal/forest"
)

// Options controls training and evaluation.
type Options struct {
	Target      string
	DropColumns []string
	TestSize    float64
	Seed        int64
	NEstimators int
	MaxDepth    int      // 0 => grow until pure
	MaxFeatures int      // 0 => floor(sqrt(p))
	Workers     int      // 0 => GOMAXPROCS
	ClassLabels []string // names for class 0 and 1; defaults to "0", "1"
	TopN        int      // features named in the summary; default 3
}

// DefaultOptions mirrors the survey defaults: 80/20 split, seed 42, 100 trees.
func DefaultOptions() Options {
	return Options{
		Target:      "treatment",
		DropColumns: []string{"Timestamp", "state", "comments"},
		TestSize:    0.2,
		Seed:        42,
		NEstimators: 100,
		TopN:        3,
	}
}

// Bundle is everything derived from one evaluated model.
type Bundle struct {
	Report      Report         `yaml:"report" json:"report"`
	Confusion   [2][2]int      `yaml:"confusion" json:"confusion"`
	ROCAUC      float64        `yaml:"roc_auc" json:"roc_auc"`
	Importances []FeatureScore `yaml:"importances" json:"importances"`
	TopFeatures []string       `yaml:"top_features" json:"top_features"`
	Balance     Balance        `yaml:"class_balance" json:"class_balance"`
	Dropped     []string       `yaml:"dropped_columns,omitempty" json:"dropped_columns,omitempty"`
	TrainRows   int            `yaml:"train_rows" json:"train_rows"`
	TestRows    int            `yaml:"test_rows" json:"test_rows"`
	Warnings    []string       `yaml:"warnings,omitempty" json:"warnings,omitempty"`
}

// Train drops the non-feature columns, splits the encoded dataset, fits a seeded
// forest on the train partition and evaluates it on the test partition.
// ds must already be encoded. A missing target is dataset.ErrMissingTargetColumn.
func Train(ctx context.Context, ds *dataset.Dataset, opt Options) (*forest.RandomForest, *Bundle, error) {
	if opt.Target == "" {
		opt.Target = "treatment"
	}
	if opt.NEstimators <= 0 {
		opt.NEstimators = 100
	}
	if opt.TopN <= 0 {
		opt.TopN = 3
	}
	labels := opt.ClassLabels
	if len(labels) != 2 {
		labels = []string{"0", "1"}
	}
	if !ds.Has(opt.Target) {
		return nil, nil, fmt.Errorf("%w: %q", dataset.ErrMissingTargetColumn, opt.Target)
	}

	b := &Bundle{Dropped: ds.DropColumns(opt.DropColumns...)}
	X, y, features, err := ds.Matrix(opt.Target)
	if err != nil {
		return nil, nil, err
	}
	if len(features) == 0 {
		return nil, nil, errors.New("no feature columns left after dropping")
	}
	if len(X) < 2 {
		return nil, nil, fmt.Errorf("need at least 2 rows to split, have %d", len(X))
	}

	split := dataset.SplitIndices(len(X), opt.TestSize, opt.Seed)
	xTrain, yTrain := dataset.Take(X, y, split.Train)
	xTest, yTest := dataset.Take(X, y, split.Test)
	b.TrainRows, b.TestRows = len(xTrain), len(xTest)

	fopts := []forest.Option{
		forest.WithNEstimators(opt.NEstimators),
		forest.WithRandomState(opt.Seed),
		forest.WithMaxDepth(opt.MaxDepth),
		forest.WithMaxFeatures(opt.MaxFeatures),
	}
	if opt.Workers > 0 {
		fopts = append(fopts, forest.WithWorkers(opt.Workers))
	}
	rf := forest.New(fopts...)
	if err := rf.Fit(ctx, xTrain, yTrain); err != nil {
		return nil, nil, fmt.Errorf("fit forest: %w", err)
	}

	yPred := rf.Predict(xTest)
	b.Report = ClassificationReport(yTest, yPred, labels)
	b.Confusion = ConfusionMatrix(yTest, yPred)
	b.ROCAUC, err = ROCAUC(yTest, positiveScores(rf, xTest))
	if errors.Is(err, ErrSingleClass) {
		b.Warnings = append(b.Warnings, err.Error()+"; reporting 0.5")
	} else if err != nil {
		return nil, nil, err
	}
	b.Importances = RankImportances(features, rf.FeatureImportances())
	b.TopFeatures = TopN(b.Importances, opt.TopN)
	b.Balance = b.Report.ClassBalance()
	return rf, b, nil
}

// positiveScores returns P(class 1) per row. A forest trained on one class has
// no class-1 column, so every score is 0.
func positiveScores(rf *forest.RandomForest, X [][]float64) []float64 {
	col := -1
	for i, c := range rf.Classes() {
		if c == 1 {
			col = i
		}
	}
	out := make([]float64, len(X))
	if col < 0 {
		return out
	}
	for i, p := range rf.PredictProba(X) {
		out[i] = p[col]
	}
	return out
}
