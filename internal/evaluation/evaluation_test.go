package evaluation

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/surveydeck-cli/internal/dataset"
)

func TestClassificationReport(t *testing.T) {
	yTrue := []int{0, 0, 0, 1, 1, 1, 1, 1}
	yPred := []int{0, 0, 1, 1, 1, 1, 0, 1}
	rep := ClassificationReport(yTrue, yPred, []string{"No", "Yes"})

	require.Len(t, rep.Classes, 2)
	no, yes := rep.Classes[0], rep.Classes[1]
	assert.Equal(t, "No", no.Label)
	assert.Equal(t, 3, no.Support)
	assert.Equal(t, 5, yes.Support)
	assert.InDelta(t, 2.0/3.0, no.Precision, 1e-9)
	assert.InDelta(t, 2.0/3.0, no.Recall, 1e-9)
	assert.InDelta(t, 4.0/5.0, yes.Precision, 1e-9)
	assert.InDelta(t, 4.0/5.0, yes.Recall, 1e-9)
	assert.InDelta(t, 0.75, rep.Accuracy, 1e-9)
	assert.InDelta(t, (2.0/3.0+0.8)/2, rep.MacroAvg.Precision, 1e-9)
	assert.InDelta(t, (3*(2.0/3.0)+5*0.8)/8, rep.WeightedAvg.Recall, 1e-9)
	assert.Equal(t, 8, rep.WeightedAvg.Support)
}

func TestClassificationReportNoPredictions(t *testing.T) {
	rep := ClassificationReport([]int{0, 1}, []int{0, 0}, []string{"No", "Yes"})
	assert.Zero(t, rep.Classes[1].Precision)
	assert.Zero(t, rep.Classes[1].F1)
}

func TestClassBalanceSumsToHundred(t *testing.T) {
	for _, sup := range [][2]int{{1, 2}, {3, 7}, {126, 126}, {0, 5}, {101, 150}} {
		rep := Report{Classes: []ClassMetrics{{Support: sup[0]}, {Support: sup[1]}}}
		b := rep.ClassBalance()
		assert.InDelta(t, 100.0, b.Positive+b.Negative, 1e-9, "supports %v", sup)
	}
	b := Report{Classes: []ClassMetrics{{Support: 1}, {Support: 3}}}.ClassBalance()
	assert.InDelta(t, 75.0, b.Positive, 1e-9)
	assert.Equal(t, Balance{}, Report{}.ClassBalance())
}

func TestConfusionMatrix(t *testing.T) {
	m := ConfusionMatrix([]int{0, 0, 1, 1, 1}, []int{0, 1, 1, 0, 1})
	assert.Equal(t, [2][2]int{{1, 1}, {1, 2}}, m)
}

func TestROCAUC(t *testing.T) {
	cases := []struct {
		name   string
		y      []int
		scores []float64
		want   float64
	}{
		{"perfect", []int{0, 0, 1, 1}, []float64{0.1, 0.2, 0.8, 0.9}, 1},
		{"inverted", []int{1, 1, 0, 0}, []float64{0.1, 0.2, 0.8, 0.9}, 0},
		{"ties", []int{0, 1, 0, 1}, []float64{0.5, 0.5, 0.5, 0.5}, 0.5},
		{"mixed", []int{0, 0, 1, 1}, []float64{0.1, 0.4, 0.35, 0.8}, 0.75},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auc, err := ROCAUC(tc.y, tc.scores)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, auc, 1e-9)
		})
	}
}

func TestROCAUCSingleClass(t *testing.T) {
	auc, err := ROCAUC([]int{1, 1, 1}, []float64{0.2, 0.5, 0.9})
	assert.ErrorIs(t, err, ErrSingleClass)
	assert.Equal(t, 0.5, auc)

	_, err = ROCAUC([]int{1}, []float64{0.2, 0.5})
	assert.Error(t, err)
}

func TestRankImportancesIsStable(t *testing.T) {
	ranked := RankImportances([]string{"a", "b", "c", "d"}, []float64{0.1, 0.4, 0.1, 0.4})
	assert.Equal(t, []FeatureScore{{"b", 0.4}, {"d", 0.4}, {"a", 0.1}, {"c", 0.1}}, ranked)
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
	}
	assert.Equal(t, []string{"b", "d", "a"}, TopN(ranked, 3))
	assert.Equal(t, []string{"b"}, TopN(ranked[:1], 3))
}

// surveyTable builds an encoded table where family_history drives treatment.
func surveyTable(t *testing.T, n int) (*dataset.Dataset, []string) {
	t.Helper()
	header := []string{"Timestamp", "Age", "Gender", "family_history", "work_interfere", "treatment", "comments"}
	genders := []string{"male", "female", "other"}
	interfere := []string{"Never", "Rarely", "Sometimes", "Often"}
	var rows [][]string
	for i := 0; i < n; i++ {
		fh, treat := "No", "No"
		if i%2 == 0 {
			fh, treat = "Yes", "Yes"
		}
		if i%11 == 0 {
			treat = map[string]string{"Yes": "No", "No": "Yes"}[treat]
		}
		rows = append(rows, []string{
			fmt.Sprintf("2014-08-27 11:%02d:00", i%60),
			fmt.Sprint(20 + (i*7)%31),
			genders[i%3],
			fh,
			interfere[(i/2)%4],
			treat,
			"",
		})
	}
	ds := dataset.FromRecords("survey", header, rows, "Timestamp", "comments")
	books, err := ds.Encode("treatment")
	require.NoError(t, err)
	return ds, books["treatment"].Labels
}

func TestTrainEvaluatesAndRanks(t *testing.T) {
	ds, labels := surveyTable(t, 120)
	opt := DefaultOptions()
	opt.NEstimators = 20
	opt.ClassLabels = labels

	rf, b, err := Train(context.Background(), ds, opt)
	require.NoError(t, err)
	assert.Equal(t, 20, rf.Trees())
	assert.Equal(t, []string{"Timestamp", "comments"}, b.Dropped)
	assert.Equal(t, 24, b.TestRows)
	assert.Equal(t, 96, b.TrainRows)

	assert.GreaterOrEqual(t, b.ROCAUC, 0.0)
	assert.LessOrEqual(t, b.ROCAUC, 1.0)
	assert.Greater(t, b.Report.Accuracy, 0.7)
	assert.Equal(t, "Yes", b.Report.Classes[1].Label)
	assert.Len(t, b.Importances, 4)
	assert.Equal(t, "family_history", b.TopFeatures[0])
	assert.Len(t, b.TopFeatures, 3)
	assert.InDelta(t, 100.0, b.Balance.Positive+b.Balance.Negative, 1e-9)

	sum := 0
	for _, row := range b.Confusion {
		sum += row[0] + row[1]
	}
	assert.Equal(t, b.TestRows, sum)
}

func TestTrainIsReproducible(t *testing.T) {
	run := func() *Bundle {
		ds, labels := surveyTable(t, 80)
		opt := DefaultOptions()
		opt.NEstimators = 15
		opt.ClassLabels = labels
		_, b, err := Train(context.Background(), ds, opt)
		require.NoError(t, err)
		return b
	}
	a, b := run(), run()
	assert.Equal(t, a.TopFeatures, b.TopFeatures)
	assert.Equal(t, a.Importances, b.Importances)
	assert.Equal(t, a.ROCAUC, b.ROCAUC)
}

func TestTrainHonorsTreeLimits(t *testing.T) {
	ds, labels := surveyTable(t, 80)
	opt := DefaultOptions()
	opt.NEstimators = 10
	opt.MaxDepth = 1
	opt.MaxFeatures = 1
	opt.Workers = 2
	opt.ClassLabels = labels
	rf, b, err := Train(context.Background(), ds, opt)
	require.NoError(t, err)
	assert.Equal(t, 10, rf.Trees())
	assert.Equal(t, 1, rf.MaxDepth)
	assert.Len(t, b.TopFeatures, 3)
	assert.GreaterOrEqual(t, b.ROCAUC, 0.0)
}

func TestTrainMissingTarget(t *testing.T) {
	ds, _ := surveyTable(t, 10)
	opt := DefaultOptions()
	opt.Target = "seek_help"
	_, _, err := Train(context.Background(), ds, opt)
	assert.ErrorIs(t, err, dataset.ErrMissingTargetColumn)
}

func TestWriteWorkbook(t *testing.T) {
	b := &Bundle{
		Report:    ClassificationReport([]int{0, 1, 1}, []int{0, 1, 0}, []string{"No", "Yes"}),
		Confusion: [2][2]int{{1, 0}, {1, 1}},
		ROCAUC:    0.75,
		Importances: []FeatureScore{
			{"family_history", 0.5}, {"work_interfere", 0.3}, {"Age", 0.2},
		},
	}
	path := filepath.Join(t.TempDir(), "out", "metrics.xlsx")
	require.NoError(t, WriteWorkbook(b, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{SheetReport, SheetConfusion, SheetImportance}, f.GetSheetList())

	v, err := f.GetCellValue(SheetImportance, "B2")
	require.NoError(t, err)
	assert.Equal(t, "family_history", v)
	v, err = f.GetCellValue(SheetConfusion, "A3")
	require.NoError(t, err)
	assert.Equal(t, "actual Yes", v)
	v, err = f.GetCellValue(SheetReport, "A2")
	require.NoError(t, err)
	assert.Equal(t, "No", v)
}
