package evaluation

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// ErrSingleClass is returned by ROCAUC when the true labels hold only one class.
var ErrSingleClass = errors.New("roc auc undefined: only one class present in y_true")

// ClassMetrics holds per-class (or averaged) precision, recall and F1.
type ClassMetrics struct {
	Label     string  `yaml:"label" json:"label"`
	Precision float64 `yaml:"precision" json:"precision"`
	Recall    float64 `yaml:"recall" json:"recall"`
	F1        float64 `yaml:"f1" json:"f1"`
	Support   int     `yaml:"support" json:"support"`
}

// Report is a binary classification report keyed by class index.
type Report struct {
	Classes     []ClassMetrics `yaml:"classes" json:"classes"`
	Accuracy    float64        `yaml:"accuracy" json:"accuracy"`
	MacroAvg    ClassMetrics   `yaml:"macro_avg" json:"macro_avg"`
	WeightedAvg ClassMetrics   `yaml:"weighted_avg" json:"weighted_avg"`
}

// Balance is the class split of the evaluated partition, in percent.
type Balance struct {
	Positive float64 `yaml:"positive_pct" json:"positive_pct"`
	Negative float64 `yaml:"negative_pct" json:"negative_pct"`
}

// ClassificationReport computes precision, recall, F1 and support per class.
// labels names the classes by index; classes are 0..len(labels)-1. Undefined
// ratios (no predictions or no support) are 0.
func ClassificationReport(yTrue, yPred []int, labels []string) Report {
	k := len(labels)
	tp := make([]int, k)
	predicted := make([]int, k)
	support := make([]int, k)
	correct := 0
	for i := range yTrue {
		t, p := yTrue[i], yPred[i]
		if t >= 0 && t < k {
			support[t]++
		}
		if p >= 0 && p < k {
			predicted[p]++
		}
		if t == p {
			correct++
			if t >= 0 && t < k {
				tp[t]++
			}
		}
	}

	rep := Report{Classes: make([]ClassMetrics, k)}
	total := 0
	for c := 0; c < k; c++ {
		m := ClassMetrics{Label: labels[c], Support: support[c]}
		m.Precision = ratio(tp[c], predicted[c])
		m.Recall = ratio(tp[c], support[c])
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		rep.Classes[c] = m
		total += support[c]

		rep.MacroAvg.Precision += m.Precision / float64(k)
		rep.MacroAvg.Recall += m.Recall / float64(k)
		rep.MacroAvg.F1 += m.F1 / float64(k)
		rep.WeightedAvg.Precision += m.Precision * float64(m.Support)
		rep.WeightedAvg.Recall += m.Recall * float64(m.Support)
		rep.WeightedAvg.F1 += m.F1 * float64(m.Support)
	}
	rep.MacroAvg.Label, rep.MacroAvg.Support = "macro avg", total
	rep.WeightedAvg.Label, rep.WeightedAvg.Support = "weighted avg", total
	if total > 0 {
		rep.WeightedAvg.Precision /= float64(total)
		rep.WeightedAvg.Recall /= float64(total)
		rep.WeightedAvg.F1 /= float64(total)
	}
	rep.Accuracy = ratio(correct, len(yTrue))
	return rep
}

// ClassBalance returns the positive (class 1) and negative (class 0) share of
// the report's support. The two always sum to 100 when there is any support.
func (r Report) ClassBalance() Balance {
	if len(r.Classes) < 2 {
		return Balance{}
	}
	neg, pos := r.Classes[0].Support, r.Classes[1].Support
	total := neg + pos
	if total == 0 {
		return Balance{}
	}
	p := float64(pos) / float64(total) * 100
	return Balance{Positive: p, Negative: 100 - p}
}

// ConfusionMatrix counts binary outcomes; rows are actual, columns predicted.
func ConfusionMatrix(yTrue, yPred []int) [2][2]int {
	var m [2][2]int
	for i := range yTrue {
		t, p := yTrue[i], yPred[i]
		if t < 0 || t > 1 || p < 0 || p > 1 {
			continue
		}
		m[t][p]++
	}
	return m
}

// ROCAUC returns the area under the ROC curve for positive-class scores.
// When yTrue holds a single class the result is 0.5 with ErrSingleClass.
func ROCAUC(yTrue []int, scores []float64) (float64, error) {
	if len(yTrue) != len(scores) {
		return 0, fmt.Errorf("roc auc: %d labels but %d scores", len(yTrue), len(scores))
	}
	pos, neg := 0, 0
	for _, v := range yTrue {
		if v == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0.5, ErrSingleClass
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] < scores[order[b]] })
	y := make([]float64, len(order))
	classes := make([]bool, len(order))
	for k, i := range order {
		y[k] = scores[i]
		classes[k] = yTrue[i] == 1
	}
	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	auc := integrate.Trapezoidal(fpr, tpr)
	return math.Min(1, math.Max(0, auc)), nil
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}
