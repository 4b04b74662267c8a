package service

import (
	"errors"
	"fmt"
	"sort"

	"github.com/med2305/mlops/internal/domain/model"
)

// ErrSingleClass is returned when evaluation labels contain only one class.
var ErrSingleClass = errors.New("evaluation requires both classes in the labels")

// Evaluate scores held-out probabilities against true labels.
func Evaluate(labels []int, probabilities []float64, threshold float64) (model.EvaluationReport, error) {
	if len(labels) != len(probabilities) {
		return model.EvaluationReport{}, fmt.Errorf("labels and probabilities differ in length: %d vs %d", len(labels), len(probabilities))
	}
	if len(labels) == 0 {
		return model.EvaluationReport{}, model.ErrEmptyDataset
	}

	var cm model.ConfusionMatrix
	for i, y := range labels {
		pred := probabilities[i] > threshold
		switch {
		case y == 1 && pred:
			cm.TruePositives++
		case y == 1 && !pred:
			cm.FalseNegatives++
		case y == 0 && pred:
			cm.FalsePositives++
		default:
			cm.TrueNegatives++
		}
	}

	auc, err := rocAUC(labels, probabilities)
	if err != nil {
		return model.EvaluationReport{}, err
	}

	precision := ratio(cm.TruePositives, cm.TruePositives+cm.FalsePositives)
	recall := ratio(cm.TruePositives, cm.TruePositives+cm.FalseNegatives)
	f1 := 0.0
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}

	return model.EvaluationReport{
		Confusion:         cm,
		Accuracy:          ratio(cm.TruePositives+cm.TrueNegatives, len(labels)),
		Precision:         precision,
		Recall:            recall,
		F1:                f1,
		ROCAUC:            auc,
		FalsePositiveRate: ratio(cm.FalsePositives, cm.FalsePositives+cm.TrueNegatives),
		Threshold:         threshold,
		Samples:           len(labels),
	}, nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// rocAUC computes the area under the ROC curve from the Mann-Whitney U
// statistic, giving tied scores their average rank.
func rocAUC(labels []int, scores []float64) (float64, error) {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] < scores[idx[b]] })

	ranks := make([]float64, len(scores))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && scores[idx[j+1]] == scores[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}

	var pos, neg int
	var rankSum float64
	for i, y := range labels {
		if y == 1 {
			pos++
			rankSum += ranks[i]
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0, ErrSingleClass
	}

	u := rankSum - float64(pos)*float64(pos+1)/2
	return u / (float64(pos) * float64(neg)), nil
}
