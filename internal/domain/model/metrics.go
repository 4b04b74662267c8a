package model

// ConfusionMatrix counts outcomes for the fraud class.
type ConfusionMatrix struct {
	TrueNegatives  int `json:"tn"`
	FalsePositives int `json:"fp"`
	FalseNegatives int `json:"fn"`
	TruePositives  int `json:"tp"`
}

// EvaluationReport holds held-out metrics for a trained bundle.
type EvaluationReport struct {
	Confusion         ConfusionMatrix `json:"confusion_matrix"`
	Accuracy          float64         `json:"accuracy"`
	Precision         float64         `json:"precision"`
	Recall            float64         `json:"recall"`
	F1                float64         `json:"f1_score"`
	ROCAUC            float64         `json:"roc_auc"`
	FalsePositiveRate float64         `json:"false_positive_rate"`
	Threshold         float64         `json:"threshold"`
	Samples           int             `json:"samples"`
}
