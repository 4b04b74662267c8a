package dto

import (
	"github.com/google/uuid"

	"github.com/med2305/mlops/internal/domain/model"
)

// TrainRequest is the input DTO for the TrainModel use case.
type TrainRequest struct {
	Dataset    model.Dataset
	LabelField string
	TestSize   float64
	Threshold  float64
	Seed       int64
}

// TrainResult describes a trained and published bundle.
type TrainResult struct {
	Bundle      *model.Bundle
	Evaluation  model.EvaluationReport
	PublishedTo []string
	BundleID    uuid.UUID
	TrainRows   int
	TestRows    int
}
