package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/med2305/mlops/internal/application/dto"
	"github.com/med2305/mlops/internal/domain/model"
	"github.com/med2305/mlops/internal/domain/port"
	"github.com/med2305/mlops/internal/domain/service"
)

// EstimatorFactory returns a fresh, unfitted estimator.
type EstimatorFactory func() (port.Estimator, error)

// TrainModel is the offline training pipeline: split, fit the vectorizer on
// the training rows, fit a classifier, evaluate on the held-out rows through
// the serving path and publish the resulting bundle to every sink.
type TrainModel struct {
	vectorizer   *service.Vectorizer
	newEstimator EstimatorFactory
	sinks        []port.BundleSink
	logger       *slog.Logger
	now          func() time.Time
}

// NewTrainModel creates a new TrainModel use case.
func NewTrainModel(vectorizer *service.Vectorizer, newEstimator EstimatorFactory, sinks []port.BundleSink, logger *slog.Logger) *TrainModel {
	return &TrainModel{
		vectorizer:   vectorizer,
		newEstimator: newEstimator,
		sinks:        sinks,
		logger:       logger,
		now:          time.Now,
	}
}

// Execute trains and publishes a bundle. Publishing stops at the first sink
// that fails.
func (uc *TrainModel) Execute(ctx context.Context, req dto.TrainRequest) (dto.TrainResult, error) {
	if len(req.Dataset.Records) == 0 {
		return dto.TrainResult{}, model.ErrEmptyDataset
	}
	labels, err := req.Dataset.Labels(req.LabelField)
	if err != nil {
		return dto.TrainResult{}, fmt.Errorf("failed to read labels: %w", err)
	}

	trainIdx, testIdx, err := service.StratifiedSplit(labels, req.TestSize, req.Seed)
	if err != nil {
		return dto.TrainResult{}, fmt.Errorf("failed to split dataset: %w", err)
	}
	trainSet := req.Dataset.Subset(trainIdx)
	testSet := req.Dataset.Subset(testIdx)

	fitted, err := uc.vectorizer.FitTransform(trainSet, req.LabelField)
	if err != nil {
		return dto.TrainResult{}, fmt.Errorf("failed to fit vectorizer: %w", err)
	}

	estimator, err := uc.newEstimator()
	if err != nil {
		return dto.TrainResult{}, fmt.Errorf("failed to create estimator: %w", err)
	}
	if err := estimator.Fit(model.Matrix(fitted.Vectors), fitted.Labels); err != nil {
		return dto.TrainResult{}, fmt.Errorf("failed to fit %s: %w", estimator.Kind(), err)
	}
	uc.logger.InfoContext(ctx, "classifier fitted",
		"model_kind", estimator.Kind(),
		"n_features", fitted.Registry.NFeatures(),
		"train_rows", len(trainIdx),
	)

	report, err := evaluate(uc.vectorizer, fitted.Registry, estimator, testSet, req.LabelField, req.Threshold)
	if err != nil {
		return dto.TrainResult{}, fmt.Errorf("failed to evaluate: %w", err)
	}

	bundle, err := model.NewBundle(uuid.New(), fitted.Registry, estimator, model.BundleManifest{
		CreatedAt:    uc.now().UTC(),
		Evaluation:   &report,
		LabelField:   req.LabelField,
		TrainingRows: len(trainIdx),
	})
	if err != nil {
		return dto.TrainResult{}, fmt.Errorf("failed to assemble bundle: %w", err)
	}

	result := dto.TrainResult{
		Bundle:     bundle,
		Evaluation: report,
		BundleID:   bundle.ID(),
		TrainRows:  len(trainIdx),
		TestRows:   len(testIdx),
	}
	for _, sink := range uc.sinks {
		if err := sink.Publish(ctx, bundle); err != nil {
			return result, fmt.Errorf("failed to publish bundle to %s: %w", sink.Name(), err)
		}
		result.PublishedTo = append(result.PublishedTo, sink.Name())
		uc.logger.InfoContext(ctx, "bundle published", "bundle_id", bundle.ID(), "sink", sink.Name())
	}

	return result, nil
}

// EvaluateBundle scores a labeled dataset with an existing bundle.
type EvaluateBundle struct {
	vectorizer *service.Vectorizer
}

// NewEvaluateBundle creates a new EvaluateBundle use case.
func NewEvaluateBundle(vectorizer *service.Vectorizer) *EvaluateBundle {
	return &EvaluateBundle{vectorizer: vectorizer}
}

// Execute evaluates bundle on ds at the given threshold.
func (uc *EvaluateBundle) Execute(bundle *model.Bundle, ds model.Dataset, labelField string, threshold float64) (model.EvaluationReport, error) {
	if bundle == nil {
		return model.EvaluationReport{}, model.ErrModelNotReady
	}
	return evaluate(uc.vectorizer, bundle.Registry(), bundle.Classifier(), ds, labelField, threshold)
}

// evaluate vectorizes ds through the serving reconstructor and scores it.
func evaluate(v *service.Vectorizer, registry *model.SchemaRegistry, clf model.Classifier, ds model.Dataset, labelField string, threshold float64) (model.EvaluationReport, error) {
	if len(ds.Records) == 0 {
		return model.EvaluationReport{}, model.ErrEmptyDataset
	}
	vectors, labels, err := v.Transform(ds, labelField, registry)
	if err != nil {
		return model.EvaluationReport{}, err
	}
	probs, err := clf.PredictProba(model.Matrix(vectors))
	if err != nil {
		return model.EvaluationReport{}, fmt.Errorf("failed to predict: %w", err)
	}
	if len(probs) != len(labels) {
		return model.EvaluationReport{}, errors.New("classifier returned the wrong number of rows")
	}
	fraud := make([]float64, len(probs))
	for i, row := range probs {
		if len(row) <= model.FraudClass {
			return model.EvaluationReport{}, fmt.Errorf("classifier %s returned malformed probabilities", clf.Kind())
		}
		fraud[i] = row[model.FraudClass]
	}
	return service.Evaluate(labels, fraud, threshold)
}
