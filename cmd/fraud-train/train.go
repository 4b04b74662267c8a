package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/med2305/mlops/internal/application/dto"
	"github.com/med2305/mlops/internal/application/usecase"
	"github.com/med2305/mlops/internal/domain/model"
	"github.com/med2305/mlops/internal/domain/port"
	"github.com/med2305/mlops/internal/domain/service"
	"github.com/med2305/mlops/internal/infrastructure/artifact"
	"github.com/med2305/mlops/internal/infrastructure/classifier"
	"github.com/med2305/mlops/internal/infrastructure/dataset"
	"github.com/med2305/mlops/internal/infrastructure/postgres"
	"github.com/med2305/mlops/pkg/observability"
	pgutil "github.com/med2305/mlops/pkg/postgres"
)

func trainCmd() *cobra.Command {
	var (
		configPath string
		publishDB  string
	)
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a classifier and publish its bundle",
		Long: `Train a classifier on a labeled CSV and publish the resulting bundle.

The dataset is split into stratified train and test sets. The vectorizer is
fitted on the training rows only and the test rows are scored through the
serving path before the bundle is written.

Examples:
  fraud-train train --data data/transactions.csv --output models/current
  fraud-train train --config train.yaml --model random_forest
  fraud-train train --config train.yaml --publish-db postgres://localhost/fraud`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadTrainConfig(configPath)
			if err != nil {
				return err
			}
			applyTrainFlags(cmd, &cfg)
			if err := cfg.validate(); err != nil {
				return err
			}
			return runTrain(cmd.Context(), cmd.OutOrStdout(), cmdLogger(cmd), cfg, publishDB)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML training config")
	cmd.Flags().String("data", "", "labeled CSV dataset")
	cmd.Flags().String("label", dataset.DefaultLabelField, "label column")
	cmd.Flags().String("model", classifier.KindLogisticRegression, "classifier kind (logistic_regression, random_forest)")
	cmd.Flags().StringP("output", "o", "models/current", "bundle output directory")
	cmd.Flags().Float64("test-size", 0.3, "held-out fraction")
	cmd.Flags().Float64("threshold", 0.5, "decision threshold used for evaluation")
	cmd.Flags().Int64("seed", 42, "split and classifier seed")
	cmd.Flags().StringVar(&publishDB, "publish-db", "", "also store the bundle in this Postgres database")

	return cmd
}

// applyTrainFlags overrides config values with explicitly set flags.
func applyTrainFlags(cmd *cobra.Command, cfg *trainConfig) {
	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.Data.Path, _ = flags.GetString("data")
	}
	if flags.Changed("label") {
		cfg.Data.LabelField, _ = flags.GetString("label")
	}
	if flags.Changed("model") {
		cfg.Model.Kind, _ = flags.GetString("model")
	}
	if flags.Changed("output") {
		cfg.Output, _ = flags.GetString("output")
	}
	if flags.Changed("test-size") {
		cfg.Data.TestSize, _ = flags.GetFloat64("test-size")
	}
	if flags.Changed("threshold") {
		cfg.Threshold, _ = flags.GetFloat64("threshold")
	}
	if flags.Changed("seed") {
		seed, _ := flags.GetInt64("seed")
		cfg.Data.Seed = seed
		cfg.Model.Forest.Seed = seed
	}
}

func runTrain(ctx context.Context, out io.Writer, logger *slog.Logger, cfg trainConfig, publishDB string) error {
	ds, err := dataset.LoadCSV(cfg.Data.Path, dataset.Options{Exclude: cfg.Data.Exclude})
	if err != nil {
		return err
	}
	logger.Info("dataset loaded", "path", cfg.Data.Path, "rows", len(ds.Records), "columns", len(ds.Fields))

	sinks := []port.BundleSink{artifact.NewDirSink(cfg.Output)}
	if publishDB != "" {
		pool, err := pgutil.NewPool(ctx, pgutil.Config{URL: publishDB, ApplicationName: "fraud-train"})
		if err != nil {
			return err
		}
		defer pool.Close()
		sinks = append(sinks, artifact.NewStoreSink(postgres.NewBundleRepository(pool), 30*time.Second))
	}

	train := usecase.NewTrainModel(service.NewVectorizer(), func() (port.Estimator, error) {
		return classifier.New(cfg.Model)
	}, sinks, logger)

	result, err := train.Execute(ctx, dto.TrainRequest{
		Dataset:    ds,
		LabelField: cfg.Data.LabelField,
		TestSize:   cfg.Data.TestSize,
		Threshold:  cfg.Threshold,
		Seed:       cfg.Data.Seed,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "bundle %s (%s, %d features)\n",
		result.BundleID, result.Bundle.Classifier().Kind(), result.Bundle.Registry().NFeatures())
	fmt.Fprintf(out, "trained on %d rows, evaluated on %d rows\n", result.TrainRows, result.TestRows)
	printReport(out, result.Evaluation)
	for _, sink := range result.PublishedTo {
		fmt.Fprintf(out, "published to %s\n", sink)
	}
	return nil
}

func printReport(w io.Writer, r model.EvaluationReport) {
	fmt.Fprintf(w, "threshold:           %.2f\n", r.Threshold)
	fmt.Fprintf(w, "samples:             %d\n", r.Samples)
	fmt.Fprintf(w, "accuracy:            %.4f\n", r.Accuracy)
	fmt.Fprintf(w, "precision:           %.4f\n", r.Precision)
	fmt.Fprintf(w, "recall:              %.4f\n", r.Recall)
	fmt.Fprintf(w, "f1:                  %.4f\n", r.F1)
	fmt.Fprintf(w, "roc_auc:             %.4f\n", r.ROCAUC)
	fmt.Fprintf(w, "false_positive_rate: %.4f\n", r.FalsePositiveRate)
	c := r.Confusion
	fmt.Fprintf(w, "confusion:           tn=%d fp=%d fn=%d tp=%d\n",
		c.TrueNegatives, c.FalsePositives, c.FalseNegatives, c.TruePositives)
}

// cmdLogger logs to stderr so stdout stays parseable.
func cmdLogger(cmd *cobra.Command) *slog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	return observability.InitLogger(observability.LogConfig{
		Output:      cmd.ErrOrStderr(),
		Level:       level,
		ServiceName: "fraud-train",
	})
}
