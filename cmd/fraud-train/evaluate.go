package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/med2305/mlops/internal/application/usecase"
	"github.com/med2305/mlops/internal/domain/model"
	"github.com/med2305/mlops/internal/domain/service"
	"github.com/med2305/mlops/internal/infrastructure/artifact"
	"github.com/med2305/mlops/internal/infrastructure/dataset"
)

func evaluateCmd() *cobra.Command {
	var (
		labelField string
		threshold  float64
	)
	cmd := &cobra.Command{
		Use:   "evaluate [bundle-dir] [dataset.csv]",
		Short: "Score a labeled dataset with an existing bundle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle, err := loadBundleDir(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			ds, err := dataset.LoadCSV(args[1], dataset.DefaultOptions())
			if err != nil {
				return err
			}
			report, err := usecase.NewEvaluateBundle(service.NewVectorizer()).Execute(bundle, ds, labelField, threshold)
			if err != nil {
				return fmt.Errorf("failed to evaluate bundle: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "bundle %s (%s)\n", bundle.ID(), bundle.Classifier().Kind())
			printReport(out, report)
			return nil
		},
	}

	cmd.Flags().StringVar(&labelField, "label", dataset.DefaultLabelField, "label column")
	cmd.Flags().Float64Var(&threshold, "threshold", 0.5, "decision threshold")

	return cmd
}

func loadBundleDir(ctx context.Context, path string) (*model.Bundle, error) {
	bundle, err := artifact.NewDirSource(path).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load bundle from %s: %w", path, err)
	}
	return bundle, nil
}
