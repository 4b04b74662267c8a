package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/med2305/mlops/internal/domain/model"
)

func inspectCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "inspect [bundle-dir]",
		Short: "Print a bundle's feature layout and manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle, err := loadBundleDir(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeInspectJSON(cmd.OutOrStdout(), bundle)
			}
			writeInspectText(cmd.OutOrStdout(), bundle)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "output as JSON")

	return cmd
}

type inspectOutput struct {
	Manifest      model.BundleManifest    `json:"manifest"`
	BundleID      string                  `json:"bundle_id"`
	ModelKind     string                  `json:"model_kind"`
	FeatureOrder  []string                `json:"feature_order"`
	NumericFields []string                `json:"numeric_fields"`
	Encoders      []model.CategoryEncoder `json:"encoders"`
}

func writeInspectJSON(w io.Writer, b *model.Bundle) error {
	reg := b.Registry()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(inspectOutput{
		Manifest:      b.Manifest(),
		BundleID:      b.ID().String(),
		ModelKind:     b.Classifier().Kind(),
		FeatureOrder:  reg.FeatureOrder(),
		NumericFields: reg.NumericFields(),
		Encoders:      reg.Encoders(),
	})
}

func writeInspectText(w io.Writer, b *model.Bundle) {
	reg := b.Registry()
	m := b.Manifest()
	fmt.Fprintf(w, "bundle:     %s\n", b.ID())
	fmt.Fprintf(w, "model:      %s\n", b.Classifier().Kind())
	fmt.Fprintf(w, "created_at: %s\n", m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
	fmt.Fprintf(w, "label:      %s\n", m.LabelField)
	fmt.Fprintf(w, "train_rows: %d\n", m.TrainingRows)
	fmt.Fprintf(w, "numeric:    %s\n", strings.Join(reg.NumericFields(), ", "))
	for _, e := range reg.Encoders() {
		fmt.Fprintf(w, "encoder %s: %s\n", e.Field, strings.Join(e.Categories, ", "))
	}
	fmt.Fprintf(w, "features (%d):\n", reg.NFeatures())
	for i, name := range reg.FeatureOrder() {
		fmt.Fprintf(w, "  %3d %s\n", i, name)
	}
	if m.Evaluation != nil {
		fmt.Fprintln(w, "evaluation:")
		printReport(w, *m.Evaluation)
	}
}
