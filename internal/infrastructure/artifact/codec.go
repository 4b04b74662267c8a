// Package artifact persists model bundles and loads them back from an
// ordered list of candidate sources.
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/med2305/mlops/internal/domain/model"
	"github.com/med2305/mlops/internal/domain/port"
	"github.com/med2305/mlops/internal/infrastructure/classifier"
)

// Files making up a bundle.
const (
	FileFeatureNames = "feature_names.json"
	FileEncoders     = "encoders.json"
	FileScaler       = "scaler.json"
	FileModel        = "model.json"
	FileManifest     = "manifest.json"
)

// payloadFiles are covered by the manifest checksums.
var payloadFiles = []string{FileFeatureNames, FileEncoders, FileScaler, FileModel}

// ErrChecksumMismatch is returned when a file does not match its manifest digest.
var ErrChecksumMismatch = errors.New("checksum mismatch")

type encodersFile struct {
	NumericFields []string                `json:"numeric_fields"`
	Encoders      []model.CategoryEncoder `json:"encoders"`
}

type manifestFile struct {
	CreatedAt    time.Time               `json:"created_at"`
	Evaluation   *model.EvaluationReport `json:"evaluation,omitempty"`
	Checksums    map[string]string       `json:"checksums"`
	ModelKind    string                  `json:"model_kind"`
	LabelField   string                  `json:"label_field,omitempty"`
	BundleID     uuid.UUID               `json:"bundle_id"`
	NFeatures    int                     `json:"n_features"`
	TrainingRows int                     `json:"training_rows,omitempty"`
}

// Encode serializes a bundle into its files.
func Encode(b *model.Bundle) (port.BundleArchive, error) {
	reg := b.Registry()

	files := make(map[string][]byte, len(payloadFiles)+1)
	put := func(name string, v any) error {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", name, err)
		}
		files[name] = data
		return nil
	}

	if err := put(FileFeatureNames, reg.FeatureOrder()); err != nil {
		return port.BundleArchive{}, err
	}
	if err := put(FileEncoders, encodersFile{NumericFields: reg.NumericFields(), Encoders: reg.Encoders()}); err != nil {
		return port.BundleArchive{}, err
	}
	if err := put(FileScaler, reg.Scaler()); err != nil {
		return port.BundleArchive{}, err
	}
	modelData, err := classifier.Marshal(b.Classifier())
	if err != nil {
		return port.BundleArchive{}, err
	}
	files[FileModel] = modelData

	m := b.Manifest()
	checksums := make(map[string]string, len(payloadFiles))
	for _, name := range payloadFiles {
		checksums[name] = digest(files[name])
	}
	if err := put(FileManifest, manifestFile{
		BundleID:     b.ID(),
		CreatedAt:    m.CreatedAt,
		ModelKind:    m.ModelKind,
		LabelField:   m.LabelField,
		TrainingRows: m.TrainingRows,
		Evaluation:   m.Evaluation,
		NFeatures:    reg.NFeatures(),
		Checksums:    checksums,
	}); err != nil {
		return port.BundleArchive{}, err
	}

	return port.BundleArchive{ID: b.ID(), CreatedAt: m.CreatedAt, Files: files}, nil
}

// Decode verifies checksums and rebuilds a bundle. Every component is
// cross-checked against the feature order before the bundle is returned.
func Decode(archive port.BundleArchive) (*model.Bundle, error) {
	var mf manifestFile
	if err := unmarshalFile(archive.Files, FileManifest, &mf); err != nil {
		return nil, err
	}
	for _, name := range payloadFiles {
		data, ok := archive.Files[name]
		if !ok {
			return nil, fmt.Errorf("bundle is missing %s", name)
		}
		want, ok := mf.Checksums[name]
		if !ok {
			return nil, fmt.Errorf("manifest has no checksum for %s", name)
		}
		if got := digest(data); got != want {
			return nil, fmt.Errorf("%s: %w", name, ErrChecksumMismatch)
		}
	}

	var order []string
	if err := unmarshalFile(archive.Files, FileFeatureNames, &order); err != nil {
		return nil, err
	}
	var enc encodersFile
	if err := unmarshalFile(archive.Files, FileEncoders, &enc); err != nil {
		return nil, err
	}
	var scaler model.Scaler
	if err := unmarshalFile(archive.Files, FileScaler, &scaler); err != nil {
		return nil, err
	}

	reg, err := model.NewSchemaRegistry(order, enc.NumericFields, enc.Encoders, scaler)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild schema registry: %w", err)
	}

	clf, err := classifier.Unmarshal(archive.Files[FileModel])
	if err != nil {
		return nil, err
	}

	if mf.NFeatures != 0 && mf.NFeatures != reg.NFeatures() {
		return nil, &model.SchemaMismatchError{Component: "manifest", Expected: reg.NFeatures(), Got: mf.NFeatures}
	}

	return model.NewBundle(mf.BundleID, reg, clf, model.BundleManifest{
		CreatedAt:    mf.CreatedAt,
		Evaluation:   mf.Evaluation,
		ModelKind:    mf.ModelKind,
		LabelField:   mf.LabelField,
		TrainingRows: mf.TrainingRows,
	})
}

// Checksums returns the manifest digests of an encoded archive, sorted by file.
func Checksums(archive port.BundleArchive) ([]string, error) {
	var mf manifestFile
	if err := unmarshalFile(archive.Files, FileManifest, &mf); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(mf.Checksums))
	for name, sum := range mf.Checksums {
		out = append(out, name+" "+sum)
	}
	sort.Strings(out)
	return out, nil
}

func unmarshalFile(files map[string][]byte, name string, v any) error {
	data, ok := files[name]
	if !ok {
		return fmt.Errorf("bundle is missing %s", name)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
