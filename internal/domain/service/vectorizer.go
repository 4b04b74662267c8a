package service

import (
	"math"

	"github.com/med2305/mlops/internal/domain/model"
)

// TrainingSet is the output of fitting the vectorizer.
type TrainingSet struct {
	Registry *model.SchemaRegistry
	Vectors  []model.FeatureVector
	Labels   []int
}

// Vectorizer builds a schema registry from labeled records.
type Vectorizer struct{}

// NewVectorizer creates a new Vectorizer.
func NewVectorizer() *Vectorizer {
	return &Vectorizer{}
}

// FitTransform fits encoders and scaler on ds and returns the scaled matrix.
//
// A field is numeric when every record holds a number for it, otherwise it is
// categorical. Numeric columns come first in declaration order, followed by
// each categorical field's one-hot columns in declaration order, with
// categories in first-encountered order. Every observed category gets a column.
func (v *Vectorizer) FitTransform(ds model.Dataset, labelField string) (*TrainingSet, error) {
	if len(ds.Records) == 0 {
		return nil, model.ErrEmptyDataset
	}

	labels, err := ds.Labels(labelField)
	if err != nil {
		return nil, err
	}

	var numeric []string
	var encoders []model.CategoryEncoder

	for _, field := range ds.Fields {
		if field == labelField {
			continue
		}

		isNumeric := true
		for i, rec := range ds.Records {
			val, ok := rec[field]
			if !ok {
				return nil, &model.RecordError{Index: i, Err: &model.MissingFieldError{Fields: []string{field}}}
			}
			if !val.IsNumber() {
				isNumeric = false
			}
		}

		if isNumeric {
			numeric = append(numeric, field)
			continue
		}

		seen := make(map[string]struct{})
		var categories []string
		for _, rec := range ds.Records {
			label := rec[field].Label()
			if _, ok := seen[label]; ok {
				continue
			}
			seen[label] = struct{}{}
			categories = append(categories, label)
		}
		encoders = append(encoders, model.NewCategoryEncoder(field, categories))
	}

	order := make([]string, 0, len(numeric))
	order = append(order, numeric...)
	for _, enc := range encoders {
		order = append(order, enc.Columns...)
	}

	n := len(order)
	identity := model.Scaler{Mean: make([]float64, n), Scale: make([]float64, n)}
	for i := range identity.Scale {
		identity.Scale[i] = 1
	}
	unscaled, err := model.NewSchemaRegistry(order, numeric, encoders, identity)
	if err != nil {
		return nil, err
	}

	rows := make([][]float64, len(ds.Records))
	for i, rec := range ds.Records {
		row, err := encodeRaw(rec, unscaled)
		if err != nil {
			return nil, &model.RecordError{Index: i, Err: err}
		}
		rows[i] = row
	}

	registry, err := model.NewSchemaRegistry(order, numeric, encoders, FitScaler(rows))
	if err != nil {
		return nil, err
	}

	vectors := make([]model.FeatureVector, len(rows))
	for i, row := range rows {
		vec, err := registry.Standardize(row)
		if err != nil {
			return nil, &model.RecordError{Index: i, Err: err}
		}
		vectors[i] = vec
	}

	return &TrainingSet{Registry: registry, Vectors: vectors, Labels: labels}, nil
}

// Transform vectorizes ds with an already fitted registry, as serving would.
func (v *Vectorizer) Transform(ds model.Dataset, labelField string, registry *model.SchemaRegistry) ([]model.FeatureVector, []int, error) {
	labels, err := ds.Labels(labelField)
	if err != nil {
		return nil, nil, err
	}
	vectors := make([]model.FeatureVector, len(ds.Records))
	for i, rec := range ds.Records {
		vec, err := Reconstruct(rec, registry)
		if err != nil {
			return nil, nil, &model.RecordError{Index: i, Err: err}
		}
		vectors[i] = vec
	}
	return vectors, labels, nil
}

// FitScaler computes per-column mean and population standard deviation.
// Zero-variance columns get a scale of 1.
func FitScaler(rows [][]float64) model.Scaler {
	if len(rows) == 0 {
		return model.Scaler{}
	}
	n := len(rows[0])
	mean := make([]float64, n)
	scale := make([]float64, n)
	count := float64(len(rows))

	for _, row := range rows {
		for j, x := range row {
			mean[j] += x
		}
	}
	for j := range mean {
		mean[j] /= count
	}

	for _, row := range rows {
		for j, x := range row {
			d := x - mean[j]
			scale[j] += d * d
		}
	}
	for j := range scale {
		scale[j] = math.Sqrt(scale[j] / count)
		if scale[j] == 0 {
			scale[j] = 1
		}
	}
	return model.Scaler{Mean: mean, Scale: scale}
}
