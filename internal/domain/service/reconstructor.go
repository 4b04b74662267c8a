package service

import (
	"fmt"
	"math"

	"github.com/med2305/mlops/internal/domain/model"
)

// Reconstruct rebuilds the feature vector for a single raw record using only
// the persisted registry. It is Encode followed by the persisted scaler.
func Reconstruct(record model.RawRecord, registry *model.SchemaRegistry) (model.FeatureVector, error) {
	raw, err := Encode(record, registry)
	if err != nil {
		return model.FeatureVector{}, err
	}

	vec, err := registry.Standardize(raw)
	if err != nil {
		return model.FeatureVector{}, err
	}
	for i := 0; i < vec.Len(); i++ {
		if x := vec.At(i); math.IsNaN(x) || math.IsInf(x, 0) {
			src := registry.Source(i)
			return model.FeatureVector{}, &model.InvalidFieldError{
				Field:  src.Field,
				Reason: fmt.Sprintf("scaled value for column %q is not finite", registry.FeatureOrder()[i]),
			}
		}
	}
	return vec, nil
}

// Encode produces the unscaled row for record. Columns are resolved through
// the registry's explicit column sources, never by name. A category the
// registry has never seen leaves every one-hot column of its field at zero.
// Extra fields are ignored; every missing required field is reported at once.
func Encode(record model.RawRecord, registry *model.SchemaRegistry) ([]float64, error) {
	if registry == nil {
		return nil, model.ErrModelNotReady
	}

	var missing []string
	for _, f := range registry.RequiredFields() {
		if _, ok := record[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, &model.MissingFieldError{Fields: missing}
	}
	return encodeRaw(record, registry)
}

// encodeRaw produces the unscaled row for record. Fitting and serving both
// go through it so that encoding cannot drift between the two.
func encodeRaw(record model.RawRecord, registry *model.SchemaRegistry) ([]float64, error) {
	n := registry.NFeatures()
	row := make([]float64, n)
	labels := make(map[string]string)

	for i := 0; i < n; i++ {
		src := registry.Source(i)
		if !src.OneHot {
			x, err := record.Number(src.Field)
			if err != nil {
				return nil, err
			}
			row[i] = x
			continue
		}

		label, ok := labels[src.Field]
		if !ok {
			v, present := record[src.Field]
			if !present {
				return nil, &model.MissingFieldError{Fields: []string{src.Field}}
			}
			label = v.Label()
			labels[src.Field] = label
		}
		if label == src.Category {
			row[i] = 1
		}
	}
	return row, nil
}
