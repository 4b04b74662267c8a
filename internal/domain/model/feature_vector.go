package model

// FeatureVector is a fixed-width numeric vector. Position i corresponds to
// the i-th name of the schema registry's feature order.
type FeatureVector struct {
	values []float64
}

// NewFeatureVector copies values into a new vector.
func NewFeatureVector(values []float64) FeatureVector {
	v := make([]float64, len(values))
	copy(v, values)
	return FeatureVector{values: v}
}

// Len returns the vector width.
func (v FeatureVector) Len() int { return len(v.values) }

// At returns the value at position i.
func (v FeatureVector) At(i int) float64 { return v.values[i] }

// Values returns a copy of the underlying values.
func (v FeatureVector) Values() []float64 {
	out := make([]float64, len(v.values))
	copy(out, v.values)
	return out
}

// Matrix stacks vectors into rows suitable for a classifier.
func Matrix(vectors []FeatureVector) [][]float64 {
	rows := make([][]float64, len(vectors))
	for i, v := range vectors {
		rows[i] = v.Values()
	}
	return rows
}
