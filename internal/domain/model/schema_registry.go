package model

import (
	"fmt"
	"math"
)

// CategoryEncoder is the fitted one-hot state of a single categorical field.
// Categories and Columns are parallel: Columns[i] is the one-hot column of Categories[i].
type CategoryEncoder struct {
	Field      string   `json:"field"`
	Categories []string `json:"categories"`
	Columns    []string `json:"columns"`
}

// ColumnName returns the one-hot column name for a field/category pair.
func ColumnName(field, category string) string {
	return field + "_" + category
}

// NewCategoryEncoder builds an encoder whose categories keep the given order.
func NewCategoryEncoder(field string, categories []string) CategoryEncoder {
	cats := make([]string, len(categories))
	cols := make([]string, len(categories))
	for i, c := range categories {
		cats[i] = c
		cols[i] = ColumnName(field, c)
	}
	return CategoryEncoder{Field: field, Categories: cats, Columns: cols}
}

// Scaler holds per-column standardisation parameters indexed by feature position.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Len returns the number of columns the scaler covers.
func (s Scaler) Len() int { return len(s.Mean) }

// Apply standardises x for column i.
func (s Scaler) Apply(i int, x float64) float64 {
	return (x - s.Mean[i]) / s.Scale[i]
}

// ColumnSource describes where the value of a feature column comes from.
type ColumnSource struct {
	Field    string
	Category string
	OneHot   bool
}

func (s ColumnSource) String() string {
	if s.OneHot {
		return fmt.Sprintf("field %q category %q", s.Field, s.Category)
	}
	return fmt.Sprintf("field %q", s.Field)
}

// columnProducers lists every numeric field and encoder category that maps to col.
func columnProducers(col string, numericFields []string, encoders []CategoryEncoder) []ColumnSource {
	var out []ColumnSource
	for _, f := range numericFields {
		if f == col {
			out = append(out, ColumnSource{Field: f})
		}
	}
	for _, enc := range encoders {
		for i, c := range enc.Columns {
			if c == col && i < len(enc.Categories) {
				out = append(out, ColumnSource{Field: enc.Field, Category: enc.Categories[i], OneHot: true})
			}
		}
	}
	return out
}

// SchemaRegistry is the persisted encoding contract between training and serving.
// It is immutable once constructed: accessors return copies.
type SchemaRegistry struct {
	featureOrder  []string
	numericFields []string
	encoders      []CategoryEncoder
	scaler        Scaler

	sources  []ColumnSource
	position map[string]int
	byField  map[string]int
}

// NewSchemaRegistry validates and assembles a registry.
//
// Every feature column must be either a numeric field or exactly one column of
// one encoder, every numeric field and encoder column must appear in the
// feature order exactly once, and the scaler must cover every column with
// finite parameters and a positive scale.
func NewSchemaRegistry(featureOrder, numericFields []string, encoders []CategoryEncoder, scaler Scaler) (*SchemaRegistry, error) {
	n := len(featureOrder)
	if n == 0 {
		return nil, fmt.Errorf("%w: feature order is empty", ErrInvalidSchema)
	}

	position := make(map[string]int, n)
	for i, name := range featureOrder {
		if _, dup := position[name]; dup {
			return nil, &ColumnCollisionError{Column: name, Sources: columnProducers(name, numericFields, encoders)}
		}
		position[name] = i
	}

	sources := make([]ColumnSource, n)
	assigned := make([]bool, n)
	fields := make(map[string]struct{}, len(numericFields)+len(encoders))

	assign := func(col string, src ColumnSource) error {
		i, ok := position[col]
		if !ok {
			return fmt.Errorf("%w: column %q is not in the feature order", ErrInvalidSchema, col)
		}
		if assigned[i] {
			return &ColumnCollisionError{Column: col, Sources: columnProducers(col, numericFields, encoders)}
		}
		assigned[i] = true
		sources[i] = src
		return nil
	}

	for _, f := range numericFields {
		if _, dup := fields[f]; dup {
			return nil, fmt.Errorf("%w: field %q declared twice", ErrInvalidSchema, f)
		}
		fields[f] = struct{}{}
		if err := assign(f, ColumnSource{Field: f}); err != nil {
			return nil, err
		}
	}

	byField := make(map[string]int, len(encoders))
	encs := make([]CategoryEncoder, len(encoders))
	for ei, enc := range encoders {
		if _, dup := fields[enc.Field]; dup {
			return nil, fmt.Errorf("%w: field %q declared twice", ErrInvalidSchema, enc.Field)
		}
		fields[enc.Field] = struct{}{}
		if len(enc.Categories) != len(enc.Columns) {
			return nil, fmt.Errorf("%w: encoder %q has %d categories and %d columns",
				ErrInvalidSchema, enc.Field, len(enc.Categories), len(enc.Columns))
		}
		seen := make(map[string]struct{}, len(enc.Categories))
		for ci, cat := range enc.Categories {
			if _, dup := seen[cat]; dup {
				return nil, fmt.Errorf("%w: encoder %q repeats category %q", ErrInvalidSchema, enc.Field, cat)
			}
			seen[cat] = struct{}{}
			if err := assign(enc.Columns[ci], ColumnSource{Field: enc.Field, Category: cat, OneHot: true}); err != nil {
				return nil, err
			}
		}
		byField[enc.Field] = ei
		encs[ei] = CategoryEncoder{
			Field:      enc.Field,
			Categories: append([]string(nil), enc.Categories...),
			Columns:    append([]string(nil), enc.Columns...),
		}
	}

	for i, ok := range assigned {
		if !ok {
			return nil, fmt.Errorf("%w: column %q has no source field", ErrInvalidSchema, featureOrder[i])
		}
	}

	if len(scaler.Mean) != n {
		return nil, &SchemaMismatchError{Component: "scaler mean", Expected: n, Got: len(scaler.Mean)}
	}
	if len(scaler.Scale) != n {
		return nil, &SchemaMismatchError{Component: "scaler scale", Expected: n, Got: len(scaler.Scale)}
	}
	for i := 0; i < n; i++ {
		m, s := scaler.Mean[i], scaler.Scale[i]
		if math.IsNaN(m) || math.IsInf(m, 0) || math.IsNaN(s) || math.IsInf(s, 0) || s <= 0 {
			return nil, fmt.Errorf("%w: scaler column %q has mean=%v scale=%v", ErrInvalidSchema, featureOrder[i], m, s)
		}
	}

	return &SchemaRegistry{
		featureOrder:  append([]string(nil), featureOrder...),
		numericFields: append([]string(nil), numericFields...),
		encoders:      encs,
		scaler: Scaler{
			Mean:  append([]float64(nil), scaler.Mean...),
			Scale: append([]float64(nil), scaler.Scale...),
		},
		sources:  sources,
		position: position,
		byField:  byField,
	}, nil
}

// NFeatures returns the vector width N.
func (r *SchemaRegistry) NFeatures() int { return len(r.featureOrder) }

// FeatureOrder returns the ordered column names.
func (r *SchemaRegistry) FeatureOrder() []string {
	return append([]string(nil), r.featureOrder...)
}

// NumericFields returns the numeric raw fields in declaration order.
func (r *SchemaRegistry) NumericFields() []string {
	return append([]string(nil), r.numericFields...)
}

// CategoricalFields returns the categorical raw fields in declaration order.
func (r *SchemaRegistry) CategoricalFields() []string {
	out := make([]string, len(r.encoders))
	for i, e := range r.encoders {
		out[i] = e.Field
	}
	return out
}

// RequiredFields returns every raw field a record must carry.
func (r *SchemaRegistry) RequiredFields() []string {
	return append(r.NumericFields(), r.CategoricalFields()...)
}

// Encoders returns copies of the fitted encoders in declaration order.
func (r *SchemaRegistry) Encoders() []CategoryEncoder {
	out := make([]CategoryEncoder, len(r.encoders))
	for i, e := range r.encoders {
		out[i] = CategoryEncoder{
			Field:      e.Field,
			Categories: append([]string(nil), e.Categories...),
			Columns:    append([]string(nil), e.Columns...),
		}
	}
	return out
}

// Encoder returns the encoder for field.
func (r *SchemaRegistry) Encoder(field string) (CategoryEncoder, bool) {
	i, ok := r.byField[field]
	if !ok {
		return CategoryEncoder{}, false
	}
	e := r.encoders[i]
	return CategoryEncoder{
		Field:      e.Field,
		Categories: append([]string(nil), e.Categories...),
		Columns:    append([]string(nil), e.Columns...),
	}, true
}

// ColumnsFor returns the one-hot columns owned by a categorical field.
func (r *SchemaRegistry) ColumnsFor(field string) []string {
	i, ok := r.byField[field]
	if !ok {
		return nil
	}
	return append([]string(nil), r.encoders[i].Columns...)
}

// Source returns the origin of column i.
func (r *SchemaRegistry) Source(i int) ColumnSource { return r.sources[i] }

// Position returns the index of a column name.
func (r *SchemaRegistry) Position(column string) (int, bool) {
	i, ok := r.position[column]
	return i, ok
}

// Scaler returns a copy of the fitted scaler.
func (r *SchemaRegistry) Scaler() Scaler {
	return Scaler{
		Mean:  append([]float64(nil), r.scaler.Mean...),
		Scale: append([]float64(nil), r.scaler.Scale...),
	}
}

// scale applies the persisted scaler for column i without copying it.
func (r *SchemaRegistry) scale(i int, x float64) float64 {
	return r.scaler.Apply(i, x)
}

// Standardize applies the persisted scaler to a raw row of width N.
func (r *SchemaRegistry) Standardize(raw []float64) (FeatureVector, error) {
	if len(raw) != len(r.featureOrder) {
		return FeatureVector{}, &SchemaMismatchError{Component: "raw row", Expected: len(r.featureOrder), Got: len(raw)}
	}
	out := make([]float64, len(raw))
	for i, x := range raw {
		out[i] = r.scale(i, x)
	}
	return FeatureVector{values: out}, nil
}
