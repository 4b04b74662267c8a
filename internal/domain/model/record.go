package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ValueKind distinguishes numeric values from category labels.
type ValueKind int

const (
	KindNumber ValueKind = iota + 1
	KindCategory
)

// Value is a single raw field value: either a number or a category label.
type Value struct {
	label string
	num   float64
	kind  ValueKind
}

// Number builds a numeric value.
func Number(v float64) Value {
	return Value{kind: KindNumber, num: v}
}

// Category builds a category label value.
func Category(label string) Value {
	return Value{kind: KindCategory, label: label}
}

// Kind returns the value kind. The zero Value has kind 0.
func (v Value) Kind() ValueKind { return v.kind }

// IsNumber reports whether v holds a number.
func (v Value) IsNumber() bool { return v.kind == KindNumber }

// Float returns the numeric value and whether v is numeric.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Label returns the category label. Numbers are rendered in their
// shortest decimal form so that "1" in a CSV and 1 in JSON agree.
func (v Value) Label() string {
	if v.kind == KindNumber {
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return v.label
}

func (v Value) String() string {
	return v.Label()
}

// RawRecord maps raw field names to values.
type RawRecord map[string]Value

// Number returns the numeric value of field.
func (r RawRecord) Number(field string) (float64, error) {
	v, ok := r[field]
	if !ok {
		return 0, &MissingFieldError{Fields: []string{field}}
	}
	f, ok := v.Float()
	if !ok {
		return 0, &InvalidFieldError{Field: field, Reason: fmt.Sprintf("expected a number, got label %q", v.label)}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &InvalidFieldError{Field: field, Reason: "value is not finite"}
	}
	return f, nil
}

// MarshalJSON writes numbers as JSON numbers and labels as JSON strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindNumber {
		return json.Marshal(v.num)
	}
	return json.Marshal(v.label)
}

// UnmarshalJSON decodes each field as a number or a category label. Any other
// JSON type is reported as an *InvalidFieldError naming the field.
func (r *RawRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(RawRecord, len(raw))
	for field, msg := range raw {
		msg = bytes.TrimSpace(msg)
		switch {
		case len(msg) > 0 && msg[0] == '"':
			var label string
			if err := json.Unmarshal(msg, &label); err != nil {
				return &InvalidFieldError{Field: field, Reason: err.Error()}
			}
			out[field] = Category(label)
		case len(msg) > 0 && (msg[0] == '-' || (msg[0] >= '0' && msg[0] <= '9')):
			f, err := strconv.ParseFloat(string(msg), 64)
			if err != nil {
				return &InvalidFieldError{Field: field, Reason: "number out of range"}
			}
			out[field] = Number(f)
		default:
			return &InvalidFieldError{Field: field, Reason: fmt.Sprintf("expected a number or a string, got %s", msg)}
		}
	}
	*r = out
	return nil
}

// Dataset is a set of raw records together with the declaration order of their fields.
type Dataset struct {
	Fields  []string
	Records []RawRecord
}

// Labels extracts the binary label column. Labels must be 0 or 1.
func (d Dataset) Labels(labelField string) ([]int, error) {
	labels := make([]int, len(d.Records))
	for i, rec := range d.Records {
		v, err := rec.Number(labelField)
		if err != nil {
			return nil, &RecordError{Index: i, Err: err}
		}
		switch v {
		case 0:
			labels[i] = 0
		case 1:
			labels[i] = 1
		default:
			return nil, &RecordError{Index: i, Err: &InvalidFieldError{Field: labelField, Reason: fmt.Sprintf("label must be 0 or 1, got %v", v)}}
		}
	}
	return labels, nil
}

// Subset returns a dataset holding the records at the given indices, in that order.
func (d Dataset) Subset(indices []int) Dataset {
	records := make([]RawRecord, len(indices))
	for i, idx := range indices {
		records[i] = d.Records[idx]
	}
	return Dataset{Fields: d.Fields, Records: records}
}
