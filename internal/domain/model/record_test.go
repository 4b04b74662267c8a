package model_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/med2305/mlops/internal/domain/model"
)

func TestValue_Label(t *testing.T) {
	tests := []struct {
		name     string
		value    model.Value
		expected string
	}{
		{"category", model.Category("grocery"), "grocery"},
		{"integer number", model.Number(1), "1"},
		{"fractional number", model.Number(45.5), "45.5"},
		{"negative number", model.Number(-2.25), "-2.25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.value.Label())
		})
	}
}

func TestRawRecord_Number(t *testing.T) {
	rec := model.RawRecord{
		"amount":   model.Number(12.5),
		"location": model.Category("online"),
		"bad":      model.Number(math.Inf(1)),
	}

	v, err := rec.Number("amount")
	require.NoError(t, err)
	assert.Equal(t, 12.5, v)

	_, err = rec.Number("missing")
	var missing *model.MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"missing"}, missing.Fields)

	_, err = rec.Number("location")
	var invalid *model.InvalidFieldError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "location", invalid.Field)

	_, err = rec.Number("bad")
	require.ErrorAs(t, err, &invalid)
}

func TestDataset_Labels(t *testing.T) {
	t.Run("binary labels", func(t *testing.T) {
		ds := model.Dataset{Records: []model.RawRecord{
			{"is_fraud": model.Number(0)},
			{"is_fraud": model.Number(1)},
		}}
		labels, err := ds.Labels("is_fraud")
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1}, labels)
	})

	t.Run("non-binary label", func(t *testing.T) {
		ds := model.Dataset{Records: []model.RawRecord{
			{"is_fraud": model.Number(0)},
			{"is_fraud": model.Number(2)},
		}}
		_, err := ds.Labels("is_fraud")
		var recErr *model.RecordError
		require.ErrorAs(t, err, &recErr)
		assert.Equal(t, 1, recErr.Index)
	})

	t.Run("missing label", func(t *testing.T) {
		ds := model.Dataset{Records: []model.RawRecord{{}}}
		_, err := ds.Labels("is_fraud")
		var missing *model.MissingFieldError
		require.ErrorAs(t, err, &missing)
	})
}

func TestDataset_Subset(t *testing.T) {
	ds := model.Dataset{
		Fields: []string{"a"},
		Records: []model.RawRecord{
			{"a": model.Number(0)},
			{"a": model.Number(1)},
			{"a": model.Number(2)},
		},
	}
	sub := ds.Subset([]int{2, 0})
	assert.Equal(t, []string{"a"}, sub.Fields)
	require.Len(t, sub.Records, 2)
	assert.Equal(t, "2", sub.Records[0]["a"].Label())
	assert.Equal(t, "0", sub.Records[1]["a"].Label())
}

func TestIsRequestError(t *testing.T) {
	assert.True(t, model.IsRequestError(&model.MissingFieldError{Fields: []string{"amount"}}))
	assert.True(t, model.IsRequestError(&model.RecordError{Index: 3, Err: &model.InvalidFieldError{Field: "amount"}}))
	assert.False(t, model.IsRequestError(model.ErrModelNotReady))
}

func TestRawRecord_JSON(t *testing.T) {
	var rec model.RawRecord
	require.NoError(t, json.Unmarshal([]byte(`{"amount": 45.5, "merchant_category": "grocery", "time_of_day": 14}`), &rec))

	assert.Equal(t, model.Number(45.5), rec["amount"])
	assert.Equal(t, model.Category("grocery"), rec["merchant_category"])
	assert.Equal(t, model.Number(14), rec["time_of_day"])

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount": 45.5, "merchant_category": "grocery", "time_of_day": 14}`, string(data))

	for _, body := range []string{`{"amount": null}`, `{"flag": true}`, `{"nested": {"a": 1}}`} {
		err := json.Unmarshal([]byte(body), &rec)
		var invalid *model.InvalidFieldError
		assert.ErrorAs(t, err, &invalid, body)
	}
}
