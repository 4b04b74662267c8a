package dataset_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/med2305/mlops/internal/domain/model"
	"github.com/med2305/mlops/internal/infrastructure/dataset"
)

const sample = `transaction_id,amount,merchant_category,time_of_day,location,transaction_type,is_fraud
TXN_000001,45.50,grocery,14,domestic,purchase,0
TXN_000002,2500,electronics,3,international,online,1
TXN_000003,12,restaurant,20,domestic,purchase,0
`

func TestReadCSV(t *testing.T) {
	ds, err := dataset.ReadCSV(strings.NewReader(sample), dataset.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"amount", "merchant_category", "time_of_day", "location", "transaction_type", "is_fraud"}, ds.Fields)
	require.Len(t, ds.Records, 3)

	first := ds.Records[0]
	assert.NotContains(t, first, "transaction_id")
	assert.Equal(t, model.Number(45.5), first["amount"])
	assert.Equal(t, model.Number(14), first["time_of_day"])
	assert.Equal(t, model.Category("grocery"), first["merchant_category"])

	labels, err := ds.Labels(dataset.DefaultLabelField)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 0}, labels)
}

func TestReadCSV_MixedColumnIsCategorical(t *testing.T) {
	data := "code,is_fraud\n7,0\nx9,1\n"
	ds, err := dataset.ReadCSV(strings.NewReader(data), dataset.Options{})
	require.NoError(t, err)

	assert.Equal(t, model.Category("7"), ds.Records[0]["code"])
	assert.Equal(t, model.Category("x9"), ds.Records[1]["code"])
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty input", ""},
		{"header only", "amount,is_fraud\n"},
		{"duplicate column", "amount,amount\n1,2\n"},
		{"ragged row", "amount,is_fraud\n1,0\n2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dataset.ReadCSV(strings.NewReader(tt.data), dataset.DefaultOptions())
			require.Error(t, err)
		})
	}
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.csv")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	ds, err := dataset.LoadCSV(path, dataset.DefaultOptions())
	require.NoError(t, err)
	assert.Len(t, ds.Records, 3)

	_, err = dataset.LoadCSV(filepath.Join(t.TempDir(), "missing.csv"), dataset.DefaultOptions())
	require.Error(t, err)
}
