//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseURL string

func TestMain(m *testing.M) {
	baseURL = os.Getenv("FRAUDD_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}

	// Wait for a bundle to be loaded
	for i := 0; i < 30; i++ {
		resp, err := http.Get(baseURL + "/readyz")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				break
			}
		}
		time.Sleep(2 * time.Second)
	}

	os.Exit(m.Run())
}

type modelInfo struct {
	FeatureNames        []string `json:"feature_names"`
	NumericFeatures     []string `json:"numeric_features"`
	CategoricalFeatures []string `json:"categorical_features"`
	BundleID            string   `json:"bundle_id"`
	NFeatures           int      `json:"n_features"`
}

type prediction struct {
	Confidence       string  `json:"confidence"`
	PredictionID     string  `json:"prediction_id"`
	FraudProbability float64 `json:"fraud_probability"`
	IsFraud          bool    `json:"is_fraud"`
}

func TestHealthCheck(t *testing.T) {
	resp := getJSON(t, "/healthz")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = getJSON(t, "/health")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, true, body["model_loaded"])
}

func TestScoringFlow(t *testing.T) {
	// Step 1: Discover the loaded schema
	resp := getJSON(t, "/model-info")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var info modelInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	require.Len(t, info.FeatureNames, info.NFeatures)
	txn := sampleTransaction(info)

	// Step 2: Score one transaction
	resp = postJSON(t, "/predict", txn)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var p prediction
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	assert.GreaterOrEqual(t, p.FraudProbability, 0.0)
	assert.LessOrEqual(t, p.FraudProbability, 1.0)
	assert.Contains(t, []string{"low", "medium", "high"}, p.Confidence)

	// Step 3: Score a batch
	resp = postJSON(t, "/batch-predict", map[string]any{"transactions": []map[string]any{txn, txn}})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var batch struct {
		Predictions       []prediction `json:"predictions"`
		TotalTransactions int          `json:"total_transactions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&batch))
	assert.Equal(t, 2, batch.TotalTransactions)
	assert.InDelta(t, batch.Predictions[0].FraudProbability, batch.Predictions[1].FraudProbability, 1e-12)

	// Step 4: Read the audit record back when Postgres is configured
	resp = getJSON(t, "/predictions/"+p.PredictionID)
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotImplemented {
		t.Log("audit log disabled")
		return
	}
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPredict_MissingFields(t *testing.T) {
	resp := postJSON(t, "/predict", map[string]any{})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

// sampleTransaction builds a record the loaded bundle accepts, taking the
// first known category of every categorical field.
func sampleTransaction(info modelInfo) map[string]any {
	txn := make(map[string]any)
	for _, f := range info.NumericFeatures {
		txn[f] = 100.0
	}
	for _, f := range info.CategoricalFeatures {
		for _, col := range info.FeatureNames {
			if cat, ok := strings.CutPrefix(col, f+"_"); ok {
				txn[f] = cat
				break
			}
		}
	}
	return txn
}

func postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	jsonBody, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(baseURL+path, "application/json", bytes.NewBuffer(jsonBody))
	require.NoError(t, err)
	return resp
}

func getJSON(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(baseURL + path)
	require.NoError(t, err)
	return resp
}
