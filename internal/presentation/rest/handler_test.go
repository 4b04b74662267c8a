package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/med2305/mlops/internal/application/dto"
	"github.com/med2305/mlops/internal/application/usecase"
	"github.com/med2305/mlops/internal/domain/model"
	"github.com/med2305/mlops/internal/domain/service"
	"github.com/med2305/mlops/internal/infrastructure/artifact"
	"github.com/med2305/mlops/internal/presentation/rest"
)

// amountClassifier flags rows whose scaled amount column is positive.
type amountClassifier struct{ n int }

func (c *amountClassifier) Kind() string   { return "amount_stub" }
func (c *amountClassifier) NFeatures() int { return c.n }
func (c *amountClassifier) PredictProba(x [][]float64) ([][]float64, error) {
	out := make([][]float64, len(x))
	for i, row := range x {
		p := 0.05
		if row[0] > 0 {
			p = 0.95
		}
		out[i] = []float64{1 - p, p}
	}
	return out, nil
}

type mockPredictionRepository struct {
	stored map[uuid.UUID]*model.ScoredTransaction
}

func (m *mockPredictionRepository) Save(_ context.Context, st *model.ScoredTransaction) error {
	m.stored[st.ID()] = st
	return nil
}

func (m *mockPredictionRepository) SaveBatch(_ context.Context, batch []*model.ScoredTransaction) error {
	for _, st := range batch {
		m.stored[st.ID()] = st
	}
	return nil
}

func (m *mockPredictionRepository) FindByID(_ context.Context, id uuid.UUID) (*model.ScoredTransaction, error) {
	if st, ok := m.stored[id]; ok {
		return st, nil
	}
	return nil, model.ErrPredictionNotFound
}

type mockPinger struct{ err error }

func (m mockPinger) Ping(context.Context) error { return m.err }

func testBundle(t *testing.T) *model.Bundle {
	t.Helper()
	ds := model.Dataset{Fields: []string{"amount", "merchant_category", "is_fraud"}}
	for i := range 10 {
		ds.Records = append(ds.Records,
			model.RawRecord{"amount": model.Number(10 + float64(i)), "merchant_category": model.Category("grocery"), "is_fraud": model.Number(0)},
			model.RawRecord{"amount": model.Number(3000 + float64(i)), "merchant_category": model.Category("electronics"), "is_fraud": model.Number(1)},
		)
	}
	ts, err := service.NewVectorizer().FitTransform(ds, "is_fraud")
	require.NoError(t, err)
	b, err := model.NewBundle(uuid.New(), ts.Registry, &amountClassifier{n: ts.Registry.NFeatures()}, model.BundleManifest{})
	require.NoError(t, err)
	return b
}

type testServer struct {
	handler http.Handler
	holder  *artifact.Holder
	repo    *mockPredictionRepository
}

func newTestServer(t *testing.T, loaded bool, opts ...func(*rest.RouterConfig)) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	holder := artifact.NewHolder()
	if loaded {
		holder.Swap(testBundle(t))
	}
	repo := &mockPredictionRepository{stored: map[uuid.UUID]*model.ScoredTransaction{}}
	scorer, err := service.NewScorer(0.5)
	require.NoError(t, err)

	scoring := rest.NewScoringHandler(
		usecase.NewPredictTransaction(holder, scorer, repo, nil, nil, logger),
		usecase.NewBatchPredict(holder, service.NewBatchAggregator(scorer, 2), 3, repo, nil, nil, logger),
		usecase.NewGetModelInfo(holder, 0.5),
		usecase.NewGetPrediction(repo),
		logger,
	)
	cfg := rest.RouterConfig{
		Scoring: scoring,
		Health:  rest.NewHealthHandler("fraudd", holder, nil, logger),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "# metrics\n") }),
		Logger:  logger,
	}
	for _, o := range opts {
		o(&cfg)
	}
	return &testServer{handler: rest.NewRouter(cfg), holder: holder, repo: repo}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestPredict(t *testing.T) {
	srv := newTestServer(t, true)

	t.Run("fraudulent", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/predict", `{"amount": 5000, "merchant_category": "electronics"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		resp := decode[dto.PredictionResponse](t, rec)
		assert.True(t, resp.IsFraud)
		assert.InDelta(t, 0.95, resp.FraudProbability, 1e-9)
		assert.Equal(t, "high", resp.Confidence)
		assert.Contains(t, srv.repo.stored, resp.PredictionID)
	})

	t.Run("legitimate with extra fields", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/predict", `{"merchant_category": "grocery", "amount": 12, "note": "ignored"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, decode[dto.PredictionResponse](t, rec).IsFraud)
	})

	tests := []struct {
		name   string
		body   string
		status int
		fields []string
	}{
		{"missing field", `{"amount": 10}`, http.StatusUnprocessableEntity, []string{"merchant_category"}},
		{"wrong kind", `{"amount": "ten", "merchant_category": "grocery"}`, http.StatusUnprocessableEntity, []string{"amount"}},
		{"non scalar value", `{"amount": [1], "merchant_category": "grocery"}`, http.StatusUnprocessableEntity, []string{"amount"}},
		{"boolean value", `{"amount": true, "merchant_category": "grocery"}`, http.StatusUnprocessableEntity, []string{"amount"}},
		{"malformed json", `{"amount":`, http.StatusBadRequest, nil},
		{"trailing data", `{"amount": 1, "merchant_category": "grocery"} {}`, http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPost, "/predict", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			resp := decode[rest.ErrorResponse](t, rec)
			assert.NotEmpty(t, resp.Detail)
			assert.Equal(t, tt.fields, resp.Fields)
		})
	}

	t.Run("body too large", func(t *testing.T) {
		big := `{"amount": 1, "merchant_category": "` + strings.Repeat("x", 2<<20) + `"}`
		rec := srv.do(t, http.MethodPost, "/predict", big)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func TestBatchPredict(t *testing.T) {
	srv := newTestServer(t, true)

	t.Run("scores in order", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/batch-predict", `{"transactions": [
			{"amount": 5000, "merchant_category": "electronics"},
			{"amount": 11, "merchant_category": "grocery"}
		]}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		resp := decode[dto.BatchPredictionResponse](t, rec)
		assert.Equal(t, 2, resp.TotalTransactions)
		assert.Equal(t, 1, resp.FraudCount)
		assert.InDelta(t, 50.0, resp.FraudPercentage, 1e-9)
		require.Len(t, resp.Predictions, 2)
		assert.True(t, resp.Predictions[0].IsFraud)
		assert.False(t, resp.Predictions[1].IsFraud)
	})

	t.Run("empty batch", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/batch-predict", `{"transactions": []}`)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[dto.BatchPredictionResponse](t, rec)
		assert.Zero(t, resp.TotalTransactions)
		assert.Zero(t, resp.FraudPercentage)
	})

	t.Run("over the size limit", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/batch-predict", `{"transactions": [{},{},{},{}]}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, []string{"transactions"}, decode[rest.ErrorResponse](t, rec).Fields)
	})

	t.Run("non scalar value in a record", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/batch-predict", `{"transactions": [{"amount": {"v": 1}, "merchant_category": "grocery"}]}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, []string{"amount"}, decode[rest.ErrorResponse](t, rec).Fields)
	})

	t.Run("bad record fails the batch", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/batch-predict", `{"transactions": [
			{"amount": 5000, "merchant_category": "electronics"},
			{"amount": 11}
		]}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, decode[rest.ErrorResponse](t, rec).Detail, "record 1")
	})
}

func TestModelNotLoaded(t *testing.T) {
	srv := newTestServer(t, false)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodPost, "/predict", `{"amount": 1, "merchant_category": "grocery"}`},
		{http.MethodPost, "/batch-predict", `{"transactions": []}`},
		{http.MethodGet, "/model-info", ""},
		{http.MethodGet, "/health", ""},
		{http.MethodGet, "/readyz", ""},
	} {
		t.Run(tc.path, func(t *testing.T) {
			rec := srv.do(t, tc.method, tc.path, tc.body)
			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		})
	}

	t.Run("liveness still succeeds", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/healthz", "").Code)
	})

	t.Run("serves once a bundle is swapped in", func(t *testing.T) {
		srv.holder.Swap(testBundle(t))
		assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/health", "").Code)
	})
}

func TestModelInfo(t *testing.T) {
	srv := newTestServer(t, true)

	rec := srv.do(t, http.MethodGet, "/model-info", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "amount_stub", body["model_type"])
	assert.EqualValues(t, 3, body["n_features"])
	assert.Equal(t, []any{"amount", "merchant_category_grocery", "merchant_category_electronics"}, body["feature_names"])
	assert.Equal(t, []any{"merchant_category"}, body["categorical_features"])
	assert.Equal(t, srv.holder.Current().ID().String(), body["bundle_id"])
}

func TestGetPrediction(t *testing.T) {
	srv := newTestServer(t, true)

	rec := srv.do(t, http.MethodPost, "/predict", `{"amount": 5000.5, "merchant_category": "electronics"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	id := decode[dto.PredictionResponse](t, rec).PredictionID

	rec = srv.do(t, http.MethodGet, "/predictions/"+id.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	stored := decode[dto.StoredPredictionResponse](t, rec)
	assert.Equal(t, id, stored.ID)
	assert.Equal(t, "5000.50", stored.Amount)

	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/predictions/"+uuid.NewString(), "").Code)
	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodGet, "/predictions/not-a-uuid", "").Code)
}

func TestRootAndMetrics(t *testing.T) {
	srv := newTestServer(t, true)

	rec := srv.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "Fraud Detection API", body["message"])
	assert.Equal(t, rest.Version, body["version"])

	rec = srv.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# metrics")

	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/unknown", "").Code)
}

func TestReadyz_Database(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	holder := artifact.NewHolder()
	holder.Swap(testBundle(t))

	for _, tc := range []struct {
		name   string
		db     rest.Pinger
		status int
		check  string
	}{
		{"reachable", mockPinger{}, http.StatusOK, "ok"},
		{"unreachable", mockPinger{err: errors.New("dial tcp: refused")}, http.StatusServiceUnavailable, "unreachable"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			mux := http.NewServeMux()
			rest.NewHealthHandler("fraudd", holder, tc.db, logger).RegisterRoutes(mux)

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tc.status, rec.Code)
			resp := decode[rest.ReadinessResponse](t, rec)
			assert.Equal(t, tc.check, resp.Checks["database"])
		})
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, true, func(c *rest.RouterConfig) { c.RateLimitRPS = 1 })

	body := `{"amount": 12, "merchant_category": "grocery"}`
	first := srv.do(t, http.MethodPost, "/predict", body)
	second := srv.do(t, http.MethodPost, "/predict", body)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/healthz", "").Code)
}

func TestRecover(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := rest.Recover(logger, http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := rest.Logging(logger, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/brew", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "/brew", line["path"])
	assert.EqualValues(t, http.StatusTeapot, line["status"])
}
