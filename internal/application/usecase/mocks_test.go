package usecase_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/med2305/mlops/internal/domain/model"
	"github.com/med2305/mlops/internal/domain/service"
	"github.com/med2305/mlops/pkg/events"
)

// --- Mock implementations ---

type mockPredictionRepository struct {
	saved        []*model.ScoredTransaction
	batches      [][]*model.ScoredTransaction
	saveFunc     func(ctx context.Context, st *model.ScoredTransaction) error
	saveBatch    func(ctx context.Context, batch []*model.ScoredTransaction) error
	findByIDFunc func(ctx context.Context, id uuid.UUID) (*model.ScoredTransaction, error)
}

func (m *mockPredictionRepository) Save(ctx context.Context, st *model.ScoredTransaction) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, st)
	}
	m.saved = append(m.saved, st)
	return nil
}

func (m *mockPredictionRepository) SaveBatch(ctx context.Context, batch []*model.ScoredTransaction) error {
	if m.saveBatch != nil {
		return m.saveBatch(ctx, batch)
	}
	m.batches = append(m.batches, batch)
	return nil
}

func (m *mockPredictionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ScoredTransaction, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, model.ErrPredictionNotFound
}

type mockEventPublisher struct {
	published   []events.DomainEvent
	publishFunc func(ctx context.Context, evts ...events.DomainEvent) error
}

func (m *mockEventPublisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, evts...)
	}
	m.published = append(m.published, evts...)
	return nil
}

func (m *mockEventPublisher) types() []string {
	out := make([]string, len(m.published))
	for i, e := range m.published {
		out[i] = e.EventType()
	}
	return out
}

type mockLoader struct {
	loadFunc func(ctx context.Context) (model.LoadResult, error)
}

func (m *mockLoader) Load(ctx context.Context) (model.LoadResult, error) {
	return m.loadFunc(ctx)
}

type mockSink struct {
	name      string
	published []*model.Bundle
	err       error
}

func (m *mockSink) Name() string { return m.name }

func (m *mockSink) Publish(_ context.Context, b *model.Bundle) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, b)
	return nil
}

type holder struct {
	mu     sync.Mutex
	bundle *model.Bundle
}

func (h *holder) Current() *model.Bundle {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bundle
}

func (h *holder) Swap(b *model.Bundle) *model.Bundle {
	h.mu.Lock()
	defer h.mu.Unlock()
	old := h.bundle
	h.bundle = b
	return old
}

// amountClassifier flags rows whose first (scaled amount) column is positive.
type amountClassifier struct {
	n int
}

func (c *amountClassifier) Kind() string   { return "amount_stub" }
func (c *amountClassifier) NFeatures() int { return c.n }
func (c *amountClassifier) PredictProba(x [][]float64) ([][]float64, error) {
	out := make([][]float64, len(x))
	for i, row := range x {
		if len(row) != c.n {
			return nil, fmt.Errorf("row %d has %d columns", i, len(row))
		}
		p := 0.1
		if row[0] > 0 {
			p = 0.9
		}
		out[i] = []float64{1 - p, p}
	}
	return out, nil
}

// --- Fixtures ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func txn(amount float64, merchant, location string, fraud int) model.RawRecord {
	return model.RawRecord{
		"amount":            model.Number(amount),
		"merchant_category": model.Category(merchant),
		"location":          model.Category(location),
		"is_fraud":          model.Number(float64(fraud)),
	}
}

func servingTxn(amount float64, merchant, location string) model.RawRecord {
	rec := txn(amount, merchant, location, 0)
	delete(rec, "is_fraud")
	return rec
}

func labeledDataset() model.Dataset {
	ds := model.Dataset{Fields: []string{"amount", "merchant_category", "location", "is_fraud"}}
	for i := range 20 {
		ds.Records = append(ds.Records,
			txn(20+float64(i), "grocery", "physical", 0),
			txn(2000+float64(i)*10, "electronics", "online", 1),
		)
	}
	return ds
}

func testBundle(t *testing.T) *model.Bundle {
	t.Helper()
	ts, err := service.NewVectorizer().FitTransform(labeledDataset(), "is_fraud")
	require.NoError(t, err)
	b, err := model.NewBundle(uuid.New(), ts.Registry, &amountClassifier{n: ts.Registry.NFeatures()}, model.BundleManifest{})
	require.NoError(t, err)
	return b
}

func newScorer(t *testing.T) *service.Scorer {
	t.Helper()
	s, err := service.NewScorer(0.5)
	require.NoError(t, err)
	return s
}
