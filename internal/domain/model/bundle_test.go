package model_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/med2305/mlops/internal/domain/model"
)

type fixedClassifier struct {
	n int
}

func (c fixedClassifier) Kind() string   { return "fixed" }
func (c fixedClassifier) NFeatures() int { return c.n }
func (c fixedClassifier) PredictProba(x [][]float64) ([][]float64, error) {
	out := make([][]float64, len(x))
	for i := range x {
		out[i] = []float64{0.5, 0.5}
	}
	return out, nil
}

func singleColumnRegistry(t *testing.T) *model.SchemaRegistry {
	t.Helper()
	reg, err := model.NewSchemaRegistry([]string{"amount"}, []string{"amount"}, nil, unitScaler(1))
	require.NoError(t, err)
	return reg
}

func TestNewBundle(t *testing.T) {
	reg := singleColumnRegistry(t)

	t.Run("valid bundle defaults model kind", func(t *testing.T) {
		id := uuid.New()
		b, err := model.NewBundle(id, reg, fixedClassifier{n: 1}, model.BundleManifest{})
		require.NoError(t, err)
		assert.Equal(t, id, b.ID())
		assert.Same(t, reg, b.Registry())
		assert.Equal(t, "fixed", b.Manifest().ModelKind)
	})

	t.Run("classifier width mismatch", func(t *testing.T) {
		_, err := model.NewBundle(uuid.New(), reg, fixedClassifier{n: 3}, model.BundleManifest{})
		var mismatch *model.SchemaMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "classifier", mismatch.Component)
		assert.Equal(t, 1, mismatch.Expected)
		assert.Equal(t, 3, mismatch.Got)
	})

	t.Run("missing parts", func(t *testing.T) {
		_, err := model.NewBundle(uuid.Nil, reg, fixedClassifier{n: 1}, model.BundleManifest{})
		require.Error(t, err)
		_, err = model.NewBundle(uuid.New(), nil, fixedClassifier{n: 1}, model.BundleManifest{})
		require.Error(t, err)
		_, err = model.NewBundle(uuid.New(), reg, nil, model.BundleManifest{})
		require.Error(t, err)
	})
}

func TestArtifactLoadError(t *testing.T) {
	first := &model.MissingFieldError{Fields: []string{"x"}}
	err := &model.ArtifactLoadError{Attempts: []model.SourceAttempt{
		{Source: "dir:models/current", Err: first},
		{Source: "postgres", Err: model.ErrInvalidSchema},
	}}

	assert.Contains(t, err.Error(), "dir:models/current")
	assert.Contains(t, err.Error(), "postgres")
	assert.ErrorIs(t, err, model.ErrInvalidSchema)

	empty := &model.ArtifactLoadError{}
	assert.Contains(t, empty.Error(), "no sources configured")
}
