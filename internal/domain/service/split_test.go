package service_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/med2305/mlops/internal/domain/service"
)

func TestStratifiedSplit(t *testing.T) {
	labels := make([]int, 100)
	for i := 0; i < 10; i++ {
		labels[i*10] = 1
	}

	train, test, err := service.StratifiedSplit(labels, 0.3, 42)
	require.NoError(t, err)

	assert.Len(t, test, 30)
	assert.Len(t, train, 70)
	assert.True(t, sort.IntsAreSorted(train))
	assert.True(t, sort.IntsAreSorted(test))

	seen := make(map[int]bool)
	for _, i := range append(append([]int{}, train...), test...) {
		assert.False(t, seen[i], "index %d appears twice", i)
		seen[i] = true
	}
	assert.Len(t, seen, 100)

	fraudInTest := 0
	for _, i := range test {
		fraudInTest += labels[i]
	}
	assert.Equal(t, 3, fraudInTest)
}

func TestStratifiedSplit_Deterministic(t *testing.T) {
	labels := []int{0, 1, 0, 1, 0, 1, 0, 0, 1, 0}

	train1, test1, err := service.StratifiedSplit(labels, 0.3, 7)
	require.NoError(t, err)
	train2, test2, err := service.StratifiedSplit(labels, 0.3, 7)
	require.NoError(t, err)

	assert.Equal(t, train1, train2)
	assert.Equal(t, test1, test2)
}

func TestStratifiedSplit_SmallClassOnBothSides(t *testing.T) {
	labels := []int{0, 0, 0, 0, 0, 0, 0, 0, 1, 1}
	train, test, err := service.StratifiedSplit(labels, 0.1, 1)
	require.NoError(t, err)

	count := func(idx []int) int {
		n := 0
		for _, i := range idx {
			n += labels[i]
		}
		return n
	}
	assert.Equal(t, 1, count(train))
	assert.Equal(t, 1, count(test))
}

func TestStratifiedSplit_Errors(t *testing.T) {
	tests := []struct {
		name     string
		labels   []int
		testSize float64
	}{
		{"zero test size", []int{0, 1, 0, 1}, 0},
		{"whole test size", []int{0, 1, 0, 1}, 1},
		{"single row", []int{1}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := service.StratifiedSplit(tt.labels, tt.testSize, 42)
			require.Error(t, err)
		})
	}
}
