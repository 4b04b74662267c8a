package service

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// StratifiedSplit partitions row indices into train and test sets, keeping
// the class ratio of labels in both. Each class contributes
// round(testSize * count) rows to the test set, clamped so that a class with
// at least two rows appears on both sides. Both index slices are ascending.
func StratifiedSplit(labels []int, testSize float64, seed int64) (train, test []int, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size must be within (0, 1), got %v", testSize)
	}
	if len(labels) < 2 {
		return nil, nil, fmt.Errorf("need at least 2 rows to split, got %d", len(labels))
	}

	byClass := make(map[int][]int)
	var classes []int
	for i, y := range labels {
		if _, ok := byClass[y]; !ok {
			classes = append(classes, y)
		}
		byClass[y] = append(byClass[y], i)
	}
	sort.Ints(classes)

	rng := rand.New(rand.NewSource(seed))
	for _, c := range classes {
		rows := byClass[c]
		rng.Shuffle(len(rows), func(a, b int) { rows[a], rows[b] = rows[b], rows[a] })

		nTest := int(math.Round(testSize * float64(len(rows))))
		if len(rows) >= 2 {
			nTest = max(1, min(nTest, len(rows)-1))
		}
		test = append(test, rows[:nTest]...)
		train = append(train, rows[nTest:]...)
	}

	if len(train) == 0 || len(test) == 0 {
		return nil, nil, fmt.Errorf("split of %d rows with test size %v leaves an empty side", len(labels), testSize)
	}

	sort.Ints(train)
	sort.Ints(test)
	return train, test, nil
}
