package classifier

import (
	"math"
	"math/rand"
	"sort"
)

// node is one node of a CART tree stored in a flat slice. Leaves have
// Feature == -1 and carry the weighted fraud fraction of their samples.
type node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v,omitempty"`
}

type tree struct {
	Nodes []node `json:"nodes"`
}

func (t *tree) predict(row []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if row[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

func (t *tree) valid(nFeatures int) bool {
	if len(t.Nodes) == 0 {
		return false
	}
	for i, n := range t.Nodes {
		if n.Feature < 0 {
			if n.Value < 0 || n.Value > 1 || math.IsNaN(n.Value) {
				return false
			}
			continue
		}
		if n.Feature >= nFeatures || n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
			return false
		}
	}
	return true
}

type treeBuilder struct {
	x          [][]float64
	y          []int
	weight     []float64
	rng        *rand.Rand
	nodes      []node
	maxDepth   int
	minSplit   int
	minLeaf    int
	maxFeature int
}

func (b *treeBuilder) build(samples []int) tree {
	b.grow(samples, 0)
	return tree{Nodes: b.nodes}
}

func (b *treeBuilder) grow(samples []int, depth int) int {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, node{Feature: -1})

	var wTotal, wFraud float64
	for _, s := range samples {
		wTotal += b.weight[s]
		if b.y[s] == 1 {
			wFraud += b.weight[s]
		}
	}
	leafValue := 0.0
	if wTotal > 0 {
		leafValue = wFraud / wTotal
	}
	b.nodes[idx].Value = leafValue

	if depth >= b.maxDepth || len(samples) < b.minSplit || leafValue == 0 || leafValue == 1 {
		return idx
	}

	feature, threshold, ok := b.bestSplit(samples, wTotal, wFraud)
	if !ok {
		return idx
	}

	var left, right []int
	for _, s := range samples {
		if b.x[s][feature] <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[idx] = node{Feature: feature, Threshold: threshold, Left: l, Right: r}
	return idx
}

// bestSplit searches a random subset of features for the split with the
// lowest weighted Gini impurity.
func (b *treeBuilder) bestSplit(samples []int, wTotal, wFraud float64) (int, float64, bool) {
	nFeatures := len(b.x[0])
	features := b.rng.Perm(nFeatures)[:b.maxFeature]

	bestScore := gini(wTotal, wFraud)
	bestFeature, bestThreshold, found := -1, 0.0, false

	sorted := make([]int, len(samples))
	for _, f := range features {
		copy(sorted, samples)
		sort.Slice(sorted, func(i, j int) bool { return b.x[sorted[i]][f] < b.x[sorted[j]][f] })

		var wl, fl float64
		for i := 0; i < len(sorted)-1; i++ {
			s := sorted[i]
			wl += b.weight[s]
			if b.y[s] == 1 {
				fl += b.weight[s]
			}
			cur, next := b.x[s][f], b.x[sorted[i+1]][f]
			if cur == next {
				continue
			}
			nl := i + 1
			if nl < b.minLeaf || len(sorted)-nl < b.minLeaf {
				continue
			}
			wr, fr := wTotal-wl, wFraud-fl
			score := (wl*gini(wl, fl) + wr*gini(wr, fr)) / wTotal
			if score < bestScore-1e-12 {
				bestScore = score
				bestFeature = f
				bestThreshold = cur + (next-cur)/2
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

func gini(total, fraud float64) float64 {
	if total <= 0 {
		return 0
	}
	p := fraud / total
	return 2 * p * (1 - p)
}
