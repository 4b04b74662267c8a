package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/med2305/mlops/internal/domain/model"
)

// ForestConfig holds random forest hyperparameters.
type ForestConfig struct {
	ClassWeight     string `yaml:"class_weight" json:"class_weight"`
	NTrees          int    `yaml:"n_estimators" json:"n_estimators"`
	MaxDepth        int    `yaml:"max_depth" json:"max_depth"`
	MinSamplesSplit int    `yaml:"min_samples_split" json:"min_samples_split"`
	MinSamplesLeaf  int    `yaml:"min_samples_leaf" json:"min_samples_leaf"`
	Workers         int    `yaml:"workers" json:"-"`
	Seed            int64  `yaml:"seed" json:"seed"`
}

// DefaultForestConfig returns the default random forest hyperparameters.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		ClassWeight:     ClassWeightBalanced,
		NTrees:          200,
		MaxDepth:        10,
		MinSamplesSplit: 10,
		MinSamplesLeaf:  5,
		Seed:            42,
	}
}

// RandomForest is a bagged ensemble of CART trees split on Gini impurity.
// The fraud probability is the mean of the leaf fraud fractions.
type RandomForest struct {
	trees     []tree
	cfg       ForestConfig
	nFeatures int
}

// NewRandomForest returns an unfitted forest.
func NewRandomForest(cfg ForestConfig) *RandomForest {
	return &RandomForest{cfg: cfg}
}

func (f *RandomForest) Kind() string   { return KindRandomForest }
func (f *RandomForest) NFeatures() int { return f.nFeatures }

// Fit grows the trees in parallel. Each tree draws its bootstrap sample and
// feature subsets from its own seed, so the result does not depend on
// scheduling.
func (f *RandomForest) Fit(x [][]float64, y []int) error {
	p, err := validateTrainingData(x, y)
	if err != nil {
		return err
	}
	cfg := f.cfg
	if cfg.NTrees <= 0 || cfg.MaxDepth <= 0 {
		return fmt.Errorf("random forest needs positive n_estimators and max_depth, got %d and %d", cfg.NTrees, cfg.MaxDepth)
	}
	if cfg.MinSamplesSplit < 2 {
		cfg.MinSamplesSplit = 2
	}
	if cfg.MinSamplesLeaf < 1 {
		cfg.MinSamplesLeaf = 1
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	maxFeature := int(math.Sqrt(float64(p)))
	if maxFeature < 1 {
		maxFeature = 1
	}
	cw := classWeights(y, cfg.ClassWeight)
	weight := make([]float64, len(y))
	for i, label := range y {
		weight[i] = cw[label]
	}

	trees := make([]tree, cfg.NTrees)
	var g errgroup.Group
	g.SetLimit(workers)
	for t := range trees {
		g.Go(func() error {
			rng := rand.New(rand.NewSource(cfg.Seed + int64(t)))
			samples := make([]int, len(x))
			for i := range samples {
				samples[i] = rng.Intn(len(x))
			}
			b := &treeBuilder{
				x:          x,
				y:          y,
				weight:     weight,
				rng:        rng,
				maxDepth:   cfg.MaxDepth,
				minSplit:   cfg.MinSamplesSplit,
				minLeaf:    cfg.MinSamplesLeaf,
				maxFeature: maxFeature,
			}
			trees[t] = b.build(samples)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	f.trees = trees
	f.nFeatures = p
	return nil
}

// PredictProba returns [P(legit), P(fraud)] per row.
func (f *RandomForest) PredictProba(x [][]float64) ([][]float64, error) {
	if len(f.trees) == 0 {
		return nil, errors.New("random forest is not fitted")
	}
	if err := checkWidth(x, f.nFeatures); err != nil {
		return nil, err
	}
	out := make([][]float64, len(x))
	for i, row := range x {
		sum := 0.0
		for t := range f.trees {
			sum += f.trees[t].predict(row)
		}
		p := sum / float64(len(f.trees))
		out[i] = []float64{1 - p, p}
	}
	return out, nil
}

type forestParams struct {
	Trees  []tree       `json:"trees"`
	Config ForestConfig `json:"config"`
}

func (f *RandomForest) marshalParams() (json.RawMessage, error) {
	if len(f.trees) == 0 {
		return nil, errors.New("random forest is not fitted")
	}
	return json.Marshal(forestParams{Trees: f.trees, Config: f.cfg})
}

func decodeRandomForest(nFeatures int, raw json.RawMessage) (model.Classifier, error) {
	var p forestParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if len(p.Trees) == 0 {
		return nil, errors.New("forest has no trees")
	}
	for i := range p.Trees {
		if !p.Trees[i].valid(nFeatures) {
			return nil, fmt.Errorf("tree %d is malformed", i)
		}
	}
	return &RandomForest{trees: p.Trees, cfg: p.Config, nFeatures: nFeatures}, nil
}
