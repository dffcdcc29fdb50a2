package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"
)

// ForestParams configures random forest training.
type ForestParams struct {
	Trees               int   `json:"trees"`
	MaxDepth            int   `json:"max_depth"`    // 0 means unlimited
	MaxFeatures         int   `json:"max_features"` // 0 means sqrt(features)
	MinSamplesSplit     int   `json:"min_samples_split"`
	Seed                int64 `json:"seed"`
	BalancedClassWeight bool  `json:"balanced_class_weight"`
}

// DefaultForestParams mirrors the reference training setup: 200 trees,
// depth 10, seed 42, balanced class weights.
func DefaultForestParams() ForestParams {
	return ForestParams{
		Trees:               200,
		MaxDepth:            10,
		MinSamplesSplit:     2,
		Seed:                42,
		BalancedClassWeight: true,
	}
}

func (p ForestParams) featuresPerSplit(n int) int {
	k := p.MaxFeatures
	if k <= 0 {
		k = int(math.Sqrt(float64(n)))
	}
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	return k
}

// Forest is a bagged ensemble of classification trees.
type Forest struct {
	Params      ForestParams `json:"params"`
	NumFeatures int          `json:"num_features"`
	Trees       []*Tree      `json:"trees"`
	Importances []float64    `json:"importances"`
}

// FitForest trains a forest on X with 0/1 labels y. Each tree draws its
// bootstrap sample and split features from its own generator seeded with
// Seed+treeIndex, so results do not depend on goroutine scheduling.
func FitForest(X [][]float64, y []int, params ForestParams) (*Forest, error) {
	n := len(X)
	if n == 0 {
		return nil, errors.New("forest: empty training matrix")
	}
	if len(y) != n {
		return nil, fmt.Errorf("forest: %d rows but %d labels", n, len(y))
	}
	if params.Trees < 1 {
		return nil, fmt.Errorf("forest: tree count must be positive, got %d", params.Trees)
	}
	if params.MinSamplesSplit < 2 {
		params.MinSamplesSplit = 2
	}

	p := len(X[0])
	if p == 0 {
		return nil, errors.New("forest: training matrix has no columns")
	}
	var counts [2]int
	for i, label := range y {
		if label != 0 && label != 1 {
			return nil, fmt.Errorf("forest: label %d at row %d is not 0 or 1", label, i)
		}
		if len(X[i]) != p {
			return nil, fmt.Errorf("forest: row %d has %d features, expected %d", i, len(X[i]), p)
		}
		counts[label]++
	}
	if counts[0] == 0 || counts[1] == 0 {
		return nil, ErrSingleClass
	}

	classWeight := [2]float64{1, 1}
	if params.BalancedClassWeight {
		classWeight[0] = float64(n) / (2 * float64(counts[0]))
		classWeight[1] = float64(n) / (2 * float64(counts[1]))
	}

	f := &Forest{
		Params:      params,
		NumFeatures: p,
		Trees:       make([]*Tree, params.Trees),
	}
	perTree := make([][]float64, params.Trees)

	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := runtime.GOMAXPROCS(0)
	if workers > params.Trees {
		workers = params.Trees
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				rng := rand.New(rand.NewSource(params.Seed + int64(t)))

				weight := make([]float64, n)
				for j := 0; j < n; j++ {
					weight[rng.Intn(n)]++
				}
				idx := make([]int, 0, n)
				for i := range weight {
					if weight[i] > 0 {
						weight[i] *= classWeight[y[i]]
						idx = append(idx, i)
					}
				}

				f.Trees[t], perTree[t] = fitTree(X, y, weight, idx, params, rng)
			}
		}()
	}

	for t := 0; t < params.Trees; t++ {
		jobs <- t
	}
	close(jobs)
	wg.Wait()

	f.Importances = averageImportances(f.Trees, perTree, p)
	return f, nil
}

// averageImportances normalizes each split tree's impurity decrease to sum
// to one, averages across those trees and renormalizes.
func averageImportances(trees []*Tree, perTree [][]float64, p int) []float64 {
	out := make([]float64, p)
	used := 0
	for t, imp := range perTree {
		if len(trees[t].Nodes) <= 1 {
			continue
		}
		sum := 0.0
		for _, v := range imp {
			sum += v
		}
		if sum <= 0 {
			continue
		}
		for i, v := range imp {
			out[i] += v / sum
		}
		used++
	}
	if used == 0 {
		return out
	}

	total := 0.0
	for i := range out {
		out[i] /= float64(used)
		total += out[i]
	}
	if total > 0 {
		for i := range out {
			out[i] /= total
		}
	}
	return out
}

// PredictProba returns the fraction of trees voting for the positive class.
func (f *Forest) PredictProba(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	votes := 0
	for _, t := range f.Trees {
		if t.VotesPositive(x) {
			votes++
		}
	}
	return float64(votes) / float64(len(f.Trees))
}

// Validate checks the structure of a decoded forest so a corrupt artifact
// fails at load time instead of panicking during scoring.
func (f *Forest) Validate() error {
	if len(f.Trees) == 0 {
		return errors.New("forest has no trees")
	}
	if len(f.Importances) != f.NumFeatures {
		return fmt.Errorf("forest has %d importances for %d features", len(f.Importances), f.NumFeatures)
	}
	for t, tree := range f.Trees {
		if tree == nil || len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", t)
		}
		for i, node := range tree.Nodes {
			if node.IsLeaf() {
				continue
			}
			if node.Feature >= f.NumFeatures ||
				node.Left <= i || node.Left >= len(tree.Nodes) ||
				node.Right <= i || node.Right >= len(tree.Nodes) {
				return fmt.Errorf("tree %d node %d is malformed", t, i)
			}
		}
	}
	return nil
}
