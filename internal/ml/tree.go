package ml

import (
	"math/rand"
	"sort"
)

// TreeNode is one node of a fitted classification tree. Leaves have
// Feature == -1. Value holds the weighted training totals for class 0 and
// class 1 that reached the node.
type TreeNode struct {
	Feature   int        `json:"f"`
	Threshold float64    `json:"t,omitempty"`
	Left      int        `json:"l,omitempty"`
	Right     int        `json:"r,omitempty"`
	Value     [2]float64 `json:"v"`
}

// IsLeaf reports whether the node has no split.
func (n *TreeNode) IsLeaf() bool {
	return n.Feature < 0
}

// Tree is a CART classifier stored as a flat node slice; node 0 is the root.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// leaf walks x down the tree. Rows go left when x[feature] <= threshold.
func (t *Tree) leaf(x []float64) *TreeNode {
	node := &t.Nodes[0]
	for !node.IsLeaf() {
		if x[node.Feature] <= node.Threshold {
			node = &t.Nodes[node.Left]
		} else {
			node = &t.Nodes[node.Right]
		}
	}
	return node
}

// VotesPositive reports whether the leaf reached by x has a weighted
// majority of the positive class. Exact ties vote negative.
func (t *Tree) VotesPositive(x []float64) bool {
	v := t.leaf(x).Value
	return v[1] > v[0]
}

type treeBuilder struct {
	X               [][]float64
	y               []int
	weight          []float64
	maxDepth        int
	maxFeatures     int
	minSamplesSplit int
	rng             *rand.Rand

	nodes      []TreeNode
	importance []float64
}

type split struct {
	feature     int
	threshold   float64
	improvement float64
}

// fitTree grows one tree over the rows in idx. weight is indexed by row and
// folds bootstrap multiplicity and class weight together. The returned
// importances are the unnormalized weighted impurity decrease per feature.
func fitTree(X [][]float64, y []int, weight []float64, idx []int, params ForestParams, rng *rand.Rand) (*Tree, []float64) {
	p := len(X[0])
	b := &treeBuilder{
		X:               X,
		y:               y,
		weight:          weight,
		maxDepth:        params.MaxDepth,
		maxFeatures:     params.featuresPerSplit(p),
		minSamplesSplit: params.MinSamplesSplit,
		rng:             rng,
		importance:      make([]float64, p),
	}
	b.build(idx, 0)
	return &Tree{Nodes: b.nodes}, b.importance
}

func (b *treeBuilder) build(idx []int, depth int) int {
	var value [2]float64
	for _, i := range idx {
		value[b.y[i]] += b.weight[i]
	}

	id := len(b.nodes)
	b.nodes = append(b.nodes, TreeNode{Feature: -1, Value: value})

	impurity := gini(value)
	if impurity <= 0 || len(idx) < b.minSamplesSplit || (b.maxDepth > 0 && depth >= b.maxDepth) {
		return id
	}

	best, ok := b.bestSplit(idx, value, impurity)
	if !ok {
		return id
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if b.X[i][best.feature] <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	b.importance[best.feature] += best.improvement

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)

	node := &b.nodes[id]
	node.Feature = best.feature
	node.Threshold = best.threshold
	node.Left = l
	node.Right = r
	return id
}

// bestSplit draws features in random order until maxFeatures non-constant
// ones have been evaluated, keeping the split with the largest weighted
// impurity decrease.
func (b *treeBuilder) bestSplit(idx []int, total [2]float64, impurity float64) (split, bool) {
	best := split{improvement: 0}
	found := false
	parent := (total[0] + total[1]) * impurity

	sorted := make([]int, len(idx))
	visited := 0

	for _, f := range b.rng.Perm(len(b.importance)) {
		if visited >= b.maxFeatures {
			break
		}

		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, c int) bool {
			return b.X[sorted[a]][f] < b.X[sorted[c]][f]
		})
		if b.X[sorted[0]][f] == b.X[sorted[len(sorted)-1]][f] {
			continue
		}
		visited++

		var left [2]float64
		for j := 0; j < len(sorted)-1; j++ {
			i := sorted[j]
			left[b.y[i]] += b.weight[i]

			cur, next := b.X[i][f], b.X[sorted[j+1]][f]
			if cur == next {
				continue
			}

			right := [2]float64{total[0] - left[0], total[1] - left[1]}
			wl := left[0] + left[1]
			wr := right[0] + right[1]
			improvement := parent - wl*gini(left) - wr*gini(right)

			if improvement > best.improvement+1e-12 {
				threshold := cur + (next-cur)/2
				if threshold >= next {
					threshold = cur
				}
				best = split{feature: f, threshold: threshold, improvement: improvement}
				found = true
			}
		}
	}

	return best, found
}

func gini(v [2]float64) float64 {
	total := v[0] + v[1]
	if total <= 0 {
		return 0
	}
	p0 := v[0] / total
	p1 := v[1] / total
	return 1 - p0*p0 - p1*p1
}
