package models

import (
	"math"
	"math/rand"
)

// Regression tree grown by variance reduction. Nodes are stored in a flat
// slice with child indexes so the fitted tree round-trips through JSON
// without pointer fixups.

type treeNode struct {
	Feature   int     `json:"f"`          // split feature index, -1 for leaf
	Threshold float64 `json:"t"`          // go left when x[Feature] <= Threshold
	Left      int     `json:"l"`          // left child index
	Right     int     `json:"r"`          // right child index
	Value     float64 `json:"v"`          // leaf prediction (mean of targets)
	Count     int     `json:"n"`          // training samples in this node
}

type regressionTree struct {
	Nodes []treeNode `json:"nodes"`
}

type treeParams struct {
	MaxDepth     int
	MinLeaf      int
	FeatureFrac  float64 // fraction of features considered per split, 1 = all
	rng          *rand.Rand
}

func fitTree(X [][]float64, y []float64, idx []int, p treeParams) *regressionTree {
	t := &regressionTree{}
	t.grow(X, y, idx, 0, p)
	return t
}

// grow appends a node for idx and returns its index in Nodes.
func (t *regressionTree) grow(X [][]float64, y []float64, idx []int, depth int, p treeParams) int {
	node := treeNode{Feature: -1, Left: -1, Right: -1, Count: len(idx)}
	node.Value = meanAt(y, idx)
	self := len(t.Nodes)
	t.Nodes = append(t.Nodes, node)

	if depth >= p.MaxDepth || len(idx) < 2*p.MinLeaf || pureAt(y, idx) {
		return self
	}

	feature, threshold, ok := bestSplit(X, y, idx, p)
	if !ok {
		return self
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < p.MinLeaf || len(right) < p.MinLeaf {
		return self
	}

	t.Nodes[self].Feature = feature
	t.Nodes[self].Threshold = threshold
	t.Nodes[self].Left = t.grow(X, y, left, depth+1, p)
	t.Nodes[self].Right = t.grow(X, y, right, depth+1, p)
	return self
}

// bestSplit scans candidate features for the split with the largest
// weighted-variance reduction, using running sums over sorted values.
func bestSplit(X [][]float64, y []float64, idx []int, p treeParams) (int, float64, bool) {
	nFeatures := len(X[idx[0]])
	candidates := featureSample(nFeatures, p)

	bestGain := 0.0
	bestFeature, bestThreshold := -1, 0.0

	total := len(idx)
	var sumAll, sqAll float64
	for _, i := range idx {
		sumAll += y[i]
		sqAll += y[i] * y[i]
	}
	parentSSE := sqAll - sumAll*sumAll/float64(total)

	order := make([]int, len(idx))
	for _, f := range candidates {
		copy(order, idx)
		sortByFeature(X, order, f)

		var sumL, sqL float64
		for k := 0; k < total-1; k++ {
			i := order[k]
			sumL += y[i]
			sqL += y[i] * y[i]
			// No split between equal values.
			if X[order[k]][f] == X[order[k+1]][f] {
				continue
			}
			nL := k + 1
			nR := total - nL
			if nL < p.MinLeaf || nR < p.MinLeaf {
				continue
			}
			sumR := sumAll - sumL
			sqR := sqAll - sqL
			sse := (sqL - sumL*sumL/float64(nL)) + (sqR - sumR*sumR/float64(nR))
			gain := parentSSE - sse
			if gain > bestGain+1e-12 {
				bestGain = gain
				bestFeature = f
				bestThreshold = (X[order[k]][f] + X[order[k+1]][f]) / 2
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

func featureSample(n int, p treeParams) []int {
	if p.FeatureFrac >= 1 || p.rng == nil {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}
	k := int(math.Ceil(p.FeatureFrac * float64(n)))
	if k < 1 {
		k = 1
	}
	perm := p.rng.Perm(n)
	return perm[:k]
}

func sortByFeature(X [][]float64, order []int, f int) {
	// Insertion sort keeps the hot path allocation-free; split candidates
	// are small once the tree is a few levels deep.
	for i := 1; i < len(order); i++ {
		j := i
		for j > 0 && X[order[j]][f] < X[order[j-1]][f] {
			order[j], order[j-1] = order[j-1], order[j]
			j--
		}
	}
}

func (t *regressionTree) predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

func meanAt(y []float64, idx []int) float64 {
	var sum float64
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}

func pureAt(y []float64, idx []int) bool {
	first := y[idx[0]]
	for _, i := range idx[1:] {
		if y[i] != first {
			return false
		}
	}
	return true
}

// Forest is a bagged ensemble of regression trees. On 0/1 targets the mean
// leaf value across trees is a probability estimate.
type Forest struct {
	Trees []*regressionTree `json:"trees"`
	Seed  int64             `json:"seed"`
}

// ForestParams controls bagging.
type ForestParams struct {
	Trees       int
	MaxDepth    int
	MinLeaf     int
	FeatureFrac float64
	Seed        int64
}

// FitForest trains a bootstrap-aggregated tree ensemble.
func FitForest(X [][]float64, y []float64, p ForestParams) *Forest {
	rng := rand.New(rand.NewSource(p.Seed))
	f := &Forest{Seed: p.Seed, Trees: make([]*regressionTree, 0, p.Trees)}
	n := len(X)
	for t := 0; t < p.Trees; t++ {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = rng.Intn(n)
		}
		f.Trees = append(f.Trees, fitTree(X, y, idx, treeParams{
			MaxDepth:    p.MaxDepth,
			MinLeaf:     p.MinLeaf,
			FeatureFrac: p.FeatureFrac,
			rng:         rng,
		}))
	}
	return f
}

// Predict returns the mean tree output for x.
func (f *Forest) Predict(x []float64) float64 {
	var sum float64
	for _, t := range f.Trees {
		sum += t.predict(x)
	}
	return sum / float64(len(f.Trees))
}

// Boosting is a gradient-boosted tree ensemble with a logistic link, for
// binary targets. Predict returns a probability.
type Boosting struct {
	Trees        []*regressionTree `json:"trees"`
	LearningRate float64           `json:"learning_rate"`
	BasePred     float64           `json:"base_pred"` // initial log-odds
}

// BoostParams controls boosting.
type BoostParams struct {
	Rounds       int
	MaxDepth     int
	MinLeaf      int
	LearningRate float64
	Seed         int64
}

// FitBoosting trains gradient-boosted trees on the logistic deviance.
// Each round fits a tree to the residual (y - p) and the leaf values are
// the mean residuals, a first-order approximation that is stable on the
// class-imbalanced targets used here.
func FitBoosting(X [][]float64, y []float64, p BoostParams) *Boosting {
	n := len(X)
	rng := rand.New(rand.NewSource(p.Seed))

	pos := 0.0
	for _, v := range y {
		pos += v
	}
	prior := pos / float64(n)
	prior = math.Min(math.Max(prior, 1e-6), 1-1e-6)

	b := &Boosting{
		LearningRate: p.LearningRate,
		BasePred:     math.Log(prior / (1 - prior)),
		Trees:        make([]*regressionTree, 0, p.Rounds),
	}

	raw := make([]float64, n)
	for i := range raw {
		raw[i] = b.BasePred
	}
	residual := make([]float64, n)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	for round := 0; round < p.Rounds; round++ {
		for i := 0; i < n; i++ {
			residual[i] = y[i] - sigmoid(raw[i])
		}
		tree := fitTree(X, residual, idx, treeParams{
			MaxDepth:    p.MaxDepth,
			MinLeaf:     p.MinLeaf,
			FeatureFrac: 0.8,
			rng:         rng,
		})
		b.Trees = append(b.Trees, tree)
		for i := 0; i < n; i++ {
			raw[i] += p.LearningRate * tree.predict(X[i])
		}
	}
	return b
}

// Predict returns the estimated probability for x.
func (b *Boosting) Predict(x []float64) float64 {
	raw := b.BasePred
	for _, t := range b.Trees {
		raw += b.LearningRate * t.predict(x)
	}
	return sigmoid(raw)
}

func sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}
