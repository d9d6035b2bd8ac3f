package classify

import (
	"fmt"
	"sort"
)

// DecisionTree is a CART-style classification tree over sparse feature
// vectors, splitting on numeric thresholds by Gini impurity.
type DecisionTree struct {
	MaxDepth int     `json:"max_depth"`
	MinLeaf  int     `json:"min_leaf"`
	Fallback string  `json:"fallback,omitempty"` // majority class of last fit
	Root     *dtNode `json:"root,omitempty"`
}

type dtNode struct {
	Feature   string  `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      *dtNode `json:"left,omitempty"`
	Right     *dtNode `json:"right,omitempty"`
	Class     string  `json:"class,omitempty"` // set on leaves only
}

// NewDecisionTree returns a tree with the given depth and minimum leaf size.
// Non-positive arguments fall back to defaults (depth 12, leaf 2).
func NewDecisionTree(maxDepth, minLeaf int) *DecisionTree {
	if maxDepth <= 0 {
		maxDepth = 12
	}
	if minLeaf <= 0 {
		minLeaf = 2
	}
	return &DecisionTree{MaxDepth: maxDepth, MinLeaf: minLeaf}
}

func (t *DecisionTree) Name() string { return "dtree" }

// Fit rebuilds the tree from scratch on the given training data.
func (t *DecisionTree) Fit(features []FeatureVector, labels []string) error {
	if len(features) != len(labels) {
		return fmt.Errorf("dtree: %d feature vectors vs %d labels", len(features), len(labels))
	}
	if len(features) == 0 {
		return fmt.Errorf("dtree: empty training set")
	}

	idx := make([]int, len(features))
	for i := range idx {
		idx[i] = i
	}
	t.Fallback = majorityLabel(labels, idx)
	t.Root = t.grow(features, labels, idx, t.MaxDepth)
	return nil
}

// Predict returns one label per feature vector.
func (t *DecisionTree) Predict(features []FeatureVector) []string {
	out := make([]string, len(features))
	for i, fv := range features {
		out[i] = t.predictOne(fv)
	}
	return out
}

func (t *DecisionTree) predictOne(fv FeatureVector) string {
	n := t.Root
	if n == nil {
		return t.Fallback
	}
	for n.Class == "" {
		if fv[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Class
}

func (t *DecisionTree) grow(features []FeatureVector, labels []string, idx []int, depth int) *dtNode {
	if depth <= 0 || len(idx) < 2*t.MinLeaf || pure(labels, idx) {
		return &dtNode{Class: majorityLabel(labels, idx)}
	}

	feat, thresh, ok := bestSplit(features, labels, idx, t.MinLeaf)
	if !ok {
		return &dtNode{Class: majorityLabel(labels, idx)}
	}

	var left, right []int
	for _, i := range idx {
		if features[i][feat] <= thresh {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &dtNode{
		Feature:   feat,
		Threshold: thresh,
		Left:      t.grow(features, labels, left, depth-1),
		Right:     t.grow(features, labels, right, depth-1),
	}
}

// bestSplit scans every feature seen in the sample set for the threshold
// with the largest Gini impurity decrease.
func bestSplit(features []FeatureVector, labels []string, idx []int, minLeaf int) (string, float64, bool) {
	feats := make(map[string]struct{})
	for _, i := range idx {
		for f := range features[i] {
			feats[f] = struct{}{}
		}
	}
	names := make([]string, 0, len(feats))
	for f := range feats {
		names = append(names, f)
	}
	sort.Strings(names) // deterministic tie-breaking

	base := gini(labels, idx)
	bestGain := 1e-12
	var bestFeat string
	var bestThresh float64
	found := false

	vals := make([]float64, 0, len(idx))
	for _, f := range names {
		vals = vals[:0]
		for _, i := range idx {
			vals = append(vals, features[i][f])
		}
		sort.Float64s(vals)

		for k := 1; k < len(vals); k++ {
			if vals[k] == vals[k-1] {
				continue
			}
			thresh := (vals[k] + vals[k-1]) / 2
			var left, right []int
			for _, i := range idx {
				if features[i][f] <= thresh {
					left = append(left, i)
				} else {
					right = append(right, i)
				}
			}
			if len(left) < minLeaf || len(right) < minLeaf {
				continue
			}
			nl, nr := float64(len(left)), float64(len(right))
			n := nl + nr
			gain := base - (nl/n)*gini(labels, left) - (nr/n)*gini(labels, right)
			if gain > bestGain {
				bestGain = gain
				bestFeat = f
				bestThresh = thresh
				found = true
			}
		}
	}
	return bestFeat, bestThresh, found
}

func gini(labels []string, idx []int) float64 {
	counts := make(map[string]int)
	for _, i := range idx {
		counts[labels[i]]++
	}
	n := float64(len(idx))
	if n == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := float64(c) / n
		g -= p * p
	}
	return g
}

func pure(labels []string, idx []int) bool {
	if len(idx) == 0 {
		return true
	}
	first := labels[idx[0]]
	for _, i := range idx[1:] {
		if labels[i] != first {
			return false
		}
	}
	return true
}

func majorityLabel(labels []string, idx []int) string {
	counts := make(map[string]int)
	for _, i := range idx {
		counts[labels[i]]++
	}
	best, bestCount := "", -1
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys) // stable result on ties
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}
