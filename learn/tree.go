package learn

import (
	"math"
	"math/rand"
	"sort"
)

//Node is a decision tree node. Leaves carry the mean target of their samples.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64
	Leaf      bool
}

//Tree is a CART regression tree stored as a flat node list rooted at index 0.
type Tree struct {
	Nodes []Node
}

//TreeParams controls tree growth.
type TreeParams struct {
	//MaxDepth limits the depth of the tree; 0 means unlimited.
	MaxDepth int
	//MinSamplesLeaf is the minimum number of samples in each leaf.
	MinSamplesLeaf int
	//MaxFeatures is the number of features tried at each split; 0 means all.
	MaxFeatures int
}

type split struct {
	feature   int
	threshold float64
	cost      float64
	pos       int
}

type builder struct {
	x      [][]float64
	y      []float64
	params TreeParams
	rng    *rand.Rand
	nfeat  int
	tree   *Tree
}

//BuildTree grows a regression tree on the samples at idx, which may repeat.
//Splits minimize the summed squared error of the two children.
func BuildTree(x [][]float64, y []float64, idx []int, p TreeParams, rng *rand.Rand) *Tree {
	if p.MinSamplesLeaf < 1 {
		p.MinSamplesLeaf = 1
	}
	b := &builder{x: x, y: y, params: p, rng: rng, tree: &Tree{}}
	if len(x) > 0 {
		b.nfeat = len(x[0])
	}
	b.grow(append([]int(nil), idx...), 0)
	return b.tree
}

func (b *builder) grow(idx []int, depth int) int {
	id := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, Node{Leaf: true, Value: b.mean(idx)})
	if len(idx) < 2*b.params.MinSamplesLeaf ||
		(b.params.MaxDepth > 0 && depth >= b.params.MaxDepth) || b.pure(idx) {
		return id
	}
	s, ok := b.best(idx)
	if !ok {
		return id
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return b.x[idx[i]][s.feature] < b.x[idx[j]][s.feature]
	})
	left := b.grow(idx[:s.pos], depth+1)
	right := b.grow(idx[s.pos:], depth+1)
	b.tree.Nodes[id] = Node{Feature: s.feature, Threshold: s.threshold, Left: left, Right: right,
		Value: b.tree.Nodes[id].Value}
	return id
}

func (b *builder) mean(idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	s := 0.
	for _, i := range idx {
		s += b.y[i]
	}
	return s / float64(len(idx))
}

func (b *builder) pure(idx []int) bool {
	for _, i := range idx[1:] {
		if b.y[i] != b.y[idx[0]] {
			return false
		}
	}
	return true
}

func (b *builder) features() []int {
	all := make([]int, b.nfeat)
	for i := range all {
		all[i] = i
	}
	k := b.params.MaxFeatures
	if k <= 0 || k >= b.nfeat {
		return all
	}
	b.rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	return all[:k]
}

//best scans every candidate feature for the threshold with the lowest cost.
func (b *builder) best(idx []int) (best split, found bool) {
	n := len(idx)
	minLeaf := b.params.MinSamplesLeaf
	best.cost = math.Inf(1)
	order := make([]int, n)
	var total, totalSq float64
	for _, i := range idx {
		total += b.y[i]
		totalSq += b.y[i] * b.y[i]
	}
	for _, f := range b.features() {
		copy(order, idx)
		sort.SliceStable(order, func(i, j int) bool {
			return b.x[order[i]][f] < b.x[order[j]][f]
		})
		var ls, lsq float64
		for k := 1; k < n; k++ {
			v := b.y[order[k-1]]
			ls += v
			lsq += v * v
			if k < minLeaf || n-k < minLeaf {
				continue
			}
			lo, hi := b.x[order[k-1]][f], b.x[order[k]][f]
			if lo == hi {
				continue
			}
			rs, rsq := total-ls, totalSq-lsq
			cost := (lsq - ls*ls/float64(k)) + (rsq - rs*rs/float64(n-k))
			if cost < best.cost {
				best = split{feature: f, threshold: lo + (hi-lo)/2, cost: cost, pos: k}
				found = true
			}
		}
	}
	return
}

//Predict walks the tree for one sample.
func (t *Tree) Predict(x []float64) float64 {
	if len(t.Nodes) == 0 {
		return 0
	}
	n := t.Nodes[0]
	for !n.Leaf {
		if x[n.Feature] <= n.Threshold {
			n = t.Nodes[n.Left]
		} else {
			n = t.Nodes[n.Right]
		}
	}
	return n.Value
}
