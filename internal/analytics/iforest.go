package analytics

import (
	"math"
	"math/rand"
)

// isolationForest is a seeded ensemble of random isolation trees. Scores are
// in (0, 1); higher means more isolated, hence more anomalous. A forest is
// built fresh per call, so fitted state never crosses requests.
type isolationForest struct {
	trees     []*isolationNode
	sampleLen int
}

type isolationNode struct {
	feature int
	split   float64
	left    *isolationNode
	right   *isolationNode
	size    int // external node only
}

// newIsolationForest fits trees isolation trees on row-major data, each over
// a random subsample of at most subsample rows, using the given seed.
func newIsolationForest(data [][]float64, trees, subsample int, seed int64) *isolationForest {
	rng := rand.New(rand.NewSource(seed))
	n := len(data)
	if subsample > n {
		subsample = n
	}
	if subsample < 2 {
		subsample = n
	}
	maxDepth := int(math.Ceil(math.Log2(float64(maxInt(subsample, 2)))))

	f := &isolationForest{sampleLen: subsample}
	for t := 0; t < trees; t++ {
		idx := rng.Perm(n)[:subsample]
		sample := make([][]float64, subsample)
		for i, j := range idx {
			sample[i] = data[j]
		}
		f.trees = append(f.trees, buildIsolationTree(sample, 0, maxDepth, rng))
	}
	return f
}

func buildIsolationTree(sample [][]float64, depth, maxDepth int, rng *rand.Rand) *isolationNode {
	if len(sample) <= 1 || depth >= maxDepth {
		return &isolationNode{size: len(sample)}
	}
	features := len(sample[0])
	// Choose a feature with spread; give up after a bounded number of draws
	// when every remaining feature is constant.
	for attempt := 0; attempt < features; attempt++ {
		feat := rng.Intn(features)
		lo, hi := sample[0][feat], sample[0][feat]
		for _, row := range sample[1:] {
			if row[feat] < lo {
				lo = row[feat]
			}
			if row[feat] > hi {
				hi = row[feat]
			}
		}
		if hi <= lo {
			continue
		}
		split := lo + rng.Float64()*(hi-lo)
		var left, right [][]float64
		for _, row := range sample {
			if row[feat] < split {
				left = append(left, row)
			} else {
				right = append(right, row)
			}
		}
		if len(left) == 0 || len(right) == 0 {
			continue
		}
		return &isolationNode{
			feature: feat,
			split:   split,
			left:    buildIsolationTree(left, depth+1, maxDepth, rng),
			right:   buildIsolationTree(right, depth+1, maxDepth, rng),
		}
	}
	return &isolationNode{size: len(sample)}
}

// score returns the anomaly score for one row: 2^(-E[h(x)]/c(psi)).
func (f *isolationForest) score(row []float64) float64 {
	c := averagePathLength(f.sampleLen)
	if len(f.trees) == 0 || c == 0 {
		return 0
	}
	total := 0.0
	for _, root := range f.trees {
		total += pathLength(root, row, 0)
	}
	avg := total / float64(len(f.trees))
	return math.Pow(2, -avg/c)
}

// scoreAll scores every row of the fitted data's shape.
func (f *isolationForest) scoreAll(data [][]float64) []float64 {
	out := make([]float64, len(data))
	for i, row := range data {
		out[i] = f.score(row)
	}
	return out
}

func pathLength(node *isolationNode, row []float64, depth int) float64 {
	if node.left == nil {
		return float64(depth) + averagePathLength(node.size)
	}
	if row[node.feature] < node.split {
		return pathLength(node.left, row, depth+1)
	}
	return pathLength(node.right, row, depth+1)
}

// averagePathLength is c(n), the expected path length of an unsuccessful
// search in a binary search tree of n nodes.
func averagePathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	if n == 2 {
		return 1
	}
	fn := float64(n)
	return 2*(math.Log(fn-1)+0.5772156649) - 2*(fn-1)/fn
}
