package analytics

import (
	"math"
	"math/rand"
)

// kmeansResult holds the outcome of one clustering run.
type kmeansResult struct {
	labels  []int
	centers [][]float64
	inertia float64
}

// kmeans runs seeded Lloyd iterations with k-means++ initialization over
// row-major data. The seed makes repeated runs on identical input identical.
func kmeans(data [][]float64, k int, seed int64, maxIter int) kmeansResult {
	rng := rand.New(rand.NewSource(seed))
	centers := seedCenters(data, k, rng)
	labels := make([]int, len(data))

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, row := range data {
			best, bestDist := 0, math.Inf(1)
			for c, center := range centers {
				if d := sqDist(row, center); d < bestDist {
					best, bestDist = c, d
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}

		next := make([][]float64, k)
		counts := make([]int, k)
		dims := len(data[0])
		for c := range next {
			next[c] = make([]float64, dims)
		}
		for i, row := range data {
			c := labels[i]
			counts[c]++
			for j, v := range row {
				next[c][j] += v
			}
		}
		for c := range next {
			if counts[c] == 0 {
				// Re-seed an empty cluster on the point farthest from its center.
				far, farDist := 0, -1.0
				for i, row := range data {
					if d := sqDist(row, centers[labels[i]]); d > farDist {
						far, farDist = i, d
					}
				}
				copy(next[c], data[far])
				labels[far] = c
				continue
			}
			for j := range next[c] {
				next[c][j] /= float64(counts[c])
			}
		}
		centers = next
		if !changed && iter > 0 {
			break
		}
	}

	inertia := 0.0
	for i, row := range data {
		inertia += sqDist(row, centers[labels[i]])
	}
	return kmeansResult{labels: labels, centers: centers, inertia: inertia}
}

// seedCenters picks k initial centers with the k-means++ weighting.
func seedCenters(data [][]float64, k int, rng *rand.Rand) [][]float64 {
	centers := make([][]float64, 0, k)
	first := append([]float64(nil), data[rng.Intn(len(data))]...)
	centers = append(centers, first)

	dists := make([]float64, len(data))
	for len(centers) < k {
		total := 0.0
		for i, row := range data {
			d := math.Inf(1)
			for _, center := range centers {
				if sd := sqDist(row, center); sd < d {
					d = sd
				}
			}
			dists[i] = d
			total += d
		}
		var next []float64
		if total == 0 {
			next = data[rng.Intn(len(data))]
		} else {
			target := rng.Float64() * total
			acc := 0.0
			next = data[len(data)-1]
			for i, d := range dists {
				acc += d
				if acc >= target {
					next = data[i]
					break
				}
			}
		}
		centers = append(centers, append([]float64(nil), next...))
	}
	return centers
}

func sqDist(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
