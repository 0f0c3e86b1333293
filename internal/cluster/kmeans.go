package cluster

import (
	"context"
	"fmt"
	"math"
	"math/rand"
)

// KMeans is Lloyd's algorithm with k-means++ seeding. Restarts draw from a single
// generator seeded with Seed, so equal inputs give equal labels.
type KMeans struct {
	K       int
	Seed    int64
	MaxIter int
	NInit   int
}

func (km *KMeans) Name() string { return StrategyKMeans }

// KMeansModel holds fitted centroids. It is not modified after Fit.
type KMeansModel struct {
	centroids  [][]float64
	labels     []int
	inertia    float64
	iterations int
	warnings   []Warning
}

// NewKMeansModel restores a model from stored centroids, for prediction only.
func NewKMeansModel(centroids [][]float64) (*KMeansModel, error) {
	if len(centroids) == 0 {
		return nil, &ParameterError{Param: "centroids", Value: 0, Reason: "model has no centroids", Err: ErrEmptyInput}
	}
	return &KMeansModel{centroids: copyMatrix(centroids)}, nil
}

func (m *KMeansModel) Labels() []int       { return append([]int(nil), m.labels...) }
func (m *KMeansModel) Warnings() []Warning { return append([]Warning(nil), m.warnings...) }
func (m *KMeansModel) Inertia() float64    { return m.inertia }
func (m *KMeansModel) Iterations() int     { return m.iterations }

// Centroids returns a copy of the cluster centers.
func (m *KMeansModel) Centroids() [][]float64 { return copyMatrix(m.centroids) }

// Predict returns the index of the nearest centroid. Ties go to the lower index.
func (m *KMeansModel) Predict(x []float64) (int, error) {
	if len(x) != len(m.centroids[0]) {
		return 0, fmt.Errorf("predict: vector has %d features, model has %d", len(x), len(m.centroids[0]))
	}
	l, _ := nearest(m.centroids, x)
	return l, nil
}

// Fit runs NInit seeded restarts and keeps the lowest inertia.
func (km *KMeans) Fit(ctx context.Context, X [][]float64) (Model, error) {
	if err := checkMatrix(X, "k", km.K); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(km.Seed))
	var best *KMeansModel
	for run := 0; run < km.NInit; run++ {
		m, err := km.fitOnce(ctx, X, rng)
		if err != nil {
			return nil, err
		}
		if best == nil || m.inertia < best.inertia {
			best = m
		}
	}

	if d := distinctPoints(X); d < km.K {
		best.warnings = append(best.warnings, Warning{
			Code:    WarnKExceedsDistinct,
			Message: fmt.Sprintf("k=%d exceeds the %d distinct points; some clusters are empty or duplicated", km.K, d),
		})
	}
	counts := make([]int, km.K)
	for _, l := range best.labels {
		counts[l]++
	}
	for c, n := range counts {
		if n == 0 {
			best.warnings = append(best.warnings, Warning{Code: WarnEmptyCluster, Message: fmt.Sprintf("cluster %d has no rows", c)})
		}
	}
	return best, nil
}

func (km *KMeans) fitOnce(ctx context.Context, X [][]float64, rng *rand.Rand) (*KMeansModel, error) {
	centroids := seedPlusPlus(X, km.K, rng)
	labels := make([]int, len(X))
	for i := range labels {
		labels[i] = -1
	}
	iter := 0
	for ; iter < km.MaxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("kmeans: %w", err)
		}
		changed := false
		for i, x := range X {
			l, _ := nearest(centroids, x)
			if l != labels[i] {
				labels[i] = l
				changed = true
			}
		}
		if !changed {
			break
		}
		updateCentroids(X, labels, centroids)
	}
	// labels must match the final centroids when max_iter stops the loop early
	for i, x := range X {
		labels[i], _ = nearest(centroids, x)
	}
	var inertia float64
	for i, x := range X {
		d := distance(x, centroids[labels[i]])
		inertia += d * d
	}
	return &KMeansModel{centroids: centroids, labels: labels, inertia: inertia, iterations: iter}, nil
}

// seedPlusPlus picks the first center uniformly and each next one with probability
// proportional to the squared distance from the nearest chosen center.
func seedPlusPlus(X [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, append([]float64(nil), X[rng.Intn(len(X))]...))
	d2 := make([]float64, len(X))
	for len(centroids) < k {
		var total float64
		for i, x := range X {
			_, d := nearest(centroids, x)
			d2[i] = d * d
			total += d2[i]
		}
		idx := 0
		if total > 0 {
			r := rng.Float64() * total
			for i, w := range d2 {
				if w == 0 {
					continue
				}
				idx = i
				r -= w
				if r <= 0 {
					break
				}
			}
		} else {
			idx = rng.Intn(len(X))
		}
		centroids = append(centroids, append([]float64(nil), X[idx]...))
	}
	return centroids
}

// updateCentroids recomputes centers as member means. An empty cluster takes the
// point farthest from its current center.
func updateCentroids(X [][]float64, labels []int, centroids [][]float64) {
	dim := len(X[0])
	counts := make([]int, len(centroids))
	for c := range centroids {
		for j := 0; j < dim; j++ {
			centroids[c][j] = 0
		}
	}
	for i, x := range X {
		c := labels[i]
		counts[c]++
		for j, v := range x {
			centroids[c][j] += v
		}
	}
	for c := range centroids {
		if counts[c] == 0 {
			continue
		}
		for j := range centroids[c] {
			centroids[c][j] /= float64(counts[c])
		}
	}
	used := map[int]bool{}
	for c := range centroids {
		if counts[c] > 0 {
			continue
		}
		far, farD := -1, -1.0
		for i, x := range X {
			if used[i] || counts[labels[i]] <= 1 {
				continue
			}
			if d := distance(x, centroids[labels[i]]); d > farD {
				far, farD = i, d
			}
		}
		if far < 0 {
			continue
		}
		used[far] = true
		copy(centroids[c], X[far])
	}
}

func nearest(centroids [][]float64, x []float64) (int, float64) {
	best, bestD := 0, math.Inf(1)
	for c, ctr := range centroids {
		if d := distance(x, ctr); d < bestD {
			best, bestD = c, d
		}
	}
	return best, bestD
}

func copyMatrix(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, r := range m {
		out[i] = append([]float64(nil), r...)
	}
	return out
}
