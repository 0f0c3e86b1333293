package cluster

import (
	"math"
)

// Inertia is the within-cluster sum of squared distances to each cluster mean.
// Noise rows are excluded.
func Inertia(X [][]float64, labels []int) float64 {
	means := clusterMeans(X, labels)
	var sum float64
	for i, x := range X {
		c, ok := means[labels[i]]
		if !ok {
			continue
		}
		d := distance(x, c)
		sum += d * d
	}
	return sum
}

// Silhouette returns the mean silhouette coefficient over non-noise rows. ok is
// false when fewer than two clusters exist.
func Silhouette(X [][]float64, labels []int) (score float64, ok bool) {
	members := map[int][]int{}
	for i, l := range labels {
		if l == Noise {
			continue
		}
		members[l] = append(members[l], i)
	}
	if len(members) < 2 {
		return 0, false
	}
	var total float64
	var n int
	for i, l := range labels {
		if l == Noise {
			continue
		}
		n++
		own := members[l]
		if len(own) == 1 {
			continue
		}
		var a float64
		for _, j := range own {
			if j != i {
				a += distance(X[i], X[j])
			}
		}
		a /= float64(len(own) - 1)
		b := math.Inf(1)
		for other, idx := range members {
			if other == l {
				continue
			}
			var d float64
			for _, j := range idx {
				d += distance(X[i], X[j])
			}
			if d /= float64(len(idx)); d < b {
				b = d
			}
		}
		if m := math.Max(a, b); m > 0 {
			total += (b - a) / m
		}
	}
	return total / float64(n), true
}

func clusterMeans(X [][]float64, labels []int) map[int][]float64 {
	sums := map[int][]float64{}
	counts := map[int]int{}
	for i, x := range X {
		l := labels[i]
		if l == Noise {
			continue
		}
		s, ok := sums[l]
		if !ok {
			s = make([]float64, len(x))
			sums[l] = s
		}
		for j, v := range x {
			s[j] += v
		}
		counts[l]++
	}
	for l, s := range sums {
		for j := range s {
			s[j] /= float64(counts[l])
		}
	}
	return sums
}
