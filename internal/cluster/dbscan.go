package cluster

import (
	"context"
	"fmt"
)

const unvisited = -2

// DBSCAN groups points whose Eps-neighbourhood (the point included) holds at least
// MinSamples points. Rows are expanded in input order. With MinSamples 1 every point
// is a core point, so nothing is ever noise; an Eps below the nearest-neighbour
// distance yields all noise only for MinSamples >= 2.
type DBSCAN struct {
	Eps        float64
	MinSamples int
}

func (db *DBSCAN) Name() string { return StrategyDBSCAN }

// DBSCANModel labels the rows it was fit on. It cannot classify new records.
type DBSCANModel struct {
	labels   []int
	clusters int
	noise    int
	warnings []Warning
}

func (m *DBSCANModel) Labels() []int       { return append([]int(nil), m.labels...) }
func (m *DBSCANModel) Warnings() []Warning { return append([]Warning(nil), m.warnings...) }
func (m *DBSCANModel) Clusters() int       { return m.clusters }
func (m *DBSCANModel) NoiseCount() int     { return m.noise }

func (m *DBSCANModel) Predict([]float64) (int, error) {
	return 0, fmt.Errorf("dbscan: %w", ErrPredictUnsupported)
}

func (db *DBSCAN) Fit(ctx context.Context, X [][]float64) (Model, error) {
	if err := checkMatrix(X, "min_samples", db.MinSamples); err != nil {
		return nil, err
	}
	labels := make([]int, len(X))
	for i := range labels {
		labels[i] = unvisited
	}
	cluster := 0
	for i := range X {
		if labels[i] != unvisited {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("dbscan: %w", err)
		}
		nb := db.region(X, i)
		if len(nb) < db.MinSamples {
			labels[i] = Noise
			continue
		}
		labels[i] = cluster
		queue := append([]int(nil), nb...)
		for q := 0; q < len(queue); q++ {
			j := queue[q]
			if labels[j] == Noise {
				labels[j] = cluster
			}
			if labels[j] != unvisited {
				continue
			}
			labels[j] = cluster
			if jn := db.region(X, j); len(jn) >= db.MinSamples {
				queue = append(queue, jn...)
			}
		}
		cluster++
	}

	m := &DBSCANModel{labels: labels, clusters: cluster}
	for _, l := range labels {
		if l == Noise {
			m.noise++
		}
	}
	switch {
	case cluster == 0:
		m.warnings = append(m.warnings, Warning{
			Code:    WarnAllNoise,
			Message: fmt.Sprintf("all %d rows are noise at eps=%g min_samples=%d; increase eps or lower min_samples", len(X), db.Eps, db.MinSamples),
		})
	case cluster == 1 && m.noise == 0:
		m.warnings = append(m.warnings, Warning{
			Code:    WarnSingleCluster,
			Message: fmt.Sprintf("every row falls in one cluster at eps=%g; decrease eps or raise min_samples", db.Eps),
		})
	}
	return m, nil
}

// region returns the indices within Eps of X[i], i included, in input order.
func (db *DBSCAN) region(X [][]float64, i int) []int {
	var out []int
	for j, x := range X {
		if distance(X[i], x) <= db.Eps {
			out = append(out, j)
		}
	}
	return out
}
