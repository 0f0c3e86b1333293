package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/KaramelBytes/salescluster-cli/internal/cluster"
	"github.com/KaramelBytes/salescluster-cli/internal/dataset"
	"github.com/KaramelBytes/salescluster-cli/internal/summary"
)

// SweepPoint is the k-means quality at one k.
type SweepPoint struct {
	K                 int
	Inertia           float64
	Silhouette        float64
	SilhouetteDefined bool
}

// Sweep fits k-means for every k in [kMin, kMax] on the same scaled matrix. ks above
// the row count are skipped.
func Sweep(ctx context.Context, t *dataset.Table, cfg Config, kMin, kMax int) ([]SweepPoint, error) {
	if kMin < 1 || kMax < kMin {
		return nil, &cluster.ParameterError{Param: "k range", Value: fmt.Sprintf("%d..%d", kMin, kMax), Reason: "need 1 <= k-min <= k-max"}
	}
	cfg.Cluster.Strategy = cluster.StrategyKMeans
	cfg.Cluster.K = kMin
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	st := &State{RunID: uuid.NewString(), Source: t.Name, Config: cfg, Table: t}
	if err := NewRunner(EncodeStep{}, ScaleStep{}).Execute(ctx, st); err != nil {
		return nil, err
	}
	var out []SweepPoint
	for k := kMin; k <= kMax && k <= len(st.Z); k++ {
		p := cfg.Cluster
		p.K = k
		s, err := cluster.New(p)
		if err != nil {
			return nil, err
		}
		m, err := s.Fit(ctx, st.Z)
		if err != nil {
			return nil, fmt.Errorf("sweep k=%d: %w", k, err)
		}
		pt := SweepPoint{K: k, Inertia: m.(*cluster.KMeansModel).Inertia()}
		pt.Silhouette, pt.SilhouetteDefined = cluster.Silhouette(st.Z, m.Labels())
		out = append(out, pt)
	}
	return out, nil
}

// SweepMarkdown renders sweep points as an elbow table.
func SweepMarkdown(points []SweepPoint) string {
	var b strings.Builder
	b.WriteString("[K SWEEP]\n| k | inertia | silhouette |\n|---:|---:|---:|\n")
	for _, p := range points {
		sil := "n/a"
		if p.SilhouetteDefined {
			sil = summary.Round(p.Silhouette, 3)
		}
		b.WriteString(fmt.Sprintf("| %d | %s | %s |\n", p.K, summary.Round(p.Inertia, 3), sil))
	}
	return b.String()
}
