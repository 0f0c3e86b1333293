package pipeline

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/salescluster-cli/internal/cluster"
	"github.com/KaramelBytes/salescluster-cli/internal/dataset"
	"github.com/KaramelBytes/salescluster-cli/internal/features"
	"github.com/KaramelBytes/salescluster-cli/internal/utils"
)

// Fitted is the immutable outcome of a fit: the encoders and scaler learned from the
// cleaned data plus the clustering model. It holds no reference to the training rows.
type Fitted struct {
	RunID     string               `yaml:"run_id"`
	Source    string               `yaml:"source,omitempty"`
	FittedAt  time.Time            `yaml:"fitted_at"`
	Params    cluster.Params       `yaml:"params"`
	Layout    features.Layout      `yaml:"layout"`
	Scaler    *features.Scaler     `yaml:"scaler"`
	Centroids [][]float64          `yaml:"centroids,omitempty"`
	Number    dataset.NumberFormat `yaml:"number,omitempty"`

	model *cluster.KMeansModel
}

func newFitted(st *State) (*Fitted, error) {
	f := &Fitted{
		RunID:    st.RunID,
		Source:   st.Source,
		FittedAt: time.Now().UTC(),
		Params:   st.Config.Cluster,
		Layout:   st.Layout,
		Scaler:   st.Scaler,
		Number:   st.Config.Number,
	}
	if km, ok := st.Model.(*cluster.KMeansModel); ok {
		f.Centroids = km.Centroids()
		f.model = km
	}
	return f, nil
}

// Predict assigns a label to one record given as column=value pairs, using the stored
// encoders and scaler. Density-based fits return cluster.ErrPredictUnsupported.
func (f *Fitted) Predict(record map[string]string) (int, error) {
	if f.model == nil {
		return 0, fmt.Errorf("predict with %s: %w", f.Params.Strategy, cluster.ErrPredictUnsupported)
	}
	x, err := features.Vector(record, f.Layout, f.Number)
	if err != nil {
		return 0, err
	}
	z, err := f.Scaler.Transform(x)
	if err != nil {
		return 0, err
	}
	return f.model.Predict(z)
}

// Marshal encodes the fitted pipeline as YAML.
func (f *Fitted) Marshal() ([]byte, error) {
	b, err := yaml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshal model: %w", err)
	}
	return b, nil
}

// Save writes the fitted pipeline to path.
func (f *Fitted) Save(path string) error {
	b, err := f.Marshal()
	if err != nil {
		return err
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	return nil
}

// UnmarshalFitted decodes a fitted pipeline and rebuilds its model.
func UnmarshalFitted(b []byte) (*Fitted, error) {
	var f Fitted
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	if f.Scaler == nil {
		return nil, errors.New("parse model: missing scaler")
	}
	if len(f.Scaler.Mean) != len(f.Layout.Columns()) {
		return nil, fmt.Errorf("parse model: scaler has %d features, layout has %d", len(f.Scaler.Mean), len(f.Layout.Columns()))
	}
	if len(f.Centroids) > 0 {
		m, err := cluster.NewKMeansModel(f.Centroids)
		if err != nil {
			return nil, fmt.Errorf("parse model: %w", err)
		}
		f.model = m
	}
	return &f, nil
}

// LoadFitted reads a model file written by Save.
func LoadFitted(path string) (*Fitted, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	return UnmarshalFitted(b)
}
