// Package presets holds ready-made column and parameter choices for the sales
// datasets the tool was built for.
package presets

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/salescluster-cli/internal/cluster"
	"github.com/KaramelBytes/salescluster-cli/internal/pipeline"
)

// Preset is a named pipeline configuration with default chart axes.
type Preset struct {
	Name        string
	Description string
	Config      pipeline.Config
	ChartX      string
	ChartY      string
}

var builtin = map[string]Preset{
	"airline-tickets": {
		Name:        "airline-tickets",
		Description: "Airline ticket sales clustered by density (Ticket_Quantity, Ticket_Price, Total)",
		Config: pipeline.Config{
			Cluster:  cluster.Params{Strategy: cluster.StrategyDBSCAN, Eps: 0.5, MinSamples: 5},
			Features: []string{"Ticket_Quantity", "Ticket_Price", "Total"},
		},
		ChartX: "Ticket_Price",
		ChartY: "Total",
	},
	"airline-tickets-kmeans": {
		Name:        "airline-tickets-kmeans",
		Description: "Airline ticket sales split into k=3 segments",
		Config: pipeline.Config{
			Cluster:  cluster.Params{Strategy: cluster.StrategyKMeans, K: 3, Seed: 42},
			Features: []string{"Ticket_Quantity", "Ticket_Price", "Total"},
		},
		ChartX: "Ticket_Price",
		ChartY: "Total",
	},
	"shop-ledger": {
		Name:        "shop-ledger",
		Description: "Shop ledger records by basket size and payment method, k=3",
		Config: pipeline.Config{
			Cluster:            cluster.Params{Strategy: cluster.StrategyKMeans, K: 3, Seed: 42},
			Features:           []string{"Quantity", "Price", "Total"},
			Categorical:        []string{"Payment_Method"},
			EncodeCategoricals: true,
			DateColumns:        []string{"Date"},
		},
		ChartX: "Quantity",
		ChartY: "Total",
	},
	"shop-cashflow": {
		Name:        "shop-cashflow",
		Description: "Daily income and expense per city, k=3",
		Config: pipeline.Config{
			Cluster:            cluster.Params{Strategy: cluster.StrategyKMeans, K: 3, Seed: 42},
			Features:           []string{"Income", "Expense"},
			Categorical:        []string{"City"},
			EncodeCategoricals: true,
			DateColumns:        []string{"Date"},
		},
		ChartX: "Income",
		ChartY: "Expense",
	},
}

// Get returns a copy of the named preset.
func Get(name string) (Preset, error) {
	p, ok := builtin[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Preset{}, fmt.Errorf("unknown preset %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	c := p.Config
	c.Features = append([]string(nil), c.Features...)
	c.Categorical = append([]string(nil), c.Categorical...)
	c.DateColumns = append([]string(nil), c.DateColumns...)
	p.Config = c
	return p, nil
}

// Names lists preset names sorted.
func Names() []string {
	out := make([]string, 0, len(builtin))
	for n := range builtin {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
