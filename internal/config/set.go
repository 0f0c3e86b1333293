package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Set assigns one key from its textual form. List keys take comma-separated values.
func Set(c *Global, key, val string) error {
	list := func() []string {
		var out []string
		for _, p := range strings.Split(val, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	atoi := func(min int) (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i < min {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	var err error
	switch key {
	case "preset":
		c.Preset = val
	case "strategy":
		switch strings.ToLower(val) {
		case "kmeans", "k-means":
			c.Strategy = "kmeans"
		case "dbscan":
			c.Strategy = "dbscan"
		default:
			return fmt.Errorf("invalid strategy: %s (use kmeans or dbscan)", val)
		}
	case "k":
		c.K, err = atoi(1)
	case "min_samples":
		c.MinSamples, err = atoi(1)
	case "max_iter":
		c.MaxIter, err = atoi(1)
	case "n_init":
		c.NInit, err = atoi(1)
	case "seed":
		c.Seed, err = strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid int for seed: %w", err)
		}
	case "eps":
		f, perr := strconv.ParseFloat(val, 64)
		if perr != nil || f <= 0 {
			return fmt.Errorf("invalid float for eps: %v", val)
		}
		c.Eps = f
	case "features":
		c.Features = list()
	case "categorical":
		c.Categorical = list()
	case "date_columns":
		c.DateColumns = list()
	case "date_layouts":
		c.DateLayouts = list()
	case "required":
		c.Required = list()
	case "summary_columns":
		c.SummaryColumns = list()
	case "label_column":
		c.LabelColumn = val
	case "encode_categoricals":
		b, perr := strconv.ParseBool(val)
		if perr != nil {
			return fmt.Errorf("invalid bool for encode_categoricals: %v", val)
		}
		c.EncodeCategoricals = b
	case "delimiter":
		c.Delimiter = val
	case "decimal":
		c.Decimal = val
	case "thousands":
		c.Thousands = val
	case "encoding":
		c.Encoding = val
	case "sheet":
		c.Sheet = val
	case "log_level":
		c.LogLevel = val
	case "log_format":
		if val != "console" && val != "json" {
			return fmt.Errorf("invalid log_format: %s (use console or json)", val)
		}
		c.LogFormat = val
	case "sqlite_path":
		c.SQLitePath = val
	case "bigquery_project":
		c.BigQueryProject = val
	case "bigquery_dataset":
		c.BigQueryDataset = val
	case "bigquery_table":
		c.BigQueryTable = val
	case "gcp_credentials":
		c.GCPCredentials = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	if err != nil {
		return err
	}
	c.mark(key)
	return nil
}
