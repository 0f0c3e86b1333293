package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/salescluster-cli/internal/utils"
)

// Global configuration structure.
type Global struct {
	Preset string `mapstructure:"preset" yaml:"preset"`

	// Clustering
	Strategy   string  `mapstructure:"strategy" yaml:"strategy"`
	K          int     `mapstructure:"k" yaml:"k"`
	Eps        float64 `mapstructure:"eps" yaml:"eps"`
	MinSamples int     `mapstructure:"min_samples" yaml:"min_samples"`
	Seed       int64   `mapstructure:"seed" yaml:"seed"`
	MaxIter    int     `mapstructure:"max_iter" yaml:"max_iter"`
	NInit      int     `mapstructure:"n_init" yaml:"n_init"`

	// Columns
	Features           []string `mapstructure:"features" yaml:"features"`
	Categorical        []string `mapstructure:"categorical" yaml:"categorical"`
	DateColumns        []string `mapstructure:"date_columns" yaml:"date_columns"`
	DateLayouts        []string `mapstructure:"date_layouts" yaml:"date_layouts"`
	Required           []string `mapstructure:"required" yaml:"required"`
	SummaryColumns     []string `mapstructure:"summary_columns" yaml:"summary_columns"`
	LabelColumn        string   `mapstructure:"label_column" yaml:"label_column"`
	EncodeCategoricals bool     `mapstructure:"encode_categoricals" yaml:"encode_categoricals"`

	// Input parsing
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	Decimal   string `mapstructure:"decimal" yaml:"decimal"`
	Thousands string `mapstructure:"thousands" yaml:"thousands"`
	Encoding  string `mapstructure:"encoding" yaml:"encoding"`
	Sheet     string `mapstructure:"sheet" yaml:"sheet"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// Sinks
	SQLitePath      string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	BigQueryProject string `mapstructure:"bigquery_project" yaml:"bigquery_project"`
	BigQueryDataset string `mapstructure:"bigquery_dataset" yaml:"bigquery_dataset"`
	BigQueryTable   string `mapstructure:"bigquery_table" yaml:"bigquery_table"`
	// GCP service account key used for gs:// and BigQuery; application default credentials when empty.
	GCPCredentials string `mapstructure:"gcp_credentials" yaml:"gcp_credentials"`

	// keys given by the config file, the environment or Set
	explicit map[string]bool
}

// IsSet reports whether key was given explicitly rather than taken from defaults.
func (c *Global) IsSet(key string) bool { return c.explicit[key] }

func (c *Global) mark(key string) {
	if c.explicit == nil {
		c.explicit = map[string]bool{}
	}
	c.explicit[key] = true
}

// Dir returns ~/.salescluster.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".salescluster"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.salescluster/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("SALESCLUSTER")
	v.AutomaticEnv()

	v.SetDefault("strategy", "kmeans")
	v.SetDefault("k", 3)
	v.SetDefault("eps", 0.5)
	v.SetDefault("min_samples", 5)
	v.SetDefault("seed", 42)
	v.SetDefault("max_iter", 300)
	v.SetDefault("n_init", 10)
	v.SetDefault("features", []string{})
	v.SetDefault("categorical", []string{})
	v.SetDefault("date_columns", []string{})
	v.SetDefault("date_layouts", []string{})
	v.SetDefault("required", []string{})
	v.SetDefault("summary_columns", []string{})
	v.SetDefault("label_column", "Cluster")
	v.SetDefault("encode_categoricals", true)
	v.SetDefault("encoding", "utf-8")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("preset", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	for _, k := range Keys() {
		if _, ok := os.LookupEnv("SALESCLUSTER_" + strings.ToUpper(k)); ok || v.InConfig(k) {
			c.mark(k)
		}
	}
	return &c, nil
}

// Keys lists the settable configuration keys in display order.
func Keys() []string {
	return []string{
		"preset", "strategy", "k", "eps", "min_samples", "seed", "max_iter", "n_init",
		"features", "categorical", "date_columns", "date_layouts", "required", "summary_columns",
		"label_column", "encode_categoricals", "delimiter", "decimal", "thousands", "encoding", "sheet",
		"log_level", "log_format", "sqlite_path", "bigquery_project", "bigquery_dataset", "bigquery_table",
		"gcp_credentials",
	}
}
