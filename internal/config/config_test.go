package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultsFileAndEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Strategy != "kmeans" || c.K != 3 || c.NInit != 10 || c.LabelColumn != "Cluster" || !c.EncodeCategoricals {
		t.Fatalf("defaults: %+v", c)
	}

	path := filepath.Join(home, "custom.yaml")
	body := "strategy: dbscan\neps: 0.75\nfeatures: [Ticket_Quantity, Ticket_Price]\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SALESCLUSTER_MIN_SAMPLES", "7")
	c, err = Load(path)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if c.Strategy != "dbscan" || c.Eps != 0.75 || len(c.Features) != 2 || c.MinSamples != 7 {
		t.Fatalf("file/env values: %+v", c)
	}
	if !c.IsSet("eps") || !c.IsSet("min_samples") || c.IsSet("k") {
		t.Fatalf("explicit keys: eps=%v min_samples=%v k=%v", c.IsSet("eps"), c.IsSet("min_samples"), c.IsSet("k"))
	}
}

func TestSaveAndReload(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range map[string]string{
		"strategy":            "DBSCAN",
		"eps":                 "0.4",
		"min_samples":         "4",
		"features":            "Quantity, Price ,Total",
		"encode_categoricals": "false",
		"sqlite_path":         "runs.db",
	} {
		if err := Set(c, k, v); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}
	if err := Save(c, ""); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, ".salescluster", "config.yaml")); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	got, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if got.Strategy != "dbscan" || got.Eps != 0.4 || got.MinSamples != 4 || got.EncodeCategoricals || got.SQLitePath != "runs.db" {
		t.Fatalf("reloaded: %+v", got)
	}
	if len(got.Features) != 3 || got.Features[1] != "Price" {
		t.Fatalf("features: %v", got.Features)
	}
}

func TestSet_Invalid(t *testing.T) {
	c := &Global{}
	for k, v := range map[string]string{
		"k":          "0",
		"eps":        "-1",
		"strategy":   "spectral",
		"log_format": "xml",
		"nope":       "1",
	} {
		if err := Set(c, k, v); err == nil {
			t.Fatalf("expected error for %s=%s", k, v)
		}
	}
}
