package cmd

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KaramelBytes/salescluster-cli/internal/cluster"
)

// resetFlags clears values and Changed state left over from a previous invocation.
func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(fl *pflag.Flag) {
		_ = fl.Value.Set(fl.DefValue)
		fl.Changed = false
	})
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// runCLI is a helper to execute the root command with args.
func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v\n%s", args, err, out)
	}
	return out
}

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

// writeSales writes 30 ledger rows in three spending profiles, one duplicate and
// one row with an impossible date.
func writeSales(t *testing.T, dir string) string {
	t.Helper()
	profiles := []struct {
		q      int
		p      float64
		method string
	}{{1, 20, "Cash"}, {12, 15, "Card"}, {3, 400, "Transfer"}}
	lines := []string{"Date,Quantity,Price,Total,Payment_Method"}
	for i := 0; i < 30; i++ {
		pr := profiles[i%3]
		q := pr.q + (i/3)%2
		p := pr.p + float64((i/3)%4)*0.25
		lines = append(lines, fmt.Sprintf("2024-03-%02d,%d,%.2f,%.2f,%s", i%28+1, q, p, float64(q)*p, pr.method))
	}
	lines = append(lines, lines[1], "2024-13-45,1,20.00,20.00,Cash")
	path := filepath.Join(dir, "sales.csv")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write sales: %v", err)
	}
	return path
}

func TestCLI_RunWritesOutputsAndPredicts(t *testing.T) {
	home := isolateHome(t)
	src := writeSales(t, home)
	outCSV := filepath.Join(home, "labelled.csv")
	model := filepath.Join(home, "model.yaml")
	book := filepath.Join(home, "clusters.xlsx")
	db := filepath.Join(home, "runs.db")
	html := filepath.Join(home, "chart.html")
	report := filepath.Join(home, "report.md")

	out := runCLI(t, "run", src, "--preset", "shop-ledger",
		"-o", outCSV, "--model-out", model, "--xlsx", book, "--sqlite", db,
		"--chart", html, "--report", report)
	for _, want := range []string{"[RUN]", "[CLEANING]", "- duplicate: 1", "- unparsable_date: 1", "[CLUSTER COUNTS]", "[CLUSTER MEANS]", "[METRICS]"} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
	for _, p := range []string{outCSV, model, book, db, html, report} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s: %v", p, err)
		}
	}

	f, err := os.Open(outCSV)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(recs) != 31 {
		t.Fatalf("want header + 30 rows, got %d", len(recs))
	}
	header := strings.Join(recs[0], ",")
	if !strings.Contains(header, "Cluster") || !strings.Contains(header, "Payment_Method_code") {
		t.Fatalf("header: %s", header)
	}
	col := map[string]int{}
	for i, h := range recs[0] {
		col[h] = i
	}

	row := recs[1]
	got := strings.TrimSpace(runCLI(t, "predict", "--model", model,
		"Quantity="+row[col["Quantity"]], "Price="+row[col["Price"]],
		"Total="+row[col["Total"]], "Payment_Method= "+row[col["Payment_Method"]]+" "))
	if got != row[col["Cluster"]] {
		t.Fatalf("predict %s, table says %s", got, row[col["Cluster"]])
	}
}

func TestCLI_DBSCANModelCannotPredict(t *testing.T) {
	home := isolateHome(t)
	src := writeSales(t, home)
	model := filepath.Join(home, "density.yaml")
	runCLI(t, "run", src, "--features", "Quantity,Price,Total", "--date-columns", "Date",
		"--strategy", "dbscan", "--eps", "0.8", "--min-samples", "3", "--model-out", model, "-q")

	_, err := execute(t, "predict", "--model", model, "Quantity=1", "Price=20", "Total=20")
	if !errors.Is(err, cluster.ErrPredictUnsupported) {
		t.Fatalf("want ErrPredictUnsupported, got %v", err)
	}
}

func TestCLI_InspectReportsDrops(t *testing.T) {
	home := isolateHome(t)
	src := writeSales(t, home)
	cleaned := filepath.Join(home, "clean.csv")
	out := runCLI(t, "inspect", src, "--preset", "shop-ledger", "-o", cleaned)
	if !strings.Contains(out, "Rows: 32 in, 30 kept, 2 dropped") || !strings.Contains(out, "[SCHEMA]") || !strings.Contains(out, "- Payment_Method: categorical") {
		t.Fatalf("inspect output:\n%s", out)
	}
	if _, err := os.Stat(cleaned); err != nil {
		t.Fatalf("cleaned csv: %v", err)
	}
}

func TestCLI_MissingColumnHint(t *testing.T) {
	home := isolateHome(t)
	src := writeSales(t, home)
	_, err := execute(t, "run", src, "--features", "Quantity,Discount", "-q")
	if err == nil || !strings.Contains(err.Error(), "column not found") || !strings.Contains(err.Error(), "Discount") {
		t.Fatalf("want missing column hint, got %v", err)
	}
}

func TestCLI_InvalidParameter(t *testing.T) {
	home := isolateHome(t)
	src := writeSales(t, home)
	_, err := execute(t, "run", src, "--features", "Quantity,Price", "-k", "0", "-q")
	var pe *cluster.ParameterError
	if !errors.As(err, &pe) || pe.Param != "k" {
		t.Fatalf("want k parameter error, got %v", err)
	}
}

func TestCLI_Sweep(t *testing.T) {
	home := isolateHome(t)
	src := writeSales(t, home)
	out := runCLI(t, "sweep", src, "--preset", "shop-ledger", "--k-min", "2", "--k-max", "4")
	if !strings.Contains(out, "[K SWEEP]") || !strings.Contains(out, "| 4 |") {
		t.Fatalf("sweep output:\n%s", out)
	}
}

func TestCLI_ConfigSetShowAndDefaults(t *testing.T) {
	home := isolateHome(t)
	runCLI(t, "config", "set", "k", "4")
	runCLI(t, "config", "set", "features", "Quantity,Price")
	if _, err := os.Stat(filepath.Join(home, ".salescluster", "config.yaml")); err != nil {
		t.Fatalf("config not saved: %v", err)
	}
	out := runCLI(t, "config", "show")
	if !strings.Contains(out, "k: 4") || !strings.Contains(out, "- Quantity") {
		t.Fatalf("config show:\n%s", out)
	}

	// features now come from the config file
	src := writeSales(t, home)
	out = runCLI(t, "run", src)
	if !strings.Contains(out, "kmeans k=4") || !strings.Contains(out, "Features: Quantity, Price") {
		t.Fatalf("run with config defaults:\n%s", out)
	}
}

func TestCLI_Presets(t *testing.T) {
	isolateHome(t)
	out := runCLI(t, "presets")
	for _, n := range []string{"airline-tickets", "shop-ledger", "shop-cashflow"} {
		if !strings.Contains(out, n) {
			t.Fatalf("presets list missing %s:\n%s", n, out)
		}
	}
	out = runCLI(t, "presets", "airline-tickets")
	if !strings.Contains(out, "strategy: dbscan") || !strings.Contains(out, "Ticket_Price") {
		t.Fatalf("preset detail:\n%s", out)
	}
	if _, err := execute(t, "presets", "nope"); err == nil {
		t.Fatalf("unknown preset should fail")
	}
}
