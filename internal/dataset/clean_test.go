package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCSV(t *testing.T, lines []string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "sales.csv")
	if err := os.WriteFile(p, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return p
}

func TestClean_DuplicatesAndBadDates(t *testing.T) {
	lines := []string{"Date,Quantity,Price,Total"}
	for i := 0; i < 10; i++ {
		lines = append(lines, fmt.Sprintf("2024-01-%02d,%d,%d.5,%d", i+1, i+1, 10+i, (i+1)*(10+i)))
	}
	for i := 0; i < 5; i++ {
		lines = append(lines, "2024-01-01,1,10.5,10")
	}
	for i := 0; i < 3; i++ {
		lines = append(lines, fmt.Sprintf("someday-%d,2,3,6", i))
	}
	p := writeCSV(t, lines)

	tbl, err := Load(context.Background(), p, LoadOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tbl.Len() != 18 {
		t.Fatalf("loaded rows: %d", tbl.Len())
	}
	out, rep, err := Clean(tbl, CleanOptions{
		Numeric: []string{"Quantity", "Price", "Total"},
		Dates:   []string{"Date"},
	})
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	if tbl.Len()-out.Len() != 8 {
		t.Fatalf("expected 8 rows dropped, got %d", tbl.Len()-out.Len())
	}
	counts := rep.Counts()
	if counts[ReasonDuplicate] != 5 || counts[ReasonDate] != 3 {
		t.Fatalf("unexpected counts: %v", counts)
	}
	for _, c := range []string{"Date", "Quantity", "Price", "Total"} {
		vals, err := out.Column(c)
		if err != nil {
			t.Fatalf("column %s: %v", c, err)
		}
		for _, v := range vals {
			if IsMissing(v) {
				t.Fatalf("missing value left in %s", c)
			}
		}
	}
	if len(out.Dates["Date"]) != out.Len() {
		t.Fatalf("parsed dates: %d for %d rows", len(out.Dates["Date"]), out.Len())
	}
	// input table is untouched
	if tbl.Len() != 18 {
		t.Fatalf("input mutated")
	}
	md := rep.Markdown()
	for _, want := range []string{"[CLEANING]", "duplicate: 5", "unparsable_date: 3", "someday-0"} {
		if !strings.Contains(md, want) {
			t.Fatalf("report missing %q:\n%s", want, md)
		}
	}
}

func TestClean_OverlapCountsOnce(t *testing.T) {
	p := writeCSV(t, []string{
		"Date,Quantity",
		"2024-01-01,1",
		"bad,2",
		"bad,2",
		"2024-01-02,",
		"2024-01-03,x",
	})
	tbl, err := Load(context.Background(), p, LoadOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	out, rep, err := Clean(tbl, CleanOptions{Numeric: []string{"Quantity"}, Dates: []string{"Date"}})
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	if out.Len() != 1 || len(rep.Dropped) != 4 {
		t.Fatalf("kept %d dropped %d", out.Len(), len(rep.Dropped))
	}
	c := rep.Counts()
	if c[ReasonDate] != 2 || c[ReasonMissing] != 1 || c[ReasonNumber] != 1 || c[ReasonDuplicate] != 0 {
		t.Fatalf("counts: %v", c)
	}
	if rep.Dropped[0].Line != 3 {
		t.Fatalf("line numbers: %+v", rep.Dropped[0])
	}
}

func TestClean_NormalizesValues(t *testing.T) {
	p := writeCSV(t, []string{
		"Date;Total;City",
		"15/03/2024;1.500.000;Jakarta",
		"16/03/2024;2.250.000;Bandung",
	})
	tbl, err := Load(context.Background(), p, LoadOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	out, _, err := Clean(tbl, CleanOptions{Numeric: []string{"Total"}, Dates: []string{"Date"}, Required: []string{"City"}})
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	vals, _ := out.Floats("Total")
	if vals[0] != 1500000 || vals[1] != 2250000 {
		t.Fatalf("totals: %v", vals)
	}
	if got := out.Cell(0, "Date"); got != "2024-03-15" {
		t.Fatalf("date: %s", got)
	}
}

func TestClean_NumericDateCellsAreDropped(t *testing.T) {
	tbl, err := NewTable("sales.csv", []string{"Date", "Total"}, [][]string{
		{"2024-03-01", "10"},
		{"13", "20"},
		{"2024", "30"},
	}, nil)
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	out, rep, err := Clean(tbl, CleanOptions{Numeric: []string{"Total"}, Dates: []string{"Date"}})
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	if out.Len() != 1 || out.Cell(0, "Date") != "2024-03-01" {
		t.Fatalf("kept rows: %v", out.Records())
	}
	if got := rep.Counts()[ReasonDate]; got != 2 {
		t.Fatalf("unparsable_date drops = %d, want 2: %+v", got, rep.Dropped)
	}
	if rep.Dropped[0].Line != 3 || rep.Dropped[0].Value != "13" {
		t.Fatalf("first drop: %+v", rep.Dropped[0])
	}
}

func TestClean_ExplicitThousandsSeparator(t *testing.T) {
	tbl, err := NewTable("ledger.csv", []string{"Total"}, [][]string{{"750.000"}, {"1.500.000"}, {"Rp 25.000"}}, nil)
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	out, _, err := Clean(tbl, CleanOptions{Numeric: []string{"Total"}, Number: NumberFormat{Thousands: '.'}})
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	vals, _ := out.Floats("Total")
	if len(vals) != 3 || vals[0] != 750000 || vals[1] != 1500000 || vals[2] != 25000 {
		t.Fatalf("totals: %v", vals)
	}
}

func TestClean_MissingColumn(t *testing.T) {
	p := writeCSV(t, []string{"A,B", "1,2"})
	tbl, err := Load(context.Background(), p, LoadOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	_, _, err = Clean(tbl, CleanOptions{Numeric: []string{"Total"}})
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
	var ie *InputError
	if !errors.As(err, &ie) || ie.Column != "Total" || !strings.Contains(err.Error(), "available: A, B") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClean_EmptyResult(t *testing.T) {
	p := writeCSV(t, []string{"A", "NA", "null"})
	tbl, err := Load(context.Background(), p, LoadOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	_, rep, err := Clean(tbl, CleanOptions{Numeric: []string{"A"}})
	if !errors.Is(err, ErrEmptyDataset) {
		t.Fatalf("expected ErrEmptyDataset, got %v", err)
	}
	if rep == nil || len(rep.Dropped) != 2 {
		t.Fatalf("report should account for drops: %+v", rep)
	}
}
