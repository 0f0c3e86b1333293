package dataset

import (
	"math"
	"testing"
	"time"
)

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		nf   NumberFormat
		want float64
		ok   bool
	}{
		{"12.5", NumberFormat{}, 12.5, true},
		{"0,5", NumberFormat{}, 0.5, true},
		{"12,75", NumberFormat{}, 12.75, true},
		{"1,500", NumberFormat{}, 1500, true},
		{"1,500,000", NumberFormat{}, 1500000, true},
		{"1.500.000", NumberFormat{}, 1500000, true},
		{"1.234,56", NumberFormat{}, 1234.56, true},
		{"1,234.56", NumberFormat{}, 1234.56, true},
		{"Rp 25.000", NumberFormat{Decimal: ',', Thousands: '.'}, 25000, true},
		{"$ 1,200.50", NumberFormat{}, 1200.5, true},
		{"15%", NumberFormat{}, 15, true},
		{"(42)", NumberFormat{}, -42, true},
		{"-3", NumberFormat{}, -3, true},
		{"abc", NumberFormat{}, 0, false},
		{"", NumberFormat{}, 0, false},
		{"Rp", NumberFormat{}, 0, false},
		{"750.000", NumberFormat{Thousands: '.'}, 750000, true},
		{"1.500", NumberFormat{Thousands: '.'}, 1500, true},
		{"1.500,25", NumberFormat{Thousands: '.'}, 1500.25, true},
		{"1,500.5", NumberFormat{Thousands: ','}, 1500.5, true},
		{"1 250,5", NumberFormat{Thousands: ' '}, 1250.5, true},
	}
	for _, c := range cases {
		got, ok := ParseNumber(c.in, c.nf)
		if ok != c.ok {
			t.Fatalf("ParseNumber(%q) ok=%v want %v", c.in, ok, c.ok)
		}
		if ok && math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("ParseNumber(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in      string
		layouts []string
		want    string
		ok      bool
	}{
		{"2023-03-15", nil, "2023-03-15", true},
		{"2023/03/15", nil, "2023-03-15", true},
		{"15/03/2023", nil, "2023-03-15", true},
		{"2023-03-15 10:30", nil, "2023-03-15T10:30:00Z", true},
		{"03.15.2023", []string{"01.02.2006"}, "2023-03-15", true},
		{"45000", nil, "", false},
		{"13", nil, "", false},
		{"2024", nil, "", false},
		{"not-a-date", nil, "", false},
		{"", nil, "", false},
	}
	for _, c := range cases {
		got, ok := ParseDate(c.in, c.layouts)
		if ok != c.ok {
			t.Fatalf("ParseDate(%q) ok=%v want %v", c.in, ok, c.ok)
		}
		if ok && FormatDate(got) != c.want {
			t.Fatalf("ParseDate(%q)=%s want %s", c.in, FormatDate(got), c.want)
		}
	}
}

func TestIsMissing(t *testing.T) {
	for _, v := range []string{"", "  ", "NA", "n/a", "NaN", "null", "NULL", "None", "-"} {
		if !IsMissing(v) {
			t.Fatalf("expected %q to be missing", v)
		}
	}
	for _, v := range []string{"0", "x", "none at all"} {
		if IsMissing(v) {
			t.Fatalf("expected %q to be present", v)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	if got := FormatNumber(1500000); got != "1500000" {
		t.Fatalf("FormatNumber: %s", got)
	}
	if got := FormatNumber(0.25); got != "0.25" {
		t.Fatalf("FormatNumber: %s", got)
	}
	if got := FormatDate(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)); got != "2024-01-02" {
		t.Fatalf("FormatDate: %s", got)
	}
}
