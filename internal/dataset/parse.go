package dataset

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// NumberFormat describes locale separators for numeric cells.
// A zero separator means auto-detect per value.
type NumberFormat struct {
	Decimal   rune `yaml:"decimal,omitempty"`
	Thousands rune `yaml:"thousands,omitempty"`
}

// DefaultDateLayouts are tried after any caller-supplied layouts.
var DefaultDateLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006", "02-01-2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	"02/01/2006 15:04", "2 Jan 2006", "Jan 2, 2006",
}

var missingTokens = map[string]struct{}{
	"na": {}, "n/a": {}, "nan": {}, "null": {}, "none": {}, "-": {}, "<nil>": {},
}

var currencyTokens = []string{"IDR", "Rp.", "Rp", "USD", "EUR", "$", "€", "£", "¥"}

// IsMissing reports whether a raw cell counts as a missing value.
func IsMissing(s string) bool {
	v := strings.TrimSpace(s)
	if v == "" {
		return true
	}
	_, ok := missingTokens[strings.ToLower(v)]
	return ok
}

// ParseNumber parses a numeric cell, tolerating currency symbols, percent signs and
// locale separators.
func ParseNumber(s string, nf NumberFormat) (float64, bool) {
	raw := strings.TrimSpace(s)
	for _, c := range currencyTokens {
		raw = strings.ReplaceAll(raw, c, "")
	}
	raw = strings.ReplaceAll(raw, "%", "")
	raw = strings.ReplaceAll(raw, " ", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	// (1.234) accounting negatives
	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		raw = "-" + strings.TrimSpace(raw[1:len(raw)-1])
	}

	dec, thou := nf.Decimal, nf.Thousands
	switch {
	case dec == 0 && thou != 0:
		// an explicit grouping separator fixes the decimal mark
		dec = '.'
		if thou == '.' {
			dec = ','
		}
	case dec == 0:
		dec, thou = detectSeparators(raw, thou)
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' ', '\''} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, false
	}
	f, _ := d.Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func detectSeparators(raw string, thou rune) (rune, rune) {
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	switch {
	case cpos >= 0 && dpos >= 0:
		if cpos > dpos {
			return ',', '.'
		}
		return '.', ','
	case cpos >= 0:
		// 1,500,000 or 1,500 read as grouping; 0,5 and 12,75 as decimals
		if strings.Count(raw, ",") > 1 || (len(raw)-cpos-1 == 3 && !isZeroInt(raw[:cpos])) {
			return '.', ','
		}
		return ',', thou
	case dpos >= 0:
		// 1.500.000 (common in IDR ledgers) has several dots and must be grouping
		if strings.Count(raw, ".") > 1 {
			return ',', '.'
		}
		return '.', thou
	}
	return '.', thou
}

func isZeroInt(s string) bool {
	s = strings.TrimLeft(strings.TrimSpace(s), "+-")
	return strings.Trim(s, "0") == ""
}

// ParseDate tries the given layouts, then DefaultDateLayouts. Bare numbers are never
// dates; XLSX date cells are converted when the sheet is read.
func ParseDate(s string, layouts []string) (time.Time, bool) {
	v := strings.TrimSpace(s)
	if v == "" {
		return time.Time{}, false
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, v); err == nil {
			return t, true
		}
	}
	for _, l := range DefaultDateLayouts {
		if t, err := time.Parse(l, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders a parsed date as a calendar day, keeping the clock only when set.
func FormatDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}

// FormatNumber renders a parsed number in canonical form.
func FormatNumber(f float64) string {
	return decimal.NewFromFloat(f).String()
}
