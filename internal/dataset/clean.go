package dataset

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DropReason explains why a row was removed during cleaning.
type DropReason string

const (
	ReasonMissing   DropReason = "missing_value"
	ReasonNumber    DropReason = "unparsable_number"
	ReasonDate      DropReason = "unparsable_date"
	ReasonDuplicate DropReason = "duplicate"
)

const maxReportedDrops = 20

var reasonOrder = []DropReason{ReasonMissing, ReasonNumber, ReasonDate, ReasonDuplicate}

// CleanOptions selects the columns that must be present and parseable.
type CleanOptions struct {
	Numeric     []string
	Dates       []string
	Required    []string
	DateLayouts []string
	Number      NumberFormat
	Logger      zerolog.Logger
}

// DroppedRow records one removed row. Line is the source line, Column and Value the
// offending cell (empty for duplicates).
type DroppedRow struct {
	Line   int
	Reason DropReason
	Column string
	Value  string
}

// CleanReport accounts for every row removed by Clean.
type CleanReport struct {
	Source     string
	InputRows  int
	OutputRows int
	Dropped    []DroppedRow
}

// Counts returns the number of dropped rows per reason.
func (r *CleanReport) Counts() map[DropReason]int {
	m := map[DropReason]int{}
	for _, d := range r.Dropped {
		m[d.Reason]++
	}
	return m
}

// Clean removes rows with missing or unparsable values in the required columns and
// exact duplicates, keeping the first occurrence. Numeric cells are rewritten in
// canonical form and date cells as ISO dates. The input table is not modified.
func Clean(t *Table, opt CleanOptions) (*Table, *CleanReport, error) {
	required := unionColumns(opt.Numeric, opt.Dates, opt.Required)
	if err := t.Require(required...); err != nil {
		return nil, nil, err
	}
	rep := &CleanReport{Source: t.Name, InputRows: t.Len()}
	header := t.Columns()
	idx := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		return -1
	}

	var (
		rows  [][]string
		lines []int
		dates = make(map[string][]time.Time, len(opt.Dates))
		seen  = make(map[string]struct{}, t.Len())
	)
rowLoop:
	for i := 0; i < t.Len(); i++ {
		raw := t.rows[i]
		line := t.lines[i]
		drop := func(reason DropReason, col, val string) {
			rep.Dropped = append(rep.Dropped, DroppedRow{Line: line, Reason: reason, Column: col, Value: val})
		}
		for _, c := range required {
			if v := raw[idx(c)]; IsMissing(v) {
				drop(ReasonMissing, c, v)
				continue rowLoop
			}
		}
		row := append([]string(nil), raw...)
		for _, c := range opt.Numeric {
			j := idx(c)
			f, ok := ParseNumber(raw[j], opt.Number)
			if !ok {
				drop(ReasonNumber, c, raw[j])
				continue rowLoop
			}
			row[j] = FormatNumber(f)
		}
		parsed := make([]time.Time, len(opt.Dates))
		for k, c := range opt.Dates {
			j := idx(c)
			d, ok := ParseDate(raw[j], opt.DateLayouts)
			if !ok {
				drop(ReasonDate, c, raw[j])
				continue rowLoop
			}
			parsed[k] = d
			row[j] = FormatDate(d)
		}
		key := strings.Join(raw, "\x1f")
		if _, dup := seen[key]; dup {
			drop(ReasonDuplicate, "", "")
			continue
		}
		seen[key] = struct{}{}
		rows = append(rows, row)
		lines = append(lines, line)
		for k, c := range opt.Dates {
			dates[c] = append(dates[c], parsed[k])
		}
	}
	rep.OutputRows = len(rows)

	counts := rep.Counts()
	for _, r := range reasonOrder {
		if n := counts[r]; n > 0 {
			opt.Logger.Warn().Str("source", t.Name).Str("reason", string(r)).Int("rows", n).Msg("dropped rows during cleaning")
		}
	}
	if len(rows) == 0 {
		return nil, rep, &InputError{Op: "clean " + t.Name, Err: ErrEmptyDataset}
	}
	out, err := NewTable(t.Name, header, rows, lines)
	if err != nil {
		return nil, rep, err
	}
	out.Dates = dates
	opt.Logger.Debug().Str("source", t.Name).Int("in", rep.InputRows).Int("out", rep.OutputRows).Msg("cleaned")
	return out, rep, nil
}

func unionColumns(groups ...[]string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, g := range groups {
		for _, c := range g {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

// Markdown renders the cleaning outcome.
func (r *CleanReport) Markdown() string {
	var b strings.Builder
	b.WriteString("[CLEANING]\n")
	if r.Source != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Source))
	}
	b.WriteString(fmt.Sprintf("Rows: %d in, %d kept, %d dropped\n", r.InputRows, r.OutputRows, len(r.Dropped)))
	if len(r.Dropped) == 0 {
		return b.String()
	}
	counts := r.Counts()
	for _, reason := range reasonOrder {
		if n := counts[reason]; n > 0 {
			b.WriteString(fmt.Sprintf("- %s: %d\n", reason, n))
		}
	}
	b.WriteString("\n| line | reason | column | value |\n|---:|---|---|---|\n")
	drops := append([]DroppedRow(nil), r.Dropped...)
	sort.SliceStable(drops, func(i, j int) bool { return drops[i].Line < drops[j].Line })
	for i, d := range drops {
		if i == maxReportedDrops {
			b.WriteString(fmt.Sprintf("\n(%d more not shown)\n", len(drops)-maxReportedDrops))
			break
		}
		b.WriteString(fmt.Sprintf("| %d | %s | %s | %s |\n", d.Line, d.Reason, safeCell(d.Column), safeCell(d.Value)))
	}
	return b.String()
}

func safeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/")
}
