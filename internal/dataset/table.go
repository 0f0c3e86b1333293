package dataset

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Table is a loaded or cleaned record set. Rows are identified only by position.
// The underlying frame holds every column as text.
type Table struct {
	Name string
	// Dates holds parsed values for date columns after cleaning.
	Dates map[string][]time.Time

	frame  dataframe.DataFrame
	header []string
	rows   [][]string
	lines  []int
}

// NewTable builds a Table from a header and data rows. lines holds the 1-based source
// line for each row and may be nil.
func NewTable(name string, header []string, rows [][]string, lines []int) (*Table, error) {
	if len(rows) == 0 {
		return nil, &InputError{Op: "load " + name, Err: ErrEmptyDataset}
	}
	seen := make(map[string]struct{}, len(header))
	for _, h := range header {
		if _, dup := seen[h]; dup {
			return nil, &InputError{Op: "load " + name, Column: h, Err: ErrDuplicateHeader}
		}
		seen[h] = struct{}{}
	}
	records := make([][]string, 0, len(rows)+1)
	records = append(records, header)
	records = append(records, rows...)
	df := dataframe.LoadRecords(records, dataframe.DetectTypes(false), dataframe.HasHeader(true))
	if df.Err != nil {
		return nil, fmt.Errorf("build frame: %w", df.Err)
	}
	if lines == nil {
		lines = make([]int, len(rows))
		for i := range lines {
			lines[i] = i + 2
		}
	}
	return &Table{
		Name:   name,
		Dates:  map[string][]time.Time{},
		frame:  df,
		header: append([]string(nil), header...),
		rows:   rows,
		lines:  lines,
	}, nil
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.rows) }

// Columns returns the header in file order.
func (t *Table) Columns() []string { return append([]string(nil), t.header...) }

// Has reports whether the named column exists.
func (t *Table) Has(name string) bool { return t.index(name) >= 0 }

func (t *Table) index(name string) int {
	for i, h := range t.header {
		if h == name {
			return i
		}
	}
	return -1
}

// Require checks that every named column exists.
func (t *Table) Require(names ...string) error {
	for _, n := range names {
		if !t.Has(n) {
			return &InputError{Op: "select columns", Column: n, Available: t.Columns(), Err: ErrMissingColumn}
		}
	}
	return nil
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []string { return append([]string(nil), t.rows[i]...) }

// Line returns the source line of row i.
func (t *Table) Line(i int) int { return t.lines[i] }

// Cell returns the value of column name in row i.
func (t *Table) Cell(i int, name string) string {
	j := t.index(name)
	if j < 0 {
		return ""
	}
	return t.rows[i][j]
}

// Column returns the text values of one column.
func (t *Table) Column(name string) ([]string, error) {
	if err := t.Require(name); err != nil {
		return nil, err
	}
	return t.frame.Col(name).Records(), nil
}

// Floats returns a numeric column of a cleaned table.
func (t *Table) Floats(name string) ([]float64, error) {
	vals, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(vals))
	for i, v := range vals {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("column %q line %d: parse %q: %w", name, t.lines[i], v, err)
		}
		out[i] = f
	}
	return out, nil
}

// Frame exposes the underlying data frame.
func (t *Table) Frame() dataframe.DataFrame { return t.frame }

// WithIntColumn returns a new table with an integer column appended or replaced.
func (t *Table) WithIntColumn(name string, vals []int) (*Table, error) {
	if len(vals) != t.Len() {
		return nil, fmt.Errorf("column %q: got %d values for %d rows", name, len(vals), t.Len())
	}
	df := t.frame.Mutate(series.New(vals, series.Int, name))
	if df.Err != nil {
		return nil, fmt.Errorf("add column %q: %w", name, df.Err)
	}
	out := &Table{
		Name:  t.Name,
		Dates: t.Dates,
		frame: df,
		lines: t.lines,
	}
	out.header = df.Names()
	j := -1
	for i, h := range out.header {
		if h == name {
			j = i
		}
	}
	out.rows = make([][]string, len(t.rows))
	for i, r := range t.rows {
		row := make([]string, len(out.header))
		copy(row, r)
		row[j] = strconv.Itoa(vals[i])
		out.rows[i] = row
	}
	return out, nil
}

// WriteCSV writes the header and rows as comma-separated text.
func (t *Table) WriteCSV(w io.Writer) error {
	if err := t.frame.WriteCSV(w); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// Records returns the header followed by every row.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.rows)+1)
	out = append(out, t.Columns())
	for _, r := range t.rows {
		out = append(out, append([]string(nil), r...))
	}
	return out
}
