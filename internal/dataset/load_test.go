package dataset

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

type fakeRemote struct {
	objects map[string]string
	opened  []string
}

func (f *fakeRemote) Open(_ context.Context, uri string) (io.ReadCloser, error) {
	f.opened = append(f.opened, uri)
	body, ok := f.objects[uri]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func TestReadDelimited_SniffAndRagged(t *testing.T) {
	in := "Ticket_Quantity|Ticket_Price|Total\n1|100|100\n2|150\n3|90|270|extra\n"
	tbl, err := ReadDelimited(strings.NewReader(in), "t.txt", LoadOptions{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := strings.Join(tbl.Columns(), ","); got != "Ticket_Quantity,Ticket_Price,Total" {
		t.Fatalf("header: %s", got)
	}
	if tbl.Len() != 3 {
		t.Fatalf("rows: %d", tbl.Len())
	}
	if tbl.Cell(1, "Total") != "" {
		t.Fatalf("short row should be padded, got %q", tbl.Cell(1, "Total"))
	}
	if len(tbl.Row(2)) != 3 {
		t.Fatalf("long row should be truncated: %v", tbl.Row(2))
	}
	if tbl.Line(2) != 4 {
		t.Fatalf("line: %d", tbl.Line(2))
	}
}

func TestReadDelimited_Latin1AndBOM(t *testing.T) {
	latin := []byte("City,Total\nS\xe3o Paulo,10\n")
	tbl, err := ReadDelimited(bytes.NewReader(latin), "l.csv", LoadOptions{Encoding: "latin1"})
	if err != nil {
		t.Fatalf("read latin1: %v", err)
	}
	if got := tbl.Cell(0, "City"); got != "São Paulo" {
		t.Fatalf("decoded city: %q", got)
	}

	bom := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Quantity,Price\n1,2\n")...)
	tbl, err = ReadDelimited(bytes.NewReader(bom), "b.csv", LoadOptions{})
	if err != nil {
		t.Fatalf("read bom: %v", err)
	}
	if !tbl.Has("Quantity") {
		t.Fatalf("BOM not stripped: %v", tbl.Columns())
	}

	if _, err := ReadDelimited(strings.NewReader("a\n1\n"), "x.csv", LoadOptions{Encoding: "ebcdic"}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestReadDelimited_HeaderErrors(t *testing.T) {
	_, err := ReadDelimited(strings.NewReader("A,A\n1,2\n"), "d.csv", LoadOptions{})
	if !errors.Is(err, ErrDuplicateHeader) {
		t.Fatalf("expected ErrDuplicateHeader, got %v", err)
	}
	_, err = ReadDelimited(strings.NewReader(""), "e.csv", LoadOptions{})
	if !errors.Is(err, ErrEmptyDataset) {
		t.Fatalf("expected ErrEmptyDataset, got %v", err)
	}
	tbl, err := ReadDelimited(strings.NewReader("A,,C\n1,2,3\n"), "b.csv", LoadOptions{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !tbl.Has("column_2") {
		t.Fatalf("blank header not named: %v", tbl.Columns())
	}
}

func TestLoad_Remote(t *testing.T) {
	rem := &fakeRemote{objects: map[string]string{"gs://bucket/in/sales.csv": "Quantity,Price\n1,2\n3,4\n"}}
	tbl, err := Load(context.Background(), "gs://bucket/in/sales.csv", LoadOptions{Remote: rem})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tbl.Len() != 2 || tbl.Name != "sales.csv" {
		t.Fatalf("unexpected table %s rows=%d", tbl.Name, tbl.Len())
	}
	if _, err := Load(context.Background(), "gs://bucket/x.csv", LoadOptions{}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat without remote, got %v", err)
	}
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	p := filepath.Join(t.TempDir(), "notes.docx")
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(context.Background(), p, LoadOptions{}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoad_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	rows := [][]interface{}{
		{"Quantity", "Price", "Payment_Method", "Date"},
		{2, 10.5, "Cash", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{3, 7, "Card", time.Date(2024, 3, 16, 9, 30, 0, 0, time.UTC)},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	p := filepath.Join(t.TempDir(), "ledger.xlsx")
	if err := f.SaveAs(p); err != nil {
		t.Fatalf("save: %v", err)
	}
	tbl, err := Load(context.Background(), p, LoadOptions{})
	if err != nil {
		t.Fatalf("load xlsx: %v", err)
	}
	if tbl.Len() != 2 || tbl.Cell(1, "Payment_Method") != "Card" {
		t.Fatalf("unexpected xlsx table: %v", tbl.Records())
	}
	if got := tbl.Cell(0, "Date"); got != "2024-03-15" {
		t.Fatalf("date cell read as %q", got)
	}
	if got := tbl.Cell(1, "Date"); got != "2024-03-16T09:30:00Z" {
		t.Fatalf("datetime cell read as %q", got)
	}
	if v, ok := ParseNumber(tbl.Cell(0, "Price"), NumberFormat{}); !ok || v != 10.5 {
		t.Fatalf("price: %q", tbl.Cell(0, "Price"))
	}
	if _, err := Load(context.Background(), p, LoadOptions{Sheet: "Nope"}); err == nil || !strings.Contains(err.Error(), "Sheet1") {
		t.Fatalf("expected sheet error listing Sheet1, got %v", err)
	}
}

func TestTable_WithIntColumnAndWriteCSV(t *testing.T) {
	tbl, err := NewTable("t", []string{"A", "B"}, [][]string{{"1", "x"}, {"2", "y"}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	out, err := tbl.WithIntColumn("Cluster", []int{0, -1})
	if err != nil {
		t.Fatalf("with column: %v", err)
	}
	if tbl.Has("Cluster") {
		t.Fatalf("original table mutated")
	}
	var buf bytes.Buffer
	if err := out.WriteCSV(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "A,B,Cluster\n1,x,0\n2,y,-1\n"
	if buf.String() != want {
		t.Fatalf("csv:\n%s\nwant:\n%s", buf.String(), want)
	}
	if _, err := tbl.WithIntColumn("Cluster", []int{1}); err == nil {
		t.Fatalf("expected length mismatch error")
	}
}

func TestParseDelimiter(t *testing.T) {
	for in, want := range map[string]rune{"": 0, "tab": '\t', ";": ';', ",": ',', "|": '|'} {
		got, err := ParseDelimiter(in)
		if err != nil || got != want {
			t.Fatalf("ParseDelimiter(%q)=%q,%v", in, got, err)
		}
	}
	if _, err := ParseDelimiter("::"); err == nil {
		t.Fatalf("expected error")
	}
}
