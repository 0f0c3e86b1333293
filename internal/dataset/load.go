package dataset

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tealeg/xlsx"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// RemoteOpener opens objects addressed by a URI such as gs://bucket/object.
type RemoteOpener interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

// LoadOptions controls how a source file is read.
type LoadOptions struct {
	// Delimiter for delimited text. If 0, sniffed from the header line.
	Delimiter rune
	// Encoding is utf-8 (default), latin1 or windows-1252.
	Encoding string
	// Sheet selects an XLSX worksheet by name; the first sheet when empty.
	Sheet string
	// Remote serves gs:// sources.
	Remote RemoteOpener
	Logger zerolog.Logger
}

// IsRemote reports whether src names an object store URI.
func IsRemote(src string) bool { return strings.HasPrefix(src, "gs://") }

// Load reads a local or remote source into a Table.
func Load(ctx context.Context, src string, opt LoadOptions) (*Table, error) {
	var (
		rc  io.ReadCloser
		err error
	)
	if IsRemote(src) {
		if opt.Remote == nil {
			return nil, &InputError{Op: "open " + src, Err: fmt.Errorf("%w: no object store configured", ErrUnsupportedFormat)}
		}
		rc, err = opt.Remote.Open(ctx, src)
	} else {
		rc, err = os.Open(src)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", src, err)
	}
	defer rc.Close()

	name := path.Base(src)
	switch strings.ToLower(path.Ext(src)) {
	case ".csv", ".tsv", ".txt", "":
		return ReadDelimited(rc, name, opt)
	case ".xlsx":
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", src, err)
		}
		return ReadXLSX(data, name, opt)
	default:
		return nil, &InputError{Op: "open " + src, Err: ErrUnsupportedFormat}
	}
}

func decoderFor(enc string) (transform.Transformer, error) {
	switch strings.ToLower(strings.TrimSpace(enc)) {
	case "", "utf-8", "utf8":
		return unicode.BOMOverride(unicode.UTF8.NewDecoder()), nil
	case "latin1", "latin-1", "iso-8859-1":
		return charmap.ISO8859_1.NewDecoder(), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder(), nil
	}
	return nil, fmt.Errorf("%w: encoding %q", ErrUnsupportedFormat, enc)
}

// ReadDelimited parses delimited text with a header row.
func ReadDelimited(r io.Reader, name string, opt LoadOptions) (*Table, error) {
	dec, err := decoderFor(opt.Encoding)
	if err != nil {
		return nil, &InputError{Op: "load " + name, Err: err}
	}
	br := bufio.NewReader(transform.NewReader(r, dec))
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(br, name)
	}
	cr := csv.NewReader(br)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &InputError{Op: "load " + name, Err: ErrEmptyDataset}
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	header = normalizeHeader(header)

	var (
		rows   [][]string
		lines  []int
		ragged int
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		line, _ := cr.FieldPos(0)
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" && len(header) > 1 {
			continue
		}
		row, fixed := fitRow(rec, len(header))
		if fixed {
			ragged++
		}
		rows = append(rows, row)
		lines = append(lines, line)
	}
	if ragged > 0 {
		opt.Logger.Warn().Str("source", name).Int("rows", ragged).Msg("ragged rows padded or truncated to header width")
	}
	return NewTable(name, header, rows, lines)
}

// ReadXLSX parses one worksheet of an XLSX workbook. The first non-empty row is the header.
func ReadXLSX(data []byte, name string, opt LoadOptions) (*Table, error) {
	wb, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	if len(wb.Sheets) == 0 {
		return nil, &InputError{Op: "load " + name, Err: ErrEmptyDataset}
	}
	sheet := wb.Sheets[0]
	if opt.Sheet != "" {
		s, ok := wb.Sheet[opt.Sheet]
		if !ok {
			avail := make([]string, 0, len(wb.Sheets))
			for _, s := range wb.Sheets {
				avail = append(avail, s.Name)
			}
			return nil, &InputError{Op: "load " + name, Column: opt.Sheet, Available: avail, Err: fmt.Errorf("%w: sheet not found", ErrUnsupportedFormat)}
		}
		sheet = s
	}

	var (
		header []string
		rows   [][]string
		lines  []int
	)
	for i, r := range sheet.Rows {
		if r == nil {
			continue
		}
		vals := make([]string, len(r.Cells))
		blank := true
		for j, c := range r.Cells {
			if c == nil {
				continue
			}
			vals[j] = strings.TrimSpace(c.Value)
			if c.IsTime() && vals[j] != "" {
				if tm, err := c.GetTime(wb.Date1904); err == nil {
					vals[j] = FormatDate(tm.Round(time.Second))
				}
			}
			if vals[j] != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		if header == nil {
			header = normalizeHeader(vals)
			continue
		}
		row, _ := fitRow(vals, len(header))
		rows = append(rows, row)
		lines = append(lines, i+1)
	}
	if header == nil {
		return nil, &InputError{Op: "load " + name, Err: ErrEmptyDataset}
	}
	return NewTable(name+":"+sheet.Name, header, rows, lines)
}

func normalizeHeader(h []string) []string {
	out := make([]string, len(h))
	for i, v := range h {
		v = strings.TrimSpace(v)
		if v == "" {
			v = fmt.Sprintf("column_%d", i+1)
		}
		out[i] = v
	}
	return out
}

func fitRow(rec []string, width int) ([]string, bool) {
	row := make([]string, width)
	for i := 0; i < width && i < len(rec); i++ {
		row[i] = strings.TrimSpace(rec[i])
	}
	return row, len(rec) != width
}

// sniffDelimiter picks the most frequent of , ; tab | in the header line.
func sniffDelimiter(br *bufio.Reader, name string) rune {
	if strings.HasSuffix(strings.ToLower(name), ".tsv") {
		return '\t'
	}
	peek, _ := br.Peek(4096)
	if i := bytes.IndexByte(peek, '\n'); i >= 0 {
		peek = peek[:i]
	}
	best, bestN := ',', 0
	for _, d := range []rune{',', ';', '\t', '|'} {
		if n := strings.Count(string(peek), string(d)); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}

// ParseDelimiter maps a flag value to a delimiter rune. Empty means sniff.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case "tab", `\t`, "\t":
		return '\t', nil
	case ",", ";", "|":
		return rune(s[0]), nil
	}
	return 0, fmt.Errorf("unsupported delimiter %q (use , ; | or tab)", s)
}
