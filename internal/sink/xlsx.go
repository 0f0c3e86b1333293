// Package sink persists run results: XLSX workbooks, a SQLite history and BigQuery.
package sink

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/salescluster-cli/internal/pipeline"
)

// Sheet names in the XLSX workbook.
const (
	SheetClusters = "clusters"
	SheetCounts   = "counts"
	SheetMeans    = "means"
)

// WriteXLSX writes the augmented rows, label counts and label means as three sheets.
func WriteXLSX(w io.Writer, res *pipeline.Result) error {
	aug, err := res.Augmented()
	if err != nil {
		return err
	}
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", SheetClusters); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeRows(f, SheetClusters, toCells(aug.Records())); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetCounts); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	counts := [][]interface{}{{"cluster", "rows"}}
	for _, r := range res.Summary.Rows {
		counts = append(counts, []interface{}{r.Label, r.Count})
	}
	if err := writeRows(f, SheetCounts, counts); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetMeans); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	head := []interface{}{"cluster"}
	for _, c := range res.Summary.Columns {
		head = append(head, c)
	}
	means := [][]interface{}{head}
	for _, r := range res.Summary.Rows {
		row := []interface{}{r.Label}
		for _, m := range r.Means {
			row = append(row, m)
		}
		means = append(means, row)
	}
	if err := writeRows(f, SheetMeans, means); err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func toCells(records [][]string) [][]interface{} {
	out := make([][]interface{}, len(records))
	for i, r := range records {
		row := make([]interface{}, len(r))
		for j, v := range r {
			row[j] = v
		}
		out[i] = row
	}
	return out
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
