package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// CSVRenderer writes the flat row shapes: per-author weekday rows, then
// per-author totals rows (weekday "All"), then the cross-author day
// summary (author "All").
type CSVRenderer struct{}

// Format returns the renderer's format name.
func (r *CSVRenderer) Format() string { return FormatCSV }

var csvHeader = []string{
	"author", "weekday", "commits", "additions", "deletions",
	"prs_opened", "prs_merged", "prs_reviewed",
}

// Render writes the CSV report.
func (r *CSVRenderer) Render(data Data, w io.Writer) error {
	cw := csv.NewWriter(w)

	err := cw.Write(csvHeader)
	if err != nil {
		return fmt.Errorf("csv render: %w", err)
	}

	sections := [][]Row{
		AuthorDayRows(data.Snapshot),
		AuthorTotalRows(data.Snapshot),
		DaySummaryRows(data.Snapshot),
	}

	for _, rows := range sections {
		for _, row := range rows {
			err = cw.Write(csvRecord(row))
			if err != nil {
				return fmt.Errorf("csv render: %w", err)
			}
		}
	}

	cw.Flush()

	err = cw.Error()
	if err != nil {
		return fmt.Errorf("csv render: %w", err)
	}

	return nil
}

func csvRecord(row Row) []string {
	return []string{
		row.Author,
		row.Weekday,
		strconv.Itoa(row.Commits),
		strconv.Itoa(row.Additions),
		strconv.Itoa(row.Deletions),
		strconv.Itoa(row.PRsOpened),
		strconv.Itoa(row.PRsMerged),
		strconv.Itoa(row.PRsReviewed),
	}
}
