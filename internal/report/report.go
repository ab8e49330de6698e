// Package report renders finished aggregation snapshots and trend
// summaries into the supported output formats. Renderers are a closed set
// of strategies sharing one contract; the aggregation core stays ignorant
// of rendering.
package report

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Sumatoshi-tech/commitpulse/internal/activity"
	"github.com/Sumatoshi-tech/commitpulse/internal/aggregate"
	"github.com/Sumatoshi-tech/commitpulse/internal/trend"
)

// Output formats.
const (
	FormatMarkdown  = "markdown"
	FormatCSV       = "csv"
	FormatJSON      = "json"
	FormatTable     = "table"
	FormatDashboard = "dashboard"
)

// ErrUnknownFormat is returned for formats outside the closed set.
var ErrUnknownFormat = errors.New("report: unknown output format")

// Data is everything a renderer needs: the immutable snapshot, the derived
// trend summaries, and run metadata for headers.
type Data struct {
	Snapshot    aggregate.Snapshot
	Trends      []trend.Summary
	GeneratedAt time.Time
	Owner       string
	Repos       []string
	Weeks       int
	// TopAuthors caps per-author detail sections. Zero means the
	// renderer's default.
	TopAuthors int
}

// Renderer turns report data into bytes on a writer.
type Renderer interface {
	// Format returns the renderer's format name.
	Format() string

	// Render writes the complete report. Renderers never mutate data.
	Render(data Data, w io.Writer) error
}

// New returns the renderer for a format name.
func New(format string) (Renderer, error) {
	switch format {
	case FormatMarkdown:
		return &MarkdownRenderer{}, nil
	case FormatCSV:
		return &CSVRenderer{}, nil
	case FormatJSON:
		return &JSONRenderer{}, nil
	case FormatTable:
		return &TableRenderer{}, nil
	case FormatDashboard:
		return &DashboardRenderer{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Formats lists the supported format names.
func Formats() []string {
	return []string{FormatMarkdown, FormatCSV, FormatJSON, FormatTable, FormatDashboard}
}

// Extension returns the file extension for a format.
func Extension(format string) string {
	switch format {
	case FormatMarkdown:
		return ".md"
	case FormatCSV:
		return ".csv"
	case FormatJSON:
		return ".json"
	case FormatDashboard:
		return ".html"
	default:
		return ".txt"
	}
}

// WeekdayAll is the weekday column value of per-author totals rows.
const WeekdayAll = "All"

// Row is the stable tabular shape shared by all renderers. The column set
// never changes with alias-file content — aliases change grouping, not
// schema.
type Row struct {
	Author      string `json:"author"`
	Weekday     string `json:"weekday"`
	Commits     int    `json:"commits"`
	Additions   int    `json:"additions"`
	Deletions   int    `json:"deletions"`
	PRsOpened   int    `json:"prs_opened"`
	PRsMerged   int    `json:"prs_merged"`
	PRsReviewed int    `json:"prs_reviewed"`
}

func rowFrom(author, weekday string, c activity.Counters) Row {
	return Row{
		Author:      author,
		Weekday:     weekday,
		Commits:     c.Commits,
		Additions:   c.Additions,
		Deletions:   c.Deletions,
		PRsOpened:   c.PRsOpened,
		PRsMerged:   c.PRsMerged,
		PRsReviewed: c.PRsReviewed,
	}
}

// AuthorDayRows returns one row per (author, weekday) with nonzero
// activity, authors in canonical-name order, weekdays Monday first.
func AuthorDayRows(snap aggregate.Snapshot) []Row {
	var rows []Row

	for _, author := range snap.Authors() {
		agg := snap.Aggregates[author]

		for _, d := range activity.Weekdays() {
			if agg.Combined[d].IsZero() {
				continue
			}

			rows = append(rows, rowFrom(author, d.String(), agg.Combined[d]))
		}
	}

	return rows
}

// AuthorTotalRows returns one totals row per author with weekday "All".
func AuthorTotalRows(snap aggregate.Snapshot) []Row {
	rows := make([]Row, 0, len(snap.Aggregates))

	for _, author := range snap.Authors() {
		rows = append(rows, rowFrom(author, WeekdayAll, snap.Aggregates[author].Overall))
	}

	return rows
}

// DaySummaryRows returns one row per weekday, summed over all authors,
// with the author column fixed to "All".
func DaySummaryRows(snap aggregate.Snapshot) []Row {
	totals := snap.WeekdayTotals()
	rows := make([]Row, 0, activity.NumWeekdays)

	for _, d := range activity.Weekdays() {
		rows = append(rows, rowFrom("All", d.String(), totals[d]))
	}

	return rows
}
