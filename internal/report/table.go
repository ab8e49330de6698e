package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/commitpulse/internal/activity"
	"github.com/Sumatoshi-tech/commitpulse/internal/trend"
)

// TableRenderer writes a terminal summary using go-pretty tables.
type TableRenderer struct{}

// Format returns the renderer's format name.
func (r *TableRenderer) Format() string { return FormatTable }

// Render writes the terminal report.
func (r *TableRenderer) Render(data Data, w io.Writer) error {
	heading := color.New(color.Bold, color.FgCyan)

	_, err := heading.Fprintf(w, "Contributor activity")
	if err != nil {
		return fmt.Errorf("table render: %w", err)
	}

	totals := data.Snapshot.Totals()

	fmt.Fprintf(w, "  %d authors, %d commits, +%d/-%d lines\n",
		len(data.Snapshot.Aggregates), totals.Commits, totals.Additions, totals.Deletions)

	if data.Snapshot.Partial {
		warn := color.New(color.FgYellow)
		_, _ = warn.Fprintln(w, "  partial data: some sources did not return complete results")
	}

	fmt.Fprintln(w)
	renderAuthorTable(data, w)
	fmt.Fprintln(w)
	renderDayTable(data, w)

	if len(data.Snapshot.Warnings) > 0 {
		warn := color.New(color.FgYellow)
		_, _ = warn.Fprintf(w, "\n%d malformed units skipped\n", len(data.Snapshot.Warnings))
	}

	return nil
}

func renderAuthorTable(data Data, w io.Writer) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{
		"Author", "Commits", "Additions", "Deletions", "PRs O/M/R", "Peak Day", "Consistency",
	})

	trendsByAuthor := make(map[string]trend.Summary, len(data.Trends))
	for _, s := range data.Trends {
		trendsByAuthor[s.Author] = s
	}

	for _, agg := range trend.Ranked(data.Snapshot, trend.RankByCommits) {
		c := agg.Overall
		peak, consistency := "-", "-"

		if s, ok := trendsByAuthor[agg.Author]; ok {
			peak = s.Peak.Abbrev()
			consistency = fmt.Sprintf("%.2f", s.Consistency)
		}

		tbl.AppendRow(table.Row{
			agg.Author, c.Commits, c.Additions, c.Deletions,
			fmt.Sprintf("%d/%d/%d", c.PRsOpened, c.PRsMerged, c.PRsReviewed),
			peak, consistency,
		})
	}

	tbl.Render()
}

func renderDayTable(data Data, w io.Writer) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Day", "Commits", "Additions", "Deletions"})

	totals := data.Snapshot.WeekdayTotals()

	for _, d := range activity.Weekdays() {
		c := totals[d]
		tbl.AppendRow(table.Row{d.Abbrev(), c.Commits, c.Additions, c.Deletions})
	}

	tbl.Render()
}
