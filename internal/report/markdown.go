package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/commitpulse/internal/activity"
	"github.com/Sumatoshi-tech/commitpulse/internal/aggregate"
	"github.com/Sumatoshi-tech/commitpulse/internal/trend"
)

// topAuthorsDetailed caps the per-author day-by-day breakdown sections.
const topAuthorsDetailed = 10

// MarkdownRenderer writes the performance dashboard as a markdown
// document: summary, day-of-week table, per-author table with alias
// footnotes, and per-author weekday breakdowns.
type MarkdownRenderer struct{}

// Format returns the renderer's format name.
func (r *MarkdownRenderer) Format() string { return FormatMarkdown }

// Render writes the markdown report.
func (r *MarkdownRenderer) Render(data Data, w io.Writer) error {
	var b strings.Builder

	writeMarkdownHeader(&b, data)
	writeMarkdownSummary(&b, data)
	writeMarkdownDayTable(&b, data)

	ranked := trend.Ranked(data.Snapshot, trend.RankByCommits)

	writeMarkdownAuthorTable(&b, ranked)
	writeMarkdownAliasFootnotes(&b, ranked)

	detailLimit := data.TopAuthors
	if detailLimit <= 0 {
		detailLimit = topAuthorsDetailed
	}

	writeMarkdownBreakdowns(&b, ranked, detailLimit)
	writeMarkdownTrends(&b, data.Trends)

	_, err := io.WriteString(w, b.String())
	if err != nil {
		return fmt.Errorf("markdown render: %w", err)
	}

	return nil
}

func writeMarkdownHeader(b *strings.Builder, data Data) {
	b.WriteString("# Weekly Performance Dashboard\n\n")

	if data.Owner != "" && len(data.Repos) > 0 {
		qualified := make([]string, len(data.Repos))
		for i, repo := range data.Repos {
			qualified[i] = data.Owner + "/" + repo
		}

		fmt.Fprintf(b, "Repositories: %s\n\n", strings.Join(qualified, ", "))
	}

	fmt.Fprintf(b, "Generated: %s\n\n", data.GeneratedAt.UTC().Format("2006-01-02 15:04:05"))

	if data.Snapshot.Partial {
		b.WriteString("> **Note**: based on partial data; some sources did not return complete results.\n\n")
	}
}

func writeMarkdownSummary(b *strings.Builder, data Data) {
	totals := data.Snapshot.Totals()

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(b, "- **Total Authors**: %d\n", len(data.Snapshot.Aggregates))
	fmt.Fprintf(b, "- **Total Commits**: %s\n", humanize.Comma(int64(totals.Commits)))
	fmt.Fprintf(b, "- **Total Additions**: %s\n", humanize.Comma(int64(totals.Additions)))
	fmt.Fprintf(b, "- **Total Deletions**: %s\n", humanize.Comma(int64(totals.Deletions)))
	fmt.Fprintf(b, "- **PRs Opened / Merged / Reviewed**: %d / %d / %d\n",
		totals.PRsOpened, totals.PRsMerged, totals.PRsReviewed)

	if len(data.Snapshot.Warnings) > 0 {
		fmt.Fprintf(b, "- **Skipped malformed units**: %d\n", len(data.Snapshot.Warnings))
	}

	b.WriteString("\n")
}

func writeMarkdownDayTable(b *strings.Builder, data Data) {
	b.WriteString("## Activity by Day of Week\n\n")
	b.WriteString("| Day | Commits | Additions | Deletions |\n")
	b.WriteString("|-----|---------|-----------|-----------|\n")

	totals := data.Snapshot.WeekdayTotals()

	for _, d := range activity.Weekdays() {
		c := totals[d]
		fmt.Fprintf(b, "| %s | %d | %s | %s |\n",
			d, c.Commits, humanize.Comma(int64(c.Additions)), humanize.Comma(int64(c.Deletions)))
	}

	b.WriteString("\n")
}

func writeMarkdownAuthorTable(b *strings.Builder, ranked []*aggregate.AuthorAggregate) {
	b.WriteString("## Performance by Author\n\n")
	b.WriteString("| Author | Commits | Additions | Deletions | Lines Changed " +
		"| PRs Opened | PRs Merged | PRs Reviewed |\n")
	b.WriteString("|--------|---------|-----------|-----------|---------------" +
		"|------------|------------|--------------|\n")

	for _, agg := range ranked {
		display := agg.Author
		if len(agg.Usernames) > 1 {
			display += "*"
		}

		c := agg.Overall
		fmt.Fprintf(b, "| %s | %d | %s | %s | %s | %d | %d | %d |\n",
			display, c.Commits,
			humanize.Comma(int64(c.Additions)),
			humanize.Comma(int64(c.Deletions)),
			humanize.Comma(int64(c.Additions+c.Deletions)),
			c.PRsOpened, c.PRsMerged, c.PRsReviewed)
	}

	b.WriteString("\n")
}

func writeMarkdownAliasFootnotes(b *strings.Builder, ranked []*aggregate.AuthorAggregate) {
	var withAliases []*aggregate.AuthorAggregate

	for _, agg := range ranked {
		if len(agg.Usernames) > 1 {
			withAliases = append(withAliases, agg)
		}
	}

	if len(withAliases) == 0 {
		return
	}

	b.WriteString("_* Authors with multiple usernames:_\n\n")

	for _, agg := range withAliases {
		fmt.Fprintf(b, "- %s: %s\n", agg.Author, strings.Join(agg.UsernameList(), ", "))
	}

	b.WriteString("\n")
}

func writeMarkdownBreakdowns(b *strings.Builder, ranked []*aggregate.AuthorAggregate, limit int) {
	b.WriteString("## Detailed Activity by Author and Day\n\n")

	if limit > len(ranked) {
		limit = len(ranked)
	}

	for _, agg := range ranked[:limit] {
		fmt.Fprintf(b, "### %s\n\n", agg.Author)
		b.WriteString("| Mon | Tue | Wed | Thu | Fri | Sat | Sun | Total |\n")
		b.WriteString("|-----|-----|-----|-----|-----|-----|-----|-------|\n")

		cells := make([]string, 0, activity.NumWeekdays+1)
		for _, d := range activity.Weekdays() {
			cells = append(cells, fmt.Sprintf("%d", agg.Combined[d].Commits))
		}

		cells = append(cells, fmt.Sprintf("%d", agg.Overall.Commits))
		fmt.Fprintf(b, "| %s |\n\n", strings.Join(cells, " | "))
	}
}

func writeMarkdownTrends(b *strings.Builder, trends []trend.Summary) {
	if len(trends) == 0 {
		return
	}

	b.WriteString("## Trends\n\n")
	b.WriteString("| Author | Growth Rate | Peak Day | Consistency |\n")
	b.WriteString("|--------|-------------|----------|-------------|\n")

	for _, s := range trends {
		fmt.Fprintf(b, "| %s | %s | %s | %.2f |\n",
			s.Author, formatGrowth(s.Growth), s.Peak, s.Consistency)
	}

	b.WriteString("\n")
}

func formatGrowth(g trend.GrowthRate) string {
	if !g.Defined {
		return "undefined"
	}

	return fmt.Sprintf("%+.1f%%", g.Value*100)
}
