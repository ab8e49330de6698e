package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/commitpulse/internal/activity"
	"github.com/Sumatoshi-tech/commitpulse/internal/aggregate"
	"github.com/Sumatoshi-tech/commitpulse/internal/alias"
	"github.com/Sumatoshi-tech/commitpulse/internal/trend"
)

// testGeneratedAt pins report timestamps for content assertions.
var testGeneratedAt = time.Date(2024, time.March, 4, 8, 0, 0, 0, time.UTC)

// testMonday is 2024-01-01, a Monday.
var testMonday = time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)

// sampleData builds a two-author snapshot: alice with aliased usernames on
// Monday and Friday, bob with a single Monday commit and a merged PR.
func sampleData(t *testing.T) Data {
	t.Helper()

	table, err := alias.New(map[string][]string{"alice": {"alice1", "alice2"}})
	require.NoError(t, err)

	engine := aggregate.NewEngine(table)

	units := []activity.Unit{
		{Username: "alice1", Repo: "api", Time: testMonday, Kind: activity.KindCommit,
			Additions: 10, Deletions: 3, CommitID: "c1"},
		{Username: "alice2", Repo: "api", Time: testMonday, Kind: activity.KindCommit,
			Additions: 3, CommitID: "c2"},
		{Username: "alice1", Repo: "web", Time: testMonday.AddDate(0, 0, 4), Kind: activity.KindCommit,
			Additions: 1, CommitID: "c3"},
		{Username: "bob", Repo: "api", Time: testMonday, Kind: activity.KindCommit, CommitID: "c4"},
		{Username: "bob", Repo: "api", Time: testMonday, Kind: activity.KindPRMerged, PullRequestID: 12},
	}

	require.NoError(t, engine.IngestAll(units))
	engine.Finalize()

	snap := engine.Snapshot()

	return Data{
		Snapshot:    snap,
		Trends:      trend.Summarize(snap),
		GeneratedAt: testGeneratedAt,
		Owner:       "acme",
		Repos:       []string{"api", "web"},
		Weeks:       12,
	}
}

func TestNew_ClosedFormatSet(t *testing.T) {
	t.Parallel()

	for _, format := range Formats() {
		renderer, err := New(format)

		require.NoError(t, err)
		assert.Equal(t, format, renderer.Format())
	}

	_, err := New("pdf")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestExtension(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ".md", Extension(FormatMarkdown))
	assert.Equal(t, ".csv", Extension(FormatCSV))
	assert.Equal(t, ".json", Extension(FormatJSON))
	assert.Equal(t, ".html", Extension(FormatDashboard))
}

func TestAuthorDayRows_NonzeroOnlySortedByAuthor(t *testing.T) {
	t.Parallel()

	rows := AuthorDayRows(sampleData(t).Snapshot)

	// alice: Monday and Friday; bob: Monday only.
	require.Len(t, rows, 3)
	assert.Equal(t, "alice", rows[0].Author)
	assert.Equal(t, "Monday", rows[0].Weekday)
	assert.Equal(t, 2, rows[0].Commits)
	assert.Equal(t, 13, rows[0].Additions)
	assert.Equal(t, "Friday", rows[1].Weekday)
	assert.Equal(t, "bob", rows[2].Author)
	assert.Equal(t, 1, rows[2].PRsMerged)
}

func TestAuthorTotalRows_WeekdayAll(t *testing.T) {
	t.Parallel()

	rows := AuthorTotalRows(sampleData(t).Snapshot)

	require.Len(t, rows, 2)
	assert.Equal(t, WeekdayAll, rows[0].Weekday)
	assert.Equal(t, 3, rows[0].Commits)
}

func TestDaySummaryRows_AllSevenDays(t *testing.T) {
	t.Parallel()

	rows := DaySummaryRows(sampleData(t).Snapshot)

	require.Len(t, rows, activity.NumWeekdays)
	assert.Equal(t, "All", rows[0].Author)
	assert.Equal(t, "Monday", rows[0].Weekday)
	assert.Equal(t, 3, rows[0].Commits)
	assert.Zero(t, rows[1].Commits)
}

func TestMarkdownRenderer_Content(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, (&MarkdownRenderer{}).Render(sampleData(t), &buf))

	out := buf.String()

	assert.Contains(t, out, "# Weekly Performance Dashboard")
	assert.Contains(t, out, "Repositories: acme/api, acme/web")
	assert.Contains(t, out, "- **Total Commits**: 4")
	// Aliased author carries the footnote marker.
	assert.Contains(t, out, "| alice* |")
	assert.Contains(t, out, "- alice: alice1, alice2")
	assert.Contains(t, out, "## Trends")
	assert.NotContains(t, out, "partial data")
}

func TestMarkdownRenderer_PartialNote(t *testing.T) {
	t.Parallel()

	data := sampleData(t)
	data.Snapshot.Partial = true

	var buf bytes.Buffer

	require.NoError(t, (&MarkdownRenderer{}).Render(data, &buf))
	assert.Contains(t, buf.String(), "partial data")
}

func TestCSVRenderer_StableSchema(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, (&CSVRenderer{}).Render(sampleData(t), &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	assert.Equal(t, csvHeader, records[0])

	// Per-author day rows, then author totals, then the 7-day summary.
	expectedRows := 1 + 3 + 2 + activity.NumWeekdays
	assert.Len(t, records, expectedRows)
}

func TestJSONRenderer_Document(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, (&JSONRenderer{}).Render(sampleData(t), &buf))

	var doc struct {
		Owner   string `json:"owner"`
		Authors []struct {
			Author    string   `json:"author"`
			Usernames []string `json:"usernames"`
			Totals    Row      `json:"totals"`
		} `json:"authors"`
		DaySummary []Row `json:"day_summary"`
	}

	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "acme", doc.Owner)
	require.Len(t, doc.Authors, 2)
	assert.Equal(t, "alice", doc.Authors[0].Author)
	assert.Equal(t, []string{"alice1", "alice2"}, doc.Authors[0].Usernames)
	assert.Equal(t, 3, doc.Authors[0].Totals.Commits)
	assert.Len(t, doc.DaySummary, activity.NumWeekdays)
}

func TestTableRenderer_WritesSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, (&TableRenderer{}).Render(sampleData(t), &buf))

	out := buf.String()

	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "bob")
	assert.Contains(t, out, "Mon")
}

func TestDashboardRenderer_EmitsCharts(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, (&DashboardRenderer{}).Render(sampleData(t), &buf))

	out := buf.String()

	assert.Contains(t, out, "Activity by Day of Week")
	assert.Contains(t, out, "Commits by Author and Day")
	assert.Contains(t, out, "Weekday Coverage")
}

func TestMarkdownRenderer_TopAuthorsCap(t *testing.T) {
	t.Parallel()

	data := sampleData(t)
	data.TopAuthors = 1

	var buf bytes.Buffer

	require.NoError(t, (&MarkdownRenderer{}).Render(data, &buf))

	out := buf.String()
	detail := out[strings.Index(out, "## Detailed Activity"):]

	assert.Contains(t, detail, "### alice")
	assert.NotContains(t, detail, "### bob")
}
