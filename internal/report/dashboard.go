package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/commitpulse/internal/activity"
	"github.com/Sumatoshi-tech/commitpulse/internal/aggregate"
	"github.com/Sumatoshi-tech/commitpulse/internal/trend"
)

// Visualization constants (rendering-specific, not metrics).
const (
	topAuthorsForBars  = 15
	topAuthorsForRadar = 6
	chartWidth         = "1100px"
	chartHeight        = "500px"
	radarSplitNum      = 5
	radarAreaOpacity   = 0.2
	radarMaxScore      = 1.0
)

// DashboardRenderer writes an interactive HTML dashboard built from
// go-echarts charts: weekday totals, stacked per-author bars, and a
// consistency radar.
type DashboardRenderer struct{}

// Format returns the renderer's format name.
func (r *DashboardRenderer) Format() string { return FormatDashboard }

// Render writes the dashboard HTML page.
func (r *DashboardRenderer) Render(data Data, w io.Writer) error {
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.PageTitle = "Contributor Activity Dashboard"

	page.AddCharts(
		createWeekdayChart(data),
		createAuthorChart(data),
		createConsistencyRadar(data),
	)

	err := page.Render(w)
	if err != nil {
		return fmt.Errorf("dashboard render: %w", err)
	}

	return nil
}

func weekdayLabels() []string {
	labels := make([]string, 0, activity.NumWeekdays)
	for _, d := range activity.Weekdays() {
		labels = append(labels, d.Abbrev())
	}

	return labels
}

// createWeekdayChart builds the cross-author weekday bar chart with one
// series per activity dimension.
func createWeekdayChart(data Data) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Activity by Day of Week",
			Subtitle: "All authors combined",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
	)

	totals := data.Snapshot.WeekdayTotals()
	commits := make([]opts.BarData, 0, activity.NumWeekdays)
	additions := make([]opts.BarData, 0, activity.NumWeekdays)
	deletions := make([]opts.BarData, 0, activity.NumWeekdays)

	for _, d := range activity.Weekdays() {
		commits = append(commits, opts.BarData{Value: totals[d].Commits})
		additions = append(additions, opts.BarData{Value: totals[d].Additions})
		deletions = append(deletions, opts.BarData{Value: totals[d].Deletions})
	}

	bar.SetXAxis(weekdayLabels()).
		AddSeries("Commits", commits).
		AddSeries("Additions", additions).
		AddSeries("Deletions", deletions)

	return bar
}

// createAuthorChart builds per-author weekday commits as stacked bars, one
// series per author, limited to the top committers.
func createAuthorChart(data Data) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Commits by Author and Day",
			Subtitle: fmt.Sprintf("Top %d authors by commit count", topAuthorsForBars),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
	)

	bar.SetXAxis(weekdayLabels())

	for _, agg := range topRanked(data, topAuthorsForBars) {
		series := make([]opts.BarData, 0, activity.NumWeekdays)
		for _, d := range activity.Weekdays() {
			series = append(series, opts.BarData{Value: agg.Combined[d].Commits})
		}

		bar.AddSeries(agg.Author, series, charts.WithBarChartOpts(opts.BarChart{Stack: "total"}))
	}

	return bar
}

// createConsistencyRadar plots each top author's share of commits per
// weekday on a radar, making uneven weekly rhythms visible at a glance.
func createConsistencyRadar(data Data) *charts.Radar {
	radar := charts.NewRadar()

	indicators := make([]*opts.Indicator, 0, activity.NumWeekdays)
	for _, d := range activity.Weekdays() {
		indicators = append(indicators, &opts.Indicator{Name: d.Abbrev(), Max: radarMaxScore})
	}

	radar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Weekday Coverage",
			Subtitle: "Share of each author's commits landing on each weekday",
		}),
		charts.WithRadarComponentOpts(opts.RadarComponent{
			Indicator:   indicators,
			SplitNumber: radarSplitNum,
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
	)

	series := make([]opts.RadarData, 0, topAuthorsForRadar)

	for _, agg := range topRanked(data, topAuthorsForRadar) {
		total := agg.Overall.Commits
		if total == 0 {
			continue
		}

		values := make([]float64, 0, activity.NumWeekdays)
		for _, d := range activity.Weekdays() {
			values = append(values, float64(agg.Combined[d].Commits)/float64(total))
		}

		series = append(series, opts.RadarData{Name: agg.Author, Value: values})
	}

	radar.AddSeries("Weekday coverage", series,
		charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(radarAreaOpacity)}))

	return radar
}

func topRanked(data Data, limit int) []*aggregate.AuthorAggregate {
	ranked := trend.Ranked(data.Snapshot, trend.RankByCommits)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked
}
