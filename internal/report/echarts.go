package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/redresslabs/redress/internal/analyzer"
)

// EchartsRenderer draws the standard charts with go-echarts.
type EchartsRenderer struct{}

// NewEchartsRenderer returns the default chart renderer.
func NewEchartsRenderer() EchartsRenderer { return EchartsRenderer{} }

// Render implements Renderer.
func (EchartsRenderer) Render(w io.Writer, chart Chart, snap *analyzer.Snapshot) error {
	switch chart {
	case ChartWordCloud:
		return renderWordCloud(w, snap)
	case ChartCategoryPie:
		return renderCategoryPie(w, snap)
	case ChartAuthorBar:
		return renderAuthorBar(w, snap)
	case ChartTrendLine:
		return renderTrendLine(w, snap)
	default:
		return fmt.Errorf("unknown chart %q", chart)
	}
}

func renderWordCloud(w io.Writer, snap *analyzer.Snapshot) error {
	wc := charts.NewWordCloud()
	wc.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "高频关键词", Width: "900px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "高频维权关键词"}),
	)
	items := make([]opts.WordCloudData, 0, len(snap.Keywords))
	for _, k := range snap.Keywords {
		items = append(items, opts.WordCloudData{Name: k.Token, Value: k.Score})
	}
	wc.AddSeries("keywords", items)
	return wc.Render(w)
}

func renderCategoryPie(w io.Writer, snap *analyzer.Snapshot) error {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "分类分布", Width: "900px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "帖子分类分布"}),
	)
	items := make([]opts.PieData, 0, len(snap.CategoryCounts))
	for _, category := range orderedCategories(snap) {
		items = append(items, opts.PieData{
			Name:  categoryLabel(category),
			Value: snap.CategoryCounts[category],
		})
	}
	pie.AddSeries("categories", items)
	return pie.Render(w)
}

func renderAuthorBar(w io.Writer, snap *analyzer.Snapshot) error {
	authors := snap.Authors
	if len(authors) > 10 {
		authors = authors[:10]
	}
	names := make([]string, 0, len(authors))
	posts := make([]opts.BarData, 0, len(authors))
	for _, a := range authors {
		names = append(names, authorDisplay(a))
		posts = append(posts, opts.BarData{Value: a.Posts})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "活跃作者", Width: "900px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "发帖最多的作者"}),
	)
	bar.SetXAxis(names).AddSeries("帖子数", posts)
	return bar.Render(w)
}

func renderTrendLine(w io.Writer, snap *analyzer.Snapshot) error {
	dates := trendDates(snap)
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "每日趋势", Width: "900px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "每日帖子量"}),
	)
	line.SetXAxis(dates)
	for _, trend := range snap.Trend {
		byDate := make(map[string]int, len(trend.Points))
		for _, p := range trend.Points {
			byDate[p.Date] = p.Posts
		}
		data := make([]opts.LineData, 0, len(dates))
		for _, date := range dates {
			data = append(data, opts.LineData{Value: byDate[date]})
		}
		line.AddSeries(categoryLabel(trend.Category), data)
	}
	return line.Render(w)
}

func authorDisplay(a analyzer.AuthorStat) string {
	if a.AuthorName != "" {
		return a.AuthorName
	}
	if a.AuthorID != "" {
		return a.AuthorID
	}
	return "匿名"
}

// trendDates merges every category's dates into one sorted axis so the series
// stay comparable.
func trendDates(snap *analyzer.Snapshot) []string {
	seen := make(map[string]bool)
	var dates []string
	for _, trend := range snap.Trend {
		for _, p := range trend.Points {
			if !seen[p.Date] {
				seen[p.Date] = true
				dates = append(dates, p.Date)
			}
		}
	}
	sort.Strings(dates)
	return dates
}
