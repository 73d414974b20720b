package report

import (
	"html/template"
	"io"
	"time"

	"github.com/redresslabs/redress/internal/analyzer"
)

const reportHTML = `<!DOCTYPE html>
<html lang="zh">
<head>
<meta charset="utf-8">
<title>维权内容分析报告</title>
<style>
body { font-family: "Helvetica Neue", Arial, "PingFang SC", "Microsoft YaHei", sans-serif; margin: 2em auto; max-width: 1000px; color: #222; }
h1 { border-bottom: 2px solid #c0392b; padding-bottom: .3em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
th, td { border: 1px solid #ddd; padding: 6px 10px; text-align: left; }
th { background: #f7f7f7; }
iframe { border: 1px solid #ddd; width: 100%; height: 620px; margin: 1em 0; }
.meta { color: #666; }
</style>
</head>
<body>
<h1>维权内容分析报告</h1>
<p class="meta">生成时间：{{.GeneratedAt}}</p>
{{if .WindowLine}}<p class="meta">统计区间：{{.WindowLine}}</p>{{end}}

<h2>总览</h2>
<p>共分析帖子 <strong>{{.TotalPosts}}</strong> 条。</p>
<table>
<tr><th>分类</th><th>帖子数</th><th>占比</th></tr>
{{range .Categories}}<tr><td>{{.Label}}</td><td>{{.Count}}</td><td>{{printf "%.1f%%" .Share}}</td></tr>
{{end}}</table>

<h2>高频关键词</h2>
<iframe src="charts/wordcloud.html"></iframe>
<table>
<tr><th>关键词</th><th>出现次数</th><th>加权得分</th></tr>
{{range .Keywords}}<tr><td>{{.Token}}</td><td>{{.Count}}</td><td>{{printf "%.1f" .Score}}</td></tr>
{{end}}</table>

<h2>分类分布</h2>
<iframe src="charts/category_pie.html"></iframe>

<h2>活跃作者</h2>
<iframe src="charts/author_bar.html"></iframe>
<table>
<tr><th>作者</th><th>帖子数</th><th>点赞</th><th>评论</th><th>收藏</th><th>互动合计</th></tr>
{{range .Authors}}<tr><td>{{.Name}}</td><td>{{.Posts}}</td><td>{{.Likes}}</td><td>{{.Comments}}</td><td>{{.Favorites}}</td><td>{{.Engagement}}</td></tr>
{{end}}</table>

<h2>每日趋势</h2>
<iframe src="charts/trend_line.html"></iframe>

<h2>热门帖子</h2>
<table>
<tr><th>标题</th><th>分类</th><th>点赞</th><th>评论</th></tr>
{{range .TopPosts}}<tr><td>{{.Title}}</td><td>{{.Label}}</td><td>{{.Likes}}</td><td>{{.Comments}}</td></tr>
{{end}}</table>
</body>
</html>
`

var reportTemplate = template.Must(template.New("report").Parse(reportHTML))

type reportData struct {
	GeneratedAt string
	WindowLine  string
	TotalPosts  int
	Categories  []categoryRow
	Keywords    []analyzer.KeywordStat
	Authors     []authorRow
	TopPosts    []topPostRow
}

type categoryRow struct {
	Label string
	Count int
	Share float64
}

type authorRow struct {
	Name       string
	Posts      int
	Likes      int
	Comments   int
	Favorites  int
	Engagement int
}

type topPostRow struct {
	Title    string
	Label    string
	Likes    int
	Comments int
}

// writeReport renders the narrative page. Tables are capped so the report
// stays readable; the full data lives in snapshot.json.
func writeReport(w io.Writer, snap *analyzer.Snapshot) error {
	data := reportData{
		GeneratedAt: snap.GeneratedAt.UTC().Format("2006-01-02 15:04:05") + " UTC",
		TotalPosts:  snap.TotalPosts,
	}
	if !snap.Window.From.IsZero() || !snap.Window.To.IsZero() {
		data.WindowLine = windowBound(snap.Window.From, "最早") + " 至 " + windowBound(snap.Window.To, "最新")
	}

	for _, category := range orderedCategories(snap) {
		count := snap.CategoryCounts[category]
		share := 0.0
		if snap.TotalPosts > 0 {
			share = float64(count) / float64(snap.TotalPosts) * 100
		}
		data.Categories = append(data.Categories, categoryRow{
			Label: categoryLabel(category),
			Count: count,
			Share: share,
		})
	}

	keywords := snap.Keywords
	if len(keywords) > 20 {
		keywords = keywords[:20]
	}
	data.Keywords = keywords

	authors := snap.Authors
	if len(authors) > 10 {
		authors = authors[:10]
	}
	for _, a := range authors {
		data.Authors = append(data.Authors, authorRow{
			Name:       authorDisplay(a),
			Posts:      a.Posts,
			Likes:      a.Likes,
			Comments:   a.Comments,
			Favorites:  a.Favorites,
			Engagement: a.Engagement,
		})
	}

	for _, p := range snap.TopPosts {
		data.TopPosts = append(data.TopPosts, topPostRow{
			Title:    p.Title,
			Label:    categoryLabel(p.Category),
			Likes:    p.Likes,
			Comments: p.Comments,
		})
	}

	return reportTemplate.Execute(w, data)
}

// windowBound formats one side of the analysis window, with a textual stand-in
// for an open bound.
func windowBound(t time.Time, open string) string {
	if t.IsZero() {
		return open
	}
	return t.UTC().Format("2006-01-02 15:04")
}
