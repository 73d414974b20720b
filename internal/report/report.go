// Package report writes analysis bundles: the snapshot JSON, four chart
// pages, and a navigable HTML report that embeds them.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/redresslabs/redress/internal/analyzer"
	"github.com/redresslabs/redress/internal/clock/system"
	"github.com/redresslabs/redress/internal/rights"
)

// Chart identifies one of the standard report charts.
type Chart string

// Charts rendered into every bundle.
const (
	ChartWordCloud   Chart = "wordcloud"
	ChartCategoryPie Chart = "category_pie"
	ChartAuthorBar   Chart = "author_bar"
	ChartTrendLine   Chart = "trend_line"
)

// AllCharts returns the standard chart set in render order.
func AllCharts() []Chart {
	return []Chart{ChartWordCloud, ChartCategoryPie, ChartAuthorBar, ChartTrendLine}
}

// Renderer draws one chart page for a snapshot.
type Renderer interface {
	Render(w io.Writer, chart Chart, snap *analyzer.Snapshot) error
}

// Bundle lists the files one Generate call produced.
type Bundle struct {
	Dir          string
	SnapshotPath string
	ReportPath   string
	ChartPaths   map[Chart]string
}

// Config locates the bundle output tree.
type Config struct {
	// OutDir is the analysis root; each bundle gets a timestamped directory
	// beneath it.
	OutDir string
}

// Deps carries the generator's collaborators.
type Deps struct {
	Renderer Renderer
	Clock    rights.Clock
	Logger   *zap.Logger
}

// Generator assembles report bundles from snapshots.
type Generator struct {
	cfg      Config
	renderer Renderer
	clock    rights.Clock
	logger   *zap.Logger
}

// New wires a Generator. The go-echarts renderer is the default.
func New(cfg Config, deps Deps) (*Generator, error) {
	if cfg.OutDir == "" {
		return nil, fmt.Errorf("report generator requires an output directory")
	}
	if deps.Renderer == nil {
		deps.Renderer = NewEchartsRenderer()
	}
	if deps.Clock == nil {
		deps.Clock = system.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Generator{
		cfg:      cfg,
		renderer: deps.Renderer,
		clock:    deps.Clock,
		logger:   deps.Logger,
	}, nil
}

// Generate writes snapshot.json, the chart pages, and report.html into a
// fresh stamped directory and reports where everything landed.
func (g *Generator) Generate(ctx context.Context, snap *analyzer.Snapshot) (Bundle, error) {
	if snap == nil {
		return Bundle{}, fmt.Errorf("generate report: nil snapshot")
	}

	at := snap.GeneratedAt
	if at.IsZero() {
		at = g.clock.Now()
	}
	dir := filepath.Join(g.cfg.OutDir, at.UTC().Format(rights.StampLayout))
	chartsDir := filepath.Join(dir, "charts")
	if err := os.MkdirAll(chartsDir, 0o750); err != nil {
		return Bundle{}, fmt.Errorf("create bundle directory: %w", err)
	}

	bundle := Bundle{Dir: dir, ChartPaths: make(map[Chart]string, len(AllCharts()))}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return Bundle{}, fmt.Errorf("encode snapshot: %w", err)
	}
	bundle.SnapshotPath = filepath.Join(dir, "snapshot.json")
	if err := os.WriteFile(bundle.SnapshotPath, data, 0o600); err != nil {
		return Bundle{}, fmt.Errorf("write snapshot: %w", err)
	}

	for _, chart := range AllCharts() {
		if err := ctx.Err(); err != nil {
			return Bundle{}, err
		}
		path := filepath.Join(chartsDir, string(chart)+".html")
		if err := g.writeChart(path, chart, snap); err != nil {
			return Bundle{}, err
		}
		bundle.ChartPaths[chart] = path
	}

	bundle.ReportPath = filepath.Join(dir, "report.html")
	f, err := os.Create(bundle.ReportPath)
	if err != nil {
		return Bundle{}, fmt.Errorf("create report page: %w", err)
	}
	if err := writeReport(f, snap); err != nil {
		f.Close()
		return Bundle{}, fmt.Errorf("render report page: %w", err)
	}
	if err := f.Close(); err != nil {
		return Bundle{}, fmt.Errorf("close report page: %w", err)
	}

	g.logger.Info("report bundle written",
		zap.String("dir", dir),
		zap.Int("posts", snap.TotalPosts))
	return bundle, nil
}

func (g *Generator) writeChart(path string, chart Chart, snap *analyzer.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s chart: %w", chart, err)
	}
	if err := g.renderer.Render(f, chart, snap); err != nil {
		f.Close()
		return fmt.Errorf("render %s chart: %w", chart, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s chart: %w", chart, err)
	}
	return nil
}

// categoryLabel maps category names to the display labels used in charts and
// report tables.
func categoryLabel(c rights.Category) string {
	switch c {
	case rights.CategoryMedicalBeauty:
		return "医美"
	case rights.CategoryMaleHealth:
		return "男科"
	case rights.CategoryGeneralRights:
		return "大众维权"
	default:
		return string(c)
	}
}

// orderedCategories lists the snapshot's categories in canonical order.
func orderedCategories(snap *analyzer.Snapshot) []rights.Category {
	ordered := make([]rights.Category, 0, len(snap.CategoryCounts))
	for _, category := range rights.AllCategories() {
		if _, ok := snap.CategoryCounts[category]; ok {
			ordered = append(ordered, category)
		}
	}
	return ordered
}
