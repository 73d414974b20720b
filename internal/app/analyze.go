package app

import (
	"fmt"

	"github.com/redresslabs/redress/internal/analyzer"
	"github.com/redresslabs/redress/internal/report"
)

// Analyzer builds the corpus analyzer over the configured record store.
// Construction loads the segmentation dictionaries, so it is not free;
// callers should build one per command, not per category.
func (a *App) Analyzer() (*analyzer.Analyzer, error) {
	an, err := analyzer.New(analyzer.Config{
		TopKeywords:   a.cfg.Analysis.TopKeywords,
		TopAuthors:    a.cfg.Analysis.TopAuthors,
		TopPosts:      a.cfg.Analysis.TopPosts,
		MinTokenRunes: a.cfg.Analysis.MinTokenRunes,
	}, analyzer.Deps{
		Records: a.records,
		Logger:  a.logger.Named("analyzer"),
	})
	if err != nil {
		return nil, fmt.Errorf("analyzer init failed: %w", err)
	}
	return an, nil
}

// Reporter builds the report bundle generator. outDir overrides the
// configured analysis root when non-empty.
func (a *App) Reporter(outDir string) (*report.Generator, error) {
	if outDir == "" {
		outDir = a.cfg.AnalysisDir()
	}
	gen, err := report.New(report.Config{OutDir: outDir}, report.Deps{
		Logger: a.logger.Named("report"),
	})
	if err != nil {
		return nil, fmt.Errorf("report generator init failed: %w", err)
	}
	return gen, nil
}
