package api

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/redresslabs/redress/internal/progress"
	"github.com/redresslabs/redress/internal/rights"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 256
	defaultRunsLimit     = 20
	maxRunsLimit         = 100
)

// listActivity handles GET /v1/activity?limit=. It returns a JSON object
// {"events": [...]} with the most recent progress events newest first, 400 for
// an invalid limit, or 503 when no activity feed is wired.
func (s *Server) listActivity(w http.ResponseWriter, r *http.Request) {
	if s.activity == nil {
		writeError(w, http.StatusServiceUnavailable, "activity feed unavailable")
		return
	}
	limit, err := parseLimit(r, defaultActivityLimit, maxActivityLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	events := s.activity.Events()
	out := make([]eventDTO, 0, min(limit, len(events)))
	for i := len(events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, toEventDTO(events[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": out})
}

// listRuns handles GET /v1/runs?limit=. It returns {"runs": [...]} with the
// most recent run summaries newest first, 400 for an invalid limit, or 500
// when the runs directory cannot be read. A missing directory simply yields
// an empty list.
func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, defaultRunsLimit, maxRunsLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	runs, err := s.readRunSummaries(limit)
	if err != nil {
		s.logger.Error("list runs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// latestSnapshot handles GET /v1/snapshots/latest. It streams the newest
// snapshot.json from the analysis tree, or 404 when no analysis has run yet.
func (s *Server) latestSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.cfg.AnalysisDir == "" {
		writeError(w, http.StatusNotFound, "no analysis snapshot available")
		return
	}
	entries, err := os.ReadDir(s.cfg.AnalysisDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeError(w, http.StatusNotFound, "no analysis snapshot available")
			return
		}
		s.logger.Error("read analysis dir failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read analysis dir")
		return
	}
	// Bundle directories carry the snapshot's UTC stamp, so the last one
	// holding a snapshot.json is the newest analysis.
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(s.cfg.AnalysisDir, entry.Name(), "snapshot.json")
		if _, err := os.Stat(path); err != nil {
			continue
		}
		http.ServeFile(w, r, path)
		return
	}
	writeError(w, http.StatusNotFound, "no analysis snapshot available")
}

// readRunSummaries loads up to limit of the newest run summary files. File
// names begin with the run's UTC start stamp, so lexicographic directory
// order is chronological order. Malformed files are skipped with a warning.
func (s *Server) readRunSummaries(limit int) ([]rights.RunSummary, error) {
	runs := make([]rights.RunSummary, 0, limit)
	if s.cfg.RunsDir == "" {
		return runs, nil
	}
	entries, err := os.ReadDir(s.cfg.RunsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return runs, nil
		}
		return nil, err
	}
	for i := len(entries) - 1; i >= 0 && len(runs) < limit; i-- {
		entry := entries[i]
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(s.cfg.RunsDir, entry.Name()))
		if err != nil {
			return nil, err
		}
		var summary rights.RunSummary
		if err := json.Unmarshal(raw, &summary); err != nil {
			s.logger.Warn("skipping malformed run summary",
				zap.String("file", entry.Name()),
				zap.Error(err),
			)
			continue
		}
		runs = append(runs, summary)
	}
	return runs, nil
}

func parseLimit(r *http.Request, def, maxLimit int) (int, error) {
	limit := def
	if limStr := r.URL.Query().Get("limit"); limStr != "" {
		val, err := strconv.Atoi(limStr)
		if err != nil || val <= 0 {
			return 0, errors.New("invalid limit")
		}
		if val > maxLimit {
			val = maxLimit
		}
		limit = val
	}
	return limit, nil
}

func toEventDTO(e progress.Event) eventDTO {
	return eventDTO{
		RunID:    e.RunID,
		TS:       e.TS,
		Stage:    string(e.Stage),
		Category: string(e.Category),
		Keyword:  e.Keyword,
		Found:    e.Found,
		Fresh:    e.Fresh,
		Skipped:  e.Skipped,
		Bytes:    e.Bytes,
		DurMs:    e.Dur.Milliseconds(),
		Note:     e.Note,
	}
}

type eventDTO struct {
	RunID    string    `json:"run_id"`
	TS       time.Time `json:"ts"`
	Stage    string    `json:"stage"`
	Category string    `json:"category,omitempty"`
	Keyword  string    `json:"keyword,omitempty"`
	Found    int64     `json:"found,omitempty"`
	Fresh    int64     `json:"fresh,omitempty"`
	Skipped  int64     `json:"skipped,omitempty"`
	Bytes    int64     `json:"bytes,omitempty"`
	DurMs    int64     `json:"dur_ms,omitempty"`
	Note     string    `json:"note,omitempty"`
}
