// Package xlsx implements the default record store: one workbook per
// appended batch under excel/<category>/, mirroring the layout analysts
// already work with.
package xlsx

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/redresslabs/redress/internal/rights"
)

const sheet = "Sheet1"

// Column layout of record workbooks. Order is part of the on-disk contract;
// Scan decodes by position.
var columns = []string{
	"id", "keyword", "author_id", "author_name", "title", "body",
	"published_at", "likes", "comments", "favorites", "collected_at", "media",
}

// Config captures the parameters for the xlsx record store.
type Config struct {
	// BaseDir is the root of the per-category workbook tree.
	BaseDir string `mapstructure:"base_dir"`
}

// Store writes each batch as its own workbook and keeps an in-memory ID
// index per category. One writer per category at a time; the batch becomes
// visible only through the final rename.
type Store struct {
	baseDir string

	mu    sync.RWMutex
	index map[rights.Category]map[string]bool

	writeMu map[rights.Category]*sync.Mutex
}

// New opens the store rooted at cfg.BaseDir, creating it when missing, and
// rebuilds the ID index from the workbooks already on disk.
func New(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	if err := os.MkdirAll(cfg.BaseDir, 0o750); err != nil {
		return nil, fmt.Errorf("create base directory: %w", err)
	}

	// Check for write permissions.
	probe := filepath.Join(cfg.BaseDir, ".writable_test")
	if err := os.WriteFile(probe, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("base directory is not writable: %w", err)
	}
	if err := os.Remove(probe); err != nil {
		return nil, fmt.Errorf("failed to clean up test file: %w", err)
	}

	s := &Store{
		baseDir: cfg.BaseDir,
		index:   make(map[rights.Category]map[string]bool),
		writeMu: make(map[rights.Category]*sync.Mutex),
	}
	for _, c := range rights.AllCategories() {
		s.index[c] = make(map[string]bool)
		s.writeMu[c] = &sync.Mutex{}
	}
	if err := s.buildIndex(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) buildIndex() error {
	for _, category := range rights.AllCategories() {
		files, err := s.listFiles(category)
		if err != nil {
			return err
		}
		for _, path := range files {
			ids, err := readIDs(path)
			if err != nil {
				return fmt.Errorf("index %s: %w", path, err)
			}
			for _, id := range ids {
				s.index[category][id] = true
			}
		}
	}
	return nil
}

func (s *Store) listFiles(category rights.Category) ([]string, error) {
	pattern := filepath.Join(s.baseDir, string(category), "*.xlsx")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("list workbooks: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// Append writes the batch as one workbook. The file is assembled under a
// temp name and renamed into place, so readers never observe a partial
// batch. IDs already present in the partition are rejected.
func (s *Store) Append(_ context.Context, category rights.Category, posts []rights.Post) error {
	if len(posts) == 0 {
		return nil
	}
	wmu, ok := s.writeMu[category]
	if !ok {
		return fmt.Errorf("unknown category %q", category)
	}
	wmu.Lock()
	defer wmu.Unlock()

	s.mu.RLock()
	for _, p := range posts {
		if s.index[category][p.ID] {
			s.mu.RUnlock()
			return fmt.Errorf("duplicate post %q in category %s", p.ID, category)
		}
	}
	s.mu.RUnlock()

	dir := filepath.Join(s.baseDir, string(category))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create category directory: %w", err)
	}

	final := filepath.Join(dir, batchFileName(dir, posts[0].Keyword, time.Now().UTC()))
	tmp := filepath.Join(dir, ".tmp-"+filepath.Base(final))
	if err := writeWorkbook(tmp, posts); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("publish workbook: %w", err)
	}

	s.mu.Lock()
	for _, p := range posts {
		s.index[category][p.ID] = true
	}
	s.mu.Unlock()
	return nil
}

// Exists reports whether the category partition already holds the ID.
func (s *Store) Exists(_ context.Context, category rights.Category, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index[category][id], nil
}

// Scan streams every record of the category in workbook order. The file
// list is fixed when the scan starts; batches appended afterwards are not
// visited.
func (s *Store) Scan(ctx context.Context, category rights.Category, fn func(rights.Post) error) error {
	files, err := s.listFiles(category)
	if err != nil {
		return err
	}
	for _, path := range files {
		if err := scanFile(ctx, path, category, fn); err != nil {
			return err
		}
	}
	return nil
}

// Close implements rights.RecordStore; workbooks are closed after every
// write, so there is nothing to release.
func (s *Store) Close() error {
	return nil
}

func scanFile(ctx context.Context, path string, category rights.Category, fn func(rights.Post) error) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.Rows(sheet)
	if err != nil {
		return fmt.Errorf("read workbook %s: %w", path, err)
	}
	defer rows.Close()

	header := true
	line := 0
	for rows.Next() {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}
		cells, err := rows.Columns()
		if err != nil {
			return fmt.Errorf("read row %d of %s: %w", line, path, err)
		}
		if header {
			header = false
			continue
		}
		post, err := decodeRow(cells)
		if err != nil {
			return fmt.Errorf("decode row %d of %s: %w", line, path, err)
		}
		post.Category = category
		if err := fn(post); err != nil {
			return err
		}
	}
	return nil
}

func readIDs(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}
	defer rows.Close()

	var ids []string
	header := true
	for rows.Next() {
		cells, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if header {
			header = false
			continue
		}
		if len(cells) > 0 && cells[0] != "" {
			ids = append(ids, cells[0])
		}
	}
	return ids, nil
}

func writeWorkbook(path string, posts []rights.Post) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, p := range posts {
		row, err := encodeRow(p)
		if err != nil {
			return err
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("row coordinates: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func encodeRow(p rights.Post) ([]any, error) {
	media := ""
	if len(p.Media) > 0 {
		raw, err := json.Marshal(p.Media)
		if err != nil {
			return nil, fmt.Errorf("encode media of %q: %w", p.ID, err)
		}
		media = string(raw)
	}
	return []any{
		p.ID, p.Keyword, p.AuthorID, p.AuthorName, p.Title, p.Body,
		p.PublishedAt.UTC().Format(time.RFC3339), p.Likes, p.Comments,
		p.Favorites, p.CollectedAt.UTC().Format(time.RFC3339), media,
	}, nil
}

func decodeRow(cells []string) (rights.Post, error) {
	if len(cells) < len(columns) {
		padded := make([]string, len(columns))
		copy(padded, cells)
		cells = padded
	}
	if cells[0] == "" {
		return rights.Post{}, fmt.Errorf("missing id")
	}
	p := rights.Post{
		ID:         cells[0],
		Keyword:    cells[1],
		AuthorID:   cells[2],
		AuthorName: cells[3],
		Title:      cells[4],
		Body:       cells[5],
	}
	var err error
	if cells[6] != "" {
		if p.PublishedAt, err = time.Parse(time.RFC3339, cells[6]); err != nil {
			return rights.Post{}, fmt.Errorf("parse published_at: %w", err)
		}
	}
	if p.Likes, err = parseCount(cells[7]); err != nil {
		return rights.Post{}, fmt.Errorf("parse likes: %w", err)
	}
	if p.Comments, err = parseCount(cells[8]); err != nil {
		return rights.Post{}, fmt.Errorf("parse comments: %w", err)
	}
	if p.Favorites, err = parseCount(cells[9]); err != nil {
		return rights.Post{}, fmt.Errorf("parse favorites: %w", err)
	}
	if cells[10] != "" {
		if p.CollectedAt, err = time.Parse(time.RFC3339, cells[10]); err != nil {
			return rights.Post{}, fmt.Errorf("parse collected_at: %w", err)
		}
	}
	if cells[11] != "" {
		if err := json.Unmarshal([]byte(cells[11]), &p.Media); err != nil {
			return rights.Post{}, fmt.Errorf("decode media: %w", err)
		}
	}
	return p, nil
}

func parseCount(cell string) (int, error) {
	if cell == "" {
		return 0, nil
	}
	return strconv.Atoi(cell)
}

// batchFileName builds <keyword>_<stamp>.xlsx, suffixing a counter when a
// batch for the same keyword lands within the same second.
func batchFileName(dir, keyword string, now time.Time) string {
	base := fmt.Sprintf("%s_%s", sanitizeKeyword(keyword), now.Format(rights.StampLayout))
	name := base + ".xlsx"
	for i := 1; ; i++ {
		if _, err := os.Stat(filepath.Join(dir, name)); os.IsNotExist(err) {
			return name
		}
		name = fmt.Sprintf("%s_%d.xlsx", base, i)
	}
}

func sanitizeKeyword(keyword string) string {
	if keyword == "" {
		return "batch"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		default:
			return r
		}
	}, keyword)
}
