package xlsx

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/redresslabs/redress/internal/rights"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := New(Config{BaseDir: dir})
	require.NoError(t, err)
	return s, dir
}

func TestNewRequiresBaseDir(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	require.Error(t, err)
}

func TestAppendRoundTrips(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	ctx := context.Background()

	published := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
	collected := time.Date(2026, 8, 25, 3, 0, 5, 0, time.UTC)
	batch := []rights.Post{
		{
			ID: "n1", Keyword: "医美退款", AuthorID: "u1", AuthorName: "小王",
			Title: "医美退款成功经验", Body: "和机构协商三周后全额退款",
			PublishedAt: published, CollectedAt: collected,
			Likes: 120, Comments: 45, Favorites: 30,
			Media: []rights.MediaRef{{URL: "https://img.example.com/1.jpg", Kind: rights.MediaImage}},
		},
		{
			ID: "n2", Keyword: "医美退款", AuthorID: "u2", AuthorName: "阿青",
			Title: "整形失败记录", Body: "",
			PublishedAt: published, CollectedAt: collected,
		},
	}
	require.NoError(t, s.Append(ctx, rights.CategoryMedicalBeauty, batch))

	var got []rights.Post
	require.NoError(t, s.Scan(ctx, rights.CategoryMedicalBeauty, func(p rights.Post) error {
		got = append(got, p)
		return nil
	}))
	require.Len(t, got, 2)

	require.Equal(t, "n1", got[0].ID)
	require.Equal(t, rights.CategoryMedicalBeauty, got[0].Category)
	require.Equal(t, "医美退款", got[0].Keyword)
	require.Equal(t, "小王", got[0].AuthorName)
	require.Equal(t, "和机构协商三周后全额退款", got[0].Body)
	require.Equal(t, 120, got[0].Likes)
	require.Equal(t, 45, got[0].Comments)
	require.Equal(t, 30, got[0].Favorites)
	require.True(t, got[0].PublishedAt.Equal(published))
	require.True(t, got[0].CollectedAt.Equal(collected))
	require.Len(t, got[0].Media, 1)
	require.Equal(t, rights.MediaImage, got[0].Media[0].Kind)

	require.Equal(t, "n2", got[1].ID)
	require.Empty(t, got[1].Media)
}

func TestIndexSurvivesReopen(t *testing.T) {
	t.Parallel()

	s, dir := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, rights.CategoryMaleHealth, []rights.Post{
		{ID: "n1", Keyword: "男科退款", Title: "t", CollectedAt: time.Now().UTC()},
	}))

	reopened, err := New(Config{BaseDir: dir})
	require.NoError(t, err)

	ok, err := reopened.Exists(ctx, rights.CategoryMaleHealth, "n1")
	require.NoError(t, err)
	require.True(t, ok)

	err = reopened.Append(ctx, rights.CategoryMaleHealth, []rights.Post{{ID: "n1"}})
	require.Error(t, err, "duplicate IDs must be rejected after reopen")
}

func TestAppendEmptyBatchWritesNothing(t *testing.T) {
	t.Parallel()

	s, dir := newTestStore(t)
	require.NoError(t, s.Append(context.Background(), rights.CategoryGeneralRights, nil))

	files, err := filepath.Glob(filepath.Join(dir, string(rights.CategoryGeneralRights), "*.xlsx"))
	require.NoError(t, err)
	require.Empty(t, files)
}

func TestScanIsSnapshotOfScanStart(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	ctx := context.Background()
	category := rights.CategoryGeneralRights

	require.NoError(t, s.Append(ctx, category, []rights.Post{{ID: "n1", Keyword: "消费维权"}}))

	var visited int
	require.NoError(t, s.Scan(ctx, category, func(rights.Post) error {
		visited++
		// Batches landing mid-scan must not be visited by this scan.
		return s.Append(ctx, category, []rights.Post{{ID: "n-late-" + string(rune('a'+visited)), Keyword: "维权经验"}})
	}))
	require.Equal(t, 1, visited)

	var total int
	require.NoError(t, s.Scan(ctx, category, func(rights.Post) error {
		total++
		return nil
	}))
	require.Equal(t, 2, total)
}

func TestSameSecondBatchesGetDistinctFiles(t *testing.T) {
	t.Parallel()

	s, dir := newTestStore(t)
	ctx := context.Background()
	category := rights.CategoryMedicalBeauty

	require.NoError(t, s.Append(ctx, category, []rights.Post{{ID: "a1", Keyword: "医美投诉"}}))
	require.NoError(t, s.Append(ctx, category, []rights.Post{{ID: "a2", Keyword: "医美投诉"}}))

	files, err := filepath.Glob(filepath.Join(dir, string(category), "*.xlsx"))
	require.NoError(t, err)
	require.Len(t, files, 2)
}

func TestDecodeRowRejectsMissingID(t *testing.T) {
	t.Parallel()

	_, err := decodeRow([]string{""})
	require.Error(t, err)
}
