package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/redresslabs/redress/internal/rights"
)

func TestAppendInsertsBatchInOneTransaction(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "posts")
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	posts := []rights.Post{
		{
			ID: "n1", Keyword: "医美退款", AuthorID: "u1", AuthorName: "小王",
			Title: "退款成功", Body: "协商记录", PublishedAt: now, CollectedAt: now,
			Likes: 12, Comments: 3, Favorites: 1,
			Media: []rights.MediaRef{{URL: "https://img.example.com/1.jpg", Kind: rights.MediaImage}},
		},
		{ID: "n2", Keyword: "医美退款", PublishedAt: now, CollectedAt: now},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO posts").
		WithArgs(
			"medical_beauty", "n1", "医美退款", "u1", "小王",
			"退款成功", "协商记录", now, 12, 3, 1, now,
			[]byte(`[{"url":"https://img.example.com/1.jpg","kind":"image"}]`),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO posts").
		WithArgs(
			"medical_beauty", "n2", "医美退款", "", "",
			"", "", now, 0, 0, 0, now,
			[]byte(`null`),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err = store.Append(context.Background(), rights.CategoryMedicalBeauty, posts)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendRollsBackOnInsertFailure(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "posts")
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO posts").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = store.Append(context.Background(), rights.CategoryGeneralRights, []rights.Post{{ID: "n1"}})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendEmptyBatchSkipsTransaction(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "posts")
	require.NoError(t, err)

	require.NoError(t, store.Append(context.Background(), rights.CategoryGeneralRights, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExistsQueriesPartition(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "posts")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("male_health", "n9").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := store.Exists(context.Background(), rights.CategoryMaleHealth, "n9")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScanDecodesRows(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "posts")
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	rows := pgxmock.NewRows([]string{
		"id", "keyword", "author_id", "author_name", "title", "body",
		"published_at", "likes", "comments", "favorites", "collected_at", "media",
	}).
		AddRow("n1", "消费维权", "u1", "阿青", "投诉有效", "", now, 5, 2, 0, now,
			[]byte(`[{"url":"https://img.example.com/2.jpg","kind":"image"}]`)).
		AddRow("n2", "退款维权", "u2", "", "", "退款成功", now, 0, 0, 0, now, []byte(nil))

	mock.ExpectQuery("SELECT id, keyword").
		WithArgs("general_rights").
		WillReturnRows(rows)

	var got []rights.Post
	err = store.Scan(context.Background(), rights.CategoryGeneralRights, func(p rights.Post) error {
		got = append(got, p)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, rights.CategoryGeneralRights, got[0].Category)
	require.Equal(t, "n1", got[0].ID)
	require.Len(t, got[0].Media, 1)
	require.Equal(t, "n2", got[1].ID)
	require.Empty(t, got[1].Media)
}

func TestNewWithPoolValidatesTableName(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewWithPool(mock, "posts; DROP TABLE posts")
	require.Error(t, err)

	_, err = NewWithPool(nil, "posts")
	require.Error(t, err)
}
