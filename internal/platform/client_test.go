package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/redresslabs/redress/internal/rights"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		BaseURL:   srv.URL,
		Cookie:    "session=abc",
		UserAgent: "redress-test/0.1",
		PageLimit: 10,
	})
	require.NoError(t, err)
	return c
}

func TestNewRequiresCredential(t *testing.T) {
	t.Parallel()

	_, err := New(Config{BaseURL: "http://localhost"})
	require.ErrorIs(t, err, rights.ErrSetup)

	_, err = New(Config{Cookie: "session=abc"})
	require.ErrorIs(t, err, rights.ErrSetup)
}

func TestSearchDecodesPosts(t *testing.T) {
	t.Parallel()

	var gotReq searchRequest
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/search", r.URL.Path)
		require.Equal(t, "session=abc", r.Header.Get("Cookie"))
		require.Equal(t, "redress-test/0.1", r.Header.Get("User-Agent"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"data": {"items": [{
				"id": "note-1",
				"title": "医美维权",
				"desc": "术后效果与宣传不符",
				"user": {"user_id": "u-9", "nickname": "小王"},
				"liked_count": "1.2万",
				"comment_count": 45,
				"collected_count": "380",
				"publish_time": 1719650000000,
				"images": ["https://img.example/a.jpg", ""],
				"video": "https://video.example/v.mp4"
			}]}
		}`))
	})

	c := newTestClient(t, handler)
	posts, err := c.Search(context.Background(), "医美 维权")
	require.NoError(t, err)

	require.Equal(t, "医美 维权", gotReq.Keyword)
	require.Equal(t, 10, gotReq.Limit)

	require.Len(t, posts, 1)
	p := posts[0]
	require.Equal(t, "note-1", p.ID)
	require.Equal(t, "u-9", p.AuthorID)
	require.Equal(t, "小王", p.AuthorName)
	require.Equal(t, "医美维权", p.Title)
	require.Equal(t, 12000, p.Likes)
	require.Equal(t, 45, p.Comments)
	require.Equal(t, 380, p.Favorites)
	require.Equal(t, time.UnixMilli(1719650000000).UTC(), p.PublishedAt)
	require.Equal(t, []rights.MediaRef{
		{URL: "https://img.example/a.jpg", Kind: rights.MediaImage},
		{URL: "https://video.example/v.mp4", Kind: rights.MediaVideo},
	}, p.Media)
}

func TestSearchMapsStatusCodes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		want   error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, want: rights.ErrUnauthorized},
		{name: "forbidden", status: http.StatusForbidden, want: rights.ErrUnauthorized},
		{name: "rate limited", status: http.StatusTooManyRequests, want: rights.ErrRateLimited},
		{name: "server error", status: http.StatusInternalServerError, want: rights.ErrNetwork},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
			}))
			_, err := c.Search(context.Background(), "kw")
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestSearchUpstreamRejection(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "msg": "risk control"}`))
	}))
	_, err := c.Search(context.Background(), "kw")
	require.ErrorIs(t, err, rights.ErrNetwork)
	require.Contains(t, err.Error(), "risk control")
}

func TestSearchTransportFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c, err := New(Config{BaseURL: srv.URL, Cookie: "session=abc"})
	require.NoError(t, err)

	_, err = c.Search(context.Background(), "kw")
	require.ErrorIs(t, err, rights.ErrNetwork)
}

func TestSearchEmptyResult(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success": true, "data": {"items": []}}`))
	}))
	posts, err := c.Search(context.Background(), "kw")
	require.NoError(t, err)
	require.Empty(t, posts)
}

func TestParseCount(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want int
	}{
		{in: "123", want: 123},
		{in: "1.2万", want: 12000},
		{in: "3万", want: 30000},
		{in: "2.5w", want: 25000},
		{in: "0", want: 0},
		{in: "", want: 0},
		{in: "赞", want: 0},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, parseCount(tc.in), "input %q", tc.in)
	}
}

func TestFlexCountUnmarshal(t *testing.T) {
	t.Parallel()

	var item searchItem
	raw := `{"liked_count": 7, "comment_count": "1.5万", "collected_count": null}`
	require.NoError(t, json.Unmarshal([]byte(raw), &item))
	require.Equal(t, flexCount(7), item.LikedCount)
	require.Equal(t, flexCount(15000), item.CommentCount)
	require.Equal(t, flexCount(0), item.CollectedCount)
}

func TestTimeFromEpoch(t *testing.T) {
	t.Parallel()

	require.True(t, timeFromEpoch(0).IsZero())
	require.Equal(t, time.Unix(1719650000, 0).UTC(), timeFromEpoch(1719650000))
	require.Equal(t, time.UnixMilli(1719650000000).UTC(), timeFromEpoch(1719650000000))
}
