// Package platform implements the crawler service client. The service wraps
// the real social platform; this client only speaks its JSON search API and
// translates failures into the domain error kinds.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redresslabs/redress/internal/rights"
)

const searchPath = "/api/v1/search"

// Config captures the parameters for the crawler service client.
type Config struct {
	BaseURL   string
	Cookie    string
	UserAgent string
	Timeout   time.Duration
	PageLimit int
}

// Client talks to the crawler service search endpoint.
type Client struct {
	baseURL   string
	cookie    string
	userAgent string
	pageLimit int
	client    *http.Client
}

// Ensure Client implements rights.Searcher.
var _ rights.Searcher = (*Client)(nil)

// New validates the credential and endpoint up front: both are setup
// failures, reported before any network traffic.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("platform base URL is required: %w", rights.ErrSetup)
	}
	if strings.TrimSpace(cfg.Cookie) == "" {
		return nil, fmt.Errorf("platform cookie is required: %w", rights.ErrSetup)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	pageLimit := cfg.PageLimit
	if pageLimit <= 0 {
		pageLimit = 20
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		cookie:    cfg.Cookie,
		userAgent: cfg.UserAgent,
		pageLimit: pageLimit,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

type searchRequest struct {
	Keyword string `json:"keyword"`
	Limit   int    `json:"limit"`
}

type searchResponse struct {
	Success bool       `json:"success"`
	Msg     string     `json:"msg"`
	Data    searchData `json:"data"`
}

type searchData struct {
	Items []searchItem `json:"items"`
}

type searchUser struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
}

type searchItem struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Desc           string     `json:"desc"`
	User           searchUser `json:"user"`
	LikedCount     flexCount  `json:"liked_count"`
	CommentCount   flexCount  `json:"comment_count"`
	CollectedCount flexCount  `json:"collected_count"`
	PublishTime    int64      `json:"publish_time"`
	Images         []string   `json:"images"`
	Video          string     `json:"video"`
}

// Search implements rights.Searcher.
func (c *Client) Search(ctx context.Context, keyword string) ([]rights.RawPost, error) {
	payload, err := json.Marshal(searchRequest{Keyword: keyword, Limit: c.pageLimit})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+searchPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w: %v", rights.ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cookie", c.cookie)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w: %v", keyword, rights.ErrNetwork, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w: %v", rights.ErrNetwork, err)
	}

	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("search %q: status %d: %w", keyword, res.StatusCode, rights.ErrUnauthorized)
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("search %q: %w", keyword, rights.ErrRateLimited)
	default:
		return nil, fmt.Errorf("search %q: status %d: %w", keyword, res.StatusCode, rights.ErrNetwork)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w: %v", rights.ErrNetwork, err)
	}
	if !parsed.Success {
		return nil, fmt.Errorf("search %q rejected upstream: %s: %w", keyword, parsed.Msg, rights.ErrNetwork)
	}

	posts := make([]rights.RawPost, 0, len(parsed.Data.Items))
	for _, item := range parsed.Data.Items {
		posts = append(posts, item.toRawPost())
	}
	return posts, nil
}

func (i searchItem) toRawPost() rights.RawPost {
	p := rights.RawPost{
		ID:          i.ID,
		AuthorID:    i.User.UserID,
		AuthorName:  i.User.Nickname,
		Title:       i.Title,
		Body:        i.Desc,
		Likes:       int(i.LikedCount),
		Comments:    int(i.CommentCount),
		Favorites:   int(i.CollectedCount),
		PublishedAt: timeFromEpoch(i.PublishTime),
	}
	for _, url := range i.Images {
		if url != "" {
			p.Media = append(p.Media, rights.MediaRef{URL: url, Kind: rights.MediaImage})
		}
	}
	if i.Video != "" {
		p.Media = append(p.Media, rights.MediaRef{URL: i.Video, Kind: rights.MediaVideo})
	}
	return p
}

// timeFromEpoch accepts both millisecond and second precision timestamps.
func timeFromEpoch(v int64) time.Time {
	if v <= 0 {
		return time.Time{}
	}
	if v > 1_000_000_000_000 {
		return time.UnixMilli(v).UTC()
	}
	return time.Unix(v, 0).UTC()
}

// flexCount decodes interaction counters that arrive as numbers, numeric
// strings or shorthand like "1.2万". Unparsable values decode to zero;
// counter quality never discards a post.
type flexCount int

func (f *flexCount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	if s[0] == '"' {
		var unquoted string
		if err := json.Unmarshal(data, &unquoted); err != nil {
			*f = 0
			return nil
		}
		s = strings.TrimSpace(unquoted)
	}
	*f = flexCount(parseCount(s))
	return nil
}

func parseCount(s string) int {
	if s == "" {
		return 0
	}
	multiplier := 1.0
	switch {
	case strings.HasSuffix(s, "万"):
		multiplier = 10000
		s = strings.TrimSuffix(s, "万")
	case strings.HasSuffix(s, "w"), strings.HasSuffix(s, "W"):
		multiplier = 10000
		s = strings.TrimSuffix(strings.TrimSuffix(s, "w"), "W")
	}
	if n, err := strconv.Atoi(s); err == nil {
		return int(float64(n) * multiplier)
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return int(v * multiplier)
	}
	return 0
}
