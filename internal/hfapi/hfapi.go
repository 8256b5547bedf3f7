// Package hfapi fetches the HuggingFace daily papers list.
package hfapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/hzhou/vibepapers"
	"github.com/hzhou/vibepapers/internal/dateutil"
)

// DefaultBaseURL is the daily papers endpoint.
const DefaultBaseURL = "https://huggingface.co/api/daily_papers"

const (
	requestTimeout = 30 * time.Second
	maxAttempts    = 3
	retryBaseDelay = 2 * time.Second
	maxBodySize    = 16 << 20
)

// ErrFetchFailed indicates the daily papers list could not be retrieved.
var ErrFetchFailed = errors.New("fetching daily papers failed")

// Client fetches and ranks daily papers.
type Client struct {
	log        zerolog.Logger
	baseURL    string
	http       *http.Client
	retryDelay time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a Client with sane timeouts.
func NewClient(log zerolog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		log:        log,
		baseURL:    DefaultBaseURL,
		http:       &http.Client{Timeout: requestTimeout},
		retryDelay: retryBaseDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Feed item shapes, matching the upstream JSON.
type feedItem struct {
	Paper feedPaper `json:"paper"`
}

type feedPaper struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Summary     string       `json:"summary"`
	Authors     []feedAuthor `json:"authors"`
	Upvotes     int          `json:"upvotes"`
	PublishedAt string       `json:"publishedAt"`
}

type feedAuthor struct {
	Name string `json:"name"`
	User struct {
		FullName string `json:"fullname"`
	} `json:"user"`
}

// FetchDaily returns the top-N papers for the given day, most upvoted
// first. Items without an arXiv id are skipped. Transient failures are
// retried with backoff.
func (c *Client) FetchDaily(ctx context.Context, day time.Time, topN int) ([]*vibepapers.Paper, error) {
	dateStr := day.Format(dateutil.ISODate)
	c.log.Info().Str("date", dateStr).Int("top_n", topN).Msg("fetching daily papers")

	items, err := c.fetchWithRetry(ctx, dateStr)
	if err != nil {
		return nil, err
	}
	c.log.Info().Int("returned", len(items)).Str("date", dateStr).Msg("daily papers feed received")

	papers := make([]*vibepapers.Paper, 0, len(items))
	for _, item := range items {
		if item.Paper.ID == "" {
			continue
		}
		p := &vibepapers.Paper{
			ArxivID:     item.Paper.ID,
			Title:       item.Paper.Title,
			Summary:     item.Paper.Summary,
			Authors:     authorNames(item.Paper.Authors),
			Upvotes:     item.Paper.Upvotes,
			PublishedAt: item.Paper.PublishedAt,
		}
		p.DeriveLinks()
		papers = append(papers, p)
	}

	sort.SliceStable(papers, func(i, j int) bool {
		return papers[i].Upvotes > papers[j].Upvotes
	})
	if topN > 0 && len(papers) > topN {
		papers = papers[:topN]
	}

	ids := make([]string, len(papers))
	for i, p := range papers {
		ids[i] = p.ArxivID
	}
	c.log.Info().Strs("arxiv_ids", ids).Msg("selected papers")
	return papers, nil
}

func (c *Client) fetchWithRetry(ctx context.Context, dateStr string) ([]feedItem, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		items, err := c.fetchOnce(ctx, dateStr)
		if err == nil {
			return items, nil
		}
		lastErr = err
		if attempt == maxAttempts {
			break
		}

		delay := c.retryDelay * time.Duration(1<<(attempt-1))
		c.log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", delay).Msg("daily papers fetch failed")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrFetchFailed, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, dateStr string) ([]feedItem, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("date", dateStr)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, err
	}

	var items []feedItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decoding feed: %w", err)
	}
	return items, nil
}

// authorNames flattens the author records, preferring the plain name over
// the linked account's full name.
func authorNames(authors []feedAuthor) []string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		name := a.Name
		if name == "" {
			name = a.User.FullName
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
