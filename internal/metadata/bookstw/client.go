// Package bookstw scrapes book metadata from the books.com.tw search page.
// The lookup is best effort: the page has no API contract, so a miss or a
// markup change returns no result rather than an error the caller must act on.
package bookstw

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	searchBaseURL = "https://search.books.com.tw/search/query/key/"
	userAgent     = "Mozilla/5.0 (compatible; BooksCrawler/1.0)"
)

// Result is the metadata extracted for the first search hit.
type Result struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	Publisher     string `json:"publisher"`
	PublishedDate string `json:"publishedDate"`
	CoverURL      string `json:"coverUrl"`
}

// Patterns over the search result markup. Only the first hit is read.
var (
	titleRe     = regexp.MustCompile(`<h3[^>]*><a[^>]*>([^<]+)</a></h3>`)
	authorRe    = regexp.MustCompile(`<div[^>]*class="author"[^>]*>([^<]+)</div>`)
	publisherRe = regexp.MustCompile(`<div[^>]*class="publisher"[^>]*>([^<]+)</div>`)
	dateRe      = regexp.MustCompile(`<div[^>]*class="date"[^>]*>([^<]+)</div>`)
	coverRe     = regexp.MustCompile(`<img[^>]*class="cover"[^>]*src="([^"]+)"`)
)

// Client fetches book metadata from books.com.tw.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *slog.Logger
	baseURL     string
}

// NewClient creates a books.com.tw client.
// Rate limited to one request per 3 seconds to stay polite to the site.
func NewClient(logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		rateLimiter: rate.NewLimiter(rate.Every(3*time.Second), 5),
		logger:      logger,
		baseURL:     searchBaseURL,
	}
}

// WithBaseURL overrides the search URL. Used in tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}

// Search looks up a keyword and returns the first hit's metadata, or nil
// when the keyword is empty, nothing matches, or the markup has no title.
func (c *Client) Search(ctx context.Context, keyword string) (*Result, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, nil
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	searchURL := c.baseURL + url.PathEscape(keyword) + "/adv_sort/1/"

	c.logger.Debug("searching books.com.tw",
		"keyword", keyword,
		"url", searchURL,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search failed: status %d", resp.StatusCode)
	}

	html, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	result := parsePage(string(html))
	if result == nil {
		c.logger.Debug("no metadata found", "keyword", keyword)
		return nil, nil
	}

	c.logger.Debug("metadata found",
		"keyword", keyword,
		"title", result.Title,
	)
	return result, nil
}

// parsePage extracts the first hit from the search result markup.
// A page without a title heading yields nil.
func parsePage(html string) *Result {
	title := firstGroup(titleRe, html)
	if title == "" {
		return nil
	}

	return &Result{
		Title:         title,
		Author:        strings.TrimSpace(strings.TrimPrefix(firstGroup(authorRe, html), "作者：")),
		Publisher:     strings.TrimSpace(strings.TrimPrefix(firstGroup(publisherRe, html), "出版社：")),
		PublishedDate: firstGroup(dateRe, html),
		CoverURL:      firstGroup(coverRe, html),
	}
}

func firstGroup(re *regexp.Regexp, html string) string {
	m := re.FindStringSubmatch(html)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
