// Package booksearch implements the remote book search client. Results are
// handed to the cache manager, which owns local persistence; this package
// never touches the database.
package booksearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ExternalBook is a book record as returned by the remote search API.
type ExternalBook struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Authors       []string `json:"authors,omitempty"`
	Subtitle      string   `json:"subtitle,omitempty"`
	Description   string   `json:"description,omitempty"`
	CoverURL      string   `json:"cover_url,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
	Rating        float64  `json:"rating"`
}

// Author joins the author list into a single display string.
func (b ExternalBook) Author() string {
	return strings.Join(b.Authors, ", ")
}

// Client fetches book records from the volumes search API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	maxResults  int
	rateLimiter *rateLimiter
}

type rateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	return &rateLimiter{interval: interval}
}

func (r *rateLimiter) wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	since := time.Since(r.lastCall)
	if since < r.interval {
		time.Sleep(r.interval - since)
	}
	r.lastCall = time.Now()
}

// NewClient creates a search API client with rate limiting.
// An empty baseURL selects the public endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://www.googleapis.com/books/v1"
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:     baseURL,
		maxResults:  40,
		rateLimiter: newRateLimiter(200 * time.Millisecond),
	}
}

// FetchByQuery runs a free-text search and returns the matching books.
func (c *Client) FetchByQuery(ctx context.Context, query string) ([]ExternalBook, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty search query")
	}
	return c.fetchVolumes(ctx, query)
}

// FetchByCategory returns books under a subject/category.
func (c *Client) FetchByCategory(ctx context.Context, category string) ([]ExternalBook, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, fmt.Errorf("empty category")
	}
	return c.fetchVolumes(ctx, "subject:"+category)
}

func (c *Client) fetchVolumes(ctx context.Context, query string) ([]ExternalBook, error) {
	c.rateLimiter.wait()

	endpoint := fmt.Sprintf("%s/volumes?q=%s&maxResults=%d",
		c.baseURL, url.QueryEscape(query), c.maxResults)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "ReadScout/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch volumes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var data volumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	books := make([]ExternalBook, 0, len(data.Items))
	for _, item := range data.Items {
		if item.ID == "" || item.VolumeInfo.Title == "" {
			continue
		}
		books = append(books, ExternalBook{
			ID:            item.ID,
			Title:         item.VolumeInfo.Title,
			Authors:       item.VolumeInfo.Authors,
			Subtitle:      item.VolumeInfo.Subtitle,
			Description:   item.VolumeInfo.Description,
			CoverURL:      item.VolumeInfo.ImageLinks.Thumbnail,
			PublishedDate: item.VolumeInfo.PublishedDate,
			Rating:        item.VolumeInfo.AverageRating,
		})
	}
	return books, nil
}

type volumesResponse struct {
	Items []volumeItem `json:"items"`
}

type volumeItem struct {
	ID         string     `json:"id"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title         string   `json:"title"`
	Subtitle      string   `json:"subtitle"`
	Authors       []string `json:"authors"`
	Description   string   `json:"description"`
	PublishedDate string   `json:"publishedDate"`
	AverageRating float64  `json:"averageRating"`
	ImageLinks    struct {
		Thumbnail string `json:"thumbnail"`
	} `json:"imageLinks"`
}
