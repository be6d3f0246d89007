package bilibili

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultSearchURL is the Bilibili web search endpoint for typed searches.
	DefaultSearchURL = "https://api.bilibili.com/x/web-interface/search/type"

	defaultUserAgent = "Mozilla/5.0 (PlayWithBilibili)"
	defaultReferer   = "https://www.bilibili.com"
)

// Client talks to the Bilibili search API. Outbound calls are rate limited;
// the endpoint throttles anonymous clients aggressively.
type Client struct {
	searchURL string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient builds a search client against the given endpoint (empty means
// DefaultSearchURL).
func NewClient(searchURL string) *Client {
	if searchURL == "" {
		searchURL = DefaultSearchURL
	}
	return &Client{
		searchURL: searchURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
	}
}

// Search runs one video search for the keyword. Order is pinned ascending so
// result ordering stays stable between calls. Transport failures, non-200
// statuses, API-level error codes and undecodable bodies all surface as
// errors; an empty result list does not.
func (c *Client) Search(ctx context.Context, keyword string) (*SearchResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	val := url.Values{}
	val.Set("search_type", "video")
	val.Set("keyword", keyword)
	val.Set("order_sort", "0")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL+"?"+val.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Referer", defaultReferer)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bilibili search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bilibili search: status %d", resp.StatusCode)
	}

	var body SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("bilibili search: decode: %w", err)
	}
	if body.Code != 0 {
		return nil, fmt.Errorf("bilibili search: api code %d: %s", body.Code, body.Message)
	}
	return &body, nil
}
