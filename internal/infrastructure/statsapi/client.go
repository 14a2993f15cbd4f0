package statsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"SubredditStats/internal/config"
	"SubredditStats/internal/domain"
	"SubredditStats/internal/ports"
)

// Client queries subredditstats.com for one subreddit's historical daily
// subscriber counts. It keeps no state between calls.
type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

var _ ports.StatsClient = (*Client)(nil)

// NewClient wires an HTTP client; a nil client gets the configured timeout.
func NewClient(cfg config.StatsAPIConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout()}
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		client:    httpClient,
	}
}

// statsResponse mirrors the remote payload. Points with a missing day or
// count are skipped.
type statsResponse struct {
	SubscriberCountTimeSeries []struct {
		UtcDay *int64 `json:"utcDay"`
		Count  *int64 `json:"count"`
	} `json:"subscriberCountTimeSeries"`
}

// FetchSeries issues one attempt against the stats endpoint and folds the
// response into a classified result.
func (c *Client) FetchSeries(ctx context.Context, subreddit string) (domain.FetchResult, error) {
	endpoint := fmt.Sprintf("%s/api/subreddit?name=%s", c.baseURL, url.QueryEscape(subreddit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.FetchResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return domain.FetchResult{}, ctx.Err()
		}
		return domain.FetchResult{Status: domain.FetchTransientFailure, Reason: err.Error()}, nil
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return c.decodeSeries(resp)
	case resp.StatusCode == http.StatusNotFound:
		return domain.FetchResult{Status: domain.FetchNotFound}, nil
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode >= http.StatusInternalServerError:
		return domain.FetchResult{Status: domain.FetchTransientFailure, Reason: resp.Status}, nil
	default:
		return domain.FetchResult{Status: domain.FetchPermanentFailure, Reason: resp.Status}, nil
	}
}

func (c *Client) decodeSeries(resp *http.Response) (domain.FetchResult, error) {
	var payload statsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.FetchResult{Status: domain.FetchTransientFailure, Reason: fmt.Sprintf("decode response: %v", err)}, nil
	}

	points := make([]domain.Point, 0, len(payload.SubscriberCountTimeSeries))
	for _, p := range payload.SubscriberCountTimeSeries {
		if p.UtcDay == nil || p.Count == nil {
			continue
		}
		points = append(points, domain.Point{
			Date:        utcDayToDate(*p.UtcDay),
			Subscribers: *p.Count,
		})
	}

	return domain.FetchResult{Status: domain.FetchSuccess, Points: points}, nil
}

// utcDayToDate converts days-since-epoch to an ISO date string.
func utcDayToDate(day int64) string {
	return time.Unix(day*86400, 0).UTC().Format("2006-01-02")
}
