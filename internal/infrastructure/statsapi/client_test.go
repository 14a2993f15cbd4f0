package statsapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"SubredditStats/internal/config"
	"SubredditStats/internal/domain"
)

func testConfig(baseURL string) config.StatsAPIConfig {
	return config.StatsAPIConfig{
		BaseURL:   baseURL,
		UserAgent: "SubredditStats/test",
	}
}

func TestFetchSeriesParsesPoints(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("name"); got != "golang" {
			t.Errorf("expected name=golang, got %s", got)
		}
		_, _ = w.Write([]byte(`{
			"subscriberCountTimeSeries": [
				{"utcDay": 0, "count": 100},
				{"utcDay": 18262, "count": 250000},
				{"utcDay": 18263}
			]
		}`))
	}))
	defer server.Close()

	c := NewClient(testConfig(server.URL), server.Client())

	result, err := c.FetchSeries(context.Background(), "golang")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if result.Status != domain.FetchSuccess {
		t.Fatalf("expected success, got %s", result.Status)
	}
	if len(result.Points) != 2 {
		t.Fatalf("expected 2 points (incomplete entry skipped), got %d", len(result.Points))
	}
	if result.Points[0].Date != "1970-01-01" || result.Points[0].Subscribers != 100 {
		t.Fatalf("unexpected first point: %+v", result.Points[0])
	}
	if result.Points[1].Date != "2020-01-01" || result.Points[1].Subscribers != 250000 {
		t.Fatalf("unexpected second point: %+v", result.Points[1])
	}
}

func TestFetchSeriesEmptySeriesIsSuccess(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := NewClient(testConfig(server.URL), server.Client())

	result, err := c.FetchSeries(context.Background(), "ghosttown")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if result.Status != domain.FetchSuccess {
		t.Fatalf("expected success for empty series, got %s", result.Status)
	}
	if len(result.Points) != 0 {
		t.Fatalf("expected no points, got %d", len(result.Points))
	}
}

func TestFetchSeriesStatusClassification(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		code   int
		status domain.FetchStatus
	}{
		{"not found", http.StatusNotFound, domain.FetchNotFound},
		{"forbidden", http.StatusForbidden, domain.FetchPermanentFailure},
		{"unauthorized", http.StatusUnauthorized, domain.FetchPermanentFailure},
		{"bad request", http.StatusBadRequest, domain.FetchPermanentFailure},
		{"rate limited", http.StatusTooManyRequests, domain.FetchTransientFailure},
		{"request timeout", http.StatusRequestTimeout, domain.FetchTransientFailure},
		{"server error", http.StatusInternalServerError, domain.FetchTransientFailure},
		{"bad gateway", http.StatusBadGateway, domain.FetchTransientFailure},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.code)
			}))
			defer server.Close()

			c := NewClient(testConfig(server.URL), server.Client())

			result, err := c.FetchSeries(context.Background(), "golang")
			if err != nil {
				t.Fatalf("fetch: %v", err)
			}
			if result.Status != tc.status {
				t.Fatalf("status %d: expected %s, got %s", tc.code, tc.status, result.Status)
			}
		})
	}
}

func TestFetchSeriesTransportErrorIsTransient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	c := NewClient(testConfig(server.URL), nil)

	result, err := c.FetchSeries(context.Background(), "golang")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if result.Status != domain.FetchTransientFailure {
		t.Fatalf("expected transient failure for refused connection, got %s", result.Status)
	}
	if result.Reason == "" {
		t.Fatal("expected a reason for the transient failure")
	}
}

func TestUtcDayToDate(t *testing.T) {
	t.Parallel()

	if got := utcDayToDate(0); got != "1970-01-01" {
		t.Fatalf("day 0: got %s", got)
	}
	if got := utcDayToDate(19723); got != "2024-01-01" {
		t.Fatalf("day 19723: got %s", got)
	}
}
