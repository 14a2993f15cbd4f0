package statsapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"SubredditStats/internal/config"
	"SubredditStats/internal/ports"
)

// Probe fetches the service root once and reports the status line and the
// HTML page title, so the log shows whether a sustained failure streak is
// an outage or a block/interstitial page. Purely diagnostic; it never
// feeds the engine's state machine.
type Probe struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

var _ ports.BlockProbe = (*Probe)(nil)

// NewProbe wires an HTTP client; a nil client gets a short fixed timeout.
func NewProbe(cfg config.StatsAPIConfig, httpClient *http.Client) *Probe {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Probe{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		client:    httpClient,
	}
}

// Check issues one GET against the service root and summarizes what came
// back.
func (p *Probe) Check(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("probe root: %w", err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return resp.Status, nil
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return resp.Status, nil
	}
	return fmt.Sprintf("%s title=%q", resp.Status, title), nil
}
