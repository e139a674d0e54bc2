// Package riskapi fetches the precomputed historical dataset from the
// climate risk backend.
package riskapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/clima-risk/climadash/internal/metrics"
	"github.com/clima-risk/climadash/internal/models"
)

// Client talks to the risk backend's historical endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	clock      clockwork.Clock
}

// NewClient creates a risk API client with the standard request timeout.
// A nil clock means real time.
func NewClient(baseURL string, timeout time.Duration, clock clockwork.Clock) *Client {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		clock:      clock,
	}
}

type riskResponse struct {
	Location string             `json:"location"`
	Daily    models.DailyArrays `json:"daily_summary"`
}

// FetchDataset loads the risk series and climatology for a location as a
// joined pair. Both requests must succeed before the dataset is usable;
// failure of either aborts the load with a single error.
func (c *Client) FetchDataset(ctx context.Context, lat, lon float64) (*models.Dataset, error) {
	var (
		risk riskResponse
		clim models.Climatology
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := c.getJSON(ctx, "/api/real/risk", lat, lon, &risk); err != nil {
			return fmt.Errorf("risk series: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := c.getJSON(ctx, "/api/climatology", lat, lon, &clim); err != nil {
			return fmt.Errorf("climatology: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		metrics.DatasetLoadsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	series, err := risk.Daily.Series()
	if err != nil {
		metrics.DatasetLoadsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("risk series: %w", err)
	}

	metrics.DatasetLoadsTotal.WithLabelValues("ok").Inc()
	return &models.Dataset{
		Series:      series,
		Climatology: clim,
		FetchedAt:   c.clock.Now().UTC(),
	}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, lat, lon float64, out any) error {
	params := url.Values{
		"lat": {fmt.Sprintf("%.6f", lat)},
		"lon": {fmt.Sprintf("%.6f", lon)},
	}
	u := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("fetch %s: status %d: %s", path, resp.StatusCode, string(b))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
