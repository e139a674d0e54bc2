// Package geocode resolves place names to coordinates and coordinates to
// display names through a Nominatim-compatible service.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/clima-risk/climadash/internal/metrics"
)

// Result is a resolved place. Latitude and longitude are always set; the
// display name is whatever the service knows the place as.
type Result struct {
	Latitude    float64
	Longitude   float64
	DisplayName string
}

// Geocoder resolves queries in both directions. A (nil, nil) return means
// the lookup completed but matched nothing.
type Geocoder interface {
	Search(ctx context.Context, query string) (*Result, error)
	Reverse(ctx context.Context, lat, lon float64) (*Result, error)
}

const userAgent = "climadash/1.0 (climate risk dashboard)"

// Client implements Geocoder against a Nominatim-compatible endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a geocoding client. Nominatim's usage policy requires a
// descriptive User-Agent, which the client always sends.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// place is the wire shape Nominatim returns. Coordinates arrive as strings.
type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

func (p place) result() (*Result, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lat %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parse lon %q: %w", p.Lon, err)
	}
	return &Result{Latitude: lat, Longitude: lon, DisplayName: p.DisplayName}, nil
}

// Search resolves a free-form query to its best match.
func (c *Client) Search(ctx context.Context, query string) (*Result, error) {
	params := url.Values{
		"q":      {query},
		"format": {"json"},
		"limit":  {"1"},
	}

	body, err := c.get(ctx, "/search?"+params.Encode())
	if err != nil {
		metrics.GeocodeLookupsTotal.WithLabelValues("search", "error").Inc()
		return nil, err
	}

	var places []place
	if err := json.Unmarshal(body, &places); err != nil {
		metrics.GeocodeLookupsTotal.WithLabelValues("search", "error").Inc()
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if len(places) == 0 {
		metrics.GeocodeLookupsTotal.WithLabelValues("search", "miss").Inc()
		return nil, nil
	}

	res, err := places[0].result()
	if err != nil {
		metrics.GeocodeLookupsTotal.WithLabelValues("search", "error").Inc()
		return nil, err
	}
	metrics.GeocodeLookupsTotal.WithLabelValues("search", "ok").Inc()
	return res, nil
}

// Reverse resolves coordinates to a display name. Nominatim reports an
// unresolvable point as a 200 with an error field rather than a miss status.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (*Result, error) {
	params := url.Values{
		"lat":    {fmt.Sprintf("%.6f", lat)},
		"lon":    {fmt.Sprintf("%.6f", lon)},
		"format": {"json"},
	}

	body, err := c.get(ctx, "/reverse?"+params.Encode())
	if err != nil {
		metrics.GeocodeLookupsTotal.WithLabelValues("reverse", "error").Inc()
		return nil, err
	}

	var p place
	if err := json.Unmarshal(body, &p); err != nil {
		metrics.GeocodeLookupsTotal.WithLabelValues("reverse", "error").Inc()
		return nil, fmt.Errorf("decode reverse response: %w", err)
	}
	if p.Error != "" || p.DisplayName == "" {
		metrics.GeocodeLookupsTotal.WithLabelValues("reverse", "miss").Inc()
		return nil, nil
	}

	metrics.GeocodeLookupsTotal.WithLabelValues("reverse", "ok").Inc()
	return &Result{Latitude: lat, Longitude: lon, DisplayName: p.DisplayName}, nil
}

func (c *Client) get(ctx context.Context, pathAndQuery string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathAndQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("geocode service: status %d: %s", resp.StatusCode, body)
	}
	return io.ReadAll(resp.Body)
}
