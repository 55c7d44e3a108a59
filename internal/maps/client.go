// Package maps talks to the Google Maps web services used for place search
// and driving-duration lookups.
package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL  = "https://maps.googleapis.com/maps/api"
	maxPlaceResults = 2
)

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cache      *matrixCache
	logger     *slog.Logger
}

func NewClient(apiKey, baseURL string, timeout, cacheTTL time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cache:  newMatrixCache(cacheTTL),
		logger: logger,
	}
}

// Enabled reports whether a credential is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("maps API response", "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("maps API returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// SearchPlaces runs a Places text search for query near the given address.
// Any failure yields no places.
func (c *Client) SearchPlaces(ctx context.Context, query, near string) []Place {
	if !c.Enabled() || near == "" {
		return nil
	}

	params := url.Values{}
	params.Set("query", fmt.Sprintf("%s near %s", query, near))

	var payload textSearchResponse
	if err := c.get(ctx, "/place/textsearch/json", params, &payload); err != nil {
		c.logger.Warn("place search failed", "query", query, "error", err)
		return nil
	}

	var places []Place
	for i, item := range payload.Results {
		if i == maxPlaceResults {
			break
		}
		name := item.Name
		if name == "" {
			name = query
		}
		places = append(places, Place{Name: name, Address: item.FormattedAddress})
	}
	return places
}

// DistanceMatrix looks up the driving duration between two addresses.
func (c *Client) DistanceMatrix(ctx context.Context, origin, destination string) (*MatrixResponse, error) {
	if !c.Enabled() {
		return nil, ErrNoCredential
	}
	key := origin + "\x00" + destination
	if cached := c.cache.Get(key); cached != nil {
		return cached, nil
	}

	params := url.Values{}
	params.Set("origins", origin)
	params.Set("destinations", destination)
	params.Set("mode", "driving")

	var payload MatrixResponse
	if err := c.get(ctx, "/distancematrix/json", params, &payload); err != nil {
		return nil, fmt.Errorf("distance matrix: %w", err)
	}
	c.cache.Set(key, &payload)
	return &payload, nil
}
