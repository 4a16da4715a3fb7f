package uf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// ErrRateUnavailable is returned when no UF value can be obtained,
// neither fresh nor cached.
var ErrRateUnavailable = errors.New("uf rate unavailable")

// Client fetches the daily UF value from the mindicador.cl API and
// caches it for a TTL, so the form helper does not hammer the service.
type Client struct {
	httpClient *http.Client
	apiURL     string
	ttl        time.Duration

	mu        sync.Mutex
	rate      float64
	fetchedAt time.Time
}

func NewClient(apiURL string, ttl time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiURL:     apiURL,
		ttl:        ttl,
	}
}

// indicatorResponse mirrors the mindicador.cl payload. Only the serie
// matters, the first entry holds the latest value.
type indicatorResponse struct {
	Serie []struct {
		Fecha time.Time `json:"fecha"`
		Valor float64   `json:"valor"`
	} `json:"serie"`
}

// DailyRate returns the current UF value in pesos. A cached value is
// served while fresh; a stale cached value is served as fallback when
// the API is unreachable.
func (c *Client) DailyRate(ctx context.Context) (float64, error) {
	c.mu.Lock()
	if c.rate > 0 && time.Since(c.fetchedAt) < c.ttl {
		rate := c.rate
		c.mu.Unlock()
		return rate, nil
	}
	c.mu.Unlock()

	rate, err := c.fetch(ctx)
	if err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.rate > 0 {
			return c.rate, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}

	c.mu.Lock()
	c.rate = rate
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	return rate, nil
}

func (c *Client) fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch uf rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fetch uf rate: unexpected status %d", resp.StatusCode)
	}

	var payload indicatorResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode uf response: %w", err)
	}

	if len(payload.Serie) == 0 || payload.Serie[0].Valor <= 0 {
		return 0, fmt.Errorf("uf response carries no usable value")
	}

	return payload.Serie[0].Valor, nil
}
