// Package cnn fetches the CNN Fear & Greed index family through the RapidAPI
// gateway and normalizes the payload into daily readings.
package cnn

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/CunXin1/fearwatch/internal/models"
)

// Client provides access to the CNN Fear & Greed API.
type Client struct {
	baseURL        string
	apiKey         string
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
}

// indexPayload wraps the latest-index response: one item per sub-index.
type indexPayload struct {
	Data map[string]indexItem `json:"data"`
}

// historicalPayload wraps the historical response for a single sub-index.
type historicalPayload struct {
	Data []indexItem `json:"data"`
}

// indexItem is one observation as the API serves it. Timestamp and Date are
// both optional; Score may be absent for indexes the API is missing data for.
type indexItem struct {
	Score     *float64 `json:"score"`
	Rating    string   `json:"rating"`
	Timestamp string   `json:"timestamp"`
	Date      string   `json:"date"`
}

// NewClient creates a new CNN Fear & Greed client.
func NewClient(baseURL, apiKey string, timeout time.Duration, maxRetries int, retryDelayBase time.Duration) *Client {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

// FetchLatest retrieves today's observation for every supported sub-index.
// Items without a numeric score are skipped.
func (c *Client) FetchLatest(ctx context.Context) ([]models.Reading, error) {
	resp, err := c.doRequest(ctx, c.baseURL+"/cnn/v1/fear_and_greed/index")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("latest index request failed: status %d", resp.StatusCode)
	}

	var payload indexPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode latest index: %w", err)
	}

	now := time.Now().UTC()
	var readings []models.Reading
	for _, name := range models.SupportedIndexes {
		item, ok := payload.Data[name]
		if !ok {
			continue
		}
		r, err := normalizeItem(name, item, now)
		if err != nil {
			continue
		}
		readings = append(readings, r)
	}
	return readings, nil
}

// FetchHistorical retrieves the historical series for one sub-index.
// A 404 means the index has no historical endpoint; that is reported as
// (nil, nil) so callers can skip it.
func (c *Client) FetchHistorical(ctx context.Context, indexName string) ([]models.Reading, error) {
	u := fmt.Sprintf("%s/cnn/v1/%s/historical?order=desc", c.baseURL, url.PathEscape(indexName))
	resp, err := c.doRequest(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s historical: %w", indexName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s historical request failed: status %d", indexName, resp.StatusCode)
	}

	var payload historicalPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode %s historical: %w", indexName, err)
	}

	now := time.Now().UTC()
	var readings []models.Reading
	for _, item := range payload.Data {
		r, err := normalizeItem(indexName, item, now)
		if err != nil {
			continue
		}
		readings = append(readings, r)
	}
	return readings, nil
}

// doRequest performs a GET with RapidAPI headers and linear-backoff retry on
// transport errors and 5xx responses.
func (c *Client) doRequest(ctx context.Context, urlStr string) (*http.Response, error) {
	u, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("x-rapidapi-key", c.apiKey)
		req.Header.Set("x-rapidapi-host", u.Host)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(c.retryDelayBase * time.Duration(i+1))
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			time.Sleep(c.retryDelayBase * time.Duration(i+1))
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
