package alias

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

type Client struct {
	host       string
	token      string
	httpClient *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("alias API error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, host, token string) *Client {
	if host == "" {
		host = "https://sell-api.goat.com"
	}
	host = strings.TrimRight(host, "/")
	return &Client{
		host:       host,
		token:      token,
		httpClient: httpClient,
	}
}

func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	fullURL := c.host + path
	if len(query) > 0 {
		fullURL = fullURL + "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// GetAvailabilitiesRaw fetches variant availabilities for a catalog item.
// Returns the raw body alongside the decoded payload for snapshot archiving.
func (c *Client) GetAvailabilitiesRaw(ctx context.Context, catalogID, region string) ([]byte, *AvailabilityResponse, error) {
	if catalogID == "" {
		return nil, nil, fmt.Errorf("catalog_id is required")
	}
	query := url.Values{}
	query.Set("catalog_id", catalogID)
	if region != "" {
		query.Set("region", region)
	}
	body, err := c.doRequest(ctx, "/api/v1/availabilities", query)
	if err != nil {
		return nil, nil, err
	}
	var out AvailabilityResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return body, nil, fmt.Errorf("unexpected availabilities payload: %w", err)
	}
	return body, &out, nil
}

// GetRecentSales fetches individual sale records for a catalog item, newest
// first, for the volume backfill.
func (c *Client) GetRecentSales(ctx context.Context, catalogID string, limit int) ([]RecentSale, error) {
	if catalogID == "" {
		return nil, fmt.Errorf("catalog_id is required")
	}
	query := url.Values{}
	query.Set("catalog_id", catalogID)
	if limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", limit))
	}
	body, err := c.doRequest(ctx, "/api/v1/recent-purchases", query)
	if err != nil {
		return nil, err
	}
	var out RecentSalesResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("unexpected recent-sales payload: %w", err)
	}
	return out.Sales, nil
}
