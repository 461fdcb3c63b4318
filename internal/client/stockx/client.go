package stockx

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
	apiKey     string
	token      string
	httpClient *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stockx API error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, host, apiKey, token string) *Client {
	if host == "" {
		host = "https://api.stockx.com"
	}
	host = strings.TrimRight(host, "/")
	return &Client{
		host:       host,
		apiKey:     apiKey,
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
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
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

// GetMarketDataRaw fetches per-variant market data for a product and returns
// both the raw body (for snapshot archiving) and the decoded payload.
func (c *Client) GetMarketDataRaw(ctx context.Context, productID, currencyCode string) ([]byte, []VariantMarketData, error) {
	if productID == "" {
		return nil, nil, fmt.Errorf("product_id is required")
	}
	query := url.Values{}
	if currencyCode != "" {
		query.Set("currencyCode", currencyCode)
	}
	body, err := c.doRequest(ctx, "/v2/catalog/products/"+url.PathEscape(productID)+"/market-data", query)
	if err != nil {
		return nil, nil, err
	}
	var items []VariantMarketData
	if err := json.Unmarshal(body, &items); err != nil {
		return body, nil, fmt.Errorf("unexpected market-data payload: %w", err)
	}
	return body, items, nil
}

// GetVariants fetches the product variants, used to build the
// variant-id -> size lookup before row building.
func (c *Client) GetVariants(ctx context.Context, productID string) ([]Variant, error) {
	if productID == "" {
		return nil, fmt.Errorf("product_id is required")
	}
	body, err := c.doRequest(ctx, "/v2/catalog/products/"+url.PathEscape(productID)+"/variants", nil)
	if err != nil {
		return nil, err
	}
	var items []Variant
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("unexpected variants payload: %w", err)
	}
	return items, nil
}

// GetProduct fetches catalog product details (style id, gender).
func (c *Client) GetProduct(ctx context.Context, productID string) (*Product, error) {
	if productID == "" {
		return nil, fmt.Errorf("product_id is required")
	}
	body, err := c.doRequest(ctx, "/v2/catalog/products/"+url.PathEscape(productID), nil)
	if err != nil {
		return nil, err
	}
	var item Product
	if err := json.Unmarshal(body, &item); err != nil {
		return nil, fmt.Errorf("unexpected product payload: %w", err)
	}
	return &item, nil
}
