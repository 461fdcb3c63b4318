package ebay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	SandboxTokenURL   = "https://api.sandbox.ebay.com/identity/v1/oauth2/token"
	SandboxAPIBaseURL = "https://api.sandbox.ebay.com"

	ProductionTokenURL   = "https://api.ebay.com/identity/v1/oauth2/token"
	ProductionAPIBaseURL = "https://api.ebay.com"
)

type Config struct {
	ClientID      string
	ClientSecret  string
	MarketplaceID string
	Sandbox       bool
}

type Client struct {
	baseURL       string
	marketplaceID string
	httpClient    *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ebay API error (%d): %s", e.Status, e.Body)
}

// NewClient builds a client whose underlying transport refreshes an
// application token via the client-credentials grant.
func NewClient(ctx context.Context, cfg Config) *Client {
	tokenURL := ProductionTokenURL
	baseURL := ProductionAPIBaseURL
	if cfg.Sandbox {
		tokenURL = SandboxTokenURL
		baseURL = SandboxAPIBaseURL
	}
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenURL,
		Scopes: []string{
			"https://api.ebay.com/oauth/api_scope",
			"https://api.ebay.com/oauth/api_scope/buy.marketplace.insights",
		},
		AuthStyle: oauth2.AuthStyleInHeader,
	}
	marketplaceID := strings.TrimSpace(cfg.MarketplaceID)
	if marketplaceID == "" {
		marketplaceID = "EBAY_US"
	}
	return &Client{
		baseURL:       baseURL,
		marketplaceID: marketplaceID,
		httpClient:    cc.Client(ctx),
	}
}

// NewClientWithHTTP builds a client over an already-authenticated transport.
func NewClientWithHTTP(httpClient *http.Client, baseURL, marketplaceID string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if marketplaceID == "" {
		marketplaceID = "EBAY_US"
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		marketplaceID: marketplaceID,
		httpClient:    httpClient,
	}
}

func (c *Client) MarketplaceID() string {
	return c.marketplaceID
}

func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL = fullURL + "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-EBAY-C-MARKETPLACE-ID", c.marketplaceID)
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

// SearchItemSales queries Marketplace Insights for sold items matching a
// style code, paging via offset. Returns the raw body for archiving.
func (c *Client) SearchItemSales(ctx context.Context, q string, limit, offset int) ([]byte, *ItemSalesResponse, error) {
	if strings.TrimSpace(q) == "" {
		return nil, nil, fmt.Errorf("query is required")
	}
	query := url.Values{}
	query.Set("q", q)
	if limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", limit))
	}
	if offset > 0 {
		query.Set("offset", fmt.Sprintf("%d", offset))
	}
	body, err := c.doRequest(ctx, "/buy/marketplace_insights/v1_beta/item_sales/search", query)
	if err != nil {
		return nil, nil, err
	}
	var out ItemSalesResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return body, nil, fmt.Errorf("unexpected item-sales payload: %w", err)
	}
	return body, &out, nil
}
