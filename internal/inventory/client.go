// Package inventory is the HTTP client for the inventory backend.
//
// The backend owns the relational schema and all stock-accounting
// consistency rules; this client only mirrors its REST contract. Optional
// filters become query parameters when present and are omitted otherwise,
// which the backend treats as unbounded.
package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/stockchat/stockchat/internal/log"
)

// ErrInsufficientStock indicates the backend rejected an "out" movement
// that would drive a product's stock negative.
var ErrInsufficientStock = errors.New("insufficient stock")

// apiError is the backend's structured error body.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Client talks to the inventory backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     log.Logger
}

// New creates an inventory client. A nil httpClient means
// http.DefaultClient.
func New(baseURL string, httpClient *http.Client, logger log.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// GetSales returns movement totals for the filtered period. Absent filter
// fields leave the query unbounded.
func (c *Client) GetSales(ctx context.Context, filter SalesFilter) (*SalesSummary, error) {
	params := url.Values{}
	if filter.StartDate != "" {
		params.Set("start_date", filter.StartDate)
	}
	if filter.EndDate != "" {
		params.Set("end_date", filter.EndDate)
	}
	if filter.ProductID != 0 {
		params.Set("product_id", strconv.Itoa(filter.ProductID))
	}
	if filter.Category != "" {
		params.Set("category", filter.Category)
	}

	var summary SalesSummary
	if err := c.get(ctx, "/api/metrics/stock-movements", params, &summary); err != nil {
		return nil, fmt.Errorf("fetching sales: %w", err)
	}
	return &summary, nil
}

// GetCurrentStock lists stock levels for every product.
func (c *Client) GetCurrentStock(ctx context.Context) ([]StockLevel, error) {
	var levels []StockLevel
	if err := c.get(ctx, "/api/stock", nil, &levels); err != nil {
		return nil, fmt.Errorf("fetching stock listing: %w", err)
	}
	return levels, nil
}

// GetProductStock returns the stock level of a single product.
func (c *Client) GetProductStock(ctx context.Context, productID int) (*StockLevel, error) {
	var level StockLevel
	path := "/api/stock/product/" + strconv.Itoa(productID)
	if err := c.get(ctx, path, nil, &level); err != nil {
		return nil, fmt.Errorf("fetching stock for product %d: %w", productID, err)
	}
	return &level, nil
}

// GetMetricsSummary returns aggregate metrics for the filtered period.
func (c *Client) GetMetricsSummary(ctx context.Context, filter MetricsFilter) (MetricsSummary, error) {
	params := url.Values{}
	if filter.StartDate != "" {
		params.Set("start_date", filter.StartDate)
	}
	if filter.EndDate != "" {
		params.Set("end_date", filter.EndDate)
	}

	var summary MetricsSummary
	if err := c.get(ctx, "/api/metrics/summary", params, &summary); err != nil {
		return nil, fmt.Errorf("fetching metrics summary: %w", err)
	}
	return summary, nil
}

// GetProductByID returns a single product record.
func (c *Client) GetProductByID(ctx context.Context, id int) (*Product, error) {
	var product Product
	if err := c.get(ctx, "/api/products/"+strconv.Itoa(id), nil, &product); err != nil {
		return nil, fmt.Errorf("fetching product %d: %w", id, err)
	}
	return &product, nil
}

// GetPopularProducts lists the most-moved products, up to limit.
func (c *Client) GetPopularProducts(ctx context.Context, limit int) ([]Product, error) {
	params := url.Values{}
	params.Set("start", "0")
	params.Set("take", strconv.Itoa(limit))

	var products []Product
	if err := c.get(ctx, "/api/stock-movements/popular", params, &products); err != nil {
		return nil, fmt.Errorf("fetching popular products: %w", err)
	}
	return products, nil
}

// CreateStockMovement records a movement. The backend rejects any "out"
// movement that would drive stock negative; that rejection surfaces as
// ErrInsufficientStock.
func (c *Client) CreateStockMovement(ctx context.Context, input MovementInput) (*Movement, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("encoding movement: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/stock-movements", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building movement request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("creating stock movement: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, c.decodeError(resp)
	}

	var movement Movement
	if err := json.NewDecoder(resp.Body).Decode(&movement); err != nil {
		return nil, fmt.Errorf("decoding movement: %w", err)
	}
	return &movement, nil
}

// get performs a GET request and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// decodeError turns a non-2xx response into an error, recognizing the
// backend's structured stock-insufficiency rejection.
func (c *Client) decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var ae apiError
	if err := json.Unmarshal(body, &ae); err == nil {
		msg := ae.Message
		if msg == "" {
			msg = ae.Error
		}
		if strings.Contains(strings.ToLower(msg), "insufficient stock") {
			return fmt.Errorf("%w: %s", ErrInsufficientStock, msg)
		}
		if msg != "" {
			return fmt.Errorf("backend returned status %d: %s", resp.StatusCode, msg)
		}
	}
	return fmt.Errorf("backend returned status %d", resp.StatusCode)
}
