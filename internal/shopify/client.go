package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kushalyadavv/multi-address-backend/internal/config"
	"github.com/kushalyadavv/multi-address-backend/internal/logger"
)

const defaultTimeout = 30 * time.Second

type Client struct {
	baseURL     string
	accessToken string
	apiVersion  string
	httpClient  *http.Client
	logger      *zap.Logger
}

// APIError is returned for any non-2xx answer from the Admin API
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shopify API error: %s %s: status %d, body: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// NewClient creates a new Shopify Admin REST client. The store URL may be a
// bare domain (demo.myshopify.com) or a full URL; bare domains use https.
func NewClient(cfg config.ShopifyConfig, log *zap.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := strings.TrimSuffix(strings.TrimSpace(cfg.StoreURL), "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}

	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = "2024-01"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:     baseURL,
		accessToken: cfg.AccessToken,
		apiVersion:  apiVersion,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.OrNop(log),
	}, nil
}

// Do sends one request to /admin/api/{version}{path}. body and out may be nil.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	url := fmt.Sprintf("%s/admin/api/%s%s", c.baseURL, c.apiVersion, path)

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("Shopify request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(respBody),
		}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w, body: %s", err, string(respBody))
	}
	return nil
}

// errorMessage extracts the "errors" member Shopify puts on failed REST calls.
// It is either a string or an object of field -> messages.
func errorMessage(body []byte) string {
	var payload struct {
		Errors json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Errors) == 0 {
		return strings.TrimSpace(string(body))
	}

	var msg string
	if err := json.Unmarshal(payload.Errors, &msg); err == nil {
		return msg
	}

	var fields map[string][]string
	if err := json.Unmarshal(payload.Errors, &fields); err == nil {
		parts := make([]string, 0, len(fields))
		for field, msgs := range fields {
			parts = append(parts, field+": "+strings.Join(msgs, ", "))
		}
		return strings.Join(parts, "; ")
	}

	return string(payload.Errors)
}

// GetOrder fetches a single order
func (c *Client) GetOrder(ctx context.Context, orderID int64) (*Order, error) {
	var resp OrderResponse
	if err := c.Do(ctx, http.MethodGet, OrderPath(orderID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Order, nil
}

// UpdateOrderNote replaces the order note
func (c *Client) UpdateOrderNote(ctx context.Context, orderID int64, note string) error {
	req := OrderNoteRequest{Order: OrderNoteUpdate{ID: orderID, Note: note}}
	return c.Do(ctx, http.MethodPut, OrderPath(orderID), req, nil)
}

// ListOrderMetafields returns all metafields attached to an order
func (c *Client) ListOrderMetafields(ctx context.Context, orderID int64) ([]Metafield, error) {
	var resp MetafieldsResponse
	if err := c.Do(ctx, http.MethodGet, OrderMetafieldsPath(orderID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Metafields, nil
}

func (c *Client) GetOrderMetafield(ctx context.Context, orderID, metafieldID int64) (*Metafield, error) {
	var resp MetafieldEnvelope
	if err := c.Do(ctx, http.MethodGet, OrderMetafieldPath(orderID, metafieldID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Metafield, nil
}

func (c *Client) CreateOrderMetafield(ctx context.Context, orderID int64, mf Metafield) (*Metafield, error) {
	var resp MetafieldEnvelope
	if err := c.Do(ctx, http.MethodPost, OrderMetafieldsPath(orderID), MetafieldEnvelope{Metafield: mf}, &resp); err != nil {
		return nil, err
	}
	return &resp.Metafield, nil
}

// UpdateOrderMetafield rewrites the value of an existing metafield, keeping its id
func (c *Client) UpdateOrderMetafield(ctx context.Context, orderID int64, mf Metafield) (*Metafield, error) {
	var resp MetafieldEnvelope
	if err := c.Do(ctx, http.MethodPut, OrderMetafieldPath(orderID, mf.ID), MetafieldEnvelope{Metafield: mf}, &resp); err != nil {
		return nil, err
	}
	return &resp.Metafield, nil
}

func (c *Client) DeleteOrderMetafield(ctx context.Context, orderID, metafieldID int64) error {
	return c.Do(ctx, http.MethodDelete, OrderMetafieldPath(orderID, metafieldID), nil, nil)
}

// CreateDraftOrder creates a draft order and returns it
func (c *Client) CreateDraftOrder(ctx context.Context, input DraftOrderInput) (*DraftOrder, error) {
	var resp DraftOrderResponse
	if err := c.Do(ctx, http.MethodPost, draftOrdersPath, DraftOrderRequest{DraftOrder: input}, &resp); err != nil {
		return nil, err
	}
	return &resp.DraftOrder, nil
}

// CompleteDraftOrder turns a draft into a real order; the result carries order_id
func (c *Client) CompleteDraftOrder(ctx context.Context, draftOrderID int64) (*DraftOrder, error) {
	var resp DraftOrderResponse
	if err := c.Do(ctx, http.MethodPut, DraftOrderCompletePath(draftOrderID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.DraftOrder, nil
}
