package shopify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kushalyadavv/multi-address-backend/internal/config"
	"github.com/kushalyadavv/multi-address-backend/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(config.ShopifyConfig{
		StoreURL:    srv.URL,
		AccessToken: "shpat_abc",
		APIVersion:  "2024-07",
		Timeout:     2 * time.Second,
	}, nil)
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresStoreAndToken(t *testing.T) {
	_, err := NewClient(config.ShopifyConfig{AccessToken: "x"}, nil)
	var cfgErr *errors.ErrConfiguration
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "SHOPIFY_STORE_URL", cfgErr.Key)

	_, err = NewClient(config.ShopifyConfig{StoreURL: "demo.myshopify.com"}, nil)
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "SHOPIFY_ACCESS_TOKEN", cfgErr.Key)
}

func TestNewClient_NormalizesStoreURL(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"demo.myshopify.com", "https://demo.myshopify.com"},
		{"https://demo.myshopify.com/", "https://demo.myshopify.com"},
		{"http://127.0.0.1:9999", "http://127.0.0.1:9999"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			c, err := NewClient(config.ShopifyConfig{StoreURL: tt.input, AccessToken: "x"}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.baseURL)
			assert.Equal(t, "2024-01", c.apiVersion)
			assert.Equal(t, defaultTimeout, c.httpClient.Timeout)
		})
	}
}

func TestClient_GetOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/admin/api/2024-07/orders/1001.json", r.URL.Path)
		assert.Equal(t, "shpat_abc", r.Header.Get("X-Shopify-Access-Token"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"order":{"id":1001,"name":"#1001","currency":"USD","line_items":[{"id":1,"variant_id":77,"title":"Mug","quantity":2,"price":"9.50","requires_shipping":true}]}}`))
	})

	order, err := client.GetOrder(context.Background(), 1001)
	require.NoError(t, err)
	assert.Equal(t, int64(1001), order.ID)
	require.Len(t, order.LineItems, 1)
	require.NotNil(t, order.LineItems[0].VariantID)
	assert.Equal(t, int64(77), *order.LineItems[0].VariantID)
	assert.True(t, order.LineItems[0].RequiresShipping)
}

func TestClient_APIError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"string errors", http.StatusNotFound, `{"errors":"Not Found"}`, "Not Found"},
		{"field errors", http.StatusUnprocessableEntity, `{"errors":{"value":["is invalid"]}}`, "value: is invalid"},
		{"plain body", http.StatusBadGateway, `upstream timeout`, "upstream timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.GetOrder(context.Background(), 1)
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, "/orders/1.json", apiErr.Path)
		})
	}
}

func TestClient_CreateOrderMetafield(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/admin/api/2024-07/orders/42/metafields.json", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "multi_address", body["metafield"]["namespace"])
		assert.NotContains(t, body["metafield"], "created_at")

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"metafield":{"id":555,"namespace":"multi_address","key":"shipping_addresses","type":"json","value":"{}","updated_at":"2024-03-01T12:00:00Z"}}`))
	})

	mf, err := client.CreateOrderMetafield(context.Background(), 42, Metafield{
		Namespace: "multi_address",
		Key:       "shipping_addresses",
		Type:      "json",
		Value:     "{}",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(555), mf.ID)
	assert.True(t, mf.UpdatedAt.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))
}

func TestClient_CompleteDraftOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/admin/api/2024-07/draft_orders/31/complete.json", r.URL.Path)
		_, _ = w.Write([]byte(`{"draft_order":{"id":31,"status":"completed","order_id":8001}}`))
	})

	draft, err := client.CompleteDraftOrder(context.Background(), 31)
	require.NoError(t, err)
	require.NotNil(t, draft.OrderID)
	assert.Equal(t, int64(8001), *draft.OrderID)
}

func TestClient_DeleteOrderMetafieldEmptyBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, client.DeleteOrderMetafield(context.Background(), 1, 2))
}
