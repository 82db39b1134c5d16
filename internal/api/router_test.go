package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kushalyadavv/multi-address-backend/internal/api/middleware"
	"github.com/kushalyadavv/multi-address-backend/internal/cache"
	"github.com/kushalyadavv/multi-address-backend/internal/config"
	"github.com/kushalyadavv/multi-address-backend/internal/service"
	"github.com/kushalyadavv/multi-address-backend/internal/shopify"
	"github.com/kushalyadavv/multi-address-backend/internal/shopify/shopifytest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router *gin.Engine
	fake   *shopifytest.Server
}

func int64Ptr(v int64) *int64 { return &v }

func newTestEnv(t *testing.T, mutate func(cfg *config.Config)) *testEnv {
	t.Helper()

	fake := shopifytest.NewServer(t)
	fake.AddOrder(shopify.Order{
		ID:             1001,
		Name:           "#1001",
		Currency:       "USD",
		NoteAttributes: []shopify.NoteAttribute{{Name: "gift", Value: "no"}},
		LineItems: []shopify.LineItem{
			{ID: 11, VariantID: int64Ptr(1), Title: "Mug", Quantity: 1, Price: "5.00", RequiresShipping: true},
		},
	})
	fake.AddOrder(shopify.Order{
		ID:             1002,
		Name:           "#1002",
		Currency:       "USD",
		Customer:       &shopify.Customer{ID: 77},
		NoteAttributes: []shopify.NoteAttribute{{Name: "multi_address_shipping", Value: "yes"}},
		LineItems: []shopify.LineItem{
			{ID: 21, VariantID: int64Ptr(2), Title: "Lamp", Quantity: 1, Price: "30.00", RequiresShipping: true},
			{ID: 22, VariantID: int64Ptr(3), Title: "Bulb", Quantity: 4, Price: "2.50", RequiresShipping: true},
			{ID: 23, VariantID: int64Ptr(4), Title: "Warranty", Quantity: 1, Price: "9.99", RequiresShipping: false},
		},
	})

	cfg := &config.Config{
		Port:        "0",
		Environment: "development",
		Shopify:     fake.Config(),
		Idempotency: config.IdempotencyConfig{TTL: time.Hour},
	}
	if mutate != nil {
		mutate(cfg)
	}

	client, err := shopify.NewClient(cfg.Shopify, zap.NewNop())
	require.NoError(t, err)
	svc := service.NewMultiAddressService(service.NewShopifyService(client, zap.NewNop()), zap.NewNop())

	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	return &testEnv{
		router: NewRouter(cfg, svc, store, zap.NewNop()),
		fake:   fake,
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), w.Body.String())
	}
	return w, decoded
}

const assignmentsJSON = `[
	{"line_item_id": 21, "title": "Lamp", "quantity": 1,
	 "address": {"first_name":"Al","last_name":"One","address1":"1 First St","city":"Reno","province":"NV","zip":"89501","country":"US"}},
	{"line_item_id": 22, "title": "Bulb", "quantity": 2,
	 "address": {"first_name":"Bo","last_name":"Two","address1":"2 Second St","city":"Boise","province":"ID","zip":"83702","country":"us"}},
	{"line_item_id": 22, "title": "Bulb", "quantity": 2,
	 "address": {"first_name":"Al","last_name":"One","address1":"1 FIRST ST","city":"reno","province":"NV","zip":"89501","country":"US","address2":"Unit 5"}}
]`

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	w, body := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestGetOrder_NotFlagged(t *testing.T) {
	env := newTestEnv(t, nil)

	w, body := env.do(t, http.MethodGet, "/api/multi-address/order/1001", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "This order is not configured for multi-address shipping", body["error"])
	assert.Equal(t, false, body["success"])
}

func TestGetOrder_Flagged(t *testing.T) {
	env := newTestEnv(t, nil)

	w, body := env.do(t, http.MethodGet, "/api/multi-address/order/1002", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	order := body["order"].(map[string]interface{})
	assert.Len(t, order["line_items"], 2)
	assert.Equal(t, "40", order["subtotal"])
	assert.Equal(t, float64(5), order["total_quantity"])
}

func TestGetOrder_NotFoundAndBadID(t *testing.T) {
	env := newTestEnv(t, nil)

	w, _ := env.do(t, http.MethodGet, "/api/multi-address/order/999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body := env.do(t, http.MethodGet, "/api/multi-address/order/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["error"], "positive integer")
}

func TestValidateAddress(t *testing.T) {
	env := newTestEnv(t, nil)

	w, body := env.do(t, http.MethodPost, "/api/multi-address/validate-address", `{"country":"usa"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	details := body["details"].(map[string]interface{})
	assert.Contains(t, details["country"], "2-letter")
	assert.Empty(t, env.fake.Calls())

	valid := `{"first_name":"Al","last_name":"One","address1":" 1 First St ","city":"Reno","province":"NV","zip":"89501","country":"us"}`
	w, body = env.do(t, http.MethodPost, "/api/multi-address/validate-address", valid, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	address := body["address"].(map[string]interface{})
	assert.Equal(t, "US", address["country"])
	assert.Equal(t, "1 First St", address["address1"])
}

func TestSave_MetafieldsThenReadUpdateDelete(t *testing.T) {
	env := newTestEnv(t, nil)

	w, body := env.do(t, http.MethodGet, "/api/multi-address/addresses/1002", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, false, data["configured"])
	assert.Equal(t, []interface{}{}, data["addresses"])

	w, body = env.do(t, http.MethodPost, "/api/multi-address/save", `{"order_id":"1002","line_items":`+assignmentsJSON+`}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "metafields", body["save_method"])
	result := body["result"].(map[string]interface{})
	assert.Equal(t, float64(3), result["addresses_saved"])

	w, body = env.do(t, http.MethodGet, "/api/multi-address/addresses/1002", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = body["data"].(map[string]interface{})
	assert.Equal(t, true, data["configured"])
	assert.Len(t, data["addresses"], 3)
	configuredAt := data["configured_at"]

	w, body = env.do(t, http.MethodPut, "/api/multi-address/addresses/1002", `{"line_items":`+assignmentsJSON+`}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result = body["result"].(map[string]interface{})
	assert.Equal(t, configuredAt, result["configured_at"])
	assert.NotEmpty(t, result["updated_at"])

	w, body = env.do(t, http.MethodDelete, "/api/multi-address/addresses/1002", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["result"].(map[string]interface{})["deleted"])

	w, body = env.do(t, http.MethodDelete, "/api/multi-address/addresses/1002", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["result"].(map[string]interface{})["deleted"])
}

func TestSave_SplitOrders(t *testing.T) {
	env := newTestEnv(t, nil)

	w, body := env.do(t, http.MethodPost, "/api/multi-address/save",
		`{"order_id":1002,"save_method":"split_orders","line_items":`+assignmentsJSON+`}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	result := body["result"].(map[string]interface{})
	assert.Equal(t, true, result["split_successful"])
	assert.Equal(t, float64(2), result["total_split_orders"])

	lineItems := 0
	for _, o := range result["created_orders"].([]interface{}) {
		lineItems += len(o.(map[string]interface{})["line_items"].([]interface{}))
	}
	assert.Equal(t, 3, lineItems)
	assert.Len(t, env.fake.DraftInputs(), 2)
}

func TestSave_InvalidRequests(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"unknown method", `{"order_id":1002,"save_method":"carrier_pigeon","line_items":` + assignmentsJSON + `}`},
		{"missing order id", `{"line_items":` + assignmentsJSON + `}`},
		{"no line items", `{"order_id":1002,"line_items":[]}`},
		{"malformed json", `{"order_id":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := env.do(t, http.MethodPost, "/api/multi-address/save", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, false, body["success"])
		})
	}
	assert.Empty(t, env.fake.Calls())
}

func TestSave_MissingLineItemOnSplit(t *testing.T) {
	env := newTestEnv(t, nil)
	body := `{"order_id":1002,"save_method":"split_orders","line_items":[{"line_item_id":999,"quantity":1,
		"address":{"first_name":"Al","last_name":"One","address1":"1 First St","city":"Reno","province":"NV","zip":"89501","country":"US"}}]}`

	w, decoded := env.do(t, http.MethodPost, "/api/multi-address/save", body, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decoded["error"], "not found")
	assert.Empty(t, env.fake.DraftInputs())
}

func TestSave_IdempotentReplay(t *testing.T) {
	env := newTestEnv(t, nil)
	payload := `{"order_id":1002,"line_items":` + assignmentsJSON + `}`
	headers := map[string]string{middleware.IdempotencyKeyHeader: "save-1002-a"}

	first, firstBody := env.do(t, http.MethodPost, "/api/multi-address/save", payload, headers)
	require.Equal(t, http.StatusOK, first.Code)

	second, secondBody := env.do(t, http.MethodPost, "/api/multi-address/save", payload, headers)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, firstBody, secondBody)
	assert.Len(t, env.fake.Metafields(1002), 1)

	third, _ := env.do(t, http.MethodPost, "/api/multi-address/save", `{"order_id":1001,"line_items":`+assignmentsJSON+`}`, headers)
	assert.Equal(t, http.StatusConflict, third.Code)
}

func TestUpstreamErrors_DetailsHiddenInProduction(t *testing.T) {
	tests := []struct {
		env         string
		wantDetails bool
	}{
		{"development", true},
		{"production", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			env := newTestEnv(t, func(cfg *config.Config) { cfg.Environment = tt.env })
			env.fake.Fail(http.MethodGet, "/metafields.json", http.StatusInternalServerError, "database on fire")

			w, body := env.do(t, http.MethodGet, "/api/multi-address/addresses/1002", "", nil)
			assert.Equal(t, http.StatusBadGateway, w.Code)
			_, hasDetails := body["details"]
			assert.Equal(t, tt.wantDetails, hasDetails)
		})
	}
	gin.SetMode(gin.TestMode)
}

func TestAuthRequiredWhenConfigured(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.API.Key = "s3cret" })

	w, _ := env.do(t, http.MethodGet, "/api/multi-address/addresses/1002", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/multi-address/addresses/1002", "", map[string]string{middleware.APIKeyHeader: "s3cret"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
