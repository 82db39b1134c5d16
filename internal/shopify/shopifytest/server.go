// Package shopifytest runs an in-process stand-in for the subset of the
// Shopify Admin REST API used by this service.
package shopifytest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kushalyadavv/multi-address-backend/internal/config"
	"github.com/kushalyadavv/multi-address-backend/internal/shopify"
)

const (
	AccessToken = "shpat_test_token"
	APIVersion  = "2024-01"
)

// Call is one request received by the fake
type Call struct {
	Method string
	Path   string
}

type failure struct {
	method   string
	contains string
	status   int
	message  string
}

type Server struct {
	*httptest.Server

	mu          sync.Mutex
	nextID      int64
	clock       time.Time
	orders      map[int64]*shopify.Order
	metafields  map[int64][]shopify.Metafield
	drafts      map[int64]*draftRecord
	draftOrder  []int64
	failures    []failure
	calls       []Call
	createHooks []func(shopify.DraftOrderInput)
}

type draftRecord struct {
	draft shopify.DraftOrder
	input shopify.DraftOrderInput
}

// NewServer starts the fake and closes it when the test ends
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		nextID:     9000,
		clock:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		orders:     make(map[int64]*shopify.Order),
		metafields: make(map[int64][]shopify.Metafield),
		drafts:     make(map[int64]*draftRecord),
	}

	prefix := "/admin/api/" + APIVersion
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+prefix+"/orders/{id}", s.handleGetOrder)
	mux.HandleFunc("PUT "+prefix+"/orders/{id}", s.handleUpdateOrder)
	mux.HandleFunc("GET "+prefix+"/orders/{id}/metafields.json", s.handleListMetafields)
	mux.HandleFunc("POST "+prefix+"/orders/{id}/metafields.json", s.handleCreateMetafield)
	mux.HandleFunc("GET "+prefix+"/orders/{id}/metafields/{mid}", s.handleGetMetafield)
	mux.HandleFunc("PUT "+prefix+"/orders/{id}/metafields/{mid}", s.handleUpdateMetafield)
	mux.HandleFunc("DELETE "+prefix+"/orders/{id}/metafields/{mid}", s.handleDeleteMetafield)
	mux.HandleFunc("POST "+prefix+"/draft_orders.json", s.handleCreateDraft)
	mux.HandleFunc("PUT "+prefix+"/draft_orders/{id}/complete.json", s.handleCompleteDraft)

	s.Server = httptest.NewServer(s.middleware(mux))
	t.Cleanup(s.Close)
	return s
}

// Config points a client at the fake
func (s *Server) Config() config.ShopifyConfig {
	return config.ShopifyConfig{
		StoreURL:    s.URL,
		AccessToken: AccessToken,
		APIVersion:  APIVersion,
		Timeout:     5 * time.Second,
	}
}

// AddOrder stores an order. Line items without an id get one.
func (s *Server) AddOrder(order shopify.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range order.LineItems {
		if order.LineItems[i].ID == 0 {
			order.LineItems[i].ID = s.newID()
		}
	}
	o := order
	s.orders[order.ID] = &o
}

// Order returns a copy of a stored order
func (s *Server) Order(id int64) (shopify.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return shopify.Order{}, false
	}
	return *o, true
}

// Metafields returns the metafields of an order
func (s *Server) Metafields(orderID int64) []shopify.Metafield {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]shopify.Metafield(nil), s.metafields[orderID]...)
}

// AddMetafield attaches a metafield directly, bypassing the API
func (s *Server) AddMetafield(orderID int64, mf shopify.Metafield) shopify.Metafield {
	s.mu.Lock()
	defer s.mu.Unlock()
	mf.ID = s.newID()
	mf.OwnerID = orderID
	mf.OwnerResource = "order"
	mf.CreatedAt = s.tick()
	mf.UpdatedAt = mf.CreatedAt
	s.metafields[orderID] = append(s.metafields[orderID], mf)
	return mf
}

// TouchMetafield simulates a concurrent writer by bumping updated_at
func (s *Server) TouchMetafield(orderID, metafieldID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, mf := range s.metafields[orderID] {
		if mf.ID == metafieldID {
			s.metafields[orderID][i].UpdatedAt = s.tick()
		}
	}
}

// DraftInputs returns the draft order payloads in creation order
func (s *Server) DraftInputs() []shopify.DraftOrderInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]shopify.DraftOrderInput, 0, len(s.draftOrder))
	for _, id := range s.draftOrder {
		out = append(out, s.drafts[id].input)
	}
	return out
}

// Fail makes every request whose method matches and whose path contains
// the given fragment answer with status.
func (s *Server) Fail(method, pathContains string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{method: method, contains: pathContains, status: status, message: message})
}

// OnDraftCreate registers a hook run for every accepted draft order
func (s *Server) OnDraftCreate(fn func(shopify.DraftOrderInput)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createHooks = append(s.createHooks, fn)
}

// Calls returns every request seen so far
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallCount counts requests by method and path fragment
func (s *Server) CallCount(method, pathContains string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Method == method && strings.Contains(c.Path, pathContains) {
			n++
		}
	}
	return n
}

func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path})
		var injected *failure
		for i := range s.failures {
			f := s.failures[i]
			if f.method == r.Method && strings.Contains(r.URL.Path, f.contains) {
				injected = &f
				break
			}
		}
		s.mu.Unlock()

		if r.Header.Get("X-Shopify-Access-Token") != AccessToken {
			writeError(w, http.StatusUnauthorized, "[API] Invalid API key or access token (unrecognized login or wrong password)")
			return
		}
		if injected != nil {
			writeError(w, injected.status, injected.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, found := s.orders[id]
	if !found {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	writeJSON(w, http.StatusOK, shopify.OrderResponse{Order: *o})
}

func (s *Server) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req shopify.OrderNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, found := s.orders[id]
	if !found {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	o.Note = req.Order.Note
	writeJSON(w, http.StatusOK, shopify.OrderResponse{Order: *o})
}

func (s *Server) handleListMetafields(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.orders[id]; !found {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	mfs := append([]shopify.Metafield{}, s.metafields[id]...)
	writeJSON(w, http.StatusOK, shopify.MetafieldsResponse{Metafields: mfs})
}

func (s *Server) handleCreateMetafield(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req shopify.MetafieldEnvelope
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	mf := req.Metafield
	if mf.Namespace == "" || mf.Key == "" || mf.Type == "" {
		writeFieldErrors(w, map[string][]string{"metafield": {"namespace, key and type are required"}})
		return
	}
	if mf.Type == "json" && !json.Valid([]byte(mf.Value)) {
		writeFieldErrors(w, map[string][]string{"value": {"must be valid JSON"}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.orders[id]; !found {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	mf.ID = s.newID()
	mf.OwnerID = id
	mf.OwnerResource = "order"
	mf.CreatedAt = s.tick()
	mf.UpdatedAt = mf.CreatedAt
	s.metafields[id] = append(s.metafields[id], mf)
	writeJSON(w, http.StatusCreated, shopify.MetafieldEnvelope{Metafield: mf})
}

func (s *Server) handleGetMetafield(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	mid, ok := pathID(w, r, "mid")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, mf := range s.metafields[id] {
		if mf.ID == mid {
			writeJSON(w, http.StatusOK, shopify.MetafieldEnvelope{Metafield: mf})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Not Found")
}

func (s *Server) handleUpdateMetafield(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	mid, ok := pathID(w, r, "mid")
	if !ok {
		return
	}
	var req shopify.MetafieldEnvelope
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, mf := range s.metafields[id] {
		if mf.ID == mid {
			mf.Value = req.Metafield.Value
			if req.Metafield.Type != "" {
				mf.Type = req.Metafield.Type
			}
			mf.UpdatedAt = s.tick()
			s.metafields[id][i] = mf
			writeJSON(w, http.StatusOK, shopify.MetafieldEnvelope{Metafield: mf})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Not Found")
}

func (s *Server) handleDeleteMetafield(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	mid, ok := pathID(w, r, "mid")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	mfs := s.metafields[id]
	for i, mf := range mfs {
		if mf.ID == mid {
			s.metafields[id] = append(mfs[:i:i], mfs[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]interface{}{})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Not Found")
}

func (s *Server) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	var req shopify.DraftOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	input := req.DraftOrder
	if len(input.LineItems) == 0 {
		writeFieldErrors(w, map[string][]string{"line_items": {"must have at least one line item"}})
		return
	}
	for _, li := range input.LineItems {
		if (li.VariantID == nil || *li.VariantID <= 0) && li.Title == "" {
			writeFieldErrors(w, map[string][]string{"line_items": {"variant_id or title is required"}})
			return
		}
	}

	s.mu.Lock()
	id := s.newID()
	draft := shopify.DraftOrder{ID: id, Name: fmt.Sprintf("#D%d", len(s.draftOrder)+1), Status: "open"}
	s.drafts[id] = &draftRecord{draft: draft, input: input}
	s.draftOrder = append(s.draftOrder, id)
	hooks := append([]func(shopify.DraftOrderInput){}, s.createHooks...)
	s.mu.Unlock()

	for _, hook := range hooks {
		hook(input)
	}
	writeJSON(w, http.StatusCreated, shopify.DraftOrderResponse{DraftOrder: draft})
}

func (s *Server) handleCompleteDraft(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, found := s.drafts[id]
	if !found {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	if rec.draft.OrderID != nil {
		writeFieldErrors(w, map[string][]string{"base": {"draft order has already been completed"}})
		return
	}

	orderID := s.newID()
	order := &shopify.Order{
		ID:              orderID,
		Name:            fmt.Sprintf("#%d", orderID),
		OrderNumber:     int(orderID),
		Email:           rec.input.Email,
		Currency:        rec.input.Currency,
		Note:            rec.input.Note,
		NoteAttributes:  rec.input.NoteAttributes,
		Tags:            rec.input.Tags,
		BillingAddress:  rec.input.BillingAddress,
		ShippingAddress: rec.input.ShippingAddress,
	}
	for _, li := range rec.input.LineItems {
		order.LineItems = append(order.LineItems, shopify.LineItem{
			ID:               s.newID(),
			VariantID:        li.VariantID,
			Title:            li.Title,
			Quantity:         li.Quantity,
			Price:            li.Price,
			RequiresShipping: true,
			Properties:       li.Properties,
		})
	}
	s.orders[orderID] = order

	rec.draft.OrderID = &orderID
	rec.draft.Status = "completed"
	writeJSON(w, http.StatusOK, shopify.DraftOrderResponse{DraftOrder: rec.draft})
}

func (s *Server) newID() int64 {
	s.nextID++
	return s.nextID
}

// tick advances the fake clock so every write gets a distinct updated_at
func (s *Server) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

// pathID parses "{id}" or "{id}.json" path values
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := strings.TrimSuffix(r.PathValue(name), ".json")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Not Found")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"errors": message})
}

func writeFieldErrors(w http.ResponseWriter, fields map[string][]string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"errors": fields})
}
