package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// FakeOllama serves the model registry and generation endpoints over the
// real wire format, streaming responses as newline-delimited JSON chunks.
type FakeOllama struct {
	Server *httptest.Server

	mu           sync.Mutex
	models       []string
	rules        []mockRule
	failGen      bool
	garbleStream bool
}

// NewFakeOllama starts a fake model server with the given installed models.
// The server is closed automatically when the test ends.
func NewFakeOllama(t *testing.T, models ...string) *FakeOllama {
	t.Helper()

	f := &FakeOllama{models: models}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tags", f.handleTags)
	mux.HandleFunc("POST /api/generate", f.handleGenerate)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the server's base URL.
func (f *FakeOllama) URL() string { return f.Server.URL }

// Respond registers a pattern-response pair for generation, matched
// case-insensitively against the prompt in registration order.
func (f *FakeOllama) Respond(pattern, response string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, mockRule{pattern: strings.ToLower(pattern), response: response})
}

// FailGeneration makes /api/generate return 500.
func (f *FakeOllama) FailGeneration() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failGen = true
}

// GarbleStream injects a malformed chunk into every generation stream.
// Clients are expected to skip it without aborting the fold.
func (f *FakeOllama) GarbleStream() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.garbleStream = true
}

func (f *FakeOllama) handleTags(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	type model struct {
		Name string `json:"name"`
	}
	payload := struct {
		Models []model `json:"models"`
	}{}
	for _, name := range f.models {
		payload.Models = append(payload.Models, model{Name: name})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func (f *FakeOllama) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model  string `json:"model"`
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	if f.failGen {
		f.mu.Unlock()
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	installed := false
	for _, name := range f.models {
		if name == req.Model {
			installed = true
			break
		}
	}
	response := ""
	lower := strings.ToLower(req.Prompt)
	for _, rule := range f.rules {
		if strings.Contains(lower, rule.pattern) {
			response = rule.response
			break
		}
	}
	garble := f.garbleStream
	f.mu.Unlock()

	if !installed {
		http.Error(w, "model not found", http.StatusNotFound)
		return
	}

	// Stream the response word by word, the way the real server does.
	w.Header().Set("Content-Type", "application/x-ndjson")
	if garble {
		fmt.Fprint(w, "{not valid json\n")
	}
	words := strings.SplitAfter(response, " ")
	for _, word := range words {
		if word == "" {
			continue
		}
		fmt.Fprintf(w, `{"response":%s,"done":false}`+"\n", mustJSON(word))
	}
	fmt.Fprint(w, `{"response":"","done":true}`+"\n")
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// FakeInventory serves the inventory backend's REST contract with an
// in-memory catalog. Outbound movements beyond the available stock are
// rejected with the backend's insufficient-stock error body.
type FakeInventory struct {
	Server *httptest.Server

	mu        sync.Mutex
	products  map[int]fakeProduct
	movements []Movement
	nextID    int
}

type fakeProduct struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Category string `json:"category,omitempty"`
	Quantity int    `json:"-"`
}

// Movement is one stock movement accepted by the fake backend.
type Movement struct {
	ID           int    `json:"id"`
	ProductID    int    `json:"product_id"`
	Quantity     int    `json:"quantity"`
	MovementType string `json:"movement_type"`
	Notes        string `json:"notes,omitempty"`
}

// NewFakeInventory starts a fake inventory backend. The server is closed
// automatically when the test ends.
func NewFakeInventory(t *testing.T) *FakeInventory {
	t.Helper()

	f := &FakeInventory{products: make(map[int]fakeProduct), nextID: 1}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/metrics/stock-movements", f.handleSales)
	mux.HandleFunc("GET /api/metrics/summary", f.handleMetrics)
	mux.HandleFunc("GET /api/stock", f.handleStock)
	mux.HandleFunc("GET /api/stock/product/{id}", f.handleProductStock)
	mux.HandleFunc("GET /api/products/{id}", f.handleProduct)
	mux.HandleFunc("GET /api/stock-movements/popular", f.handlePopular)
	mux.HandleFunc("POST /api/stock-movements", f.handleCreateMovement)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the server's base URL.
func (f *FakeInventory) URL() string { return f.Server.URL }

// AddProduct seeds a catalog entry with the given stock on hand.
func (f *FakeInventory) AddProduct(id int, name string, price int64, quantity int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[id] = fakeProduct{ID: id, Name: name, Price: price, Quantity: quantity}
}

// Movements returns a copy of all recorded movements.
func (f *FakeInventory) Movements() []Movement {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]Movement, len(f.movements))
	copy(cp, f.movements)
	return cp
}

func (f *FakeInventory) handleSales(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	summary := struct {
		TotalIn       int   `json:"total_in"`
		TotalOut      int   `json:"total_out"`
		TotalInValue  int64 `json:"total_in_value"`
		TotalOutValue int64 `json:"total_out_value"`
	}{}
	for _, m := range f.movements {
		price := f.products[m.ProductID].Price
		if m.MovementType == "in" {
			summary.TotalIn += m.Quantity
			summary.TotalInValue += int64(m.Quantity) * price
		} else {
			summary.TotalOut += m.Quantity
			summary.TotalOutValue += int64(m.Quantity) * price
		}
	}
	writeAsJSON(w, summary)
}

func (f *FakeInventory) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeAsJSON(w, map[string]any{
		"total_products":  len(f.products),
		"total_movements": len(f.movements),
	})
}

func (f *FakeInventory) handleStock(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	type level struct {
		ID       int    `json:"id"`
		Name     string `json:"name"`
		Quantity int    `json:"quantity"`
		Price    int64  `json:"price"`
	}
	levels := []level{}
	for _, p := range f.products {
		levels = append(levels, level{ID: p.ID, Name: p.Name, Quantity: p.Quantity, Price: p.Price})
	}
	writeAsJSON(w, levels)
}

func (f *FakeInventory) handleProductStock(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id, _ := strconv.Atoi(r.PathValue("id"))
	p, ok := f.products[id]
	if !ok {
		writeErrorBody(w, http.StatusNotFound, "product not found")
		return
	}
	writeAsJSON(w, map[string]any{"id": p.ID, "name": p.Name, "quantity": p.Quantity, "price": p.Price})
}

func (f *FakeInventory) handleProduct(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id, _ := strconv.Atoi(r.PathValue("id"))
	p, ok := f.products[id]
	if !ok {
		writeErrorBody(w, http.StatusNotFound, "product not found")
		return
	}
	writeAsJSON(w, p)
}

func (f *FakeInventory) handlePopular(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	products := []fakeProduct{}
	for _, p := range f.products {
		products = append(products, p)
	}
	writeAsJSON(w, products)
}

func (f *FakeInventory) handleCreateMovement(w http.ResponseWriter, r *http.Request) {
	var input Movement
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeErrorBody(w, http.StatusBadRequest, "invalid body")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.products[input.ProductID]
	if !ok {
		writeErrorBody(w, http.StatusNotFound, "product not found")
		return
	}
	if input.MovementType == "out" && input.Quantity > p.Quantity {
		writeErrorBody(w, http.StatusBadRequest, "insufficient stock for this movement")
		return
	}

	if input.MovementType == "in" {
		p.Quantity += input.Quantity
	} else {
		p.Quantity -= input.Quantity
	}
	f.products[input.ProductID] = p

	input.ID = f.nextID
	f.nextID++
	f.movements = append(f.movements, input)

	w.WriteHeader(http.StatusCreated)
	writeBodyJSON(w, input)
}

func writeAsJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	writeBodyJSON(w, data)
}

func writeBodyJSON(w http.ResponseWriter, data any) {
	_ = json.NewEncoder(w).Encode(data)
}

func writeErrorBody(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
