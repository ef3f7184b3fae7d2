package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockchat/stockchat/internal/agent"
	"github.com/stockchat/stockchat/internal/inventory"
	"github.com/stockchat/stockchat/internal/log"
	"github.com/stockchat/stockchat/internal/ollama"
	"github.com/stockchat/stockchat/internal/testutil"
)

// newIntegrationServer wires the real agent against fake model and
// inventory backends speaking the actual wire formats.
func newIntegrationServer(t *testing.T, fo *testutil.FakeOllama, fi *testutil.FakeInventory) http.Handler {
	t.Helper()

	model := ollama.New(ollama.Config{
		Host:        fo.URL(),
		Model:       "test-model",
		Temperature: 0.7,
	}, log.NewNop())
	inv := inventory.New(fi.URL(), nil, log.NewNop())
	a := agent.New(model, inv, log.NewNop())

	srv := NewServer(ServerConfig{
		Agent:     a,
		Readiness: model,
		Logger:    log.NewNop(),
	})
	return srv.Handler()
}

func postQuery(t *testing.T, handler http.Handler, query string) (*httptest.ResponseRecorder, agent.Reply) {
	t.Helper()

	body := strings.NewReader(`{"query": ` + jsonString(query) + `}`)
	req := httptest.NewRequest(http.MethodPost, "/api/query", body)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	var reply agent.Reply
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	return w, reply
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestIntegration_RegisterMovement(t *testing.T) {
	fo := testutil.NewFakeOllama(t, "test-model")
	fo.Respond("classify the following query", "REGISTER_MOVEMENT")
	fo.Respond("returned this result", "Done! I registered the inbound movement for you.")
	// A malformed chunk in the stream must not disturb the reply.
	fo.GarbleStream()

	fi := testutil.NewFakeInventory(t)
	fi.AddProduct(2, "Coffee", 2590, 5)

	handler := newIntegrationServer(t, fo, fi)

	w, reply := postQuery(t, handler, "Register an inbound movement of 10 units of product 2")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "register_movement", reply.Action)
	assert.Equal(t, "Done! I registered the inbound movement for you.", reply.Response)

	movements := fi.Movements()
	require.Len(t, movements, 1)
	assert.Equal(t, 2, movements[0].ProductID)
	assert.Equal(t, 10, movements[0].Quantity)
	assert.Equal(t, "in", movements[0].MovementType)
}

func TestIntegration_InsufficientStock(t *testing.T) {
	fo := testutil.NewFakeOllama(t, "test-model")
	fo.Respond("classify the following query", "REGISTER_MOVEMENT")

	fi := testutil.NewFakeInventory(t)
	fi.AddProduct(2, "Coffee", 2590, 5)

	handler := newIntegrationServer(t, fo, fi)

	w, reply := postQuery(t, handler, "Register an outbound movement of 100 units of product 2")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, agent.ActionError, reply.Action)
	assert.Empty(t, fi.Movements(), "rejected movement must not be recorded")
}

func TestIntegration_SalesQuery(t *testing.T) {
	fo := testutil.NewFakeOllama(t, "test-model")
	// Composition prompts carry the result marker; classification prompts
	// are told apart by the embedded query text.
	fo.Respond("returned this result", "You moved 10 units in and none out.")
	fo.Respond("register an inbound", "REGISTER_MOVEMENT")
	fo.Respond("show total sales", "GET_SALES")

	fi := testutil.NewFakeInventory(t)
	fi.AddProduct(2, "Coffee", 2590, 5)

	handler := newIntegrationServer(t, fo, fi)

	// Seed one movement through the API, then query sales.
	_, reply := postQuery(t, handler, "Register an inbound movement of 10 units of product 2")
	require.Equal(t, "register_movement", reply.Action)

	w, reply := postQuery(t, handler, "Show total sales")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "get_sales", reply.Action)
	assert.Equal(t, "You moved 10 units in and none out.", reply.Response)
}

func TestIntegration_ModelMissing_KeywordFallback(t *testing.T) {
	// Registry has no models at all: classification falls back to keywords
	// and the missing-model diagnostic is surfaced verbatim.
	fo := testutil.NewFakeOllama(t)
	fi := testutil.NewFakeInventory(t)
	fi.AddProduct(1, "Tea", 900, 3)

	handler := newIntegrationServer(t, fo, fi)

	w, reply := postQuery(t, handler, "how much stock do we have?")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, agent.ActionError, reply.Action)
	assert.Contains(t, reply.Response, `ollama pull test-model`)
}

func TestIntegration_Readiness(t *testing.T) {
	t.Run("model installed", func(t *testing.T) {
		fo := testutil.NewFakeOllama(t, "test-model")
		fi := testutil.NewFakeInventory(t)
		handler := newIntegrationServer(t, fo, fi)

		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("model missing", func(t *testing.T) {
		fo := testutil.NewFakeOllama(t)
		fi := testutil.NewFakeInventory(t)
		handler := newIntegrationServer(t, fo, fi)

		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
