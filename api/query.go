package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/stockchat/stockchat/internal/log"
)

// QueryHandler handles the natural-language query endpoint.
type QueryHandler struct {
	agent  QueryAgent
	logger log.Logger
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(agent QueryAgent, logger log.Logger) *QueryHandler {
	return &QueryHandler{agent: agent, logger: logger}
}

// RegisterRoutes registers query routes on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/query", h.handleQuery)
}

// QueryRequest is the request body for POST /api/query.
type QueryRequest struct {
	Query string `json:"query"`
}

// handleQuery decodes the query and runs it through the agent. The agent
// resolves every fault to a reply with an action tag, so the handler only
// ever returns 400 for malformed input and 200 otherwise.
func (h *QueryHandler) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON with a \"query\" field")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "missing_query", "query is required")
		return
	}

	reply := h.agent.Process(r.Context(), req.Query)
	writeJSON(w, http.StatusOK, reply)
}
