package mcp

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
)

// HTTPHandler serves MCP JSON-RPC messages over plain HTTP POST. Each
// caller gets its own Client, keyed by the X-User-ID header.
type HTTPHandler struct {
	baseURL string

	mu      sync.Mutex
	clients map[string]*Client
}

// NewHTTPHandler creates a handler whose clients call the REST API at baseURL.
func NewHTTPHandler(baseURL string) *HTTPHandler {
	return &HTTPHandler{
		baseURL: baseURL,
		clients: make(map[string]*Client),
	}
}

func (h *HTTPHandler) client(userID, name string) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[userID]
	if !ok || c.name != name {
		c = NewClient(h.baseURL, userID, name)
		h.clients[userID] = c
	}
	return c
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := r.Header.Get(headerUserID)
	if userID == "" {
		http.Error(w, headerUserID+" header is required", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	response := h.client(userID, r.Header.Get(headerUserName)).GetMCPServer().HandleMessage(r.Context(), body)

	responseData, err := json.Marshal(response)
	if err != nil {
		http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(responseData)
}
