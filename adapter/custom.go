package adapter

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Custom is the catch-all HTTP adapter for web widgets and anything
// else that can POST JSON: {"user": ..., "text": ...} in, the payload
// out, synchronously.
type Custom struct {
	Board  Board
	Logger *slog.Logger
}

type customMessage struct {
	User string `json:"user"`
	Text string `json:"text"`
}

// Router mounts the adapter's routes.
func (a *Custom) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/message", a.handleMessage)
	return r
}

func (a *Custom) handleMessage(w http.ResponseWriter, req *http.Request) {
	var msg customMessage
	if err := json.NewDecoder(req.Body).Decode(&msg); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if msg.User == "" {
		http.Error(w, "missing user", http.StatusBadRequest)
		return
	}

	p := deliver(req.Context(), a.Board, a.Logger, "custom", msg.User, msg.Text)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(p); err != nil && a.Logger != nil {
		a.Logger.Error("custom reply encode failed", "err", err)
	}
}
