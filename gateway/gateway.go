/* Copyright 2026 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package gateway is the editor-facing HTTP surface: graph submission,
// table refresh, graph versions, session removal, health, metrics.
package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Comcast/chatflow/flow"
	"github.com/Comcast/chatflow/graphstore"
	"github.com/Comcast/chatflow/nlu"
	"github.com/Comcast/chatflow/switchboard"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Gateway serves the administrative API.
type Gateway struct {
	Board  *switchboard.Switchboard
	Graphs *graphstore.Store // optional
	Logger *slog.Logger
}

// Router builds the chi router.
func (g *Gateway) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/flow", g.handleFlow)
	r.Post("/refresh", g.handleRefresh)
	r.Delete("/users/{id}", g.handleDeleteUser)

	if g.Graphs != nil {
		r.Get("/graphs", g.handleListGraphs)
		r.Get("/graphs/{id}", g.handleGetGraph)
	}

	return r
}

type flowSubmission struct {
	Graph *flow.Graph `json:"graph"`
}

// handleFlow applies a submitted graph as one administrative
// transaction.  Editor errors are specific; nothing is partially
// applied.
func (g *Gateway) handleFlow(w http.ResponseWriter, req *http.Request) {
	var sub flowSubmission
	if err := json.NewDecoder(req.Body).Decode(&sub); err != nil {
		// Keep the graph's own shape errors; anything else is a
		// malformed request.
		if !flow.IsGraphError(err) {
			err = &flow.FormatError{Reason: "invalid request body"}
		}
		g.writeError(w, err)
		return
	}
	if sub.Graph == nil {
		g.writeError(w, &flow.FormatError{Reason: "missing graph"})
		return
	}

	if err := g.Board.SubmitGraph(req.Context(), sub.Graph); err != nil {
		g.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (g *Gateway) handleRefresh(w http.ResponseWriter, req *http.Request) {
	if err := g.Board.Refresh(req.Context()); err != nil {
		g.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (g *Gateway) handleDeleteUser(w http.ResponseWriter, req *http.Request) {
	userID := chi.URLParam(req, "id")
	if err := g.Board.RemoveUser(req.Context(), userID); err != nil {
		g.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (g *Gateway) handleListGraphs(w http.ResponseWriter, req *http.Request) {
	recs, err := g.Graphs.List(req.Context())
	if err != nil {
		g.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (g *Gateway) handleGetGraph(w http.ResponseWriter, req *http.Request) {
	rec, err := g.Graphs.Get(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		g.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// writeError maps error kinds to statuses: graph rejections are the
// editor's fault (400), provider sync trouble is upstream (502),
// unknown graph versions are 404, the rest is 500.
func (g *Gateway) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var se *nlu.SyncError
	switch {
	case flow.IsGraphError(err):
		status = http.StatusBadRequest
	case errors.As(err, &se):
		status = http.StatusBadGateway
	case errors.Is(err, graphstore.NotFound):
		status = http.StatusNotFound
	}

	if g.Logger != nil && status >= 500 {
		g.Logger.Error("gateway error", "err", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, x interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(x); err != nil {
		fmt.Fprintf(w, "{}\n")
	}
}
