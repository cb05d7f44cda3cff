// Package debughttp exposes a running peer over HTTP for inspection and for
// driving the rematch flow by hand.
package debughttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/iamasit07/duelsync/internal/domain"
	"github.com/iamasit07/duelsync/internal/peer"
	"github.com/iamasit07/duelsync/internal/protocol"
)

// Peer is the slice of the runtime the endpoint drives.
type Peer interface {
	Snapshot(ctx context.Context) (peer.State, error)
	RequestRematch(ctx context.Context, action protocol.ReplayAction) (bool, error)
	DecideRematch(ctx context.Context, accept bool) (bool, error)
	BeginMatch(ctx context.Context) error
	SendTestSync(ctx context.Context) (bool, error)
}

func SetupRoutes(p Peer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", Healthz)
	r.Get("/state", GetState(p))
	r.Post("/match", BeginMatch(p))
	r.Post("/rematch", RequestRematch(p))
	r.Post("/rematch/decision", DecideRematch(p))
	r.Post("/sync", TestSync(p))
	return r
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func GetState(p Peer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := p.Snapshot(r.Context())
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

func BeginMatch(p Peer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := p.BeginMatch(r.Context())
		switch {
		case errors.Is(err, domain.ErrNotHost):
			writeError(w, http.StatusConflict, err)
		case err != nil:
			writeError(w, http.StatusServiceUnavailable, err)
		default:
			w.WriteHeader(http.StatusAccepted)
		}
	}
}

func RequestRematch(p Peer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Action protocol.ReplayAction `json:"action"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || !body.Action.Valid() {
			http.Error(w, "action must be replay_same_players or select_new_players", http.StatusBadRequest)
			return
		}
		ok, err := p.RequestRematch(r.Context(), body.Action)
		respondOK(w, ok, err)
	}
}

func DecideRematch(p Peer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Accept *bool `json:"accept"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Accept == nil {
			http.Error(w, "accept is required", http.StatusBadRequest)
			return
		}
		ok, err := p.DecideRematch(r.Context(), *body.Accept)
		respondOK(w, ok, err)
	}
}

func TestSync(p Peer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, err := p.SendTestSync(r.Context())
		respondOK(w, ok, err)
	}
}

// respondOK maps a command result: refused commands are a conflict, not an
// error.
func respondOK(w http.ResponseWriter, ok bool, err error) {
	switch {
	case err != nil:
		writeError(w, http.StatusServiceUnavailable, err)
	case !ok:
		writeJSON(w, http.StatusConflict, map[string]bool{"ok": false})
	default:
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
