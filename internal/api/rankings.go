package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/MRAT/internal/scoring"
	"github.com/MikeSquared-Agency/MRAT/internal/session"
	"github.com/MikeSquared-Agency/MRAT/internal/store"
)

type RankingsHandler struct {
	sessions *session.Manager
	store    store.Store
}

func NewRankingsHandler(m *session.Manager, s store.Store) *RankingsHandler {
	return &RankingsHandler{sessions: m, store: s}
}

// List returns the ranked countries and the weights they were ranked with,
// both from the same snapshot.
// GET /api/v1/rankings
func (h *RankingsHandler) List(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.Snapshot(sessionID(r))
	if err != nil {
		sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// GET /api/v1/frontier
func (h *RankingsHandler) Frontier(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.Snapshot(sessionID(r))
	if err != nil {
		sessionError(w, err)
		return
	}
	frontier := scoring.ComputeFrontier(snap.Countries)
	if frontier == nil {
		frontier = []scoring.CountryRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": snap.SessionID,
		"version":    snap.Version,
		"frontier":   frontier,
	})
}

// Explain returns each factor's contribution to a country's total.
// GET /api/v1/countries/{id}/explain
func (h *RankingsHandler) Explain(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.Snapshot(sessionID(r))
	if err != nil {
		sessionError(w, err)
		return
	}
	country, ok := snap.Country(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "country not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": snap.SessionID,
		"version":    snap.Version,
		"country":    country,
		"weights":    snap.Weights,
		"factors":    scoring.Explain(country.Scores, snap.Weights),
	})
}

// GET /api/v1/countries/{id}/history?limit=n
func (h *RankingsHandler) History(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	country, err := h.store.GetCountry(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if country == nil {
		writeError(w, http.StatusNotFound, "country not found")
		return
	}

	history, err := h.store.GetScoreHistory(r.Context(), id, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if history == nil {
		history = []*store.ScoreHistory{}
	}
	writeJSON(w, http.StatusOK, history)
}
