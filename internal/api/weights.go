package api

import (
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/MRAT/internal/ingest"
	"github.com/MikeSquared-Agency/MRAT/internal/scoring"
	"github.com/MikeSquared-Agency/MRAT/internal/session"
	"github.com/MikeSquared-Agency/MRAT/internal/store"
)

type WeightsHandler struct {
	sessions *session.Manager
	store    store.Store
	logger   *slog.Logger
}

func NewWeightsHandler(m *session.Manager, s store.Store, logger *slog.Logger) *WeightsHandler {
	return &WeightsHandler{sessions: m, store: s, logger: logger}
}

type weightsResponse struct {
	SessionID string               `json:"session_id"`
	Version   uint64               `json:"version"`
	Weights   scoring.WeightVector `json:"weights"`
	Total     float64              `json:"total"`
}

func newWeightsResponse(snap *session.Snapshot) weightsResponse {
	return weightsResponse{
		SessionID: snap.SessionID,
		Version:   snap.Version,
		Weights:   snap.Weights,
		Total:     snap.Weights.Sum(),
	}
}

// Factors lists the factor catalog.
// GET /api/v1/factors
func (h *WeightsHandler) Factors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scoring.Catalog())
}

// GET /api/v1/weights
func (h *WeightsHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.Snapshot(sessionID(r))
	if err != nil {
		sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newWeightsResponse(snap))
}

type replaceWeightsRequest struct {
	Weights scoring.WeightVector `json:"weights"`
}

// Replace installs a complete weight vector without rebalancing.
// PUT /api/v1/weights
func (h *WeightsHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var req replaceWeightsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Weights.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := h.sessions.ReplaceWeights(r.Context(), sessionID(r), req.Weights)
	if err != nil {
		sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type editWeightRequest struct {
	Value *float64 `json:"value"`
}

// Edit sets one factor and rebalances the others. The response carries the
// new weights and the rankings computed from them.
// PATCH /api/v1/weights/{factor}
func (h *WeightsHandler) Edit(w http.ResponseWriter, r *http.Request) {
	factor, ok := ingest.ParseFactor(chi.URLParam(r, "factor"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown factor")
		return
	}

	var req editWeightRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Value == nil || math.IsNaN(*req.Value) || math.IsInf(*req.Value, 0) {
		writeError(w, http.StatusBadRequest, "value must be a number")
		return
	}

	snap, err := h.sessions.EditWeight(r.Context(), sessionID(r), factor, *req.Value)
	if err != nil {
		sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// GET /api/v1/presets
func (h *WeightsHandler) ListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := h.store.ListWeightPresets(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if presets == nil {
		presets = []*store.WeightPreset{}
	}
	writeJSON(w, http.StatusOK, presets)
}

// SavePreset stores the session's current weights under a name.
// POST /api/v1/presets/{name}
func (h *WeightsHandler) SavePreset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !session.ValidSessionID(name) {
		writeError(w, http.StatusBadRequest, "invalid preset name")
		return
	}
	snap, err := h.sessions.Snapshot(sessionID(r))
	if err != nil {
		sessionError(w, err)
		return
	}

	preset := &store.WeightPreset{Name: name, Weights: snap.Weights.Clone(), UpdatedAt: time.Now().UTC()}
	if err := h.store.SaveWeightPreset(r.Context(), preset); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.logger.Info("weight preset saved", "name", name, "session_id", snap.SessionID)
	writeJSON(w, http.StatusCreated, preset)
}

// ApplyPreset replaces the session's weights with a saved preset.
// POST /api/v1/presets/{name}/apply
func (h *WeightsHandler) ApplyPreset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	preset, err := h.store.GetWeightPreset(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if preset == nil {
		writeError(w, http.StatusNotFound, "preset not found")
		return
	}
	if err := preset.Weights.Validate(); err != nil {
		writeError(w, http.StatusConflict, "stored preset is invalid: "+err.Error())
		return
	}

	snap, err := h.sessions.ReplaceWeights(r.Context(), sessionID(r), preset.Weights)
	if err != nil {
		sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
