package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/MikeSquared-Agency/MRAT/internal/ingest"
	"github.com/MikeSquared-Agency/MRAT/internal/session"
)

type AdminHandler struct {
	sessions *session.Manager
	ingester Ingester
	exporter Exporter
}

func NewAdminHandler(m *session.Manager, ing Ingester, exp Exporter) *AdminHandler {
	return &AdminHandler{sessions: m, ingester: ing, exporter: exp}
}

// Ingest accepts a country batch, either a JSON array or {"countries": [...]}.
// Query parameters: scale (10 or 100) and source.
// POST /api/v1/countries
func (h *AdminHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var scale float64
	if v := r.URL.Query().Get("scale"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || (n != 10 && n != 100) {
			writeError(w, http.StatusBadRequest, "scale must be 10 or 100")
			return
		}
		scale = n
	}
	source := r.URL.Query().Get("source")
	if source == "" {
		source = "api"
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	raw, err := ingest.DecodeBatch(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.ingester.Ingest(r.Context(), raw, scale, source)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := http.StatusOK
	if report.Accepted == 0 && report.Rejected > 0 {
		status = http.StatusUnprocessableEntity
	}
	if report.Issues == nil {
		report.Issues = []ingest.Issue{}
	}
	writeJSON(w, status, report)
}

// Export writes the session's rankings to the configured backend.
// POST /api/v1/export
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "export is not configured")
		return
	}
	snap, err := h.sessions.Snapshot(sessionID(r))
	if err != nil {
		sessionError(w, err)
		return
	}
	key, err := h.exporter.Export(r.Context(), snap)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"key":        key,
		"session_id": snap.SessionID,
		"version":    snap.Version,
	})
}

// LatestExport returns the most recently written report.
// GET /api/v1/export/latest
func (h *AdminHandler) LatestExport(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "export is not configured")
		return
	}
	report, err := h.exporter.Latest(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if report == nil {
		writeError(w, http.StatusNotFound, "no report exported yet")
		return
	}
	writeJSON(w, http.StatusOK, report)
}
