package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/MRAT/internal/store"
)

type NewsHandler struct {
	store store.Store
}

func NewNewsHandler(s store.Store) *NewsHandler {
	return &NewsHandler{store: s}
}

// GET /api/v1/countries/{id}/news?limit=n
func (h *NewsHandler) List(w http.ResponseWriter, r *http.Request) {
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
	if !h.countryExists(w, r, id) {
		return
	}

	news, err := h.store.ListNews(r.Context(), id, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if news == nil {
		news = []*store.NewsItem{}
	}
	writeJSON(w, http.StatusOK, news)
}

// Add attaches a news item to a country.
// POST /api/v1/countries/{id}/news
func (h *NewsHandler) Add(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var item store.NewsItem
	if !decodeJSON(w, r, &item) {
		return
	}
	if err := item.Normalize(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.countryExists(w, r, id) {
		return
	}

	item.ID, item.CountryID = uuid.Nil, id
	if err := h.store.AddNews(r.Context(), &item); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *NewsHandler) countryExists(w http.ResponseWriter, r *http.Request, id string) bool {
	country, err := h.store.GetCountry(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return false
	}
	if country == nil {
		writeError(w, http.StatusNotFound, "country not found")
		return false
	}
	return true
}
