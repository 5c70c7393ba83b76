package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/MRAT/internal/export"
	"github.com/MikeSquared-Agency/MRAT/internal/ingest"
	"github.com/MikeSquared-Agency/MRAT/internal/session"
	"github.com/MikeSquared-Agency/MRAT/internal/store"
)

// Ingester accepts raw country batches. *refresh.Refresher satisfies it.
type Ingester interface {
	Ingest(ctx context.Context, raw []ingest.RawCountry, scale float64, source string) (ingest.Report, error)
}

// Exporter writes ranking reports and reads back the latest one.
// *export.Exporter satisfies it.
type Exporter interface {
	Export(ctx context.Context, snap *session.Snapshot) (string, error)
	Latest(ctx context.Context) (*export.Report, error)
}

type RouterOptions struct {
	AdminToken string
	RateLimit  int
}

// NewRouter wires the public API. exp may be nil when exports are disabled.
func NewRouter(m *session.Manager, s store.Store, ing Ingester, exp Exporter, opts RouterOptions, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	if opts.RateLimit <= 0 {
		opts.RateLimit = 120
	}

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(opts.RateLimit))

	weights := NewWeightsHandler(m, s, logger)
	rankings := NewRankingsHandler(m, s)
	admin := NewAdminHandler(m, ing, exp)
	news := NewNewsHandler(s)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SessionIDMiddleware)

		r.Get("/factors", weights.Factors)
		r.Get("/weights", weights.Get)
		r.Put("/weights", weights.Replace)
		r.Patch("/weights/{factor}", weights.Edit)
		r.Get("/presets", weights.ListPresets)

		r.Get("/rankings", rankings.List)
		r.Get("/frontier", rankings.Frontier)
		r.Get("/countries/{id}/explain", rankings.Explain)
		r.Get("/countries/{id}/history", rankings.History)
		r.Get("/countries/{id}/news", news.List)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(opts.AdminToken))
			r.Post("/countries", admin.Ingest)
			r.Post("/countries/{id}/news", news.Add)
			r.Post("/presets/{name}", weights.SavePreset)
			r.Post("/presets/{name}/apply", weights.ApplyPreset)
			r.Post("/export", admin.Export)
			r.Get("/export/latest", admin.LatestExport)
		})
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
