package refresh

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MikeSquared-Agency/MRAT/internal/config"
	"github.com/MikeSquared-Agency/MRAT/internal/hermes"
	"github.com/MikeSquared-Agency/MRAT/internal/ingest"
	"github.com/MikeSquared-Agency/MRAT/internal/metrics"
	"github.com/MikeSquared-Agency/MRAT/internal/session"
	"github.com/MikeSquared-Agency/MRAT/internal/store"
)

const batchTimeout = 30 * time.Second

// Refresher keeps the session catalog in step with the store. It reloads on
// a ticker, evicts idle sessions and ingests score batches arriving over
// hermes.
type Refresher struct {
	store    store.Store
	sessions *session.Manager
	hermes   hermes.Client
	interval time.Duration
	reload   bool
	scale    float64
	logger   *slog.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func New(s store.Store, m *session.Manager, h hermes.Client, cfg *config.Config, logger *slog.Logger) *Refresher {
	interval := cfg.RefreshInterval()
	if interval <= 0 {
		interval = time.Minute
	}
	return &Refresher{
		store:    s,
		sessions: m,
		hermes:   h,
		interval: interval,
		reload:   cfg.Refresh.Enabled,
		scale:    cfg.Scoring.SourceScale,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

func (r *Refresher) Start(ctx context.Context) {
	r.wg.Add(1)
	go r.loop(ctx)
}

func (r *Refresher) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()
}

func (r *Refresher) loop(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if r.reload {
				if err := r.Reload(ctx); err != nil {
					r.logger.Error("failed to reload catalog", "error", err)
				}
			}
			r.sessions.EvictIdle()
		}
	}
}

// Reload replaces the session catalog with the store's contents.
func (r *Refresher) Reload(ctx context.Context) error {
	records, err := r.store.ListCountries(ctx)
	if err != nil {
		metrics.Refreshes.WithLabelValues("error").Inc()
		return fmt.Errorf("list countries: %w", err)
	}
	r.sessions.LoadRecords(ctx, records)
	metrics.Refreshes.WithLabelValues("ok").Inc()
	return nil
}

// Ingest normalizes a raw batch, persists the accepted records and merges
// them into every session. scale is the source scale maximum; zero uses the
// configured default.
func (r *Refresher) Ingest(ctx context.Context, raw []ingest.RawCountry, scale float64, source string) (ingest.Report, error) {
	if scale <= 0 {
		scale = r.scale
	}
	records, report := ingest.NewNormalizer(scale).Normalize(raw)
	for _, issue := range report.Issues {
		metrics.IngestIssues.WithLabelValues(string(issue.Kind)).Inc()
	}
	if len(records) == 0 {
		return report, nil
	}

	written, err := r.store.UpsertCountries(ctx, records, source)
	if err != nil {
		return report, fmt.Errorf("persist countries: %w", err)
	}
	r.sessions.MergeRecords(ctx, records)

	r.logger.Info("country batch ingested",
		"source", source,
		"accepted", report.Accepted,
		"rejected", report.Rejected,
		"written", written,
		"issues", len(report.Issues),
	)
	return report, nil
}

// SetupSubscriptions registers the inbound score batch subscription.
func (r *Refresher) SetupSubscriptions() error {
	if r.hermes == nil {
		return nil
	}
	return r.hermes.Subscribe(hermes.SubjectScoresBatch, func(_ string, data []byte) {
		var evt hermes.ScoresBatchEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			r.logger.Warn("invalid score batch event", "error", err)
			return
		}
		source := evt.Source
		if source == "" {
			source = "hermes"
		}

		ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
		defer cancel()
		if _, err := r.Ingest(ctx, evt.Countries, evt.Scale, source); err != nil {
			r.logger.Error("failed to ingest score batch", "source", source, "error", err)
		}
	})
}
