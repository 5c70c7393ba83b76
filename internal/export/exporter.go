package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/MikeSquared-Agency/MRAT/internal/hermes"
	"github.com/MikeSquared-Agency/MRAT/internal/metrics"
	"github.com/MikeSquared-Agency/MRAT/internal/session"
)

const (
	keyTimeFormat = "20060102T150405Z"
	latestName    = "latest.json"
)

// Exporter serializes session snapshots and writes them to a BlobStore. Each
// export is stored under its own timestamped key and copied to latest.json.
type Exporter struct {
	blobs   BlobStore
	backend string
	prefix  string
	hermes  hermes.Client
	logger  *slog.Logger
	now     func() time.Time
}

func NewExporter(blobs BlobStore, backend, prefix string, h hermes.Client, logger *slog.Logger) *Exporter {
	if backend == "" {
		backend = "local"
	}
	return &Exporter{
		blobs:   blobs,
		backend: backend,
		prefix:  prefix,
		hermes:  h,
		logger:  logger,
		now:     time.Now,
	}
}

// Export writes the report for snap and returns its timestamped key.
func (e *Exporter) Export(ctx context.Context, snap *session.Snapshot) (string, error) {
	now := e.now().UTC()
	report := BuildReport(snap, now)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		metrics.Exports.WithLabelValues(e.backend, "error").Inc()
		return "", fmt.Errorf("marshal report: %w", err)
	}

	key := path.Join(e.prefix, now.Format(keyTimeFormat)+".json")
	if err := e.blobs.Put(ctx, key, data); err != nil {
		metrics.Exports.WithLabelValues(e.backend, "error").Inc()
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := e.blobs.Put(ctx, path.Join(e.prefix, latestName), data); err != nil {
		metrics.Exports.WithLabelValues(e.backend, "error").Inc()
		return "", fmt.Errorf("write latest report: %w", err)
	}
	metrics.Exports.WithLabelValues(e.backend, "ok").Inc()

	e.logger.Info("rankings exported",
		"key", key,
		"backend", e.backend,
		"session_id", snap.SessionID,
		"countries", len(report.Countries),
	)

	if e.hermes != nil {
		evt := hermes.ExportCompletedEvent{
			Key:       key,
			Countries: len(report.Countries),
			Backend:   e.backend,
			Timestamp: now,
		}
		if err := e.hermes.Publish(hermes.SubjectExportCompleted, evt); err != nil {
			e.logger.Warn("failed to publish export event", "error", err)
		}
	}
	return key, nil
}

// Latest reads back the most recent report. It returns nil, nil when nothing
// has been exported yet.
func (e *Exporter) Latest(ctx context.Context) (*Report, error) {
	data, err := e.blobs.Get(ctx, path.Join(e.prefix, latestName))
	if errors.Is(err, ErrBlobNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read latest report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode latest report: %w", err)
	}
	return &r, nil
}
