package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/MikeSquared-Agency/MRAT/internal/hermes"
	"github.com/MikeSquared-Agency/MRAT/internal/metrics"
	"github.com/MikeSquared-Agency/MRAT/internal/scoring"
)

var ErrInvalidSessionID = errors.New("invalid session id")

const maxSessionIDLen = 64

type Options struct {
	DefaultID      string
	DefaultWeights scoring.WeightVector
	TTL            time.Duration
	MaxSessions    int
	Hermes         hermes.Client
	Logger         *slog.Logger
}

// Manager owns every session board and the country catalog they share.
// Snapshots handed out are read-only.
type Manager struct {
	defaultID   string
	defaults    scoring.WeightVector
	ttl         time.Duration
	maxSessions int
	scorer      *scoring.Scorer
	hermes      hermes.Client
	logger      *slog.Logger
	now         func() time.Time

	loadMu  sync.Mutex
	mu      sync.RWMutex
	boards  map[string]*Board
	catalog []scoring.CountryRecord
}

func NewManager(opts Options) *Manager {
	if opts.DefaultID == "" {
		opts.DefaultID = "default"
	}
	if len(opts.DefaultWeights) == 0 {
		opts.DefaultWeights = scoring.DefaultWeights()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{
		defaultID:   opts.DefaultID,
		defaults:    opts.DefaultWeights.Clone(),
		ttl:         opts.TTL,
		maxSessions: opts.MaxSessions,
		scorer:      scoring.NewScorer(opts.Logger),
		hermes:      opts.Hermes,
		logger:      opts.Logger,
		now:         time.Now,
		boards:      make(map[string]*Board),
	}
}

func (m *Manager) DefaultID() string { return m.defaultID }

// Board returns the board for id, creating it from the default weights on
// first use. An empty id selects the default session.
func (m *Manager) Board(id string) (*Board, error) {
	if id == "" {
		id = m.defaultID
	}
	if !ValidSessionID(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}

	m.mu.RLock()
	b, ok := m.boards[id]
	m.mu.RUnlock()
	if ok {
		return b, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.boards[id]; ok {
		return b, nil
	}
	if m.maxSessions > 0 && len(m.boards) >= m.maxSessions {
		m.evictOldestLocked()
	}

	b = NewBoard(id, m.defaults, m.catalog, m.scorer)
	b.now = m.now
	b.touch()
	m.boards[id] = b
	metrics.Sessions.Set(float64(len(m.boards)))
	m.logger.Debug("session created", "session_id", id)
	return b, nil
}

// Snapshot returns the current snapshot of a session.
func (m *Manager) Snapshot(id string) (*Snapshot, error) {
	b, err := m.Board(id)
	if err != nil {
		return nil, err
	}
	return b.Snapshot(), nil
}

// EditWeight rebalances one factor in a session and announces the result.
func (m *Manager) EditWeight(ctx context.Context, id string, f scoring.Factor, value float64) (*Snapshot, error) {
	b, err := m.Board(id)
	if err != nil {
		return nil, err
	}
	snap, err := b.EditWeight(f, value)
	if err != nil {
		return nil, err
	}

	applied, _ := snap.Weights.Get(f)
	m.logger.Info("weights rebalanced",
		"session_id", b.ID(),
		"factor", f,
		"requested", value,
		"applied", applied,
		"version", snap.Version,
	)
	m.publish(hermes.SubjectWeightsRebalanced(b.ID()), hermes.WeightsRebalancedEvent{
		SessionID: b.ID(),
		Factor:    f,
		Requested: value,
		Applied:   applied,
		Weights:   snap.Weights,
		Version:   snap.Version,
	})
	m.publishRankings(snap, "rebalance")
	return snap, nil
}

// ReplaceWeights validates and installs a full weight vector in a session.
func (m *Manager) ReplaceWeights(ctx context.Context, id string, w scoring.WeightVector) (*Snapshot, error) {
	b, err := m.Board(id)
	if err != nil {
		return nil, err
	}
	snap, err := b.ReplaceWeights(w)
	if err != nil {
		return nil, err
	}

	m.logger.Info("weights replaced", "session_id", b.ID(), "version", snap.Version)
	m.publish(hermes.SubjectWeightsReplaced(b.ID()), hermes.WeightsReplacedEvent{
		SessionID: b.ID(),
		Weights:   snap.Weights,
		Version:   snap.Version,
	})
	m.publishRankings(snap, "replace")
	return snap, nil
}

// LoadRecords replaces the shared catalog and re-evaluates every session.
func (m *Manager) LoadRecords(ctx context.Context, records []scoring.CountryRecord) {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()
	m.load(records)
}

// MergeRecords upserts records into the catalog by id, keeping existing
// positions, and re-evaluates every session.
func (m *Manager) MergeRecords(ctx context.Context, records []scoring.CountryRecord) {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	merged := m.Catalog()
	index := make(map[string]int, len(merged))
	for i, r := range merged {
		index[r.ID] = i
	}
	for _, r := range records {
		if i, ok := index[r.ID]; ok {
			merged[i] = r
			continue
		}
		index[r.ID] = len(merged)
		merged = append(merged, r)
	}
	m.load(merged)
}

func (m *Manager) load(records []scoring.CountryRecord) {
	catalog := make([]scoring.CountryRecord, len(records))
	for i, r := range records {
		catalog[i] = r.Stripped()
	}

	m.mu.Lock()
	m.catalog = catalog
	boards := make([]*Board, 0, len(m.boards))
	for _, b := range m.boards {
		boards = append(boards, b)
	}
	m.mu.Unlock()

	for _, b := range boards {
		snap := b.Load(catalog)
		if b.ID() == m.defaultID {
			m.publishRankings(snap, "catalog")
		}
	}
	metrics.Countries.Set(float64(len(catalog)))
	m.logger.Info("catalog loaded", "countries", len(catalog), "sessions", len(boards))
}

// Catalog returns a copy of the shared country catalog in load order.
func (m *Manager) Catalog() []scoring.CountryRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]scoring.CountryRecord, len(m.catalog))
	for i, r := range m.catalog {
		out[i] = r.Clone()
	}
	return out
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.boards)
}

// EvictIdle drops sessions unused for longer than the TTL. The default
// session is never evicted.
func (m *Manager) EvictIdle() int {
	if m.ttl <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, b := range m.boards {
		if id == m.defaultID {
			continue
		}
		if b.IdleSince().Before(cutoff) {
			delete(m.boards, id)
			evicted++
		}
	}
	if evicted > 0 {
		metrics.Sessions.Set(float64(len(m.boards)))
		m.logger.Info("evicted idle sessions", "count", evicted, "remaining", len(m.boards))
	}
	return evicted
}

func (m *Manager) evictOldestLocked() {
	ids := make([]string, 0, len(m.boards))
	for id := range m.boards {
		if id != m.defaultID {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return
	}
	sort.Slice(ids, func(i, j int) bool {
		return m.boards[ids[i]].IdleSince().Before(m.boards[ids[j]].IdleSince())
	})
	delete(m.boards, ids[0])
	m.logger.Debug("session evicted to make room", "session_id", ids[0])
}

func (m *Manager) publishRankings(snap *Snapshot, reason string) {
	m.publish(hermes.SubjectRankingsUpdated, hermes.RankingsUpdatedEvent{
		SessionID: snap.SessionID,
		Reason:    reason,
		Version:   snap.Version,
		Rankings:  hermes.RankingEntries(snap.Countries),
		Timestamp: snap.UpdatedAt,
	})
}

func (m *Manager) publish(subject string, data interface{}) {
	if m.hermes == nil {
		return
	}
	if err := m.hermes.Publish(subject, data); err != nil {
		m.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}

// ValidSessionID reports whether id is 1 to 64 letters, digits, '-' or '_'.
func ValidSessionID(id string) bool {
	if id == "" || len(id) > maxSessionIDLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
