package session

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MikeSquared-Agency/MRAT/internal/metrics"
	"github.com/MikeSquared-Agency/MRAT/internal/scoring"
)

var ErrUnknownFactor = errors.New("unknown factor")

// Snapshot is an immutable view of one session: a weight vector and every
// country evaluated against exactly that vector.
type Snapshot struct {
	SessionID string                  `json:"session_id"`
	Version   uint64                  `json:"version"`
	Weights   scoring.WeightVector    `json:"weights"`
	Countries []scoring.CountryRecord `json:"countries"`
	UpdatedAt time.Time               `json:"updated_at"`

	// base holds the catalog in load order so ties always break the same way.
	base []scoring.CountryRecord
}

// Country returns the evaluated record with the given id.
func (s *Snapshot) Country(id string) (scoring.CountryRecord, bool) {
	for _, c := range s.Countries {
		if c.ID == id {
			return c, true
		}
	}
	return scoring.CountryRecord{}, false
}

// Board holds one session's state. Readers load the current snapshot without
// locking; writers serialize on mu and publish a fresh snapshot.
type Board struct {
	id       string
	scorer   *scoring.Scorer
	now      func() time.Time
	mu       sync.Mutex
	current  atomic.Pointer[Snapshot]
	lastUsed atomic.Int64
}

func NewBoard(id string, weights scoring.WeightVector, records []scoring.CountryRecord, scorer *scoring.Scorer) *Board {
	b := &Board{id: id, scorer: scorer, now: time.Now}
	b.current.Store(b.build(0, weights.Clone(), records, "created"))
	b.touch()
	return b
}

func (b *Board) ID() string { return b.id }

// Snapshot returns the current state.
func (b *Board) Snapshot() *Snapshot {
	b.touch()
	return b.current.Load()
}

// EditWeight applies a single-factor edit through scoring.Rebalance.
func (b *Board) EditWeight(f scoring.Factor, value float64) (*Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.touch()

	cur := b.current.Load()
	if _, ok := cur.Weights.Get(f); !ok {
		return cur, fmt.Errorf("%w: %q", ErrUnknownFactor, f)
	}

	next := b.build(cur.Version+1, scoring.Rebalance(cur.Weights, f, value), cur.base, "rebalance")
	b.current.Store(next)
	metrics.Rebalances.WithLabelValues(string(f)).Inc()
	return next, nil
}

// ReplaceWeights swaps in a complete vector after validating it. No
// rebalancing takes place.
func (b *Board) ReplaceWeights(w scoring.WeightVector) (*Snapshot, error) {
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("replace weights: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.touch()

	cur := b.current.Load()
	next := b.build(cur.Version+1, w.Clone(), cur.base, "replace")
	b.current.Store(next)
	metrics.WeightReplacements.Inc()
	return next, nil
}

// Load re-evaluates a new country set against the current weights.
func (b *Board) Load(records []scoring.CountryRecord) *Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	cur := b.current.Load()
	next := b.build(cur.Version+1, cur.Weights, records, "load")
	b.current.Store(next)
	return next
}

// IdleSince returns when the board was last read or written.
func (b *Board) IdleSince() time.Time {
	return time.Unix(0, b.lastUsed.Load())
}

func (b *Board) touch() {
	b.lastUsed.Store(b.now().UnixNano())
}

func (b *Board) build(version uint64, weights scoring.WeightVector, records []scoring.CountryRecord, reason string) *Snapshot {
	start := time.Now()
	base := make([]scoring.CountryRecord, len(records))
	for i, r := range records {
		base[i] = r.Stripped()
	}

	snap := &Snapshot{
		SessionID: b.id,
		Version:   version,
		Weights:   weights,
		Countries: b.scorer.Evaluate(base, weights),
		UpdatedAt: b.now().UTC(),
		base:      base,
	}

	metrics.Evaluations.WithLabelValues(reason).Inc()
	metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	return snap
}
