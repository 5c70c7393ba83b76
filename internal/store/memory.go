package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/MRAT/internal/scoring"
)

// MemoryStore is a Store held entirely in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	countries map[string]scoring.CountryRecord
	positions map[string]int
	history   []*ScoreHistory
	news      []*NewsItem
	presets   map[string]*WeightPreset
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		countries: make(map[string]scoring.CountryRecord),
		positions: make(map[string]int),
		presets:   make(map[string]*WeightPreset),
		now:       time.Now,
	}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) ListCountries(ctx context.Context) ([]scoring.CountryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]scoring.CountryRecord, 0, len(s.countries))
	for _, rec := range s.countries {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return s.positions[out[i].ID] < s.positions[out[j].ID] })
	return out, nil
}

func (s *MemoryStore) GetCountry(ctx context.Context, id string) (*scoring.CountryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.countries[id]
	if !ok {
		return nil, nil
	}
	out := rec.Clone()
	return &out, nil
}

func (s *MemoryStore) UpsertCountries(ctx context.Context, records []scoring.CountryRecord, source string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	written := 0
	for _, rec := range records {
		existing, ok := s.countries[rec.ID]
		scoresChanged := !ok || !scoresEqual(existing.Scores, rec.Scores)
		if ok && !scoresChanged && existing.Name == rec.Name && existing.Code == rec.Code {
			continue
		}

		stored := rec.Stripped()
		stored.UpdatedAt = recordTime(rec, now)
		if !ok {
			s.positions[rec.ID] = len(s.positions)
		}
		s.countries[rec.ID] = stored

		if scoresChanged {
			s.history = append(s.history, &ScoreHistory{
				ID:         uuid.New(),
				CountryID:  rec.ID,
				Scores:     stored.Clone().Scores,
				Source:     source,
				RecordedAt: stored.UpdatedAt,
			})
		}
		written++
	}
	return written, nil
}

func (s *MemoryStore) GetScoreHistory(ctx context.Context, countryID string, limit int) ([]*ScoreHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit = historyLimit(limit)
	var out []*ScoreHistory
	for i := len(s.history) - 1; i >= 0 && len(out) < limit; i-- {
		if h := s.history[i]; h.CountryID == countryID {
			cp := *h
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemoryStore) AddNews(ctx context.Context, n *NewsItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.countries[n.CountryID]; !ok {
		return fmt.Errorf("add news: country %s not found", n.CountryID)
	}
	prepareNews(n, s.now())
	cp := *n
	s.news = append(s.news, &cp)
	return nil
}

func (s *MemoryStore) ListNews(ctx context.Context, countryID string, limit int) ([]*NewsItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*NewsItem
	for i := len(s.news) - 1; i >= 0; i-- {
		if n := s.news[i]; n.CountryID == countryID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PublishedAt.After(out[j].PublishedAt) })
	if limit = historyLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) SaveWeightPreset(ctx context.Context, p *WeightPreset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	p.UpdatedAt = now
	if existing, ok := s.presets[p.Name]; ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = now
	}
	s.presets[p.Name] = &WeightPreset{
		Name:      p.Name,
		Weights:   p.Weights.Clone(),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	return nil
}

func (s *MemoryStore) GetWeightPreset(ctx context.Context, name string) (*WeightPreset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.presets[name]
	if !ok {
		return nil, nil
	}
	cp := *p
	cp.Weights = p.Weights.Clone()
	return &cp, nil
}

func (s *MemoryStore) ListWeightPresets(ctx context.Context) ([]*WeightPreset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*WeightPreset, 0, len(s.presets))
	for _, p := range s.presets {
		cp := *p
		cp.Weights = p.Weights.Clone()
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
