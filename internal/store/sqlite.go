package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/MikeSquared-Agency/MRAT/internal/scoring"
)

// SQLiteStore keeps the catalog in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{`PRAGMA journal_mode=WAL;`, `PRAGMA foreign_keys=ON;`} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("configure sqlite: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Migrate applies the embedded schema migrations.
func (s *SQLiteStore) Migrate() error {
	return AutoMigrateSQLite(s.db)
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) ListCountries(ctx context.Context) ([]scoring.CountryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, code, scores, updated_at
FROM countries ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	defer rows.Close()

	var out []scoring.CountryRecord
	for rows.Next() {
		rec, err := scanSQLiteCountry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetCountry(ctx context.Context, id string) (*scoring.CountryRecord, error) {
	rec, err := scanSQLiteCountry(s.db.QueryRowContext(ctx, `
SELECT id, name, code, scores, updated_at
FROM countries WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

type sqlScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteCountry(row sqlScanner) (*scoring.CountryRecord, error) {
	var rec scoring.CountryRecord
	var scoresJSON string
	if err := row.Scan(&rec.ID, &rec.Name, &rec.Code, &scoresJSON, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan country: %w", err)
	}
	scores, err := decodeScores([]byte(scoresJSON))
	if err != nil {
		return nil, err
	}
	rec.Scores = scores
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return &rec, nil
}

func (s *SQLiteStore) UpsertCountries(ctx context.Context, records []scoring.CountryRecord, source string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	upsert, err := tx.PrepareContext(ctx, `
INSERT INTO countries (id, name, code, scores, created_at, updated_at, position)
VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM countries))
ON CONFLICT(id) DO UPDATE SET
  name = excluded.name,
  code = excluded.code,
  scores = excluded.scores,
  updated_at = excluded.updated_at
`)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer upsert.Close()

	history, err := tx.PrepareContext(ctx, `
INSERT INTO country_score_history (id, country_id, scores, source, recorded_at)
VALUES (?, ?, ?, ?, ?)
`)
	if err != nil {
		return 0, fmt.Errorf("prepare history: %w", err)
	}
	defer history.Close()

	now := time.Now()
	written := 0
	for _, rec := range records {
		var name, code, existingJSON string
		err := tx.QueryRowContext(ctx, `SELECT name, code, scores FROM countries WHERE id = ?`, rec.ID).
			Scan(&name, &code, &existingJSON)

		isNew := errors.Is(err, sql.ErrNoRows)
		if err != nil && !isNew {
			return 0, fmt.Errorf("load country %s: %w", rec.ID, err)
		}

		scoresChanged := true
		if !isNew {
			existing, err := decodeScores([]byte(existingJSON))
			if err != nil {
				return 0, err
			}
			scoresChanged = !scoresEqual(existing, rec.Scores)
			if !scoresChanged && name == rec.Name && code == rec.Code {
				continue
			}
		}

		scoresJSON, err := encodeScores(rec.Scores)
		if err != nil {
			return 0, err
		}
		at := recordTime(rec, now)

		if _, err := upsert.ExecContext(ctx, rec.ID, rec.Name, rec.Code, string(scoresJSON), at, at); err != nil {
			return 0, fmt.Errorf("upsert country %s: %w", rec.ID, err)
		}
		if scoresChanged {
			if _, err := history.ExecContext(ctx, uuid.NewString(), rec.ID, string(scoresJSON), source, at); err != nil {
				return 0, fmt.Errorf("insert history %s: %w", rec.ID, err)
			}
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert: %w", err)
	}
	return written, nil
}

func (s *SQLiteStore) GetScoreHistory(ctx context.Context, countryID string, limit int) ([]*ScoreHistory, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, country_id, scores, source, recorded_at
FROM country_score_history
WHERE country_id = ?
ORDER BY recorded_at DESC, rowid DESC
LIMIT ?`, countryID, historyLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []*ScoreHistory
	for rows.Next() {
		h := &ScoreHistory{}
		var id, scoresJSON string
		if err := rows.Scan(&id, &h.CountryID, &scoresJSON, &h.Source, &h.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if h.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse history id: %w", err)
		}
		if h.Scores, err = decodeScores([]byte(scoresJSON)); err != nil {
			return nil, err
		}
		h.RecordedAt = h.RecordedAt.UTC()
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AddNews(ctx context.Context, n *NewsItem) error {
	prepareNews(n, time.Now())
	if _, err := s.db.ExecContext(ctx, `
INSERT INTO country_news (id, country_id, title, content, source, published_at, sentiment, reliability, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID.String(), n.CountryID, n.Title, n.Content, n.Source, n.PublishedAt, string(n.Sentiment), n.Reliability, n.CreatedAt,
	); err != nil {
		return fmt.Errorf("add news: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListNews(ctx context.Context, countryID string, limit int) ([]*NewsItem, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, country_id, title, content, source, published_at, sentiment, reliability, created_at
FROM country_news
WHERE country_id = ?
ORDER BY published_at DESC, rowid DESC
LIMIT ?`, countryID, historyLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query news: %w", err)
	}
	defer rows.Close()

	var out []*NewsItem
	for rows.Next() {
		n := &NewsItem{}
		var id, sentiment string
		if err := rows.Scan(&id, &n.CountryID, &n.Title, &n.Content, &n.Source, &n.PublishedAt, &sentiment, &n.Reliability, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan news: %w", err)
		}
		if n.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse news id: %w", err)
		}
		n.Sentiment = Sentiment(sentiment)
		n.PublishedAt, n.CreatedAt = n.PublishedAt.UTC(), n.CreatedAt.UTC()
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveWeightPreset(ctx context.Context, p *WeightPreset) error {
	weightsJSON, err := encodeWeights(p.Weights)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx, `
INSERT INTO weight_presets (name, weights, created_at, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
  weights = excluded.weights,
  updated_at = excluded.updated_at
`, p.Name, string(weightsJSON), now, now); err != nil {
		return fmt.Errorf("save preset: %w", err)
	}

	saved, err := s.GetWeightPreset(ctx, p.Name)
	if err != nil {
		return err
	}
	p.CreatedAt, p.UpdatedAt = saved.CreatedAt, saved.UpdatedAt
	return nil
}

func (s *SQLiteStore) GetWeightPreset(ctx context.Context, name string) (*WeightPreset, error) {
	p, err := scanSQLitePreset(s.db.QueryRowContext(ctx, `
SELECT name, weights, created_at, updated_at
FROM weight_presets WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (s *SQLiteStore) ListWeightPresets(ctx context.Context) ([]*WeightPreset, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT name, weights, created_at, updated_at
FROM weight_presets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	defer rows.Close()

	var out []*WeightPreset
	for rows.Next() {
		p, err := scanSQLitePreset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanSQLitePreset(row sqlScanner) (*WeightPreset, error) {
	p := &WeightPreset{}
	var weightsJSON string
	if err := row.Scan(&p.Name, &weightsJSON, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan preset: %w", err)
	}
	w, err := decodeWeights([]byte(weightsJSON))
	if err != nil {
		return nil, err
	}
	p.Weights = w
	p.CreatedAt, p.UpdatedAt = p.CreatedAt.UTC(), p.UpdatedAt.UTC()
	return p, nil
}
