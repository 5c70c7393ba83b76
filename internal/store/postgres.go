package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/MikeSquared-Agency/MRAT/internal/scoring"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Migrate applies the embedded schema migrations.
func (s *PostgresStore) Migrate() error {
	return AutoMigratePostgres(stdlib.OpenDBFromPool(s.pool))
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ListCountries(ctx context.Context) ([]scoring.CountryRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, code, scores, updated_at
		FROM countries ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	defer rows.Close()

	var out []scoring.CountryRecord
	for rows.Next() {
		rec, err := scanCountry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetCountry(ctx context.Context, id string) (*scoring.CountryRecord, error) {
	rec, err := scanCountry(s.pool.QueryRow(ctx, `
		SELECT id, name, code, scores, updated_at
		FROM countries WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func scanCountry(row pgx.Row) (*scoring.CountryRecord, error) {
	var rec scoring.CountryRecord
	var scoresJSON []byte
	if err := row.Scan(&rec.ID, &rec.Name, &rec.Code, &scoresJSON, &rec.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan country: %w", err)
	}
	scores, err := decodeScores(scoresJSON)
	if err != nil {
		return nil, err
	}
	rec.Scores = scores
	return &rec, nil
}

func (s *PostgresStore) UpsertCountries(ctx context.Context, records []scoring.CountryRecord, source string) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now()
	written := 0
	for _, rec := range records {
		var name, code string
		var existingJSON []byte
		err := tx.QueryRow(ctx, `
			SELECT name, code, scores FROM countries WHERE id = $1 FOR UPDATE`, rec.ID,
		).Scan(&name, &code, &existingJSON)

		isNew := errors.Is(err, pgx.ErrNoRows)
		if err != nil && !isNew {
			return 0, fmt.Errorf("load country %s: %w", rec.ID, err)
		}

		scoresChanged := true
		if !isNew {
			existing, err := decodeScores(existingJSON)
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

		if _, err := tx.Exec(ctx, `
			INSERT INTO countries (id, name, code, scores, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				code = EXCLUDED.code,
				scores = EXCLUDED.scores,
				updated_at = EXCLUDED.updated_at`,
			rec.ID, rec.Name, rec.Code, scoresJSON, at,
		); err != nil {
			return 0, fmt.Errorf("upsert country %s: %w", rec.ID, err)
		}

		if scoresChanged {
			if _, err := tx.Exec(ctx, `
				INSERT INTO country_score_history (id, country_id, scores, source, recorded_at)
				VALUES ($1, $2, $3, $4, $5)`,
				uuid.New(), rec.ID, scoresJSON, source, at,
			); err != nil {
				return 0, fmt.Errorf("insert history %s: %w", rec.ID, err)
			}
		}
		written++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit upsert: %w", err)
	}
	return written, nil
}

func (s *PostgresStore) GetScoreHistory(ctx context.Context, countryID string, limit int) ([]*ScoreHistory, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, country_id, scores, source, recorded_at
		FROM country_score_history
		WHERE country_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2`, countryID, historyLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []*ScoreHistory
	for rows.Next() {
		h := &ScoreHistory{}
		var scoresJSON []byte
		if err := rows.Scan(&h.ID, &h.CountryID, &scoresJSON, &h.Source, &h.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if h.Scores, err = decodeScores(scoresJSON); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AddNews(ctx context.Context, n *NewsItem) error {
	prepareNews(n, time.Now())
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO country_news (id, country_id, title, content, source, published_at, sentiment, reliability, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		n.ID, n.CountryID, n.Title, n.Content, n.Source, n.PublishedAt, string(n.Sentiment), n.Reliability, n.CreatedAt,
	); err != nil {
		return fmt.Errorf("add news: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListNews(ctx context.Context, countryID string, limit int) ([]*NewsItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, country_id, title, content, source, published_at, sentiment, reliability, created_at
		FROM country_news
		WHERE country_id = $1
		ORDER BY published_at DESC, created_at DESC
		LIMIT $2`, countryID, historyLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query news: %w", err)
	}
	defer rows.Close()

	var out []*NewsItem
	for rows.Next() {
		n := &NewsItem{}
		var sentiment string
		if err := rows.Scan(&n.ID, &n.CountryID, &n.Title, &n.Content, &n.Source, &n.PublishedAt, &sentiment, &n.Reliability, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan news: %w", err)
		}
		n.Sentiment = Sentiment(sentiment)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SaveWeightPreset(ctx context.Context, p *WeightPreset) error {
	weightsJSON, err := encodeWeights(p.Weights)
	if err != nil {
		return err
	}
	return s.pool.QueryRow(ctx, `
		INSERT INTO weight_presets (name, weights)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET
			weights = EXCLUDED.weights,
			updated_at = now()
		RETURNING created_at, updated_at`,
		p.Name, weightsJSON,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (s *PostgresStore) GetWeightPreset(ctx context.Context, name string) (*WeightPreset, error) {
	p, err := scanPreset(s.pool.QueryRow(ctx, `
		SELECT name, weights, created_at, updated_at
		FROM weight_presets WHERE name = $1`, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (s *PostgresStore) ListWeightPresets(ctx context.Context) ([]*WeightPreset, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT name, weights, created_at, updated_at
		FROM weight_presets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	defer rows.Close()

	var out []*WeightPreset
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPreset(row pgx.Row) (*WeightPreset, error) {
	p := &WeightPreset{}
	var weightsJSON []byte
	if err := row.Scan(&p.Name, &weightsJSON, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan preset: %w", err)
	}
	w, err := decodeWeights(weightsJSON)
	if err != nil {
		return nil, err
	}
	p.Weights = w
	return p, nil
}
