// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/tuicard/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Keys used in the key-value table.
const (
	KeyCollections  = "flashcardCollections"
	KeySpeechKey    = "speechKey"
	KeySpeechRegion = "speechRegion"
)

// Store wraps SQLite access for collections, settings and study history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS study_sessions (
			id INTEGER PRIMARY KEY,
			run_id TEXT NOT NULL,
			collection TEXT NOT NULL,
			mode TEXT NOT NULL,
			review INTEGER NOT NULL,
			total INTEGER NOT NULL,
			correct INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_study_sessions_ended_at ON study_sessions(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_study_sessions_collection ON study_sessions(collection);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Get reads a value. The boolean is false when the key is absent.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set overwrites the value stored under key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().Format(time.RFC3339Nano))
	return err
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}

// LoadCollections returns the persisted collection mapping, empty when none is stored.
func (s *Store) LoadCollections(ctx context.Context) (map[string]string, error) {
	raw, ok, err := s.Get(ctx, KeyCollections)
	if err != nil {
		return nil, err
	}
	out := map[string]string{}
	if !ok || strings.TrimSpace(raw) == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("failed to decode collections: %w", err)
	}
	return out, nil
}

// SaveCollections writes the whole collection mapping.
func (s *Store) SaveCollections(ctx context.Context, collections map[string]string) error {
	if collections == nil {
		collections = map[string]string{}
	}
	data, err := json.Marshal(collections)
	if err != nil {
		return fmt.Errorf("failed to encode collections: %w", err)
	}
	return s.Set(ctx, KeyCollections, string(data))
}

// Credentials returns the stored cloud speech key and region.
func (s *Store) Credentials(ctx context.Context) (key, region string, err error) {
	key, _, err = s.Get(ctx, KeySpeechKey)
	if err != nil {
		return "", "", err
	}
	region, _, err = s.Get(ctx, KeySpeechRegion)
	if err != nil {
		return "", "", err
	}
	return key, region, nil
}

// SaveCredentials stores the cloud speech key and region. An empty key clears both.
func (s *Store) SaveCredentials(ctx context.Context, key, region string) error {
	if strings.TrimSpace(key) == "" {
		if err := s.Delete(ctx, KeySpeechKey); err != nil {
			return err
		}
		return s.Delete(ctx, KeySpeechRegion)
	}
	if err := s.Set(ctx, KeySpeechKey, key); err != nil {
		return err
	}
	return s.Set(ctx, KeySpeechRegion, region)
}

// InsertSession stores a completed study round.
func (s *Store) InsertSession(ctx context.Context, rec model.SessionRecord) (int64, error) {
	review := 0
	if rec.Review {
		review = 1
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO study_sessions (run_id, collection, mode, review, total, correct, started_at, ended_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID,
		rec.Collection,
		string(rec.Mode),
		review,
		rec.Total,
		rec.Correct,
		rec.StartedAt.Format(time.RFC3339Nano),
		rec.EndedAt.Format(time.RFC3339Nano),
		rec.EndedAt.Sub(rec.StartedAt).Milliseconds(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListSessions returns stored rounds filtered by stats config, oldest first.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Collection != "" {
		clauses = append(clauses, "collection = ?")
		args = append(args, cfg.Collection)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, run_id, collection, review, ended_at, total, correct, duration_ms
		FROM study_sessions
		WHERE %s
		ORDER BY ended_at ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionAggregate
	for rows.Next() {
		var agg model.SessionAggregate
		var endedAt string
		var review int
		if err := rows.Scan(&agg.SessionID, &agg.RunID, &agg.Collection, &review, &endedAt, &agg.Total, &agg.Correct, &agg.DurationMs); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		agg.EndedAt = parsed
		agg.Review = review != 0
		sessions = append(sessions, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// ListCollectionAggregates sums rounds per collection for the given sessions.
func (s *Store) ListCollectionAggregates(ctx context.Context, sessionIDs []int64) ([]model.CollectionAggregate, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(sessionIDs))
	args := make([]any, len(sessionIDs))
	for i, id := range sessionIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT collection, COUNT(*) AS rounds, SUM(total) AS total, SUM(correct) AS correct
		FROM study_sessions
		WHERE id IN (%s)
		GROUP BY collection
		ORDER BY collection ASC`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.CollectionAggregate
	for rows.Next() {
		var agg model.CollectionAggregate
		if err := rows.Scan(&agg.Collection, &agg.Rounds, &agg.Total, &agg.Correct); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
