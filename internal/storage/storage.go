// Package storage provides SQLite-backed persistence for sentiment readings
// and alert subscriptions.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/CunXin1/fearwatch/internal/models"
)

// Storage wraps a SQLite database for all persistence operations.
type Storage struct {
	db *sql.DB
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/fearwatch/data.db.
func New(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "fearwatch", "data.db")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	s := &Storage{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sentiment (
			index_name  TEXT NOT NULL,
			date        TEXT NOT NULL,
			score       REAL NOT NULL,
			rating      TEXT,
			observed_at INTEGER NOT NULL,
			source      TEXT NOT NULL,
			PRIMARY KEY (index_name, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sentiment_date ON sentiment(date, index_name)`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
			email                  TEXT PRIMARY KEY,
			enabled                INTEGER NOT NULL DEFAULT 1,
			last_state             TEXT NOT NULL DEFAULT 'NORMAL',
			last_panic_reminded_at INTEGER,
			created_at             INTEGER NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// UpsertReading inserts or replaces the reading for its (index, date) key,
// which makes the at-least-once daily fetch idempotent.
func (s *Storage) UpsertReading(r *models.Reading) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid reading: %w", err)
	}
	_, err := s.db.Exec(`
		INSERT INTO sentiment (index_name, date, score, rating, observed_at, source)
		VALUES (?,?,?,?,?,?)
		ON CONFLICT(index_name, date) DO UPDATE SET
			score=excluded.score, rating=excluded.rating,
			observed_at=excluded.observed_at, source=excluded.source`,
		r.IndexName, r.Date, r.Score, r.Rating, r.ObservedAt.UnixNano(), r.Source,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert reading: %w", err)
	}
	return nil
}

// LatestReading returns the newest reading for an index by date, or an error
// if the index has no data at all.
func (s *Storage) LatestReading(indexName string) (*models.Reading, error) {
	row := s.db.QueryRow(`
		SELECT index_name, date, score, rating, observed_at, source
		FROM sentiment WHERE index_name = ?
		ORDER BY date DESC LIMIT 1`, indexName)

	var r models.Reading
	var rating sql.NullString
	var observedAtNano int64
	err := row.Scan(&r.IndexName, &r.Date, &r.Score, &rating, &observedAtNano, &r.Source)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no readings for index %s", indexName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest reading: %w", err)
	}
	r.Rating = rating.String
	r.ObservedAt = time.Unix(0, observedAtNano)
	return &r, nil
}

// ReadingCount reports the number of stored readings for an index.
func (s *Storage) ReadingCount(indexName string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM sentiment WHERE index_name = ?`, indexName).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count readings: %w", err)
	}
	return n, nil
}

// Subscribe enrolls an email, re-enabling it if it already exists.
// New subscribers start in the NORMAL state with no reminder timestamp.
func (s *Storage) Subscribe(email string) error {
	_, err := s.db.Exec(`
		INSERT INTO subscriptions (email, enabled, last_state, created_at)
		VALUES (?, 1, ?, ?)
		ON CONFLICT(email) DO UPDATE SET enabled=1`,
		email, string(models.StateNormal), time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe %s: %w", email, err)
	}
	return nil
}

// Unsubscribe disables an email without deleting its alert state.
func (s *Storage) Unsubscribe(email string) error {
	_, err := s.db.Exec(`UPDATE subscriptions SET enabled=0 WHERE email=?`, email)
	if err != nil {
		return fmt.Errorf("failed to unsubscribe %s: %w", email, err)
	}
	return nil
}

// EnabledSubscribers returns every enabled subscription with its alert state.
// A stored last_state that no longer parses fails the whole load; the daily
// runner treats that as a data-integrity stop, not something to paper over.
func (s *Storage) EnabledSubscribers() ([]models.Subscriber, error) {
	rows, err := s.db.Query(`
		SELECT email, enabled, last_state, last_panic_reminded_at, created_at
		FROM subscriptions WHERE enabled=1 ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []models.Subscriber
	for rows.Next() {
		var sub models.Subscriber
		var enabled int
		var lastState string
		var remindedAtNano sql.NullInt64
		var createdAtNano int64
		if err := rows.Scan(&sub.Email, &enabled, &lastState, &remindedAtNano, &createdAtNano); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		state, err := models.ParseMarketState(lastState)
		if err != nil {
			return nil, fmt.Errorf("subscription %s: %w", sub.Email, err)
		}
		sub.Enabled = enabled != 0
		sub.Alert.LastState = state
		if remindedAtNano.Valid {
			t := time.Unix(0, remindedAtNano.Int64)
			sub.Alert.LastPanicRemindedAt = &t
		}
		sub.CreatedAt = time.Unix(0, createdAtNano)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// SaveAlertState writes a subscriber's updated alert state in one statement,
// keeping the per-subscriber read-decide-write atomic at the row level.
func (s *Storage) SaveAlertState(email string, state models.SubscriberAlertState) error {
	var remindedAt any
	if state.LastPanicRemindedAt != nil {
		remindedAt = state.LastPanicRemindedAt.UnixNano()
	}
	res, err := s.db.Exec(`
		UPDATE subscriptions SET last_state=?, last_panic_reminded_at=?
		WHERE email=?`,
		string(state.LastState), remindedAt, email,
	)
	if err != nil {
		return fmt.Errorf("failed to save alert state for %s: %w", email, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("subscription not found: %s", email)
	}
	return nil
}
