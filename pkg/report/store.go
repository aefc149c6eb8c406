package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/bina-labs/kanun/pkg/bylaw"

	_ "modernc.org/sqlite"
)

// Store persists generated reports. Reports are write-once; there is no
// update operation.
type Store interface {
	Insert(ctx context.Context, r *Report) error
	Get(ctx context.Context, id string) (*Report, error)
}

// MemoryStore is an in-memory Store for tests and single-process use.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[string]*Report
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reports: make(map[string]*Report)}
}

func (s *MemoryStore) Insert(ctx context.Context, r *Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reports[r.ID]; exists {
		return bylaw.ErrInvalidState
	}
	clone := *r
	s.reports[r.ID] = &clone
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, bylaw.ErrNotFound
	}
	clone := *r
	return &clone, nil
}

// SQLiteStore is the durable report store. The full report body is kept as
// canonical JSON so the export stays byte-identical after a round trip.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an open database handle and ensures the schema.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, &bylaw.StorageError{Op: "migrate", Err: err}
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS compliance_reports (
		id TEXT PRIMARY KEY,
		check_id TEXT NOT NULL,
		generated_date TEXT NOT NULL,
		body JSON NOT NULL
	);`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

func (s *SQLiteStore) Insert(ctx context.Context, r *Report) error {
	body, err := json.Marshal(r)
	if err != nil {
		return &bylaw.StorageError{Op: "insert", Err: err}
	}
	query := `INSERT INTO compliance_reports (id, check_id, generated_date, body) VALUES (?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query, r.ID, r.CheckID,
		r.GeneratedDate.UTC().Format(time.RFC3339Nano), string(body))
	if err != nil {
		return &bylaw.StorageError{Op: "insert", Err: err}
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Report, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM compliance_reports WHERE id = ?`, id).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, bylaw.ErrNotFound
	}
	if err != nil {
		return nil, &bylaw.StorageError{Op: "get", Err: err}
	}
	var r Report
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, &bylaw.StorageError{Op: "get", Err: err}
	}
	return &r, nil
}

// PostgresStore persists reports in Postgres. Schema management is
// external; the store expects the compliance_reports table to exist.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, r *Report) error {
	body, err := json.Marshal(r)
	if err != nil {
		return &bylaw.StorageError{Op: "insert", Err: err}
	}
	query := `INSERT INTO compliance_reports (id, check_id, generated_date, body) VALUES ($1, $2, $3, $4)`
	_, err = s.db.ExecContext(ctx, query, r.ID, r.CheckID, r.GeneratedDate.UTC(), string(body))
	if err != nil {
		return &bylaw.StorageError{Op: "insert", Err: err}
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Report, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM compliance_reports WHERE id = $1`, id).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, bylaw.ErrNotFound
	}
	if err != nil {
		return nil, &bylaw.StorageError{Op: "get", Err: err}
	}
	var r Report
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, &bylaw.StorageError{Op: "get", Err: err}
	}
	return &r, nil
}
