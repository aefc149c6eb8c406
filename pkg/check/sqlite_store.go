package check

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bina-labs/kanun/pkg/bylaw"
	"github.com/bina-labs/kanun/pkg/engine"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the default durable Store.
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
	CREATE TABLE IF NOT EXISTS compliance_checks (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		project_name TEXT,
		building_type TEXT NOT NULL,
		building_height REAL NOT NULL,
		floor_area REAL NOT NULL,
		occupancy INTEGER NOT NULL,
		check_date TEXT NOT NULL,
		status TEXT NOT NULL,
		result JSON,
		failure_reason TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_checks_project ON compliance_checks(project_id, check_date DESC);`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

const checkColumns = `id, project_id, project_name, building_type, building_height, floor_area, occupancy, check_date, status, result, failure_reason`

func (s *SQLiteStore) Insert(ctx context.Context, c *ComplianceCheck) error {
	resultJSON, err := marshalResult(c.Result)
	if err != nil {
		return &bylaw.StorageError{Op: "insert", Err: err}
	}
	query := `INSERT INTO compliance_checks (` + checkColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		c.ID, c.ProjectID, c.ProjectName, string(c.BuildingType), c.BuildingHeight, c.FloorArea,
		c.Occupancy, c.CheckDate.UTC().Format(time.RFC3339Nano), string(c.Status), resultJSON, c.FailureReason,
	)
	if err != nil {
		return &bylaw.StorageError{Op: "insert", Err: err}
	}
	return nil
}

func (s *SQLiteStore) Update(ctx context.Context, c *ComplianceCheck) error {
	resultJSON, err := marshalResult(c.Result)
	if err != nil {
		return &bylaw.StorageError{Op: "update", Err: err}
	}
	// The status guard keeps completed records immutable at the store level.
	query := `UPDATE compliance_checks
		SET status = ?, result = ?, failure_reason = ?
		WHERE id = ? AND status IN ('pending', 'in-progress')`
	res, err := s.db.ExecContext(ctx, query, string(c.Status), resultJSON, c.FailureReason, c.ID)
	if err != nil {
		return &bylaw.StorageError{Op: "update", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &bylaw.StorageError{Op: "update", Err: err}
	}
	if n == 0 {
		// Either missing or already terminal.
		if _, getErr := s.Get(ctx, c.ID); errors.Is(getErr, bylaw.ErrNotFound) {
			return bylaw.ErrNotFound
		}
		return bylaw.ErrInvalidState
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*ComplianceCheck, error) {
	query := `SELECT ` + checkColumns + ` FROM compliance_checks WHERE id = ?`
	row := s.db.QueryRowContext(ctx, query, id)
	c, err := scanCheck(row)
	if err == sql.ErrNoRows {
		return nil, bylaw.ErrNotFound
	}
	if err != nil {
		return nil, &bylaw.StorageError{Op: "get", Err: err}
	}
	return c, nil
}

func (s *SQLiteStore) ListByProject(ctx context.Context, projectID string) ([]*ComplianceCheck, error) {
	query := `SELECT ` + checkColumns + ` FROM compliance_checks
		WHERE project_id = ? ORDER BY check_date DESC, id ASC`
	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, &bylaw.StorageError{Op: "list", Err: err}
	}
	defer func() { _ = rows.Close() }()

	var out []*ComplianceCheck
	for rows.Next() {
		c, err := scanCheck(rows)
		if err != nil {
			return nil, &bylaw.StorageError{Op: "list", Err: err}
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &bylaw.StorageError{Op: "list", Err: err}
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCheck(row rowScanner) (*ComplianceCheck, error) {
	var (
		c          ComplianceCheck
		btype      string
		status     string
		checkDate  string
		resultJSON sql.NullString
	)
	err := row.Scan(&c.ID, &c.ProjectID, &c.ProjectName, &btype, &c.BuildingHeight, &c.FloorArea,
		&c.Occupancy, &checkDate, &status, &resultJSON, &c.FailureReason)
	if err != nil {
		return nil, err
	}
	c.BuildingType = bylaw.BuildingType(btype)
	c.Status = Status(status)
	c.CheckDate, err = time.Parse(time.RFC3339Nano, checkDate)
	if err != nil {
		return nil, fmt.Errorf("parse check_date: %w", err)
	}
	if resultJSON.Valid && resultJSON.String != "" {
		var r engine.Result
		if err := json.Unmarshal([]byte(resultJSON.String), &r); err != nil {
			return nil, fmt.Errorf("parse result: %w", err)
		}
		c.Result = &r
	}
	return &c, nil
}

func marshalResult(r *engine.Result) (any, error) {
	if r == nil {
		return nil, nil
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return string(raw), nil
}
