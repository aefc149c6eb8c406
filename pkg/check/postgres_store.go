package check

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bina-labs/kanun/pkg/bylaw"
	"github.com/bina-labs/kanun/pkg/engine"

	_ "github.com/lib/pq"
)

// PostgresStore implements Store on PostgreSQL for multi-instance
// deployments. Schema management is external (see migrations in deploy
// tooling); the store assumes the compliance_checks table exists.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open Postgres handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, c *ComplianceCheck) error {
	resultJSON, err := marshalResultPG(c.Result)
	if err != nil {
		return &bylaw.StorageError{Op: "insert", Err: err}
	}
	query := `INSERT INTO compliance_checks
		(id, project_id, project_name, building_type, building_height, floor_area, occupancy, check_date, status, result, failure_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = s.db.ExecContext(ctx, query,
		c.ID, c.ProjectID, c.ProjectName, string(c.BuildingType), c.BuildingHeight, c.FloorArea,
		c.Occupancy, c.CheckDate.UTC(), string(c.Status), resultJSON, c.FailureReason,
	)
	if err != nil {
		return &bylaw.StorageError{Op: "insert", Err: err}
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, c *ComplianceCheck) error {
	resultJSON, err := marshalResultPG(c.Result)
	if err != nil {
		return &bylaw.StorageError{Op: "update", Err: err}
	}
	query := `UPDATE compliance_checks
		SET status = $1, result = $2, failure_reason = $3
		WHERE id = $4 AND status IN ('pending', 'in-progress')`
	res, err := s.db.ExecContext(ctx, query, string(c.Status), resultJSON, c.FailureReason, c.ID)
	if err != nil {
		return &bylaw.StorageError{Op: "update", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &bylaw.StorageError{Op: "update", Err: err}
	}
	if n == 0 {
		if _, getErr := s.Get(ctx, c.ID); errors.Is(getErr, bylaw.ErrNotFound) {
			return bylaw.ErrNotFound
		}
		return bylaw.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*ComplianceCheck, error) {
	query := `SELECT id, project_id, project_name, building_type, building_height, floor_area, occupancy, check_date, status, result, failure_reason
		FROM compliance_checks WHERE id = $1`
	row := s.db.QueryRowContext(ctx, query, id)
	c, err := scanCheckPG(row)
	if err == sql.ErrNoRows {
		return nil, bylaw.ErrNotFound
	}
	if err != nil {
		return nil, &bylaw.StorageError{Op: "get", Err: err}
	}
	return c, nil
}

func (s *PostgresStore) ListByProject(ctx context.Context, projectID string) ([]*ComplianceCheck, error) {
	query := `SELECT id, project_id, project_name, building_type, building_height, floor_area, occupancy, check_date, status, result, failure_reason
		FROM compliance_checks WHERE project_id = $1 ORDER BY check_date DESC, id ASC`
	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, &bylaw.StorageError{Op: "list", Err: err}
	}
	defer func() { _ = rows.Close() }()

	var out []*ComplianceCheck
	for rows.Next() {
		c, err := scanCheckPG(rows)
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

func scanCheckPG(row rowScanner) (*ComplianceCheck, error) {
	var (
		c          ComplianceCheck
		btype      string
		status     string
		resultJSON sql.NullString
	)
	err := row.Scan(&c.ID, &c.ProjectID, &c.ProjectName, &btype, &c.BuildingHeight, &c.FloorArea,
		&c.Occupancy, &c.CheckDate, &status, &resultJSON, &c.FailureReason)
	if err != nil {
		return nil, err
	}
	c.BuildingType = bylaw.BuildingType(btype)
	c.Status = Status(status)
	if resultJSON.Valid && resultJSON.String != "" {
		var r engine.Result
		if err := json.Unmarshal([]byte(resultJSON.String), &r); err != nil {
			return nil, fmt.Errorf("parse result: %w", err)
		}
		c.Result = &r
	}
	return &c, nil
}

func marshalResultPG(r *engine.Result) (any, error) {
	if r == nil {
		return nil, nil
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return string(raw), nil
}
