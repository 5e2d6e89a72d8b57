package request

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	id "github.com/yazedalasad/bloodbank/pkg/domain"
	"github.com/yazedalasad/bloodbank/pkg/platform/sentinel"
	txcontext "github.com/yazedalasad/bloodbank/pkg/platform/tx"
)

// PostgresStore persists blood requests in PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE blood_requests (
//	    id UUID PRIMARY KEY,
//	    requester_id TEXT NOT NULL,
//	    patient_name TEXT NOT NULL,
//	    blood_type TEXT NOT NULL,
//	    units INTEGER NOT NULL,
//	    priority TEXT NOT NULL,
//	    emergency BOOLEAN NOT NULL,
//	    fulfilled BOOLEAN NOT NULL,
//	    fulfilled_at TIMESTAMPTZ,
//	    notes TEXT NOT NULL DEFAULT '',
//	    requested_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX blood_requests_open_idx ON blood_requests (requested_at) WHERE NOT fulfilled;
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) querier(ctx context.Context) dbQuerier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const requestColumns = `id, requester_id, patient_name, blood_type, units, priority, emergency, fulfilled, fulfilled_at, notes, requested_at`

func (s *PostgresStore) Create(ctx context.Context, r *BloodRequest) error {
	_, err := s.querier(ctx).ExecContext(ctx, `
		INSERT INTO blood_requests (`+requestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		r.ID.String(), r.RequesterID, r.PatientName, string(r.BloodType), r.Units,
		string(r.Priority), r.Emergency, r.Fulfilled, r.FulfilledAt, r.Notes, r.RequestedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert blood request: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, requestID id.RequestID) (*BloodRequest, error) {
	row := s.querier(ctx).QueryRowContext(ctx, `
		SELECT `+requestColumns+` FROM blood_requests WHERE id = $1`, requestID.String())
	return scanRequest(row)
}

func (s *PostgresStore) Update(ctx context.Context, r *BloodRequest) error {
	res, err := s.querier(ctx).ExecContext(ctx, `
		UPDATE blood_requests
		SET patient_name = $2, blood_type = $3, units = $4, priority = $5,
		    emergency = $6, fulfilled = $7, fulfilled_at = $8, notes = $9
		WHERE id = $1`,
		r.ID.String(), r.PatientName, string(r.BloodType), r.Units, string(r.Priority),
		r.Emergency, r.Fulfilled, r.FulfilledAt, r.Notes,
	)
	if err != nil {
		return fmt.Errorf("update blood request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*BloodRequest, error) {
	rows, err := s.querier(ctx).QueryContext(ctx, `
		SELECT `+requestColumns+` FROM blood_requests
		ORDER BY requested_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list blood requests: %w", err)
	}
	defer rows.Close()
	return scanRequests(rows)
}

func (s *PostgresStore) ListUnfulfilled(ctx context.Context) ([]*BloodRequest, error) {
	rows, err := s.querier(ctx).QueryContext(ctx, `
		SELECT `+requestColumns+` FROM blood_requests
		WHERE NOT fulfilled
		ORDER BY requested_at`)
	if err != nil {
		return nil, fmt.Errorf("list open blood requests: %w", err)
	}
	defer rows.Close()
	return scanRequests(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*BloodRequest, error) {
	var (
		r         BloodRequest
		rawID     string
		bloodType string
		priority  string
	)
	err := row.Scan(&rawID, &r.RequesterID, &r.PatientName, &bloodType, &r.Units,
		&priority, &r.Emergency, &r.Fulfilled, &r.FulfilledAt, &r.Notes, &r.RequestedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan blood request: %w", err)
	}
	requestID, err := id.ParseRequestID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan request id: %w", err)
	}
	r.ID = requestID
	r.BloodType = id.BloodType(bloodType)
	r.Priority = Priority(priority)
	return &r, nil
}

func scanRequests(rows *sql.Rows) ([]*BloodRequest, error) {
	var out []*BloodRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blood requests: %w", err)
	}
	return out, nil
}
