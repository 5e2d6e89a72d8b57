package donor

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

// PostgresStore persists donors in PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE donors (
//	    id UUID PRIMARY KEY,
//	    national_id TEXT NOT NULL UNIQUE,
//	    first_name TEXT NOT NULL,
//	    last_name TEXT NOT NULL,
//	    date_of_birth DATE NOT NULL,
//	    blood_type TEXT NOT NULL,
//	    phone_number TEXT NOT NULL DEFAULT '',
//	    email TEXT NOT NULL DEFAULT '',
//	    address TEXT NOT NULL DEFAULT '',
//	    health_status TEXT NOT NULL,
//	    smoking_status TEXT NOT NULL,
//	    alcohol_use TEXT NOT NULL,
//	    has_chronic_illness BOOLEAN NOT NULL DEFAULT FALSE,
//	    chronic_illness_details TEXT NOT NULL DEFAULT '',
//	    last_medical_exam DATE,
//	    created_at TIMESTAMPTZ NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX donors_blood_type_idx ON donors (blood_type);
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

const donorColumns = `id, national_id, first_name, last_name, date_of_birth, blood_type,
	phone_number, email, address, health_status, smoking_status, alcohol_use,
	has_chronic_illness, chronic_illness_details, last_medical_exam, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, d *Donor) error {
	_, err := s.querier(ctx).ExecContext(ctx, `
		INSERT INTO donors (`+donorColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		d.ID.String(), d.NationalID, d.FirstName, d.LastName, d.DateOfBirth, string(d.BloodType),
		d.PhoneNumber, d.Email, d.Address, string(d.HealthStatus), string(d.SmokingStatus),
		string(d.AlcoholUse), d.HasChronicIllness, d.ChronicIllnessDetails, d.LastMedicalExam,
		d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert donor: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, donorID id.DonorID) (*Donor, error) {
	row := s.querier(ctx).QueryRowContext(ctx, `
		SELECT `+donorColumns+` FROM donors WHERE id = $1`, donorID.String())
	return scanDonor(row)
}

func (s *PostgresStore) FindByNationalID(ctx context.Context, nationalID string) (*Donor, error) {
	row := s.querier(ctx).QueryRowContext(ctx, `
		SELECT `+donorColumns+` FROM donors WHERE national_id = $1`, nationalID)
	return scanDonor(row)
}

func (s *PostgresStore) Update(ctx context.Context, d *Donor) error {
	res, err := s.querier(ctx).ExecContext(ctx, `
		UPDATE donors SET
			national_id = $2, first_name = $3, last_name = $4, date_of_birth = $5,
			blood_type = $6, phone_number = $7, email = $8, address = $9,
			health_status = $10, smoking_status = $11, alcohol_use = $12,
			has_chronic_illness = $13, chronic_illness_details = $14,
			last_medical_exam = $15, updated_at = $16
		WHERE id = $1`,
		d.ID.String(), d.NationalID, d.FirstName, d.LastName, d.DateOfBirth,
		string(d.BloodType), d.PhoneNumber, d.Email, d.Address,
		string(d.HealthStatus), string(d.SmokingStatus), string(d.AlcoholUse),
		d.HasChronicIllness, d.ChronicIllnessDetails, d.LastMedicalExam, d.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update donor: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update donor rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*Donor, error) {
	rows, err := s.querier(ctx).QueryContext(ctx, `
		SELECT `+donorColumns+` FROM donors ORDER BY last_name, first_name`)
	if err != nil {
		return nil, fmt.Errorf("list donors: %w", err)
	}
	defer rows.Close()
	return scanDonors(rows)
}

func (s *PostgresStore) ListByBloodTypes(ctx context.Context, types []id.BloodType) ([]*Donor, error) {
	raw := make([]string, len(types))
	for i, t := range types {
		raw[i] = string(t)
	}
	rows, err := s.querier(ctx).QueryContext(ctx, `
		SELECT `+donorColumns+` FROM donors
		WHERE blood_type = ANY($1)
		ORDER BY last_name, first_name`, pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("list donors by blood type: %w", err)
	}
	defer rows.Close()
	return scanDonors(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDonor(row rowScanner) (*Donor, error) {
	var (
		d         Donor
		rawID     string
		bloodType string
		health    string
		smoking   string
		alcohol   string
		lastExam  sql.NullTime
	)
	err := row.Scan(
		&rawID, &d.NationalID, &d.FirstName, &d.LastName, &d.DateOfBirth, &bloodType,
		&d.PhoneNumber, &d.Email, &d.Address, &health, &smoking, &alcohol,
		&d.HasChronicIllness, &d.ChronicIllnessDetails, &lastExam, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan donor: %w", err)
	}
	donorID, err := id.ParseDonorID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan donor id: %w", err)
	}
	d.ID = donorID
	d.BloodType = id.BloodType(bloodType)
	d.HealthStatus = HealthStatus(health)
	d.SmokingStatus = SmokingStatus(smoking)
	d.AlcoholUse = AlcoholUse(alcohol)
	if lastExam.Valid {
		exam := lastExam.Time
		d.LastMedicalExam = &exam
	}
	return &d, nil
}

func scanDonors(rows *sql.Rows) ([]*Donor, error) {
	var out []*Donor
	for rows.Next() {
		d, err := scanDonor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate donors: %w", err)
	}
	return out, nil
}
