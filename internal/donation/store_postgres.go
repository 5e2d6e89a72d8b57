package donation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	id "github.com/yazedalasad/bloodbank/pkg/domain"
	"github.com/yazedalasad/bloodbank/pkg/platform/sentinel"
	txcontext "github.com/yazedalasad/bloodbank/pkg/platform/tx"
)

// PostgresStore persists donation records in PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE donations (
//	    id UUID PRIMARY KEY,
//	    donor_id UUID NOT NULL REFERENCES donors (id),
//	    blood_type TEXT NOT NULL,
//	    donation_date DATE NOT NULL,
//	    volume_ml INTEGER NOT NULL,
//	    approved BOOLEAN NOT NULL,
//	    notes TEXT NOT NULL DEFAULT '',
//	    created_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX donations_ledger_idx ON donations (blood_type, donation_date) WHERE approved;
//	CREATE INDEX donations_donor_idx ON donations (donor_id, donation_date DESC);
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

const donationColumns = `id, donor_id, blood_type, donation_date, volume_ml, approved, notes, created_at`

func (s *PostgresStore) Create(ctx context.Context, d *Donation) error {
	_, err := s.querier(ctx).ExecContext(ctx, `
		INSERT INTO donations (`+donationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		d.ID.String(), d.DonorID.String(), string(d.BloodType), d.DonationDate,
		d.VolumeML, d.Approved, d.Notes, d.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert donation: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, donationID id.DonationID) (*Donation, error) {
	row := s.querier(ctx).QueryRowContext(ctx, `
		SELECT `+donationColumns+` FROM donations WHERE id = $1`, donationID.String())
	return scanDonation(row)
}

func (s *PostgresStore) ListByDonor(ctx context.Context, donorID id.DonorID) ([]*Donation, error) {
	rows, err := s.querier(ctx).QueryContext(ctx, `
		SELECT `+donationColumns+` FROM donations
		WHERE donor_id = $1
		ORDER BY donation_date DESC, created_at DESC`, donorID.String())
	if err != nil {
		return nil, fmt.Errorf("list donations by donor: %w", err)
	}
	defer rows.Close()
	return scanDonations(rows)
}

func (s *PostgresStore) ListApprovedByBloodTypes(ctx context.Context, types []id.BloodType) ([]*Donation, error) {
	raw := make([]string, len(types))
	for i, t := range types {
		raw[i] = string(t)
	}
	// FOR UPDATE: ledger rows are locked for the duration of the
	// fulfillment transaction so concurrent attempts cannot double-deduct.
	rows, err := s.querier(ctx).QueryContext(ctx, `
		SELECT `+donationColumns+` FROM donations
		WHERE approved AND volume_ml > 0 AND blood_type = ANY($1)
		ORDER BY donation_date, created_at
		FOR UPDATE`, pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	defer rows.Close()
	return scanDonations(rows)
}

func (s *PostgresStore) UpdateVolume(ctx context.Context, donationID id.DonationID, volumeML int) error {
	res, err := s.querier(ctx).ExecContext(ctx, `
		UPDATE donations SET volume_ml = $2 WHERE id = $1`, donationID.String(), volumeML)
	if err != nil {
		return fmt.Errorf("update donation volume: %w", err)
	}
	return requireAffected(res)
}

func (s *PostgresStore) Delete(ctx context.Context, donationID id.DonationID) error {
	res, err := s.querier(ctx).ExecContext(ctx, `
		DELETE FROM donations WHERE id = $1`, donationID.String())
	if err != nil {
		return fmt.Errorf("delete donation: %w", err)
	}
	return requireAffected(res)
}

func (s *PostgresStore) LastApproved(ctx context.Context, donorID id.DonorID) (*Donation, error) {
	row := s.querier(ctx).QueryRowContext(ctx, `
		SELECT `+donationColumns+` FROM donations
		WHERE donor_id = $1 AND approved
		ORDER BY donation_date DESC, created_at DESC
		LIMIT 1`, donorID.String())
	return scanDonation(row)
}

func (s *PostgresStore) LastApprovedBefore(ctx context.Context, donorID id.DonorID, before time.Time) (*Donation, error) {
	row := s.querier(ctx).QueryRowContext(ctx, `
		SELECT `+donationColumns+` FROM donations
		WHERE donor_id = $1 AND approved AND donation_date < $2
		ORDER BY donation_date DESC, created_at DESC
		LIMIT 1`, donorID.String(), before)
	return scanDonation(row)
}

func (s *PostgresStore) LastApprovedDonationDates(ctx context.Context) (map[id.DonorID]time.Time, error) {
	rows, err := s.querier(ctx).QueryContext(ctx, `
		SELECT donor_id, MAX(donation_date) FROM donations
		WHERE approved
		GROUP BY donor_id`)
	if err != nil {
		return nil, fmt.Errorf("last approved donation dates: %w", err)
	}
	defer rows.Close()

	out := make(map[id.DonorID]time.Time)
	for rows.Next() {
		var rawID string
		var date time.Time
		if err := rows.Scan(&rawID, &date); err != nil {
			return nil, fmt.Errorf("scan donation date: %w", err)
		}
		donorID, err := id.ParseDonorID(rawID)
		if err != nil {
			return nil, fmt.Errorf("scan donor id: %w", err)
		}
		out[donorID] = date
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate donation dates: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) TotalVolumeByDonor(ctx context.Context) (map[id.DonorID]int, error) {
	rows, err := s.querier(ctx).QueryContext(ctx, `
		SELECT donor_id, COALESCE(SUM(volume_ml), 0) FROM donations
		GROUP BY donor_id`)
	if err != nil {
		return nil, fmt.Errorf("total volume by donor: %w", err)
	}
	defer rows.Close()

	out := make(map[id.DonorID]int)
	for rows.Next() {
		var rawID string
		var total int
		if err := rows.Scan(&rawID, &total); err != nil {
			return nil, fmt.Errorf("scan donor total: %w", err)
		}
		donorID, err := id.ParseDonorID(rawID)
		if err != nil {
			return nil, fmt.Errorf("scan donor id: %w", err)
		}
		out[donorID] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate donor totals: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) TotalApprovedVolumeByBloodType(ctx context.Context) (map[id.BloodType]int, error) {
	rows, err := s.querier(ctx).QueryContext(ctx, `
		SELECT blood_type, COALESCE(SUM(volume_ml), 0) FROM donations
		WHERE approved AND volume_ml > 0
		GROUP BY blood_type`)
	if err != nil {
		return nil, fmt.Errorf("total volume by blood type: %w", err)
	}
	defer rows.Close()

	out := make(map[id.BloodType]int)
	for rows.Next() {
		var bloodType string
		var total int
		if err := rows.Scan(&bloodType, &total); err != nil {
			return nil, fmt.Errorf("scan blood type total: %w", err)
		}
		out[id.BloodType(bloodType)] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blood type totals: %w", err)
	}
	return out, nil
}

// RunInTx opens a transaction, carries it through the context, and commits
// or rolls back as one unit. Nested calls reuse the outer transaction.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txcontext.From(ctx); ok {
		return fn(ctx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDonation(row rowScanner) (*Donation, error) {
	var (
		d          Donation
		rawID      string
		rawDonorID string
		bloodType  string
	)
	err := row.Scan(&rawID, &rawDonorID, &bloodType, &d.DonationDate, &d.VolumeML, &d.Approved, &d.Notes, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan donation: %w", err)
	}
	donationID, err := id.ParseDonationID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan donation id: %w", err)
	}
	donorID, err := id.ParseDonorID(rawDonorID)
	if err != nil {
		return nil, fmt.Errorf("scan donor id: %w", err)
	}
	d.ID = donationID
	d.DonorID = donorID
	d.BloodType = id.BloodType(bloodType)
	return &d, nil
}

func scanDonations(rows *sql.Rows) ([]*Donation, error) {
	var out []*Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate donations: %w", err)
	}
	return out, nil
}
