//go:build integration

// Package containers starts throwaway backing services for integration tests.
package containers

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/lib/pq"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

const schema = `
CREATE TABLE donors (
    id UUID PRIMARY KEY,
    national_id TEXT NOT NULL UNIQUE,
    first_name TEXT NOT NULL,
    last_name TEXT NOT NULL,
    date_of_birth DATE NOT NULL,
    blood_type TEXT NOT NULL,
    phone_number TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL DEFAULT '',
    address TEXT NOT NULL DEFAULT '',
    health_status TEXT NOT NULL,
    smoking_status TEXT NOT NULL,
    alcohol_use TEXT NOT NULL,
    has_chronic_illness BOOLEAN NOT NULL,
    chronic_illness_details TEXT NOT NULL DEFAULT '',
    last_medical_exam TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE donations (
    id UUID PRIMARY KEY,
    donor_id UUID NOT NULL REFERENCES donors (id),
    blood_type TEXT NOT NULL,
    donation_date DATE NOT NULL,
    volume_ml INTEGER NOT NULL,
    approved BOOLEAN NOT NULL,
    notes TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX donations_ledger_idx ON donations (blood_type, donation_date) WHERE approved;
CREATE INDEX donations_donor_idx ON donations (donor_id, donation_date DESC);

CREATE TABLE blood_requests (
    id UUID PRIMARY KEY,
    requester_id TEXT NOT NULL,
    patient_name TEXT NOT NULL,
    blood_type TEXT NOT NULL,
    units INTEGER NOT NULL,
    priority TEXT NOT NULL,
    emergency BOOLEAN NOT NULL,
    fulfilled BOOLEAN NOT NULL,
    fulfilled_at TIMESTAMPTZ,
    notes TEXT NOT NULL DEFAULT '',
    requested_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX blood_requests_open_idx ON blood_requests (requested_at) WHERE NOT fulfilled;
`

// PostgresContainer wraps a testcontainers postgres instance with the
// project schema applied.
type PostgresContainer struct {
	Container *tcpostgres.PostgresContainer
	DB        *sql.DB
}

// NewPostgresContainer starts a postgres container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("bloodbank"),
		tcpostgres.WithUsername("bloodbank"),
		tcpostgres.WithPassword("bloodbank"),
		tcpostgres.BasicWaitStrategies(),
		tcpostgres.WithSQLDriver("postgres"),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("failed to open postgres: %v", err)
	}
	db.SetConnMaxLifetime(time.Minute)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	return &PostgresContainer{Container: container, DB: db}
}

// TruncateTables clears the given tables between tests.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if _, err := p.DB.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return err
		}
	}
	return nil
}
