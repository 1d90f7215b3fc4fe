package launch

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
)

// PostgresStore reads and writes launch records in the "launches" table.
type PostgresStore struct {
	db *sql.DB
}

// IsPostgresSource reports whether source is a PostgreSQL connection URL.
func IsPostgresSource(source string) bool {
	return strings.HasPrefix(source, "postgres://") || strings.HasPrefix(source, "postgresql://")
}

// OpenPostgres connects to dsn and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Migrate creates the launches table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS launches (
			flight_number            INTEGER PRIMARY KEY,
			launch_site              TEXT          NOT NULL,
			class                    SMALLINT      NOT NULL CHECK (class IN (0, 1)),
			payload_mass_kg          NUMERIC(10,2) NOT NULL,
			booster_version          TEXT          NOT NULL DEFAULT '',
			booster_version_category TEXT          NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_launches_site ON launches(launch_site);
	`)
	if err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

// Write upserts records by flight number inside a single transaction.
// Records without a flight number are numbered after the highest one present,
// so they never overwrite a numbered row.
func (s *PostgresStore) Write(ctx context.Context, records []Record) error {
	flights, err := assignFlightNumbers(records)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO launches (flight_number, launch_site, class, payload_mass_kg, booster_version, booster_version_category)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (flight_number) DO UPDATE SET
			launch_site              = EXCLUDED.launch_site,
			class                    = EXCLUDED.class,
			payload_mass_kg          = EXCLUDED.payload_mass_kg,
			booster_version          = EXCLUDED.booster_version,
			booster_version_category = EXCLUDED.booster_version_category
	`)
	if err != nil {
		return fmt.Errorf("postgres: prepare: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		flight := flights[i]
		if _, err := stmt.ExecContext(ctx, flight, r.Site, int(r.Outcome), r.PayloadKg, r.BoosterVersion, r.BoosterCategory); err != nil {
			return fmt.Errorf("postgres: upsert flight %d: %w", flight, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// assignFlightNumbers returns the flight number to store for each record.
// Zero means unnumbered; those get consecutive numbers above the maximum.
// Duplicate non-zero numbers are an error, since the upsert would silently
// keep only the last of them.
func assignFlightNumbers(records []Record) ([]int, error) {
	seen := make(map[int]int, len(records))
	next := 0
	for i, r := range records {
		if r.FlightNumber < 0 {
			return nil, fmt.Errorf("record %d: negative flight number %d", i+1, r.FlightNumber)
		}
		if r.FlightNumber == 0 {
			continue
		}
		if prev, ok := seen[r.FlightNumber]; ok {
			return nil, fmt.Errorf("records %d and %d share flight number %d", prev+1, i+1, r.FlightNumber)
		}
		seen[r.FlightNumber] = i
		next = max(next, r.FlightNumber)
	}

	flights := make([]int, len(records))
	for i, r := range records {
		if r.FlightNumber == 0 {
			next++
			flights[i] = next
			continue
		}
		flights[i] = r.FlightNumber
	}
	return flights, nil
}

// Load reads every launch ordered by flight number.
func (s *PostgresStore) Load(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT flight_number, launch_site, class, payload_mass_kg, booster_version, booster_version_category
		FROM launches
		ORDER BY flight_number
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: query: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec   Record
		class int
	)
	if err := row.Scan(&rec.FlightNumber, &rec.Site, &class, &rec.PayloadKg, &rec.BoosterVersion, &rec.BoosterCategory); err != nil {
		return Record{}, fmt.Errorf("postgres: scan: %w", err)
	}
	switch Outcome(class) {
	case Success, Failure:
		rec.Outcome = Outcome(class)
	default:
		return Record{}, fmt.Errorf("postgres: flight %d has invalid class %d", rec.FlightNumber, class)
	}
	return rec, nil
}
