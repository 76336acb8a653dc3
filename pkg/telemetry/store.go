package telemetry

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/teslashibe/go-rover/internal/log"
	"github.com/teslashibe/go-rover/pkg/sensor"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store archives telemetry entries in a SQLite database.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the database at path and applies pending
// migrations.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	// SQLite allows a single writer; serialise through one connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("telemetry: configure %s: %w", path, err)
		}
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("telemetry store opened", "path", path)
	return &Store{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("telemetry: load migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("telemetry: create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("telemetry: create migrate instance: %w", err)
	}
	m.Log = migrateLogger{}

	// m is not closed: that would close db as well.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("telemetry: migration up failed: %w", err)
	}
	return nil
}

// migrateLogger implements migrate.Logger on top of the process logger.
type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...any) {
	log.Debug(fmt.Sprintf("migrate: "+format, v...))
}

func (migrateLogger) Verbose() bool { return false }

// Insert implements Sink.
func (s *Store) Insert(e Entry) error {
	return s.InsertContext(context.Background(), e)
}

// InsertContext archives one entry.
func (s *Store) InsertContext(ctx context.Context, e Entry) error {
	r := e.Reading
	var dist sql.NullFloat64
	if r.Distance.Known() {
		dist = sql.NullFloat64{Float64: r.Distance.CM, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO readings (ts_ms, source, gas, temperature, distance_cm,
			accel_x, accel_y, accel_z, gyro_x, gyro_y, gyro_z)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Time.UnixMilli(), r.Source, r.Gas, r.Temperature, dist,
		r.Accel[0], r.Accel[1], r.Accel[2], r.Gyro[0], r.Gyro[1], r.Gyro[2],
	)
	if err != nil {
		return fmt.Errorf("telemetry: insert: %w", err)
	}
	return nil
}

// Recent returns up to limit of the newest entries, oldest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts_ms, source, gas, temperature, distance_cm,
			accel_x, accel_y, accel_z, gyro_x, gyro_y, gyro_z
		FROM (SELECT * FROM readings ORDER BY ts_ms DESC, id DESC LIMIT ?)
		ORDER BY ts_ms ASC, id ASC`, limit)
	if err != nil {
		return nil, fmt.Errorf("telemetry: query recent: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			ms   int64
			r    sensor.Reading
			dist sql.NullFloat64
		)
		if err := rows.Scan(&ms, &r.Source, &r.Gas, &r.Temperature, &dist,
			&r.Accel[0], &r.Accel[1], &r.Accel[2], &r.Gyro[0], &r.Gyro[1], &r.Gyro[2]); err != nil {
			return nil, fmt.Errorf("telemetry: scan: %w", err)
		}
		ts := time.UnixMilli(ms)
		r.Timestamp = ts
		if dist.Valid {
			r.Distance = sensor.NewDistance(dist.Float64)
		}
		out = append(out, Entry{Time: ts, Reading: r})
	}
	return out, rows.Err()
}

// Count returns the number of archived entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM readings").Scan(&n); err != nil {
		return 0, fmt.Errorf("telemetry: count: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
