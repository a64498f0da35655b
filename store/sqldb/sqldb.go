/*
Package sqldb provides a SQL-backed roster.Gateway over sqlx.

PURPOSE:
  Stores workers, tiers and shifts in three tables. The same code serves
  SQLite (mattn/go-sqlite3) and PostgreSQL (lib/pq); sqlx rebinds the
  placeholders per driver.

KEY TABLES:
  workers:   one row per worker, availability as a JSON column
  tiers:     id, name, hourly_rate (decimal string), color
  schedules: one row per shift with its worker/tier snapshots

FORMATS:
  Timestamps are stored as naive "2006-01-02T15:04:05" strings. The layout
  sorts lexically, so the start_time range predicate is a plain string
  comparison on both engines. Rates and hours are decimal strings, NULL when
  absent.

CONCURRENCY:
  Updates read, patch and write the row inside one transaction. Last write
  wins across transactions. SQLite is limited to one open connection so
  ":memory:" databases are shared by every caller.

USAGE:
  db, err := sqldb.Open(ctx, "sqlite3", "./data/crew.db")
  if err != nil {
      log.Fatal(err)
  }
  defer db.Close()

SEE ALSO:
  - roster/store.go: Gateway contract
  - roster/store/memory.go: in-memory implementation
*/
package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/crew-scheduler/roster"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Store implements roster.Gateway on a SQL database.
type Store struct {
	db *sqlx.DB
}

var _ roster.Gateway = (*Store)(nil)

// Open connects to the database and migrates the schema.
// Use ":memory:" with DriverSQLite for a throwaway database.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite:
		dsn = sqliteDSN(dsn)
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func sqliteDSN(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_journal_mode=WAL&_busy_timeout=5000"
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS workers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			position TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			tier_id TEXT NOT NULL DEFAULT '',
			tier TEXT NOT NULL DEFAULT '',
			availability TEXT NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS tiers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			hourly_rate TEXT NOT NULL,
			color TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS schedules (
			id TEXT PRIMARY KEY,
			worker_id TEXT NOT NULL,
			worker_name TEXT NOT NULL DEFAULT '',
			position TEXT NOT NULL DEFAULT '',
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			date TEXT NOT NULL,
			tier_id TEXT NOT NULL DEFAULT '',
			tier_color TEXT NOT NULL DEFAULT '',
			hourly_rate TEXT,
			duration_in_hours TEXT,
			notes TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_schedules_start_time ON schedules(start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_schedules_worker ON schedules(worker_id, start_time)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Reset deletes every record. Used by demo scenario loading.
func (s *Store) Reset(ctx context.Context) error {
	for _, table := range []string{"schedules", "workers", "tiers"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// ROWS
// =============================================================================

type workerRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Position     string         `db:"position"`
	Email        string         `db:"email"`
	Phone        string         `db:"phone"`
	TierID       string         `db:"tier_id"`
	Tier         string         `db:"tier"`
	Availability types.JSONText `db:"availability"`
}

type tierRow struct {
	ID         string `db:"id"`
	Name       string `db:"name"`
	HourlyRate string `db:"hourly_rate"`
	Color      string `db:"color"`
}

type shiftRow struct {
	ID              string         `db:"id"`
	WorkerID        string         `db:"worker_id"`
	WorkerName      string         `db:"worker_name"`
	Position        string         `db:"position"`
	StartTime       string         `db:"start_time"`
	EndTime         string         `db:"end_time"`
	Date            string         `db:"date"`
	TierID          string         `db:"tier_id"`
	TierColor       string         `db:"tier_color"`
	HourlyRate      sql.NullString `db:"hourly_rate"`
	DurationInHours sql.NullString `db:"duration_in_hours"`
	Notes           string         `db:"notes"`
}

const (
	workerColumns = "id, name, position, email, phone, tier_id, tier, availability"
	tierColumns   = "id, name, hourly_rate, color"
	shiftColumns  = "id, worker_id, worker_name, position, start_time, end_time, date, tier_id, tier_color, hourly_rate, duration_in_hours, notes"
)

func toWorkerRow(w roster.Worker) (workerRow, error) {
	avail := w.Availability
	if avail == nil {
		avail = map[string][]roster.Availability{}
	}
	raw, err := json.Marshal(avail)
	if err != nil {
		return workerRow{}, fmt.Errorf("failed to encode availability: %w", err)
	}
	return workerRow{
		ID:           string(w.ID),
		Name:         w.Name,
		Position:     w.Position,
		Email:        w.Email,
		Phone:        w.Phone,
		TierID:       string(w.TierID),
		Tier:         w.Tier,
		Availability: types.JSONText(raw),
	}, nil
}

func (r workerRow) toWorker() (roster.Worker, error) {
	w := roster.Worker{
		ID:       roster.WorkerID(r.ID),
		Name:     r.Name,
		Position: r.Position,
		Email:    r.Email,
		Phone:    r.Phone,
		TierID:   roster.TierID(r.TierID),
		Tier:     r.Tier,
	}
	var avail map[string][]roster.Availability
	if err := r.Availability.Unmarshal(&avail); err != nil {
		return roster.Worker{}, fmt.Errorf("failed to decode availability for worker %s: %w", r.ID, err)
	}
	if len(avail) > 0 {
		w.Availability = avail
	}
	return w, nil
}

func toTierRow(t roster.Tier) tierRow {
	return tierRow{ID: string(t.ID), Name: t.Name, HourlyRate: t.HourlyRate.String(), Color: t.Color}
}

func (r tierRow) toTier() (roster.Tier, error) {
	rate, err := decimal.NewFromString(r.HourlyRate)
	if err != nil {
		return roster.Tier{}, fmt.Errorf("invalid hourly_rate for tier %s: %w", r.ID, err)
	}
	return roster.Tier{ID: roster.TierID(r.ID), Name: r.Name, HourlyRate: rate, Color: r.Color}, nil
}

func toShiftRow(s roster.Shift) shiftRow {
	return shiftRow{
		ID:              string(s.ID),
		WorkerID:        string(s.WorkerID),
		WorkerName:      s.WorkerName,
		Position:        s.Position,
		StartTime:       roster.FormatTimestamp(s.StartTime),
		EndTime:         roster.FormatTimestamp(s.EndTime),
		Date:            roster.DayOf(s.StartTime).String(),
		TierID:          string(s.TierID),
		TierColor:       s.TierColor,
		HourlyRate:      nullDecimal(s.HourlyRate),
		DurationInHours: nullDecimal(s.DurationInHours),
		Notes:           s.Notes,
	}
}

func (r shiftRow) toShift() (roster.Shift, error) {
	start, err := roster.ParseTimestamp(r.StartTime)
	if err != nil {
		return roster.Shift{}, fmt.Errorf("shift %s: %w", r.ID, err)
	}
	end, err := roster.ParseTimestamp(r.EndTime)
	if err != nil {
		return roster.Shift{}, fmt.Errorf("shift %s: %w", r.ID, err)
	}
	rate, err := parseNullDecimal(r.HourlyRate)
	if err != nil {
		return roster.Shift{}, fmt.Errorf("invalid hourly_rate for shift %s: %w", r.ID, err)
	}
	hours, err := parseNullDecimal(r.DurationInHours)
	if err != nil {
		return roster.Shift{}, fmt.Errorf("invalid duration_in_hours for shift %s: %w", r.ID, err)
	}
	return roster.Shift{
		ID:              roster.ShiftID(r.ID),
		WorkerID:        roster.WorkerID(r.WorkerID),
		WorkerName:      r.WorkerName,
		Position:        r.Position,
		StartTime:       start,
		EndTime:         end,
		Date:            roster.DayOf(start),
		TierID:          roster.TierID(r.TierID),
		TierColor:       r.TierColor,
		HourlyRate:      rate,
		DurationInHours: hours,
		Notes:           r.Notes,
	}, nil
}

// =============================================================================
// WORKERS
// =============================================================================

func (s *Store) ListWorkers(ctx context.Context) ([]roster.Worker, error) {
	var rows []workerRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT "+workerColumns+" FROM workers ORDER BY name, id"); err != nil {
		return nil, fmt.Errorf("failed to list workers: %w", err)
	}
	workers := make([]roster.Worker, 0, len(rows))
	for _, r := range rows {
		w, err := r.toWorker()
		if err != nil {
			return nil, err
		}
		workers = append(workers, w)
	}
	return workers, nil
}

func (s *Store) GetWorker(ctx context.Context, id roster.WorkerID) (roster.Worker, error) {
	r, err := getWorker(ctx, s.db, id)
	if err != nil {
		return roster.Worker{}, err
	}
	return r.toWorker()
}

func getWorker(ctx context.Context, q sqlx.QueryerContext, id roster.WorkerID) (workerRow, error) {
	var r workerRow
	query := sqlx.Rebind(sqlx.BindType(driverOf(q)), "SELECT "+workerColumns+" FROM workers WHERE id = ?")
	if err := sqlx.GetContext(ctx, q, &r, query, string(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return workerRow{}, fmt.Errorf("%w: %s", roster.ErrWorkerNotFound, id)
		}
		return workerRow{}, fmt.Errorf("failed to get worker: %w", err)
	}
	return r, nil
}

func (s *Store) CreateWorker(ctx context.Context, w roster.Worker) (roster.WorkerID, error) {
	if err := roster.ValidateWorker(w); err != nil {
		return "", err
	}
	if w.ID == "" {
		w.ID = roster.WorkerID(uuid.NewString())
	}
	row, err := toWorkerRow(w)
	if err != nil {
		return "", err
	}
	_, err = s.db.NamedExecContext(ctx, `INSERT INTO workers (`+workerColumns+`)
		VALUES (:id, :name, :position, :email, :phone, :tier_id, :tier, :availability)`, row)
	if err != nil {
		return "", fmt.Errorf("failed to create worker: %w", err)
	}
	return w.ID, nil
}

func (s *Store) UpdateWorker(ctx context.Context, id roster.WorkerID, patch roster.WorkerPatch) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		current, err := getWorker(ctx, tx, id)
		if err != nil {
			return err
		}
		w, err := current.toWorker()
		if err != nil {
			return err
		}
		row, err := toWorkerRow(patch.Apply(w))
		if err != nil {
			return err
		}
		_, err = tx.NamedExecContext(ctx, `UPDATE workers SET name = :name, position = :position,
			email = :email, phone = :phone, tier_id = :tier_id, tier = :tier, availability = :availability
			WHERE id = :id`, row)
		if err != nil {
			return fmt.Errorf("failed to update worker: %w", err)
		}
		return nil
	})
}

func (s *Store) DeleteWorker(ctx context.Context, id roster.WorkerID) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM workers WHERE id = ?"), string(id)); err != nil {
		return fmt.Errorf("failed to delete worker: %w", err)
	}
	return nil
}

// =============================================================================
// TIERS
// =============================================================================

func (s *Store) ListTiers(ctx context.Context) ([]roster.Tier, error) {
	var rows []tierRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT "+tierColumns+" FROM tiers ORDER BY name, id"); err != nil {
		return nil, fmt.Errorf("failed to list tiers: %w", err)
	}
	tiers := make([]roster.Tier, 0, len(rows))
	for _, r := range rows {
		t, err := r.toTier()
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, t)
	}
	return tiers, nil
}

func (s *Store) GetTier(ctx context.Context, id roster.TierID) (roster.Tier, error) {
	r, err := getTier(ctx, s.db, id)
	if err != nil {
		return roster.Tier{}, err
	}
	return r.toTier()
}

func getTier(ctx context.Context, q sqlx.QueryerContext, id roster.TierID) (tierRow, error) {
	var r tierRow
	query := sqlx.Rebind(sqlx.BindType(driverOf(q)), "SELECT "+tierColumns+" FROM tiers WHERE id = ?")
	if err := sqlx.GetContext(ctx, q, &r, query, string(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return tierRow{}, fmt.Errorf("%w: %s", roster.ErrTierNotFound, id)
		}
		return tierRow{}, fmt.Errorf("failed to get tier: %w", err)
	}
	return r, nil
}

func (s *Store) CreateTier(ctx context.Context, t roster.Tier) (roster.TierID, error) {
	if t.Color == "" {
		t.Color = roster.DefaultTierColor
	}
	if err := roster.ValidateTier(t); err != nil {
		return "", err
	}
	if t.ID == "" {
		t.ID = roster.TierID(uuid.NewString())
	}
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO tiers (`+tierColumns+`)
		VALUES (:id, :name, :hourly_rate, :color)`, toTierRow(t))
	if err != nil {
		return "", fmt.Errorf("failed to create tier: %w", err)
	}
	return t.ID, nil
}

func (s *Store) UpdateTier(ctx context.Context, id roster.TierID, patch roster.TierPatch) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		current, err := getTier(ctx, tx, id)
		if err != nil {
			return err
		}
		t, err := current.toTier()
		if err != nil {
			return err
		}
		updated := patch.Apply(t)
		if err := roster.ValidateTier(updated); err != nil {
			return err
		}
		_, err = tx.NamedExecContext(ctx, `UPDATE tiers SET name = :name, hourly_rate = :hourly_rate,
			color = :color WHERE id = :id`, toTierRow(updated))
		if err != nil {
			return fmt.Errorf("failed to update tier: %w", err)
		}
		return nil
	})
}

// DeleteTier does not cascade: workers and shifts keep the dangling id.
func (s *Store) DeleteTier(ctx context.Context, id roster.TierID) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM tiers WHERE id = ?"), string(id)); err != nil {
		return fmt.Errorf("failed to delete tier: %w", err)
	}
	return nil
}

// =============================================================================
// SHIFTS
// =============================================================================

func (s *Store) ListShifts(ctx context.Context, q roster.ShiftQuery) ([]roster.Shift, error) {
	var (
		where []string
		args  []any
	)
	if q.WorkerID != "" {
		where = append(where, "worker_id = ?")
		args = append(args, string(q.WorkerID))
	}
	if q.From != nil {
		where = append(where, "start_time >= ?")
		args = append(args, roster.FormatTimestamp(*q.From))
	}
	if q.To != nil {
		where = append(where, "start_time <= ?")
		args = append(args, roster.FormatTimestamp(*q.To))
	}

	query := "SELECT " + shiftColumns + " FROM schedules"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY start_time, id"

	var rows []shiftRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	shifts := make([]roster.Shift, 0, len(rows))
	for _, r := range rows {
		sh, err := r.toShift()
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, sh)
	}
	return shifts, nil
}

func (s *Store) GetShift(ctx context.Context, id roster.ShiftID) (roster.Shift, error) {
	r, err := getShift(ctx, s.db, id)
	if err != nil {
		return roster.Shift{}, err
	}
	return r.toShift()
}

func getShift(ctx context.Context, q sqlx.QueryerContext, id roster.ShiftID) (shiftRow, error) {
	var r shiftRow
	query := sqlx.Rebind(sqlx.BindType(driverOf(q)), "SELECT "+shiftColumns+" FROM schedules WHERE id = ?")
	if err := sqlx.GetContext(ctx, q, &r, query, string(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return shiftRow{}, fmt.Errorf("%w: %s", roster.ErrShiftNotFound, id)
		}
		return shiftRow{}, fmt.Errorf("failed to get shift: %w", err)
	}
	return r, nil
}

func (s *Store) CreateShift(ctx context.Context, sh roster.Shift) (roster.ShiftID, error) {
	if err := roster.ValidateShift(sh); err != nil {
		return "", err
	}
	if sh.ID == "" {
		sh.ID = roster.ShiftID(uuid.NewString())
	}
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO schedules (`+shiftColumns+`)
		VALUES (:id, :worker_id, :worker_name, :position, :start_time, :end_time, :date,
			:tier_id, :tier_color, :hourly_rate, :duration_in_hours, :notes)`, toShiftRow(sh))
	if err != nil {
		return "", fmt.Errorf("failed to create shift: %w", err)
	}
	return sh.ID, nil
}

func (s *Store) UpdateShift(ctx context.Context, id roster.ShiftID, patch roster.ShiftPatch) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		current, err := getShift(ctx, tx, id)
		if err != nil {
			return err
		}
		sh, err := current.toShift()
		if err != nil {
			return err
		}
		updated := patch.Apply(sh)
		if err := roster.ValidateShift(updated); err != nil {
			return err
		}
		_, err = tx.NamedExecContext(ctx, `UPDATE schedules SET worker_name = :worker_name,
			position = :position, start_time = :start_time, end_time = :end_time, date = :date,
			tier_id = :tier_id, tier_color = :tier_color, hourly_rate = :hourly_rate,
			duration_in_hours = :duration_in_hours, notes = :notes
			WHERE id = :id`, toShiftRow(updated))
		if err != nil {
			return fmt.Errorf("failed to update shift: %w", err)
		}
		return nil
	})
}

func (s *Store) DeleteShift(ctx context.Context, id roster.ShiftID) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM schedules WHERE id = ?"), string(id)); err != nil {
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// driverOf returns the driver name of a *sqlx.DB or *sqlx.Tx.
func driverOf(q sqlx.QueryerContext) string {
	type named interface{ DriverName() string }
	if n, ok := q.(named); ok {
		return n.DriverName()
	}
	return DriverSQLite
}

func nullDecimal(d decimal.NullDecimal) sql.NullString {
	if !d.Valid {
		return sql.NullString{}
	}
	return sql.NullString{String: d.Decimal.String(), Valid: true}
}

func parseNullDecimal(s sql.NullString) (decimal.NullDecimal, error) {
	if !s.Valid || s.String == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
