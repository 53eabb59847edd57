package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"netbilling-sim/internal/analysis"
	"netbilling-sim/internal/dispatch"
	"netbilling-sim/internal/finance"
	"netbilling-sim/internal/model"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("simulation run not found")

// Run is one persisted simulation.
type Run struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Label     string    `json:"label"`
	Dataset   string    `json:"dataset"`

	Intervals int       `json:"intervals"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`

	Inputs       model.Inputs           `json:"inputs"`
	Finance      finance.Summary        `json:"finance"`
	Annual       analysis.AnnualSummary `json:"annual"`
	ExportPrices analysis.PriceStats    `json:"export_prices"`
	Months       []dispatch.MonthlyRow  `json:"months,omitempty"`
}

type Store struct {
	logger *slog.Logger
	read   *sql.DB
	write  *sql.DB
	path   string
	now    func() time.Time
}

// pragmas are applied to every new connection through the DSN.
var pragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"busy_timeout(5000)",
	"foreign_keys(ON)",
	"temp_store(MEMORY)",
}

func dsn(path string) string {
	s := "file:" + path + "?"
	for i, p := range pragmas {
		if i > 0 {
			s += "&"
		}
		s += "_pragma=" + p
	}
	return s
}

// Open opens (creating if needed) the database at path and applies pending
// migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	read, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("error when opening database (read): %w", err)
	}
	read.SetMaxOpenConns(10) // readers can be concurrent
	read.SetConnMaxIdleTime(time.Minute)

	write, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		read.Close()
		return nil, fmt.Errorf("error when opening database (write): %w", err)
	}
	write.SetMaxOpenConns(1) // only a single writer ever
	write.SetConnMaxIdleTime(time.Minute)

	s := &Store{
		logger: slog.Default().With(slog.String("module", "store")),
		read:   read,
		write:  write,
		path:   path,
		now:    time.Now,
	}

	if err := migrate(ctx, write); err != nil {
		s.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	return s, nil
}

func (s *Store) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

func (s *Store) Close() {
	s.read.Close()
	s.write.Close()
}

// Save assigns an ID and creation time when missing and stores the run.
func (s *Store) Save(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.now().UTC().Truncate(time.Millisecond)
	}

	inputs, err := json.Marshal(run.Inputs)
	if err != nil {
		return fmt.Errorf("marshal inputs: %w", err)
	}
	fin, err := json.Marshal(run.Finance)
	if err != nil {
		return fmt.Errorf("marshal finance: %w", err)
	}
	annual, err := json.Marshal(run.Annual)
	if err != nil {
		return fmt.Errorf("marshal annual summary: %w", err)
	}
	months, err := json.Marshal(run.Months)
	if err != nil {
		return fmt.Errorf("marshal months: %w", err)
	}
	prices, err := json.Marshal(run.ExportPrices)
	if err != nil {
		return fmt.Errorf("marshal price stats: %w", err)
	}

	var payback sql.NullFloat64
	if run.Annual.PaybackReachable() {
		payback = sql.NullFloat64{Float64: run.Annual.PaybackYears, Valid: true}
	}

	_, err = s.write.ExecContext(ctx, `
		INSERT INTO simulation_run (
			id, created_at, label, dataset, intervals, start_ts, end_ts,
			annual_savings, payback_years,
			inputs_json, finance_json, annual_json, months_json, export_price_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UnixMilli(), run.Label, run.Dataset, run.Intervals,
		run.Start.Unix(), run.End.Unix(),
		run.Annual.AnnualSavings, payback,
		string(inputs), string(fin), string(annual), string(months), string(prices),
	)
	if err != nil {
		return fmt.Errorf("insert simulation run: %w", err)
	}

	s.logger.Debug("simulation run saved", slog.String("id", run.ID), slog.String("label", run.Label))
	return nil
}

// Get loads a run including its monthly rows.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.read.QueryRowContext(ctx, `
		SELECT id, created_at, label, dataset, intervals, start_ts, end_ts,
			inputs_json, finance_json, annual_json, export_price_json, months_json
		FROM simulation_run WHERE id = ?`, id)

	run, months, err := scanRun(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(months), &run.Months); err != nil {
		return nil, fmt.Errorf("decode months of %s: %w", id, err)
	}
	return &run, nil
}

// List returns the most recent runs first, without monthly rows.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.read.QueryContext(ctx, `
		SELECT id, created_at, label, dataset, intervals, start_ts, end_ts,
			inputs_json, finance_json, annual_json, export_price_json
		FROM simulation_run
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query simulation runs: %w", err)
	}
	defer rows.Close()

	out := []Run{}
	for rows.Next() {
		run, _, err := scanRun(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// Delete removes a run. Deleting an unknown ID returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.write.ExecContext(ctx, `DELETE FROM simulation_run WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete simulation run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner, withMonths bool) (Run, string, error) {
	var (
		run                                 Run
		createdAt, startTS, endTS           int64
		inputs, fin, annual, prices, months string
	)
	dest := []any{&run.ID, &createdAt, &run.Label, &run.Dataset, &run.Intervals, &startTS, &endTS,
		&inputs, &fin, &annual, &prices}
	if withMonths {
		dest = append(dest, &months)
	}
	if err := sc.Scan(dest...); err != nil {
		return Run{}, "", err
	}

	run.CreatedAt = time.UnixMilli(createdAt).UTC()
	run.Start = time.Unix(startTS, 0).UTC()
	run.End = time.Unix(endTS, 0).UTC()

	if err := json.Unmarshal([]byte(inputs), &run.Inputs); err != nil {
		return Run{}, "", fmt.Errorf("decode inputs of %s: %w", run.ID, err)
	}
	if err := json.Unmarshal([]byte(fin), &run.Finance); err != nil {
		return Run{}, "", fmt.Errorf("decode finance of %s: %w", run.ID, err)
	}
	if err := json.Unmarshal([]byte(annual), &run.Annual); err != nil {
		return Run{}, "", fmt.Errorf("decode annual summary of %s: %w", run.ID, err)
	}
	if err := json.Unmarshal([]byte(prices), &run.ExportPrices); err != nil {
		return Run{}, "", fmt.Errorf("decode price stats of %s: %w", run.ID, err)
	}
	return run, months, nil
}

func (s *Store) Path() string {
	return s.path
}
