// Package db persists QC and LRT runs in a sqlite file.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/yumyai/selscan/pkg/selection"
	"github.com/yumyai/selscan/pkg/seqqc"
)

var ErrRunNotFound = errors.New("run not found")

// fixed width so created_at sorts as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Kind of a stored run.
const (
	KindQC  = "qc"
	KindLRT = "lrt"
)

var pragmas = []string{
	"foreign_keys(1)",
	"journal_mode(WAL)",
	"busy_timeout(10000)",
	"synchronous(NORMAL)",
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	kind         TEXT NOT NULL CHECK (kind IN ('qc', 'lrt')),
	source       TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	raw_count    INTEGER NOT NULL DEFAULT 0,
	passed_count INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS discards (
	run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	reason TEXT NOT NULL,
	count  INTEGER NOT NULL,
	PRIMARY KEY (run_id, reason)
);
CREATE TABLE IF NOT EXISTS comparisons (
	run_id     TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	sheet      TEXT NOT NULL,
	null_model TEXT NOT NULL,
	alt_model  TEXT NOT NULL,
	df         REAL NOT NULL,
	PRIMARY KEY (run_id, name)
);
CREATE TABLE IF NOT EXISTS results (
	run_id     TEXT NOT NULL,
	comparison TEXT NOT NULL,
	position   INTEGER NOT NULL,
	gene       TEXT NOT NULL,
	lnl_alt    REAL NOT NULL,
	lnl_null   REAL NOT NULL,
	lrt        REAL NOT NULL,
	p_value    REAL NOT NULL,
	bh_p_value REAL NOT NULL,
	negative   INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (run_id, comparison, gene),
	FOREIGN KEY (run_id, comparison) REFERENCES comparisons(run_id, name) ON DELETE CASCADE
);
`

// Run is one stored QC or LRT invocation.
type Run struct {
	ID      string    `json:"run_id"`
	Kind    string    `json:"kind"`
	Source  string    `json:"source"`
	Created time.Time `json:"created_at"`
	Raw     int       `json:"raw"`
	Passed  int       `json:"passed"`
}

// NewRun stamps a fresh run id and creation time.
func NewRun(kind, source string) Run {
	return Run{
		ID:      uuid.NewString(),
		Kind:    kind,
		Source:  source,
		Created: time.Now().UTC(),
	}
}

// Store wraps the result database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	db, err := sql.Open("sqlite", path+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("open result store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping result store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func insertRun(ctx context.Context, tx *sql.Tx, run Run) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, kind, source, created_at, raw_count, passed_count) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Kind, run.Source, run.Created.UTC().Format(timeLayout), run.Raw, run.Passed,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

// SaveQC stores a QC run with its record counts and discard ledger.
func (s *Store) SaveQC(ctx context.Context, run Run, raw, passed int, ledger seqqc.Ledger) error {
	run.Kind = KindQC
	run.Raw = raw
	run.Passed = passed
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := insertRun(ctx, tx, run); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO discards (run_id, reason, count) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, r := range seqqc.Reasons {
			if _, err := stmt.ExecContext(ctx, run.ID, string(r), ledger.Count(r)); err != nil {
				return fmt.Errorf("insert discard %s: %w", r, err)
			}
		}
		return nil
	})
}

// SaveLRT stores an LRT run and every comparison set in one transaction.
func (s *Store) SaveLRT(ctx context.Context, run Run, sets []selection.ComparisonSet) error {
	run.Kind = KindLRT
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := insertRun(ctx, tx, run); err != nil {
			return err
		}
		for _, set := range sets {
			if err := insertComparison(ctx, tx, run.ID, set); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveComparison adds one comparison set to an existing LRT run.
func (s *Store) SaveComparison(ctx context.Context, runID string, set selection.ComparisonSet) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return insertComparison(ctx, tx, runID, set)
	})
}

func insertComparison(ctx context.Context, tx *sql.Tx, runID string, set selection.ComparisonSet) error {
	c := set.Comparison
	_, err := tx.ExecContext(ctx,
		`INSERT INTO comparisons (run_id, name, sheet, null_model, alt_model, df) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, c.Name, c.SheetName(), c.Null, c.Alt, c.DF,
	)
	if err != nil {
		return fmt.Errorf("insert comparison %s: %w", c.Name, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO results (run_id, comparison, position, gene, lnl_alt, lnl_null, lrt, p_value, bh_p_value, negative)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, r := range set.Results {
		_, err := stmt.ExecContext(ctx, runID, c.Name, i, r.Gene, r.LnLAlt, r.LnLNull, r.LRT, r.PValue, r.AdjustedP, r.Negative)
		if err != nil {
			return fmt.Errorf("insert result %s/%s: %w", c.Name, r.Gene, err)
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run     Run
		created string
	)
	if err := row.Scan(&run.ID, &run.Kind, &run.Source, &created, &run.Raw, &run.Passed); err != nil {
		return Run{}, err
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return Run{}, fmt.Errorf("run %s has bad timestamp %q: %w", run.ID, created, err)
	}
	run.Created = t
	return run, nil
}

const runColumns = `run_id, kind, source, created_at, raw_count, passed_count`

// ListRuns returns every run, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// Discards rebuilds the ledger of a QC run.
func (s *Store) Discards(ctx context.Context, id string) (seqqc.Ledger, error) {
	var ledger seqqc.Ledger
	rows, err := s.db.QueryContext(ctx, `SELECT reason, count FROM discards WHERE run_id = ?`, id)
	if err != nil {
		return ledger, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			reason string
			n      int
		)
		if err := rows.Scan(&reason, &n); err != nil {
			return ledger, err
		}
		ledger.AddN(seqqc.Reason(reason), n)
	}
	return ledger, rows.Err()
}

// Comparisons lists the comparisons stored for an LRT run.
func (s *Store) Comparisons(ctx context.Context, id string) ([]selection.Comparison, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, sheet, null_model, alt_model, df FROM comparisons WHERE run_id = ? ORDER BY rowid`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []selection.Comparison
	for rows.Next() {
		var c selection.Comparison
		if err := rows.Scan(&c.Name, &c.Sheet, &c.Null, &c.Alt, &c.DF); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Results returns one comparison's results in their original order.
func (s *Store) Results(ctx context.Context, id, comparison string) ([]selection.ComparisonResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT gene, lnl_alt, lnl_null, lrt, p_value, bh_p_value, negative
		FROM results WHERE run_id = ? AND comparison = ? ORDER BY position`, id, comparison)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []selection.ComparisonResult
	for rows.Next() {
		var r selection.ComparisonResult
		if err := rows.Scan(&r.Gene, &r.LnLAlt, &r.LnLNull, &r.LRT, &r.PValue, &r.AdjustedP, &r.Negative); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ComparisonSets loads every comparison of an LRT run with its results.
func (s *Store) ComparisonSets(ctx context.Context, id string) ([]selection.ComparisonSet, error) {
	cmps, err := s.Comparisons(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]selection.ComparisonSet, 0, len(cmps))
	for _, c := range cmps {
		res, err := s.Results(ctx, id, c.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, selection.ComparisonSet{Comparison: c, Results: res})
	}
	return out, nil
}
