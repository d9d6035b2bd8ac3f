// Package store persists cross-validation run history in SQLite: one row per
// run plus per-fold scores, so past runs can be compared from the CLI.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schemaVersion = 1

var schema = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started TEXT NOT NULL,
	tree_dir TEXT NOT NULL,
	seg_dir TEXT NOT NULL,
	variant TEXT NOT NULL,
	folds INTEGER NOT NULL,
	documents INTEGER NOT NULL,
	macro_mean REAL NOT NULL,
	macro_stddev REAL NOT NULL,
	micro_mean REAL NOT NULL,
	micro_stddev REAL NOT NULL,
	detection_f1 REAL NOT NULL,
	best_fold INTEGER NOT NULL,
	best_macro_f1 REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS fold_scores (
	run_id INTEGER NOT NULL REFERENCES runs(id),
	fold INTEGER NOT NULL,
	macro_f1 REAL NOT NULL,
	micro_f1 REAL NOT NULL,
	tp INTEGER NOT NULL,
	fp INTEGER NOT NULL,
	fn INTEGER NOT NULL
);
`

// Run is one completed cross-validation run.
type Run struct {
	ID          int64
	Started     string
	TreeDir     string
	SegDir      string
	Variant     string
	Folds       int
	Documents   int
	MacroMean   float64
	MacroStddev float64
	MicroMean   float64
	MicroStddev float64
	DetectionF1 float64
	BestFold    int
	BestMacroF1 float64
}

// FoldScore is one fold's scores within a run.
type FoldScore struct {
	Fold    int
	MacroF1 float64
	MicroF1 float64
	TP      int
	FP      int
	FN      int
}

// Store wraps the SQLite history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history DB at path, creating the parent
// directory and running migrations as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&n); err != nil {
		return fmt.Errorf("check schema version: %w", err)
	}
	if n == 0 {
		if _, err := s.db.Exec("INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// SaveRun records a run and its fold scores, returning the run ID. Started
// defaults to now when unset.
func (s *Store) SaveRun(r *Run, folds []FoldScore) (int64, error) {
	if r.Started == "" {
		r.Started = time.Now().UTC().Format(time.RFC3339)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO runs
		(started, tree_dir, seg_dir, variant, folds, documents,
		 macro_mean, macro_stddev, micro_mean, micro_stddev,
		 detection_f1, best_fold, best_macro_f1)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.Started, r.TreeDir, r.SegDir, r.Variant, r.Folds, r.Documents,
		r.MacroMean, r.MacroStddev, r.MicroMean, r.MicroStddev,
		r.DetectionF1, r.BestFold, r.BestMacroF1)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}
	for _, f := range folds {
		if _, err := tx.Exec(`INSERT INTO fold_scores
			(run_id, fold, macro_f1, micro_f1, tp, fp, fn)
			VALUES (?,?,?,?,?,?,?)`,
			id, f.Fold, f.MacroF1, f.MicroF1, f.TP, f.FP, f.FN); err != nil {
			return 0, fmt.Errorf("insert fold %d: %w", f.Fold, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	r.ID = id
	return id, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`SELECT id, started, tree_dir, seg_dir, variant,
		folds, documents, macro_mean, macro_stddev, micro_mean, micro_stddev,
		detection_f1, best_fold, best_macro_f1
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Started, &r.TreeDir, &r.SegDir, &r.Variant,
			&r.Folds, &r.Documents, &r.MacroMean, &r.MacroStddev,
			&r.MicroMean, &r.MicroStddev, &r.DetectionF1,
			&r.BestFold, &r.BestMacroF1); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// FoldScores returns the fold scores of one run in fold order.
func (s *Store) FoldScores(runID int64) ([]FoldScore, error) {
	rows, err := s.db.Query(`SELECT fold, macro_f1, micro_f1, tp, fp, fn
		FROM fold_scores WHERE run_id = ? ORDER BY fold`, runID)
	if err != nil {
		return nil, fmt.Errorf("query fold scores: %w", err)
	}
	defer rows.Close()

	var folds []FoldScore
	for rows.Next() {
		var f FoldScore
		if err := rows.Scan(&f.Fold, &f.MacroF1, &f.MicroF1, &f.TP, &f.FP, &f.FN); err != nil {
			return nil, fmt.Errorf("scan fold score: %w", err)
		}
		folds = append(folds, f)
	}
	return folds, rows.Err()
}
