package sink

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/KaramelBytes/salescluster-cli/internal/pipeline"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id     TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	strategy   TEXT NOT NULL,
	params     TEXT NOT NULL,
	rows_in    INTEGER NOT NULL,
	rows_kept  INTEGER NOT NULL,
	clusters   INTEGER NOT NULL,
	noise      INTEGER NOT NULL,
	inertia    REAL NOT NULL,
	silhouette REAL,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS assignments (
	run_id TEXT NOT NULL,
	row_index INTEGER NOT NULL,
	line      INTEGER NOT NULL,
	label     INTEGER NOT NULL,
	PRIMARY KEY (run_id, row_index)
);
CREATE TABLE IF NOT EXISTS cluster_counts (
	run_id TEXT NOT NULL,
	label     INTEGER NOT NULL,
	row_count INTEGER NOT NULL,
	PRIMARY KEY (run_id, label)
);
CREATE TABLE IF NOT EXISTS cluster_means (
	run_id TEXT NOT NULL,
	label  INTEGER NOT NULL,
	column_name TEXT NOT NULL,
	mean   REAL NOT NULL,
	PRIMARY KEY (run_id, label, column_name)
);
CREATE INDEX IF NOT EXISTS idx_assignments_label ON assignments (run_id, label);
`

// SQLite keeps a history of runs in a local database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and ensures the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

// Write stores one run in a single transaction.
func (s *SQLite) Write(ctx context.Context, res *pipeline.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var sil sql.NullFloat64
	if res.Metrics.SilhouetteDefined {
		sil = sql.NullFloat64{Float64: res.Metrics.Silhouette, Valid: true}
	}
	rowsIn := len(res.Labels)
	if res.Clean != nil {
		rowsIn = res.Clean.InputRows
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, source, strategy, params, rows_in, rows_kept, clusters, noise, inertia, silhouette, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID, res.Source, res.Config.Cluster.Strategy, res.Config.Describe(), rowsIn, len(res.Labels),
		res.Metrics.Clusters, res.Metrics.Noise, res.Metrics.Inertia, sil, res.Started.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO assignments (run_id, row_index, line, label) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare assignments: %w", err)
	}
	defer stmt.Close()
	for i, l := range res.Labels {
		if _, err := stmt.ExecContext(ctx, res.RunID, i, res.Table.Line(i), l); err != nil {
			return fmt.Errorf("insert assignment %d: %w", i, err)
		}
	}
	for _, r := range res.Summary.Rows {
		if _, err := tx.ExecContext(ctx, `INSERT INTO cluster_counts (run_id, label, row_count) VALUES (?, ?, ?)`, res.RunID, r.Label, r.Count); err != nil {
			return fmt.Errorf("insert count: %w", err)
		}
		for j, c := range res.Summary.Columns {
			if _, err := tx.ExecContext(ctx, `INSERT INTO cluster_means (run_id, label, column_name, mean) VALUES (?, ?, ?, ?)`, res.RunID, r.Label, c, r.Means[j]); err != nil {
				return fmt.Errorf("insert mean: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// RunCounts returns the stored label counts of one run.
func (s *SQLite) RunCounts(ctx context.Context, runID string) (map[int]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT label, row_count FROM cluster_counts WHERE run_id = ? ORDER BY label`, runID)
	if err != nil {
		return nil, fmt.Errorf("query counts: %w", err)
	}
	defer rows.Close()
	out := map[int]int{}
	for rows.Next() {
		var l, n int
		if err := rows.Scan(&l, &n); err != nil {
			return nil, fmt.Errorf("scan counts: %w", err)
		}
		out[l] = n
	}
	return out, rows.Err()
}
