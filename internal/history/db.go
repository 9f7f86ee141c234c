package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Zuo-Peng/tabtally/internal/tally"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS runs (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    ts        INTEGER NOT NULL,
    file_path TEXT NOT NULL DEFAULT '',
    tabs      INTEGER NOT NULL,
    windows   INTEGER NOT NULL DEFAULT 0,
    reported  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS run_domains (
    run_id INTEGER NOT NULL,
    rank   INTEGER NOT NULL,
    domain TEXT NOT NULL,
    count  INTEGER NOT NULL,
    PRIMARY KEY (run_id, rank)
);

CREATE INDEX IF NOT EXISTS runs_ts ON runs(ts);
CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);
`

// schemaVersion is bumped whenever the tables change shape.
const schemaVersion = "1"

type DB struct {
	db *sql.DB
}

func OpenDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	if _, err := db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("write schema version: %w", err)
	}

	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Run is one recorded pass over a session file.
type Run struct {
	ID         int64
	Time       time.Time
	FilePath   string
	Tabs       int
	Windows    int
	Reported   bool
	TopDomains []tally.DomainCount
}

// Record stores a run and its top domains, returning the new run ID.
func (d *DB) Record(r Run) (int64, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO runs (ts, file_path, tabs, windows, reported) VALUES (?, ?, ?, ?, ?)`,
		r.Time.Unix(), r.FilePath, r.Tabs, r.Windows, boolInt(r.Reported),
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(`INSERT INTO run_domains (run_id, rank, domain, count) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, dc := range r.TopDomains {
		if _, err := stmt.Exec(id, i, dc.Domain, dc.Count); err != nil {
			return 0, err
		}
	}
	return id, tx.Commit()
}

// MarkReported flags a run as successfully sent.
func (d *DB) MarkReported(id int64) error {
	res, err := d.db.Exec("UPDATE runs SET reported = 1 WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %d not found", id)
	}
	return nil
}

// Recent returns up to limit runs, newest first, with their domains.
func (d *DB) Recent(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1 // no limit
	}
	rows, err := d.db.Query(
		"SELECT id, ts, file_path, tabs, windows, reported FROM runs ORDER BY ts DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			ts       int64
			reported int
		)
		if err := rows.Scan(&r.ID, &ts, &r.FilePath, &r.Tabs, &r.Windows, &reported); err != nil {
			return nil, err
		}
		r.Time = time.Unix(ts, 0)
		r.Reported = reported != 0
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range runs {
		domains, err := d.Domains(runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].TopDomains = domains
	}
	return runs, nil
}

// Domains returns the stored top domains of a run in rank order.
func (d *DB) Domains(runID int64) ([]tally.DomainCount, error) {
	rows, err := d.db.Query("SELECT domain, count FROM run_domains WHERE run_id = ? ORDER BY rank", runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []tally.DomainCount
	for rows.Next() {
		var dc tally.DomainCount
		if err := rows.Scan(&dc.Domain, &dc.Count); err != nil {
			return nil, err
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}

// RunCount returns the number of recorded runs.
func (d *DB) RunCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&n)
	return n, err
}

// Prune deletes runs older than before and returns how many were removed.
func (d *DB) Prune(before time.Time) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM run_domains WHERE run_id IN (SELECT id FROM runs WHERE ts < ?)", before.Unix()); err != nil {
		return 0, err
	}
	res, err := tx.Exec("DELETE FROM runs WHERE ts < ?", before.Unix())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), tx.Commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
