package audit

import (
	"database/sql"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_entries (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	id            TEXT NOT NULL UNIQUE,
	ts            TEXT NOT NULL,
	session_id    TEXT NOT NULL,
	employee_id   TEXT NOT NULL,
	name          TEXT NOT NULL,
	department    TEXT NOT NULL,
	location      TEXT NOT NULL,
	clearance     INTEGER NOT NULL,
	query         TEXT NOT NULL,
	outcome       TEXT NOT NULL,
	reason        TEXT NOT NULL,
	keyword       TEXT NOT NULL DEFAULT '',
	k             INTEGER NOT NULL DEFAULT 0,
	threshold     REAL NOT NULL DEFAULT 0,
	max_clearance INTEGER NOT NULL DEFAULT 0,
	response_ref  TEXT NOT NULL DEFAULT '',
	table_hash    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_audit_employee ON audit_entries(employee_id);
CREATE INDEX IF NOT EXISTS idx_audit_outcome  ON audit_entries(outcome);
CREATE INDEX IF NOT EXISTS idx_audit_ts       ON audit_entries(ts);
`

// Store is the sqlite-backed queryable side of the audit trail. The
// JSONL log is the tamper-evident record; the store exists for review
// queries. Verdict columns are written once and never updated; only the
// response reference may be attached after the fact.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the audit store at the given path.
func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("audit store: create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("audit store: open: %w", err)
	}

	// Appends from concurrent sessions serialize on a single writer
	// connection; sqlite handles one writer at a time anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit store: init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Insert appends one entry.
func (s *Store) Insert(e Entry) error {
	_, err := s.db.Exec(`
		INSERT INTO audit_entries
		(id, ts, session_id, employee_id, name, department, location, clearance,
		 query, outcome, reason, keyword, k, threshold, max_clearance, response_ref, table_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp, e.SessionID,
		e.Identity.EmployeeID, e.Identity.Name, e.Identity.Department, e.Identity.Location, e.Identity.Clearance,
		e.Query, e.Outcome, e.Reason, e.Keyword,
		e.K, e.Threshold, e.MaxClearance, e.ResponseRef, e.TableHash,
	)
	if err != nil {
		return fmt.Errorf("audit store: insert: %w", err)
	}
	return nil
}

// AttachResponse sets the response reference for an already-recorded
// entry. The verdict columns are never touched.
func (s *Store) AttachResponse(entryID, ref string) error {
	res, err := s.db.Exec(`UPDATE audit_entries SET response_ref = ? WHERE id = ?`, ref, entryID)
	if err != nil {
		return fmt.Errorf("audit store: attach response: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("audit store: attach response: entry %s not found", entryID)
	}
	return nil
}

// Count returns the total number of recorded entries.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM audit_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("audit store: count: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Filter selects audit entries for review. Zero values mean no
// constraint on that dimension.
type Filter struct {
	EmployeeID string
	SessionID  string
	Outcome    string
	From       time.Time
	To         time.Time
	Limit      int
}

// Query returns a lazy sequence of entries matching the filter, ordered
// by timestamp ascending. The sequence is restartable: each range runs a
// fresh cursor. Iteration errors are yielded as the second value.
func (s *Store) Query(f Filter) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		where, args := f.clause()

		q := `SELECT id, ts, session_id, employee_id, name, department, location, clearance,
			query, outcome, reason, keyword, k, threshold, max_clearance, response_ref, table_hash
			FROM audit_entries` + where + ` ORDER BY ts ASC, seq ASC`
		if f.Limit > 0 {
			q += fmt.Sprintf(" LIMIT %d", f.Limit)
		}

		rows, err := s.db.Query(q, args...)
		if err != nil {
			yield(Entry{}, fmt.Errorf("audit store: query: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var e Entry
			err := rows.Scan(&e.ID, &e.Timestamp, &e.SessionID,
				&e.Identity.EmployeeID, &e.Identity.Name, &e.Identity.Department,
				&e.Identity.Location, &e.Identity.Clearance,
				&e.Query, &e.Outcome, &e.Reason, &e.Keyword,
				&e.K, &e.Threshold, &e.MaxClearance, &e.ResponseRef, &e.TableHash)
			if err != nil {
				yield(Entry{}, fmt.Errorf("audit store: scan: %w", err))
				return
			}
			if !yield(e, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(Entry{}, fmt.Errorf("audit store: rows: %w", err))
		}
	}
}

func (f Filter) clause() (string, []any) {
	var conds []string
	var args []any

	if f.EmployeeID != "" {
		conds = append(conds, "employee_id = ?")
		args = append(args, f.EmployeeID)
	}
	if f.SessionID != "" {
		conds = append(conds, "session_id = ?")
		args = append(args, f.SessionID)
	}
	if f.Outcome != "" {
		conds = append(conds, "outcome = ?")
		args = append(args, f.Outcome)
	}
	if !f.From.IsZero() {
		conds = append(conds, "ts >= ?")
		args = append(args, f.From.UTC().Format(TimestampFormat))
	}
	if !f.To.IsZero() {
		conds = append(conds, "ts <= ?")
		args = append(args, f.To.UTC().Format(TimestampFormat))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
