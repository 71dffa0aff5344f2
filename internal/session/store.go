package session

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/umbrellacorp/usiop/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS session_turns (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL,
	employee_id TEXT NOT NULL,
	query       TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	reason      TEXT NOT NULL,
	response    TEXT NOT NULL,
	ts          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_session ON session_turns(session_id);
`

// Store persists session turns to sqlite so a conversation survives the
// process. Keyed by session id; rows append in turn order.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the session store at the given path.
func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("session store: create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("session store: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("session store: init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// SaveTurn appends one turn for the session.
func (s *Store) SaveTurn(sessionID, employeeID string, t Turn) error {
	_, err := s.db.Exec(`
		INSERT INTO session_turns (session_id, employee_id, query, outcome, reason, response, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID, employeeID, t.Query.Text, string(t.Verdict.Outcome), t.Verdict.Reason,
		t.Response, t.At.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("session store: save turn: %w", err)
	}
	return nil
}

// History returns the persisted turns for a session in append order.
// Only the fields the prompt layer needs are restored.
func (s *Store) History(sessionID string) ([]Turn, error) {
	rows, err := s.db.Query(`
		SELECT query, outcome, reason, response, ts
		FROM session_turns WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session store: history: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var (
			queryText, outcome, reason, response, ts string
		)
		if err := rows.Scan(&queryText, &outcome, &reason, &response, &ts); err != nil {
			return nil, fmt.Errorf("session store: scan: %w", err)
		}
		t := Turn{
			Query:    model.Query{Text: queryText, SessionID: sessionID},
			Verdict:  model.Verdict{Outcome: model.Outcome(outcome), Reason: reason},
			Response: response,
		}
		if at, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			t.At = at
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Clear deletes all persisted turns for a session.
func (s *Store) Clear(sessionID string) error {
	if _, err := s.db.Exec(`DELETE FROM session_turns WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("session store: clear: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
