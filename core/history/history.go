// Package history persists validation and run outcomes in a SQLite
// database. Each entry records which configuration was checked, the
// module it was bound to, the outcome, and a fingerprint of the
// run-configurations document at the time, so past results can be
// correlated with document revisions.
package history

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/Gantry/core/errors"
	"github.com/FocuswithJustin/Gantry/core/sqlite"
)

// Status classifies a recorded outcome.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

func (s Status) valid() bool {
	switch s {
	case StatusOK, StatusWarning, StatusError:
		return true
	}
	return false
}

// Entry is one recorded outcome.
type Entry struct {
	ID          string    `json:"id"`
	ConfigName  string    `json:"config_name"`
	ModuleName  string    `json:"module_name"`
	Status      Status    `json:"status"`
	Message     string    `json:"message,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Filter narrows List results. Zero values mean no restriction.
type Filter struct {
	ConfigName string
	Status     Status
	Limit      int
}

// Store is a history log backed by a SQLite database. A store has a
// single writer; concurrent readers go through database/sql's pooling.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	id          TEXT PRIMARY KEY,
	config_name TEXT NOT NULL,
	module_name TEXT NOT NULL,
	status      TEXT NOT NULL,
	message     TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_config ON entries(config_name);
CREATE INDEX IF NOT EXISTS idx_entries_created ON entries(created_at);
`

// Open opens (creating if necessary) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores an entry. A missing ID and CreatedAt are filled in; the
// stored entry is returned.
func (s *Store) Record(e Entry) (Entry, error) {
	if e.ConfigName == "" {
		return Entry{}, errors.NewValidation("config_name", "configuration name must not be empty")
	}
	if !e.Status.valid() {
		return Entry{}, errors.NewValidation("status", fmt.Sprintf("unknown status %q", e.Status))
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	} else {
		e.CreatedAt = e.CreatedAt.UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO entries (id, config_name, module_name, status, message, fingerprint, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ConfigName, e.ModuleName, string(e.Status), e.Message, e.Fingerprint,
		e.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("recording history entry: %w", err)
	}
	return e, nil
}

// List returns entries matching the filter, newest first.
func (s *Store) List(f Filter) ([]Entry, error) {
	query := `SELECT id, config_name, module_name, status, message, fingerprint, created_at FROM entries`

	var conds []string
	var args []interface{}
	if f.ConfigName != "" {
		conds = append(conds, "config_name = ?")
		args = append(args, f.ConfigName)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var status, created string
		if err := rows.Scan(&e.ID, &e.ConfigName, &e.ModuleName, &status, &e.Message, &e.Fingerprint, &created); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		e.Status = Status(status)
		e.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("parsing entry timestamp %q: %w", created, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes entries recorded before cutoff and reports how many were
// removed.
func (s *Store) Prune(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(
		`DELETE FROM entries WHERE created_at < ?`,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning history: %w", err)
	}
	return res.RowsAffected()
}
