package record

import (
	"database/sql"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/tkw1536/gogokeyboard/key"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS key_events (
	session   INTEGER NOT NULL,
	seq       INTEGER NOT NULL,
	at        INTEGER NOT NULL,
	symbol    TEXT    NOT NULL,
	code      INTEGER NOT NULL,
	modifiers INTEGER NOT NULL,
	pressed   INTEGER NOT NULL,
	PRIMARY KEY (session, seq)
)`

// SQLiteStore stores entries in the key_events table of an sqlite database.
// Implements Store.
//
// Every store opened on the same database starts a new session.
// Entries returns the entries of all sessions, oldest session first.
type SQLiteStore struct {
	db      *sql.DB
	session int64
	closed  atomic.Bool
}

// OpenSQLite opens the sqlite database at path, creating it if needed.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %q", path)
	}
	// a single connection serializes writes, sqlite does not do concurrent writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "unable to create schema")
	}
	return &SQLiteStore{db: db, session: time.Now().UnixNano()}, nil
}

// Append inserts entry into the database
func (s *SQLiteStore) Append(entry Entry) error {
	if s.closed.Load() {
		return ErrClosed
	}

	pressed := 0
	if entry.Event.Pressed {
		pressed = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO key_events (session, seq, at, symbol, code, modifiers, pressed) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.session, entry.Seq, entry.At.UnixNano(),
		entry.Event.Symbol, entry.Event.Code, int(entry.Event.Modifiers), pressed,
	)
	return errors.Wrap(err, "unable to insert entry")
}

// Entries reads all entries from the database
func (s *SQLiteStore) Entries() ([]Entry, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	rows, err := s.db.Query(`SELECT seq, at, symbol, code, modifiers, pressed FROM key_events ORDER BY session, seq`)
	if err != nil {
		return nil, errors.Wrap(err, "unable to query entries")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry     Entry
			at        int64
			modifiers int
			pressed   int
		)
		if err := rows.Scan(&entry.Seq, &at, &entry.Event.Symbol, &entry.Event.Code, &modifiers, &pressed); err != nil {
			return nil, errors.Wrap(err, "unable to read entry")
		}
		entry.At = time.Unix(0, at)
		entry.Event.Modifiers = key.Modifier(modifiers)
		entry.Event.Pressed = pressed != 0
		entries = append(entries, entry)
	}
	return entries, errors.Wrap(rows.Err(), "unable to read entries")
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}
