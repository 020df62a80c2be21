// Package record stores the key events of a session.
package record

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/tkw1536/gogokeyboard/key"
)

// ErrClosed is returned when using a store that has been closed.
var ErrClosed = errors.New("record: store closed")

// Entry is a single recorded event.
type Entry struct {
	Seq   uint64    `json:"seq"` // position within the session, starting at 1
	At    time.Time `json:"at"`
	Event key.Event `json:"event"`
}

// Store reads and writes recorded entries
type Store interface {
	// Append appends an entry to this store.
	Append(entry Entry) error

	// Entries returns all entries in this store, ordered by Seq.
	Entries() ([]Entry, error)

	// Close closes this store.
	Close() error
}

// Open opens a store at the given path.
// Paths ending in ".db" or ".sqlite" use an sqlite database, anything else a JSON lines file.
func Open(path string) (Store, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return OpenSQLite(path)
	default:
		return OpenJSONFile(path)
	}
}

// JSONFileStore stores entries in a JSON lines file on disk.
// Implements Store.
type JSONFileStore struct {
	path string

	m      sync.Mutex
	file   *os.File
	closed bool
}

// OpenJSONFile opens a JSON lines store at path.
// New entries are appended to existing ones.
//
// When creating a new file, uses chmod 0600 to prevent other users from reading what was typed.
func OpenJSONFile(path string) (*JSONFileStore, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %q", path)
	}
	return &JSONFileStore{path: path, file: file}, nil
}

// Append writes entry as a single line
func (f *JSONFileStore) Append(entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	f.m.Lock()
	defer f.m.Unlock()

	if f.closed {
		return ErrClosed
	}
	_, err = f.file.Write(append(data, '\n'))
	return err
}

// Entries reads all entries back from disk.
//
// When the file does not exist, the store is considered empty.
// A line that is not an entry is considered an error.
func (f *JSONFileStore) Entries() ([]Entry, error) {
	f.m.Lock()
	defer f.m.Unlock()

	if f.closed {
		return nil, ErrClosed
	}

	h, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer h.Close()

	var entries []Entry
	scanner := bufio.NewScanner(h)
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			return nil, errors.Wrapf(err, "%s:%d", f.path, line)
		}
		entries = append(entries, entry)
	}
	return entries, scanner.Err()
}

// Close closes the underlying file
func (f *JSONFileStore) Close() error {
	f.m.Lock()
	defer f.m.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true
	return f.file.Close()
}

// InMemoryStore stores entries in-memory.
// It implements Store.
type InMemoryStore struct {
	m       sync.Mutex
	entries []Entry
	closed  bool
}

// Append appends entry to memory
func (store *InMemoryStore) Append(entry Entry) error {
	store.m.Lock()
	defer store.m.Unlock()

	if store.closed {
		return ErrClosed
	}
	store.entries = append(store.entries, entry)
	return nil
}

// Entries returns a copy of the entries in memory
func (store *InMemoryStore) Entries() ([]Entry, error) {
	store.m.Lock()
	defer store.m.Unlock()

	if store.closed {
		return nil, ErrClosed
	}
	return append([]Entry(nil), store.entries...), nil
}

// Close marks this store as closed
func (store *InMemoryStore) Close() error {
	store.m.Lock()
	defer store.m.Unlock()

	store.closed = true
	return nil
}
