package record

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tkw1536/gogokeyboard/hub"
	"github.com/tkw1536/gogokeyboard/key"
)

var testEntries = []Entry{
	{Seq: 1, At: time.Unix(100, 0), Event: key.Event{Symbol: "A", Code: 4, Pressed: true}},
	{Seq: 2, At: time.Unix(101, 0), Event: key.Event{Symbol: "B", Code: 5, Modifiers: key.LCtrl | key.RShift, Pressed: true}},
	{Seq: 3, At: time.Unix(102, 0), Event: key.Event{Symbol: "A", Code: 4, Pressed: false}},
}

func testStore(t *testing.T, store Store) {
	t.Helper()

	for _, entry := range testEntries {
		if err := store.Append(entry); err != nil {
			t.Fatalf("Append() = %v", err)
		}
	}

	got, err := store.Entries()
	if err != nil {
		t.Fatalf("Entries() = %v", err)
	}
	if len(got) != len(testEntries) {
		t.Fatalf("Entries() returned %d entries, want %d", len(got), len(testEntries))
	}
	for i, want := range testEntries {
		if got[i].Seq != want.Seq || got[i].Event != want.Event || !got[i].At.Equal(want.At) {
			t.Errorf("entry %d = %v, want %v", i, got[i], want)
		}
	}

	if err := store.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	if err := store.Append(testEntries[0]); !errors.Is(err, ErrClosed) {
		t.Errorf("Append() after Close() = %v, want ErrClosed", err)
	}
}

func TestInMemoryStore(t *testing.T) {
	testStore(t, &InMemoryStore{})
}

func TestJSONFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.jsonl")

	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := store.(*JSONFileStore); !ok {
		t.Fatalf("Open(%q) returned %T", path, store)
	}
	testStore(t, store)

	// entries survive reopening
	reopened, err := OpenJSONFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	entries, err := reopened.Entries()
	if err != nil || len(entries) != len(testEntries) {
		t.Errorf("Entries() after reopen = %d, %v", len(entries), err)
	}
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.db")

	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := store.(*SQLiteStore); !ok {
		t.Fatalf("Open(%q) returned %T", path, store)
	}
	testStore(t, store)

	// a second session is appended after the first
	reopened, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	if err := reopened.Append(Entry{Seq: 1, At: time.Unix(200, 0), Event: key.Event{Symbol: "Z", Code: 29, Pressed: true}}); err != nil {
		t.Fatal(err)
	}
	entries, err := reopened.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != len(testEntries)+1 || entries[len(entries)-1].Event.Symbol != "Z" {
		t.Errorf("Entries() after reopen = %v", entries)
	}
}

func TestRecord(t *testing.T) {
	h := hub.New(nil, hub.DefaultConfig())
	sub, err := h.Subscribe()
	if err != nil {
		t.Fatal(err)
	}

	h.Dispatch(key.Down("A", 4, 0))
	h.Dispatch(key.Repeat("A", 4, 0))
	h.Dispatch(key.Down("B", 5, key.LShift))
	h.Dispatch(key.Up("A", 4, key.LShift))
	h.Close()

	store := &InMemoryStore{}
	if err := Record(context.Background(), sub, store); err != nil {
		t.Fatalf("Record() = %v", err)
	}

	entries, _ := store.Entries()
	want := []string{"down(A #4)", "down(B #5 lshift)", "up(A #4 lshift)"}
	if len(entries) != len(want) {
		t.Fatalf("recorded %d entries, want %d", len(entries), len(want))
	}
	for i, w := range want {
		if entries[i].Seq != uint64(i+1) || entries[i].Event.String() != w {
			t.Errorf("entry %d = #%d %s, want #%d %s", i, entries[i].Seq, entries[i].Event, i+1, w)
		}
	}
}
