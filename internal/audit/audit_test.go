package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestAppend_CreatesFileAndDirectories(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "state", "condlock", "history.jsonl")
	l := Open(logPath)

	l.Append(Entry{Operation: "encrypt", Digest: "0123456789abcdef"})

	info, err := os.Stat(logPath)
	if err != nil {
		t.Fatalf("History file was not created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("Expected mode 0600, got %o", perm)
	}
}

func TestAppend_AppendsEntries(t *testing.T) {
	l := Open(filepath.Join(t.TempDir(), "history.jsonl"))

	l.Append(Entry{Operation: "encrypt"})
	l.Append(Entry{Operation: "decrypt", Status: "not met"})
	l.Append(Entry{Operation: "decrypt", Status: "met"})

	entries, err := l.ReadEntries()
	if err != nil {
		t.Fatalf("ReadEntries failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	if entries[1].Status != "not met" || entries[2].Status != "met" {
		t.Errorf("Entries out of order: %+v", entries)
	}
}

func TestAppend_TimestampFormat(t *testing.T) {
	l := Open(filepath.Join(t.TempDir(), "history.jsonl"))
	l.Append(Entry{Operation: "inspect"})

	entries, err := l.ReadEntries()
	if err != nil || len(entries) != 1 {
		t.Fatalf("Expected one entry, got %v (%v)", entries, err)
	}

	ts := entries[0].Timestamp
	if _, err := time.Parse("2006-01-02T15:04:05.000000Z", ts); err != nil {
		t.Errorf("Timestamp %q has unexpected format: %v", ts, err)
	}
}

func TestAppend_OmitsEmptyFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "history.jsonl")
	Open(logPath).Append(Entry{Operation: "encrypt", Digest: "abc"})

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Entry is not valid JSON: %v", err)
	}
	for _, key := range []string{"status", "round_id", "degraded", "forced", "error"} {
		if _, ok := raw[key]; ok {
			t.Errorf("Expected %q to be omitted, got %s", key, data)
		}
	}
}

func TestAppend_NilAndEmptyPathAreNoops(t *testing.T) {
	var l *Log
	l.Append(Entry{Operation: "encrypt"})
	if entries, err := l.ReadEntries(); err != nil || entries != nil {
		t.Errorf("Expected nothing from nil log, got %v, %v", entries, err)
	}

	(&Log{}).Append(Entry{Operation: "encrypt"})
}

func TestAppend_Concurrent(t *testing.T) {
	l := Open(filepath.Join(t.TempDir(), "history.jsonl"))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Append(Entry{Operation: "decrypt"})
		}()
	}
	wg.Wait()

	entries, err := l.ReadEntries()
	if err != nil {
		t.Fatalf("ReadEntries failed: %v", err)
	}
	if len(entries) != 20 {
		t.Errorf("Expected 20 entries, got %d", len(entries))
	}
}

func TestReadEntries_MissingFile(t *testing.T) {
	entries, err := Open(filepath.Join(t.TempDir(), "absent.jsonl")).ReadEntries()
	if err != nil || entries != nil {
		t.Errorf("Expected no entries and no error, got %v, %v", entries, err)
	}
}

func TestParseEntries_SkipsMalformedLines(t *testing.T) {
	data := strings.Join([]string{
		`{"ts":"2024-01-01T00:00:00.000000Z","op":"encrypt"}`,
		`not json`,
		``,
		`{"ts":"2024-01-02T00:00:00.000000Z","op":"decrypt","status":"met"}`,
	}, "\n")

	entries, err := ParseEntries([]byte(data))
	if err != nil {
		t.Fatalf("ParseEntries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[1].Status != "met" {
		t.Errorf("Expected status met, got %q", entries[1].Status)
	}
}

func TestParseEntries_EmptyData(t *testing.T) {
	entries, err := ParseEntries(nil)
	if err != nil || entries != nil {
		t.Errorf("Expected nil, nil, got %v, %v", entries, err)
	}
}

func TestTail(t *testing.T) {
	entries := []Entry{{Operation: "a"}, {Operation: "b"}, {Operation: "c"}}

	if got := Tail(entries, 2); len(got) != 2 || got[0].Operation != "b" {
		t.Errorf("Expected last two entries, got %+v", got)
	}
	if got := Tail(entries, 0); len(got) != 3 {
		t.Errorf("Expected all entries for n=0, got %d", len(got))
	}
	if got := Tail(entries, 10); len(got) != 3 {
		t.Errorf("Expected all entries when n exceeds length, got %d", len(got))
	}
}
