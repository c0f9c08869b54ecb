package audit

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry represents a single history entry. It never holds note plaintext or keys.
type Entry struct {
	Timestamp string `json:"ts"` // RFC3339 with microseconds.
	Operation string `json:"op"` // encrypt, decrypt or inspect.

	Digest    string `json:"digest,omitempty"`    // Envelope fingerprint.
	Condition string `json:"condition,omitempty"` // Human-readable unlock predicate.
	Status    string `json:"status,omitempty"`    // Oracle status when checked.
	RoundID   string `json:"round_id,omitempty"`  // Oracle round identifier.
	Degraded  bool   `json:"degraded,omitempty"`  // Decided below quorum.
	Forced    bool   `json:"forced,omitempty"`    // Oracle check bypassed.
	Error     string `json:"error,omitempty"`     // Error category on failure.
}

// Log is an append-only JSON Lines file. A nil *Log or empty Path discards entries.
type Log struct {
	Path string

	mu sync.Mutex
}

// Open returns a log writing to path.
func Open(path string) *Log {
	return &Log{Path: path}
}

// Append adds an entry to the log.
// If writing fails the entry is dropped: operations must not fail just
// because history could not be recorded.
func (l *Log) Append(entry Entry) {
	if l == nil || l.Path == "" {
		return
	}
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.Path), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	_, _ = f.Write(append(data, '\n'))
}

// ReadEntries reads all entries from the log.
// Returns an empty slice if the log doesn't exist.
func (l *Log) ReadEntries() ([]Entry, error) {
	if l == nil || l.Path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(l.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into entries.
// Malformed lines are silently skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	start := 0

	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1

			if len(line) == 0 {
				continue
			}

			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				// Skip malformed entries.
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

// Tail returns at most n of the most recent entries, oldest first.
func Tail(entries []Entry, n int) []Entry {
	if n <= 0 || len(entries) <= n {
		return entries
	}
	return entries[len(entries)-n:]
}
