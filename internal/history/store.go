// Package history keeps a record of finished play-throughs. Records are
// stored as append-only JSON lines in a local file so a parent can see how
// often a story was played and how far a child got.
package history

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// Record is a single finished play-through.
type Record struct {
	Timestamp time.Time     `json:"timestamp"`
	Story     string        `json:"story"`
	Frontend  string        `json:"frontend"`
	Outcome   string        `json:"outcome"`
	Won       bool          `json:"won"`
	Steps     int           `json:"steps"`
	Restarts  int           `json:"restarts"`
	Duration  time.Duration `json:"duration_ns"`
}

// FileStore persists records as JSON lines in a local file.
// Thread-safe for concurrent use.
type FileStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewFileStore creates a FileStore that writes to the given path.
// The file is created on the first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// Path returns the file records are written to.
func (s *FileStore) Path() string { return s.path }

// Save appends r to the file. A zero Timestamp is set to the current time.
func (s *FileStore) Save(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Timestamp.IsZero() {
		r.Timestamp = s.now().UTC()
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("history: marshal: %w", err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("history: open file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("history: write: %w", err)
	}
	return nil
}

// Load returns every record in the file, oldest first. A missing file
// yields no records. Lines that cannot be decoded are skipped.
func (s *FileStore) Load() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history: open file: %w", err)
	}
	defer f.Close()

	var out []Record
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var r Record
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			continue
		}
		out = append(out, r)
	}
	if err := sc.Err(); err != nil {
		return out, fmt.Errorf("history: read: %w", err)
	}
	return out, nil
}

// Summary aggregates records per story.
type Summary struct {
	Plays    int
	Wins     int
	Restarts int
}

// Summarize groups records by story title.
func Summarize(records []Record) map[string]Summary {
	out := make(map[string]Summary)
	for _, r := range records {
		s := out[r.Story]
		s.Plays++
		if r.Won {
			s.Wins++
		}
		s.Restarts += r.Restarts
		out[r.Story] = s
	}
	return out
}
