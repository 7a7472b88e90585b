// Package history keeps a bounded, newest-first record of executed
// requests in a single JSON file.
package history

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/recurl/internal/errdef"
)

type Entry struct {
	ID          string        `json:"id"`
	ExecutedAt  time.Time     `json:"executedAt"`
	Profile     string        `json:"profile,omitempty"`
	RequestFile string        `json:"requestFile,omitempty"`
	Method      string        `json:"method"`
	URL         string        `json:"url"`
	Status      string        `json:"status"`
	StatusCode  int           `json:"statusCode"`
	Duration    time.Duration `json:"duration"`
	BodySnippet string        `json:"bodySnippet,omitempty"`
}

// NewEntryID returns a fresh unique entry id.
func NewEntryID() string {
	return uuid.NewString()
}

type Store struct {
	path       string
	maxEntries int
	entries    []Entry
	mu         sync.RWMutex
	loaded     bool
}

func NewStore(path string, maxEntries int) *Store {
	if maxEntries <= 0 {
		maxEntries = 200
	}
	return &Store{path: path, maxEntries: maxEntries}
}

func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLoadedLocked()
}

func (s *Store) Append(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(); err != nil {
		return err
	}

	if entry.ID == "" {
		entry.ID = NewEntryID()
	}
	s.entries = append([]Entry{entry}, s.entries...)
	s.sortEntriesLocked()
	if len(s.entries) > s.maxEntries {
		s.entries = s.entries[:s.maxEntries]
	}

	return s.persist()
}

func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	copies := make([]Entry, len(s.entries))
	copy(copies, s.entries)
	return copies
}

func (s *Store) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(); err != nil {
		return false, err
	}

	idx := -1
	for i, entry := range s.entries {
		if entry.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false, nil
	}

	copy(s.entries[idx:], s.entries[idx+1:])
	s.entries = s.entries[:len(s.entries)-1]

	if err := s.persist(); err != nil {
		return false, err
	}
	return true, nil
}

// ByFile returns entries recorded for the given request file path,
// newest first.
func (s *Store) ByFile(path string) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil
	}
	cleaned := filepath.Clean(trimmed)

	var matched []Entry
	for _, entry := range s.entries {
		if entry.RequestFile == "" {
			continue
		}
		if filepath.Clean(entry.RequestFile) == cleaned {
			matched = append(matched, entry)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return newerFirst(matched[i], matched[j])
	})
	return matched
}

func (s *Store) persist() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "create history dir")
	}

	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return errdef.Wrap(errdef.CodeHistory, err, "encode history")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "write history tmp")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "replace history file")
	}

	return nil
}

func (s *Store) sortEntriesLocked() {
	if len(s.entries) < 2 {
		return
	}

	sort.SliceStable(s.entries, func(i, j int) bool {
		return newerFirst(s.entries[i], s.entries[j])
	})
}

func (s *Store) ensureLoadedLocked() error {
	if s.loaded {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.entries = []Entry{}
			s.loaded = true
			return nil
		}
		return errdef.Wrap(errdef.CodeHistory, err, "read history")
	}

	if len(data) == 0 {
		s.entries = []Entry{}
		s.loaded = true
		return nil
	}

	if err := json.Unmarshal(data, &s.entries); err != nil {
		return errdef.Wrap(errdef.CodeHistory, err, "parse history")
	}

	s.sortEntriesLocked()
	s.loaded = true
	return nil
}

func newerFirst(a, b Entry) bool {
	ai := a.ExecutedAt
	bi := b.ExecutedAt
	switch {
	case ai.IsZero() && bi.IsZero():
		return a.ID > b.ID
	case ai.IsZero():
		return false
	case bi.IsZero():
		return true
	case ai.Equal(bi):
		return a.ID > b.ID
	default:
		return ai.After(bi)
	}
}
