package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/klabast/wb-services/festival-calendar/internal/lunar"
)

const (
	BackupDir       = "backup"
	BackupSuffix    = ".backup"
	TmpSuffix       = ".tmp.json"
	FilePermissions = 0644
)

type document struct {
	Events    []Event   `json:"events"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FileStore keeps events in a JSON file. Every edit is written to a
// temporary file next to it; Commit promotes the temporary file and moves the
// previous one into the backup directory, Revert discards it.
type FileStore struct {
	mu     sync.RWMutex
	path   string
	events []Event
	logger *slog.Logger
	now    func() time.Time
}

var (
	_ Store     = (*FileStore)(nil)
	_ Changeset = (*FileStore)(nil)
)

// OpenFileStore loads path, preferring uncommitted edits from a previous run.
// A missing file is an empty store.
func OpenFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &FileStore{
		path:   path,
		logger: logger.With("component", "events", "store", "file"),
		now:    time.Now,
	}

	src := path
	if _, err := os.Stat(s.tmpPath()); err == nil {
		s.logger.Warn("found uncommitted event changes, loading them", "file", s.tmpPath())
		src = s.tmpPath()
	}
	if err := s.load(src); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) tmpPath() string {
	return s.path + TmpSuffix
}

// load replaces the in-memory events with the contents of path. The caller
// holds mu or owns s exclusively.
func (s *FileStore) load(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		s.events = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("read events: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse events %s: %w", path, err)
	}

	s.events = doc.Events
	return nil
}

// saveTmpLocked writes the staged events. The caller holds mu.
func (s *FileStore) saveTmpLocked() error {
	data, err := json.MarshalIndent(document{Events: s.events, UpdatedAt: s.now().UTC()}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	return os.WriteFile(s.tmpPath(), data, FilePermissions)
}

func (s *FileStore) List(_ context.Context) ([]Event, error) {
	s.mu.RLock()
	out := slices.Clone(s.events)
	s.mu.RUnlock()
	Sort(out)
	return out, nil
}

func (s *FileStore) ListOn(_ context.Context, date lunar.LunarDate) ([]Event, error) {
	s.mu.RLock()
	out := On(s.events, date)
	s.mu.RUnlock()
	Sort(out)
	return out, nil
}

func (s *FileStore) Get(_ context.Context, id string) (Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.events {
		if e.ID == id {
			return e, nil
		}
	}
	return Event{}, ErrNotFound
}

func (s *FileStore) Add(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.ContainsFunc(s.events, func(o Event) bool { return o.ID == e.ID }) {
		return ErrExists
	}
	s.events = append(s.events, e)
	if err := s.saveTmpLocked(); err != nil {
		s.events = s.events[:len(s.events)-1]
		return fmt.Errorf("save events: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.events, func(e Event) bool { return e.ID == id })
	if i < 0 {
		return ErrNotFound
	}
	prev := s.events
	s.events = slices.Delete(slices.Clone(s.events), i, i+1)
	if err := s.saveTmpLocked(); err != nil {
		s.events = prev
		return fmt.Errorf("save events: %w", err)
	}
	return nil
}

// HasChanges reports whether uncommitted edits exist.
func (s *FileStore) HasChanges() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err := os.Stat(s.tmpPath())
	return err == nil
}

// Commit makes the staged edits permanent, keeping a timestamped backup of
// the previous file.
func (s *FileStore) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.tmpPath()); os.IsNotExist(err) {
		return ErrNoChanges
	}

	backupDir := filepath.Join(filepath.Dir(s.path), BackupDir)
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		name := fmt.Sprintf("%d_%s%s", s.now().Unix(), filepath.Base(s.path), BackupSuffix)
		backup := filepath.Join(backupDir, name)
		if err := os.Rename(s.path, backup); err != nil {
			return fmt.Errorf("create backup: %w", err)
		}
		s.logger.Info("backup created", "file", backup)
	}

	if err := os.Rename(s.tmpPath(), s.path); err != nil {
		return fmt.Errorf("commit changes: %w", err)
	}
	s.logger.Info("event changes committed", "file", s.path)
	return nil
}

// Revert discards staged edits and reloads the committed file.
func (s *FileStore) Revert() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.tmpPath()); os.IsNotExist(err) {
		return ErrNoChanges
	}
	if err := os.Remove(s.tmpPath()); err != nil {
		return fmt.Errorf("remove tmp file: %w", err)
	}
	if err := s.load(s.path); err != nil {
		return fmt.Errorf("reload events: %w", err)
	}
	s.logger.Info("event changes reverted", "file", s.path)
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
