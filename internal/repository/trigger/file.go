package trigger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oshokin/alarm-orchestrator/internal/config"
	domain "github.com/oshokin/alarm-orchestrator/internal/domain/alarm"
)

// ledgerFile is the on-disk JSON representation of the ledger.
type ledgerFile struct {
	// NextID is the next event id to assign.
	NextID int64 `json:"next_id"`
	// Events holds every recorded event, oldest first.
	Events []*domain.TriggerEvent `json:"events"`
}

// File persists the ledger to a JSON file on disk after every mutation,
// so recorded triggers survive restarts. Reads are served from memory.
type File struct {
	// memory serves all queries and owns the ledger state.
	memory *Memory
	// path is the filesystem location of the JSON ledger file.
	path string
}

// NewFile creates a file-backed ledger, loading existing state if present.
func NewFile(path string) (*File, error) {
	repository := &File{
		memory: NewMemory(),
		path:   filepath.Clean(path),
	}

	contents, err := os.ReadFile(repository.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return repository, nil
		}

		return nil, fmt.Errorf("read ledger file: %w", err)
	}

	var stored ledgerFile
	if err := json.Unmarshal(contents, &stored); err != nil {
		return nil, fmt.Errorf("decode ledger file: %w", err)
	}

	repository.memory.mu.Lock()
	repository.memory.restore(stored.Events, stored.NextID)
	repository.memory.mu.Unlock()

	return repository, nil
}

// Insert stores a new active event and persists the ledger. A failed disk
// write rolls the insert back, so an event the caller saw fail never shows
// up in listings or statistics.
func (f *File) Insert(_ context.Context, event *domain.TriggerEvent) (*domain.TriggerEvent, error) {
	f.memory.mu.Lock()
	defer f.memory.mu.Unlock()

	stored := f.memory.insertLocked(event)

	if err := f.persistLocked(); err != nil {
		f.memory.removeLocked(stored.ID)

		return nil, err
	}

	return stored, nil
}

// Get returns the event with the given id or ErrNotFound.
func (f *File) Get(ctx context.Context, id int64) (*domain.TriggerEvent, error) {
	return f.memory.Get(ctx, id)
}

// Resolve marks an event resolved and persists the first transition. A
// failed disk write reverts the resolution so the event stays active.
func (f *File) Resolve(_ context.Context, id int64, at time.Time) (*domain.TriggerEvent, bool, error) {
	f.memory.mu.Lock()
	defer f.memory.mu.Unlock()

	event, alreadyResolved, err := f.memory.resolveLocked(id, at)
	if err != nil {
		return nil, false, err
	}

	// Re-resolving changes nothing, so nothing needs writing.
	if !alreadyResolved {
		if err := f.persistLocked(); err != nil {
			f.memory.unresolveLocked(id)

			return nil, false, err
		}
	}

	return event, alreadyResolved, nil
}

// ListByAlarm returns the alarm's events, newest first, narrowed by the filter.
func (f *File) ListByAlarm(ctx context.Context, alarmID string, filter ListFilter) ([]*domain.TriggerEvent, error) {
	return f.memory.ListByAlarm(ctx, alarmID, filter)
}

// ListAll returns events across alarms, newest first, with paging and total.
func (f *File) ListAll(ctx context.Context, limit, offset int) ([]*domain.TriggerEvent, int, error) {
	return f.memory.ListAll(ctx, limit, offset)
}

// Stats aggregates counts for one alarm.
func (f *File) Stats(ctx context.Context, alarmID string, since time.Time) (*domain.TriggerStats, error) {
	return f.memory.Stats(ctx, alarmID, since)
}

// persistLocked writes the full ledger state to disk. The memory mutex is
// held across the write so concurrent mutations cannot land their snapshots
// out of order and overwrite a newer ledger with an older one.
// Caller must hold the memory mutex.
func (f *File) persistLocked() error {
	events, nextID := f.memory.snapshot()

	data, err := json.Marshal(ledgerFile{
		NextID: nextID,
		Events: events,
	})
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	if err := os.WriteFile(f.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write ledger file: %w", err)
	}

	return nil
}
