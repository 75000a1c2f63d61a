package trigger

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "github.com/oshokin/alarm-orchestrator/internal/domain/alarm"
)

// Memory is an in-process ledger keeping events in insertion order.
type Memory struct {
	// events holds every recorded event, oldest first.
	events []*domain.TriggerEvent
	// byID indexes events by their assigned id.
	byID map[int64]*domain.TriggerEvent
	// nextID is the next id to assign.
	nextID int64
	// mu protects all ledger state.
	mu sync.Mutex
}

// NewMemory creates an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{
		byID:   make(map[int64]*domain.TriggerEvent),
		nextID: 1,
	}
}

// Insert stores a new active event, assigning its id, and returns a copy.
func (m *Memory) Insert(_ context.Context, event *domain.TriggerEvent) (*domain.TriggerEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.insertLocked(event), nil
}

// insertLocked stores a new active event. Caller must hold mu.
func (m *Memory) insertLocked(event *domain.TriggerEvent) *domain.TriggerEvent {
	stored := event.Clone()
	stored.ID = m.nextID
	stored.Resolved = false
	stored.ResolvedAt = nil

	m.nextID++
	m.events = append(m.events, stored)
	m.byID[stored.ID] = stored

	return stored.Clone()
}

// removeLocked deletes an event, undoing an insert whose durable write
// failed. Caller must hold mu.
func (m *Memory) removeLocked(id int64) {
	delete(m.byID, id)

	for i, event := range m.events {
		if event.ID == id {
			m.events = append(m.events[:i], m.events[i+1:]...)

			break
		}
	}

	if id == m.nextID-1 {
		m.nextID--
	}
}

// Get returns the event with the given id or ErrNotFound.
func (m *Memory) Get(_ context.Context, id int64) (*domain.TriggerEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	event, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}

	return event.Clone(), nil
}

// Resolve marks an event resolved at the given time, once.
func (m *Memory) Resolve(_ context.Context, id int64, at time.Time) (*domain.TriggerEvent, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.resolveLocked(id, at)
}

// resolveLocked marks an event resolved, once. Caller must hold mu.
func (m *Memory) resolveLocked(id int64, at time.Time) (*domain.TriggerEvent, bool, error) {
	event, ok := m.byID[id]
	if !ok {
		return nil, false, ErrNotFound
	}

	if event.Resolved {
		return event.Clone(), true, nil
	}

	resolvedAt := at
	event.Resolved = true
	event.ResolvedAt = &resolvedAt

	return event.Clone(), false, nil
}

// unresolveLocked reverts a resolution whose durable write failed.
// Caller must hold mu.
func (m *Memory) unresolveLocked(id int64) {
	if event, ok := m.byID[id]; ok {
		event.Resolved = false
		event.ResolvedAt = nil
	}
}

// ListByAlarm returns the alarm's events, newest first, narrowed by the filter.
func (m *Memory) ListByAlarm(_ context.Context, alarmID string, filter ListFilter) ([]*domain.TriggerEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*domain.TriggerEvent

	for _, event := range m.events {
		if event.AlarmID != alarmID {
			continue
		}

		if filter.Resolved != nil && event.Resolved != *filter.Resolved {
			continue
		}

		matched = append(matched, event.Clone())
	}

	sortNewestFirst(matched)

	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	return matched, nil
}

// ListAll returns events across alarms, newest first, with paging and total.
func (m *Memory) ListAll(_ context.Context, limit, offset int) ([]*domain.TriggerEvent, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := len(m.events)

	all := make([]*domain.TriggerEvent, 0, total)
	for _, event := range m.events {
		all = append(all, event.Clone())
	}

	sortNewestFirst(all)

	if offset > 0 {
		if offset >= len(all) {
			return nil, total, nil
		}

		all = all[offset:]
	}

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	return all, total, nil
}

// Stats aggregates counts for one alarm.
func (m *Memory) Stats(_ context.Context, alarmID string, since time.Time) (*domain.TriggerStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := &domain.TriggerStats{
		AlarmID: alarmID,
		ByKind:  make(map[string]int),
	}

	for _, event := range m.events {
		if event.AlarmID != alarmID {
			continue
		}

		stats.Total++
		stats.ByKind[event.Kind]++

		if !event.CreatedAt.Before(since) {
			stats.PeriodCount++
		}

		if event.Resolved {
			stats.ResolvedCount++
		} else {
			stats.ActiveCount++
		}
	}

	return stats, nil
}

// snapshot copies the full ledger state for persistence.
// Caller must hold mu.
func (m *Memory) snapshot() ([]*domain.TriggerEvent, int64) {
	events := make([]*domain.TriggerEvent, 0, len(m.events))
	for _, event := range m.events {
		events = append(events, event.Clone())
	}

	return events, m.nextID
}

// restore replaces the ledger state. Caller must hold mu.
func (m *Memory) restore(events []*domain.TriggerEvent, nextID int64) {
	m.events = make([]*domain.TriggerEvent, 0, len(events))
	m.byID = make(map[int64]*domain.TriggerEvent, len(events))

	var maxID int64

	for _, event := range events {
		stored := event.Clone()
		m.events = append(m.events, stored)
		m.byID[stored.ID] = stored

		if stored.ID > maxID {
			maxID = stored.ID
		}
	}

	if nextID <= maxID {
		nextID = maxID + 1
	}

	if nextID < 1 {
		nextID = 1
	}

	m.nextID = nextID
}

// sortNewestFirst orders events by creation time descending, newest id first
// on equal timestamps.
func sortNewestFirst(events []*domain.TriggerEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].ID > events[j].ID
		}

		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
}
