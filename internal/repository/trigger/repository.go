package trigger

import (
	"context"
	"errors"
	"time"

	domain "github.com/oshokin/alarm-orchestrator/internal/domain/alarm"
)

// ErrNotFound is returned when the ledger has no event with the given id.
var ErrNotFound = errors.New("trigger event not found")

// ListFilter narrows ledger listings.
type ListFilter struct {
	// Resolved filters by resolution state when non-nil.
	Resolved *bool
	// Limit bounds the number of returned events; non-positive means no bound.
	Limit int
}

// Repository defines persistence operations for the trigger ledger.
type Repository interface {
	// Insert stores a new active event, assigning its id, and returns it.
	Insert(ctx context.Context, event *domain.TriggerEvent) (*domain.TriggerEvent, error)
	// Get returns the event with the given id or ErrNotFound.
	Get(ctx context.Context, id int64) (*domain.TriggerEvent, error)
	// Resolve marks an event resolved at the given time. Resolution is
	// one-way: resolving an already-resolved event returns the stored event
	// unchanged with alreadyResolved set.
	Resolve(ctx context.Context, id int64, at time.Time) (event *domain.TriggerEvent, alreadyResolved bool, err error)
	// ListByAlarm returns the alarm's events ordered by creation time
	// descending, narrowed by the filter.
	ListByAlarm(ctx context.Context, alarmID string, filter ListFilter) ([]*domain.TriggerEvent, error)
	// ListAll returns events across alarms ordered by creation time
	// descending with limit/offset paging, plus the total event count.
	ListAll(ctx context.Context, limit, offset int) ([]*domain.TriggerEvent, int, error)
	// Stats aggregates counts for one alarm; period events are those
	// created at or after since.
	Stats(ctx context.Context, alarmID string, since time.Time) (*domain.TriggerStats, error)
}
