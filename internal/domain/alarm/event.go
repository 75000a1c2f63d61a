package alarm

import "time"

// DefaultTriggerKind is assumed when a trigger arrives without a kind.
const DefaultTriggerKind = "movement"

// EventKind labels a state transition for audit and notification purposes.
type EventKind string

const (
	// EventArmed is emitted when an alarm transitions to armed.
	EventArmed EventKind = "armed"
	// EventDisarmed is emitted when an alarm transitions to disarmed.
	EventDisarmed EventKind = "disarmed"
	// EventTriggered is emitted when a sensor trigger is recorded.
	EventTriggered EventKind = "triggered"
	// EventResolved is emitted when a trigger event is resolved.
	EventResolved EventKind = "resolved"
)

// TriggerEvent is one recorded sensor activation in the ledger.
type TriggerEvent struct {
	// ID is the ledger-assigned event identifier.
	ID int64 `json:"id"`
	// AlarmID is the alarm the trigger fired on.
	AlarmID string `json:"alarm_id"`
	// PointID optionally identifies the monitoring point.
	PointID string `json:"point_id,omitempty"`
	// PointName optionally names the monitoring point.
	PointName string `json:"point_name,omitempty"`
	// Kind is the trigger type, e.g. movement.
	Kind string `json:"kind"`
	// Details carries free-form operator context.
	Details string `json:"details,omitempty"`
	// SubjectID is the recording subject, empty for sensor-originated triggers.
	SubjectID string `json:"subject_id,omitempty"`
	// CreatedAt is when the trigger was recorded.
	CreatedAt time.Time `json:"created_at"`
	// Resolved reports whether the event has been resolved.
	Resolved bool `json:"resolved"`
	// ResolvedAt is set exactly when Resolved is true.
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// Clone returns a copy of the event to avoid leaking ledger internals.
func (e *TriggerEvent) Clone() *TriggerEvent {
	if e == nil {
		return nil
	}

	cloned := *e

	if e.ResolvedAt != nil {
		resolvedAt := *e.ResolvedAt
		cloned.ResolvedAt = &resolvedAt
	}

	return &cloned
}

// TriggerStats aggregates ledger counts for one alarm.
type TriggerStats struct {
	// AlarmID is the alarm the statistics cover.
	AlarmID string `json:"alarm_id"`
	// PeriodDays is the day window used for PeriodCount.
	PeriodDays int `json:"period_days"`
	// Total is the all-time number of recorded triggers.
	Total int `json:"total"`
	// PeriodCount is the number of triggers recorded within the period.
	PeriodCount int `json:"period_count"`
	// ResolvedCount is the number of resolved triggers.
	ResolvedCount int `json:"resolved_count"`
	// ActiveCount is the number of unresolved triggers.
	ActiveCount int `json:"active_count"`
	// ByKind counts triggers per kind.
	ByKind map[string]int `json:"by_kind"`
}
