package arming

import (
	"hash/fnv"
	"sync"
	"time"

	domain "github.com/oshokin/alarm-orchestrator/internal/domain/alarm"
)

// shardCount is the number of independently locked shards.
// Operations on different alarm ids proceed fully in parallel.
const shardCount = 32

// entry is the stored status of one alarm.
type entry struct {
	// status is the current arming status.
	status domain.Status
	// timestamp is when the status last changed.
	timestamp time.Time
}

// shard is one lock domain of the table.
type shard struct {
	// entries maps alarm id to its stored status.
	entries map[string]entry
	// mu protects entries.
	mu sync.RWMutex
}

// Table is the authoritative armed/disarmed status per alarm id.
//
// Entries are created implicitly on first write and never deleted; a missing
// entry reads as disarmed. The table itself only stores status; transition
// gating (authorization, existence) is the orchestrator's concern.
type Table struct {
	shards [shardCount]*shard
}

// NewTable creates an empty status table.
func NewTable() *Table {
	table := new(Table)
	for i := range table.shards {
		table.shards[i] = &shard{
			entries: make(map[string]entry),
		}
	}

	return table
}

// shardFor picks the shard owning an alarm id.
func (t *Table) shardFor(alarmID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(alarmID))

	return t.shards[h.Sum32()%shardCount]
}

// Get returns the alarm's current state. Unknown alarms read as disarmed.
func (t *Table) Get(alarmID string) domain.State {
	s := t.shardFor(alarmID)

	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.entries[alarmID]
	if !ok {
		return domain.State{
			AlarmID: alarmID,
			Status:  domain.StatusDisarmed,
		}
	}

	return domain.State{
		AlarmID:   alarmID,
		Status:    stored.status,
		Timestamp: stored.timestamp,
	}
}

// Set stores the alarm's status and returns the new state.
// Setting the current status again succeeds and refreshes the timestamp.
func (t *Table) Set(alarmID string, status domain.Status, at time.Time) domain.State {
	s := t.shardFor(alarmID)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[alarmID] = entry{
		status:    status,
		timestamp: at,
	}

	return domain.State{
		AlarmID:   alarmID,
		Status:    status,
		Timestamp: at,
	}
}

// Snapshot returns the status of every alarm the table has observed.
func (t *Table) Snapshot() map[string]domain.Status {
	statuses := make(map[string]domain.Status)

	for _, s := range t.shards {
		s.mu.RLock()

		for alarmID, stored := range s.entries {
			statuses[alarmID] = stored.status
		}

		s.mu.RUnlock()
	}

	return statuses
}
