package arming

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/alarm-orchestrator/internal/domain/alarm"
)

// TestTable_DefaultsToDisarmed verifies the implicit initial state.
func TestTable_DefaultsToDisarmed(t *testing.T) {
	t.Parallel()

	table := NewTable()

	state := table.Get("42")
	require.Equal(t, "42", state.AlarmID)
	require.Equal(t, domain.StatusDisarmed, state.Status)
	require.True(t, state.Timestamp.IsZero())
}

// TestTable_SetAndGet verifies transitions and idempotent re-arming.
func TestTable_SetAndGet(t *testing.T) {
	t.Parallel()

	table := NewTable()
	now := time.Now().UTC()

	state := table.Set("42", domain.StatusArmed, now)
	require.Equal(t, domain.StatusArmed, state.Status)
	require.Equal(t, now, state.Timestamp)
	require.Equal(t, state, table.Get("42"))

	// Re-arming succeeds and refreshes the timestamp.
	later := now.Add(time.Minute)
	state = table.Set("42", domain.StatusArmed, later)
	require.Equal(t, domain.StatusArmed, state.Status)
	require.Equal(t, later, state.Timestamp)

	state = table.Set("42", domain.StatusDisarmed, later.Add(time.Minute))
	require.Equal(t, domain.StatusDisarmed, state.Status)
}

// TestTable_Snapshot verifies the all-alarms summary view.
func TestTable_Snapshot(t *testing.T) {
	t.Parallel()

	table := NewTable()
	now := time.Now().UTC()

	table.Set("42", domain.StatusArmed, now)
	table.Set("7", domain.StatusDisarmed, now)

	require.Equal(t, map[string]domain.Status{
		"42": domain.StatusArmed,
		"7":  domain.StatusDisarmed,
	}, table.Snapshot())
}

// TestTable_ConcurrentWrites exercises shard locking under the race detector.
func TestTable_ConcurrentWrites(t *testing.T) {
	t.Parallel()

	table := NewTable()
	now := time.Now().UTC()

	var wg sync.WaitGroup

	for i := range 64 {
		alarmID := fmt.Sprintf("alarm-%d", i%8)

		wg.Add(1)

		go func() {
			defer wg.Done()

			table.Set(alarmID, domain.StatusArmed, now)
			_ = table.Get(alarmID)
			_ = table.Snapshot()
		}()
	}

	wg.Wait()
	require.Len(t, table.Snapshot(), 8)
}
