package fanout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/alarm-orchestrator/internal/domain/alarm"
	"github.com/oshokin/alarm-orchestrator/internal/upstream/sink"
)

var errSinkDown = errors.New("sink down")

// recordingSink captures delivered payloads and optionally fails.
type recordingSink struct {
	// payloads collects everything passed to Put.
	payloads []any
	// err is returned from every Put when set.
	err error
	// mu protects payloads under concurrent notification sends.
	mu sync.Mutex
}

func (s *recordingSink) Put(_ context.Context, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.payloads = append(s.payloads, payload)

	return s.err
}

// staticSubjects returns a fixed link list.
type staticSubjects struct {
	// subjects is returned from every lookup when err is nil.
	subjects []domain.LinkedSubject
	// err simulates a registry fault.
	err error
}

func (s *staticSubjects) LinkedSubjects(context.Context, string, string) ([]domain.LinkedSubject, error) {
	return s.subjects, s.err
}

// TestDispatcher_Transition verifies the audit write and optional target notification.
func TestDispatcher_Transition(t *testing.T) {
	t.Parallel()

	logSink := new(recordingSink)
	notifySink := new(recordingSink)
	d := NewDispatcher(logSink, notifySink, &staticSubjects{})

	// With a target subject: one log entry, one notification.
	d.Transition(context.Background(), "42", "7", domain.EventArmed, "alarm armed")

	require.Len(t, logSink.payloads, 1)
	require.Equal(t, sink.LogEntry{
		AlarmID:   "42",
		SubjectID: "7",
		Kind:      domain.EventArmed,
		Details:   "alarm armed",
	}, logSink.payloads[0])
	require.Len(t, notifySink.payloads, 1)

	// Without a subject: log only.
	d.Transition(context.Background(), "42", "", domain.EventDisarmed, "alarm disarmed")

	require.Len(t, logSink.payloads, 2)
	require.Len(t, notifySink.payloads, 1)
}

// TestDispatcher_Trigger verifies exactly one log write and one notification
// per linked subject, even when deliveries fail.
func TestDispatcher_Trigger(t *testing.T) {
	t.Parallel()

	logSink := &recordingSink{err: errSinkDown}
	notifySink := &recordingSink{err: errSinkDown}
	subjects := &staticSubjects{subjects: []domain.LinkedSubject{
		{SubjectID: "7", Role: domain.RoleMember},
		{SubjectID: "8", Role: domain.RoleAdmin},
		{SubjectID: "9", Role: domain.RoleManager},
	}}

	d := NewDispatcher(logSink, notifySink, subjects)

	// Must not panic or propagate sink failures.
	d.Trigger(context.Background(), "token", "42", "", "ALERT: trigger on alarm 42")

	require.Len(t, logSink.payloads, 1)
	require.Len(t, notifySink.payloads, 3)

	notified := make(map[string]bool)

	for _, payload := range notifySink.payloads {
		notification, ok := payload.(sink.Notification)
		require.True(t, ok)
		require.Equal(t, domain.EventTriggered, notification.Kind)

		notified[notification.SubjectID] = true
	}

	require.Equal(t, map[string]bool{"7": true, "8": true, "9": true}, notified)
}

// TestDispatcher_TriggerSubjectLookupFails verifies the log write still
// happens when the registry cannot list subjects.
func TestDispatcher_TriggerSubjectLookupFails(t *testing.T) {
	t.Parallel()

	logSink := new(recordingSink)
	notifySink := new(recordingSink)
	d := NewDispatcher(logSink, notifySink, &staticSubjects{err: domain.ErrUpstreamUnavailable})

	d.Trigger(context.Background(), "token", "42", "7", "ALERT")

	require.Len(t, logSink.payloads, 1)
	require.Empty(t, notifySink.payloads)
}

// TestDispatcher_NilSinks verifies disabled sinks are skipped silently.
func TestDispatcher_NilSinks(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(nil, nil, &staticSubjects{subjects: []domain.LinkedSubject{{SubjectID: "7"}}})

	d.Transition(context.Background(), "42", "7", domain.EventArmed, "alarm armed")
	d.Trigger(context.Background(), "token", "42", "", "ALERT")
	d.Resolution(context.Background(), "42", "7", "resolved")
}
