package fanout

import (
	"context"
	"sync"

	domain "github.com/oshokin/alarm-orchestrator/internal/domain/alarm"
	"github.com/oshokin/alarm-orchestrator/internal/logger"
	"github.com/oshokin/alarm-orchestrator/internal/upstream/sink"
)

// Sink delivers one payload to an external sink.
type Sink interface {
	Put(ctx context.Context, payload any) error
}

// SubjectLister fetches the subjects currently linked to an alarm.
type SubjectLister interface {
	LinkedSubjects(ctx context.Context, token, alarmID string) ([]domain.LinkedSubject, error)
}

// Dispatcher performs the advisory side effects of a state transition:
// an audit-log write, then zero or more user notifications.
//
// Every attempt is isolated: a failed delivery is logged locally and never
// surfaced to the caller, so the primary state transition it follows is
// unaffected. Nothing is ever retried.
type Dispatcher struct {
	// logSink receives audit-log writes; nil disables them.
	logSink Sink
	// notifySink receives user notifications; nil disables them.
	notifySink Sink
	// subjects resolves an alarm's current links for trigger notifications.
	subjects SubjectLister
}

// NewDispatcher wires the sinks and subject lister into a dispatcher.
func NewDispatcher(logSink, notifySink Sink, subjects SubjectLister) *Dispatcher {
	return &Dispatcher{
		logSink:    logSink,
		notifySink: notifySink,
		subjects:   subjects,
	}
}

// Transition dispatches the side effects of an arm or disarm: the audit
// write, and a notification to the target subject when one is given.
func (d *Dispatcher) Transition(ctx context.Context, alarmID, subjectID string, kind domain.EventKind, message string) {
	d.writeLog(ctx, sink.LogEntry{
		AlarmID:   alarmID,
		SubjectID: subjectID,
		Kind:      kind,
		Details:   message,
	})

	if subjectID == "" {
		return
	}

	d.notify(ctx, sink.Notification{
		AlarmID:   alarmID,
		SubjectID: subjectID,
		Kind:      kind,
		Message:   message,
	})
}

// Trigger dispatches the side effects of a recorded trigger: the audit write
// first, then one notification per subject currently linked to the alarm,
// fetched fresh from the registry. Notifications to different subjects are
// sent concurrently; there is no ordering requirement between them.
func (d *Dispatcher) Trigger(ctx context.Context, token, alarmID, subjectID, message string) {
	d.writeLog(ctx, sink.LogEntry{
		AlarmID:   alarmID,
		SubjectID: subjectID,
		Kind:      domain.EventTriggered,
		Details:   message,
	})

	linked, err := d.subjects.LinkedSubjects(ctx, token, alarmID)
	if err != nil {
		logger.WarnKV(ctx, "Linked subjects lookup failed, trigger notifications skipped",
			"alarm_id", alarmID,
			"error", err)

		return
	}

	var wg sync.WaitGroup

	for _, subject := range linked {
		wg.Add(1)

		go func() {
			defer wg.Done()

			d.notify(ctx, sink.Notification{
				AlarmID:   alarmID,
				SubjectID: subject.SubjectID,
				Kind:      domain.EventTriggered,
				Message:   message,
			})
		}()
	}

	wg.Wait()
}

// Resolution dispatches the audit write for the first resolution of an event.
func (d *Dispatcher) Resolution(ctx context.Context, alarmID, subjectID, message string) {
	d.writeLog(ctx, sink.LogEntry{
		AlarmID:   alarmID,
		SubjectID: subjectID,
		Kind:      domain.EventResolved,
		Details:   message,
	})
}

// writeLog attempts one audit-log delivery, swallowing failure.
func (d *Dispatcher) writeLog(ctx context.Context, entry sink.LogEntry) {
	if d.logSink == nil {
		return
	}

	if err := d.logSink.Put(ctx, entry); err != nil {
		logger.WarnKV(ctx, "Audit log write failed",
			"alarm_id", entry.AlarmID,
			"kind", entry.Kind,
			"error", err)
	}
}

// notify attempts one notification delivery, swallowing failure.
func (d *Dispatcher) notify(ctx context.Context, notification sink.Notification) {
	if d.notifySink == nil {
		return
	}

	if err := d.notifySink.Put(ctx, notification); err != nil {
		logger.WarnKV(ctx, "Notification delivery failed",
			"alarm_id", notification.AlarmID,
			"subject_id", notification.SubjectID,
			"kind", notification.Kind,
			"error", err)
	}
}
