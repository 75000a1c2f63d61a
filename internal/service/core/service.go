package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/alarm-orchestrator/internal/auth"
	domain "github.com/oshokin/alarm-orchestrator/internal/domain/alarm"
	"github.com/oshokin/alarm-orchestrator/internal/logger"
	"github.com/oshokin/alarm-orchestrator/internal/repository/trigger"
	"github.com/oshokin/alarm-orchestrator/internal/service/arming"
)

const (
	// DefaultListLimit bounds trigger listings when the caller gives none.
	DefaultListLimit = 50
	// DefaultGlobalListLimit bounds the cross-alarm listing by default.
	DefaultGlobalListLimit = 100
	// MaxListLimit is the server-enforced ceiling on any listing.
	MaxListLimit = 200
	// DefaultStatsPeriodDays is the day window for period statistics.
	DefaultStatsPeriodDays = 30
)

// unidentifiedPoint stands in for a missing point name in alert messages.
const unidentifiedPoint = "unidentified point"

// Authorizer gates operations against the external registry.
type Authorizer interface {
	Authorize(ctx context.Context, token, subjectID, alarmID string, op domain.Operation) error
	CheckExists(ctx context.Context, token, alarmID string) error
}

// Effects dispatches advisory side effects after a committed transition.
type Effects interface {
	Transition(ctx context.Context, alarmID, subjectID string, kind domain.EventKind, message string)
	Trigger(ctx context.Context, token, alarmID, subjectID, message string)
	Resolution(ctx context.Context, alarmID, subjectID, message string)
}

// Service orchestrates the alarm lifecycle: every operation runs the same
// linear pipeline of authorize, check existence, check armed state, mutate,
// fan out, with early return on the first failing step. Status only changes
// after authorization has been affirmatively confirmed.
type Service struct {
	// authorizer is the fail-closed authorization delegate.
	authorizer Authorizer
	// statuses is the authoritative arming status table.
	statuses *arming.Table
	// ledger stores recorded trigger events.
	ledger trigger.Repository
	// effects dispatches audit-log writes and notifications.
	effects Effects
	// locks serializes arm/disarm/record per alarm id.
	locks stripedLocks
}

// NewService wires the orchestrator's dependencies.
func NewService(authorizer Authorizer, ledger trigger.Repository, effects Effects) *Service {
	return &Service{
		authorizer: authorizer,
		statuses:   arming.NewTable(),
		ledger:     ledger,
		effects:    effects,
	}
}

// RecordTriggerInput carries the fields of a trigger recording request.
type RecordTriggerInput struct {
	// AlarmID is required.
	AlarmID string
	// PointID optionally identifies the monitoring point.
	PointID string
	// PointName optionally names the monitoring point.
	PointName string
	// Kind defaults to the movement kind when empty.
	Kind string
	// Details carries free-form context.
	Details string
}

// Arm transitions the alarm to armed. Arming an already armed alarm succeeds
// and re-emits side effects.
func (s *Service) Arm(ctx context.Context, identity *auth.Identity, alarmID string) (domain.State, error) {
	return s.transition(ctx, identity, alarmID, domain.StatusArmed)
}

// Disarm transitions the alarm to disarmed, symmetric to Arm.
func (s *Service) Disarm(ctx context.Context, identity *auth.Identity, alarmID string) (domain.State, error) {
	return s.transition(ctx, identity, alarmID, domain.StatusDisarmed)
}

// transition is the shared arm/disarm pipeline.
func (s *Service) transition(
	ctx context.Context,
	identity *auth.Identity,
	alarmID string,
	status domain.Status,
) (domain.State, error) {
	if alarmID == "" {
		return domain.State{}, fmt.Errorf("%w: alarm id is required", domain.ErrValidation)
	}

	if identity == nil {
		return domain.State{}, fmt.Errorf("%w: missing credential", domain.ErrUnauthenticated)
	}

	op := domain.OpArm
	kind := domain.EventArmed
	message := "Alarm armed"

	if status == domain.StatusDisarmed {
		op = domain.OpDisarm
		kind = domain.EventDisarmed
		message = "Alarm disarmed"
	}

	// Authorization and existence are confirmed before any mutation;
	// a registry fault aborts the transition here.
	if err := s.authorizer.Authorize(ctx, identity.Token, identity.SubjectID, alarmID, op); err != nil {
		return domain.State{}, err
	}

	unlock := s.locks.lock(alarmID)
	state := s.statuses.Set(alarmID, status, time.Now().UTC())
	unlock()

	logger.InfoKV(ctx, "Arming status updated",
		"alarm_id", alarmID,
		"status", state.Status,
		"subject_id", identity.SubjectID)

	s.effects.Transition(ctx, alarmID, identity.SubjectID, kind, message)

	return state, nil
}

// Status returns the alarm's arming state. Gated per alarm to prevent
// status-probing of alarms the caller has no relation to.
func (s *Service) Status(ctx context.Context, identity *auth.Identity, alarmID string) (domain.State, error) {
	if alarmID == "" {
		return domain.State{}, fmt.Errorf("%w: alarm id is required", domain.ErrValidation)
	}

	if identity == nil {
		return domain.State{}, fmt.Errorf("%w: missing credential", domain.ErrUnauthenticated)
	}

	if err := s.authorizer.Authorize(ctx, identity.Token, identity.SubjectID, alarmID, domain.OpQueryStatus); err != nil {
		return domain.State{}, err
	}

	return s.statuses.Get(alarmID), nil
}

// AllStatuses returns the arming status of every alarm observed so far.
func (s *Service) AllStatuses(context.Context) map[string]domain.Status {
	return s.statuses.Snapshot()
}

// RecordTrigger records a sensor trigger. A nil identity marks the call as
// sensor-originated: it skips authorization and is trusted at the network
// boundary, but alarm existence is still confirmed.
func (s *Service) RecordTrigger(
	ctx context.Context,
	identity *auth.Identity,
	input RecordTriggerInput,
) (*domain.TriggerEvent, error) {
	if input.AlarmID == "" {
		return nil, fmt.Errorf("%w: alarm id is required", domain.ErrValidation)
	}

	kind := input.Kind
	if kind == "" {
		kind = domain.DefaultTriggerKind
	}

	var token, subjectID string

	if identity != nil {
		token = identity.Token
		subjectID = identity.SubjectID

		if err := s.authorizer.Authorize(ctx, token, subjectID, input.AlarmID, domain.OpRecordTrigger); err != nil {
			return nil, err
		}
	} else if err := s.authorizer.CheckExists(ctx, token, input.AlarmID); err != nil {
		return nil, err
	}

	// The armed check and the insert must not interleave with a disarm for
	// the same alarm, so both happen under the alarm's lock stripe.
	unlock := s.locks.lock(input.AlarmID)

	event, err := func() (*domain.TriggerEvent, error) {
		defer unlock()

		state := s.statuses.Get(input.AlarmID)
		if state.Status != domain.StatusArmed {
			return nil, fmt.Errorf("%w: current status is %s", domain.ErrAlarmNotArmed, state.Status)
		}

		return s.ledger.Insert(ctx, &domain.TriggerEvent{
			AlarmID:   input.AlarmID,
			PointID:   input.PointID,
			PointName: input.PointName,
			Kind:      kind,
			Details:   input.Details,
			SubjectID: subjectID,
			CreatedAt: time.Now().UTC(),
		})
	}()
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Trigger recorded",
		"alarm_id", event.AlarmID,
		"event_id", event.ID,
		"kind", event.Kind,
		"point_name", event.PointName)

	s.effects.Trigger(ctx, token, event.AlarmID, subjectID, alertMessage(event))

	return event, nil
}

// ResolveTrigger marks an event resolved. Resolution is one-way and
// idempotent: re-resolving returns the stored event unchanged and emits no
// second audit entry.
func (s *Service) ResolveTrigger(
	ctx context.Context,
	identity *auth.Identity,
	eventID int64,
) (*domain.TriggerEvent, error) {
	if identity == nil {
		return nil, fmt.Errorf("%w: missing credential", domain.ErrUnauthenticated)
	}

	event, err := s.ledger.Get(ctx, eventID)
	if err != nil {
		return nil, mapLedgerError(err)
	}

	if err := s.authorizer.Authorize(
		ctx,
		identity.Token,
		identity.SubjectID,
		event.AlarmID,
		domain.OpResolveTrigger,
	); err != nil {
		return nil, err
	}

	resolved, alreadyResolved, err := s.ledger.Resolve(ctx, eventID, time.Now().UTC())
	if err != nil {
		return nil, mapLedgerError(err)
	}

	if alreadyResolved {
		return resolved, nil
	}

	logger.InfoKV(ctx, "Trigger resolved",
		"alarm_id", resolved.AlarmID,
		"event_id", resolved.ID,
		"subject_id", identity.SubjectID)

	s.effects.Resolution(
		ctx,
		resolved.AlarmID,
		identity.SubjectID,
		fmt.Sprintf("Trigger event %d marked as resolved", resolved.ID),
	)

	return resolved, nil
}

// ListTriggers lists an alarm's events newest first, optionally filtered by
// resolution state, bounded by the server-enforced limit ceiling.
func (s *Service) ListTriggers(
	ctx context.Context,
	identity *auth.Identity,
	alarmID string,
	resolved *bool,
	limit int,
) ([]*domain.TriggerEvent, error) {
	if alarmID == "" {
		return nil, fmt.Errorf("%w: alarm id is required", domain.ErrValidation)
	}

	if identity == nil {
		return nil, fmt.Errorf("%w: missing credential", domain.ErrUnauthenticated)
	}

	if err := s.authorizer.Authorize(ctx, identity.Token, identity.SubjectID, alarmID, domain.OpQueryStatus); err != nil {
		return nil, err
	}

	return s.ledger.ListByAlarm(ctx, alarmID, trigger.ListFilter{
		Resolved: resolved,
		Limit:    clampLimit(limit, DefaultListLimit),
	})
}

// ListActiveTriggers lists the alarm's unresolved events newest first.
func (s *Service) ListActiveTriggers(
	ctx context.Context,
	identity *auth.Identity,
	alarmID string,
) ([]*domain.TriggerEvent, error) {
	active := false

	return s.ListTriggers(ctx, identity, alarmID, &active, MaxListLimit)
}

// ListAllTriggers pages through events across every alarm, newest first,
// and reports the total count. Requires authentication only.
func (s *Service) ListAllTriggers(
	ctx context.Context,
	identity *auth.Identity,
	limit, offset int,
) ([]*domain.TriggerEvent, int, error) {
	if identity == nil {
		return nil, 0, fmt.Errorf("%w: missing credential", domain.ErrUnauthenticated)
	}

	if offset < 0 {
		offset = 0
	}

	return s.ledger.ListAll(ctx, clampLimit(limit, DefaultGlobalListLimit), offset)
}

// TriggerStats aggregates ledger counts for the alarm over a day window.
func (s *Service) TriggerStats(
	ctx context.Context,
	identity *auth.Identity,
	alarmID string,
	periodDays int,
) (*domain.TriggerStats, error) {
	if alarmID == "" {
		return nil, fmt.Errorf("%w: alarm id is required", domain.ErrValidation)
	}

	if identity == nil {
		return nil, fmt.Errorf("%w: missing credential", domain.ErrUnauthenticated)
	}

	if err := s.authorizer.Authorize(ctx, identity.Token, identity.SubjectID, alarmID, domain.OpQueryStatus); err != nil {
		return nil, err
	}

	if periodDays <= 0 {
		periodDays = DefaultStatsPeriodDays
	}

	since := time.Now().UTC().AddDate(0, 0, -periodDays)

	stats, err := s.ledger.Stats(ctx, alarmID, since)
	if err != nil {
		return nil, err
	}

	stats.PeriodDays = periodDays

	return stats, nil
}

// alertMessage renders the trigger notification text.
func alertMessage(event *domain.TriggerEvent) string {
	pointName := event.PointName
	if pointName == "" {
		pointName = unidentifiedPoint
	}

	return fmt.Sprintf("ALERT: trigger on alarm %s - %s - kind %s", event.AlarmID, pointName, event.Kind)
}

// clampLimit applies the default and the server-enforced ceiling.
func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}

	if limit > MaxListLimit {
		return MaxListLimit
	}

	return limit
}

// mapLedgerError translates repository sentinels into the domain taxonomy.
func mapLedgerError(err error) error {
	if errors.Is(err, trigger.ErrNotFound) {
		return domain.ErrEventNotFound
	}

	return err
}
