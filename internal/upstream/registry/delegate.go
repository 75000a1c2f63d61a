package registry

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/oshokin/alarm-orchestrator/internal/domain/alarm"
	"github.com/oshokin/alarm-orchestrator/internal/logger"
)

// Lookup abstracts the registry calls the delegate depends on.
type Lookup interface {
	GetAlarm(ctx context.Context, token, alarmID string) error
	GetPermission(ctx context.Context, token, alarmID, subjectID string) (domain.Permission, error)
	LinkedSubjects(ctx context.Context, token, alarmID string) ([]domain.LinkedSubject, error)
}

// Delegate answers "may this subject perform this operation on this alarm"
// by querying the registry on demand. Results are never cached across
// requests: a link's role can change between requests and a stale cache
// would create a privilege-escalation window.
//
// The delegate is fail-closed: an unreachable registry aborts the operation
// with ErrUpstreamUnavailable and never grants access.
type Delegate struct {
	// lookup performs the registry queries.
	lookup Lookup
}

// NewDelegate creates a delegate over the provided registry lookup.
func NewDelegate(lookup Lookup) *Delegate {
	return &Delegate{lookup: lookup}
}

// Authorize checks alarm existence and the subject's link against the
// operation's minimum role. Error taxonomy, in evaluation order:
// ErrAlarmNotFound, ErrUpstreamUnavailable, ErrUnauthorized, then nil.
func (d *Delegate) Authorize(ctx context.Context, token, subjectID, alarmID string, op domain.Operation) error {
	if err := d.lookup.GetAlarm(ctx, token, alarmID); err != nil {
		if errors.Is(err, domain.ErrAlarmNotFound) {
			return err
		}

		return fmt.Errorf("check alarm existence: %w", err)
	}

	permission, err := d.lookup.GetPermission(ctx, token, alarmID, subjectID)
	if err != nil {
		// Fail closed: a network fault must never grant access.
		return fmt.Errorf("permission lookup: %w", err)
	}

	if !permission.Allows(op) {
		logger.WarnKV(ctx, "Operation denied",
			"subject_id", subjectID,
			"alarm_id", alarmID,
			"operation", op,
			"linked", permission.Linked,
			"role", permission.Role)

		return domain.ErrUnauthorized
	}

	return nil
}

// CheckExists verifies the alarm exists without consulting any link.
// Used for sensor-originated operations that carry no subject.
func (d *Delegate) CheckExists(ctx context.Context, token, alarmID string) error {
	return d.lookup.GetAlarm(ctx, token, alarmID)
}

// LinkedSubjects returns the alarm's current links, fetched fresh from the
// registry at call time.
func (d *Delegate) LinkedSubjects(ctx context.Context, token, alarmID string) ([]domain.LinkedSubject, error) {
	return d.lookup.LinkedSubjects(ctx, token, alarmID)
}
