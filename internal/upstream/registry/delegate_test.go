package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/alarm-orchestrator/internal/domain/alarm"
)

// fakeLookup is a scripted registry lookup for delegate tests.
type fakeLookup struct {
	// alarmErr is returned from GetAlarm.
	alarmErr error
	// permission is returned from GetPermission when permissionErr is nil.
	permission domain.Permission
	// permissionErr is returned from GetPermission.
	permissionErr error
	// subjects is returned from LinkedSubjects.
	subjects []domain.LinkedSubject
}

func (f *fakeLookup) GetAlarm(context.Context, string, string) error {
	return f.alarmErr
}

func (f *fakeLookup) GetPermission(context.Context, string, string, string) (domain.Permission, error) {
	return f.permission, f.permissionErr
}

func (f *fakeLookup) LinkedSubjects(context.Context, string, string) ([]domain.LinkedSubject, error) {
	return f.subjects, nil
}

// TestDelegate_Authorize walks the evaluation order of the delegate.
func TestDelegate_Authorize(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	// Linked member may arm.
	d := NewDelegate(&fakeLookup{permission: domain.Permission{Linked: true, Role: domain.RoleMember}})
	require.NoError(t, d.Authorize(ctx, "token", "7", "42", domain.OpArm))

	// Member may not link other subjects.
	err := d.Authorize(ctx, "token", "7", "42", domain.OpLinkSubject)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	// No link at all.
	d = NewDelegate(&fakeLookup{permission: domain.Permission{Linked: false}})
	err = d.Authorize(ctx, "token", "9", "42", domain.OpArm)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	// Missing alarm surfaces distinctly, not as an authorization failure.
	d = NewDelegate(&fakeLookup{alarmErr: domain.ErrAlarmNotFound})
	err = d.Authorize(ctx, "token", "7", "99", domain.OpArm)
	require.ErrorIs(t, err, domain.ErrAlarmNotFound)
	require.NotErrorIs(t, err, domain.ErrUnauthorized)
}

// TestDelegate_FailClosed asserts that registry faults never grant access.
func TestDelegate_FailClosed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	// Existence check unreachable.
	d := NewDelegate(&fakeLookup{alarmErr: domain.ErrUpstreamUnavailable})
	err := d.Authorize(ctx, "token", "7", "42", domain.OpArm)
	require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)

	// Permission lookup unreachable.
	d = NewDelegate(&fakeLookup{permissionErr: domain.ErrUpstreamUnavailable})
	err = d.Authorize(ctx, "token", "7", "42", domain.OpArm)
	require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}
