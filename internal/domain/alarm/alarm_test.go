package alarm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestRoleAtLeast verifies the role ordering used by the gating table.
func TestRoleAtLeast(t *testing.T) {
	t.Parallel()

	require.True(t, RoleAdmin.AtLeast(RoleMember))
	require.True(t, RoleAdmin.AtLeast(RoleManager))
	require.True(t, RoleManager.AtLeast(RoleMember))
	require.True(t, RoleMember.AtLeast(RoleMember))

	require.False(t, RoleMember.AtLeast(RoleManager))
	require.False(t, RoleMember.AtLeast(RoleAdmin))

	// Unknown roles never pass, even against themselves.
	require.False(t, Role("guest").AtLeast(Role("guest")))
	require.False(t, Role("").AtLeast(RoleMember))
}

// TestPermissionAllows verifies link + role gating per operation.
func TestPermissionAllows(t *testing.T) {
	t.Parallel()

	member := Permission{Linked: true, Role: RoleMember}
	require.True(t, member.Allows(OpArm))
	require.True(t, member.Allows(OpDisarm))
	require.True(t, member.Allows(OpQueryStatus))
	require.True(t, member.Allows(OpRecordTrigger))
	require.True(t, member.Allows(OpResolveTrigger))
	require.False(t, member.Allows(OpLinkSubject))

	manager := Permission{Linked: true, Role: RoleManager}
	require.True(t, manager.Allows(OpLinkSubject))

	admin := Permission{Linked: true, Role: RoleAdmin}
	require.True(t, admin.Allows(OpLinkSubject))

	// Role without a link grants nothing.
	unlinked := Permission{Linked: false, Role: RoleAdmin}
	require.False(t, unlinked.Allows(OpQueryStatus))
}

// TestTriggerEventClone verifies deep copy of the resolution timestamp.
func TestTriggerEventClone(t *testing.T) {
	t.Parallel()

	require.Nil(t, (*TriggerEvent)(nil).Clone())

	resolvedAt := time.Now().UTC()
	event := &TriggerEvent{
		ID:         7,
		AlarmID:    "42",
		PointName:  "Front Door",
		Kind:       DefaultTriggerKind,
		CreatedAt:  resolvedAt.Add(-time.Minute),
		Resolved:   true,
		ResolvedAt: &resolvedAt,
	}

	cloned := event.Clone()
	require.Equal(t, event, cloned)
	require.NotSame(t, event, cloned)
	require.NotSame(t, event.ResolvedAt, cloned.ResolvedAt)
}
