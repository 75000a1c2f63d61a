package alarm

import "time"

// Status represents the arming state of an alarm.
type Status string

const (
	// StatusArmed means the alarm accepts sensor triggers.
	StatusArmed Status = "armed"
	// StatusDisarmed means sensor triggers are rejected.
	// It is the implicit state of an alarm that was never armed.
	StatusDisarmed Status = "disarmed"
)

// Role is the permission level a subject holds on an alarm via its link.
type Role string

const (
	// RoleAdmin may perform every operation, including linking other subjects.
	RoleAdmin Role = "admin"
	// RoleManager may manage links in addition to member operations.
	RoleManager Role = "manager"
	// RoleMember may query, arm, disarm, record and resolve.
	RoleMember Role = "member"
)

// rank orders roles for minimum-role comparisons. Unknown roles rank lowest.
func (r Role) rank() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleManager:
		return 2
	case RoleMember:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether the role grants at least the given minimum role.
func (r Role) AtLeast(minimum Role) bool {
	return r.rank() >= minimum.rank() && r.rank() > 0
}

// Operation identifies a gated action for the authorization gating table.
type Operation string

const (
	// OpQueryStatus is a per-alarm status or trigger lookup.
	OpQueryStatus Operation = "query_status"
	// OpArm transitions an alarm to armed.
	OpArm Operation = "arm"
	// OpDisarm transitions an alarm to disarmed.
	OpDisarm Operation = "disarm"
	// OpRecordTrigger records a sensor trigger on behalf of a subject.
	OpRecordTrigger Operation = "record_trigger"
	// OpResolveTrigger resolves a recorded trigger event.
	OpResolveTrigger Operation = "resolve_trigger"
	// OpLinkSubject links another subject to the alarm.
	OpLinkSubject Operation = "link_subject"
)

// MinimumRole returns the weakest role allowed to perform the operation.
func (o Operation) MinimumRole() Role {
	if o == OpLinkSubject {
		return RoleManager
	}

	return RoleMember
}

// State is the arming status of a single alarm at a point in time.
type State struct {
	// AlarmID identifies the alarm in the external registry.
	AlarmID string
	// Status is the current arming status.
	Status Status
	// Timestamp is when the status last changed.
	Timestamp time.Time
}

// LinkedSubject is a subject associated with an alarm, as reported by the registry.
type LinkedSubject struct {
	// SubjectID identifies the linked subject.
	SubjectID string
	// Role is the permission level the link carries.
	Role Role
}

// Permission is the registry's answer for a (subject, alarm) pair.
type Permission struct {
	// Linked reports whether the subject has a link to the alarm.
	Linked bool
	// Role is the link's permission level; empty when not linked.
	Role Role
}

// Allows reports whether the permission satisfies the operation's gating rule.
func (p Permission) Allows(op Operation) bool {
	return p.Linked && p.Role.AtLeast(op.MinimumRole())
}
