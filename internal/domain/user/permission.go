package user

type Permission string

const (
	// Time tracking
	PermissionTimeViewOwn        Permission = "time.view_own"
	PermissionTimeTrack          Permission = "time.track"
	PermissionTimeManualEntry    Permission = "time.manual_entry"
	PermissionTimeViewAll        Permission = "time.view_all"
	PermissionTimeApprove        Permission = "time.approve"
	PermissionTimeCorrectOthers  Permission = "time.correct_others"
	PermissionTimeTrackForOthers Permission = "time.track_for_others"

	// Audit
	PermissionAuditView Permission = "audit.view"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleOwner: {
		// Owner has all permissions
		PermissionTimeViewOwn,
		PermissionTimeTrack,
		PermissionTimeManualEntry,
		PermissionTimeViewAll,
		PermissionTimeApprove,
		PermissionTimeCorrectOthers,
		PermissionTimeTrackForOthers,
		PermissionAuditView,
	},
	RoleManager: {
		// Manager can approve and view team data
		PermissionTimeViewOwn,
		PermissionTimeTrack,
		PermissionTimeManualEntry,
		PermissionTimeViewAll,
		PermissionTimeApprove,
		PermissionTimeCorrectOthers,
		PermissionTimeTrackForOthers,
	},
	RoleEmployee: {
		// Employee has basic access
		PermissionTimeViewOwn,
		PermissionTimeTrack,
		PermissionTimeManualEntry,
	},
	RolePending: {
		// Pending role has no permissions
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}

type Relationship string

const (
	RelationshipSelf    Relationship = "self"
	RelationshipManager Relationship = "manager"
	RelationshipOther   Relationship = "other"
)

type Access string

const (
	AccessNone  Access = "none"
	AccessRead  Access = "read"
	AccessWrite Access = "write"
)

// Time entry fields subject to visibility rules.
const (
	FieldClockInTime   = "clock_in_time"
	FieldClockOutTime  = "clock_out_time"
	FieldLocation      = "location"
	FieldHours         = "hours"
	FieldStatus        = "status"
	FieldReason        = "reason"
	FieldApproval      = "approval"
	FieldPendingChange = "pending_change"
)

// TimeEntryFieldAccess decides per field what a caller with role may do with
// a time entry owned by an employee it has relationship with.
func TimeEntryFieldAccess(role Role, relationship Relationship) map[string]Access {
	access := map[string]Access{
		FieldClockInTime:   AccessNone,
		FieldClockOutTime:  AccessNone,
		FieldLocation:      AccessNone,
		FieldHours:         AccessNone,
		FieldStatus:        AccessNone,
		FieldReason:        AccessNone,
		FieldApproval:      AccessNone,
		FieldPendingChange: AccessNone,
	}

	switch relationship {
	case RelationshipSelf:
		if !HasPermission(role, PermissionTimeViewOwn) {
			return access
		}
		for field := range access {
			access[field] = AccessRead
		}
		if HasPermission(role, PermissionTimeManualEntry) {
			access[FieldClockInTime] = AccessWrite
			access[FieldClockOutTime] = AccessWrite
			access[FieldLocation] = AccessWrite
		}
	case RelationshipManager, RelationshipOther:
		if !HasPermission(role, PermissionTimeViewAll) {
			return access
		}
		for field := range access {
			access[field] = AccessRead
		}
		// Coordinates are personal data; only owners see them for others.
		if role != RoleOwner {
			access[FieldLocation] = AccessNone
		}
		if HasPermission(role, PermissionTimeCorrectOthers) {
			access[FieldClockInTime] = AccessWrite
			access[FieldClockOutTime] = AccessWrite
		}
	}

	return access
}

// CanRead reports whether access allows reading.
func (a Access) CanRead() bool {
	return a == AccessRead || a == AccessWrite
}

// CanWrite reports whether access allows writing.
func (a Access) CanWrite() bool {
	return a == AccessWrite
}
