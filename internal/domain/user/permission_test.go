package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasPermission(t *testing.T) {
	assert.True(t, HasPermission(RoleOwner, PermissionAuditView))
	assert.True(t, HasPermission(RoleManager, PermissionTimeApprove))
	assert.False(t, HasPermission(RoleManager, PermissionAuditView))
	assert.True(t, HasPermission(RoleEmployee, PermissionTimeTrack))
	assert.False(t, HasPermission(RoleEmployee, PermissionTimeViewAll))
	assert.False(t, HasPermission(RolePending, PermissionTimeViewOwn))
	assert.False(t, HasPermission(Role("intern"), PermissionTimeViewOwn))
}

func TestTimeEntryFieldAccess(t *testing.T) {
	tests := []struct {
		name         string
		role         Role
		relationship Relationship
		want         map[string]Access
	}{
		{
			name:         "employee on own entry",
			role:         RoleEmployee,
			relationship: RelationshipSelf,
			want: map[string]Access{
				FieldClockInTime:   AccessWrite,
				FieldClockOutTime:  AccessWrite,
				FieldLocation:      AccessWrite,
				FieldHours:         AccessRead,
				FieldStatus:        AccessRead,
				FieldReason:        AccessRead,
				FieldApproval:      AccessRead,
				FieldPendingChange: AccessRead,
			},
		},
		{
			name:         "employee on someone else's entry",
			role:         RoleEmployee,
			relationship: RelationshipOther,
			want: map[string]Access{
				FieldClockInTime:   AccessNone,
				FieldClockOutTime:  AccessNone,
				FieldLocation:      AccessNone,
				FieldHours:         AccessNone,
				FieldStatus:        AccessNone,
				FieldReason:        AccessNone,
				FieldApproval:      AccessNone,
				FieldPendingChange: AccessNone,
			},
		},
		{
			name:         "manager on a report's entry",
			role:         RoleManager,
			relationship: RelationshipManager,
			want: map[string]Access{
				FieldClockInTime:   AccessWrite,
				FieldClockOutTime:  AccessWrite,
				FieldLocation:      AccessNone,
				FieldHours:         AccessRead,
				FieldStatus:        AccessRead,
				FieldReason:        AccessRead,
				FieldApproval:      AccessRead,
				FieldPendingChange: AccessRead,
			},
		},
		{
			name:         "owner sees coordinates",
			role:         RoleOwner,
			relationship: RelationshipManager,
			want: map[string]Access{
				FieldClockInTime:   AccessWrite,
				FieldClockOutTime:  AccessWrite,
				FieldLocation:      AccessRead,
				FieldHours:         AccessRead,
				FieldStatus:        AccessRead,
				FieldReason:        AccessRead,
				FieldApproval:      AccessRead,
				FieldPendingChange: AccessRead,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TimeEntryFieldAccess(tt.role, tt.relationship))
		})
	}
}

func TestPermissionContext_Relationship(t *testing.T) {
	emp := "emp-1"

	employee := PermissionContext{UserID: "u1", EmployeeID: &emp, Role: RoleEmployee}
	assert.Equal(t, RelationshipSelf, employee.Relationship("emp-1"))
	assert.Equal(t, RelationshipOther, employee.Relationship("emp-2"))

	manager := PermissionContext{UserID: "u2", EmployeeID: &emp, Role: RoleManager}
	assert.Equal(t, RelationshipManager, manager.Relationship("emp-2"))

	noProfile := PermissionContext{UserID: "u3", Role: RoleOwner}
	assert.Equal(t, RelationshipManager, noProfile.Relationship("emp-1"))
}

func TestPermissionContextRoundTrip(t *testing.T) {
	_, err := FromContext(context.Background())
	assert.ErrorIs(t, err, ErrPermissionContextAbsent)

	pc := PermissionContext{UserID: "u1", Role: RoleManager}
	got, err := FromContext(WithPermissionContext(context.Background(), pc))
	require.NoError(t, err)
	assert.Equal(t, pc, got)
}
