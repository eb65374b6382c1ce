package user

import "errors"

var (
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	ErrEmployeeIDRequired      = errors.New("employee profile is required")
	ErrPermissionContextAbsent = errors.New("permission context missing from request")
	ErrInvalidToken            = errors.New("invalid or expired token")
)
