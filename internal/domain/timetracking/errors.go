package timetracking

import (
	"errors"

	"github.com/cmlabs-hris/hris-timetracking-go/internal/pkg/validator"
)

type ErrorKind string

const (
	// KindValidation means the input is malformed or outside policy.
	KindValidation ErrorKind = "VALIDATION"
	// KindStateConflict means the transition is illegal for the current state,
	// or the state changed under the caller.
	KindStateConflict ErrorKind = "CLOCK_STATE_ERROR"
	KindNotFound      ErrorKind = "NOT_FOUND"
)

// Error is a business error raised by the engine. Store failures are never
// wrapped in an Error.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrorKind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	// Validation
	ErrFutureTime            = newError(KindValidation, "FUTURE_TIME", "time cannot be in the future")
	ErrLocationRequired      = newError(KindValidation, "LOCATION_REQUIRED", "location is required")
	ErrInvalidBreakType      = newError(KindValidation, "INVALID_BREAK_TYPE", "unknown break type")
	ErrBreakBeforeClockIn    = newError(KindValidation, "BREAK_BEFORE_CLOCK_IN", "break must start after clock-in")
	ErrBreakEndBeforeStart   = newError(KindValidation, "BREAK_END_BEFORE_START", "break must end after it starts")
	ErrOverlappingBreak      = newError(KindValidation, "OVERLAPPING_BREAK", "break starts before the previous break ended")
	ErrClockOutBeforeClockIn = newError(KindValidation, "CLOCK_OUT_BEFORE_CLOCK_IN", "clock-out must be after clock-in")
	ErrExceedsMaxDailyHours  = newError(KindValidation, "EXCEEDS_MAX_DAILY_HOURS", "exceeds maximum daily hours")
	ErrManualEntryTooOld     = newError(KindValidation, "MANUAL_ENTRY_TOO_OLD", "entry is older than the allowed manual entry window")
	ErrReasonRequired        = newError(KindValidation, "REASON_REQUIRED", "reason is required")
	ErrNoChanges             = newError(KindValidation, "NO_CHANGES", "correction does not change anything")
	ErrEntryNotOwned         = newError(KindValidation, "ENTRY_NOT_OWNED", "time entry does not belong to the requester")
	ErrEmployeeIDRequired    = newError(KindValidation, "EMPLOYEE_ID_REQUIRED", "employee id is required")
	ErrInvalidEngineConfig   = newError(KindValidation, "INVALID_CONFIG", "invalid time tracking configuration")

	// State conflicts
	ErrAlreadyClockedIn  = newError(KindStateConflict, "ALREADY_CLOCKED_IN", "employee is already clocked in")
	ErrIncompleteEntries = newError(KindStateConflict, "INCOMPLETE_ENTRIES", "employee has incomplete time entries from a previous session")
	ErrNotClockedIn      = newError(KindStateConflict, "NOT_CLOCKED_IN", "employee is not clocked in")
	ErrOnBreak           = newError(KindStateConflict, "ON_BREAK", "employee is on break; end the break first")
	ErrNotOnBreak        = newError(KindStateConflict, "NOT_ON_BREAK", "employee is not on break")
	ErrOverlappingEntry  = newError(KindStateConflict, "OVERLAPPING_ENTRY", "time entry overlaps an existing entry")
	ErrAlreadyPending    = newError(KindStateConflict, "ALREADY_PENDING", "time entry is already pending approval")
	ErrNotPending        = newError(KindStateConflict, "NOT_PENDING", "time entry is not pending approval")
	ErrEntryStillActive  = newError(KindStateConflict, "ENTRY_ACTIVE", "time entry is still active")
	ErrActiveEntryExists = newError(KindStateConflict, "ACTIVE_ENTRY_EXISTS", "another active time entry exists for this employee")

	// Not found
	ErrTimeEntryNotFound  = newError(KindNotFound, "TIME_ENTRY_NOT_FOUND", "time entry not found")
	ErrBreakEntryNotFound = newError(KindNotFound, "BREAK_ENTRY_NOT_FOUND", "break entry not found")
)

// KindOf returns the business kind of err, or "" when err is not a business
// error (for example a store failure).
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var v validator.ValidationErrors
	if errors.As(err, &v) {
		return KindValidation
	}
	return ""
}

// IsValidation reports whether err is a VALIDATION error.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// IsStateConflict reports whether err is a CLOCK_STATE_ERROR.
func IsStateConflict(err error) bool {
	return KindOf(err) == KindStateConflict
}

// IsNotFound reports whether err is a NOT_FOUND error.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
