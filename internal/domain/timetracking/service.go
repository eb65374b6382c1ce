package timetracking

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/audit"
)

type ClockInInput struct {
	EmployeeID  string
	ClockInTime *time.Time
	Location    *Location
	ActorID     string
}

type ClockOutInput struct {
	EmployeeID   string
	ClockOutTime *time.Time
	ActorID      string
}

type StartBreakInput struct {
	EmployeeID string
	BreakType  BreakType
	StartTime  *time.Time
	Paid       *bool // overrides the break type default
	ActorID    string
}

type EndBreakInput struct {
	EmployeeID string
	EndTime    *time.Time
	ActorID    string
}

type ManualEntryInput struct {
	EmployeeID   string
	ClockInTime  time.Time
	ClockOutTime time.Time
	Location     *Location
	Reason       string
	SubmittedBy  string
}

// TimeEntryChanges lists the fields a correction proposes to change.
type TimeEntryChanges struct {
	ClockInTime  *time.Time
	ClockOutTime *time.Time
	Location     *Location
}

// IsEmpty reports whether no field is set.
func (c TimeEntryChanges) IsEmpty() bool {
	return c.ClockInTime == nil && c.ClockOutTime == nil && c.Location == nil
}

type CorrectionInput struct {
	TimeEntryID string
	Changes     TimeEntryChanges
	Reason      string
	RequestedBy string
	// OnBehalf is set by the caller when authorization already allowed the
	// requester to correct someone else's entry.
	OnBehalf bool
}

type ApproveInput struct {
	TimeEntryID string
	ApprovedBy  string
}

type RejectInput struct {
	TimeEntryID string
	RejectedBy  string
	Reason      string
}

// Outcome is the result of a successful mutation. Audit carries the values the
// caller hands to the audit recorder.
type Outcome struct {
	Entry   *TimeEntry
	Break   *BreakEntry
	Deleted bool
	Status  EmployeeTimeStatus
	Audit   audit.Change
}

// Service is the time tracking engine.
type Service interface {
	ClockIn(ctx context.Context, in ClockInInput) (Outcome, error)
	ClockOut(ctx context.Context, in ClockOutInput) (Outcome, error)
	StartBreak(ctx context.Context, in StartBreakInput) (Outcome, error)
	EndBreak(ctx context.Context, in EndBreakInput) (Outcome, error)

	SubmitManualEntry(ctx context.Context, in ManualEntryInput) (Outcome, error)
	SubmitTimeEntryCorrection(ctx context.Context, in CorrectionInput) (Outcome, error)
	ApproveTimeEntry(ctx context.Context, in ApproveInput) (Outcome, error)
	RejectTimeEntry(ctx context.Context, in RejectInput) (Outcome, error)

	GetCurrentStatus(ctx context.Context, employeeID string) (EmployeeTimeStatus, error)
	GetTimeEntry(ctx context.Context, id string) (TimeEntry, error)
	ListTimeEntries(ctx context.Context, filter TimeEntryFilter, page Pagination) ([]TimeEntry, int64, error)
	ListPendingApprovals(ctx context.Context, employeeID *string, page Pagination) ([]TimeEntry, int64, error)
	ListBreaks(ctx context.Context, timeEntryID string) ([]BreakEntry, error)

	// AutoClockOutStaleEntries closes every ACTIVE entry older than the
	// configured ceiling. Entries that fail are reported in the returned error;
	// the others are still closed.
	AutoClockOutStaleEntries(ctx context.Context) ([]Outcome, error)
}
