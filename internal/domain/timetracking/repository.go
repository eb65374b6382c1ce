package timetracking

import (
	"context"
	"time"
)

// TimeEntryFilter narrows FindAll. Nil fields are ignored.
type TimeEntryFilter struct {
	EmployeeID    *string
	Status        *EntryStatus
	ManualEntry   *bool
	ClockInFrom   *time.Time // clock_in >= ClockInFrom
	ClockInBefore *time.Time // clock_in < ClockInBefore
	EndsAfter     *time.Time // still open, or clock_out > EndsAfter
	ExcludeID     *string
}

// Pagination controls FindAll paging. A zero Limit returns every row.
type Pagination struct {
	Page      int
	Limit     int
	SortBy    string // clock_in_time, clock_out_time, created_at, status
	SortOrder string // asc, desc
}

// TimeEntryRepository is the time entry store.
type TimeEntryRepository interface {
	Create(ctx context.Context, entry TimeEntry) (TimeEntry, error)

	// Update persists every mutable column of entry. EmployeeID is never changed.
	Update(ctx context.Context, entry TimeEntry) (TimeEntry, error)

	// Delete removes the entry together with its breaks.
	Delete(ctx context.Context, id string) error

	// GetByID returns ErrTimeEntryNotFound when the entry does not exist.
	GetByID(ctx context.Context, id string) (TimeEntry, error)

	FindAll(ctx context.Context, filter TimeEntryFilter, page Pagination) ([]TimeEntry, int64, error)

	// FindIncompleteTimeEntries lists entries of the employee that have no clock-out.
	FindIncompleteTimeEntries(ctx context.Context, employeeID string) ([]TimeEntry, error)
}

// BreakEntryRepository is the break store. Breaks are owned by one time entry.
type BreakEntryRepository interface {
	Create(ctx context.Context, breakEntry BreakEntry) (BreakEntry, error)
	Update(ctx context.Context, breakEntry BreakEntry) (BreakEntry, error)

	// GetByID returns ErrBreakEntryNotFound when the break does not exist.
	GetByID(ctx context.Context, id string) (BreakEntry, error)

	// FindByTimeEntryID returns the breaks of an entry ordered by start time.
	FindByTimeEntryID(ctx context.Context, timeEntryID string) ([]BreakEntry, error)
}

// StatusRepository maintains the per-employee status projection.
type StatusRepository interface {
	// Lock serializes writers for one employee until the surrounding
	// transaction ends.
	Lock(ctx context.Context, employeeID string) error

	// Refresh recomputes the projection from the entry and break stores.
	Refresh(ctx context.Context, employeeID string) (EmployeeTimeStatus, error)

	// GetEmployeeTimeStatus reads the projection. TotalHoursToday covers the
	// completed entries that started at or after dayStart.
	GetEmployeeTimeStatus(ctx context.Context, employeeID string, dayStart time.Time) (EmployeeTimeStatus, error)
}

// Transactor runs fn as one atomic unit. Repositories called with the context
// handed to fn take part in the transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
