package timetracking

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/timetracking"
)

// overlaps reports whether two half-open intervals share any instant. An
// interval without an end runs forever.
func overlaps(a, b timetracking.Interval) bool {
	if a.End != nil && !a.End.After(b.Start) {
		return false
	}
	if b.End != nil && !b.End.After(a.Start) {
		return false
	}
	return true
}

// ensureNoOverlap rejects candidate when it overlaps any interval reserved by
// another entry of the employee. excludeID skips the entry being corrected.
func (s *TimeTrackingServiceImpl) ensureNoOverlap(ctx context.Context, employeeID string, candidate timetracking.Interval, excludeID *string) error {
	filter := timetracking.TimeEntryFilter{
		EmployeeID: &employeeID,
		EndsAfter:  &candidate.Start,
		ExcludeID:  excludeID,
	}
	if candidate.End != nil {
		filter.ClockInBefore = candidate.End
	}

	existing, _, err := s.entries.FindAll(ctx, filter, timetracking.Pagination{})
	if err != nil {
		return fmt.Errorf("failed to find overlapping entries: %w", err)
	}

	// A pending correction may have moved away from the candidate while still
	// holding its previous interval, so the window filter above can miss it.
	pendingStatus := timetracking.EntryStatusPendingApproval
	pending, _, err := s.entries.FindAll(ctx, timetracking.TimeEntryFilter{
		EmployeeID: &employeeID,
		Status:     &pendingStatus,
		ExcludeID:  excludeID,
	}, timetracking.Pagination{})
	if err != nil {
		return fmt.Errorf("failed to find pending entries: %w", err)
	}

	for _, e := range append(existing, pending...) {
		if excludeID != nil && e.ID == *excludeID {
			continue
		}
		for _, reserved := range e.ReservedIntervals() {
			if overlaps(candidate, reserved) {
				return timetracking.ErrOverlappingEntry
			}
		}
	}
	return nil
}
