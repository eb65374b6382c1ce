package timetracking

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/timetracking"
)

// GetCurrentStatus implements timetracking.Service.
func (s *TimeTrackingServiceImpl) GetCurrentStatus(ctx context.Context, employeeID string) (timetracking.EmployeeTimeStatus, error) {
	if employeeID == "" {
		return timetracking.EmployeeTimeStatus{}, timetracking.ErrEmployeeIDRequired
	}
	return s.currentStatus(ctx, employeeID)
}

// GetTimeEntry implements timetracking.Service.
func (s *TimeTrackingServiceImpl) GetTimeEntry(ctx context.Context, id string) (timetracking.TimeEntry, error) {
	return s.entries.GetByID(ctx, id)
}

// ListTimeEntries implements timetracking.Service.
func (s *TimeTrackingServiceImpl) ListTimeEntries(ctx context.Context, filter timetracking.TimeEntryFilter, page timetracking.Pagination) ([]timetracking.TimeEntry, int64, error) {
	entries, total, err := s.entries.FindAll(ctx, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list time entries: %w", err)
	}
	return entries, total, nil
}

// ListPendingApprovals implements timetracking.Service.
func (s *TimeTrackingServiceImpl) ListPendingApprovals(ctx context.Context, employeeID *string, page timetracking.Pagination) ([]timetracking.TimeEntry, int64, error) {
	status := timetracking.EntryStatusPendingApproval
	return s.ListTimeEntries(ctx, timetracking.TimeEntryFilter{
		EmployeeID: employeeID,
		Status:     &status,
	}, page)
}

// ListBreaks implements timetracking.Service.
func (s *TimeTrackingServiceImpl) ListBreaks(ctx context.Context, timeEntryID string) ([]timetracking.BreakEntry, error) {
	if _, err := s.entries.GetByID(ctx, timeEntryID); err != nil {
		return nil, err
	}
	breaks, err := s.breaks.FindByTimeEntryID(ctx, timeEntryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get break entries: %w", err)
	}
	return breaks, nil
}
