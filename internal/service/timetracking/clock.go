package timetracking

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/audit"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/timetracking"
)

// ClockIn implements timetracking.Service.
func (s *TimeTrackingServiceImpl) ClockIn(ctx context.Context, in timetracking.ClockInInput) (timetracking.Outcome, error) {
	if in.EmployeeID == "" {
		return timetracking.Outcome{}, timetracking.ErrEmployeeIDRequired
	}

	now := s.clock()
	clockIn := now
	if in.ClockInTime != nil {
		clockIn = normalize(*in.ClockInTime)
	}
	if clockIn.After(now) && !s.cfg.AllowFutureClockIn {
		return timetracking.Outcome{}, timetracking.ErrFutureTime
	}
	if in.Location == nil && s.cfg.RequireLocation {
		return timetracking.Outcome{}, timetracking.ErrLocationRequired
	}

	var outcome timetracking.Outcome
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.lock(ctx, in.EmployeeID); err != nil {
			return err
		}

		st, err := s.currentStatus(ctx, in.EmployeeID)
		if err != nil {
			return err
		}
		if st.CurrentStatus != timetracking.ClockStatusClockedOut {
			return timetracking.ErrAlreadyClockedIn
		}

		incomplete, err := s.entries.FindIncompleteTimeEntries(ctx, in.EmployeeID)
		if err != nil {
			return fmt.Errorf("failed to find incomplete time entries: %w", err)
		}
		if len(incomplete) > 0 {
			return timetracking.ErrIncompleteEntries
		}

		if err := s.ensureNoOverlap(ctx, in.EmployeeID, timetracking.Interval{Start: clockIn}, nil); err != nil {
			return err
		}

		entry, err := s.entries.Create(ctx, timetracking.TimeEntry{
			ID:           s.newID(),
			EmployeeID:   in.EmployeeID,
			ClockInTime:  clockIn,
			Status:       timetracking.EntryStatusActive,
			ManualEntry:  false,
			Location:     in.Location,
			BreakEntries: []string{},
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("failed to create time entry: %w", err)
		}

		st, err = s.refreshStatus(ctx, in.EmployeeID)
		if err != nil {
			return err
		}

		outcome = timetracking.Outcome{
			Entry:  &entry,
			Status: st,
			Audit:  change(audit.EntityTimeEntry, entry.ID, audit.ActionClockIn, nil, entry.Clone(), in.ActorID, now, nil),
		}
		return nil
	})
	if err != nil {
		return timetracking.Outcome{}, err
	}

	s.logger.Debug("Employee clocked in", "employee_id", in.EmployeeID, "time_entry_id", outcome.Entry.ID)
	return outcome, nil
}

// ClockOut implements timetracking.Service.
func (s *TimeTrackingServiceImpl) ClockOut(ctx context.Context, in timetracking.ClockOutInput) (timetracking.Outcome, error) {
	if in.EmployeeID == "" {
		return timetracking.Outcome{}, timetracking.ErrEmployeeIDRequired
	}

	now := s.clock()
	clockOut := now
	if in.ClockOutTime != nil {
		clockOut = normalize(*in.ClockOutTime)
	}
	if clockOut.After(now) {
		return timetracking.Outcome{}, timetracking.ErrFutureTime
	}

	var outcome timetracking.Outcome
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.lock(ctx, in.EmployeeID); err != nil {
			return err
		}

		st, err := s.currentStatus(ctx, in.EmployeeID)
		if err != nil {
			return err
		}
		switch st.CurrentStatus {
		case timetracking.ClockStatusOnBreak:
			return timetracking.ErrOnBreak
		case timetracking.ClockStatusClockedOut:
			return timetracking.ErrNotClockedIn
		}

		entry, err := s.activeEntry(ctx, st)
		if err != nil {
			return err
		}
		if !clockOut.After(entry.ClockInTime) {
			return timetracking.ErrClockOutBeforeClockIn
		}

		breaks, err := s.breaks.FindByTimeEntryID(ctx, entry.ID)
		if err != nil {
			return fmt.Errorf("failed to get break entries: %w", err)
		}
		split, err := computeHours(s.cfg, entry.ClockInTime, clockOut, breaks, true)
		if err != nil {
			return err
		}

		before := entry.Clone()
		entry.ClockOutTime = &clockOut
		entry.Status = timetracking.EntryStatusCompleted
		entry.ApplyHours(split)
		entry.UpdatedAt = now

		entry, err = s.entries.Update(ctx, entry)
		if err != nil {
			return fmt.Errorf("failed to update time entry: %w", err)
		}

		st, err = s.refreshStatus(ctx, in.EmployeeID)
		if err != nil {
			return err
		}

		outcome = timetracking.Outcome{
			Entry:  &entry,
			Status: st,
			Audit:  change(audit.EntityTimeEntry, entry.ID, audit.ActionClockOut, before, entry.Clone(), in.ActorID, now, nil),
		}
		return nil
	})
	if err != nil {
		return timetracking.Outcome{}, err
	}

	s.logger.Debug("Employee clocked out", "employee_id", in.EmployeeID, "time_entry_id", outcome.Entry.ID, "total_hours", *outcome.Entry.TotalHours)
	return outcome, nil
}
