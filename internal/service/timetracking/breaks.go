package timetracking

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/audit"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/timetracking"
)

// StartBreak implements timetracking.Service.
func (s *TimeTrackingServiceImpl) StartBreak(ctx context.Context, in timetracking.StartBreakInput) (timetracking.Outcome, error) {
	if in.EmployeeID == "" {
		return timetracking.Outcome{}, timetracking.ErrEmployeeIDRequired
	}
	if !in.BreakType.IsValid() {
		return timetracking.Outcome{}, timetracking.ErrInvalidBreakType
	}

	now := s.clock()
	start := now
	if in.StartTime != nil {
		start = normalize(*in.StartTime)
	}
	if start.After(now) {
		return timetracking.Outcome{}, timetracking.ErrFutureTime
	}

	paid := in.BreakType.DefaultPaid()
	if in.Paid != nil {
		paid = *in.Paid
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
		if !start.After(entry.ClockInTime) {
			return timetracking.ErrBreakBeforeClockIn
		}

		existing, err := s.breaks.FindByTimeEntryID(ctx, entry.ID)
		if err != nil {
			return fmt.Errorf("failed to get break entries: %w", err)
		}
		for _, b := range existing {
			if b.EndTime != nil && start.Before(*b.EndTime) {
				return timetracking.ErrOverlappingBreak
			}
		}

		breakEntry, err := s.breaks.Create(ctx, timetracking.BreakEntry{
			ID:          s.newID(),
			TimeEntryID: entry.ID,
			BreakType:   in.BreakType,
			StartTime:   start,
			Paid:        paid,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("failed to create break entry: %w", err)
		}

		entry.BreakEntries = append(entry.BreakEntries, breakEntry.ID)
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
			Break:  &breakEntry,
			Status: st,
			Audit:  change(audit.EntityBreakEntry, breakEntry.ID, audit.ActionBreakStart, nil, breakEntry.Clone(), in.ActorID, now, nil),
		}
		return nil
	})
	if err != nil {
		return timetracking.Outcome{}, err
	}

	return outcome, nil
}

// EndBreak implements timetracking.Service.
func (s *TimeTrackingServiceImpl) EndBreak(ctx context.Context, in timetracking.EndBreakInput) (timetracking.Outcome, error) {
	if in.EmployeeID == "" {
		return timetracking.Outcome{}, timetracking.ErrEmployeeIDRequired
	}

	now := s.clock()
	end := now
	if in.EndTime != nil {
		end = normalize(*in.EndTime)
	}
	if end.After(now) {
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
		if st.CurrentStatus != timetracking.ClockStatusOnBreak || st.ActiveBreakEntryID == nil {
			return timetracking.ErrNotOnBreak
		}

		breakEntry, err := s.breaks.GetByID(ctx, *st.ActiveBreakEntryID)
		if err != nil {
			return err
		}
		if !breakEntry.IsOpen() {
			return timetracking.ErrNotOnBreak
		}
		if !end.After(breakEntry.StartTime) {
			return timetracking.ErrBreakEndBeforeStart
		}

		before := breakEntry.Clone()
		minutes := breakMinutes(breakEntry.StartTime, end)
		breakEntry.EndTime = &end
		breakEntry.DurationMinutes = &minutes
		breakEntry.UpdatedAt = now

		breakEntry, err = s.breaks.Update(ctx, breakEntry)
		if err != nil {
			return fmt.Errorf("failed to update break entry: %w", err)
		}

		entry, err := s.entries.GetByID(ctx, breakEntry.TimeEntryID)
		if err != nil {
			return err
		}

		st, err = s.refreshStatus(ctx, in.EmployeeID)
		if err != nil {
			return err
		}

		outcome = timetracking.Outcome{
			Entry:  &entry,
			Break:  &breakEntry,
			Status: st,
			Audit:  change(audit.EntityBreakEntry, breakEntry.ID, audit.ActionBreakEnd, before, breakEntry.Clone(), in.ActorID, now, nil),
		}
		return nil
	})
	if err != nil {
		return timetracking.Outcome{}, err
	}

	return outcome, nil
}
