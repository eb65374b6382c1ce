package timetracking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/audit"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/timetracking"
)

// SubmitManualEntry implements timetracking.Service.
func (s *TimeTrackingServiceImpl) SubmitManualEntry(ctx context.Context, in timetracking.ManualEntryInput) (timetracking.Outcome, error) {
	if in.EmployeeID == "" {
		return timetracking.Outcome{}, timetracking.ErrEmployeeIDRequired
	}
	if strings.TrimSpace(in.Reason) == "" {
		return timetracking.Outcome{}, timetracking.ErrReasonRequired
	}
	if in.Location == nil && s.cfg.RequireLocation {
		return timetracking.Outcome{}, timetracking.ErrLocationRequired
	}

	now := s.clock()
	clockIn := normalize(in.ClockInTime)
	clockOut := normalize(in.ClockOutTime)
	if err := s.checkManualInterval(clockIn, clockOut); err != nil {
		return timetracking.Outcome{}, err
	}

	split, err := computeHours(s.cfg, clockIn, clockOut, nil, true)
	if err != nil {
		return timetracking.Outcome{}, err
	}

	var outcome timetracking.Outcome
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.lock(ctx, in.EmployeeID); err != nil {
			return err
		}

		if err := s.ensureNoOverlap(ctx, in.EmployeeID, timetracking.Interval{Start: clockIn, End: &clockOut}, nil); err != nil {
			return err
		}

		entry := timetracking.TimeEntry{
			ID:           s.newID(),
			EmployeeID:   in.EmployeeID,
			ClockInTime:  clockIn,
			ClockOutTime: &clockOut,
			ManualEntry:  true,
			Location:     in.Location,
			Reason:       stringPtr(strings.TrimSpace(in.Reason)),
			SubmittedBy:  stringPtr(in.SubmittedBy),
			BreakEntries: []string{},
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if s.cfg.RequireApprovalForManualEntry {
			entry.Status = timetracking.EntryStatusPendingApproval
			entry.Pending = timetracking.PendingManualCreation{}
		} else {
			entry.Status = timetracking.EntryStatusCompleted
			entry.ApplyHours(split)
		}

		entry, err := s.entries.Create(ctx, entry)
		if err != nil {
			return fmt.Errorf("failed to create manual time entry: %w", err)
		}

		st, err := s.refreshStatus(ctx, in.EmployeeID)
		if err != nil {
			return err
		}

		outcome = timetracking.Outcome{
			Entry:  &entry,
			Status: st,
			Audit:  change(audit.EntityTimeEntry, entry.ID, audit.ActionManualEntry, nil, entry.Clone(), in.SubmittedBy, now, entry.Reason),
		}
		return nil
	})
	if err != nil {
		return timetracking.Outcome{}, err
	}

	s.logger.Info("Manual time entry submitted",
		"employee_id", in.EmployeeID,
		"time_entry_id", outcome.Entry.ID,
		"status", outcome.Entry.Status,
	)
	return outcome, nil
}

// SubmitTimeEntryCorrection implements timetracking.Service.
func (s *TimeTrackingServiceImpl) SubmitTimeEntryCorrection(ctx context.Context, in timetracking.CorrectionInput) (timetracking.Outcome, error) {
	if strings.TrimSpace(in.Reason) == "" {
		return timetracking.Outcome{}, timetracking.ErrReasonRequired
	}
	if in.Changes.IsEmpty() {
		return timetracking.Outcome{}, timetracking.ErrNoChanges
	}

	now := s.clock()
	current, err := s.entries.GetByID(ctx, in.TimeEntryID)
	if err != nil {
		return timetracking.Outcome{}, err
	}

	var outcome timetracking.Outcome
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.lock(ctx, current.EmployeeID); err != nil {
			return err
		}

		entry, err := s.entries.GetByID(ctx, in.TimeEntryID)
		if err != nil {
			return err
		}
		if !in.OnBehalf && entry.EmployeeID != in.RequestedBy {
			return timetracking.ErrEntryNotOwned
		}
		switch entry.Status {
		case timetracking.EntryStatusPendingApproval:
			return timetracking.ErrAlreadyPending
		case timetracking.EntryStatusActive:
			return timetracking.ErrEntryStillActive
		}

		before := entry.Clone()
		previous := entry.Snapshot()

		if !applyChanges(&entry, in.Changes) {
			return timetracking.ErrNoChanges
		}
		clockOut := *entry.ClockOutTime
		if err := s.checkCorrectedInterval(previous.ClockInTime, entry.ClockInTime, clockOut); err != nil {
			return err
		}

		breaks, err := s.breaks.FindByTimeEntryID(ctx, entry.ID)
		if err != nil {
			return fmt.Errorf("failed to get break entries: %w", err)
		}
		if _, err := computeHours(s.cfg, entry.ClockInTime, clockOut, breaks, true); err != nil {
			return err
		}

		if err := s.ensureNoOverlap(ctx, entry.EmployeeID, entry.Interval(), &entry.ID); err != nil {
			return err
		}

		entry.Status = timetracking.EntryStatusPendingApproval
		entry.Pending = timetracking.PendingCorrection{
			Previous:    previous,
			RequestedBy: in.RequestedBy,
			RequestedAt: now,
		}
		entry.ClearHours()
		entry.ApprovedBy = nil
		entry.ApprovedAt = nil
		entry.Reason = stringPtr(strings.TrimSpace(in.Reason))
		entry.SubmittedBy = stringPtr(in.RequestedBy)
		entry.UpdatedAt = now

		entry, err = s.entries.Update(ctx, entry)
		if err != nil {
			return fmt.Errorf("failed to update time entry: %w", err)
		}

		st, err := s.refreshStatus(ctx, entry.EmployeeID)
		if err != nil {
			return err
		}

		outcome = timetracking.Outcome{
			Entry:  &entry,
			Status: st,
			Audit:  change(audit.EntityTimeEntry, entry.ID, audit.ActionCorrectionRequest, before, entry.Clone(), in.RequestedBy, now, entry.Reason),
		}
		return nil
	})
	if err != nil {
		return timetracking.Outcome{}, err
	}

	s.logger.Info("Time entry correction submitted", "time_entry_id", in.TimeEntryID, "requested_by", in.RequestedBy)
	return outcome, nil
}

// checkManualInterval validates a user supplied closed interval.
func (s *TimeTrackingServiceImpl) checkManualInterval(clockIn, clockOut time.Time) error {
	now := s.clock()
	if !clockOut.After(clockIn) {
		return timetracking.ErrClockOutBeforeClockIn
	}
	if clockIn.Before(now.Add(-s.cfg.ManualEntryWindow())) {
		return timetracking.ErrManualEntryTooOld
	}
	if clockOut.After(now) && !s.cfg.AllowFutureClockIn {
		return timetracking.ErrFutureTime
	}
	return nil
}

// checkCorrectedInterval validates a corrected interval. The manual entry
// window only applies when the correction moves clock-in further back.
func (s *TimeTrackingServiceImpl) checkCorrectedInterval(previousIn, clockIn, clockOut time.Time) error {
	now := s.clock()
	if !clockOut.After(clockIn) {
		return timetracking.ErrClockOutBeforeClockIn
	}
	if clockIn.Before(previousIn) && clockIn.Before(now.Add(-s.cfg.ManualEntryWindow())) {
		return timetracking.ErrManualEntryTooOld
	}
	if clockOut.After(now) && !s.cfg.AllowFutureClockIn {
		return timetracking.ErrFutureTime
	}
	return nil
}

// applyChanges writes the requested values onto entry and reports whether
// anything actually changed.
func applyChanges(entry *timetracking.TimeEntry, c timetracking.TimeEntryChanges) bool {
	changed := false
	if c.ClockInTime != nil {
		in := normalize(*c.ClockInTime)
		if !in.Equal(entry.ClockInTime) {
			entry.ClockInTime = in
			changed = true
		}
	}
	if c.ClockOutTime != nil {
		out := normalize(*c.ClockOutTime)
		if entry.ClockOutTime == nil || !out.Equal(*entry.ClockOutTime) {
			entry.ClockOutTime = &out
			changed = true
		}
	}
	if c.Location != nil {
		if entry.Location == nil || *entry.Location != *c.Location {
			loc := *c.Location
			entry.Location = &loc
			changed = true
		}
	}
	return changed
}
