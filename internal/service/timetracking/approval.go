package timetracking

import (
	"context"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/audit"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/timetracking"
)

// ApproveTimeEntry implements timetracking.Service.
func (s *TimeTrackingServiceImpl) ApproveTimeEntry(ctx context.Context, in timetracking.ApproveInput) (timetracking.Outcome, error) {
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
		if entry.Status != timetracking.EntryStatusPendingApproval {
			return timetracking.ErrNotPending
		}
		if entry.ClockOutTime == nil {
			return timetracking.ErrEntryStillActive
		}

		breaks, err := s.breaks.FindByTimeEntryID(ctx, entry.ID)
		if err != nil {
			return fmt.Errorf("failed to get break entries: %w", err)
		}
		split, err := computeHours(s.cfg, entry.ClockInTime, *entry.ClockOutTime, breaks, true)
		if err != nil {
			return err
		}

		before := entry.Clone()
		entry.Status = timetracking.EntryStatusCompleted
		entry.Pending = nil
		entry.ApplyHours(split)
		entry.ApprovedBy = stringPtr(in.ApprovedBy)
		entry.ApprovedAt = &now
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
			Audit:  change(audit.EntityTimeEntry, entry.ID, audit.ActionApprove, before, entry.Clone(), in.ApprovedBy, now, nil),
		}
		return nil
	})
	if err != nil {
		return timetracking.Outcome{}, err
	}

	s.logger.Info("Time entry approved", "time_entry_id", in.TimeEntryID, "approved_by", in.ApprovedBy)
	return outcome, nil
}

// RejectTimeEntry implements timetracking.Service. A rejected manual entry is
// deleted; a rejected correction puts the previous values back.
func (s *TimeTrackingServiceImpl) RejectTimeEntry(ctx context.Context, in timetracking.RejectInput) (timetracking.Outcome, error) {
	if strings.TrimSpace(in.Reason) == "" {
		return timetracking.Outcome{}, timetracking.ErrReasonRequired
	}

	now := s.clock()
	reason := strings.TrimSpace(in.Reason)
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
		if entry.Status != timetracking.EntryStatusPendingApproval || entry.Pending == nil {
			return timetracking.ErrNotPending
		}

		before := entry.Clone()

		switch pending := entry.Pending.(type) {
		case timetracking.PendingManualCreation:
			if err := s.entries.Delete(ctx, entry.ID); err != nil {
				return fmt.Errorf("failed to delete time entry: %w", err)
			}
			outcome = timetracking.Outcome{
				Entry:   &before,
				Deleted: true,
				Audit:   change(audit.EntityTimeEntry, entry.ID, audit.ActionRejectDelete, before, nil, in.RejectedBy, now, &reason),
			}

		case timetracking.PendingCorrection:
			if err := s.ensureNoOverlap(ctx, entry.EmployeeID, pending.Previous.Interval(), &entry.ID); err != nil {
				return err
			}
			entry.Restore(pending.Previous)
			entry.Status = timetracking.EntryStatusCompleted
			entry.Pending = nil
			entry.UpdatedAt = now

			entry, err = s.entries.Update(ctx, entry)
			if err != nil {
				return fmt.Errorf("failed to update time entry: %w", err)
			}
			outcome = timetracking.Outcome{
				Entry: &entry,
				Audit: change(audit.EntityTimeEntry, entry.ID, audit.ActionRejectRevert, before, entry.Clone(), in.RejectedBy, now, &reason),
			}

		default:
			return fmt.Errorf("unknown pending change %T on time entry %s", entry.Pending, entry.ID)
		}

		st, err := s.refreshStatus(ctx, current.EmployeeID)
		if err != nil {
			return err
		}
		outcome.Status = st
		return nil
	})
	if err != nil {
		return timetracking.Outcome{}, err
	}

	s.logger.Info("Time entry rejected",
		"time_entry_id", in.TimeEntryID,
		"rejected_by", in.RejectedBy,
		"deleted", outcome.Deleted,
	)
	return outcome, nil
}
