package timetracking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/audit"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/timetracking"
	"golang.org/x/sync/errgroup"
)

// SystemActorID is the actor recorded for changes made by the engine itself.
const SystemActorID = "system"

// AutoClockOutStaleEntries implements timetracking.Service.
func (s *TimeTrackingServiceImpl) AutoClockOutStaleEntries(ctx context.Context) ([]timetracking.Outcome, error) {
	now := s.clock()
	cutoff := now.Add(-s.cfg.AutoClockOutAfter())
	status := timetracking.EntryStatusActive

	stale, _, err := s.entries.FindAll(ctx, timetracking.TimeEntryFilter{
		Status:        &status,
		ClockInBefore: &cutoff,
	}, timetracking.Pagination{SortBy: "clock_in_time", SortOrder: "asc"})
	if err != nil {
		return nil, fmt.Errorf("failed to find stale time entries: %w", err)
	}
	if len(stale) == 0 {
		return nil, nil
	}

	var (
		mu       sync.Mutex
		outcomes []timetracking.Outcome
		errs     []error
	)

	g := new(errgroup.Group)
	g.SetLimit(s.sweepConcurrency)
	for _, entry := range stale {
		entry := entry
		g.Go(func() error {
			outcome, closed, err := s.autoClockOut(ctx, entry.ID, entry.EmployeeID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Error("Failed to auto clock-out time entry",
					"time_entry_id", entry.ID,
					"employee_id", entry.EmployeeID,
					"error", err,
				)
				errs = append(errs, fmt.Errorf("time entry %s: %w", entry.ID, err))
				return nil
			}
			if closed {
				outcomes = append(outcomes, outcome)
			}
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("Auto clock-out sweep finished",
		"stale", len(stale),
		"closed", len(outcomes),
		"failed", len(errs),
	)
	return outcomes, errors.Join(errs...)
}

// autoClockOut closes one stale entry at ClockInTime + AutoClockOutAfterHours.
// closed is false when another writer already finished the entry.
func (s *TimeTrackingServiceImpl) autoClockOut(ctx context.Context, entryID, employeeID string) (timetracking.Outcome, bool, error) {
	var (
		outcome timetracking.Outcome
		closed  bool
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.lock(ctx, employeeID); err != nil {
			return err
		}

		entry, err := s.entries.GetByID(ctx, entryID)
		if err != nil {
			if errors.Is(err, timetracking.ErrTimeEntryNotFound) {
				return nil
			}
			return err
		}
		now := s.clock()
		clockOut := normalize(entry.ClockInTime.Add(s.cfg.AutoClockOutAfter()))
		if entry.Status != timetracking.EntryStatusActive || clockOut.After(now) {
			return nil
		}

		breaks, err := s.breaks.FindByTimeEntryID(ctx, entry.ID)
		if err != nil {
			return fmt.Errorf("failed to get break entries: %w", err)
		}
		for i, b := range breaks {
			if !b.IsOpen() {
				continue
			}
			end := clockOut
			if b.StartTime.After(end) {
				end = b.StartTime
			}
			minutes := breakMinutes(b.StartTime, end)
			b.EndTime = &end
			b.DurationMinutes = &minutes
			b.UpdatedAt = now
			if breaks[i], err = s.breaks.Update(ctx, b); err != nil {
				return fmt.Errorf("failed to close break entry: %w", err)
			}
		}

		split, err := computeHours(s.cfg, entry.ClockInTime, clockOut, breaks, false)
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

		st, err := s.refreshStatus(ctx, employeeID)
		if err != nil {
			return err
		}

		reason := fmt.Sprintf("automatically clocked out after %s", s.cfg.AutoClockOutAfter().Round(time.Minute))
		outcome = timetracking.Outcome{
			Entry:  &entry,
			Status: st,
			Audit:  change(audit.EntityTimeEntry, entry.ID, audit.ActionAutoClockOut, before, entry.Clone(), SystemActorID, now, &reason),
		}
		closed = true
		return nil
	})
	return outcome, closed, err
}
