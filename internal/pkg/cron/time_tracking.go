package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/audit"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/timetracking"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/pkg/sse"
)

// EventPublisher delivers status events to connected clients.
type EventPublisher interface {
	Publish(event sse.Event)
}

type TimeTrackingJobs struct {
	service   timetracking.Service
	recorder  audit.Recorder
	publisher EventPublisher
	interval  time.Duration
	logger    *slog.Logger
}

func NewTimeTrackingJobs(
	service timetracking.Service,
	recorder audit.Recorder,
	publisher EventPublisher,
	interval time.Duration,
	logger *slog.Logger,
) *TimeTrackingJobs {
	if logger == nil {
		logger = slog.Default()
	}
	return &TimeTrackingJobs{
		service:   service,
		recorder:  recorder,
		publisher: publisher,
		interval:  interval,
		logger:    logger,
	}
}

func (j *TimeTrackingJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("auto_clock_out_stale_entries", j.interval, j.AutoClockOutStaleEntries)
}

// AutoClockOutStaleEntries closes forgotten ACTIVE entries, then audits and
// announces every entry the sweep closed, including when other entries failed.
func (j *TimeTrackingJobs) AutoClockOutStaleEntries(ctx context.Context) error {
	j.logger.Info("Cron: Starting auto clock-out of stale time entries")

	outcomes, sweepErr := j.service.AutoClockOutStaleEntries(ctx)

	recorded := 0
	for _, outcome := range outcomes {
		if j.recorder != nil && !outcome.Audit.IsZero() {
			if err := j.recorder.Record(ctx, outcome.Audit); err != nil {
				j.logger.Error("Cron: Failed to record auto clock-out audit",
					"time_entry_id", outcome.Audit.EntityID,
					"error", err)
			} else {
				recorded++
			}
		}
		if j.publisher != nil {
			j.publisher.Publish(sse.Event{
				EmployeeID: outcome.Status.EmployeeID,
				Name:       sse.EventTimeStatusChanged,
				Data:       timetracking.NewStatusResponse(outcome.Status),
			})
		}
	}

	j.logger.Info("Cron: Auto clocked-out stale time entries", "count", len(outcomes), "audited", recorded)
	if sweepErr != nil {
		return fmt.Errorf("auto clock-out finished with failures: %w", sweepErr)
	}
	return nil
}
