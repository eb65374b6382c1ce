package timetracking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/audit"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/timetracking"
	"github.com/google/uuid"
)

const defaultSweepConcurrency = 4

type TimeTrackingServiceImpl struct {
	cfg     timetracking.Config
	tx      timetracking.Transactor
	entries timetracking.TimeEntryRepository
	breaks  timetracking.BreakEntryRepository
	status  timetracking.StatusRepository

	now              func() time.Time
	newID            func() string
	logger           *slog.Logger
	sweepConcurrency int
}

type Option func(*TimeTrackingServiceImpl)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *TimeTrackingServiceImpl) {
		s.now = now
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *TimeTrackingServiceImpl) {
		s.logger = logger
	}
}

// WithIDGenerator replaces the UUIDv7 generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *TimeTrackingServiceImpl) {
		s.newID = newID
	}
}

// WithSweepConcurrency bounds how many stale entries are closed in parallel.
func WithSweepConcurrency(n int) Option {
	return func(s *TimeTrackingServiceImpl) {
		if n > 0 {
			s.sweepConcurrency = n
		}
	}
}

func NewTimeTrackingService(
	cfg timetracking.Config,
	tx timetracking.Transactor,
	entries timetracking.TimeEntryRepository,
	breaks timetracking.BreakEntryRepository,
	status timetracking.StatusRepository,
	opts ...Option,
) (*TimeTrackingServiceImpl, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &TimeTrackingServiceImpl{
		cfg:              cfg,
		tx:               tx,
		entries:          entries,
		breaks:           breaks,
		status:           status,
		now:              time.Now,
		newID:            newUUIDv7,
		logger:           slog.Default(),
		sweepConcurrency: defaultSweepConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

var _ timetracking.Service = (*TimeTrackingServiceImpl)(nil)

func newUUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// clock returns the current instant normalized the way times are stored.
func (s *TimeTrackingServiceImpl) clock() time.Time {
	return normalize(s.now())
}

// normalize drops sub-microsecond precision, which PostgreSQL cannot keep.
func normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// currentStatus reads the projection of employeeID. The caller holds the lock.
func (s *TimeTrackingServiceImpl) currentStatus(ctx context.Context, employeeID string) (timetracking.EmployeeTimeStatus, error) {
	st, err := s.status.GetEmployeeTimeStatus(ctx, employeeID, startOfDay(s.clock()))
	if err != nil {
		return timetracking.EmployeeTimeStatus{}, fmt.Errorf("failed to get employee time status: %w", err)
	}
	return st, nil
}

// refreshStatus recomputes the projection after a write and returns it.
func (s *TimeTrackingServiceImpl) refreshStatus(ctx context.Context, employeeID string) (timetracking.EmployeeTimeStatus, error) {
	if _, err := s.status.Refresh(ctx, employeeID); err != nil {
		return timetracking.EmployeeTimeStatus{}, fmt.Errorf("failed to refresh employee time status: %w", err)
	}
	return s.currentStatus(ctx, employeeID)
}

func (s *TimeTrackingServiceImpl) lock(ctx context.Context, employeeID string) error {
	if err := s.status.Lock(ctx, employeeID); err != nil {
		return fmt.Errorf("failed to lock employee %s: %w", employeeID, err)
	}
	return nil
}

// activeEntry loads the entry the projection points at.
func (s *TimeTrackingServiceImpl) activeEntry(ctx context.Context, st timetracking.EmployeeTimeStatus) (timetracking.TimeEntry, error) {
	if st.ActiveTimeEntryID == nil {
		return timetracking.TimeEntry{}, timetracking.ErrNotClockedIn
	}
	entry, err := s.entries.GetByID(ctx, *st.ActiveTimeEntryID)
	if err != nil {
		return timetracking.TimeEntry{}, err
	}
	if entry.Status != timetracking.EntryStatusActive {
		return timetracking.TimeEntry{}, timetracking.ErrNotClockedIn
	}
	return entry, nil
}

func change(entityType, entityID string, action audit.Action, before, after any, actorID string, at time.Time, reason *string) audit.Change {
	return audit.Change{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Before:     before,
		After:      after,
		ActorID:    actorID,
		OccurredAt: at,
		Reason:     reason,
	}
}

func stringPtr(s string) *string {
	return &s
}
