package postgresql_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/audit"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/timetracking"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/repository/postgresql"
	timetrackingService "github.com/cmlabs-hris/hris-timetracking-go/internal/service/timetracking"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type repos struct {
	tx      timetracking.Transactor
	entries timetracking.TimeEntryRepository
	breaks  timetracking.BreakEntryRepository
	status  timetracking.StatusRepository
	audit   audit.Repository
}

func newRepos(t *testing.T) repos {
	setup := NewTestDatabase(t)
	return repos{
		tx:      postgresql.NewTransactor(setup.DB),
		entries: postgresql.NewTimeEntryRepository(setup.DB),
		breaks:  postgresql.NewBreakEntryRepository(setup.DB),
		status:  postgresql.NewTimeStatusRepository(setup.DB),
		audit:   postgresql.NewAuditRepository(setup.DB),
	}
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func day(h int) time.Time {
	return time.Date(2024, 3, 4, h, 0, 0, 0, time.UTC)
}

func TestTimeEntryRepository(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	employeeID := newID()

	out := day(16)
	total, regular, overtime := 8.0, 8.0, 0.0
	completed := timetracking.TimeEntry{
		ID:            newID(),
		EmployeeID:    employeeID,
		ClockInTime:   day(8),
		ClockOutTime:  &out,
		Status:        timetracking.EntryStatusCompleted,
		TotalHours:    &total,
		RegularHours:  &regular,
		OvertimeHours: &overtime,
		Location:      &timetracking.Location{Latitude: -6.2, Longitude: 106.8},
		CreatedAt:     day(16),
		UpdatedAt:     day(16),
	}

	t.Run("create and get", func(t *testing.T) {
		created, err := r.entries.Create(ctx, completed)
		require.NoError(t, err)
		assert.Equal(t, completed.ID, created.ID)
		assert.True(t, completed.ClockInTime.Equal(created.ClockInTime))
		assert.Equal(t, completed.Location, created.Location)
		assert.Equal(t, []string{}, created.BreakEntries)
		assert.Nil(t, created.Pending)

		_, err = r.entries.GetByID(ctx, newID())
		assert.ErrorIs(t, err, timetracking.ErrTimeEntryNotFound)

		_, err = r.entries.GetByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, timetracking.ErrTimeEntryNotFound)
	})

	t.Run("second active entry violates the unique index", func(t *testing.T) {
		active := timetracking.TimeEntry{
			ID:          newID(),
			EmployeeID:  employeeID,
			ClockInTime: day(17),
			Status:      timetracking.EntryStatusActive,
			CreatedAt:   day(17),
			UpdatedAt:   day(17),
		}
		_, err := r.entries.Create(ctx, active)
		require.NoError(t, err)

		active.ID = newID()
		active.ClockInTime = day(18)
		_, err = r.entries.Create(ctx, active)
		assert.ErrorIs(t, err, timetracking.ErrActiveEntryExists)
		assert.True(t, timetracking.IsStateConflict(err))

		incomplete, err := r.entries.FindIncompleteTimeEntries(ctx, employeeID)
		require.NoError(t, err)
		assert.Len(t, incomplete, 1)
	})

	t.Run("pending change round trip", func(t *testing.T) {
		entry, err := r.entries.GetByID(ctx, completed.ID)
		require.NoError(t, err)

		entry.Status = timetracking.EntryStatusPendingApproval
		entry.Pending = timetracking.PendingCorrection{
			Previous:    entry.Snapshot(),
			RequestedBy: employeeID,
			RequestedAt: day(19),
		}
		entry.ClearHours()
		updated, err := r.entries.Update(ctx, entry)
		require.NoError(t, err)

		pending, ok := updated.Pending.(timetracking.PendingCorrection)
		require.True(t, ok)
		require.NotNil(t, pending.Previous.TotalHours)
		assert.Equal(t, 8.0, *pending.Previous.TotalHours)
		assert.True(t, pending.RequestedAt.Equal(day(19)))
		assert.Nil(t, updated.TotalHours)
	})

	t.Run("find all filters and pages", func(t *testing.T) {
		status := timetracking.EntryStatusPendingApproval
		items, count, err := r.entries.FindAll(ctx, timetracking.TimeEntryFilter{EmployeeID: &employeeID, Status: &status}, timetracking.Pagination{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
		require.Len(t, items, 1)
		assert.Equal(t, completed.ID, items[0].ID)

		endsAfter := day(15)
		before := day(17)
		items, _, err = r.entries.FindAll(ctx, timetracking.TimeEntryFilter{
			EmployeeID:    &employeeID,
			EndsAfter:     &endsAfter,
			ClockInBefore: &before,
		}, timetracking.Pagination{})
		require.NoError(t, err)
		assert.Len(t, items, 1)

		items, count, err = r.entries.FindAll(ctx, timetracking.TimeEntryFilter{EmployeeID: &employeeID}, timetracking.Pagination{Page: 2, Limit: 1, SortOrder: "asc"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
		require.Len(t, items, 1)
		assert.Equal(t, timetracking.EntryStatusActive, items[0].Status)
	})

	t.Run("delete cascades to breaks", func(t *testing.T) {
		_, err := r.breaks.Create(ctx, timetracking.BreakEntry{
			ID:          newID(),
			TimeEntryID: completed.ID,
			BreakType:   timetracking.BreakTypeLunch,
			StartTime:   day(12),
			CreatedAt:   day(12),
			UpdatedAt:   day(12),
		})
		require.NoError(t, err)

		require.NoError(t, r.entries.Delete(ctx, completed.ID))
		breaks, err := r.breaks.FindByTimeEntryID(ctx, completed.ID)
		require.NoError(t, err)
		assert.Empty(t, breaks)

		assert.ErrorIs(t, r.entries.Delete(ctx, completed.ID), timetracking.ErrTimeEntryNotFound)
	})
}

func TestStatusRepository(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	employeeID := newID()

	st, err := r.status.GetEmployeeTimeStatus(ctx, employeeID, day(0))
	require.NoError(t, err)
	assert.Equal(t, timetracking.ClockStatusClockedOut, st.CurrentStatus)
	assert.Equal(t, employeeID, st.EmployeeID)

	entryID := newID()
	breakID := newID()
	err = r.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, r.status.Lock(ctx, employeeID))
		_, err := r.entries.Create(ctx, timetracking.TimeEntry{
			ID: entryID, EmployeeID: employeeID, ClockInTime: day(8),
			Status: timetracking.EntryStatusActive, CreatedAt: day(8), UpdatedAt: day(8),
		})
		require.NoError(t, err)
		_, err = r.breaks.Create(ctx, timetracking.BreakEntry{
			ID: breakID, TimeEntryID: entryID, BreakType: timetracking.BreakTypeRest,
			StartTime: day(10), Paid: true, CreatedAt: day(10), UpdatedAt: day(10),
		})
		require.NoError(t, err)
		_, err = r.status.Refresh(ctx, employeeID)
		return err
	})
	require.NoError(t, err)

	st, err = r.status.GetEmployeeTimeStatus(ctx, employeeID, day(0))
	require.NoError(t, err)
	assert.Equal(t, timetracking.ClockStatusOnBreak, st.CurrentStatus)
	require.NotNil(t, st.ActiveTimeEntryID)
	assert.Equal(t, entryID, *st.ActiveTimeEntryID)
	require.NotNil(t, st.ActiveBreakEntryID)
	assert.Equal(t, breakID, *st.ActiveBreakEntryID)

	entry, err := r.entries.GetByID(ctx, entryID)
	require.NoError(t, err)
	assert.Equal(t, []string{breakID}, entry.BreakEntries)
}

func TestTransactorRollsBack(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	entryID := newID()

	err := r.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := r.entries.Create(ctx, timetracking.TimeEntry{
			ID: entryID, EmployeeID: newID(), ClockInTime: day(8),
			Status: timetracking.EntryStatusActive, CreatedAt: day(8), UpdatedAt: day(8),
		})
		require.NoError(t, err)
		return timetracking.ErrOverlappingEntry
	})
	require.ErrorIs(t, err, timetracking.ErrOverlappingEntry)

	_, err = r.entries.GetByID(ctx, entryID)
	assert.ErrorIs(t, err, timetracking.ErrTimeEntryNotFound)
}

func TestAuditRepository(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	entityID := newID()
	reason := "stayed late"

	require.NoError(t, r.audit.Record(ctx, audit.Change{
		EntityType: audit.EntityTimeEntry,
		EntityID:   entityID,
		Action:     audit.ActionClockIn,
		After:      map[string]string{"status": "ACTIVE"},
		ActorID:    "user-1",
		OccurredAt: day(8),
	}))
	require.NoError(t, r.audit.Record(ctx, audit.Change{
		EntityType: audit.EntityTimeEntry,
		EntityID:   entityID,
		Action:     audit.ActionClockOut,
		Before:     map[string]string{"status": "ACTIVE"},
		After:      map[string]string{"status": "COMPLETED"},
		ActorID:    "user-1",
		OccurredAt: day(16),
		Reason:     &reason,
	}))

	entries, err := r.audit.ListByEntity(ctx, audit.EntityTimeEntry, entityID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionClockIn, entries[0].Action)
	assert.Empty(t, entries[0].Before)
	assert.JSONEq(t, `{"status":"ACTIVE"}`, string(entries[0].After))
	assert.Equal(t, audit.ActionClockOut, entries[1].Action)
	require.NotNil(t, entries[1].Reason)
	assert.Equal(t, reason, *entries[1].Reason)
}

// TestEngineConcurrentClockIn runs the engine on PostgreSQL and races
// clock-ins for the same employee.
func TestEngineConcurrentClockIn(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	employeeID := newID()

	svc, err := timetrackingService.NewTimeTrackingService(timetracking.DefaultConfig(), r.tx, r.entries, r.breaks, r.status)
	require.NoError(t, err)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ClockIn(ctx, timetracking.ClockInInput{EmployeeID: employeeID, ActorID: employeeID})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			assert.True(t, timetracking.IsStateConflict(err), "unexpected error: %v", err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, successes)

	st, err := svc.GetCurrentStatus(ctx, employeeID)
	require.NoError(t, err)
	assert.Equal(t, timetracking.ClockStatusClockedIn, st.CurrentStatus)

	out, err := svc.StartBreak(ctx, timetracking.StartBreakInput{
		EmployeeID: employeeID,
		BreakType:  timetracking.BreakTypeShortBreak,
	})
	require.NoError(t, err)
	assert.Equal(t, timetracking.ClockStatusOnBreak, out.Status.CurrentStatus)
}
