package timetracking

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/timetracking"
)

type txKey struct{}

// memStore is an in-memory implementation of every repository the engine
// uses. Transactions are serialized and rolled back by restoring a copy.
type memStore struct {
	mu       sync.Mutex
	entries  map[string]timetracking.TimeEntry
	breaks   map[string]timetracking.BreakEntry
	statuses map[string]timetracking.EmployeeTimeStatus

	failUpdate error
	locks      []string
}

func newMemStore() *memStore {
	return &memStore{
		entries:  map[string]timetracking.TimeEntry{},
		breaks:   map[string]timetracking.BreakEntry{},
		statuses: map[string]timetracking.EmployeeTimeStatus{},
	}
}

func (m *memStore) guard(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *memStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := make(map[string]timetracking.TimeEntry, len(m.entries))
	for k, v := range m.entries {
		entries[k] = v.Clone()
	}
	breaks := make(map[string]timetracking.BreakEntry, len(m.breaks))
	for k, v := range m.breaks {
		breaks[k] = v.Clone()
	}
	statuses := make(map[string]timetracking.EmployeeTimeStatus, len(m.statuses))
	for k, v := range m.statuses {
		statuses[k] = v
	}

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		m.entries, m.breaks, m.statuses = entries, breaks, statuses
		return err
	}
	return nil
}

// TimeEntryRepository

type memEntries struct{ *memStore }

func (m memEntries) Create(ctx context.Context, entry timetracking.TimeEntry) (timetracking.TimeEntry, error) {
	defer m.guard(ctx)()
	if entry.Status == timetracking.EntryStatusActive {
		for _, e := range m.entries {
			if e.EmployeeID == entry.EmployeeID && e.Status == timetracking.EntryStatusActive {
				return timetracking.TimeEntry{}, timetracking.ErrActiveEntryExists
			}
		}
	}
	m.entries[entry.ID] = entry.Clone()
	return entry.Clone(), nil
}

func (m memEntries) Update(ctx context.Context, entry timetracking.TimeEntry) (timetracking.TimeEntry, error) {
	defer m.guard(ctx)()
	if m.failUpdate != nil {
		return timetracking.TimeEntry{}, m.failUpdate
	}
	if _, ok := m.entries[entry.ID]; !ok {
		return timetracking.TimeEntry{}, timetracking.ErrTimeEntryNotFound
	}
	m.entries[entry.ID] = entry.Clone()
	return entry.Clone(), nil
}

func (m memEntries) Delete(ctx context.Context, id string) error {
	defer m.guard(ctx)()
	if _, ok := m.entries[id]; !ok {
		return timetracking.ErrTimeEntryNotFound
	}
	delete(m.entries, id)
	for bid, b := range m.breaks {
		if b.TimeEntryID == id {
			delete(m.breaks, bid)
		}
	}
	return nil
}

func (m memEntries) GetByID(ctx context.Context, id string) (timetracking.TimeEntry, error) {
	defer m.guard(ctx)()
	e, ok := m.entries[id]
	if !ok {
		return timetracking.TimeEntry{}, timetracking.ErrTimeEntryNotFound
	}
	return e.Clone(), nil
}

func (m memEntries) FindAll(ctx context.Context, f timetracking.TimeEntryFilter, page timetracking.Pagination) ([]timetracking.TimeEntry, int64, error) {
	defer m.guard(ctx)()
	var out []timetracking.TimeEntry
	for _, e := range m.entries {
		if f.EmployeeID != nil && e.EmployeeID != *f.EmployeeID {
			continue
		}
		if f.Status != nil && e.Status != *f.Status {
			continue
		}
		if f.ManualEntry != nil && e.ManualEntry != *f.ManualEntry {
			continue
		}
		if f.ClockInFrom != nil && e.ClockInTime.Before(*f.ClockInFrom) {
			continue
		}
		if f.ClockInBefore != nil && !e.ClockInTime.Before(*f.ClockInBefore) {
			continue
		}
		if f.EndsAfter != nil && e.ClockOutTime != nil && !e.ClockOutTime.After(*f.EndsAfter) {
			continue
		}
		if f.ExcludeID != nil && e.ID == *f.ExcludeID {
			continue
		}
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if page.SortOrder == "desc" {
			return out[i].ClockInTime.After(out[j].ClockInTime)
		}
		return out[i].ClockInTime.Before(out[j].ClockInTime)
	})
	total := int64(len(out))
	if page.Limit > 0 {
		start := (max(page.Page, 1) - 1) * page.Limit
		if start >= len(out) {
			return nil, total, nil
		}
		out = out[start:min(start+page.Limit, len(out))]
	}
	return out, total, nil
}

func (m memEntries) FindIncompleteTimeEntries(ctx context.Context, employeeID string) ([]timetracking.TimeEntry, error) {
	defer m.guard(ctx)()
	var out []timetracking.TimeEntry
	for _, e := range m.entries {
		if e.EmployeeID == employeeID && e.ClockOutTime == nil {
			out = append(out, e.Clone())
		}
	}
	return out, nil
}

// BreakEntryRepository

type memBreaks struct{ *memStore }

func (m memBreaks) Create(ctx context.Context, b timetracking.BreakEntry) (timetracking.BreakEntry, error) {
	defer m.guard(ctx)()
	m.breaks[b.ID] = b.Clone()
	return b.Clone(), nil
}

func (m memBreaks) Update(ctx context.Context, b timetracking.BreakEntry) (timetracking.BreakEntry, error) {
	defer m.guard(ctx)()
	if _, ok := m.breaks[b.ID]; !ok {
		return timetracking.BreakEntry{}, timetracking.ErrBreakEntryNotFound
	}
	m.breaks[b.ID] = b.Clone()
	return b.Clone(), nil
}

func (m memBreaks) GetByID(ctx context.Context, id string) (timetracking.BreakEntry, error) {
	defer m.guard(ctx)()
	b, ok := m.breaks[id]
	if !ok {
		return timetracking.BreakEntry{}, timetracking.ErrBreakEntryNotFound
	}
	return b.Clone(), nil
}

func (m memBreaks) FindByTimeEntryID(ctx context.Context, timeEntryID string) ([]timetracking.BreakEntry, error) {
	defer m.guard(ctx)()
	return m.breaksOf(timeEntryID), nil
}

func (m *memStore) breaksOf(timeEntryID string) []timetracking.BreakEntry {
	var out []timetracking.BreakEntry
	for _, b := range m.breaks {
		if b.TimeEntryID == timeEntryID {
			out = append(out, b.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

// StatusRepository

type memStatus struct{ *memStore }

func (m memStatus) Lock(ctx context.Context, employeeID string) error {
	if ctx.Value(txKey{}) == nil {
		return errors.New("lock outside transaction")
	}
	m.locks = append(m.locks, employeeID)
	return nil
}

func (m memStatus) Refresh(ctx context.Context, employeeID string) (timetracking.EmployeeTimeStatus, error) {
	defer m.guard(ctx)()
	st := timetracking.EmployeeTimeStatus{
		EmployeeID:    employeeID,
		CurrentStatus: timetracking.ClockStatusClockedOut,
	}
	for _, e := range m.entries {
		if e.EmployeeID != employeeID || e.Status != timetracking.EntryStatusActive {
			continue
		}
		id := e.ID
		st.ActiveTimeEntryID = &id
		st.CurrentStatus = timetracking.ClockStatusClockedIn
		for _, b := range m.breaksOf(e.ID) {
			if b.IsOpen() {
				bid := b.ID
				st.ActiveBreakEntryID = &bid
				st.CurrentStatus = timetracking.ClockStatusOnBreak
			}
		}
	}
	m.statuses[employeeID] = st
	return st, nil
}

func (m memStatus) GetEmployeeTimeStatus(ctx context.Context, employeeID string, dayStart time.Time) (timetracking.EmployeeTimeStatus, error) {
	defer m.guard(ctx)()
	st, ok := m.statuses[employeeID]
	if !ok {
		st = timetracking.EmployeeTimeStatus{
			EmployeeID:    employeeID,
			CurrentStatus: timetracking.ClockStatusClockedOut,
		}
	}
	st.TotalHoursToday = 0
	for _, e := range m.entries {
		if e.EmployeeID == employeeID && e.Status == timetracking.EntryStatusCompleted &&
			e.TotalHours != nil && !e.ClockInTime.Before(dayStart) {
			st.TotalHoursToday += *e.TotalHours
		}
	}
	return st, nil
}

// fakeClock is a settable clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	store *memStore
	clock *fakeClock
	svc   *TimeTrackingServiceImpl
}

var baseTime = time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)

func newHarness(cfg timetracking.Config, opts ...Option) *harness {
	store := newMemStore()
	clock := &fakeClock{now: baseTime}
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	svc, err := NewTimeTrackingService(cfg, store, memEntries{store}, memBreaks{store}, memStatus{store}, opts...)
	if err != nil {
		panic(err)
	}
	return &harness{store: store, clock: clock, svc: svc}
}

func ptr[T any](v T) *T {
	return &v
}
