package timetracking

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/timetracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeHours(t *testing.T) {
	cfg := timetracking.DefaultConfig()
	in := baseTime
	at := func(d time.Duration) time.Time { return in.Add(d) }
	closed := func(bt timetracking.BreakType, paid bool, start, end time.Duration) timetracking.BreakEntry {
		e := at(end)
		return timetracking.BreakEntry{BreakType: bt, Paid: paid, StartTime: at(start), EndTime: &e}
	}

	tests := []struct {
		name       string
		out        time.Time
		breaks     []timetracking.BreakEntry
		enforceMax bool
		want       timetracking.HourSplit
		wantErr    error
	}{
		{
			name:       "regular day",
			out:        at(8 * time.Hour),
			enforceMax: true,
			want:       timetracking.HourSplit{Total: 8, Regular: 8, Overtime: 0},
		},
		{
			name:       "unpaid lunch is deducted",
			out:        at(10 * time.Hour),
			breaks:     []timetracking.BreakEntry{closed(timetracking.BreakTypeLunch, false, 4*time.Hour, 5*time.Hour)},
			enforceMax: true,
			want:       timetracking.HourSplit{Total: 9, Regular: 8, Overtime: 1},
		},
		{
			name:       "paid break is kept",
			out:        at(10 * time.Hour),
			breaks:     []timetracking.BreakEntry{closed(timetracking.BreakTypeShortBreak, true, 2*time.Hour, 2*time.Hour+30*time.Minute)},
			enforceMax: true,
			want:       timetracking.HourSplit{Total: 10, Regular: 8, Overtime: 2},
		},
		{
			name: "open unpaid break runs until clock-out",
			out:  at(10 * time.Hour),
			breaks: []timetracking.BreakEntry{{
				BreakType: timetracking.BreakTypePersonal,
				StartTime: at(9 * time.Hour),
			}},
			enforceMax: true,
			want:       timetracking.HourSplit{Total: 9, Regular: 8, Overtime: 1},
		},
		{
			name:       "unpaid break is clipped to the entry",
			out:        at(6 * time.Hour),
			breaks:     []timetracking.BreakEntry{closed(timetracking.BreakTypeLunch, false, 5*time.Hour, 7*time.Hour)},
			enforceMax: true,
			want:       timetracking.HourSplit{Total: 5, Regular: 5, Overtime: 0},
		},
		{
			name:       "fractional hours are rounded to two decimals",
			out:        at(7*time.Hour + 20*time.Minute),
			enforceMax: true,
			want:       timetracking.HourSplit{Total: 7.33, Regular: 7.33, Overtime: 0},
		},
		{
			name:       "above max daily hours",
			out:        at(17 * time.Hour),
			enforceMax: true,
			wantErr:    timetracking.ErrExceedsMaxDailyHours,
		},
		{
			name:       "above max daily hours without enforcement",
			out:        at(17 * time.Hour),
			enforceMax: false,
			want:       timetracking.HourSplit{Total: 17, Regular: 8, Overtime: 9},
		},
		{
			name:       "exactly max daily hours",
			out:        at(16 * time.Hour),
			enforceMax: true,
			want:       timetracking.HourSplit{Total: 16, Regular: 8, Overtime: 8},
		},
		{
			name:       "clock-out equal to clock-in",
			out:        in,
			enforceMax: true,
			wantErr:    timetracking.ErrClockOutBeforeClockIn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := computeHours(cfg, in, tt.out, tt.breaks, tt.enforceMax)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want.Total, got.Total, 0.001)
			assert.InDelta(t, tt.want.Regular, got.Regular, 0.001)
			assert.InDelta(t, tt.want.Overtime, got.Overtime, 0.001)
			assert.Nil(t, got.DoubleTime)
		})
	}
}

func TestSplitHours_DoubleTime(t *testing.T) {
	cfg := timetracking.DefaultConfig()
	cfg.DoubleTimeThreshold = ptr(12.0)

	tests := []struct {
		name     string
		worked   time.Duration
		regular  float64
		overtime float64
		double   float64
	}{
		{"below overtime", 6 * time.Hour, 6, 0, 0},
		{"overtime only", 10 * time.Hour, 8, 2, 0},
		{"double time", 14 * time.Hour, 8, 4, 2},
		{"exactly at double threshold", 12 * time.Hour, 8, 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitHours(cfg, tt.worked)
			require.NotNil(t, got.DoubleTime)
			assert.InDelta(t, tt.worked.Hours(), got.Total, 0.001)
			assert.InDelta(t, tt.regular, got.Regular, 0.001)
			assert.InDelta(t, tt.overtime, got.Overtime, 0.001)
			assert.InDelta(t, tt.double, *got.DoubleTime, 0.001)
			assert.InDelta(t, got.Total, got.Regular+got.Overtime+*got.DoubleTime, 0.001)
		})
	}
}

func TestOverlaps(t *testing.T) {
	at := func(h int) time.Time { return baseTime.Add(time.Duration(h) * time.Hour) }
	closed := func(from, to int) timetracking.Interval {
		end := at(to)
		return timetracking.Interval{Start: at(from), End: &end}
	}
	open := func(from int) timetracking.Interval {
		return timetracking.Interval{Start: at(from)}
	}

	tests := []struct {
		name string
		a, b timetracking.Interval
		want bool
	}{
		{"adjacent intervals do not overlap", closed(0, 4), closed(4, 8), false},
		{"partial overlap", closed(0, 5), closed(4, 8), true},
		{"containment", closed(0, 8), closed(2, 3), true},
		{"disjoint", closed(0, 2), closed(3, 4), false},
		{"open entry covers everything after its start", open(2), closed(5, 6), true},
		{"open entry after a closed one", open(4), closed(0, 4), false},
		{"open entry starting inside a closed one", open(3), closed(0, 4), true},
		{"two open entries", open(0), open(10), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, overlaps(tt.a, tt.b))
			assert.Equal(t, tt.want, overlaps(tt.b, tt.a))
		})
	}
}

func TestBreakMinutes(t *testing.T) {
	assert.Equal(t, 0, breakMinutes(baseTime, baseTime))
	assert.Equal(t, 59, breakMinutes(baseTime, baseTime.Add(59*time.Minute+59*time.Second)))
	assert.Equal(t, 90, breakMinutes(baseTime, baseTime.Add(90*time.Minute)))
}
