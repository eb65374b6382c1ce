package timetracking

import (
	"math"
	"time"

	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/timetracking"
)

// computeHours splits the worked time of [in, out) into pay buckets. Unpaid
// breaks are clipped to the interval; an open break runs until out.
// enforceMax rejects splits above MaxDailyHours.
func computeHours(cfg timetracking.Config, in, out time.Time, breaks []timetracking.BreakEntry, enforceMax bool) (timetracking.HourSplit, error) {
	if !out.After(in) {
		return timetracking.HourSplit{}, timetracking.ErrClockOutBeforeClockIn
	}

	worked := out.Sub(in) - unpaidBreakTime(in, out, breaks)
	if worked < 0 {
		worked = 0
	}
	if enforceMax && worked > cfg.MaxDaily() {
		return timetracking.HourSplit{}, timetracking.ErrExceedsMaxDailyHours
	}

	return splitHours(cfg, worked), nil
}

// unpaidBreakTime sums the part of every unpaid break that falls inside [in, out).
func unpaidBreakTime(in, out time.Time, breaks []timetracking.BreakEntry) time.Duration {
	var unpaid time.Duration
	for _, b := range breaks {
		if b.Paid {
			continue
		}
		end := out
		if b.EndTime != nil {
			end = *b.EndTime
		}
		unpaid += intersection(b.StartTime, end, in, out)
	}
	return unpaid
}

func intersection(aStart, aEnd, bStart, bEnd time.Time) time.Duration {
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	if !end.After(start) {
		return 0
	}
	return end.Sub(start)
}

// splitHours works in hundredths of an hour so that the buckets always add
// up to the rounded total.
func splitHours(cfg timetracking.Config, worked time.Duration) timetracking.HourSplit {
	total := toCentiHours(worked.Hours())
	regular := min(total, toCentiHours(cfg.OvertimeThreshold))

	var double int64
	if cfg.DoubleTimeThreshold != nil {
		double = max(0, total-toCentiHours(*cfg.DoubleTimeThreshold))
	}
	overtime := total - regular - double

	split := timetracking.HourSplit{
		Total:    fromCentiHours(total),
		Regular:  fromCentiHours(regular),
		Overtime: fromCentiHours(overtime),
	}
	if cfg.DoubleTimeThreshold != nil {
		d := fromCentiHours(double)
		split.DoubleTime = &d
	}
	return split
}

func toCentiHours(h float64) int64 {
	return int64(math.Round(h * 100))
}

func fromCentiHours(c int64) float64 {
	return float64(c) / 100
}

// breakMinutes is the whole number of minutes between start and end.
func breakMinutes(start, end time.Time) int {
	return int(end.Sub(start) / time.Minute)
}
