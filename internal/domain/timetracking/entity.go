package timetracking

import (
	"time"
)

type EntryStatus string

const (
	EntryStatusActive          EntryStatus = "ACTIVE"
	EntryStatusCompleted       EntryStatus = "COMPLETED"
	EntryStatusPendingApproval EntryStatus = "PENDING_APPROVAL"
)

type ClockStatus string

const (
	ClockStatusClockedOut ClockStatus = "CLOCKED_OUT"
	ClockStatusClockedIn  ClockStatus = "CLOCKED_IN"
	ClockStatusOnBreak    ClockStatus = "ON_BREAK"
)

type BreakType string

const (
	BreakTypeLunch      BreakType = "LUNCH"
	BreakTypeShortBreak BreakType = "SHORT_BREAK"
	BreakTypeRest       BreakType = "REST"
	BreakTypePersonal   BreakType = "PERSONAL"
	BreakTypeOther      BreakType = "OTHER"
)

// breakPaidDefaults decides whether a break counts as worked time when the
// caller does not say otherwise.
var breakPaidDefaults = map[BreakType]bool{
	BreakTypeLunch:      false,
	BreakTypeShortBreak: true,
	BreakTypeRest:       true,
	BreakTypePersonal:   false,
	BreakTypeOther:      false,
}

// IsValid reports whether t is a known break type.
func (t BreakType) IsValid() bool {
	_, ok := breakPaidDefaults[t]
	return ok
}

// DefaultPaid returns the paid flag used when the caller does not override it.
func (t BreakType) DefaultPaid() bool {
	return breakPaidDefaults[t]
}

// BreakTypes lists the accepted break types in a stable order.
func BreakTypes() []string {
	return []string{
		string(BreakTypeLunch),
		string(BreakTypeShortBreak),
		string(BreakTypeRest),
		string(BreakTypePersonal),
		string(BreakTypeOther),
	}
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type TimeEntry struct {
	ID              string        `json:"id"`
	EmployeeID      string        `json:"employee_id"`
	ClockInTime     time.Time     `json:"clock_in_time"`
	ClockOutTime    *time.Time    `json:"clock_out_time,omitempty"`
	Status          EntryStatus   `json:"status"`
	ManualEntry     bool          `json:"manual_entry"`
	TotalHours      *float64      `json:"total_hours,omitempty"`
	RegularHours    *float64      `json:"regular_hours,omitempty"`
	OvertimeHours   *float64      `json:"overtime_hours,omitempty"`
	DoubleTimeHours *float64      `json:"double_time_hours,omitempty"`
	Location        *Location     `json:"location,omitempty"`
	ApprovedBy      *string       `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time    `json:"approved_at,omitempty"`
	Reason          *string       `json:"reason,omitempty"`
	SubmittedBy     *string       `json:"submitted_by,omitempty"`
	Pending         PendingChange `json:"pending_change,omitempty"`
	BreakEntries    []string      `json:"break_entries"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// IsOpen reports whether the entry has no clock-out yet.
func (e TimeEntry) IsOpen() bool {
	return e.ClockOutTime == nil
}

// Interval returns the half-open interval covered by the entry. Open entries
// extend forever.
func (e TimeEntry) Interval() Interval {
	return Interval{Start: e.ClockInTime, End: e.ClockOutTime}
}

// ReservedIntervals returns every interval the entry may end up covering. A
// pending correction holds both the proposed and the previous interval until
// it is approved or rejected.
func (e TimeEntry) ReservedIntervals() []Interval {
	reserved := []Interval{e.Interval()}
	if c, ok := e.Pending.(PendingCorrection); ok {
		reserved = append(reserved, c.Previous.Interval())
	}
	return reserved
}

// Clone returns a deep copy of the entry.
func (e TimeEntry) Clone() TimeEntry {
	c := e
	c.ClockOutTime = copyTime(e.ClockOutTime)
	c.TotalHours = copyFloat(e.TotalHours)
	c.RegularHours = copyFloat(e.RegularHours)
	c.OvertimeHours = copyFloat(e.OvertimeHours)
	c.DoubleTimeHours = copyFloat(e.DoubleTimeHours)
	c.Location = copyLocation(e.Location)
	c.ApprovedBy = copyString(e.ApprovedBy)
	c.ApprovedAt = copyTime(e.ApprovedAt)
	c.Reason = copyString(e.Reason)
	c.SubmittedBy = copyString(e.SubmittedBy)
	c.BreakEntries = append([]string(nil), e.BreakEntries...)
	return c
}

// Snapshot captures the correctable values of the entry.
func (e TimeEntry) Snapshot() EntrySnapshot {
	return EntrySnapshot{
		ClockInTime:     e.ClockInTime,
		ClockOutTime:    copyTime(e.ClockOutTime),
		Location:        copyLocation(e.Location),
		TotalHours:      copyFloat(e.TotalHours),
		RegularHours:    copyFloat(e.RegularHours),
		OvertimeHours:   copyFloat(e.OvertimeHours),
		DoubleTimeHours: copyFloat(e.DoubleTimeHours),
		ApprovedBy:      copyString(e.ApprovedBy),
		ApprovedAt:      copyTime(e.ApprovedAt),
		Reason:          copyString(e.Reason),
		SubmittedBy:     copyString(e.SubmittedBy),
	}
}

func (s EntrySnapshot) Interval() Interval {
	return Interval{Start: s.ClockInTime, End: copyTime(s.ClockOutTime)}
}

// Restore puts the values of s back onto the entry.
func (e *TimeEntry) Restore(s EntrySnapshot) {
	e.ClockInTime = s.ClockInTime
	e.ClockOutTime = copyTime(s.ClockOutTime)
	e.Location = copyLocation(s.Location)
	e.TotalHours = copyFloat(s.TotalHours)
	e.RegularHours = copyFloat(s.RegularHours)
	e.OvertimeHours = copyFloat(s.OvertimeHours)
	e.DoubleTimeHours = copyFloat(s.DoubleTimeHours)
	e.ApprovedBy = copyString(s.ApprovedBy)
	e.ApprovedAt = copyTime(s.ApprovedAt)
	e.Reason = copyString(s.Reason)
	e.SubmittedBy = copyString(s.SubmittedBy)
}

// ApplyHours stores a computed split on the entry.
func (e *TimeEntry) ApplyHours(h HourSplit) {
	e.TotalHours = &h.Total
	e.RegularHours = &h.Regular
	e.OvertimeHours = &h.Overtime
	e.DoubleTimeHours = h.DoubleTime
}

// ClearHours unsets every hour field.
func (e *TimeEntry) ClearHours() {
	e.TotalHours = nil
	e.RegularHours = nil
	e.OvertimeHours = nil
	e.DoubleTimeHours = nil
}

// EntrySnapshot is the set of values a correction may change, kept so a
// rejected correction can be rolled back exactly.
type EntrySnapshot struct {
	ClockInTime     time.Time  `json:"clock_in_time"`
	ClockOutTime    *time.Time `json:"clock_out_time,omitempty"`
	Location        *Location  `json:"location,omitempty"`
	TotalHours      *float64   `json:"total_hours,omitempty"`
	RegularHours    *float64   `json:"regular_hours,omitempty"`
	OvertimeHours   *float64   `json:"overtime_hours,omitempty"`
	DoubleTimeHours *float64   `json:"double_time_hours,omitempty"`
	ApprovedBy      *string    `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	Reason          *string    `json:"reason,omitempty"`
	SubmittedBy     *string    `json:"submitted_by,omitempty"`
}

type BreakEntry struct {
	ID              string     `json:"id"`
	TimeEntryID     string     `json:"time_entry_id"`
	BreakType       BreakType  `json:"break_type"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	Paid            bool       `json:"paid"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsOpen reports whether the break has not ended yet.
func (b BreakEntry) IsOpen() bool {
	return b.EndTime == nil
}

// Clone returns a deep copy of the break.
func (b BreakEntry) Clone() BreakEntry {
	c := b
	c.EndTime = copyTime(b.EndTime)
	if b.DurationMinutes != nil {
		d := *b.DurationMinutes
		c.DurationMinutes = &d
	}
	return c
}

// EmployeeTimeStatus is the derived "what is the employee doing now" view.
type EmployeeTimeStatus struct {
	EmployeeID         string
	CurrentStatus      ClockStatus
	ActiveTimeEntryID  *string
	ActiveBreakEntryID *string
	TotalHoursToday    float64
	UpdatedAt          time.Time
}

// HourSplit is the result of splitting worked time into pay buckets.
type HourSplit struct {
	Total      float64
	Regular    float64
	Overtime   float64
	DoubleTime *float64
}

// Interval is a half-open time range [Start, End). A nil End means the range
// is still open.
type Interval struct {
	Start time.Time
	End   *time.Time
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyLocation(l *Location) *Location {
	if l == nil {
		return nil
	}
	v := *l
	return &v
}
