package timetracking

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/pkg/validator"
)

// ========================================
// REQUEST DTOs
// ========================================

type LocationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (l *LocationRequest) validate(errs *validator.ValidationErrors) {
	if l == nil {
		return
	}
	if !validator.IsValidLatitude(l.Latitude) {
		*errs = append(*errs, validator.ValidationError{
			Field:   "location.latitude",
			Message: "latitude must be between -90 and 90",
		})
	}
	if !validator.IsValidLongitude(l.Longitude) {
		*errs = append(*errs, validator.ValidationError{
			Field:   "location.longitude",
			Message: "longitude must be between -180 and 180",
		})
	}
}

func (l *LocationRequest) toLocation() *Location {
	if l == nil {
		return nil
	}
	return &Location{Latitude: l.Latitude, Longitude: l.Longitude}
}

type ClockInRequest struct {
	EmployeeID  *string          `json:"employee_id,omitempty"` // on behalf of; defaults to the caller
	ClockInTime *string          `json:"clock_in_time,omitempty"`
	Location    *LocationRequest `json:"location,omitempty"`

	clockInTime *time.Time
}

func (r *ClockInRequest) Validate() error {
	var errs validator.ValidationErrors

	r.clockInTime = validator.OptionalDateTime(&errs, "clock_in_time", r.ClockInTime)
	r.Location.validate(&errs)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ToInput builds the engine input. Validate must have succeeded.
func (r *ClockInRequest) ToInput(employeeID, actorID string) ClockInInput {
	return ClockInInput{
		EmployeeID:  employeeID,
		ClockInTime: r.clockInTime,
		Location:    r.Location.toLocation(),
		ActorID:     actorID,
	}
}

type ClockOutRequest struct {
	EmployeeID   *string `json:"employee_id,omitempty"`
	ClockOutTime *string `json:"clock_out_time,omitempty"`

	clockOutTime *time.Time
}

func (r *ClockOutRequest) Validate() error {
	var errs validator.ValidationErrors

	r.clockOutTime = validator.OptionalDateTime(&errs, "clock_out_time", r.ClockOutTime)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func (r *ClockOutRequest) ToInput(employeeID, actorID string) ClockOutInput {
	return ClockOutInput{
		EmployeeID:   employeeID,
		ClockOutTime: r.clockOutTime,
		ActorID:      actorID,
	}
}

type StartBreakRequest struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	BreakType  string  `json:"break_type"`
	StartTime  *string `json:"start_time,omitempty"`
	Paid       *bool   `json:"paid,omitempty"`

	startTime *time.Time
}

func (r *StartBreakRequest) Validate() error {
	var errs validator.ValidationErrors

	r.BreakType = strings.ToUpper(strings.TrimSpace(r.BreakType))
	if validator.IsEmpty(r.BreakType) {
		errs = append(errs, validator.ValidationError{
			Field:   "break_type",
			Message: "break_type is required",
		})
	} else if !validator.IsInSlice(r.BreakType, BreakTypes()) {
		errs = append(errs, validator.ValidationError{
			Field:   "break_type",
			Message: "break_type must be one of: " + strings.Join(BreakTypes(), ", "),
		})
	}

	r.startTime = validator.OptionalDateTime(&errs, "start_time", r.StartTime)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func (r *StartBreakRequest) ToInput(employeeID, actorID string) StartBreakInput {
	return StartBreakInput{
		EmployeeID: employeeID,
		BreakType:  BreakType(r.BreakType),
		StartTime:  r.startTime,
		Paid:       r.Paid,
		ActorID:    actorID,
	}
}

type EndBreakRequest struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	EndTime    *string `json:"end_time,omitempty"`

	endTime *time.Time
}

func (r *EndBreakRequest) Validate() error {
	var errs validator.ValidationErrors

	r.endTime = validator.OptionalDateTime(&errs, "end_time", r.EndTime)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func (r *EndBreakRequest) ToInput(employeeID, actorID string) EndBreakInput {
	return EndBreakInput{
		EmployeeID: employeeID,
		EndTime:    r.endTime,
		ActorID:    actorID,
	}
}

type ManualEntryRequest struct {
	EmployeeID   *string          `json:"employee_id,omitempty"`
	ClockInTime  string           `json:"clock_in_time"`
	ClockOutTime string           `json:"clock_out_time"`
	Location     *LocationRequest `json:"location,omitempty"`
	Reason       string           `json:"reason"`

	clockInTime  time.Time
	clockOutTime time.Time
}

func (r *ManualEntryRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ClockInTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "clock_in_time",
			Message: "clock_in_time is required",
		})
	} else if t := validator.OptionalDateTime(&errs, "clock_in_time", &r.ClockInTime); t != nil {
		r.clockInTime = *t
	}

	if validator.IsEmpty(r.ClockOutTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "clock_out_time",
			Message: "clock_out_time is required",
		})
	} else if t := validator.OptionalDateTime(&errs, "clock_out_time", &r.ClockOutTime); t != nil {
		r.clockOutTime = *t
	}

	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	} else if len(r.Reason) > 500 {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason must not exceed 500 characters",
		})
	}

	r.Location.validate(&errs)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func (r *ManualEntryRequest) ToInput(employeeID, submittedBy string) ManualEntryInput {
	return ManualEntryInput{
		EmployeeID:   employeeID,
		ClockInTime:  r.clockInTime,
		ClockOutTime: r.clockOutTime,
		Location:     r.Location.toLocation(),
		Reason:       strings.TrimSpace(r.Reason),
		SubmittedBy:  submittedBy,
	}
}

type CorrectionRequest struct {
	ClockInTime  *string          `json:"clock_in_time,omitempty"`
	ClockOutTime *string          `json:"clock_out_time,omitempty"`
	Location     *LocationRequest `json:"location,omitempty"`
	Reason       string           `json:"reason"`

	changes TimeEntryChanges
}

func (r *CorrectionRequest) Validate() error {
	var errs validator.ValidationErrors

	r.changes.ClockInTime = validator.OptionalDateTime(&errs, "clock_in_time", r.ClockInTime)
	r.changes.ClockOutTime = validator.OptionalDateTime(&errs, "clock_out_time", r.ClockOutTime)
	r.Location.validate(&errs)
	r.changes.Location = r.Location.toLocation()

	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	}

	if len(errs) == 0 && r.changes.IsEmpty() {
		errs = append(errs, validator.ValidationError{
			Field:   "changes",
			Message: "at least one of clock_in_time, clock_out_time or location is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func (r *CorrectionRequest) ToInput(timeEntryID, requestedBy string, onBehalf bool) CorrectionInput {
	return CorrectionInput{
		TimeEntryID: timeEntryID,
		Changes:     r.changes,
		Reason:      strings.TrimSpace(r.Reason),
		RequestedBy: requestedBy,
		OnBehalf:    onBehalf,
	}
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

func (r *RejectRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "rejection reason is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type TimeEntryListFilter struct {
	EmployeeID  *string `json:"employee_id,omitempty"`
	Status      *string `json:"status,omitempty"`
	ManualEntry *bool   `json:"manual_entry,omitempty"`
	StartDate   *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate     *string `json:"end_date,omitempty"`   // YYYY-MM-DD, inclusive

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	// Sorting
	SortBy    string `json:"sort_by"`    // clock_in_time, clock_out_time, created_at, status
	SortOrder string `json:"sort_order"` // asc, desc
}

func (f *TimeEntryListFilter) Validate() error {
	var errs validator.ValidationErrors

	// Page validation
	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1
	}

	// Limit validation
	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.Status != nil {
		validStatuses := []string{string(EntryStatusActive), string(EntryStatusCompleted), string(EntryStatusPendingApproval)}
		if !validator.IsInSlice(*f.Status, validStatuses) {
			errs = append(errs, validator.ValidationError{
				Field:   "status",
				Message: "status must be one of: " + strings.Join(validStatuses, ", "),
			})
		}
	}

	var start, end time.Time
	if f.StartDate != nil && *f.StartDate != "" {
		var valid bool
		if start, valid = validator.IsValidDate(*f.StartDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}
	if f.EndDate != nil && *f.EndDate != "" {
		var valid bool
		if end, valid = validator.IsValidDate(*f.EndDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must be on or after start_date",
		})
	}

	if f.SortBy != "" {
		validSortFields := []string{"clock_in_time", "clock_out_time", "created_at", "status"}
		if !validator.IsInSlice(f.SortBy, validSortFields) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_by",
				Message: "sort_by must be one of: clock_in_time, clock_out_time, created_at, status",
			})
		}
	} else {
		f.SortBy = "clock_in_time"
	}

	if f.SortOrder != "" {
		f.SortOrder = strings.ToLower(f.SortOrder)
		if !validator.IsInSlice(f.SortOrder, []string{"asc", "desc"}) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_order",
				Message: "sort_order must be one of: asc, desc",
			})
		}
	} else {
		f.SortOrder = "desc" // newest first
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ToQuery converts a validated filter into repository terms. Dates are UTC days.
func (f *TimeEntryListFilter) ToQuery() (TimeEntryFilter, Pagination) {
	filter := TimeEntryFilter{
		EmployeeID:  f.EmployeeID,
		ManualEntry: f.ManualEntry,
	}
	if f.Status != nil {
		status := EntryStatus(*f.Status)
		filter.Status = &status
	}
	if f.StartDate != nil && *f.StartDate != "" {
		if start, ok := validator.IsValidDate(*f.StartDate); ok {
			filter.ClockInFrom = &start
		}
	}
	if f.EndDate != nil && *f.EndDate != "" {
		if end, ok := validator.IsValidDate(*f.EndDate); ok {
			before := end.AddDate(0, 0, 1)
			filter.ClockInBefore = &before
		}
	}
	return filter, Pagination{Page: f.Page, Limit: f.Limit, SortBy: f.SortBy, SortOrder: f.SortOrder}
}

// ========================================
// RESPONSE DTOs
// ========================================

type LocationResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type TimeEntryResponse struct {
	ID              string            `json:"id"`
	EmployeeID      string            `json:"employee_id"`
	ClockInTime     *string           `json:"clock_in_time,omitempty"`
	ClockOutTime    *string           `json:"clock_out_time,omitempty"`
	Status          *string           `json:"status,omitempty"`
	ManualEntry     bool              `json:"manual_entry"`
	TotalHours      *float64          `json:"total_hours,omitempty"`
	RegularHours    *float64          `json:"regular_hours,omitempty"`
	OvertimeHours   *float64          `json:"overtime_hours,omitempty"`
	DoubleTimeHours *float64          `json:"double_time_hours,omitempty"`
	Location        *LocationResponse `json:"location,omitempty"`
	ApprovedBy      *string           `json:"approved_by,omitempty"`
	ApprovedAt      *string           `json:"approved_at,omitempty"`
	Reason          *string           `json:"reason,omitempty"`
	SubmittedBy     *string           `json:"submitted_by,omitempty"`
	PendingChange   *string           `json:"pending_change,omitempty"`
	BreakEntries    []string          `json:"break_entries"`
	Editable        []string          `json:"editable_fields,omitempty"`
	CreatedAt       string            `json:"created_at"`
	UpdatedAt       string            `json:"updated_at"`
}

// NewTimeEntryResponse renders e, leaving out every field access does not
// allow reading.
func NewTimeEntryResponse(e TimeEntry, access map[string]user.Access) TimeEntryResponse {
	resp := TimeEntryResponse{
		ID:           e.ID,
		EmployeeID:   e.EmployeeID,
		ManualEntry:  e.ManualEntry,
		BreakEntries: e.BreakEntries,
		CreatedAt:    e.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    e.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if resp.BreakEntries == nil {
		resp.BreakEntries = []string{}
	}

	if access[user.FieldClockInTime].CanRead() {
		resp.ClockInTime = formatTime(&e.ClockInTime)
	}
	if access[user.FieldClockOutTime].CanRead() {
		resp.ClockOutTime = formatTime(e.ClockOutTime)
	}
	if access[user.FieldStatus].CanRead() {
		status := string(e.Status)
		resp.Status = &status
	}
	if access[user.FieldHours].CanRead() {
		resp.TotalHours = e.TotalHours
		resp.RegularHours = e.RegularHours
		resp.OvertimeHours = e.OvertimeHours
		resp.DoubleTimeHours = e.DoubleTimeHours
	}
	if access[user.FieldLocation].CanRead() && e.Location != nil {
		resp.Location = &LocationResponse{Latitude: e.Location.Latitude, Longitude: e.Location.Longitude}
	}
	if access[user.FieldApproval].CanRead() {
		resp.ApprovedBy = e.ApprovedBy
		resp.ApprovedAt = formatTime(e.ApprovedAt)
	}
	if access[user.FieldReason].CanRead() {
		resp.Reason = e.Reason
		resp.SubmittedBy = e.SubmittedBy
	}
	if access[user.FieldPendingChange].CanRead() && e.Pending != nil {
		kind := string(e.Pending.Kind())
		resp.PendingChange = &kind
	}

	for _, field := range []string{user.FieldClockInTime, user.FieldClockOutTime, user.FieldLocation} {
		if access[field].CanWrite() {
			resp.Editable = append(resp.Editable, field)
		}
	}

	return resp
}

type BreakEntryResponse struct {
	ID              string  `json:"id"`
	TimeEntryID     string  `json:"time_entry_id"`
	BreakType       string  `json:"break_type"`
	StartTime       string  `json:"start_time"`
	EndTime         *string `json:"end_time,omitempty"`
	Paid            bool    `json:"paid"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

func NewBreakEntryResponse(b BreakEntry) BreakEntryResponse {
	return BreakEntryResponse{
		ID:              b.ID,
		TimeEntryID:     b.TimeEntryID,
		BreakType:       string(b.BreakType),
		StartTime:       b.StartTime.UTC().Format(time.RFC3339),
		EndTime:         formatTime(b.EndTime),
		Paid:            b.Paid,
		DurationMinutes: b.DurationMinutes,
		CreatedAt:       b.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       b.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type StatusResponse struct {
	EmployeeID         string  `json:"employee_id"`
	CurrentStatus      string  `json:"current_status"`
	ActiveTimeEntryID  *string `json:"active_time_entry_id,omitempty"`
	ActiveBreakEntryID *string `json:"active_break_entry_id,omitempty"`
	TotalHoursToday    float64 `json:"total_hours_today"`
	UpdatedAt          string  `json:"updated_at"`
}

func NewStatusResponse(s EmployeeTimeStatus) StatusResponse {
	return StatusResponse{
		EmployeeID:         s.EmployeeID,
		CurrentStatus:      string(s.CurrentStatus),
		ActiveTimeEntryID:  s.ActiveTimeEntryID,
		ActiveBreakEntryID: s.ActiveBreakEntryID,
		TotalHoursToday:    s.TotalHoursToday,
		UpdatedAt:          s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// OutcomeResponse is returned by every mutating endpoint.
type OutcomeResponse struct {
	TimeEntry *TimeEntryResponse  `json:"time_entry,omitempty"`
	Break     *BreakEntryResponse `json:"break,omitempty"`
	Deleted   bool                `json:"deleted,omitempty"`
	Status    StatusResponse      `json:"status"`
}

func NewOutcomeResponse(o Outcome, access map[string]user.Access) OutcomeResponse {
	resp := OutcomeResponse{
		Deleted: o.Deleted,
		Status:  NewStatusResponse(o.Status),
	}
	if o.Entry != nil && !o.Deleted {
		entry := NewTimeEntryResponse(*o.Entry, access)
		resp.TimeEntry = &entry
	}
	if o.Break != nil {
		b := NewBreakEntryResponse(*o.Break)
		resp.Break = &b
	}
	return resp
}

type ListTimeEntriesResponse struct {
	TotalCount int64               `json:"total_count"`
	Page       int                 `json:"page"`
	Limit      int                 `json:"limit"`
	TotalPages int                 `json:"total_pages"`
	Showing    string              `json:"showing"`
	Entries    []TimeEntryResponse `json:"entries"`
}

func NewListTimeEntriesResponse(entries []TimeEntryResponse, total int64, page Pagination) ListTimeEntriesResponse {
	resp := ListTimeEntriesResponse{
		TotalCount: total,
		Page:       page.Page,
		Limit:      page.Limit,
		Entries:    entries,
	}
	if resp.Entries == nil {
		resp.Entries = []TimeEntryResponse{}
	}
	if page.Limit > 0 {
		resp.TotalPages = int(math.Ceil(float64(total) / float64(page.Limit)))
	}
	resp.Showing = fmt.Sprintf("%d-%d of %d", (page.Page-1)*page.Limit+1, (page.Page-1)*page.Limit+len(entries), total)
	if total == 0 || len(entries) == 0 {
		resp.Showing = fmt.Sprintf("0 of %d", total)
	}
	return resp
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

// StreamTokenResponse carries the short-lived token for the status stream.
type StreamTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}
