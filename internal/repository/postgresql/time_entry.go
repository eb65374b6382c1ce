package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/timetracking"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/pkg/validator"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const activeEntryConstraint = "time_entries_one_active_per_employee"

const timeEntryColumns = `
	t.id, t.employee_id, t.clock_in_time, t.clock_out_time, t.status, t.manual_entry,
	t.total_hours, t.regular_hours, t.overtime_hours, t.double_time_hours,
	t.latitude, t.longitude, t.approved_by, t.approved_at, t.reason, t.submitted_by,
	t.pending_change,
	ARRAY(SELECT b.id::text FROM break_entries b WHERE b.time_entry_id = t.id ORDER BY b.start_time, b.id) AS break_ids,
	t.created_at, t.updated_at`

type timeEntryRepository struct {
	db *database.DB
}

func scanTimeEntry(row pgx.Row) (timetracking.TimeEntry, error) {
	var (
		e        timetracking.TimeEntry
		lat, lng *float64
		pending  []byte
		breakIDs []string
	)
	err := row.Scan(
		&e.ID, &e.EmployeeID, &e.ClockInTime, &e.ClockOutTime, &e.Status, &e.ManualEntry,
		&e.TotalHours, &e.RegularHours, &e.OvertimeHours, &e.DoubleTimeHours,
		&lat, &lng, &e.ApprovedBy, &e.ApprovedAt, &e.Reason, &e.SubmittedBy,
		&pending,
		&breakIDs,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return timetracking.TimeEntry{}, err
	}

	if lat != nil && lng != nil {
		e.Location = &timetracking.Location{Latitude: *lat, Longitude: *lng}
	}
	e.Pending, err = timetracking.DecodePending(pending)
	if err != nil {
		return timetracking.TimeEntry{}, err
	}
	e.BreakEntries = breakIDs
	if e.BreakEntries == nil {
		e.BreakEntries = []string{}
	}
	e.ClockInTime = e.ClockInTime.UTC()
	e.ClockOutTime = utcPtr(e.ClockOutTime)
	e.ApprovedAt = utcPtr(e.ApprovedAt)

	return e, nil
}

func locationArgs(l *timetracking.Location) (lat, lng *float64) {
	if l == nil {
		return nil, nil
	}
	return &l.Latitude, &l.Longitude
}

// mapWriteError turns a violation of the one-active-entry index into the
// domain conflict.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if pgErr.ConstraintName == activeEntryConstraint {
				return timetracking.ErrActiveEntryExists
			}
		}
	}
	return err
}

// Create implements timetracking.TimeEntryRepository.
func (r *timeEntryRepository) Create(ctx context.Context, entry timetracking.TimeEntry) (timetracking.TimeEntry, error) {
	q := GetQuerier(ctx, r.db)

	pending, err := timetracking.EncodePending(entry.Pending)
	if err != nil {
		return timetracking.TimeEntry{}, err
	}
	lat, lng := locationArgs(entry.Location)

	query := `
		INSERT INTO time_entries (
			id, employee_id, clock_in_time, clock_out_time, status, manual_entry,
			total_hours, regular_hours, overtime_hours, double_time_hours,
			latitude, longitude, approved_by, approved_at, reason, submitted_by,
			pending_change, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19
		)
	`

	_, err = q.Exec(ctx, query,
		entry.ID, entry.EmployeeID, entry.ClockInTime, entry.ClockOutTime, entry.Status, entry.ManualEntry,
		entry.TotalHours, entry.RegularHours, entry.OvertimeHours, entry.DoubleTimeHours,
		lat, lng, entry.ApprovedBy, entry.ApprovedAt, entry.Reason, entry.SubmittedBy,
		pending, entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		if mapped := mapWriteError(err); mapped != err {
			return timetracking.TimeEntry{}, mapped
		}
		return timetracking.TimeEntry{}, fmt.Errorf("failed to create time entry: %w", err)
	}

	return r.GetByID(ctx, entry.ID)
}

// Update implements timetracking.TimeEntryRepository.
func (r *timeEntryRepository) Update(ctx context.Context, entry timetracking.TimeEntry) (timetracking.TimeEntry, error) {
	q := GetQuerier(ctx, r.db)

	pending, err := timetracking.EncodePending(entry.Pending)
	if err != nil {
		return timetracking.TimeEntry{}, err
	}
	lat, lng := locationArgs(entry.Location)

	query := `
		UPDATE time_entries SET
			clock_in_time = $2,
			clock_out_time = $3,
			status = $4,
			manual_entry = $5,
			total_hours = $6,
			regular_hours = $7,
			overtime_hours = $8,
			double_time_hours = $9,
			latitude = $10,
			longitude = $11,
			approved_by = $12,
			approved_at = $13,
			reason = $14,
			submitted_by = $15,
			pending_change = $16,
			updated_at = $17
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		entry.ID, entry.ClockInTime, entry.ClockOutTime, entry.Status, entry.ManualEntry,
		entry.TotalHours, entry.RegularHours, entry.OvertimeHours, entry.DoubleTimeHours,
		lat, lng, entry.ApprovedBy, entry.ApprovedAt, entry.Reason, entry.SubmittedBy,
		pending, entry.UpdatedAt,
	)
	if err != nil {
		if mapped := mapWriteError(err); mapped != err {
			return timetracking.TimeEntry{}, mapped
		}
		return timetracking.TimeEntry{}, fmt.Errorf("failed to update time entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return timetracking.TimeEntry{}, timetracking.ErrTimeEntryNotFound
	}

	return r.GetByID(ctx, entry.ID)
}

// Delete implements timetracking.TimeEntryRepository. Breaks go with the
// entry through ON DELETE CASCADE.
func (r *timeEntryRepository) Delete(ctx context.Context, id string) error {
	if !validator.IsValidUUID(id) {
		return timetracking.ErrTimeEntryNotFound
	}
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM time_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete time entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return timetracking.ErrTimeEntryNotFound
	}
	return nil
}

// GetByID implements timetracking.TimeEntryRepository. Ids that are not
// UUIDv7 cannot exist and are reported as not found.
func (r *timeEntryRepository) GetByID(ctx context.Context, id string) (timetracking.TimeEntry, error) {
	if !validator.IsValidUUID(id) {
		return timetracking.TimeEntry{}, timetracking.ErrTimeEntryNotFound
	}
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + timeEntryColumns + ` FROM time_entries t WHERE t.id = $1`

	entry, err := scanTimeEntry(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timetracking.TimeEntry{}, timetracking.ErrTimeEntryNotFound
		}
		return timetracking.TimeEntry{}, fmt.Errorf("failed to get time entry: %w", err)
	}
	return entry, nil
}

// FindAll implements timetracking.TimeEntryRepository.
func (r *timeEntryRepository) FindAll(ctx context.Context, filter timetracking.TimeEntryFilter, page timetracking.Pagination) ([]timetracking.TimeEntry, int64, error) {
	q := GetQuerier(ctx, r.db)

	// Build WHERE clause
	baseWhere := "TRUE"
	args := []interface{}{}
	argIdx := 1

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		baseWhere += fmt.Sprintf(" AND t.employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.Status != nil {
		baseWhere += fmt.Sprintf(" AND t.status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.ManualEntry != nil {
		baseWhere += fmt.Sprintf(" AND t.manual_entry = $%d", argIdx)
		args = append(args, *filter.ManualEntry)
		argIdx++
	}
	if filter.ClockInFrom != nil {
		baseWhere += fmt.Sprintf(" AND t.clock_in_time >= $%d", argIdx)
		args = append(args, *filter.ClockInFrom)
		argIdx++
	}
	if filter.ClockInBefore != nil {
		baseWhere += fmt.Sprintf(" AND t.clock_in_time < $%d", argIdx)
		args = append(args, *filter.ClockInBefore)
		argIdx++
	}
	if filter.EndsAfter != nil {
		baseWhere += fmt.Sprintf(" AND (t.clock_out_time IS NULL OR t.clock_out_time > $%d)", argIdx)
		args = append(args, *filter.EndsAfter)
		argIdx++
	}
	if filter.ExcludeID != nil {
		baseWhere += fmt.Sprintf(" AND t.id <> $%d", argIdx)
		args = append(args, *filter.ExcludeID)
		argIdx++
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM time_entries t WHERE ` + baseWhere
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count time entries: %w", err)
	}

	// Build ORDER BY
	orderByField := "t.clock_in_time"
	switch page.SortBy {
	case "clock_out_time":
		orderByField = "t.clock_out_time"
	case "created_at":
		orderByField = "t.created_at"
	case "status":
		orderByField = "t.status"
	}
	sortOrder := "DESC"
	if strings.ToLower(page.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM time_entries t
		WHERE %s
		ORDER BY %s %s NULLS LAST, t.id
	`, timeEntryColumns, baseWhere, orderByField, sortOrder)

	if page.Limit > 0 {
		pageNum := max(page.Page, 1)
		selectQuery += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
		args = append(args, page.Limit, (pageNum-1)*page.Limit)
	}

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query time entries: %w", err)
	}
	defer rows.Close()

	entries := []timetracking.TimeEntry{}
	for rows.Next() {
		entry, err := scanTimeEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan time entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration error: %w", err)
	}

	return entries, total, nil
}

// FindIncompleteTimeEntries implements timetracking.TimeEntryRepository.
func (r *timeEntryRepository) FindIncompleteTimeEntries(ctx context.Context, employeeID string) ([]timetracking.TimeEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + timeEntryColumns + `
		FROM time_entries t
		WHERE t.employee_id = $1 AND t.clock_out_time IS NULL
		ORDER BY t.clock_in_time
	`

	rows, err := q.Query(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query incomplete time entries: %w", err)
	}
	defer rows.Close()

	var entries []timetracking.TimeEntry
	for rows.Next() {
		entry, err := scanTimeEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan time entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func NewTimeEntryRepository(db *database.DB) timetracking.TimeEntryRepository {
	return &timeEntryRepository{db: db}
}
