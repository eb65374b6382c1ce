package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/timetracking"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/pkg/database"
)

type timeStatusRepository struct {
	db *database.DB
}

// Lock implements timetracking.StatusRepository. The status row is created
// on first use so there is always a row to lock.
func (r *timeStatusRepository) Lock(ctx context.Context, employeeID string) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `
		INSERT INTO employee_time_status (employee_id, current_status, updated_at)
		VALUES ($1, 'CLOCKED_OUT', NOW())
		ON CONFLICT (employee_id) DO NOTHING
	`, employeeID)
	if err != nil {
		return fmt.Errorf("failed to create employee time status: %w", err)
	}

	var locked string
	err = q.QueryRow(ctx, `
		SELECT employee_id FROM employee_time_status WHERE employee_id = $1 FOR UPDATE
	`, employeeID).Scan(&locked)
	if err != nil {
		return fmt.Errorf("failed to lock employee time status: %w", err)
	}
	return nil
}

// Refresh implements timetracking.StatusRepository.
func (r *timeStatusRepository) Refresh(ctx context.Context, employeeID string) (timetracking.EmployeeTimeStatus, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		WITH active AS (
			SELECT t.id
			FROM time_entries t
			WHERE t.employee_id = $1 AND t.status = 'ACTIVE'
			LIMIT 1
		), open_break AS (
			SELECT b.id
			FROM break_entries b
			JOIN active a ON a.id = b.time_entry_id
			WHERE b.end_time IS NULL
			ORDER BY b.start_time DESC
			LIMIT 1
		)
		INSERT INTO employee_time_status (
			employee_id, current_status, active_time_entry_id, active_break_entry_id, updated_at
		) VALUES (
			$1,
			CASE
				WHEN EXISTS (SELECT 1 FROM open_break) THEN 'ON_BREAK'
				WHEN EXISTS (SELECT 1 FROM active) THEN 'CLOCKED_IN'
				ELSE 'CLOCKED_OUT'
			END,
			(SELECT id FROM active),
			(SELECT id FROM open_break),
			NOW()
		)
		ON CONFLICT (employee_id) DO UPDATE SET
			current_status = EXCLUDED.current_status,
			active_time_entry_id = EXCLUDED.active_time_entry_id,
			active_break_entry_id = EXCLUDED.active_break_entry_id,
			updated_at = EXCLUDED.updated_at
		RETURNING employee_id, current_status, active_time_entry_id, active_break_entry_id, updated_at
	`

	var st timetracking.EmployeeTimeStatus
	err := q.QueryRow(ctx, query, employeeID).Scan(
		&st.EmployeeID, &st.CurrentStatus, &st.ActiveTimeEntryID, &st.ActiveBreakEntryID, &st.UpdatedAt,
	)
	if err != nil {
		return timetracking.EmployeeTimeStatus{}, fmt.Errorf("failed to refresh employee time status: %w", err)
	}
	st.UpdatedAt = st.UpdatedAt.UTC()
	return st, nil
}

// GetEmployeeTimeStatus implements timetracking.StatusRepository. Employees
// without a status row are reported as clocked out.
func (r *timeStatusRepository) GetEmployeeTimeStatus(ctx context.Context, employeeID string, dayStart time.Time) (timetracking.EmployeeTimeStatus, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			$1::uuid::text,
			COALESCE(s.current_status, 'CLOCKED_OUT'),
			s.active_time_entry_id::text,
			s.active_break_entry_id::text,
			COALESCE(s.updated_at, NOW()),
			COALESCE((
				SELECT ROUND(SUM(t.total_hours)::numeric, 2)::float8
				FROM time_entries t
				WHERE t.employee_id = $1
				  AND t.status = 'COMPLETED'
				  AND t.clock_in_time >= $2
			), 0)
		FROM (SELECT 1) AS one
		LEFT JOIN employee_time_status s ON s.employee_id = $1
	`

	var st timetracking.EmployeeTimeStatus
	err := q.QueryRow(ctx, query, employeeID, dayStart).Scan(
		&st.EmployeeID, &st.CurrentStatus, &st.ActiveTimeEntryID, &st.ActiveBreakEntryID,
		&st.UpdatedAt, &st.TotalHoursToday,
	)
	if err != nil {
		return timetracking.EmployeeTimeStatus{}, fmt.Errorf("failed to get employee time status: %w", err)
	}
	st.UpdatedAt = st.UpdatedAt.UTC()
	return st, nil
}

func NewTimeStatusRepository(db *database.DB) timetracking.StatusRepository {
	return &timeStatusRepository{db: db}
}
