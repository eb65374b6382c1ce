package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/timetracking"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/pkg/validator"
	"github.com/jackc/pgx/v5"
)

const breakEntryColumns = `
	id, time_entry_id, break_type, start_time, end_time, paid, duration_minutes, created_at, updated_at`

type breakEntryRepository struct {
	db *database.DB
}

func scanBreakEntry(row pgx.Row) (timetracking.BreakEntry, error) {
	var b timetracking.BreakEntry
	err := row.Scan(
		&b.ID, &b.TimeEntryID, &b.BreakType, &b.StartTime, &b.EndTime,
		&b.Paid, &b.DurationMinutes, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return timetracking.BreakEntry{}, err
	}
	b.StartTime = b.StartTime.UTC()
	b.EndTime = utcPtr(b.EndTime)
	return b, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

// Create implements timetracking.BreakEntryRepository.
func (r *breakEntryRepository) Create(ctx context.Context, breakEntry timetracking.BreakEntry) (timetracking.BreakEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO break_entries (
			id, time_entry_id, break_type, start_time, end_time, paid, duration_minutes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + breakEntryColumns

	created, err := scanBreakEntry(q.QueryRow(ctx, query,
		breakEntry.ID, breakEntry.TimeEntryID, breakEntry.BreakType, breakEntry.StartTime, breakEntry.EndTime,
		breakEntry.Paid, breakEntry.DurationMinutes, breakEntry.CreatedAt, breakEntry.UpdatedAt,
	))
	if err != nil {
		return timetracking.BreakEntry{}, fmt.Errorf("failed to create break entry: %w", err)
	}
	return created, nil
}

// Update implements timetracking.BreakEntryRepository.
func (r *breakEntryRepository) Update(ctx context.Context, breakEntry timetracking.BreakEntry) (timetracking.BreakEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE break_entries SET
			break_type = $2,
			start_time = $3,
			end_time = $4,
			paid = $5,
			duration_minutes = $6,
			updated_at = $7
		WHERE id = $1
		RETURNING ` + breakEntryColumns

	updated, err := scanBreakEntry(q.QueryRow(ctx, query,
		breakEntry.ID, breakEntry.BreakType, breakEntry.StartTime, breakEntry.EndTime,
		breakEntry.Paid, breakEntry.DurationMinutes, breakEntry.UpdatedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timetracking.BreakEntry{}, timetracking.ErrBreakEntryNotFound
		}
		return timetracking.BreakEntry{}, fmt.Errorf("failed to update break entry: %w", err)
	}
	return updated, nil
}

// GetByID implements timetracking.BreakEntryRepository.
func (r *breakEntryRepository) GetByID(ctx context.Context, id string) (timetracking.BreakEntry, error) {
	if !validator.IsValidUUID(id) {
		return timetracking.BreakEntry{}, timetracking.ErrBreakEntryNotFound
	}
	q := GetQuerier(ctx, r.db)

	b, err := scanBreakEntry(q.QueryRow(ctx, `SELECT `+breakEntryColumns+` FROM break_entries WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timetracking.BreakEntry{}, timetracking.ErrBreakEntryNotFound
		}
		return timetracking.BreakEntry{}, fmt.Errorf("failed to get break entry: %w", err)
	}
	return b, nil
}

// FindByTimeEntryID implements timetracking.BreakEntryRepository.
func (r *breakEntryRepository) FindByTimeEntryID(ctx context.Context, timeEntryID string) ([]timetracking.BreakEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + breakEntryColumns + `
		FROM break_entries
		WHERE time_entry_id = $1
		ORDER BY start_time, id
	`

	rows, err := q.Query(ctx, query, timeEntryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query break entries: %w", err)
	}
	defer rows.Close()

	breaks := []timetracking.BreakEntry{}
	for rows.Next() {
		b, err := scanBreakEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan break entry: %w", err)
		}
		breaks = append(breaks, b)
	}
	return breaks, rows.Err()
}

func NewBreakEntryRepository(db *database.DB) timetracking.BreakEntryRepository {
	return &breakEntryRepository{db: db}
}
