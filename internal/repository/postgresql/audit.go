package postgresql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/audit"
	"github.com/cmlabs-hris/hris-timetracking-go/internal/pkg/database"
	"github.com/google/uuid"
)

type auditRepository struct {
	db *database.DB
}

// Record implements audit.Recorder.
func (r *auditRepository) Record(ctx context.Context, change audit.Change) error {
	q := GetQuerier(ctx, r.db)

	before, err := marshalSnapshot(change.Before)
	if err != nil {
		return fmt.Errorf("failed to encode audit before value: %w", err)
	}
	after, err := marshalSnapshot(change.After)
	if err != nil {
		return fmt.Errorf("failed to encode audit after value: %w", err)
	}

	query := `
		INSERT INTO audit_trails (
			id, entity_type, entity_id, action, before_value, after_value, actor_id, reason, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = q.Exec(ctx, query,
		uuid.Must(uuid.NewV7()).String(),
		change.EntityType,
		change.EntityID,
		change.Action,
		before,
		after,
		change.ActorID,
		change.Reason,
		change.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record audit trail: %w", err)
	}
	return nil
}

// ListByEntity returns the audit trail of one entity, oldest first.
func (r *auditRepository) ListByEntity(ctx context.Context, entityType, entityID string) ([]audit.Entry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, entity_type, entity_id, action, before_value, after_value, actor_id, reason, occurred_at
		FROM audit_trails
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY occurred_at, id
	`

	rows, err := q.Query(ctx, query, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit trails: %w", err)
	}
	defer rows.Close()

	entries := []audit.Entry{}
	for rows.Next() {
		var (
			e             audit.Entry
			before, after []byte
		)
		if err := rows.Scan(
			&e.ID, &e.EntityType, &e.EntityID, &e.Action, &before, &after, &e.ActorID, &e.Reason, &e.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit trail: %w", err)
		}
		e.Before = json.RawMessage(before)
		e.After = json.RawMessage(after)
		e.OccurredAt = e.OccurredAt.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func marshalSnapshot(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func NewAuditRepository(db *database.DB) audit.Repository {
	return &auditRepository{db: db}
}
