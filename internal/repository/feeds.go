package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/cinesignal/internal/domain"
)

// FeedsRepository stores activity-feed records.
type FeedsRepository struct {
	pool *pgxpool.Pool
}

// Append stores event and returns it with the assigned id and timestamp.
func (r *FeedsRepository) Append(ctx context.Context, event domain.FeedEvent) (domain.FeedEvent, error) {
	err := r.pool.QueryRow(ctx, `
        INSERT INTO feeds (user_id, event_type, operation, entity_id)
        VALUES ($1,$2,$3,$4)
        RETURNING event_id, created_at
    `, event.UserID, string(event.EventType), string(event.Operation), event.EntityID).Scan(&event.EventID, &event.Timestamp)
	if err != nil {
		return domain.FeedEvent{}, mapError(err, "user", event.UserID)
	}
	return event, nil
}

// ListByUser returns the user's feed oldest first.
func (r *FeedsRepository) ListByUser(ctx context.Context, userID int64) ([]domain.FeedEvent, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT event_id, created_at, user_id, event_type, operation, entity_id
        FROM feeds
        WHERE user_id = $1
        ORDER BY created_at, event_id
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]domain.FeedEvent, 0)
	for rows.Next() {
		var (
			event     domain.FeedEvent
			eventType string
			operation string
		)
		if err := rows.Scan(&event.EventID, &event.Timestamp, &event.UserID, &eventType, &operation, &event.EntityID); err != nil {
			return nil, err
		}
		event.EventType = domain.EventType(eventType)
		event.Operation = domain.Operation(operation)
		events = append(events, event)
	}
	return events, rows.Err()
}
