package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/wallet-profiles/internal/models"
	"github.com/wallet-profiles/internal/types"
)

// EventRepository stores profile lifecycle events in ClickHouse
type EventRepository struct {
	db *ClickHouseDB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *ClickHouseDB) *EventRepository {
	return &EventRepository{db: db}
}

// RecordEvent appends one event
func (r *EventRepository) RecordEvent(ctx context.Context, event *models.ProfileEvent) error {
	id, err := uuid.Parse(event.ID)
	if err != nil {
		return fmt.Errorf("invalid event id %q: %w", event.ID, err)
	}
	portfolioJSON, err := json.Marshal(event.TargetPortfolio)
	if err != nil {
		return fmt.Errorf("failed to marshal target portfolio: %w", err)
	}

	batch, err := r.db.Conn().PrepareBatch(ctx, `
		INSERT INTO profile_events (id, profile_id, address, action, social_type, social_handle, target_portfolio, occurred_at)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	if err := batch.Append(
		id,
		event.ProfileID,
		event.Address,
		string(event.Action),
		string(event.SocialType),
		event.SocialHandle,
		string(portfolioJSON),
		event.OccurredAt,
	); err != nil {
		return fmt.Errorf("failed to append to batch: %w", err)
	}

	return batch.Send()
}

// ListByProfile returns the newest events of a profile
func (r *EventRepository) ListByProfile(ctx context.Context, profileID int64, limit int) ([]*models.ProfileEvent, error) {
	query := `
		SELECT id, profile_id, address, action, social_type, social_handle, target_portfolio, occurred_at
		FROM profile_events
		WHERE profile_id = ?
		ORDER BY occurred_at DESC
		LIMIT ?
	`

	rows, err := r.db.Conn().Query(ctx, query, profileID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query profile events: %w", err)
	}
	defer rows.Close()

	var events []*models.ProfileEvent
	for rows.Next() {
		var (
			e             models.ProfileEvent
			id            uuid.UUID
			action        string
			socialType    string
			portfolioJSON string
		)
		if err := rows.Scan(&id, &e.ProfileID, &e.Address, &action, &socialType, &e.SocialHandle, &portfolioJSON, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile event: %w", err)
		}
		e.ID = id.String()
		e.Action = models.ProfileAction(action)
		e.SocialType = types.SocialType(socialType)
		if portfolioJSON != "" {
			if err := json.Unmarshal([]byte(portfolioJSON), &e.TargetPortfolio); err != nil {
				return nil, fmt.Errorf("failed to unmarshal target portfolio: %w", err)
			}
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profile events: %w", err)
	}

	return events, nil
}
