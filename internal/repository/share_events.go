package repository

import (
	"context"

	"stagepass/internal/database"
	"stagepass/internal/models"
)

type ShareEventRepository struct {
	db *database.DB
}

func NewShareEventRepository(db *database.DB) *ShareEventRepository {
	return &ShareEventRepository{db: db}
}

// GetStatsByEventID aggregates share attribution per platform.
func (r *ShareEventRepository) GetStatsByEventID(ctx context.Context, eventID int64) (map[string]models.PlatformStats, error) {
	stats := make(map[string]models.PlatformStats)
	query := `
		SELECT platform,
		       COALESCE(SUM(click_count), 0),
		       COALESCE(SUM(conversion_count), 0),
		       COALESCE(SUM(revenue_generated), 0)
		FROM share_events
		WHERE event_id = $1
		GROUP BY platform`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var platform string
		var s models.PlatformStats
		if err := rows.Scan(&platform, &s.Clicks, &s.Conversions, &s.Revenue); err != nil {
			return nil, err
		}
		stats[platform] = s
	}

	return stats, rows.Err()
}

// RecordClick increments the click counter for a share link, creating the
// attribution row if absent. Clicks come from the share action, not from the
// sale committer.
func (r *ShareEventRepository) RecordClick(ctx context.Context, eventID int64, ticketTypeID *int64, platform string) error {
	query := `
		INSERT INTO share_events (event_id, ticket_type_id, platform, click_count)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (event_id, COALESCE(ticket_type_id, 0), platform)
		DO UPDATE SET click_count = share_events.click_count + 1, updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, query, eventID, ticketTypeID, platform)
	return err
}

// GetByEventID returns the raw attribution rows for an event.
func (r *ShareEventRepository) GetByEventID(ctx context.Context, eventID int64) ([]models.ShareEvent, error) {
	var shareEvents []models.ShareEvent
	query := `
		SELECT id, event_id, ticket_type_id, platform, click_count, conversion_count,
		       revenue_generated, created_at, updated_at
		FROM share_events
		WHERE event_id = $1
		ORDER BY platform`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var se models.ShareEvent
		err := rows.Scan(
			&se.ID,
			&se.EventID,
			&se.TicketTypeID,
			&se.Platform,
			&se.ClickCount,
			&se.ConversionCount,
			&se.RevenueGenerated,
			&se.CreatedAt,
			&se.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		shareEvents = append(shareEvents, se)
	}

	return shareEvents, rows.Err()
}
