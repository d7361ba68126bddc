package repository

import (
	"context"
	"database/sql"

	"stagepass/internal/database"
	"stagepass/internal/models"
)

type TicketTypeRepository struct {
	db *database.DB
}

func NewTicketTypeRepository(db *database.DB) *TicketTypeRepository {
	return &TicketTypeRepository{db: db}
}

func (r *TicketTypeRepository) GetByID(ctx context.Context, id int64) (*models.TicketType, error) {
	t := &models.TicketType{}
	query := `
		SELECT id, event_id, name, price, quantity_available, quantity_sold,
		       max_per_customer, sale_start, sale_end, benefits, is_active,
		       is_transferable, transfer_fee, created_at, updated_at
		FROM ticket_types
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID,
		&t.EventID,
		&t.Name,
		&t.Price,
		&t.QuantityAvailable,
		&t.QuantitySold,
		&t.MaxPerCustomer,
		&t.SaleStart,
		&t.SaleEnd,
		&t.Benefits,
		&t.IsActive,
		&t.IsTransferable,
		&t.TransferFee,
		&t.CreatedAt,
		&t.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return t, nil
}

func (r *TicketTypeRepository) GetActiveByEventID(ctx context.Context, eventID int64) ([]models.TicketType, error) {
	var ticketTypes []models.TicketType
	query := `
		SELECT id, event_id, name, price, quantity_available, quantity_sold,
		       max_per_customer, sale_start, sale_end, benefits, is_active,
		       is_transferable, transfer_fee, created_at, updated_at
		FROM ticket_types
		WHERE event_id = $1 AND is_active = TRUE
		ORDER BY price, id`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var t models.TicketType
		err := rows.Scan(
			&t.ID,
			&t.EventID,
			&t.Name,
			&t.Price,
			&t.QuantityAvailable,
			&t.QuantitySold,
			&t.MaxPerCustomer,
			&t.SaleStart,
			&t.SaleEnd,
			&t.Benefits,
			&t.IsActive,
			&t.IsTransferable,
			&t.TransferFee,
			&t.CreatedAt,
			&t.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		ticketTypes = append(ticketTypes, t)
	}

	return ticketTypes, rows.Err()
}

// GetEventInfo aggregates the event projection from its ticket types.
func (r *TicketTypeRepository) GetEventInfo(ctx context.Context, eventID int64) (*models.EventInfo, error) {
	info := &models.EventInfo{EventID: eventID}
	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(quantity_available), 0),
		       COALESCE(SUM(quantity_sold), 0),
		       MIN(price)
		FROM ticket_types
		WHERE event_id = $1 AND is_active = TRUE`

	err := r.db.QueryRowContext(ctx, query, eventID).Scan(
		&info.TicketTypes,
		&info.TotalCapacity,
		&info.TotalSold,
		&info.MinPrice,
	)
	if err != nil {
		return nil, err
	}

	return info, nil
}
