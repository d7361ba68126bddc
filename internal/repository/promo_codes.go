package repository

import (
	"context"
	"database/sql"

	"stagepass/internal/database"
	"stagepass/internal/models"
)

type PromoCodeRepository struct {
	db *database.DB
}

func NewPromoCodeRepository(db *database.DB) *PromoCodeRepository {
	return &PromoCodeRepository{db: db}
}

func (r *PromoCodeRepository) GetByCode(ctx context.Context, eventID int64, code string) (*models.PromoCode, error) {
	p := &models.PromoCode{}
	query := `
		SELECT id, event_id, code, discount_type, discount_value, max_discount_amount,
		       min_purchase_amount, max_uses, current_uses, start_date, end_date,
		       is_active, created_at, updated_at
		FROM promo_codes
		WHERE event_id = $1 AND code = $2`

	err := r.db.QueryRowContext(ctx, query, eventID, code).Scan(
		&p.ID,
		&p.EventID,
		&p.Code,
		&p.DiscountType,
		&p.DiscountValue,
		&p.MaxDiscountAmount,
		&p.MinPurchaseAmount,
		&p.MaxUses,
		&p.CurrentUses,
		&p.StartDate,
		&p.EndDate,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return p, nil
}

func (r *PromoCodeRepository) GetActiveByEventID(ctx context.Context, eventID int64) ([]models.PromoCode, error) {
	var promoCodes []models.PromoCode
	query := `
		SELECT id, event_id, code, discount_type, discount_value, max_discount_amount,
		       min_purchase_amount, max_uses, current_uses, start_date, end_date,
		       is_active, created_at, updated_at
		FROM promo_codes
		WHERE event_id = $1
		  AND is_active = TRUE
		  AND (start_date IS NULL OR start_date <= NOW())
		  AND (end_date IS NULL OR end_date >= NOW())
		  AND (max_uses IS NULL OR current_uses < max_uses)
		ORDER BY code`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p models.PromoCode
		err := rows.Scan(
			&p.ID,
			&p.EventID,
			&p.Code,
			&p.DiscountType,
			&p.DiscountValue,
			&p.MaxDiscountAmount,
			&p.MinPurchaseAmount,
			&p.MaxUses,
			&p.CurrentUses,
			&p.StartDate,
			&p.EndDate,
			&p.IsActive,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		promoCodes = append(promoCodes, p)
	}

	return promoCodes, rows.Err()
}
