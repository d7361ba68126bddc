package repository

import (
	"context"
	"database/sql"

	"stagepass/internal/database"
	"stagepass/internal/models"
)

type SaleRepository struct {
	db *database.DB
}

func NewSaleRepository(db *database.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

// CommitPurchase makes the purchase durable in one transaction:
//
//  1. guarded inventory reservation, the authoritative oversell check;
//     zero affected rows means the reservation lost, nothing is written
//  2. referral consumption via compare-and-set on status, so a second
//     concurrent purchase with the same code cannot also consume it
//  3. the sale row insert
//  4. the side-effect ledger row for the commit-now/reconcile-later steps
//
// Promo usage and share attribution are deliberately outside this
// transaction; they are applied idempotently afterwards (see SideEffectRepository).
func (r *SaleRepository) CommitPurchase(ctx context.Context, sale *models.TicketSale, effects *models.SaleSideEffects) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	reserveQuery := `
		UPDATE ticket_types
		SET quantity_sold = quantity_sold + $2, updated_at = NOW()
		WHERE id = $1
		  AND is_active = TRUE
		  AND quantity_sold + $2 <= quantity_available`

	res, err := tx.ExecContext(ctx, reserveQuery, sale.TicketTypeID, sale.Quantity)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInsufficientInventory
	}

	if sale.ReferralID != nil {
		consumeQuery := `
			UPDATE referrals
			SET status = $2, used_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND status = $3`

		res, err := tx.ExecContext(ctx, consumeQuery, *sale.ReferralID,
			models.ReferralStatusUsed, models.ReferralStatusPending)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrReferralConsumed
		}
	}

	insertQuery := `
		INSERT INTO ticket_sales (ticket_type_id, event_id, customer_email, customer_name,
		                          customer_phone, quantity, total_amount, fees, payment_status,
		                          order_number, promo_code_id, referral_id, share_platform,
		                          share_source, delivery_method, billing_address, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, created_at`

	err = tx.QueryRowContext(ctx, insertQuery,
		sale.TicketTypeID,
		sale.EventID,
		sale.CustomerEmail,
		sale.CustomerName,
		sale.CustomerPhone,
		sale.Quantity,
		sale.TotalAmount,
		sale.Fees,
		sale.PaymentStatus,
		sale.OrderNumber,
		sale.PromoCodeID,
		sale.ReferralID,
		sale.SharePlatform,
		sale.ShareSource,
		sale.DeliveryMethod,
		sale.BillingAddress,
		sale.Metadata,
	).Scan(&sale.ID, &sale.CreatedAt)
	if err != nil {
		return err
	}

	effectsQuery := `
		INSERT INTO sale_side_effects (sale_id, promo_code_id, share_platform, share_source, completed_at)
		VALUES ($1, $2, $3, $4, CASE WHEN $2::integer IS NULL AND $3::varchar IS NULL THEN NOW() END)`

	_, err = tx.ExecContext(ctx, effectsQuery,
		sale.ID,
		effects.PromoCodeID,
		effects.SharePlatform,
		effects.ShareSource,
	)
	if err != nil {
		return err
	}
	effects.SaleID = sale.ID

	return tx.Commit()
}

func (r *SaleRepository) GetByID(ctx context.Context, id int64) (*models.TicketSale, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

// GetByOrderNumber looks up a sale by its globally unique order number.
func (r *SaleRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*models.TicketSale, error) {
	return r.getOne(ctx, `WHERE order_number = $1`, orderNumber)
}

func (r *SaleRepository) getOne(ctx context.Context, where string, arg any) (*models.TicketSale, error) {
	s := &models.TicketSale{}
	query := `
		SELECT id, ticket_type_id, event_id, customer_email, customer_name, customer_phone,
		       quantity, total_amount, fees, payment_status, order_number, promo_code_id,
		       referral_id, share_platform, share_source, delivery_method, billing_address,
		       metadata, created_at
		FROM ticket_sales
		` + where

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&s.ID,
		&s.TicketTypeID,
		&s.EventID,
		&s.CustomerEmail,
		&s.CustomerName,
		&s.CustomerPhone,
		&s.Quantity,
		&s.TotalAmount,
		&s.Fees,
		&s.PaymentStatus,
		&s.OrderNumber,
		&s.PromoCodeID,
		&s.ReferralID,
		&s.SharePlatform,
		&s.ShareSource,
		&s.DeliveryMethod,
		&s.BillingAddress,
		&s.Metadata,
		&s.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return s, nil
}
