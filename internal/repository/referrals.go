package repository

import (
	"context"
	"database/sql"

	"stagepass/internal/database"
	"stagepass/internal/models"
)

type ReferralRepository struct {
	db *database.DB
}

func NewReferralRepository(db *database.DB) *ReferralRepository {
	return &ReferralRepository{db: db}
}

func (r *ReferralRepository) GetByCode(ctx context.Context, code string) (*models.Referral, error) {
	ref := &models.Referral{}
	query := `
		SELECT id, referrer_id, referred_email, event_id, referral_code,
		       discount_amount, status, used_at, created_at, updated_at
		FROM referrals
		WHERE referral_code = $1`

	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&ref.ID,
		&ref.ReferrerID,
		&ref.ReferredEmail,
		&ref.EventID,
		&ref.ReferralCode,
		&ref.DiscountAmount,
		&ref.Status,
		&ref.UsedAt,
		&ref.CreatedAt,
		&ref.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ref, nil
}

func (r *ReferralRepository) GetByID(ctx context.Context, id int64) (*models.Referral, error) {
	ref := &models.Referral{}
	query := `
		SELECT id, referrer_id, referred_email, event_id, referral_code,
		       discount_amount, status, used_at, created_at, updated_at
		FROM referrals
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&ref.ID,
		&ref.ReferrerID,
		&ref.ReferredEmail,
		&ref.EventID,
		&ref.ReferralCode,
		&ref.DiscountAmount,
		&ref.Status,
		&ref.UsedAt,
		&ref.CreatedAt,
		&ref.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ref, nil
}
