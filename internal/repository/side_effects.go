package repository

import (
	"context"
	"database/sql"
	"time"

	"stagepass/internal/database"
	"stagepass/internal/models"
)

type SideEffectRepository struct {
	db *database.DB
}

func NewSideEffectRepository(db *database.DB) *SideEffectRepository {
	return &SideEffectRepository{db: db}
}

// ApplyResult describes what one application pass did.
type ApplyResult struct {
	AlreadyDone     bool
	PromoAtCapacity bool
	PromoCodeID     *int64
	Attempts        int
}

// Apply replays the pending side effects of a committed sale: the guarded
// promo usage increment and the share conversion upsert. The ledger row is
// locked for the duration, and each step is stamped before completion, so a
// replay for an already-processed sale id is a no-op.
//
// A lost promo guard (current_uses already at max_uses) does not fail the
// sale; it is reported via ApplyResult for reconciliation.
func (r *SideEffectRepository) Apply(ctx context.Context, saleID int64) (*ApplyResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	effects := &models.SaleSideEffects{}
	lockQuery := `
		SELECT sale_id, promo_code_id, promo_applied_at, share_platform, share_source,
		       share_applied_at, attempts, created_at, completed_at
		FROM sale_side_effects
		WHERE sale_id = $1
		FOR UPDATE`

	err = tx.QueryRowContext(ctx, lockQuery, saleID).Scan(
		&effects.SaleID,
		&effects.PromoCodeID,
		&effects.PromoAppliedAt,
		&effects.SharePlatform,
		&effects.ShareSource,
		&effects.ShareAppliedAt,
		&effects.Attempts,
		&effects.CreatedAt,
		&effects.CompletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	result := &ApplyResult{PromoCodeID: effects.PromoCodeID, Attempts: effects.Attempts}

	if effects.CompletedAt != nil {
		result.AlreadyDone = true
		return result, tx.Commit()
	}

	now := time.Now()

	if effects.PromoCodeID != nil && effects.PromoAppliedAt == nil {
		incrementQuery := `
			UPDATE promo_codes
			SET current_uses = current_uses + 1, updated_at = NOW()
			WHERE id = $1
			  AND (max_uses IS NULL OR current_uses < max_uses)`

		res, err := tx.ExecContext(ctx, incrementQuery, *effects.PromoCodeID)
		if err != nil {
			return nil, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		// The sale stands either way; a lost guard is surfaced, not rolled back.
		result.PromoAtCapacity = affected == 0
		effects.PromoAppliedAt = &now
	}

	if effects.SharePlatform != nil && effects.ShareAppliedAt == nil {
		upsertQuery := `
			INSERT INTO share_events (event_id, ticket_type_id, platform, conversion_count, revenue_generated)
			SELECT s.event_id, s.ticket_type_id, $2, 1, s.total_amount
			FROM ticket_sales s
			WHERE s.id = $1
			ON CONFLICT (event_id, COALESCE(ticket_type_id, 0), platform)
			DO UPDATE SET conversion_count = share_events.conversion_count + 1,
			              revenue_generated = share_events.revenue_generated + EXCLUDED.revenue_generated,
			              updated_at = NOW()`

		if _, err := tx.ExecContext(ctx, upsertQuery, effects.SaleID, *effects.SharePlatform); err != nil {
			return nil, err
		}
		effects.ShareAppliedAt = &now
	}

	updateQuery := `
		UPDATE sale_side_effects
		SET promo_applied_at = $2, share_applied_at = $3, attempts = attempts + 1, completed_at = NOW()
		WHERE sale_id = $1`

	if _, err := tx.ExecContext(ctx, updateQuery, effects.SaleID, effects.PromoAppliedAt, effects.ShareAppliedAt); err != nil {
		return nil, err
	}
	result.Attempts = effects.Attempts + 1

	return result, tx.Commit()
}

// GetPending returns sale ids whose side effects are still unapplied.
func (r *SideEffectRepository) GetPending(ctx context.Context, olderThan time.Time, limit int) ([]int64, error) {
	var saleIDs []int64
	query := `
		SELECT sale_id
		FROM sale_side_effects
		WHERE completed_at IS NULL AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, olderThan, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		saleIDs = append(saleIDs, id)
	}

	return saleIDs, rows.Err()
}

// CountPending reports the side-effect backlog size.
func (r *SideEffectRepository) CountPending(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sale_side_effects WHERE completed_at IS NULL`).Scan(&count)
	return count, err
}
