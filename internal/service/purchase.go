package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"stagepass/internal/errors"
	"stagepass/internal/logger"
	"stagepass/internal/metrics"
	"stagepass/internal/models"
	"stagepass/internal/pricing"
	"stagepass/internal/repository"
)

type PurchaseService struct {
	ticketTypes TicketTypeStore
	promoCodes  PromoCodeStore
	referrals   ReferralStore
	sales       SaleStore
	sideEffects SideEffectStore
	publisher   Publisher
	invalidator CacheInvalidator
	assembler   *pricing.Assembler
	opts        PricingOptions
}

func NewPurchaseService(ticketTypes TicketTypeStore, promoCodes PromoCodeStore, referrals ReferralStore,
	sales SaleStore, sideEffects SideEffectStore, publisher Publisher, invalidator CacheInvalidator,
	opts PricingOptions) *PurchaseService {
	return &PurchaseService{
		ticketTypes: ticketTypes,
		promoCodes:  promoCodes,
		referrals:   referrals,
		sales:       sales,
		sideEffects: sideEffects,
		publisher:   publisher,
		invalidator: invalidator,
		assembler:   pricing.NewAssembler(opts.FeeRate),
		opts:        opts,
	}
}

// Purchase validates and commits an already-authorized purchase request.
// Failure ordering: input shape, then availability, then discounts, then the
// commit. The first reported failure is always the most fundamental one.
func (s *PurchaseService) Purchase(ctx context.Context, req *models.PurchaseRequest) (*models.PurchaseResponse, error) {
	if err := validatePurchaseRequest(req); err != nil {
		metrics.RecordPurchase("rejected")
		return nil, err
	}

	now := time.Now()

	ticketType, err := s.ticketTypes.GetByID(ctx, req.TicketTypeID)
	if err != nil {
		metrics.RecordPurchase("error")
		return nil, fmt.Errorf("failed to get ticket type: %w", err)
	}
	if ticketType == nil || !ticketType.IsActive {
		metrics.RecordPurchase("rejected")
		return nil, errors.NotFound(errors.CodeTicketTypeNotFound, "ticket type not found")
	}
	if ticketType.EventID != req.EventID {
		metrics.RecordPurchase("rejected")
		return nil, errors.Validation("ticket type does not belong to the event")
	}

	if s.opts.EnforceSaleWindow && !ticketType.OnSaleAt(now) {
		metrics.RecordPurchase("rejected")
		return nil, errors.State(errors.CodeSaleWindowClosed, "ticket type is not on sale at this time")
	}

	if ticketType.MaxPerCustomer != nil && req.Quantity > *ticketType.MaxPerCustomer {
		metrics.RecordPurchase("rejected")
		return nil, errors.Newf(errors.KindState, errors.CodeMaxPerCustomer,
			"quantity %d exceeds the per-customer limit of %d", req.Quantity, *ticketType.MaxPerCustomer)
	}

	// Snapshot pre-check; the authoritative guard runs again inside the commit.
	if req.Quantity > ticketType.Available() {
		metrics.RecordPurchase("capacity")
		metrics.RecordCapacityRejection()
		return nil, errors.Newf(errors.KindCapacity, errors.CodeInsufficientTickets,
			"only %d tickets remaining", ticketType.Available())
	}

	var promo *models.PromoCode
	if req.PromoCode != "" {
		promo, err = s.promoCodes.GetByCode(ctx, req.EventID, req.PromoCode)
		if err != nil {
			metrics.RecordPurchase("error")
			return nil, fmt.Errorf("failed to get promo code: %w", err)
		}
		if promo == nil {
			metrics.RecordPurchase("rejected")
			return nil, errors.NotFound(errors.CodeInvalidPromoCode, "promo code not found for this event")
		}
	}

	var referral *models.Referral
	if req.ReferralCode != "" {
		referral, err = s.referrals.GetByCode(ctx, req.ReferralCode)
		if err != nil {
			metrics.RecordPurchase("error")
			return nil, fmt.Errorf("failed to get referral: %w", err)
		}
		if referral == nil {
			metrics.RecordPurchase("rejected")
			return nil, errors.NotFound(errors.CodeInvalidReferral, "referral code not found")
		}
	}

	quote, err := pricing.Resolve(ticketType.Price, req.Quantity, req.EventID, promo, referral, now)
	if err != nil {
		metrics.RecordPurchase("rejected")
		return nil, err
	}

	sale := s.assembler.Build(ticketType, req, quote, now)

	effects := &models.SaleSideEffects{
		PromoCodeID:   sale.PromoCodeID,
		SharePlatform: sale.SharePlatform,
		ShareSource:   sale.ShareSource,
	}

	if err := s.sales.CommitPurchase(ctx, sale, effects); err != nil {
		switch {
		case stderrors.Is(err, repository.ErrInsufficientInventory):
			metrics.RecordPurchase("capacity")
			metrics.RecordCapacityRejection()
			return nil, errors.Capacity("tickets sold out while processing the purchase")
		case stderrors.Is(err, repository.ErrReferralConsumed):
			metrics.RecordPurchase("rejected")
			return nil, errors.State(errors.CodeReferralUsed, "referral code has already been used")
		default:
			metrics.RecordPurchase("error")
			return nil, fmt.Errorf("failed to commit purchase: %w", err)
		}
	}

	metrics.RecordPurchase("committed")
	discountAmount, _ := quote.TotalDiscount.Float64()
	metrics.RecordDiscount(discountAmount)

	s.afterCommit(ctx, sale)

	return &models.PurchaseResponse{
		Sale:            sale,
		OrderNumber:     sale.OrderNumber,
		DiscountApplied: quote.TotalDiscount.IsPositive(),
		DiscountAmount:  quote.TotalDiscount,
	}, nil
}

// afterCommit runs everything the customer no longer has to wait for:
// side-effect application, the committed event, cache invalidation. None of
// these may fail the purchase; the sale is already durable.
func (s *PurchaseService) afterCommit(ctx context.Context, sale *models.TicketSale) {
	log := logger.WithSale(sale.ID)

	if s.publisher != nil {
		event := models.SaleCommittedEvent{
			SaleID:       sale.ID,
			OrderNumber:  sale.OrderNumber,
			EventID:      sale.EventID,
			TicketTypeID: sale.TicketTypeID,
			Quantity:     sale.Quantity,
			TotalAmount:  sale.TotalAmount.StringFixed(2),
			Timestamp:    time.Now(),
		}
		if err := s.publisher.Publish(models.EventSaleCommitted, event); err != nil {
			log.Error("Failed to publish sale committed event",
				"error", err,
				"event_type", models.EventSaleCommitted)
		}
	}

	if _, err := s.ApplySideEffects(ctx, sale.ID); err != nil {
		// The reconciler will pick the pending row up.
		log.Error("Failed to apply sale side effects inline", "error", err)
	}

	if s.invalidator != nil {
		if err := s.invalidator.InvalidateEvent(ctx, sale.EventID); err != nil {
			log.Error("Failed to invalidate catalog cache", "error", err, "event_id", sale.EventID)
		}
	}
}

// ApplySideEffects applies (or replays) the pending side effects of a sale.
// Safe to call any number of times for the same sale id.
func (s *PurchaseService) ApplySideEffects(ctx context.Context, saleID int64) (*repository.ApplyResult, error) {
	result, err := s.sideEffects.Apply(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to apply side effects for sale %d: %w", saleID, err)
	}
	if result == nil {
		return nil, nil
	}

	if !result.AlreadyDone && s.publisher != nil {
		event := models.SideEffectsAppliedEvent{
			SaleID:    saleID,
			Attempts:  result.Attempts,
			Timestamp: time.Now(),
		}
		if err := s.publisher.Publish(models.EventSideEffectsApplied, event); err != nil {
			logger.WithSale(saleID).Error("Failed to publish side effects applied event", "error", err)
		}
	}

	if result.PromoAtCapacity && result.PromoCodeID != nil {
		metrics.RecordPromoAtCapacity()
		logger.WithSale(saleID).Warn("Promo usage guard lost after commit, needs reconciliation",
			"promo_code_id", *result.PromoCodeID)

		if s.publisher != nil {
			event := models.PromoAtCapacityEvent{
				SaleID:      saleID,
				PromoCodeID: *result.PromoCodeID,
				Timestamp:   time.Now(),
			}
			if err := s.publisher.Publish(models.EventPromoAtCapacity, event); err != nil {
				logger.WithSale(saleID).Error("Failed to publish promo at capacity event", "error", err)
			}
		}
	}

	return result, nil
}

// GetSaleByOrderNumber looks a committed sale up by its order number.
func (s *PurchaseService) GetSaleByOrderNumber(ctx context.Context, orderNumber string) (*models.TicketSale, error) {
	sale, err := s.sales.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}
	if sale == nil {
		return nil, errors.NotFound(errors.CodeSaleNotFound, "sale not found")
	}
	return sale, nil
}

func validatePurchaseRequest(req *models.PurchaseRequest) error {
	if req.TicketTypeID <= 0 {
		return errors.Validation("ticket_type_id is required")
	}
	if req.EventID <= 0 {
		return errors.Validation("event_id is required")
	}
	if req.CustomerEmail == "" {
		return errors.Validation("customer_email is required")
	}
	if req.CustomerName == "" {
		return errors.Validation("customer_name is required")
	}
	if req.Quantity < 1 {
		return errors.Validation("quantity must be at least 1")
	}
	return nil
}
