package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"stagepass/internal/errors"
	"stagepass/internal/models"
	"stagepass/internal/pricing"
)

type AvailabilityService struct {
	ticketTypes TicketTypeStore
	promoCodes  PromoCodeStore
}

func NewAvailabilityService(ticketTypes TicketTypeStore, promoCodes PromoCodeStore) *AvailabilityService {
	return &AvailabilityService{
		ticketTypes: ticketTypes,
		promoCodes:  promoCodes,
	}
}

// Get returns the availability snapshot for one ticket type plus the event
// projection. This is a read, never a reservation; the authoritative check
// happens inside the sale commit.
func (s *AvailabilityService) Get(ctx context.Context, ticketTypeID int64) (*models.AvailabilityResponse, error) {
	ticketType, err := s.loadTicketType(ctx, ticketTypeID)
	if err != nil {
		return nil, err
	}

	eventInfo, err := s.ticketTypes.GetEventInfo(ctx, ticketType.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event info: %w", err)
	}

	available := ticketType.Available()
	return &models.AvailabilityResponse{
		Available:   available,
		IsAvailable: available > 0,
		TicketType:  models.NewTicketTypeView(ticketType),
		Event:       eventInfo,
	}, nil
}

// Check reports whether a quantity could currently be purchased, with an
// optional non-binding promo preview. can_purchase=false is an answer here,
// not an error.
func (s *AvailabilityService) Check(ctx context.Context, req *models.CheckAvailabilityRequest) (*models.CheckAvailabilityResponse, error) {
	ticketType, err := s.loadTicketType(ctx, req.TicketTypeID)
	if err != nil {
		return nil, err
	}

	available := ticketType.Available()
	canPurchase := req.Quantity <= available
	if ticketType.MaxPerCustomer != nil && req.Quantity > *ticketType.MaxPerCustomer {
		canPurchase = false
	}

	resp := &models.CheckAvailabilityResponse{
		Available:   available,
		CanPurchase: canPurchase,
		TicketType:  models.NewTicketTypeView(ticketType),
	}

	if req.PromoCode != "" {
		subtotal := pricing.Subtotal(ticketType.Price, req.Quantity)
		preview, err := s.previewPromo(ctx, ticketType.EventID, req.PromoCode, subtotal)
		if err != nil {
			return nil, err
		}
		resp.PromoCodePreview = preview
	}

	return resp, nil
}

// ValidatePromoCode resolves a promo code against a purchase amount without
// committing anything.
func (s *AvailabilityService) ValidatePromoCode(ctx context.Context, req *models.ValidatePromoCodeRequest) (*models.ValidatePromoCodeResponse, error) {
	if req.PurchaseAmount.IsNegative() {
		return nil, errors.Validation("purchase_amount must not be negative")
	}

	if req.TicketTypeID != nil {
		ticketType, err := s.loadTicketType(ctx, *req.TicketTypeID)
		if err != nil {
			return nil, err
		}
		if ticketType.EventID != req.EventID {
			return nil, errors.Validation("ticket type does not belong to the event")
		}
	}

	preview, err := s.previewPromo(ctx, req.EventID, req.Code, req.PurchaseAmount)
	if err != nil {
		return nil, err
	}

	return &models.ValidatePromoCodeResponse{
		Valid:          preview.Valid,
		DiscountAmount: preview.DiscountAmount,
		FinalAmount:    preview.FinalAmount,
		Error:          preview.Error,
	}, nil
}

func (s *AvailabilityService) loadTicketType(ctx context.Context, id int64) (*models.TicketType, error) {
	ticketType, err := s.ticketTypes.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket type: %w", err)
	}
	if ticketType == nil || !ticketType.IsActive {
		return nil, errors.NotFound(errors.CodeTicketTypeNotFound, "ticket type not found")
	}
	return ticketType, nil
}

// previewPromo folds promo validation failures into the response body rather
// than failing the request; an invalid code is an expected outcome here.
func (s *AvailabilityService) previewPromo(ctx context.Context, eventID int64, code string, amount decimal.Decimal) (*models.PromoPreview, error) {
	promo, err := s.promoCodes.GetByCode(ctx, eventID, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get promo code: %w", err)
	}
	if promo == nil {
		return &models.PromoPreview{
			Valid: false,
			Error: &models.ErrorBody{Code: errors.CodeInvalidPromoCode, Message: "promo code not found for this event"},
		}, nil
	}

	if err := pricing.ValidatePromo(promo, amount, time.Now()); err != nil {
		e := errors.FromError(err)
		if e.Kind == errors.KindInternal {
			return nil, err
		}
		return &models.PromoPreview{
			Valid: false,
			Error: &models.ErrorBody{Code: e.Code, Message: e.Message},
		}, nil
	}

	discount := pricing.PromoDiscount(promo, amount)
	if discount.GreaterThan(amount) {
		discount = amount
	}
	final := amount.Sub(discount)

	return &models.PromoPreview{
		Valid:          true,
		DiscountAmount: &discount,
		FinalAmount:    &final,
	}, nil
}
