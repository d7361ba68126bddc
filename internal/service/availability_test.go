package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagepass/internal/errors"
	"stagepass/internal/models"
)

func TestGetAvailabilitySnapshot(t *testing.T) {
	store := newMemStore()
	seedTicketType(store, 1, 10, "60", 100, 40)
	seedTicketType(store, 2, 10, "120", 50, 50)
	svc := NewAvailabilityService(store, store.promoCodes())

	resp, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 60, resp.Available)
	assert.True(t, resp.IsAvailable)
	assert.Equal(t, 40.0, resp.TicketType.PercentageSold)

	require.NotNil(t, resp.Event)
	assert.Equal(t, 2, resp.Event.TicketTypes)
	assert.Equal(t, 150, resp.Event.TotalCapacity)
	assert.Equal(t, 90, resp.Event.TotalSold)
	require.NotNil(t, resp.Event.MinPrice)
	assert.True(t, mustDecimal("60").Equal(*resp.Event.MinPrice))
}

func TestGetAvailabilityUnknownTicketType(t *testing.T) {
	store := newMemStore()
	svc := NewAvailabilityService(store, store.promoCodes())

	_, err := svc.Get(context.Background(), 404)
	assert.True(t, errors.HasCode(err, errors.CodeTicketTypeNotFound))
}

func TestGetAvailabilityInactiveTicketTypeIsNotFound(t *testing.T) {
	store := newMemStore()
	tt := seedTicketType(store, 1, 10, "60", 100, 0)
	tt.IsActive = false
	svc := NewAvailabilityService(store, store.promoCodes())

	_, err := svc.Get(context.Background(), 1)
	assert.True(t, errors.HasCode(err, errors.CodeTicketTypeNotFound))
}

func TestCheckAvailability(t *testing.T) {
	store := newMemStore()
	seedTicketType(store, 1, 10, "60", 100, 95)
	svc := NewAvailabilityService(store, store.promoCodes())

	resp, err := svc.Check(context.Background(), &models.CheckAvailabilityRequest{
		TicketTypeID: 1,
		Quantity:     3,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, resp.Available)
	assert.True(t, resp.CanPurchase)

	// Not enough left: an answer, not an error.
	resp, err = svc.Check(context.Background(), &models.CheckAvailabilityRequest{
		TicketTypeID: 1,
		Quantity:     6,
	})
	require.NoError(t, err)
	assert.False(t, resp.CanPurchase)
}

func TestCheckAvailabilityHonorsMaxPerCustomer(t *testing.T) {
	store := newMemStore()
	tt := seedTicketType(store, 1, 10, "60", 100, 0)
	maxPer := 2
	tt.MaxPerCustomer = &maxPer
	svc := NewAvailabilityService(store, store.promoCodes())

	resp, err := svc.Check(context.Background(), &models.CheckAvailabilityRequest{
		TicketTypeID: 1,
		Quantity:     3,
	})
	require.NoError(t, err)
	assert.Equal(t, 100, resp.Available)
	assert.False(t, resp.CanPurchase)
}

func TestCheckAvailabilityWithPromoPreview(t *testing.T) {
	store := newMemStore()
	seedTicketType(store, 1, 10, "60", 100, 0)
	seedPromo(store, 5, 10, "SAVE10", models.DiscountTypePercentage, "10")
	svc := NewAvailabilityService(store, store.promoCodes())

	resp, err := svc.Check(context.Background(), &models.CheckAvailabilityRequest{
		TicketTypeID: 1,
		Quantity:     2,
		PromoCode:    "SAVE10",
	})
	require.NoError(t, err)

	require.NotNil(t, resp.PromoCodePreview)
	assert.True(t, resp.PromoCodePreview.Valid)
	assert.True(t, mustDecimal("12").Equal(*resp.PromoCodePreview.DiscountAmount))
	assert.True(t, mustDecimal("108").Equal(*resp.PromoCodePreview.FinalAmount))

	// The preview never consumes usage.
	assert.Equal(t, 0, store.promos[5].CurrentUses)
}

func TestCheckAvailabilityInvalidPromoFoldedIntoPreview(t *testing.T) {
	store := newMemStore()
	seedTicketType(store, 1, 10, "60", 100, 0)
	svc := NewAvailabilityService(store, store.promoCodes())

	resp, err := svc.Check(context.Background(), &models.CheckAvailabilityRequest{
		TicketTypeID: 1,
		Quantity:     2,
		PromoCode:    "NOPE",
	})
	require.NoError(t, err)

	require.NotNil(t, resp.PromoCodePreview)
	assert.False(t, resp.PromoCodePreview.Valid)
	require.NotNil(t, resp.PromoCodePreview.Error)
	assert.Equal(t, errors.CodeInvalidPromoCode, resp.PromoCodePreview.Error.Code)
}

func TestValidatePromoCode(t *testing.T) {
	store := newMemStore()
	seedPromo(store, 5, 10, "SAVE10", models.DiscountTypePercentage, "10")
	svc := NewAvailabilityService(store, store.promoCodes())

	resp, err := svc.ValidatePromoCode(context.Background(), &models.ValidatePromoCodeRequest{
		Code:           "SAVE10",
		EventID:        10,
		PurchaseAmount: mustDecimal("120"),
	})
	require.NoError(t, err)

	assert.True(t, resp.Valid)
	assert.True(t, mustDecimal("12").Equal(*resp.DiscountAmount))
	assert.True(t, mustDecimal("108").Equal(*resp.FinalAmount))
}

func TestValidatePromoCodeExpired(t *testing.T) {
	store := newMemStore()
	promo := seedPromo(store, 5, 10, "SAVE10", models.DiscountTypePercentage, "10")
	maxUses := 3
	promo.MaxUses = &maxUses
	promo.CurrentUses = 3
	svc := NewAvailabilityService(store, store.promoCodes())

	resp, err := svc.ValidatePromoCode(context.Background(), &models.ValidatePromoCodeRequest{
		Code:           "SAVE10",
		EventID:        10,
		PurchaseAmount: mustDecimal("120"),
	})
	require.NoError(t, err)

	assert.False(t, resp.Valid)
	require.NotNil(t, resp.Error)
	assert.Equal(t, errors.CodePromoUsageExceeded, resp.Error.Code)
}

func TestValidatePromoCodeNegativeAmountRejected(t *testing.T) {
	store := newMemStore()
	svc := NewAvailabilityService(store, store.promoCodes())

	_, err := svc.ValidatePromoCode(context.Background(), &models.ValidatePromoCodeRequest{
		Code:           "SAVE10",
		EventID:        10,
		PurchaseAmount: mustDecimal("-5"),
	})
	assert.True(t, errors.IsKind(err, errors.KindValidation))
}

func TestValidatePromoCodeTicketTypeMustMatchEvent(t *testing.T) {
	store := newMemStore()
	seedTicketType(store, 1, 99, "60", 100, 0)
	seedPromo(store, 5, 10, "SAVE10", models.DiscountTypePercentage, "10")
	svc := NewAvailabilityService(store, store.promoCodes())

	ticketTypeID := int64(1)
	_, err := svc.ValidatePromoCode(context.Background(), &models.ValidatePromoCodeRequest{
		Code:           "SAVE10",
		EventID:        10,
		TicketTypeID:   &ticketTypeID,
		PurchaseAmount: mustDecimal("120"),
	})
	assert.True(t, errors.IsKind(err, errors.KindValidation))
}
