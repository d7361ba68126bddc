package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagepass/internal/errors"
	"stagepass/internal/models"
)

func validRequest() *models.PurchaseRequest {
	return &models.PurchaseRequest{
		TicketTypeID:  1,
		EventID:       10,
		CustomerEmail: "jan@example.com",
		CustomerName:  "Jan Kowalski",
		Quantity:      2,
	}
}

func TestPurchaseCommitsSale(t *testing.T) {
	store := newMemStore()
	seedTicketType(store, 1, 10, "60", 100, 0)
	publisher := &fakePublisher{}
	invalidator := &fakeInvalidator{}
	svc := newTestPurchaseService(store, publisher, invalidator, PricingOptions{FeeRate: mustDecimal("0.03")})

	resp, err := svc.Purchase(context.Background(), validRequest())
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.NotEmpty(t, resp.OrderNumber)
	assert.False(t, resp.DiscountApplied)
	assert.True(t, mustDecimal("120").Equal(resp.Sale.TotalAmount))
	assert.True(t, mustDecimal("3.60").Equal(resp.Sale.Fees))

	assert.Equal(t, 2, store.ticketTypes[1].QuantitySold)
	assert.Equal(t, 1, publisher.published(models.EventSaleCommitted))
	assert.Equal(t, []int64{10}, invalidator.events)

	// No promo, no share: the ledger row is born completed.
	effects := store.effects[resp.Sale.ID]
	require.NotNil(t, effects)
	assert.False(t, effects.Pending())
}

func TestPurchaseAppliesPromoAndStampsSideEffects(t *testing.T) {
	store := newMemStore()
	seedTicketType(store, 1, 10, "60", 100, 0)
	seedPromo(store, 5, 10, "SAVE10", models.DiscountTypePercentage, "10")
	svc := newTestPurchaseService(store, &fakePublisher{}, nil, PricingOptions{FeeRate: mustDecimal("0.03")})

	req := validRequest()
	req.PromoCode = "SAVE10"

	resp, err := svc.Purchase(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, resp.DiscountApplied)
	assert.True(t, mustDecimal("12").Equal(resp.DiscountAmount), "got %s", resp.DiscountAmount)
	assert.True(t, mustDecimal("108").Equal(resp.Sale.TotalAmount))
	assert.True(t, mustDecimal("3.24").Equal(resp.Sale.Fees))

	// Inline application already ran: usage counted, ledger completed.
	assert.Equal(t, 1, store.promos[5].CurrentUses)
	assert.False(t, store.effects[resp.Sale.ID].Pending())
}

func TestPurchaseStacksReferralOnPromo(t *testing.T) {
	store := newMemStore()
	seedTicketType(store, 1, 10, "60", 100, 0)
	seedPromo(store, 5, 10, "SAVE10", models.DiscountTypePercentage, "10")
	seedReferral(store, 7, 10, "FRIEND-1", "15")
	svc := newTestPurchaseService(store, nil, nil, PricingOptions{FeeRate: mustDecimal("0.03")})

	req := validRequest()
	req.PromoCode = "SAVE10"
	req.ReferralCode = "FRIEND-1"

	resp, err := svc.Purchase(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, mustDecimal("27").Equal(resp.DiscountAmount), "got %s", resp.DiscountAmount)
	assert.True(t, mustDecimal("93").Equal(resp.Sale.TotalAmount))
	assert.Equal(t, models.ReferralStatusUsed, store.referrals[7].Status)
}

func TestPurchaseRejectsUnknownTicketType(t *testing.T) {
	store := newMemStore()
	svc := newTestPurchaseService(store, nil, nil, PricingOptions{FeeRate: mustDecimal("0.03")})

	_, err := svc.Purchase(context.Background(), validRequest())
	assert.True(t, errors.HasCode(err, errors.CodeTicketTypeNotFound))
}

func TestPurchaseRejectsEventMismatch(t *testing.T) {
	store := newMemStore()
	seedTicketType(store, 1, 10, "60", 100, 0)
	svc := newTestPurchaseService(store, nil, nil, PricingOptions{FeeRate: mustDecimal("0.03")})

	req := validRequest()
	req.EventID = 99

	_, err := svc.Purchase(context.Background(), req)
	assert.True(t, errors.IsKind(err, errors.KindValidation))
}

func TestPurchaseRejectsOverMaxPerCustomer(t *testing.T) {
	store := newMemStore()
	tt := seedTicketType(store, 1, 10, "60", 100, 0)
	maxPer := 4
	tt.MaxPerCustomer = &maxPer
	svc := newTestPurchaseService(store, nil, nil, PricingOptions{FeeRate: mustDecimal("0.03")})

	req := validRequest()
	req.Quantity = 5

	_, err := svc.Purchase(context.Background(), req)
	assert.True(t, errors.HasCode(err, errors.CodeMaxPerCustomer))
}

func TestPurchaseRejectsInsufficientInventory(t *testing.T) {
	store := newMemStore()
	seedTicketType(store, 1, 10, "60", 100, 99)
	svc := newTestPurchaseService(store, nil, nil, PricingOptions{FeeRate: mustDecimal("0.03")})

	_, err := svc.Purchase(context.Background(), validRequest())
	assert.True(t, errors.IsKind(err, errors.KindCapacity))
	assert.Equal(t, 99, store.ticketTypes[1].QuantitySold)
}

func TestPurchaseSaleWindowEnforcedOnlyWhenConfigured(t *testing.T) {
	store := newMemStore()
	tt := seedTicketType(store, 1, 10, "60", 100, 0)
	past := time.Now().Add(-time.Hour)
	tt.SaleEnd = &past

	svc := newTestPurchaseService(store, nil, nil, PricingOptions{FeeRate: mustDecimal("0.03")})
	_, err := svc.Purchase(context.Background(), validRequest())
	assert.NoError(t, err)

	enforcing := newTestPurchaseService(store, nil, nil,
		PricingOptions{FeeRate: mustDecimal("0.03"), EnforceSaleWindow: true})
	_, err = enforcing.Purchase(context.Background(), validRequest())
	assert.True(t, errors.HasCode(err, errors.CodeSaleWindowClosed))
}

func TestPurchasePromoValidationFailurePropagates(t *testing.T) {
	store := newMemStore()
	seedTicketType(store, 1, 10, "60", 100, 0)
	promo := seedPromo(store, 5, 10, "SAVE10", models.DiscountTypePercentage, "10")
	promo.MinPurchaseAmount = mustDecimal("500")
	svc := newTestPurchaseService(store, nil, nil, PricingOptions{FeeRate: mustDecimal("0.03")})

	req := validRequest()
	req.PromoCode = "SAVE10"

	_, err := svc.Purchase(context.Background(), req)
	assert.True(t, errors.HasCode(err, errors.CodeMinPurchaseNotMet))
	assert.Equal(t, 0, store.ticketTypes[1].QuantitySold)
}

func TestPurchaseUnknownPromoIsNotFound(t *testing.T) {
	store := newMemStore()
	seedTicketType(store, 1, 10, "60", 100, 0)
	svc := newTestPurchaseService(store, nil, nil, PricingOptions{FeeRate: mustDecimal("0.03")})

	req := validRequest()
	req.PromoCode = "NOPE"

	_, err := svc.Purchase(context.Background(), req)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidPromoCode))
}

func TestConcurrentPurchasesNeverOversell(t *testing.T) {
	store := newMemStore()
	seedTicketType(store, 1, 10, "60", 100, 99)
	svc := newTestPurchaseService(store, nil, nil, PricingOptions{FeeRate: mustDecimal("0.03")})

	const attempts = 8
	var wg sync.WaitGroup
	results := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := validRequest()
			req.Quantity = 1
			_, results[i] = svc.Purchase(context.Background(), req)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, errors.IsKind(err, errors.KindCapacity))
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 100, store.ticketTypes[1].QuantitySold)
}

func TestConcurrentReferralUseIsSingleWinner(t *testing.T) {
	store := newMemStore()
	seedTicketType(store, 1, 10, "60", 100, 0)
	seedReferral(store, 7, 10, "FRIEND-1", "15")
	svc := newTestPurchaseService(store, nil, nil, PricingOptions{FeeRate: mustDecimal("0.03")})

	const attempts = 4
	var wg sync.WaitGroup
	results := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := validRequest()
			req.Quantity = 1
			req.ReferralCode = "FRIEND-1"
			_, results[i] = svc.Purchase(context.Background(), req)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, errors.HasCode(err, errors.CodeReferralUsed))
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, models.ReferralStatusUsed, store.referrals[7].Status)
}

func TestApplySideEffectsReplayIsNoOp(t *testing.T) {
	store := newMemStore()
	seedTicketType(store, 1, 10, "60", 100, 0)
	seedPromo(store, 5, 10, "SAVE10", models.DiscountTypePercentage, "10")
	svc := newTestPurchaseService(store, nil, nil, PricingOptions{FeeRate: mustDecimal("0.03")})

	req := validRequest()
	req.PromoCode = "SAVE10"
	req.SharePlatform = "twitter"

	resp, err := svc.Purchase(context.Background(), req)
	require.NoError(t, err)

	// Inline application already ran inside Purchase.
	assert.Equal(t, 1, store.promos[5].CurrentUses)
	assert.Equal(t, 1, store.shares["twitter"].ConversionCount)

	result, err := svc.ApplySideEffects(context.Background(), resp.Sale.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.AlreadyDone)

	assert.Equal(t, 1, store.promos[5].CurrentUses)
	assert.Equal(t, 1, store.shares["twitter"].ConversionCount)
}

func TestApplySideEffectsUnknownSaleIsNil(t *testing.T) {
	store := newMemStore()
	svc := newTestPurchaseService(store, nil, nil, PricingOptions{FeeRate: mustDecimal("0.03")})

	result, err := svc.ApplySideEffects(context.Background(), 404)
	assert.NoError(t, err)
	assert.Nil(t, result)
}

func TestApplySideEffectsReportsLostPromoGuard(t *testing.T) {
	store := newMemStore()
	promo := seedPromo(store, 5, 10, "SAVE10", models.DiscountTypePercentage, "10")
	maxUses := 1
	promo.MaxUses = &maxUses
	promo.CurrentUses = 1

	promoID := promo.ID
	store.effects[42] = &models.SaleSideEffects{SaleID: 42, PromoCodeID: &promoID}

	publisher := &fakePublisher{}
	svc := newTestPurchaseService(store, publisher, nil, PricingOptions{FeeRate: mustDecimal("0.03")})

	result, err := svc.ApplySideEffects(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, result)

	// The sale stands; the lost guard is surfaced for reconciliation.
	assert.True(t, result.PromoAtCapacity)
	assert.Equal(t, 1, promo.CurrentUses)
	assert.False(t, store.effects[42].Pending())
	assert.Equal(t, 1, publisher.published(models.EventPromoAtCapacity))
}

func TestShareConversionAttributedOnPurchase(t *testing.T) {
	store := newMemStore()
	seedTicketType(store, 1, 10, "60", 100, 0)
	svc := newTestPurchaseService(store, nil, nil, PricingOptions{FeeRate: mustDecimal("0.03")})

	req := validRequest()
	req.SharePlatform = "instagram"
	req.ShareSource = "stories"

	resp, err := svc.Purchase(context.Background(), req)
	require.NoError(t, err)

	share := store.shares["instagram"]
	require.NotNil(t, share)
	assert.Equal(t, 1, share.ConversionCount)
	assert.True(t, resp.Sale.TotalAmount.Equal(share.RevenueGenerated))
}

func TestGetSaleByOrderNumber(t *testing.T) {
	store := newMemStore()
	seedTicketType(store, 1, 10, "60", 100, 0)
	svc := newTestPurchaseService(store, nil, nil, PricingOptions{FeeRate: mustDecimal("0.03")})

	resp, err := svc.Purchase(context.Background(), validRequest())
	require.NoError(t, err)

	sale, err := svc.GetSaleByOrderNumber(context.Background(), resp.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, resp.Sale.ID, sale.ID)

	_, err = svc.GetSaleByOrderNumber(context.Background(), "missing")
	assert.True(t, errors.HasCode(err, errors.CodeSaleNotFound))
}
