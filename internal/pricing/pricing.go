// Package pricing implements the discount resolver and order assembler: pure
// price arithmetic over records the caller has already loaded. It touches no
// store and holds no state, so every rule here is unit-testable.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"stagepass/internal/errors"
	"stagepass/internal/models"
)

var oneHundred = decimal.NewFromInt(100)

// Quote is the resolved discount breakdown for a candidate purchase.
type Quote struct {
	Subtotal         decimal.Decimal
	PromoDiscount    decimal.Decimal
	ReferralDiscount decimal.Decimal
	TotalDiscount    decimal.Decimal
	AppliedPromo     *models.PromoCode
	AppliedReferral  *models.Referral
}

// Subtotal computes price * quantity.
func Subtotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

// ValidatePromo checks a loaded promo code against the subtotal in the order
// the engine guarantees: active, inside its window, under its usage cap,
// minimum purchase met. Each failure carries a distinct reason code.
func ValidatePromo(promo *models.PromoCode, subtotal decimal.Decimal, now time.Time) error {
	if !promo.IsActive {
		return errors.State(errors.CodeInvalidPromoCode, "promo code is not active")
	}
	if !promo.WithinWindow(now) {
		return errors.State(errors.CodePromoExpired, "promo code is not valid at this time")
	}
	if !promo.UsesRemaining() {
		return errors.State(errors.CodePromoUsageExceeded, "promo code has reached its usage limit")
	}
	if subtotal.LessThan(promo.MinPurchaseAmount) {
		return errors.Newf(errors.KindState, errors.CodeMinPurchaseNotMet,
			"purchase amount %s is below the %s minimum for this promo code",
			subtotal.StringFixed(2), promo.MinPurchaseAmount.StringFixed(2))
	}
	return nil
}

// PromoDiscount computes the promo's own discount against the subtotal.
// Percentage discounts are clamped to max_discount_amount; fixed discounts are
// returned as-is, the combined clamp happens in Resolve.
func PromoDiscount(promo *models.PromoCode, subtotal decimal.Decimal) decimal.Decimal {
	switch promo.DiscountType {
	case models.DiscountTypePercentage:
		discount := subtotal.Mul(promo.DiscountValue).Div(oneHundred).Round(2)
		if promo.MaxDiscountAmount != nil && discount.GreaterThan(*promo.MaxDiscountAmount) {
			discount = *promo.MaxDiscountAmount
		}
		return discount
	case models.DiscountTypeFixed:
		return promo.DiscountValue
	default:
		return decimal.Zero
	}
}

// ValidateReferral checks a loaded referral code for the given event.
func ValidateReferral(referral *models.Referral, eventID int64) error {
	if referral.EventID != eventID {
		return errors.NotFound(errors.CodeInvalidReferral, "referral code is not valid for this event")
	}
	if referral.Status != models.ReferralStatusPending {
		return errors.State(errors.CodeReferralUsed, "referral code has already been used")
	}
	return nil
}

// Resolve prices an optional promo and/or referral against price * quantity.
// Stacking policy: the promo discount is computed first, the referral discount
// is additive on top, and the combined discount is clamped to [0, subtotal]
// last. The order matters near the subtotal ceiling and must not change.
func Resolve(price decimal.Decimal, quantity int, eventID int64, promo *models.PromoCode, referral *models.Referral, now time.Time) (*Quote, error) {
	subtotal := Subtotal(price, quantity)
	quote := &Quote{
		Subtotal:         subtotal,
		PromoDiscount:    decimal.Zero,
		ReferralDiscount: decimal.Zero,
		TotalDiscount:    decimal.Zero,
	}

	if promo != nil {
		if err := ValidatePromo(promo, subtotal, now); err != nil {
			return nil, err
		}
		quote.PromoDiscount = PromoDiscount(promo, subtotal)
		quote.AppliedPromo = promo
	}

	if referral != nil {
		if err := ValidateReferral(referral, eventID); err != nil {
			return nil, err
		}
		quote.ReferralDiscount = referral.DiscountAmount
		quote.AppliedReferral = referral
	}

	total := quote.PromoDiscount.Add(quote.ReferralDiscount)
	if total.GreaterThan(subtotal) {
		total = subtotal
	}
	if total.IsNegative() {
		total = decimal.Zero
	}
	quote.TotalDiscount = total

	return quote, nil
}
