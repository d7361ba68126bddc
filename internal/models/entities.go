package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Discount types for promo codes
const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

// Referral statuses. pending → used is terminal; expired is time-driven and
// never set by the sale engine.
const (
	ReferralStatusPending = "pending"
	ReferralStatusUsed    = "used"
	ReferralStatusExpired = "expired"
)

// Payment statuses of a ticket sale
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
	PaymentStatusDisputed = "disputed"
)

// TicketType is a finite inventory of tickets for an event.
// quantity_sold is mutated only by the sale committer's guarded update.
type TicketType struct {
	ID                int64           `json:"id"`
	EventID           int64           `json:"event_id"`
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	QuantityAvailable int             `json:"quantity_available"`
	QuantitySold      int             `json:"quantity_sold"`
	MaxPerCustomer    *int            `json:"max_per_customer,omitempty"`
	SaleStart         *time.Time      `json:"sale_start,omitempty"`
	SaleEnd           *time.Time      `json:"sale_end,omitempty"`
	Benefits          pq.StringArray  `json:"benefits"`
	IsActive          bool            `json:"is_active"`
	IsTransferable    bool            `json:"is_transferable"`
	TransferFee       decimal.Decimal `json:"transfer_fee"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Available returns the remaining sellable quantity in this snapshot.
func (t *TicketType) Available() int {
	return t.QuantityAvailable - t.QuantitySold
}

// OnSaleAt reports whether the sale window (if any) covers now.
func (t *TicketType) OnSaleAt(now time.Time) bool {
	if t.SaleStart != nil && now.Before(*t.SaleStart) {
		return false
	}
	if t.SaleEnd != nil && now.After(*t.SaleEnd) {
		return false
	}
	return true
}

// PromoCode is a discount code scoped to an event.
// current_uses is mutated only by the sale committer's guarded update.
type PromoCode struct {
	ID                int64            `json:"id"`
	EventID           int64            `json:"event_id"`
	Code              string           `json:"code"`
	DiscountType      string           `json:"discount_type"`
	DiscountValue     decimal.Decimal  `json:"discount_value"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount,omitempty"`
	MinPurchaseAmount decimal.Decimal  `json:"min_purchase_amount"`
	MaxUses           *int             `json:"max_uses,omitempty"`
	CurrentUses       int              `json:"current_uses"`
	StartDate         *time.Time       `json:"start_date,omitempty"`
	EndDate           *time.Time       `json:"end_date,omitempty"`
	IsActive          bool             `json:"is_active"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// WithinWindow reports whether now falls inside [start_date, end_date].
func (p *PromoCode) WithinWindow(now time.Time) bool {
	if p.StartDate != nil && now.Before(*p.StartDate) {
		return false
	}
	if p.EndDate != nil && now.After(*p.EndDate) {
		return false
	}
	return true
}

// UsesRemaining reports whether the code is still under its usage cap.
func (p *PromoCode) UsesRemaining() bool {
	return p.MaxUses == nil || p.CurrentUses < *p.MaxUses
}

// Referral is a single-use discount code issued by a referrer to an invitee.
type Referral struct {
	ID             int64           `json:"id"`
	ReferrerID     int64           `json:"referrer_id"`
	ReferredEmail  string          `json:"referred_email"`
	EventID        int64           `json:"event_id"`
	ReferralCode   string          `json:"referral_code"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Status         string          `json:"status"`
	UsedAt         *time.Time      `json:"used_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TicketSale is the durable record of a committed purchase. It is created
// exactly once and immutable except payment_status transitions, which happen
// outside this engine.
type TicketSale struct {
	ID             int64           `json:"id"`
	TicketTypeID   int64           `json:"ticket_type_id"`
	EventID        int64           `json:"event_id"`
	CustomerEmail  string          `json:"customer_email"`
	CustomerName   string          `json:"customer_name"`
	CustomerPhone  *string         `json:"customer_phone,omitempty"`
	Quantity       int             `json:"quantity"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Fees           decimal.Decimal `json:"fees"`
	PaymentStatus  string          `json:"payment_status"`
	OrderNumber    string          `json:"order_number"`
	PromoCodeID    *int64          `json:"promo_code_id,omitempty"`
	ReferralID     *int64          `json:"referral_id,omitempty"`
	SharePlatform  *string         `json:"share_platform,omitempty"`
	ShareSource    *string         `json:"share_source,omitempty"`
	DeliveryMethod string          `json:"delivery_method"`
	BillingAddress *string         `json:"billing_address,omitempty"`
	Metadata       []byte          `json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ShareEvent accumulates share attribution per (event, ticket type, platform).
type ShareEvent struct {
	ID               int64           `json:"id"`
	EventID          int64           `json:"event_id"`
	TicketTypeID     *int64          `json:"ticket_type_id,omitempty"`
	Platform         string          `json:"platform"`
	ClickCount       int             `json:"click_count"`
	ConversionCount  int             `json:"conversion_count"`
	RevenueGenerated decimal.Decimal `json:"revenue_generated"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// SaleSideEffects is the saga ledger row for one sale: which dependent
// counter updates are still pending. Replaying an already-applied step is a
// no-op because each applied_at stamp is checked before acting.
type SaleSideEffects struct {
	SaleID         int64      `json:"sale_id"`
	PromoCodeID    *int64     `json:"promo_code_id,omitempty"`
	PromoAppliedAt *time.Time `json:"promo_applied_at,omitempty"`
	SharePlatform  *string    `json:"share_platform,omitempty"`
	ShareSource    *string    `json:"share_source,omitempty"`
	ShareAppliedAt *time.Time `json:"share_applied_at,omitempty"`
	Attempts       int        `json:"attempts"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// Pending reports whether any side effect still needs to be applied.
func (s *SaleSideEffects) Pending() bool {
	return s.CompletedAt == nil
}
