package models

import (
	"github.com/shopspring/decimal"
)

// ErrorBody carries the machine-readable reason separately from the human
// message.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PurchaseRequest - запрос на покупку билетов
type PurchaseRequest struct {
	TicketTypeID   int64  `json:"ticket_type_id" binding:"required"`
	EventID        int64  `json:"event_id" binding:"required"`
	CustomerEmail  string `json:"customer_email" binding:"required,email"`
	CustomerName   string `json:"customer_name" binding:"required"`
	Quantity       int    `json:"quantity" binding:"required,min=1"`
	PromoCode      string `json:"promo_code,omitempty"`
	ReferralCode   string `json:"referral_code,omitempty"`
	SharePlatform  string `json:"share_platform,omitempty"`
	ShareSource    string `json:"share_source,omitempty"`
	CustomerPhone  string `json:"customer_phone,omitempty"`
	BillingAddress string `json:"billing_address,omitempty"`
	DeliveryMethod string `json:"delivery_method,omitempty"`
}

// PurchaseResponse - результат успешной покупки
type PurchaseResponse struct {
	Sale            *TicketSale     `json:"sale"`
	OrderNumber     string          `json:"order_number"`
	DiscountApplied bool            `json:"discount_applied"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
}

// CheckAvailabilityRequest - запрос на проверку доступности
type CheckAvailabilityRequest struct {
	TicketTypeID int64  `json:"ticket_type_id" binding:"required"`
	Quantity     int    `json:"quantity" binding:"required,min=1"`
	PromoCode    string `json:"promo_code,omitempty"`
}

// CheckAvailabilityResponse - снимок доступности, не резервация
type CheckAvailabilityResponse struct {
	Available        int             `json:"available"`
	CanPurchase      bool            `json:"can_purchase"`
	TicketType       *TicketTypeView `json:"ticket_type"`
	PromoCodePreview *PromoPreview   `json:"promo_code_preview,omitempty"`
}

// PromoPreview is the non-binding discount preview returned by availability
// checks; the authoritative resolution happens at purchase time.
type PromoPreview struct {
	Valid          bool             `json:"valid"`
	DiscountAmount *decimal.Decimal `json:"discount_amount,omitempty"`
	FinalAmount    *decimal.Decimal `json:"final_amount,omitempty"`
	Error          *ErrorBody       `json:"error,omitempty"`
}

// ValidatePromoCodeRequest - запрос на проверку промокода
type ValidatePromoCodeRequest struct {
	Code           string          `json:"code" binding:"required"`
	EventID        int64           `json:"event_id" binding:"required"`
	TicketTypeID   *int64          `json:"ticket_type_id,omitempty"`
	PurchaseAmount decimal.Decimal `json:"purchase_amount" binding:"required"`
}

// ValidatePromoCodeResponse mirrors PromoPreview for the standalone endpoint.
type ValidatePromoCodeResponse struct {
	Valid          bool             `json:"valid"`
	DiscountAmount *decimal.Decimal `json:"discount_amount,omitempty"`
	FinalAmount    *decimal.Decimal `json:"final_amount,omitempty"`
	Error          *ErrorBody       `json:"error,omitempty"`
}

// TicketTypeView - публичные поля типа билета с вычисленной доступностью
type TicketTypeView struct {
	ID                int64           `json:"id"`
	EventID           int64           `json:"event_id"`
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	QuantityAvailable int             `json:"quantity_available"`
	QuantitySold      int             `json:"quantity_sold"`
	Available         int             `json:"available"`
	IsAvailable       bool            `json:"is_available"`
	PercentageSold    float64         `json:"percentage_sold"`
	MaxPerCustomer    *int            `json:"max_per_customer,omitempty"`
	Benefits          []string        `json:"benefits"`
	IsTransferable    bool            `json:"is_transferable"`
	TransferFee       decimal.Decimal `json:"transfer_fee"`
}

// NewTicketTypeView computes the display projection of a ticket type.
func NewTicketTypeView(t *TicketType) *TicketTypeView {
	available := t.Available()
	percentageSold := 0.0
	if t.QuantityAvailable > 0 {
		percentageSold = float64(t.QuantitySold) / float64(t.QuantityAvailable) * 100
	}

	return &TicketTypeView{
		ID:                t.ID,
		EventID:           t.EventID,
		Name:              t.Name,
		Price:             t.Price,
		QuantityAvailable: t.QuantityAvailable,
		QuantitySold:      t.QuantitySold,
		Available:         available,
		IsAvailable:       available > 0,
		PercentageSold:    percentageSold,
		MaxPerCustomer:    t.MaxPerCustomer,
		Benefits:          t.Benefits,
		IsTransferable:    t.IsTransferable,
		TransferFee:       t.TransferFee,
	}
}

// PromoCodeView - публичные поля промокода для каталога
type PromoCodeView struct {
	Code              string           `json:"code"`
	DiscountType      string           `json:"discount_type"`
	DiscountValue     decimal.Decimal  `json:"discount_value"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount,omitempty"`
	MinPurchaseAmount decimal.Decimal  `json:"min_purchase_amount"`
}

// CampaignView is the marketing view of a scheduled promo code. The engine
// owns no separate campaign entity.
type CampaignView struct {
	Code          string          `json:"code"`
	DiscountType  string          `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	StartDate     string          `json:"start_date,omitempty"`
	EndDate       string          `json:"end_date,omitempty"`
	UsesRemaining *int            `json:"uses_remaining,omitempty"`
}

// ListTicketTypesResponse - каталог типов билетов события
type ListTicketTypesResponse struct {
	TicketTypes []*TicketTypeView        `json:"ticket_types"`
	Campaigns   []*CampaignView          `json:"campaigns"`
	PromoCodes  []*PromoCodeView         `json:"promo_codes"`
	SocialStats map[string]PlatformStats `json:"social_stats,omitempty"`
}

// PlatformStats - агрегированная статистика шеринга по платформе
type PlatformStats struct {
	Clicks      int             `json:"clicks"`
	Conversions int             `json:"conversions"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// RecordShareRequest - запрос на учет клика по шеринг-ссылке
type RecordShareRequest struct {
	Platform     string `json:"platform" binding:"required"`
	TicketTypeID *int64 `json:"ticket_type_id,omitempty"`
}

// SocialStatsResponse aggregates share attribution for an event, optionally
// with the raw per-link rows.
type SocialStatsResponse struct {
	EventID   int64                    `json:"event_id"`
	Platforms map[string]PlatformStats `json:"platforms"`
	Entries   []ShareEvent             `json:"entries,omitempty"`
}

// EventInfo is a projection aggregated from the event's ticket types; the
// engine owns no event entity.
type EventInfo struct {
	EventID       int64            `json:"event_id"`
	TicketTypes   int              `json:"ticket_types"`
	TotalCapacity int              `json:"total_capacity"`
	TotalSold     int              `json:"total_sold"`
	MinPrice      *decimal.Decimal `json:"min_price,omitempty"`
}

// AvailabilityResponse - снимок доступности одного типа билета
type AvailabilityResponse struct {
	Available   int             `json:"available"`
	IsAvailable bool            `json:"is_available"`
	TicketType  *TicketTypeView `json:"ticket_type"`
	Event       *EventInfo      `json:"event"`
}
