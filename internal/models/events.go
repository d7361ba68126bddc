package models

import "time"

// NATS subjects
const (
	EventSaleCommitted       = "sale.committed"
	EventSideEffectsApplied  = "sale.side_effects.applied"
	EventPromoAtCapacity     = "promo.at_capacity"
)

// SaleCommittedEvent is published after the atomic commit so the reconciler
// can replay any side effects the API process failed to apply inline.
type SaleCommittedEvent struct {
	SaleID       int64     `json:"sale_id"`
	OrderNumber  string    `json:"order_number"`
	EventID      int64     `json:"event_id"`
	TicketTypeID int64     `json:"ticket_type_id"`
	Quantity     int       `json:"quantity"`
	TotalAmount  string    `json:"total_amount"`
	Timestamp    time.Time `json:"timestamp"`
}

// SideEffectsAppliedEvent marks a sale's dependent counters as consistent.
type SideEffectsAppliedEvent struct {
	SaleID    int64     `json:"sale_id"`
	Attempts  int       `json:"attempts"`
	Timestamp time.Time `json:"timestamp"`
}

// PromoAtCapacityEvent surfaces the race-lost promo increment: the sale
// stands but the promo counter is at its cap and needs human reconciliation.
type PromoAtCapacityEvent struct {
	SaleID      int64     `json:"sale_id"`
	PromoCodeID int64     `json:"promo_code_id"`
	Timestamp   time.Time `json:"timestamp"`
}
