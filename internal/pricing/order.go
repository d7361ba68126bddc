package pricing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stagepass/internal/models"
)

// Assembler builds candidate sale records from a resolved quote.
type Assembler struct {
	feeRate decimal.Decimal
}

func NewAssembler(feeRate decimal.Decimal) *Assembler {
	return &Assembler{feeRate: feeRate}
}

// NewOrderNumber returns a globally unique order identifier. A random
// 128-bit UUID replaces timestamp+suffix schemes, which collide under
// concurrent purchases.
func NewOrderNumber() string {
	return uuid.New().String()
}

// Build assembles the candidate TicketSale for a purchase request.
// total = max(0, subtotal - total_discount); fees = total * fee rate.
// payment_status is "paid": the payment collaborator has already captured
// funds before this engine runs.
func (a *Assembler) Build(ticketType *models.TicketType, req *models.PurchaseRequest, quote *Quote, now time.Time) *models.TicketSale {
	total := quote.Subtotal.Sub(quote.TotalDiscount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	fees := total.Mul(a.feeRate).Round(2)

	deliveryMethod := req.DeliveryMethod
	if deliveryMethod == "" {
		deliveryMethod = "digital"
	}

	sale := &models.TicketSale{
		TicketTypeID:   ticketType.ID,
		EventID:        ticketType.EventID,
		CustomerEmail:  req.CustomerEmail,
		CustomerName:   req.CustomerName,
		Quantity:       req.Quantity,
		TotalAmount:    total,
		Fees:           fees,
		PaymentStatus:  models.PaymentStatusPaid,
		OrderNumber:    NewOrderNumber(),
		DeliveryMethod: deliveryMethod,
		CreatedAt:      now,
	}

	if req.CustomerPhone != "" {
		sale.CustomerPhone = &req.CustomerPhone
	}
	if req.BillingAddress != "" {
		sale.BillingAddress = &req.BillingAddress
	}
	if req.SharePlatform != "" {
		sale.SharePlatform = &req.SharePlatform
	}
	if req.ShareSource != "" {
		sale.ShareSource = &req.ShareSource
	}
	if quote.AppliedPromo != nil {
		sale.PromoCodeID = &quote.AppliedPromo.ID
	}
	if quote.AppliedReferral != nil {
		sale.ReferralID = &quote.AppliedReferral.ID
	}

	return sale
}
