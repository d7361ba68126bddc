package reconciler

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/stan.go"

	"stagepass/internal/models"
	"stagepass/internal/service"
)

type Handlers struct {
	purchases *service.PurchaseService
}

func NewHandlers(purchases *service.PurchaseService) *Handlers {
	return &Handlers{purchases: purchases}
}

// HandleSaleCommitted replays the side effects of a committed sale. The ledger
// makes this a no-op when the inline application already succeeded, so the
// message is always safe to process.
func (h *Handlers) HandleSaleCommitted(m *stan.Msg) {
	var event models.SaleCommittedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal sale committed event", "error", err)
		m.Ack()
		return
	}

	slog.Info("Processing sale committed event",
		"sale_id", event.SaleID, "order_number", event.OrderNumber)

	ctx := context.Background()
	result, err := h.purchases.ApplySideEffects(ctx, event.SaleID)
	if err != nil {
		// No ack: redelivery is the retry mechanism.
		slog.Error("Failed to apply side effects", "sale_id", event.SaleID, "error", err)
		return
	}

	if result != nil && result.AlreadyDone {
		slog.Debug("Side effects already applied", "sale_id", event.SaleID)
	}

	m.Ack()
}
