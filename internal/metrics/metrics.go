package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	purchasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stagepass_purchases_total",
			Help: "Purchase attempts by outcome",
		},
		[]string{"status"},
	)

	capacityRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stagepass_capacity_rejections_total",
			Help: "Purchases rejected because the inventory guard lost",
		},
	)

	discountAmounts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stagepass_discount_amount",
			Help:    "Total discount applied per committed sale",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	promoAtCapacity = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stagepass_promo_at_capacity_total",
			Help: "Promo usage increments lost to the usage cap after commit",
		},
	)

	pendingSideEffects = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stagepass_pending_side_effects",
			Help: "Sales whose side effects are still unapplied",
		},
	)
)

// RecordPurchase counts a purchase attempt by outcome.
func RecordPurchase(status string) {
	purchasesTotal.WithLabelValues(status).Inc()
}

// RecordCapacityRejection counts an oversell rejection.
func RecordCapacityRejection() {
	capacityRejections.Inc()
}

// RecordDiscount observes the total discount of a committed sale.
func RecordDiscount(amount float64) {
	discountAmounts.Observe(amount)
}

// RecordPromoAtCapacity counts a lost post-commit promo guard.
func RecordPromoAtCapacity() {
	promoAtCapacity.Inc()
}

// PendingCounter is anything that can report the side-effect backlog.
type PendingCounter interface {
	CountPending(ctx context.Context) (int, error)
}

// Monitor periodically samples the side-effect backlog.
type Monitor struct {
	counter PendingCounter
	done    chan struct{}
}

func NewMonitor(counter PendingCounter) *Monitor {
	return &Monitor{counter: counter, done: make(chan struct{})}
}

func (m *Monitor) Start() {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if count, err := m.counter.CountPending(ctx); err == nil {
					pendingSideEffects.Set(float64(count))
				}
				cancel()
			case <-m.done:
				return
			}
		}
	}()
}

func (m *Monitor) Stop() {
	close(m.done)
}
