package reconciler

import (
	"context"
	"log/slog"
	"time"

	"stagepass/internal/config"
	"stagepass/internal/database"
	"stagepass/internal/messaging"
	"stagepass/internal/repository"
	"stagepass/internal/service"
)

// ReconcilerService drives the two retry paths for unapplied sale side
// effects: the sale.committed queue subscription and the periodic sweep over
// stale pending ledger rows. Applying is idempotent, so the paths may overlap.
type ReconcilerService struct {
	db       *database.DB
	nats     *messaging.NATSClient
	repos    *repository.Repositories
	handlers *Handlers
	sweep    config.SagaConfig
	done     chan struct{}
}

func NewReconcilerService(cfg *config.Config) (*ReconcilerService, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		return nil, err
	}

	repos := repository.NewRepositories(db)

	opts := service.PricingOptions{
		FeeRate:           cfg.Pricing.FeeRate,
		EnforceSaleWindow: cfg.Pricing.EnforceSaleWindow,
	}
	services := service.NewServices(repos, natsClient, nil, opts)

	handlers := NewHandlers(services.Purchases)

	return &ReconcilerService{
		db:       db,
		nats:     natsClient,
		repos:    repos,
		handlers: handlers,
		sweep:    cfg.Saga,
		done:     make(chan struct{}),
	}, nil
}

func (rs *ReconcilerService) Start() error {
	slog.Info("Starting side-effect reconciler...")

	_, err := rs.nats.SubscribeQueue("sale.committed", "reconciler", rs.handlers.HandleSaleCommitted)
	if err != nil {
		return err
	}

	go rs.runSweep()

	slog.Info("Reconciler started successfully")
	return nil
}

// runSweep periodically retries pending side effects old enough that the
// inline application and the queue path have both had their chance.
func (rs *ReconcilerService) runSweep() {
	ticker := time.NewTicker(rs.sweep.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rs.sweepOnce()
		case <-rs.done:
			return
		}
	}
}

func (rs *ReconcilerService) sweepOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), rs.sweep.SweepInterval)
	defer cancel()

	olderThan := time.Now().Add(-rs.sweep.MinAge)
	saleIDs, err := rs.repos.SideEffects.GetPending(ctx, olderThan, rs.sweep.SweepBatch)
	if err != nil {
		slog.Error("Failed to list pending side effects", "error", err)
		return
	}

	if len(saleIDs) == 0 {
		return
	}

	slog.Info("Sweeping pending side effects", "count", len(saleIDs))

	for _, saleID := range saleIDs {
		if _, err := rs.handlers.purchases.ApplySideEffects(ctx, saleID); err != nil {
			slog.Error("Failed to apply side effects during sweep", "sale_id", saleID, "error", err)
		}
	}
}

func (rs *ReconcilerService) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down reconciler service...")

	close(rs.done)

	if rs.nats != nil {
		if err := rs.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if rs.db != nil {
		if err := rs.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
