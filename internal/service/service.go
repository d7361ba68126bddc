package service

import (
	"context"

	"github.com/shopspring/decimal"

	"stagepass/internal/models"
	"stagepass/internal/repository"
)

// Store interfaces are satisfied by the repository structs; tests substitute
// in-memory fakes that emulate the guarded-update semantics.

type TicketTypeStore interface {
	GetByID(ctx context.Context, id int64) (*models.TicketType, error)
	GetActiveByEventID(ctx context.Context, eventID int64) ([]models.TicketType, error)
	GetEventInfo(ctx context.Context, eventID int64) (*models.EventInfo, error)
}

type PromoCodeStore interface {
	GetByCode(ctx context.Context, eventID int64, code string) (*models.PromoCode, error)
	GetActiveByEventID(ctx context.Context, eventID int64) ([]models.PromoCode, error)
}

type ReferralStore interface {
	GetByCode(ctx context.Context, code string) (*models.Referral, error)
}

type SaleStore interface {
	CommitPurchase(ctx context.Context, sale *models.TicketSale, effects *models.SaleSideEffects) error
	GetByOrderNumber(ctx context.Context, orderNumber string) (*models.TicketSale, error)
}

type ShareEventStore interface {
	GetStatsByEventID(ctx context.Context, eventID int64) (map[string]models.PlatformStats, error)
	GetByEventID(ctx context.Context, eventID int64) ([]models.ShareEvent, error)
	RecordClick(ctx context.Context, eventID int64, ticketTypeID *int64, platform string) error
}

type SideEffectStore interface {
	Apply(ctx context.Context, saleID int64) (*repository.ApplyResult, error)
}

// Publisher decouples services from the messaging client. A nil publisher
// disables events.
type Publisher interface {
	Publish(subject string, data interface{}) error
}

// CacheInvalidator drops catalog entries whose availability a purchase
// changed. A nil invalidator disables caching.
type CacheInvalidator interface {
	InvalidateEvent(ctx context.Context, eventID int64) error
}

// PricingOptions carries the named pricing knobs into the purchase pipeline.
type PricingOptions struct {
	FeeRate           decimal.Decimal
	EnforceSaleWindow bool
}

type Services struct {
	Availability *AvailabilityService
	Catalog      *CatalogService
	Purchases    *PurchaseService
}

func NewServices(repos *repository.Repositories, publisher Publisher, invalidator CacheInvalidator, opts PricingOptions) *Services {
	availabilityService := NewAvailabilityService(repos.TicketTypes, repos.PromoCodes)
	catalogService := NewCatalogService(repos.TicketTypes, repos.PromoCodes, repos.ShareEvents)
	purchaseService := NewPurchaseService(repos.TicketTypes, repos.PromoCodes, repos.Referrals,
		repos.Sales, repos.SideEffects, publisher, invalidator, opts)

	return &Services{
		Availability: availabilityService,
		Catalog:      catalogService,
		Purchases:    purchaseService,
	}
}
