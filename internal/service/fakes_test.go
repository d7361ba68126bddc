package service

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"stagepass/internal/models"
	"stagepass/internal/repository"
)

// memStore is an in-memory stand-in for the repositories. All mutations run
// under one mutex, matching the atomicity the database gives the real ones.
type memStore struct {
	mu          sync.Mutex
	ticketTypes map[int64]*models.TicketType
	promos      map[int64]*models.PromoCode
	referrals   map[int64]*models.Referral
	sales       map[int64]*models.TicketSale
	effects     map[int64]*models.SaleSideEffects
	shares      map[string]*models.ShareEvent
	nextSaleID  int64
}

func newMemStore() *memStore {
	return &memStore{
		ticketTypes: make(map[int64]*models.TicketType),
		promos:      make(map[int64]*models.PromoCode),
		referrals:   make(map[int64]*models.Referral),
		sales:       make(map[int64]*models.TicketSale),
		effects:     make(map[int64]*models.SaleSideEffects),
		shares:      make(map[string]*models.ShareEvent),
	}
}

func (m *memStore) GetByID(ctx context.Context, id int64) (*models.TicketType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tt, ok := m.ticketTypes[id]
	if !ok {
		return nil, nil
	}
	copied := *tt
	return &copied, nil
}

func (m *memStore) GetActiveByEventID(ctx context.Context, eventID int64) ([]models.TicketType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.TicketType
	for _, tt := range m.ticketTypes {
		if tt.EventID == eventID && tt.IsActive {
			out = append(out, *tt)
		}
	}
	return out, nil
}

func (m *memStore) GetEventInfo(ctx context.Context, eventID int64) (*models.EventInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info := &models.EventInfo{EventID: eventID}
	for _, tt := range m.ticketTypes {
		if tt.EventID != eventID || !tt.IsActive {
			continue
		}
		info.TicketTypes++
		info.TotalCapacity += tt.QuantityAvailable
		info.TotalSold += tt.QuantitySold
		if info.MinPrice == nil || tt.Price.LessThan(*info.MinPrice) {
			price := tt.Price
			info.MinPrice = &price
		}
	}
	return info, nil
}

type promoStore struct{ *memStore }

func (m *memStore) promoCodes() *promoStore { return &promoStore{m} }

func (p *promoStore) GetByCode(ctx context.Context, eventID int64, code string) (*models.PromoCode, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, promo := range p.promos {
		if promo.EventID == eventID && promo.Code == code {
			copied := *promo
			return &copied, nil
		}
	}
	return nil, nil
}

func (p *promoStore) GetActiveByEventID(ctx context.Context, eventID int64) ([]models.PromoCode, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	var out []models.PromoCode
	for _, promo := range p.promos {
		if promo.EventID == eventID && promo.IsActive && promo.WithinWindow(now) && promo.UsesRemaining() {
			out = append(out, *promo)
		}
	}
	return out, nil
}

func (m *memStore) GetByCode(ctx context.Context, code string) (*models.Referral, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ref := range m.referrals {
		if ref.ReferralCode == code {
			copied := *ref
			return &copied, nil
		}
	}
	return nil, nil
}

// CommitPurchase mirrors the real transaction: guarded inventory update,
// referral CAS, sale insert, side-effect ledger row, all or nothing.
func (m *memStore) CommitPurchase(ctx context.Context, sale *models.TicketSale, effects *models.SaleSideEffects) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tt, ok := m.ticketTypes[sale.TicketTypeID]
	if !ok || tt.QuantitySold+sale.Quantity > tt.QuantityAvailable {
		return repository.ErrInsufficientInventory
	}

	if sale.ReferralID != nil {
		ref, ok := m.referrals[*sale.ReferralID]
		if !ok || ref.Status != models.ReferralStatusPending {
			return repository.ErrReferralConsumed
		}
		now := time.Now()
		ref.Status = models.ReferralStatusUsed
		ref.UsedAt = &now
	}

	tt.QuantitySold += sale.Quantity

	m.nextSaleID++
	sale.ID = m.nextSaleID
	sale.CreatedAt = time.Now()
	m.sales[sale.ID] = sale

	row := *effects
	row.SaleID = sale.ID
	row.CreatedAt = sale.CreatedAt
	if row.PromoCodeID == nil && row.SharePlatform == nil {
		done := sale.CreatedAt
		row.CompletedAt = &done
	}
	m.effects[sale.ID] = &row

	return nil
}

func (m *memStore) GetByOrderNumber(ctx context.Context, orderNumber string) (*models.TicketSale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sale := range m.sales {
		if sale.OrderNumber == orderNumber {
			return sale, nil
		}
	}
	return nil, nil
}

func (m *memStore) Apply(ctx context.Context, saleID int64) (*repository.ApplyResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	effects, ok := m.effects[saleID]
	if !ok {
		return nil, nil
	}

	result := &repository.ApplyResult{PromoCodeID: effects.PromoCodeID, Attempts: effects.Attempts}
	if effects.CompletedAt != nil {
		result.AlreadyDone = true
		return result, nil
	}

	now := time.Now()

	if effects.PromoCodeID != nil && effects.PromoAppliedAt == nil {
		promo, ok := m.promos[*effects.PromoCodeID]
		if !ok || !promo.UsesRemaining() {
			result.PromoAtCapacity = true
		} else {
			promo.CurrentUses++
		}
		effects.PromoAppliedAt = &now
	}

	if effects.SharePlatform != nil && effects.ShareAppliedAt == nil {
		sale := m.sales[saleID]
		share, ok := m.shares[*effects.SharePlatform]
		if !ok {
			share = &models.ShareEvent{EventID: sale.EventID, Platform: *effects.SharePlatform}
			m.shares[*effects.SharePlatform] = share
		}
		share.ConversionCount++
		share.RevenueGenerated = share.RevenueGenerated.Add(sale.TotalAmount)
		effects.ShareAppliedAt = &now
	}

	effects.Attempts++
	effects.CompletedAt = &now
	result.Attempts = effects.Attempts

	return result, nil
}

func (m *memStore) GetStatsByEventID(ctx context.Context, eventID int64) (map[string]models.PlatformStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := make(map[string]models.PlatformStats)
	for _, share := range m.shares {
		if share.EventID != eventID {
			continue
		}
		s := stats[share.Platform]
		s.Clicks += share.ClickCount
		s.Conversions += share.ConversionCount
		s.Revenue = s.Revenue.Add(share.RevenueGenerated)
		stats[share.Platform] = s
	}
	return stats, nil
}

func (m *memStore) GetByEventID(ctx context.Context, eventID int64) ([]models.ShareEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ShareEvent
	for _, share := range m.shares {
		if share.EventID == eventID {
			out = append(out, *share)
		}
	}
	return out, nil
}

func (m *memStore) RecordClick(ctx context.Context, eventID int64, ticketTypeID *int64, platform string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	share, ok := m.shares[platform]
	if !ok {
		share = &models.ShareEvent{EventID: eventID, TicketTypeID: ticketTypeID, Platform: platform}
		m.shares[platform] = share
	}
	share.ClickCount++
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *fakePublisher) Publish(subject string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

func (p *fakePublisher) published(subject string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	count := 0
	for _, s := range p.subjects {
		if s == subject {
			count++
		}
	}
	return count
}

type fakeInvalidator struct {
	mu     sync.Mutex
	events []int64
}

func (f *fakeInvalidator) InvalidateEvent(ctx context.Context, eventID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, eventID)
	return nil
}

func mustDecimal(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func seedTicketType(store *memStore, id, eventID int64, price string, available, sold int) *models.TicketType {
	tt := &models.TicketType{
		ID:                id,
		EventID:           eventID,
		Name:              "General Admission",
		Price:             mustDecimal(price),
		QuantityAvailable: available,
		QuantitySold:      sold,
		IsActive:          true,
	}
	store.ticketTypes[id] = tt
	return tt
}

func seedPromo(store *memStore, id, eventID int64, code, discountType, value string) *models.PromoCode {
	promo := &models.PromoCode{
		ID:                id,
		EventID:           eventID,
		Code:              code,
		DiscountType:      discountType,
		DiscountValue:     mustDecimal(value),
		MinPurchaseAmount: decimal.Zero,
		IsActive:          true,
	}
	store.promos[id] = promo
	return promo
}

func seedReferral(store *memStore, id, eventID int64, code, amount string) *models.Referral {
	ref := &models.Referral{
		ID:             id,
		EventID:        eventID,
		ReferralCode:   code,
		DiscountAmount: mustDecimal(amount),
		Status:         models.ReferralStatusPending,
	}
	store.referrals[id] = ref
	return ref
}

func newTestPurchaseService(store *memStore, publisher *fakePublisher, invalidator *fakeInvalidator, opts PricingOptions) *PurchaseService {
	var pub Publisher
	if publisher != nil {
		pub = publisher
	}
	var inv CacheInvalidator
	if invalidator != nil {
		inv = invalidator
	}
	return NewPurchaseService(store, store.promoCodes(), store, store, store, pub, inv, opts)
}
