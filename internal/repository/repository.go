package repository

import (
	"errors"

	"stagepass/internal/database"
)

// Sentinel outcomes of guarded updates. The service layer maps these to the
// client-facing error taxonomy.
var (
	// ErrInsufficientInventory: the inventory guard matched zero rows, the
	// reservation lost the race or the request exceeded capacity.
	ErrInsufficientInventory = errors.New("insufficient inventory")
	// ErrReferralConsumed: the referral compare-and-set matched zero rows, a
	// concurrent purchase consumed the code first.
	ErrReferralConsumed = errors.New("referral already consumed")
)

type Repositories struct {
	TicketTypes *TicketTypeRepository
	PromoCodes  *PromoCodeRepository
	Referrals   *ReferralRepository
	Sales       *SaleRepository
	ShareEvents *ShareEventRepository
	SideEffects *SideEffectRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		TicketTypes: NewTicketTypeRepository(db),
		PromoCodes:  NewPromoCodeRepository(db),
		Referrals:   NewReferralRepository(db),
		Sales:       NewSaleRepository(db),
		ShareEvents: NewShareEventRepository(db),
		SideEffects: NewSideEffectRepository(db),
	}
}
