package service

import (
	"context"
	"fmt"
	"time"

	"stagepass/internal/models"
)

type CatalogService struct {
	ticketTypes TicketTypeStore
	promoCodes  PromoCodeStore
	shareEvents ShareEventStore
}

func NewCatalogService(ticketTypes TicketTypeStore, promoCodes PromoCodeStore, shareEvents ShareEventStore) *CatalogService {
	return &CatalogService{
		ticketTypes: ticketTypes,
		promoCodes:  promoCodes,
		shareEvents: shareEvents,
	}
}

// ListTicketTypes returns the catalog for an event: active ticket types with
// computed availability, the active promo codes and their campaign view, and
// optionally the aggregated share statistics.
func (s *CatalogService) ListTicketTypes(ctx context.Context, eventID int64, includeAnalytics bool) (*models.ListTicketTypesResponse, error) {
	ticketTypes, err := s.ticketTypes.GetActiveByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ticket types: %w", err)
	}

	promoCodes, err := s.promoCodes.GetActiveByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list promo codes: %w", err)
	}

	resp := &models.ListTicketTypesResponse{
		TicketTypes: make([]*models.TicketTypeView, 0, len(ticketTypes)),
		Campaigns:   make([]*models.CampaignView, 0),
		PromoCodes:  make([]*models.PromoCodeView, 0, len(promoCodes)),
	}

	for i := range ticketTypes {
		resp.TicketTypes = append(resp.TicketTypes, models.NewTicketTypeView(&ticketTypes[i]))
	}

	for i := range promoCodes {
		p := &promoCodes[i]
		resp.PromoCodes = append(resp.PromoCodes, &models.PromoCodeView{
			Code:              p.Code,
			DiscountType:      p.DiscountType,
			DiscountValue:     p.DiscountValue,
			MaxDiscountAmount: p.MaxDiscountAmount,
			MinPurchaseAmount: p.MinPurchaseAmount,
		})

		// Scheduled codes double as the event's marketing campaigns.
		if p.StartDate != nil || p.EndDate != nil {
			campaign := &models.CampaignView{
				Code:          p.Code,
				DiscountType:  p.DiscountType,
				DiscountValue: p.DiscountValue,
			}
			if p.StartDate != nil {
				campaign.StartDate = p.StartDate.Format(time.RFC3339)
			}
			if p.EndDate != nil {
				campaign.EndDate = p.EndDate.Format(time.RFC3339)
			}
			if p.MaxUses != nil {
				remaining := *p.MaxUses - p.CurrentUses
				campaign.UsesRemaining = &remaining
			}
			resp.Campaigns = append(resp.Campaigns, campaign)
		}
	}

	if includeAnalytics {
		stats, err := s.shareEvents.GetStatsByEventID(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("failed to get share stats: %w", err)
		}
		resp.SocialStats = stats
	}

	return resp, nil
}

// GetSocialStats aggregates share attribution by platform, optionally with
// the raw per-link rows.
func (s *CatalogService) GetSocialStats(ctx context.Context, eventID int64, includeEntries bool) (*models.SocialStatsResponse, error) {
	stats, err := s.shareEvents.GetStatsByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get share stats: %w", err)
	}

	resp := &models.SocialStatsResponse{
		EventID:   eventID,
		Platforms: stats,
	}

	if includeEntries {
		entries, err := s.shareEvents.GetByEventID(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("failed to get share entries: %w", err)
		}
		resp.Entries = entries
	}

	return resp, nil
}

// RecordShareClick counts a click on a share link. Conversions are attributed
// later by the sale side effects, not here.
func (s *CatalogService) RecordShareClick(ctx context.Context, eventID int64, req *models.RecordShareRequest) error {
	if err := s.shareEvents.RecordClick(ctx, eventID, req.TicketTypeID, req.Platform); err != nil {
		return fmt.Errorf("failed to record share click: %w", err)
	}
	return nil
}
