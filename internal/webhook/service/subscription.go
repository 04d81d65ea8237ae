package service

import (
	"context"
	"net/url"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicely/internal/clock"
	partnerdomain "github.com/smallbiznis/invoicely/internal/partner/domain"
	webhookdomain "github.com/smallbiznis/invoicely/internal/webhook/domain"
	"github.com/smallbiznis/invoicely/pkg/db/option"
	"github.com/smallbiznis/invoicely/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SubscriptionParams struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Store       repository.Repository[webhookdomain.Subscription]
	PartnerRepo partnerdomain.Repository
}

type SubscriptionService struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	store       repository.Repository[webhookdomain.Subscription]
	partnerRepo partnerdomain.Repository
}

func NewSubscriptionService(p SubscriptionParams) webhookdomain.SubscriptionService {
	return &SubscriptionService{
		db:          p.DB,
		log:         p.Log.Named("webhook.subscription"),
		genID:       p.GenID,
		clock:       p.Clock,
		store:       p.Store,
		partnerRepo: p.PartnerRepo,
	}
}

var subscriptionOrder = option.WithSortBy(option.QuerySortBy{
	Default:   "created_at",
	Direction: option.ASC,
})

func (s *SubscriptionService) Create(ctx context.Context, req webhookdomain.CreateSubscriptionRequest) (webhookdomain.Subscription, error) {
	if req.PartnerID == 0 {
		return webhookdomain.Subscription{}, webhookdomain.ErrInvalidPartner
	}
	eventType := strings.ToLower(strings.TrimSpace(req.EventType))
	if eventType == "" {
		eventType = webhookdomain.EventInvoiceStatusChanged
	}
	if eventType != webhookdomain.EventInvoiceStatusChanged {
		return webhookdomain.Subscription{}, webhookdomain.ErrInvalidEventType
	}
	target := strings.TrimSpace(req.TargetURL)
	if !validTargetURL(target) {
		return webhookdomain.Subscription{}, webhookdomain.ErrInvalidTargetURL
	}

	now := s.clock.Now()
	sub := webhookdomain.Subscription{
		ID:          s.genID.Generate(),
		PartnerID:   req.PartnerID,
		EventType:   eventType,
		TargetURL:   target,
		SecretToken: strings.TrimSpace(req.SecretToken),
		Active:      true,
		Metadata:    req.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		partner, err := s.partnerRepo.FindByID(ctx, tx, req.PartnerID)
		if err != nil {
			return err
		}
		if partner == nil {
			return partnerdomain.ErrNotFound
		}
		return s.store.WithTrx(tx).Create(ctx, &sub)
	})
	if err != nil {
		return webhookdomain.Subscription{}, err
	}

	s.log.Info("webhook subscription created",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("partner_id", sub.PartnerID.String()),
		zap.String("event_type", sub.EventType),
	)
	return sub, nil
}

func (s *SubscriptionService) ListByPartner(ctx context.Context, partnerID snowflake.ID) ([]webhookdomain.Subscription, error) {
	if partnerID == 0 {
		return nil, webhookdomain.ErrInvalidPartner
	}
	items, err := s.store.Find(ctx, &webhookdomain.Subscription{PartnerID: partnerID}, subscriptionOrder)
	if err != nil {
		return nil, err
	}
	return flatten(items), nil
}

func (s *SubscriptionService) ListActive(ctx context.Context, partnerID snowflake.ID, eventType string) ([]webhookdomain.Subscription, error) {
	items, err := s.store.Find(ctx,
		&webhookdomain.Subscription{PartnerID: partnerID, EventType: eventType},
		option.ApplyOperator(option.Condition{Field: "active", Operator: option.EQ, Value: true}),
		subscriptionOrder,
	)
	if err != nil {
		return nil, err
	}
	return flatten(items), nil
}

func (s *SubscriptionService) Deactivate(ctx context.Context, id snowflake.ID) error {
	if id == 0 {
		return webhookdomain.ErrNotFound
	}
	sub, err := s.store.FindOne(ctx, &webhookdomain.Subscription{ID: id})
	if err != nil {
		return err
	}
	if sub == nil {
		return webhookdomain.ErrNotFound
	}
	if !sub.Active {
		return nil
	}

	if err := s.store.Update(ctx, id, map[string]any{
		"active":     false,
		"updated_at": s.clock.Now(),
	}); err != nil {
		return err
	}
	s.log.Info("webhook subscription deactivated", zap.String("subscription_id", id.String()))
	return nil
}

func validTargetURL(raw string) bool {
	if raw == "" {
		return false
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

func flatten(items []*webhookdomain.Subscription) []webhookdomain.Subscription {
	out := make([]webhookdomain.Subscription, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	return out
}
