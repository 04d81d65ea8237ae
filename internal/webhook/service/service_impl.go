package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
	"github.com/smallbiznis/invoicely/internal/observability/metrics"
	webhookdomain "github.com/smallbiznis/invoicely/internal/webhook/domain"
	"github.com/smallbiznis/invoicely/internal/webhook/signature"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const sourceWebhook = "webhook"

type Params struct {
	fx.In

	Log        *zap.Logger
	InvoiceSvc invoicedomain.Service
	Publisher  webhookdomain.Publisher
	Metrics    *metrics.Metrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	invoiceSvc invoicedomain.Service
	publisher  webhookdomain.Publisher
	metrics    *metrics.Metrics
}

func NewService(p Params) webhookdomain.Service {
	return &Service{
		log:        p.Log.Named("webhook.service"),
		invoiceSvc: p.InvoiceSvc,
		publisher:  p.Publisher,
		metrics:    p.Metrics,
	}
}

// HandleInvoiceCreated creates an invoice without items from an automation
// payload.
func (s *Service) HandleInvoiceCreated(ctx context.Context, req webhookdomain.InvoiceCreatedRequest) (invoicedomain.Invoice, error) {
	inv, err := s.invoiceSvc.Create(ctx, invoicedomain.CreateInvoiceRequest{
		PartnerID:      req.PartnerID,
		CustomerID:     req.CustomerID,
		InvoiceNumber:  req.InvoiceNumber,
		Currency:       req.Currency,
		IssueDate:      req.IssueDate,
		DueDate:        req.DueDate,
		TaxAmount:      req.TaxAmount,
		DiscountAmount: req.DiscountAmount,
		Notes:          req.Notes,
		Source:         sourceWebhook,
	})
	if err != nil {
		s.metrics.RecordWebhookInbound(ctx, "invoice-created", "rejected")
		return invoicedomain.Invoice{}, err
	}
	s.metrics.RecordWebhookInbound(ctx, "invoice-created", "accepted")
	return inv, nil
}

func (s *Service) HandlePaymentUpdated(ctx context.Context, req webhookdomain.PaymentUpdatedRequest) (invoicedomain.Invoice, bool, error) {
	if req.PartnerID == 0 {
		return invoicedomain.Invoice{}, false, webhookdomain.ErrInvalidPartner
	}
	number := strings.TrimSpace(req.InvoiceNumber)
	if number == "" {
		return invoicedomain.Invoice{}, false, webhookdomain.ErrInvalidInvoiceNumber
	}
	if strings.TrimSpace(req.PaymentStatus) == "" {
		return invoicedomain.Invoice{}, false, webhookdomain.ErrInvalidPaymentStatus
	}

	inv, err := s.invoiceSvc.GetByNumber(ctx, req.PartnerID, number)
	if err != nil {
		s.metrics.RecordWebhookInbound(ctx, "payment-updated", "rejected")
		return invoicedomain.Invoice{}, false, err
	}

	normalized := strings.ToUpper(strings.TrimSpace(req.PaymentStatus))
	target, ok := mapPaymentStatus(normalized)
	if !ok {
		s.log.Info("unknown payment status, invoice left unchanged",
			zap.String("invoice_id", inv.ID.String()),
			zap.String("payment_status", normalized),
			zap.String("status", string(inv.Status)),
		)
		s.metrics.RecordWebhookInbound(ctx, "payment-updated", "ignored")
		return inv, false, nil
	}
	if inv.Status == target {
		s.metrics.RecordWebhookInbound(ctx, "payment-updated", "unchanged")
		return inv, false, nil
	}

	updated, changed, err := s.invoiceSvc.SetStatus(ctx, inv.ID, target)
	if err != nil {
		return invoicedomain.Invoice{}, false, err
	}
	s.metrics.RecordWebhookInbound(ctx, "payment-updated", "applied")
	s.log.Info("invoice status updated from payment webhook",
		zap.String("invoice_id", updated.ID.String()),
		zap.String("status", string(updated.Status)),
		zap.String("reference", strings.TrimSpace(req.Reference)),
	)
	return updated, changed, nil
}

func (s *Service) ProcessPaymentUpdated(ctx context.Context, req webhookdomain.PaymentUpdatedRequest) (invoicedomain.Invoice, error) {
	inv, changed, err := s.HandlePaymentUpdated(ctx, req)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if changed && s.publisher != nil {
		s.publisher.PublishInvoiceStatusChange(ctx, inv)
	}
	return inv, nil
}

func (s *Service) ProcessInvoiceUpdate(ctx context.Context, id snowflake.ID, req invoicedomain.UpdateInvoiceRequest) (invoicedomain.Invoice, error) {
	var before invoicedomain.InvoiceStatus
	if req.Status != nil {
		current, err := s.invoiceSvc.GetByID(ctx, id)
		if err != nil {
			return invoicedomain.Invoice{}, err
		}
		before = current.Status
	}

	updated, err := s.invoiceSvc.Update(ctx, id, req)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	if req.Status != nil && updated.Status != before {
		s.log.Info("invoice status updated from api",
			zap.String("invoice_id", updated.ID.String()),
			zap.String("from", string(before)),
			zap.String("to", string(updated.Status)),
		)
		if s.publisher != nil {
			s.publisher.PublishInvoiceStatusChange(ctx, updated)
		}
	}
	return updated, nil
}

// VerifyIncomingSignature accepts everything when no secret is configured.
func (s *Service) VerifyIncomingSignature(signatureHeader string, payload []byte, secret string) bool {
	if strings.TrimSpace(secret) == "" {
		s.log.Warn("incoming webhook signature verification skipped, no secret configured")
		return true
	}
	if !signature.Verify(secret, payload, signatureHeader) {
		s.log.Warn("incoming webhook signature mismatch")
		return false
	}
	return true
}

func mapPaymentStatus(normalized string) (invoicedomain.InvoiceStatus, bool) {
	switch invoicedomain.InvoiceStatus(normalized) {
	case invoicedomain.InvoiceStatusPaid:
		return invoicedomain.InvoiceStatusPaid, true
	case invoicedomain.InvoiceStatusSent:
		return invoicedomain.InvoiceStatusSent, true
	case invoicedomain.InvoiceStatusOverdue:
		return invoicedomain.InvoiceStatusOverdue, true
	default:
		return "", false
	}
}
