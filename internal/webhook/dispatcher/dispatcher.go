// Package dispatcher delivers outbound webhook events to partner
// subscriptions.
package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/smallbiznis/invoicely/internal/config"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
	"github.com/smallbiznis/invoicely/internal/observability/metrics"
	"github.com/smallbiznis/invoicely/internal/observability/tracing"
	webhookdomain "github.com/smallbiznis/invoicely/internal/webhook/domain"
	"github.com/smallbiznis/invoicely/internal/webhook/signature"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	HeaderEvent     = "X-Webhook-Event"
	HeaderRequestID = "X-Request-Id"

	outcomeSuccess        = "success"
	outcomeHTTPError      = "http_error"
	outcomeTransportError = "transport_error"

	// maxErrorBody bounds how much of a failed response is logged.
	maxErrorBody = 512
)

type Params struct {
	fx.In

	Log           *zap.Logger
	Config        *config.WebhookConfigHolder
	Subscriptions webhookdomain.SubscriptionService
	Metrics       *metrics.Metrics `optional:"true"`
	// Transport overrides the HTTP round tripper, mainly for tests.
	Transport http.RoundTripper `optional:"true"`
}

type Dispatcher struct {
	log           *zap.Logger
	config        *config.WebhookConfigHolder
	subscriptions webhookdomain.SubscriptionService
	metrics       *metrics.Metrics
	transport     http.RoundTripper
}

func New(p Params) *Dispatcher {
	transport := p.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Dispatcher{
		log:           p.Log.Named("webhook.dispatcher"),
		config:        p.Config,
		subscriptions: p.Subscriptions,
		metrics:       p.Metrics,
		transport:     transport,
	}
}

// PublishInvoiceStatusChange posts invoice.status.changed to every active
// subscription of the invoice's partner, one after another. A failing target
// is logged and counted and does not stop delivery to the rest.
func (d *Dispatcher) PublishInvoiceStatusChange(ctx context.Context, invoice invoicedomain.Invoice) {
	cfg := d.config.Get()
	if !cfg.Enabled {
		return
	}

	ctx = context.WithoutCancel(ctx)
	subs, err := d.subscriptions.ListActive(ctx, invoice.PartnerID, webhookdomain.EventInvoiceStatusChanged)
	if err != nil {
		d.log.Warn("failed to load webhook subscriptions",
			zap.String("partner_id", invoice.PartnerID.String()),
			zap.Error(err),
		)
		return
	}
	if len(subs) == 0 {
		return
	}

	body, err := json.Marshal(webhookdomain.StatusChangedPayload{
		InvoiceID:     invoice.ID.Int64(),
		InvoiceNumber: invoice.InvoiceNumber,
		Status:        string(invoice.Status),
		PartnerID:     invoice.PartnerID.Int64(),
	})
	if err != nil {
		d.log.Error("failed to encode webhook payload", zap.Error(err))
		return
	}

	client := &http.Client{Timeout: cfg.Timeout, Transport: d.transport}
	for _, sub := range subs {
		secret := sub.SecretToken
		if strings.TrimSpace(secret) == "" {
			secret = cfg.DefaultSecret
		}
		outcome, err := d.send(ctx, client, sub, webhookdomain.EventInvoiceStatusChanged, body, secret)
		d.metrics.RecordWebhookDelivery(ctx, webhookdomain.EventInvoiceStatusChanged, outcome)
		if err != nil {
			d.log.Warn("webhook delivery failed",
				zap.String("subscription_id", sub.ID.String()),
				zap.String("target_url", sub.TargetURL),
				zap.String("invoice_id", invoice.ID.String()),
				zap.String("outcome", outcome),
				zap.Error(err),
			)
			continue
		}
		d.log.Debug("webhook delivered",
			zap.String("subscription_id", sub.ID.String()),
			zap.String("invoice_id", invoice.ID.String()),
		)
	}
}

func (d *Dispatcher) send(ctx context.Context, client *http.Client, sub webhookdomain.Subscription, eventType string, body []byte, secret string) (string, error) {
	ctx, span := otel.Tracer("invoicely/webhook").Start(ctx, "webhook.deliver")
	defer span.End()
	span.SetAttributes(
		attribute.String("webhook.event", eventType),
		attribute.String("webhook.subscription_id", sub.ID.String()),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.TargetURL, bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build request")
		return outcomeTransportError, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderEvent, eventType)
	req.Header.Set(HeaderRequestID, uuid.NewString())
	if strings.TrimSpace(secret) != "" {
		req.Header.Set(signature.Header, signature.Sign(secret, body))
	}
	tracing.InjectHeaders(ctx, req.Header)

	resp, err := client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return outcomeTransportError, err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		err := fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		span.SetStatus(codes.Error, "http status")
		return outcomeHTTPError, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return outcomeSuccess, nil
}
