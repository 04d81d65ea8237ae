package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	analyticsservice "github.com/smallbiznis/invoicely/internal/analytics/service"
	attachmentrepo "github.com/smallbiznis/invoicely/internal/attachment/repository"
	attachmentservice "github.com/smallbiznis/invoicely/internal/attachment/service"
	"github.com/smallbiznis/invoicely/internal/clock"
	"github.com/smallbiznis/invoicely/internal/config"
	customerdomain "github.com/smallbiznis/invoicely/internal/customer/domain"
	customerrepo "github.com/smallbiznis/invoicely/internal/customer/repository"
	customerservice "github.com/smallbiznis/invoicely/internal/customer/service"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
	invoicerepo "github.com/smallbiznis/invoicely/internal/invoice/repository"
	invoiceservice "github.com/smallbiznis/invoicely/internal/invoice/service"
	"github.com/smallbiznis/invoicely/internal/migration"
	"github.com/smallbiznis/invoicely/internal/observability/metrics"
	partnerdomain "github.com/smallbiznis/invoicely/internal/partner/domain"
	partnerrepo "github.com/smallbiznis/invoicely/internal/partner/repository"
	partnerservice "github.com/smallbiznis/invoicely/internal/partner/service"
	paymentrepo "github.com/smallbiznis/invoicely/internal/payment/repository"
	paymentservice "github.com/smallbiznis/invoicely/internal/payment/service"
	"github.com/smallbiznis/invoicely/internal/providers/pdf"
	"github.com/smallbiznis/invoicely/internal/storage"
	templaterepo "github.com/smallbiznis/invoicely/internal/template/repository"
	templateservice "github.com/smallbiznis/invoicely/internal/template/service"
	webhookrepo "github.com/smallbiznis/invoicely/internal/webhook/repository"
	webhookservice "github.com/smallbiznis/invoicely/internal/webhook/service"
	"github.com/smallbiznis/invoicely/internal/webhook/signature"
	"github.com/smallbiznis/invoicely/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	testPartnerID  snowflake.ID = 1
	testCustomerID snowflake.ID = 2
	testSecret                  = "whsec_test"
)

type recordingPublisher struct {
	published []invoicedomain.Invoice
}

func (p *recordingPublisher) PublishInvoiceStatusChange(ctx context.Context, invoice invoicedomain.Invoice) {
	p.published = append(p.published, invoice)
}

type harness struct {
	conn      *gorm.DB
	engine    *gin.Engine
	publisher *recordingPublisher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.OpenSQLiteMemory(t.Name())
	require.NoError(t, err)
	require.NoError(t, migration.Apply(conn))

	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, conn.Create(&partnerdomain.Partner{ID: testPartnerID, OwnerUserID: 1, Name: "Acme", CreatedAt: now, UpdatedAt: now}).Error)
	require.NoError(t, conn.Create(&customerdomain.Customer{ID: testCustomerID, PartnerID: testPartnerID, Name: "Budi", CreatedAt: now, UpdatedAt: now}).Error)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(now)
	log := zap.NewNop()
	noop := metrics.NewNoop()

	partnerRepo := partnerrepo.Provide()
	customerRepo := customerrepo.Provide()
	invoiceRepo := invoicerepo.Provide()
	paymentRepo := paymentrepo.Provide()
	templateRepo := templaterepo.Provide()

	local, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	invoiceSvc := invoiceservice.NewService(invoiceservice.ServiceParam{
		DB: conn, Log: log, GenID: node, Clock: clk,
		Repo: invoiceRepo, PartnerRepo: partnerRepo, CustomerRepo: customerRepo,
		TemplateRepo: templateRepo, Metrics: noop,
	})
	subscriptionSvc := webhookservice.NewSubscriptionService(webhookservice.SubscriptionParams{
		DB: conn, Log: log, GenID: node, Clock: clk,
		Store: webhookrepo.Provide(conn), PartnerRepo: partnerRepo,
	})
	publisher := &recordingPublisher{}

	cfg := config.Config{Webhooks: config.WebhooksConfig{IncomingSecret: testSecret}}
	srv := NewServer(ServerParams{
		Gin: NewEngine(nil),
		Cfg: cfg,
		Log: log,
		PartnerSvc: partnerservice.New(partnerservice.Params{
			DB: conn, Log: log, GenID: node, Clock: clk, Repo: partnerRepo,
		}),
		CustomerSvc: customerservice.New(customerservice.Params{
			DB: conn, Log: log, GenID: node, Clock: clk, Repo: customerRepo, PartnerRepo: partnerRepo,
		}),
		TemplateSvc: templateservice.New(templateservice.Params{
			DB: conn, Log: log, GenID: node, Clock: clk,
			Repo: templateRepo, PartnerRepo: partnerRepo, InvoiceRepo: invoiceRepo,
		}),
		InvoiceSvc: invoiceSvc,
		PaymentSvc: paymentservice.NewService(paymentservice.Params{
			DB: conn, Log: log, GenID: node, Clock: clk, Repo: paymentRepo, InvoiceRepo: invoiceRepo,
		}),
		AnalyticsSvc: analyticsservice.NewService(analyticsservice.Params{
			DB: conn, Log: log, InvoiceRepo: invoiceRepo, PaymentRepo: paymentRepo, PartnerRepo: partnerRepo,
		}),
		SubscriptionSvc: subscriptionSvc,
		WebhookSvc: webhookservice.NewService(webhookservice.Params{
			Log: log, InvoiceSvc: invoiceSvc, Publisher: publisher, Metrics: noop,
		}),
		AttachmentSvc: attachmentservice.NewService(attachmentservice.Params{
			DB: conn, Log: log, GenID: node, Clock: clk, Storage: local,
			Store: attachmentrepo.Provide(conn), PartnerRepo: partnerRepo, InvoiceRepo: invoiceRepo,
		}),
		PDF:        pdf.New(),
		ObsMetrics: noop,
	})

	return &harness{conn: conn, engine: srv.Engine(), publisher: publisher}
}

func (h *harness) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(v)
	default:
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)
	return rec
}

type invoiceEnvelope struct {
	Data struct {
		ID             string          `json:"id"`
		InvoiceNumber  string          `json:"invoiceNumber"`
		Status         string          `json:"status"`
		SubtotalAmount decimal.Decimal `json:"subtotalAmount"`
		TotalAmount    decimal.Decimal `json:"totalAmount"`
		Items          []struct {
			ItemName  string          `json:"itemName"`
			LineTotal decimal.Decimal `json:"lineTotal"`
		} `json:"items"`
	} `json:"data"`
}

type errorEnvelope struct {
	Error errorPayload `json:"error"`
}

func validInvoiceBody(number string) map[string]any {
	return map[string]any{
		"partnerId":      "1",
		"customerId":     2,
		"invoiceNumber":  number,
		"currency":       "IDR",
		"issueDate":      "2024-03-01",
		"dueDate":        "2024-03-31",
		"taxAmount":      "10",
		"discountAmount": "5",
		"items": []map[string]any{
			{"itemName": "Design", "quantity": "2", "unitPrice": "50.25"},
			{"itemName": "Hosting", "unitPrice": "25"},
		},
	}
}

func (h *harness) createInvoice(t *testing.T, number string) invoiceEnvelope {
	t.Helper()
	rec := h.do(t, http.MethodPost, "/api/invoices", validInvoiceBody(number), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var env invoiceEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestCreateInvoiceComputesTotals(t *testing.T) {
	h := newHarness(t)

	env := h.createInvoice(t, "INV-001")

	assert.Equal(t, "INV-001", env.Data.InvoiceNumber)
	assert.Equal(t, "DRAFT", env.Data.Status)
	assert.True(t, env.Data.SubtotalAmount.Equal(decimal.RequireFromString("125.50")), env.Data.SubtotalAmount.String())
	assert.True(t, env.Data.TotalAmount.Equal(decimal.RequireFromString("130.50")), env.Data.TotalAmount.String())
	require.Len(t, env.Data.Items, 2)
	assert.Equal(t, "Design", env.Data.Items[0].ItemName)
	assert.True(t, env.Data.Items[0].LineTotal.Equal(decimal.RequireFromString("100.50")))

	rec := h.do(t, http.MethodGet, "/api/invoices/"+env.Data.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestCreateInvoiceRejectsMissingItemName(t *testing.T) {
	h := newHarness(t)

	body := validInvoiceBody("INV-002")
	body["items"] = []map[string]any{{"unitPrice": "10"}}

	rec := h.do(t, http.MethodPost, "/api/invoices", body, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "validation_error", env.Error.Type)
	require.NotEmpty(t, env.Error.Errors)
	assert.Equal(t, "items[0].itemName", env.Error.Errors[0].Field)
	assert.Equal(t, "required", env.Error.Errors[0].Code)
}

func TestCreateInvoiceRejectsBadIssueDate(t *testing.T) {
	h := newHarness(t)

	body := validInvoiceBody("INV-003")
	body["issueDate"] = "01/03/2024"

	rec := h.do(t, http.MethodPost, "/api/invoices", body, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Len(t, env.Error.Errors, 1)
	assert.Equal(t, "issueDate", env.Error.Errors[0].Field)
	assert.Equal(t, "invalid_date", env.Error.Errors[0].Code)
}

func TestCreateInvoiceDuplicateNumberConflicts(t *testing.T) {
	h := newHarness(t)
	h.createInvoice(t, "INV-010")

	rec := h.do(t, http.MethodPost, "/api/invoices", validInvoiceBody("INV-010"), nil)
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "conflict", env.Error.Type)
}

func TestGetUnknownInvoiceIsNotFound(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/invoices/987654321", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/invoices/not-a-number", nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteInvoiceHidesIt(t *testing.T) {
	h := newHarness(t)
	env := h.createInvoice(t, "INV-020")

	rec := h.do(t, http.MethodDelete, "/api/invoices/"+env.Data.ID, nil, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/invoices/"+env.Data.ID, nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateInvoiceStatusPublishesChange(t *testing.T) {
	h := newHarness(t)
	env := h.createInvoice(t, "INV-025")

	rec := h.do(t, http.MethodPut, "/api/invoices/"+env.Data.ID, map[string]any{"notes": "net 30"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, h.publisher.published)

	rec = h.do(t, http.MethodPut, "/api/invoices/"+env.Data.ID, map[string]any{"status": "sent"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated invoiceEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "SENT", updated.Data.Status)
	require.Len(t, h.publisher.published, 1)
	assert.Equal(t, env.Data.ID, h.publisher.published[0].ID.String())

	rec = h.do(t, http.MethodPut, "/api/invoices/"+env.Data.ID, map[string]any{"status": "SENT"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, h.publisher.published, 1)
}

type templateEnvelope struct {
	Data struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		TemplateType string `json:"templateType"`
		ContentJSON  string `json:"contentJson"`
		IsDefault    bool   `json:"isDefault"`
	} `json:"data"`
}

func (h *harness) createTemplate(t *testing.T, body map[string]any) templateEnvelope {
	t.Helper()
	rec := h.do(t, http.MethodPost, "/api/templates", body, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var env templateEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestTemplateRoutes(t *testing.T) {
	h := newHarness(t)

	first := h.createTemplate(t, map[string]any{"partnerId": 1, "name": "Classic", "contentJson": `{"accent":"blue"}`, "isDefault": true})
	assert.Equal(t, "INVOICE", first.Data.TemplateType)
	assert.True(t, first.Data.IsDefault)
	second := h.createTemplate(t, map[string]any{"partnerId": "1", "name": "Modern", "templateType": "receipt"})
	assert.Equal(t, "RECEIPT", second.Data.TemplateType)

	rec := h.do(t, http.MethodPost, "/api/templates", map[string]any{"partnerId": 1, "name": "Broken", "contentJson": "{"}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = h.do(t, http.MethodPost, "/api/templates", map[string]any{"partnerId": 404, "name": "Ghost"}, nil)
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	rec = h.do(t, http.MethodGet, "/api/templates?partnerId=1&page=0&size=1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var page struct {
		Data struct {
			TotalElements int64 `json:"totalElements"`
			Content       []struct {
				ID string `json:"id"`
			} `json:"content"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, int64(2), page.Data.TotalElements)
	require.Len(t, page.Data.Content, 1)

	rec = h.do(t, http.MethodPut, "/api/templates/"+second.Data.ID, map[string]any{"name": "Modern v2"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated templateEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Modern v2", updated.Data.Name)
	assert.Equal(t, "RECEIPT", updated.Data.TemplateType)

	rec = h.do(t, http.MethodPost, "/api/templates/"+second.Data.ID+"/default", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(t, http.MethodGet, "/api/templates/"+first.Data.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var reloaded templateEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reloaded))
	assert.False(t, reloaded.Data.IsDefault)
	assert.Equal(t, `{"accent":"blue"}`, reloaded.Data.ContentJSON)

	rec = h.do(t, http.MethodDelete, "/api/templates/"+first.Data.ID, nil, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/templates/"+first.Data.ID, nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateInvoiceWithTemplate(t *testing.T) {
	h := newHarness(t)
	tmpl := h.createTemplate(t, map[string]any{"partnerId": 1, "name": "Classic"})

	body := validInvoiceBody("INV-TPL-1")
	body["templateId"] = "999999"
	rec := h.do(t, http.MethodPost, "/api/invoices", body, nil)
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	body["templateId"] = tmpl.Data.ID
	rec = h.do(t, http.MethodPost, "/api/invoices", body, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Data struct {
			ID         string `json:"id"`
			TemplateID string `json:"templateId"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, tmpl.Data.ID, created.Data.TemplateID)

	rec = h.do(t, http.MethodDelete, "/api/templates/"+tmpl.Data.ID, nil, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/invoices/"+created.Data.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "templateId")
}

func TestRenderInvoicePDF(t *testing.T) {
	h := newHarness(t)
	env := h.createInvoice(t, "INV-030")

	rec := h.do(t, http.MethodGet, "/api/invoices/"+env.Data.ID+"/pdf", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestRecordPaymentAndList(t *testing.T) {
	h := newHarness(t)
	env := h.createInvoice(t, "INV-040")

	rec := h.do(t, http.MethodPost, "/api/invoices/"+env.Data.ID+"/payments", map[string]any{
		"amount":      "50",
		"paymentDate": "2024-03-05",
		"method":      "bank_transfer",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = h.do(t, http.MethodPost, "/api/invoices/"+env.Data.ID+"/payments", map[string]any{}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/invoices/"+env.Data.ID+"/payments", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Data, 1)
}

func TestAnalyticsSummaryCountsInvoices(t *testing.T) {
	h := newHarness(t)
	h.createInvoice(t, "INV-050")
	h.createInvoice(t, "INV-051")

	rec := h.do(t, http.MethodGet, "/api/analytics/summary?partnerId=1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var env struct {
		Data struct {
			StatusCounts map[string]int64 `json:"statusCounts"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, int64(2), env.Data.StatusCounts["DRAFT"])

	rec = h.do(t, http.MethodGet, "/api/analytics/summary?from=yesterday", nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaymentUpdatedWebhookRejectsBadSignature(t *testing.T) {
	h := newHarness(t)
	h.createInvoice(t, "INV-060")

	body := []byte(`{"partnerId":"1","invoiceNumber":"INV-060","paymentStatus":"paid"}`)
	rec := h.do(t, http.MethodPost, "/api/webhooks/payment-updated", body, map[string]string{
		signature.Header: "deadbeef",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var ack webhookAckResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.Equal(t, ackStatusError, ack.Status)
	assert.Equal(t, "invalid signature", ack.Message)
	assert.NotEmpty(t, ack.RequestID)
	assert.Empty(t, h.publisher.published)
}

func TestPaymentUpdatedWebhookMarksInvoicePaid(t *testing.T) {
	h := newHarness(t)
	env := h.createInvoice(t, "INV-061")

	body := []byte(`{"partnerId":"1","invoiceNumber":"INV-061","paymentStatus":"paid","reference":"TRX-9"}`)
	headers := map[string]string{signature.Header: signature.Sign(testSecret, body)}

	rec := h.do(t, http.MethodPost, "/api/webhooks/payment-updated", body, headers)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var ack webhookAckResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.Equal(t, ackStatusOK, ack.Status)
	assert.Equal(t, "updated invoice status to PAID", ack.Message)
	require.Len(t, h.publisher.published, 1)
	assert.Equal(t, env.Data.ID, h.publisher.published[0].ID.String())

	// Replaying the same event leaves the status alone and publishes nothing.
	rec = h.do(t, http.MethodPost, "/api/webhooks/payment-updated", body, headers)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, h.publisher.published, 1)
}

func TestPaymentUpdatedWebhookUnknownInvoice(t *testing.T) {
	h := newHarness(t)

	body := []byte(`{"partnerId":"1","invoiceNumber":"NOPE","paymentStatus":"paid"}`)
	rec := h.do(t, http.MethodPost, "/api/webhooks/payment-updated", body, map[string]string{
		signature.Header: signature.Sign(testSecret, body),
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvoiceCreatedWebhook(t *testing.T) {
	h := newHarness(t)

	body := []byte(`{"partnerId":1,"customerId":"2","invoiceNumber":"WH-1","issueDate":"2024-03-02"}`)
	rec := h.do(t, http.MethodPost, "/api/webhooks/invoice-created", body, map[string]string{
		signature.Header: signature.Sign(testSecret, body),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var ack webhookAckResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.Equal(t, "created invoice WH-1", ack.Message)

	var stored invoicedomain.Invoice
	require.NoError(t, h.conn.Where("invoice_number = ?", "WH-1").First(&stored).Error)
	assert.Equal(t, testCustomerID, stored.CustomerID)

	missing := []byte(`{"partnerId":1,"invoiceNumber":"WH-2","issueDate":"2024-03-02"}`)
	rec = h.do(t, http.MethodPost, "/api/webhooks/invoice-created", missing, map[string]string{
		signature.Header: signature.Sign(testSecret, missing),
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookSubscriptionLifecycle(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/webhook-subscriptions", map[string]any{
		"partnerId": "1",
		"targetUrl": "https://hooks.example.com/invoices",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Data struct {
			ID        string `json:"id"`
			EventType string `json:"eventType"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "invoice.status.changed", created.Data.EventType)

	rec = h.do(t, http.MethodPost, "/api/webhook-subscriptions", map[string]any{
		"partnerId": "1",
		"targetUrl": "not a url",
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodDelete, "/api/webhook-subscriptions/"+created.Data.ID, nil, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestUploadAndDownloadFile(t *testing.T) {
	h := newHarness(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("partnerId", "1"))
	part, err := mw.CreateFormFile("file", "receipt.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("paid in full"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var uploaded struct {
		Data struct {
			ID        string `json:"id"`
			FileName  string `json:"fileName"`
			SizeBytes int64  `json:"sizeBytes"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploaded))
	assert.Equal(t, "receipt.txt", uploaded.Data.FileName)
	assert.Equal(t, int64(12), uploaded.Data.SizeBytes)

	rec = h.do(t, http.MethodGet, "/api/files/"+uploaded.Data.ID+"/download", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "paid in full", rec.Body.String())

	rec = h.do(t, http.MethodDelete, "/api/files/"+uploaded.Data.ID, nil, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/files/"+uploaded.Data.ID, nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMapError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		typ    string
	}{
		{"validation", newValidationError("name", "required", "name is required"), http.StatusBadRequest, "validation_error"},
		{"domain invalid", invoicedomain.ErrInvalidCurrency, http.StatusBadRequest, "validation_error"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
		{"duplicate", invoicedomain.ErrDuplicateInvoiceNumber, http.StatusConflict, "conflict"},
		{"gorm duplicate", gorm.ErrDuplicatedKey, http.StatusConflict, "conflict"},
		{"not found", invoicedomain.ErrNotFound, http.StatusNotFound, "not_found"},
		{"record not found", gorm.ErrRecordNotFound, http.StatusNotFound, "not_found"},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{"unavailable", ErrServiceUnavailable, http.StatusServiceUnavailable, "service_unavailable"},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := mapError(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.typ, payload.Type)
		})
	}
}

func TestMapErrorUsesRootSentinelCode(t *testing.T) {
	_, payload := mapError(fmt.Errorf("create invoice: %w", invoicedomain.ErrInvalidCurrency))
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "invalid_currency", payload.Errors[0].Code)
}

func TestFlexIDAcceptsStringAndNumber(t *testing.T) {
	var body struct {
		A flexID `json:"a"`
		B flexID `json:"b"`
		C flexID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"1790123456789012480","b":42,"c":null}`), &body))
	assert.Equal(t, snowflake.ID(1790123456789012480), body.A.ID())
	assert.Equal(t, snowflake.ID(42), body.B.ID())
	assert.Nil(t, body.C.Ptr())

	var bad flexID
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &bad))
}
