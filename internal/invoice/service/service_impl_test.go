package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/internal/clock"
	customerdomain "github.com/smallbiznis/invoicely/internal/customer/domain"
	customerrepo "github.com/smallbiznis/invoicely/internal/customer/repository"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
	"github.com/smallbiznis/invoicely/internal/invoice/repository"
	partnerdomain "github.com/smallbiznis/invoicely/internal/partner/domain"
	partnerrepo "github.com/smallbiznis/invoicely/internal/partner/repository"
	templatedomain "github.com/smallbiznis/invoicely/internal/template/domain"
	templaterepo "github.com/smallbiznis/invoicely/internal/template/repository"
	"github.com/smallbiznis/invoicely/pkg/db"
	"github.com/smallbiznis/invoicely/pkg/db/pagination"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	testPartnerID  snowflake.ID = 100
	testCustomerID snowflake.ID = 200
)

func setupInvoiceTest(t *testing.T) (invoicedomain.Service, *gorm.DB) {
	t.Helper()

	conn, err := db.OpenSQLiteMemory(t.Name())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&partnerdomain.Partner{},
		&templatedomain.Template{},
		&customerdomain.Customer{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	now := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	if err := conn.Create(&partnerdomain.Partner{ID: testPartnerID, OwnerUserID: 1, Name: "Acme", CreatedAt: now, UpdatedAt: now}).Error; err != nil {
		t.Fatalf("seed partner: %v", err)
	}
	if err := conn.Create(&customerdomain.Customer{ID: testCustomerID, PartnerID: testPartnerID, Name: "Budi", CreatedAt: now, UpdatedAt: now}).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	svc := NewService(ServiceParam{
		DB:           conn,
		Log:          zap.NewNop(),
		GenID:        node,
		Clock:        clock.NewFakeClock(now),
		Repo:         repository.Provide(),
		PartnerRepo:  partnerrepo.Provide(),
		CustomerRepo: customerrepo.Provide(),
		TemplateRepo: templaterepo.Provide(),
	})
	return svc, conn
}

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func dp(v string) *decimal.Decimal {
	out := d(v)
	return &out
}

func date(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func baseRequest(number string) invoicedomain.CreateInvoiceRequest {
	return invoicedomain.CreateInvoiceRequest{
		PartnerID:      testPartnerID,
		CustomerID:     testCustomerID,
		InvoiceNumber:  number,
		Currency:       "usd",
		IssueDate:      date(2024, 1, 10),
		TaxAmount:      dp("10.00"),
		DiscountAmount: dp("5.00"),
		Items: []invoicedomain.InvoiceItemRequest{
			{ItemName: "Consulting", Quantity: dp("2"), UnitPrice: d("50.00")},
			{ItemName: "Hosting", Quantity: dp("1"), UnitPrice: d("25.50")},
		},
	}
}

func TestCreateComputesTotals(t *testing.T) {
	svc, _ := setupInvoiceTest(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, baseRequest("INV-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if !created.SubtotalAmount.Equal(d("125.50")) {
		t.Fatalf("expected subtotal 125.50, got %s", created.SubtotalAmount)
	}
	if !created.TotalAmount.Equal(d("130.50")) {
		t.Fatalf("expected total 130.50, got %s", created.TotalAmount)
	}
	if created.Status != invoicedomain.InvoiceStatusDraft {
		t.Fatalf("expected DRAFT, got %s", created.Status)
	}
	if created.Currency != "USD" {
		t.Fatalf("expected upper-cased currency, got %s", created.Currency)
	}

	loaded, err := svc.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(loaded.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(loaded.Items))
	}
	if loaded.Items[0].ItemName != "Consulting" || !loaded.Items[0].LineTotal.Equal(d("100.00")) {
		t.Fatalf("unexpected first item %+v", loaded.Items[0])
	}
	if !loaded.TotalAmount.Equal(d("130.50")) {
		t.Fatalf("expected persisted total 130.50, got %s", loaded.TotalAmount)
	}
}

func TestCreateDefaultsQuantityToOne(t *testing.T) {
	svc, _ := setupInvoiceTest(t)

	req := baseRequest("INV-Q")
	req.TaxAmount, req.DiscountAmount = nil, nil
	req.Items = []invoicedomain.InvoiceItemRequest{{ItemName: "Widget", UnitPrice: d("10.125")}}

	created, err := svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created.Items[0].Quantity.Equal(d("1")) {
		t.Fatalf("expected default quantity 1, got %s", created.Items[0].Quantity)
	}
	if !created.TotalAmount.Equal(d("10.13")) {
		t.Fatalf("expected half-up total 10.13, got %s", created.TotalAmount)
	}
}

func TestCreateRejectsDuplicateNumber(t *testing.T) {
	svc, _ := setupInvoiceTest(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, baseRequest("INV-DUP")); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := svc.Create(ctx, baseRequest("INV-DUP"))
	if !errors.Is(err, invoicedomain.ErrDuplicateInvoiceNumber) {
		t.Fatalf("expected ErrDuplicateInvoiceNumber, got %v", err)
	}
}

func TestCreateUnknownCustomer(t *testing.T) {
	svc, _ := setupInvoiceTest(t)

	req := baseRequest("INV-X")
	req.CustomerID = 999
	if _, err := svc.Create(context.Background(), req); !errors.Is(err, customerdomain.ErrNotFound) {
		t.Fatalf("expected customer not found, got %v", err)
	}

	req = baseRequest("INV-Y")
	req.PartnerID = 999
	if _, err := svc.Create(context.Background(), req); !errors.Is(err, partnerdomain.ErrNotFound) {
		t.Fatalf("expected partner not found, got %v", err)
	}
}

func TestCreateWithTemplate(t *testing.T) {
	svc, conn := setupInvoiceTest(t)
	ctx := context.Background()

	now := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	own := templatedomain.Template{ID: 300, PartnerID: testPartnerID, Name: "Classic", TemplateType: "INVOICE", CreatedAt: now, UpdatedAt: now}
	foreign := templatedomain.Template{ID: 301, PartnerID: 999, Name: "Other", TemplateType: "INVOICE", CreatedAt: now, UpdatedAt: now}
	if err := conn.Create(&[]templatedomain.Template{own, foreign}).Error; err != nil {
		t.Fatalf("seed templates: %v", err)
	}

	req := baseRequest("INV-T1")
	unknown := snowflake.ID(12345)
	req.TemplateID = &unknown
	if _, err := svc.Create(ctx, req); !errors.Is(err, templatedomain.ErrNotFound) {
		t.Fatalf("expected template not found, got %v", err)
	}

	req.TemplateID = &foreign.ID
	if _, err := svc.Create(ctx, req); !errors.Is(err, templatedomain.ErrNotFound) {
		t.Fatalf("expected template of another partner to be rejected, got %v", err)
	}

	req.TemplateID = &own.ID
	created, err := svc.Create(ctx, req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	loaded, err := svc.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.TemplateID == nil || *loaded.TemplateID != own.ID {
		t.Fatalf("expected template %d, got %v", own.ID, loaded.TemplateID)
	}
}

func TestCreateRejectsNegativeInputs(t *testing.T) {
	svc, _ := setupInvoiceTest(t)
	ctx := context.Background()

	req := baseRequest("INV-N1")
	req.Items[0].UnitPrice = d("-1")
	if _, err := svc.Create(ctx, req); !errors.Is(err, invoicedomain.ErrInvalidUnitPrice) {
		t.Fatalf("expected ErrInvalidUnitPrice, got %v", err)
	}

	req = baseRequest("INV-N2")
	req.Items[0].Quantity = dp("-2")
	if _, err := svc.Create(ctx, req); !errors.Is(err, invoicedomain.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}

	req = baseRequest("INV-N3")
	req.TaxAmount = dp("-0.01")
	if _, err := svc.Create(ctx, req); !errors.Is(err, invoicedomain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestUpdateReplacesItemsAndRecomputes(t *testing.T) {
	svc, conn := setupInvoiceTest(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, baseRequest("INV-U"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(ctx, created.ID, invoicedomain.UpdateInvoiceRequest{
		DiscountAmount: dp("0"),
		Items: []invoicedomain.InvoiceItemRequest{
			{ItemName: "Support", Quantity: dp("3"), UnitPrice: d("10.125")},
		},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.SubtotalAmount.Equal(d("30.38")) {
		t.Fatalf("expected subtotal 30.38, got %s", updated.SubtotalAmount)
	}
	if !updated.TotalAmount.Equal(d("40.38")) {
		t.Fatalf("expected total 40.38, got %s", updated.TotalAmount)
	}

	var itemCount int64
	if err := conn.Model(&invoicedomain.InvoiceItem{}).Where("invoice_id = ?", created.ID).Count(&itemCount).Error; err != nil {
		t.Fatalf("count items: %v", err)
	}
	if itemCount != 1 {
		t.Fatalf("expected old items to be replaced, got %d rows", itemCount)
	}
}

func TestUpdateWithoutItemsKeepsItems(t *testing.T) {
	svc, _ := setupInvoiceTest(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, baseRequest("INV-K"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(ctx, created.ID, invoicedomain.UpdateInvoiceRequest{TaxAmount: dp("0")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(updated.Items) != 2 {
		t.Fatalf("expected items to be kept, got %d", len(updated.Items))
	}
	if !updated.TotalAmount.Equal(d("120.50")) {
		t.Fatalf("expected total 120.50, got %s", updated.TotalAmount)
	}
}

func TestUpdateRejectsTakenNumber(t *testing.T) {
	svc, _ := setupInvoiceTest(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, baseRequest("INV-A")); err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := svc.Create(ctx, baseRequest("INV-B"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	taken := "INV-A"
	if _, err := svc.Update(ctx, second.ID, invoicedomain.UpdateInvoiceRequest{InvoiceNumber: &taken}); !errors.Is(err, invoicedomain.ErrDuplicateInvoiceNumber) {
		t.Fatalf("expected ErrDuplicateInvoiceNumber, got %v", err)
	}
}

func TestListFiltersAndPages(t *testing.T) {
	svc, _ := setupInvoiceTest(t)
	ctx := context.Background()

	for i, issue := range []time.Time{date(2024, 1, 5), date(2024, 2, 5), date(2024, 3, 5)} {
		req := baseRequest([]string{"INV-L1", "INV-L2", "INV-L3"}[i])
		req.IssueDate = issue
		if _, err := svc.Create(ctx, req); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	resp, err := svc.List(ctx, invoicedomain.ListInvoiceRequest{
		PartnerID: testPartnerID,
		Page:      pagination.Pagination{Page: 0, Size: 2},
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if resp.TotalElements != 3 || len(resp.Invoices) != 2 {
		t.Fatalf("unexpected page %+v", resp.PageInfo)
	}
	if resp.Invoices[0].InvoiceNumber != "INV-L3" {
		t.Fatalf("expected newest issue date first, got %s", resp.Invoices[0].InvoiceNumber)
	}

	from, to := date(2024, 2, 1), date(2024, 2, 29)
	resp, err = svc.List(ctx, invoicedomain.ListInvoiceRequest{
		PartnerID:     testPartnerID,
		IssueDateFrom: &from,
		IssueDateTo:   &to,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(resp.Invoices) != 1 || resp.Invoices[0].InvoiceNumber != "INV-L2" {
		t.Fatalf("expected only February invoice, got %+v", resp.Invoices)
	}
}

func TestSoftDeleteHidesInvoice(t *testing.T) {
	svc, _ := setupInvoiceTest(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, baseRequest("INV-D"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.SoftDelete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetByID(ctx, created.ID); !errors.Is(err, invoicedomain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	found, err := svc.Search(ctx, invoicedomain.SearchInvoiceRequest{PartnerID: testPartnerID})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 0 {
		t.Fatalf("expected deleted invoice to be excluded, got %d", len(found))
	}
}

func TestSearchByStatusAndDueDate(t *testing.T) {
	svc, _ := setupInvoiceTest(t)
	ctx := context.Background()

	early := baseRequest("INV-S1")
	due := date(2024, 1, 20)
	early.DueDate = &due
	first, err := svc.Create(ctx, early)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	late := baseRequest("INV-S2")
	lateDue := date(2024, 3, 1)
	late.DueDate = &lateDue
	if _, err := svc.Create(ctx, late); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, _, err := svc.SetStatus(ctx, first.ID, invoicedomain.InvoiceStatusSent); err != nil {
		t.Fatalf("set status: %v", err)
	}

	sent := invoicedomain.InvoiceStatusSent
	found, err := svc.Search(ctx, invoicedomain.SearchInvoiceRequest{PartnerID: testPartnerID, Status: &sent})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 1 || found[0].ID != first.ID {
		t.Fatalf("expected SENT invoice only, got %+v", found)
	}

	before := date(2024, 2, 1)
	found, err = svc.Search(ctx, invoicedomain.SearchInvoiceRequest{PartnerID: testPartnerID, DueBefore: &before})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 1 || found[0].InvoiceNumber != "INV-S1" {
		t.Fatalf("expected INV-S1 due before Feb, got %+v", found)
	}
}

func TestNextInvoiceNumber(t *testing.T) {
	svc, _ := setupInvoiceTest(t)
	ctx := context.Background()

	next, err := svc.NextInvoiceNumber(ctx, testPartnerID)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if next != "INV-000001" {
		t.Fatalf("expected INV-000001, got %s", next)
	}

	if _, err := svc.Create(ctx, baseRequest(next)); err != nil {
		t.Fatalf("create: %v", err)
	}
	next, err = svc.NextInvoiceNumber(ctx, testPartnerID)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if next != "INV-000002" {
		t.Fatalf("expected INV-000002, got %s", next)
	}

	if _, err := svc.NextInvoiceNumber(ctx, 404); !errors.Is(err, partnerdomain.ErrNotFound) {
		t.Fatalf("expected partner not found, got %v", err)
	}
}

func TestSetStatusReportsChange(t *testing.T) {
	svc, _ := setupInvoiceTest(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, baseRequest("INV-ST"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	inv, changed, err := svc.SetStatus(ctx, created.ID, invoicedomain.InvoiceStatusPaid)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if !changed || inv.Status != invoicedomain.InvoiceStatusPaid {
		t.Fatalf("expected change to PAID, got changed=%v status=%s", changed, inv.Status)
	}

	inv, changed, err = svc.SetStatus(ctx, created.ID, invoicedomain.InvoiceStatusPaid)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if changed || inv.Status != invoicedomain.InvoiceStatusPaid {
		t.Fatalf("expected no-op, got changed=%v status=%s", changed, inv.Status)
	}
}
