package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicely/internal/clock"
	"github.com/smallbiznis/invoicely/internal/partner/domain"
	"github.com/smallbiznis/invoicely/internal/partner/repository"
	"github.com/smallbiznis/invoicely/pkg/db"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()

	conn, err := db.OpenSQLiteMemory(t.Name())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&domain.Partner{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	return New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
}

func TestCreateAndSoftDelete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreatePartnerRequest{OwnerUserID: 7, Name: "  Acme  ", Email: "billing@acme.test"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Name != "Acme" {
		t.Fatalf("expected trimmed name, got %q", created.Name)
	}

	owner := snowflake.ID(7)
	list, err := svc.List(ctx, &owner)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 partner, got %d", len(list))
	}

	if err := svc.SoftDelete(ctx, created.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := svc.GetByID(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	list, err = svc.List(ctx, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected deleted partner to be hidden, got %d", len(list))
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, domain.CreatePartnerRequest{OwnerUserID: 1, Name: " "}); !errors.Is(err, domain.ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	if _, err := svc.Create(ctx, domain.CreatePartnerRequest{OwnerUserID: 1, Name: "x", Email: "nope"}); !errors.Is(err, domain.ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestUpdateAppliesOnlyProvidedFields(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreatePartnerRequest{OwnerUserID: 1, Name: "Acme", City: "Jakarta"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	country := "ID"
	updated, err := svc.Update(ctx, created.ID, domain.UpdatePartnerRequest{Country: &country})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.City != "Jakarta" || updated.Country != "ID" {
		t.Fatalf("unexpected partner %+v", updated)
	}
}
