package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicely/internal/invoice/domain"
	"github.com/smallbiznis/invoicely/pkg/db"
	"github.com/stretchr/testify/require"
)

func TestListItemsAcceptsMoreIDsThanBindLimit(t *testing.T) {
	conn, err := db.OpenSQLiteMemory(t.Name())
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.InvoiceItem{}))

	const count = 33000
	ids := make([]snowflake.ID, 0, count)
	for i := 1; i <= count; i++ {
		ids = append(ids, snowflake.ID(i))
	}

	now := time.Now().UTC()
	items := []domain.InvoiceItem{
		{ID: 1, InvoiceID: 1, ItemName: "first", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(5), LineTotal: decimal.NewFromInt(5), Position: 0, CreatedAt: now},
		{ID: 2, InvoiceID: count, ItemName: "last-b", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(7), LineTotal: decimal.NewFromInt(7), Position: 1, CreatedAt: now},
		{ID: 3, InvoiceID: count, ItemName: "last-a", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(3), LineTotal: decimal.NewFromInt(3), Position: 0, CreatedAt: now},
	}
	require.NoError(t, conn.Create(&items).Error)

	got, err := Provide().ListItems(context.Background(), conn, ids)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Len(t, got[1], 1)
	require.Len(t, got[snowflake.ID(count)], 2)
	require.Equal(t, "last-a", got[snowflake.ID(count)][0].ItemName)
	require.Equal(t, "last-b", got[snowflake.ID(count)][1].ItemName)
}
