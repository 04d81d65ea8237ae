package pdf

import (
	"context"
	"errors"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	customerdomain "github.com/smallbiznis/invoicely/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
	"github.com/smallbiznis/invoicely/internal/money"
	partnerdomain "github.com/smallbiznis/invoicely/internal/partner/domain"
)

const footerText = "Generated by invoicely"

var ErrEmptyInvoice = errors.New("empty_invoice")

var accent = &props.Color{Red: 37, Green: 99, Blue: 235}

type MarotoProvider struct{}

func New() Provider {
	return &MarotoProvider{}
}

func (p *MarotoProvider) RenderInvoice(ctx context.Context, inv invoicedomain.Invoice, partner partnerdomain.Partner, customer customerdomain.Customer) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(inv.InvoiceNumber) == "" {
		return nil, ErrEmptyInvoice
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(14,
		text.NewCol(12, "Invoice #"+inv.InvoiceNumber, props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
			Color: accent,
		}),
	)

	dueDate := "-"
	if inv.DueDate != nil {
		dueDate = inv.DueDate.Format(invoicedomain.DateLayout)
	}
	m.AddRow(20,
		col.New(6).Add(
			text.New("Issue date: "+inv.IssueDate.Format(invoicedomain.DateLayout), props.Text{Top: 0}),
			text.New("Due date: "+dueDate, props.Text{Top: 4}),
			text.New("Status: "+string(inv.Status), props.Text{Top: 8}),
			text.New("Currency: "+inv.Currency, props.Text{Top: 12}),
		),
		col.New(6),
	)

	m.AddRow(36,
		col.New(6).Add(
			text.New(orDash(partner.Name), props.Text{Style: fontstyle.Bold}),
			text.New(partnerAddress(partner), props.Text{Top: 5}),
			text.New(partner.Email, props.Text{Top: 20}),
		),
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold}),
			text.New(orDash(customer.Name), props.Text{Top: 5}),
			text.New(customer.Address, props.Text{Top: 9}),
			text.New(customer.Email, props.Text{Top: 20}),
		),
	)

	m.AddRow(10,
		text.NewCol(6, "Item", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Line total", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))

	for _, item := range inv.Items {
		m.AddRow(8,
			col.New(6).Add(
				text.New(item.ItemName, props.Text{Size: 9}),
				text.New(item.ItemDescription, props.Text{Size: 7, Top: 4}),
			),
			text.NewCol(2, item.Quantity.String(), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, money.Format(item.UnitPrice), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, money.Format(item.LineTotal), props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(2, line.NewCol(12))

	totals := []struct {
		label string
		value string
		bold  bool
	}{
		{"Subtotal", money.FormatWithCurrency(inv.Currency, inv.SubtotalAmount), false},
		{"Tax", money.FormatWithCurrency(inv.Currency, inv.TaxAmount), false},
		{"Discount", money.FormatWithCurrency(inv.Currency, inv.DiscountAmount), false},
		{"Total", money.FormatWithCurrency(inv.Currency, inv.TotalAmount), true},
	}
	for _, row := range totals {
		style := fontstyle.Normal
		if row.bold {
			style = fontstyle.Bold
		}
		m.AddRow(7,
			col.New(6),
			text.NewCol(3, row.label, props.Text{Size: 9, Style: style, Align: align.Right}),
			text.NewCol(3, row.value, props.Text{Size: 9, Style: style, Align: align.Right}),
		)
	}

	if notes := strings.TrimSpace(inv.Notes); notes != "" {
		m.AddRow(8, text.NewCol(12, "Notes", props.Text{Style: fontstyle.Bold, Size: 9, Top: 3}))
		m.AddRow(16, text.NewCol(12, notes, props.Text{Size: 9}))
	}

	m.AddRow(10, text.NewCol(12, footerText, props.Text{Size: 7, Top: 4, Align: align.Center}))

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

func partnerAddress(p partnerdomain.Partner) string {
	parts := make([]string, 0, 5)
	for _, v := range []string{p.AddressLine1, p.AddressLine2, p.City, p.State, p.PostalCode, p.Country} {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

func orDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}
