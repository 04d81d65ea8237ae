package pdf

import (
	"context"

	customerdomain "github.com/smallbiznis/invoicely/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
	partnerdomain "github.com/smallbiznis/invoicely/internal/partner/domain"
	"go.uber.org/fx"
)

// Provider renders documents for an invoice.
type Provider interface {
	RenderInvoice(ctx context.Context, invoice invoicedomain.Invoice, partner partnerdomain.Partner, customer customerdomain.Customer) ([]byte, error)
}

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)
