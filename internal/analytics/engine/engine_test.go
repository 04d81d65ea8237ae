package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	analyticsdomain "github.com/smallbiznis/invoicely/internal/analytics/domain"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/invoicely/internal/payment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func invoice(id snowflake.ID, status invoicedomain.InvoiceStatus, total string, issue time.Time) invoicedomain.Invoice {
	return invoicedomain.Invoice{
		ID:          id,
		Status:      status,
		IssueDate:   issue,
		TotalAmount: decimal.RequireFromString(total),
	}
}

func completed(invoiceID snowflake.ID, amount string, on time.Time) paymentdomain.Payment {
	return paymentdomain.Payment{
		InvoiceID:   invoiceID,
		Amount:      decimal.RequireFromString(amount),
		PaymentDate: on,
		Status:      paymentdomain.PaymentStatusCompleted,
	}
}

func TestSummarizeOutstandingAndCounts(t *testing.T) {
	var invoices []invoicedomain.Invoice
	for i, status := range invoicedomain.InvoiceStatuses {
		invoices = append(invoices, invoice(snowflake.ID(i+1), status, "100", day(2024, 1, 10)))
	}

	resp := Summarize(invoices, PaymentsByInvoice{}, analyticsdomain.Filter{})

	assert.True(t, resp.TotalOutstanding.Equal(decimal.NewFromInt(300)), "outstanding %s", resp.TotalOutstanding)
	require.Len(t, resp.StatusCounts, len(invoicedomain.InvoiceStatuses))
	for _, status := range invoicedomain.InvoiceStatuses {
		assert.EqualValues(t, 1, resp.StatusCounts[status], "status %s", status)
	}
	assert.Zero(t, resp.AvgPaymentDelayDays)
	assert.Zero(t, resp.OnTimePaymentRate)
}

func TestSummarizeEmptyHasEveryStatusKey(t *testing.T) {
	resp := Summarize(nil, nil, analyticsdomain.Filter{})

	assert.True(t, resp.TotalOutstanding.IsZero())
	for _, status := range invoicedomain.InvoiceStatuses {
		count, ok := resp.StatusCounts[status]
		assert.True(t, ok, "missing %s", status)
		assert.Zero(t, count)
	}
}

func TestSummarizePaymentDelay(t *testing.T) {
	onTime := invoice(1, invoicedomain.InvoiceStatusPaid, "100", day(2024, 1, 1))
	onTime.DueDate = ptr(day(2024, 1, 31))
	late := invoice(2, invoicedomain.InvoiceStatusPaid, "100", day(2024, 1, 1))
	late.DueDate = ptr(day(2024, 1, 31))
	noDue := invoice(3, invoicedomain.InvoiceStatusPaid, "100", day(2024, 1, 1))
	noPayments := invoice(4, invoicedomain.InvoiceStatusPaid, "100", day(2024, 1, 1))
	noPayments.DueDate = ptr(day(2024, 1, 31))

	payments := PaymentsByInvoice{
		1: {completed(1, "100", day(2024, 1, 20))},
		2: {completed(2, "40", day(2024, 2, 2)), completed(2, "60", day(2024, 2, 10))},
		3: {completed(3, "100", day(2024, 1, 5))},
	}

	resp := Summarize([]invoicedomain.Invoice{onTime, late, noDue, noPayments}, payments, analyticsdomain.Filter{})

	// late: paid 2024-02-10, due 2024-01-31 -> 10 days.
	assert.InDelta(t, 5.0, resp.AvgPaymentDelayDays, 1e-9)
	assert.InDelta(t, 0.5, resp.OnTimePaymentRate, 1e-9)
	assert.True(t, resp.TotalOutstanding.IsZero())
}

func TestSummarizeSkipsPaidDateOutsideRange(t *testing.T) {
	inv := invoice(1, invoicedomain.InvoiceStatusPaid, "100", day(2024, 1, 5))
	inv.DueDate = ptr(day(2024, 1, 20))
	payments := PaymentsByInvoice{1: {completed(1, "100", day(2024, 3, 1))}}

	resp := Summarize([]invoicedomain.Invoice{inv}, payments, analyticsdomain.Filter{
		From: ptr(day(2024, 1, 1)),
		To:   ptr(day(2024, 1, 31)),
	})

	assert.EqualValues(t, 1, resp.StatusCounts[invoicedomain.InvoiceStatusPaid])
	assert.Zero(t, resp.AvgPaymentDelayDays)
	assert.Zero(t, resp.OnTimePaymentRate)
}

func TestSummarizeStatusAndDateFilter(t *testing.T) {
	invoices := []invoicedomain.Invoice{
		invoice(1, invoicedomain.InvoiceStatusSent, "50", day(2023, 12, 31)),
		invoice(2, invoicedomain.InvoiceStatusSent, "70", day(2024, 1, 1)),
		invoice(3, invoicedomain.InvoiceStatusOverdue, "80", day(2024, 1, 15)),
		invoice(4, invoicedomain.InvoiceStatusSent, "90", day(2024, 2, 1)),
	}

	resp := Summarize(invoices, nil, analyticsdomain.Filter{
		From:   ptr(day(2024, 1, 1)),
		To:     ptr(day(2024, 1, 31)),
		Status: ptr(invoicedomain.InvoiceStatusSent),
	})

	assert.True(t, resp.TotalOutstanding.Equal(decimal.NewFromInt(70)), "outstanding %s", resp.TotalOutstanding)
	assert.EqualValues(t, 1, resp.StatusCounts[invoicedomain.InvoiceStatusSent])
	assert.EqualValues(t, 0, resp.StatusCounts[invoicedomain.InvoiceStatusOverdue])
}

func TestTimeseriesGapFill(t *testing.T) {
	invoices := []invoicedomain.Invoice{
		invoice(1, invoicedomain.InvoiceStatusSent, "120", day(2024, 1, 3)),
		invoice(2, invoicedomain.InvoiceStatusDraft, "80", day(2024, 1, 28)),
		invoice(3, invoicedomain.InvoiceStatusSent, "999", day(2024, 5, 1)),
	}

	resp := BuildTimeseries(invoices, nil, analyticsdomain.Filter{
		From: ptr(day(2024, 1, 1)),
		To:   ptr(day(2024, 3, 1)),
	}, analyticsdomain.MetricInvoiced)

	assert.Equal(t, analyticsdomain.MetricInvoiced, resp.Metric)
	require.Len(t, resp.Points, 3)
	expected := []struct {
		period time.Time
		amount int64
	}{
		{day(2024, 1, 1), 200},
		{day(2024, 2, 1), 0},
		{day(2024, 3, 1), 0},
	}
	for i, want := range expected {
		assert.Equal(t, want.period, resp.Points[i].Period)
		assert.True(t, resp.Points[i].Amount.Equal(decimal.NewFromInt(want.amount)), "point %d amount %s", i, resp.Points[i].Amount)
	}
}

func TestTimeseriesWithoutRangeIsSorted(t *testing.T) {
	invoices := []invoicedomain.Invoice{
		invoice(1, invoicedomain.InvoiceStatusSent, "10", day(2024, 3, 9)),
		invoice(2, invoicedomain.InvoiceStatusSent, "20", day(2023, 11, 2)),
		invoice(3, invoicedomain.InvoiceStatusSent, "30", day(2024, 3, 20)),
	}

	resp := BuildTimeseries(invoices, nil, analyticsdomain.Filter{}, analyticsdomain.MetricInvoiced)

	require.Len(t, resp.Points, 2)
	assert.Equal(t, day(2023, 11, 1), resp.Points[0].Period)
	assert.Equal(t, day(2024, 3, 1), resp.Points[1].Period)
	assert.True(t, resp.Points[1].Amount.Equal(decimal.NewFromInt(40)))
}

func TestTimeseriesPaidIgnoresStatusFilter(t *testing.T) {
	invoices := []invoicedomain.Invoice{
		invoice(1, invoicedomain.InvoiceStatusPaid, "100", day(2024, 1, 1)),
		invoice(2, invoicedomain.InvoiceStatusSent, "100", day(2024, 1, 1)),
	}
	failed := completed(2, "999", day(2024, 2, 1))
	failed.Status = paymentdomain.PaymentStatusFailed
	payments := PaymentsByInvoice{
		1: {completed(1, "100", day(2024, 1, 15))},
		2: {completed(2, "25", day(2024, 2, 3)), failed},
	}

	resp := BuildTimeseries(invoices, payments, analyticsdomain.Filter{
		Status: ptr(invoicedomain.InvoiceStatusPaid),
	}, analyticsdomain.MetricPaid)

	assert.Equal(t, analyticsdomain.MetricPaid, resp.Metric)
	require.Len(t, resp.Points, 2)
	assert.True(t, resp.Points[0].Amount.Equal(decimal.NewFromInt(100)))
	assert.True(t, resp.Points[1].Amount.Equal(decimal.NewFromInt(25)))
}

func TestTimeseriesReversedRangeSkipsGapFill(t *testing.T) {
	invoices := []invoicedomain.Invoice{invoice(1, invoicedomain.InvoiceStatusSent, "10", day(2024, 2, 1))}

	resp := BuildTimeseries(invoices, nil, analyticsdomain.Filter{
		From: ptr(day(2024, 3, 1)),
		To:   ptr(day(2024, 1, 1)),
	}, analyticsdomain.MetricInvoiced)

	assert.Empty(t, resp.Points)
}

func TestParseMetric(t *testing.T) {
	assert.Equal(t, analyticsdomain.MetricPaid, analyticsdomain.ParseMetric(" PAID "))
	assert.Equal(t, analyticsdomain.MetricInvoiced, analyticsdomain.ParseMetric(""))
	assert.Equal(t, analyticsdomain.MetricInvoiced, analyticsdomain.ParseMetric("refunds"))
}

func TestTimeseriesPointRendersDate(t *testing.T) {
	raw, err := json.Marshal(analyticsdomain.TimeseriesPoint{Period: day(2024, 2, 1), Amount: decimal.NewFromInt(5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"period":"2024-02-01","amount":"5"}`, string(raw))
}
