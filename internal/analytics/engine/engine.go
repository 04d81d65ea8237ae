// Package engine aggregates invoices and completed payments into KPI
// summaries and monthly series. It performs no I/O.
package engine

import (
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	analyticsdomain "github.com/smallbiznis/invoicely/internal/analytics/domain"
	"github.com/smallbiznis/invoicely/internal/clock"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/invoicely/internal/payment/domain"
)

// PaymentsByInvoice maps an invoice id to its COMPLETED payments.
type PaymentsByInvoice map[snowflake.ID][]paymentdomain.Payment

const hoursPerDay = 24

// Summarize computes outstanding totals, status counts and payment delay
// metrics over the invoices matching the filter.
func Summarize(invoices []invoicedomain.Invoice, payments PaymentsByInvoice, filter analyticsdomain.Filter) analyticsdomain.SummaryResponse {
	filtered := applyFilter(invoices, filter)

	counts := make(map[invoicedomain.InvoiceStatus]int64, len(invoicedomain.InvoiceStatuses))
	for _, status := range invoicedomain.InvoiceStatuses {
		counts[status] = 0
	}

	outstanding := decimal.Zero
	var (
		considered int64
		onTime     int64
		totalDelay int64
	)
	for _, inv := range filtered {
		counts[inv.Status]++
		if inv.Status.Outstanding() {
			outstanding = outstanding.Add(inv.TotalAmount)
		}
		if inv.Status != invoicedomain.InvoiceStatusPaid {
			continue
		}

		paidDate, ok := lastPaymentDate(payments[inv.ID])
		if !ok {
			continue
		}
		if !withinRange(paidDate, filter.From, filter.To) {
			continue
		}
		if inv.DueDate == nil {
			continue
		}

		due := clock.DateOf(*inv.DueDate)
		delay := daysBetween(due, paidDate)
		if delay > 0 {
			totalDelay += delay
		} else {
			onTime++
		}
		considered++
	}

	resp := analyticsdomain.SummaryResponse{
		TotalOutstanding: outstanding,
		StatusCounts:     counts,
	}
	if considered > 0 {
		resp.AvgPaymentDelayDays = float64(totalDelay) / float64(considered)
		resp.OnTimePaymentRate = float64(onTime) / float64(considered)
	}
	return resp
}

// BuildTimeseries buckets amounts per calendar month. The invoiced metric
// honors the status filter. The paid metric sums completed payments of every
// invoice in scope and ignores it.
func BuildTimeseries(invoices []invoicedomain.Invoice, payments PaymentsByInvoice, filter analyticsdomain.Filter, metric analyticsdomain.Metric) analyticsdomain.TimeseriesResponse {
	buckets := make(map[time.Time]decimal.Decimal)

	switch metric {
	case analyticsdomain.MetricPaid:
		for _, inv := range invoices {
			for _, payment := range payments[inv.ID] {
				if payment.Status != paymentdomain.PaymentStatusCompleted {
					continue
				}
				paidOn := clock.DateOf(payment.PaymentDate)
				if !withinRange(paidOn, filter.From, filter.To) {
					continue
				}
				month := monthStart(paidOn)
				buckets[month] = buckets[month].Add(payment.Amount)
			}
		}
	default:
		metric = analyticsdomain.MetricInvoiced
		for _, inv := range applyFilter(invoices, filter) {
			month := monthStart(inv.IssueDate)
			buckets[month] = buckets[month].Add(inv.TotalAmount)
		}
	}

	var points []analyticsdomain.TimeseriesPoint
	if filter.From != nil && filter.To != nil && !filter.From.After(*filter.To) {
		points = fillMonths(buckets, *filter.From, *filter.To)
	} else {
		points = make([]analyticsdomain.TimeseriesPoint, 0, len(buckets))
		for month, amount := range buckets {
			points = append(points, analyticsdomain.TimeseriesPoint{Period: month, Amount: amount})
		}
		sort.Slice(points, func(i, j int) bool {
			return points[i].Period.Before(points[j].Period)
		})
	}

	return analyticsdomain.TimeseriesResponse{Metric: metric, Points: points}
}

func applyFilter(invoices []invoicedomain.Invoice, filter analyticsdomain.Filter) []invoicedomain.Invoice {
	out := make([]invoicedomain.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if filter.Status != nil && *filter.Status != inv.Status {
			continue
		}
		if !withinRange(clock.DateOf(inv.IssueDate), filter.From, filter.To) {
			continue
		}
		out = append(out, inv)
	}
	return out
}

func fillMonths(buckets map[time.Time]decimal.Decimal, from, to time.Time) []analyticsdomain.TimeseriesPoint {
	end := monthStart(to)
	var points []analyticsdomain.TimeseriesPoint
	for cur := monthStart(from); !cur.After(end); cur = cur.AddDate(0, 1, 0) {
		amount, ok := buckets[cur]
		if !ok {
			amount = decimal.Zero
		}
		points = append(points, analyticsdomain.TimeseriesPoint{Period: cur, Amount: amount})
	}
	return points
}

func lastPaymentDate(payments []paymentdomain.Payment) (time.Time, bool) {
	var (
		latest time.Time
		found  bool
	)
	for _, payment := range payments {
		if payment.Status != paymentdomain.PaymentStatusCompleted || payment.PaymentDate.IsZero() {
			continue
		}
		date := clock.DateOf(payment.PaymentDate)
		if !found || date.After(latest) {
			latest = date
			found = true
		}
	}
	return latest, found
}

func withinRange(date time.Time, from, to *time.Time) bool {
	if from != nil && date.Before(clock.DateOf(*from)) {
		return false
	}
	if to != nil && date.After(clock.DateOf(*to)) {
		return false
	}
	return true
}

func daysBetween(from, to time.Time) int64 {
	return int64(to.Sub(from).Hours() / hoursPerDay)
}

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
