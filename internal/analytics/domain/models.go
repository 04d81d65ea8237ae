// Package domain holds the analytics request and response shapes.
package domain

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallbiznis/invoicely/internal/invoice/domain"
)

type Metric string

const (
	MetricInvoiced Metric = "invoiced"
	MetricPaid     Metric = "paid"
)

// ParseMetric is case-insensitive and falls back to invoiced for unknown or
// empty values.
func ParseMetric(value string) Metric {
	if Metric(strings.ToLower(strings.TrimSpace(value))) == MetricPaid {
		return MetricPaid
	}
	return MetricInvoiced
}

// Filter bounds are inclusive calendar dates.
type Filter struct {
	PartnerID *snowflake.ID
	From      *time.Time
	To        *time.Time
	Status    *invoicedomain.InvoiceStatus
}

type TimeseriesRequest struct {
	Filter
	Metric string
}

type SummaryResponse struct {
	TotalOutstanding    decimal.Decimal                       `json:"totalOutstanding"`
	AvgPaymentDelayDays float64                               `json:"avgPaymentDelayDays"`
	OnTimePaymentRate   float64                               `json:"onTimePaymentRate"`
	StatusCounts        map[invoicedomain.InvoiceStatus]int64 `json:"statusCounts"`
}

// TimeseriesPoint is one calendar month. Period is the first day of the month.
type TimeseriesPoint struct {
	Period    time.Time                    `json:"period"`
	Amount    decimal.Decimal              `json:"amount"`
	PartnerID *snowflake.ID                `json:"partnerId,omitempty"`
	Status    *invoicedomain.InvoiceStatus `json:"status,omitempty"`
}

func (p TimeseriesPoint) MarshalJSON() ([]byte, error) {
	type alias TimeseriesPoint
	return json.Marshal(struct {
		alias
		Period string `json:"period"`
	}{alias: alias(p), Period: p.Period.Format(invoicedomain.DateLayout)})
}

type TimeseriesResponse struct {
	Metric Metric            `json:"metric"`
	Points []TimeseriesPoint `json:"points"`
}

type Service interface {
	Summary(context.Context, Filter) (SummaryResponse, error)
	Timeseries(context.Context, TimeseriesRequest) (TimeseriesResponse, error)
}
