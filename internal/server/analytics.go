package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	analyticsdomain "github.com/smallbiznis/invoicely/internal/analytics/domain"
)

func (s *Server) AnalyticsSummary(c *gin.Context) {
	filter, ok := analyticsFilter(c)
	if !ok {
		return
	}

	resp, err := s.analyticsSvc.Summary(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AnalyticsTimeseries(c *gin.Context) {
	filter, ok := analyticsFilter(c)
	if !ok {
		return
	}

	resp, err := s.analyticsSvc.Timeseries(c.Request.Context(), analyticsdomain.TimeseriesRequest{
		Filter: filter,
		Metric: c.Query("metric"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func analyticsFilter(c *gin.Context) (analyticsdomain.Filter, bool) {
	partnerID, err := parseOptionalSnowflakeID(c.Query("partnerId"))
	if err != nil {
		AbortWithError(c, newValidationError("partnerId", "invalid_id", "invalid partnerId"))
		return analyticsdomain.Filter{}, false
	}
	from, ok := dateQuery(c, "from")
	if !ok {
		return analyticsdomain.Filter{}, false
	}
	to, ok := dateQuery(c, "to")
	if !ok {
		return analyticsdomain.Filter{}, false
	}
	status, err := parseOptionalStatus(c.Query("status"))
	if err != nil {
		AbortWithError(c, err)
		return analyticsdomain.Filter{}, false
	}

	return analyticsdomain.Filter{
		PartnerID: partnerID,
		From:      from,
		To:        to,
		Status:    status,
	}, true
}
