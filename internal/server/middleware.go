package server

import (
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	obslogger "github.com/smallbiznis/invoicely/internal/observability/logger"
	"go.uber.org/zap"
)

// WebhookRateLimit throttles inbound webhook deliveries per client IP. It is
// a pass-through when no limiter is configured.
func (s *Server) WebhookRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.webhookLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		endpoint := rateLimitEndpoint(c)

		res, err := s.webhookLimiter.AllowSource(ctx, c.ClientIP())
		if err != nil {
			obslogger.FromContext(ctx).Warn("webhook rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		s.obsMetrics.RecordRateLimit(ctx, endpoint, res.Allowed)

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(res.Remaining, 0)))
		if !res.Allowed {
			if res.RetryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
			}
			obslogger.FromContext(ctx).Info("webhook rate limited",
				zap.String("endpoint", endpoint),
				zap.String("client_ip", c.ClientIP()),
			)
			AbortWithError(c, ErrRateLimited)
			return
		}

		c.Next()
	}
}

func rateLimitEndpoint(c *gin.Context) string {
	route := strings.TrimSpace(c.FullPath())
	if route == "" {
		route = c.Request.URL.Path
	}
	return route
}
