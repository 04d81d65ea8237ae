package context

import (
	stdcontext "context"
	"strings"
)

type requestIDKey struct{}
type partnerIDKey struct{}

// WithRequestID stores the correlation id of the current request.
func WithRequestID(ctx stdcontext.Context, requestID string) stdcontext.Context {
	return stdcontext.WithValue(ctx, requestIDKey{}, strings.TrimSpace(requestID))
}

func RequestIDFromContext(ctx stdcontext.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey{}).(string)
	return value
}

func WithPartnerID(ctx stdcontext.Context, partnerID string) stdcontext.Context {
	return stdcontext.WithValue(ctx, partnerIDKey{}, strings.TrimSpace(partnerID))
}

func PartnerIDFromContext(ctx stdcontext.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(partnerIDKey{}).(string)
	return value
}
