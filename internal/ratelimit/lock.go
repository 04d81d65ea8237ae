package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// releaseIfOwner deletes KEYS[1] only while it still holds the caller's token.
var releaseIfOwner = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

var errInvalidLockTTL = errors.New("invalid_lock_ttl")

// invoiceLock is a single-owner lease keyed by partner and invoice number.
// A lease that is never released expires after ttl.
type invoiceLock struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func newInvoiceLock(client redis.UniversalClient, ttl time.Duration) *invoiceLock {
	if client == nil {
		return nil
	}
	return &invoiceLock{client: client, ttl: ttl}
}

// acquire returns ok=false when another holder owns key. The release func is
// never nil.
func (l *invoiceLock) acquire(ctx context.Context, key string) (release func(), ok bool, err error) {
	noop := func() {}
	switch {
	case l == nil || l.client == nil:
		return noop, false, ErrNotConfigured
	case key == "":
		return noop, false, ErrEmptyKey
	case l.ttl <= 0:
		return noop, false, errInvalidLockTTL
	}

	token := uuid.NewString()
	ok, err = l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil || !ok {
		return noop, false, err
	}

	return func() {
		_ = releaseIfOwner.Run(context.WithoutCancel(ctx), l.client, []string{key}, token).Err()
	}, true, nil
}
