package notify

import (
	"context"
	"errors"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Dedup records which transactions have already had a confirmation
// dispatched, so repeated verify calls for one successful transaction do not
// resend the email.
type Dedup struct {
	R   *redis.Client
	TTL time.Duration
}

// MarkNotified atomically claims the transaction. It returns true the first
// time a transaction id is seen within the TTL window and false afterwards.
func (d Dedup) MarkNotified(ctx context.Context, transactionID string) (bool, error) {
	if d.R == nil {
		return false, errors.New("notify: dedup redis client not configured")
	}
	id := strings.TrimSpace(transactionID)
	if id == "" {
		return false, errors.New("notify: transaction id is required")
	}
	ttl := d.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return d.R.SetNX(ctx, "notify:sent:"+id, "1", ttl).Result()
}
