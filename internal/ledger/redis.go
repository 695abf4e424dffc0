package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "alideal:posted:"

// Redis keeps the ledger as one key per product identifier. The cooldown
// window maps directly onto key TTLs, and SetNX gives atomic
// insert-if-absent semantics should processing ever go concurrent.
type Redis struct {
	client   *redis.Client
	cooldown time.Duration
}

func NewRedis(client *redis.Client, cooldown time.Duration) *Redis {
	return &Redis{client: client, cooldown: cooldown}
}

func (r *Redis) Seen(ctx context.Context, productID string) (bool, error) {
	n, err := r.client.Exists(ctx, redisKeyPrefix+productID).Result()
	if err != nil {
		return false, fmt.Errorf("ledger redis exists: %w", err)
	}
	return n > 0, nil
}

func (r *Redis) Record(ctx context.Context, rec PostRecord) error {
	ts := rec.PostedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	if err := r.client.SetNX(ctx, redisKeyPrefix+rec.ProductID, ts.Format(time.RFC3339), r.cooldown).Err(); err != nil {
		return fmt.Errorf("ledger redis setnx: %w", err)
	}
	return nil
}
