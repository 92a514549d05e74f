package uistate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"taskboard/internal/app"
)

// KeyPrefix namespaces snapshot keys.
const KeyPrefix = "taskboard:ui:"

// Redis keeps snapshots as JSON strings with a TTL.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedis wraps a client. The store owns the client and closes it.
func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func snapshotKey(id string) string {
	return KeyPrefix + id
}

func (r *Redis) Load(ctx context.Context, id string) (app.Snapshot, bool, error) {
	val, err := r.rdb.Get(ctx, snapshotKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return app.Snapshot{}, false, nil
	}
	if err != nil {
		return app.Snapshot{}, false, fmt.Errorf("load ui state: %w", err)
	}

	var s app.Snapshot
	if err := json.Unmarshal(val, &s); err != nil {
		return app.Snapshot{}, false, fmt.Errorf("invalid ui state: %w", err)
	}
	return s, true, nil
}

func (r *Redis) Save(ctx context.Context, id string, s app.Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, snapshotKey(id), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save ui state: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, snapshotKey(id)).Err()
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
