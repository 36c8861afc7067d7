package draft

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/rastreiamais/rastreia/internal/config"
)

// Store keeps at most one draft per user.
type Store interface {
	Load(ctx context.Context, uid string) (*Draft, error)
	Save(ctx context.Context, d Draft) error
	Delete(ctx context.Context, uid string) error
	List(ctx context.Context) ([]Draft, error)
}

// Open builds the store selected by draft.backend.
func Open(cfg config.DraftConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileStore(cfg.Dir)
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		return NewRedisStore(rdb, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown draft backend %q", cfg.Backend)
	}
}
