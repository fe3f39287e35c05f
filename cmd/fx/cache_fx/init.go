package cache_fx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"tripweaver/config"
	"tripweaver/internal/cache"
	"tripweaver/internal/infra"
	"tripweaver/internal/workflow"
)

var Module = fx.Provide(
	ProvideRedisClient,
	ProvideTripCache,
	ProvideStepStore,
)

func ProvideRedisClient(lc fx.Lifecycle, cfg config.Config, log zerolog.Logger) *redis.Client {
	client := infra.NewRedisClient(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, log)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			infra.CloseRedis(client, log)
			return nil
		},
	})
	return client
}

func ProvideTripCache(client *redis.Client) cache.TripCache {
	return cache.NewRedisTripCache(client)
}

// Step checkpoints share the itinerary TTL so a stalled run's state
// expires together with any partial output.
func ProvideStepStore(client *redis.Client, cfg config.Config) workflow.StepStore {
	return workflow.NewRedisStepStore(client, time.Duration(cfg.TripCacheTTLSeconds)*time.Second)
}
