package infra

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NewRedisClient connects to redis and pings it once so misconfiguration
// shows up at startup, not on the first workflow.
func NewRedisClient(addr, password string, db int, log zerolog.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", addr).Msg("redis ping failed")
	}

	return client
}

func CloseRedis(client *redis.Client, log zerolog.Logger) {
	if err := client.Close(); err != nil {
		log.Error().Err(err).Msg("error closing redis connection")
	} else {
		log.Info().Msg("redis connection closed")
	}
}
