package config_fx

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"tripweaver/config"
)

var Module = fx.Provide(
	ProvideConfig,
	ProvideLogger,
)

func ProvideConfig() (config.Config, error) {
	return config.Load()
}

// ProvideLogger builds the root logger. Dev gets a human-readable console
// writer, everything else stays structured JSON.
func ProvideLogger(cfg config.Config) zerolog.Logger {
	if cfg.AppEnv == "dev" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			With().Timestamp().Logger().Level(zerolog.DebugLevel)
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)
}
