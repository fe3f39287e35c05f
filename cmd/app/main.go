package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"tripweaver/cmd/fx/cache_fx"
	"tripweaver/cmd/fx/config_fx"
	"tripweaver/cmd/fx/controllers_fx"
	"tripweaver/cmd/fx/geo_fx"
	"tripweaver/cmd/fx/llm_fx"
	"tripweaver/cmd/fx/planner_fx"
	"tripweaver/cmd/fx/providers_fx"
	"tripweaver/config"
	"tripweaver/internal/api/controllers"
	"tripweaver/pkg/middleware"
)

func main() {
	_ = godotenv.Load()

	app := fx.New(
		config_fx.Module,
		cache_fx.Module,
		llm_fx.Module,
		providers_fx.Module,
		geo_fx.Module,
		planner_fx.Module,
		controllers_fx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine, cfg config.Config, log zerolog.Logger) {
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: engine}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info().Str("port", cfg.Port).Msg("starting HTTP server")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("HTTP server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("stopping HTTP server")
			return srv.Shutdown(ctx)
		},
	})
}

func ProvideRouter(cfg config.Config, tripController *controllers.TripController) *gin.Engine {
	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.TraceIDMiddleware())

	RegisterRoutes(r, tripController)

	return r
}

func RegisterRoutes(r *gin.Engine, tripController *controllers.TripController) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/trips", tripController.StartTripHandler)
	api.GET("/trips/:id", tripController.GetTripHandler)
}
