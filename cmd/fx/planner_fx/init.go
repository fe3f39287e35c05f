package planner_fx

import (
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"tripweaver/config"
	"tripweaver/internal/cache"
	"tripweaver/internal/geo"
	"tripweaver/internal/providers"
	"tripweaver/internal/services"
	"tripweaver/internal/workflow"
	"tripweaver/pkg/llm"
)

var Module = fx.Provide(
	ProvideSkeletonService,
	ProvideOptionsService,
	ProvideCuratorService,
	ProvideTripPlanner,
	ProvideRunner,
)

func ProvideSkeletonService(ai llm.ChatClientInterface, log zerolog.Logger) services.SkeletonServiceInterface {
	return services.NewSkeletonService(ai, log)
}

func ProvideOptionsService(
	stays []providers.StayProvider,
	activities []providers.ActivityProvider,
	resolver geo.ResolverInterface,
	cfg config.Config,
	log zerolog.Logger,
) services.OptionsServiceInterface {
	return services.NewOptionsService(stays, activities, resolver, cfg.MaxActivitiesPerSegment, cfg.MinActivitiesPerSegment, log)
}

func ProvideCuratorService(ai llm.ChatClientInterface, resolver geo.ResolverInterface, log zerolog.Logger) services.CuratorServiceInterface {
	return services.NewCuratorService(ai, resolver, log)
}

func ProvideTripPlanner(
	skeleton services.SkeletonServiceInterface,
	options services.OptionsServiceInterface,
	curator services.CuratorServiceInterface,
	tripCache cache.TripCache,
	cfg config.Config,
	log zerolog.Logger,
) services.TripPlannerInterface {
	return services.NewTripPlanner(skeleton, options, curator, tripCache, cfg.TripCacheTTLSeconds, log)
}

func ProvideRunner(cfg config.Config, log zerolog.Logger) *workflow.Runner {
	return workflow.NewRunner(cfg.WorkflowMaxAttempts, 2*time.Second, log)
}
