package controllers_fx

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"tripweaver/internal/api/controllers"
	"tripweaver/internal/cache"
	"tripweaver/internal/services"
	"tripweaver/internal/workflow"
)

var Module = fx.Provide(
	ProvideTripController,
)

func ProvideTripController(
	planner services.TripPlannerInterface,
	runner *workflow.Runner,
	steps workflow.StepStore,
	tripCache cache.TripCache,
	log zerolog.Logger,
) *controllers.TripController {
	return controllers.NewTripController(planner, runner, steps, tripCache, log)
}
