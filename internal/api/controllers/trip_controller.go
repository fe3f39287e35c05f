package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tripweaver/internal/cache"
	"tripweaver/internal/models/trip_models"
	"tripweaver/internal/services"
	"tripweaver/internal/workflow"
	"tripweaver/pkg/utils"
)

// planTimeout bounds a background planning run. Generous because a run
// chains several model calls and provider fetches.
const planTimeout = 10 * time.Minute

type TripController struct {
	planner services.TripPlannerInterface
	runner  *workflow.Runner
	steps   workflow.StepStore
	cache   cache.TripCache
	log     zerolog.Logger
}

func NewTripController(
	planner services.TripPlannerInterface,
	runner *workflow.Runner,
	steps workflow.StepStore,
	tripCache cache.TripCache,
	log zerolog.Logger,
) *TripController {
	return &TripController{
		planner: planner,
		runner:  runner,
		steps:   steps,
		cache:   tripCache,
		log:     log.With().Str("component", "trip_controller").Logger(),
	}
}

type startTripResponse struct {
	TripID string `json:"tripId"`
	Status string `json:"status"`
}

// StartTripHandler kicks off a planning workflow in the background and
// returns the trip id immediately. Clients poll GetTripHandler until the
// itinerary lands in the cache.
func (t *TripController) StartTripHandler(c *gin.Context) {
	var req trip_models.TripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}
	if strings.TrimSpace(req.UserPrompt) == "" {
		utils.RespondError(c, http.StatusBadRequest, "userPrompt is required")
		return
	}

	if req.TripID == "" {
		req.TripID = uuid.NewString()
	}

	run := workflow.NewRun(req.TripID, t.steps, t.log)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), planTimeout)
		defer cancel()

		err := t.runner.Execute(ctx, run, func(ctx context.Context) error {
			_, err := t.planner.PlanTrip(ctx, run, req)
			return err
		})
		if err != nil {
			t.log.Error().Err(err).Str("trip_id", req.TripID).Msg("trip planning failed")
		}
	}()

	utils.RespondAccepted(c, startTripResponse{TripID: req.TripID, Status: "planning"}, "Trip planning started")
}

// GetTripHandler returns the finished itinerary, or 202 while the
// workflow is still running. Clients never observe an error state for an
// in-flight trip.
func (t *TripController) GetTripHandler(c *gin.Context) {
	tripID := c.Param("id")
	if tripID == "" {
		utils.RespondError(c, http.StatusBadRequest, "trip id is required")
		return
	}

	var plan trip_models.CuratedItinerary
	found, err := t.cache.Get(c.Request.Context(), tripID, &plan)
	if err != nil {
		t.log.Error().Err(err).Str("trip_id", tripID).Msg("cache read failed")
		utils.HandleServiceError(c, err)
		return
	}
	if !found {
		utils.RespondAccepted(c, startTripResponse{TripID: tripID, Status: "pending"}, "Trip is still being planned")
		return
	}

	utils.RespondSuccess(c, plan, "Trip ready")
}
