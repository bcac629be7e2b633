package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"dispatch/internal/domain"
	"dispatch/internal/handler"
	"dispatch/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	RideHandler          *handler.RideHandler
	FleetHandler         *handler.FleetHandler
	ScheduledRideHandler *handler.ScheduledRideHandler
	AdviceHandler        *handler.AdviceHandler
	RedisClient          *redis.Client
	NewRelicApp          *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.MetricsMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdentityMiddleware())
	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		v1.POST("/quotes", deps.RideHandler.Quote)
		v1.GET("/availability", deps.RideHandler.Availability)
		v1.GET("/passengers/me/suggestions", deps.RideHandler.SuggestedDestinations)
		v1.GET("/routes/advice", deps.AdviceHandler.Advise)

		// Ride routes.
		rides := v1.Group("/rides")
		{
			rides.POST("", deps.RideHandler.ConfirmRide)
			rides.GET("", deps.RideHandler.GetAll)
			rides.GET("/active", deps.RideHandler.ActiveRide)
			rides.GET("/:id", deps.RideHandler.GetRide)
			rides.POST("/:id/complete", deps.RideHandler.CompleteRide)
			rides.POST("/:id/cancel", deps.RideHandler.CancelRide)
		}

		// Advance booking routes.
		scheduled := v1.Group("/scheduled-rides")
		{
			scheduled.POST("", deps.ScheduledRideHandler.ScheduleRide)
			scheduled.GET("", deps.ScheduledRideHandler.GetAll)
			scheduled.GET("/:id", deps.ScheduledRideHandler.GetByID)
		}

		// Fleet owner routes.
		fleet := v1.Group("/fleet", middleware.RequireRole(domain.RoleFleetOwner))
		{
			fleet.POST("/vehicles", deps.FleetHandler.AddVehicle)
			fleet.GET("/vehicles", deps.FleetHandler.ListVehicles)
			fleet.DELETE("/vehicles/:id", deps.FleetHandler.RemoveVehicle)
			fleet.GET("/dashboard", deps.FleetHandler.Dashboard)
			fleet.GET("/analytics", deps.FleetHandler.Analytics)
			fleet.GET("/history", deps.FleetHandler.History)
			fleet.GET("/scheduled-rides", deps.FleetHandler.ScheduledRides)
			fleet.GET("/live", deps.FleetHandler.Live)
		}
	}

	return router
}
