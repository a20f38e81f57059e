package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/parkwise/parkwise/internal/config"
	"github.com/parkwise/parkwise/internal/handler"
	"github.com/parkwise/parkwise/internal/middleware"
)

// Deps collects everything the route table needs.  Redis may be nil,
// in which case the rate limiter and the response cache register as
// pass-throughs.
type Deps struct {
	Auth    *handler.AuthHandler
	Admin   *handler.AdminHandler
	Parking *handler.ParkingHandler
	Cfg     config.Config
	Redis   *redis.Client
}

// Register wires up the full route table.
//
// Public: the health check and the availability query, so gate
// displays and drivers can poll without credentials.  Everything that
// mutates state sits behind JWT auth, and the gate operations
// additionally run through the Redis token-bucket limiter.
func Register(e *echo.Echo, d Deps) {
	// Health check for load balancers and monitoring.
	e.GET("/healthz", handler.Health)

	// Attendant registration and login live under /v1/auth and do not
	// require an existing session.
	auth := e.Group("/v1/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)

	// The availability endpoint is public and cached: it absorbs
	// polling from gate displays without touching the store each time.
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), d.Redis)
	e.GET("/v1/garages/:id/availability", d.Parking.Availability, cache)

	// Everything else requires a valid attendant token.
	v1 := e.Group("/v1", middleware.JWTAuth(d.Cfg.JWTSecret))

	// Provisioning.
	v1.POST("/garages", d.Admin.CreateGarage)
	v1.GET("/garages", d.Admin.ListGarages)
	v1.POST("/garages/:id/spots", d.Admin.CreateSpots)
	v1.GET("/garages/:id/spots", d.Admin.ListSpots)
	v1.PATCH("/garages/:id/spots/:spot", d.Admin.PatchSpot)

	// Gate operations carry the rate limiter on top of auth; a
	// misbehaving client at the gate must not starve the store.
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), d.Redis)
	v1.POST("/garages/:id/check-in", d.Parking.CheckIn, limiter)
	v1.POST("/garages/:id/check-out", d.Parking.CheckOut, limiter)

	v1.GET("/garages/:id/sessions", d.Parking.Sessions)
}
