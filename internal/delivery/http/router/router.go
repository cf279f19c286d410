// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"puffsocial/internal/delivery/http/middleware"
	"puffsocial/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	TelemetryHandler *handler.TelemetryHandler
	DeviceHandler    *handler.DeviceHandler
	AuthHandler      *handler.AuthHandler
	UserHandler      *handler.UserHandler
	AuthMiddleware   *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	telemetryHandler *handler.TelemetryHandler
	deviceHandler    *handler.DeviceHandler
	authHandler      *handler.AuthHandler
	userHandler      *handler.UserHandler
	authMiddleware   *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		telemetryHandler: params.TelemetryHandler,
		deviceHandler:    params.DeviceHandler,
		authHandler:      params.AuthHandler,
		userHandler:      params.UserHandler,
		authMiddleware:   params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.HealthCheck)

	v1 := e.Group("/v1")
	{
		// Signed telemetry from firmware. Tracking resolves the reporter
		// when a token is supplied but never requires one.
		v1.POST("/track", r.telemetryHandler.Track, r.authMiddleware.Optional)
		v1.POST("/diag", r.telemetryHandler.Diag)
		v1.POST("/feedback", r.telemetryHandler.Feedback)

		// Public device lookups.
		v1.GET("/leaderboard", r.deviceHandler.Leaderboard)
		v1.GET("/device/:device_mac", r.deviceHandler.GetDevice)
		v1.GET("/fw/peak/:serial", r.deviceHandler.LatestFirmware)

		// Authentication flows.
		v1.POST("/auth", r.authHandler.Login)
		v1.POST("/auth/create", r.authHandler.Register)
		v1.POST("/auth/puffco", r.authHandler.LoginPuffco)
		v1.GET("/oauth/:platform", r.authHandler.OAuthStart)
		v1.POST("/oauth/:platform", r.authHandler.OAuthCallback)
		v1.GET("/verify", r.authHandler.Verify, r.authMiddleware.Optional)

		// Authenticated profile routes.
		v1.GET("/user", r.userHandler.GetCurrent, r.authMiddleware.Required)
		v1.PATCH("/user", r.userHandler.UpdateProfile, r.authMiddleware.Required)

		// Admin listings.
		v1.GET("/users", r.userHandler.ListUsers, r.authMiddleware.Required, r.authMiddleware.Admin)
		v1.GET("/devices", r.deviceHandler.ListDevices, r.authMiddleware.Required, r.authMiddleware.Admin)
	}
}
