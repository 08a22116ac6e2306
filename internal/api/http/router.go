package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/goldenticket/goldenticket/internal/api/http/handlers"
	"github.com/goldenticket/goldenticket/internal/api/ws"
	"github.com/goldenticket/goldenticket/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Gateway   *ws.Gateway
	Handshake *auth.HandshakeGuard
}

// RegisterRoutes wires HTTP routes. Everything except health probes
// runs over the single websocket endpoint.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Get("/ws", ws.UpgradeRequired, cfg.Handshake.Handle, cfg.Gateway.Handler())
}
