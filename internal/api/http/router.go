package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/helpdesk-ml/helpdesk/internal/api/http/handlers"
	"github.com/helpdesk-ml/helpdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Technician     *handlers.TechnicianHandler
	Admin          *handlers.AdminHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.AuthMiddleware
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	authenticated := cfg.AuthMiddleware.Handle

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", authenticated, auth.RequireAnyRole(), cfg.Auth.Logout)
	authGroup.Post("/password/change", authenticated, auth.RequireAnyRole(), cfg.Auth.ChangePassword)

	me := app.Group("/me", authenticated, auth.RequireAnyRole())
	me.Get("/notifications", cfg.Notifications.List)
	me.Post("/notifications/:id/read", cfg.Notifications.MarkRead)

	tickets := app.Group("/tickets", authenticated, auth.RequireUser())
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)

	tech := app.Group("/technician", authenticated, auth.RequireTechnician())
	tech.Get("/tickets", cfg.Technician.Queue)
	tech.Get("/tickets/:id", cfg.Tickets.GetTicket)
	tech.Put("/tickets/:id/status", cfg.Technician.UpdateStatus)
	tech.Get("/stats", cfg.Technician.Stats)
	tech.Get("/stream", cfg.Technician.Stream)

	admin := app.Group("/admin", authenticated, auth.RequireAdmin())
	admin.Get("/dashboard", cfg.Admin.Dashboard)
	admin.Get("/tickets", cfg.Admin.ListTickets)
	admin.Get("/tickets/flagged", cfg.Admin.Flagged)
	admin.Get("/tickets/:id", cfg.Tickets.GetTicket)
	admin.Get("/tickets/:id/suggestions", cfg.Admin.Suggestions)
	admin.Post("/tickets/:id/assign", cfg.Admin.Assign)
	admin.Post("/tickets/:id/close", cfg.Admin.Close)
	admin.Get("/technicians", cfg.Admin.Technicians)
	admin.Post("/technicians", cfg.Admin.CreateTechnician)
	admin.Post("/technicians/reconcile", cfg.Admin.ReconcileWorkload)
	admin.Get("/logs", cfg.Admin.Logs)
	admin.Get("/reports/tickets.xlsx", cfg.Admin.Report)
}
