package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shop-portal/internal/api/http/handlers"
	"github.com/spec-kit/shop-portal/internal/auth"
	"github.com/spec-kit/shop-portal/internal/service"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Orders         *handlers.OrdersHandler
	Quotes         *handlers.QuotesHandler
	Tickets        *handlers.TicketsHandler
	OrderService   *service.OrderService
	QuoteService   *service.QuoteService
	TicketService  *service.TicketService
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	app.Post("/auth/login", cfg.Auth.Login)

	api := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	staff := auth.RequireStaff()

	orders := api.Group("/orders")
	orders.Get("/", cfg.Orders.List)
	orders.Post("/", cfg.Orders.Create)
	orders.Get("/:id", cfg.Orders.Get)
	orders.Patch("/:id", cfg.Orders.Update)
	orders.Delete("/:id", cfg.Orders.Delete)
	orders.Get("/:id/history", cfg.Orders.History)
	orders.Put("/:id/items", cfg.Orders.ReplaceItems)
	orders.Post("/:id/transition", staff, cfg.Orders.Transition)
	orders.Post("/:id/confirm", staff, cfg.Orders.Shortcut(cfg.OrderService.Confirm))
	orders.Post("/:id/start-production", staff, cfg.Orders.Shortcut(cfg.OrderService.StartProduction))
	orders.Post("/:id/ready", staff, cfg.Orders.Shortcut(cfg.OrderService.MarkReady))
	orders.Post("/:id/ship", staff, cfg.Orders.Shortcut(cfg.OrderService.Ship))
	orders.Post("/:id/deliver", staff, cfg.Orders.Shortcut(cfg.OrderService.Deliver))
	orders.Post("/:id/cancel", cfg.Orders.Shortcut(cfg.OrderService.Cancel))

	quotes := api.Group("/quotes")
	quotes.Get("/", cfg.Quotes.List)
	quotes.Post("/", cfg.Quotes.Create)
	quotes.Get("/:id", cfg.Quotes.Get)
	quotes.Patch("/:id", cfg.Quotes.Update)
	quotes.Delete("/:id", cfg.Quotes.Delete)
	quotes.Get("/:id/history", cfg.Quotes.History)
	quotes.Put("/:id/items", cfg.Quotes.ReplaceItems)
	quotes.Post("/:id/submit", cfg.Quotes.Shortcut(cfg.QuoteService.Submit))
	quotes.Post("/:id/transition", staff, cfg.Quotes.Transition)
	quotes.Post("/:id/approve", staff, cfg.Quotes.Shortcut(cfg.QuoteService.Approve))
	quotes.Post("/:id/reject", staff, cfg.Quotes.Shortcut(cfg.QuoteService.Reject))

	tickets := api.Group("/tickets")
	tickets.Get("/", cfg.Tickets.List)
	tickets.Post("/", cfg.Tickets.Create)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Patch("/:id", cfg.Tickets.Update)
	tickets.Delete("/:id", staff, cfg.Tickets.Delete)
	tickets.Get("/:id/history", cfg.Tickets.History)
	tickets.Post("/:id/messages", cfg.Tickets.AddMessage)
	tickets.Post("/:id/close", cfg.Tickets.Shortcut(cfg.TicketService.Close))
	tickets.Post("/:id/reopen", cfg.Tickets.Shortcut(cfg.TicketService.Reopen))
	tickets.Post("/:id/assign", staff, cfg.Tickets.Assign)
	tickets.Post("/:id/transition", staff, cfg.Tickets.Transition)
	tickets.Post("/:id/start", staff, cfg.Tickets.Shortcut(cfg.TicketService.Start))
	tickets.Post("/:id/await-customer", staff, cfg.Tickets.Shortcut(cfg.TicketService.AwaitCustomer))
	tickets.Post("/:id/resolve", staff, cfg.Tickets.Shortcut(cfg.TicketService.Resolve))
}
