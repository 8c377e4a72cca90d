package users

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
)

// NewServer builds a fiber backed HTTP adapter with the lifecycle routes
// mounted. Callers that embed the routes in an existing app can skip this
// and call RegisterRoutes on their own router.
func NewServer(controller *HTTPController, opts ...func(*fiber.Config)) router.Server[*fiber.App] {
	cfg := fiber.Config{
		UnescapePath:  true,
		StrictRouting: false,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(cfg))
	})

	controller.RegisterRoutes(srv.Router())

	return srv
}
