package route

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/martapons/campustour-be/internal/delivery/http/handler"
	"github.com/martapons/campustour-be/internal/delivery/http/middleware"
)

type RouteConfig struct {
	Api         *fiber.App
	Middleware  *middleware.Middleware
	GameHandler handler.GameHandler
}

func Setup(c *RouteConfig) {
	c.Api.Use(recover.New())
	c.Api.Use(logger.New(logger.Config{
		Format: "[${ip}]:${port} ${status} - ${method} ${path}\n",
	}))
	c.Api.Use(c.Middleware.CorsMiddleware())

	SetupGameRoute(c.Api, c.GameHandler, c.Middleware)
}
