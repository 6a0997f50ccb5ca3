package route

import (
	"github.com/gofiber/fiber/v2"
	"github.com/martapons/campustour-be/internal/delivery/http/handler"
	"github.com/martapons/campustour-be/internal/delivery/http/middleware"
)

func SetupGameRoute(api *fiber.App, handler handler.GameHandler, m *middleware.Middleware) {
	gameRouter := api.Group("/game")
	{
		gameRouter.Post("/sessions", handler.StartGame)
		gameRouter.Get("/sessions/:session_id", handler.GetState)
		gameRouter.Post("/sessions/:session_id/reflection", handler.SubmitReflection)
		gameRouter.Post("/sessions/:session_id/answer", handler.SubmitAnswer)
		gameRouter.Get("/sessions/:session_id/history", handler.GetHistory)
	}

	locationRouter := api.Group("/locations")
	{
		locationRouter.Get("/", handler.ListLocations)
		locationRouter.Get("/:slug", handler.GetLocation)
	}
}
