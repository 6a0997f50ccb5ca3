package config

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/martapons/campustour-be/internal/delivery/http/handler"
	"github.com/martapons/campustour-be/internal/delivery/http/middleware"
	"github.com/martapons/campustour-be/internal/delivery/http/repository"
	"github.com/martapons/campustour-be/internal/delivery/http/route"
	"github.com/martapons/campustour-be/internal/delivery/http/usecase"
	"github.com/martapons/campustour-be/internal/pkg/llm"
	"github.com/martapons/campustour-be/internal/pkg/validate"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

type BootstrapConfig struct {
	Api       *fiber.App
	Config    *viper.Viper
	DB        *gorm.DB
	Log       *logrus.Logger
	Validator *validate.Validator
}

func Bootstrap(config *BootstrapConfig) {

	mid := middleware.NewMiddleware(&middleware.MiddlewareConfig{
		Log:    config.Log,
		Config: config.Config,
	})

	maxTurns := config.Config.GetInt("game.max_turns")
	if maxTurns <= 0 {
		maxTurns = 10
	}
	advanceDelay := config.Config.GetInt("game.advance_delay_ms")
	if advanceDelay <= 0 {
		advanceDelay = 1500
	}
	campus := config.Config.GetString("game.campus")
	if campus == "" {
		campus = "Universitat Politècnica de València"
	}

	locationRepo := repository.NewLocationRepository(config.DB)
	locations, err := locationRepo.FindAllOrdered(config.DB)
	if err != nil {
		config.Log.Fatalf("Failed to load campus catalog: %v", err)
	}

	gemini, err := llm.NewGeminiService(context.Background(), llm.GeminiConfig{
		APIKey:            config.Config.GetString("llm.gemini.api_key"),
		Model:             config.Config.GetString("llm.gemini.model"),
		SystemInstruction: usecase.BuildTourInstruction(campus, maxTurns, locations),
	})
	if err != nil {
		config.Log.Fatalf("Failed to create content service: %v", err)
	}

	gameUsecase := usecase.NewGameUsecase(usecase.GameConfig{
		DB:           config.DB,
		Service:      gemini,
		Repository:   locationRepo,
		Log:          config.Log,
		MaxTurns:     maxTurns,
		AdvanceDelay: time.Duration(advanceDelay) * time.Millisecond,
	})
	gameHandler := handler.NewGameHandler(config.Validator, config.Log, gameUsecase)

	route.Setup(&route.RouteConfig{
		Api:         config.Api,
		Middleware:  mid,
		GameHandler: gameHandler,
	})

}
