package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/martapons/campustour-be/internal/delivery/http/domain"
	"github.com/martapons/campustour-be/internal/delivery/http/entity"
	"github.com/martapons/campustour-be/internal/delivery/http/usecase"
	"github.com/martapons/campustour-be/internal/pkg/response"
	"github.com/martapons/campustour-be/internal/pkg/validate"
	"github.com/sirupsen/logrus"
)

type (
	GameHandler interface {
		StartGame(ctx *fiber.Ctx) error
		GetState(ctx *fiber.Ctx) error
		SubmitReflection(ctx *fiber.Ctx) error
		SubmitAnswer(ctx *fiber.Ctx) error
		GetHistory(ctx *fiber.Ctx) error
		ListLocations(ctx *fiber.Ctx) error
		GetLocation(ctx *fiber.Ctx) error
	}

	gameHandler struct {
		validator *validate.Validator
		logger    *logrus.Logger
		usecase   usecase.GameUsecase
	}
)

func NewGameHandler(validator *validate.Validator, logger *logrus.Logger, usecase usecase.GameUsecase) GameHandler {
	return &gameHandler{
		validator: validator,
		logger:    logger,
		usecase:   usecase,
	}
}

// POST /game/sessions
func (h *gameHandler) StartGame(ctx *fiber.Ctx) error {
	var req entity.StartGameRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return response.NewFailed(domain.GAME_START_FAILED, fiber.NewError(fiber.StatusBadRequest, err.Error()), h.logger).Send(ctx)
		}
	}

	state, err := h.usecase.StartGame(ctx.UserContext(), req)
	if err != nil {
		return response.NewFailed(domain.GAME_START_FAILED, fiber.NewError(fiber.StatusBadRequest, err.Error()), h.logger).Send(ctx)
	}

	if state.Status == entity.StatusFailed {
		return response.NewFailed(domain.GAME_START_FAILED, fiber.NewError(fiber.StatusBadGateway, "content service unavailable"), h.logger).Send(ctx)
	}

	return response.NewSuccess(domain.GAME_START_SUCCESS, state, nil).Send(ctx)
}

// GET /game/sessions/:session_id
func (h *gameHandler) GetState(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("session_id")
	if sessionID == "" {
		return response.NewFailed(domain.GAME_STATE_FAILED, fiber.NewError(fiber.StatusBadRequest, "session_id is required"), h.logger).Send(ctx)
	}

	state, err := h.usecase.GetState(ctx.UserContext(), sessionID)
	if err != nil {
		return h.sendGameError(ctx, domain.GAME_STATE_FAILED, err)
	}

	return response.NewSuccess(domain.GAME_STATE_SUCCESS, state, nil).Send(ctx)
}

// POST /game/sessions/:session_id/reflection
func (h *gameHandler) SubmitReflection(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("session_id")
	if sessionID == "" {
		return response.NewFailed(domain.GAME_REFLECTION_FAILED, fiber.NewError(fiber.StatusBadRequest, "session_id is required"), h.logger).Send(ctx)
	}

	var req entity.SubmitReflectionRequest
	if err := h.validator.ParseAndValidate(ctx, &req); err != nil {
		return response.NewFailed(domain.GAME_REFLECTION_FAILED, err, h.logger).Send(ctx)
	}

	state, err := h.usecase.SubmitReflection(ctx.UserContext(), sessionID, req.Text)
	if err != nil {
		return h.sendGameError(ctx, domain.GAME_REFLECTION_FAILED, err)
	}

	return response.NewSuccess(domain.GAME_REFLECTION_SUCCESS, state, nil).Send(ctx)
}

// POST /game/sessions/:session_id/answer
func (h *gameHandler) SubmitAnswer(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("session_id")
	if sessionID == "" {
		return response.NewFailed(domain.GAME_ANSWER_FAILED, fiber.NewError(fiber.StatusBadRequest, "session_id is required"), h.logger).Send(ctx)
	}

	var req entity.SubmitAnswerRequest
	if err := h.validator.ParseAndValidate(ctx, &req); err != nil {
		return response.NewFailed(domain.GAME_ANSWER_FAILED, err, h.logger).Send(ctx)
	}

	result, err := h.usecase.SubmitAnswer(ctx.UserContext(), sessionID, req.Choice)
	if err != nil {
		return h.sendGameError(ctx, domain.GAME_ANSWER_FAILED, err)
	}

	return response.NewSuccess(domain.GAME_ANSWER_SUCCESS, result, nil).Send(ctx)
}

// GET /game/sessions/:session_id/history
func (h *gameHandler) GetHistory(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("session_id")
	if sessionID == "" {
		return response.NewFailed(domain.GAME_HISTORY_FAILED, fiber.NewError(fiber.StatusBadRequest, "session_id is required"), h.logger).Send(ctx)
	}

	history, err := h.usecase.GetHistory(ctx.UserContext(), sessionID)
	if err != nil {
		return h.sendGameError(ctx, domain.GAME_HISTORY_FAILED, err)
	}

	return response.NewSuccess(domain.GAME_HISTORY_SUCCESS, history, nil).Send(ctx)
}

// GET /locations
func (h *gameHandler) ListLocations(ctx *fiber.Ctx) error {
	locations, err := h.usecase.ListLocations(ctx.UserContext())
	if err != nil {
		return response.NewFailed(domain.LOCATION_LIST_FAILED, fiber.NewError(fiber.StatusInternalServerError, err.Error()), h.logger).Send(ctx)
	}

	return response.NewSuccess(domain.LOCATION_LIST_SUCCESS, locations, nil).Send(ctx)
}

// GET /locations/:slug
func (h *gameHandler) GetLocation(ctx *fiber.Ctx) error {
	slug := ctx.Params("slug")
	if slug == "" {
		return response.NewFailed(domain.LOCATION_DETAIL_FAILED, fiber.NewError(fiber.StatusBadRequest, "slug is required"), h.logger).Send(ctx)
	}

	location, err := h.usecase.GetLocation(ctx.UserContext(), slug)
	if err != nil {
		if errors.Is(err, usecase.ErrLocationNotFound) {
			return response.NewFailed(domain.LOCATION_DETAIL_FAILED, fiber.NewError(fiber.StatusNotFound, err.Error()), h.logger).Send(ctx)
		}
		return response.NewFailed(domain.LOCATION_DETAIL_FAILED, fiber.NewError(fiber.StatusInternalServerError, err.Error()), h.logger).Send(ctx)
	}

	return response.NewSuccess(domain.LOCATION_DETAIL_SUCCESS, location, nil).Send(ctx)
}

func (h *gameHandler) sendGameError(ctx *fiber.Ctx, msg string, err error) error {
	code := fiber.StatusBadRequest
	switch {
	case errors.Is(err, usecase.ErrSessionNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, usecase.ErrSessionBusy):
		code = fiber.StatusConflict
	case errors.Is(err, usecase.ErrEmptyReflection):
		code = fiber.StatusUnprocessableEntity
	}
	return response.NewFailed(msg, fiber.NewError(code, err.Error()), h.logger).Send(ctx)
}
