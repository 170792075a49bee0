package handler

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/ponto/internal/recognition"
)

// RecognitionController interface for the recognition cycle
type RecognitionController interface {
	Start(ctx context.Context) error
	Stop() error
	Toggle(ctx context.Context) (recognition.State, error)
	Status() recognition.Status
}

type RecognitionHandler struct {
	controller RecognitionController
	logger     *slog.Logger
}

func NewRecognitionHandler(controller RecognitionController, logger *slog.Logger) *RecognitionHandler {
	return &RecognitionHandler{
		controller: controller,
		logger:     logger,
	}
}

// Start POST /v1/recognition/start
func (h *RecognitionHandler) Start(c *fiber.Ctx) error {
	if err := h.controller.Start(c.Context()); err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(h.controller.Status())
}

// Stop POST /v1/recognition/stop - returns once the worker has finished
func (h *RecognitionHandler) Stop(c *fiber.Ctx) error {
	if err := h.controller.Stop(); err != nil {
		return err
	}
	return c.JSON(h.controller.Status())
}

// Toggle POST /v1/recognition/toggle - the single start/stop button
func (h *RecognitionHandler) Toggle(c *fiber.Ctx) error {
	if _, err := h.controller.Toggle(c.Context()); err != nil {
		return err
	}
	return c.JSON(h.controller.Status())
}

// Status GET /v1/recognition/status
func (h *RecognitionHandler) Status(c *fiber.Ctx) error {
	return c.JSON(h.controller.Status())
}
