package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
)

const maxListLimit = 1000

// AttendanceService interface for the attendance log
type AttendanceService interface {
	List(ctx context.Context, filter domain.AttendanceFilter) ([]domain.AttendanceRecord, error)
	Add(ctx context.Context, name string, ts time.Time) (*domain.AttendanceRecord, error)
	Delete(ctx context.Context, id int64) error
	Summary(ctx context.Context) (*domain.AttendanceSummary, error)
}

type AttendanceHandler struct {
	service AttendanceService
	logger  *slog.Logger
}

func NewAttendanceHandler(service AttendanceService, logger *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		service: service,
		logger:  logger,
	}
}

// AddAttendanceRequest is a manual entry. Timestamp is "YYYY-MM-DD HH:MM:SS"
// in local time or RFC 3339; empty means now.
type AddAttendanceRequest struct {
	Name      string `json:"name"`
	Timestamp string `json:"timestamp,omitempty"`
}

type AttendanceListResponse struct {
	Records []domain.AttendanceRecord `json:"records"`
	Count   int                       `json:"count"`
}

// List GET /v1/attendance?date=YYYY-MM-DD&name=sub&limit=n - newest first
func (h *AttendanceHandler) List(c *fiber.Ctx) error {
	// 1. Parse filters
	filter, err := parseAttendanceFilter(c)
	if err != nil {
		return err
	}

	// 2. Query
	records, err := h.service.List(c.Context(), filter)
	if err != nil {
		return err
	}
	if records == nil {
		records = []domain.AttendanceRecord{}
	}

	return c.JSON(AttendanceListResponse{Records: records, Count: len(records)})
}

// Add POST /v1/attendance - manual entry
func (h *AttendanceHandler) Add(c *fiber.Ctx) error {
	var req AddAttendanceRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	ts, err := parseTimestamp(req.Timestamp)
	if err != nil {
		return err
	}

	record, err := h.service.Add(c.Context(), req.Name, ts)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(record)
}

// Delete DELETE /v1/attendance/:id
func (h *AttendanceHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Summary GET /v1/attendance/summary - counts per name and per day
func (h *AttendanceHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.service.Summary(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

func parseAttendanceFilter(c *fiber.Ctx) (domain.AttendanceFilter, error) {
	var filter domain.AttendanceFilter

	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		date, err := time.ParseInLocation(domain.DateLayout, raw, time.Local)
		if err != nil {
			return filter, domain.ErrValidationFailed.WithError(fmt.Errorf("date must be YYYY-MM-DD: %w", err))
		}
		filter.Date = &date
	}

	filter.NameSubstring = strings.TrimSpace(c.Query("name"))

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return filter, domain.ErrValidationFailed.WithError(errors.New("limit must be a non-negative integer"))
		}
		if limit > maxListLimit {
			limit = maxListLimit
		}
		filter.Limit = limit
	}

	return filter, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if ts, err := time.ParseInLocation(domain.TimestampLayout, raw, time.Local); err == nil {
		return ts, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, domain.ErrValidationFailed.WithError(fmt.Errorf("timestamp %q: expected YYYY-MM-DD HH:MM:SS or RFC 3339", raw))
	}
	return ts, nil
}
