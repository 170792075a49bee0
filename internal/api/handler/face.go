package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
	"github.com/saturnino-fabrica-de-software/ponto/internal/ws"
)

const (
	maxImageSize = 10 * 1024 * 1024 // 10MB
)

var validImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/bmp":  true,
}

// FaceService interface for the service
type FaceService interface {
	Register(ctx context.Context, name string) (*domain.Face, error)
	RegisterImage(ctx context.Context, name string, image []byte) (*domain.Face, error)
	List(ctx context.Context) ([]domain.Face, error)
	Get(ctx context.Context, id int64) (*domain.Face, error)
	Delete(ctx context.Context, id int64) error
}

// AttendanceLister reads attendance history
type AttendanceLister interface {
	List(ctx context.Context, filter domain.AttendanceFilter) ([]domain.AttendanceRecord, error)
}

// PhotoResolver maps a stored photo reference to the one to display
type PhotoResolver interface {
	Resolve(ref string) string
}

// Broadcaster pushes change notifications to live dashboards
type Broadcaster interface {
	Broadcast(eventType ws.EventType, data interface{})
}

// FaceHandler handles face-related requests
type FaceHandler struct {
	service     FaceService
	attendance  AttendanceLister
	photos      PhotoResolver
	broadcaster Broadcaster
	logger      *slog.Logger
}

// NewFaceHandler creates a new FaceHandler instance
func NewFaceHandler(service FaceService, attendance AttendanceLister, photos PhotoResolver, broadcaster Broadcaster, logger *slog.Logger) *FaceHandler {
	return &FaceHandler{
		service:     service,
		attendance:  attendance,
		photos:      photos,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// RegisterRequest is the JSON form of a camera registration
type RegisterRequest struct {
	Name string `json:"name"`
}

// FaceResponse describes one registered face
type FaceResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Photo     string `json:"photo"`
	CreatedAt string `json:"created_at"`
}

// FaceAttendanceResponse is the history of one face
type FaceAttendanceResponse struct {
	Face    FaceResponse              `json:"face"`
	Records []domain.AttendanceRecord `json:"records"`
}

func (h *FaceHandler) toResponse(face *domain.Face) FaceResponse {
	photo := face.PhotoRef()
	if h.photos != nil {
		photo = h.photos.Resolve(photo)
	}
	return FaceResponse{
		ID:        face.ID,
		Name:      face.Name,
		Photo:     photo,
		CreatedAt: face.CreatedAt.Format(time.RFC3339),
	}
}

// Register POST /v1/faces - register a face from the camera, or from an
// uploaded image when the multipart form carries one
func (h *FaceHandler) Register(c *fiber.Ctx) error {
	// 1. Extract name from form or JSON body
	name := c.FormValue("name")
	if name == "" && strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		var req RegisterRequest
		if err := c.BodyParser(&req); err != nil {
			return domain.ErrBadRequest.WithError(err)
		}
		name = req.Name
	}
	if strings.TrimSpace(name) == "" {
		return domain.ErrValidationFailed.WithError(errors.New("name is required"))
	}

	// 2. Uploaded image or camera capture
	var (
		face *domain.Face
		err  error
	)
	if _, fileErr := c.FormFile("image"); fileErr == nil {
		imageBytes, imgErr := extractAndValidateImage(c)
		if imgErr != nil {
			return fmt.Errorf("register face: %w", imgErr)
		}
		face, err = h.service.RegisterImage(c.Context(), name, imageBytes)
		if err != nil {
			return err
		}
	} else {
		face, err = h.service.Register(c.Context(), name)
		if err != nil {
			return err
		}
	}

	// 3. Notify dashboards
	resp := h.toResponse(face)
	if h.broadcaster != nil {
		h.broadcaster.Broadcast(ws.EventFaceRegistered, resp)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// List GET /v1/faces - registered faces ordered by name
func (h *FaceHandler) List(c *fiber.Ctx) error {
	faces, err := h.service.List(c.Context())
	if err != nil {
		return err
	}

	resp := make([]FaceResponse, 0, len(faces))
	for i := range faces {
		resp = append(resp, h.toResponse(&faces[i]))
	}
	return c.JSON(fiber.Map{"faces": resp})
}

// Get GET /v1/faces/:id
func (h *FaceHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	face, err := h.service.Get(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(h.toResponse(face))
}

// Attendance GET /v1/faces/:id/attendance - every record logged for the face's name
func (h *FaceHandler) Attendance(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	face, err := h.service.Get(c.Context(), id)
	if err != nil {
		return err
	}

	records, err := h.attendance.List(c.Context(), domain.AttendanceFilter{NameSubstring: face.Name})
	if err != nil {
		return err
	}

	// the store filter is a substring match, keep exact names only
	exact := make([]domain.AttendanceRecord, 0, len(records))
	for _, r := range records {
		if r.Name == face.Name {
			exact = append(exact, r)
		}
	}

	return c.JSON(FaceAttendanceResponse{Face: h.toResponse(face), Records: exact})
}

// Delete DELETE /v1/faces/:id - delete face and its photo
func (h *FaceHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		return err
	}

	if h.broadcaster != nil {
		h.broadcaster.Broadcast(ws.EventFaceDeleted, fiber.Map{"id": id})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrValidationFailed.WithError(fmt.Errorf("invalid id %q", c.Params("id")))
	}
	return id, nil
}

// extractAndValidateImage extracts and validates the image from the form
func extractAndValidateImage(c *fiber.Ctx) ([]byte, error) {
	// 1. Extract file
	file, err := c.FormFile("image")
	if err != nil {
		return nil, domain.ErrValidationFailed.WithError(err)
	}

	// 2. Validate size
	if file.Size > maxImageSize {
		return nil, domain.ErrInvalidImage.WithError(nil)
	}

	if file.Size == 0 {
		return nil, domain.ErrInvalidImage.WithError(nil)
	}

	// 3. Validate Content-Type
	contentType := file.Header.Get("Content-Type")
	if !validImageTypes[contentType] {
		return nil, domain.ErrInvalidImage.WithError(nil)
	}

	// 4. Read image bytes
	f, err := file.Open()
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	imageBytes, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	return imageBytes, nil
}
