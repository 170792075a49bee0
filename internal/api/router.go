package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/ponto/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/ponto/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/ponto/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/ponto/internal/ws"
)

// AttendanceLog is what the attendance routes and the face history need
type AttendanceLog interface {
	handler.AttendanceService
	handler.AttendanceLister
}

type Dependencies struct {
	Faces       handler.FaceService
	Attendance  AttendanceLog
	Recognition handler.RecognitionController
	Photos      handler.PhotoResolver
	Store       handler.Pinger
	Hub         *ws.Hub
	APIKeyHash  string
	PhotosDir   string
}

type Router struct {
	app    *fiber.App
	logger *slog.Logger
	deps   *Dependencies
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Ponto API",
		BodyLimit:    10 * 1024 * 1024,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Swagger documentation (no auth required)
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	var store handler.Pinger
	if r.deps != nil {
		store = r.deps.Store
	}

	// Health check endpoints (no auth required)
	healthHandler := handler.NewHealthHandler(store, r.logger)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps == nil {
		return
	}

	// Registered photos, served to the dashboard
	if r.deps.PhotosDir != "" {
		r.app.Static("/photos", r.deps.PhotosDir)
	}

	v1 := r.app.Group("/v1")
	v1.Use(middleware.Auth(r.deps.APIKeyHash))

	var broadcaster handler.Broadcaster
	if r.deps.Hub != nil {
		broadcaster = r.deps.Hub
	}

	// Face routes
	faceHandler := handler.NewFaceHandler(r.deps.Faces, r.deps.Attendance, r.deps.Photos, broadcaster, r.logger)
	v1.Post("/faces", faceHandler.Register)
	v1.Get("/faces", faceHandler.List)
	v1.Get("/faces/:id", faceHandler.Get)
	v1.Get("/faces/:id/attendance", faceHandler.Attendance)
	v1.Delete("/faces/:id", faceHandler.Delete)

	// Recognition routes
	recognitionHandler := handler.NewRecognitionHandler(r.deps.Recognition, r.logger)
	v1.Post("/recognition/start", recognitionHandler.Start)
	v1.Post("/recognition/stop", recognitionHandler.Stop)
	v1.Post("/recognition/toggle", recognitionHandler.Toggle)
	v1.Get("/recognition/status", recognitionHandler.Status)

	// Attendance routes
	attendanceHandler := handler.NewAttendanceHandler(r.deps.Attendance, r.logger)
	v1.Get("/attendance", attendanceHandler.List)
	v1.Post("/attendance", attendanceHandler.Add)
	v1.Get("/attendance/summary", attendanceHandler.Summary)
	v1.Delete("/attendance/:id", attendanceHandler.Delete)

	// WebSocket endpoint
	if r.deps.Hub != nil {
		v1.Get("/ws", ws.UpgradeMiddleware(), ws.Handler(r.deps.Hub))
	}
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

// Shutdown stops accepting requests. Background workers are owned by the caller.
func (r *Router) Shutdown() error {
	return r.app.Shutdown()
}
