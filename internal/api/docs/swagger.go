package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// FaceResponse represents a registered face
type FaceResponse struct {
	ID        int64  `json:"id" example:"1"`
	Name      string `json:"name" example:"Alice"`
	Photo     string `json:"photo" example:"photos/Alice.jpg"`
	CreatedAt string `json:"created_at" example:"2024-01-01T08:00:00Z"`
}

// FaceListResponse represents the employees list
type FaceListResponse struct {
	Faces []FaceResponse `json:"faces"`
}

// AttendanceRecord represents one attendance entry
type AttendanceRecord struct {
	ID        int64  `json:"id" example:"42"`
	Name      string `json:"name" example:"Alice"`
	Timestamp string `json:"timestamp" example:"2024-01-01T08:01:02-03:00"`
}

// AttendanceListResponse represents a filtered attendance listing, newest first
type AttendanceListResponse struct {
	Records []AttendanceRecord `json:"records"`
	Count   int                `json:"count" example:"1"`
}

// FaceAttendanceResponse represents the history of one face
type FaceAttendanceResponse struct {
	Face    FaceResponse       `json:"face"`
	Records []AttendanceRecord `json:"records"`
}

// AddAttendanceRequest represents a manual entry
type AddAttendanceRequest struct {
	Name      string `json:"name" example:"Alice"`
	Timestamp string `json:"timestamp,omitempty" example:"2024-01-01 08:00:00"`
}

// NameCount represents attendance totals for one name
type NameCount struct {
	Name  string `json:"name" example:"Alice"`
	Count int64  `json:"count" example:"20"`
}

// DayCount represents attendance totals for one day
type DayCount struct {
	Date  string `json:"date" example:"2024-01-01"`
	Count int64  `json:"count" example:"12"`
}

// AttendanceSummaryResponse feeds the dashboard charts
type AttendanceSummaryResponse struct {
	ByName []NameCount `json:"by_name"`
	ByDay  []DayCount  `json:"by_day"`
}

// RecognitionStatusResponse represents the recognition controller state
type RecognitionStatusResponse struct {
	State           string `json:"state" example:"running"`
	SessionID       string `json:"session_id,omitempty" example:"9b2f7c3e-4c1d-4f7a-9f55-0d6c1e2a7b10"`
	GallerySize     int    `json:"gallery_size" example:"12"`
	StartedAt       string `json:"started_at,omitempty" example:"2024-01-01T08:00:00Z"`
	FramesProcessed uint64 `json:"frames_processed" example:"1500"`
	DroppedEvents   uint64 `json:"dropped_events" example:"0"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Version string `json:"version,omitempty" example:"0.1.0"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code      string `json:"code" example:"DIMENSION_MISMATCH"`
	Message   string `json:"message" example:"Face descriptor dimension does not match the gallery"`
	Detail    string `json:"detail,omitempty" example:"descriptor has 3 values, gallery uses 128"`
	RequestID string `json:"request_id,omitempty" example:"5f2b6c1e-8a47-4a53-9f0e-2d1c7b9e4a10"`
}

// EmptyResponse represents no content response (204)
type EmptyResponse struct{}

var (
	errUnauthorized     = response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing API key"}, "401", "Unauthorized")
	errValidation       = response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity")
	errStoreUnavailable = response.New(ErrorResponse{Code: "STORE_UNAVAILABLE", Message: "Storage is unavailable"}, "503", "Service Unavailable")
	errInternal         = response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error")
)

var apiKeyAuth = []map[string][]string{{"ApiKeyAuth": {}}}

func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Ponto Attendance API",
		Version:     "v1.0.0",
		Description: "Face recognition attendance tracker: register faces, run recognition from the camera and browse the attendance log",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	endpoints := []*endpoint.EndPoint{
		// Faces endpoints

		// POST /v1/faces - Register Face
		endpoint.New(
			endpoint.POST,
			"/faces",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Register a new face"),
			endpoint.WithDescription("Registers the first face found under `name`. Without an `image` file the frame is captured from the camera; a running recognition session is stopped first."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data"), mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(FaceResponse{}, "201", "Face registered successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "DEVICE_BUSY", Message: "Camera is in use by another operation"}, "409", "Conflict"),
				response.New(ErrorResponse{Code: "FACE_BIOMETRIC_EXISTS", Message: "This face is already registered with another identity"}, "409", "Conflict"),
				response.New(ErrorResponse{Code: "FACE_NAME_EXISTS", Message: "A face is already registered under this name"}, "409", "Conflict"),
				response.New(ErrorResponse{Code: "NO_FACE_DETECTED", Message: "No face detected in the image"}, "422", "Unprocessable Entity"),
				errValidation,
				response.New(ErrorResponse{Code: "DEVICE_UNAVAILABLE", Message: "Camera device cannot be opened"}, "503", "Service Unavailable"),
				errInternal,
			}),
			endpoint.WithSecurity(apiKeyAuth),
		),

		// GET /v1/faces - List Faces
		endpoint.New(
			endpoint.GET,
			"/faces",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("List registered faces"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(FaceListResponse{}, "200", "Faces ordered by name"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errStoreUnavailable}),
			endpoint.WithSecurity(apiKeyAuth),
		),

		// GET /v1/faces/:id - Get Face
		endpoint.New(
			endpoint.GET,
			"/faces/{id}",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Get a registered face"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.IntParam("id", parameter.Path, parameter.WithDescription("Face id")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(FaceResponse{}, "200", "Face retrieved successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "FACE_NOT_FOUND", Message: "Face not found"}, "404", "Not Found"),
			}),
			endpoint.WithSecurity(apiKeyAuth),
		),

		// GET /v1/faces/:id/attendance - Face History
		endpoint.New(
			endpoint.GET,
			"/faces/{id}/attendance",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Attendance history of a face"),
			endpoint.WithDescription("Every record logged under the face's name, newest first"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.IntParam("id", parameter.Path, parameter.WithDescription("Face id")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(FaceAttendanceResponse{}, "200", "History retrieved successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "FACE_NOT_FOUND", Message: "Face not found"}, "404", "Not Found"),
			}),
			endpoint.WithSecurity(apiKeyAuth),
		),

		// DELETE /v1/faces/:id - Delete Face
		endpoint.New(
			endpoint.DELETE,
			"/faces/{id}",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Delete a registered face"),
			endpoint.WithDescription("Deletes the face and its photo. Attendance records are kept."),
			endpoint.WithParams(
				parameter.IntParam("id", parameter.Path, parameter.WithDescription("Face id")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Face deleted successfully"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "FACE_NOT_FOUND", Message: "Face not found"}, "404", "Not Found"),
			}),
			endpoint.WithSecurity(apiKeyAuth),
		),

		// Recognition endpoints

		// POST /v1/recognition/start
		endpoint.New(
			endpoint.POST,
			"/recognition/start",
			endpoint.WithTags("Recognition"),
			endpoint.WithSummary("Start recognition"),
			endpoint.WithDescription("Loads the gallery, opens the camera and starts logging attendance"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RecognitionStatusResponse{}, "202", "Recognition running"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "NO_REGISTERED_FACES", Message: "No faces registered, register faces first"}, "409", "Conflict"),
				response.New(ErrorResponse{Code: "RECOGNITION_RUNNING", Message: "Recognition is already running"}, "409", "Conflict"),
				response.New(ErrorResponse{Code: "DEVICE_UNAVAILABLE", Message: "Camera device cannot be opened"}, "503", "Service Unavailable"),
			}),
			endpoint.WithSecurity(apiKeyAuth),
		),

		// POST /v1/recognition/stop
		endpoint.New(
			endpoint.POST,
			"/recognition/stop",
			endpoint.WithTags("Recognition"),
			endpoint.WithSummary("Stop recognition"),
			endpoint.WithDescription("Stops the worker and releases the camera. A no-op while idle."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RecognitionStatusResponse{}, "200", "Recognition idle"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized}),
			endpoint.WithSecurity(apiKeyAuth),
		),

		// POST /v1/recognition/toggle
		endpoint.New(
			endpoint.POST,
			"/recognition/toggle",
			endpoint.WithTags("Recognition"),
			endpoint.WithSummary("Toggle recognition"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RecognitionStatusResponse{}, "200", "New recognition state"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized}),
			endpoint.WithSecurity(apiKeyAuth),
		),

		// GET /v1/recognition/status
		endpoint.New(
			endpoint.GET,
			"/recognition/status",
			endpoint.WithTags("Recognition"),
			endpoint.WithSummary("Recognition status"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RecognitionStatusResponse{}, "200", "Current state"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized}),
			endpoint.WithSecurity(apiKeyAuth),
		),

		// Attendance endpoints

		// GET /v1/attendance
		endpoint.New(
			endpoint.GET,
			"/attendance",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("List attendance"),
			endpoint.WithDescription("Records newest first, optionally restricted to one calendar day and a case-insensitive name substring"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("date", parameter.Query, parameter.WithDescription("Day in YYYY-MM-DD, server local time")),
				parameter.StrParam("name", parameter.Query, parameter.WithDescription("Name substring")),
				parameter.IntParam("limit", parameter.Query, parameter.WithDescription("Maximum number of records (max: 1000)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AttendanceListResponse{}, "200", "Attendance records"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errValidation, errStoreUnavailable}),
			endpoint.WithSecurity(apiKeyAuth),
		),

		// POST /v1/attendance
		endpoint.New(
			endpoint.POST,
			"/attendance",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("Add a manual entry"),
			endpoint.WithDescription("Body: {\"name\": \"Alice\", \"timestamp\": \"YYYY-MM-DD HH:MM:SS\"}. Manual entries are not deduplicated."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AttendanceRecord{}, "201", "Entry created"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errValidation, errStoreUnavailable}),
			endpoint.WithSecurity(apiKeyAuth),
		),

		// DELETE /v1/attendance/:id
		endpoint.New(
			endpoint.DELETE,
			"/attendance/{id}",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("Delete an attendance record"),
			endpoint.WithParams(
				parameter.IntParam("id", parameter.Path, parameter.WithDescription("Record id")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Record deleted"),
			}),
			endpoint.WithErrors([]response.Response{
				errUnauthorized,
				response.New(ErrorResponse{Code: "ATTENDANCE_NOT_FOUND", Message: "Attendance record not found"}, "404", "Not Found"),
			}),
			endpoint.WithSecurity(apiKeyAuth),
		),

		// GET /v1/attendance/summary
		endpoint.New(
			endpoint.GET,
			"/attendance/summary",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("Attendance totals"),
			endpoint.WithDescription("Counts per name (most frequent first) and per day"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AttendanceSummaryResponse{}, "200", "Totals"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errStoreUnavailable}),
			endpoint.WithSecurity(apiKeyAuth),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
