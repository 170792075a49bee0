package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
	"github.com/saturnino-fabrica-de-software/ponto/internal/ws"
)

// MockFaceService is a mock implementation of FaceService
type MockFaceService struct {
	mock.Mock
}

func (m *MockFaceService) Register(ctx context.Context, name string) (*domain.Face, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Face), args.Error(1)
}

func (m *MockFaceService) RegisterImage(ctx context.Context, name string, image []byte) (*domain.Face, error) {
	args := m.Called(ctx, name, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Face), args.Error(1)
}

func (m *MockFaceService) List(ctx context.Context) ([]domain.Face, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Face), args.Error(1)
}

func (m *MockFaceService) Get(ctx context.Context, id int64) (*domain.Face, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Face), args.Error(1)
}

func (m *MockFaceService) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockAttendanceService is a mock implementation of AttendanceService
type MockAttendanceService struct {
	mock.Mock
}

func (m *MockAttendanceService) List(ctx context.Context, filter domain.AttendanceFilter) ([]domain.AttendanceRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AttendanceRecord), args.Error(1)
}

func (m *MockAttendanceService) Add(ctx context.Context, name string, ts time.Time) (*domain.AttendanceRecord, error) {
	args := m.Called(ctx, name, ts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AttendanceRecord), args.Error(1)
}

func (m *MockAttendanceService) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAttendanceService) Summary(ctx context.Context) (*domain.AttendanceSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AttendanceSummary), args.Error(1)
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []ws.EventType
}

func (b *recordingBroadcaster) Broadcast(eventType ws.EventType, data interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, eventType)
}

type defaultPhotos struct{}

func (defaultPhotos) Resolve(ref string) string {
	if ref == "" {
		return "static/default.jpg"
	}
	return ref
}

// testLogger returns a logger that discards all output
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Helper to create multipart request
func createMultipartRequest(name string, imageContent []byte, contentType string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if name != "" {
		_ = writer.WriteField("name", name)
	}

	if imageContent != nil {
		// Create part with custom Content-Type header
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="test.jpg"`)
		h.Set("Content-Type", contentType)

		part, err := writer.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		_, _ = part.Write(imageContent)
	}

	_ = writer.Close()
	return body, writer.FormDataContentType(), nil
}

// Helper to create test app that renders AppErrors
func createTestApp() *fiber.App {
	app := fiber.New()

	// Error handler
	app.Use(func(c *fiber.Ctx) error {
		err := c.Next()
		if err != nil {
			var appErr *domain.AppError
			if errors.As(err, &appErr) {
				return c.Status(appErr.StatusCode).JSON(appErr)
			}
			return c.Status(500).SendString(err.Error())
		}
		return nil
	})

	return app
}

func photoPtr(s string) *string { return &s }

func TestFaceHandler_Register(t *testing.T) {
	createdAt := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	alice := &domain.Face{ID: 1, Name: "Alice", PhotoPath: photoPtr("photos/Alice.jpg"), CreatedAt: createdAt}

	tests := []struct {
		name           string
		personName     string
		imageContent   []byte
		contentType    string
		jsonBody       string
		setupMock      func(*MockFaceService)
		expectedStatus int
		wantBroadcast  bool
		checkResponse  func(t *testing.T, body []byte)
	}{
		{
			name:       "camera registration from form",
			personName: "Alice",
			setupMock: func(m *MockFaceService) {
				m.On("Register", mock.Anything, "Alice").Return(alice, nil)
			},
			expectedStatus: 201,
			wantBroadcast:  true,
			checkResponse: func(t *testing.T, body []byte) {
				var resp FaceResponse
				err := json.Unmarshal(body, &resp)
				assert.NoError(t, err)
				assert.Equal(t, int64(1), resp.ID)
				assert.Equal(t, "Alice", resp.Name)
				assert.Equal(t, "photos/Alice.jpg", resp.Photo)
				assert.Equal(t, "2026-03-02T09:00:00Z", resp.CreatedAt)
			},
		},
		{
			name:     "camera registration from JSON",
			jsonBody: `{"name":"Alice"}`,
			setupMock: func(m *MockFaceService) {
				m.On("Register", mock.Anything, "Alice").Return(alice, nil)
			},
			expectedStatus: 201,
			wantBroadcast:  true,
		},
		{
			name:         "uploaded image",
			personName:   "Alice",
			imageContent: []byte("jpeg-bytes"),
			contentType:  "image/jpeg",
			setupMock: func(m *MockFaceService) {
				m.On("RegisterImage", mock.Anything, "Alice", []byte("jpeg-bytes")).Return(alice, nil)
			},
			expectedStatus: 201,
			wantBroadcast:  true,
		},
		{
			name:           "uploaded file with unsupported type",
			personName:     "Alice",
			imageContent:   []byte("%PDF"),
			contentType:    "application/pdf",
			setupMock:      func(m *MockFaceService) {},
			expectedStatus: 422,
		},
		{
			name:           "missing name",
			setupMock:      func(m *MockFaceService) {},
			expectedStatus: 422,
		},
		{
			name:       "no face detected",
			personName: "Alice",
			setupMock: func(m *MockFaceService) {
				m.On("Register", mock.Anything, "Alice").Return(nil, domain.ErrNoFaceDetected)
			},
			expectedStatus: 422,
		},
		{
			name:       "already registered with another identity",
			personName: "Alice",
			setupMock: func(m *MockFaceService) {
				m.On("Register", mock.Anything, "Alice").Return(nil, domain.ErrFaceBiometricExists)
			},
			expectedStatus: 409,
		},
		{
			name:       "camera busy",
			personName: "Alice",
			setupMock: func(m *MockFaceService) {
				m.On("Register", mock.Anything, "Alice").Return(nil, domain.ErrDeviceBusy)
			},
			expectedStatus: 409,
		},
		{
			name:       "camera unavailable",
			personName: "Alice",
			setupMock: func(m *MockFaceService) {
				m.On("Register", mock.Anything, "Alice").Return(nil, domain.ErrDeviceUnavailable)
			},
			expectedStatus: 503,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockFaceService{}
			tt.setupMock(mockService)
			broadcaster := &recordingBroadcaster{}

			handler := NewFaceHandler(mockService, &MockAttendanceService{}, defaultPhotos{}, broadcaster, testLogger())
			app := createTestApp()
			app.Post("/v1/faces", handler.Register)

			var req = httptest.NewRequest("POST", "/v1/faces", strings.NewReader(tt.jsonBody))
			if tt.jsonBody != "" {
				req.Header.Set("Content-Type", "application/json")
			} else {
				body, contentType, _ := createMultipartRequest(tt.personName, tt.imageContent, tt.contentType)
				req = httptest.NewRequest("POST", "/v1/faces", body)
				req.Header.Set("Content-Type", contentType)
			}

			resp, err := app.Test(req)
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.checkResponse != nil {
				respBody, _ := io.ReadAll(resp.Body)
				tt.checkResponse(t, respBody)
			}

			if tt.wantBroadcast {
				assert.Equal(t, []ws.EventType{ws.EventFaceRegistered}, broadcaster.events)
			} else {
				assert.Empty(t, broadcaster.events)
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestFaceHandler_List(t *testing.T) {
	mockService := &MockFaceService{}
	mockService.On("List", mock.Anything).Return([]domain.Face{
		{ID: 2, Name: "Alice", PhotoPath: photoPtr("photos/Alice.jpg")},
		{ID: 1, Name: "Bob"},
	}, nil)

	handler := NewFaceHandler(mockService, &MockAttendanceService{}, defaultPhotos{}, nil, testLogger())
	app := createTestApp()
	app.Get("/v1/faces", handler.List)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/faces", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body struct {
		Faces []FaceResponse `json:"faces"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Faces, 2)
	assert.Equal(t, "Alice", body.Faces[0].Name)
	assert.Equal(t, "static/default.jpg", body.Faces[1].Photo)
}

func TestFaceHandler_Attendance(t *testing.T) {
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)
	mockService := &MockFaceService{}
	mockService.On("Get", mock.Anything, int64(1)).Return(&domain.Face{ID: 1, Name: "Ali"}, nil)

	attendance := &MockAttendanceService{}
	attendance.On("List", mock.Anything, domain.AttendanceFilter{NameSubstring: "Ali"}).Return([]domain.AttendanceRecord{
		{ID: 3, Name: "Alice", Timestamp: ts},
		{ID: 2, Name: "Ali", Timestamp: ts},
	}, nil)

	handler := NewFaceHandler(mockService, attendance, defaultPhotos{}, nil, testLogger())
	app := createTestApp()
	app.Get("/v1/faces/:id/attendance", handler.Attendance)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/faces/1/attendance", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body FaceAttendanceResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Ali", body.Face.Name)
	require.Len(t, body.Records, 1)
	assert.Equal(t, int64(2), body.Records[0].ID)
}

func TestFaceHandler_Delete(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		setupMock      func(*MockFaceService)
		expectedStatus int
		wantBroadcast  bool
	}{
		{
			name: "successful delete",
			path: "/v1/faces/1",
			setupMock: func(m *MockFaceService) {
				m.On("Delete", mock.Anything, int64(1)).Return(nil)
			},
			expectedStatus: 204,
			wantBroadcast:  true,
		},
		{
			name: "face not found",
			path: "/v1/faces/999",
			setupMock: func(m *MockFaceService) {
				m.On("Delete", mock.Anything, int64(999)).Return(domain.ErrFaceNotFound)
			},
			expectedStatus: 404,
		},
		{
			name:           "invalid id",
			path:           "/v1/faces/abc",
			setupMock:      func(m *MockFaceService) {},
			expectedStatus: 422,
		},
		{
			name:           "non-positive id",
			path:           "/v1/faces/0",
			setupMock:      func(m *MockFaceService) {},
			expectedStatus: 422,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockFaceService{}
			tt.setupMock(mockService)
			broadcaster := &recordingBroadcaster{}

			handler := NewFaceHandler(mockService, &MockAttendanceService{}, defaultPhotos{}, broadcaster, testLogger())
			app := createTestApp()
			app.Delete("/v1/faces/:id", handler.Delete)

			resp, err := app.Test(httptest.NewRequest("DELETE", tt.path, nil))
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			assert.Equal(t, tt.wantBroadcast, len(broadcaster.events) == 1)

			mockService.AssertExpectations(t)
		})
	}
}
