package repository

import (
	"context"
	"time"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
)

// FaceRepositoryInterface defines operations for face data access
type FaceRepositoryInterface interface {
	Create(ctx context.Context, face *domain.Face) error
	ListStoredFaces(ctx context.Context) ([]domain.StoredFace, error)
	List(ctx context.Context) ([]domain.Face, error)
	GetByID(ctx context.Context, id int64) (*domain.Face, error)
	Delete(ctx context.Context, id int64) error
}

// NearestFaceFinder is implemented by stores that can search descriptors
// natively. Stores without it are searched through a gallery snapshot.
type NearestFaceFinder interface {
	FindNearest(ctx context.Context, descriptor domain.Descriptor) (*domain.Face, float64, error)
	// DescriptorDimension is the dimension most stored faces share, 0 when
	// there are none.
	DescriptorDimension(ctx context.Context) (int, error)
}

// AttendanceRepositoryInterface defines operations for attendance data access
type AttendanceRepositoryInterface interface {
	Create(ctx context.Context, record *domain.AttendanceRecord) error
	List(ctx context.Context, filter domain.AttendanceFilter) ([]domain.AttendanceRecord, error)
	Delete(ctx context.Context, id int64) error
	Summary(ctx context.Context) (*domain.AttendanceSummary, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Pinger reports store reachability for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}
