package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/saturnino-fabrica-de-software/ponto/internal/camera"
	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
	"github.com/saturnino-fabrica-de-software/ponto/internal/gallery"
	"github.com/saturnino-fabrica-de-software/ponto/internal/matcher"
	"github.com/saturnino-fabrica-de-software/ponto/internal/photo"
	"github.com/saturnino-fabrica-de-software/ponto/internal/provider"
	"github.com/saturnino-fabrica-de-software/ponto/internal/repository"
)

// CameraOwner is the lease owner name used while a registration captures.
const CameraOwner = "registration"

// Camera hands out the exclusive frame source. camera.Lease implements it.
type Camera interface {
	Acquire(ctx context.Context, owner string) (*camera.FrameSource, error)
	Release(owner string) error
}

// RecognitionStopper is the part of the recognition controller that
// registration needs: the camera must be free before capturing.
type RecognitionStopper interface {
	Stop() error
}

// PhotoStore keeps the registration frame of each face.
type PhotoStore interface {
	Stage(name string, data []byte) (*photo.Staged, error)
	Remove(ref string) error
}

type FaceService struct {
	faces       repository.FaceRepositoryInterface
	provider    provider.FaceProvider
	matcher     *matcher.Matcher
	camera      Camera
	photos      PhotoStore
	recognition RecognitionStopper
	logger      *slog.Logger

	dimension int
	countdown time.Duration
}

func NewFaceService(
	faces repository.FaceRepositoryInterface,
	faceProvider provider.FaceProvider,
	m *matcher.Matcher,
	cam Camera,
	photos PhotoStore,
	logger *slog.Logger,
) *FaceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FaceService{
		faces:    faces,
		provider: faceProvider,
		matcher:  m,
		camera:   cam,
		photos:   photos,
		logger:   logger.With("component", "faces"),
	}
}

// WithRecognition makes Register stop a running recognition session first.
func (s *FaceService) WithRecognition(r RecognitionStopper) *FaceService {
	s.recognition = r
	return s
}

// WithCountdown waits d before capturing so the person can face the camera.
func (s *FaceService) WithCountdown(d time.Duration) *FaceService {
	s.countdown = d
	return s
}

// WithDimension fixes the descriptor dimension. Registrations of another
// size are rejected. Zero takes the dimension of the stored faces.
func (s *FaceService) WithDimension(dim int) *FaceService {
	s.dimension = dim
	return s
}

// Register captures one frame from the camera and registers its first face
// under name.
func (s *FaceService) Register(ctx context.Context, name string) (*domain.Face, error) {
	name, err := domain.NormalizeName(name)
	if err != nil {
		return nil, err
	}

	if s.recognition != nil {
		if err := s.recognition.Stop(); err != nil {
			return nil, fmt.Errorf("stop recognition: %w", err)
		}
	}

	if s.countdown > 0 {
		s.logger.Info("registration countdown", "name", name, "countdown", s.countdown)
		timer := time.NewTimer(s.countdown)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	frame, err := s.capture(ctx)
	if err != nil {
		return nil, err
	}

	return s.RegisterImage(ctx, name, frame)
}

// capture holds the camera only for the duration of one read.
func (s *FaceService) capture(ctx context.Context) ([]byte, error) {
	source, err := s.camera.Acquire(ctx, CameraOwner)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := s.camera.Release(CameraOwner); err != nil {
			s.logger.Warn("failed to release camera", "error", err)
		}
	}()

	frame, err := source.Read(ctx)
	if err != nil {
		return nil, err
	}
	return frame.Data, nil
}

// RegisterImage registers the first face found in an encoded image. The image
// becomes the face's photo.
func (s *FaceService) RegisterImage(ctx context.Context, name string, image []byte) (*domain.Face, error) {
	name, err := domain.NormalizeName(name)
	if err != nil {
		return nil, err
	}

	detected, err := s.provider.DetectFaces(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}
	if len(detected) == 0 {
		return nil, domain.ErrNoFaceDetected
	}
	if len(detected) > 1 {
		s.logger.Info("several faces in registration frame, using the first", "name", name, "faces", len(detected))
	}

	descriptor, err := s.provider.ExtractDescriptor(ctx, image, detected[0])
	if err != nil {
		return nil, fmt.Errorf("extract descriptor: %w", err)
	}

	if err := s.checkDuplicate(ctx, name, descriptor); err != nil {
		return nil, err
	}

	// the file at the face's photo ref only changes once the face exists
	staged, err := s.photos.Stage(name, image)
	if err != nil {
		return nil, err
	}

	photoRef := staged.Ref
	face := &domain.Face{
		Name:       name,
		Descriptor: descriptor,
		PhotoPath:  &photoRef,
	}
	if err := s.faces.Create(ctx, face); err != nil {
		if discardErr := staged.Discard(); discardErr != nil {
			s.logger.Warn("failed to discard photo", "name", name, "error", discardErr)
		}
		return nil, err
	}

	if err := staged.Commit(); err != nil {
		s.logger.Warn("failed to store photo, default will be shown", "face_id", face.ID, "name", name, "error", err)
	}

	s.logger.Info("face registered", "face_id", face.ID, "name", face.Name, "dimension", descriptor.Dim())
	return face, nil
}

// Import stores a face whose descriptor was computed elsewhere, e.g. a
// gallery export. It runs the same duplicate check as a registration.
func (s *FaceService) Import(ctx context.Context, name string, descriptor domain.Descriptor, photoRef string) (*domain.Face, error) {
	name, err := domain.NormalizeName(name)
	if err != nil {
		return nil, err
	}
	if descriptor.Dim() == 0 {
		return nil, domain.ErrValidationFailed.WithError(errors.New("descriptor is empty"))
	}

	if err := s.checkDuplicate(ctx, name, descriptor); err != nil {
		return nil, err
	}

	face := &domain.Face{Name: name, Descriptor: descriptor}
	if photoRef != "" {
		face.PhotoPath = &photoRef
	}
	if err := s.faces.Create(ctx, face); err != nil {
		return nil, err
	}
	return face, nil
}

// checkDuplicate rejects a descriptor whose dimension differs from the
// gallery's, or that already matches a face registered under another name.
// Stores with a native vector index answer directly; the others are searched
// through a fresh gallery.
func (s *FaceService) checkDuplicate(ctx context.Context, name string, d domain.Descriptor) error {
	if s.dimension > 0 && d.Dim() != s.dimension {
		return dimensionMismatch(d.Dim(), s.dimension)
	}

	if finder, ok := s.faces.(repository.NearestFaceFinder); ok {
		if s.dimension == 0 {
			stored, err := finder.DescriptorDimension(ctx)
			if err != nil {
				return domain.ErrStoreUnavailable.WithError(fmt.Errorf("stored descriptor dimension: %w", err))
			}
			if stored > 0 && d.Dim() != stored {
				return dimensionMismatch(d.Dim(), stored)
			}
		}

		nearest, dist, err := finder.FindNearest(ctx, d)
		if err != nil {
			if errors.Is(err, domain.ErrFaceNotFound) {
				return nil
			}
			return domain.ErrStoreUnavailable.WithError(fmt.Errorf("find nearest face: %w", err))
		}
		return s.duplicateOf(name, nearest.Name, dist)
	}

	g, err := gallery.Load(ctx, s.faces, s.dimension, s.logger)
	if err != nil {
		return err
	}

	id, ok, err := s.matcher.MatchChecked(d, g)
	if err != nil {
		return domain.ErrDimensionMismatch.WithError(err)
	}
	if !ok {
		return nil
	}
	return s.duplicateOf(name, id.Name, id.Distance)
}

func dimensionMismatch(got, want int) error {
	return domain.ErrDimensionMismatch.WithError(fmt.Errorf("descriptor has %d values, gallery uses %d", got, want))
}

func (s *FaceService) duplicateOf(name, existing string, dist float64) error {
	if !s.matcher.Accepts(dist) || existing == name {
		return nil
	}
	s.logger.Warn("registration matches an existing face", "name", name, "existing", existing, "distance", dist)
	return domain.ErrFaceBiometricExists.WithError(fmt.Errorf("matches %q at distance %.4f", existing, dist))
}

func (s *FaceService) List(ctx context.Context) ([]domain.Face, error) {
	return s.faces.List(ctx)
}

func (s *FaceService) Get(ctx context.Context, id int64) (*domain.Face, error) {
	return s.faces.GetByID(ctx, id)
}

// Delete removes the face and, best effort, its photo. Attendance records
// keep the name and are not touched.
func (s *FaceService) Delete(ctx context.Context, id int64) error {
	face, err := s.faces.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.faces.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.photos.Remove(face.PhotoRef()); err != nil {
		s.logger.Warn("failed to remove photo", "face_id", id, "error", err)
	}
	return nil
}
