package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
)

type FaceRepository struct {
	pool PgxPool
}

func NewFaceRepository(pool PgxPool) *FaceRepository {
	return &FaceRepository{pool: pool}
}

// Create persists the face. The descriptor is written twice: as canonical
// text and as a pgvector mirror used for nearest-neighbor lookups.
func (r *FaceRepository) Create(ctx context.Context, face *domain.Face) error {
	query := `
		INSERT INTO faces (name, embedding_text, embedding, photo_path, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`

	if len(face.Descriptor) == 0 {
		return domain.ErrMalformedDescriptor
	}

	embedding := pgvector.NewVector(face.Descriptor.Float32())

	err := r.pool.QueryRow(ctx, query,
		face.Name,
		face.Descriptor.String(),
		embedding,
		face.PhotoPath,
	).Scan(&face.ID, &face.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrFaceNameExists
		}
		return fmt.Errorf("create face: %w", err)
	}

	return nil
}

// ListStoredFaces returns every face in id order with the descriptor still
// in text form.
func (r *FaceRepository) ListStoredFaces(ctx context.Context) ([]domain.StoredFace, error) {
	query := `
		SELECT id, name, embedding_text, photo_path, created_at
		FROM faces
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list stored faces: %w", err)
	}
	defer rows.Close()

	var faces []domain.StoredFace
	for rows.Next() {
		var f domain.StoredFace
		if err := rows.Scan(&f.ID, &f.Name, &f.DescriptorText, &f.PhotoPath, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stored face: %w", err)
		}
		faces = append(faces, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stored faces: %w", err)
	}

	return faces, nil
}

// List returns the registered faces without descriptors.
func (r *FaceRepository) List(ctx context.Context) ([]domain.Face, error) {
	query := `
		SELECT id, name, photo_path, created_at
		FROM faces
		ORDER BY name, id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list faces: %w", err)
	}
	defer rows.Close()

	faces := make([]domain.Face, 0)
	for rows.Next() {
		var f domain.Face
		if err := rows.Scan(&f.ID, &f.Name, &f.PhotoPath, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan face: %w", err)
		}
		faces = append(faces, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate faces: %w", err)
	}

	return faces, nil
}

func (r *FaceRepository) GetByID(ctx context.Context, id int64) (*domain.Face, error) {
	query := `
		SELECT id, name, embedding_text, photo_path, created_at
		FROM faces
		WHERE id = $1
	`

	var face domain.Face
	var text string

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&face.ID,
		&face.Name,
		&text,
		&face.PhotoPath,
		&face.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrFaceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get face by id: %w", err)
	}

	face.Descriptor, err = domain.ParseDescriptor(text, 0)
	if err != nil {
		return nil, fmt.Errorf("get face by id: %w", err)
	}

	return &face, nil
}

func (r *FaceRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM faces WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete face: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrFaceNotFound
	}

	return nil
}

// FindNearest returns the closest face by L2 distance among faces of the
// same dimension. Ties resolve to the lowest id, matching gallery order.
// Distances come from the float32 mirror and may differ from the matcher's
// in the last digits.
func (r *FaceRepository) FindNearest(ctx context.Context, descriptor domain.Descriptor) (*domain.Face, float64, error) {
	query := `
		SELECT id, name, photo_path, created_at, embedding <-> $1 AS distance
		FROM faces
		WHERE embedding IS NOT NULL AND vector_dims(embedding) = $2
		ORDER BY distance, id
		LIMIT 1
	`

	var face domain.Face
	var distance float64

	err := r.pool.QueryRow(ctx, query,
		pgvector.NewVector(descriptor.Float32()),
		descriptor.Dim(),
	).Scan(&face.ID, &face.Name, &face.PhotoPath, &face.CreatedAt, &distance)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, domain.ErrFaceNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("find nearest face: %w", err)
	}

	return &face, distance, nil
}

// DescriptorDimension returns the dimension shared by most faces. Ties go to
// the dimension registered first, as when the gallery is loaded.
func (r *FaceRepository) DescriptorDimension(ctx context.Context) (int, error) {
	query := `
		SELECT vector_dims(embedding) AS dims
		FROM faces
		WHERE embedding IS NOT NULL
		GROUP BY dims
		ORDER BY count(*) DESC, min(id)
		LIMIT 1
	`

	var dims int
	err := r.pool.QueryRow(ctx, query).Scan(&dims)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("descriptor dimension: %w", err)
	}

	return dims, nil
}

var (
	_ FaceRepositoryInterface = (*FaceRepository)(nil)
	_ NearestFaceFinder       = (*FaceRepository)(nil)
)
