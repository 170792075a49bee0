package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
	"github.com/saturnino-fabrica-de-software/ponto/internal/repository"
)

type FaceRepository struct {
	db *sql.DB
}

func (r *FaceRepository) Create(ctx context.Context, face *domain.Face) error {
	if len(face.Descriptor) == 0 {
		return domain.ErrMalformedDescriptor
	}

	now := domain.Truncate(time.Now())
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO faces (name, embedding_text, photo_path, created_at) VALUES (?, ?, ?, ?)`,
		face.Name, face.Descriptor.String(), face.PhotoPath, now.Format(domain.TimestampLayout),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrFaceNameExists
		}
		return fmt.Errorf("create face: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create face: %w", err)
	}

	face.ID = id
	face.CreatedAt = now
	return nil
}

func (r *FaceRepository) ListStoredFaces(ctx context.Context) ([]domain.StoredFace, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, embedding_text, photo_path, created_at FROM faces ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list stored faces: %w", err)
	}
	defer rows.Close()

	var faces []domain.StoredFace
	for rows.Next() {
		var (
			f       domain.StoredFace
			photo   sql.NullString
			created string
		)
		if err := rows.Scan(&f.ID, &f.Name, &f.DescriptorText, &photo, &created); err != nil {
			return nil, fmt.Errorf("scan stored face: %w", err)
		}
		f.PhotoPath = nullableString(photo)
		f.CreatedAt = parseTimestamp(created)
		faces = append(faces, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stored faces: %w", err)
	}

	return faces, nil
}

func (r *FaceRepository) List(ctx context.Context) ([]domain.Face, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, photo_path, created_at FROM faces ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list faces: %w", err)
	}
	defer rows.Close()

	faces := make([]domain.Face, 0)
	for rows.Next() {
		var (
			f       domain.Face
			photo   sql.NullString
			created string
		)
		if err := rows.Scan(&f.ID, &f.Name, &photo, &created); err != nil {
			return nil, fmt.Errorf("scan face: %w", err)
		}
		f.PhotoPath = nullableString(photo)
		f.CreatedAt = parseTimestamp(created)
		faces = append(faces, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate faces: %w", err)
	}

	return faces, nil
}

func (r *FaceRepository) GetByID(ctx context.Context, id int64) (*domain.Face, error) {
	var (
		face    domain.Face
		text    string
		photo   sql.NullString
		created string
	)

	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, embedding_text, photo_path, created_at FROM faces WHERE id = ?`, id,
	).Scan(&face.ID, &face.Name, &text, &photo, &created)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrFaceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get face by id: %w", err)
	}

	face.Descriptor, err = domain.ParseDescriptor(text, 0)
	if err != nil {
		return nil, fmt.Errorf("get face by id: %w", err)
	}
	face.PhotoPath = nullableString(photo)
	face.CreatedAt = parseTimestamp(created)

	return &face, nil
}

func (r *FaceRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM faces WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete face: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete face: %w", err)
	}
	if n == 0 {
		return domain.ErrFaceNotFound
	}

	return nil
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// parseTimestamp reads the stored local wall-clock text. A malformed value
// yields the zero time rather than failing the whole listing.
func parseTimestamp(s string) time.Time {
	t, err := time.ParseInLocation(domain.TimestampLayout, s, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

var _ repository.FaceRepositoryInterface = (*FaceRepository)(nil)
