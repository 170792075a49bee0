//go:build integration

package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
)

func setupIntegrationTest(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "ponto_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("postgres://test:test@%s:%s/ponto_test?sslmode=disable", host, port.Port())

	db, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	_, err = db.Exec(ctx, `
		CREATE EXTENSION IF NOT EXISTS "vector";

		CREATE TABLE IF NOT EXISTS faces (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			embedding_text TEXT NOT NULL,
			embedding vector,
			photo_path TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS attendance (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			"timestamp" TIMESTAMPTZ NOT NULL
		);
	`)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return db, cleanup
}

func TestRepositories_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupIntegrationTest(t)
	defer cleanup()

	ctx := context.Background()
	faces := NewFaceRepository(db)
	attendance := NewAttendanceRepository(db)

	alice := &domain.Face{Name: "Alice", Descriptor: domain.Descriptor{0.1, 0.2, 0.3}}
	bob := &domain.Face{Name: "Bob", Descriptor: domain.Descriptor{0.9, 0.8, 0.7}}
	require.NoError(t, faces.Create(ctx, alice))
	require.NoError(t, faces.Create(ctx, bob))

	t.Run("duplicate name rejected", func(t *testing.T) {
		err := faces.Create(ctx, &domain.Face{Name: "Alice", Descriptor: domain.Descriptor{1, 1, 1}})
		assert.ErrorIs(t, err, domain.ErrFaceNameExists)
	})

	t.Run("stored descriptors round trip exactly", func(t *testing.T) {
		stored, err := faces.ListStoredFaces(ctx)
		require.NoError(t, err)
		require.Len(t, stored, 2)
		assert.Equal(t, alice.ID, stored[0].ID)

		d, err := domain.ParseDescriptor(stored[0].DescriptorText, 3)
		require.NoError(t, err)
		assert.Equal(t, alice.Descriptor, d)
	})

	t.Run("nearest by pgvector", func(t *testing.T) {
		face, dist, err := faces.FindNearest(ctx, domain.Descriptor{0.1, 0.2, 0.31})
		require.NoError(t, err)
		assert.Equal(t, "Alice", face.Name)
		assert.InDelta(t, 0.01, dist, 1e-4)
	})

	t.Run("stored descriptor dimension", func(t *testing.T) {
		dims, err := faces.DescriptorDimension(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, dims)
	})

	t.Run("attendance newest first with filters", func(t *testing.T) {
		day := time.Now().Truncate(time.Second)
		for i, name := range []string{"Alice", "Bob", "alice"} {
			rec := &domain.AttendanceRecord{Name: name, Timestamp: day.Add(time.Duration(i) * time.Second)}
			require.NoError(t, attendance.Create(ctx, rec))
		}

		all, err := attendance.List(ctx, domain.AttendanceFilter{Date: &day})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "alice", all[0].Name)

		filtered, err := attendance.List(ctx, domain.AttendanceFilter{NameSubstring: "ALI"})
		require.NoError(t, err)
		assert.Len(t, filtered, 2)

		require.NoError(t, attendance.Delete(ctx, all[0].ID))
		assert.ErrorIs(t, attendance.Delete(ctx, all[0].ID), domain.ErrAttendanceNotFound)
	})

	t.Run("delete face", func(t *testing.T) {
		require.NoError(t, faces.Delete(ctx, bob.ID))
		_, err := faces.GetByID(ctx, bob.ID)
		assert.ErrorIs(t, err, domain.ErrFaceNotFound)
	})
}
