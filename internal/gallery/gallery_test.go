package gallery

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
)

type MockSource struct {
	mock.Mock
}

func (m *MockSource) ListStoredFaces(ctx context.Context) ([]domain.StoredFace, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StoredFace), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string {
	return &s
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		dim         int
		rows        []domain.StoredFace
		storeErr    error
		wantErr     error
		wantNames   []string
		wantSkipped int
		wantDim     int
	}{
		{
			name: "all rows valid",
			dim:  3,
			rows: []domain.StoredFace{
				{ID: 1, Name: "Alice", DescriptorText: "0.1,0.2,0.3", PhotoPath: strPtr("photos/Alice.jpg")},
				{ID: 2, Name: "Bob", DescriptorText: "0.4,0.5,0.6"},
			},
			wantNames: []string{"Alice", "Bob"},
			wantDim:   3,
		},
		{
			name: "malformed row is skipped",
			dim:  3,
			rows: []domain.StoredFace{
				{ID: 1, Name: "Alice", DescriptorText: "0.1,0.2,0.3"},
				{ID: 2, Name: "Corrupt", DescriptorText: "0.1,oops,0.3"},
				{ID: 3, Name: "Carol", DescriptorText: "0.7,0.8,0.9"},
			},
			wantNames:   []string{"Alice", "Carol"},
			wantSkipped: 1,
			wantDim:     3,
		},
		{
			name: "wrong dimension is skipped",
			dim:  3,
			rows: []domain.StoredFace{
				{ID: 1, Name: "Alice", DescriptorText: "0.1,0.2"},
				{ID: 2, Name: "Bob", DescriptorText: "0.4,0.5,0.6"},
			},
			wantNames:   []string{"Bob"},
			wantSkipped: 1,
			wantDim:     3,
		},
		{
			name: "dimension inferred from the majority",
			dim:  0,
			rows: []domain.StoredFace{
				{ID: 1, Name: "Truncated", DescriptorText: "0.1,0.2"},
				{ID: 2, Name: "Bob", DescriptorText: "0.4,0.5,0.6"},
				{ID: 3, Name: "Carol", DescriptorText: "0.7,0.8,0.9"},
			},
			wantNames:   []string{"Bob", "Carol"},
			wantSkipped: 1,
			wantDim:     3,
		},
		{
			name:      "no rows",
			dim:       3,
			rows:      []domain.StoredFace{},
			wantNames: []string{},
			wantDim:   3,
		},
		{
			name:     "store failure",
			dim:      3,
			storeErr: errors.New("connection refused"),
			wantErr:  domain.ErrStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := new(MockSource)
			if tt.storeErr != nil {
				src.On("ListStoredFaces", mock.Anything).Return(nil, tt.storeErr)
			} else {
				src.On("ListStoredFaces", mock.Anything).Return(tt.rows, nil)
			}

			g, err := Load(context.Background(), src, tt.dim, testLogger())

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, g)
				return
			}

			require.NoError(t, err)
			names := make([]string, 0, g.Len())
			for _, e := range g.Entries() {
				names = append(names, e.Name)
			}
			assert.Equal(t, tt.wantNames, names)
			assert.Equal(t, tt.wantSkipped, g.Skipped())
			assert.Equal(t, tt.wantDim, g.Dim())
			assert.Equal(t, len(tt.wantNames) == 0, g.IsEmpty())
			src.AssertExpectations(t)
		})
	}
}

func TestLoad_KeepsPhotoRefAndOrder(t *testing.T) {
	src := new(MockSource)
	src.On("ListStoredFaces", mock.Anything).Return([]domain.StoredFace{
		{ID: 7, Name: "Alice", DescriptorText: "1,0", PhotoPath: strPtr("photos/Alice.jpg")},
		{ID: 3, Name: "Bob", DescriptorText: "0,1"},
	}, nil)

	g, err := Load(context.Background(), src, 0, testLogger())
	require.NoError(t, err)
	require.Equal(t, 2, g.Len())

	assert.Equal(t, Entry{ID: 7, Name: "Alice", Descriptor: domain.Descriptor{1, 0}, PhotoRef: "photos/Alice.jpg"}, g.Entry(0))
	assert.Equal(t, "", g.Entry(1).PhotoRef)
}

func TestGallery_EntriesIsACopy(t *testing.T) {
	g, err := New([]Entry{{ID: 1, Name: "Alice", Descriptor: domain.Descriptor{1, 2}}})
	require.NoError(t, err)

	entries := g.Entries()
	entries[0].Name = "Mallory"

	assert.Equal(t, "Alice", g.Entry(0).Name)
}

func TestNew_RejectsMixedDimensions(t *testing.T) {
	_, err := New([]Entry{
		{ID: 1, Name: "Alice", Descriptor: domain.Descriptor{1, 2}},
		{ID: 2, Name: "Bob", Descriptor: domain.Descriptor{1, 2, 3}},
	})

	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestEmpty(t *testing.T) {
	g := Empty()

	assert.True(t, g.IsEmpty())
	assert.Equal(t, 0, g.Len())
	assert.Equal(t, 0, g.Dim())
}
