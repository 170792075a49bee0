package gallery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
)

// Source lists every stored face row. Implemented by the repositories.
type Source interface {
	ListStoredFaces(ctx context.Context) ([]domain.StoredFace, error)
}

// Entry is one registered identity as seen by the matcher.
type Entry struct {
	ID         int64
	Name       string
	Descriptor domain.Descriptor
	PhotoRef   string
}

// Gallery is an immutable snapshot of the registered faces. It is never
// mutated after construction, so a running recognition session can read it
// without locking.
type Gallery struct {
	entries  []Entry
	dim      int
	skipped  int
	loadedAt time.Time
}

// New builds a gallery from entries that already carry parsed descriptors.
// All descriptors must share the same dimension.
func New(entries []Entry) (*Gallery, error) {
	g := &Gallery{
		entries:  make([]Entry, 0, len(entries)),
		loadedAt: time.Now(),
	}

	for _, e := range entries {
		if g.dim == 0 {
			g.dim = e.Descriptor.Dim()
		}
		if err := e.Descriptor.CheckDim(g.dim); err != nil {
			return nil, fmt.Errorf("gallery entry %q: %w", e.Name, err)
		}
		g.entries = append(g.entries, e)
	}

	return g, nil
}

// Empty returns a gallery with no entries.
func Empty() *Gallery {
	return &Gallery{loadedAt: time.Now()}
}

// Load reads every stored face and parses its descriptor. Rows that fail to
// parse, or whose dimension differs from dim, are skipped with a warning.
// When dim is zero the dimension shared by most rows is used.
func Load(ctx context.Context, src Source, dim int, logger *slog.Logger) (*Gallery, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "gallery")

	rows, err := src.ListStoredFaces(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) {
			return nil, err
		}
		return nil, domain.ErrStoreUnavailable.WithError(fmt.Errorf("load gallery: %w", err))
	}

	parsed := make([]domain.Descriptor, len(rows))
	parseErrs := make([]error, len(rows))
	for i, row := range rows {
		parsed[i], parseErrs[i] = domain.ParseDescriptor(row.DescriptorText, dim)
	}

	if dim <= 0 {
		dim = dominantDim(parsed, parseErrs)
	}

	g := &Gallery{
		entries:  make([]Entry, 0, len(rows)),
		dim:      dim,
		loadedAt: time.Now(),
	}

	for i, row := range rows {
		err := parseErrs[i]
		if err == nil {
			err = parsed[i].CheckDim(dim)
			if err != nil {
				err = domain.ErrMalformedDescriptor.WithError(err)
			}
		}
		if err != nil {
			g.skipped++
			logger.Warn("skipping face with malformed descriptor",
				slog.Int64("face_id", row.ID),
				slog.String("name", row.Name),
				slog.Any("error", err),
			)
			continue
		}

		entry := Entry{
			ID:         row.ID,
			Name:       row.Name,
			Descriptor: parsed[i],
		}
		if row.PhotoPath != nil {
			entry.PhotoRef = *row.PhotoPath
		}
		g.entries = append(g.entries, entry)
	}

	logger.Debug("gallery loaded",
		slog.Int("faces", len(g.entries)),
		slog.Int("skipped", g.skipped),
		slog.Int("dimension", g.dim),
	)

	return g, nil
}

// dominantDim returns the dimension shared by most parsed rows. Ties go to
// the dimension seen first.
func dominantDim(parsed []domain.Descriptor, errs []error) int {
	counts := make(map[int]int)
	for i, d := range parsed {
		if errs[i] == nil {
			counts[d.Dim()]++
		}
	}

	best, bestCount := 0, 0
	for i, d := range parsed {
		if errs[i] != nil {
			continue
		}
		if c := counts[d.Dim()]; c > bestCount {
			best, bestCount = d.Dim(), c
		}
	}
	return best
}

func (g *Gallery) IsEmpty() bool {
	return len(g.entries) == 0
}

func (g *Gallery) Len() int {
	return len(g.entries)
}

// Dim is the descriptor dimension of every entry, zero for an empty gallery.
func (g *Gallery) Dim() int {
	return g.dim
}

// Entry returns the i-th entry in gallery order.
func (g *Gallery) Entry(i int) Entry {
	return g.entries[i]
}

// Entries returns a copy of the entries in gallery order.
func (g *Gallery) Entries() []Entry {
	out := make([]Entry, len(g.entries))
	copy(out, g.entries)
	return out
}

// Skipped is the number of rows dropped during Load.
func (g *Gallery) Skipped() int {
	return g.skipped
}

func (g *Gallery) LoadedAt() time.Time {
	return g.loadedAt
}
