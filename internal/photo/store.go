package photo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
)

// Store keeps registration photos as {dir}/{name}.jpg.
type Store struct {
	dir          string
	defaultPhoto string
}

func NewStore(dir, defaultPhoto string) *Store {
	return &Store{dir: dir, defaultPhoto: defaultPhoto}
}

// Save writes the encoded frame for name and returns its reference.
func (s *Store) Save(name string, data []byte) (string, error) {
	staged, err := s.Stage(name, data)
	if err != nil {
		return "", err
	}
	if err := staged.Commit(); err != nil {
		return "", err
	}
	return staged.Ref, nil
}

// Staged is a photo written next to its final location. Nothing at Ref
// changes until Commit.
type Staged struct {
	Ref string
	tmp string
}

// Stage writes data to a temporary file in the photos directory.
func (s *Store) Stage(name string, data []byte) (*Staged, error) {
	file, err := fileName(name)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create photos directory: %w", err)
	}

	f, err := os.CreateTemp(s.dir, file+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("write photo: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("write photo: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("write photo: %w", err)
	}
	if err := os.Chmod(f.Name(), 0o644); err != nil {
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("write photo: %w", err)
	}

	return &Staged{Ref: filepath.Join(s.dir, file), tmp: f.Name()}, nil
}

// Commit moves the staged file to Ref, replacing whatever was there.
func (st *Staged) Commit() error {
	if err := os.Rename(st.tmp, st.Ref); err != nil {
		_ = os.Remove(st.tmp)
		return fmt.Errorf("write photo: %w", err)
	}
	return nil
}

// Discard drops the staged file and leaves Ref untouched.
func (st *Staged) Discard() error {
	if err := os.Remove(st.tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("discard photo: %w", err)
	}
	return nil
}

// Resolve returns ref when the file exists, otherwise the default photo.
func (s *Store) Resolve(ref string) string {
	if ref != "" {
		if info, err := os.Stat(ref); err == nil && !info.IsDir() {
			return ref
		}
	}
	return s.defaultPhoto
}

// Default is the placeholder shown when a face has no usable photo.
func (s *Store) Default() string {
	return s.defaultPhoto
}

// Remove deletes a stored photo. A missing file is not an error.
func (s *Store) Remove(ref string) error {
	if ref == "" {
		return nil
	}
	if err := os.Remove(ref); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove photo: %w", err)
	}
	return nil
}

func fileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return "", domain.ErrValidationFailed.WithError(fmt.Errorf("name %q cannot be used as a file name", name))
	}
	return name + ".jpg", nil
}
