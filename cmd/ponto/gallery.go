package main

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
)

const galleryVersion = 1

// galleryFile is the export format: descriptors in their stored text form so
// an export and re-import round-trips exactly.
type galleryFile struct {
	Version int           `yaml:"version"`
	Faces   []galleryFace `yaml:"faces"`
}

type galleryFace struct {
	Name       string `yaml:"name"`
	Descriptor string `yaml:"descriptor"`
	Photo      string `yaml:"photo,omitempty"`
}

func encodeGallery(w io.Writer, faces []domain.StoredFace) error {
	file := galleryFile{Version: galleryVersion, Faces: make([]galleryFace, 0, len(faces))}
	for _, f := range faces {
		gf := galleryFace{Name: f.Name, Descriptor: f.DescriptorText}
		if f.PhotoPath != nil {
			gf.Photo = *f.PhotoPath
		}
		file.Faces = append(file.Faces, gf)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("encode gallery: %w", err)
	}
	return enc.Close()
}

// importedFace is one parsed entry of a gallery file.
type importedFace struct {
	Name       string
	Descriptor domain.Descriptor
	Photo      string
}

// decodeGallery parses a gallery file. Entries with malformed descriptors are
// reported by index and the rest are kept.
func decodeGallery(r io.Reader) ([]importedFace, []error, error) {
	var file galleryFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, nil, fmt.Errorf("decode gallery: %w", err)
	}
	if file.Version != galleryVersion {
		return nil, nil, fmt.Errorf("unsupported gallery version %d", file.Version)
	}

	var (
		faces []importedFace
		errs  []error
	)
	for i, f := range file.Faces {
		d, err := domain.ParseDescriptor(f.Descriptor, 0)
		if err != nil {
			errs = append(errs, fmt.Errorf("face %d (%s): %w", i, f.Name, err))
			continue
		}
		faces = append(faces, importedFace{Name: f.Name, Descriptor: d, Photo: f.Photo})
	}
	return faces, errs, nil
}
