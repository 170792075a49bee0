package domain

import (
	"errors"
	"strings"
	"time"
)

const maxNameLength = 100

// Face representa uma face cadastrada no sistema
type Face struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Descriptor Descriptor `json:"-"`
	PhotoPath  *string    `json:"photo_path,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// StoredFace is a face row as read from storage, before the descriptor text
// has been parsed. Gallery loading parses it so one corrupt row can be skipped.
type StoredFace struct {
	ID             int64
	Name           string
	DescriptorText string
	PhotoPath      *string
	CreatedAt      time.Time
}

// PhotoRef returns the stored photo path or an empty string.
func (f *Face) PhotoRef() string {
	if f.PhotoPath == nil {
		return ""
	}
	return *f.PhotoPath
}

// NormalizeName trims the name and checks it is usable as an identity.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrValidationFailed.WithError(errors.New("name is required"))
	}
	if len(name) > maxNameLength {
		return "", ErrValidationFailed.WithError(errors.New("name must be at most 100 characters"))
	}
	return name, nil
}
