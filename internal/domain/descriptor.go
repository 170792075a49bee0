package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// descriptorSeparator separa os componentes na representação textual persistida
const descriptorSeparator = ","

// Descriptor is the fixed-length face vector produced by the extraction model.
type Descriptor []float64

// ParseDescriptor decodes the comma-separated text form of a descriptor.
// When dim is positive the decoded vector must have exactly dim components.
func ParseDescriptor(text string, dim int) (Descriptor, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrMalformedDescriptor.WithError(errors.New("empty descriptor"))
	}

	parts := strings.Split(text, descriptorSeparator)
	if dim > 0 && len(parts) != dim {
		return nil, ErrMalformedDescriptor.WithError(
			fmt.Errorf("expected %d components, got %d", dim, len(parts)))
	}

	d := make(Descriptor, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, ErrMalformedDescriptor.WithError(fmt.Errorf("component %d: %w", i, err))
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrMalformedDescriptor.WithError(fmt.Errorf("component %d is not finite", i))
		}
		d[i] = v
	}

	return d, nil
}

// String returns the persisted text form. Components use the shortest
// representation that parses back to the same float64.
func (d Descriptor) String() string {
	var b strings.Builder
	for i, v := range d {
		if i > 0 {
			b.WriteString(descriptorSeparator)
		}
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return b.String()
}

func (d Descriptor) Dim() int {
	return len(d)
}

// Equal reports whether both descriptors have the same dimension and every
// component differs by at most tolerance.
func (d Descriptor) Equal(other Descriptor, tolerance float64) bool {
	if len(d) != len(other) {
		return false
	}
	for i := range d {
		if math.Abs(d[i]-other[i]) > tolerance {
			return false
		}
	}
	return true
}

// CheckDim returns ErrDimensionMismatch when d does not have dim components.
func (d Descriptor) CheckDim(dim int) error {
	if len(d) != dim {
		return ErrDimensionMismatch.WithError(fmt.Errorf("expected %d components, got %d", dim, len(d)))
	}
	return nil
}

// Float32 converte o descritor para o formato usado pelo pgvector
func (d Descriptor) Float32() []float32 {
	out := make([]float32, len(d))
	for i, v := range d {
		out[i] = float32(v)
	}
	return out
}
