package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxBound caps both ends of the length window.
const MaxBound = 1000

// DefaultChunkSize is the default chunk capacity in bytes.
const DefaultChunkSize = 4096

// ChunkSizeLimit caps every chunk capacity, grown ones included (1 GiB).
const ChunkSizeLimit = 1 << 30

// Bounds is the inclusive [Min, Max] window a candidate's length must fall in.
type Bounds struct {
	Min int
	Max int
}

// Contains reports whether total lies inside the window.
func (b Bounds) Contains(total int) bool {
	return total >= b.Min && total <= b.Max
}

func (b Bounds) String() string {
	return fmt.Sprintf("[%d, %d]", b.Min, b.Max)
}

// Validate checks the window against the configured limits.
func (b Bounds) Validate() error {
	if b.Min < 0 {
		return NewValidationError("min", strconv.Itoa(b.Min), ErrInvalidBound)
	}
	if b.Max < 0 {
		return NewValidationError("max", strconv.Itoa(b.Max), ErrInvalidBound)
	}
	if b.Min > MaxBound {
		return NewValidationError("min", strconv.Itoa(b.Min), ErrBoundTooLarge)
	}
	if b.Max > MaxBound {
		return NewValidationError("max", strconv.Itoa(b.Max), ErrBoundTooLarge)
	}
	if b.Min > b.Max {
		return NewValidationError("min", fmt.Sprintf("%d > %d", b.Min, b.Max), ErrMinAboveMax)
	}
	return nil
}

// ParseBounds parses decimal min/max text and validates the resulting window.
func ParseBounds(minText, maxText string) (Bounds, error) {
	lo, err := parseBound("min", minText)
	if err != nil {
		return Bounds{}, err
	}
	hi, err := parseBound("max", maxText)
	if err != nil {
		return Bounds{}, err
	}
	b := Bounds{Min: lo, Max: hi}
	if err := b.Validate(); err != nil {
		return Bounds{}, err
	}
	return b, nil
}

func parseBound(field, text string) (int, error) {
	s := strings.TrimSpace(text)
	if s == "" || strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return 0, NewValidationError(field, text, ErrInvalidBound)
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, NewValidationError(field, text, ErrInvalidBound)
	}
	return v, nil
}

// ValidateChunkSize rejects capacities outside (0, ChunkSizeLimit].
func ValidateChunkSize(n int) error {
	return validateCapacity("chunk-size", n)
}

// ValidateChunkLimits checks the base capacity and the growth ceiling
// together. The base may not exceed the ceiling.
func ValidateChunkLimits(size, ceiling int) error {
	if err := validateCapacity("chunk-size", size); err != nil {
		return err
	}
	if err := validateCapacity("max-chunk-size", ceiling); err != nil {
		return err
	}
	if size > ceiling {
		return NewValidationError("chunk-size", fmt.Sprintf("%d > max-chunk-size %d", size, ceiling), ErrChunkSize)
	}
	return nil
}

func validateCapacity(field string, n int) error {
	if n <= 0 || n > ChunkSizeLimit {
		return NewValidationError(field, strconv.Itoa(n), ErrChunkSize)
	}
	return nil
}
