package models

import (
	"errors"
	"fmt"
)

// ErrUnknownGeneration is returned for a generation label outside the known set.
var ErrUnknownGeneration = errors.New("unknown generation")

// generations is the closed set of generation labels the API publishes.
var generations = map[string]int{
	"generation-i":    1,
	"generation-ii":   2,
	"generation-iii":  3,
	"generation-iv":   4,
	"generation-v":    5,
	"generation-vi":   6,
	"generation-vii":  7,
	"generation-viii": 8,
}

// ParseGeneration maps a generation label such as "generation-iv" to its number.
func ParseGeneration(name string) (int, error) {
	n, ok := generations[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownGeneration, name)
	}

	return n, nil
}
