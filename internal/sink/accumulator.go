// Package sink collects records during a run and writes them out once at the end.
package sink

import (
	"errors"
	"fmt"

	"pokedex/internal/models"
)

// ErrOutOfOrder is returned when a record does not follow the previous one.
var ErrOutOfOrder = errors.New("record IDs must be strictly ascending")

// Accumulator is the ordered, append-only result set of a run.
type Accumulator struct {
	records []models.Record
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{records: make([]models.Record, 0)}
}

// Append adds r after the last record. IDs must be strictly ascending.
func (a *Accumulator) Append(r models.Record) error {
	if n := len(a.records); n > 0 && r.ID <= a.records[n-1].ID {
		return fmt.Errorf("%w: %d after %d", ErrOutOfOrder, r.ID, a.records[n-1].ID)
	}

	a.records = append(a.records, r)

	return nil
}

// Records returns a copy of the accumulated records. It is never nil.
func (a *Accumulator) Records() []models.Record {
	out := make([]models.Record, len(a.records))
	copy(out, a.records)

	return out
}

// Len returns the number of accumulated records.
func (a *Accumulator) Len() int {
	return len(a.records)
}
