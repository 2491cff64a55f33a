// Package normalizer turns joined API payloads into flat output records.
package normalizer

import (
	"fmt"

	"pokedex/internal/models"
)

// Processor validates and transforms joined payloads.
type Processor struct {
	validator   *Validator
	transformer *Transformer
}

// NewProcessor creates a new processor instance.
func NewProcessor() *Processor {
	return &Processor{
		validator:   NewValidator(),
		transformer: NewTransformer(),
	}
}

// Process turns the joined payloads of id into a record.
func (p *Processor) Process(id int, joined models.Joined) (models.Record, error) {
	// 1. Validate the input data
	if err := p.validator.Validate(joined); err != nil {
		return models.Record{}, fmt.Errorf("validation failed for ID %d: %w", id, err)
	}

	// 2. Transform the data
	record, err := p.transformer.Transform(id, joined)
	if err != nil {
		return models.Record{}, fmt.Errorf("transformation failed for ID %d: %w", id, err)
	}

	return record, nil
}
