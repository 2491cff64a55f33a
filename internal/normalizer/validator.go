package normalizer

import (
	"errors"
	"fmt"

	"pokedex/internal/models"
)

// Validation errors.
var (
	ErrMissingPokemon = errors.New("joined data has no pokemon payload")
	ErrMissingSpecies = errors.New("joined data has no species payload")
	ErrMissingField   = errors.New("payload is missing a required field")
)

// Validator checks that the keys read by the transformer are present.
type Validator struct{}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks if the joined payloads meet requirements.
func (v *Validator) Validate(joined models.Joined) error {
	if joined.Pokemon == nil {
		return ErrMissingPokemon
	}

	if joined.Species == nil {
		return ErrMissingSpecies
	}

	if err := validatePokemon(joined.Pokemon); err != nil {
		return err
	}

	return validateSpecies(joined.Species)
}

func validatePokemon(p *models.Pokemon) error {
	if p.Name == nil {
		return missing("pokemon.name")
	}

	if p.Height == nil {
		return missing("pokemon.height")
	}

	if p.Weight == nil {
		return missing("pokemon.weight")
	}

	if p.Stats == nil {
		return missing("pokemon.stats")
	}

	for i, s := range p.Stats {
		if s.Stat.Name == "" {
			return missing(fmt.Sprintf("pokemon.stats[%d].stat.name", i))
		}
	}

	// Type_1 is mandatory, so an empty list is as bad as a missing one
	if len(p.Types) == 0 {
		return missing("pokemon.types")
	}

	for i, t := range p.Types {
		if t.Type.Name == "" {
			return missing(fmt.Sprintf("pokemon.types[%d].type.name", i))
		}
	}

	return nil
}

func validateSpecies(s *models.Species) error {
	if s.EggGroups == nil {
		return missing("species.egg_groups")
	}

	if s.IsLegendary == nil {
		return missing("species.is_legendary")
	}

	if s.IsMythical == nil {
		return missing("species.is_mythical")
	}

	if s.Generation == nil || s.Generation.Name == "" {
		return missing("species.generation.name")
	}

	return nil
}

func missing(key string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, key)
}
