package normalizer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"pokedex/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loadPikachu reads the pikachu fixtures as fetched by the crawler, with
// the evolution chain marked as fetched.
func loadPikachu(t *testing.T) models.Joined {
	t.Helper()

	var pokemon models.Pokemon

	var species models.Species

	for file, v := range map[string]any{
		"pikachu_pokemon.json": &pokemon,
		"pikachu_species.json": &species,
	} {
		data, err := os.ReadFile(filepath.Join("testdata", file))
		require.NoError(t, err, "Setup: could not read fixture %s", file)
		require.NoError(t, json.Unmarshal(data, v), "Setup: could not decode fixture %s", file)
	}

	return models.Joined{
		ID:      25,
		Pokemon: &pokemon,
		Species: &species,
		Chain:   &models.EvolutionChain{ID: 10},
	}
}

func TestProcessor_Process(t *testing.T) {
	t.Parallel()

	record, err := NewProcessor().Process(25, loadPikachu(t))
	require.NoError(t, err)

	assert.Equal(t, 25, record.ID)
	assert.Equal(t, "Pikachu", record.Name)
	require.NotNil(t, record.EvolutionChainID)
	assert.Equal(t, 10, *record.EvolutionChainID)
}

func TestProcessor_Process_Errors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		mutate func(*models.Joined)

		wantErr error
		wantMsg string
	}{
		"Validation error": {
			mutate:  func(j *models.Joined) { j.Species.IsMythical = nil },
			wantErr: ErrMissingField,
			wantMsg: "validation failed for ID 25",
		},
		"Transform error": {
			mutate:  func(j *models.Joined) { j.Species.Generation.Name = "generation-ix" },
			wantErr: models.ErrUnknownGeneration,
			wantMsg: "transformation failed for ID 25",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			joined := loadPikachu(t)
			tc.mutate(&joined)

			_, err := NewProcessor().Process(25, joined)
			require.ErrorIs(t, err, tc.wantErr)
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}
