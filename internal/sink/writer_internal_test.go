package sink

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pokedex/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Not parallel: swaps the package rename function.
func TestWriteJSON_FailedReplaceKeepsExistingOutput(t *testing.T) {
	errRename := errors.New("rename failed")

	tests := map[string]struct {
		backup bool
	}{
		"Without backup": {},
		"With backup":    {backup: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "pokemon.json")
			require.NoError(t, os.WriteFile(path, []byte("previous run"), 0600), "Setup: could not write existing file")

			orig := renameFile
			t.Cleanup(func() { renameFile = orig })

			renameFile = func(from, to string) error {
				if to == path {
					return errRename
				}

				return orig(from, to)
			}

			_, err := WriteJSON(path, []models.Record{{ID: 1, Name: "Bulbasaur", EggGroups: []string{}}}, WriteOptions{CreateBackup: tc.backup})
			require.ErrorIs(t, err, errRename)

			got, err := os.ReadFile(path)
			require.NoError(t, err, "Existing output should still be present")
			assert.Equal(t, "previous run", string(got), "Existing output should be untouched")

			bak, err := os.ReadFile(path + BackupSuffix)
			if !tc.backup {
				require.ErrorIs(t, err, os.ErrNotExist)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "previous run", string(bak))
		})
	}
}
