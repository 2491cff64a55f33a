package commands_test

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pokedex/cmd/harvester/commands"
	"pokedex/internal/config"
	"pokedex/internal/models"
	"pokedex/internal/sink"
	"pokedex/pkg/metadata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newUpstream serves ID 1 only. Every other ID answers 404.
func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/pokemon/1", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"id":1,"name":"bulbasaur","height":7,"weight":69,
			"stats":[{"base_stat":45,"stat":{"name":"hp"}},{"base_stat":49,"stat":{"name":"attack"}},
			{"base_stat":49,"stat":{"name":"defense"}}],
			"types":[{"slot":1,"type":{"name":"grass"}},{"slot":2,"type":{"name":"poison"}}]}`)
	})
	mux.HandleFunc("/species/1", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"egg_groups":[{"name":"monster"},{"name":"plant"}],"is_legendary":false,"is_mythical":false,
			"evolves_from_species":null,"generation":{"name":"generation-i"}}`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server
}

func newAppForTests(t *testing.T, args []string) (app *commands.App, out, errOut *bytes.Buffer) {
	t.Helper()

	out, errOut = &bytes.Buffer{}, &bytes.Buffer{}

	app, err := commands.New(commands.WithOutput(out, errOut), commands.WithRunID("test-run"))
	require.NoError(t, err, "Setup: could not create app")

	app.SetArgs(args)

	return app, out, errOut
}

func TestUsageErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		args []string

		wantUsageError bool
		wantErr        error
	}{
		"Unknown flag":              {args: []string{"--unknown"}, wantUsageError: true},
		"Positional argument":       {args: []string{"extra"}, wantUsageError: true},
		"Bad flag value":            {args: []string{"--start", "one"}, wantUsageError: true},
		"Preview without file":      {args: []string{"preview"}, wantUsageError: true},
		"Config init with two args": {args: []string{"config", "init", "a.yaml", "b.yaml"}, wantUsageError: true},

		"Invalid start is a runtime error":  {args: []string{"--start", "0"}, wantErr: config.ErrInvalidStartID},
		"Inverted range is a runtime error": {args: []string{"--start", "5", "--end", "4"}, wantErr: config.ErrInvalidRange},
		"Missing config file":               {args: []string{"--config", "/does/not/exist.yaml"}},
		"Unsupported config file":           {args: []string{"--config", "harvester.ini"}},
		"Invalid log level":                 {args: []string{"--log-level", "loud"}, wantErr: config.ErrInvalidLogLevel},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			app, _, _ := newAppForTests(t, tc.args)

			err := app.Run()
			require.Error(t, err, "Run should fail")
			assert.Equal(t, tc.wantUsageError, app.UsageError(), "UsageError should match")

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestHarvest(t *testing.T) {
	t.Parallel()

	server := newUpstream(t)
	dir := t.TempDir()
	output := filepath.Join(dir, "pokemon.json")
	metricsFile := filepath.Join(dir, "metrics", "harvester.prom")

	app, out, errOut := newAppForTests(t, []string{
		"--start", "1",
		"--end", "2",
		"--delay", "0s",
		"--follow-chain=false",
		"--pokemon-url", server.URL + "/pokemon",
		"--species-url", server.URL + "/species",
		"--output", output,
		"--write-metadata",
		"--metrics-file", metricsFile,
		"--preview", "5",
		"--log-format", "json",
	})

	require.NoError(t, app.Run(), "Run should succeed even with skipped IDs")

	progress := out.String()
	assert.Contains(t, progress, "--- Starting data collection for Pokémon IDs 1 to 2 ---\n")
	assert.Contains(t, progress, "Collected data for ID 1: Bulbasaur (Monster, Plant Egg Group(s))\n")
	assert.Contains(t, progress, "Skipping ID 2 due to failed API call.\n")
	assert.Contains(t, progress, "Data saved to '"+output+"'\n")
	assert.Contains(t, progress, "| 1   | Bulbasaur | Grass  | Poison |", "Preview table should follow the run")

	assert.Contains(t, errOut.String(), `"run_id":"test-run"`, "Logs should carry the run ID")

	records, err := sink.ReadJSON(output)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Bulbasaur", records[0].Name)
	assert.Nil(t, records[0].EvolutionChainID, "Chain should not be resolved when not followed")

	meta, err := metadata.Verify(output)
	require.NoError(t, err)
	assert.Equal(t, "test-run", meta.RunID)

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err, "Metrics textfile should be written")
	assert.Contains(t, string(prom), `harvester_records_total{result="collected"} 1`)
	assert.Contains(t, string(prom), `harvester_records_total{result="skipped"} 1`)
}

func TestHarvest_ConfigFileAndEnv(t *testing.T) {
	server := newUpstream(t)
	dir := t.TempDir()
	output := filepath.Join(dir, "from-env.json")

	cfg := config.Default()
	cfg.Harvest.StartID = 1
	cfg.Harvest.EndID = 151
	cfg.Harvest.DelayMs = 0
	cfg.Harvest.FollowEvolutionChain = false
	cfg.API.PokemonURL = server.URL + "/pokemon"
	cfg.API.SpeciesURL = server.URL + "/species"
	cfg.Output.Path = filepath.Join(dir, "from-file.json")

	configPath := filepath.Join(dir, "harvester.toml")
	require.NoError(t, cfg.SaveConfig(configPath), "Setup: could not write config file")

	t.Setenv("HARVESTER_END", "1")
	t.Setenv("HARVESTER_OUTPUT", output)

	app, out, _ := newAppForTests(t, []string{"--config", configPath})
	require.NoError(t, app.Run())

	assert.Contains(t, out.String(), "IDs 1 to 1 ---", "Environment should override the file range")

	_, err := os.Stat(output)
	require.NoError(t, err, "Environment should override the file output path")

	_, err = os.Stat(cfg.Output.Path)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfigInit(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		file   string
		exists bool
		force  bool

		wantErr error
	}{
		"Writes YAML":                   {file: "harvester.yaml"},
		"Writes TOML":                   {file: "harvester.toml"},
		"Refuses to overwrite":          {file: "harvester.yaml", exists: true, wantErr: commands.ErrConfigExists},
		"Overwrites with force":         {file: "harvester.yaml", exists: true, force: true},
		"Rejects unsupported extension": {file: "harvester.ini", wantErr: config.ErrUnsupportedFormat},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), tc.file)
			if tc.exists {
				require.NoError(t, os.WriteFile(path, []byte("harvest:\n  end_id: 3\n"), 0o600), "Setup: could not create file")
			}

			args := []string{"config", "init", path}
			if tc.force {
				args = append(args, "--force")
			}

			app, out, _ := newAppForTests(t, args)

			err := app.Run()
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.False(t, app.UsageError(), "Runtime failures are not usage errors")

				return
			}

			require.NoError(t, err)
			assert.Contains(t, out.String(), "Configuration written to")

			got, err := config.LoadConfig(path)
			require.NoError(t, err, "Written configuration should load back")
			assert.Equal(t, config.Default(), got)
		})
	}
}

func TestPreview(t *testing.T) {
	t.Parallel()

	hp := 45
	records := []models.Record{
		{ID: 1, Name: "Bulbasaur", Type1: "Grass", HP: &hp, EggGroups: []string{"Monster"}, Generation: 1},
		{ID: 4, Name: "Charmander", Type1: "Fire", EggGroups: []string{"Monster", "Dragon"}, Generation: 1},
	}

	tests := map[string]struct {
		args   []string
		tamper bool
		noSign bool

		want    []string
		notWant []string
		wantErr bool
	}{
		"Prints every record": {
			want: []string{"| Bulbasaur ", "| Charmander ", "| Monster, Dragon "},
		},
		"Limits rows": {
			args:    []string{"--rows", "1"},
			want:    []string{"| Bulbasaur ", "... and 1 more"},
			notWant: []string{"Charmander"},
		},
		"Verifies checksum": {
			args: []string{"--verify"},
			want: []string{"Checksum verified:", "(run preview-run)"},
		},
		"Error on tampered output": {
			args:    []string{"--verify"},
			tamper:  true,
			wantErr: true,
		},
		"Error on missing sidecar": {
			args:    []string{"--verify"},
			noSign:  true,
			wantErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "pokemon.json")

			digest, err := sink.WriteJSON(path, records, sink.WriteOptions{})
			require.NoError(t, err, "Setup: could not write records")

			if !tc.noSign {
				require.NoError(t, metadata.Sign(path, metadata.Metadata{RunID: "preview-run", Hash: digest, Records: len(records)}),
					"Setup: could not sign records")
			}

			if tc.tamper {
				require.NoError(t, os.WriteFile(path, []byte("[]"), 0o600), "Setup: could not tamper output")
			}

			app, out, _ := newAppForTests(t, append([]string{"preview", path}, tc.args...))

			err = app.Run()
			if tc.wantErr {
				require.Error(t, err)
				assert.False(t, app.UsageError())

				return
			}

			require.NoError(t, err)

			got := out.String()
			for _, w := range tc.want {
				assert.Contains(t, got, w)
			}

			for _, w := range tc.notWant {
				assert.NotContains(t, got, w)
			}

			assert.True(t, strings.HasPrefix(got, "| ID ") || strings.HasPrefix(got, "Checksum verified:"))
		})
	}
}
