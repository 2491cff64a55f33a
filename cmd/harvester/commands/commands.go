// Package commands is the cobra command tree of the harvester.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"pokedex/internal/config"
	"pokedex/internal/crawler"
	"pokedex/internal/formatter"
	"pokedex/internal/harvest"
	"pokedex/internal/logger"
	"pokedex/internal/metrics"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const cmdName = "harvester"

// App is the harvester command line application.
type App struct {
	cmd   *cobra.Command
	viper *viper.Viper

	ctx    context.Context
	out    io.Writer
	errOut io.Writer
	newID  func() string
}

type options struct {
	ctx    context.Context
	out    io.Writer
	errOut io.Writer
	newID  func() string
}

// Options represents an optional function to override App default values.
type Options func(*options)

// WithContext sets the context cancelled on shutdown signals.
func WithContext(ctx context.Context) Options {
	return func(o *options) {
		o.ctx = ctx
	}
}

// New registers commands and returns a new App.
func New(args ...Options) (*App, error) {
	opts := options{
		ctx:    context.Background(),
		out:    os.Stdout,
		errOut: os.Stderr,
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range args {
		opt(&opts)
	}

	a := App{
		ctx:    opts.ctx,
		out:    opts.out,
		errOut: opts.errOut,
		newID:  opts.newID,
	}

	a.cmd = &cobra.Command{
		Use:   cmdName,
		Short: "Collect Pokémon data from PokéAPI into a JSON file",
		Long: `Collect Pokémon data from PokéAPI into a JSON file.

Every ID of the configured range is fetched from the pokemon and species
endpoints, joined, normalized and appended to the result set. IDs whose
payloads are unavailable are skipped. The result set is written once, after
the last ID. Flags and HARVESTER_* environment variables override the
configuration file.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Command parsing has been successful. Returns to not print usage anymore.
			a.cmd.SilenceUsage = true
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}

			return a.harvest(cmd.Context(), cfg)
		},
	}
	a.cmd.SetOut(a.out)
	a.cmd.SetErr(a.errOut)

	a.viper = viper.New()
	a.viper.SetEnvPrefix(cmdName)
	a.viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.viper.AutomaticEnv()

	if err := installRootFlags(&a); err != nil {
		return nil, err
	}

	installConfigCmd(&a)
	installPreviewCmd(&a)

	return &a, nil
}

func installRootFlags(a *App) error {
	flags := a.cmd.Flags()
	persistent := a.cmd.PersistentFlags()

	persistent.StringP("config", "c", "", "path to a YAML or TOML configuration file")
	persistent.String("log-level", "", "log level: debug, info, warn or error")
	persistent.String("log-format", "", "log format: text or json")

	flags.Int("start", config.DefaultStartID, "first ID of the range")
	flags.Int("end", config.DefaultEndID, "last ID of the range, inclusive")
	flags.StringP("output", "o", config.DefaultOutputPath, "path of the JSON output file")
	flags.Duration("delay", config.DefaultDelayMs*time.Millisecond, "pause after each collected ID")
	flags.Bool("delay-on-skip", false, "also pause after skipped IDs")
	flags.Bool("follow-chain", true, "fetch the evolution chain to resolve Evolution_Chain_ID")
	flags.String("pokemon-url", config.DefaultPokemonURL, "base URL of the pokemon endpoint")
	flags.String("species-url", config.DefaultSpeciesURL, "base URL of the species endpoint")
	flags.Float64("rps", 0, "maximum requests per second, 0 for unlimited")
	flags.Duration("timeout", 30*time.Second, "HTTP request timeout")
	flags.Int("retries", 1, "attempts per request for transient failures")
	flags.Bool("backup", false, "keep the previous output file as <output>.bak")
	flags.Bool("write-metadata", false, "write a checksum sidecar next to the output file")
	flags.String("metrics-file", "", "write Prometheus metrics to this textfile at the end of the run")
	flags.Int("preview", 0, "print the first N records as a markdown table")

	if err := a.viper.BindPFlags(persistent); err != nil {
		return fmt.Errorf("could not bind persistent flags: %w", err)
	}

	if err := a.viper.BindPFlags(flags); err != nil {
		return fmt.Errorf("could not bind flags: %w", err)
	}

	return nil
}

// loadConfig reads the configuration file, if any, and applies the flags and
// environment variables that were explicitly set.
func (a *App) loadConfig() (*config.Config, error) {
	cfg := config.Default()

	if path := a.viper.GetString("config"); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}

		cfg = loaded
	}

	v := a.viper

	setInt := func(key string, dst *int) {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}
	setBool := func(key string, dst *bool) {
		if v.IsSet(key) {
			*dst = v.GetBool(key)
		}
	}
	setString := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	setInt("start", &cfg.Harvest.StartID)
	setInt("end", &cfg.Harvest.EndID)
	setBool("delay-on-skip", &cfg.Harvest.DelayOnSkip)
	setBool("follow-chain", &cfg.Harvest.FollowEvolutionChain)
	setString("output", &cfg.Output.Path)
	setBool("backup", &cfg.Output.CreateBackup)
	setBool("write-metadata", &cfg.Output.WriteMetadata)
	setInt("preview", &cfg.Output.PreviewRows)
	setString("pokemon-url", &cfg.API.PokemonURL)
	setString("species-url", &cfg.API.SpeciesURL)
	setInt("retries", &cfg.Retry.MaxAttempts)
	setString("log-level", &cfg.Logging.Level)
	setString("log-format", &cfg.Logging.Format)
	setString("metrics-file", &cfg.Metrics.TextfilePath)

	if v.IsSet("delay") {
		cfg.Harvest.DelayMs = int(v.GetDuration("delay").Milliseconds())
	}

	if v.IsSet("timeout") {
		cfg.API.TimeoutSec = int(v.GetDuration("timeout").Round(time.Second).Seconds())
	}

	if v.IsSet("rps") {
		cfg.API.RequestsPerSecond = v.GetFloat64("rps")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// harvest runs one collection over the configured range.
func (a *App) harvest(ctx context.Context, cfg *config.Config) error {
	runID := a.newID()
	log := logger.New(a.errOut, cfg.Logging.Level, cfg.Logging.Format).With("run_id", runID)

	log.Debug("Loaded configuration", "config", cfg.String())

	recorder := metrics.New()

	client, err := crawler.NewClient(cfg, log, crawler.WithObserver(recorder))
	if err != nil {
		return err
	}

	runner := harvest.NewRunner(client, harvest.OptionsFromConfig(cfg, runID), log,
		harvest.WithOutput(a.out), harvest.WithObserver(recorder))

	summary, runErr := runner.Run(ctx)

	client.URLManager().LogAttemptSummary(log)

	if path := cfg.Metrics.TextfilePath; path != "" {
		if err := recorder.WriteTextfile(path); err != nil {
			log.Warn("Failed to write metrics textfile", "path", path, "error", err)
			runErr = errors.Join(runErr, err)
		}
	}

	if runErr != nil {
		return runErr
	}

	if cfg.Output.PreviewRows > 0 {
		fmt.Fprintf(a.out, "\n%s\n", formatter.FormatRecords(summary.Records, cfg.Output.PreviewRows))
	}

	return nil
}

// Run executes the command and associated process, returning an error if any.
func (a *App) Run() error {
	return a.cmd.ExecuteContext(a.ctx)
}

// UsageError returns if the error is a command parsing or runtime one.
func (a App) UsageError() bool {
	return !a.cmd.SilenceUsage
}
