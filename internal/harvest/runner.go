// Package harvest runs the fetch, join, transform and accumulate loop over an ID range.
package harvest

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"pokedex/internal/config"
	"pokedex/internal/logger"
	"pokedex/internal/models"
	"pokedex/internal/normalizer"
	"pokedex/internal/sink"
	"pokedex/pkg/metadata"
	"pokedex/pkg/utils"

	"github.com/ubuntu/decorate"
)

// Joiner resolves the payloads of one ID. ok is false when a required payload is absent.
type Joiner interface {
	Join(ctx context.Context, id int) (joined models.Joined, ok bool)
}

// RecordObserver is told about every collected or skipped ID.
type RecordObserver interface {
	RecordCollected()
	RecordSkipped()
}

// Options controls a single run.
type Options struct {
	RunID         string
	OutputPath    string
	StartID       int
	EndID         int
	Delay         time.Duration
	DelayOnSkip   bool
	CreateBackup  bool
	WriteMetadata bool
}

// OptionsFromConfig builds run options from the harvest and output sections.
func OptionsFromConfig(cfg *config.Config, runID string) Options {
	return Options{
		RunID:         runID,
		OutputPath:    cfg.Output.Path,
		StartID:       cfg.Harvest.StartID,
		EndID:         cfg.Harvest.EndID,
		Delay:         cfg.GetDelay(),
		DelayOnSkip:   cfg.Harvest.DelayOnSkip,
		CreateBackup:  cfg.Output.CreateBackup,
		WriteMetadata: cfg.Output.WriteMetadata,
	}
}

// Summary describes a completed run.
type Summary struct {
	RunID      string
	OutputPath string
	Checksum   string
	Records    []models.Record
	Collected  int
	Skipped    int
	Duration   time.Duration
}

// Runner drives the loop. It is not safe for concurrent use.
type Runner struct {
	joiner    Joiner
	processor *normalizer.Processor
	observer  RecordObserver
	out       io.Writer
	log       *logger.Logger
	sleep     func(context.Context, time.Duration) error
	opts      Options
}

// Option customizes a Runner.
type Option func(*Runner)

// WithOutput sends progress lines to w instead of stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		r.out = w
	}
}

// WithObserver reports collected and skipped IDs to o.
func WithObserver(o RecordObserver) Option {
	return func(r *Runner) {
		r.observer = o
	}
}

// NewRunner creates a runner over joiner.
func NewRunner(joiner Joiner, opts Options, log *logger.Logger, runnerOpts ...Option) *Runner {
	if log == nil {
		log = logger.NewDiscard()
	}

	r := &Runner{
		joiner:    joiner,
		processor: normalizer.NewProcessor(),
		out:       os.Stdout,
		log:       log,
		sleep:     utils.SleepContext,
		opts:      opts,
	}

	for _, opt := range runnerOpts {
		opt(r)
	}

	return r
}

// Run collects every ID of the range in ascending order and writes the result set once at the end.
// IDs whose required payloads are absent are skipped. Transform errors and cancellation abort
// the run and nothing is written.
func (r *Runner) Run(ctx context.Context) (summary Summary, err error) {
	defer decorate.OnError(&err, "harvest of IDs %d to %d failed", r.opts.StartID, r.opts.EndID)

	start := time.Now()
	summary = Summary{RunID: r.opts.RunID, OutputPath: r.opts.OutputPath}
	acc := sink.NewAccumulator()

	r.log.Info("Starting harvest", "start_id", r.opts.StartID, "end_id", r.opts.EndID, "output", r.opts.OutputPath)
	r.printf("--- Starting data collection for Pokémon IDs %d to %d ---\n", r.opts.StartID, r.opts.EndID)

	for id := r.opts.StartID; id <= r.opts.EndID; id++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		joined, ok := r.joiner.Join(ctx, id)
		if !ok {
			// A join cut short by cancellation is not a skip
			if err := ctx.Err(); err != nil {
				return summary, err
			}

			summary.Skipped++
			r.recordSkipped()
			r.printf("Skipping ID %d due to failed API call.\n", id)

			if r.opts.DelayOnSkip {
				if err := r.sleep(ctx, r.opts.Delay); err != nil {
					return summary, err
				}
			}

			continue
		}

		record, err := r.processor.Process(id, joined)
		if err != nil {
			return summary, err
		}

		if err := acc.Append(record); err != nil {
			return summary, err
		}

		summary.Collected++
		r.recordCollected()
		r.printf("Collected data for ID %d: %s (%s Egg Group(s))\n", id, record.Name, strings.Join(record.EggGroups, ", "))

		if err := r.sleep(ctx, r.opts.Delay); err != nil {
			return summary, err
		}
	}

	r.printf("\n--- Data Collection Complete ---\n")
	r.printf("Successfully collected data for %d Pokémon.\n", acc.Len())

	summary.Records = acc.Records()

	checksum, err := sink.WriteJSON(r.opts.OutputPath, summary.Records, sink.WriteOptions{CreateBackup: r.opts.CreateBackup})
	if err != nil {
		return summary, err
	}

	summary.Checksum = checksum

	if r.opts.WriteMetadata {
		err := metadata.Sign(r.opts.OutputPath, metadata.Metadata{
			RunID:   r.opts.RunID,
			Hash:    checksum,
			Records: acc.Len(),
			StartID: r.opts.StartID,
			EndID:   r.opts.EndID,
		})
		if err != nil {
			return summary, err
		}
	}

	r.printf("Data saved to '%s'\n", r.opts.OutputPath)

	summary.Duration = time.Since(start)
	r.log.Info("Harvest complete",
		"collected", summary.Collected,
		"skipped", summary.Skipped,
		"checksum", summary.Checksum,
		"duration", summary.Duration,
	)

	return summary, nil
}

func (r *Runner) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(r.out, format, args...); err != nil {
		r.log.Debug("Failed to write progress line", "error", err)
	}
}

func (r *Runner) recordCollected() {
	if r.observer != nil {
		r.observer.RecordCollected()
	}
}

func (r *Runner) recordSkipped() {
	if r.observer != nil {
		r.observer.RecordSkipped()
	}
}
