package crawler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"pokedex/internal/config"
	"pokedex/internal/logger"
	"pokedex/pkg/utils"
)

// URL manager errors.
var (
	ErrInvalidBaseURL  = errors.New("invalid endpoint base URL")
	ErrInvalidChainRef = errors.New("invalid evolution chain reference")
)

// URLManager builds resource URLs from the configured endpoint bases and
// keeps a log of every fetch made through the client.
type URLManager struct {
	attemptLog map[string][]AttemptResult
	pokemonURL string
	speciesURL string
	order      []string
	mu         sync.Mutex
}

// AttemptResult records the result of a URL fetch.
type AttemptResult struct {
	Timestamp  time.Time
	Endpoint   string
	URL        string
	Error      string
	Outcome    string
	Attempts   int
	Duration   time.Duration
	StatusCode int
	Success    bool
}

// NewURLManager creates a new URL manager from the api section of the configuration.
func NewURLManager(cfg *config.APIConfig) (*URLManager, error) {
	httpHelper := utils.NewHTTPHelper()

	for _, base := range []string{cfg.PokemonURL, cfg.SpeciesURL} {
		if !httpHelper.IsValidURL(base) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, base)
		}
	}

	return &URLManager{
		pokemonURL: strings.TrimRight(cfg.PokemonURL, "/"),
		speciesURL: strings.TrimRight(cfg.SpeciesURL, "/"),
		attemptLog: make(map[string][]AttemptResult),
	}, nil
}

// PokemonURL returns the primary resource URL for id.
func (um *URLManager) PokemonURL(id int) string {
	return um.pokemonURL + "/" + strconv.Itoa(id)
}

// SpeciesURL returns the secondary resource URL for id.
func (um *URLManager) SpeciesURL(id int) string {
	return um.speciesURL + "/" + strconv.Itoa(id)
}

// ChainURL validates an evolution chain reference taken from a species payload.
func (um *URLManager) ChainURL(raw string) (string, error) {
	if !utils.NewHTTPHelper().IsValidURL(raw) {
		return "", fmt.Errorf("%w: %q", ErrInvalidChainRef, raw)
	}

	return raw, nil
}

// RecordAttempt records the result of a fetch.
func (um *URLManager) RecordAttempt(endpoint, url string, res Result) {
	um.mu.Lock()
	defer um.mu.Unlock()

	if _, seen := um.attemptLog[url]; !seen {
		um.order = append(um.order, url)
	}

	errMsg := ""
	if res.Err != nil {
		errMsg = res.Err.Error()
	}

	um.attemptLog[url] = append(um.attemptLog[url], AttemptResult{
		Timestamp:  time.Now(),
		Endpoint:   endpoint,
		URL:        url,
		Error:      errMsg,
		Outcome:    res.Outcome.String(),
		Attempts:   res.Attempts,
		Duration:   res.Duration,
		StatusCode: res.StatusCode,
		Success:    res.Found(),
	})
}

// GetAttemptLog returns the attempt log for a URL.
func (um *URLManager) GetAttemptLog(url string) []AttemptResult {
	um.mu.Lock()
	defer um.mu.Unlock()

	return append([]AttemptResult(nil), um.attemptLog[url]...)
}

// GetAttemptStats returns statistics about fetch attempts.
func (um *URLManager) GetAttemptStats() AttemptStats {
	um.mu.Lock()
	defer um.mu.Unlock()

	stats := AttemptStats{
		TotalURLs:      len(um.attemptLog),
		OutcomeCounts:  make(map[string]int),
		EndpointCounts: make(map[string]int),
	}

	for _, results := range um.attemptLog {
		urlSuccess := false

		for _, result := range results {
			stats.TotalFetches++
			stats.TotalAttempts += result.Attempts
			stats.OutcomeCounts[result.Outcome]++
			stats.EndpointCounts[result.Endpoint]++

			if result.Success {
				urlSuccess = true
			}
		}

		if urlSuccess {
			stats.SuccessfulURLs++
		} else {
			stats.FailedURLs++
		}
	}

	return stats
}

// AttemptStats contains statistics about fetch attempts.
type AttemptStats struct {
	OutcomeCounts  map[string]int
	EndpointCounts map[string]int
	TotalURLs      int
	SuccessfulURLs int
	FailedURLs     int
	TotalFetches   int
	TotalAttempts  int
}

// String returns a string representation of attempt stats.
func (s AttemptStats) String() string {
	return fmt.Sprintf(
		"URLs: %d total, %d success, %d failed | Fetches: %d (%d HTTP attempts) | not_found: %d, bad_status: %d, transport_error: %d",
		s.TotalURLs,
		s.SuccessfulURLs,
		s.FailedURLs,
		s.TotalFetches,
		s.TotalAttempts,
		s.OutcomeCounts[OutcomeNotFound.String()],
		s.OutcomeCounts[OutcomeBadStatus.String()],
		s.OutcomeCounts[OutcomeTransportError.String()],
	)
}

// LogAttemptSummary logs failed fetches and the overall statistics.
func (um *URLManager) LogAttemptSummary(l *logger.Logger) {
	um.mu.Lock()
	order := append([]string(nil), um.order...)
	um.mu.Unlock()

	for _, url := range order {
		results := um.GetAttemptLog(url)
		last := results[len(results)-1]

		if last.Success {
			continue
		}

		l.Debug("Fetch failed",
			"endpoint", last.Endpoint,
			"url", url,
			"outcome", last.Outcome,
			"status", last.StatusCode,
			"attempts", last.Attempts,
			"error", last.Error,
		)
	}

	l.Info(fmt.Sprintf("Fetch summary: %s", um.GetAttemptStats()))
}

// Reset clears the attempt log.
func (um *URLManager) Reset() {
	um.mu.Lock()
	defer um.mu.Unlock()

	um.attemptLog = make(map[string][]AttemptResult)
	um.order = nil
}
