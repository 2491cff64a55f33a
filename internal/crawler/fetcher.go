package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"pokedex/internal/config"
	"pokedex/internal/logger"
	"pokedex/pkg/utils"

	"golang.org/x/time/rate"
)

// Endpoint names used in logs and metrics.
const (
	EndpointPokemon = "pokemon"
	EndpointSpecies = "species"
	EndpointChain   = "evolution_chain"
)

// Fetch errors carried in Result.Err.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrNotFound             = errors.New("resource not found")
	ErrDecodeBody           = errors.New("failed to decode response body")
	ErrBodyTooLarge         = errors.New("response body exceeds size limit")
)

// Outcome classifies the result of a fetch.
type Outcome int

const (
	// OutcomeUnknown is the zero value: no attempt completed.
	OutcomeUnknown Outcome = iota
	// OutcomeOK means a 200 response with a decoded body.
	OutcomeOK
	// OutcomeNotFound means the upstream answered 404: a valid negative.
	OutcomeNotFound
	// OutcomeBadStatus means any other non-200 status.
	OutcomeBadStatus
	// OutcomeTransportError means no usable response: network failure,
	// timeout, cancelled context, unreadable, oversized or undecodable body.
	OutcomeTransportError
)

// String returns the label used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeBadStatus:
		return "bad_status"
	case OutcomeTransportError:
		return "transport_error"
	}

	return "unknown"
}

// Result describes a fetch. The decoded payload is only meaningful when Found is true.
type Result struct {
	Err        error
	Outcome    Outcome
	StatusCode int
	Attempts   int
	Duration   time.Duration
}

// Found reports whether the payload was retrieved.
func (r Result) Found() bool {
	return r.Outcome == OutcomeOK
}

// Observer receives one call per HTTP attempt.
type Observer interface {
	ObserveFetch(endpoint, outcome string, duration time.Duration)
}

// Fetcher performs GET requests against the upstream API and decodes JSON bodies.
// Failures never surface as Go errors: they are folded into the returned Result.
type Fetcher struct {
	client       *http.Client
	retryPolicy  *config.RetryPolicy
	limiter      *rate.Limiter
	headers      http.Header
	observer     Observer
	log          *logger.Logger
	sleep        func(context.Context, time.Duration) error
	bufferSizeKb int
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithObserver reports every attempt to o.
func WithObserver(o Observer) Option {
	return func(f *Fetcher) {
		f.observer = o
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// NewFetcher creates a fetcher with the default configuration.
func NewFetcher(opts ...Option) *Fetcher {
	return NewFetcherWithConfig(config.Default(), logger.NewDiscard(), opts...)
}

// NewFetcherWithConfig creates a fetcher from the api and retry sections of cfg.
func NewFetcherWithConfig(cfg *config.Config, log *logger.Logger, opts ...Option) *Fetcher {
	if log == nil {
		log = logger.NewDiscard()
	}

	retryPolicy := cfg.Retry
	retryPolicy.MaxAttempts = max(retryPolicy.MaxAttempts, 1)

	f := &Fetcher{
		client: &http.Client{
			Timeout: cfg.API.GetTimeout(),
		},
		retryPolicy:  &retryPolicy,
		headers:      utils.NewHTTPHelper().BuildHeaders(cfg.API.UserAgent, nil),
		log:          log,
		sleep:        utils.SleepContext,
		bufferSizeKb: cfg.API.BufferSizeKb,
	}

	if cfg.API.RequestsPerSecond > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(cfg.API.RequestsPerSecond), 1)
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch GETs url and decodes a 200 response body into v.
// Transport errors and retryable statuses are retried according to the retry policy.
func (f *Fetcher) Fetch(ctx context.Context, endpoint, url string, v any) Result {
	start := time.Now()

	res := Result{Outcome: OutcomeUnknown}

	for attempt := 1; attempt <= f.retryPolicy.MaxAttempts; attempt++ {
		res = f.attempt(ctx, endpoint, url, v)
		res.Attempts = attempt

		if res.Found() || attempt == f.retryPolicy.MaxAttempts || !f.shouldRetry(ctx, res) {
			break
		}

		delay := f.retryPolicy.GetRetryDelay(attempt + 1)
		f.log.Debug("Retrying fetch",
			"endpoint", endpoint,
			"url", url,
			"attempt", attempt,
			"outcome", res.Outcome.String(),
			"delay", delay,
		)

		if err := f.sleep(ctx, delay); err != nil {
			res = Result{Outcome: OutcomeTransportError, Err: err, Attempts: attempt}

			break
		}
	}

	res.Duration = time.Since(start)

	return res
}

func (f *Fetcher) attempt(ctx context.Context, endpoint, url string, v any) Result {
	start := time.Now()
	res := f.do(ctx, url, v)

	if f.observer != nil {
		f.observer.ObserveFetch(endpoint, res.Outcome.String(), time.Since(start))
	}

	return res
}

func (f *Fetcher) do(ctx context.Context, url string, v any) Result {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return Result{Outcome: OutcomeTransportError, Err: fmt.Errorf("rate limiter: %w", err)}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return Result{Outcome: OutcomeTransportError, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header = f.headers.Clone()

	resp, err := f.client.Do(req)
	if err != nil {
		return Result{Outcome: OutcomeTransportError, Err: fmt.Errorf("request failed: %w", err)}
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return Result{Outcome: OutcomeNotFound, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %s", ErrNotFound, url)}
	}

	if resp.StatusCode != http.StatusOK {
		return Result{
			Outcome:    OutcomeBadStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode),
		}
	}

	// bufferSizeKb is in KB, convert to bytes
	limit := int64(f.bufferSizeKb) * 1024

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return Result{Outcome: OutcomeTransportError, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if int64(len(body)) > limit {
		return Result{Outcome: OutcomeTransportError, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %d KB", ErrBodyTooLarge, f.bufferSizeKb)}
	}

	if err := json.Unmarshal(body, v); err != nil {
		return Result{Outcome: OutcomeTransportError, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %w", ErrDecodeBody, err)}
	}

	return Result{Outcome: OutcomeOK, StatusCode: resp.StatusCode}
}

func (f *Fetcher) shouldRetry(ctx context.Context, res Result) bool {
	if ctx.Err() != nil {
		return false
	}

	switch res.Outcome {
	case OutcomeTransportError:
		return !errors.Is(res.Err, ErrDecodeBody) && !errors.Is(res.Err, ErrBodyTooLarge)
	case OutcomeBadStatus:
		return isRetryableStatus(res.StatusCode)
	case OutcomeUnknown, OutcomeOK, OutcomeNotFound:
		return false
	}

	return false
}

// isRetryableStatus determines if we should retry based on HTTP status code.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusTooManyRequests,
		http.StatusRequestTimeout:
		return true
	}

	return false
}
