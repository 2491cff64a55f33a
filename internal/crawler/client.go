package crawler

import (
	"context"
	"fmt"

	"pokedex/internal/config"
	"pokedex/internal/logger"
	"pokedex/internal/models"
)

// JSONFetcher fetches a URL and decodes its JSON body into v.
type JSONFetcher interface {
	Fetch(ctx context.Context, endpoint, url string, v any) Result
}

// Client joins the resources needed to build one record.
type Client struct {
	fetcher     JSONFetcher
	urlManager  *URLManager
	log         *logger.Logger
	followChain bool
}

// NewClient creates a new crawler client from the configuration.
func NewClient(cfg *config.Config, log *logger.Logger, opts ...Option) (*Client, error) {
	urlManager, err := NewURLManager(&cfg.API)
	if err != nil {
		return nil, err
	}

	fetcher := NewFetcherWithConfig(cfg, log, opts...)

	return NewClientWithDeps(fetcher, urlManager, cfg.Harvest.FollowEvolutionChain, log), nil
}

// NewClientWithDeps creates a new crawler client with injected dependencies.
func NewClientWithDeps(fetcher JSONFetcher, urlManager *URLManager, followChain bool, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewDiscard()
	}

	return &Client{
		fetcher:     fetcher,
		urlManager:  urlManager,
		log:         log,
		followChain: followChain,
	}
}

// URLManager returns the URL manager used by the client.
func (c *Client) URLManager() *URLManager {
	return c.urlManager
}

// Join fetches the pokemon and species payloads for id and, when enabled,
// the evolution chain the species references.
// ok is false when either required payload is absent. Both are always requested.
// A missing chain leaves Joined.Chain nil without failing the join.
func (c *Client) Join(ctx context.Context, id int) (models.Joined, bool) {
	joined := models.Joined{ID: id}

	var pokemon models.Pokemon

	pokemonOK := c.fetch(ctx, EndpointPokemon, c.urlManager.PokemonURL(id), &pokemon)

	var species models.Species

	speciesOK := c.fetch(ctx, EndpointSpecies, c.urlManager.SpeciesURL(id), &species)

	if !pokemonOK || !speciesOK {
		return joined, false
	}

	joined.Pokemon = &pokemon
	joined.Species = &species

	if !c.followChain {
		return joined, true
	}

	raw := species.ChainURL()
	if raw == "" {
		c.log.Debug("Species has no evolution chain reference", "id", id)

		return joined, true
	}

	chainURL, err := c.urlManager.ChainURL(raw)
	if err != nil {
		c.log.Warn("Ignoring evolution chain reference", "id", id, "error", err)

		return joined, true
	}

	var chain models.EvolutionChain
	if c.fetch(ctx, EndpointChain, chainURL, &chain) {
		joined.Chain = &chain
	}

	return joined, true
}

func (c *Client) fetch(ctx context.Context, endpoint, url string, v any) bool {
	res := c.fetcher.Fetch(ctx, endpoint, url, v)
	c.urlManager.RecordAttempt(endpoint, url, res)

	switch res.Outcome {
	case OutcomeOK:
		return true
	case OutcomeNotFound:
		c.log.Debug("Resource not found", "endpoint", endpoint, "url", url)
	case OutcomeUnknown, OutcomeBadStatus, OutcomeTransportError:
		c.log.Warn(fmt.Sprintf("Failed to fetch %s", endpoint),
			"url", url,
			"outcome", res.Outcome.String(),
			"status", res.StatusCode,
			"attempts", res.Attempts,
			"error", res.Err,
		)
	}

	return false
}
