package normalizer

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"pokedex/internal/models"
	"pokedex/pkg/utils"
)

// ErrInvalidChainURL is returned when the evolution chain ID cannot be read from its URL.
var ErrInvalidChainURL = errors.New("invalid evolution chain URL")

// Stat names read into dedicated record fields.
const (
	statHP      = "hp"
	statAttack  = "attack"
	statDefense = "defense"
)

// Transformer flattens joined payloads into output records.
// It performs no I/O and holds no state between calls.
type Transformer struct {
	caser *utils.StringHelper
}

// NewTransformer creates a new transformer instance.
func NewTransformer() *Transformer {
	return &Transformer{
		caser: utils.NewStringHelper(),
	}
}

// Transform converts validated payloads into a record for id.
func (t *Transformer) Transform(id int, joined models.Joined) (models.Record, error) {
	p, s := joined.Pokemon, joined.Species

	generation, err := models.ParseGeneration(s.Generation.Name)
	if err != nil {
		return models.Record{}, err
	}

	types := make([]string, 0, len(p.Types))
	for _, slot := range p.Types {
		types = append(types, t.caser.Capitalize(slot.Type.Name))
	}

	eggGroups := make([]string, 0, len(s.EggGroups))
	for _, group := range s.EggGroups {
		eggGroups = append(eggGroups, group.Name)
	}

	stats := statMap(p.Stats)

	record := models.Record{
		ID:         id,
		Name:       t.caser.Capitalize(*p.Name),
		Type1:      types[0],
		HP:         lookup(stats, statHP),
		Attack:     lookup(stats, statAttack),
		Defense:    lookup(stats, statDefense),
		Height:     *p.Height,
		Weight:     *p.Weight,
		EggGroups:  t.caser.CapitalizeAll(eggGroups),
		Legendary:  *s.IsLegendary,
		Mythical:   *s.IsMythical,
		Generation: generation,
	}

	if len(types) > 1 {
		record.Type2 = &types[1]
	}

	for _, v := range stats {
		record.TotalStats += v
	}

	if s.EvolvesFromSpecies != nil && s.EvolvesFromSpecies.Name != "" {
		from := t.caser.Capitalize(s.EvolvesFromSpecies.Name)
		record.EvolvesFrom = &from
	}

	if joined.Chain != nil {
		chainID, err := ChainIDFromURL(s.ChainURL())
		if err != nil {
			return models.Record{}, err
		}

		record.EvolutionChainID = &chainID
	}

	return record, nil
}

// ChainIDFromURL reads the numeric path segment immediately before the
// trailing slash of an evolution chain URL: ".../evolution-chain/12/" gives 12.
func ChainIDFromURL(raw string) (int, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidChainURL, raw, err)
	}

	trimmed, ok := strings.CutSuffix(u.Path, "/")
	if !ok {
		return 0, fmt.Errorf("%w: %q: no trailing slash", ErrInvalidChainURL, raw)
	}

	segment := trimmed[strings.LastIndex(trimmed, "/")+1:]

	id, err := strconv.Atoi(segment)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidChainURL, raw)
	}

	return id, nil
}

// statMap builds a name to base value map. Later duplicates win.
func statMap(entries []models.StatEntry) map[string]int {
	stats := make(map[string]int, len(entries))
	for _, e := range entries {
		stats[e.Stat.Name] = e.BaseStat
	}

	return stats
}

func lookup(stats map[string]int, name string) *int {
	v, ok := stats[name]
	if !ok {
		return nil
	}

	return &v
}
