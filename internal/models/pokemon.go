// Package models defines the upstream PokéAPI payloads and the flattened output record.
package models

// NamedResource is a {name, url} reference as returned by the API.
type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// APIResource is an unnamed reference that only carries a URL.
type APIResource struct {
	URL string `json:"url"`
}

// Pokemon is the primary resource payload (/pokemon/{id}).
//
// Fields read by the transform are pointers or slices so that a missing key
// can be told apart from a zero value.
type Pokemon struct {
	ID     int         `json:"id"`
	Name   *string     `json:"name"`
	Height *int        `json:"height"`
	Weight *int        `json:"weight"`
	Stats  []StatEntry `json:"stats"`
	Types  []TypeSlot  `json:"types"`
}

// StatEntry is one element of the pokemon stats list.
type StatEntry struct {
	Stat     NamedResource `json:"stat"`
	BaseStat int           `json:"base_stat"`
	Effort   int           `json:"effort"`
}

// TypeSlot is one element of the pokemon types list.
type TypeSlot struct {
	Type NamedResource `json:"type"`
	Slot int           `json:"slot"`
}

// Species is the secondary resource payload (/pokemon-species/{id}).
type Species struct {
	EvolvesFromSpecies *NamedResource  `json:"evolves_from_species"`
	Generation         *NamedResource  `json:"generation"`
	EvolutionChain     *APIResource    `json:"evolution_chain"`
	IsLegendary        *bool           `json:"is_legendary"`
	IsMythical         *bool           `json:"is_mythical"`
	EggGroups          []NamedResource `json:"egg_groups"`
}

// ChainURL returns the evolution chain reference, or "" when absent.
func (s *Species) ChainURL() string {
	if s == nil || s.EvolutionChain == nil {
		return ""
	}

	return s.EvolutionChain.URL
}

// EvolutionChain is the tertiary resource payload. Only its presence matters.
type EvolutionChain struct {
	ID int `json:"id"`
}

// Joined holds the payloads fetched for a single entity ID.
//
// Chain is set only when the evolution chain referenced by Species was fetched.
type Joined struct {
	Pokemon *Pokemon
	Species *Species
	Chain   *EvolutionChain
	ID      int
}
