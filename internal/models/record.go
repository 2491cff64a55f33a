package models

// Record is the flattened output entity for one successfully joined ID.
//
// Field order is the serialized order; nil pointers serialize as null.
type Record struct {
	ID               int      `json:"ID"`
	Name             string   `json:"Name"`
	Type1            string   `json:"Type_1"`
	Type2            *string  `json:"Type_2"`
	HP               *int     `json:"HP"`
	Attack           *int     `json:"Attack"`
	Defense          *int     `json:"Defense"`
	Height           int      `json:"Height"`
	Weight           int      `json:"Weight"`
	EggGroups        []string `json:"Egg_Groups"`
	Legendary        bool     `json:"Legendary"`
	Mythical         bool     `json:"Mythical"`
	EvolvesFrom      *string  `json:"Evolves_from"`
	EvolutionChainID *int     `json:"Evolution_Chain_ID"`
	Generation       int      `json:"Generation"`
	TotalStats       int      `json:"Total_Stats"`
}
