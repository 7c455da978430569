package football_api_client

type Team struct {
	ID        ID      `json:"id"`
	Name      string  `json:"name"`
	ShortName string  `json:"shortName"`
	Crest     string  `json:"crest"`
	Venue     string  `json:"venue"`
	Matches   []Match `json:"matches"`
}
