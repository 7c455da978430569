package football_api_client

type Score struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

type TeamRef struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
	Crest     string `json:"crest"`
}

type Match struct {
	ID                 ID        `json:"id"`
	CompetitionID      ID        `json:"competitionId"`
	Status             string    `json:"status"`
	Result             *string   `json:"result"`
	StartTime          DateTuple `json:"startTime"`
	StatusLastModified DateTuple `json:"statusLastModified"`
	Score              Score     `json:"score"`
	RedCards           Score     `json:"redCards"`
	HomeTeam           TeamRef   `json:"homeTeam"`
	AwayTeam           TeamRef   `json:"awayTeam"`
}
