package football_api_client

type Stage struct {
	Name     string `json:"name"`
	MatchIDs []ID   `json:"matchIds"`
}

type Competition struct {
	ID      ID      `json:"id"`
	Name    string  `json:"name"`
	Season  string  `json:"season"`
	Matches []Match `json:"matches"`
	Stages  []Stage `json:"stages"`
}
