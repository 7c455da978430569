package models

// TeamRef is the reference to a team embedded in a match.
type TeamRef struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name,omitempty"`
	Crest     string `json:"crest,omitempty"`
}

// TeamInfo is a team snapshot with its fixtures.
type TeamInfo struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	ShortName string          `json:"short_name,omitempty"`
	Crest     string          `json:"crest,omitempty"`
	Venue     string          `json:"venue,omitempty"`
	Matches   []MatchSnapshot `json:"matches,omitempty"`
}

// Ref returns the match-embedded reference for the team.
func (t TeamInfo) Ref() TeamRef {
	return TeamRef{ID: t.ID, Name: t.Name, ShortName: t.ShortName, Crest: t.Crest}
}
