package models

// CompetitionInfo is a competition snapshot with its matches and knockout stages.
type CompetitionInfo struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Season  string          `json:"season,omitempty"`
	Matches []MatchSnapshot `json:"matches,omitempty"`
	Stages  []Stage         `json:"stages,omitempty"`
}

// Stage is one round of a knockout bracket. Slot i of the stage is MatchIDs[i].
type Stage struct {
	Name     string   `json:"name"`
	MatchIDs []string `json:"match_ids"`
}

// Slots returns the number of bracket slots in the stage.
func (s Stage) Slots() int {
	return len(s.MatchIDs)
}

// MatchIDs returns the ids of every match in the competition.
func (c CompetitionInfo) MatchIDs() []string {
	ids := make([]string, 0, len(c.Matches))
	for _, m := range c.Matches {
		ids = append(ids, m.ID)
	}
	return ids
}

// UnlistedStageMatchIDs returns the bracket match ids missing from Matches, in stage order
// and without duplicates.
func (c CompetitionInfo) UnlistedStageMatchIDs() []string {
	seen := make(map[string]bool)
	for _, id := range c.MatchIDs() {
		seen[id] = true
	}

	var missing []string
	for _, stage := range c.Stages {
		for _, id := range stage.MatchIDs {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			missing = append(missing, id)
		}
	}
	return missing
}
