package snapshot

import (
	"fmt"

	api "github.com/mcdev12/matchlive/go/clients/football_api_client"
	"github.com/mcdev12/matchlive/go/internal/models"
)

func mapMatch(m api.Match) (models.MatchSnapshot, error) {
	status := models.MatchStatus(m.Status)
	if !status.Valid() {
		return models.MatchSnapshot{}, fmt.Errorf("match %s: unknown status %q", m.ID, m.Status)
	}

	result := models.ResultNone
	if m.Result != nil {
		result = models.Result(*m.Result)
	}

	return models.MatchSnapshot{
		ID:                 string(m.ID),
		CompetitionID:      string(m.CompetitionID),
		Status:             status,
		Result:             result,
		StartTime:          m.StartTime.Time,
		StatusLastModified: m.StatusLastModified.Ptr(),
		Score:              models.SideCounts{Home: m.Score.Home, Away: m.Score.Away},
		RedCards:           models.SideCounts{Home: m.RedCards.Home, Away: m.RedCards.Away},
		HomeTeam:           mapTeamRef(m.HomeTeam),
		AwayTeam:           mapTeamRef(m.AwayTeam),
	}, nil
}

func mapMatches(in []api.Match) ([]models.MatchSnapshot, error) {
	out := make([]models.MatchSnapshot, 0, len(in))
	for _, m := range in {
		snap, err := mapMatch(m)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

func mapTeamRef(t api.TeamRef) models.TeamRef {
	return models.TeamRef{
		ID:        string(t.ID),
		Name:      t.Name,
		ShortName: t.ShortName,
		Crest:     t.Crest,
	}
}

func mapTeam(t api.Team) (models.TeamInfo, error) {
	matches, err := mapMatches(t.Matches)
	if err != nil {
		return models.TeamInfo{}, err
	}
	return models.TeamInfo{
		ID:        string(t.ID),
		Name:      t.Name,
		ShortName: t.ShortName,
		Crest:     t.Crest,
		Venue:     t.Venue,
		Matches:   matches,
	}, nil
}

func mapCompetition(c api.Competition) (models.CompetitionInfo, error) {
	matches, err := mapMatches(c.Matches)
	if err != nil {
		return models.CompetitionInfo{}, err
	}

	stages := make([]models.Stage, 0, len(c.Stages))
	for _, s := range c.Stages {
		ids := make([]string, 0, len(s.MatchIDs))
		for _, id := range s.MatchIDs {
			ids = append(ids, string(id))
		}
		stages = append(stages, models.Stage{Name: s.Name, MatchIDs: ids})
	}

	return models.CompetitionInfo{
		ID:      string(c.ID),
		Name:    c.Name,
		Season:  c.Season,
		Matches: matches,
		Stages:  stages,
	}, nil
}
