package blacktop

import "sort"

// Standing is a team's aggregated record over its completed matches.
type Standing struct {
	TeamID   string `json:"team_id"`
	TeamName string `json:"team_name"`
	Played   int    `json:"played"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Scored   int    `json:"scored"`
	Conceded int    `json:"conceded"`
	Diff     int    `json:"diff"`
}

// ComputeStandings folds completed matches into a ranked per-team table.
// Every team gets a row even with zero matches played. Ranking tie-break:
// wins desc, then point differential desc, then points scored desc.
//
// Standings are recomputed in full on every call; callers that care about
// read cost cache the result.
func ComputeStandings(teams []Team, matches []Match) []Standing {
	byTeam := make(map[string]*Standing, len(teams))
	out := make([]Standing, 0, len(teams))
	for _, t := range teams {
		byTeam[t.ID] = &Standing{TeamID: t.ID, TeamName: t.Name}
	}

	for _, m := range matches {
		if !m.Completed {
			continue
		}
		home, away := byTeam[m.HomeTeamID], byTeam[m.AwayTeamID]
		if home == nil || away == nil {
			// Match references a team outside this tournament; skip it.
			continue
		}

		home.Played++
		away.Played++
		home.Scored += m.HomeScore
		home.Conceded += m.AwayScore
		away.Scored += m.AwayScore
		away.Conceded += m.HomeScore

		switch {
		case m.HomeScore > m.AwayScore:
			home.Wins++
			away.Losses++
		case m.AwayScore > m.HomeScore:
			away.Wins++
			home.Losses++
		}
		// Equal scores count toward played and points only; street rules
		// settle ties on the court, not in the table.
	}

	for _, t := range teams {
		s := byTeam[t.ID]
		s.Diff = s.Scored - s.Conceded
		out = append(out, *s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.Diff != b.Diff {
			return a.Diff > b.Diff
		}
		return a.Scored > b.Scored
	})
	return out
}
