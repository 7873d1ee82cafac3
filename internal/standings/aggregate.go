package standings

import "github.com/XavierBriggs/Pallas/pkg/models"

// League points awarded per result
const (
	PointsWin  = 3
	PointsDraw = 1
	PointsLoss = 0
)

// table is the working state of one standings computation. Entries keep the
// order in which teams were first seen.
type table struct {
	entries []*models.TeamStanding
	index   map[string]*models.TeamStanding
}

func newTable(capacity int) *table {
	return &table{
		entries: make([]*models.TeamStanding, 0, capacity),
		index:   make(map[string]*models.TeamStanding, capacity),
	}
}

// team returns the entry for name, creating a zeroed one on first sight
func (t *table) team(name string) *models.TeamStanding {
	if entry, ok := t.index[name]; ok {
		return entry
	}

	entry := &models.TeamStanding{
		TeamName:   name,
		HeadToHead: make(map[string]int),
	}
	t.index[name] = entry
	t.entries = append(t.entries, entry)
	return entry
}

// aggregate builds per-team statistics from scratch. Every team referenced by
// any fixture gets an entry, played or not; only played fixtures count.
func aggregate(matches []models.Match) []*models.TeamStanding {
	t := newTable(len(matches))

	for _, m := range matches {
		t.team(m.HomeTeam)
		t.team(m.AwayTeam)
	}

	for _, m := range matches {
		if !m.MatchPlayed {
			continue
		}

		home := t.team(m.HomeTeam)
		away := t.team(m.AwayTeam)

		home.MatchesPlayed++
		away.MatchesPlayed++

		home.GoalsFor += m.HomeTeamScore
		home.GoalsAgainst += m.AwayTeamScore
		away.GoalsFor += m.AwayTeamScore
		away.GoalsAgainst += m.HomeTeamScore

		home.GoalDifference = home.GoalsFor - home.GoalsAgainst
		away.GoalDifference = away.GoalsFor - away.GoalsAgainst

		homePts, awayPts := matchPoints(m.HomeTeamScore, m.AwayTeamScore)
		home.Points += homePts
		away.Points += awayPts

		recordHeadToHead(home, away, homePts, awayPts)
	}

	return t.entries
}

// matchPoints returns the league points awarded to each side
func matchPoints(homeScore, awayScore int) (homePts, awayPts int) {
	switch {
	case homeScore > awayScore:
		return PointsWin, PointsLoss
	case homeScore < awayScore:
		return PointsLoss, PointsWin
	default:
		return PointsDraw, PointsDraw
	}
}
