package standings

import "github.com/XavierBriggs/Pallas/pkg/models"

// recordHeadToHead adds the points each side earned in one fixture to its
// running total against that specific opponent
func recordHeadToHead(home, away *models.TeamStanding, homePts, awayPts int) {
	home.HeadToHead[away.TeamName] += homePts
	away.HeadToHead[home.TeamName] += awayPts
}

// headToHeadPoints returns the points team earned against opponent. Teams
// that never met count as 0.
func headToHeadPoints(team *models.TeamStanding, opponent string) int {
	return team.HeadToHead[opponent]
}
