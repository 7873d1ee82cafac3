package models

import (
	"fmt"
	"time"
)

// Match represents a single fixture as delivered by the league API
type Match struct {
	MatchDate     int64  `json:"matchDate"` // epoch milliseconds
	Stadium       string `json:"stadium"`
	HomeTeam      string `json:"homeTeam"`
	AwayTeam      string `json:"awayTeam"`
	MatchPlayed   bool   `json:"matchPlayed"`
	HomeTeamScore int    `json:"homeTeamScore"` // only meaningful when MatchPlayed
	AwayTeamScore int    `json:"awayTeamScore"`
}

// Kickoff returns the match date as a time.Time
func (m Match) Kickoff() time.Time {
	return time.UnixMilli(m.MatchDate).UTC()
}

// Key identifies a fixture within a competition
// Format: {home}:{away}:{match_date}
func (m Match) Key() string {
	return fmt.Sprintf("%s:%s:%d", m.HomeTeam, m.AwayTeam, m.MatchDate)
}

// SameResult reports whether two records carry the same played flag and score
func (m Match) SameResult(other Match) bool {
	if m.MatchPlayed != other.MatchPlayed {
		return false
	}
	if !m.MatchPlayed {
		return true
	}
	return m.HomeTeamScore == other.HomeTeamScore && m.AwayTeamScore == other.AwayTeamScore
}

// TeamStanding is one row of the league table. It is rebuilt on every
// standings computation and never persisted.
type TeamStanding struct {
	TeamName       string `json:"teamName"`
	MatchesPlayed  int    `json:"matchesPlayed"`
	GoalsFor       int    `json:"goalsFor"`
	GoalsAgainst   int    `json:"goalsAgainst"`
	GoalDifference int    `json:"goalDifference"`
	Points         int    `json:"points"`

	// HeadToHead maps opponent name to points earned against that opponent
	HeadToHead map[string]int `json:"headToHead"`
}

// ChangeType indicates how a fixture differs from its previously seen version
type ChangeType string

const (
	ChangeTypeNew    ChangeType = "new"
	ChangeTypeResult ChangeType = "result"
	ChangeTypeVenue  ChangeType = "venue"
	ChangeTypeNone   ChangeType = "none"
)

// Change represents a detected fixture change
type Change struct {
	Match      Match
	ChangeType ChangeType
	Previous   *Match
}
