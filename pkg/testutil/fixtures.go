package testutil

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/XavierBriggs/Pallas/pkg/models"
)

// baseKickoff is the kickoff of the first generated fixture (2022-05-05 09:50:28.685 UTC)
const baseKickoff int64 = 1651744228685

var kickoffSeq struct {
	mu   sync.Mutex
	next int64
}

// nextKickoff hands out distinct, increasing match dates so fixture keys never collide
func nextKickoff() int64 {
	kickoffSeq.mu.Lock()
	defer kickoffSeq.mu.Unlock()
	kickoffSeq.next++
	return baseKickoff + kickoffSeq.next*int64(time.Hour/time.Millisecond)
}

// NewPlayedMatch creates a completed fixture
func NewPlayedMatch(homeTeam, awayTeam string, homeScore, awayScore int) models.Match {
	return models.Match{
		MatchDate:     nextKickoff(),
		Stadium:       homeTeam + " Stadium",
		HomeTeam:      homeTeam,
		AwayTeam:      awayTeam,
		MatchPlayed:   true,
		HomeTeamScore: homeScore,
		AwayTeamScore: awayScore,
	}
}

// NewUpcomingMatch creates a fixture that has not been played yet
func NewUpcomingMatch(homeTeam, awayTeam string) models.Match {
	return models.Match{
		MatchDate: nextKickoff(),
		Stadium:   homeTeam + " Stadium",
		HomeTeam:  homeTeam,
		AwayTeam:  awayTeam,
	}
}

// NewRoundRobin creates a double round-robin season with random scores.
// Roughly one fixture in five is left unplayed. Output is deterministic for a seed.
func NewRoundRobin(teams []string, seed int64) []models.Match {
	rng := rand.New(rand.NewSource(seed))

	matches := make([]models.Match, 0, len(teams)*(len(teams)-1))
	for _, home := range teams {
		for _, away := range teams {
			if home == away {
				continue
			}
			if rng.Intn(5) == 0 {
				matches = append(matches, NewUpcomingMatch(home, away))
				continue
			}
			matches = append(matches, NewPlayedMatch(home, away, rng.Intn(5), rng.Intn(4)))
		}
	}
	return matches
}

// MockFixtureSource is a test source that returns predetermined fixtures
type MockFixtureSource struct {
	FetchFixturesFunc func(ctx context.Context) ([]models.Match, error)

	mu    sync.Mutex
	calls int
}

func (m *MockFixtureSource) FetchFixtures(ctx context.Context) ([]models.Match, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.FetchFixturesFunc != nil {
		return m.FetchFixturesFunc(ctx)
	}
	return []models.Match{}, nil
}

// Calls returns how many times FetchFixtures was invoked
func (m *MockFixtureSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// StaticSource returns a source that always yields matches
func StaticSource(matches []models.Match) *MockFixtureSource {
	return &MockFixtureSource{
		FetchFixturesFunc: func(context.Context) ([]models.Match, error) {
			return matches, nil
		},
	}
}

// FailingSource returns a source that always fails with err
func FailingSource(err error) *MockFixtureSource {
	return &MockFixtureSource{
		FetchFixturesFunc: func(context.Context) ([]models.Match, error) {
			return nil, err
		},
	}
}
