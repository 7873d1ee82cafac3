package league_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/XavierBriggs/Pallas/adapters/leagueapi"
	"github.com/XavierBriggs/Pallas/internal/league"
	"github.com/XavierBriggs/Pallas/pkg/models"
	"github.com/XavierBriggs/Pallas/pkg/testutil"
)

func newService(t *testing.T, source *testutil.MockFixtureSource) (*league.Service, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return league.NewService(source, league.Options{
		Key:    "world_cup",
		Locale: language.English,
		Logger: logger,
	}), hook
}

func TestLoadFixtures_ReplacesStore(t *testing.T) {
	fetched := []models.Match{
		testutil.NewPlayedMatch("A", "B", 2, 1),
		testutil.NewPlayedMatch("B", "A", 0, 0),
	}
	svc, _ := newService(t, testutil.StaticSource(fetched))
	svc.SetFixtures([]models.Match{testutil.NewUpcomingMatch("X", "Y")})

	matches, err := svc.LoadFixtures(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fetched, matches)
	assert.Equal(t, fetched, svc.Fixtures())

	table := svc.Standings()
	require.Len(t, table, 2)
	assert.Equal(t, "A", table[0].TeamName)
	assert.Equal(t, 4, table[0].Points)
}

func TestLoadFixtures_FailureLeavesStoreUntouched(t *testing.T) {
	previous := []models.Match{testutil.NewPlayedMatch("A", "B", 1, 0)}
	source := testutil.FailingSource(fmt.Errorf("%w: server reported failure", leagueapi.ErrAuthentication))
	svc, hook := newService(t, source)
	svc.SetFixtures(previous)

	matches, err := svc.LoadFixtures(context.Background())
	require.Error(t, err)
	assert.Nil(t, matches)
	assert.ErrorIs(t, err, leagueapi.ErrAuthentication)
	assert.Equal(t, previous, svc.Fixtures())
	assert.Equal(t, 1, source.Calls())

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, "world_cup", hook.LastEntry().Data["competition"])
}

func TestLoadFixtures_NoRetry(t *testing.T) {
	source := testutil.FailingSource(errors.New("connection reset"))
	svc, _ := newService(t, source)

	_, err := svc.LoadFixtures(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, source.Calls())
}

func TestStandings_EmptyStore(t *testing.T) {
	svc, _ := newService(t, testutil.StaticSource(nil))

	assert.Empty(t, svc.Fixtures())
	table := svc.Standings()
	assert.NotNil(t, table)
	assert.Empty(t, table)
}

func TestSetFixtures_CopiesInput(t *testing.T) {
	svc, _ := newService(t, testutil.StaticSource(nil))
	input := []models.Match{testutil.NewPlayedMatch("A", "B", 1, 0)}

	svc.SetFixtures(input)
	input[0].HomeTeam = "Mutated"

	assert.Equal(t, "A", svc.Fixtures()[0].HomeTeam)
}

func TestStandings_RecomputedAfterReplace(t *testing.T) {
	svc, _ := newService(t, testutil.StaticSource(nil))

	svc.SetFixtures([]models.Match{testutil.NewPlayedMatch("A", "B", 1, 0)})
	assert.Equal(t, "A", svc.Standings()[0].TeamName)

	svc.SetFixtures([]models.Match{testutil.NewPlayedMatch("A", "B", 0, 1)})
	assert.Equal(t, "B", svc.Standings()[0].TeamName)
}

func TestService_ConcurrentSetAndStandings(t *testing.T) {
	svc, _ := newService(t, testutil.StaticSource(nil))
	season := testutil.NewRoundRobin([]string{"A", "B", "C", "D"}, 3)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			svc.SetFixtures(season)
		}()
		go func() {
			defer wg.Done()
			table := svc.Standings()
			assert.True(t, len(table) == 0 || len(table) == 4)
		}()
	}
	wg.Wait()
}

func TestNewService_DisplayNameDefaultsToKey(t *testing.T) {
	svc, _ := newService(t, testutil.StaticSource(nil))
	assert.Equal(t, "world_cup", svc.Key())
	assert.Equal(t, "world_cup", svc.DisplayName())
}

func TestFixtureCount(t *testing.T) {
	season := testutil.NewRoundRobin([]string{"A", "B", "C"}, 7)
	svc, _ := newService(t, testutil.StaticSource(season))
	assert.Equal(t, 0, svc.FixtureCount())

	_, err := svc.LoadFixtures(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(season), svc.FixtureCount())

	svc.SetFixtures(nil)
	assert.Equal(t, 0, svc.FixtureCount())
}
