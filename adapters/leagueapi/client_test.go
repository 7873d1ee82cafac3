package leagueapi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/Pallas/adapters/leagueapi"
)

const matchesJSON = `{
	"success": true,
	"matches": [
		{"matchDate": 1651744228685, "stadium": "Maracanã", "homeTeam": "Brazil", "awayTeam": "Serbia",
		 "matchPlayed": true, "homeTeamScore": 1, "awayTeamScore": 0},
		{"matchDate": 1651744228685, "stadium": "Stade de Suisse", "homeTeam": "Switzerland", "awayTeam": "Cameroon",
		 "matchPlayed": false, "homeTeamScore": 0, "awayTeamScore": 0}
	]
}`

// fakeLeagueAPI serves the two handshake endpoints and counts calls
type fakeLeagueAPI struct {
	tokenBody    string
	tokenStatus  int
	matchesBody  string
	tokenCalls   atomic.Int32
	matchesCalls atomic.Int32
	lastAuth     atomic.Value
}

func (f *fakeLeagueAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/getAccessToken", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		if f.tokenStatus != 0 {
			w.WriteHeader(f.tokenStatus)
		}
		w.Write([]byte(f.tokenBody))
	})
	mux.HandleFunc("/api/v1/getAllMatches", func(w http.ResponseWriter, r *http.Request) {
		f.matchesCalls.Add(1)
		f.lastAuth.Store(r.Header.Get("Authorization"))
		w.Write([]byte(f.matchesBody))
	})
	return mux
}

func newTestClient(t *testing.T, api *fakeLeagueAPI) *leagueapi.Client {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)
	return leagueapi.NewClient(leagueapi.Config{BaseURL: srv.URL + "/api/v1/", StepTimeout: 2 * time.Second})
}

func TestFetchFixtures_Success(t *testing.T) {
	api := &fakeLeagueAPI{
		tokenBody:   `{"success": true, "access_token": "yuo2ekvz"}`,
		matchesBody: matchesJSON,
	}
	client := newTestClient(t, api)

	matches, err := client.FetchFixtures(context.Background())
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "Bearer yuo2ekvz", api.lastAuth.Load())
	assert.Equal(t, "Brazil", matches[0].HomeTeam)
	assert.True(t, matches[0].MatchPlayed)
	assert.Equal(t, 1, matches[0].HomeTeamScore)
	assert.Equal(t, int64(1651744228685), matches[0].MatchDate)
	assert.False(t, matches[1].MatchPlayed)
}

func TestFetchFixtures_TokenRefusedSkipsMatches(t *testing.T) {
	api := &fakeLeagueAPI{
		tokenBody:   `{"success": false}`,
		matchesBody: matchesJSON,
	}
	client := newTestClient(t, api)

	_, err := client.FetchFixtures(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, leagueapi.ErrAuthentication)
	assert.Equal(t, "authentication", leagueapi.Kind(err))
	assert.Equal(t, int32(1), api.tokenCalls.Load())
	assert.Equal(t, int32(0), api.matchesCalls.Load(), "fixtures endpoint must not be called")
}

func TestFetchFixtures_MissingSuccessFlag(t *testing.T) {
	api := &fakeLeagueAPI{
		tokenBody:   `{"access_token": "abc"}`,
		matchesBody: matchesJSON,
	}
	client := newTestClient(t, api)

	_, err := client.FetchFixtures(context.Background())
	assert.ErrorIs(t, err, leagueapi.ErrAuthentication)
	assert.Equal(t, int32(0), api.matchesCalls.Load())
}

func TestFetchFixtures_EmptyToken(t *testing.T) {
	api := &fakeLeagueAPI{
		tokenBody:   `{"success": true}`,
		matchesBody: matchesJSON,
	}
	client := newTestClient(t, api)

	_, err := client.FetchFixtures(context.Background())
	assert.ErrorIs(t, err, leagueapi.ErrAuthentication)
	assert.Equal(t, int32(0), api.matchesCalls.Load())
}

func TestFetchFixtures_MatchesRefused(t *testing.T) {
	api := &fakeLeagueAPI{
		tokenBody:   `{"success": true, "access_token": "abc"}`,
		matchesBody: `{"success": false}`,
	}
	client := newTestClient(t, api)

	_, err := client.FetchFixtures(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, leagueapi.ErrDataFetch)
	assert.NotErrorIs(t, err, leagueapi.ErrAuthentication)
	assert.Equal(t, "data_fetch", leagueapi.Kind(err))
}

func TestFetchFixtures_SuccessWithoutMatches(t *testing.T) {
	api := &fakeLeagueAPI{
		tokenBody:   `{"success": true, "access_token": "abc"}`,
		matchesBody: `{"success": true}`,
	}
	client := newTestClient(t, api)

	matches, err := client.FetchFixtures(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestFetchFixtures_MalformedBody(t *testing.T) {
	api := &fakeLeagueAPI{
		tokenBody:   `{"success": true, "access_token": "abc"}`,
		matchesBody: `<html>bad gateway</html>`,
	}
	client := newTestClient(t, api)

	_, err := client.FetchFixtures(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, leagueapi.ErrDataFetch)

	var transportErr *leagueapi.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, leagueapi.StepMatches, transportErr.Step)
	assert.Equal(t, "transport", leagueapi.Kind(err))
}

func TestFetchFixtures_HTTPErrorStatus(t *testing.T) {
	api := &fakeLeagueAPI{
		tokenBody:   `service unavailable`,
		tokenStatus: http.StatusServiceUnavailable,
		matchesBody: matchesJSON,
	}
	client := newTestClient(t, api)

	_, err := client.FetchFixtures(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, leagueapi.ErrAuthentication)

	var httpErr *leagueapi.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
	assert.Equal(t, int32(0), api.matchesCalls.Load())
}

func TestFetchFixtures_UnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	client := leagueapi.NewClient(leagueapi.Config{BaseURL: baseURL, StepTimeout: time.Second})

	_, err := client.FetchFixtures(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, leagueapi.ErrAuthentication)

	var transportErr *leagueapi.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, leagueapi.StepToken, transportErr.Step)
}

func TestFetchFixtures_StepTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	client := leagueapi.NewClient(leagueapi.Config{BaseURL: srv.URL, StepTimeout: 50 * time.Millisecond})

	_, err := client.FetchFixtures(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "transport", leagueapi.Kind(err))
}

func TestNewClient_DefaultBaseURL(t *testing.T) {
	client := leagueapi.NewClient(leagueapi.Config{})
	assert.Equal(t, leagueapi.DefaultBaseURL, client.BaseURL())
}
