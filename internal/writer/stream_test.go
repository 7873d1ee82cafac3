package writer

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/Pallas/pkg/models"
	"github.com/XavierBriggs/Pallas/pkg/testutil"
)

func TestPublishToStream(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	w := NewWriter(nil, redisClient, nil)
	ctx := context.Background()

	changes := []models.Change{
		{Match: testutil.NewPlayedMatch("Brazil", "Serbia", 2, 0), ChangeType: models.ChangeTypeResult},
		{Match: testutil.NewUpcomingMatch("Portugal", "Ghana"), ChangeType: models.ChangeTypeNew},
	}

	require.NoError(t, w.publishToStream(ctx, "world_cup", changes))

	entries, err := redisClient.XRange(ctx, "fixtures.changes.world_cup", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var msg StreamMessage
	require.NoError(t, json.Unmarshal([]byte(entries[0].Values["data"].(string)), &msg))
	assert.Equal(t, "world_cup", msg.Competition)
	assert.Equal(t, "Brazil", msg.HomeTeam)
	assert.True(t, msg.MatchPlayed)
	assert.Equal(t, 2, msg.HomeTeamScore)
	assert.Equal(t, "result", msg.ChangeType)
	assert.Equal(t, changes[0].Match.Key(), msg.MatchKey)
}

func TestPublishToStream_NoRedis(t *testing.T) {
	w := NewWriter(nil, nil, nil)
	err := w.publishToStream(context.Background(), "world_cup", []models.Change{
		{Match: testutil.NewPlayedMatch("A", "B", 1, 0), ChangeType: models.ChangeTypeNew},
	})
	assert.NoError(t, err)
}

func TestWriteChanges_NothingToWrite(t *testing.T) {
	w := NewWriter(nil, nil, nil)
	assert.NoError(t, w.WriteChanges(context.Background(), "world_cup", nil))
}

func TestDedupeChanges_LastWinsPerKey(t *testing.T) {
	upcoming := testutil.NewUpcomingMatch("Brazil", "Serbia")
	played := upcoming
	played.MatchPlayed = true
	played.HomeTeamScore = 2
	other := testutil.NewUpcomingMatch("Portugal", "Ghana")

	got := dedupeChanges([]models.Change{
		{Match: upcoming, ChangeType: models.ChangeTypeNew},
		{Match: other, ChangeType: models.ChangeTypeNew},
		{Match: played, ChangeType: models.ChangeTypeResult},
	})

	require.Len(t, got, 2)
	assert.Equal(t, played, got[0].Match)
	assert.Equal(t, models.ChangeTypeResult, got[0].ChangeType)
	assert.Equal(t, other, got[1].Match)
}

func TestDedupeChanges_DistinctKeysUntouched(t *testing.T) {
	changes := []models.Change{
		{Match: testutil.NewUpcomingMatch("A", "B"), ChangeType: models.ChangeTypeNew},
		{Match: testutil.NewUpcomingMatch("B", "A"), ChangeType: models.ChangeTypeNew},
	}
	assert.Equal(t, changes, dedupeChanges(changes))
}
