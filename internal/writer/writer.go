package writer

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/XavierBriggs/Pallas/pkg/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const streamKeyFormat = "fixtures.changes.%s" // fixtures.changes.world_cup

// Writer archives fixture changes in Postgres and publishes them to Redis
// Streams after the transaction commits
type Writer struct {
	db     *sql.DB
	redis  *redis.Client // optional; nil disables stream publishing
	logger *logrus.Logger
}

// StreamMessage represents a message published to Redis Stream
type StreamMessage struct {
	Competition   string    `json:"competition"`
	MatchKey      string    `json:"match_key"`
	HomeTeam      string    `json:"home_team"`
	AwayTeam      string    `json:"away_team"`
	Stadium       string    `json:"stadium"`
	Kickoff       time.Time `json:"kickoff"`
	MatchPlayed   bool      `json:"match_played"`
	HomeTeamScore int       `json:"home_team_score"`
	AwayTeamScore int       `json:"away_team_score"`
	ChangeType    string    `json:"change_type"`
}

// NewWriter creates a new fixture archive writer
func NewWriter(db *sql.DB, redisClient *redis.Client, logger *logrus.Logger) *Writer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Writer{
		db:     db,
		redis:  redisClient,
		logger: logger,
	}
}

// Migrate creates the archive table if it does not exist
func (w *Writer) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS fixtures (
			competition      TEXT        NOT NULL,
			match_key        TEXT        NOT NULL,
			match_date       TIMESTAMPTZ NOT NULL,
			stadium          TEXT        NOT NULL DEFAULT '',
			home_team        TEXT        NOT NULL,
			away_team        TEXT        NOT NULL,
			match_played     BOOLEAN     NOT NULL DEFAULT FALSE,
			home_team_score  INT         NOT NULL DEFAULT 0,
			away_team_score  INT         NOT NULL DEFAULT 0,
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (competition, match_key)
		)
	`
	if _, err := w.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("migrate fixtures table: %w", err)
	}
	return nil
}

// WriteChanges upserts changed fixtures in one transaction, then publishes
// them to the competition's stream
func (w *Writer) WriteChanges(ctx context.Context, competition string, changes []models.Change) error {
	changes = dedupeChanges(changes)
	if len(changes) == 0 {
		return nil
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := w.upsertFixtures(ctx, tx, competition, changes); err != nil {
		return fmt.Errorf("upsert fixtures: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	if err := w.publishToStream(ctx, competition, changes); err != nil {
		// Log but don't fail - DB is source of truth
		w.logger.WithError(err).WithField("competition", competition).Warn("publish to stream failed")
	}

	return nil
}

// ArchivedFixtures returns the archived fixtures of a competition in kickoff order
func (w *Writer) ArchivedFixtures(ctx context.Context, competition string) ([]models.Match, error) {
	query := `
		SELECT match_date, stadium, home_team, away_team, match_played, home_team_score, away_team_score
		FROM fixtures
		WHERE competition = $1
		ORDER BY match_date, match_key
	`
	rows, err := w.db.QueryContext(ctx, query, competition)
	if err != nil {
		return nil, fmt.Errorf("querying fixtures: %w", err)
	}
	defer rows.Close()

	var matches []models.Match
	for rows.Next() {
		var (
			m         models.Match
			matchDate time.Time
		)
		if err := rows.Scan(&matchDate, &m.Stadium, &m.HomeTeam, &m.AwayTeam, &m.MatchPlayed, &m.HomeTeamScore, &m.AwayTeamScore); err != nil {
			return nil, fmt.Errorf("scanning fixture row: %w", err)
		}
		m.MatchDate = matchDate.UnixMilli()
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fixture rows: %w", err)
	}
	return matches, nil
}

// dedupeChanges keeps the last change per match key, in first-seen order.
// A single upsert statement cannot touch the same row twice.
func dedupeChanges(changes []models.Change) []models.Change {
	if len(changes) < 2 {
		return changes
	}

	index := make(map[string]int, len(changes))
	unique := make([]models.Change, 0, len(changes))
	for _, ch := range changes {
		key := ch.Match.Key()
		if i, seen := index[key]; seen {
			unique[i] = ch
			continue
		}
		index[key] = len(unique)
		unique = append(unique, ch)
	}
	return unique
}

// upsertFixtures inserts or updates fixtures using UNNEST for batch insert
func (w *Writer) upsertFixtures(ctx context.Context, tx *sql.Tx, competition string, changes []models.Change) error {
	query := `
		INSERT INTO fixtures (
			competition, match_key, match_date, stadium, home_team, away_team,
			match_played, home_team_score, away_team_score, updated_at
		)
		SELECT $1, k, to_timestamp(d / 1000.0), s, h, a, p, hs, aws, NOW()
		FROM UNNEST(
			$2::text[], $3::bigint[], $4::text[], $5::text[], $6::text[],
			$7::boolean[], $8::int[], $9::int[]
		) AS t(k, d, s, h, a, p, hs, aws)
		ON CONFLICT (competition, match_key)
		DO UPDATE SET
			stadium = EXCLUDED.stadium,
			match_played = EXCLUDED.match_played,
			home_team_score = EXCLUDED.home_team_score,
			away_team_score = EXCLUDED.away_team_score,
			updated_at = EXCLUDED.updated_at
	`

	keys := make([]string, len(changes))
	dates := make([]int64, len(changes))
	stadiums := make([]string, len(changes))
	homeTeams := make([]string, len(changes))
	awayTeams := make([]string, len(changes))
	played := make([]bool, len(changes))
	homeScores := make([]int64, len(changes))
	awayScores := make([]int64, len(changes))

	for i, ch := range changes {
		m := ch.Match
		keys[i] = m.Key()
		dates[i] = m.MatchDate
		stadiums[i] = m.Stadium
		homeTeams[i] = m.HomeTeam
		awayTeams[i] = m.AwayTeam
		played[i] = m.MatchPlayed
		homeScores[i] = int64(m.HomeTeamScore)
		awayScores[i] = int64(m.AwayTeamScore)
	}

	_, err := tx.ExecContext(ctx, query, competition,
		pq.Array(keys), pq.Array(dates), pq.Array(stadiums), pq.Array(homeTeams), pq.Array(awayTeams),
		pq.Array(played), pq.Array(homeScores), pq.Array(awayScores),
	)
	return err
}

// publishToStream publishes fixture changes to the competition's Redis Stream
func (w *Writer) publishToStream(ctx context.Context, competition string, changes []models.Change) error {
	if w.redis == nil {
		return nil
	}

	streamKey := fmt.Sprintf(streamKeyFormat, competition)
	pipe := w.redis.Pipeline()

	for _, ch := range changes {
		m := ch.Match
		msg := StreamMessage{
			Competition:   competition,
			MatchKey:      m.Key(),
			HomeTeam:      m.HomeTeam,
			AwayTeam:      m.AwayTeam,
			Stadium:       m.Stadium,
			Kickoff:       m.Kickoff(),
			MatchPlayed:   m.MatchPlayed,
			HomeTeamScore: m.HomeTeamScore,
			AwayTeamScore: m.AwayTeamScore,
			ChangeType:    string(ch.ChangeType),
		}

		msgJSON, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("marshal stream message: %w", err)
		}

		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: streamKey,
			Values: map[string]interface{}{
				"data": msgJSON,
			},
		})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline exec for stream: %w", err)
	}

	return nil
}
