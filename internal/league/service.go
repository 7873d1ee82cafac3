// Package league exposes the fixture list and standings of one competition.
package league

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"github.com/XavierBriggs/Pallas/internal/standings"
	"github.com/XavierBriggs/Pallas/pkg/contracts"
	"github.com/XavierBriggs/Pallas/pkg/models"
)

// Service owns the fixture store of a single competition
type Service struct {
	key         string
	displayName string
	source      contracts.FixtureSource
	store       *Store
	engine      *standings.Engine
	logger      *logrus.Entry
}

// Options configures a Service
type Options struct {
	Key         string // e.g., "world_cup"
	DisplayName string
	Locale      language.Tag // alphabetical tie-break collation
	Logger      *logrus.Logger
}

// NewService creates a league service reading fixtures from source
func NewService(source contracts.FixtureSource, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	displayName := opts.DisplayName
	if displayName == "" {
		displayName = opts.Key
	}

	return &Service{
		key:         opts.Key,
		displayName: displayName,
		source:      source,
		store:       NewStore(),
		engine:      standings.NewEngine(opts.Locale),
		logger:      logger.WithField("competition", opts.Key),
	}
}

// Key returns the competition key
func (s *Service) Key() string {
	return s.key
}

// DisplayName returns the human-readable competition name
func (s *Service) DisplayName() string {
	return s.displayName
}

// LoadFixtures retrieves fixtures from the remote source and, only when the
// whole handshake succeeds, replaces the stored list with them. On failure
// the store is left untouched and the error is returned unchanged.
func (s *Service) LoadFixtures(ctx context.Context) ([]models.Match, error) {
	start := time.Now()

	matches, err := s.source.FetchFixtures(ctx)
	if err != nil {
		s.logger.WithError(err).Error("error fetching fixtures")
		return nil, fmt.Errorf("load fixtures: %w", err)
	}

	s.store.Set(matches)

	s.logger.WithFields(logrus.Fields{
		"matches":  len(matches),
		"duration": time.Since(start),
	}).Info("fixtures loaded")

	return matches, nil
}

// Fixtures returns the stored fixture list without network access
func (s *Service) Fixtures() []models.Match {
	return s.store.Get()
}

// FixtureCount returns the number of stored fixtures
func (s *Service) FixtureCount() int {
	return s.store.Len()
}

// SetFixtures injects a fixture list directly, bypassing the remote source
func (s *Service) SetFixtures(matches []models.Match) {
	s.store.Set(matches)
	s.logger.WithField("matches", len(matches)).Debug("fixtures set")
}

// Standings computes the ranked table from the stored fixtures. The snapshot
// is read once so a concurrent SetFixtures cannot tear the computation.
func (s *Service) Standings() []models.TeamStanding {
	return s.engine.Compute(s.store.Get())
}
