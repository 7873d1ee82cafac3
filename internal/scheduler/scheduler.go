package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/XavierBriggs/Pallas/internal/registry"
	"github.com/XavierBriggs/Pallas/pkg/models"
)

const (
	defaultSchedule = "@every 5m"
	refreshTimeout  = 2 * time.Minute
)

// ErrUnknownCompetition is returned when refreshing a key that is not registered
var ErrUnknownCompetition = errors.New("unknown competition")

// ChangeDetector tracks previously seen fixtures (implemented by cache.Cache)
type ChangeDetector interface {
	DetectChanges(ctx context.Context, competition string, matches []models.Match) ([]models.Change, error)
	UpdateCache(ctx context.Context, competition string, matches []models.Match) error
	SaveSnapshot(ctx context.Context, competition string, matches []models.Match) error
}

// Archiver persists fixture changes (implemented by writer.Writer)
type Archiver interface {
	WriteChanges(ctx context.Context, competition string, changes []models.Change) error
}

// Options configures the optional stages of a refresh
type Options struct {
	Cache     ChangeDetector    // nil disables change detection and snapshots
	Archive   Archiver          // nil disables archiving
	Schedules map[string]string // competition key -> cron spec
	Logger    *logrus.Logger
}

// Scheduler refreshes every registered competition on its cron schedule.
// It is the caller of LoadFixtures and owns the retry policy: a failed
// refresh is logged and retried on the next tick, never immediately.
type Scheduler struct {
	registry  *registry.CompetitionRegistry
	cache     ChangeDetector
	archive   Archiver
	schedules map[string]string
	logger    *logrus.Logger

	cron *cron.Cron
	wg   sync.WaitGroup

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex // per competition, serializes Refresh
}

// NewScheduler creates a new refresh scheduler
func NewScheduler(reg *registry.CompetitionRegistry, opts Options) *Scheduler {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	cronLogger := cron.PrintfLogger(logger)
	return &Scheduler{
		registry:  reg,
		cache:     opts.Cache,
		archive:   opts.Archive,
		schedules: opts.Schedules,
		logger:    logger,
		locks:     make(map[string]*sync.Mutex),
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
	}
}

// Start runs one refresh per competition immediately, then schedules the rest
func (s *Scheduler) Start(ctx context.Context) error {
	competitions := s.registry.GetAll()
	if len(competitions) == 0 {
		return fmt.Errorf("no competitions registered")
	}

	for _, svc := range competitions {
		key := svc.Key()
		spec := s.scheduleFor(key)

		if _, err := s.cron.AddFunc(spec, func() { s.runRefresh(ctx, key) }); err != nil {
			return fmt.Errorf("schedule %s: %w", key, err)
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runRefresh(ctx, key)
		}()

		s.logger.WithFields(logrus.Fields{
			"competition": key,
			"schedule":    spec,
		}).Info("✓ Scheduled fixture refresh")
	}

	s.cron.Start()
	return nil
}

// Stop halts the schedule and waits for running refreshes to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
}

// Refresh loads fixtures for one competition and pushes the result through
// change detection, archiving and caching. Only the load itself can fail the
// refresh; later stages log their errors since the store is already updated.
// Refreshes of the same competition run one at a time, whether triggered by
// cron or by a caller.
func (s *Scheduler) Refresh(ctx context.Context, key string) ([]models.Match, error) {
	svc, ok := s.registry.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCompetition, key)
	}

	lock := s.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()

	matches, err := svc.LoadFixtures(ctx)
	if err != nil {
		return nil, err
	}

	fetchDuration := time.Since(start)
	changes := s.process(ctx, key, matches)

	s.logger.WithFields(logrus.Fields{
		"competition": key,
		"matches":     len(matches),
		"changes":     len(changes),
		"fetch":       fetchDuration,
		"total":       time.Since(start),
	}).Info("refresh complete")

	return matches, nil
}

func (s *Scheduler) runRefresh(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	if _, err := s.Refresh(ctx, key); err != nil {
		s.logger.WithError(err).WithField("competition", key).Warn("scheduled refresh failed")
	}
}

// process runs detect → archive → cache update and returns the detected changes
func (s *Scheduler) process(ctx context.Context, key string, matches []models.Match) []models.Change {
	log := s.logger.WithField("competition", key)

	changes := allNew(matches)
	if s.cache != nil {
		detected, err := s.cache.DetectChanges(ctx, key, matches)
		if err != nil {
			log.WithError(err).Warn("detect changes failed, treating all fixtures as new")
		} else {
			changes = detected
		}
	}

	if s.archive != nil && len(changes) > 0 {
		if err := s.archive.WriteChanges(ctx, key, changes); err != nil {
			// Leave the cache alone so the same changes are retried next refresh
			log.WithError(err).Error("archive fixture changes failed")
			return changes
		}
	}

	if s.cache != nil {
		// All fixtures, so unchanged entries keep a live TTL
		if err := s.cache.UpdateCache(ctx, key, matches); err != nil {
			log.WithError(err).Warn("update cache failed")
		}
		if err := s.cache.SaveSnapshot(ctx, key, matches); err != nil {
			log.WithError(err).Warn("save snapshot failed")
		}
	}

	return changes
}

func (s *Scheduler) lockFor(key string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}

func (s *Scheduler) scheduleFor(key string) string {
	if spec, ok := s.schedules[key]; ok && spec != "" {
		return spec
	}
	return defaultSchedule
}

func allNew(matches []models.Match) []models.Change {
	changes := make([]models.Change, len(matches))
	for i, m := range matches {
		changes[i] = models.Change{Match: m, ChangeType: models.ChangeTypeNew}
	}
	return changes
}
