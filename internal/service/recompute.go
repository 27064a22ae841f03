package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/clipclash/clipclash-server/internal/cache"
	"github.com/clipclash/clipclash-server/internal/config"
	"github.com/clipclash/clipclash-server/internal/domain"
	"github.com/clipclash/clipclash-server/internal/errors"
	"github.com/clipclash/clipclash-server/internal/id"
	"github.com/clipclash/clipclash-server/internal/ranking"
	"github.com/clipclash/clipclash-server/internal/store"
)

// RecomputeService is the single writer of challenge ranking sets.
// Each run aggregates votes, scores every eligible submission,
// persists the scores, and only then replaces the cached sets. A
// per-challenge lock serializes concurrent runs for the same
// challenge; runs for different challenges proceed in parallel.
type RecomputeService struct {
	store  *store.Store
	cache  *cache.Cache
	cfg    *config.Config
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRecomputeService creates a new recompute service.
func NewRecomputeService(store *store.Store, cache *cache.Cache, cfg *config.Config, logger *slog.Logger) *RecomputeService {
	return &RecomputeService{
		store:  store,
		cache:  cache,
		cfg:    cfg,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// RecomputeResult summarizes one completed run.
type RecomputeResult struct {
	RunID       string        `json:"run_id"`
	ChallengeID string        `json:"challenge_id"`
	Submissions int           `json:"submissions"`
	SnapshotID  string        `json:"snapshot_id,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// challengeLock returns the mutex serializing runs for one challenge.
func (s *RecomputeService) challengeLock(challengeID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[challengeID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[challengeID] = lock
	}
	return lock
}

// Run recomputes all ranking state for one challenge. Scores are
// persisted before any cached set is replaced, so a failure partway
// through leaves the cache untouched and the previous sets intact.
func (s *RecomputeService) Run(ctx context.Context, challengeID string) (*RecomputeResult, error) {
	lock := s.challengeLock(challengeID)
	lock.Lock()
	defer lock.Unlock()

	started := time.Now()
	result := &RecomputeResult{
		RunID:       uuid.NewString(),
		ChallengeID: challengeID,
	}
	logger := s.logger.With("run_id", result.RunID, "challenge_id", challengeID)

	challenge, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("loading challenge: %w", err)
	}
	if challenge == nil {
		return nil, errors.NotFoundf("challenge %s not found", challengeID)
	}

	aggs, err := s.store.AggregateVotes(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("aggregating votes: %w", err)
	}
	result.Submissions = len(aggs)

	// Score and persist first. The cache is only ever replaced from
	// state the store has already accepted.
	scored := make([]scoredSubmission, 0, len(aggs))
	for _, agg := range aggs {
		score := ranking.Score(agg.Upvotes, agg.TotalVotes, agg.SuperVotes)
		if err := s.store.PersistScore(ctx, agg.SubmissionID, score); err != nil {
			return nil, fmt.Errorf("persisting score for %s: %w", agg.SubmissionID, err)
		}
		scored = append(scored, scoredSubmission{
			submissionID: agg.SubmissionID,
			ownerID:      agg.OwnerID,
			effective:    score + agg.BoostScore,
			createdAt:    agg.CreatedAt,
		})
	}

	now := time.Now()
	for _, period := range domain.Periods() {
		start := period.Start(now)
		entries := make([]domain.RankingEntry, 0, len(scored))
		for _, sub := range scored {
			if !start.IsZero() && sub.createdAt.Before(start) {
				continue
			}
			entries = append(entries, domain.RankingEntry{
				Member: sub.submissionID,
				Score:  sub.effective,
			})
		}
		key := cache.ChallengeKey(challengeID, period)
		if err := s.cache.ReplaceAll(key, entries, s.cfg.Cache.TTLFor(period)); err != nil {
			return nil, fmt.Errorf("replacing ranking set %s: %w", key, err)
		}
	}

	if len(scored) > 0 {
		snapshotID, err := s.snapshot(ctx, challengeID, scored)
		if err != nil {
			// The cache is already consistent with persisted scores;
			// a failed snapshot only loses this run's history row.
			logger.Error("failed to record ranking snapshot", "error", err)
		} else {
			result.SnapshotID = snapshotID
		}
	}

	result.Duration = time.Since(started)
	logger.Info("ranking recompute complete",
		"submissions", result.Submissions,
		"duration", result.Duration)
	return result, nil
}

type scoredSubmission struct {
	submissionID string
	ownerID      string
	effective    float64
	createdAt    time.Time
}

// snapshot records an immutable all-time ranking for historical
// queries such as best rank ever held.
func (s *RecomputeService) snapshot(ctx context.Context, challengeID string, scored []scoredSubmission) (string, error) {
	ordered := make([]scoredSubmission, len(scored))
	copy(ordered, scored)
	slices.SortStableFunc(ordered, func(a, b scoredSubmission) int {
		switch {
		case a.effective > b.effective:
			return -1
		case a.effective < b.effective:
			return 1
		default:
			return 0
		}
	})

	snap := &domain.RankingSnapshot{
		ID:          id.MustGenerate(id.PrefixSnapshot),
		ChallengeID: challengeID,
		Period:      domain.PeriodAllTime,
		Items:       make([]domain.SnapshotItem, 0, len(ordered)),
		CreatedAt:   time.Now().UTC(),
	}
	for i, sub := range ordered {
		snap.Items = append(snap.Items, domain.SnapshotItem{
			Rank:         i + 1,
			SubmissionID: sub.submissionID,
			UserID:       sub.ownerID,
			Score:        sub.effective,
		})
	}

	if err := s.store.CreateSnapshot(ctx, snap); err != nil {
		return "", err
	}
	return snap.ID, nil
}

// RecomputeAll runs a recompute for every active challenge, bounded
// by the configured concurrency. Individual failures are logged and
// do not stop the sweep.
func (s *RecomputeService) RecomputeAll(ctx context.Context) error {
	challenges, err := s.store.ListActiveChallenges(ctx)
	if err != nil {
		return fmt.Errorf("listing active challenges: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Ranking.RecomputeConcurrency)

	for _, challenge := range challenges {
		g.Go(func() error {
			if _, err := s.Run(ctx, challenge.ID); err != nil {
				s.logger.Error("challenge recompute failed",
					"challenge_id", challenge.ID, "error", err)
			}
			return nil
		})
	}

	return g.Wait()
}
