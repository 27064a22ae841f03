package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/clipclash/clipclash-server/internal/cache"
	"github.com/clipclash/clipclash-server/internal/config"
	"github.com/clipclash/clipclash-server/internal/domain"
	"github.com/clipclash/clipclash-server/internal/errors"
	"github.com/clipclash/clipclash-server/internal/store"
)

// RankingService serves the leaderboard read paths. Reads prefer the
// ranking cache and fall back to the relational store on a miss; a
// fallback never writes the cache back, repopulation is the recompute
// job's job. The one exception is the cross-challenge top-creators
// view, which is read-through because no single challenge recompute
// owns it.
type RankingService struct {
	store  *store.Store
	cache  *cache.Cache
	cfg    *config.Config
	logger *slog.Logger
}

// NewRankingService creates a new ranking service.
func NewRankingService(store *store.Store, cache *cache.Cache, cfg *config.Config, logger *slog.Logger) *RankingService {
	return &RankingService{
		store:  store,
		cache:  cache,
		cfg:    cfg,
		logger: logger,
	}
}

// clampPage normalizes 1-based page and limit against configured bounds.
func (s *RankingService) clampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = s.cfg.Ranking.DefaultPageSize
	}
	if limit > s.cfg.Ranking.MaxPageSize {
		limit = s.cfg.Ranking.MaxPageSize
	}
	return page, limit
}

// ChallengeLeaderboard returns one page of a challenge's leaderboard
// for the given period.
func (s *RankingService) ChallengeLeaderboard(ctx context.Context, challengeID string, period domain.Period, page, limit int) (*domain.Page[domain.RankedSubmission], error) {
	if !period.Valid() {
		return nil, errors.Validationf("invalid ranking period %q", period)
	}
	page, limit = s.clampPage(page, limit)

	challenge, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("loading challenge: %w", err)
	}
	if challenge == nil {
		return nil, errors.NotFoundf("challenge %s not found", challengeID)
	}

	offset := (page - 1) * limit
	key := cache.ChallengeKey(challengeID, period)

	result, served, err := s.cachedChallengePage(ctx, key, offset, page, limit)
	if err != nil {
		return nil, err
	}
	if served {
		return result, nil
	}

	// Cache miss: serve straight from the store. The next recompute
	// repopulates the cache; a read never does.
	rows, err := s.store.QueryRanked(ctx, challengeID, period, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("querying ranked submissions: %w", err)
	}
	total, err := s.store.CountRanked(ctx, challengeID, period)
	if err != nil {
		return nil, fmt.Errorf("counting ranked submissions: %w", err)
	}
	for i := range rows {
		rows[i].Rank = offset + i + 1
	}

	fromStore := domain.NewPage(rows, total, page, limit)
	return &fromStore, nil
}

// cachedChallengePage serves one leaderboard page from the ranking
// cache. Key presence, not page emptiness, decides whether the cache
// is authoritative: a warm key whose requested page lies past the end
// of the set is still served with the cached total, so deep pages
// agree with page one. It reports served=false when the key is
// absent, the cache is unreachable, or the store resolves none of the
// cached members on the page; callers then read the store directly. A
// broken cache degrades to the store, it must not break reads.
func (s *RankingService) cachedChallengePage(ctx context.Context, key cache.Key, offset, page, limit int) (*domain.Page[domain.RankedSubmission], bool, error) {
	warm, err := s.cache.Exists(key)
	if err != nil {
		s.logger.Warn("ranking cache probe failed, falling back to store",
			"key", key.String(), "error", err)
		return nil, false, nil
	}
	if !warm {
		return nil, false, nil
	}

	cached, err := s.cache.Range(key, offset, offset+limit-1)
	if err != nil {
		s.logger.Warn("ranking cache read failed, falling back to store",
			"key", key.String(), "error", err)
		return nil, false, nil
	}
	total, err := s.cache.Count(key)
	if err != nil {
		s.logger.Warn("ranking cache count failed, falling back to store",
			"key", key.String(), "error", err)
		return nil, false, nil
	}

	rows, err := s.hydrate(ctx, cached)
	if err != nil {
		return nil, false, err
	}
	if len(cached) > 0 && len(rows) == 0 {
		// Every cached member on the page is gone from the store: the
		// set is too stale to page over.
		s.logger.Warn("no cached ranking member resolved, falling back to store",
			"key", key.String())
		return nil, false, nil
	}

	result := domain.NewPage(rows, total, page, limit)
	return &result, true, nil
}

// hydrate joins cached ranking entries with display data from the
// store. Members the store no longer knows (deleted or newly
// ineligible since the set was built) are dropped rather than served
// as husks; their ranks are preserved so pagination stays aligned with
// the cached set.
func (s *RankingService) hydrate(ctx context.Context, entries []cache.RankedEntry) ([]domain.RankedSubmission, error) {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.Member)
	}

	byID, err := s.store.GetLeaderboardRows(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrating leaderboard rows: %w", err)
	}

	rows := make([]domain.RankedSubmission, 0, len(entries))
	for _, e := range entries {
		row, ok := byID[e.Member]
		if !ok {
			s.logger.Debug("dropping stale cached ranking member", "submission_id", e.Member)
			continue
		}
		row.Rank = e.Rank
		row.Score = e.Score
		rows = append(rows, row)
	}
	return rows, nil
}

// UserRank returns a user's position in a challenge leaderboard. A
// user with no eligible submission in the period gets a nil rank, not
// an error.
func (s *RankingService) UserRank(ctx context.Context, userID, challengeID string, period domain.Period) (*domain.UserRank, error) {
	if !period.Valid() {
		return nil, errors.Validationf("invalid ranking period %q", period)
	}

	challenge, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("loading challenge: %w", err)
	}
	if challenge == nil {
		return nil, errors.NotFoundf("challenge %s not found", challengeID)
	}

	key := cache.ChallengeKey(challengeID, period)

	total, err := s.cache.Count(key)
	if err != nil || total == 0 {
		total, err = s.store.CountRanked(ctx, challengeID, period)
		if err != nil {
			return nil, fmt.Errorf("counting ranked submissions: %w", err)
		}
	}

	result := &domain.UserRank{
		UserID:            userID,
		ChallengeID:       challengeID,
		Period:            period,
		TotalParticipants: total,
	}

	sub, err := s.store.UserEligibleSubmission(ctx, userID, challengeID)
	if err != nil {
		return nil, fmt.Errorf("loading user submission: %w", err)
	}
	if sub == nil || sub.CreatedAt.Before(period.Start(time.Now())) {
		return result, nil
	}

	result.SubmissionID = sub.ID
	result.Score = sub.Score

	rank, err := s.cache.Rank(key, sub.ID)
	if err == nil {
		result.Rank = &rank
		return result, nil
	}
	if !errors.Is(err, cache.ErrNotFound) {
		s.logger.Warn("ranking cache rank lookup failed, falling back to store",
			"key", key.String(), "error", err)
	}

	// Store fallback: rank is one more than the count of strictly
	// higher effective scores.
	higher, err := s.store.HigherScoringCount(ctx, challengeID, period, sub.EffectiveScore())
	if err != nil {
		return nil, fmt.Errorf("counting higher scores: %w", err)
	}
	rank = higher + 1
	result.Rank = &rank
	return result, nil
}

// FriendsLeaderboard returns one page of a challenge's leaderboard
// restricted to the viewer's followees plus the viewer. The friend
// graph shifts with every follow, so this view reads the store
// directly and is never cached.
func (s *RankingService) FriendsLeaderboard(ctx context.Context, userID, challengeID string, page, limit int) (*domain.Page[domain.RankedSubmission], error) {
	page, limit = s.clampPage(page, limit)

	challenge, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("loading challenge: %w", err)
	}
	if challenge == nil {
		return nil, errors.NotFoundf("challenge %s not found", challengeID)
	}

	offset := (page - 1) * limit
	rows, err := s.store.QueryFriendsRanked(ctx, userID, challengeID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("querying friends leaderboard: %w", err)
	}
	total, err := s.store.CountFriendsRanked(ctx, userID, challengeID)
	if err != nil {
		return nil, fmt.Errorf("counting friends leaderboard: %w", err)
	}
	for i := range rows {
		rows[i].Rank = offset + i + 1
	}

	result := domain.NewPage(rows, total, page, limit)
	return &result, nil
}

// TopCreators returns the cross-challenge creator ranking for a
// period. No per-challenge recompute owns this set, so it is the one
// read-through path: a miss rebuilds the set from the store and writes
// it back with the period's TTL.
func (s *RankingService) TopCreators(ctx context.Context, period domain.Period, limit int) ([]domain.CreatorRank, error) {
	if !period.Valid() {
		return nil, errors.Validationf("invalid ranking period %q", period)
	}
	if limit <= 0 || limit > s.cfg.Ranking.TopCreatorsLimit {
		limit = s.cfg.Ranking.TopCreatorsLimit
	}

	key := cache.TopCreatorsKey(period)

	entries, err := s.cache.Range(key, 0, limit-1)
	if err != nil {
		s.logger.Warn("top creators cache read failed, falling back to store",
			"key", key.String(), "error", err)
		entries = nil
	}

	if len(entries) == 0 {
		fresh, err := s.store.TopCreators(ctx, period, s.cfg.Ranking.TopCreatorsLimit)
		if err != nil {
			return nil, fmt.Errorf("querying top creators: %w", err)
		}
		if len(fresh) == 0 {
			return []domain.CreatorRank{}, nil
		}
		if err := s.cache.ReplaceAll(key, fresh, s.cfg.Cache.TTLFor(period)); err != nil {
			s.logger.Warn("failed to populate top creators cache",
				"key", key.String(), "error", err)
		}
		entries = make([]cache.RankedEntry, 0, min(limit, len(fresh)))
		for i, e := range fresh {
			if i >= limit {
				break
			}
			entries = append(entries, cache.RankedEntry{RankingEntry: e, Rank: i + 1})
		}
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.Member)
	}
	profiles, err := s.store.GetUserProfilesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrating creator profiles: %w", err)
	}

	creators := make([]domain.CreatorRank, 0, len(entries))
	for _, e := range entries {
		profile, ok := profiles[e.Member]
		if !ok {
			s.logger.Debug("dropping unknown creator from ranking", "user_id", e.Member)
			continue
		}
		creators = append(creators, domain.CreatorRank{
			Rank:        e.Rank,
			UserID:      profile.ID,
			Username:    profile.Username,
			DisplayName: profile.DisplayName,
			AvatarURL:   profile.AvatarURL,
			Score:       e.Score,
		})
	}
	return creators, nil
}

// BestRank returns the best (lowest) rank a user has ever held in a
// challenge across recorded ranking snapshots. Returns nil when the
// user never appeared in one.
func (s *RankingService) BestRank(ctx context.Context, userID, challengeID string) (*int, error) {
	challenge, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("loading challenge: %w", err)
	}
	if challenge == nil {
		return nil, errors.NotFoundf("challenge %s not found", challengeID)
	}

	rank, ok, err := s.store.BestRank(ctx, userID, challengeID)
	if err != nil {
		return nil, fmt.Errorf("querying best rank: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &rank, nil
}
