package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipclash/clipclash-server/internal/cache"
	"github.com/clipclash/clipclash-server/internal/domain"
	"github.com/clipclash/clipclash-server/internal/errors"
)

func TestRecompute_UnknownChallenge(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.recompute.Run(context.Background(), "chal-missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestRecompute_PersistsScoresAndPopulatesCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedChallenge(t, "chal-1")

	result, err := env.recompute.Run(ctx, "chal-1")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Submissions)
	assert.NotEmpty(t, result.RunID)
	assert.NotEmpty(t, result.SnapshotID)

	// Scores landed in the store.
	sub, err := env.store.GetSubmission(ctx, "sub-1")
	require.NoError(t, err)
	assert.Greater(t, sub.Score, 0.0)

	// Every period's set was rebuilt; the seed data is fresh, so all
	// three windows contain all three submissions.
	for _, period := range domain.Periods() {
		key := cache.ChallengeKey("chal-1", period)
		count, err := env.cache.Count(key)
		require.NoError(t, err)
		assert.Equal(t, 3, count, "period %s", period)

		entries, err := env.cache.Range(key, 0, -1)
		require.NoError(t, err)
		assert.Equal(t, "sub-1", entries[0].Member, "period %s", period)
	}
}

func TestRecompute_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedChallenge(t, "chal-1")

	_, err := env.recompute.Run(ctx, "chal-1")
	require.NoError(t, err)

	key := cache.ChallengeKey("chal-1", domain.PeriodAllTime)
	first, err := env.cache.Range(key, 0, -1)
	require.NoError(t, err)

	// No votes changed, so a second run must reproduce the set
	// exactly: same members, same ranks, bit-identical scores.
	_, err = env.recompute.Run(ctx, "chal-1")
	require.NoError(t, err)

	second, err := env.cache.Range(key, 0, -1)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Member, second[i].Member)
		assert.Equal(t, first[i].Rank, second[i].Rank)
		assert.Equal(t, first[i].Score, second[i].Score)
	}
}

func TestRecompute_EmptyResultLeavesCacheIntact(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addChallenge(t, "chal-empty")

	// Simulate a previously good set for a challenge whose
	// submissions have since all become ineligible.
	key := cache.ChallengeKey("chal-empty", domain.PeriodAllTime)
	require.NoError(t, env.cache.ReplaceAll(key, []domain.RankingEntry{
		{Member: "sub-old", Score: 0.7},
	}, time.Hour))

	result, err := env.recompute.Run(ctx, "chal-empty")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Submissions)
	assert.Empty(t, result.SnapshotID)

	count, err := env.cache.Count(key)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "empty recompute must not wipe the previous set")
}

func TestRecompute_SuperVoteOutweighsPlainVote(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.addUser(t, "usr-1", "alice")
	env.addUser(t, "usr-2", "bob")
	env.addUser(t, "usr-3", "carol")
	env.addChallenge(t, "chal-1")
	env.addSubmission(t, "sub-plain", "chal-1", "usr-1")
	env.addSubmission(t, "sub-super", "chal-1", "usr-2")

	env.addVote(t, "v-1", "sub-plain", "usr-3", 1, false)
	env.addVote(t, "v-2", "sub-super", "usr-3", 1, true)

	_, err := env.recompute.Run(ctx, "chal-1")
	require.NoError(t, err)

	entries, err := env.cache.Range(cache.ChallengeKey("chal-1", domain.PeriodAllTime), 0, -1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "sub-super", entries[0].Member)
}

func TestRecompute_ConcurrentRunsSameChallenge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedChallenge(t, "chal-1")

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.recompute.Run(ctx, "chal-1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	count, err := env.cache.Count(cache.ChallengeKey("chal-1", domain.PeriodAllTime))
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestRecomputeAll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.addUser(t, "usr-1", "alice")
	env.addUser(t, "usr-2", "bob")
	env.addChallenge(t, "chal-1")
	env.addChallenge(t, "chal-2")
	env.addSubmission(t, "sub-1", "chal-1", "usr-1")
	env.addSubmission(t, "sub-2", "chal-2", "usr-2")
	env.addVote(t, "v-1", "sub-1", "usr-2", 1, false)
	env.addVote(t, "v-2", "sub-2", "usr-1", 1, false)

	require.NoError(t, env.recompute.RecomputeAll(ctx))

	for _, challengeID := range []string{"chal-1", "chal-2"} {
		count, err := env.cache.Count(cache.ChallengeKey(challengeID, domain.PeriodAllTime))
		require.NoError(t, err)
		assert.Equal(t, 1, count, "challenge %s", challengeID)
	}
}
