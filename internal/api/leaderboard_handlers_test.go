package api

import (
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetChallengeLeaderboard(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedChallenge(t, "chal-1")

	resp := ts.api.Post("/api/v1/challenges/chal-1/recompute")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/challenges/chal-1/leaderboard?period=all_time")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[LeaderboardResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	assert.Equal(t, EnvelopeVersion, envelope.Version)
	assert.True(t, envelope.Success)
	assert.Equal(t, "chal-1", envelope.Data.ChallengeID)
	assert.Equal(t, 2, envelope.Data.Total)
	require.Len(t, envelope.Data.Entries, 2)
	assert.Equal(t, 1, envelope.Data.Entries[0].Rank)
	assert.Equal(t, "sub-1", envelope.Data.Entries[0].SubmissionID)
	assert.Equal(t, "alice", envelope.Data.Entries[0].Username)
}

func TestGetChallengeLeaderboard_UnknownChallenge(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/challenges/chal-missing/leaderboard")
	require.Equal(t, http.StatusNotFound, resp.Code, resp.Body.String())

	var envelope testEnvelope[struct{}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, "NOT_FOUND", envelope.Code)
}

func TestGetChallengeLeaderboard_ServesColdWithoutCache(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedChallenge(t, "chal-1")

	// No recompute has run: the read must still answer from the store.
	resp := ts.api.Get("/api/v1/challenges/chal-1/leaderboard")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[LeaderboardResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, 2, envelope.Data.Total)
}

func TestGetFriendsLeaderboard(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedChallenge(t, "chal-1")

	resp := ts.api.Post("/api/v1/challenges/chal-1/recompute")
	require.Equal(t, http.StatusOK, resp.Code)

	// No follows: only the viewer's own submission appears.
	resp = ts.api.Get("/api/v1/challenges/chal-1/leaderboard/friends?user_id=usr-1")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[LeaderboardResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Entries, 1)
	assert.Equal(t, "sub-1", envelope.Data.Entries[0].SubmissionID)
}

func TestGetUserRank(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedChallenge(t, "chal-1")

	resp := ts.api.Post("/api/v1/challenges/chal-1/recompute")
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/users/usr-1/rank?challenge_id=chal-1&period=all_time")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[UserRankResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Data.Rank)
	assert.Equal(t, 1, *envelope.Data.Rank)
	assert.Equal(t, "sub-1", envelope.Data.SubmissionID)
	assert.Equal(t, 2, envelope.Data.TotalParticipants)
}

func TestGetUserRank_NoSubmissionIsNull(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedChallenge(t, "chal-1")

	resp := ts.api.Get("/api/v1/users/usr-watcher/rank?challenge_id=chal-1")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[UserRankResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Nil(t, envelope.Data.Rank)
}

func TestGetTopCreators(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedChallenge(t, "chal-1")

	resp := ts.api.Post("/api/v1/challenges/chal-1/recompute")
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/creators/top?period=all_time")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[TopCreatorsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.Creators)
	assert.Equal(t, "usr-1", envelope.Data.Creators[0].UserID)
	assert.Equal(t, 1, envelope.Data.Creators[0].Rank)
}

func TestGetUserBestRank(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedChallenge(t, "chal-1")

	resp := ts.api.Get("/api/v1/users/usr-1/best-rank?challenge_id=chal-1")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var envelope testEnvelope[UserBestRankResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Nil(t, envelope.Data.BestRank, "no snapshot recorded yet")

	resp = ts.api.Post("/api/v1/challenges/chal-1/recompute")
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/users/usr-1/best-rank?challenge_id=chal-1")
	require.Equal(t, http.StatusOK, resp.Code)

	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Data.BestRank)
	assert.Equal(t, 1, *envelope.Data.BestRank)
}

func TestRecompute_RateLimited(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedChallenge(t, "chal-1")

	// Burst allows the configured per-minute count; the next trigger
	// inside the window is rejected.
	for range ts.cfg.Ranking.RecomputeRatePerMinute {
		resp := ts.api.Post("/api/v1/challenges/chal-1/recompute")
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	}

	resp := ts.api.Post("/api/v1/challenges/chal-1/recompute")
	require.Equal(t, http.StatusTooManyRequests, resp.Code, resp.Body.String())

	var envelope testEnvelope[struct{}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "RATE_LIMITED", envelope.Code)

	// A different challenge has its own limiter bucket.
	ts.seedOtherChallenge(t, "chal-2")
	resp = ts.api.Post("/api/v1/challenges/chal-2/recompute")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
}

func TestRecompute_UnknownChallenge(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/challenges/chal-missing/recompute")
	require.Equal(t, http.StatusNotFound, resp.Code, resp.Body.String())
}
