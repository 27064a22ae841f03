package api

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/clipclash/clipclash-server/internal/cache"
	"github.com/clipclash/clipclash-server/internal/config"
	"github.com/clipclash/clipclash-server/internal/domain"
	"github.com/clipclash/clipclash-server/internal/service"
	"github.com/clipclash/clipclash-server/internal/store"
)

// testEnvelope mirrors the response envelope for decoding in tests.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type testServer struct {
	*Server
	api humatest.TestAPI
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		st.Close() //nolint:errcheck // Test cleanup
	})

	ch, err := cache.OpenInMemory(logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		ch.Close() //nolint:errcheck // Test cleanup
	})

	cfg := &config.Config{
		Server: config.ServerConfig{Name: "ClipClash Test"},
		Cache: config.CacheConfig{
			TTLDaily:   5 * time.Minute,
			TTLWeekly:  15 * time.Minute,
			TTLAllTime: time.Hour,
		},
		Ranking: config.RankingConfig{
			RecomputeInterval:      2 * time.Minute,
			RecomputeConcurrency:   4,
			RecomputeRatePerMinute: 2,
			DefaultPageSize:        20,
			MaxPageSize:            100,
			TopCreatorsLimit:       50,
		},
	}

	services := &Services{
		Ranking:   service.NewRankingService(st, ch, cfg, logger),
		Recompute: service.NewRecomputeService(st, ch, cfg, logger),
	}

	s := NewServer(st, ch, services, cfg, logger)
	t.Cleanup(s.Close)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.api),
	}
}

// seedChallenge creates two users with one submission each and votes
// that order sub-1 above sub-2.
func (ts *testServer) seedChallenge(t *testing.T, challengeID string) {
	t.Helper()
	ctx := context.Background()

	for _, u := range []struct{ id, name string }{
		{"usr-1", "alice"},
		{"usr-2", "bob"},
	} {
		require.NoError(t, ts.store.CreateUser(ctx, &domain.UserProfile{
			ID:          u.id,
			Username:    u.name,
			DisplayName: u.name,
		}))
	}

	require.NoError(t, ts.store.CreateChallenge(ctx, &domain.Challenge{
		ID:       challengeID,
		Title:    "test challenge",
		StartsAt: time.Now().UTC().Add(-time.Hour),
	}))

	for _, sub := range []struct{ id, userID string }{
		{"sub-1", "usr-1"},
		{"sub-2", "usr-2"},
	} {
		require.NoError(t, ts.store.CreateSubmission(ctx, &domain.Submission{
			ID:              sub.id,
			ChallengeID:     challengeID,
			UserID:          sub.userID,
			ModerationState: domain.ModerationApproved,
			TranscodeState:  domain.TranscodeCompleted,
		}))
	}

	votes := []struct {
		id, submissionID, voterID string
		value                     int
	}{
		{"v-1", "sub-1", "usr-2", 1},
		{"v-2", "sub-2", "usr-1", -1},
	}
	for _, v := range votes {
		require.NoError(t, ts.store.CreateVote(ctx, &domain.Vote{
			ID:           v.id,
			SubmissionID: v.submissionID,
			VoterID:      v.voterID,
			Value:        v.value,
		}))
	}
}

// seedOtherChallenge creates an empty second challenge.
func (ts *testServer) seedOtherChallenge(t *testing.T, challengeID string) {
	t.Helper()
	require.NoError(t, ts.store.CreateChallenge(context.Background(), &domain.Challenge{
		ID:       challengeID,
		Title:    "other challenge",
		StartsAt: time.Now().UTC().Add(-time.Hour),
	}))
}
