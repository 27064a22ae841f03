// Package main provides a tool to seed the database with test ranking data.
//
// It creates users, a pair of challenges, eligible submissions, and a
// realistic vote spread, then runs one recompute pass so leaderboards
// have scores to show before the server's worker takes over.
//
// Usage:
//
//	DATA_PATH=~/ClipClash/data go run ./cmd/seed
//	DATA_PATH=~/ClipClash/data go run ./cmd/seed --users 20 --votes 200
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/clipclash/clipclash-server/internal/cache"
	"github.com/clipclash/clipclash-server/internal/config"
	"github.com/clipclash/clipclash-server/internal/domain"
	"github.com/clipclash/clipclash-server/internal/id"
	"github.com/clipclash/clipclash-server/internal/service"
	"github.com/clipclash/clipclash-server/internal/store"
)

var (
	userCount = flag.Int("users", 12, "Number of test users to create")
	voteCount = flag.Int("votes", 120, "Number of votes to cast per challenge")
)

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/ClipClash/data")
	}
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	dbPath := filepath.Join(dataPath, "clipclash.db")
	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := store.Open(dbPath, slog.New(slog.DiscardHandler))
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	users := make([]*domain.UserProfile, 0, *userCount)
	for n := range *userCount {
		profile := &domain.UserProfile{
			ID:          id.MustGenerate(id.PrefixUser),
			Username:    fmt.Sprintf("creator%02d", n+1),
			DisplayName: fmt.Sprintf("Creator %02d", n+1),
			CreatedAt:   now,
		}
		if err := s.CreateUser(ctx, profile); err != nil {
			log.Fatalf("Failed to create user: %v", err)
		}
		users = append(users, profile)
	}
	fmt.Printf("Created %d users\n", len(users))

	// A few follow edges so the friends leaderboard is non-empty
	for n, u := range users {
		followee := users[(n+1)%len(users)]
		if err := s.CreateFollow(ctx, u.ID, followee.ID); err != nil {
			log.Fatalf("Failed to create follow: %v", err)
		}
	}

	challengeIDs := make([]string, 0, 2)
	titles := []string{"Best Trick Shot", "60-Second Cooking"}
	for _, title := range titles {
		challenge := &domain.Challenge{
			ID:        id.MustGenerate(id.PrefixChallenge),
			Title:     title,
			Status:    domain.ChallengeActive,
			StartsAt:  now.Add(-72 * time.Hour),
			CreatedAt: now,
		}
		if err := s.CreateChallenge(ctx, challenge); err != nil {
			log.Fatalf("Failed to create challenge: %v", err)
		}

		subs := seedSubmissions(ctx, s, challenge.ID, users, now)
		cast := seedVotes(ctx, s, subs, users, now)
		fmt.Printf("Challenge %q: %d submissions, %d votes\n", title, len(subs), cast)
		challengeIDs = append(challengeIDs, challenge.ID)
	}

	// One recompute pass so scores are persisted before the server's
	// worker runs. The throwaway cache only exists to satisfy the
	// service; the server rebuilds its own on startup.
	c, err := cache.OpenInMemory(slog.New(slog.DiscardHandler))
	if err != nil {
		log.Fatalf("Failed to open scratch cache: %v", err)
	}
	defer c.Close()

	cfg := &config.Config{
		Cache: config.CacheConfig{
			TTLDaily:   5 * time.Minute,
			TTLWeekly:  15 * time.Minute,
			TTLAllTime: time.Hour,
		},
	}
	recompute := service.NewRecomputeService(s, c, cfg, slog.New(slog.DiscardHandler))
	for _, challengeID := range challengeIDs {
		result, err := recompute.Run(ctx, challengeID)
		if err != nil {
			log.Fatalf("Recompute failed: %v", err)
		}
		fmt.Printf("Recomputed %s: %d submissions scored in %s\n",
			challengeID, result.Submissions, result.Duration)
	}

	fmt.Println("Done.")
}

func seedSubmissions(ctx context.Context, s *store.Store, challengeID string, users []*domain.UserProfile, now time.Time) []*domain.Submission {
	subs := make([]*domain.Submission, 0, len(users))
	for _, u := range users {
		// Stagger creation across the last three days so the daily and
		// weekly leaderboards diverge
		age := time.Duration(rand.Intn(72)) * time.Hour
		sub := &domain.Submission{
			ID:              id.MustGenerate(id.PrefixSubmission),
			ChallengeID:     challengeID,
			UserID:          u.ID,
			ModerationState: domain.ModerationApproved,
			TranscodeState:  domain.TranscodeCompleted,
			CreatedAt:       now.Add(-age),
			UpdatedAt:       now.Add(-age),
		}
		if err := s.CreateSubmission(ctx, sub); err != nil {
			log.Fatalf("Failed to create submission: %v", err)
		}
		subs = append(subs, sub)
	}
	return subs
}

func seedVotes(ctx context.Context, s *store.Store, subs []*domain.Submission, users []*domain.UserProfile, now time.Time) int {
	cast := 0
	for range *voteCount {
		sub := subs[rand.Intn(len(subs))]
		voter := users[rand.Intn(len(users))]
		if voter.ID == sub.UserID {
			continue
		}

		value := 1
		if rand.Intn(5) == 0 {
			value = -1
		}

		v := &domain.Vote{
			ID:           id.MustGenerate(id.PrefixVote),
			SubmissionID: sub.ID,
			VoterID:      voter.ID,
			Value:        value,
			Super:        value > 0 && rand.Intn(10) == 0,
			CreatedAt:    now,
		}
		// Duplicate voter/submission pairs are rejected by the unique
		// constraint; skip and keep going
		if err := s.CreateVote(ctx, v); err != nil {
			continue
		}
		cast++
	}
	return cast
}
