package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/clipclash/clipclash-server/internal/errors"
)

func (s *Server) registerRecomputeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "recomputeChallenge",
		Method:      http.MethodPost,
		Path:        "/api/v1/challenges/{challengeID}/recompute",
		Summary:     "Recompute challenge rankings",
		Description: "Triggers a full ranking recomputation for a challenge. Rate limited per challenge; intended for schedulers and operators",
		Tags:        []string{"Rankings"},
	}, s.handleRecomputeChallenge)
}

// RecomputeInput identifies the challenge to recompute.
type RecomputeInput struct {
	ChallengeID string `path:"challengeID" doc:"Challenge ID"`
}

// RecomputeResponse summarizes the completed run.
type RecomputeResponse struct {
	RunID       string `json:"run_id" doc:"Unique ID of this recompute run"`
	ChallengeID string `json:"challenge_id" doc:"Challenge ID"`
	Submissions int    `json:"submissions" doc:"Number of submissions scored"`
	SnapshotID  string `json:"snapshot_id,omitempty" doc:"Ranking snapshot recorded by this run"`
	Duration    string `json:"duration" doc:"Wall-clock run duration"`
}

// RecomputeOutput wraps the recompute response for Huma.
type RecomputeOutput struct {
	Body RecomputeResponse
}

func (s *Server) handleRecomputeChallenge(ctx context.Context, input *RecomputeInput) (*RecomputeOutput, error) {
	if !s.recomputeLimiter.Allow(input.ChallengeID) {
		return nil, errors.RateLimited("recompute already triggered recently for this challenge")
	}

	result, err := s.services.Recompute.Run(ctx, input.ChallengeID)
	if err != nil {
		return nil, err
	}

	return &RecomputeOutput{
		Body: RecomputeResponse{
			RunID:       result.RunID,
			ChallengeID: result.ChallengeID,
			Submissions: result.Submissions,
			SnapshotID:  result.SnapshotID,
			Duration:    result.Duration.String(),
		},
	}, nil
}
