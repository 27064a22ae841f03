package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/clipclash/clipclash-server/internal/domain"
)

func (s *Server) registerLeaderboardRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getChallengeLeaderboard",
		Method:      http.MethodGet,
		Path:        "/api/v1/challenges/{challengeID}/leaderboard",
		Summary:     "Get challenge leaderboard",
		Description: "Returns a page of the challenge's ranked submissions for the requested period",
		Tags:        []string{"Leaderboards"},
	}, s.handleGetChallengeLeaderboard)

	huma.Register(s.api, huma.Operation{
		OperationID: "getFriendsLeaderboard",
		Method:      http.MethodGet,
		Path:        "/api/v1/challenges/{challengeID}/leaderboard/friends",
		Summary:     "Get friends leaderboard",
		Description: "Returns the challenge leaderboard restricted to the viewer's followees plus the viewer",
		Tags:        []string{"Leaderboards"},
	}, s.handleGetFriendsLeaderboard)

	huma.Register(s.api, huma.Operation{
		OperationID: "getUserRank",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{userID}/rank",
		Summary:     "Get a user's rank",
		Description: "Returns the user's position in a challenge leaderboard; rank is null when the user has no eligible submission",
		Tags:        []string{"Leaderboards"},
	}, s.handleGetUserRank)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTopCreators",
		Method:      http.MethodGet,
		Path:        "/api/v1/creators/top",
		Summary:     "Get top creators",
		Description: "Returns the cross-challenge creator ranking for the requested period",
		Tags:        []string{"Leaderboards"},
	}, s.handleGetTopCreators)

	huma.Register(s.api, huma.Operation{
		OperationID: "getUserBestRank",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{userID}/best-rank",
		Summary:     "Get a user's best rank",
		Description: "Returns the best rank the user has ever held in a challenge, from recorded ranking snapshots",
		Tags:        []string{"Leaderboards"},
	}, s.handleGetUserBestRank)
}

// === DTOs ===

// ChallengeLeaderboardInput contains parameters for a leaderboard page.
type ChallengeLeaderboardInput struct {
	ChallengeID string `path:"challengeID" doc:"Challenge ID"`
	Period      string `query:"period" enum:"daily,weekly,all_time" default:"all_time" doc:"Ranking period"`
	Page        int    `query:"page" default:"1" doc:"1-based page number"`
	Limit       int    `query:"limit" doc:"Page size (default 20, max 100)"`
}

// LeaderboardEntryResponse is a single leaderboard row.
type LeaderboardEntryResponse struct {
	Rank           int     `json:"rank" doc:"Position in leaderboard"`
	SubmissionID   string  `json:"submission_id" doc:"Submission ID"`
	UserID         string  `json:"user_id" doc:"Creator's user ID"`
	Username       string  `json:"username" doc:"Creator's username"`
	DisplayName    string  `json:"display_name" doc:"Creator's display name"`
	AvatarURL      *string `json:"avatar_url,omitempty" doc:"Avatar URL if available"`
	Score          float64 `json:"score" doc:"Effective ranking score"`
	VoteCount      int     `json:"vote_count" doc:"Total votes received"`
	SuperVoteCount int     `json:"super_vote_count" doc:"Super votes received"`
}

// LeaderboardResponse is a page of leaderboard rows.
type LeaderboardResponse struct {
	ChallengeID string                     `json:"challenge_id" doc:"Challenge ID"`
	Period      string                     `json:"period" doc:"Ranking period"`
	Entries     []LeaderboardEntryResponse `json:"entries" doc:"Ranked entries"`
	Total       int                        `json:"total" doc:"Total ranked submissions"`
	Page        int                        `json:"page" doc:"Current page"`
	Limit       int                        `json:"limit" doc:"Page size"`
	TotalPages  int                        `json:"total_pages" doc:"Total page count"`
}

// LeaderboardOutput wraps the leaderboard response for Huma.
type LeaderboardOutput struct {
	Body LeaderboardResponse
}

// === Handlers ===

func toLeaderboardEntries(rows []domain.RankedSubmission) []LeaderboardEntryResponse {
	entries := make([]LeaderboardEntryResponse, len(rows))
	for i, row := range rows {
		entries[i] = LeaderboardEntryResponse{
			Rank:           row.Rank,
			SubmissionID:   row.SubmissionID,
			UserID:         row.UserID,
			Username:       row.Username,
			DisplayName:    row.DisplayName,
			AvatarURL:      row.AvatarURL,
			Score:          row.Score,
			VoteCount:      row.VoteCount,
			SuperVoteCount: row.SuperVoteCount,
		}
	}
	return entries
}

func (s *Server) handleGetChallengeLeaderboard(ctx context.Context, input *ChallengeLeaderboardInput) (*LeaderboardOutput, error) {
	period := domain.Period(input.Period)

	page, err := s.services.Ranking.ChallengeLeaderboard(ctx, input.ChallengeID, period, input.Page, input.Limit)
	if err != nil {
		return nil, err
	}

	return &LeaderboardOutput{
		Body: LeaderboardResponse{
			ChallengeID: input.ChallengeID,
			Period:      string(period),
			Entries:     toLeaderboardEntries(page.Data),
			Total:       page.Total,
			Page:        page.Page,
			Limit:       page.Limit,
			TotalPages:  page.TotalPages,
		},
	}, nil
}

// FriendsLeaderboardInput contains parameters for the friends view.
type FriendsLeaderboardInput struct {
	ChallengeID string `path:"challengeID" doc:"Challenge ID"`
	UserID      string `query:"user_id" required:"true" doc:"Viewer's user ID"`
	Page        int    `query:"page" default:"1" doc:"1-based page number"`
	Limit       int    `query:"limit" doc:"Page size (default 20, max 100)"`
}

func (s *Server) handleGetFriendsLeaderboard(ctx context.Context, input *FriendsLeaderboardInput) (*LeaderboardOutput, error) {
	page, err := s.services.Ranking.FriendsLeaderboard(ctx, input.UserID, input.ChallengeID, input.Page, input.Limit)
	if err != nil {
		return nil, err
	}

	return &LeaderboardOutput{
		Body: LeaderboardResponse{
			ChallengeID: input.ChallengeID,
			Period:      string(domain.PeriodAllTime),
			Entries:     toLeaderboardEntries(page.Data),
			Total:       page.Total,
			Page:        page.Page,
			Limit:       page.Limit,
			TotalPages:  page.TotalPages,
		},
	}, nil
}

// UserRankInput contains parameters for a user rank lookup.
type UserRankInput struct {
	UserID      string `path:"userID" doc:"User ID"`
	ChallengeID string `query:"challenge_id" required:"true" doc:"Challenge ID"`
	Period      string `query:"period" enum:"daily,weekly,all_time" default:"all_time" doc:"Ranking period"`
}

// UserRankResponse is a user's position within one leaderboard.
type UserRankResponse struct {
	UserID            string  `json:"user_id" doc:"User ID"`
	ChallengeID       string  `json:"challenge_id" doc:"Challenge ID"`
	Period            string  `json:"period" doc:"Ranking period"`
	Rank              *int    `json:"rank" doc:"1-based rank, null when the user has no eligible submission"`
	SubmissionID      string  `json:"submission_id,omitempty" doc:"The user's ranked submission"`
	Score             float64 `json:"score" doc:"Persisted confidence score"`
	TotalParticipants int     `json:"total_participants" doc:"Total ranked submissions in the period"`
}

// UserRankOutput wraps the user rank response for Huma.
type UserRankOutput struct {
	Body UserRankResponse
}

func (s *Server) handleGetUserRank(ctx context.Context, input *UserRankInput) (*UserRankOutput, error) {
	rank, err := s.services.Ranking.UserRank(ctx, input.UserID, input.ChallengeID, domain.Period(input.Period))
	if err != nil {
		return nil, err
	}

	return &UserRankOutput{
		Body: UserRankResponse{
			UserID:            rank.UserID,
			ChallengeID:       rank.ChallengeID,
			Period:            string(rank.Period),
			Rank:              rank.Rank,
			SubmissionID:      rank.SubmissionID,
			Score:             rank.Score,
			TotalParticipants: rank.TotalParticipants,
		},
	}, nil
}

// TopCreatorsInput contains parameters for the top creators view.
type TopCreatorsInput struct {
	Period string `query:"period" enum:"daily,weekly,all_time" default:"all_time" doc:"Ranking period"`
	Limit  int    `query:"limit" doc:"Max creators (default 50)"`
}

// CreatorRankResponse is a single top-creators row.
type CreatorRankResponse struct {
	Rank        int     `json:"rank" doc:"Position in ranking"`
	UserID      string  `json:"user_id" doc:"User ID"`
	Username    string  `json:"username" doc:"Username"`
	DisplayName string  `json:"display_name" doc:"Display name"`
	AvatarURL   *string `json:"avatar_url,omitempty" doc:"Avatar URL if available"`
	Score       float64 `json:"score" doc:"Summed effective score across challenges"`
}

// TopCreatorsResponse is the full top creators view.
type TopCreatorsResponse struct {
	Period   string                `json:"period" doc:"Ranking period"`
	Creators []CreatorRankResponse `json:"creators" doc:"Ranked creators"`
}

// TopCreatorsOutput wraps the top creators response for Huma.
type TopCreatorsOutput struct {
	Body TopCreatorsResponse
}

func (s *Server) handleGetTopCreators(ctx context.Context, input *TopCreatorsInput) (*TopCreatorsOutput, error) {
	period := domain.Period(input.Period)

	creators, err := s.services.Ranking.TopCreators(ctx, period, input.Limit)
	if err != nil {
		return nil, err
	}

	rows := make([]CreatorRankResponse, len(creators))
	for i, c := range creators {
		rows[i] = CreatorRankResponse{
			Rank:        c.Rank,
			UserID:      c.UserID,
			Username:    c.Username,
			DisplayName: c.DisplayName,
			AvatarURL:   c.AvatarURL,
			Score:       c.Score,
		}
	}

	return &TopCreatorsOutput{
		Body: TopCreatorsResponse{
			Period:   string(period),
			Creators: rows,
		},
	}, nil
}

// UserBestRankInput contains parameters for a best rank lookup.
type UserBestRankInput struct {
	UserID      string `path:"userID" doc:"User ID"`
	ChallengeID string `query:"challenge_id" required:"true" doc:"Challenge ID"`
}

// UserBestRankResponse is the best rank a user has ever held.
type UserBestRankResponse struct {
	UserID      string `json:"user_id" doc:"User ID"`
	ChallengeID string `json:"challenge_id" doc:"Challenge ID"`
	BestRank    *int   `json:"best_rank" doc:"Best rank ever held, null if never ranked"`
}

// UserBestRankOutput wraps the best rank response for Huma.
type UserBestRankOutput struct {
	Body UserBestRankResponse
}

func (s *Server) handleGetUserBestRank(ctx context.Context, input *UserBestRankInput) (*UserBestRankOutput, error) {
	best, err := s.services.Ranking.BestRank(ctx, input.UserID, input.ChallengeID)
	if err != nil {
		return nil, err
	}

	return &UserBestRankOutput{
		Body: UserBestRankResponse{
			UserID:      input.UserID,
			ChallengeID: input.ChallengeID,
			BestRank:    best,
		},
	}, nil
}
