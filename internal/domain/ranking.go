package domain

import "time"

// RankingEntry is one member of a ranking set: a submission id (or user
// id for the top-creators view) and its floating-point rank key.
// Within one set each member appears at most once; descending score
// determines order, and tie order is the stable insertion order of the
// rebuild, which callers must not depend on.
type RankingEntry struct {
	Member string  `json:"m"`
	Score  float64 `json:"s"`
}

// RankedSubmission is one hydrated leaderboard row.
type RankedSubmission struct {
	Rank           int     `json:"rank"`
	SubmissionID   string  `json:"submission_id"`
	UserID         string  `json:"user_id"`
	Username       string  `json:"username"`
	DisplayName    string  `json:"display_name"`
	AvatarURL      *string `json:"avatar_url,omitempty"`
	Score          float64 `json:"score"`
	VoteCount      int     `json:"vote_count"`
	SuperVoteCount int     `json:"super_vote_count"`
}

// CreatorRank is one row of the cross-challenge top-creators view.
type CreatorRank struct {
	Rank        int     `json:"rank"`
	UserID      string  `json:"user_id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	Score       float64 `json:"score"`
}

// UserRank is a user's position within one challenge leaderboard.
// Rank is nil when the user has no eligible submission; that is a
// normal outcome, not an error.
type UserRank struct {
	UserID            string  `json:"user_id"`
	ChallengeID       string  `json:"challenge_id"`
	Period            Period  `json:"period"`
	Rank              *int    `json:"rank,omitempty"`
	SubmissionID      string  `json:"submission_id,omitempty"`
	Score             float64 `json:"score"`
	TotalParticipants int     `json:"total_participants"`
}

// Page is the pagination envelope every leaderboard read returns.
type Page[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

// NewPage builds a page envelope, deriving the total page count.
func NewPage[T any](data []T, total, page, limit int) Page[T] {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Page[T]{
		Data:       data,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}

// SnapshotItem is one row of a persisted ranking snapshot.
type SnapshotItem struct {
	Rank         int     `json:"rank"`
	SubmissionID string  `json:"submission_id"`
	UserID       string  `json:"user_id"`
	Score        float64 `json:"score"`
}

// RankingSnapshot is an immutable record of a completed recomputation.
// Written once per recompute run, never mutated; historical queries
// such as "best rank ever achieved" read from these.
type RankingSnapshot struct {
	ID          string         `json:"id"`
	ChallengeID string         `json:"challenge_id"`
	Period      Period         `json:"period"`
	Items       []SnapshotItem `json:"items"`
	CreatedAt   time.Time      `json:"created_at"`
}
