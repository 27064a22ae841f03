package domain

import "time"

// Moderation states a submission passes through.
const (
	ModerationPending  = "pending"
	ModerationApproved = "approved"
	ModerationRejected = "rejected"
)

// Transcode states for uploaded video.
const (
	TranscodePending   = "pending"
	TranscodeRunning   = "running"
	TranscodeCompleted = "completed"
	TranscodeFailed    = "failed"
)

// Submission is a user's video entry in a challenge.
// The moderation and transcode pipelines live outside this service; we
// only read their states to decide ranking eligibility. The score field
// is written exclusively by the recompute job.
type Submission struct {
	ID              string     `json:"id"`
	ChallengeID     string     `json:"challenge_id"`
	UserID          string     `json:"user_id"`
	ModerationState string     `json:"moderation_state"`
	TranscodeState  string     `json:"transcode_state"`
	VoteCount       int        `json:"vote_count"`
	SuperVoteCount  int        `json:"super_vote_count"`
	Score           float64    `json:"score"`
	BoostScore      float64    `json:"boost_score"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}

// Eligible reports whether the submission may appear in rankings:
// approved by moderation, fully transcoded, and not soft-deleted.
func (s *Submission) Eligible() bool {
	return s.ModerationState == ModerationApproved &&
		s.TranscodeState == TranscodeCompleted &&
		s.DeletedAt == nil
}

// EffectiveScore is the rank key: the persisted Wilson score plus any
// externally granted boost.
func (s *Submission) EffectiveScore() float64 {
	return s.Score + s.BoostScore
}
