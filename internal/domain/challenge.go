package domain

import "time"

// ChallengeStatus is the lifecycle state of a challenge.
type ChallengeStatus string

// Challenge statuses.
const (
	ChallengeActive ChallengeStatus = "active"
	ChallengeEnded  ChallengeStatus = "ended"
)

// Challenge is a time-boxed video contest.
type Challenge struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Status    ChallengeStatus `json:"status"`
	StartsAt  time.Time       `json:"starts_at"`
	EndsAt    *time.Time      `json:"ends_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
