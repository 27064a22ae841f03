package domain

import "time"

// Vote is a single cast vote on a submission. Votes are immutable once
// recorded; the at-most-one-vote-per-caster rule is enforced by the
// votes table's unique constraint at ingestion time.
type Vote struct {
	ID           string    `json:"id"`
	SubmissionID string    `json:"submission_id"`
	VoterID      string    `json:"voter_id"`
	Value        int       `json:"value"` // +1 or -1
	Super        bool      `json:"super"`
	CreatedAt    time.Time `json:"created_at"`
}

// VoteAggregate is the per-submission tally the recompute job scores.
// CreatedAt and BoostScore ride along so the job can build period-scoped
// cache sets without a second query.
type VoteAggregate struct {
	SubmissionID string
	OwnerID      string
	Upvotes      int
	Downvotes    int
	SuperVotes   int
	TotalVotes   int
	BoostScore   float64
	CreatedAt    time.Time
}
