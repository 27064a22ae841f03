package store

import (
	"context"
	"fmt"
	"time"

	"github.com/clipclash/clipclash-server/internal/domain"
)

// CreateVote records a vote and bumps the submission's aggregate
// counters in the same transaction. Vote ingestion proper (validation,
// dedup beyond the unique constraint) lives upstream; this is the
// durable write used by seeding and tests.
func (s *Store) CreateVote(ctx context.Context, v *domain.Vote) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	value := v.Value
	if value >= 0 {
		value = 1
	} else {
		value = -1
	}
	isSuper := 0
	if v.Super {
		isSuper = 1
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin vote tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO votes (id, submission_id, voter_id, value, is_super, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		v.ID, v.SubmissionID, v.VoterID, value, isSuper, formatTime(v.CreatedAt),
	); err != nil {
		return fmt.Errorf("create vote %s: %w", v.ID, err)
	}

	superDelta := 0
	if v.Super && value > 0 {
		superDelta = 1
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE submissions SET
			vote_count = vote_count + 1,
			super_vote_count = super_vote_count + ?,
			updated_at = ?
		WHERE id = ?`,
		superDelta, formatTime(time.Now().UTC()), v.SubmissionID,
	); err != nil {
		return fmt.Errorf("update vote counters for %s: %w", v.SubmissionID, err)
	}

	return tx.Commit()
}
