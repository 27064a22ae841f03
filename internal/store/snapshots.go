package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/clipclash/clipclash-server/internal/domain"
)

// CreateSnapshot persists an immutable ranking snapshot and its items
// in one transaction. Snapshots are write-once; nothing updates them.
func (s *Store) CreateSnapshot(ctx context.Context, snap *domain.RankingSnapshot) error {
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO ranking_snapshots (id, challenge_id, period, created_at)
		VALUES (?, ?, ?, ?)`,
		snap.ID, snap.ChallengeID, string(snap.Period), formatTime(snap.CreatedAt),
	); err != nil {
		return fmt.Errorf("create snapshot %s: %w", snap.ID, err)
	}

	for _, item := range snap.Items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO ranking_snapshot_items (snapshot_id, rank, submission_id, user_id, score)
			VALUES (?, ?, ?, ?, ?)`,
			snap.ID, item.Rank, item.SubmissionID, item.UserID, item.Score,
		); err != nil {
			return fmt.Errorf("create snapshot item %s/%d: %w", snap.ID, item.Rank, err)
		}
	}

	return tx.Commit()
}

// LatestSnapshot returns the most recent snapshot for a challenge and
// period, with items in rank order. Returns nil, nil if none exists.
func (s *Store) LatestSnapshot(ctx context.Context, challengeID string, period domain.Period) (*domain.RankingSnapshot, error) {
	var snap domain.RankingSnapshot
	var periodStr, createdAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, challenge_id, period, created_at
		FROM ranking_snapshots
		WHERE challenge_id = ? AND period = ?
		ORDER BY created_at DESC
		LIMIT 1`, challengeID, string(period)).Scan(
		&snap.ID, &snap.ChallengeID, &periodStr, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	snap.Period = domain.Period(periodStr)
	if snap.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT rank, submission_id, user_id, score
		FROM ranking_snapshot_items
		WHERE snapshot_id = ?
		ORDER BY rank`, snap.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.SnapshotItem
		if err := rows.Scan(&item.Rank, &item.SubmissionID, &item.UserID, &item.Score); err != nil {
			return nil, err
		}
		snap.Items = append(snap.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// BestRank returns the best (lowest) rank the user has ever held in the
// challenge across all snapshots. ok is false when the user never
// appeared in a snapshot.
func (s *Store) BestRank(ctx context.Context, userID, challengeID string) (rank int, ok bool, err error) {
	var best sql.NullInt64
	err = s.db.QueryRowContext(ctx, `
		SELECT MIN(i.rank)
		FROM ranking_snapshot_items i
		JOIN ranking_snapshots sn ON sn.id = i.snapshot_id
		WHERE i.user_id = ? AND sn.challenge_id = ?`,
		userID, challengeID).Scan(&best)
	if err != nil {
		return 0, false, fmt.Errorf("best rank for %s in %s: %w", userID, challengeID, err)
	}
	if !best.Valid {
		return 0, false, nil
	}
	return int(best.Int64), true, nil
}
