package store

import (
	"context"
	"fmt"
	"time"
)

// CreateFollow records that follower follows followee. Following the
// same user twice is a no-op.
func (s *Store) CreateFollow(ctx context.Context, followerID, followeeID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO follows (follower_id, followee_id, created_at)
		VALUES (?, ?, ?)`,
		followerID, followeeID, formatTime(time.Now().UTC()),
	)
	if err != nil {
		return fmt.Errorf("create follow %s -> %s: %w", followerID, followeeID, err)
	}
	return nil
}

// DeleteFollow removes a follow edge. Removing an absent edge is not an
// error.
func (s *Store) DeleteFollow(ctx context.Context, followerID, followeeID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM follows WHERE follower_id = ? AND followee_id = ?`,
		followerID, followeeID,
	)
	if err != nil {
		return fmt.Errorf("delete follow %s -> %s: %w", followerID, followeeID, err)
	}
	return nil
}

// ListFollowees returns the ids of everyone the user follows.
func (s *Store) ListFollowees(ctx context.Context, followerID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT followee_id FROM follows WHERE follower_id = ?`, followerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
