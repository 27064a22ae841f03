package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/clipclash/clipclash-server/internal/domain"
)

// CreateUser inserts a user profile. Account management proper lives in
// the user subsystem; this store only carries the display data needed
// to hydrate leaderboard rows (plus seed/test fixtures).
func (s *Store) CreateUser(ctx context.Context, profile *domain.UserProfile) error {
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, display_name, avatar_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		profile.ID, profile.Username, profile.DisplayName, nullStringPtr(profile.AvatarURL),
		formatTime(profile.CreatedAt), formatTime(profile.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create user %s: %w", profile.ID, err)
	}
	return nil
}

// GetUserProfile retrieves a single profile. Returns nil, nil if the
// user does not exist or is soft-deleted.
func (s *Store) GetUserProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var p domain.UserProfile
	var avatar sql.NullString
	var createdAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, display_name, avatar_url, created_at
		FROM users WHERE id = ? AND deleted_at IS NULL`, userID).Scan(
		&p.ID, &p.Username, &p.DisplayName, &avatar, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.AvatarURL = stringPtr(avatar)
	p.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetUserProfilesByIDs retrieves profiles for the given user ids, keyed
// by id. Missing or soft-deleted users are simply absent from the map.
func (s *Store) GetUserProfilesByIDs(ctx context.Context, userIDs []string) (map[string]*domain.UserProfile, error) {
	result := make(map[string]*domain.UserProfile, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(userIDs)-1) + "?"
	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, display_name, avatar_url, created_at
		FROM users WHERE id IN (`+placeholders+`) AND deleted_at IS NULL`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.UserProfile
		var avatar sql.NullString
		var createdAt string
		if err := rows.Scan(&p.ID, &p.Username, &p.DisplayName, &avatar, &createdAt); err != nil {
			return nil, err
		}
		p.AvatarURL = stringPtr(avatar)
		p.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, err
		}
		result[p.ID] = &p
	}
	return result, rows.Err()
}
