package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/clipclash/clipclash-server/internal/domain"
)

// CreateChallenge inserts a challenge.
func (s *Store) CreateChallenge(ctx context.Context, c *domain.Challenge) error {
	if c.Status == "" {
		c.Status = domain.ChallengeActive
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	var endsAt sql.NullString
	if c.EndsAt != nil {
		endsAt = nullString(formatTime(*c.EndsAt))
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO challenges (id, title, status, starts_at, ends_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Title, string(c.Status), formatTime(c.StartsAt), endsAt, formatTime(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create challenge %s: %w", c.ID, err)
	}
	return nil
}

// GetChallenge retrieves a challenge by id. Returns nil, nil if absent.
func (s *Store) GetChallenge(ctx context.Context, id string) (*domain.Challenge, error) {
	var c domain.Challenge
	var status, startsAt, createdAt string
	var endsAt sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, status, starts_at, ends_at, created_at
		FROM challenges WHERE id = ?`, id).Scan(
		&c.ID, &c.Title, &status, &startsAt, &endsAt, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	c.Status = domain.ChallengeStatus(status)
	if c.StartsAt, err = parseTime(startsAt); err != nil {
		return nil, err
	}
	if c.EndsAt, err = parseNullableTime(endsAt); err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListActiveChallenges returns every challenge whose rankings should be
// recomputed, oldest first.
func (s *Store) ListActiveChallenges(ctx context.Context) ([]*domain.Challenge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, status, starts_at, ends_at, created_at
		FROM challenges WHERE status = ? ORDER BY created_at`,
		string(domain.ChallengeActive),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var challenges []*domain.Challenge
	for rows.Next() {
		var c domain.Challenge
		var status, startsAt, createdAt string
		var endsAt sql.NullString
		if err := rows.Scan(&c.ID, &c.Title, &status, &startsAt, &endsAt, &createdAt); err != nil {
			return nil, err
		}
		c.Status = domain.ChallengeStatus(status)
		if c.StartsAt, err = parseTime(startsAt); err != nil {
			return nil, err
		}
		if c.EndsAt, err = parseNullableTime(endsAt); err != nil {
			return nil, err
		}
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		challenges = append(challenges, &c)
	}
	return challenges, rows.Err()
}
