package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/clipclash/clipclash-server/internal/domain"
)

// periodFilter returns the SQL fragment and arguments restricting
// submissions (aliased "s") to the period's window. All-time adds
// nothing.
func periodFilter(period domain.Period, now time.Time) (string, []any) {
	start := period.Start(now)
	if start.IsZero() {
		return "", nil
	}
	return " AND s.created_at >= ?", []any{formatTime(start)}
}

// CreateSubmission inserts a submission. Uploads happen in the content
// pipeline; this exists for seeding and tests.
func (s *Store) CreateSubmission(ctx context.Context, sub *domain.Submission) error {
	now := time.Now().UTC()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	if sub.UpdatedAt.IsZero() {
		sub.UpdatedAt = now
	}
	if sub.ModerationState == "" {
		sub.ModerationState = domain.ModerationPending
	}
	if sub.TranscodeState == "" {
		sub.TranscodeState = domain.TranscodePending
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (id, challenge_id, user_id, moderation_state, transcode_state,
			vote_count, super_vote_count, score, boost_score, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.ChallengeID, sub.UserID, sub.ModerationState, sub.TranscodeState,
		sub.VoteCount, sub.SuperVoteCount, sub.Score, sub.BoostScore,
		formatTime(sub.CreatedAt), formatTime(sub.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create submission %s: %w", sub.ID, err)
	}
	return nil
}

// GetSubmission retrieves a submission by id. Returns nil, nil if
// absent.
func (s *Store) GetSubmission(ctx context.Context, id string) (*domain.Submission, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT s.id, s.challenge_id, s.user_id, s.moderation_state, s.transcode_state,
			s.vote_count, s.super_vote_count, s.score, s.boost_score,
			s.created_at, s.updated_at, s.deleted_at
		FROM submissions s WHERE s.id = ?`, id)
	sub, err := scanSubmission(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return sub, err
}

// scanner abstracts *sql.Row and *sql.Rows for submission scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row scanner) (*domain.Submission, error) {
	var sub domain.Submission
	var createdAt, updatedAt string
	var deletedAt sql.NullString

	err := row.Scan(
		&sub.ID, &sub.ChallengeID, &sub.UserID, &sub.ModerationState, &sub.TranscodeState,
		&sub.VoteCount, &sub.SuperVoteCount, &sub.Score, &sub.BoostScore,
		&createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if sub.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if sub.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if sub.DeletedAt, err = parseNullableTime(deletedAt); err != nil {
		return nil, err
	}
	return &sub, nil
}

// AggregateVotes tallies votes for every eligible submission in the
// challenge. Submissions with no votes are included with zero counts so
// the recompute job still ranks them.
func (s *Store) AggregateVotes(ctx context.Context, challengeID string) ([]domain.VoteAggregate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.user_id, s.boost_score, s.created_at,
			COALESCE(SUM(CASE WHEN v.value > 0 THEN 1 ELSE 0 END), 0) AS upvotes,
			COALESCE(SUM(CASE WHEN v.value < 0 THEN 1 ELSE 0 END), 0) AS downvotes,
			COALESCE(SUM(CASE WHEN v.value > 0 AND v.is_super = 1 THEN 1 ELSE 0 END), 0) AS super_votes,
			COUNT(v.id) AS total_votes
		FROM submissions s
		LEFT JOIN votes v ON v.submission_id = s.id
		WHERE s.challenge_id = ? AND `+eligible+`
		GROUP BY s.id
		ORDER BY s.created_at`, challengeID)
	if err != nil {
		return nil, fmt.Errorf("aggregate votes for %s: %w", challengeID, err)
	}
	defer rows.Close()

	var aggregates []domain.VoteAggregate
	for rows.Next() {
		var agg domain.VoteAggregate
		var createdAt string
		if err := rows.Scan(
			&agg.SubmissionID, &agg.OwnerID, &agg.BoostScore, &createdAt,
			&agg.Upvotes, &agg.Downvotes, &agg.SuperVotes, &agg.TotalVotes,
		); err != nil {
			return nil, err
		}
		if agg.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		aggregates = append(aggregates, agg)
	}
	return aggregates, rows.Err()
}

// PersistScore durably updates a submission's stored score. Idempotent.
func (s *Store) PersistScore(ctx context.Context, submissionID string, score float64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE submissions SET score = ?, updated_at = ? WHERE id = ?`,
		score, formatTime(time.Now().UTC()), submissionID,
	)
	if err != nil {
		return fmt.Errorf("persist score for %s: %w", submissionID, err)
	}
	return nil
}

// QueryRanked is the authoritative fallback ranking: eligible
// submissions in the challenge and period window, ordered by effective
// score descending, joined with owner display data. Ranks are not
// assigned here; the caller derives them from the offset.
func (s *Store) QueryRanked(ctx context.Context, challengeID string, period domain.Period, offset, limit int) ([]domain.RankedSubmission, error) {
	filter, filterArgs := periodFilter(period, time.Now())
	args := append([]any{challengeID}, filterArgs...)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.user_id, u.username, u.display_name, u.avatar_url,
			s.score + s.boost_score, s.vote_count, s.super_vote_count
		FROM submissions s
		JOIN users u ON u.id = s.user_id AND u.deleted_at IS NULL
		WHERE s.challenge_id = ? AND `+eligible+filter+`
		ORDER BY s.score + s.boost_score DESC, s.created_at
		LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("query ranked for %s: %w", challengeID, err)
	}
	defer rows.Close()

	return scanRankedRows(rows)
}

// CountRanked counts the eligible submissions in the challenge and
// period window.
func (s *Store) CountRanked(ctx context.Context, challengeID string, period domain.Period) (int, error) {
	filter, filterArgs := periodFilter(period, time.Now())
	args := append([]any{challengeID}, filterArgs...)

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM submissions s
		WHERE s.challenge_id = ? AND `+eligible+filter, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count ranked for %s: %w", challengeID, err)
	}
	return count, nil
}

// UserEligibleSubmission returns the user's best-ranking eligible
// submission in the challenge, or nil, nil if they have none.
func (s *Store) UserEligibleSubmission(ctx context.Context, userID, challengeID string) (*domain.Submission, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT s.id, s.challenge_id, s.user_id, s.moderation_state, s.transcode_state,
			s.vote_count, s.super_vote_count, s.score, s.boost_score,
			s.created_at, s.updated_at, s.deleted_at
		FROM submissions s
		WHERE s.user_id = ? AND s.challenge_id = ? AND `+eligible+`
		ORDER BY s.score + s.boost_score DESC, s.created_at
		LIMIT 1`, userID, challengeID)
	sub, err := scanSubmission(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return sub, err
}

// HigherScoringCount counts the eligible submissions in the window
// strictly outranking the given effective score. Used to derive a rank
// when the cache is cold.
func (s *Store) HigherScoringCount(ctx context.Context, challengeID string, period domain.Period, threshold float64) (int, error) {
	filter, filterArgs := periodFilter(period, time.Now())
	args := append([]any{challengeID}, filterArgs...)
	args = append(args, threshold)

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM submissions s
		WHERE s.challenge_id = ? AND `+eligible+filter+`
		AND s.score + s.boost_score > ?`, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("higher scoring count for %s: %w", challengeID, err)
	}
	return count, nil
}

// GetLeaderboardRows hydrates cached submission ids into leaderboard
// rows, keyed by submission id. Submissions that have since become
// ineligible (or whose owners are gone) are absent from the map; the
// ranking service decides whether that means falling back to the store.
func (s *Store) GetLeaderboardRows(ctx context.Context, submissionIDs []string) (map[string]domain.RankedSubmission, error) {
	result := make(map[string]domain.RankedSubmission, len(submissionIDs))
	if len(submissionIDs) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(submissionIDs)-1) + "?"
	args := make([]any, len(submissionIDs))
	for i, id := range submissionIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.user_id, u.username, u.display_name, u.avatar_url,
			s.score + s.boost_score, s.vote_count, s.super_vote_count
		FROM submissions s
		JOIN users u ON u.id = s.user_id AND u.deleted_at IS NULL
		WHERE s.id IN (`+placeholders+`) AND `+eligible, args...)
	if err != nil {
		return nil, fmt.Errorf("hydrate leaderboard rows: %w", err)
	}
	defer rows.Close()

	hydrated, err := scanRankedRows(rows)
	if err != nil {
		return nil, err
	}
	for _, row := range hydrated {
		result[row.SubmissionID] = row
	}
	return result, nil
}

// QueryFriendsRanked returns the eligible submissions in the challenge
// owned by the user's followees or the user themselves, ordered by
// effective score descending. The friends view is always DB-backed.
func (s *Store) QueryFriendsRanked(ctx context.Context, userID, challengeID string, offset, limit int) ([]domain.RankedSubmission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.user_id, u.username, u.display_name, u.avatar_url,
			s.score + s.boost_score, s.vote_count, s.super_vote_count
		FROM submissions s
		JOIN users u ON u.id = s.user_id AND u.deleted_at IS NULL
		WHERE s.challenge_id = ? AND `+eligible+`
		AND (s.user_id = ? OR s.user_id IN (
			SELECT followee_id FROM follows WHERE follower_id = ?))
		ORDER BY s.score + s.boost_score DESC, s.created_at
		LIMIT ? OFFSET ?`, challengeID, userID, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query friends ranked for %s: %w", challengeID, err)
	}
	defer rows.Close()

	return scanRankedRows(rows)
}

// CountFriendsRanked counts the submissions in the friends view.
func (s *Store) CountFriendsRanked(ctx context.Context, userID, challengeID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM submissions s
		WHERE s.challenge_id = ? AND `+eligible+`
		AND (s.user_id = ? OR s.user_id IN (
			SELECT followee_id FROM follows WHERE follower_id = ?))`,
		challengeID, userID, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count friends ranked for %s: %w", challengeID, err)
	}
	return count, nil
}

// TopCreators aggregates effective scores of eligible submissions by
// owner across all challenges within the period window, best first.
func (s *Store) TopCreators(ctx context.Context, period domain.Period, limit int) ([]domain.RankingEntry, error) {
	filter, filterArgs := periodFilter(period, time.Now())
	args := append([]any{}, filterArgs...)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, `
		SELECT s.user_id, SUM(s.score + s.boost_score) AS total
		FROM submissions s
		WHERE `+eligible+filter+`
		GROUP BY s.user_id
		ORDER BY total DESC
		LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("top creators: %w", err)
	}
	defer rows.Close()

	var entries []domain.RankingEntry
	for rows.Next() {
		var e domain.RankingEntry
		if err := rows.Scan(&e.Member, &e.Score); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanRankedRows(rows *sql.Rows) ([]domain.RankedSubmission, error) {
	var result []domain.RankedSubmission
	for rows.Next() {
		var r domain.RankedSubmission
		var avatar sql.NullString
		if err := rows.Scan(
			&r.SubmissionID, &r.UserID, &r.Username, &r.DisplayName, &avatar,
			&r.Score, &r.VoteCount, &r.SuperVoteCount,
		); err != nil {
			return nil, err
		}
		r.AvatarURL = stringPtr(avatar)
		result = append(result, r)
	}
	return result, rows.Err()
}
