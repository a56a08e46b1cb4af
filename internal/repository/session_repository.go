package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"focusroom/backend/internal/model"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Insert stores a completed session. It reports false without error when
// the user already has a session with the same id.
func (r *SessionRepository) Insert(ctx context.Context, session *model.FocusSession) (bool, error) {
	result, err := r.db.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO focus_sessions (
			id, user_id, mode, subject, duration_minutes, completed_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.Mode,
		session.Subject,
		session.DurationMinutes,
		formatTime(session.CompletedAt),
		formatTime(session.CreatedAt),
	)
	if err != nil {
		return false, fmt.Errorf("insert session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert session rows: %w", err)
	}
	return affected > 0, nil
}

func (r *SessionRepository) Get(ctx context.Context, userID, id string) (*model.FocusSession, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, mode, subject, duration_minutes, completed_at, created_at
		 FROM focus_sessions
		 WHERE user_id = ? AND id = ?`,
		userID,
		id,
	)
	return scanFocusSession(row)
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.FocusSession, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, mode, subject, duration_minutes, completed_at, created_at
		 FROM focus_sessions
		 WHERE user_id = ?
		 ORDER BY completed_at DESC
		 LIMIT ?`,
		userID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]model.FocusSession, 0, limit)
	for rows.Next() {
		session, scanErr := scanFocusSession(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

// ModeTotals returns minutes per mode for sessions completed at or after since.
func (r *SessionRepository) ModeTotals(ctx context.Context, userID string, since time.Time) (map[model.Mode]float64, int, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT mode, COUNT(1), COALESCE(SUM(duration_minutes), 0)
		 FROM focus_sessions
		 WHERE user_id = ? AND completed_at >= ?
		 GROUP BY mode`,
		userID,
		formatTime(since),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("mode totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[model.Mode]float64)
	count := 0
	for rows.Next() {
		var mode model.Mode
		var sessions int
		var minutes float64
		if err := rows.Scan(&mode, &sessions, &minutes); err != nil {
			return nil, 0, fmt.Errorf("scan mode totals: %w", err)
		}
		totals[mode] = minutes
		count += sessions
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate mode totals: %w", err)
	}
	return totals, count, nil
}

// SubjectTotals groups non-break sessions by subject, largest first.
func (r *SessionRepository) SubjectTotals(ctx context.Context, userID string, since time.Time) ([]model.SubjectStat, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT subject, COUNT(1), COALESCE(SUM(duration_minutes), 0) AS total
		 FROM focus_sessions
		 WHERE user_id = ? AND completed_at >= ? AND mode != ?
		 GROUP BY subject
		 ORDER BY total DESC, subject ASC`,
		userID,
		formatTime(since),
		model.ModeBreak,
	)
	if err != nil {
		return nil, fmt.Errorf("subject totals: %w", err)
	}
	defer rows.Close()

	stats := make([]model.SubjectStat, 0)
	for rows.Next() {
		var stat model.SubjectStat
		if err := rows.Scan(&stat.Subject, &stat.Sessions, &stat.TotalMinutes); err != nil {
			return nil, fmt.Errorf("scan subject totals: %w", err)
		}
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subject totals: %w", err)
	}
	return stats, nil
}

// Leaderboard ranks users by focus minutes completed at or after since.
func (r *SessionRepository) Leaderboard(ctx context.Context, since time.Time, limit int) ([]model.LeaderboardEntry, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT s.user_id, u.display_name, COUNT(1), SUM(s.duration_minutes) AS total
		 FROM focus_sessions s
		 JOIN users u ON u.id = s.user_id
		 WHERE s.mode = ? AND s.completed_at >= ?
		 GROUP BY s.user_id, u.display_name
		 ORDER BY total DESC, u.display_name ASC
		 LIMIT ?`,
		model.ModeFocus,
		formatTime(since),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]model.LeaderboardEntry, 0, limit)
	for rows.Next() {
		var entry model.LeaderboardEntry
		if err := rows.Scan(&entry.UserID, &entry.DisplayName, &entry.Sessions, &entry.FocusMinutes); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		entry.Rank = len(entries) + 1
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard: %w", err)
	}
	return entries, nil
}

func scanFocusSession(s scanner) (*model.FocusSession, error) {
	session := model.FocusSession{}
	var completedAt string
	var createdAt string
	err := s.Scan(
		&session.ID,
		&session.UserID,
		&session.Mode,
		&session.Subject,
		&session.DurationMinutes,
		&completedAt,
		&createdAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	parsedCompletedAt, err := parseTime(completedAt)
	if err != nil {
		return nil, fmt.Errorf("parse session completed_at: %w", err)
	}
	session.CompletedAt = parsedCompletedAt

	parsedCreatedAt, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse session created_at: %w", err)
	}
	session.CreatedAt = parsedCreatedAt

	return &session, nil
}
