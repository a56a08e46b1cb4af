package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "focusroom/backend/internal/errors"
	"focusroom/backend/internal/model"
	"focusroom/backend/internal/repository"
)

const (
	defaultHistoryLimit     = 50
	maxHistoryLimit         = 200
	defaultStatsDays        = 7
	maxStatsDays            = 365
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
	maxSessionMinutes       = float64(model.MaxSeconds) / 60
)

type SessionService struct {
	repo *repository.SessionRepository
	now  func() time.Time
}

type RecordSessionInput struct {
	ID              string
	Mode            model.Mode
	Subject         string
	DurationMinutes float64
	CompletedAt     time.Time
}

func NewSessionService(repo *repository.SessionRepository) *SessionService {
	return &SessionService{repo: repo, now: time.Now}
}

// Record logs a completed session. Replaying an id the user already
// logged returns the stored session with created set to false.
func (s *SessionService) Record(ctx context.Context, userID string, input RecordSessionInput) (*model.FocusSession, bool, *apperrors.APIError) {
	subject := strings.TrimSpace(input.Subject)
	if !input.Mode.Valid() {
		return nil, false, invalidField("invalid_mode", "mode", "mode must be one of FOCUS, BREAK, STOPWATCH")
	}
	if input.DurationMinutes <= 0 || input.DurationMinutes > maxSessionMinutes || math.IsNaN(input.DurationMinutes) {
		return nil, false, invalidField("invalid_duration", "durationMinutes", "durationMinutes must be positive")
	}
	if input.Mode.RequiresSubject() && subject == "" {
		return nil, false, invalidField("subject_required", "subject", "subject is required for this mode")
	}
	if len(subject) > maxSubjectLength {
		return nil, false, invalidField("invalid_subject", "subject", "subject is too long")
	}

	now := s.now().UTC()
	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = uuid.NewString()
	}
	completedAt := input.CompletedAt.UTC()
	if completedAt.IsZero() || completedAt.After(now) {
		completedAt = now
	}

	session := model.FocusSession{
		ID:              id,
		UserID:          userID,
		Mode:            input.Mode,
		Subject:         subject,
		DurationMinutes: math.Round(input.DurationMinutes*100) / 100,
		CompletedAt:     completedAt,
		CreatedAt:       now,
	}

	created, err := s.repo.Insert(ctx, &session)
	if err != nil {
		return nil, false, apperrors.Internal("failed to record session")
	}
	if created {
		return &session, true, nil
	}

	existing, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, false, apperrors.Internal("failed to load recorded session")
	}
	return existing, false, nil
}

func (s *SessionService) History(ctx context.Context, userID string, limit int) ([]model.FocusSession, *apperrors.APIError) {
	if limit <= 0 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}
	sessions, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.Internal("failed to get history")
	}
	return sessions, nil
}

func (s *SessionService) Stats(ctx context.Context, userID string, days int) (*model.SessionStats, *apperrors.APIError) {
	days = clampDays(days)
	since := s.now().UTC().AddDate(0, 0, -days)

	totals, count, err := s.repo.ModeTotals(ctx, userID, since)
	if err != nil {
		return nil, apperrors.Internal("failed to get stats")
	}
	subjects, err := s.repo.SubjectTotals(ctx, userID, since)
	if err != nil {
		return nil, apperrors.Internal("failed to get stats")
	}

	return &model.SessionStats{
		Days:             days,
		TotalSessions:    count,
		FocusMinutes:     totals[model.ModeFocus],
		BreakMinutes:     totals[model.ModeBreak],
		StopwatchMinutes: totals[model.ModeStopwatch],
		Subjects:         subjects,
	}, nil
}

func (s *SessionService) Leaderboard(ctx context.Context, days, limit int) ([]model.LeaderboardEntry, *apperrors.APIError) {
	days = clampDays(days)
	if limit <= 0 || limit > maxLeaderboardLimit {
		limit = defaultLeaderboardLimit
	}
	entries, err := s.repo.Leaderboard(ctx, s.now().UTC().AddDate(0, 0, -days), limit)
	if err != nil {
		return nil, apperrors.Internal("failed to get leaderboard")
	}
	return entries, nil
}

func clampDays(days int) int {
	if days <= 0 {
		return defaultStatsDays
	}
	if days > maxStatsDays {
		return maxStatsDays
	}
	return days
}
