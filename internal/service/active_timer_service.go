package service

import (
	"context"
	"log"
	"strings"
	"time"

	apperrors "focusroom/backend/internal/errors"
	"focusroom/backend/internal/model"
	"focusroom/backend/internal/repository"
)

const maxSubjectLength = 80

type ActiveTimerService struct {
	store      repository.ActiveTimerStore
	hub        *Hub
	staleAfter time.Duration
	now        func() time.Time
}

func NewActiveTimerService(store repository.ActiveTimerStore, hub *Hub, staleAfter time.Duration) *ActiveTimerService {
	return &ActiveTimerService{
		store:      store,
		hub:        hub,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

func (s *ActiveTimerService) Get(ctx context.Context, userID string) (*model.ActiveTimerSnapshot, *apperrors.APIError) {
	snapshot, err := s.store.Get(ctx, userID)
	if err != nil {
		log.Printf("active timer: get for user %s: %v", userID, err)
		return nil, apperrors.Unavailable("active timer store unavailable")
	}

	snapshot, apiErr := s.normalizeExpired(ctx, userID, snapshot)
	if apiErr != nil {
		return nil, apiErr
	}
	return &snapshot, nil
}

func (s *ActiveTimerService) Put(ctx context.Context, userID string, record model.ActiveTimerRecord) (*model.ActiveTimerSnapshot, *apperrors.APIError) {
	record.SelectedSubject = strings.TrimSpace(record.SelectedSubject)
	if apiErr := validateRecord(record); apiErr != nil {
		return nil, apiErr
	}

	record.UserID = userID
	record.Version = 0
	if record.UpdatedAt <= 0 {
		record.UpdatedAt = s.now().UnixMilli()
	}

	snapshot, err := s.store.Put(ctx, record)
	if err != nil {
		log.Printf("active timer: put for user %s: %v", userID, err)
		return nil, apperrors.Unavailable("active timer store unavailable")
	}
	s.hub.Publish(userID, snapshot)
	return &snapshot, nil
}

func (s *ActiveTimerService) Delete(ctx context.Context, userID string) (*model.ActiveTimerSnapshot, *apperrors.APIError) {
	snapshot, err := s.store.Delete(ctx, userID)
	if err != nil {
		log.Printf("active timer: delete for user %s: %v", userID, err)
		return nil, apperrors.Unavailable("active timer store unavailable")
	}
	s.hub.Publish(userID, snapshot)
	return &snapshot, nil
}

// Subscribe returns the current snapshot and a channel of later ones. The
// caller must invoke the returned func when it stops reading.
func (s *ActiveTimerService) Subscribe(ctx context.Context, userID string) (*model.ActiveTimerSnapshot, <-chan model.ActiveTimerSnapshot, func(), *apperrors.APIError) {
	updates, cancel := s.hub.Subscribe(userID)
	current, apiErr := s.Get(ctx, userID)
	if apiErr != nil {
		cancel()
		return nil, nil, nil, apiErr
	}
	return current, updates, cancel, nil
}

// normalizeExpired clears a record whose session ended longer than
// staleAfter ago without any device deleting it.
func (s *ActiveTimerService) normalizeExpired(ctx context.Context, userID string, snapshot model.ActiveTimerSnapshot) (model.ActiveTimerSnapshot, *apperrors.APIError) {
	record := snapshot.Record
	if record == nil || s.staleAfter <= 0 {
		return snapshot, nil
	}

	var endsAt int64
	if record.Mode == model.ModeStopwatch {
		endsAt = record.StartTime + int64(model.MaxSeconds)*1000
	} else {
		endsAt = record.EndTime
	}
	if s.now().UnixMilli() < endsAt+s.staleAfter.Milliseconds() {
		return snapshot, nil
	}

	log.Printf("active timer: clearing expired record for user %s (session %s)", userID, record.SessionID)
	cleared, err := s.store.Delete(ctx, userID)
	if err != nil {
		log.Printf("active timer: clear expired for user %s: %v", userID, err)
		return snapshot, apperrors.Unavailable("active timer store unavailable")
	}
	s.hub.Publish(userID, cleared)
	return cleared, nil
}

func validateRecord(record model.ActiveTimerRecord) *apperrors.APIError {
	if !record.Mode.Valid() {
		return invalidField("invalid_mode", "mode", "mode must be one of FOCUS, BREAK, STOPWATCH")
	}
	if !record.IsActive {
		return invalidField("inactive_record", "isActive", "stopped timers are deleted, not stored")
	}
	if record.Mode == model.ModeStopwatch && record.StartTime <= 0 {
		return invalidField("invalid_anchor", "startTime", "startTime is required for a running stopwatch")
	}
	if record.Mode.Countdown() && record.EndTime <= 0 {
		return invalidField("invalid_anchor", "endTime", "endTime is required for a running countdown")
	}
	if record.Mode.RequiresSubject() && record.SelectedSubject == "" {
		return invalidField("subject_required", "selectedSubject", "selectedSubject is required for this mode")
	}
	if len(record.SelectedSubject) > maxSubjectLength {
		return invalidField("invalid_subject", "selectedSubject", "selectedSubject is too long")
	}
	return nil
}

func invalidField(code, field, message string) *apperrors.APIError {
	return apperrors.BadRequest(code, message).WithDetails(map[string]string{"field": field})
}
