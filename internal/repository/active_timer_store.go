package repository

import (
	"context"

	"focusroom/backend/internal/model"
)

// ActiveTimerStore keeps the single active-timer record of each user.
// Every Put and Delete advances the user's version by one, and the version
// survives deletes so it never goes backwards.
type ActiveTimerStore interface {
	Get(ctx context.Context, userID string) (model.ActiveTimerSnapshot, error)
	Put(ctx context.Context, record model.ActiveTimerRecord) (model.ActiveTimerSnapshot, error)
	Delete(ctx context.Context, userID string) (model.ActiveTimerSnapshot, error)
}
