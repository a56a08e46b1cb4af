package client_test

import (
	"testing"
	"time"

	"focusroom/backend/internal/model"
)

func nextSnapshot(t *testing.T, updates <-chan model.ActiveTimerSnapshot) model.ActiveTimerSnapshot {
	t.Helper()
	select {
	case snapshot, ok := <-updates:
		if !ok {
			t.Fatal("updates channel closed")
		}
		return snapshot
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return model.ActiveTimerSnapshot{}
}
