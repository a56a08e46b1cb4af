package service

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"focusroom/backend/internal/model"
)

type memoryStore struct {
	mu      sync.Mutex
	records map[string]*model.ActiveTimerRecord
	version map[string]int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		records: make(map[string]*model.ActiveTimerRecord),
		version: make(map[string]int64),
	}
}

func (m *memoryStore) Get(ctx context.Context, userID string) (model.ActiveTimerSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(userID), nil
}

func (m *memoryStore) Put(ctx context.Context, record model.ActiveTimerRecord) (model.ActiveTimerSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.version[record.UserID]++
	record.Version = m.version[record.UserID]
	m.records[record.UserID] = &record
	return m.snapshotLocked(record.UserID), nil
}

func (m *memoryStore) Delete(ctx context.Context, userID string) (model.ActiveTimerSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.version[userID]++
	delete(m.records, userID)
	return m.snapshotLocked(userID), nil
}

func (m *memoryStore) snapshotLocked(userID string) model.ActiveTimerSnapshot {
	snapshot := model.ActiveTimerSnapshot{Version: m.version[userID]}
	if record, ok := m.records[userID]; ok {
		copied := *record
		snapshot.Record = &copied
	}
	return snapshot
}

func newTestActiveTimerService(now time.Time) (*ActiveTimerService, *memoryStore) {
	store := newMemoryStore()
	svc := NewActiveTimerService(store, NewHub(), 10*time.Minute)
	svc.now = func() time.Time { return now }
	return svc, store
}

func TestActiveTimerPutStampsAndPublishes(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc, _ := newTestActiveTimerService(now)
	ctx := context.Background()

	_, updates, cancel, apiErr := svc.Subscribe(ctx, "u1")
	if apiErr != nil {
		t.Fatalf("subscribe: %v", apiErr)
	}
	defer cancel()

	snapshot, apiErr := svc.Put(ctx, "u1", model.ActiveTimerRecord{
		Mode:            model.ModeFocus,
		EndTime:         now.Add(25 * time.Minute).UnixMilli(),
		IsActive:        true,
		SelectedSubject: "  Physics ",
		Version:         99,
	})
	if apiErr != nil {
		t.Fatalf("put: %v", apiErr)
	}
	if snapshot.Version != 1 || snapshot.Record.UserID != "u1" {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
	if snapshot.Record.UpdatedAt != now.UnixMilli() || snapshot.Record.SelectedSubject != "Physics" {
		t.Fatalf("record not normalized: %+v", snapshot.Record)
	}

	select {
	case got := <-updates:
		if got.Version != 1 {
			t.Fatalf("expected published version 1, got %d", got.Version)
		}
	case <-time.After(time.Second):
		t.Fatal("put was not published")
	}
}

func TestActiveTimerPutValidation(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc, _ := newTestActiveTimerService(now)
	end := now.Add(time.Minute).UnixMilli()

	cases := []struct {
		name   string
		record model.ActiveTimerRecord
		code   string
	}{
		{"bad mode", model.ActiveTimerRecord{Mode: "NAP", IsActive: true, EndTime: end}, "invalid_mode"},
		{"inactive", model.ActiveTimerRecord{Mode: model.ModeBreak, EndTime: end}, "inactive_record"},
		{"no end", model.ActiveTimerRecord{Mode: model.ModeBreak, IsActive: true}, "invalid_anchor"},
		{"no start", model.ActiveTimerRecord{Mode: model.ModeStopwatch, IsActive: true, SelectedSubject: "x"}, "invalid_anchor"},
		{"no subject", model.ActiveTimerRecord{Mode: model.ModeFocus, IsActive: true, EndTime: end}, "subject_required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, apiErr := svc.Put(context.Background(), "u1", tc.record)
			if apiErr == nil || apiErr.Code != tc.code || apiErr.Status != http.StatusBadRequest {
				t.Fatalf("expected %s, got %+v", tc.code, apiErr)
			}
		})
	}
}

func TestActiveTimerGetClearsExpiredRecord(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc, store := newTestActiveTimerService(now)
	ctx := context.Background()

	_, _ = store.Put(ctx, model.ActiveTimerRecord{
		UserID:   "u1",
		Mode:     model.ModeBreak,
		EndTime:  now.Add(-11 * time.Minute).UnixMilli(),
		IsActive: true,
	})

	snapshot, apiErr := svc.Get(ctx, "u1")
	if apiErr != nil {
		t.Fatalf("get: %v", apiErr)
	}
	if snapshot.Record != nil || snapshot.Version != 2 {
		t.Fatalf("expected expired record cleared at version 2, got %+v", snapshot)
	}
}

func TestActiveTimerGetKeepsRecentlyEndedRecord(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc, store := newTestActiveTimerService(now)
	ctx := context.Background()

	_, _ = store.Put(ctx, model.ActiveTimerRecord{
		UserID:   "u1",
		Mode:     model.ModeBreak,
		EndTime:  now.Add(-time.Minute).UnixMilli(),
		IsActive: true,
	})

	snapshot, apiErr := svc.Get(ctx, "u1")
	if apiErr != nil {
		t.Fatalf("get: %v", apiErr)
	}
	if snapshot.Record == nil {
		t.Fatal("record inside the grace period was cleared")
	}
}
