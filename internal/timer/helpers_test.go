package timer_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"focusroom/backend/internal/model"
	"focusroom/backend/internal/timer"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeRemote struct {
	mu       sync.Mutex
	puts     []model.ActiveTimerRecord
	deletes  int
	ops      []string
	snapshot model.ActiveTimerSnapshot
	updates  chan model.ActiveTimerSnapshot
	writeErr error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{updates: make(chan model.ActiveTimerSnapshot, 8)}
}

func (r *fakeRemote) Get(ctx context.Context) (model.ActiveTimerSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot, nil
}

func (r *fakeRemote) Put(ctx context.Context, record model.ActiveTimerRecord) (model.ActiveTimerSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, "put")
	if r.writeErr != nil {
		return model.ActiveTimerSnapshot{}, r.writeErr
	}
	r.puts = append(r.puts, record)
	r.snapshot = model.ActiveTimerSnapshot{Version: r.snapshot.Version + 1, Record: &record}
	return r.snapshot, nil
}

func (r *fakeRemote) Delete(ctx context.Context) (model.ActiveTimerSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, "delete")
	if r.writeErr != nil {
		return model.ActiveTimerSnapshot{}, r.writeErr
	}
	r.deletes++
	r.snapshot = model.ActiveTimerSnapshot{Version: r.snapshot.Version + 1}
	return r.snapshot, nil
}

func (r *fakeRemote) Subscribe(ctx context.Context) (<-chan model.ActiveTimerSnapshot, error) {
	return r.updates, nil
}

func (r *fakeRemote) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.puts), r.deletes
}

func (r *fakeRemote) opLog() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ops...)
}

type memoryMirror struct {
	mu      sync.Mutex
	session *model.TimerSession
	saves   int
}

func (m *memoryMirror) Load() (*model.TimerSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, nil
	}
	copied := *m.session
	return &copied, nil
}

func (m *memoryMirror) Save(session model.TimerSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = &session
	m.saves++
	return nil
}

type completionRecorder struct {
	mu          sync.Mutex
	completions []model.Completion
}

func (r *completionRecorder) record(c model.Completion) {
	r.mu.Lock()
	r.completions = append(r.completions, c)
	r.mu.Unlock()
}

func (r *completionRecorder) all() []model.Completion {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Completion(nil), r.completions...)
}

type harness struct {
	clock       *manualClock
	remote      *fakeRemote
	mirror      *memoryMirror
	completions *completionRecorder
	machine     *timer.Machine
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		clock:       newManualClock(),
		remote:      newFakeRemote(),
		mirror:      &memoryMirror{},
		completions: &completionRecorder{},
	}
	h.machine = timer.New(timer.Options{
		Clock:      h.clock,
		Remote:     h.remote,
		Mirror:     h.mirror,
		OnComplete: h.completions.record,
		DeviceID:   "device-a",
	})
	return h
}

func (h *harness) sync() {
	h.machine.SyncNow(context.Background())
}

func (h *harness) nowMs() int64 {
	return h.clock.Now().UnixMilli()
}

func mustNoErr(t *testing.T, err error, what string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", what, err)
	}
}

func mustErr(t *testing.T, err, want error, what string) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("%s: expected %v, got %v", what, want, err)
	}
}
