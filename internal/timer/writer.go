package timer

import (
	"context"
	"log"
	"sync"
	"time"

	"focusroom/backend/internal/model"
)

// Remote is the per-user active-timer document the machine synchronizes with.
type Remote interface {
	Get(ctx context.Context) (model.ActiveTimerSnapshot, error)
	Put(ctx context.Context, record model.ActiveTimerRecord) (model.ActiveTimerSnapshot, error)
	Delete(ctx context.Context) (model.ActiveTimerSnapshot, error)
	Subscribe(ctx context.Context) (<-chan model.ActiveTimerSnapshot, error)
}

// remoteOp is a queued write. A nil record is a delete.
type remoteOp struct {
	record *model.ActiveTimerRecord
}

// remoteWriter sends queued writes in order. Failures are logged and
// dropped; local state never depends on the outcome. The version of each
// acknowledged write is handed to onAck.
type remoteWriter struct {
	remote  Remote
	timeout time.Duration
	onAck   func(version int64)

	mu       sync.Mutex
	pending  []remoteOp
	inFlight bool
	notify   chan struct{}

	sendMu sync.Mutex
}

func newRemoteWriter(remote Remote, timeout time.Duration, onAck func(int64)) *remoteWriter {
	return &remoteWriter{
		remote:  remote,
		timeout: timeout,
		onAck:   onAck,
		notify:  make(chan struct{}, 1),
	}
}

func (w *remoteWriter) enqueue(op remoteOp) {
	if w.remote == nil {
		return
	}
	w.mu.Lock()
	w.pending = append(w.pending, op)
	w.mu.Unlock()

	select {
	case w.notify <- struct{}{}:
	default:
	}
}

// busy reports whether a write is queued or being sent.
func (w *remoteWriter) busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.inFlight || len(w.pending) > 0
}

func (w *remoteWriter) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.notify:
			w.drain(ctx)
		}
	}
}

func (w *remoteWriter) drain(ctx context.Context) {
	w.sendMu.Lock()
	defer w.sendMu.Unlock()

	for {
		if ctx.Err() != nil {
			return
		}
		w.mu.Lock()
		if len(w.pending) == 0 {
			w.mu.Unlock()
			return
		}
		op := w.pending[0]
		w.pending = w.pending[1:]
		w.inFlight = true
		w.mu.Unlock()

		w.send(ctx, op)

		w.mu.Lock()
		w.inFlight = false
		w.mu.Unlock()
	}
}

func (w *remoteWriter) send(ctx context.Context, op remoteOp) {
	opCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	var (
		snapshot model.ActiveTimerSnapshot
		err      error
	)
	if op.record == nil {
		snapshot, err = w.remote.Delete(opCtx)
	} else {
		snapshot, err = w.remote.Put(opCtx, *op.record)
	}
	if err != nil {
		log.Printf("timer: remote %s failed: %v", op.name(), err)
		return
	}
	if w.onAck != nil {
		w.onAck(snapshot.Version)
	}
}

func (op remoteOp) name() string {
	if op.record == nil {
		return "delete"
	}
	return "put"
}
