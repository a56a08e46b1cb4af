package service

import (
	"sync"

	"focusroom/backend/internal/model"
)

// Hub fans active-timer snapshots out to every open stream of a user.
// Each subscriber holds at most one undelivered snapshot, the highest
// version published so far.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]map[chan model.ActiveTimerSnapshot]struct{}
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[string]map[chan model.ActiveTimerSnapshot]struct{})}
}

// Subscribe registers a stream for userID. The returned func unregisters it
// and closes the channel.
func (h *Hub) Subscribe(userID string) (<-chan model.ActiveTimerSnapshot, func()) {
	ch := make(chan model.ActiveTimerSnapshot, 1)

	h.mu.Lock()
	if h.subscribers[userID] == nil {
		h.subscribers[userID] = make(map[chan model.ActiveTimerSnapshot]struct{})
	}
	h.subscribers[userID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subscribers[userID], ch)
			if len(h.subscribers[userID]) == 0 {
				delete(h.subscribers, userID)
			}
			close(ch)
		})
	}
}

// Publish hands snapshot to every stream of userID. Commits can publish out
// of order, so a buffered snapshot with a higher version is kept.
func (h *Hub) Publish(userID string, snapshot model.ActiveTimerSnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subscribers[userID] {
		select {
		case ch <- snapshot:
			continue
		default:
		}

		latest := snapshot
		select {
		case buffered := <-ch:
			if buffered.Version > latest.Version {
				latest = buffered
			}
		default:
		}
		select {
		case ch <- latest:
		default:
		}
	}
}

func (h *Hub) SubscriberCount(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[userID])
}
