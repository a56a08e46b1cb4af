package client

import (
	"context"

	"focusroom/backend/internal/model"
)

// TimerRemote adapts the client to the timer's remote record interface.
type TimerRemote struct {
	client *Client
}

func (c *Client) TimerRemote() *TimerRemote {
	return &TimerRemote{client: c}
}

func (r *TimerRemote) Get(ctx context.Context) (model.ActiveTimerSnapshot, error) {
	return r.client.GetActiveTimer(ctx)
}

// Put and Delete return the snapshot the server committed, whose version
// the machine uses to skip the echo of its own write.
func (r *TimerRemote) Put(ctx context.Context, record model.ActiveTimerRecord) (model.ActiveTimerSnapshot, error) {
	return r.client.PutActiveTimer(ctx, record)
}

func (r *TimerRemote) Delete(ctx context.Context) (model.ActiveTimerSnapshot, error) {
	return r.client.DeleteActiveTimer(ctx)
}

func (r *TimerRemote) Subscribe(ctx context.Context) (<-chan model.ActiveTimerSnapshot, error) {
	return r.client.Subscribe(ctx)
}
