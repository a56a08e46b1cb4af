package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"focusroom/backend/internal/middleware"
	"focusroom/backend/internal/model"
	"focusroom/backend/internal/service"
)

type TimerHandler struct {
	timerService *service.ActiveTimerService
	keepalive    time.Duration
}

func NewTimerHandler(timerService *service.ActiveTimerService, keepalive time.Duration) *TimerHandler {
	if keepalive <= 0 {
		keepalive = 25 * time.Second
	}
	return &TimerHandler{timerService: timerService, keepalive: keepalive}
}

func (h *TimerHandler) GetActive(c *gin.Context) {
	snapshot, apiErr := h.timerService.Get(c.Request.Context(), middleware.UserID(c))
	writeSnapshot(c, snapshot, apiErr)
}

func (h *TimerHandler) PutActive(c *gin.Context) {
	var record model.ActiveTimerRecord
	if !bindJSON(c, &record) {
		return
	}

	snapshot, apiErr := h.timerService.Put(c.Request.Context(), middleware.UserID(c), record)
	writeSnapshot(c, snapshot, apiErr)
}

func (h *TimerHandler) DeleteActive(c *gin.Context) {
	snapshot, apiErr := h.timerService.Delete(c.Request.Context(), middleware.UserID(c))
	writeSnapshot(c, snapshot, apiErr)
}

// Stream sends the current snapshot and then every change as server-sent
// "snapshot" events until the client goes away.
func (h *TimerHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	current, updates, cancel, apiErr := h.timerService.Subscribe(ctx, middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	c.SSEvent("snapshot", *current)
	c.Writer.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case snapshot, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("snapshot", snapshot)
			return true
		case <-keepalive.C:
			_, err := io.WriteString(w, ": keepalive\n\n")
			return err == nil
		}
	})
}
