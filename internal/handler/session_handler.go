package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"focusroom/backend/internal/middleware"
	"focusroom/backend/internal/model"
	"focusroom/backend/internal/service"
)

type SessionHandler struct {
	sessionService *service.SessionService
}

type recordSessionRequest struct {
	ID              string     `json:"id"`
	Mode            model.Mode `json:"mode"`
	Subject         string     `json:"subject"`
	DurationMinutes float64    `json:"durationMinutes"`
	CompletedAt     time.Time  `json:"completedAt"`
}

func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

func (h *SessionHandler) Record(c *gin.Context) {
	var req recordSessionRequest
	if !bindJSON(c, &req) {
		return
	}

	session, created, apiErr := h.sessionService.Record(c.Request.Context(), middleware.UserID(c), service.RecordSessionInput{
		ID:              req.ID,
		Mode:            req.Mode,
		Subject:         req.Subject,
		DurationMinutes: req.DurationMinutes,
		CompletedAt:     req.CompletedAt,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"session": session, "created": created})
}

func (h *SessionHandler) History(c *gin.Context) {
	sessions, apiErr := h.sessionService.History(c.Request.Context(), middleware.UserID(c), queryInt(c, "limit", 50))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *SessionHandler) Stats(c *gin.Context) {
	stats, apiErr := h.sessionService.Stats(c.Request.Context(), middleware.UserID(c), queryInt(c, "days", 7))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (h *SessionHandler) Leaderboard(c *gin.Context) {
	entries, apiErr := h.sessionService.Leaderboard(c.Request.Context(), queryInt(c, "days", 7), queryInt(c, "limit", 10))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
