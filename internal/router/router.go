package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"focusroom/backend/internal/handler"
	"focusroom/backend/internal/middleware"
	"focusroom/backend/internal/service"
)

func New(
	authService *service.AuthService,
	authHandler *handler.AuthHandler,
	timerHandler *handler.TimerHandler,
	sessionHandler *handler.SessionHandler,
	corsOrigins []string,
) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.Auth(authService))

	protected.GET("/auth/me", authHandler.Me)

	timer := protected.Group("/timer")
	timer.GET("/active", timerHandler.GetActive)
	timer.PUT("/active", timerHandler.PutActive)
	timer.DELETE("/active", timerHandler.DeleteActive)
	timer.GET("/active/stream", timerHandler.Stream)

	sessions := protected.Group("/sessions")
	sessions.POST("", sessionHandler.Record)
	sessions.GET("", sessionHandler.History)
	sessions.GET("/stats", sessionHandler.Stats)

	protected.GET("/leaderboard", sessionHandler.Leaderboard)

	return engine
}
