package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "focusroom/backend/internal/errors"
	"focusroom/backend/internal/service"
)

const (
	UserIDContextKey = "userID"

	// accessTokenParam carries the token for stream requests from clients
	// that cannot set headers, such as a browser EventSource.
	accessTokenParam = "access_token"
)

func Auth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, apiErr := bearerToken(c)
		if apiErr != nil {
			writeError(c, apiErr)
			return
		}

		userID, apiErr := authService.ParseToken(token)
		if apiErr != nil {
			writeError(c, apiErr)
			return
		}

		c.Set(UserIDContextKey, userID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, *apperrors.APIError) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if c.Request.Method == http.MethodGet {
			if token := strings.TrimSpace(c.Query(accessTokenParam)); token != "" {
				return token, nil
			}
		}
		return "", apperrors.Unauthorized("missing authorization header")
	}

	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		return "", apperrors.Unauthorized("invalid authorization format")
	}
	return token, nil
}

func UserID(c *gin.Context) string {
	return c.GetString(UserIDContextKey)
}

func writeError(c *gin.Context, apiErr *apperrors.APIError) {
	c.Header("WWW-Authenticate", `Bearer realm="focusroom"`)
	c.AbortWithStatusJSON(apiErr.Status, gin.H{
		"error": gin.H{
			"code":    apiErr.Code,
			"message": apiErr.Message,
			"details": apiErr.Details,
		},
	})
}
