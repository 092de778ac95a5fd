package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Abinaav-K876/market-crash/internal/modules/market/session"
	"github.com/Abinaav-K876/market-crash/pkg/logger"
)

const claimsKey = "market_session"

// RequireSession verifies the bearer token and binds it to the room in
// the path. A token for another room is rejected, not redirected.
func (h *Handler) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, err := h.sessions.Verify(token)
		if err != nil {
			logger.Warn(c.Request.Context()).Err(err).Msg("Session rejected")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid session"})
			return
		}

		if roomID := normalizeRoomID(c.Param("room_id")); roomID != claims.RoomID {
			logger.Warn(c.Request.Context()).
				Str("room_id", roomID).
				Str("session_room_id", claims.RoomID).
				Msg("Session bound to a different room")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid session"})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

func (h *Handler) claims(c *gin.Context) *session.Claims {
	return c.MustGet(claimsKey).(*session.Claims)
}

func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if token, err := c.Cookie("session_token"); err == nil {
		return token
	}
	return ""
}
