package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Abinaav-K876/market-crash/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

type inboundWSMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// HandleWebSocket upgrades a player connection and subscribes it to
// the room's event stream
func (h *Handler) HandleWebSocket(c *gin.Context) {
	ctx := logger.WebSocketContext(c.Request)

	token := c.Query("token")
	if token == "" {
		token = bearerToken(c)
	}
	if token == "" {
		logger.Warn(ctx).Msg("WebSocket: missing token")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	claims, err := h.sessions.Verify(token)
	if err != nil {
		logger.Warn(ctx).Err(err).Msg("WebSocket: session rejected")
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid session"})
		return
	}
	if roomID := normalizeRoomID(c.Param("room_id")); roomID != claims.RoomID {
		logger.Warn(ctx).Str("room_id", roomID).Msg("WebSocket: session bound to a different room")
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid session"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error(ctx).Err(err).Msg("WebSocket: upgrade failed")
		return
	}

	logger.Info(ctx).
		Str("room_id", claims.RoomID).
		Str("player_id", claims.PlayerID).
		Msg("WebSocket connected")

	client := h.hub.Register(conn, claims.RoomID, claims.PlayerID)

	go client.WritePump()
	go client.ReadPump(h.handleWSMessage)
}

// handleWSMessage relays chat lines to the room. Everything else from
// clients is ignored.
func (h *Handler) handleWSMessage(roomID, playerID string, message []byte) {
	ctx := logger.WithRequestID(context.Background(), logger.GenerateRequestID())

	var msg inboundWSMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Debug(ctx).Err(err).Str("room_id", roomID).Msg("WebSocket: unreadable message dropped")
		return
	}
	if msg.Type != "chat" || msg.Text == "" || len(msg.Text) > 200 {
		return
	}

	name, err := h.uc.GetPlayerName(ctx, roomID, playerID)
	if err != nil {
		logger.Warn(ctx).Err(err).Str("player_id", playerID).Msg("WebSocket: chat from unknown player")
		return
	}

	h.events.Chat(roomID, name, msg.Text)
}
