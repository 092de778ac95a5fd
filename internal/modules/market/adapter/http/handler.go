package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Abinaav-K876/market-crash/internal/modules/market/domain"
	"github.com/Abinaav-K876/market-crash/internal/modules/market/session"
	"github.com/Abinaav-K876/market-crash/internal/modules/market/usecase"
	"github.com/Abinaav-K876/market-crash/internal/modules/market/ws"
	"github.com/Abinaav-K876/market-crash/pkg/logger"
)

// Handler handles HTTP and WebSocket requests for the market module
type Handler struct {
	uc       *usecase.MarketUseCase
	sessions *session.Manager
	hub      *ws.Hub
	events   *ws.EventBroadcaster
}

// NewHandler creates a new HTTP handler
func NewHandler(uc *usecase.MarketUseCase, sessions *session.Manager, hub *ws.Hub, events *ws.EventBroadcaster) *Handler {
	return &Handler{
		uc:       uc,
		sessions: sessions,
		hub:      hub,
		events:   events,
	}
}

// RegisterRoutes registers all market routes to the given router group
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	rooms := router.Group("/rooms")
	rooms.POST("", h.CreateRoom)
	rooms.POST("/:room_id/join", h.JoinRoom)

	authed := rooms.Group("", h.RequireSession())
	authed.GET("/:room_id/state", h.GetRoomState)
	authed.POST("/:room_id/buy", h.Buy)
	authed.POST("/:room_id/sell", h.Sell)
	authed.POST("/:room_id/chat", h.Chat)
}

// RegisterWebSocket registers the event stream route on the root router
func (h *Handler) RegisterWebSocket(router *gin.Engine) {
	router.GET("/ws/rooms/:room_id", h.HandleWebSocket)
}

// DTOs
type createRoomRequest struct {
	PlayerName string `json:"player_name" binding:"required"`
}

type joinRoomRequest struct {
	PlayerName string `json:"player_name" binding:"required"`
}

type sessionResponse struct {
	RoomID   string `json:"room_id"`
	PlayerID string `json:"player_id"`
	Token    string `json:"token"`
}

type tradeRequest struct {
	Shares int `json:"shares"`
}

// CreateRoom creates a room and returns a session for its creator
func (h *Handler) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn(c.Request.Context()).Err(err).Msg("CreateRoom: invalid request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.uc.CreateRoom(c.Request.Context(), req.PlayerName)
	if err != nil {
		h.writeError(c, "CreateRoom", err)
		return
	}

	token, err := h.sessions.Issue(res.PlayerID, res.RoomID)
	if err != nil {
		logger.Error(c.Request.Context()).Err(err).Msg("CreateRoom: failed to issue session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, sessionResponse{
		RoomID:   res.RoomID,
		PlayerID: res.PlayerID,
		Token:    token,
	})
}

// JoinRoom adds a player to an existing room and returns their session
func (h *Handler) JoinRoom(c *gin.Context) {
	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn(c.Request.Context()).Err(err).Msg("JoinRoom: invalid request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	roomID := c.Param("room_id")
	playerID, err := h.uc.JoinRoom(c.Request.Context(), roomID, req.PlayerName)
	if err != nil {
		h.writeError(c, "JoinRoom", err)
		return
	}

	token, err := h.sessions.Issue(playerID, normalizeRoomID(roomID))
	if err != nil {
		logger.Error(c.Request.Context()).Err(err).Msg("JoinRoom: failed to issue session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, sessionResponse{
		RoomID:   normalizeRoomID(roomID),
		PlayerID: playerID,
		Token:    token,
	})
}

// GetRoomState returns the caller's view of the room
func (h *Handler) GetRoomState(c *gin.Context) {
	claims := h.claims(c)

	state, err := h.uc.GetRoomState(c.Request.Context(), claims.RoomID, claims.PlayerID)
	if err != nil {
		h.writeError(c, "GetRoomState", err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// Buy executes a purchase at the room's current price
func (h *Handler) Buy(c *gin.Context) {
	h.trade(c, "Buy", h.uc.Buy)
}

// Sell executes a sale at the room's current price
func (h *Handler) Sell(c *gin.Context) {
	h.trade(c, "Sell", h.uc.Sell)
}

func (h *Handler) trade(c *gin.Context, op string, exec func(ctx context.Context, roomID, playerID string, shares int) (*usecase.TradeResult, error)) {
	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn(c.Request.Context()).Err(err).Msg(op + ": invalid request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims := h.claims(c)
	result, err := exec(c.Request.Context(), claims.RoomID, claims.PlayerID, req.Shares)
	if err != nil {
		h.writeError(c, op, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Chat is a placeholder; live chat goes over the WebSocket stream
func (h *Handler) Chat(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Chat feature coming soon!"})
}

func normalizeRoomID(roomID string) string {
	return strings.ToUpper(strings.TrimSpace(roomID))
}

// writeError maps domain errors to HTTP statuses
func (h *Handler) writeError(c *gin.Context, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrInsufficientShares),
		errors.Is(err, domain.ErrRoomNotJoinable),
		errors.Is(err, domain.ErrMarketClosed):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionInvalid):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrRoomNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		logger.Error(c.Request.Context()).Err(err).Msg(op + ": failed")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}

	logger.Warn(c.Request.Context()).Err(err).Msg(op + ": rejected")
	c.JSON(status, gin.H{"error": err.Error()})
}
