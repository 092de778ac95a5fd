package ws

import (
	"context"
	"encoding/json"

	"github.com/Abinaav-K876/market-crash/internal/modules/market/domain"
	"github.com/Abinaav-K876/market-crash/pkg/logger"
)

// EventBroadcaster converts market events to JSON and pushes them to
// the room's WebSocket clients
type EventBroadcaster struct {
	hub *Hub
}

// NewEventBroadcaster creates a broadcaster backed by the hub
func NewEventBroadcaster(hub *Hub) *EventBroadcaster {
	return &EventBroadcaster{hub: hub}
}

type tickMessage struct {
	Type   string  `json:"type"`
	RoomID string  `json:"room_id"`
	Round  int     `json:"round"`
	Price  float64 `json:"price"`
	Event  string  `json:"event"`
	Status string  `json:"status"`
}

type chatMessage struct {
	Type       string `json:"type"`
	RoomID     string `json:"room_id"`
	PlayerName string `json:"player_name"`
	Text       string `json:"text"`
}

// RoomTicked pushes a price update to everyone in the room
func (b *EventBroadcaster) RoomTicked(roomID string, round int, price float64, event string, status domain.RoomStatus) {
	msg, err := json.Marshal(tickMessage{
		Type:   "tick",
		RoomID: roomID,
		Round:  round,
		Price:  price,
		Event:  event,
		Status: status.String(),
	})
	if err != nil {
		logger.Error(context.Background()).Err(err).Str("room_id", roomID).Msg("Failed to encode tick message")
		return
	}
	b.hub.BroadcastToRoom(roomID, msg)
}

// Chat pushes a chat line to everyone in the room
func (b *EventBroadcaster) Chat(roomID, playerName, text string) {
	msg, err := json.Marshal(chatMessage{
		Type:       "chat",
		RoomID:     roomID,
		PlayerName: playerName,
		Text:       text,
	})
	if err != nil {
		logger.Error(context.Background()).Err(err).Str("room_id", roomID).Msg("Failed to encode chat message")
		return
	}
	b.hub.BroadcastToRoom(roomID, msg)
}
