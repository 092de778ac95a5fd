package domain

import "time"

// RoomStatus defines the lifecycle state of a room
type RoomStatus int

const (
	RoomStatusWaiting   RoomStatus = 0 // 等待開始
	RoomStatusActive    RoomStatus = 1 // 進行中
	RoomStatusCrashed   RoomStatus = 2 // 已崩盤
	RoomStatusCompleted RoomStatus = 3 // 已完成
)

// String returns the display name of the status
func (s RoomStatus) String() string {
	switch s {
	case RoomStatusWaiting:
		return "WAITING"
	case RoomStatusActive:
		return "ACTIVE"
	case RoomStatusCrashed:
		return "CRASHED"
	case RoomStatusCompleted:
		return "COMPLETED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether the status is final. Terminal rooms never
// receive another tick and never accept trades.
func (s RoomStatus) Terminal() bool {
	return s == RoomStatusCrashed || s == RoomStatusCompleted
}

// Room represents one isolated game instance identified by a short code
type Room struct {
	RoomID       string     `gorm:"primaryKey;type:varchar(6)" json:"room_id"`
	CurrentPrice float64    `gorm:"type:decimal(18,2);not null" json:"current_price"`
	RoundNumber  int        `gorm:"not null;default:0" json:"round_number"`
	Status       RoomStatus `gorm:"type:int;not null;default:0;index:idx_rooms_status" json:"status"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	LastUpdated  time.Time  `gorm:"not null" json:"last_updated"`
}

// TableName overrides the table name
func (Room) TableName() string {
	return "rooms"
}

// NewRoom creates a room in the waiting state at the opening price
func NewRoom(roomID string, openingPrice float64) *Room {
	now := time.Now()
	return &Room{
		RoomID:       roomID,
		CurrentPrice: openingPrice,
		RoundNumber:  0,
		Status:       RoomStatusWaiting,
		CreatedAt:    now,
		LastUpdated:  now,
	}
}

// Joinable reports whether new players may still enter.
// A room is joinable only before its first tick.
func (r *Room) Joinable() bool {
	return r.Status == RoomStatusWaiting && r.RoundNumber == 0
}

// Tradable reports whether buy/sell orders are accepted
func (r *Room) Tradable() bool {
	return !r.Status.Terminal()
}
