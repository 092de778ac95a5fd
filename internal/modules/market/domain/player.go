package domain

import (
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Player represents a trader inside a single room
type Player struct {
	PlayerID   string    `gorm:"primaryKey;type:varchar(64)" json:"player_id"`
	RoomID     string    `gorm:"type:varchar(6);not null;index:idx_players_room" json:"room_id"`
	Name       string    `gorm:"type:varchar(15);not null" json:"name"`
	Cash       float64   `gorm:"type:decimal(18,2);not null" json:"cash"`
	SharesHeld int       `gorm:"not null;default:0" json:"shares_held"`
	Active     bool      `gorm:"not null;default:true;index:idx_players_room" json:"active"`
	JoinedAt   time.Time `gorm:"not null" json:"joined_at"`
}

// TableName overrides the table name
func (Player) TableName() string {
	return "players"
}

var (
	node *snowflake.Node
	once sync.Once
)

func initSnowflake() {
	var err error
	// Single-instance deployment, NodeID 1 is fine.
	node, err = snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
}

// GenerateID returns a new unique entity ID
func GenerateID() string {
	once.Do(initSnowflake)
	return node.Generate().String()
}

// NewPlayer creates a player with the starting bankroll and no shares
func NewPlayer(roomID, name string, startingCash float64) *Player {
	return &Player{
		PlayerID:   GenerateID(),
		RoomID:     roomID,
		Name:       name,
		Cash:       startingCash,
		SharesHeld: 0,
		Active:     true,
		JoinedAt:   time.Now(),
	}
}

// TotalValue is the player's portfolio value at the given share price
func (p *Player) TotalValue(price float64) float64 {
	return Round2(p.Cash + float64(p.SharesHeld)*price)
}
