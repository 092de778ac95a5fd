package domain

import (
	"math"
	"time"
)

// TradeKind is the direction of a trade
type TradeKind string

const (
	TradeKindBuy  TradeKind = "BUY"
	TradeKindSell TradeKind = "SELL"
)

// Transaction is an immutable record of one executed trade.
// Rows are only ever appended, never updated or deleted.
type Transaction struct {
	TxnID         string    `gorm:"primaryKey;type:varchar(64)" json:"txn_id"`
	RoomID        string    `gorm:"type:varchar(6);not null;index:idx_transactions_room" json:"room_id"`
	PlayerID      string    `gorm:"type:varchar(64);not null;index:idx_transactions_player" json:"player_id"`
	Kind          TradeKind `gorm:"type:varchar(4);not null" json:"kind"`
	Shares        int       `gorm:"not null" json:"shares"`
	PricePerShare float64   `gorm:"type:decimal(18,2);not null" json:"price_per_share"`
	TotalAmount   float64   `gorm:"type:decimal(18,2);not null" json:"total_amount"`
	CreatedAt     time.Time `gorm:"not null;index:idx_transactions_room" json:"created_at"`
}

// TableName overrides the table name
func (Transaction) TableName() string {
	return "transactions"
}

// NewTransaction creates a trade record executed at the given price
func NewTransaction(roomID, playerID string, kind TradeKind, shares int, price float64) *Transaction {
	return &Transaction{
		TxnID:         GenerateID(),
		RoomID:        roomID,
		PlayerID:      playerID,
		Kind:          kind,
		Shares:        shares,
		PricePerShare: price,
		TotalAmount:   Round2(float64(shares) * price),
		CreatedAt:     time.Now(),
	}
}

// Round2 rounds a money amount to cents. Applied uniformly on every
// mutation so cash accounting never drifts from displayed values.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
