package domain

import "time"

// PricePoint is one appended price-history entry, one per room per tick
// (the terminal crash tick included). Used to rebuild the price chart.
type PricePoint struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	RoomID      string    `gorm:"type:varchar(6);not null;index:idx_price_history_room" json:"room_id"`
	RoundNumber int       `gorm:"not null;index:idx_price_history_room" json:"round_number"`
	Price       float64   `gorm:"type:decimal(18,2);not null" json:"price"`
	Event       string    `gorm:"type:varchar(16);not null" json:"event"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

// TableName overrides the table name
func (PricePoint) TableName() string {
	return "price_history"
}
