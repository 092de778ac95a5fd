package domain

import "context"

// Store is the durable record store for rooms, players, transactions and
// price history. Implementations must commit synchronously: every mutation
// is durable before the call returns. Reads are point-in-time snapshots.
type Store interface {
	// CreateRoom persists a new room together with its creator in one unit
	CreateRoom(ctx context.Context, room *Room, creator *Player) error
	// CreatePlayer persists a joining player
	CreatePlayer(ctx context.Context, player *Player) error

	GetRoom(ctx context.Context, roomID string) (*Room, error)
	GetPlayer(ctx context.Context, playerID string) (*Player, error)

	// RoomExists reports whether a room code is already taken
	RoomExists(ctx context.Context, roomID string) (bool, error)
	// ListEligibleRooms returns rooms the clock may still advance:
	// status WAITING or ACTIVE with round_number below maxRounds
	ListEligibleRooms(ctx context.Context, maxRounds int) ([]*Room, error)
	// ListActivePlayers returns the room's active players in join order
	ListActivePlayers(ctx context.Context, roomID string) ([]*Player, error)
	// ListRecentTransactions returns up to limit trades, newest first
	ListRecentTransactions(ctx context.Context, roomID string, limit int) ([]*Transaction, error)
	// ListRecentHistory returns up to limit price points, newest first
	ListRecentHistory(ctx context.Context, roomID string, limit int) ([]*PricePoint, error)

	// ApplyTick updates the room's price/round/status and appends the
	// price point in one atomic unit. Returns ErrRoomNotFound if absent.
	ApplyTick(ctx context.Context, roomID string, price float64, round int, status RoomStatus, point *PricePoint) error
	// ApplyTrade updates the player's balance/holdings and appends the
	// transaction in one atomic unit. Returns ErrPlayerNotFound if absent.
	ApplyTrade(ctx context.Context, playerID string, newCash float64, newShares int, txn *Transaction) error
}
