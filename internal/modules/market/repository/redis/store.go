// Package redis provides a Store backed by Redis, selected with
// REPO_TYPE=redis. Run Redis with AOF enabled if durability matters.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Abinaav-K876/market-crash/internal/modules/market/domain"
)

// Store implements domain.Store on a Redis client. Entities are stored as
// JSON strings; transactions and history are append-only lists. Composite
// writes go through a pipeline; the caller's room lock already serializes
// read-modify-write cycles per room.
type Store struct {
	rdb *redis.Client
}

// NewStore creates a Redis store
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// transient marks an infrastructure failure as retryable; the clock
// leaves the room for the next cycle instead of giving up on it.
func transient(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrStorageTransient, err)
}

func roomKey(roomID string) string { return fmt.Sprintf("room:%s", roomID) }

func playerKey(playerID string) string { return fmt.Sprintf("player:%s", playerID) }

func roomSetKey() string { return "rooms" }

func playerListKey(roomID string) string { return fmt.Sprintf("room_players:%s", roomID) }

func txnListKey(roomID string) string { return fmt.Sprintf("room_txns:%s", roomID) }

func historyKey(roomID string) string { return fmt.Sprintf("room_history:%s", roomID) }

func (s *Store) CreateRoom(ctx context.Context, room *domain.Room, creator *domain.Player) error {
	roomData, err := json.Marshal(room)
	if err != nil {
		return err
	}
	playerData, err := json.Marshal(creator)
	if err != nil {
		return err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, roomKey(room.RoomID), roomData, 0)
	pipe.SAdd(ctx, roomSetKey(), room.RoomID)
	pipe.Set(ctx, playerKey(creator.PlayerID), playerData, 0)
	pipe.RPush(ctx, playerListKey(room.RoomID), creator.PlayerID)
	if _, err = pipe.Exec(ctx); err != nil {
		return transient(err)
	}
	return nil
}

func (s *Store) CreatePlayer(ctx context.Context, player *domain.Player) error {
	exists, err := s.rdb.Exists(ctx, roomKey(player.RoomID)).Result()
	if err != nil {
		return transient(err)
	}
	if exists == 0 {
		return domain.ErrRoomNotFound
	}

	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, playerKey(player.PlayerID), data, 0)
	pipe.RPush(ctx, playerListKey(player.RoomID), player.PlayerID)
	if _, err = pipe.Exec(ctx); err != nil {
		return transient(err)
	}
	return nil
}

func (s *Store) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	data, err := s.rdb.Get(ctx, roomKey(roomID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, transient(err)
	}

	var room domain.Room
	if err := json.Unmarshal([]byte(data), &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Store) GetPlayer(ctx context.Context, playerID string) (*domain.Player, error) {
	data, err := s.rdb.Get(ctx, playerKey(playerID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrPlayerNotFound
		}
		return nil, transient(err)
	}

	var player domain.Player
	if err := json.Unmarshal([]byte(data), &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Store) RoomExists(ctx context.Context, roomID string) (bool, error) {
	member, err := s.rdb.SIsMember(ctx, roomSetKey(), roomID).Result()
	if err != nil {
		return false, transient(err)
	}
	return member, nil
}

func (s *Store) ListEligibleRooms(ctx context.Context, maxRounds int) ([]*domain.Room, error) {
	roomIDs, err := s.rdb.SMembers(ctx, roomSetKey()).Result()
	if err != nil {
		return nil, transient(err)
	}
	if len(roomIDs) == 0 {
		return []*domain.Room{}, nil
	}

	keys := make([]string, 0, len(roomIDs))
	for _, id := range roomIDs {
		keys = append(keys, roomKey(id))
	}
	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, transient(err)
	}

	rooms := make([]*domain.Room, 0, len(values))
	for _, v := range values {
		data, ok := v.(string)
		if !ok {
			continue
		}
		var room domain.Room
		if err := json.Unmarshal([]byte(data), &room); err != nil {
			continue
		}
		if room.Status.Terminal() || room.RoundNumber >= maxRounds {
			continue
		}
		rooms = append(rooms, &room)
	}
	return rooms, nil
}

func (s *Store) ListActivePlayers(ctx context.Context, roomID string) ([]*domain.Player, error) {
	playerIDs, err := s.rdb.LRange(ctx, playerListKey(roomID), 0, -1).Result()
	if err != nil {
		return nil, transient(err)
	}
	if len(playerIDs) == 0 {
		return []*domain.Player{}, nil
	}

	keys := make([]string, 0, len(playerIDs))
	for _, id := range playerIDs {
		keys = append(keys, playerKey(id))
	}
	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, transient(err)
	}

	players := make([]*domain.Player, 0, len(values))
	for _, v := range values {
		data, ok := v.(string)
		if !ok {
			continue
		}
		var player domain.Player
		if err := json.Unmarshal([]byte(data), &player); err != nil {
			continue
		}
		if player.Active {
			players = append(players, &player)
		}
	}
	return players, nil
}

func (s *Store) ListRecentTransactions(ctx context.Context, roomID string, limit int) ([]*domain.Transaction, error) {
	items, err := s.rdb.LRange(ctx, txnListKey(roomID), int64(-limit), -1).Result()
	if err != nil {
		return nil, transient(err)
	}

	// List is append order; reverse to newest first.
	txns := make([]*domain.Transaction, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		var txn domain.Transaction
		if err := json.Unmarshal([]byte(items[i]), &txn); err != nil {
			continue
		}
		txns = append(txns, &txn)
	}
	return txns, nil
}

func (s *Store) ListRecentHistory(ctx context.Context, roomID string, limit int) ([]*domain.PricePoint, error) {
	items, err := s.rdb.LRange(ctx, historyKey(roomID), int64(-limit), -1).Result()
	if err != nil {
		return nil, transient(err)
	}

	points := make([]*domain.PricePoint, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		var point domain.PricePoint
		if err := json.Unmarshal([]byte(items[i]), &point); err != nil {
			continue
		}
		points = append(points, &point)
	}
	return points, nil
}

func (s *Store) ApplyTick(ctx context.Context, roomID string, price float64, round int, status domain.RoomStatus, point *domain.PricePoint) error {
	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}

	room.CurrentPrice = price
	room.RoundNumber = round
	room.Status = status
	room.LastUpdated = point.CreatedAt

	roomData, err := json.Marshal(room)
	if err != nil {
		return err
	}
	pointData, err := json.Marshal(point)
	if err != nil {
		return err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, roomKey(roomID), roomData, 0)
	pipe.RPush(ctx, historyKey(roomID), pointData)
	if _, err = pipe.Exec(ctx); err != nil {
		return transient(err)
	}
	return nil
}

func (s *Store) ApplyTrade(ctx context.Context, playerID string, newCash float64, newShares int, txn *domain.Transaction) error {
	player, err := s.GetPlayer(ctx, playerID)
	if err != nil {
		return err
	}

	player.Cash = newCash
	player.SharesHeld = newShares

	playerData, err := json.Marshal(player)
	if err != nil {
		return err
	}
	txnData, err := json.Marshal(txn)
	if err != nil {
		return err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, playerKey(playerID), playerData, 0)
	pipe.RPush(ctx, txnListKey(txn.RoomID), txnData)
	if _, err = pipe.Exec(ctx); err != nil {
		return transient(err)
	}
	return nil
}
