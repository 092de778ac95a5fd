// Package memory provides an in-memory Store used by tests and by
// REPO_TYPE=memory deployments.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Abinaav-K876/market-crash/internal/modules/market/domain"
)

// Store implements domain.Store with plain maps. Reads return copies so
// callers always see a point-in-time snapshot.
type Store struct {
	mu      sync.RWMutex
	rooms   map[string]*domain.Room
	players map[string]*domain.Player
	txns    map[string][]*domain.Transaction // roomID -> append order
	history map[string][]*domain.PricePoint  // roomID -> append order
	nextID  uint
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		rooms:   make(map[string]*domain.Room),
		players: make(map[string]*domain.Player),
		txns:    make(map[string][]*domain.Transaction),
		history: make(map[string][]*domain.PricePoint),
	}
}

func (s *Store) CreateRoom(ctx context.Context, room *domain.Room, creator *domain.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[room.RoomID]; ok {
		return fmt.Errorf("room %s already exists", room.RoomID)
	}

	r := *room
	p := *creator
	s.rooms[room.RoomID] = &r
	s.players[creator.PlayerID] = &p
	return nil
}

func (s *Store) CreatePlayer(ctx context.Context, player *domain.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[player.RoomID]; !ok {
		return domain.ErrRoomNotFound
	}

	p := *player
	s.players[player.PlayerID] = &p
	return nil
}

func (s *Store) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	r := *room
	return &r, nil
}

func (s *Store) GetPlayer(ctx context.Context, playerID string) (*domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	player, ok := s.players[playerID]
	if !ok {
		return nil, domain.ErrPlayerNotFound
	}
	p := *player
	return &p, nil
}

func (s *Store) RoomExists(ctx context.Context, roomID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.rooms[roomID]
	return ok, nil
}

func (s *Store) ListEligibleRooms(ctx context.Context, maxRounds int) ([]*domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]*domain.Room, 0)
	for _, room := range s.rooms {
		if room.Status.Terminal() || room.RoundNumber >= maxRounds {
			continue
		}
		r := *room
		rooms = append(rooms, &r)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].RoomID < rooms[j].RoomID })
	return rooms, nil
}

func (s *Store) ListActivePlayers(ctx context.Context, roomID string) ([]*domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	players := make([]*domain.Player, 0)
	for _, player := range s.players {
		if player.RoomID == roomID && player.Active {
			p := *player
			players = append(players, &p)
		}
	}
	// Join order; snowflake IDs are monotonic so they break timestamp ties.
	sort.Slice(players, func(i, j int) bool {
		if players[i].JoinedAt.Equal(players[j].JoinedAt) {
			return players[i].PlayerID < players[j].PlayerID
		}
		return players[i].JoinedAt.Before(players[j].JoinedAt)
	})
	return players, nil
}

func (s *Store) ListRecentTransactions(ctx context.Context, roomID string, limit int) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.txns[roomID]
	txns := make([]*domain.Transaction, 0, limit)
	for i := len(all) - 1; i >= 0 && len(txns) < limit; i-- {
		t := *all[i]
		txns = append(txns, &t)
	}
	return txns, nil
}

func (s *Store) ListRecentHistory(ctx context.Context, roomID string, limit int) ([]*domain.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.history[roomID]
	points := make([]*domain.PricePoint, 0, limit)
	for i := len(all) - 1; i >= 0 && len(points) < limit; i-- {
		p := *all[i]
		points = append(points, &p)
	}
	return points, nil
}

func (s *Store) ApplyTick(ctx context.Context, roomID string, price float64, round int, status domain.RoomStatus, point *domain.PricePoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return domain.ErrRoomNotFound
	}

	room.CurrentPrice = price
	room.RoundNumber = round
	room.Status = status
	room.LastUpdated = time.Now()

	s.nextID++
	p := *point
	p.ID = s.nextID
	s.history[roomID] = append(s.history[roomID], &p)
	return nil
}

func (s *Store) ApplyTrade(ctx context.Context, playerID string, newCash float64, newShares int, txn *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, ok := s.players[playerID]
	if !ok {
		return domain.ErrPlayerNotFound
	}

	player.Cash = newCash
	player.SharesHeld = newShares

	t := *txn
	s.txns[txn.RoomID] = append(s.txns[txn.RoomID], &t)
	return nil
}
