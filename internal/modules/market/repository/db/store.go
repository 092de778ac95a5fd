// Package db provides the gorm-backed Store. Postgres in production,
// sqlite in tests; both go through the same code path.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/Abinaav-K876/market-crash/internal/modules/market/domain"
)

// Store implements domain.Store on a gorm connection
type Store struct {
	db *gorm.DB
}

// NewStore creates a gorm store
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the schema for all market entities
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Room{},
		&domain.Player{},
		&domain.Transaction{},
		&domain.PricePoint{},
	)
}

func (s *Store) CreateRoom(ctx context.Context, room *domain.Room, creator *domain.Player) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(room).Error; err != nil {
			return err
		}
		return tx.Create(creator).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("room code collision: %w", err)
		}
		return fmt.Errorf("failed to create room: %w", err)
	}
	return nil
}

func (s *Store) CreatePlayer(ctx context.Context, player *domain.Player) error {
	if err := s.db.WithContext(ctx).Create(player).Error; err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

func (s *Store) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	var room domain.Room
	err := s.db.WithContext(ctx).Where("room_id = ?", roomID).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return &room, nil
}

func (s *Store) GetPlayer(ctx context.Context, playerID string) (*domain.Player, error) {
	var player domain.Player
	err := s.db.WithContext(ctx).Where("player_id = ?", playerID).First(&player).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return &player, nil
}

func (s *Store) RoomExists(ctx context.Context, roomID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.Room{}).
		Where("room_id = ?", roomID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check room code: %w", err)
	}
	return count > 0, nil
}

func (s *Store) ListEligibleRooms(ctx context.Context, maxRounds int) ([]*domain.Room, error) {
	var rooms []*domain.Room
	err := s.db.WithContext(ctx).
		Where("status IN ? AND round_number < ?",
			[]domain.RoomStatus{domain.RoomStatusWaiting, domain.RoomStatusActive}, maxRounds).
		Order("room_id").
		Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible rooms: %w", err)
	}
	return rooms, nil
}

func (s *Store) ListActivePlayers(ctx context.Context, roomID string) ([]*domain.Player, error) {
	var players []*domain.Player
	err := s.db.WithContext(ctx).
		Where("room_id = ? AND active = ?", roomID, true).
		Order("joined_at, player_id").
		Find(&players).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return players, nil
}

func (s *Store) ListRecentTransactions(ctx context.Context, roomID string, limit int) ([]*domain.Transaction, error) {
	var txns []*domain.Transaction
	err := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at DESC, txn_id DESC").
		Limit(limit).
		Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, nil
}

func (s *Store) ListRecentHistory(ctx context.Context, roomID string, limit int) ([]*domain.PricePoint, error) {
	var points []*domain.PricePoint
	err := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("round_number DESC").
		Limit(limit).
		Find(&points).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list price history: %w", err)
	}
	return points, nil
}

func (s *Store) ApplyTick(ctx context.Context, roomID string, price float64, round int, status domain.RoomStatus, point *domain.PricePoint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Room{}).
			Where("room_id = ?", roomID).
			Updates(map[string]interface{}{
				"current_price": price,
				"round_number":  round,
				"status":        status,
				"last_updated":  time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrRoomNotFound
		}
		return tx.Create(point).Error
	})
}

func (s *Store) ApplyTrade(ctx context.Context, playerID string, newCash float64, newShares int, txn *domain.Transaction) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Player{}).
			Where("player_id = ?", playerID).
			Updates(map[string]interface{}{
				"cash":        newCash,
				"shares_held": newShares,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrPlayerNotFound
		}
		return tx.Create(txn).Error
	})
}

// isUniqueViolation detects a duplicate key on either driver: lib/pq in
// production (error code 23505) or gorm's translated error under sqlite.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
