// Package usecase implements the business logic for the market game:
// room lifecycle, state snapshots and trade processing.
package usecase

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Abinaav-K876/market-crash/internal/modules/market/domain"
	"github.com/Abinaav-K876/market-crash/internal/modules/market/lock"
	"github.com/Abinaav-K876/market-crash/pkg/logger"
)

// roomCodeAlphabet excludes the ambiguous characters I, O, 0 and 1
const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	roomCodeLength      = 6
	roomCodeMaxAttempts = 10

	recentTransactions = 8
	recentHistory      = 10
)

// Config holds the game parameters
type Config struct {
	OpeningPrice float64
	StartingCash float64
	MaxRounds    int
	TickInterval time.Duration
}

// MarketUseCase handles room and trading operations
type MarketUseCase struct {
	store  domain.Store
	locker *lock.RoomLocker
	cfg    Config
	sf     singleflight.Group
}

// NewMarketUseCase creates a market use case
func NewMarketUseCase(store domain.Store, locker *lock.RoomLocker, cfg Config) *MarketUseCase {
	return &MarketUseCase{
		store:  store,
		locker: locker,
		cfg:    cfg,
	}
}

// CreateRoomResult identifies the new room and its creator
type CreateRoomResult struct {
	RoomID   string
	PlayerID string
}

// CreateRoom creates a room in the waiting state with its first player
func (uc *MarketUseCase) CreateRoom(ctx context.Context, playerName string) (*CreateRoomResult, error) {
	name, err := validateName(playerName)
	if err != nil {
		return nil, err
	}

	roomID, err := uc.generateRoomCode(ctx)
	if err != nil {
		logger.Error(ctx).Err(err).Msg("Failed to generate room code")
		return nil, err
	}

	room := domain.NewRoom(roomID, uc.cfg.OpeningPrice)
	creator := domain.NewPlayer(roomID, name, uc.cfg.StartingCash)

	if err := uc.store.CreateRoom(ctx, room, creator); err != nil {
		logger.Error(ctx).Err(err).Str("room_id", roomID).Msg("Failed to create room")
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	logger.Info(ctx).
		Str("room_id", roomID).
		Str("player_id", creator.PlayerID).
		Str("player_name", name).
		Msg("Room created")

	return &CreateRoomResult{RoomID: roomID, PlayerID: creator.PlayerID}, nil
}

// JoinRoom adds a player to a room that has not had its first tick yet
func (uc *MarketUseCase) JoinRoom(ctx context.Context, roomID, playerName string) (string, error) {
	name, err := validateName(playerName)
	if err != nil {
		return "", err
	}
	roomID = strings.ToUpper(strings.TrimSpace(roomID))

	room, err := uc.store.GetRoom(ctx, roomID)
	if err != nil {
		return "", err
	}
	if !room.Joinable() {
		return "", domain.ErrRoomNotJoinable
	}

	player := domain.NewPlayer(roomID, name, uc.cfg.StartingCash)
	if err := uc.store.CreatePlayer(ctx, player); err != nil {
		logger.Error(ctx).Err(err).Str("room_id", roomID).Msg("Failed to add player")
		return "", fmt.Errorf("failed to join room: %w", err)
	}

	logger.Info(ctx).
		Str("room_id", roomID).
		Str("player_id", player.PlayerID).
		Str("player_name", name).
		Msg("Player joined room")

	return player.PlayerID, nil
}

// generateRoomCode draws codes until one is collision-free
func (uc *MarketUseCase) generateRoomCode(ctx context.Context) (string, error) {
	b := make([]byte, roomCodeLength)
	for attempt := 0; attempt < roomCodeMaxAttempts; attempt++ {
		if _, err := rand.Read(b); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for i := range b {
			b[i] = roomCodeAlphabet[int(b[i])%len(roomCodeAlphabet)]
		}
		code := string(b)

		exists, err := uc.store.RoomExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check room code: %w", err)
		}
		if !exists {
			return code, nil
		}
		logger.Warn(ctx).Str("room_id", code).Int("attempt", attempt+1).Msg("Room code taken, retrying")
	}
	return "", fmt.Errorf("failed to generate a unique room code after %d attempts", roomCodeMaxAttempts)
}

// GetPlayerName resolves a player's display name, confirming the
// player belongs to the room
func (uc *MarketUseCase) GetPlayerName(ctx context.Context, roomID, playerID string) (string, error) {
	player, err := uc.store.GetPlayer(ctx, playerID)
	if err != nil || !player.Active || player.RoomID != roomID {
		return "", domain.ErrSessionInvalid
	}
	return player.Name, nil
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if len(name) < 2 || len(name) > 15 {
		return "", domain.ErrInvalidName
	}
	return name, nil
}

// RoomView is the room portion of a state snapshot
type RoomView struct {
	RoomID            string  `json:"room_id"`
	CurrentPrice      float64 `json:"current_price"`
	RoundNumber       int     `json:"round_number"`
	MaxRounds         int     `json:"max_rounds"`
	Status            string  `json:"status"`
	Crashed           bool    `json:"crashed"`
	StatusMessage     string  `json:"status_message"`
	SecondsToNextTick float64 `json:"seconds_to_next_tick"`
}

// PlayerView is the requesting player's portfolio
type PlayerView struct {
	Cash       float64 `json:"cash"`
	Shares     int     `json:"shares"`
	TotalValue float64 `json:"total_value"`
}

// LeaderboardEntry ranks one player by portfolio value
type LeaderboardEntry struct {
	PlayerName string  `json:"player_name"`
	Cash       float64 `json:"cash"`
	Shares     int     `json:"shares"`
	TotalValue float64 `json:"total_value"`
	IsCurrent  bool    `json:"is_current"`
}

// TransactionView is one recent trade for display
type TransactionView struct {
	PlayerName string  `json:"player_name"`
	Kind       string  `json:"kind"`
	Shares     int     `json:"shares"`
	Price      float64 `json:"price"`
	Total      float64 `json:"total"`
	Timestamp  string  `json:"timestamp"`
}

// PricePointView is one chart point, oldest first
type PricePointView struct {
	Round int     `json:"round"`
	Price float64 `json:"price"`
	Event string  `json:"event"`
}

// RoomState is the full per-request snapshot
type RoomState struct {
	Room         RoomView           `json:"room"`
	Player       PlayerView         `json:"player"`
	Leaderboard  []LeaderboardEntry `json:"leaderboard"`
	Transactions []TransactionView  `json:"transactions"`
	PriceHistory []PricePointView   `json:"price_history"`
}

// roomSnapshot is the room-wide data shared by every poller of a room
type roomSnapshot struct {
	room    *domain.Room
	players []*domain.Player
	txns    []*domain.Transaction
	history []*domain.PricePoint
}

// GetRoomState assembles the state snapshot for one player's view
func (uc *MarketUseCase) GetRoomState(ctx context.Context, roomID, playerID string) (*RoomState, error) {
	player, err := uc.store.GetPlayer(ctx, playerID)
	if err != nil || !player.Active || player.RoomID != roomID {
		return nil, domain.ErrSessionInvalid
	}

	// Every player in a room polls the same room-wide data on the same
	// cadence; collapse concurrent fetches into one.
	v, err, _ := uc.sf.Do(roomID, func() (interface{}, error) {
		return uc.fetchSnapshot(ctx, roomID)
	})
	if err != nil {
		return nil, err
	}
	snap := v.(*roomSnapshot)

	names := make(map[string]string, len(snap.players))
	leaderboard := make([]LeaderboardEntry, 0, len(snap.players))
	for _, p := range snap.players {
		names[p.PlayerID] = p.Name
		leaderboard = append(leaderboard, LeaderboardEntry{
			PlayerName: p.Name,
			Cash:       domain.Round2(p.Cash),
			Shares:     p.SharesHeld,
			TotalValue: p.TotalValue(snap.room.CurrentPrice),
			IsCurrent:  p.PlayerID == playerID,
		})
	}
	// Stable: ties keep join order, so repeated reads rank identically.
	sort.SliceStable(leaderboard, func(i, j int) bool {
		return leaderboard[i].TotalValue > leaderboard[j].TotalValue
	})

	txns := make([]TransactionView, 0, len(snap.txns))
	for _, t := range snap.txns {
		name, ok := names[t.PlayerID]
		if !ok {
			name = "Unknown"
		}
		txns = append(txns, TransactionView{
			PlayerName: name,
			Kind:       string(t.Kind),
			Shares:     t.Shares,
			Price:      t.PricePerShare,
			Total:      t.TotalAmount,
			Timestamp:  t.CreatedAt.Format("15:04:05"),
		})
	}

	// History arrives newest first; the chart wants oldest first.
	history := make([]PricePointView, 0, len(snap.history))
	for i := len(snap.history) - 1; i >= 0; i-- {
		p := snap.history[i]
		history = append(history, PricePointView{
			Round: p.RoundNumber,
			Price: p.Price,
			Event: p.Event,
		})
	}

	return &RoomState{
		Room: RoomView{
			RoomID:            snap.room.RoomID,
			CurrentPrice:      snap.room.CurrentPrice,
			RoundNumber:       snap.room.RoundNumber,
			MaxRounds:         uc.cfg.MaxRounds,
			Status:            snap.room.Status.String(),
			Crashed:           snap.room.Status == domain.RoomStatusCrashed,
			StatusMessage:     uc.statusMessage(snap.room),
			SecondsToNextTick: uc.secondsToNextTick(snap.room),
		},
		Player: PlayerView{
			Cash:       domain.Round2(player.Cash),
			Shares:     player.SharesHeld,
			TotalValue: player.TotalValue(snap.room.CurrentPrice),
		},
		Leaderboard:  leaderboard,
		Transactions: txns,
		PriceHistory: history,
	}, nil
}

func (uc *MarketUseCase) fetchSnapshot(ctx context.Context, roomID string) (*roomSnapshot, error) {
	room, err := uc.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	players, err := uc.store.ListActivePlayers(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to load players: %w", err)
	}
	txns, err := uc.store.ListRecentTransactions(ctx, roomID, recentTransactions)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	history, err := uc.store.ListRecentHistory(ctx, roomID, recentHistory)
	if err != nil {
		return nil, fmt.Errorf("failed to load price history: %w", err)
	}
	return &roomSnapshot{room: room, players: players, txns: txns, history: history}, nil
}

func (uc *MarketUseCase) statusMessage(room *domain.Room) string {
	switch {
	case room.Status == domain.RoomStatusCrashed:
		return "MARKET CRASHED! Game over."
	case room.RoundNumber >= uc.cfg.MaxRounds:
		return fmt.Sprintf("Game completed %d rounds!", uc.cfg.MaxRounds)
	case room.RoundNumber == 0:
		return fmt.Sprintf("Waiting for players... Game starts in under %d seconds!", int(uc.cfg.TickInterval.Seconds()))
	default:
		return fmt.Sprintf("Round %d of %d", room.RoundNumber, uc.cfg.MaxRounds)
	}
}

// secondsToNextTick derives the countdown from the last tick timestamp.
// Display only; it may drift by up to one polling interval.
func (uc *MarketUseCase) secondsToNextTick(room *domain.Room) float64 {
	interval := uc.cfg.TickInterval.Seconds()
	elapsed := time.Since(room.LastUpdated).Seconds()
	remaining := interval - math.Mod(elapsed, interval)
	if remaining < 0 || remaining > interval {
		return 0
	}
	return remaining
}
