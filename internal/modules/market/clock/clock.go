// Package clock drives the market simulation. One background loop wakes
// on a fixed cadence and advances every eligible room by one round.
package clock

import (
	"context"
	"sync"
	"time"

	"github.com/Abinaav-K876/market-crash/internal/modules/market/domain"
	"github.com/Abinaav-K876/market-crash/internal/modules/market/engine"
	"github.com/Abinaav-K876/market-crash/internal/modules/market/lock"
	"github.com/Abinaav-K876/market-crash/pkg/logger"
)

// Broadcaster receives tick notifications for fan-out to connected
// clients. Implementations must not block.
type Broadcaster interface {
	RoomTicked(roomID string, round int, price float64, event string, status domain.RoomStatus)
}

// MarketClock is the only writer of room price/round/status. Trades
// serialize against it through the shared room locker.
type MarketClock struct {
	store       domain.Store
	locker      *lock.RoomLocker
	src         engine.Source
	interval    time.Duration
	maxRounds   int
	broadcaster Broadcaster

	mu       sync.RWMutex
	stopping bool
}

// New creates a market clock
func New(store domain.Store, locker *lock.RoomLocker, src engine.Source, interval time.Duration, maxRounds int) *MarketClock {
	return &MarketClock{
		store:     store,
		locker:    locker,
		src:       src,
		interval:  interval,
		maxRounds: maxRounds,
	}
}

// SetBroadcaster attaches an optional tick broadcaster
func (c *MarketClock) SetBroadcaster(b Broadcaster) {
	c.broadcaster = b
}

// Stop signals the clock to exit after the current cycle. Used by tests
// and shutdown; the loop otherwise runs for the process lifetime.
func (c *MarketClock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopping = true
}

func (c *MarketClock) isStopping() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stopping
}

// Start runs the clock loop. It never returns on its own; even with zero
// eligible rooms it keeps waking every interval.
func (c *MarketClock) Start(ctx context.Context) {
	logger.Info(ctx).Dur("interval", c.interval).Msg("Market clock started")

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		<-ticker.C
		if c.isStopping() {
			logger.Info(ctx).Msg("Market clock stopped")
			return
		}
		c.Tick(ctx)
	}
}

// Tick advances every eligible room once. Rooms are processed
// independently: a failure in one is logged and skipped, and that room
// simply retries on the next cycle.
func (c *MarketClock) Tick(ctx context.Context) {
	rooms, err := c.store.ListEligibleRooms(ctx, c.maxRounds)
	if err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to list eligible rooms, retrying next cycle")
		return
	}
	if len(rooms) == 0 {
		return
	}

	logger.Debug(ctx).Int("rooms", len(rooms)).Msg("Advancing eligible rooms")

	for _, room := range rooms {
		c.tickRoom(ctx, room.RoomID)
	}
}

// tickRoom advances a single room under its lock
func (c *MarketClock) tickRoom(ctx context.Context, roomID string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx).Str("room_id", roomID).Interface("panic", r).
				Msg("Tick panicked, room isolated until next cycle")
		}
	}()

	c.locker.Lock(roomID)
	defer c.locker.Unlock(roomID)

	// Re-read under the lock; the eligibility list may be stale by now.
	room, err := c.store.GetRoom(ctx, roomID)
	if err != nil {
		logger.Warn(ctx).Err(err).Str("room_id", roomID).Msg("Failed to load room for tick")
		return
	}
	if room.Status.Terminal() || room.RoundNumber >= c.maxRounds {
		return
	}

	round := room.RoundNumber + 1
	price, event, crashed := engine.NextTick(c.src, room.CurrentPrice, round)

	status := domain.RoomStatusActive
	switch {
	case crashed:
		status = domain.RoomStatusCrashed
	case round >= c.maxRounds:
		status = domain.RoomStatusCompleted
	}

	point := &domain.PricePoint{
		RoomID:      roomID,
		RoundNumber: round,
		Price:       price,
		Event:       string(event),
		CreatedAt:   time.Now(),
	}

	if err := c.store.ApplyTick(ctx, roomID, price, round, status, point); err != nil {
		logger.Error(ctx).Err(err).Str("room_id", roomID).Int("round", round).
			Msg("Failed to commit tick, retrying next cycle")
		return
	}

	switch {
	case crashed:
		logger.Info(ctx).Str("room_id", roomID).Int("round", round).
			Msg("Market crashed")
	case status == domain.RoomStatusCompleted:
		logger.Info(ctx).Str("room_id", roomID).Int("rounds", c.maxRounds).
			Msg("Room completed all rounds")
	default:
		logger.Info(ctx).Str("room_id", roomID).Int("round", round).
			Str("event", string(event)).
			Float64("old_price", room.CurrentPrice).
			Float64("new_price", price).
			Msg("Room ticked")
	}

	if c.broadcaster != nil {
		c.broadcaster.RoomTicked(roomID, round, price, string(event), status)
	}
}
