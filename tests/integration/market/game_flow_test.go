package market_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abinaav-K876/market-crash/internal/modules/market/domain"
)

// Full happy path: create, join, trade over several rounds, complete.
func TestGameLifecycle(t *testing.T) {
	h := newHarness(stableSource())
	ctx := context.Background()

	// 1. Alice opens a room, Bob joins
	created, err := h.uc.CreateRoom(ctx, "Alice")
	require.NoError(t, err)
	bobID, err := h.uc.JoinRoom(ctx, created.RoomID, "Bob")
	require.NoError(t, err)

	state, err := h.uc.GetRoomState(ctx, created.RoomID, created.PlayerID)
	require.NoError(t, err)
	assert.Equal(t, "WAITING", state.Room.Status)
	assert.Equal(t, 100.00, state.Room.CurrentPrice)
	assert.Equal(t, 1000.00, state.Player.Cash)

	// 2. Bob buys before the first tick
	buy, err := h.uc.Buy(ctx, created.RoomID, bobID, 5)
	require.NoError(t, err)
	assert.Equal(t, 500.00, buy.NewCash)
	assert.Equal(t, "Bought 5 shares at $100.00 each ($500.00 total)", buy.Message)

	// 3. First tick activates the room and closes joining
	h.clock.Tick(ctx)

	state, err = h.uc.GetRoomState(ctx, created.RoomID, bobID)
	require.NoError(t, err)
	assert.Equal(t, "ACTIVE", state.Room.Status)
	assert.Equal(t, 1, state.Room.RoundNumber)

	_, err = h.uc.JoinRoom(ctx, created.RoomID, "Carol")
	assert.ErrorIs(t, err, domain.ErrRoomNotJoinable)

	// 4. Run out the remaining rounds
	for i := 0; i < 9; i++ {
		h.clock.Tick(ctx)
	}

	state, err = h.uc.GetRoomState(ctx, created.RoomID, bobID)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", state.Room.Status)
	assert.Equal(t, 10, state.Room.RoundNumber)
	assert.Equal(t, "Game completed 10 rounds!", state.Room.StatusMessage)
	assert.Len(t, state.PriceHistory, 10)

	// 5. Completed rooms are frozen
	_, err = h.uc.Sell(ctx, created.RoomID, bobID, 1)
	assert.ErrorIs(t, err, domain.ErrMarketClosed)

	roundBefore := state.Room.RoundNumber
	h.clock.Tick(ctx)
	state, err = h.uc.GetRoomState(ctx, created.RoomID, bobID)
	require.NoError(t, err)
	assert.Equal(t, roundBefore, state.Room.RoundNumber)
}

func TestMarketCrashFreezesRoomAndLeaderboard(t *testing.T) {
	h := newHarness(crashSource())
	ctx := context.Background()

	created, err := h.uc.CreateRoom(ctx, "Alice")
	require.NoError(t, err)
	bobID, err := h.uc.JoinRoom(ctx, created.RoomID, "Bob")
	require.NoError(t, err)

	// Bob goes all in, Alice stays in cash
	_, err = h.uc.Buy(ctx, created.RoomID, bobID, 10)
	require.NoError(t, err)

	h.clock.Tick(ctx)

	state, err := h.uc.GetRoomState(ctx, created.RoomID, bobID)
	require.NoError(t, err)
	assert.True(t, state.Room.Crashed)
	assert.Equal(t, "CRASHED", state.Room.Status)
	assert.Equal(t, 0.01, state.Room.CurrentPrice)
	assert.Equal(t, "MARKET CRASHED! Game over.", state.Room.StatusMessage)

	// Shares are worth a cent each now; cash holders win
	require.Len(t, state.Leaderboard, 2)
	assert.Equal(t, "Alice", state.Leaderboard[0].PlayerName)
	assert.Equal(t, 1000.00, state.Leaderboard[0].TotalValue)
	assert.Equal(t, "Bob", state.Leaderboard[1].PlayerName)
	assert.Equal(t, 0.10, state.Leaderboard[1].TotalValue)

	_, err = h.uc.Buy(ctx, created.RoomID, bobID, 1)
	assert.ErrorIs(t, err, domain.ErrMarketClosed)
	_, err = h.uc.Sell(ctx, created.RoomID, bobID, 1)
	assert.ErrorIs(t, err, domain.ErrMarketClosed)

	history := state.PriceHistory
	require.NotEmpty(t, history)
	assert.Equal(t, "CRASH", history[len(history)-1].Event)
}

// Reads must not mutate anything: two identical reads agree.
func TestGetRoomStateIsIdempotent(t *testing.T) {
	h := newHarness(stableSource())
	ctx := context.Background()

	created, err := h.uc.CreateRoom(ctx, "Alice")
	require.NoError(t, err)
	_, err = h.uc.Buy(ctx, created.RoomID, created.PlayerID, 3)
	require.NoError(t, err)
	h.clock.Tick(ctx)

	first, err := h.uc.GetRoomState(ctx, created.RoomID, created.PlayerID)
	require.NoError(t, err)
	second, err := h.uc.GetRoomState(ctx, created.RoomID, created.PlayerID)
	require.NoError(t, err)

	assert.Equal(t, first.Room.CurrentPrice, second.Room.CurrentPrice)
	assert.Equal(t, first.Room.RoundNumber, second.Room.RoundNumber)
	assert.Equal(t, first.Player, second.Player)
	assert.Equal(t, first.Leaderboard, second.Leaderboard)
	assert.Equal(t, first.PriceHistory, second.PriceHistory)
}

func TestTicksIsolatedPerRoom(t *testing.T) {
	h := newHarness(stableSource())
	ctx := context.Background()

	first, err := h.uc.CreateRoom(ctx, "Alice")
	require.NoError(t, err)
	second, err := h.uc.CreateRoom(ctx, "Bob")
	require.NoError(t, err)

	h.clock.Tick(ctx)

	s1, err := h.uc.GetRoomState(ctx, first.RoomID, first.PlayerID)
	require.NoError(t, err)
	s2, err := h.uc.GetRoomState(ctx, second.RoomID, second.PlayerID)
	require.NoError(t, err)

	// Both advanced one round, each with its own history
	assert.Equal(t, 1, s1.Room.RoundNumber)
	assert.Equal(t, 1, s2.Room.RoundNumber)
	assert.Len(t, s1.PriceHistory, 1)
	assert.Len(t, s2.PriceHistory, 1)
	assert.NotEqual(t, s1.Room.RoomID, s2.Room.RoomID)
}
