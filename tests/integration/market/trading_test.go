package market_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abinaav-K876/market-crash/internal/modules/market/domain"
)

// Concurrent buys against one wallet must serialize: every accepted
// trade is fully applied, every rejected one leaves no trace.
func TestConcurrentBuysSerialize(t *testing.T) {
	h := newHarness(stableSource())
	ctx := context.Background()

	created, err := h.uc.CreateRoom(ctx, "Alice")
	require.NoError(t, err)

	// 1000 cash at price 100 affords exactly 10 single-share buys.
	const attempts = 25
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.uc.Buy(ctx, created.RoomID, created.PlayerID, 1)
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
		}
	}
	assert.Equal(t, 10, accepted)

	player, err := h.store.GetPlayer(ctx, created.PlayerID)
	require.NoError(t, err)
	assert.Equal(t, 0.00, player.Cash)
	assert.Equal(t, 10, player.SharesHeld)

	txns, err := h.store.ListRecentTransactions(ctx, created.RoomID, 100)
	require.NoError(t, err)
	assert.Len(t, txns, 10)
}

// Trades racing the clock settle at a real tick price, never a torn one.
func TestTradesSettleAtTickConsistentPrice(t *testing.T) {
	h := newHarness(stableSource())
	ctx := context.Background()

	created, err := h.uc.CreateRoom(ctx, "Alice")
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 5; i++ {
			h.clock.Tick(ctx)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 5; i++ {
			h.uc.Buy(ctx, created.RoomID, created.PlayerID, 1)
		}
	}()
	wg.Wait()

	// Every recorded trade matches some price the room actually had.
	validPrices := map[float64]bool{100.00: true}
	history, err := h.store.ListRecentHistory(ctx, created.RoomID, 10)
	require.NoError(t, err)
	for _, p := range history {
		validPrices[p.Price] = true
	}

	txns, err := h.store.ListRecentTransactions(ctx, created.RoomID, 100)
	require.NoError(t, err)
	for _, txn := range txns {
		assert.True(t, validPrices[txn.PricePerShare], "trade at unknown price %.2f", txn.PricePerShare)
		assert.Equal(t, domain.Round2(float64(txn.Shares)*txn.PricePerShare), txn.TotalAmount)
	}
}
