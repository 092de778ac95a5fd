package usecase

import (
	"context"
	"fmt"

	"github.com/Abinaav-K876/market-crash/internal/modules/market/domain"
	"github.com/Abinaav-K876/market-crash/pkg/logger"
)

// TradeResult is the outcome of a successful trade
type TradeResult struct {
	Message   string  `json:"message"`
	NewCash   float64 `json:"new_cash"`
	NewShares int     `json:"new_shares"`
	Price     float64 `json:"price"`
	Total     float64 `json:"total"`
}

// Buy purchases shares at the room's current price
func (uc *MarketUseCase) Buy(ctx context.Context, roomID, playerID string, shares int) (*TradeResult, error) {
	return uc.trade(ctx, roomID, playerID, shares, domain.TradeKindBuy)
}

// Sell liquidates shares at the room's current price
func (uc *MarketUseCase) Sell(ctx context.Context, roomID, playerID string, shares int) (*TradeResult, error) {
	return uc.trade(ctx, roomID, playerID, shares, domain.TradeKindSell)
}

// trade validates and commits a single buy or sell. The room lock
// serializes it against the price clock and other trades, so the price
// read here is the price the trade settles at.
func (uc *MarketUseCase) trade(ctx context.Context, roomID, playerID string, shares int, kind domain.TradeKind) (*TradeResult, error) {
	if shares <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	uc.locker.Lock(roomID)
	defer uc.locker.Unlock(roomID)

	player, err := uc.store.GetPlayer(ctx, playerID)
	if err != nil || !player.Active || player.RoomID != roomID {
		return nil, domain.ErrSessionInvalid
	}
	room, err := uc.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, domain.ErrSessionInvalid
	}
	if !room.Tradable() {
		return nil, domain.ErrMarketClosed
	}

	price := room.CurrentPrice
	total := domain.Round2(float64(shares) * price)

	var newCash float64
	var newShares int
	switch kind {
	case domain.TradeKindBuy:
		if player.Cash < total {
			return nil, fmt.Errorf("need $%.2f, have $%.2f: %w", total, player.Cash, domain.ErrInsufficientFunds)
		}
		newCash = domain.Round2(player.Cash - total)
		newShares = player.SharesHeld + shares
	case domain.TradeKindSell:
		if player.SharesHeld < shares {
			return nil, fmt.Errorf("have %d shares, tried to sell %d: %w", player.SharesHeld, shares, domain.ErrInsufficientShares)
		}
		newCash = domain.Round2(player.Cash + total)
		newShares = player.SharesHeld - shares
	default:
		return nil, domain.ErrInvalidAmount
	}

	txn := domain.NewTransaction(roomID, playerID, kind, shares, price)
	if err := uc.store.ApplyTrade(ctx, playerID, newCash, newShares, txn); err != nil {
		logger.Error(ctx).Err(err).
			Str("room_id", roomID).
			Str("player_id", playerID).
			Str("kind", string(kind)).
			Msg("Failed to commit trade")
		return nil, fmt.Errorf("failed to commit trade: %w", err)
	}

	verb := "Bought"
	if kind == domain.TradeKindSell {
		verb = "Sold"
	}
	logger.Info(ctx).
		Str("room_id", roomID).
		Str("player_id", playerID).
		Str("kind", string(kind)).
		Int("shares", shares).
		Float64("price", price).
		Float64("total", total).
		Msg("Trade executed")

	return &TradeResult{
		Message:   fmt.Sprintf("%s %d shares at $%.2f each ($%.2f total)", verb, shares, price, total),
		NewCash:   newCash,
		NewShares: newShares,
		Price:     price,
		Total:     total,
	}, nil
}
