package domain

import "errors"

var (
	// ErrInvalidAmount rejects non-positive share counts
	ErrInvalidAmount = errors.New("share amount must be a positive integer")
	// ErrSessionInvalid signals an unknown or mismatched player/room; the caller must re-join
	ErrSessionInvalid = errors.New("player not found in this room, session expired")
	// ErrMarketClosed rejects trades after a crash or completion
	ErrMarketClosed = errors.New("market is closed, game has ended")
	// ErrInsufficientFunds rejects a buy the player cannot afford
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientShares rejects a sell of more shares than held
	ErrInsufficientShares = errors.New("insufficient shares")
	// ErrRoomNotFound signals a missing room record
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomNotJoinable rejects joining after the first tick
	ErrRoomNotJoinable = errors.New("room is not joinable")
	// ErrPlayerNotFound signals a missing player record
	ErrPlayerNotFound = errors.New("player not found")
	// ErrInvalidName rejects display names outside 2-15 characters
	ErrInvalidName = errors.New("player name must be 2-15 characters")
	// ErrStorageTransient marks a retryable infrastructure failure
	ErrStorageTransient = errors.New("transient storage failure")
)
