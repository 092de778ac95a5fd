// Package engine implements the market price model. It is pure: all
// randomness comes from the injected Source, and no call touches storage.
package engine

import (
	"math"
	"math/rand"
	"time"

	"github.com/Abinaav-K876/market-crash/internal/modules/market/domain"
)

// Event classifies a single price move for display
type Event string

const (
	EventCrash        Event = "CRASH"
	EventCrashWarning Event = "CRASH_WARNING"
	EventSurge        Event = "SURGE"
	EventRise         Event = "RISE"
	EventDrop         Event = "DROP"
	EventStable       Event = "STABLE"
)

const (
	// FloorPrice is the minimum share price; a crash drops straight to it
	FloorPrice = 0.01
	// CrashProbability is the per-round chance of a terminal crash
	CrashProbability = 0.10
	// BigMoveProbability is the per-round chance of widened volatility
	BigMoveProbability = 0.20
)

// Source yields uniform draws in [0, 1). *rand.Rand satisfies it;
// tests substitute fixed sequences to drive exact branches.
type Source interface {
	Float64() float64
}

// NewSource returns a time-seeded production source
func NewSource() Source {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// NextTick advances the price by one round.
//
// Draw order matters and is fixed: crash check first (terminal), then the
// big-move check, then the factor itself. The volatility band widens as
// rounds progress; a big move overrides whatever band was picked.
func NextTick(src Source, currentPrice float64, roundNumber int) (newPrice float64, event Event, crashed bool) {
	if src.Float64() < CrashProbability {
		return FloorPrice, EventCrash, true
	}

	var lo, hi float64
	switch {
	case roundNumber > 7:
		lo, hi = 0.80, 1.30
	case roundNumber > 4:
		lo, hi = 0.85, 1.20
	default:
		lo, hi = 0.90, 1.10
	}

	if src.Float64() < BigMoveProbability {
		lo, hi = 0.75, 1.25
	}

	factor := lo + src.Float64()*(hi-lo)
	newPrice = math.Max(FloorPrice, domain.Round2(currentPrice*factor))

	// Classified from the factor, not the price delta; first match wins.
	switch {
	case factor > 1.15:
		event = EventSurge
	case factor > 1.05:
		event = EventRise
	case factor < 0.85:
		event = EventCrashWarning
	case factor < 0.95:
		event = EventDrop
	default:
		event = EventStable
	}

	return newPrice, event, false
}
