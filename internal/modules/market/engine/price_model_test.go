package engine_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Abinaav-K876/market-crash/internal/modules/market/engine"
)

// seqSource replays a fixed sequence of draws
type seqSource struct {
	vals []float64
	i    int
}

func (s *seqSource) Float64() float64 {
	v := s.vals[s.i]
	s.i++
	return v
}

// factorDraw converts a desired factor into the third draw for band [lo, hi]
func factorDraw(factor, lo, hi float64) float64 {
	return (factor - lo) / (hi - lo)
}

func TestNextTickCrashIsTerminal(t *testing.T) {
	// First draw below the crash probability ends the market immediately;
	// no further draws are consumed.
	src := &seqSource{vals: []float64{0.05}}

	price, event, crashed := engine.NextTick(src, 100.00, 3)

	assert.Equal(t, engine.FloorPrice, price)
	assert.Equal(t, engine.EventCrash, event)
	assert.True(t, crashed)
	assert.Equal(t, 1, src.i, "crash check must short-circuit")
}

func TestNextTickVolatilityBands(t *testing.T) {
	cases := []struct {
		name   string
		round  int
		lo, hi float64
	}{
		{"early rounds", 1, 0.90, 1.10},
		{"mid rounds", 5, 0.85, 1.20},
		{"late rounds", 8, 0.80, 1.30},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// no crash, no big move, draw the bottom of the band
			src := &seqSource{vals: []float64{0.50, 0.90, 0.0}}

			price, _, crashed := engine.NextTick(src, 100.00, tc.round)

			assert.False(t, crashed)
			assert.InDelta(t, 100.00*tc.lo, price, 0.005)
		})
	}
}

func TestNextTickBigMoveOverridesBand(t *testing.T) {
	// Second draw below 0.20 switches to the [0.75, 1.25] band
	// regardless of round.
	src := &seqSource{vals: []float64{0.50, 0.10, factorDraw(1.24, 0.75, 1.25)}}

	price, event, crashed := engine.NextTick(src, 100.00, 1)

	assert.False(t, crashed)
	assert.Equal(t, engine.EventSurge, event)
	assert.InDelta(t, 124.00, price, 0.005)
}

func TestNextTickEventClassification(t *testing.T) {
	cases := []struct {
		factor float64
		want   engine.Event
	}{
		{1.16, engine.EventSurge},
		{1.06, engine.EventRise},
		{1.05, engine.EventStable}, // boundary: not strictly above
		{0.96, engine.EventStable},
		{0.94, engine.EventDrop},
		{0.84, engine.EventCrashWarning},
	}

	for _, tc := range cases {
		// big-move band covers every factor under test
		src := &seqSource{vals: []float64{0.50, 0.10, factorDraw(tc.factor, 0.75, 1.25)}}

		_, event, crashed := engine.NextTick(src, 100.00, 1)

		assert.False(t, crashed)
		assert.Equal(t, tc.want, event, "factor %.2f", tc.factor)
	}
}

func TestNextTickPriceFloor(t *testing.T) {
	// A drop from the floor price stays at the floor.
	src := &seqSource{vals: []float64{0.50, 0.90, 0.0}}

	price, _, crashed := engine.NextTick(src, engine.FloorPrice, 2)

	assert.False(t, crashed)
	assert.Equal(t, engine.FloorPrice, price)
}

func TestNextTickProperties(t *testing.T) {
	valid := map[engine.Event]bool{
		engine.EventCrash:        true,
		engine.EventCrashWarning: true,
		engine.EventSurge:        true,
		engine.EventRise:         true,
		engine.EventDrop:         true,
		engine.EventStable:       true,
	}

	src := rand.New(rand.NewSource(42))
	price := 100.00
	for round := 1; round <= 2000; round++ {
		newPrice, event, crashed := engine.NextTick(src, price, (round%10)+1)

		assert.GreaterOrEqual(t, newPrice, engine.FloorPrice)
		assert.True(t, valid[event], "unknown event %q", event)
		if crashed {
			assert.Equal(t, engine.FloorPrice, newPrice)
			assert.Equal(t, engine.EventCrash, event)
			price = 100.00 // reset and keep sampling
			continue
		}
		price = newPrice
	}
}
