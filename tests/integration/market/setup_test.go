package market_test

import (
	"time"

	"github.com/Abinaav-K876/market-crash/internal/modules/market/clock"
	"github.com/Abinaav-K876/market-crash/internal/modules/market/lock"
	"github.com/Abinaav-K876/market-crash/internal/modules/market/repository/memory"
	"github.com/Abinaav-K876/market-crash/internal/modules/market/usecase"
	"github.com/Abinaav-K876/market-crash/pkg/logger"
)

func init() {
	// Init logger for all tests in this package
	logger.Init(logger.Config{Level: "debug", Format: "console"})
}

// cycleSource replays a fixed sequence of draws forever
type cycleSource struct {
	draws []float64
	i     int
}

func (s *cycleSource) Float64() float64 {
	v := s.draws[s.i%len(s.draws)]
	s.i++
	return v
}

// stableSource never crashes, never takes the big-move branch, and
// lands every factor draw mid-band
func stableSource() *cycleSource {
	return &cycleSource{draws: []float64{0.50, 0.90, 0.50}}
}

// crashSource crashes on the first draw
func crashSource() *cycleSource {
	return &cycleSource{draws: []float64{0.05}}
}

type harness struct {
	store  *memory.Store
	uc     *usecase.MarketUseCase
	clock  *clock.MarketClock
	locker *lock.RoomLocker
}

func newHarness(src *cycleSource) *harness {
	store := memory.NewStore()
	locker := lock.NewRoomLocker()

	uc := usecase.NewMarketUseCase(store, locker, usecase.Config{
		OpeningPrice: 100.00,
		StartingCash: 1000.00,
		MaxRounds:    10,
		TickInterval: 10 * time.Second,
	})

	return &harness{
		store:  store,
		uc:     uc,
		clock:  clock.New(store, locker, src, 10*time.Second, 10),
		locker: locker,
	}
}
