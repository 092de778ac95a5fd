package clock_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abinaav-K876/market-crash/internal/modules/market/clock"
	"github.com/Abinaav-K876/market-crash/internal/modules/market/domain"
	"github.com/Abinaav-K876/market-crash/internal/modules/market/lock"
	"github.com/Abinaav-K876/market-crash/internal/modules/market/repository/memory"
)

// cycleSource repeats a fixed draw sequence forever
type cycleSource struct {
	vals []float64
	i    int
}

func (s *cycleSource) Float64() float64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

// stableSource never crashes and always draws mid-band
func stableSource() *cycleSource {
	return &cycleSource{vals: []float64{0.50, 0.90, 0.50}}
}

// crashSource crashes on the first draw
func crashSource() *cycleSource {
	return &cycleSource{vals: []float64{0.05}}
}

func newRoom(t *testing.T, store domain.Store, roomID string) {
	t.Helper()
	room := domain.NewRoom(roomID, 100.00)
	creator := domain.NewPlayer(roomID, "alice", 1000.00)
	require.NoError(t, store.CreateRoom(context.Background(), room, creator))
}

func TestTickAdvancesRound(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	newRoom(t, store, "AAAAAA")

	c := clock.New(store, lock.NewRoomLocker(), stableSource(), time.Second, 10)

	c.Tick(ctx)

	room, err := store.GetRoom(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, 1, room.RoundNumber)
	assert.Equal(t, domain.RoomStatusActive, room.Status)

	c.Tick(ctx)

	room, err = store.GetRoom(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, 2, room.RoundNumber)

	points, err := store.ListRecentHistory(ctx, "AAAAAA", 10)
	require.NoError(t, err)
	assert.Len(t, points, 2)
}

func TestCrashTerminatesRoom(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	newRoom(t, store, "AAAAAA")

	c := clock.New(store, lock.NewRoomLocker(), crashSource(), time.Second, 10)

	c.Tick(ctx)

	room, err := store.GetRoom(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, domain.RoomStatusCrashed, room.Status)
	assert.Equal(t, 0.01, room.CurrentPrice)
	assert.Equal(t, 1, room.RoundNumber)

	// The crash tick is recorded in the history too.
	points, err := store.ListRecentHistory(ctx, "AAAAAA", 10)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "CRASH", points[0].Event)

	// A crashed room is frozen: further ticks have no effect.
	c.Tick(ctx)

	room, err = store.GetRoom(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, 1, room.RoundNumber)
	assert.Equal(t, 0.01, room.CurrentPrice)
}

func TestCompletionAtMaxRounds(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	newRoom(t, store, "AAAAAA")

	c := clock.New(store, lock.NewRoomLocker(), stableSource(), time.Second, 10)

	// Keep ticking past the limit; the room must stop at exactly 10.
	for i := 0; i < 13; i++ {
		c.Tick(ctx)
	}

	room, err := store.GetRoom(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, 10, room.RoundNumber)
	assert.Equal(t, domain.RoomStatusCompleted, room.Status)

	points, err := store.ListRecentHistory(ctx, "AAAAAA", 20)
	require.NoError(t, err)
	assert.Len(t, points, 10)
}

// failingStore fails ApplyTick for a single room
type failingStore struct {
	domain.Store
	badRoom string
}

func (s *failingStore) ApplyTick(ctx context.Context, roomID string, price float64, round int, status domain.RoomStatus, point *domain.PricePoint) error {
	if roomID == s.badRoom {
		return errors.New("disk on fire")
	}
	return s.Store.ApplyTick(ctx, roomID, price, round, status, point)
}

func TestTickFailureDoesNotAbortOtherRooms(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewStore()
	newRoom(t, mem, "BADBAD")
	newRoom(t, mem, "GOODGO")

	store := &failingStore{Store: mem, badRoom: "BADBAD"}
	c := clock.New(store, lock.NewRoomLocker(), stableSource(), time.Second, 10)

	c.Tick(ctx)

	bad, err := mem.GetRoom(ctx, "BADBAD")
	require.NoError(t, err)
	assert.Equal(t, 0, bad.RoundNumber, "failed room is deferred, not advanced")

	good, err := mem.GetRoom(ctx, "GOODGO")
	require.NoError(t, err)
	assert.Equal(t, 1, good.RoundNumber, "other rooms still advance")
}

func TestStopExitsLoop(t *testing.T) {
	store := memory.NewStore()
	c := clock.New(store, lock.NewRoomLocker(), stableSource(), 5*time.Millisecond, 10)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.Start(context.Background())
	}()

	time.Sleep(20 * time.Millisecond)
	c.Stop()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("clock did not stop")
	}
}

// recordingBroadcaster captures tick notifications
type recordingBroadcaster struct {
	mu    sync.Mutex
	ticks []string
}

func (b *recordingBroadcaster) RoomTicked(roomID string, round int, price float64, event string, status domain.RoomStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ticks = append(b.ticks, roomID)
}

func TestBroadcasterNotifiedPerTick(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	newRoom(t, store, "AAAAAA")

	c := clock.New(store, lock.NewRoomLocker(), stableSource(), time.Second, 10)
	b := &recordingBroadcaster{}
	c.SetBroadcaster(b)

	c.Tick(ctx)
	c.Tick(ctx)

	assert.Equal(t, []string{"AAAAAA", "AAAAAA"}, b.ticks)
}
