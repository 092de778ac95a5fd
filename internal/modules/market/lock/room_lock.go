// Package lock provides per-room mutual exclusion. A tick commit and a
// trade commit on the same room must never interleave; different rooms
// stay fully independent.
package lock

import "sync"

// RoomLocker hands out one mutex per room ID. Mutexes are created lazily
// and never removed; rooms are few and small.
type RoomLocker struct {
	locks sync.Map // roomID -> *sync.Mutex
}

// NewRoomLocker creates an empty locker
func NewRoomLocker() *RoomLocker {
	return &RoomLocker{}
}

// Lock acquires the room's mutex
func (l *RoomLocker) Lock(roomID string) {
	l.mutex(roomID).Lock()
}

// Unlock releases the room's mutex
func (l *RoomLocker) Unlock(roomID string) {
	l.mutex(roomID).Unlock()
}

func (l *RoomLocker) mutex(roomID string) *sync.Mutex {
	if m, ok := l.locks.Load(roomID); ok {
		return m.(*sync.Mutex)
	}
	m, _ := l.locks.LoadOrStore(roomID, &sync.Mutex{})
	return m.(*sync.Mutex)
}
