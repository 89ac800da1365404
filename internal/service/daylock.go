package service

import (
	"sync"

	"github.com/google/uuid"
)

// dayLocks hands out one mutex per (professional, date) pair so a conflict
// check and the write it guards cannot interleave with a concurrent booking
// for the same calendar. The database transaction gives the same guarantee
// at the storage layer; this closes the window inside the process.
type dayLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newDayLocks() *dayLocks {
	return &dayLocks{locks: make(map[string]*sync.Mutex)}
}

// Acquire locks the professional's day and returns the release func.
// Entries are kept for the process lifetime; the keyspace is bounded by
// professionals × dates actually booked.
func (d *dayLocks) Acquire(professionalID uuid.UUID, date string) func() {
	key := professionalID.String() + "|" + date

	d.mu.Lock()
	m, ok := d.locks[key]
	if !ok {
		m = &sync.Mutex{}
		d.locks[key] = m
	}
	d.mu.Unlock()

	m.Lock()
	return m.Unlock
}
