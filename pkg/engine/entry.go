package engine

import "sync"

// entry is a live record in the key/value store. readGuard and writeGuard
// are separate so a reader can observe a stable value while a commit holds
// writeGuard but has not yet entered its brief read-side critical section to
// publish the change.
//
// Once alive is false the entry is a tombstone: no goroutine may newly
// acquire either guard, and the entry is removed from the store shortly
// after by whoever cleared alive.
type entry struct {
	value      string
	readGuard  sync.Mutex
	writeGuard sync.Mutex
	alive      bool
}

func newEntry(value string) *entry {
	return &entry{value: value, alive: true}
}
