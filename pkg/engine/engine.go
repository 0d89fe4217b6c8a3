// Package engine implements the transaction core of an in-memory,
// string-keyed, string-valued key/value store: entries linked to staged
// per-transaction instruction lists, lock-ordered commit with conflict
// detection, and tombstoning for safe concurrent removal.
package engine

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/tidwall/btree"
)

// entryItem pairs a key with its entry for storage in the ordered btree.
// entries are kept ordered lexicographically on key, the same order in which
// commit sorts its own keys before acquiring write guards; that single global
// order is the sole deadlock-avoidance mechanism for overlapping concurrent
// commits.
type entryItem struct {
	key string
	ent *entry
}

// Engine is the top-level container: it owns the entries and transactions
// and mediates every operation against them. Callers hold an *Engine as an
// explicit handle; no ambient process-wide state is used.
type Engine struct {
	entriesMu sync.RWMutex
	entries   *btree.BTreeG[entryItem]

	transactions *xsync.MapOf[string, *Transaction]
}

// New returns an empty Engine.
func New() *Engine {
	return &Engine{
		entries: btree.NewBTreeG(func(a, b entryItem) bool {
			return a.key < b.key
		}),
		transactions: xsync.NewMapOf[string, *Transaction](),
	}
}

func (e *Engine) lookupEntry(key string) (*entry, bool) {
	e.entriesMu.RLock()
	defer e.entriesMu.RUnlock()
	item, ok := e.entries.Get(entryItem{key: key})
	if !ok {
		return nil, false
	}
	return item.ent, true
}

func (e *Engine) insertEntry(key string, ent *entry) {
	e.entriesMu.Lock()
	defer e.entriesMu.Unlock()
	e.entries.Set(entryItem{key: key, ent: ent})
}

func (e *Engine) eraseEntry(key string) {
	e.entriesMu.Lock()
	defer e.entriesMu.Unlock()
	e.entries.Delete(entryItem{key: key})
}

// Set writes value to key outside of any transaction. If key names a live
// entry its value is overwritten under both guards; if key names a
// tombstone, ErrZombieKey is returned; otherwise a new entry is created.
func (e *Engine) Set(key, value string) error {
	ent, exists := e.lookupEntry(key)
	if exists {
		if !ent.alive {
			return ErrZombieKey
		}
		ent.writeGuard.Lock()
		ent.readGuard.Lock()
		ent.value = value
		ent.readGuard.Unlock()
		ent.writeGuard.Unlock()
	} else {
		e.insertEntry(key, newEntry(value))
		var ok bool
		ent, ok = e.lookupEntry(key)
		if !ok {
			// A concurrent Remove already erased the entry we just
			// inserted; our write was superseded, nothing left to check.
			return nil
		}
	}

	ent.writeGuard.Lock()
	mismatch := ent.value != value
	ent.writeGuard.Unlock()
	if mismatch {
		return ErrWriteLost
	}
	return nil
}

// Get returns a copy of key's current value, or false if key is absent or
// tombstoned.
func (e *Engine) Get(key string) (string, bool) {
	ent, exists := e.lookupEntry(key)
	if !exists || !ent.alive {
		return "", false
	}
	ent.readGuard.Lock()
	value := ent.value
	ent.readGuard.Unlock()
	return value, true
}

// Remove deletes key entirely. A no-op if key is absent or already
// tombstoned.
func (e *Engine) Remove(key string) {
	ent, exists := e.lookupEntry(key)
	if !exists || !ent.alive {
		return
	}
	ent.writeGuard.Lock()
	ent.readGuard.Lock()
	e.eraseEntry(key)
	ent.readGuard.Unlock()
	ent.writeGuard.Unlock()
}
