// Package store is the public façade over the transaction engine: it
// translates client calls into engine operations and surfaces the engine's
// sentinel errors directly, with no host surface, CLI, or logging of its
// own. Keys, values, and transaction ids are opaque strings.
package store

import "kvtxn/pkg/engine"

// Re-exported so callers never need to import pkg/engine directly.
var (
	ErrZombieKey            = engine.ErrZombieKey
	ErrWriteLost            = engine.ErrWriteLost
	ErrDuplicateTransaction = engine.ErrDuplicateTransaction
	ErrNoSuchTransaction    = engine.ErrNoSuchTransaction
	ErrTransactionConflict  = engine.ErrTransactionConflict
	ErrCommitFailed         = engine.ErrCommitFailed
)

// Store is a handle to one key/value store. The zero value is not usable;
// construct one with New. A *Store is safe for concurrent use by multiple
// goroutines.
type Store struct {
	eng *engine.Engine
}

// New returns an empty Store.
func New() *Store {
	return &Store{eng: engine.New()}
}

// Set writes value to key outside of any transaction.
func (s *Store) Set(key, value string) error {
	return s.eng.Set(key, value)
}

// Get returns a copy of key's current value, and whether key exists.
func (s *Store) Get(key string) (string, bool) {
	return s.eng.Get(key)
}

// Remove deletes key. A no-op if key is absent.
func (s *Store) Remove(key string) {
	s.eng.Remove(key)
}

// OpenTransaction starts a new named transaction.
func (s *Store) OpenTransaction(id string) error {
	return s.eng.OpenTransaction(id)
}

// SetTxn stages value against key within transaction id.
func (s *Store) SetTxn(key, value, id string) error {
	return s.eng.SetTxn(key, value, id)
}

// GetTxn returns the value key would have if id committed right now.
func (s *Store) GetTxn(key, id string) (string, bool, error) {
	return s.eng.GetTxn(key, id)
}

// RemoveTxn stages a removal of key within transaction id.
func (s *Store) RemoveTxn(key, id string) error {
	return s.eng.RemoveTxn(key, id)
}

// RollbackTransaction discards transaction id and all its staged mutations.
func (s *Store) RollbackTransaction(id string) error {
	return s.eng.RollbackTransaction(id)
}

// CommitTransaction applies transaction id's staged mutations atomically, or
// fails the whole transaction if any touched key was mutated since it was
// first staged.
func (s *Store) CommitTransaction(id string) error {
	return s.eng.CommitTransaction(id)
}
