package engine

import "errors"

// Sentinel errors surfaced by Engine. None are wrapped; callers compare with
// errors.Is.
var (
	ErrZombieKey            = errors.New("set failed: key is a tombstone")
	ErrWriteLost            = errors.New("set failed: could not complete")
	ErrDuplicateTransaction = errors.New("transaction already exists")
	ErrNoSuchTransaction    = errors.New("no such transaction")
	ErrTransactionConflict  = errors.New("transaction commits on tampered data: aborted")
	ErrCommitFailed         = errors.New("commit failed: instruction unreachable during lock acquisition")
)
