package engine

import "sync"

// Transaction is a named, ordered batch of staged instructions. All
// mutation of a transaction, including commit, is serialized through
// transGuard. Once alive is false the transaction is being torn down
// (rolled back or committed) and must not be touched further.
type Transaction struct {
	instructions map[string]*instruction
	transGuard   sync.Mutex
	alive        bool
}

func newTransaction() *Transaction {
	return &Transaction{
		instructions: make(map[string]*instruction),
		alive:        true,
	}
}
