package engine

import "sort"

// OpenTransaction creates an empty, alive transaction named id. Fails with
// ErrDuplicateTransaction if id already names a live transaction.
func (e *Engine) OpenTransaction(id string) error {
	_, loaded := e.transactions.LoadOrStore(id, newTransaction())
	if loaded {
		return ErrDuplicateTransaction
	}
	return nil
}

func (e *Engine) liveTransaction(id string) (*Transaction, bool) {
	t, ok := e.transactions.Load(id)
	if !ok || !t.alive {
		return nil, false
	}
	return t, true
}

// SetTxn stages value against key within transaction id. The first time a
// transaction touches a key, a snapshot of the key's current value (or its
// absence) is captured as the instruction's conflict-detection baseline.
func (e *Engine) SetTxn(key, value, id string) error {
	t, ok := e.liveTransaction(id)
	if !ok {
		return ErrNoSuchTransaction
	}

	t.transGuard.Lock()
	defer t.transGuard.Unlock()

	v := value
	if inst, exists := t.instructions[key]; exists {
		inst.finalValue = &v
		inst.kind = instructionSet
		return nil
	}

	inst := &instruction{key: key, finalValue: &v, kind: instructionSet}
	if ent, exists := e.lookupEntry(key); exists && ent.alive {
		snapshot := ent.value
		inst.initialValue = &snapshot
	}
	t.instructions[key] = inst
	return nil
}

// GetTxn returns the value key would have if transaction id committed right
// now: the transaction's own staged write/removal if it has touched key,
// falling through to the auto-commit value otherwise.
func (e *Engine) GetTxn(key, id string) (string, bool, error) {
	t, ok := e.liveTransaction(id)
	if !ok {
		return "", false, ErrNoSuchTransaction
	}

	t.transGuard.Lock()
	inst, exists := t.instructions[key]
	var kind instructionKind
	var finalValue string
	if exists {
		kind = inst.kind
		if kind != instructionRemove {
			finalValue = *inst.finalValue
		}
	}
	t.transGuard.Unlock()

	if exists {
		if kind == instructionRemove {
			return "", false, nil
		}
		return finalValue, true, nil
	}

	value, ok := e.Get(key)
	return value, ok, nil
}

// RemoveTxn stages a removal of key within transaction id. If the
// transaction has not previously touched key, this is a vacuous no-op: it
// would carry no snapshot baseline, so commit would have no conflict check
// to perform against it.
func (e *Engine) RemoveTxn(key, id string) error {
	t, ok := e.liveTransaction(id)
	if !ok {
		return ErrNoSuchTransaction
	}

	t.transGuard.Lock()
	defer t.transGuard.Unlock()

	if inst, exists := t.instructions[key]; exists {
		inst.kind = instructionRemove
	}
	return nil
}

// RollbackTransaction discards transaction id and all its staged
// instructions without applying them.
func (e *Engine) RollbackTransaction(id string) error {
	t, ok := e.transactions.Load(id)
	if !ok {
		return ErrNoSuchTransaction
	}

	t.transGuard.Lock()
	t.alive = false
	t.transGuard.Unlock()

	e.transactions.Delete(id)
	return nil
}

// lockedEntry records, for one key in a commit's instruction set, the entry
// whose writeGuard was acquired during lock acquisition. ent is nil when the
// key named no live entry at lock time, meaning nothing was locked for it.
type lockedEntry struct {
	key string
	ent *entry
}

// CommitTransaction runs the commit protocol for transaction id: ordered
// write-guard acquisition, per-key conflict detection against each
// instruction's first-touch snapshot, application, and reverse-order
// release with tombstone finalization. A transaction's effects are either
// all applied, or none are.
func (e *Engine) CommitTransaction(id string) error {
	t, ok := e.transactions.Load(id)
	if !ok || !t.alive {
		return ErrNoSuchTransaction
	}

	t.transGuard.Lock()
	defer t.transGuard.Unlock()

	if !t.alive {
		// A concurrent rollback won the race for trans_guard first.
		return nil
	}

	keys := make([]string, 0, len(t.instructions))
	for k := range t.instructions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Step 1: ordered lock acquisition.
	locked := make([]lockedEntry, len(keys))
	for i, k := range keys {
		// t.instructions can't actually be missing a key we just read it
		// from; this guard exists only so ErrCommitFailed has a real code
		// path to report through.
		if _, ok := t.instructions[k]; !ok {
			return e.teardownOnCommitFailure(t, id, locked[:i])
		}
		ent, exists := e.lookupEntry(k)
		if exists && ent.alive {
			ent.writeGuard.Lock()
			locked[i] = lockedEntry{key: k, ent: ent}
		} else {
			locked[i] = lockedEntry{key: k}
		}
	}

	// Step 2: conflict detection over every instruction, then application
	// only if none conflicted.
	conflicted := false
	for i, k := range keys {
		inst := t.instructions[k]
		le := locked[i]

		switch {
		case inst.initialValue == nil && le.ent != nil:
			conflicted = true
		case inst.initialValue != nil && le.ent == nil:
			conflicted = true
		case inst.initialValue != nil && le.ent != nil && le.ent.value != *inst.initialValue:
			conflicted = true
		}
		if conflicted {
			break
		}
	}

	lastAppliedIdx := -1
	for i, k := range keys {
		if conflicted {
			break
		}
		inst := t.instructions[k]
		le := locked[i]

		switch inst.kind {
		case instructionSet:
			if le.ent != nil {
				le.ent.readGuard.Lock()
				le.ent.value = *inst.finalValue
				le.ent.readGuard.Unlock()
			} else {
				e.insertEntry(k, newEntry(*inst.finalValue))
			}
		case instructionRemove:
			if le.ent != nil {
				le.ent.readGuard.Lock()
				le.ent.alive = false
				le.ent.readGuard.Unlock()
			}
		}
		lastAppliedIdx = i
	}

	// Step 3: release in reverse order, erasing tombstoned entries only for
	// instructions that actually applied. Every write_guard acquired in
	// step 1 is released here, including those beyond the conflict point,
	// so a partial conflict never leaks a lock.
	for i := len(keys) - 1; i >= 0; i-- {
		le := locked[i]
		if le.ent == nil {
			continue
		}
		le.ent.writeGuard.Unlock()
		if i <= lastAppliedIdx && t.instructions[le.key].kind == instructionRemove {
			e.eraseEntry(le.key)
		}
	}

	// Step 4: outcome.
	t.alive = false
	e.transactions.Delete(id)

	if conflicted {
		return ErrTransactionConflict
	}
	return nil
}

// teardownOnCommitFailure handles the catastrophic path where an
// instruction expected under trans_guard is no longer present. This is
// structurally unreachable since trans_guard, held for the whole protocol,
// is the only thing that ever mutates t.instructions, but it is preserved
// per the contract so a corrupted transaction can never wedge the store. It
// releases whatever write guards were already acquired, tears the transaction down as an
// internal rollback (not a reentrant call to RollbackTransaction, which
// would deadlock on trans_guard), and reports ErrCommitFailed.
func (e *Engine) teardownOnCommitFailure(t *Transaction, id string, acquired []lockedEntry) error {
	for i := len(acquired) - 1; i >= 0; i-- {
		if acquired[i].ent != nil {
			acquired[i].ent.writeGuard.Unlock()
		}
	}
	t.alive = false
	e.transactions.Delete(id)
	return ErrCommitFailed
}
