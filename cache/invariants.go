package cache

import "fmt"

// checkInvariantsLocked verifies spec.md §3's invariants 1-6 (I1-I6 in
// spec.md §8) against the current state. Caller must hold mu.
func (e *Engine) checkInvariantsLocked() error {
	if e.usedBytes > e.capacityBytes {
		return fmt.Errorf("invariant 1 violated: used_bytes %d > capacity_bytes %d", e.usedBytes, e.capacityBytes)
	}

	seen := make(map[int32]bool, len(e.index))
	listLen := 0
	for i := e.list.head; i != nilSlot; i = e.arena.get(i).next {
		if seen[i] {
			return fmt.Errorf("invariant 3 violated: recency list cycle at slot %d", i)
		}
		seen[i] = true
		listLen++
		if listLen > len(e.index)+1 {
			return fmt.Errorf("invariant 3 violated: recency list longer than index (walked %d, index has %d)", listLen, len(e.index))
		}
	}
	if listLen != len(e.index) {
		return fmt.Errorf("invariant 2 violated: index size %d != recency list length %d", len(e.index), listLen)
	}

	keys := make(map[uint64]bool, len(e.index))
	for key, idx := range e.index {
		if !seen[idx] {
			return fmt.Errorf("invariant 2 violated: key %d's slot %d is not in the recency list", key, idx)
		}
		s := e.arena.get(idx)
		if s.key != key {
			return fmt.Errorf("invariant 6 violated: index maps key %d to slot holding key %d", key, s.key)
		}
		if keys[key] {
			return fmt.Errorf("invariant 6 violated: duplicate key %d", key)
		}
		keys[key] = true
		if len(s.payload) > cap(s.payload) {
			return fmt.Errorf("invariant 4 violated: entry %d size %d > capacity %d", key, len(s.payload), cap(s.payload))
		}
	}

	var sum int64
	for idx := range seen {
		sum += int64(perEntryOverheadBytes + cap(e.arena.get(idx).payload))
	}
	if sum != e.usedBytes {
		return fmt.Errorf("invariant 5 violated: sum of entry costs %d != used_bytes %d", sum, e.usedBytes)
	}

	// Walking from tail via prev must also reach every live slot, per
	// invariant 3's "acyclic... reaches tail in exactly n steps": check
	// the reverse direction agrees with the forward walk.
	back := 0
	for i := e.list.tail; i != nilSlot; i = e.arena.get(i).prev {
		back++
	}
	if back != listLen {
		return fmt.Errorf("invariant 3 violated: forward walk length %d != backward walk length %d", listLen, back)
	}
	return nil
}
