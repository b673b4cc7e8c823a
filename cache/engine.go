// Package cache implements the fixed-capacity, least-recently-used
// content cache described in spec.md §3–§5: an intrusive recency list
// maintained alongside a hash index, memory accounting with
// reallocation hysteresis, and a two-lock concurrency protocol that
// lets many readers and an occasional writer make progress on the
// same arena without corruption.
package cache

import (
	"sync"

	"github.com/tidekeep/blobcache/blob"
	"github.com/tidekeep/blobcache/cache/stats"
	"github.com/tidekeep/blobcache/facade"
	"github.com/tidekeep/blobcache/fingerprint"
	"github.com/tidekeep/blobcache/internal/clock"
)

var _ facade.Cache = (*Engine)(nil)

// reallocHysteresis is the 5% band from spec.md §4.2 step 6: an
// in-place update keeps its existing backing region unless it must
// grow, or unless the new size would leave more than 5% of the region
// unused. It exists to stop reallocation thrashing on workloads that
// alternate between near-equal payload sizes.
const reallocHysteresis = 0.95

// fullPrefix is the prefix size Load passes to load() so that m_a
// always saturates at the entry's actual size (spec.md §4.2 Load
// algorithm step 6, m_a = min(prefix_size, size)).
const fullPrefix = ^uint32(0)

// Engine is the in-memory LRU cache. It implements facade.Cache.
type Engine struct {
	// mu is the data lock (spec.md §5): it guards the index, the
	// recency list, every slot's fields, and usedBytes. Store acquires
	// it in write mode; Load acquires it in read mode.
	mu sync.RWMutex
	// listMu is the nested list lock: the source's strategy for
	// letting a Load (held under the data *read* lock) still perform
	// the recency-list splice that makes it semantically a write. It
	// is always acquired strictly inside mu.
	listMu sync.Mutex

	arena *arena
	list  *recency
	index map[uint64]int32

	capacityBytes int64
	usedBytes     int64

	stats *stats.Collector
	clock clock.Clock
}

// New constructs an Engine with a capacity expressed in megabytes,
// clamped to [MinSizeMB, platform max] per spec.md §4.2/§6.1.
func New(capacityMB int, opts ...Option) *Engine {
	cfg := config{maxSizeMB: platformMaxSizeMB()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if capacityMB < MinSizeMB {
		capacityMB = MinSizeMB
	}
	if capacityMB > cfg.maxSizeMB {
		capacityMB = cfg.maxSizeMB
	}
	cl := cfg.clock
	if cl == nil {
		cl = clock.New()
	}
	return newWithCapacityBytes(int64(capacityMB)<<20, cfg.stats, cl)
}

// newWithCapacityBytes builds an Engine at an exact byte budget,
// bypassing the megabyte clamp in New. It exists for tests that need
// to engineer a precise "admits exactly N entries" scenario (spec.md
// §8 scenario 3): the MinSizeMB floor makes that unreachable through
// the public, spec-mandated constructor.
func newWithCapacityBytes(capacityBytes int64, sc *stats.Collector, cl clock.Clock) *Engine {
	return &Engine{
		arena:         newArena(),
		list:          newRecency(),
		index:         make(map[uint64]int32),
		capacityBytes: capacityBytes,
		stats:         sc,
		clock:         cl,
	}
}

// Store implements facade.Cache. An empty/absent buffer deletes key.
func (e *Engine) Store(key, detail uint64, buf *blob.Buffer) bool {
	return e.store(key, detail, buf.Bytes(), nil, buf.Empty())
}

// StoreSplit implements facade.Cache: the concatenation of a and b is
// written as one logical payload; the split is not recorded. An
// absent primary source (a) deletes the key even if b carries bytes,
// matching the original's hyscan_cache_set2 (data1 == NULL removes
// the object regardless of data2).
func (e *Engine) StoreSplit(key, detail uint64, a, b *blob.Buffer) bool {
	return e.store(key, detail, a.Bytes(), b.Bytes(), a.Empty())
}

// StoreString hashes keyStr via fingerprint.Sum64 before storing.
func (e *Engine) StoreString(keyStr string, detail uint64, buf *blob.Buffer) bool {
	return e.Store(fingerprint.Sum64(keyStr), detail, buf)
}

func (e *Engine) store(key, detail uint64, a, b []byte, primaryAbsent bool) bool {
	n := len(a) + len(b)

	// Step 1 (spec.md §4.2): reject blobs that alone exceed 10% of the
	// configured budget. Checked before acquiring any lock.
	if int64(n) > e.capacityBytes/10 {
		e.stats.Rejection()
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	idx, exists := e.index[key]

	// Step 4: an absent primary source means delete, even if b still
	// carries bytes (spec.md §4.1, §4.2 step 4). Deleting an absent key
	// is a no-op success (idempotence law L1).
	if primaryAbsent {
		if exists {
			e.removeLocked(idx)
			e.stats.Delete()
		}
		return true
	}

	var oldCost int64
	if exists {
		oldCost = int64(perEntryOverheadBytes + cap(e.arena.get(idx).payload))
	}
	newCost := int64(perEntryOverheadBytes + n)

	// Step 5: evict until admitting the update would no longer exceed
	// capacity_bytes. except=idx keeps E itself from being chosen as a
	// victim while it is mid-update (spec.md §4.2 step 5's guard).
	if over := e.usedBytes - oldCost + newCost - e.capacityBytes; over > 0 {
		except := nilSlot
		if exists {
			except = idx
		}
		e.evictLocked(over, except)
		idx, exists = e.index[key]
		oldCost = 0
		if exists {
			oldCost = int64(perEntryOverheadBytes + cap(e.arena.get(idx).payload))
		}
	}

	// Steps 6/7: update in place, or insert fresh.
	if exists {
		s := e.arena.get(idx)
		if cap(s.payload) < n || float64(n) < reallocHysteresis*float64(cap(s.payload)) {
			s.payload = make([]byte, n)
			e.stats.Reallocation()
		} else {
			s.payload = s.payload[:n]
		}
		copy(s.payload, a)
		copy(s.payload[len(a):], b)
		s.detail = detail
	} else {
		idx = e.arena.alloc()
		s := e.arena.get(idx)
		s.key, s.detail = key, detail
		s.payload = make([]byte, n)
		copy(s.payload, a)
		copy(s.payload[len(a):], b)
		e.index[key] = idx
	}
	e.usedBytes += int64(perEntryOverheadBytes+cap(e.arena.get(idx).payload)) - oldCost

	// Step 8: move to head of the recency list.
	e.list.pushHead(e.arena, idx)

	e.stats.Store()
	e.stats.SetUsedBytes(e.usedBytes)
	e.stats.SetEntries(len(e.index))
	e.stats.SetLastActivity(e.clock.Now())
	return true
}

// Load implements facade.Cache.
func (e *Engine) Load(key, detail uint64, out *blob.Buffer) bool {
	return e.load(key, detail, fullPrefix, out, nil)
}

// LoadSplit implements facade.Cache.
func (e *Engine) LoadSplit(key, detail uint64, prefixSize uint32, outA, outB *blob.Buffer) bool {
	return e.load(key, detail, prefixSize, outA, outB)
}

// LoadString hashes keyStr via fingerprint.Sum64 before loading.
func (e *Engine) LoadString(keyStr string, detail uint64, out *blob.Buffer) bool {
	return e.Load(fingerprint.Sum64(keyStr), detail, out)
}

func (e *Engine) load(key, detail uint64, prefixSize uint32, outA, outB *blob.Buffer) bool {
	// Step 1 (spec.md §4.2 Load algorithm): ill-formed request.
	if outA == nil && outB != nil {
		return false
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	idx, exists := e.index[key]
	if !exists {
		e.stats.Miss()
		return false
	}
	s := e.arena.get(idx)
	if detail != 0 && s.detail != detail {
		e.stats.DetailMismatch()
		return false
	}

	// The recency-list splice is semantically a write; the nested list
	// lock lets it happen while mu is only read-locked (spec.md §5,
	// "inner writer lock" strategy).
	e.listMu.Lock()
	e.list.pushHead(e.arena, idx)
	e.listMu.Unlock()

	size := len(s.payload)
	mA := int(prefixSize)
	if mA > size {
		mA = size
	}
	if outA != nil {
		outA.SetFrom(s.payload[:mA])
	}
	if outB != nil {
		outB.SetFrom(s.payload[mA:size])
	}
	e.stats.Hit()
	e.stats.SetLastActivity(e.clock.Now())
	return true
}

// removeLocked deletes the entry at idx from the index, recency list
// and arena. Caller must hold mu for writing.
func (e *Engine) removeLocked(idx int32) {
	s := e.arena.get(idx)
	e.usedBytes -= int64(perEntryOverheadBytes + cap(s.payload))
	delete(e.index, s.key)
	e.list.unlink(e.arena, idx)
	e.arena.release(idx)
}

// evictLocked removes LRU entries until at least need bytes have been
// reclaimed or the list is exhausted. except, if not nilSlot, is the
// slot currently being updated by the in-flight Store call: it must
// never be chosen as an eviction victim even if it is the current LRU
// tail.
func (e *Engine) evictLocked(need int64, except int32) {
	reclaimed := int64(0)
	for reclaimed < need && e.list.tail != nilSlot {
		victim := e.list.tail
		if victim == except {
			prev := e.arena.get(victim).prev
			if prev == nilSlot {
				break
			}
			victim = prev
		}
		s := e.arena.get(victim)
		reclaimed += int64(perEntryOverheadBytes + cap(s.payload))
		e.removeLocked(victim)
		e.stats.Eviction()
	}
}

// UsedBytes reports the current accounted byte usage. Exposed for
// tests and diagnostics; not part of the façade.
func (e *Engine) UsedBytes() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.usedBytes
}

// Close stops the engine's background clock goroutine. Safe to skip
// for short-lived engines (e.g. in tests); long-running servers should
// call it on shutdown to avoid leaking the calibration goroutine.
func (e *Engine) Close() {
	e.clock.Stop()
}

// CapacityBytes reports the configured byte budget.
func (e *Engine) CapacityBytes() int64 {
	return e.capacityBytes
}

// Len reports the number of live entries.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.index)
}

// EntryCapacity exposes a live entry's allocated backing-region size,
// used by the reallocation-hysteresis scenario test (spec.md §8
// scenario 6). Not part of the façade.
func (e *Engine) EntryCapacity(key uint64) (int, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	idx, ok := e.index[key]
	if !ok {
		return 0, false
	}
	return cap(e.arena.get(idx).payload), true
}

// CheckInvariants walks the index and recency list and reports the
// first violation of spec.md §3's invariants, or nil. It is a test
// helper, not part of the façade, and takes the read lock like any
// other observation.
func (e *Engine) CheckInvariants() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.checkInvariantsLocked()
}
