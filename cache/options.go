package cache

import (
	"strconv"

	"github.com/tidekeep/blobcache/cache/stats"
	"github.com/tidekeep/blobcache/internal/clock"
)

// Size-budget defaults from spec.md §4.2/§9. 64-bit platforms get the
// larger ceiling; 32-bit builds are clamped tighter so capacityBytes
// (an int64 shift of megabytes) stays representable and sane relative
// to actual address space.
const (
	MinSizeMB   = 64
	MaxSizeMB64 = 131072
	MaxSizeMB32 = 2048
)

func platformMaxSizeMB() int {
	if strconv.IntSize == 32 {
		return MaxSizeMB32
	}
	return MaxSizeMB64
}

// perEntryOverheadBytes approximates the bookkeeping cost of one live
// entry (slot header, index bucket, list pointers) that is folded into
// used_bytes alongside each entry's payload capacity, per spec.md §3
// invariant 5.
const perEntryOverheadBytes = 56

// Option configures an Engine at construction time.
type Option func(*config)

type config struct {
	maxSizeMB int
	stats     *stats.Collector
	clock     clock.Clock
}

// WithMaxSizeMB overrides the platform-default upper clamp on
// capacity_mb (spec.md §9's Open Question: the platform defaults are
// defaults, not hard limits).
func WithMaxSizeMB(mb int) Option {
	return func(c *config) { c.maxSizeMB = mb }
}

// WithStats attaches a stats collector; hits, misses, evictions,
// stores and rejections are reported to it. Nil-safe: an Engine with
// no collector attached simply skips the reporting calls.
func WithStats(s *stats.Collector) Option {
	return func(c *config) { c.stats = s }
}

// WithClock overrides the default calibrated clock, e.g. with
// clock.Real{} in tests that need exact ordering.
func WithClock(cl clock.Clock) Option {
	return func(c *config) { c.clock = cl }
}
