// Package facade defines the capability interface every cache
// implementation (the in-process engine, or an RPC client stub) must
// satisfy, per spec.md §4.1. Callers depend on this interface, not on
// a concrete cache.Engine or rpc/client.Stub.
package facade

import "github.com/tidekeep/blobcache/blob"

// Cache is the six-operation capability surface of spec.md §4.1. All
// operations return a boolean success indicator; spec.md §7 collapses
// rejection, miss and (for the RPC stub) transport failure into the
// same false result.
type Cache interface {
	// Store writes buf's bytes as the payload for (key, detail). An
	// empty/absent buf means delete.
	Store(key, detail uint64, buf *blob.Buffer) bool

	// StoreSplit writes the concatenation of a followed by b as a
	// single logical payload. An absent a means delete.
	StoreSplit(key, detail uint64, a, b *blob.Buffer) bool

	// Load fills out with the payload for (key, detail) iff an entry
	// exists and (when detail != 0) its stored detail matches.
	Load(key, detail uint64, out *blob.Buffer) bool

	// LoadSplit is Load, but splits the payload at
	// min(prefixSize, size) between outA and outB. outB may be nil;
	// outA may not be nil if outB is non-nil.
	LoadSplit(key, detail uint64, prefixSize uint32, outA, outB *blob.Buffer) bool

	// StoreString hashes keyStr (fingerprint.Sum64; empty => 0) and
	// stores under the resulting key.
	StoreString(keyStr string, detail uint64, buf *blob.Buffer) bool

	// LoadString is the string-keyed counterpart of Load.
	LoadString(keyStr string, detail uint64, out *blob.Buffer) bool
}
