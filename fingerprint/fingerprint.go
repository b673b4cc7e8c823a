// Package fingerprint maps string keys onto the 64-bit integers the
// cache engine uses for identity and detail matching.
package fingerprint

import "github.com/cespare/xxhash/v2"

// Sum64 hashes s into a 64-bit fingerprint. The empty or nil string
// maps to zero, matching the façade's "absent detail disables
// filtering" convention.
func Sum64(s string) uint64 {
	if len(s) == 0 {
		return 0
	}
	return xxhash.Sum64String(s)
}

// Sum64Bytes is the byte-slice counterpart of Sum64.
func Sum64Bytes(b []byte) uint64 {
	if len(b) == 0 {
		return 0
	}
	return xxhash.Sum64(b)
}
