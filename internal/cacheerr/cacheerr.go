// Package cacheerr provides the structured, wrapped errors used on
// the ambient (non-façade) surface of the cache: internal logging and
// the RPC layer want a reason and a wrap chain, even though the
// façade itself only ever returns a boolean (spec.md §7).
package cacheerr

import "github.com/pkg/errors"

// Sentinel reasons. Compare with errors.Is after unwrapping.
var (
	// ErrOversize names a store whose payload alone exceeds the
	// engine's per-blob admission limit (capacity_bytes / 10). The
	// engine reports that case as a false result and does not return
	// this error.
	ErrOversize = errors.New("cacheerr: payload exceeds per-blob limit")
	// ErrMalformed is returned for an ill-formed frame, e.g. one whose
	// header claims a payload larger than MAX_DATA_SIZE.
	ErrMalformed = errors.New("cacheerr: malformed request")
	// ErrMiss names a load that finds no entry, or a detail mismatch.
	// The engine reports that case as a false result and does not
	// return this error.
	ErrMiss = errors.New("cacheerr: cache miss")
	// ErrTransport is returned for RPC-layer failures: dial, framing,
	// timeout, or a short read/write on the underlying transport.
	ErrTransport = errors.New("cacheerr: transport failure")
	// ErrProtocolMismatch is returned when a client's VERSION handshake
	// disagrees with the server's protocol version.
	ErrProtocolMismatch = errors.New("cacheerr: protocol version mismatch")
)

// Wrap attaches msg as context to cause, preserving cause for
// errors.Is/errors.As. Returns nil if cause is nil.
func Wrap(cause error, msg string) error {
	if cause == nil {
		return nil
	}
	return errors.Wrap(cause, msg)
}

// Wrapf is the formatted form of Wrap.
func Wrapf(cause error, format string, args ...interface{}) error {
	if cause == nil {
		return nil
	}
	return errors.Wrapf(cause, format, args...)
}
