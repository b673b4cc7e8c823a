// Package blob provides the typed, resizable byte container callers
// use to hand data into and out of the cache. It is the "blob buffer"
// external collaborator of spec.md §4.4: the engine accepts buffers on
// store and fills them on load, but never inspects their type tag.
package blob

// Kind tags the logical decoding of a Buffer's bytes. The cache never
// inspects it; it exists so consumers can reject a mismatched decode.
type Kind int

const (
	// KindOpaque is the default: raw, uninterpreted bytes.
	KindOpaque Kind = iota
	// KindFloatVector marks a buffer as a packed []float32 or []float64.
	KindFloatVector
	// KindUint32Vector marks a buffer as a packed []uint32.
	KindUint32Vector
)

// Buffer is a typed view over a byte region. It can either wrap an
// external region (zero-copy, non-owning) or own a private backing
// array populated by SetFrom/SetLen.
type Buffer struct {
	kind  Kind
	bytes []byte
	owned bool
}

// New returns an empty, owned buffer of the given kind.
func New(kind Kind) *Buffer {
	return &Buffer{kind: kind, owned: true}
}

// Wrap returns a non-owning buffer viewing b directly. The caller
// retains ownership of b; the buffer must not outlive it.
func Wrap(kind Kind, b []byte) *Buffer {
	return &Buffer{kind: kind, bytes: b, owned: false}
}

// SetFrom copies src into the buffer's own backing storage, growing it
// if necessary, and marks the buffer owned.
func (b *Buffer) SetFrom(src []byte) {
	if cap(b.bytes) < len(src) || !b.owned {
		b.bytes = make([]byte, len(src))
		b.owned = true
	} else {
		b.bytes = b.bytes[:len(src)]
	}
	copy(b.bytes, src)
}

// SetLen truncates or extends (with zero bytes) the current view to n
// bytes. Growing past the current capacity allocates an owned backing
// array; shrinking keeps the existing one.
func (b *Buffer) SetLen(n int) {
	if cap(b.bytes) < n {
		grown := make([]byte, n)
		copy(grown, b.bytes)
		b.bytes = grown
		b.owned = true
		return
	}
	b.bytes = b.bytes[:n]
}

// Bytes returns the buffer's current view. Callers must not retain it
// across a subsequent call that mutates the buffer.
func (b *Buffer) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.bytes
}

// Len reports the current view length.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.bytes)
}

// Empty reports whether the buffer carries no bytes — the façade's
// signal that a store call means "delete".
func (b *Buffer) Empty() bool {
	return b == nil || len(b.bytes) == 0
}

// Kind returns the buffer's type tag.
func (b *Buffer) Kind() Kind {
	if b == nil {
		return KindOpaque
	}
	return b.kind
}

// SetKind overwrites the buffer's type tag.
func (b *Buffer) SetKind(k Kind) {
	b.kind = k
}
