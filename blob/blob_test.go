package blob

import "testing"

func TestWrapIsNonOwning(t *testing.T) {
	src := []byte("hello")
	b := Wrap(KindOpaque, src)
	if b.Len() != 5 || string(b.Bytes()) != "hello" {
		t.Fatalf("unexpected wrapped view: %q", b.Bytes())
	}
	src[0] = 'H'
	if b.Bytes()[0] != 'H' {
		t.Fatalf("Wrap should be a live view over the caller's bytes")
	}
}

func TestSetFromCopies(t *testing.T) {
	b := New(KindOpaque)
	src := []byte("payload")
	b.SetFrom(src)
	src[0] = 'X'
	if b.Bytes()[0] == 'X' {
		t.Fatalf("SetFrom must copy, not alias, the source bytes")
	}
	if string(b.Bytes()) != "payload" {
		t.Fatalf("unexpected buffer contents: %q", b.Bytes())
	}
}

func TestEmpty(t *testing.T) {
	var nilBuf *Buffer
	if !nilBuf.Empty() {
		t.Fatalf("nil buffer must report Empty")
	}
	b := New(KindOpaque)
	if !b.Empty() {
		t.Fatalf("freshly constructed buffer must report Empty")
	}
	b.SetFrom([]byte("x"))
	if b.Empty() {
		t.Fatalf("buffer with content must not report Empty")
	}
}

func TestSetLenGrowAndShrink(t *testing.T) {
	b := New(KindOpaque)
	b.SetFrom([]byte("abcdef"))
	b.SetLen(3)
	if string(b.Bytes()) != "abc" {
		t.Fatalf("SetLen shrink: got %q", b.Bytes())
	}
	b.SetLen(6)
	if b.Len() != 6 {
		t.Fatalf("SetLen grow: got len %d", b.Len())
	}
}

func TestKindTag(t *testing.T) {
	b := New(KindFloatVector)
	if b.Kind() != KindFloatVector {
		t.Fatalf("expected KindFloatVector, got %v", b.Kind())
	}
	b.SetKind(KindUint32Vector)
	if b.Kind() != KindUint32Vector {
		t.Fatalf("SetKind did not take effect")
	}
}
