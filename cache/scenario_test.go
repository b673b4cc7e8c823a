package cache

import (
	"testing"

	"github.com/tidekeep/blobcache/blob"
)

// TestScenarioSingleEntryRoundtrip is spec.md §8 scenario 1.
func TestScenarioSingleEntryRoundtrip(t *testing.T) {
	e := New(64)
	if !e.Store(0xAAAA, 0xBBBB, blob.Wrap(blob.KindOpaque, []byte("hello"))) {
		t.Fatalf("store returned false")
	}
	out := blob.New(blob.KindOpaque)
	if !e.Load(0xAAAA, 0xBBBB, out) {
		t.Fatalf("load with the matching detail returned false")
	}
	if string(out.Bytes()) != "hello" {
		t.Fatalf("got %q, want %q", out.Bytes(), "hello")
	}
	if e.Load(0xAAAA, 0xCCCC, out) {
		t.Fatalf("load with a mismatched detail should have failed")
	}
}

// TestScenarioDelete is spec.md §8 scenario 2.
func TestScenarioDelete(t *testing.T) {
	e := New(64)
	e.Store(0xAAAA, 0xBBBB, blob.Wrap(blob.KindOpaque, []byte("hello")))
	if !e.Store(0xAAAA, 0, blob.New(blob.KindOpaque)) {
		t.Fatalf("delete store returned false")
	}
	out := blob.New(blob.KindOpaque)
	if e.Load(0xAAAA, 0, out) {
		t.Fatalf("load after delete should have failed")
	}
}

// TestScenarioOversizeRejection is spec.md §8 scenario 4.
func TestScenarioOversizeRejection(t *testing.T) {
	e := New(64)
	x := make([]byte, 7<<20)
	if e.Store(1, 2, blob.Wrap(blob.KindOpaque, x)) {
		t.Fatalf("a 7 MB store on a 64 MB cache should be rejected")
	}
	if e.Len() != 0 {
		t.Fatalf("engine should be unchanged after a rejected store")
	}
}

// TestScenarioSplitStoreLoad is spec.md §8 scenario 5.
func TestScenarioSplitStoreLoad(t *testing.T) {
	e := New(64)
	if !e.StoreSplit(1, 2, blob.Wrap(blob.KindOpaque, []byte("abc")), blob.Wrap(blob.KindOpaque, []byte("defgh"))) {
		t.Fatalf("store_split returned false")
	}
	outA, outB := blob.New(blob.KindOpaque), blob.New(blob.KindOpaque)
	if !e.LoadSplit(1, 2, 3, outA, outB) {
		t.Fatalf("load_split returned false")
	}
	if string(outA.Bytes()) != "abc" || string(outB.Bytes()) != "defgh" {
		t.Fatalf("got outA=%q outB=%q", outA.Bytes(), outB.Bytes())
	}
	if !e.LoadSplit(1, 2, 4, outA, outB) {
		t.Fatalf("second load_split returned false")
	}
	if string(outA.Bytes()) != "abcd" || string(outB.Bytes()) != "efgh" {
		t.Fatalf("got outA=%q outB=%q", outA.Bytes(), outB.Bytes())
	}
}
