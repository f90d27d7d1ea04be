package carver

import (
	"testing"

	"github.com/duskcore/server/server/block/cube"
)

var maskRange = cube.Range{-64, 319}

func TestMaskSetGet(t *testing.T) {
	m := NewMask(maskRange)
	if m.Get(3, 10, 7) {
		t.Fatal("expected a fresh mask to report unset")
	}
	m.Set(3, 10, 7)
	if !m.Get(3, 10, 7) {
		t.Fatal("expected Get to report true after Set")
	}
	if m.Get(3, 11, 7) {
		t.Fatal("a neighbouring cell should remain unset")
	}
}

func TestMaskOutOfRange(t *testing.T) {
	m := NewMask(maskRange)
	// Outside the Y range entirely; Set must not panic and Get must report
	// false (absent an additional predicate).
	m.Set(0, 10000, 0)
	if m.Get(0, 10000, 0) {
		t.Fatal("out-of-range cell should never read back as set")
	}
}

func TestMaskAdditionalLayerNeverMutatesStorage(t *testing.T) {
	m := NewMask(maskRange)
	m.SetAdditionalMask(func(x, y, z int) bool { return x == 5 && y == 5 && z == 5 })

	if !m.Get(5, 5, 5) {
		t.Fatal("additional predicate should be ORed into Get")
	}
	// Words() must not have picked up the additional layer.
	words := m.Words()
	blank := NewMask(maskRange)
	for i, w := range words {
		if w != blank.bits[i] {
			t.Fatal("additional predicate leaked into backing storage")
		}
	}
}

func TestMaskColumn(t *testing.T) {
	m := NewMask(maskRange)
	m.Set(2, -10, 4)
	m.Set(2, 5, 4)
	m.Set(2, 0, 4)
	got := m.Column(2, 4)
	want := []int{-10, 0, 5}
	if len(got) != len(want) {
		t.Fatalf("Column() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Column() = %v, want %v", got, want)
		}
	}
}

func TestMaskWordsRoundTrip(t *testing.T) {
	m := NewMask(maskRange)
	m.Set(1, 1, 1)
	m.Set(15, 300, 15)

	reloaded := MaskFromWords(maskRange, m.Words())
	if !reloaded.Get(1, 1, 1) || !reloaded.Get(15, 300, 15) {
		t.Fatal("round-tripped mask lost set cells")
	}
	if reloaded.Get(2, 2, 2) {
		t.Fatal("round-tripped mask gained a spurious set cell")
	}
}

func TestMaskIndexFormula(t *testing.T) {
	m := NewMask(maskRange)
	// x&15 | (z&15)<<4 | (y-minY)<<8
	idx, ok := m.index(17, -63, 33) // x&15=1, z&15=1, y-minY=1
	if !ok {
		t.Fatal("expected in-range index")
	}
	want := 1 | 1<<4 | 1<<8
	if idx != want {
		t.Fatalf("index() = %d, want %d", idx, want)
	}
}
