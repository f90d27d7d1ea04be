package world

import (
	"testing"

	"github.com/duskcore/server/server/block/cube"
)

func TestOverworldRange(t *testing.T) {
	if got, want := Overworld.Range(), (cube.Range{-64, 319}); got != want {
		t.Errorf("Overworld.Range() = %v, want %v", got, want)
	}
	if Overworld.Nether() {
		t.Error("Overworld.Nether() should be false")
	}
}

func TestOverworldLegacyRange(t *testing.T) {
	if got, want := OverworldLegacy.Range(), (cube.Range{0, 255}); got != want {
		t.Errorf("OverworldLegacy.Range() = %v, want %v", got, want)
	}
}

func TestNetherRange(t *testing.T) {
	if got, want := Nether.Range(), (cube.Range{0, 127}); got != want {
		t.Errorf("Nether.Range() = %v, want %v", got, want)
	}
	if !Nether.Nether() {
		t.Error("Nether.Nether() should be true")
	}
}

func TestEndRange(t *testing.T) {
	if got, want := End.Range(), (cube.Range{0, 255}); got != want {
		t.Errorf("End.Range() = %v, want %v", got, want)
	}
	if End.Nether() {
		t.Error("End.Nether() should be false")
	}
}

func TestDimensionByID(t *testing.T) {
	tests := []struct {
		id   int
		want Dimension
		ok   bool
	}{
		{0, Overworld, true},
		{1, Nether, true},
		{2, End, true},
		{10, OverworldLegacy, true},
		{999, Overworld, false},
	}
	for _, tt := range tests {
		got, ok := DimensionByID(tt.id)
		if got != tt.want || ok != tt.ok {
			t.Errorf("DimensionByID(%d) = (%v, %v), want (%v, %v)", tt.id, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDimensionID(t *testing.T) {
	tests := []struct {
		dim    Dimension
		wantID int
	}{
		{Overworld, 0},
		{Nether, 1},
		{End, 2},
		{OverworldLegacy, 0},
	}
	for _, tt := range tests {
		id, ok := DimensionID(tt.dim)
		if !ok || id != tt.wantID {
			t.Errorf("DimensionID(%v) = (%d, %v), want (%d, true)", tt.dim, id, ok, tt.wantID)
		}
	}
}
