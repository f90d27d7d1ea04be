package carver

import (
	"testing"

	"github.com/duskcore/server/server/block/cube"
	"github.com/duskcore/server/server/world/chunk"
)

func TestDefaultReplaceableRejectsOnlyCaveAir(t *testing.T) {
	if !DefaultReplaceable(CaveAirState + 1) {
		t.Error("DefaultReplaceable should accept any non-cave-air state")
	}
	if DefaultReplaceable(CaveAirState) {
		t.Error("DefaultReplaceable should reject cave air itself")
	}
}

func TestNewContextDefaultsReplaceable(t *testing.T) {
	r := cube.Range{-64, 319}
	c := chunk.New(cube.ChunkPos{0, 0}, r)
	ctx := NewContext(c, nil)
	if ctx.Replaceable == nil {
		t.Fatal("NewContext should default a nil Replaceable to DefaultReplaceable")
	}
	if !ctx.Replaceable(1) {
		t.Error("default Replaceable should accept a non-air state")
	}
	if ctx.CarveState != CaveAirState {
		t.Errorf("CarveState = %d, want CaveAirState (%d)", ctx.CarveState, CaveAirState)
	}
	if ctx.MinY != int32(r.Min()) || ctx.Height != int32(r.Height()) {
		t.Errorf("MinY/Height = %d/%d, want %d/%d", ctx.MinY, ctx.Height, r.Min(), r.Height())
	}
}

func TestCarveEllipsoidStaysWithinChunkColumn(t *testing.T) {
	r := cube.Range{-64, 319}
	c := chunk.New(cube.ChunkPos{0, 0}, r)
	if err := c.SetBlock(2, 64, 2, 1); err != nil {
		t.Fatalf("SetBlock: %v", err)
	}
	ctx := NewContext(c, nil)

	// Center the ellipsoid at a chunk edge with a radius large enough to
	// spill outside the 16x16 column; cells outside must never be touched.
	ctx.carveEllipsoid(0, 64, 0, 20, 10, func(dx, dy, dz float64) bool {
		return dx*dx+dy*dy+dz*dz >= 1.0
	})

	// A cell well inside the chunk and near the center should have been
	// carved to CaveAirState.
	got, err := c.GetBlock(2, 64, 2)
	if err != nil {
		t.Fatalf("GetBlock: %v", err)
	}
	if got != CaveAirState {
		t.Errorf("GetBlock(2,64,2) = %d, want CaveAirState (%d)", got, CaveAirState)
	}
}

func TestCarveEllipsoidSkipsAlreadyMaskedCells(t *testing.T) {
	r := cube.Range{-64, 319}
	c := chunk.New(cube.ChunkPos{0, 0}, r)
	if err := c.SetBlock(2, 64, 2, 55); err != nil {
		t.Fatalf("SetBlock: %v", err)
	}
	ctx := NewContext(c, nil)
	ctx.Mask.Set(2, 64, 2)

	ctx.carveEllipsoid(2, 64, 2, 5, 5, func(dx, dy, dz float64) bool { return false })

	got, err := c.GetBlock(2, 64, 2)
	if err != nil {
		t.Fatalf("GetBlock: %v", err)
	}
	if got != 55 {
		t.Errorf("GetBlock(2,64,2) = %d, want unchanged 55 (cell was pre-masked)", got)
	}
}

func TestCarveEllipsoidRespectsReplaceablePolicy(t *testing.T) {
	r := cube.Range{-64, 319}
	c := chunk.New(cube.ChunkPos{0, 0}, r)
	if err := c.SetBlock(2, 64, 2, 99); err != nil {
		t.Fatalf("SetBlock: %v", err)
	}
	ctx := NewContext(c, func(state uint16) bool { return state != 99 })

	ctx.carveEllipsoid(2, 64, 2, 5, 5, func(dx, dy, dz float64) bool { return false })

	got, err := c.GetBlock(2, 64, 2)
	if err != nil {
		t.Fatalf("GetBlock: %v", err)
	}
	if got != 99 {
		t.Errorf("GetBlock(2,64,2) = %d, want unchanged 99 (protected by Replaceable policy)", got)
	}
}

func TestCarveEllipsoidZeroRadiusIsNoOp(t *testing.T) {
	r := cube.Range{-64, 319}
	c := chunk.New(cube.ChunkPos{0, 0}, r)
	if err := c.SetBlock(2, 64, 2, 1); err != nil {
		t.Fatalf("SetBlock: %v", err)
	}
	ctx := NewContext(c, nil)
	ctx.carveEllipsoid(2, 64, 2, 0, 0, func(dx, dy, dz float64) bool { return false })

	got, err := c.GetBlock(2, 64, 2)
	if err != nil {
		t.Fatalf("GetBlock: %v", err)
	}
	if got != 1 {
		t.Errorf("GetBlock(2,64,2) = %d, want unchanged 1 (zero radius should no-op)", got)
	}
}
