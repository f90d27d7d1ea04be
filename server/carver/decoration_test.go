package carver

import (
	"testing"

	"github.com/duskcore/server/server/block/cube"
	"github.com/duskcore/server/server/world/chunk"
)

func newDecorationChunk() *Context {
	r := cube.Range{-64, 319}
	c := chunk.New(cube.ChunkPos{1, 2}, r)
	return NewContext(c, nil)
}

func TestConstantCount(t *testing.T) {
	p := ConstantCount(4)
	rnd := NewLegacy(1)
	if got := p.Get(rnd); got != 4 {
		t.Errorf("ConstantCount(4).Get() = %d, want 4", got)
	}
}

func TestUniformCountInRange(t *testing.T) {
	p := UniformCount(2, 6)
	rnd := NewLegacy(2)
	for i := 0; i < 1000; i++ {
		v := p.Get(rnd)
		if v < 2 || v > 6 {
			t.Fatalf("UniformCount(2,6).Get() = %d, want [2,6]", v)
		}
	}
}

func TestInSquareStaysWithinChunkColumn(t *testing.T) {
	ctx := newDecorationChunk()
	rnd := NewLegacy(3)
	in := []BlockPos{{X: 0, Y: 64, Z: 0}}
	out := InSquare{}.Apply(in, ctx, rnd)
	if len(out) != 1 {
		t.Fatalf("InSquare.Apply returned %d positions, want 1", len(out))
	}
	p := out[0]
	startX, startZ := ctx.startBlockX(), ctx.startBlockZ()
	if p.X < startX || p.X >= startX+16 || p.Z < startZ || p.Z >= startZ+16 {
		t.Errorf("InSquare.Apply produced out-of-column position %v", p)
	}
	if p.Y != 64 {
		t.Errorf("InSquare.Apply changed Y to %d, want unchanged 64", p.Y)
	}
}

func TestHeightmapSnapsToTop(t *testing.T) {
	ctx := newDecorationChunk()
	startX, startZ := ctx.startBlockX(), ctx.startBlockZ()

	for y := int32(-64); y <= -60; y++ {
		if err := ctx.Chunk.SetBlock(0, y, 0, 1); err != nil {
			t.Fatalf("SetBlock: %v", err)
		}
	}
	ctx.Chunk.RecalculateHeightmaps()

	in := []BlockPos{{X: startX, Y: 0, Z: startZ}}
	out := Heightmap{Kind: WorldSurface}.Apply(in, ctx, NewLegacy(1))
	if len(out) != 1 {
		t.Fatalf("Heightmap.Apply returned %d positions, want 1", len(out))
	}
	if want := ctx.MinY + int32(ctx.Chunk.Heightmaps.WorldSurface.Get(0)); out[0].Y != want {
		t.Errorf("Heightmap.Apply Y = %d, want %d", out[0].Y, want)
	}
}

func TestHeightmapDropsOutOfColumnPositions(t *testing.T) {
	ctx := newDecorationChunk()
	in := []BlockPos{{X: -10000, Y: 0, Z: -10000}}
	out := Heightmap{Kind: WorldSurface}.Apply(in, ctx, NewLegacy(1))
	if len(out) != 0 {
		t.Errorf("Heightmap.Apply kept %d out-of-column positions, want 0", len(out))
	}
}

func TestCountReplicatesPositions(t *testing.T) {
	ctx := newDecorationChunk()
	c := Count{Provider: ConstantCount(3)}
	out := c.Apply([]BlockPos{{X: 1, Y: 2, Z: 3}}, ctx, NewLegacy(1))
	if len(out) != 3 {
		t.Fatalf("Count.Apply returned %d positions, want 3", len(out))
	}
	for _, p := range out {
		if p != (BlockPos{X: 1, Y: 2, Z: 3}) {
			t.Errorf("Count.Apply replica = %v, want {1 2 3}", p)
		}
	}
}

func TestRarityFilterKeepsRoughlyOneInN(t *testing.T) {
	ctx := newDecorationChunk()
	rnd := NewLegacy(9)
	const n = 100000
	in := make([]BlockPos, n)
	kept := RarityFilter{N: 10}.Apply(in, ctx, rnd)
	frac := float64(len(kept)) / float64(n)
	if frac < 0.05 || frac > 0.15 {
		t.Errorf("RarityFilter{N:10} kept fraction %v, want roughly 0.10", frac)
	}
}

func TestBlockPredicateFilter(t *testing.T) {
	ctx := newDecorationChunk()
	if err := ctx.Chunk.SetBlock(2, 0, 2, 7); err != nil {
		t.Fatalf("SetBlock: %v", err)
	}
	startX, startZ := ctx.startBlockX(), ctx.startBlockZ()

	in := []BlockPos{
		{X: startX + 2, Y: 0, Z: startZ + 2},
		{X: startX + 3, Y: 0, Z: startZ + 3},
	}
	pred := BlockPredicateFilter{Predicate: func(state uint16) bool { return state == 7 }}
	out := pred.Apply(in, ctx, NewLegacy(1))
	if len(out) != 1 || out[0] != in[0] {
		t.Errorf("BlockPredicateFilter.Apply = %v, want only %v", out, in[0])
	}
}

func TestRandomOffsetZeroRadiusLeavesPositionUnchanged(t *testing.T) {
	ctx := newDecorationChunk()
	in := []BlockPos{{X: 5, Y: 5, Z: 5}}
	out := RandomOffset{XZ: 0, Y: 0}.Apply(in, ctx, NewLegacy(1))
	if out[0] != in[0] {
		t.Errorf("RandomOffset{0,0}.Apply() = %v, want unchanged %v", out[0], in[0])
	}
}

func TestPlacedFeatureGenerateInvokesPlaceForSurvivors(t *testing.T) {
	ctx := newDecorationChunk()
	var placed []BlockPos
	pf := &PlacedFeature{
		Name:      "test_feature",
		Modifiers: []Modifier{Count{Provider: ConstantCount(2)}},
		Place: func(ctx *Context, pos BlockPos) {
			placed = append(placed, pos)
		},
	}
	pf.Generate(ctx, NewLegacy(1), BlockPos{X: 1, Y: 2, Z: 3})
	if len(placed) != 2 {
		t.Fatalf("Generate invoked Place %d times, want 2", len(placed))
	}
}

func TestPlacedFeatureGenerateStopsWhenModifierEmptiesPositions(t *testing.T) {
	ctx := newDecorationChunk()
	placeCalled := false
	pf := &PlacedFeature{
		Name:      "empties",
		Modifiers: []Modifier{Count{Provider: ConstantCount(0)}},
		Place: func(ctx *Context, pos BlockPos) {
			placeCalled = true
		},
	}
	pf.Generate(ctx, NewLegacy(1), BlockPos{X: 0, Y: 0, Z: 0})
	if placeCalled {
		t.Error("Generate invoked Place after a modifier emptied the position list")
	}
}
