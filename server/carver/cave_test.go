package carver

import (
	"testing"

	"github.com/duskcore/server/server/block/cube"
	"github.com/duskcore/server/server/world/chunk"
)

func TestCaveShouldCarveDeterministic(t *testing.T) {
	cc := NewCaveCarver(DefaultCaveConfig())
	positions := []cube.ChunkPos{{0, 0}, {1, 0}, {0, 1}}
	for _, pos := range positions {
		seed := int64(0)
		a := ForkPositional(seed, pos.X(), 0, pos.Z())
		b := ForkPositional(seed, pos.X(), 0, pos.Z())
		if got, want := cc.ShouldCarve(a), cc.ShouldCarve(b); got != want {
			t.Fatalf("chunk %v: ShouldCarve diverged between two identically seeded generators", pos)
		}
	}
}

func TestCaveBoundAndYScaleByDimension(t *testing.T) {
	overworld := NewCaveCarver(DefaultCaveConfig())
	if got, want := overworld.caveBound(), int32(15); got != want {
		t.Errorf("overworld caveBound() = %d, want %d", got, want)
	}
	if got, want := overworld.yScale(), 1.0; got != want {
		t.Errorf("overworld yScale() = %v, want %v", got, want)
	}

	nether := NewNetherCaveCarver(DefaultNetherCaveConfig())
	if got, want := nether.caveBound(), int32(10); got != want {
		t.Errorf("nether caveBound() = %d, want %d", got, want)
	}
	if got, want := nether.yScale(), 5.0; got != want {
		t.Errorf("nether yScale() = %v, want %v", got, want)
	}
}

func TestCaveThicknessNetherDoubles(t *testing.T) {
	nether := NewNetherCaveCarver(DefaultNetherCaveConfig())

	rnd := NewLegacy(7)
	f1 := rnd.NextFloat32()
	f2 := rnd.NextFloat32()
	replay := NewLegacy(7)
	got := nether.thickness(replay)
	want := (f1*2.0 + f2) * 2.0
	if got != want {
		t.Errorf("nether thickness() = %v, want %v", got, want)
	}
}

func TestCaveThicknessFatTunnelBranch(t *testing.T) {
	cc := NewCaveCarver(DefaultCaveConfig())

	// Search for a seed whose very next NextBoundedInt32(10) draw (the
	// third Legacy draw thickness() makes) lands on 0, landing on the
	// fat-tunnel branch, and one where it does not, then confirm the
	// formula on each.
	var fatSeed, plainSeed int64 = -1, -1
	for seed := int64(0); seed < 2000; seed++ {
		probe := NewLegacy(seed)
		probe.NextFloat32()
		probe.NextFloat32()
		if probe.NextBoundedInt32(10) == 0 {
			if fatSeed == -1 {
				fatSeed = seed
			}
		} else if plainSeed == -1 {
			plainSeed = seed
		}
		if fatSeed != -1 && plainSeed != -1 {
			break
		}
	}
	if fatSeed == -1 || plainSeed == -1 {
		t.Fatal("could not find both branch seeds to probe within range")
	}

	replay := NewLegacy(fatSeed)
	f1 := replay.NextFloat32()
	f2 := replay.NextFloat32()
	replay.NextBoundedInt32(10)
	f3 := replay.NextFloat32()
	f4 := replay.NextFloat32()
	want := (f1*2.0 + f2) * (f3*f4*3.0 + 1.0)

	actual := NewLegacy(fatSeed)
	got := cc.thickness(actual)
	if got != want {
		t.Errorf("fat-tunnel thickness() = %v, want %v", got, want)
	}

	replayPlain := NewLegacy(plainSeed)
	p1 := replayPlain.NextFloat32()
	p2 := replayPlain.NextFloat32()
	replayPlain.NextBoundedInt32(10)
	wantPlain := p1*2.0 + p2

	actualPlain := NewLegacy(plainSeed)
	gotPlain := cc.thickness(actualPlain)
	if gotPlain != wantPlain {
		t.Errorf("non-fat thickness() = %v, want %v", gotPlain, wantPlain)
	}
}

func TestCaveCarveDeterministicAndNoPanic(t *testing.T) {
	r := cube.Range{-64, 319}
	cc := NewCaveCarver(DefaultCaveConfig())

	run := func() *chunk.Chunk {
		c := chunk.New(cube.ChunkPos{0, 0}, r)
		ctx := NewContext(c, nil)
		rnd := ForkPositional(0, 0, 0, 0)
		cc.Carve(ctx, rnd)
		return c
	}

	a := run()
	b := run()

	for y := int32(r.Min()); y <= int32(r.Max()); y++ {
		for x := int32(0); x < 16; x++ {
			for z := int32(0); z < 16; z++ {
				va, _ := a.GetBlock(x, y, z)
				vb, _ := b.GetBlock(x, y, z)
				if va != vb {
					t.Fatalf("Carve produced divergent output at (%d,%d,%d): %d != %d", x, y, z, va, vb)
				}
			}
		}
	}
}
