package carver

import "github.com/duskcore/server/server/world/chunk"

// BlockPos is a single world-space block position flowing through a
// placement pipeline.
type BlockPos struct {
	X, Y, Z int32
}

// CountProvider samples how many copies of a position a Count-style
// modifier should produce.
type CountProvider interface {
	Get(rnd Source) int32
}

type constantCount struct{ n int32 }

func (c constantCount) Get(Source) int32 { return c.n }

// ConstantCount always returns n.
func ConstantCount(n int32) CountProvider { return constantCount{n: n} }

type uniformCount struct{ min, max int32 }

func (u uniformCount) Get(rnd Source) int32 {
	if u.max <= u.min {
		return u.min
	}
	return u.min + rnd.NextBoundedInt32(u.max-u.min+1)
}

// UniformCount samples uniformly within [min, max].
func UniformCount(min, max int32) CountProvider { return uniformCount{min: min, max: max} }

// HeightmapKind selects which of a chunk's two heightmaps a Heightmap
// modifier snaps onto.
type HeightmapKind int

const (
	WorldSurface HeightmapKind = iota
	MotionBlocking
)

// NoiseSample is the boundary this engine's noise-backed modifiers call
// through: a real world-generator wires in Perlin/simplex noise here.
// The default is a cheap deterministic hash so the pipeline is runnable
// and testable standalone.
var NoiseSample = defaultNoiseSample

func defaultNoiseSample(x, z float64) float64 {
	ix, iz := int64(x*1000), int64(z*1000)
	h := uint64(ix)*0x9E3779B97F4A7C15 ^ uint64(iz)*0xC2B2AE3D27D4EB4F
	h = (h ^ (h >> 33)) * 0xFF51AFD7ED558CCD
	h = (h ^ (h >> 33)) * 0xC4CEB9FE1A85EC53
	h ^= h >> 33
	return (float64(h%2000000)/1000000.0 - 1.0) // roughly [-1, 1)
}

// BiomeFeatures is the boundary a BiomeFilter modifier consults: which
// placed features a biome's configured generation lists by name.
// Defaults to "every biome allows every feature" so the pipeline runs
// without a real biome registry wired in.
var BiomeFeatures = defaultBiomeFeatures

func defaultBiomeFeatures(biome uint16, featureName string) bool { return true }

// Modifier is one stage of a placed-feature pipeline.
type Modifier interface {
	Apply(positions []BlockPos, ctx *Context, rnd Source) []BlockPos
}

// InSquare scatters each input position to a random column within the
// same chunk, leaving y untouched.
type InSquare struct{}

func (InSquare) Apply(positions []BlockPos, ctx *Context, rnd Source) []BlockPos {
	out := make([]BlockPos, len(positions))
	startX, startZ := ctx.startBlockX(), ctx.startBlockZ()
	for i, p := range positions {
		out[i] = BlockPos{X: startX + rnd.NextBoundedInt32(16), Y: p.Y, Z: startZ + rnd.NextBoundedInt32(16)}
	}
	return out
}

// Heightmap snaps each position's y to the top of the configured
// heightmap at that column.
type Heightmap struct{ Kind HeightmapKind }

func (h Heightmap) Apply(positions []BlockPos, ctx *Context, rnd Source) []BlockPos {
	startX, startZ := ctx.startBlockX(), ctx.startBlockZ()
	out := make([]BlockPos, 0, len(positions))
	for _, p := range positions {
		lx, lz := int(p.X-startX), int(p.Z-startZ)
		if lx < 0 || lx >= 16 || lz < 0 || lz >= 16 {
			continue
		}
		var hm *chunk.Heightmap
		if h.Kind == WorldSurface {
			hm = &ctx.Chunk.Heightmaps.WorldSurface
		} else {
			hm = &ctx.Chunk.Heightmaps.MotionBlocking
		}
		top := hm.Get(lz*16 + lx)
		out = append(out, BlockPos{X: p.X, Y: int32(top) + ctx.MinY, Z: p.Z})
	}
	return out
}

// HeightRange replaces y with a sample from Provider.
type HeightRange struct{ Provider YProvider }

func (h HeightRange) Apply(positions []BlockPos, ctx *Context, rnd Source) []BlockPos {
	out := make([]BlockPos, len(positions))
	for i, p := range positions {
		out[i] = BlockPos{X: p.X, Y: h.Provider.Get(rnd, ctx.MinY, ctx.Height), Z: p.Z}
	}
	return out
}

// Count replicates each input position Provider.Get(rnd) times.
type Count struct{ Provider CountProvider }

func (c Count) Apply(positions []BlockPos, ctx *Context, rnd Source) []BlockPos {
	var out []BlockPos
	for _, p := range positions {
		n := c.Provider.Get(rnd)
		for i := int32(0); i < n; i++ {
			out = append(out, p)
		}
	}
	return out
}

// NoiseBasedCount scales the replica count by a noise sample at (x, z):
// n = base + noise(x/scale, z/scale) * amplitude, truncated toward zero.
type NoiseBasedCount struct {
	Base      int32
	Amplitude float64
	Scale     float64
}

func (n NoiseBasedCount) Apply(positions []BlockPos, ctx *Context, rnd Source) []BlockPos {
	var out []BlockPos
	for _, p := range positions {
		scale := n.Scale
		if scale == 0 {
			scale = 1
		}
		noise := NoiseSample(float64(p.X)/scale, float64(p.Z)/scale)
		count := n.Base + int32(noise*n.Amplitude)
		for i := int32(0); i < count; i++ {
			out = append(out, p)
		}
	}
	return out
}

// NoiseThresholdCount keeps a position (with a fixed replica count) only
// when the noise sample at its column clears Threshold, otherwise applies
// BelowCount replicas (0 for a pure on/off gate).
type NoiseThresholdCount struct {
	Threshold          float64
	Scale              float64
	AboveCount         int32
	BelowCount         int32
}

func (n NoiseThresholdCount) Apply(positions []BlockPos, ctx *Context, rnd Source) []BlockPos {
	var out []BlockPos
	for _, p := range positions {
		scale := n.Scale
		if scale == 0 {
			scale = 1
		}
		noise := NoiseSample(float64(p.X)/scale, float64(p.Z)/scale)
		count := n.BelowCount
		if noise >= n.Threshold {
			count = n.AboveCount
		}
		for i := int32(0); i < count; i++ {
			out = append(out, p)
		}
	}
	return out
}

// RarityFilter keeps a position with probability 1/N.
type RarityFilter struct{ N int32 }

func (r RarityFilter) Apply(positions []BlockPos, ctx *Context, rnd Source) []BlockPos {
	out := make([]BlockPos, 0, len(positions))
	for _, p := range positions {
		if rnd.NextFloat32() < 1.0/float32(r.N) {
			out = append(out, p)
		}
	}
	return out
}

// BlockPredicateFilter keeps a position iff Predicate evaluates true
// against the block currently at that position.
type BlockPredicateFilter struct{ Predicate func(state uint16) bool }

func (f BlockPredicateFilter) Apply(positions []BlockPos, ctx *Context, rnd Source) []BlockPos {
	startX, startZ := ctx.startBlockX(), ctx.startBlockZ()
	out := make([]BlockPos, 0, len(positions))
	for _, p := range positions {
		lx, lz := int(p.X-startX), int(p.Z-startZ)
		if lx < 0 || lx >= 16 || lz < 0 || lz >= 16 {
			continue
		}
		state, err := ctx.Chunk.GetBlock(lx, p.Y, lz)
		if err != nil || !f.Predicate(state) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// BiomeFilter keeps a position iff its column's biome lists FeatureName
// among its configured features (via the BiomeFeatures boundary).
type BiomeFilter struct{ FeatureName string }

func (f BiomeFilter) Apply(positions []BlockPos, ctx *Context, rnd Source) []BlockPos {
	startX, startZ := ctx.startBlockX(), ctx.startBlockZ()
	out := make([]BlockPos, 0, len(positions))
	for _, p := range positions {
		lx, lz := int(p.X-startX), int(p.Z-startZ)
		if lx < 0 || lx >= 16 || lz < 0 || lz >= 16 {
			continue
		}
		biome, err := ctx.Chunk.GetBiome(lx, p.Y, lz)
		if err != nil || !BiomeFeatures(biome, f.FeatureName) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// RandomOffset perturbs x/z by +-XZ and y by +-Y, each dimension sampled
// independently.
type RandomOffset struct {
	XZ int32
	Y  int32
}

func (r RandomOffset) Apply(positions []BlockPos, ctx *Context, rnd Source) []BlockPos {
	out := make([]BlockPos, len(positions))
	for i, p := range positions {
		dx, dz, dy := int32(0), int32(0), int32(0)
		if r.XZ > 0 {
			dx = rnd.NextBoundedInt32(2*r.XZ+1) - r.XZ
			dz = rnd.NextBoundedInt32(2*r.XZ+1) - r.XZ
		}
		if r.Y > 0 {
			dy = rnd.NextBoundedInt32(2*r.Y+1) - r.Y
		}
		out[i] = BlockPos{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
	}
	return out
}

// PlacedFeature is a named chain of Modifiers terminating in a function
// that writes blocks at each surviving position.
type PlacedFeature struct {
	Name      string
	Modifiers []Modifier
	Place     func(ctx *Context, pos BlockPos)
}

// Generate runs the pipeline from a single seed position and invokes
// Place at every position that survives every modifier. The pipeline is
// finite and non-restartable: calling Generate twice redraws independent
// RNG state from rnd.
func (pf *PlacedFeature) Generate(ctx *Context, rnd Source, seed BlockPos) {
	positions := []BlockPos{seed}
	for _, mod := range pf.Modifiers {
		positions = mod.Apply(positions, ctx, rnd)
		if len(positions) == 0 {
			return
		}
	}
	for _, p := range positions {
		pf.Place(ctx, p)
	}
}
