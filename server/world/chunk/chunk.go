package chunk

import (
	"fmt"

	"github.com/df-mc/atomic"

	"github.com/duskcore/server/server/block/cube"
)

// Chunk is the in-memory representation of one column of the world:
// Range.SubChunkCount() sub-chunks (24 for the overworld's 16x384x16
// column), two heightmaps, and the block/fluid
// scheduled-tick queues.
//
// A Chunk's Position never changes for its lifetime; it is the identity
// key used by the region serializer and manager.
type Chunk struct {
	Position cube.ChunkPos
	Range    cube.Range

	sub []*SubChunk

	Heightmaps Heightmaps

	BlockTicks *TickQueue
	FluidTicks *TickQueue

	dirty atomic.Bool
}

// New returns an empty Chunk at the given position, with r.SubChunkCount()
// homogeneously-air sub-chunks allocated up front.
func New(pos cube.ChunkPos, r cube.Range) *Chunk {
	n := r.SubChunkCount()
	sub := make([]*SubChunk, n)
	for i := range sub {
		sub[i] = NewSubChunk()
	}
	return &Chunk{
		Position:   pos,
		Range:      r,
		sub:        sub,
		BlockTicks: NewTickQueue(4096),
		FluidTicks: NewTickQueue(4096),
	}
}

// SubChunks returns the chunk's sub-chunks, invariantly length
// Range.SubChunkCount() (24 for the overworld). Never sparse.
func (c *Chunk) SubChunks() []*SubChunk { return c.sub }

// SubChunk returns the sub-chunk at index sy, or an error if sy is out of
// range.
func (c *Chunk) SubChunk(sy int) (*SubChunk, error) {
	if sy < 0 || sy >= len(c.sub) {
		return nil, fmt.Errorf("chunk: sub-chunk index %d out of range [0, %d)", sy, len(c.sub))
	}
	return c.sub[sy], nil
}

// blockLocal splits a world Y into its owning sub-chunk index and the
// relative position inside it.
func (c *Chunk) blockLocal(x int, y int32, z int) (sy int, rx, ry, rz int) {
	sy = cube.SubChunkIndex(y, int32(c.Range.Min()))
	rx, rz = x&15, z&15
	ry = int(y-int32(c.Range.Min())) & 15
	return
}

// GetBlock returns the block state at the world-relative position (x, y, z)
// where x, z are chunk-relative [0, 16) and y is the absolute world Y.
func (c *Chunk) GetBlock(x int, y int32, z int) (uint16, error) {
	sy, rx, ry, rz := c.blockLocal(x, y, z)
	sub, err := c.SubChunk(sy)
	if err != nil {
		return 0, err
	}
	return sub.Block(cube.RelativeIndex(rx, ry, rz)), nil
}

// SetBlock writes a block state at the world-relative position (x, y, z)
// and marks the chunk dirty. It updates exactly one cell through the
// sub-chunk's paletted-storage promote/demote logic; heightmaps are not
// recomputed here (see RecalculateHeightmaps).
func (c *Chunk) SetBlock(x int, y int32, z int, state uint16) error {
	sy, rx, ry, rz := c.blockLocal(x, y, z)
	sub, err := c.SubChunk(sy)
	if err != nil {
		return err
	}
	sub.SetBlock(cube.RelativeIndex(rx, ry, rz), state)
	c.MarkDirty()
	return nil
}

// GetBiome returns the biome at the coarse 4x4x4 grid cell owning (x, y, z).
func (c *Chunk) GetBiome(x int, y int32, z int) (uint16, error) {
	sy := cube.SubChunkIndex(y, int32(c.Range.Min()))
	sub, err := c.SubChunk(sy)
	if err != nil {
		return 0, err
	}
	bx, by, bz := (x&15)/4, (int(y-int32(c.Range.Min()))&15)/4, (z&15)/4
	return sub.Biome(cube.BiomeRelativeIndex(bx, by, bz)), nil
}

// SetBiome writes the biome at the coarse 4x4x4 grid cell owning (x, y, z)
// and marks the chunk dirty.
func (c *Chunk) SetBiome(x int, y int32, z int, biome uint16) error {
	sy := cube.SubChunkIndex(y, int32(c.Range.Min()))
	sub, err := c.SubChunk(sy)
	if err != nil {
		return err
	}
	bx, by, bz := (x&15)/4, (int(y-int32(c.Range.Min()))&15)/4, (z&15)/4
	sub.SetBiome(cube.BiomeRelativeIndex(bx, by, bz), biome)
	c.MarkDirty()
	return nil
}

// MarkDirty flags the chunk as holding unsaved changes. Cleared only by the
// region manager immediately after a successful serialize.
func (c *Chunk) MarkDirty() { c.dirty.Store(true) }

// Dirty reports whether the chunk has unsaved changes.
func (c *Chunk) Dirty() bool { return c.dirty.Load() }

// ClearDirty is called by the region manager once a chunk has been
// successfully serialized to its region image.
func (c *Chunk) ClearDirty() { c.dirty.Store(false) }

// RecalculateHeightmaps recomputes both heightmaps from scratch. This is
// a deliberately lazy strategy: callers that need accurate heightmaps
// during generation must invoke this explicitly rather than relying on
// every SetBlock call to keep it current.
func (c *Chunk) RecalculateHeightmaps() {
	minY := int32(c.Range.Min())
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			idx := z*16 + x
			surface, motionBlocking := 0, 0
			for y := int32(c.Range.Max()); y >= minY; y-- {
				state, err := c.GetBlock(x, y, z)
				if err != nil {
					continue
				}
				if state != 0 {
					if surface == 0 {
						surface = int(y-minY) + 1
					}
					if motionBlocking == 0 && !transparentForMotion(state) {
						motionBlocking = int(y-minY) + 1
					}
				}
				if surface != 0 && motionBlocking != 0 {
					break
				}
			}
			c.Heightmaps.WorldSurface.Set(idx, surface)
			c.Heightmaps.MotionBlocking.Set(idx, motionBlocking)
		}
	}
}

// transparentForMotion reports whether a block state should be skipped by
// the motion-blocking heightmap. Air (0) is always transparent; anything
// else is treated as solid since the block/item registry that would give a
// precise answer lives outside this engine's scope (see boundary.Registry).
func transparentForMotion(state uint16) bool {
	return state == 0
}

// Clone returns a deep copy of the chunk, including its dirty flag.
func (c *Chunk) Clone() *Chunk {
	sub := make([]*SubChunk, len(c.sub))
	for i, s := range c.sub {
		sub[i] = s.Clone()
	}
	out := &Chunk{
		Position:   c.Position,
		Range:      c.Range,
		sub:        sub,
		Heightmaps: c.Heightmaps,
		BlockTicks: c.BlockTicks.Clone(),
		FluidTicks: c.FluidTicks.Clone(),
	}
	out.dirty.Store(c.dirty.Load())
	return out
}
