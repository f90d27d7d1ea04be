package carver

import (
	"math"

	"github.com/duskcore/server/server/block/cube"
	"github.com/duskcore/server/server/world/chunk"
)

// CaveAirState is the block state written into carved-through cells. It
// defaults to whatever the registry boundary resolves "minecraft:cave_air"
// to and may be overridden once a real registry is wired in.
var CaveAirState uint16

func init() {
	state, _ := chunk.NameToState("minecraft:cave_air", nil)
	CaveAirState = state
}

// Replaceable reports whether a block state may be carved through. Carving
// never touches air, liquids, or anything already replaced; the default
// only protects against re-carving air, deferring material classification
// to a real registry the way the rest of this engine's block boundary
// does.
type Replaceable func(state uint16) bool

// DefaultReplaceable treats every state except CaveAirState as carvable.
func DefaultReplaceable(state uint16) bool { return state != CaveAirState }

// Context is the per-chunk carving environment: the chunk being carved,
// its world position, vertical bounds, the carved-mask guarding against
// double-widening, and the block-replacement policy.
type Context struct {
	Chunk       *chunk.Chunk
	ChunkPos    cube.ChunkPos
	MinY        int32
	Height      int32
	Mask        *Mask
	Replaceable Replaceable
	CarveState  uint16
}

// NewContext builds a carving Context for c, allocating a fresh Mask.
func NewContext(c *chunk.Chunk, replaceable Replaceable) *Context {
	if replaceable == nil {
		replaceable = DefaultReplaceable
	}
	return &Context{
		Chunk:       c,
		ChunkPos:    c.Position,
		MinY:        int32(c.Range.Min()),
		Height:      int32(c.Range.Height()),
		Mask:        NewMask(c.Range),
		Replaceable: replaceable,
		CarveState:  CaveAirState,
	}
}

func (ctx *Context) startBlockX() int32 { return ctx.ChunkPos.X() * 16 }
func (ctx *Context) startBlockZ() int32 { return ctx.ChunkPos.Z() * 16 }

// skipFunc decides, for a cell offset from an ellipsoid's center
// normalized into [-1, 1]^3, whether that cell should be left untouched.
type skipFunc func(dx, dy, dz float64) bool

// carveEllipsoid widens every chunk-local cell inside the ellipsoid
// centered at (cx, cy, cz) with the given radii, skipping cells skip
// reports true for, cells already in the mask, and cells the replaceable
// policy rejects.
func (ctx *Context) carveEllipsoid(cx, cy, cz, horizontalRadius, verticalRadius float64, skip skipFunc) {
	if horizontalRadius <= 0 || verticalRadius <= 0 {
		return
	}

	minX := int(math.Floor(cx - horizontalRadius - 1))
	maxX := int(math.Ceil(cx + horizontalRadius + 1))
	minY := int(math.Floor(cy - verticalRadius - 1))
	maxY := int(math.Ceil(cy + verticalRadius + 1))
	minZ := int(math.Floor(cz - horizontalRadius - 1))
	maxZ := int(math.Ceil(cz + horizontalRadius + 1))

	startX := int(ctx.startBlockX())
	startZ := int(ctx.startBlockZ())

	for wx := minX; wx <= maxX; wx++ {
		lx := wx - startX
		if lx < 0 || lx >= 16 {
			continue
		}
		dx := (float64(wx) + 0.5 - cx) / horizontalRadius
		for wz := minZ; wz <= maxZ; wz++ {
			lz := wz - startZ
			if lz < 0 || lz >= 16 {
				continue
			}
			dz := (float64(wz) + 0.5 - cz) / horizontalRadius
			for wy := minY; wy <= maxY; wy++ {
				if int32(wy) < ctx.MinY || int32(wy) >= ctx.MinY+ctx.Height {
					continue
				}
				dy := (float64(wy) + 0.5 - cy) / verticalRadius
				if skip(dx, dy, dz) {
					continue
				}
				if ctx.Mask.Get(lx, wy, lz) {
					continue
				}
				cur, err := ctx.Chunk.GetBlock(lx, int32(wy), lz)
				if err != nil || !ctx.Replaceable(cur) {
					continue
				}
				_ = ctx.Chunk.SetBlock(lx, int32(wy), lz, ctx.CarveState)
				ctx.Mask.Set(lx, wy, lz)
			}
		}
	}
}
