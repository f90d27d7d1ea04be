package carver

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Config holds the tunable parameters vanilla's cave carver JSON exposes.
// Y is required; every other provider field left nil falls back to a
// constant (YScale 1, radius multipliers 1, floor level -1, rotations 0).
type Config struct {
	Probability                float32
	Y                          YProvider
	YScale                     FloatProvider
	HorizontalRadiusMultiplier FloatProvider
	VerticalRadiusMultiplier   FloatProvider
	FloorLevel                 FloatProvider
	HorizontalRotation         FloatProvider
	VerticalRotation           FloatProvider
	Nether                     bool // selects the wider, hotter nether-cave constants
}

// DefaultCaveConfig matches vanilla's overworld cave carver.
func DefaultCaveConfig() Config {
	return Config{
		Probability: 0.15,
		Y:           BiasedToBottomY(0),
		YScale:      ConstantFloat(1),
	}
}

// CaveCarver tunnels winding, branching caves through a chunk, consuming
// its Source in the exact order vanilla does so the same seed always
// carves the same shape.
type CaveCarver struct {
	Config Config
}

// NewCaveCarver returns a CaveCarver using cfg.
func NewCaveCarver(cfg Config) *CaveCarver { return &CaveCarver{Config: cfg} }

// ShouldCarve is a single probability roll; skipping it entirely when it
// fails keeps downstream RNG draws aligned with vanilla's.
func (cc *CaveCarver) ShouldCarve(rnd Source) bool {
	return rnd.NextFloat32() <= cc.Config.Probability
}

func (cc *CaveCarver) caveBound() int32 {
	if cc.Config.Nether {
		return 10
	}
	return 15
}

func (cc *CaveCarver) yScale() float64 {
	if cc.Config.Nether {
		return 5.0
	}
	return 1.0
}

func (cc *CaveCarver) thickness(rnd Source) float32 {
	t := rnd.NextFloat32()*2.0 + rnd.NextFloat32()
	if cc.Config.Nether {
		return t * 2.0
	}
	if rnd.NextBoundedInt32(10) == 0 {
		t *= rnd.NextFloat32()*rnd.NextFloat32()*3.0 + 1.0
	}
	return t
}

// Carve carves zero or more caves into ctx, drawing everything from rnd in
// vanilla's exact order: a three-deep bounded draw for the cave count,
// then per cave a position, optional room, and one or more branching
// tunnels.
func (cc *CaveCarver) Carve(ctx *Context, rnd Source) {
	const chunkRange = 4
	maxTunnelLength := int32((chunkRange*2 - 1) * 16)

	caveCount := rnd.NextBoundedInt32(cc.caveBound())
	caveCount = rnd.NextBoundedInt32(caveCount + 1)
	caveCount = rnd.NextBoundedInt32(caveCount + 1)
	if caveCount <= 0 {
		return
	}

	startX := ctx.startBlockX()
	startZ := ctx.startBlockZ()

	for i := int32(0); i < caveCount; i++ {
		x := float64(startX + rnd.NextBoundedInt32(16))
		z := float64(startZ + rnd.NextBoundedInt32(16))
		y := float64(cc.Config.Y.Get(rnd, ctx.MinY, ctx.Height))

		horizontalMultiplier := floatOr(cc.Config.HorizontalRadiusMultiplier, rnd, 1.0)
		verticalMultiplier := floatOr(cc.Config.VerticalRadiusMultiplier, rnd, 1.0)
		floorLevel := floatOr(cc.Config.FloorLevel, rnd, -1.0)
		horizontalRotation := float32(0)
		if cc.Config.HorizontalRotation != nil {
			horizontalRotation = cc.Config.HorizontalRotation.Get(rnd)
		}
		verticalRotation := float32(0)
		if cc.Config.VerticalRotation != nil {
			verticalRotation = cc.Config.VerticalRotation.Get(rnd)
		}

		tunnelCount := int32(1)
		if rnd.NextBoundedInt32(4) == 0 {
			yScale := 1.0
			if cc.Config.YScale != nil {
				yScale = float64(cc.Config.YScale.Get(rnd))
			}
			roomRadius := 1.0 + rnd.NextFloat32()*6.0
			cc.createRoom(ctx, x, y, z, roomRadius, yScale, floorLevel)
			tunnelCount += rnd.NextBoundedInt32(4)
		}

		for j := int32(0); j < tunnelCount; j++ {
			horizontalAngle := rnd.NextFloat32()*float32(2*math.Pi) + horizontalRotation
			verticalAngle := (rnd.NextFloat32()-0.5)/4.0 + verticalRotation
			thickness := cc.thickness(rnd)
			tunnelLength := maxTunnelLength - rnd.NextBoundedInt32(max32(maxTunnelLength/4, 1))

			tunnelSeed := rnd.NextInt64()
			cc.createTunnel(ctx, tunnelSeed, x, y, z, horizontalMultiplier, verticalMultiplier,
				thickness, horizontalAngle, verticalAngle, 0, tunnelLength, cc.yScale(), floorLevel)
		}
	}
}

func floatOr(p FloatProvider, rnd Source, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return float64(p.Get(rnd))
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func (cc *CaveCarver) createRoom(ctx *Context, cx, cy, cz float64, radius, yScale, floorLevel float64) {
	horizontalRadius := 1.5 + math.Sin(math.Pi/2)*radius
	verticalRadius := horizontalRadius * yScale
	cc.carveEllipsoid(ctx, cx+1.0, cy, cz, horizontalRadius, verticalRadius, floorLevel)
}

func (cc *CaveCarver) carveEllipsoid(ctx *Context, cx, cy, cz, hRadius, vRadius, floorLevel float64) {
	ctx.carveEllipsoid(cx, cy, cz, hRadius, vRadius, func(dx, dy, dz float64) bool {
		if dy <= floorLevel {
			return true
		}
		return dx*dx+dy*dy+dz*dz >= 1.0
	})
}

// tunnelState is the walking cursor for a single tunnel branch: a 3D
// position plus the yaw/pitch it is currently heading, and the slow
// second-order drift (yawDelta/pitchDelta) that makes the path meander.
type tunnelState struct {
	pos                            mgl64.Vec3
	horizontalAngle, verticalAngle float32
	yawDelta, pitchDelta           float32
}

func newTunnelState(x, y, z float64, horizontalAngle, verticalAngle float32) *tunnelState {
	return &tunnelState{pos: mgl64.Vec3{x, y, z}, horizontalAngle: horizontalAngle, verticalAngle: verticalAngle}
}

func (s *tunnelState) advance(step, endStep int32, thickness float32, yScale float64, steep bool, rnd Source) (radius, verticalRadius float64) {
	radius = 1.5 + math.Sin(math.Pi*float64(step)/float64(endStep))*float64(thickness)
	verticalRadius = radius * yScale

	yCos := math.Cos(float64(s.verticalAngle))
	delta := mgl64.Vec3{
		math.Cos(float64(s.horizontalAngle)) * yCos,
		math.Sin(float64(s.verticalAngle)),
		math.Sin(float64(s.horizontalAngle)) * yCos,
	}
	s.pos = s.pos.Add(delta)

	if steep {
		s.verticalAngle *= 0.92
	} else {
		s.verticalAngle *= 0.7
	}
	s.verticalAngle += s.pitchDelta * 0.1
	s.horizontalAngle += s.yawDelta * 0.1
	s.pitchDelta *= 0.9
	s.yawDelta *= 0.75
	s.pitchDelta += (rnd.NextFloat32() - rnd.NextFloat32()) * rnd.NextFloat32() * 2.0
	s.yawDelta += (rnd.NextFloat32() - rnd.NextFloat32()) * rnd.NextFloat32() * 4.0
	return radius, verticalRadius
}

func (cc *CaveCarver) createTunnel(ctx *Context, seed int64, x, y, z float64, horizontalMultiplier, verticalMultiplier float64,
	thickness float32, horizontalAngle, verticalAngle float32, startStep, endStep int32, yScale float64, floorLevel float64) {

	rnd := NewLegacy(seed)
	splitStep := rnd.NextBoundedInt32(endStep/2) + endStep/4
	steep := rnd.NextBoundedInt32(6) == 0
	state := newTunnelState(x, y, z, horizontalAngle, verticalAngle)

	for step := startStep; step < endStep; step++ {
		radius, verticalRadius := state.advance(step, endStep, thickness, yScale, steep, rnd)

		if step == splitStep && thickness > 1.0 {
			cc.createTunnel(ctx, rnd.NextInt64(), state.pos.X(), state.pos.Y(), state.pos.Z(),
				horizontalMultiplier, verticalMultiplier, rnd.NextFloat32()*0.5+0.5,
				state.horizontalAngle-float32(math.Pi/2), state.verticalAngle/3.0,
				step, endStep, 1.0, floorLevel)
			cc.createTunnel(ctx, rnd.NextInt64(), state.pos.X(), state.pos.Y(), state.pos.Z(),
				horizontalMultiplier, verticalMultiplier, rnd.NextFloat32()*0.5+0.5,
				state.horizontalAngle+float32(math.Pi/2), state.verticalAngle/3.0,
				step, endStep, 1.0, floorLevel)
			return
		}

		if rnd.NextBoundedInt32(4) != 0 {
			if !canReach(ctx, state.pos.X(), state.pos.Z(), step, endStep, thickness) {
				return
			}
			cc.carveEllipsoid(ctx, state.pos.X(), state.pos.Y(), state.pos.Z(),
				radius*horizontalMultiplier, verticalRadius*verticalMultiplier, floorLevel)
		}
	}
}

// canReach prunes tunnels whose remaining walk can no longer possibly
// reach back into the chunk being carved, avoiding wasted work on
// branches curving away for good.
func canReach(ctx *Context, x, z float64, startStep, endStep int32, thickness float32) bool {
	centerX := float64(ctx.startBlockX()) + 8.0
	centerZ := float64(ctx.startBlockZ()) + 8.0
	dx := x - centerX
	dz := z - centerZ
	remaining := float64(endStep - startStep)
	radius := float64(thickness) + 2.0 + 16.0
	return dx*dx+dz*dz-remaining*remaining <= radius*radius
}
