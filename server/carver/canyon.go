package carver

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// CanyonConfig holds the tunable parameters for a canyon (ravine) carve.
// Unlike the cave carver, vanilla's exact ravine RNG sequence wasn't
// available to ground this against; CanyonCarver instead reuses the cave
// carver's walk primitives (seeded tunnel, can_reach pruning, ellipsoid
// carving) with a widening/tapering radius profile, which is structurally
// how vanilla's ravine differs from its caves.
type CanyonConfig struct {
	Probability        float32
	Y                  YProvider
	WidthMultiplier    FloatProvider
	VerticalMultiplier FloatProvider
}

// DefaultCanyonConfig matches vanilla's overworld canyon carver.
func DefaultCanyonConfig() CanyonConfig {
	return CanyonConfig{
		Probability:        0.02,
		Y:                  UniformY(20, 67),
		WidthMultiplier:    ConstantFloat(3),
		VerticalMultiplier: UniformFloat(0.75, 1),
	}
}

// CanyonCarver carves a single long, tapering gash rather than a
// branching network of tunnels.
type CanyonCarver struct {
	Config CanyonConfig
}

// NewCanyonCarver returns a CanyonCarver using cfg.
func NewCanyonCarver(cfg CanyonConfig) *CanyonCarver { return &CanyonCarver{Config: cfg} }

func (cc *CanyonCarver) ShouldCarve(rnd Source) bool {
	return rnd.NextFloat32() <= cc.Config.Probability
}

func (cc *CanyonCarver) Carve(ctx *Context, rnd Source) {
	const chunkRange = 2
	endStep := int32((chunkRange*2 - 1) * 16)

	startX := ctx.startBlockX()
	startZ := ctx.startBlockZ()

	x := float64(startX + rnd.NextBoundedInt32(16))
	z := float64(startZ + rnd.NextBoundedInt32(16))
	y := float64(cc.Config.Y.Get(rnd, ctx.MinY, ctx.Height))

	horizontalAngle := rnd.NextFloat32() * float32(2*math.Pi)
	verticalAngle := (rnd.NextFloat32() - 0.5) / 8.0
	widthMultiplier := float64(cc.Config.WidthMultiplier.Get(rnd))
	thickness := (rnd.NextFloat32()*2 + rnd.NextFloat32()) * float32(widthMultiplier)
	verticalMultiplier := float64(cc.Config.VerticalMultiplier.Get(rnd))

	tunnelSeed := rnd.NextInt64()
	cc.carve(ctx, tunnelSeed, x, y, z, thickness, horizontalAngle, verticalAngle, endStep, verticalMultiplier)
}

func (cc *CanyonCarver) carve(ctx *Context, seed int64, x, y, z float64, thickness float32,
	horizontalAngle, verticalAngle float32, endStep int32, verticalMultiplier float64) {

	rnd := NewLegacy(seed)

	// A taper profile, widest at the midpoint and pinched to zero at both
	// ends, so the ravine doesn't simply stop with a flat wall.
	widths := make([]float64, endStep)
	for i := range widths {
		t := float64(i) / float64(endStep-1)
		widths[i] = math.Sin(math.Pi * t)
	}

	state := newTunnelState(x, y, z, horizontalAngle, verticalAngle)
	for step := int32(0); step < endStep; step++ {
		yCos := math.Cos(float64(state.verticalAngle))
		delta := mgl64.Vec3{
			math.Cos(float64(state.horizontalAngle)) * yCos,
			math.Sin(float64(state.verticalAngle)),
			math.Sin(float64(state.horizontalAngle)) * yCos,
		}
		state.pos = state.pos.Add(delta)

		state.verticalAngle *= 0.7
		state.verticalAngle += state.pitchDelta * 0.05
		state.horizontalAngle += state.yawDelta * 0.05
		state.pitchDelta *= 0.8
		state.yawDelta *= 0.5
		state.pitchDelta += (rnd.NextFloat32() - rnd.NextFloat32()) * rnd.NextFloat32()
		state.yawDelta += (rnd.NextFloat32() - rnd.NextFloat32()) * rnd.NextFloat32() * 2.0

		horizontalRadius := float64(thickness) * widths[step]
		verticalRadius := horizontalRadius * verticalMultiplier

		if !canReach(ctx, state.pos.X(), state.pos.Z(), step, endStep, thickness) {
			return
		}
		ctx.carveEllipsoid(state.pos.X(), state.pos.Y(), state.pos.Z(), horizontalRadius, verticalRadius, func(dx, dy, dz float64) bool {
			return dx*dx+dy*dy*2+dz*dz >= 1.0
		})
	}
}
