package carver

// YProvider samples a Y coordinate for a carver or decorator, given the
// dimension's vertical bounds. Vanilla config files describe these
// declaratively; here they're small closures built by the constructors
// below.
type YProvider interface {
	Get(rnd Source, minY, height int32) int32
}

type constantY struct{ y int32 }

func (c constantY) Get(Source, int32, int32) int32 { return c.y }

// ConstantY always returns y.
func ConstantY(y int32) YProvider { return constantY{y: y} }

type uniformY struct{ minOffset, maxOffset int32 }

func (u uniformY) Get(rnd Source, minY, height int32) int32 {
	span := u.maxOffset - u.minOffset
	if span <= 0 {
		return minY + u.minOffset
	}
	return minY + u.minOffset + rnd.NextBoundedInt32(span+1)
}

// UniformY samples uniformly within [minY+minOffset, minY+maxOffset].
func UniformY(minOffset, maxOffset int32) YProvider {
	return uniformY{minOffset: minOffset, maxOffset: maxOffset}
}

type biasedBottomY struct{ inset int32 }

func (b biasedBottomY) Get(rnd Source, minY, height int32) int32 {
	a := rnd.NextBoundedInt32(height)
	c := rnd.NextBoundedInt32(height)
	lo := a
	if c < lo {
		lo = c
	}
	return minY + b.inset + lo
}

// BiasedToBottomY samples the minimum of two uniform draws, skewing
// results toward the bottom of the range the way vanilla cave floors do.
func BiasedToBottomY(inset int32) YProvider { return biasedBottomY{inset: inset} }

// FloatProvider samples a float32 used for radius multipliers, rotation
// offsets, and similar per-feature jitter.
type FloatProvider interface {
	Get(rnd Source) float32
}

type constantFloat struct{ v float32 }

func (c constantFloat) Get(Source) float32 { return c.v }

// ConstantFloat always returns v.
func ConstantFloat(v float32) FloatProvider { return constantFloat{v: v} }

type uniformFloat struct{ min, max float32 }

func (u uniformFloat) Get(rnd Source) float32 {
	return u.min + rnd.NextFloat32()*(u.max-u.min)
}

// UniformFloat samples uniformly within [min, max).
func UniformFloat(min, max float32) FloatProvider { return uniformFloat{min: min, max: max} }
