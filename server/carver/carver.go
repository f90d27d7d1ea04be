package carver

import "github.com/duskcore/server/server/world"

// Carver is the shared entry point every carving strategy implements:
// a probability gate and the chunk-mutating walk itself. Cave,
// NetherCave, and Canyon are modeled as variants over this one interface
// rather than a class hierarchy.
type Carver interface {
	ShouldCarve(rnd Source) bool
	Carve(ctx *Context, rnd Source)
}

// NewNetherCaveCarver returns a CaveCarver configured with the nether's
// smaller cave-count bound (10 rather than 15), doubled thickness, and 5x
// vertical scale.
func NewNetherCaveCarver(cfg Config) *CaveCarver {
	cfg.Nether = true
	return &CaveCarver{Config: cfg}
}

// DefaultNetherCaveConfig matches vanilla's nether cave carver.
func DefaultNetherCaveConfig() Config {
	return Config{
		Probability: 0.2,
		Y:           UniformY(0, 127),
		YScale:      ConstantFloat(1),
		Nether:      true,
	}
}

// NewCaveCarverForDimension returns the cave carver dim.Nether() selects:
// NewNetherCaveCarver for a nether-flavoured Dimension, NewCaveCarver
// otherwise. This is the one place the dimension table actually decides
// which carver constants a chunk gets carved with.
func NewCaveCarverForDimension(dim world.Dimension) *CaveCarver {
	if dim.Nether() {
		return NewNetherCaveCarver(DefaultNetherCaveConfig())
	}
	return NewCaveCarver(DefaultCaveConfig())
}
