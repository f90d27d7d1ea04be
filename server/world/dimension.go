// Package world holds the dimension table the region file manager and
// carver pipeline key their per-dimension behaviour off of: the Y range a
// provider.Manager validates region data against, and whether a carver
// should run its nether-tuned constants.
package world

import (
	"github.com/duskcore/server/server/block/cube"
)

var (
	// Overworld has a building range of [-64, 320) and runs the default
	// (non-nether) carver constants.
	Overworld overworld
	// Nether has a building range of [0, 128) and runs the nether-tuned
	// carver constants (tighter cave bound, doubled thickness).
	Nether nether
	// End has a building range of [0, 256).
	End end

	// OverworldLegacy is Overworld with the pre-1.18 building range of
	// [0, 255], for region files generated before the Y expansion.
	OverworldLegacy = overworld{legacy: true}
)

var dimensionReg = newDimensionRegistry(map[int]Dimension{
	0:  Overworld,
	1:  Nether,
	2:  End,
	10: OverworldLegacy,
})

// DimensionByID looks up a Dimension for the ID passed, returning Overworld
// for 0, Nether for 1 and End for 2. If the ID is unknown, the bool returned
// is false. In this case the Dimension returned is Overworld.
func DimensionByID(id int) (Dimension, bool) {
	return dimensionReg.Lookup(id)
}

// DimensionID looks up the ID that a Dimension was registered with. If not
// found, false is returned.
func DimensionID(dim Dimension) (int, bool) {
	return dimensionReg.LookupID(dim)
}

type dimensionRegistry struct {
	dimensions map[int]Dimension
	IDs        map[Dimension]int
}

// newDimensionRegistry returns an initialised dimensionRegistry.
func newDimensionRegistry(dim map[int]Dimension) *dimensionRegistry {
	ids := make(map[Dimension]int, len(dim))
	for k, v := range dim {
		if o, ok := v.(overworld); ok {
			if o.legacy {
				k -= 10
			}
		}
		ids[v] = k
	}
	return &dimensionRegistry{dimensions: dim, IDs: ids}
}

// Lookup looks up a Dimension for the ID passed, returning Overworld for 0,
// Nether for 1 and End for 2. If the ID is unknown, the bool returned is
// false. In this case the Dimension returned is Overworld.
func (reg *dimensionRegistry) Lookup(id int) (Dimension, bool) {
	dim, ok := reg.dimensions[id]
	if !ok {
		dim = Overworld
	}
	return dim, ok
}

// LookupID looks up the ID that a Dimension was registered with. If not found,
// false is returned.
func (reg *dimensionRegistry) LookupID(dim Dimension) (int, bool) {
	id, ok := reg.IDs[dim]
	return id, ok
}

type (
	// Dimension carries the per-dimension facts the storage and carving
	// layers need: the valid Y range (fed straight into provider.Config and
	// cube.Range-bounded chunk storage) and whether the carver pipeline
	// should run its nether-tuned constants.
	Dimension interface {
		// Range returns the lowest and highest valid Y coordinates of a
		// block in the Dimension.
		Range() cube.Range
		// Nether reports whether carving in this Dimension should use the
		// nether-tuned cave carver constants.
		Nether() bool
	}

	overworld struct{ legacy bool }
	nether    struct{}
	end       struct{}
)

func (w overworld) Range() cube.Range {
	if w.legacy {
		return cube.Range{0, 255}
	}
	return cube.Range{-64, 319}
}
func (overworld) Nether() bool    { return false }
func (overworld) String() string { return "Overworld" }

func (nether) Range() cube.Range { return cube.Range{0, 127} }
func (nether) Nether() bool      { return true }
func (nether) String() string    { return "Nether" }

func (end) Range() cube.Range { return cube.Range{0, 255} }
func (end) Nether() bool      { return false }
func (end) String() string   { return "End" }
