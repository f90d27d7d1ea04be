package carver

import "github.com/duskcore/server/server/block/cube"

// Mask is CarvingMask: a bit per cell, indexed by
// x&15 | (z&15)<<4 | (y-minY)<<8, so a later carving pass never re-widens
// a tunnel that already reached air.
type Mask struct {
	minY   int
	height int
	bits   []int64

	additional func(x, y, z int) bool
}

// NewMask allocates an empty mask spanning r's full height.
func NewMask(r cube.Range) *Mask {
	cells := 16 * 16 * r.Height()
	return &Mask{minY: r.Min(), height: r.Height(), bits: make([]int64, (cells+63)/64)}
}

func (m *Mask) index(x, y, z int) (int, bool) {
	lx, lz := x&15, z&15
	ly := y - m.minY
	if ly < 0 || ly >= m.height {
		return 0, false
	}
	return lx | lz<<4 | ly<<8, true
}

// Set marks (x, y, z) as carved. Out-of-range positions are ignored.
func (m *Mask) Set(x, y, z int) {
	idx, ok := m.index(x, y, z)
	if !ok {
		return
	}
	m.bits[idx/64] |= 1 << uint(idx%64)
}

// Get reports whether (x, y, z) has already been carved, ORing in the
// additional predicate layer (set via SetAdditionalMask) without it ever
// mutating storage.
func (m *Mask) Get(x, y, z int) bool {
	idx, ok := m.index(x, y, z)
	if !ok {
		return m.additional != nil && m.additional(x, y, z)
	}
	if m.bits[idx/64]&(1<<uint(idx%64)) != 0 {
		return true
	}
	return m.additional != nil && m.additional(x, y, z)
}

// SetAdditionalMask installs a predicate layer that Get ORs into every
// read without it ever being persisted by Words/MaskFromWords.
func (m *Mask) SetAdditionalMask(fn func(x, y, z int) bool) { m.additional = fn }

// Column reports every y at (x, z) currently marked carved, in ascending
// order, ignoring the additional predicate layer (it has no backing
// storage to enumerate).
func (m *Mask) Column(x, z int) []int {
	var out []int
	for y := m.minY; y < m.minY+m.height; y++ {
		idx, ok := m.index(x, y, z)
		if !ok {
			continue
		}
		if m.bits[idx/64]&(1<<uint(idx%64)) != 0 {
			out = append(out, y)
		}
	}
	return out
}

// Words returns the mask's storage as a packed int64 array, suitable for
// NBT persistence alongside the chunk it belongs to.
func (m *Mask) Words() []int64 {
	out := make([]int64, len(m.bits))
	copy(out, m.bits)
	return out
}

// MaskFromWords reconstructs a Mask previously serialized with Words.
func MaskFromWords(r cube.Range, words []int64) *Mask {
	m := NewMask(r)
	n := len(words)
	if n > len(m.bits) {
		n = len(m.bits)
	}
	copy(m.bits, words[:n])
	return m
}
