// Package cube holds the coordinate primitives shared by the chunk storage
// and carver packages: world block positions, chunk/region keys and the
// sub-chunk relative indices used to address packed palette storage.
package cube

// Pos represents the position of a block inside a sub-chunk, chunk or the
// world as a whole. It holds an x, y and z coordinate, similarly laid out to
// how dragonfly's block/cube package models positions.
type Pos [3]int

// X returns the X coordinate of the position.
func (p Pos) X() int { return p[0] }

// Y returns the Y coordinate of the position.
func (p Pos) Y() int { return p[1] }

// Z returns the Z coordinate of the position.
func (p Pos) Z() int { return p[2] }

// Add returns the sum of the position and the one passed.
func (p Pos) Add(o Pos) Pos { return Pos{p[0] + o[0], p[1] + o[1], p[2] + o[2]} }

// Range represents the minimum and maximum Y value of a dimension, the
// lowest being index 0 and the highest index 1.
type Range [2]int

// Min returns the lowest Y value of the Range.
func (r Range) Min() int { return r[0] }

// Max returns the highest Y value of the Range.
func (r Range) Max() int { return r[1] }

// Height returns the total amount of Y values that the Range spans.
func (r Range) Height() int { return r[1] - r[0] + 1 }

// SubChunkCount returns the number of 16-block-tall sub-chunks the Range
// spans. For the overworld Range{-64, 319} this is 24.
func (r Range) SubChunkCount() int { return (r.Height() + 15) >> 4 }
