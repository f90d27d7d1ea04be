package cube

// ChunkPos is the X and Z coordinate of a chunk: (x >> 4, z >> 4) of a block
// position. 32x32 chunks make up one RegionPos.
type ChunkPos [2]int32

// X returns the chunk X coordinate.
func (p ChunkPos) X() int32 { return p[0] }

// Z returns the chunk Z coordinate.
func (p ChunkPos) Z() int32 { return p[1] }

// RegionPos is the X and Z coordinate of a 32x32-chunk region.
type RegionPos [2]int32

// X returns the region X coordinate.
func (p RegionPos) X() int32 { return p[0] }

// Z returns the region Z coordinate.
func (p RegionPos) Z() int32 { return p[1] }

// WorldPos is a block position in world space, made up of a 32-bit X/Z pair
// and a Y that fits comfortably in the documented wire width (i16) while
// staying an ordinary Go int for arithmetic convenience.
type WorldPos struct {
	X, Z int32
	Y    int32
}

// ChunkPos returns the ChunkPos that owns the WorldPos.
func (p WorldPos) ChunkPos() ChunkPos {
	return ChunkPos{p.X >> 4, p.Z >> 4}
}

// ChunkPosOf returns the ChunkPos owning the block coordinates x, z.
func ChunkPosOf(x, z int32) ChunkPos {
	return ChunkPos{x >> 4, z >> 4}
}

// RegionPosOf returns the RegionPos owning the chunk coordinates cx, cz.
func RegionPosOf(cx, cz int32) RegionPos {
	return RegionPos{cx >> 5, cz >> 5}
}

// RegionPos returns the RegionPos that owns the ChunkPos.
func (p ChunkPos) RegionPos() RegionPos {
	return RegionPosOf(p[0], p[1])
}

// RegionLocal returns the chunk's position local to its region, in
// [0, 32) x [0, 32), in the row-major (cz&31)*32+(cx&31) order the anvil and
// linear formats both use to index their fixed-size header tables.
func (p ChunkPos) RegionLocal() int {
	return int(p[1]&31)*32 + int(p[0]&31)
}

// SubChunkIndex returns the sub-chunk index `sy` a Y value falls into, given
// the minimum Y of the dimension's Range. Valid results lie in [0, 24) for
// the overworld.
func SubChunkIndex(y int32, minY int32) int {
	return int((y - minY) >> 4)
}

// RelativeIndex returns the linear index of a block inside a sub-chunk's
// 4096-cell array, using the wire (y-major, then z, then x) order:
// ry_in_sub*256 + rz*16 + rx.
func RelativeIndex(rx, ry, rz int) int {
	return ry*256 + rz*16 + rx
}

// BiomeRelativeIndex returns the index of a cell inside a sub-chunk's
// 64-cell coarse 4x4x4 biome grid: by*16 + bz*4 + bx.
func BiomeRelativeIndex(bx, by, bz int) int {
	return by*16 + bz*4 + bx
}
