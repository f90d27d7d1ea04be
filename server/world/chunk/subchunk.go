package chunk

// BlockCells is the number of block cells in a 16x16x16 sub-chunk.
const BlockCells = 4096

// BiomeCells is the number of coarse 4x4x4 biome cells in a sub-chunk.
const BiomeCells = 64

// SubChunk is a single 16-block-tall horizontal slice of a Chunk, holding
// both its block states and its biomes, each independently homogeneous or
// materialised depending on how many distinct values it holds.
type SubChunk struct {
	blocks *cellStorage
	biomes *cellStorage
}

// NewSubChunk returns an empty SubChunk, homogeneously filled with air (0)
// blocks and the plains biome (0).
func NewSubChunk() *SubChunk {
	return &SubChunk{
		blocks: newCellStorage(BlockCells, 0),
		biomes: newCellStorage(BiomeCells, 0),
	}
}

// Block returns the block state at the relative index i (see
// cube.RelativeIndex).
func (s *SubChunk) Block(i int) uint16 { return s.blocks.Get(i) }

// SetBlock sets the block state at the relative index i.
func (s *SubChunk) SetBlock(i int, state uint16) { s.blocks.Set(i, state) }

// Biome returns the biome at the coarse relative index i (see
// cube.BiomeRelativeIndex).
func (s *SubChunk) Biome(i int) uint16 { return s.biomes.Get(i) }

// SetBiome sets the biome at the coarse relative index i.
func (s *SubChunk) SetBiome(i int, biome uint16) { s.biomes.Set(i, biome) }

// Empty reports whether the sub-chunk is homogeneously air, the common case
// that must stay cheap to construct and check.
func (s *SubChunk) Empty() bool {
	v, homogeneous := s.blocks.Homogeneous()
	return homogeneous && v == 0
}

// BlockCellValues returns all 4096 block cell values in wire order.
func (s *SubChunk) BlockCellValues() []uint16 { return s.blocks.Cells() }

// BiomeCellValues returns all 64 biome cell values in wire order.
func (s *SubChunk) BiomeCellValues() []uint16 { return s.biomes.Cells() }

// LoadBlockPalette replaces the sub-chunk's block storage from a decoded
// PalettedStorage.
func (s *SubChunk) LoadBlockPalette(p *PalettedStorage) error {
	cells, err := p.UnpackCells(BlockCells)
	if err != nil {
		return err
	}
	s.blocks = cellsToStorage(cells, BlockCells)
	return nil
}

// LoadBiomePalette replaces the sub-chunk's biome storage from a decoded
// PalettedStorage.
func (s *SubChunk) LoadBiomePalette(p *PalettedStorage) error {
	cells, err := p.UnpackCells(BiomeCells)
	if err != nil {
		return err
	}
	s.biomes = cellsToStorage(cells, BiomeCells)
	return nil
}

// cellsToStorage rebuilds a cellStorage from a fully materialised cell
// array, collapsing back to homogeneous storage when every cell matches.
func cellsToStorage(cells []uint16, arity int) *cellStorage {
	st := newCellStorage(arity, cells[0])
	homogeneous := true
	for _, c := range cells {
		if c != cells[0] {
			homogeneous = false
			break
		}
	}
	if homogeneous {
		return st
	}
	st.data = make([]uint16, len(cells))
	copy(st.data, cells)
	return st
}

// Clone returns a deep copy of the sub-chunk.
func (s *SubChunk) Clone() *SubChunk {
	return &SubChunk{blocks: s.blocks.clone(), biomes: s.biomes.clone()}
}
