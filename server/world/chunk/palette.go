package chunk

import (
	"fmt"
	"math/bits"

	"github.com/brentp/intintmap"
	"github.com/thomaso-mirodin/intmath/i32"
)

// PalettedStorage packs a 4096-cell (or 64-cell biome) array into the
// minimum bits-per-index required for its palette, mirroring the on-disk
// anvil layout: indices occupy contiguous bits of a single 64-bit word,
// never straddle a word boundary, and the first index sits at the
// least-significant bits of the first word.
type PalettedStorage struct {
	// Palette holds the distinct values in first-seen order. Palette[i] is
	// the value that packs to index i.
	Palette []uint16
	// BitsPerIndex is ceil_log2(len(Palette)), floored at 4, as required by
	// the anvil/linear on-disk formats. A single-entry palette (homogeneous
	// sub-chunk) carries no packed words at all.
	BitsPerIndex int
	// Words holds the packed index data. Empty when len(Palette) <= 1.
	Words []int64
}

// bitsForPaletteLen returns max(4, ceil_log2(n)) for a palette of n
// distinct entries, or 0 when n <= 1 (no packed words are needed).
func bitsForPaletteLen(n int) int {
	if n <= 1 {
		return 0
	}
	return int(i32.Max(4, ceilLog2(int32(n))))
}

// ceilLog2 returns the smallest k such that 1<<k >= n, for n >= 1.
func ceilLog2(n int32) int32 {
	if n <= 1 {
		return 0
	}
	return int32(bits.Len32(uint32(n - 1)))
}

// PackCells builds a PalettedStorage from a fully materialised arity-length
// array of cell values, in first-seen palette order.
func PackCells(cells []uint16) *PalettedStorage {
	// first-seen-order dedup map: value -> palette index.
	seen := intintmap.New(len(cells), 0.999)
	palette := make([]uint16, 0, 16)
	indices := make([]int, len(cells))
	for i, v := range cells {
		if idx, ok := seen.Get(int64(v)); ok {
			indices[i] = int(idx)
			continue
		}
		idx := len(palette)
		palette = append(palette, v)
		seen.Put(int64(v), int64(idx))
		indices[i] = idx
	}

	p := &PalettedStorage{Palette: palette}
	if len(palette) <= 1 {
		return p
	}
	p.BitsPerIndex = bitsForPaletteLen(len(palette))
	p.Words = packIndices(indices, p.BitsPerIndex)
	return p
}

// packIndices packs indices (each < 1<<bitsPerIndex) into 64-bit words,
// never letting a value straddle a word boundary: if the next value would
// not fit in the remaining bits of the current word, the word is flushed
// and the value starts a fresh word at bit 0.
func packIndices(indices []int, bitsPerIndex int) []int64 {
	if bitsPerIndex == 0 {
		return nil
	}
	perWord := 64 / bitsPerIndex
	wordCount := (len(indices) + perWord - 1) / perWord
	words := make([]int64, 0, wordCount)

	var cur int64
	var used int
	for _, idx := range indices {
		if used+bitsPerIndex > 64 {
			words = append(words, cur)
			cur, used = 0, 0
		}
		cur |= int64(idx) << used
		used += bitsPerIndex
		if used >= 64 {
			words = append(words, cur)
			cur, used = 0, 0
		}
	}
	if used > 0 {
		words = append(words, cur)
	}
	return words
}

// UnpackCells inverts PackCells, reconstructing the arity-length array of
// values. count is the number of logical cells to reconstruct (4096 for
// blocks, 64 for biomes); trailing bits beyond that cutoff in the last word
// are ignored even if further bits remain, since some servers over-pad.
func (p *PalettedStorage) UnpackCells(count int) ([]uint16, error) {
	out := make([]uint16, count)
	if len(p.Palette) == 0 {
		return out, nil
	}
	if len(p.Palette) == 1 {
		v := p.Palette[0]
		for i := range out {
			out[i] = v
		}
		return out, nil
	}

	bitsPerIndex := p.BitsPerIndex
	if bitsPerIndex == 0 {
		bitsPerIndex = bitsForPaletteLen(len(p.Palette))
	}
	perWord := 64 / bitsPerIndex
	mask := int64(1)<<bitsPerIndex - 1

	written := 0
	for _, word := range p.Words {
		for i := 0; i < perWord; i++ {
			if written >= count {
				return out, nil
			}
			idx := int((word >> (i * bitsPerIndex)) & mask)
			if idx >= len(p.Palette) {
				return nil, fmt.Errorf("chunk: palette index %d out of range (palette len %d)", idx, len(p.Palette))
			}
			out[written] = p.Palette[idx]
			written++
		}
	}
	if written < count {
		return nil, fmt.Errorf("chunk: paletted storage exhausted after %d of %d cells", written, count)
	}
	return out, nil
}

// DecodePalettedStorage accepts a palette with no accompanying Words, which
// is the accepted on-disk shorthand for a homogeneous sub-chunk (spec
// section 4.1 edge case).
func DecodePalettedStorage(palette []uint16, words []int64) *PalettedStorage {
	p := &PalettedStorage{Palette: palette, Words: words}
	if len(palette) > 1 {
		p.BitsPerIndex = bitsForPaletteLen(len(palette))
	}
	return p
}
