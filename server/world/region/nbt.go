package region

import (
	"bytes"
	"fmt"

	"github.com/sandertv/gophertunnel/minecraft/nbt"

	"github.com/duskcore/server/server/block/cube"
	"github.com/duskcore/server/server/world/chunk"
)

// DataVersion is the target data version this engine reads and writes,
// corresponding to Minecraft 1.21.
const DataVersion int32 = 3955

const statusFull = "minecraft:full"

type paletteEntryNBT struct {
	Name       string         `nbt:"Name"`
	Properties map[string]any `nbt:"Properties,omitempty"`
}

type blockStatesNBT struct {
	Palette []paletteEntryNBT `nbt:"palette"`
	Data    []int64           `nbt:"data,omitempty"`
}

type biomesNBT struct {
	Palette []string `nbt:"palette"`
	Data    []int64  `nbt:"data,omitempty"`
}

type sectionNBT struct {
	Y           int8           `nbt:"Y"`
	BlockStates blockStatesNBT `nbt:"block_states"`
	Biomes      biomesNBT      `nbt:"biomes"`
}

type heightmapsNBT struct {
	WorldSurface   []int64 `nbt:"WORLD_SURFACE"`
	MotionBlocking []int64 `nbt:"MOTION_BLOCKING"`
}

type chunkNBT struct {
	DataVersion int32         `nbt:"DataVersion"`
	XPos        int32         `nbt:"xPos"`
	ZPos        int32         `nbt:"zPos"`
	Status      string        `nbt:"Status"`
	Heightmaps  heightmapsNBT `nbt:"Heightmaps"`
	Sections    []sectionNBT  `nbt:"sections"`
}

type statusOnlyNBT struct {
	Status string `nbt:"Status"`
}

// EncodeChunkNBT serializes c into its big-endian Java chunk NBT schema.
func EncodeChunkNBT(c *chunk.Chunk) ([]byte, error) {
	doc := chunkNBT{
		DataVersion: DataVersion,
		XPos:        c.Position.X(),
		ZPos:        c.Position.Z(),
		Status:      statusFull,
		Heightmaps: heightmapsNBT{
			WorldSurface:   sliceFromWords(c.Heightmaps.WorldSurface.Words()),
			MotionBlocking: sliceFromWords(c.Heightmaps.MotionBlocking.Words()),
		},
	}

	minSY := c.Range.Min() >> 4
	for i, sub := range c.SubChunks() {
		sec := sectionNBT{Y: int8(minSY + i)}

		blockPalette := chunk.PackCells(sub.BlockCellValues())
		sec.BlockStates.Palette = make([]paletteEntryNBT, len(blockPalette.Palette))
		for j, state := range blockPalette.Palette {
			name, props := chunk.StateToName(state)
			sec.BlockStates.Palette[j] = paletteEntryNBT{Name: name, Properties: props}
		}
		sec.BlockStates.Data = blockPalette.Words

		biomePalette := chunk.PackCells(sub.BiomeCellValues())
		sec.Biomes.Palette = make([]string, len(biomePalette.Palette))
		for j, b := range biomePalette.Palette {
			sec.Biomes.Palette[j] = chunk.BiomeToName(b)
		}
		sec.Biomes.Data = biomePalette.Words

		doc.Sections = append(doc.Sections, sec)
	}

	var buf bytes.Buffer
	enc := nbt.NewEncoderWithEncoding(&buf, nbt.BigEndian)
	if err := enc.Encode(doc); err != nil {
		return nil, newError(KindCompression, "encode chunk nbt", err)
	}
	return buf.Bytes(), nil
}

// DecodeChunkNBT parses a chunk's big-endian NBT payload, verifying it
// reports minecraft:full status and that its recorded position matches
// expected. r is the dimension's Range, needed to rebuild sub-chunk
// indices.
func DecodeChunkNBT(data []byte, expected cube.ChunkPos, r cube.Range) (*chunk.Chunk, error) {
	var status statusOnlyNBT
	if err := nbt.UnmarshalEncoding(data, &status, nbt.BigEndian); err != nil {
		return nil, newError(KindParsing, "read chunk status", err)
	}
	if status.Status != statusFull {
		return nil, newError(KindChunkNotGenerated, fmt.Sprintf("status %q", status.Status), nil)
	}

	var doc chunkNBT
	if err := nbt.UnmarshalEncoding(data, &doc, nbt.BigEndian); err != nil {
		return nil, newError(KindParsing, "decode chunk nbt", err)
	}
	if doc.XPos != expected.X() || doc.ZPos != expected.Z() {
		return nil, newError(KindParsing, fmt.Sprintf("expected chunk (%d,%d) but got (%d,%d)",
			expected.X(), expected.Z(), doc.XPos, doc.ZPos), nil)
	}

	c := chunk.New(expected, r)
	c.Heightmaps.WorldSurface = *chunk.HeightmapFromWords(doc.Heightmaps.WorldSurface)
	c.Heightmaps.MotionBlocking = *chunk.HeightmapFromWords(doc.Heightmaps.MotionBlocking)

	minSY := r.Min() >> 4
	for _, sec := range doc.Sections {
		idx := int(sec.Y) - minSY
		sub, err := c.SubChunk(idx)
		if err != nil {
			// Sections outside the dimension's range (padding some tools
			// emit) are silently ignored rather than treated as corrupt.
			continue
		}

		if len(sec.BlockStates.Palette) > 0 {
			states := make([]uint16, len(sec.BlockStates.Palette))
			for j, e := range sec.BlockStates.Palette {
				state, ok := chunk.NameToState(e.Name, e.Properties)
				if !ok {
					return nil, newError(KindParsing, fmt.Sprintf("unknown block state %q", e.Name), nil)
				}
				states[j] = state
			}
			p := chunk.DecodePalettedStorage(states, sec.BlockStates.Data)
			if err := sub.LoadBlockPalette(p); err != nil {
				return nil, newError(KindParsing, "unpack block palette", err)
			}
		}

		if len(sec.Biomes.Palette) > 0 {
			biomes := make([]uint16, len(sec.Biomes.Palette))
			for j, name := range sec.Biomes.Palette {
				b, ok := chunk.NameToBiome(name)
				if !ok {
					return nil, newError(KindParsing, fmt.Sprintf("unknown biome %q", name), nil)
				}
				biomes[j] = b
			}
			p := chunk.DecodePalettedStorage(biomes, sec.Biomes.Data)
			if err := sub.LoadBiomePalette(p); err != nil {
				return nil, newError(KindParsing, "unpack biome palette", err)
			}
		}
	}
	return c, nil
}

func sliceFromWords(words [37]int64) []int64 {
	out := make([]int64, len(words))
	copy(out, words[:])
	return out
}
