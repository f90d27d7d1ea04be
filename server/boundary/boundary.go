// Package boundary formalizes the three external contracts this engine is
// built against but does not itself implement: the NBT compound-tree
// codec, the block/item registry, and the seeded RNG generators. Nothing
// in this package does real work; it names the shape a caller must
// provide and wires sane in-repo defaults so the rest of the engine runs
// standalone.
package boundary

import (
	"bytes"
	"compress/gzip"
	"io"

	"github.com/sandertv/gophertunnel/minecraft/nbt"

	"github.com/duskcore/server/server/carver"
	"github.com/duskcore/server/server/world/chunk"
)

// Compound is the loosely-typed NBT compound-tree contract: named fields,
// lists, and typed numeric/byte/int/long arrays, exactly as block
// property maps and POI records carry them across this boundary.
type Compound = map[string]any

// EncodeNBT writes v as big-endian NBT to a plain byte slice.
func EncodeNBT(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := nbt.NewEncoderWithEncoding(&buf, nbt.BigEndian).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeNBT reads big-endian NBT from a plain byte slice into v.
func DecodeNBT(data []byte, v any) error {
	return nbt.UnmarshalEncoding(data, v, nbt.BigEndian)
}

// EncodeNBTGZip is EncodeNBT's gzip variant, used by formats (like POI
// region shards' cousins) that compress the whole document rather than
// handing compression to the region serializer.
func EncodeNBTGZip(v any) ([]byte, error) {
	raw, err := EncodeNBT(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(raw); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeNBTGZip is DecodeNBT's gzip variant.
func DecodeNBTGZip(data []byte, v any) error {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer r.Close()
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return DecodeNBT(raw, v)
}

// Registry is the block/item registry contract: static tables mapping a
// registry name and property compound to a numeric state ID and back,
// plus the equivalent for biomes.
type Registry interface {
	StateToName(state uint16) (string, Compound)
	NameToState(name string, props Compound) (uint16, bool)
	BiomeToName(biome uint16) string
	NameToBiome(name string) (uint16, bool)
}

// Install wires r into every package that consults the registry boundary
// (currently just package chunk's NBT codec hooks). Call once at startup
// before loading or generating any chunk.
func Install(r Registry) {
	chunk.StateToName = r.StateToName
	chunk.NameToState = r.NameToState
	chunk.BiomeToName = r.BiomeToName
	chunk.NameToBiome = r.NameToBiome
}

// RNG is the seeded-generator contract: a legacy 48-bit LCG and a
// xoroshiro128++ variant, both required to be bit-identical to vanilla's
// next_* outputs for a given seed. Carving and decoration are built
// directly against this shape; it is re-exported here so callers outside
// package carver can depend on the contract without the carving logic.
type RNG = carver.Source

// NewLegacyRNG returns the 48-bit LCG generator seeded per
// java.util.Random's scrambling rule.
func NewLegacyRNG(seed int64) RNG { return carver.NewLegacy(seed) }

// NewXoroshiroRNG returns the xoroshiro128++ generator.
func NewXoroshiroRNG(seed int64) RNG { return carver.NewXoroshiro(seed) }
