// Package region implements two on-disk chunk formats: anvil
// (sector-addressed, individually compressed chunks) and linear (single
// zstd stream per region). Both satisfy the Serializer contract so the
// region file manager (package provider) can treat them interchangeably.
package region

import (
	"github.com/duskcore/server/server/block/cube"
	"github.com/duskcore/server/server/world/chunk"
)

// Format selects which on-disk region layout a Serializer uses. Only one
// may be active per world.
type Format int

const (
	Anvil Format = iota
	Linear
)

// ResultKind tags a single chunk decode outcome from GetChunks.
type ResultKind int

const (
	Loaded ResultKind = iota
	Missing
	Errored
)

// ChunkResult is one element of the stream GetChunks produces: a chunk
// missing from the region file is semantically "not yet generated", an
// explicit state distinct from "present but empty".
type ChunkResult struct {
	Pos   cube.ChunkPos
	Kind  ResultKind
	Chunk *chunk.Chunk
	Err   error
}

// Serializer is the contract for bit-exact encode/decode of one region
// image, independent of how that image reaches or leaves disk.
type Serializer interface {
	// GetChunks decodes only the requested chunks, forwarding a
	// ChunkResult per coordinate to out. Safe to parallelize per chunk.
	GetChunks(coords []cube.ChunkPos, out chan<- ChunkResult)
	// UpdateChunk re-encodes a single chunk's NBT and stores the bytes
	// into the region image in memory.
	UpdateChunk(pos cube.ChunkPos, c *chunk.Chunk) error
	// ShouldWrite reports whether the image has unwritten changes worth
	// flushing; may return false to let the caller skip I/O.
	ShouldWrite(watched bool) bool
	// Bytes serializes the full region image for writing to disk.
	Bytes() (data []byte, err error)
}

// Range is carried alongside a Serializer since chunk NBT decode needs the
// dimension's Y bounds to rebuild sub-chunk indices.
type Range = cube.Range
