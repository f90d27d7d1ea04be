package region

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/duskcore/server/server/block/cube"
	"github.com/duskcore/server/server/world/chunk"
)

const (
	sectorSize      = 4096
	headerSectors   = 2 // location table + timestamp table
	chunksPerAxis   = 32
	chunksPerRegion = chunksPerAxis * chunksPerAxis
)

type anvilSlot struct {
	present   bool
	scheme    CompressionScheme
	payload   []byte // compressed bytes, as they would appear on disk
	timestamp uint32
}

// AnvilImage is an in-memory, fully parsed anvil region: the 1024-slot
// location/timestamp tables plus each chunk's compressed payload, kept
// compressed until a caller actually asks to decode it.
type AnvilImage struct {
	mu          sync.RWMutex
	slots       [chunksPerRegion]anvilSlot
	r           cube.Range
	writeScheme CompressionScheme
	dirty       bool
	decompCap   int
}

// NewAnvilImage returns an empty anvil region image (the "file absent"
// case maps directly onto this).
func NewAnvilImage(r cube.Range) *AnvilImage {
	return &AnvilImage{r: r, writeScheme: SchemeZlib}
}

// SetDecompressionCap bounds the size of a single decompressed chunk
// payload, guarding against a corrupt or hostile length field requesting
// an unbounded allocation. Zero means use the package default.
func (a *AnvilImage) SetDecompressionCap(n int) { a.decompCap = n }

// ReadAnvilImage parses a full anvil region file image.
func ReadAnvilImage(data []byte, r cube.Range) (*AnvilImage, error) {
	if len(data) < headerSectors*sectorSize {
		return nil, newError(KindInvalidHeader, "file shorter than the two header sectors", nil)
	}
	img := NewAnvilImage(r)
	for i := 0; i < chunksPerRegion; i++ {
		off := i * 4
		locBytes := data[off : off+4]
		sectorOffset := uint32(locBytes[0])<<16 | uint32(locBytes[1])<<8 | uint32(locBytes[2])
		sectorCount := locBytes[3]
		if sectorOffset == 0 && sectorCount == 0 {
			continue // not generated
		}

		tsOff := sectorSize + i*4
		timestamp := binary.BigEndian.Uint32(data[tsOff : tsOff+4])

		byteOff := int(sectorOffset) * sectorSize
		byteLen := int(sectorCount) * sectorSize
		if byteOff < headerSectors*sectorSize || byteOff+byteLen > len(data) {
			return nil, newError(KindInvalidHeader, fmt.Sprintf("chunk %d has an out-of-range sector offset", i), nil)
		}
		if byteOff+4 > len(data) {
			return nil, newError(KindInvalidHeader, fmt.Sprintf("chunk %d length header truncated", i), nil)
		}

		length := binary.BigEndian.Uint32(data[byteOff : byteOff+4])
		if length < 1 || byteOff+4+int(length) > len(data) {
			return nil, newError(KindInvalidHeader, fmt.Sprintf("chunk %d payload length out of range", i), nil)
		}
		scheme := CompressionScheme(data[byteOff+4])
		payload := make([]byte, length-1)
		copy(payload, data[byteOff+5:byteOff+4+int(length)])

		img.slots[i] = anvilSlot{present: true, scheme: scheme, payload: payload, timestamp: timestamp}
	}
	return img, nil
}

func (a *AnvilImage) GetChunks(coords []cube.ChunkPos, out chan<- ChunkResult) {
	var wg sync.WaitGroup
	for _, pos := range coords {
		pos := pos
		idx := pos.RegionLocal()

		a.mu.RLock()
		slot := a.slots[idx]
		a.mu.RUnlock()

		if !slot.present {
			out <- ChunkResult{Pos: pos, Kind: Missing}
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			raw, err := decompressChunk(slot.scheme, slot.payload, a.decompCap)
			if err != nil {
				out <- ChunkResult{Pos: pos, Kind: Errored, Err: err}
				return
			}
			c, err := DecodeChunkNBT(raw, pos, a.r)
			if err != nil {
				if rerr, ok := err.(*Error); ok && rerr.Kind == KindChunkNotGenerated {
					out <- ChunkResult{Pos: pos, Kind: Missing}
					return
				}
				out <- ChunkResult{Pos: pos, Kind: Errored, Err: err}
				return
			}
			out <- ChunkResult{Pos: pos, Kind: Loaded, Chunk: c}
		}()
	}
	wg.Wait()
}

func (a *AnvilImage) UpdateChunk(pos cube.ChunkPos, c *chunk.Chunk) error {
	raw, err := EncodeChunkNBT(c)
	if err != nil {
		return err
	}
	compressed, err := compressChunk(a.writeScheme, raw)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	idx := pos.RegionLocal()
	a.slots[idx] = anvilSlot{
		present:   true,
		scheme:    a.writeScheme,
		payload:   compressed,
		timestamp: uint32(time.Now().Unix()),
	}
	a.dirty = true
	return nil
}

func (a *AnvilImage) ShouldWrite(_ bool) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dirty
}

// MarkWritten clears the image's pending-write flag; called by the region
// file manager immediately after a successful atomic write to disk.
func (a *AnvilImage) MarkWritten() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dirty = false
}

func (a *AnvilImage) Bytes() ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	locations := make([]byte, sectorSize)
	timestamps := make([]byte, sectorSize)
	var body []byte

	sector := headerSectors
	for i := 0; i < chunksPerRegion; i++ {
		slot := a.slots[i]
		if !slot.present {
			continue
		}
		payloadLen := 1 + len(slot.payload) // +1 for the scheme byte
		chunkBytes := make([]byte, 4+payloadLen)
		binary.BigEndian.PutUint32(chunkBytes[0:4], uint32(payloadLen))
		chunkBytes[4] = byte(slot.scheme)
		copy(chunkBytes[5:], slot.payload)

		sectorsNeeded := (len(chunkBytes) + sectorSize - 1) / sectorSize
		if sectorsNeeded == 0 {
			sectorsNeeded = 1
		}
		if sectorsNeeded > 0xFF {
			return nil, newError(KindCompression, fmt.Sprintf("chunk %d payload too large for anvil sector count", i), nil)
		}
		padded := make([]byte, sectorsNeeded*sectorSize)
		copy(padded, chunkBytes)
		body = append(body, padded...)

		off := i * 4
		locations[off] = byte(sector >> 16)
		locations[off+1] = byte(sector >> 8)
		locations[off+2] = byte(sector)
		locations[off+3] = byte(sectorsNeeded)

		tsOff := i * 4
		binary.BigEndian.PutUint32(timestamps[tsOff:tsOff+4], slot.timestamp)

		sector += sectorsNeeded
	}

	out := make([]byte, 0, len(locations)+len(timestamps)+len(body))
	out = append(out, locations...)
	out = append(out, timestamps...)
	out = append(out, body...)
	return out, nil
}
