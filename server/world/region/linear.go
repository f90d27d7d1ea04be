package region

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/duskcore/server/server/block/cube"
	"github.com/duskcore/server/server/world/chunk"
)

// linearMagic frames a linear region file at both its start and end.
const linearMagic uint64 = 0xc3ff13183cca9d9a

const linearHeaderLen = 1 /*version*/ + 8 /*timestamp*/ + 1 /*zstd level*/ + 2 /*nonempty*/ + 4 /*compressed bytes*/ + 8 /*hash*/

const linearChunkHeaderLen = 4 + 4 // size:u32, mtime:u32

type linearSlot struct {
	present bool
	mtime   uint32
	raw     []byte // uncompressed chunk NBT bytes
}

// LinearImage is an in-memory linear region: a single zstd-compressed
// stream holding every chunk's raw NBT bytes back to back, prefixed by a
// fixed table of (size, mtime) headers.
type LinearImage struct {
	mu        sync.RWMutex
	r         cube.Range
	slots     [chunksPerRegion]linearSlot
	level     int
	dirty     bool
	decompCap int
}

// NewLinearImage returns an empty linear region image at the default zstd
// compression level.
func NewLinearImage(r cube.Range) *LinearImage {
	return &LinearImage{r: r, level: 3}
}

// SetDecompressionCap records a bound on the size of the decompressed
// region payload. Zero means use the package default. A linear image is
// decompressed only inside ReadLinearImage, which always applies the
// package default, so a cap set afterwards bounds no decompression.
func (l *LinearImage) SetDecompressionCap(n int) { l.decompCap = n }

// ReadLinearImage parses a full linear region file image.
func ReadLinearImage(data []byte, r cube.Range) (*LinearImage, error) {
	minLen := 8 + linearHeaderLen + 8
	if len(data) < minLen {
		return nil, newError(KindInvalidHeader, "file shorter than the magic+header frame", nil)
	}
	if binary.BigEndian.Uint64(data[:8]) != linearMagic {
		return nil, newError(KindInvalidHeader, "leading magic mismatch", nil)
	}
	if binary.BigEndian.Uint64(data[len(data)-8:]) != linearMagic {
		return nil, newError(KindInvalidHeader, "trailing magic mismatch", nil)
	}

	h := data[8 : 8+linearHeaderLen]
	version := h[0]
	newestTimestamp := binary.BigEndian.Uint64(h[1:9])
	_ = newestTimestamp
	zstdLevel := h[9]
	nonEmptyChunks := binary.BigEndian.Uint16(h[10:12])
	compressedBytes := binary.BigEndian.Uint32(h[12:16])
	regionHash := binary.BigEndian.Uint64(h[16:24])
	if version != 1 {
		return nil, newError(KindInvalidHeader, fmt.Sprintf("unsupported linear version %d", version), nil)
	}

	compStart := 8 + linearHeaderLen
	compEnd := len(data) - 8
	if compEnd-compStart != int(compressedBytes) {
		return nil, newError(KindInvalidHeader, "compressed_bytes does not match frame length", nil)
	}
	compressed := data[compStart:compEnd]

	img := NewLinearImage(r)
	img.level = int(zstdLevel)

	dec, err := zstd.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, newError(KindCompression, "open zstd stream", err)
	}
	defer dec.Close()
	payload, err := readLimited(dec, img.decompCap)
	if err != nil {
		return nil, err
	}

	if xxhash.Sum64(payload) != regionHash {
		return nil, newError(KindInvalidHeader, "region_hash mismatch", nil)
	}

	tableLen := chunksPerRegion * linearChunkHeaderLen
	if len(payload) < tableLen {
		return nil, newError(KindParsing, "payload shorter than the fixed chunk-header table", nil)
	}

	offsets := make([]uint32, chunksPerRegion)
	mtimes := make([]uint32, chunksPerRegion)
	for i := 0; i < chunksPerRegion; i++ {
		off := i * linearChunkHeaderLen
		offsets[i] = binary.BigEndian.Uint32(payload[off : off+4])
		mtimes[i] = binary.BigEndian.Uint32(payload[off+4 : off+8])
	}

	cursor := tableLen
	found := 0
	for i := 0; i < chunksPerRegion; i++ {
		if offsets[i] == 0 {
			continue
		}
		size := int(offsets[i])
		if cursor+size > len(payload) {
			return nil, newError(KindParsing, fmt.Sprintf("chunk %d body runs past end of payload", i), nil)
		}
		raw := make([]byte, size)
		copy(raw, payload[cursor:cursor+size])
		img.slots[i] = linearSlot{present: true, mtime: mtimes[i], raw: raw}
		cursor += size
		found++
	}
	if found != int(nonEmptyChunks) {
		return nil, newError(KindParsing, fmt.Sprintf("nonempty_chunks header says %d but found %d", nonEmptyChunks, found), nil)
	}
	return img, nil
}

func (l *LinearImage) GetChunks(coords []cube.ChunkPos, out chan<- ChunkResult) {
	var wg sync.WaitGroup
	for _, pos := range coords {
		pos := pos
		idx := pos.RegionLocal()

		l.mu.RLock()
		slot := l.slots[idx]
		l.mu.RUnlock()

		if !slot.present {
			out <- ChunkResult{Pos: pos, Kind: Missing}
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := DecodeChunkNBT(slot.raw, pos, l.r)
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

func (l *LinearImage) UpdateChunk(pos cube.ChunkPos, c *chunk.Chunk) error {
	raw, err := EncodeChunkNBT(c)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := pos.RegionLocal()
	l.slots[idx] = linearSlot{present: true, mtime: uint32(time.Now().Unix()), raw: raw}
	l.dirty = true
	return nil
}

// ShouldWrite always implies a full-region rewrite for the linear format,
// since every chunk shares one compressed stream.
func (l *LinearImage) ShouldWrite(_ bool) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.dirty
}

// MarkWritten clears the image's pending-write flag.
func (l *LinearImage) MarkWritten() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dirty = false
}

func (l *LinearImage) Bytes() ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	table := make([]byte, chunksPerRegion*linearChunkHeaderLen)
	var body []byte
	var newest uint32
	nonEmpty := 0
	for i, slot := range l.slots {
		off := i * linearChunkHeaderLen
		if !slot.present {
			continue
		}
		binary.BigEndian.PutUint32(table[off:off+4], uint32(len(slot.raw)))
		binary.BigEndian.PutUint32(table[off+4:off+8], slot.mtime)
		body = append(body, slot.raw...)
		if slot.mtime > newest {
			newest = slot.mtime
		}
		nonEmpty++
	}

	payload := make([]byte, 0, len(table)+len(body))
	payload = append(payload, table...)
	payload = append(payload, body...)

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(l.level)))
	if err != nil {
		return nil, newError(KindCompression, "open zstd encoder", err)
	}
	compressed := enc.EncodeAll(payload, nil)
	enc.Close()

	out := make([]byte, 0, 8+linearHeaderLen+len(compressed)+8)
	var magicBuf [8]byte
	binary.BigEndian.PutUint64(magicBuf[:], linearMagic)
	out = append(out, magicBuf[:]...)

	var hdr [linearHeaderLen]byte
	hdr[0] = 1
	binary.BigEndian.PutUint64(hdr[1:9], uint64(newest))
	hdr[9] = byte(l.level)
	binary.BigEndian.PutUint16(hdr[10:12], uint16(nonEmpty))
	binary.BigEndian.PutUint32(hdr[12:16], uint32(len(compressed)))
	binary.BigEndian.PutUint64(hdr[16:24], xxhash.Sum64(payload))
	out = append(out, hdr[:]...)

	out = append(out, compressed...)
	out = append(out, magicBuf[:]...)
	return out, nil
}
