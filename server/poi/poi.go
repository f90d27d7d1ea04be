// Package poi implements a point-of-interest store: a region-sharded
// index of named positions (portals, beds, job sites) supporting
// square-radius lookups, with each 32x32-chunk shard persisted as its
// own zlib-compressed NBT file, loaded on demand and deleted rather than
// written empty.
package poi

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sandertv/gophertunnel/minecraft/nbt"
	"github.com/sirupsen/logrus"

	"github.com/duskcore/server/server/block/cube"
)

// Entry is a single point of interest.
type Entry struct {
	Pos  cube.WorldPos
	Type string
}

type entryNBT struct {
	X    int32  `nbt:"x"`
	Y    int32  `nbt:"y"`
	Z    int32  `nbt:"z"`
	Type string `nbt:"poi_type"`
}

type sectionNBT struct {
	Valid   bool       `nbt:"Valid"`
	Records []entryNBT `nbt:"Records"`
}

type chunkNBT struct {
	DataVersion int32                 `nbt:"DataVersion"`
	Sections    map[string]sectionNBT `nbt:"Sections"`
}

type regionNBT struct {
	Chunks map[string]chunkNBT `nbt:"Chunks"`
}

const dataVersion int32 = 3955

type region struct {
	mu      sync.Mutex
	entries map[cube.WorldPos]Entry
	dirty   bool
}

func newRegion() *region { return &region{entries: make(map[cube.WorldPos]Entry)} }

func (r *region) add(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.Pos] = e
	r.dirty = true
}

func (r *region) remove(pos cube.WorldPos) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[pos]; !ok {
		return false
	}
	delete(r.entries, pos)
	r.dirty = true
	return true
}

func (r *region) all() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out
}

func chunkKey(pos cube.WorldPos) string {
	cx, cz := pos.X>>4, pos.Z>>4
	return fmt.Sprintf("%d,%d", cx&31, cz&31)
}

func sectionKey(pos cube.WorldPos) string {
	return fmt.Sprintf("%d", pos.Y>>4)
}

func (r *region) toNBT() regionNBT {
	r.mu.Lock()
	defer r.mu.Unlock()

	chunks := make(map[string]chunkNBT)
	for _, e := range r.entries {
		ck := chunkKey(e.Pos)
		c, ok := chunks[ck]
		if !ok {
			c = chunkNBT{DataVersion: dataVersion, Sections: make(map[string]sectionNBT)}
		}
		sk := sectionKey(e.Pos)
		s := c.Sections[sk]
		s.Valid = true
		s.Records = append(s.Records, entryNBT{X: e.Pos.X, Y: e.Pos.Y, Z: e.Pos.Z, Type: e.Type})
		c.Sections[sk] = s
		chunks[ck] = c
	}
	return regionNBT{Chunks: chunks}
}

func regionFromNBT(data regionNBT) *region {
	r := newRegion()
	for _, c := range data.Chunks {
		for _, s := range c.Sections {
			for _, rec := range s.Records {
				pos := cube.WorldPos{X: rec.X, Y: rec.Y, Z: rec.Z}
				r.entries[pos] = Entry{Pos: pos, Type: rec.Type}
			}
		}
	}
	r.dirty = false
	return r
}

// Store is the top-level POI index for one dimension's worth of region
// files.
type Store struct {
	dir string
	log *logrus.Entry

	mu      sync.Mutex
	regions map[cube.RegionPos]*region
}

// Open returns a Store rooted at dir (typically "<world>/poi"), creating
// it lazily on first save.
func Open(dir string, log *logrus.Entry) *Store {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Store{dir: dir, log: log, regions: make(map[cube.RegionPos]*region)}
}

func regionCoordsOf(pos cube.WorldPos) cube.RegionPos {
	cx, cz := pos.X>>4, pos.Z>>4
	return cube.RegionPosOf(cx, cz)
}

func (s *Store) path(rp cube.RegionPos) string {
	return filepath.Join(s.dir, fmt.Sprintf("r.%d.%d.poi", rp.X(), rp.Z()))
}

// getOrLoad returns the in-memory region for rp, faulting it in from disk
// the first time it's touched; an untouched region comes back empty
// without any file ever being opened.
func (s *Store) getOrLoad(rp cube.RegionPos) *region {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.regions[rp]; ok {
		return r
	}

	r, err := s.load(rp)
	if err != nil {
		s.log.Errorf("poi: load region %v: %v", rp, err)
		r = newRegion()
	}
	s.regions[rp] = r
	return r
}

func (s *Store) load(rp cube.RegionPos) (*region, error) {
	data, err := os.ReadFile(s.path(rp))
	if os.IsNotExist(err) {
		return newRegion(), nil
	}
	if err != nil {
		return nil, err
	}
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, err
	}
	var doc regionNBT
	if err := nbt.UnmarshalEncoding(raw, &doc, nbt.BigEndian); err != nil {
		return nil, err
	}
	return regionFromNBT(doc), nil
}

// Add registers a POI at pos, overwriting any existing entry at that
// exact position.
func (s *Store) Add(pos cube.WorldPos, poiType string) {
	s.getOrLoad(regionCoordsOf(pos)).add(Entry{Pos: pos, Type: poiType})
}

// Remove deletes the POI at pos, reporting whether one existed.
func (s *Store) Remove(pos cube.WorldPos) bool {
	return s.getOrLoad(regionCoordsOf(pos)).remove(pos)
}

// GetInSquare returns every POI within a Chebyshev-distance square of
// radius around center, optionally filtered to a single type.
func (s *Store) GetInSquare(center cube.WorldPos, radius int32, poiType string) []cube.WorldPos {
	minRX := ((center.X - radius) >> 4) >> 5
	maxRX := ((center.X + radius) >> 4) >> 5
	minRZ := ((center.Z - radius) >> 4) >> 5
	maxRZ := ((center.Z + radius) >> 4) >> 5

	var out []cube.WorldPos
	for rx := minRX; rx <= maxRX; rx++ {
		for rz := minRZ; rz <= maxRZ; rz++ {
			r := s.getOrLoad(cube.RegionPos{rx, rz})
			for _, e := range r.all() {
				if poiType != "" && e.Type != poiType {
					continue
				}
				dx, dz := abs32(e.Pos.X-center.X), abs32(e.Pos.Z-center.Z)
				if dx <= radius && dz <= radius {
					out = append(out, e.Pos)
				}
			}
		}
	}
	return out
}

// SaveAll persists every dirty region, deleting any region whose entry
// set has become empty instead of writing it as an empty file.
func (s *Store) SaveAll() error {
	s.mu.Lock()
	snapshot := make(map[cube.RegionPos]*region, len(s.regions))
	for rp, r := range s.regions {
		snapshot[rp] = r
	}
	s.mu.Unlock()

	saved := 0
	for rp, r := range snapshot {
		r.mu.Lock()
		dirty := r.dirty
		empty := len(r.entries) == 0
		r.mu.Unlock()
		if !dirty {
			continue
		}

		path := s.path(rp)
		if empty {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("poi: remove empty region %v: %w", rp, err)
			}
			r.mu.Lock()
			r.dirty = false
			r.mu.Unlock()
			continue
		}

		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return fmt.Errorf("poi: create poi dir: %w", err)
		}
		var buf bytes.Buffer
		enc := nbt.NewEncoderWithEncoding(&buf, nbt.BigEndian)
		if err := enc.Encode(r.toNBT()); err != nil {
			return fmt.Errorf("poi: encode region %v: %w", rp, err)
		}
		var zbuf bytes.Buffer
		zw := zlib.NewWriter(&zbuf)
		if _, err := zw.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("poi: compress region %v: %w", rp, err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("poi: compress region %v: %w", rp, err)
		}
		if err := os.WriteFile(path, zbuf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("poi: write region %v: %w", rp, err)
		}
		r.mu.Lock()
		r.dirty = false
		r.mu.Unlock()
		saved++
	}
	if saved > 0 {
		s.log.Infof("saved %d poi region(s)", saved)
	}
	return nil
}

func abs32(x int32) int32 {
	if x < 0 {
		return -x
	}
	return x
}
