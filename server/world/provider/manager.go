// Package provider implements the region file manager: lazy per-region
// loading, watcher reference counts, and atomic flush-to-disk, built on
// top of the region.Serializer images in package region.
package provider

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/duskcore/server/server/block/cube"
	"github.com/duskcore/server/server/world/chunk"
	"github.com/duskcore/server/server/world/region"
)

// regionCell lazily loads one region file: the once collapses concurrent
// first-opens of the same region into a single disk read, while watchers
// is tracked independently so refcounting never blocks on the load.
type regionCell struct {
	once sync.Once
	img  region.Serializer
	err  error

	mu       sync.Mutex
	watchers int
}

func (c *regionCell) ensureLoaded(load func() (region.Serializer, error)) (region.Serializer, error) {
	c.once.Do(func() {
		c.img, c.err = load()
	})
	return c.img, c.err
}

// Manager owns every region file under a single world directory. One
// Manager exists per dimension.
type Manager struct {
	dir       string
	format    region.Format
	r         cube.Range
	decompCap int

	mu    sync.RWMutex
	cells map[cube.RegionPos]*regionCell

	// soft holds regions with zero watchers, evicting the coldest entries
	// out of cells entirely once the cache is over capacity.
	soft *lru.Cache[cube.RegionPos, struct{}]

	log *logrus.Entry

	flushCron *cron.Cron
	wg        sync.WaitGroup

	closed bool
}

// Config controls how a Manager is constructed.
type Config struct {
	Dir               string
	Format            region.Format
	Range             cube.Range
	DecompressionCap  int
	SoftCacheSize     int
	Log               *logrus.Entry
	FlushCron         string // standard 5-field cron expression; empty disables periodic flush
}

// Open constructs a Manager rooted at conf.Dir, creating the directory if
// it does not yet exist.
func Open(conf Config) (*Manager, error) {
	if conf.SoftCacheSize <= 0 {
		conf.SoftCacheSize = 64
	}
	if conf.Log == nil {
		conf.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	if err := os.MkdirAll(conf.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("provider: create world dir: %w", err)
	}

	m := &Manager{
		dir:       conf.Dir,
		format:    conf.Format,
		r:         conf.Range,
		decompCap: conf.DecompressionCap,
		cells:     make(map[cube.RegionPos]*regionCell),
		log:       conf.Log,
	}
	var err error
	m.soft, err = lru.NewWithEvict(conf.SoftCacheSize, m.onSoftEvict)
	if err != nil {
		return nil, fmt.Errorf("provider: init soft cache: %w", err)
	}

	if conf.FlushCron != "" {
		m.flushCron = cron.New()
		if _, err := m.flushCron.AddFunc(conf.FlushCron, func() {
			if err := m.Flush(); err != nil {
				m.log.Errorf("periodic flush: %v", err)
			}
		}); err != nil {
			return nil, fmt.Errorf("provider: schedule flush cron: %w", err)
		}
		m.flushCron.Start()
	}
	return m, nil
}

func (m *Manager) onSoftEvict(pos cube.RegionPos, _ struct{}) {
	m.mu.Lock()
	cell, ok := m.cells[pos]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.cells, pos)
	m.mu.Unlock()

	if cell.img != nil && cell.img.ShouldWrite(false) {
		if err := m.writeCell(pos, cell); err != nil {
			m.log.Errorf("flush evicted region %v: %v", pos, err)
		}
	}
}

func (m *Manager) fileName(pos cube.RegionPos) string {
	ext := "mca"
	if m.format == region.Linear {
		ext = "linear"
	}
	return filepath.Join(m.dir, fmt.Sprintf("r.%d.%d.%s", pos.X(), pos.Z(), ext))
}

func (m *Manager) loadCell(pos cube.RegionPos) *regionCell {
	m.mu.Lock()
	cell, ok := m.cells[pos]
	if !ok {
		cell = &regionCell{}
		m.cells[pos] = cell
	}
	m.mu.Unlock()
	return cell
}

func (m *Manager) open(pos cube.RegionPos) (region.Serializer, error) {
	cell := m.loadCell(pos)
	return cell.ensureLoaded(func() (region.Serializer, error) {
		data, err := os.ReadFile(m.fileName(pos))
		if os.IsNotExist(err) {
			return m.newImage(), nil
		}
		if err != nil {
			return nil, fmt.Errorf("provider: read region %v: %w", pos, err)
		}
		img, err := m.decodeImage(data)
		if err != nil {
			return nil, fmt.Errorf("provider: decode region %v: %w", pos, err)
		}
		return img, nil
	})
}

func (m *Manager) newImage() region.Serializer {
	if m.format == region.Linear {
		img := region.NewLinearImage(m.r)
		img.SetDecompressionCap(m.decompCap)
		return img
	}
	img := region.NewAnvilImage(m.r)
	img.SetDecompressionCap(m.decompCap)
	return img
}

func (m *Manager) decodeImage(data []byte) (region.Serializer, error) {
	if m.format == region.Linear {
		img, err := region.ReadLinearImage(data, m.r)
		if err != nil {
			return nil, err
		}
		img.SetDecompressionCap(m.decompCap)
		return img, nil
	}
	img, err := region.ReadAnvilImage(data, m.r)
	if err != nil {
		return nil, err
	}
	img.SetDecompressionCap(m.decompCap)
	return img, nil
}

// WatchChunks increments the watcher refcount for every region covering
// coords, lazily loading region files that are not yet resident.
func (m *Manager) WatchChunks(coords []cube.ChunkPos) error {
	for _, pos := range regionsOf(coords) {
		cell := m.loadCell(pos)
		if _, err := m.open(pos); err != nil {
			return err
		}
		m.soft.Remove(pos)
		cell.mu.Lock()
		cell.watchers++
		cell.mu.Unlock()
	}
	return nil
}

// UnwatchChunks decrements the watcher refcount for every region covering
// coords. Regions reaching zero watchers become soft-eviction candidates
// rather than being dropped immediately.
func (m *Manager) UnwatchChunks(coords []cube.ChunkPos) {
	for _, pos := range regionsOf(coords) {
		m.mu.RLock()
		cell, ok := m.cells[pos]
		m.mu.RUnlock()
		if !ok {
			continue
		}
		cell.mu.Lock()
		if cell.watchers > 0 {
			cell.watchers--
		}
		idle := cell.watchers == 0
		cell.mu.Unlock()
		if idle {
			m.soft.Add(pos, struct{}{})
		}
	}
}

// FetchChunks decodes coords without affecting any watcher refcount,
// useful for one-shot reads (e.g. world generation lookahead).
func (m *Manager) FetchChunks(coords []cube.ChunkPos) ([]region.ChunkResult, error) {
	byRegion := make(map[cube.RegionPos][]cube.ChunkPos)
	for _, pos := range coords {
		rp := pos.RegionPos()
		byRegion[rp] = append(byRegion[rp], pos)
	}

	var results []region.ChunkResult
	for rp, list := range byRegion {
		img, err := m.open(rp)
		if err != nil {
			return nil, err
		}
		out := make(chan region.ChunkResult, len(list))
		go func() {
			img.GetChunks(list, out)
			close(out)
		}()
		for r := range out {
			results = append(results, r)
		}
	}
	return results, nil
}

// SaveChunks re-encodes every chunk in chunks into its owning region image.
// The region is marked dirty; actual disk I/O happens on the next Flush.
func (m *Manager) SaveChunks(chunks map[cube.ChunkPos]*chunk.Chunk) error {
	byRegion := make(map[cube.RegionPos][]cube.ChunkPos)
	for pos := range chunks {
		rp := pos.RegionPos()
		byRegion[rp] = append(byRegion[rp], pos)
	}
	for rp, list := range byRegion {
		img, err := m.open(rp)
		if err != nil {
			return err
		}
		for _, pos := range list {
			if err := img.UpdateChunk(pos, chunks[pos]); err != nil {
				return fmt.Errorf("provider: update chunk %v: %w", pos, err)
			}
			chunks[pos].ClearDirty()
		}
	}
	return nil
}

// Flush writes every resident region with pending changes to disk,
// atomically via a temp-file-then-rename swap.
func (m *Manager) Flush() error {
	m.mu.RLock()
	snapshot := make(map[cube.RegionPos]*regionCell, len(m.cells))
	for pos, cell := range m.cells {
		snapshot[pos] = cell
	}
	m.mu.RUnlock()

	for pos, cell := range snapshot {
		cell.mu.Lock()
		watched := cell.watchers > 0
		cell.mu.Unlock()
		if cell.img == nil || !cell.img.ShouldWrite(watched) {
			continue
		}
		if err := m.writeCell(pos, cell); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) writeCell(pos cube.RegionPos, cell *regionCell) error {
	data, err := cell.img.Bytes()
	if err != nil {
		return fmt.Errorf("provider: serialize region %v: %w", pos, err)
	}
	if err := atomicWriteFile(m.fileName(pos), data); err != nil {
		return fmt.Errorf("provider: write region %v: %w", pos, err)
	}
	if marker, ok := cell.img.(interface{ MarkWritten() }); ok {
		marker.MarkWritten()
	}
	return nil
}

// BlockAndAwaitOngoingTasks waits on the Manager's task WaitGroup. No
// background work registers with it, periodic flush runs included, so it
// returns at once; it takes no region locks and neither flushes nor evicts.
// Close is what waits for a running periodic flush, by stopping the cron
// scheduler.
func (m *Manager) BlockAndAwaitOngoingTasks() {
	m.wg.Wait()
}

// Close stops periodic flushing, flushes every resident region one final
// time, and waits for outstanding background tasks.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	if m.flushCron != nil {
		ctx := m.flushCron.Stop()
		<-ctx.Done()
	}
	if err := m.Flush(); err != nil {
		return err
	}
	m.BlockAndAwaitOngoingTasks()
	return nil
}

func regionsOf(coords []cube.ChunkPos) []cube.RegionPos {
	var out []cube.RegionPos
	for _, pos := range coords {
		rp := pos.RegionPos()
		if !slices.Contains(out, rp) {
			out = append(out, rp)
		}
	}
	return out
}

