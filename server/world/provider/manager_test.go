package provider

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/duskcore/server/server/block/cube"
	"github.com/duskcore/server/server/world/chunk"
	"github.com/duskcore/server/server/world/region"
)

var testRange = cube.Range{-64, 319}

func silentLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

func openTestManager(t *testing.T, format region.Format) *Manager {
	t.Helper()
	dir := t.TempDir()
	m, err := Open(Config{
		Dir:    filepath.Join(dir, "region"),
		Format: format,
		Range:  testRange,
		Log:    silentLog(),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func buildChunk(pos cube.ChunkPos) *chunk.Chunk {
	c := chunk.New(pos, testRange)
	c.SetBlock(1, 0, 1, 3)
	c.RecalculateHeightmaps()
	return c
}

func TestManagerSaveFetchRoundTrip(t *testing.T) {
	m := openTestManager(t, region.Anvil)
	pos := cube.ChunkPos{0, 0}

	if err := m.SaveChunks(map[cube.ChunkPos]*chunk.Chunk{pos: buildChunk(pos)}); err != nil {
		t.Fatalf("SaveChunks: %v", err)
	}

	results, err := m.FetchChunks([]cube.ChunkPos{pos})
	if err != nil {
		t.Fatalf("FetchChunks: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("FetchChunks returned %d results, want 1", len(results))
	}
	if results[0].Kind != region.Loaded {
		t.Fatalf("expected Loaded, got %v (err %v)", results[0].Kind, results[0].Err)
	}
	if got, _ := results[0].Chunk.GetBlock(1, 0, 1); got != 3 {
		t.Errorf("GetBlock(1,0,1) = %d, want 3", got)
	}
}

func TestManagerFetchMissingChunkIsNotError(t *testing.T) {
	m := openTestManager(t, region.Anvil)
	results, err := m.FetchChunks([]cube.ChunkPos{{5, 5}})
	if err != nil {
		t.Fatalf("FetchChunks: %v", err)
	}
	if len(results) != 1 || results[0].Kind != region.Missing {
		t.Fatalf("expected a single Missing result, got %+v", results)
	}
}

func TestManagerFlushPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	regionDir := filepath.Join(dir, "region")

	m1, err := Open(Config{Dir: regionDir, Format: region.Linear, Range: testRange, Log: silentLog()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	pos := cube.ChunkPos{2, -1}
	if err := m1.SaveChunks(map[cube.ChunkPos]*chunk.Chunk{pos: buildChunk(pos)}); err != nil {
		t.Fatalf("SaveChunks: %v", err)
	}
	if err := m1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	m2, err := Open(Config{Dir: regionDir, Format: region.Linear, Range: testRange, Log: silentLog()})
	if err != nil {
		t.Fatalf("reopen Open: %v", err)
	}
	defer m2.Close()

	results, err := m2.FetchChunks([]cube.ChunkPos{pos})
	if err != nil {
		t.Fatalf("FetchChunks after reopen: %v", err)
	}
	if len(results) != 1 || results[0].Kind != region.Loaded {
		t.Fatalf("expected Loaded after reopen, got %+v", results)
	}
	if got, _ := results[0].Chunk.GetBlock(1, 0, 1); got != 3 {
		t.Errorf("GetBlock(1,0,1) after reopen = %d, want 3", got)
	}
}

func TestManagerWatchUnwatchReturnsToZero(t *testing.T) {
	m := openTestManager(t, region.Anvil)
	coords := []cube.ChunkPos{{0, 0}, {1, 0}, {31, 31}}

	if err := m.WatchChunks(coords); err != nil {
		t.Fatalf("WatchChunks: %v", err)
	}
	rp := coords[0].RegionPos()
	m.mu.RLock()
	cell := m.cells[rp]
	m.mu.RUnlock()
	if cell == nil {
		t.Fatal("expected a loaded cell after WatchChunks")
	}
	cell.mu.Lock()
	watchers := cell.watchers
	cell.mu.Unlock()
	// All three coords lie in region (0, 0), which is counted once.
	if watchers != 1 {
		t.Errorf("watchers = %d, want 1", watchers)
	}

	m.UnwatchChunks(coords)
	cell.mu.Lock()
	watchers = cell.watchers
	cell.mu.Unlock()
	if watchers != 0 {
		t.Errorf("watchers after full unwatch = %d, want 0", watchers)
	}
}

func TestManagerConcurrentSavesToDisjointChunksDontRace(t *testing.T) {
	m := openTestManager(t, region.Anvil)

	var wg sync.WaitGroup
	const n = 32
	for i := 0; i < n; i++ {
		pos := cube.ChunkPos{int32(i), 0}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.SaveChunks(map[cube.ChunkPos]*chunk.Chunk{pos: buildChunk(pos)}); err != nil {
				t.Errorf("SaveChunks(%v): %v", pos, err)
			}
		}()
	}
	wg.Wait()

	var coords []cube.ChunkPos
	for i := 0; i < n; i++ {
		coords = append(coords, cube.ChunkPos{int32(i), 0})
	}
	results, err := m.FetchChunks(coords)
	if err != nil {
		t.Fatalf("FetchChunks: %v", err)
	}
	loaded := 0
	for _, r := range results {
		if r.Kind == region.Loaded {
			loaded++
		}
	}
	if loaded != n {
		t.Errorf("loaded %d of %d concurrently saved chunks", loaded, n)
	}
}

func TestManagerFlushThenFetchStillReadsLatestData(t *testing.T) {
	m := openTestManager(t, region.Anvil)
	pos := cube.ChunkPos{9, 9}
	if err := m.SaveChunks(map[cube.ChunkPos]*chunk.Chunk{pos: buildChunk(pos)}); err != nil {
		t.Fatalf("SaveChunks: %v", err)
	}
	if err := m.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	results, err := m.FetchChunks([]cube.ChunkPos{pos})
	if err != nil {
		t.Fatalf("FetchChunks after Flush: %v", err)
	}
	if len(results) != 1 || results[0].Kind != region.Loaded {
		t.Fatalf("expected Loaded after Flush, got %+v", results)
	}
}
