// Command worldtool is a small diagnostic CLI over the region/provider/poi
// stack: point it at a world folder and it reports chunk presence and POI
// counts for a given region, in the spirit of dragonfly's own small
// cmd/dragonfly entry point.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/duskcore/server/server/block/cube"
	"github.com/duskcore/server/server/carver"
	"github.com/duskcore/server/server/config"
	"github.com/duskcore/server/server/poi"
	"github.com/duskcore/server/server/world"
	"github.com/duskcore/server/server/world/provider"
	"github.com/duskcore/server/server/world/region"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "worldtool:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("worldtool", flag.ExitOnError)
	worldDir := fs.String("world", "", "path to a world folder (contains region/ and poi/)")
	configPath := fs.String("config", "", "path to a worldtool.toml config (optional)")
	regionX := fs.Int("rx", 0, "region X coordinate to report on")
	regionZ := fs.Int("rz", 0, "region Z coordinate to report on")
	dimID := fs.Int("dim", 0, "dimension ID to report on (0=overworld, 1=nether, 2=end, 10=legacy overworld)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *worldDir == "" {
		return fmt.Errorf("-world is required")
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	log := cfg.Log.WithField("component", "worldtool")

	dim, known := world.DimensionByID(*dimID)
	if !known {
		log.Warnf("unknown dimension ID %d, falling back to overworld", *dimID)
	}
	resolvedID, _ := world.DimensionID(dim)
	caveCarver := carver.NewCaveCarverForDimension(dim)

	mgr, err := provider.Open(provider.Config{
		Dir:              filepath.Join(*worldDir, "region"),
		Format:           cfg.World.Format(),
		Range:            dim.Range(),
		DecompressionCap: cfg.World.DecompressionCap,
		SoftCacheSize:    cfg.World.SoftCacheSize,
		Log:              log,
	})
	if err != nil {
		return fmt.Errorf("open region manager: %w", err)
	}
	defer mgr.Close()

	store := poi.Open(filepath.Join(*worldDir, "poi"), log)

	rp := cube.RegionPos{int32(*regionX), int32(*regionZ)}
	var coords []cube.ChunkPos
	for cx := rp.X() * 32; cx < rp.X()*32+32; cx++ {
		for cz := rp.Z() * 32; cz < rp.Z()*32+32; cz++ {
			coords = append(coords, cube.ChunkPos{cx, cz})
		}
	}

	results, err := mgr.FetchChunks(coords)
	if err != nil {
		return fmt.Errorf("fetch chunks: %w", err)
	}

	var loaded, missing, errored int
	for _, r := range results {
		switch r.Kind {
		case region.Loaded:
			loaded++
		case region.Missing:
			missing++
		default:
			errored++
		}
	}

	center := cube.WorldPos{X: rp.X() * 512, Z: rp.Z() * 512}
	pois := store.GetInSquare(center, 256, "")

	fmt.Printf("region (%d, %d):\n", rp.X(), rp.Z())
	fmt.Printf("  dimension: id %d, range %v, carver nether-tuned: %v\n", resolvedID, dim.Range(), caveCarver.Config.Nether)
	fmt.Printf("  chunks: %d loaded, %d missing, %d errored\n", loaded, missing, errored)
	fmt.Printf("  poi entries within 256 blocks of region center: %d\n", len(pois))
	return nil
}
