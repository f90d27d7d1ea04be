package carver

import "github.com/segmentio/fasthash/fnv1a"

// LargeFeatureSeed derives the per-chunk carver seed vanilla calls
// large_feature_seed: deterministic and reproducible for a given
// (world_seed, cx, cz) so the same world always carves the same caves at
// the same chunk.
func LargeFeatureSeed(worldSeed int64, cx, cz int32) int64 {
	h := fnv1a.HashUint64(uint64(worldSeed))
	h = fnv1a.AddUint64(h, uint64(uint32(cx)))
	h = fnv1a.AddUint64(h, uint64(uint32(cz)))
	return int64(h)
}
