package chunk

import "fmt"

// StateToName and NameToState are the external block/item registry
// boundary: static tables mapping a registry name + property map to/from
// a numeric state ID. They are package-level function variables, so that
// an external registry can install its lookup without this package
// importing it.
//
// A trivial default is installed so the package (and its tests) work
// without any registry wired in: it round-trips through an opaque numeric
// name and carries no properties.
var (
	StateToName func(state uint16) (name string, properties map[string]any)
	NameToState func(name string, properties map[string]any) (state uint16, found bool)
)

// BiomeToName and NameToBiome are the equivalent boundary for biome IDs.
var (
	BiomeToName func(biome uint16) string
	NameToBiome func(name string) (biome uint16, found bool)
)

func init() {
	StateToName = defaultStateToName
	NameToState = defaultNameToState
	BiomeToName = defaultBiomeToName
	NameToBiome = defaultNameToBiome
}

func defaultBiomeToName(biome uint16) string {
	if biome == 0 {
		return "minecraft:plains"
	}
	return fmt.Sprintf("biome:%d", biome)
}

func defaultNameToBiome(name string) (uint16, bool) {
	if name == "minecraft:plains" {
		return 0, true
	}
	var id uint16
	if n, err := fmt.Sscanf(name, "biome:%d", &id); err == nil && n == 1 {
		return id, true
	}
	return 0, false
}

func defaultStateToName(state uint16) (string, map[string]any) {
	if state == 0 {
		return "minecraft:air", nil
	}
	return fmt.Sprintf("state:%d", state), nil
}

func defaultNameToState(name string, _ map[string]any) (uint16, bool) {
	if name == "minecraft:air" {
		return 0, true
	}
	var id uint16
	if n, err := fmt.Sscanf(name, "state:%d", &id); err == nil && n == 1 {
		return id, true
	}
	return 0, false
}
