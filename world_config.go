package server

import "strings"

const defaultWorldSeed = "exhibition"

// worldConfig captures the settings a world is (re)created with.
type worldConfig struct {
	Seed    string      `json:"seed"`
	Options RaceOptions `json:"options"`
}

// normalized returns a config with defaults applied. Option substitutions
// are reported so the hub can surface them to spectators and logs.
func (cfg worldConfig) normalized() (worldConfig, []string) {
	normalized := cfg
	normalized.Seed = strings.TrimSpace(normalized.Seed)
	if normalized.Seed == "" {
		normalized.Seed = defaultWorldSeed
	}
	options, notes := normalized.Options.normalized()
	normalized.Options = options
	return normalized, notes
}

// defaultWorldConfig runs the default exhibition race.
func defaultWorldConfig() worldConfig {
	return worldConfig{
		Seed:    defaultWorldSeed,
		Options: defaultRaceOptions(),
	}
}
