package logging

import (
	"strings"
	"time"
)

// Sink names the router recognizes. Console is the default for a race run on
// a laptop; the JSON sink is switched on when a file path is configured, and
// the memory sink exists for tests.
const (
	SinkConsole = "console"
	SinkJSON    = "json"
	SinkMemory  = "memory"
)

// Config tunes the event router and the sinks it feeds.
type Config struct {
	EnabledSinks     []string
	BufferSize       int
	MinimumSeverity  Severity
	Fields           map[string]any
	JSON             JSONConfig
	Console          ConsoleConfig
	DropWarnInterval time.Duration
}

// JSONConfig shapes the newline-delimited event file.
type JSONConfig struct {
	FilePath      string
	MaxBatch      int
	FlushInterval time.Duration
}

// ConsoleConfig shapes the human-readable sink.
type ConsoleConfig struct {
	UseColor bool
}

// DefaultConfig carries the exhibition-server defaults: console only, info
// and up, and a buffer sized for a five-car field at 15 ticks per second.
func DefaultConfig() Config {
	return Config{
		EnabledSinks:     []string{SinkConsole},
		BufferSize:       256,
		MinimumSeverity:  SeverityInfo,
		DropWarnInterval: 5 * time.Second,
		JSON: JSONConfig{
			MaxBatch:      64,
			FlushInterval: time.Second,
		},
	}
}

// EnableJSON returns a copy of the config with the JSON sink switched on and
// pointed at path.
func (c Config) EnableJSON(path string) Config {
	enabled := c
	enabled.JSON.FilePath = path
	if !enabled.HasSink(SinkJSON) {
		enabled.EnabledSinks = append(append([]string(nil), c.EnabledSinks...), SinkJSON)
	}
	return enabled
}

// ParseSeverity maps a config string onto a severity floor.
func ParseSeverity(value string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return SeverityDebug, true
	case "info":
		return SeverityInfo, true
	case "warn", "warning":
		return SeverityWarn, true
	case "error":
		return SeverityError, true
	default:
		return SeverityInfo, false
	}
}

// HasSink reports whether the named sink is enabled.
func (c Config) HasSink(name string) bool {
	for _, s := range c.EnabledSinks {
		if s == name {
			return true
		}
	}
	return false
}

// CloneFields copies the standing fields stamped onto every event.
func (c Config) CloneFields() map[string]any {
	if len(c.Fields) == 0 {
		return nil
	}
	cloned := make(map[string]any, len(c.Fields))
	for k, v := range c.Fields {
		cloned[k] = v
	}
	return cloned
}
