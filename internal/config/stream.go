package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// StreamConfig describes which streamer service to subscribe to and when
// the pipeline should stop.
type StreamConfig struct {
	Service          string   `yaml:"service"`
	Symbols          []string `yaml:"symbols"`
	Fields           []int    `yaml:"fields"`
	UnsubscribeAfter int      `yaml:"unsubscribe_after"`
	MaxHeartbeats    int      `yaml:"max_heartbeats"`
}

// LoadStreamConfig reads a YAML stream configuration and fills defaults.
func LoadStreamConfig(path string) (StreamConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return StreamConfig{}, fmt.Errorf("read stream config: %w", err)
	}
	return ParseStreamConfig(raw)
}

func ParseStreamConfig(raw []byte) (StreamConfig, error) {
	var sc StreamConfig
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return StreamConfig{}, fmt.Errorf("parse stream config: %w", err)
	}

	sc.Service = strings.ToUpper(strings.TrimSpace(sc.Service))
	if sc.Service == "" {
		sc.Service = "TIMESALE_OPTIONS"
	}
	if len(sc.Symbols) == 0 {
		return StreamConfig{}, fmt.Errorf("stream config: no symbols")
	}
	if len(sc.Fields) == 0 {
		sc.Fields = []int{0, 1, 2, 3, 4}
	}
	if sc.UnsubscribeAfter < 0 {
		return StreamConfig{}, fmt.Errorf("stream config: unsubscribe_after must not be negative")
	}
	if sc.MaxHeartbeats <= 0 {
		sc.MaxHeartbeats = 5
	}
	return sc, nil
}
