package server

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the server settings. Any field may be set from the YAML
// file and overridden by command line flags.
type Config struct {
	Addr           string   `yaml:"address"`
	OriginPatterns []string `yaml:"origin_patterns"`
	// EncodeConcurrency bounds how many remotes of one request are encoded
	// at the same time. Zero means no bound.
	EncodeConcurrency int `yaml:"encode_concurrency"`
	// FrameRepeat is the repeat count of packets learned from collectors.
	FrameRepeat int `yaml:"frame_repeat"`
	// AllowFetch lets POST /remote?url= make the server download a
	// definition. Off unless set.
	AllowFetch bool `yaml:"allow_fetch"`
	Debug      bool `yaml:"debug"`
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() Config {
	return Config{
		Addr:              ":8080",
		OriginPatterns:    []string{"localhost:*", "192.168.*.*:*"},
		EncodeConcurrency: 4,
	}
}

// LoadConfig reads path over the defaults. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Addr == "" {
		return errors.New("address must not be empty")
	}
	if c.EncodeConcurrency < 0 {
		return fmt.Errorf("encode_concurrency must be non-negative, got %d", c.EncodeConcurrency)
	}
	if c.FrameRepeat < 0 || c.FrameRepeat > 255 {
		return fmt.Errorf("frame_repeat must be between 0 and 255, got %d", c.FrameRepeat)
	}
	return nil
}
