package flags

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

const configMetadataKey = "config"

// Config is the optional YAML configuration file. Command line flags and
// environment variables take precedence over it.
type Config struct {
	Storage         []string      `yaml:"storage"`
	Timeout         time.Duration `yaml:"timeout"`
	MetricsTextfile string        `yaml:"metricsTextfile"`
	Log             LogConfig     `yaml:"log"`
}

type LogConfig struct {
	JSON    bool   `yaml:"json"`
	Debug   bool   `yaml:"debug"`
	UID     bool   `yaml:"uid"`
	Service string `yaml:"service"`
}

var ConfigFlag = &cli.PathFlag{
	Name:    "config",
	EnvVars: []string{"KEYSHARES_CONFIG"},
	Usage:   "YAML configuration file",
}

// ReadConfig parses a YAML configuration file. Unknown keys are rejected.
func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadConfig is an App.Before hook that reads --config into the app metadata.
func LoadConfig(cCtx *cli.Context) error {
	path := cCtx.Path(ConfigFlag.Name)
	if path == "" {
		return nil
	}
	cfg, err := ReadConfig(path)
	if err != nil {
		return err
	}
	if cCtx.App.Metadata == nil {
		cCtx.App.Metadata = map[string]interface{}{}
	}
	cCtx.App.Metadata[configMetadataKey] = cfg
	return nil
}

// ConfigFrom returns the loaded configuration, or an empty one.
func ConfigFrom(cCtx *cli.Context) *Config {
	if cCtx.App != nil {
		if cfg, ok := cCtx.App.Metadata[configMetadataKey].(*Config); ok {
			return cfg
		}
	}
	return &Config{}
}

// Duration returns a duration flag, falling back to fallback when the flag was
// not given and fallback is set.
func Duration(cCtx *cli.Context, flag *cli.DurationFlag, fallback time.Duration) time.Duration {
	if cCtx.IsSet(flag.Name) || fallback == 0 {
		return cCtx.Duration(flag.Name)
	}
	return fallback
}

func boolFlag(cCtx *cli.Context, flag *cli.BoolFlag, fallback bool) bool {
	if cCtx.IsSet(flag.Name) {
		return cCtx.Bool(flag.Name)
	}
	return fallback
}
