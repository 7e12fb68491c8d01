package main

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	EnvPrefix     = "KPSOLVE_"
	DefaultSuffix = ".solved"
)

const (
	formatAuto = "auto"
	formatXML  = "xml"
	formatKDBX = "kdbx"
)

type Config struct {
	Suffix  string `koanf:"suffix"`
	Replace string `koanf:"replace"`
	Format  string `koanf:"format"`
	KeyFile string `koanf:"key_file"`
	Summary bool   `koanf:"summary"`
	Verbose bool   `koanf:"verbose"`
}

// loadConfig merges defaults, the optional YAML file, KPSOLVE_* env vars
// and explicitly set flags, later sources winning.
func loadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"suffix":  DefaultSuffix,
		"replace": string(replaceAll),
		"format":  formatAuto,
		"summary": false,
		"verbose": false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", cfgFile, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch replaceMode(c.Replace) {
	case replaceAll, replaceFirst:
	default:
		return &usageError{msg: fmt.Sprintf("replace must be %q or %q, got %q", replaceAll, replaceFirst, c.Replace)}
	}
	switch c.Format {
	case formatAuto, formatXML, formatKDBX:
	default:
		return &usageError{msg: fmt.Sprintf("format must be auto, xml or kdbx, got %q", c.Format)}
	}
	if c.Suffix == "" {
		return &usageError{msg: "suffix must not be empty"}
	}
	return nil
}

func (c *Config) mode() replaceMode { return replaceMode(c.Replace) }
