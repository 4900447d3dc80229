package config

import (
	"os"

	"github.com/rileyhilliard/pgtop/internal/errors"
	"gopkg.in/yaml.v3"
)

// defaultConfigHeader is prepended to freshly written config files.
const defaultConfigHeader = `# pgtop configuration
#
# Connection settings follow libpq conventions: an empty host means the
# local unix socket, and passwords come from ~/.pgpass or PGPASSWORD.
# Every field here can also be overridden with command-line flags.

`

// Write marshals the config to YAML and writes it to path. Used by
// 'pgtop init'; refuses to clobber an existing file unless force is set.
func Write(cfg *Config, path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return errors.New(errors.ErrConfig,
				"Config file already exists: "+path,
				"Use --force to overwrite it.")
		}
	}

	data, err := yaml.Marshal(writable(cfg))
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to serialize config",
			"This is a bug; please report it.")
	}

	out := append([]byte(defaultConfigHeader), data...)
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to write "+path,
			"Check directory permissions.")
	}
	return nil
}

// writableConfig mirrors Config with durations as human-readable strings,
// so the written file says "2s" instead of nanosecond integers.
type writableConfig struct {
	Version    int              `yaml:"version"`
	Connection ConnectionConfig `yaml:"connection"`
	Refresh    struct {
		Interval string `yaml:"interval"`
		Min      string `yaml:"min"`
		Max      string `yaml:"max"`
	} `yaml:"refresh"`
	BlockSize int64           `yaml:"block_size"`
	Filters   FilterConfig    `yaml:"filters"`
	Export    ExportConfig    `yaml:"export"`
	Selection SelectionConfig `yaml:"selection"`
}

func writable(cfg *Config) writableConfig {
	w := writableConfig{
		Version:    cfg.Version,
		Connection: cfg.Connection,
		BlockSize:  cfg.BlockSize,
		Filters:    cfg.Filters,
		Export:     cfg.Export,
		Selection:  cfg.Selection,
	}
	w.Refresh.Interval = cfg.Refresh.Interval.String()
	w.Refresh.Min = cfg.Refresh.Min.String()
	w.Refresh.Max = cfg.Refresh.Max.String()
	return w
}
