package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete .pgtop.yaml configuration file.
type Config struct {
	Version    int              `yaml:"version" mapstructure:"version"`
	Connection ConnectionConfig `yaml:"connection" mapstructure:"connection"`
	Refresh    RefreshConfig    `yaml:"refresh" mapstructure:"refresh"`
	BlockSize  int64            `yaml:"block_size" mapstructure:"block_size"`
	Filters    FilterConfig     `yaml:"filters" mapstructure:"filters"`
	Export     ExportConfig     `yaml:"export" mapstructure:"export"`
	Selection  SelectionConfig  `yaml:"selection" mapstructure:"selection"`
}

// ConnectionConfig describes how to reach the monitored server.
// Passwords are deliberately not part of the file; libpq-style
// ~/.pgpass and PGPASSWORD both work through the driver.
type ConnectionConfig struct {
	// Host is the server host. Empty means the local unix socket.
	Host string `yaml:"host" mapstructure:"host"`

	// Port is the server TCP port.
	Port int `yaml:"port" mapstructure:"port"`

	// User is the role to connect as. Empty uses the OS user.
	User string `yaml:"user" mapstructure:"user"`

	// Database to connect to. Empty uses the user's default.
	Database string `yaml:"database" mapstructure:"database"`
}

// RefreshConfig bounds the poll cadence. The user can nudge the interval
// at runtime in one-second steps; it always stays within [Min, Max].
type RefreshConfig struct {
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
	Min      time.Duration `yaml:"min" mapstructure:"min"`
	Max      time.Duration `yaml:"max" mapstructure:"max"`
}

// FilterConfig narrows which backends are fetched. Filters are applied
// server-side by the data source.
type FilterConfig struct {
	// Database restricts rows to one database name.
	Database string `yaml:"database" mapstructure:"database"`

	// User restricts rows to one role name.
	User string `yaml:"user" mapstructure:"user"`

	// MinDuration hides queries younger than this many seconds.
	MinDuration float64 `yaml:"min_duration" mapstructure:"min_duration"`
}

// ExportConfig controls the optional per-tick CSV sink.
type ExportConfig struct {
	// Path of the CSV file to append to. Empty disables export.
	Path string `yaml:"path" mapstructure:"path"`
}

// SelectionConfig tunes interactive selection behavior.
type SelectionConfig struct {
	// InactivityTicks is how many consecutive ticks without navigation
	// input a focused row survives before focus is dropped.
	InactivityTicks int `yaml:"inactivity_ticks" mapstructure:"inactivity_ticks"`
}

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Connection: ConnectionConfig{
			Port: 5432,
		},
		Refresh: RefreshConfig{
			Interval: 2 * time.Second,
			Min:      500 * time.Millisecond,
			Max:      5 * time.Second,
		},
		BlockSize: 4096,
		Selection: SelectionConfig{
			InactivityTicks: 30,
		},
	}
}
