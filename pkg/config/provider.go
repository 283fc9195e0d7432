package config

import (
	"errors"
	"fmt"
	"runtime"
)

var ErrInvalid = errors.New("config: invalid configuration")

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	LoadConfig() (*ConfigData, error)
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Debug     bool          `yaml:"debug" env:"CTSMPOST_DEBUG"`
	LogFile   string        `yaml:"log_file,omitempty" env:"CTSMPOST_LOG_FILE"`
	Database  DatabaseData  `yaml:"database"`
	Server    ServerData    `yaml:"server"`
	Phenology PhenologyData `yaml:"phenology"`
}

// DatabaseData selects the store backend. Driver is "sqlite", "postgres"
// (lib/pq) or "pgx".
type DatabaseData struct {
	Driver string `yaml:"driver" env:"CTSMPOST_DB_DRIVER"`
	DSN    string `yaml:"dsn" env:"CTSMPOST_DB_DSN"`
}

// ServerData configures the read API
type ServerData struct {
	ListenAddr string `yaml:"listen_addr" env:"CTSMPOST_LISTEN_ADDR"`
}

// PhenologyData tunes crop calendar extraction
type PhenologyData struct {
	// Workers bounds concurrent per-crop analysis; 0 means one per CPU.
	Workers int `yaml:"workers" env:"CTSMPOST_WORKERS"`
	// ManagedOnly restricts extraction to managed crop types.
	ManagedOnly bool `yaml:"managed_only" env:"CTSMPOST_MANAGED_ONLY"`
	// FailFast discards the whole run when any crop fails validation.
	FailFast bool `yaml:"fail_fast" env:"CTSMPOST_FAIL_FAST"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
)

// Default returns the configuration used when no file is given.
func Default() *ConfigData {
	return &ConfigData{
		Database: DatabaseData{
			Driver: DriverSQLite,
			DSN:    "file:ctsmpost.db?_pragma=busy_timeout(5000)",
		},
		Server: ServerData{
			ListenAddr: "127.0.0.1:8086",
		},
		Phenology: PhenologyData{
			Workers:     runtime.GOMAXPROCS(0),
			ManagedOnly: true,
		},
	}
}

// Validate checks the fields that cannot be corrected later.
func (c *ConfigData) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres, DriverPgx:
	default:
		return fmt.Errorf("%w: unsupported database driver %q (use %q, %q or %q)",
			ErrInvalid, c.Database.Driver, DriverSQLite, DriverPostgres, DriverPgx)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("%w: database.dsn is empty", ErrInvalid)
	}
	if c.Phenology.Workers < 0 {
		return fmt.Errorf("%w: phenology.workers is negative (%d)", ErrInvalid, c.Phenology.Workers)
	}
	return nil
}
