package config

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Store      StoreConfig      `mapstructure:"store"      validate:"required"`
	Pagination PaginationConfig `mapstructure:"pagination" validate:"required"`
	Fixtures   FixturesConfig   `mapstructure:"fixtures"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port      int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel  string `mapstructure:"log_level" validate:"required,oneof=debug info warn error fatal"`
	LogFormat string `mapstructure:"log_format" validate:"omitempty,oneof=json text"`
	// ShutdownTimeoutSeconds bounds graceful shutdown.
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds" validate:"gte=0"`
}

// DatabaseConfig contains the PostgreSQL settings. URL is only required when
// the postgres backend is selected.
type DatabaseConfig struct {
	URL             string `mapstructure:"url"               validate:"omitempty,url"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"    validate:"gte=0"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"    validate:"gte=0"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime" validate:"gte=0"` // minutes
}

// Store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// StoreConfig selects the record store implementation.
type StoreConfig struct {
	Backend string `mapstructure:"backend" validate:"required,oneof=memory postgres"`
}

// PaginationConfig bounds list pages.
type PaginationConfig struct {
	DefaultLimit int `mapstructure:"default_limit" validate:"gte=0,ltefield=MaxLimit"`
	MaxLimit     int `mapstructure:"max_limit"     validate:"gt=0"`
}

// FixturesConfig controls seeding of the bundled sample records at startup.
type FixturesConfig struct {
	Seed bool `mapstructure:"seed"`
}
