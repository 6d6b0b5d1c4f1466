package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	HTTPAddr          string        `mapstructure:"http_addr" yaml:"http_addr"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	DefaultRoom       string        `mapstructure:"default_room" yaml:"default_room"`
	Rooms             []string      `mapstructure:"rooms" yaml:"rooms"`
	AdminName         string        `mapstructure:"admin_name" yaml:"admin_name"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":6789",
		HTTPAddr:          ":8080",
		LogLevel:          "info",
		DefaultRoom:       "midgard",
		Rooms:             []string{"asgard", "niflheim"},
		AdminName:         "ODIN",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
	}
}

// Validate rejects configurations the relay cannot start with.
func (c Config) Validate() error {
	if c.DefaultRoom == "" {
		return errDefaultRoomEmpty
	}
	if c.AdminName == "" {
		return errAdminNameEmpty
	}
	return nil
}
