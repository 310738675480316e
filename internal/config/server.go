package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	WriteTimeout     time.Duration `mapstructure:"write-timeout"`
	ReadTimeout      time.Duration `mapstructure:"read-timeout"`
	IdleTimeout      time.Duration `mapstructure:"idle-timeout"`
	AllowedOrigins   []string      `mapstructure:"allowed-origins"`
	MaxContentLength int64         `mapstructure:"max-content-length"`
	// AdminKey authenticates owner operations on the admin surface;
	// TierManagerKey authenticates tier override operations only.
	AdminKey       string `mapstructure:"admin-key"`
	TierManagerKey string `mapstructure:"tier-manager-key"`
}

func (cfg *ServerConfig) Validate() error {
	if cfg.Host == "" {
		return fmt.Errorf("server host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}
	if cfg.WriteTimeout <= 0 {
		return fmt.Errorf("server write-timeout must be positive")
	}
	if cfg.ReadTimeout <= 0 {
		return fmt.Errorf("server read-timeout must be positive")
	}
	if cfg.IdleTimeout <= 0 {
		return fmt.Errorf("server idle-timeout must be positive")
	}
	if cfg.MaxContentLength <= 0 {
		return fmt.Errorf("server max-content-length must be positive")
	}
	if cfg.AdminKey == "" {
		return fmt.Errorf("server admin-key is required")
	}
	if cfg.TierManagerKey == "" {
		return fmt.Errorf("server tier-manager-key is required")
	}
	return nil
}
