package config

import (
	"fmt"
)

type DbConfig struct {
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	Address     string `mapstructure:"address"`
	DbName      string `mapstructure:"db-name"`
	MaxPoolSize uint64 `mapstructure:"max-pool-size"`
	// EventQueryLimit caps how many event documents one API query may return.
	EventQueryLimit int64 `mapstructure:"event-query-limit"`
}

func (cfg *DbConfig) Validate() error {
	if cfg.Username == "" {
		return fmt.Errorf("db username is required")
	}
	if cfg.Password == "" {
		return fmt.Errorf("db password is required")
	}
	if cfg.Address == "" {
		return fmt.Errorf("db address is required")
	}
	if cfg.DbName == "" {
		return fmt.Errorf("db name is required")
	}
	if cfg.EventQueryLimit <= 0 {
		return fmt.Errorf("db event-query-limit must be positive")
	}
	return nil
}
