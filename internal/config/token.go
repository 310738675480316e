package config

import (
	"fmt"
	"time"
)

// TokenConfig points at the token ledger service used to read the external
// reserve backing the admission controller.
type TokenConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetryTimes uint          `mapstructure:"max-retry-times"`
	RetryInterval time.Duration `mapstructure:"retry-interval"`
	// ReserveCacheTTL bounds how stale a cached reserve reading may be when
	// used for admission decisions.
	ReserveCacheTTL time.Duration `mapstructure:"reserve-cache-ttl"`
}

func (cfg *TokenConfig) Validate() error {
	if cfg.Endpoint == "" {
		return fmt.Errorf("token endpoint is required")
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("token timeout must be positive")
	}
	if cfg.MaxRetryTimes == 0 {
		return fmt.Errorf("token max-retry-times must be positive")
	}
	if cfg.RetryInterval <= 0 {
		return fmt.Errorf("token retry-interval must be positive")
	}
	if cfg.ReserveCacheTTL <= 0 {
		return fmt.Errorf("token reserve-cache-ttl must be positive")
	}
	return nil
}
