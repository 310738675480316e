package config

import (
	"fmt"
	"time"
)

// ExchangeConfig points at the external conversion service that turns staked
// tokens into settlement proceeds.
type ExchangeConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetryTimes uint          `mapstructure:"max-retry-times"`
	RetryInterval time.Duration `mapstructure:"retry-interval"`
	SlippageBps   int64         `mapstructure:"slippage-bps"`
}

func (cfg *ExchangeConfig) Validate() error {
	if cfg.Endpoint == "" {
		return fmt.Errorf("exchange endpoint is required")
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("exchange timeout must be positive")
	}
	if cfg.MaxRetryTimes == 0 {
		return fmt.Errorf("exchange max-retry-times must be positive")
	}
	if cfg.RetryInterval <= 0 {
		return fmt.Errorf("exchange retry-interval must be positive")
	}
	if cfg.SlippageBps < 0 || cfg.SlippageBps >= 10_000 {
		return fmt.Errorf("exchange slippage-bps must be between 0 and 9999")
	}
	return nil
}
