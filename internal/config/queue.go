package config

import (
	"fmt"
	"time"
)

type QueueConfig struct {
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Url               string        `mapstructure:"url"`
	ProcessingTimeout time.Duration `mapstructure:"processing-timeout"`
	PublishWorkers    int           `mapstructure:"publish-workers"`
	PublishBuffer     int           `mapstructure:"publish-buffer"`
}

func (cfg *QueueConfig) Validate() error {
	if cfg.User == "" {
		return fmt.Errorf("queue user is required")
	}
	if cfg.Password == "" {
		return fmt.Errorf("queue password is required")
	}
	if cfg.Url == "" {
		return fmt.Errorf("queue url is required")
	}
	if cfg.ProcessingTimeout <= 0 {
		return fmt.Errorf("queue processing-timeout must be positive")
	}
	if cfg.PublishWorkers <= 0 {
		return fmt.Errorf("queue publish-workers must be positive")
	}
	if cfg.PublishBuffer <= 0 {
		return fmt.Errorf("queue publish-buffer must be positive")
	}
	return nil
}
