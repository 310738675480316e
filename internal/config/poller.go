package config

import (
	"errors"
	"time"
)

type PollerConfig struct {
	MaturityCheckInterval      time.Duration `mapstructure:"maturity-check-interval"`
	MaturedStakesLimit         int           `mapstructure:"matured-stakes-limit"`
	SnapshotCompactionInterval time.Duration `mapstructure:"snapshot-compaction-interval"`
	StatePersistInterval       time.Duration `mapstructure:"state-persist-interval"`
}

func (cfg *PollerConfig) Validate() error {
	if cfg.MaturityCheckInterval <= 0 {
		return errors.New("maturity-check-interval must be positive")
	}

	if cfg.MaturedStakesLimit <= 0 {
		return errors.New("matured-stakes-limit must be positive")
	}

	if cfg.SnapshotCompactionInterval <= 0 {
		return errors.New("snapshot-compaction-interval must be positive")
	}

	if cfg.StatePersistInterval <= 0 {
		return errors.New("state-persist-interval must be positive")
	}

	return nil
}
