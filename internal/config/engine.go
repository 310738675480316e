package config

import (
	"fmt"
)

// EngineConfig seeds the ledger at first boot. Subsequent boots restore the
// persisted state and ignore everything except the addresses, which must
// match what was persisted.
type EngineConfig struct {
	RootAddress    string `mapstructure:"root-address"`
	FeeSinkAddress string `mapstructure:"fee-sink-address"`
	// RelaxedBinding starts the engine with referrer eligibility checks
	// suspended, typically during a migration window.
	RelaxedBinding   bool `mapstructure:"relaxed-binding"`
	MaxReferralDepth int  `mapstructure:"max-referral-depth"`
}

func (cfg *EngineConfig) Validate() error {
	if cfg.RootAddress == "" {
		return fmt.Errorf("engine root-address is required")
	}
	if cfg.FeeSinkAddress == "" {
		return fmt.Errorf("engine fee-sink-address is required")
	}
	if cfg.RootAddress == cfg.FeeSinkAddress {
		return fmt.Errorf("engine root-address and fee-sink-address must differ")
	}
	if cfg.MaxReferralDepth < 0 {
		return fmt.Errorf("engine max-referral-depth must be non-negative")
	}
	return nil
}
