package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			WriteTimeout:     30 * time.Second,
			ReadTimeout:      30 * time.Second,
			IdleTimeout:      60 * time.Second,
			MaxContentLength: 1 << 20,
			AdminKey:         "test-admin-key",
			TierManagerKey:   "test-tier-key",
		},
		Engine: EngineConfig{
			RootAddress:    "0x49d6e97de9bcb53a210e5ffd4f033124dd4d9c5f",
			FeeSinkAddress: "0x0e8e5b0ad4be02e637e5a6ba1bbe9c4dbd1b6a26",
		},
		Db: DbConfig{
			Username:        "test",
			Password:        "test",
			Address:         "mongodb://localhost:27017",
			DbName:          "test",
			EventQueryLimit: 100,
		},
		Queue: QueueConfig{
			User:              "test",
			Password:          "test",
			Url:               "localhost:5672",
			ProcessingTimeout: 5 * time.Second,
			PublishWorkers:    4,
			PublishBuffer:     256,
		},
		Exchange: ExchangeConfig{
			Endpoint:      "http://localhost:9832",
			Timeout:       10 * time.Second,
			MaxRetryTimes: 3,
			RetryInterval: time.Second,
			SlippageBps:   50,
		},
		Token: TokenConfig{
			Endpoint:        "http://localhost:9833",
			Timeout:         10 * time.Second,
			MaxRetryTimes:   3,
			RetryInterval:   time.Second,
			ReserveCacheTTL: 5 * time.Second,
		},
		Poller: PollerConfig{
			MaturityCheckInterval:      10 * time.Second,
			MaturedStakesLimit:         100,
			SnapshotCompactionInterval: time.Minute,
			StatePersistInterval:       30 * time.Second,
		},
		Metrics: MetricsConfig{
			Host: "0.0.0.0",
			Port: 2112,
		},
	}
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	t.Run("root and fee sink must differ", func(t *testing.T) {
		cfg := validConfig()
		cfg.Engine.FeeSinkAddress = cfg.Engine.RootAddress
		assert.Error(t, cfg.Validate())
	})

	t.Run("metrics host must be an ip", func(t *testing.T) {
		cfg := validConfig()
		cfg.Metrics.Host = "not-an-ip"
		assert.Error(t, cfg.Validate())
	})

	t.Run("admin keys are required", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.AdminKey = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("exchange slippage is bounded", func(t *testing.T) {
		cfg := validConfig()
		cfg.Exchange.SlippageBps = 10_000
		assert.Error(t, cfg.Validate())
	})
}
