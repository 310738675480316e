//go:build e2e

package e2etest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/syilabs-io/syi-staking-engine/e2etest/container"
	"github.com/syilabs-io/syi-staking-engine/internal/clients/exchangeclient"
	"github.com/syilabs-io/syi-staking-engine/internal/clients/tokenclient"
	"github.com/syilabs-io/syi-staking-engine/internal/config"
	"github.com/syilabs-io/syi-staking-engine/internal/db"
	"github.com/syilabs-io/syi-staking-engine/internal/db/model"
	"github.com/syilabs-io/syi-staking-engine/internal/observability/metrics"
	"github.com/syilabs-io/syi-staking-engine/internal/queue"
	"github.com/syilabs-io/syi-staking-engine/internal/services"
	"github.com/syilabs-io/syi-staking-engine/testutil"
)

var (
	eventuallyWaitTimeOut = 40 * time.Second
	eventuallyPollTime    = 1 * time.Second
)

const (
	testDbUser    = "test-user"
	testDbPass    = "test-password"
	testQueueUser = "test-user"
	testQueuePass = "test-password"
	testAdminKey  = "e2e-admin-key"
	testTierKey   = "e2e-tier-key"
)

type TestManager struct {
	Config   *config.Config
	DbClient db.DbInterface
	Service  *services.Service

	baseURL string
	cancel  context.CancelFunc
}

// StartManager boots the full stack: mongo and rabbitmq in containers, fake
// exchange and token backends over httptest, and the service with its API
// server.
func StartManager(t *testing.T) *TestManager {
	ctx := context.Background()

	manager, err := container.NewManager(t)
	require.NoError(t, err)

	mongoHostPort, err := manager.RunMongoResource(testDbUser, testDbPass)
	require.NoError(t, err)
	rabbitHostPort, err := manager.RunRabbitMqResource(testQueueUser, testQueuePass)
	require.NoError(t, err)

	exchange := newFakeExchange(t)
	token := newFakeToken(t,
		sdkmath.NewIntWithDecimal(1_000_000, 18),
		sdkmath.NewIntWithDecimal(1_000_000, 18),
	)

	apiPort := freePort(t)
	cfg := testConfig(mongoHostPort, rabbitHostPort, exchange.server.URL, token.server.URL, apiPort)

	var dbClient db.DbInterface
	require.NoError(t, manager.Retry(func() error {
		database, err := db.New(ctx, cfg.Db)
		if err != nil {
			return err
		}
		if err := database.Ping(ctx); err != nil {
			return err
		}
		dbClient = database
		return nil
	}))
	require.NoError(t, model.Setup(ctx, cfg))
	dbClient = db.NewDbWithMetrics(dbClient)

	var exchangeClient exchangeclient.ExchangeInterface = exchangeclient.NewClient(&cfg.Exchange)
	exchangeClient = exchangeclient.NewExchangeClientWithMetrics(exchangeClient)
	var tokenClient tokenclient.TokenInterface = tokenclient.NewClient(&cfg.Token)
	tokenClient = tokenclient.NewTokenClientWithMetrics(tokenClient)

	var qm *queue.QueueManager
	require.NoError(t, manager.Retry(func() error {
		qm, err = queue.NewQueueManager(&cfg.Queue)
		return err
	}))

	service, err := services.NewService(cfg, dbClient, exchangeClient, tokenClient, qm)
	require.NoError(t, err)
	require.NoError(t, service.Bootstrap(ctx))

	metrics.Init(freePort(t))

	runCtx, cancel := context.WithCancel(ctx)
	go func() {
		_ = service.RunServer(runCtx)
	}()
	t.Cleanup(cancel)

	tm := &TestManager{
		Config:   cfg,
		DbClient: dbClient,
		Service:  service,
		baseURL:  fmt.Sprintf("http://127.0.0.1:%d", apiPort),
		cancel:   cancel,
	}
	tm.waitForServer(t)
	return tm
}

func (tm *TestManager) waitForServer(t *testing.T) {
	require.Eventually(t, func() bool {
		resp, err := http.Get(tm.baseURL + "/healthcheck")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, eventuallyWaitTimeOut, eventuallyPollTime)
}

// Post sends a JSON body and returns status code and response body.
func (tm *TestManager) Post(t *testing.T, path string, body any) (int, []byte) {
	return tm.do(t, http.MethodPost, path, body, nil)
}

// Put sends an admin request authenticated with the given role key.
func (tm *TestManager) Put(t *testing.T, path, roleKey string, body any) (int, []byte) {
	headers := map[string]string{"X-Role-Key": roleKey}
	return tm.do(t, http.MethodPut, path, body, headers)
}

func (tm *TestManager) Get(t *testing.T, path string) (int, []byte) {
	return tm.do(t, http.MethodGet, path, nil, nil)
}

func (tm *TestManager) do(t *testing.T, method, path string, body any, headers map[string]string) (int, []byte) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, tm.baseURL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, respBody
}

func testConfig(mongoHostPort, rabbitHostPort, exchangeURL, tokenURL string, apiPort int) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:             "127.0.0.1",
			Port:             apiPort,
			WriteTimeout:     30 * time.Second,
			ReadTimeout:      30 * time.Second,
			IdleTimeout:      60 * time.Second,
			MaxContentLength: 1 << 20,
			AdminKey:         testAdminKey,
			TierManagerKey:   testTierKey,
		},
		Engine: config.EngineConfig{
			RootAddress:    testutil.RandomAddress(),
			FeeSinkAddress: testutil.RandomAddress(),
		},
		Db: config.DbConfig{
			Username:        testDbUser,
			Password:        testDbPass,
			Address:         fmt.Sprintf("mongodb://%s", mongoHostPort),
			DbName:          "syi-staking-engine",
			EventQueryLimit: 100,
		},
		Queue: config.QueueConfig{
			User:              testQueueUser,
			Password:          testQueuePass,
			Url:               rabbitHostPort,
			ProcessingTimeout: 5 * time.Second,
			PublishWorkers:    4,
			PublishBuffer:     256,
		},
		Exchange: config.ExchangeConfig{
			Endpoint:      exchangeURL,
			Timeout:       10 * time.Second,
			MaxRetryTimes: 3,
			RetryInterval: 100 * time.Millisecond,
			SlippageBps:   50,
		},
		Token: config.TokenConfig{
			Endpoint:        tokenURL,
			Timeout:         10 * time.Second,
			MaxRetryTimes:   3,
			RetryInterval:   100 * time.Millisecond,
			ReserveCacheTTL: time.Second,
		},
		Poller: config.PollerConfig{
			MaturityCheckInterval:      time.Second,
			MaturedStakesLimit:         100,
			SnapshotCompactionInterval: 5 * time.Second,
			StatePersistInterval:       time.Second,
		},
		Metrics: config.MetricsConfig{
			Host: "127.0.0.1",
			Port: 2112,
		},
	}
}

func freePort(t *testing.T) int {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}
