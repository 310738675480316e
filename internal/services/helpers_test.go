package services

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/syilabs-io/syi-staking-engine/internal/clients/exchangeclient"
	"github.com/syilabs-io/syi-staking-engine/internal/config"
	"github.com/syilabs-io/syi-staking-engine/internal/db"
	"github.com/syilabs-io/syi-staking-engine/internal/db/model"
	"github.com/syilabs-io/syi-staking-engine/internal/observability/metrics"
	"github.com/syilabs-io/syi-staking-engine/testutil"
)

func TestMain(m *testing.M) {
	// Metric collectors must exist before any service code records to them.
	metrics.Init(0)
	os.Exit(m.Run())
}

type fakeDb struct {
	mu          sync.Mutex
	events      []*model.EventDocument
	audits      []*model.TierAuditDocument
	state       *model.EngineStateDocument
	settlements map[string]*model.SettlementDocument

	failSaveSettlement bool
}

var _ db.DbInterface = (*fakeDb)(nil)

func newFakeDb() *fakeDb {
	return &fakeDb{settlements: make(map[string]*model.SettlementDocument)}
}

func (f *fakeDb) Ping(ctx context.Context) error { return nil }

func (f *fakeDb) SaveEvents(ctx context.Context, events []*model.EventDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, events...)
	return nil
}

func (f *fakeDb) GetEventsByAccount(ctx context.Context, account string, limit int64) ([]*model.EventDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.EventDocument
	for _, ev := range f.events {
		if ev.Account == account {
			out = append(out, ev)
		}
		if int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeDb) SaveTierAudit(ctx context.Context, audit *model.TierAuditDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audits = append(f.audits, audit)
	return nil
}

func (f *fakeDb) GetTierAuditsByAccount(ctx context.Context, account string) ([]*model.TierAuditDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.TierAuditDocument
	for _, audit := range f.audits {
		if audit.Account == account {
			out = append(out, audit)
		}
	}
	return out, nil
}

func (f *fakeDb) SaveEngineState(ctx context.Context, state *model.EngineStateDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = state
	return nil
}

func (f *fakeDb) GetLatestEngineState(ctx context.Context) (*model.EngineStateDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == nil {
		return nil, &db.NotFoundError{Key: model.LatestEngineStateId, Message: "engine state not found"}
	}
	return f.state, nil
}

func (f *fakeDb) SaveSettlement(ctx context.Context, settlement *model.SettlementDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSaveSettlement {
		return fmt.Errorf("db unavailable")
	}
	if _, ok := f.settlements[settlement.Id]; ok {
		return &db.DuplicateKeyError{Key: settlement.Id, Message: "duplicate settlement"}
	}
	cp := *settlement
	f.settlements[settlement.Id] = &cp
	return nil
}

func (f *fakeDb) UpdateSettlementStatus(ctx context.Context, id, status, proceeds string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	settlement, ok := f.settlements[id]
	if !ok {
		return &db.NotFoundError{Key: id, Message: "settlement not found"}
	}
	settlement.Status = status
	if proceeds != "" {
		settlement.Proceeds = proceeds
	}
	settlement.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeDb) GetSettlement(ctx context.Context, id string) (*model.SettlementDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	settlement, ok := f.settlements[id]
	if !ok {
		return nil, &db.NotFoundError{Key: id, Message: "settlement not found"}
	}
	cp := *settlement
	return &cp, nil
}

func (f *fakeDb) GetSettlementsByStatus(ctx context.Context, status string) ([]*model.SettlementDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.SettlementDocument
	for _, settlement := range f.settlements {
		if settlement.Status == status {
			cp := *settlement
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeDb) settlementsByStatus(status string) []*model.SettlementDocument {
	out, _ := f.GetSettlementsByStatus(context.Background(), status)
	return out
}

type fakeExchange struct {
	mu          sync.Mutex
	failQuote   bool
	failConvert bool
	converts    []*exchangeclient.ConvertRequest
}

var _ exchangeclient.ExchangeInterface = (*fakeExchange)(nil)

func (f *fakeExchange) Quote(ctx context.Context, amount sdkmath.Int) (sdkmath.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failQuote {
		return sdkmath.Int{}, fmt.Errorf("exchange down")
	}
	return amount, nil
}

func (f *fakeExchange) Convert(ctx context.Context, req *exchangeclient.ConvertRequest) (*exchangeclient.ConvertResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failConvert {
		return nil, fmt.Errorf("exchange down")
	}
	f.converts = append(f.converts, req)
	return &exchangeclient.ConvertResult{
		RequestId: req.RequestId,
		Proceeds:  req.Amount,
	}, nil
}

type fakeToken struct {
	mu          sync.Mutex
	reserve     sdkmath.Int
	balance     sdkmath.Int
	failReserve bool
}

func (f *fakeToken) GetReserve(ctx context.Context) (sdkmath.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReserve {
		return sdkmath.Int{}, fmt.Errorf("token service down")
	}
	return f.reserve, nil
}

func (f *fakeToken) GetBalance(ctx context.Context, addr string) (sdkmath.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balance, nil
}

type fakeQueue struct {
	mu        sync.Mutex
	published []string
}

func (f *fakeQueue) PublishEvent(eventType, messageId string, payload []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, eventType)
}

func (f *fakeQueue) Shutdown() {}

func (f *fakeQueue) publishedTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.published...)
}

type testEnv struct {
	svc      *Service
	db       *fakeDb
	exchange *fakeExchange
	token    *fakeToken
	queue    *fakeQueue
	root     string
}

func newTestEnv(t *testing.T) *testEnv {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:             "127.0.0.1",
			Port:             8080,
			WriteTimeout:     time.Second,
			ReadTimeout:      time.Second,
			IdleTimeout:      time.Second,
			MaxContentLength: 1 << 20,
			AdminKey:         "admin",
			TierManagerKey:   "tier",
		},
		Engine: config.EngineConfig{
			RootAddress:    testutil.RandomAddress(),
			FeeSinkAddress: testutil.RandomAddress(),
		},
		Db: config.DbConfig{
			Username:        "u",
			Password:        "p",
			Address:         "mongodb://localhost:27017",
			DbName:          "test",
			EventQueryLimit: 100,
		},
		Exchange: config.ExchangeConfig{
			Endpoint:      "http://localhost:0",
			Timeout:       time.Second,
			MaxRetryTimes: 1,
			RetryInterval: time.Millisecond,
			SlippageBps:   50,
		},
		Poller: config.PollerConfig{
			MaturityCheckInterval:      time.Hour,
			MaturedStakesLimit:         100,
			SnapshotCompactionInterval: time.Hour,
			StatePersistInterval:       time.Hour,
		},
	}

	fdb := newFakeDb()
	fex := &fakeExchange{}
	ftok := &fakeToken{
		reserve: sdkmath.NewIntWithDecimal(1_000_000, 18),
		balance: sdkmath.NewIntWithDecimal(1_000_000, 18),
	}
	fq := &fakeQueue{}

	svc, err := NewService(cfg, fdb, fex, ftok, fq)
	require.NoError(t, err)

	return &testEnv{
		svc:      svc,
		db:       fdb,
		exchange: fex,
		token:    ftok,
		queue:    fq,
		root:     cfg.Engine.RootAddress,
	}
}

// bindAndStake binds the account under root and opens a stake for it.
func (env *testEnv) bindAndStake(t *testing.T, account string, amount sdkmath.Int, selector uint32) int {
	ctx := context.Background()
	require.Nil(t, env.svc.BindReferrer(ctx, account, env.root))
	record, terr := env.svc.Stake(ctx, account, amount, selector)
	require.Nil(t, terr)
	return record.Index
}
