package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	"github.com/syilabs-io/syi-staking-engine/internal/clients/exchangeclient"
	"github.com/syilabs-io/syi-staking-engine/internal/clients/tokenclient"
	"github.com/syilabs-io/syi-staking-engine/internal/config"
	"github.com/syilabs-io/syi-staking-engine/internal/db"
	"github.com/syilabs-io/syi-staking-engine/internal/engine"
)

// QueuePublisher is the queue surface the service depends on.
type QueuePublisher interface {
	PublishEvent(eventType, messageId string, payload []byte)
	Shutdown()
}

type Service struct {
	cfg          *config.Config
	db           db.DbInterface
	exchange     exchangeclient.ExchangeInterface
	token        tokenclient.TokenInterface
	queueManager QueuePublisher

	engine   *engine.Engine
	ownerTok engine.OwnerToken

	// adminMu serializes admin operations so tier manager rotation cannot
	// race a tier override using the outgoing token.
	adminMu sync.Mutex
	tierTok engine.TierManagerToken

	eventProcessor chan engine.Event

	// maturedAnnounced remembers which stakes already got a maturity record,
	// so the poller does not re-emit on every tick.
	maturedMu        sync.Mutex
	maturedAnnounced map[string]struct{}
}

func NewService(
	cfg *config.Config,
	dbClient db.DbInterface,
	exchange exchangeclient.ExchangeInterface,
	token tokenclient.TokenInterface,
	qm QueuePublisher,
) (*Service, error) {
	s := &Service{
		cfg:              cfg,
		db:               dbClient,
		exchange:         exchange,
		token:            token,
		queueManager:     qm,
		eventProcessor:   make(chan engine.Event, eventProcessorSize),
		maturedAnnounced: make(map[string]struct{}),
	}

	params := engine.DefaultParams()
	params.RelaxedBinding = cfg.Engine.RelaxedBinding
	if cfg.Engine.MaxReferralDepth > 0 {
		params.MaxReferralDepth = cfg.Engine.MaxReferralDepth
	}

	eng, ownerTok, err := engine.New(
		params,
		cfg.Engine.RootAddress,
		cfg.Engine.FeeSinkAddress,
		engine.RecorderFunc(s.recordEvent),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	tierTok, err := eng.SetTierManagerRole(ownerTok)
	if err != nil {
		return nil, fmt.Errorf("failed to mint tier manager token: %w", err)
	}

	s.engine = eng
	s.ownerTok = ownerTok
	s.tierTok = tierTok
	return s, nil
}

// RunServer starts the API server, the event processor and the background
// pollers, then blocks until the context is cancelled and everything has
// drained.
func (s *Service) RunServer(ctx context.Context) error {
	var wg conc.WaitGroup

	wg.Go(func() {
		s.StartEventProcessor(ctx)
	})
	s.StartPollers(ctx)

	err := s.startApiServer(ctx)

	wg.Wait()
	s.queueManager.Shutdown()
	log.Ctx(ctx).Info().Msg("Service stopped")
	return err
}
