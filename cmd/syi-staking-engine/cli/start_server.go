package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/syilabs-io/syi-staking-engine/internal/clients/exchangeclient"
	"github.com/syilabs-io/syi-staking-engine/internal/clients/tokenclient"
	"github.com/syilabs-io/syi-staking-engine/internal/config"
	"github.com/syilabs-io/syi-staking-engine/internal/db"
	dbmodel "github.com/syilabs-io/syi-staking-engine/internal/db/model"
	"github.com/syilabs-io/syi-staking-engine/internal/observability/metrics"
	"github.com/syilabs-io/syi-staking-engine/internal/observability/tracing"
	"github.com/syilabs-io/syi-staking-engine/internal/queue"
	"github.com/syilabs-io/syi-staking-engine/internal/services"
)

func StartServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start-server",
		Short: "Starts the staking engine server",
		Args:  cobra.ExactArgs(0),
		RunE:  startServer,
	}

	return cmd
}

func startServer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ctx = tracing.InjectTraceID(ctx)
	log := log.Ctx(ctx)

	cfgPath := GetConfigPath()
	cfg, err := config.New(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg(fmt.Sprintf("error while loading config file: %s", cfgPath))
	}

	if err := dbmodel.Setup(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("error while setting up staking db model")
	}

	var dbClient db.DbInterface
	dbClient, err = db.New(ctx, cfg.Db)
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating db client")
	}
	dbClient = db.NewDbWithMetrics(dbClient)

	var exchangeClient exchangeclient.ExchangeInterface = exchangeclient.NewClient(&cfg.Exchange)
	exchangeClient = exchangeclient.NewExchangeClientWithMetrics(exchangeClient)

	var tokenClient tokenclient.TokenInterface = tokenclient.NewClient(&cfg.Token)
	tokenClient = tokenclient.NewTokenClientWithMetrics(tokenClient)

	qm, err := queue.NewQueueManager(&cfg.Queue)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize queue manager")
	}

	service, err := services.NewService(cfg, dbClient, exchangeClient, tokenClient, qm)
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating service")
	}

	if err := service.Bootstrap(ctx); err != nil {
		log.Fatal().Err(err).Msg("error while restoring engine state")
	}

	metricsPort := cfg.Metrics.GetMetricsPort()
	metrics.Init(metricsPort)

	return service.RunServer(ctx)
}
