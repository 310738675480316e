package db

import (
	"context"

	"github.com/syilabs-io/syi-staking-engine/internal/db/model"
)

type DbInterface interface {
	Ping(ctx context.Context) error

	SaveEvents(ctx context.Context, events []*model.EventDocument) error
	GetEventsByAccount(ctx context.Context, account string, limit int64) ([]*model.EventDocument, error)

	SaveTierAudit(ctx context.Context, audit *model.TierAuditDocument) error
	GetTierAuditsByAccount(ctx context.Context, account string) ([]*model.TierAuditDocument, error)

	SaveEngineState(ctx context.Context, state *model.EngineStateDocument) error
	GetLatestEngineState(ctx context.Context) (*model.EngineStateDocument, error)

	SaveSettlement(ctx context.Context, settlement *model.SettlementDocument) error
	UpdateSettlementStatus(ctx context.Context, id, status, proceeds string) error
	GetSettlement(ctx context.Context, id string) (*model.SettlementDocument, error)
	GetSettlementsByStatus(ctx context.Context, status string) ([]*model.SettlementDocument, error)
}
