package db

import (
	"context"
	"time"

	"github.com/syilabs-io/syi-staking-engine/internal/db/model"
	"github.com/syilabs-io/syi-staking-engine/internal/observability/metrics"
)

type DbWithMetrics struct {
	db DbInterface
}

func NewDbWithMetrics(db DbInterface) *DbWithMetrics {
	return &DbWithMetrics{db: db}
}

func (d *DbWithMetrics) Ping(ctx context.Context) error {
	return d.db.Ping(ctx)
}

func (d *DbWithMetrics) SaveEvents(ctx context.Context, events []*model.EventDocument) error {
	return d.run("SaveEvents", func() error {
		return d.db.SaveEvents(ctx, events)
	})
}

func (d *DbWithMetrics) GetEventsByAccount(ctx context.Context, account string, limit int64) (result []*model.EventDocument, err error) {
	//nolint:errcheck
	d.run("GetEventsByAccount", func() error {
		result, err = d.db.GetEventsByAccount(ctx, account, limit)
		return err
	})
	return
}

func (d *DbWithMetrics) SaveTierAudit(ctx context.Context, audit *model.TierAuditDocument) error {
	return d.run("SaveTierAudit", func() error {
		return d.db.SaveTierAudit(ctx, audit)
	})
}

func (d *DbWithMetrics) GetTierAuditsByAccount(ctx context.Context, account string) (result []*model.TierAuditDocument, err error) {
	//nolint:errcheck
	d.run("GetTierAuditsByAccount", func() error {
		result, err = d.db.GetTierAuditsByAccount(ctx, account)
		return err
	})
	return
}

func (d *DbWithMetrics) SaveEngineState(ctx context.Context, state *model.EngineStateDocument) error {
	return d.run("SaveEngineState", func() error {
		return d.db.SaveEngineState(ctx, state)
	})
}

func (d *DbWithMetrics) GetLatestEngineState(ctx context.Context) (result *model.EngineStateDocument, err error) {
	//nolint:errcheck
	d.run("GetLatestEngineState", func() error {
		result, err = d.db.GetLatestEngineState(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) SaveSettlement(ctx context.Context, settlement *model.SettlementDocument) error {
	return d.run("SaveSettlement", func() error {
		return d.db.SaveSettlement(ctx, settlement)
	})
}

func (d *DbWithMetrics) UpdateSettlementStatus(ctx context.Context, id, status, proceeds string) error {
	return d.run("UpdateSettlementStatus", func() error {
		return d.db.UpdateSettlementStatus(ctx, id, status, proceeds)
	})
}

func (d *DbWithMetrics) GetSettlement(ctx context.Context, id string) (result *model.SettlementDocument, err error) {
	//nolint:errcheck
	d.run("GetSettlement", func() error {
		result, err = d.db.GetSettlement(ctx, id)
		return err
	})
	return
}

func (d *DbWithMetrics) GetSettlementsByStatus(ctx context.Context, status string) (result []*model.SettlementDocument, err error) {
	//nolint:errcheck
	d.run("GetSettlementsByStatus", func() error {
		result, err = d.db.GetSettlementsByStatus(ctx, status)
		return err
	})
	return
}

// run is private method that executes passed lambda function and send metrics data with spent time, method name
// and an error if any. It returns the error from the lambda function for convenience
func (d *DbWithMetrics) run(method string, f func() error) error {
	startTime := time.Now()
	err := f()
	duration := time.Since(startTime)

	metrics.RecordDbLatency(duration, method, err != nil)
	return err
}
