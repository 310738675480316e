package exchangeclient

import (
	"context"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/syilabs-io/syi-staking-engine/internal/observability/metrics"
)

type exchangeClientWithMetrics struct {
	exchange ExchangeInterface
}

func NewExchangeClientWithMetrics(exchange ExchangeInterface) *exchangeClientWithMetrics {
	return &exchangeClientWithMetrics{exchange: exchange}
}

func (e *exchangeClientWithMetrics) Quote(ctx context.Context, amount sdkmath.Int) (sdkmath.Int, error) {
	return runExchangeClientMethodWithMetrics("Quote", func() (sdkmath.Int, error) {
		return e.exchange.Quote(ctx, amount)
	})
}

func (e *exchangeClientWithMetrics) Convert(ctx context.Context, req *ConvertRequest) (*ConvertResult, error) {
	return runExchangeClientMethodWithMetrics("Convert", func() (*ConvertResult, error) {
		return e.exchange.Convert(ctx, req)
	})
}

func runExchangeClientMethodWithMetrics[T any](method string, f func() (T, error)) (T, error) {
	startTime := time.Now()
	v, err := f()
	duration := time.Since(startTime)

	metrics.RecordExchangeClientLatency(duration, method, err != nil)
	return v, err
}
