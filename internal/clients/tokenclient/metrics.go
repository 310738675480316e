package tokenclient

import (
	"context"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/syilabs-io/syi-staking-engine/internal/observability/metrics"
)

type tokenClientWithMetrics struct {
	token TokenInterface
}

func NewTokenClientWithMetrics(token TokenInterface) *tokenClientWithMetrics {
	return &tokenClientWithMetrics{token: token}
}

func (t *tokenClientWithMetrics) GetReserve(ctx context.Context) (sdkmath.Int, error) {
	return runTokenClientMethodWithMetrics("GetReserve", func() (sdkmath.Int, error) {
		return t.token.GetReserve(ctx)
	})
}

func (t *tokenClientWithMetrics) GetBalance(ctx context.Context, addr string) (sdkmath.Int, error) {
	return runTokenClientMethodWithMetrics("GetBalance", func() (sdkmath.Int, error) {
		return t.token.GetBalance(ctx, addr)
	})
}

func runTokenClientMethodWithMetrics[T any](method string, f func() (T, error)) (T, error) {
	startTime := time.Now()
	v, err := f()
	duration := time.Since(startTime)

	metrics.RecordTokenClientLatency(duration, method, err != nil)
	return v, err
}
