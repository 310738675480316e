package tokenclient

import (
	"context"

	sdkmath "cosmossdk.io/math"
)

type TokenInterface interface {
	// GetReserve reads the external reserve that backs the admission
	// controller. Implementations may serve a bounded-staleness cache.
	GetReserve(ctx context.Context) (sdkmath.Int, error)
	GetBalance(ctx context.Context, addr string) (sdkmath.Int, error)
}
