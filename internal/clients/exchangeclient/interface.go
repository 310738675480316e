package exchangeclient

import (
	"context"

	sdkmath "cosmossdk.io/math"
)

// ConvertRequest asks the exchange to turn staked tokens into settlement
// currency. RequestId makes the conversion idempotent on the exchange side.
type ConvertRequest struct {
	RequestId   string
	Account     string
	Amount      sdkmath.Int
	MinProceeds sdkmath.Int
}

// ConvertResult is the realized outcome of a conversion.
type ConvertResult struct {
	RequestId string
	Proceeds  sdkmath.Int
}

type ExchangeInterface interface {
	Quote(ctx context.Context, amount sdkmath.Int) (sdkmath.Int, error)
	Convert(ctx context.Context, req *ConvertRequest) (*ConvertResult, error)
}
