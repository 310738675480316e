package exchangeclient

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// Amounts travel as decimal strings on the wire; the exchange deals in the
// token's full 18-decimal precision.
type quoteRequest struct {
	Amount string `json:"amount"`
}

type quoteResponse struct {
	Proceeds string `json:"proceeds"`
}

type convertRequest struct {
	RequestId   string `json:"request_id"`
	Account     string `json:"account"`
	Amount      string `json:"amount"`
	MinProceeds string `json:"min_proceeds"`
}

type convertResponse struct {
	RequestId string `json:"request_id"`
	Proceeds  string `json:"proceeds"`
}

func parseAmount(field, raw string) (sdkmath.Int, error) {
	v, ok := sdkmath.NewIntFromString(raw)
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("exchange returned malformed %s: %q", field, raw)
	}
	if v.IsNegative() {
		return sdkmath.Int{}, fmt.Errorf("exchange returned negative %s: %q", field, raw)
	}
	return v, nil
}
