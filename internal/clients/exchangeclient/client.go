package exchangeclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/syilabs-io/syi-staking-engine/internal/clients/client"
	"github.com/syilabs-io/syi-staking-engine/internal/config"
)

const (
	quotePath   = "/v1/quote"
	convertPath = "/v1/convert"
)

type Client struct {
	httpClient *http.Client
	cfg        *config.ExchangeConfig
}

func NewClient(cfg *config.ExchangeConfig) *Client {
	return &Client{
		httpClient: &http.Client{},
		cfg:        cfg,
	}
}

func (c *Client) GetBaseURL() string {
	return c.cfg.Endpoint
}

func (c *Client) GetDefaultRequestTimeout() time.Duration {
	return c.cfg.Timeout
}

func (c *Client) GetHttpClient() *http.Client {
	return c.httpClient
}

// Quote returns the proceeds the exchange would currently pay for the given
// token amount, without executing anything.
func (c *Client) Quote(ctx context.Context, amount sdkmath.Int) (sdkmath.Int, error) {
	call := func() (sdkmath.Int, error) {
		opts := &client.HttpClientOptions{
			Path:         quotePath,
			TemplatePath: quotePath,
		}
		in := &quoteRequest{Amount: amount.String()}
		resp, err := client.SendRequest[quoteRequest, quoteResponse](ctx, c, http.MethodPost, opts, in)
		if err != nil {
			return sdkmath.Int{}, err
		}
		return parseAmount("proceeds", resp.Proceeds)
	}

	result, err := clientCallWithRetry(ctx, call, c.cfg)
	if err != nil {
		return sdkmath.Int{}, fmt.Errorf("failed to quote %s: %w", amount, err)
	}
	return result, nil
}

// Convert executes a conversion. The same RequestId always yields the same
// result on the exchange side, so retries are safe.
func (c *Client) Convert(ctx context.Context, req *ConvertRequest) (*ConvertResult, error) {
	call := func() (*ConvertResult, error) {
		opts := &client.HttpClientOptions{
			Path:         convertPath,
			TemplatePath: convertPath,
		}
		in := &convertRequest{
			RequestId:   req.RequestId,
			Account:     req.Account,
			Amount:      req.Amount.String(),
			MinProceeds: req.MinProceeds.String(),
		}
		resp, err := client.SendRequest[convertRequest, convertResponse](ctx, c, http.MethodPost, opts, in)
		if err != nil {
			return nil, err
		}
		proceeds, err := parseAmount("proceeds", resp.Proceeds)
		if err != nil {
			return nil, err
		}
		return &ConvertResult{
			RequestId: resp.RequestId,
			Proceeds:  proceeds,
		}, nil
	}

	result, err := clientCallWithRetry(ctx, call, c.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to convert %s for %s: %w", req.Amount, req.Account, err)
	}
	return result, nil
}

func clientCallWithRetry[T any](
	ctx context.Context,
	call retry.RetryableFuncWithData[T],
	cfg *config.ExchangeConfig,
) (T, error) {
	result, err := retry.DoWithData(call,
		retry.Context(ctx),
		retry.Attempts(cfg.MaxRetryTimes),
		retry.Delay(cfg.RetryInterval),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Warn().
				Uint("attempt", n+1).
				Uint("max_attempts", cfg.MaxRetryTimes).
				Err(err).
				Msg("failed to call the exchange, retrying")
		}))
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
