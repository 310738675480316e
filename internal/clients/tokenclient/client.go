package tokenclient

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/syilabs-io/syi-staking-engine/internal/clients/client"
	"github.com/syilabs-io/syi-staking-engine/internal/config"
)

const (
	reservePath         = "/v1/reserve"
	balancePathTemplate = "/v1/balance/{address}"
)

type balanceResponse struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

type reserveResponse struct {
	Amount string `json:"amount"`
}

type Client struct {
	httpClient *http.Client
	cfg        *config.TokenConfig

	mu               sync.Mutex
	cachedReserve    sdkmath.Int
	reserveFetchedAt time.Time
}

func NewClient(cfg *config.TokenConfig) *Client {
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

// GetReserve returns the current external reserve. Readings are cached for
// the configured TTL: admission decisions tolerate bounded staleness, and a
// reserve fetch sits on the hot stake path.
func (c *Client) GetReserve(ctx context.Context) (sdkmath.Int, error) {
	c.mu.Lock()
	if !c.cachedReserve.IsNil() && time.Since(c.reserveFetchedAt) < c.cfg.ReserveCacheTTL {
		cached := c.cachedReserve
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	call := func() (sdkmath.Int, error) {
		opts := &client.HttpClientOptions{
			Path:         reservePath,
			TemplatePath: reservePath,
		}
		resp, err := client.SendRequest[struct{}, reserveResponse](ctx, c, http.MethodGet, opts, nil)
		if err != nil {
			return sdkmath.Int{}, err
		}
		return parseAmount(resp.Amount)
	}

	reserve, err := clientCallWithRetry(ctx, call, c.cfg)
	if err != nil {
		return sdkmath.Int{}, fmt.Errorf("failed to fetch reserve: %w", err)
	}

	c.mu.Lock()
	c.cachedReserve = reserve
	c.reserveFetchedAt = time.Now()
	c.mu.Unlock()

	return reserve, nil
}

func (c *Client) GetBalance(ctx context.Context, addr string) (sdkmath.Int, error) {
	if addr == "" {
		return sdkmath.Int{}, fmt.Errorf("empty address provided")
	}

	call := func() (sdkmath.Int, error) {
		opts := &client.HttpClientOptions{
			Path:         "/v1/balance/" + addr,
			TemplatePath: balancePathTemplate,
		}
		resp, err := client.SendRequest[struct{}, balanceResponse](ctx, c, http.MethodGet, opts, nil)
		if err != nil {
			return sdkmath.Int{}, err
		}
		return parseAmount(resp.Amount)
	}

	balance, err := clientCallWithRetry(ctx, call, c.cfg)
	if err != nil {
		return sdkmath.Int{}, fmt.Errorf("failed to fetch balance of %s: %w", addr, err)
	}
	return balance, nil
}

func parseAmount(raw string) (sdkmath.Int, error) {
	v, ok := sdkmath.NewIntFromString(raw)
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("token service returned malformed amount: %q", raw)
	}
	if v.IsNegative() {
		return sdkmath.Int{}, fmt.Errorf("token service returned negative amount: %q", raw)
	}
	return v, nil
}

func clientCallWithRetry[T any](
	ctx context.Context,
	call retry.RetryableFuncWithData[T],
	cfg *config.TokenConfig,
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
				Msg("failed to call the token service, retrying")
		}))
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
